package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/itweera/lyricstage/internal/adapters/auth"
	"github.com/itweera/lyricstage/internal/adapters/httpapi"
	"github.com/itweera/lyricstage/internal/adapters/ws"
	"github.com/itweera/lyricstage/internal/app"
	"github.com/itweera/lyricstage/internal/config"
	"github.com/itweera/lyricstage/internal/core"
	"github.com/itweera/lyricstage/internal/extract"
	"github.com/itweera/lyricstage/internal/monitoring"
	"github.com/itweera/lyricstage/internal/storage"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}

	store, err := storage.NewStore(cfg.UploadsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("uploads dir unavailable")
	}

	metrics := monitoring.New()
	controller := ws.NewController(cfg.ReadLimit, cfg.PingPeriod, metrics)
	broadcaster := app.NewBroadcaster(core.NewRegistry(), core.NewSessionState(), controller, metrics)
	controller.Bind(broadcaster)

	r := httpapi.SetupRouter(ctx, cfg, httpapi.Deps{
		Broadcaster: broadcaster,
		WS:          controller,
		Auth:        auth.NewService(cfg.Secret, cfg.TokenTTL, cfg.Users),
		Store:       store,
		Extractor:   extract.PDFText{},
		Metrics:     metrics,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("LyricStage server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
