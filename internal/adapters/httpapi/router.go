// Package httpapi is the HTTP surface: auth, upload, health, static
// uploads, metrics and the WebSocket entry point.
package httpapi

import (
	"context"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/itweera/lyricstage/internal/adapters/auth"
	"github.com/itweera/lyricstage/internal/adapters/ws"
	"github.com/itweera/lyricstage/internal/app"
	"github.com/itweera/lyricstage/internal/config"
	"github.com/itweera/lyricstage/internal/extract"
	"github.com/itweera/lyricstage/internal/monitoring"
	"github.com/itweera/lyricstage/internal/storage"
)

type Deps struct {
	Broadcaster *app.Broadcaster
	WS          *ws.Controller
	Auth        *auth.Service
	Store       *storage.Store
	Extractor   extract.Extractor
	Metrics     *monitoring.Metrics
}

// ClientTokenMiddleware pins a per-browser token into the cookie session so
// reconnects are traceable across socket lifetimes.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessions.Default(c)
		token, _ := s.Get("ct").(string)
		if token == "" {
			token = uuid.NewString()
			s.Set("ct", token)
			if err := s.Save(); err != nil {
				log.Warn().Err(err).Str("module", "adapters.httpapi").Msg("session save")
			}
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Origins,
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("LyricStage", store))
	r.Use(ClientTokenMiddleware())

	r.Static("/uploads", deps.Store.Dir())

	log.Info().Str("module", "adapters.httpapi").Str("uploads", deps.Store.Dir()).Msg("router setup")

	api := r.Group("/api")

	api.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.httpapi").Str("client", c.GetString("client_token")).Msg("ws endpoint hit")
		deps.WS.Handle(ctx, c)
	})

	api.POST("/auth/login", handleLogin(deps.Auth))
	api.POST("/auth/logout", handleLogout)
	api.GET("/auth/me", deps.Auth.Required(), handleMe)

	api.POST("/upload", deps.Auth.Required(), handleUpload(deps))
	api.GET("/health", handleHealth(deps.Broadcaster))

	if cfg.MetricsEnabled && deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	return r
}
