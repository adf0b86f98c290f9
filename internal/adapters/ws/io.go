package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/itweera/lyricstage/internal/app"
	"github.com/itweera/lyricstage/internal/core"
	"github.com/itweera/lyricstage/internal/domain"
)

const writeWait = 5 * time.Second

var errUnknownEvent = errors.New("unknown event")

func (ctl *Controller) writePump(ctx context.Context, c *Conn) {
	ping := time.NewTicker(ctl.pingPeriod)
	defer ping.Stop()
	// Closing here unblocks the read pump, which owns the teardown.
	defer c.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug().Err(err).Str("module", "ws").Msg("writePump ping")
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, id core.ConnID, c *Conn) {
	defer func() {
		log.Info().Str("module", "ws").Str("conn", string(id)).Msg("readPump closing")
		ctl.remove(id)
		c.Close()
		ctl.bc.Disconnect(id)
	}()

	c.ws.SetReadLimit(ctl.readLimit)
	pongWait := ctl.pingPeriod * 10 / 9
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.ws.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "ws").Str("conn", string(id)).Msg("readPump read error")
				return
			}
			ctl.handleMessage(id, c, data)
		}
	}
}

func (ctl *Controller) handleMessage(id core.ConnID, c *Conn, data []byte) {
	action, err := decodeAction(data)
	if err != nil {
		// Malformed or unknown actions are dropped, never answered.
		log.Warn().Err(err).Str("module", "ws").Str("conn", string(id)).Msg("action dropped")
		return
	}
	ctl.bc.Handle(id, action)

	// An explicit leave ends the transport too; teardown already ran in
	// Handle, the pump exit finds the entry gone.
	if _, ok := action.(app.LeaveAction); ok {
		c.Close()
	}
}

// decodeAction maps a wire message onto the closed action set.
func decodeAction(data []byte) (app.Action, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("bad envelope: %w", err)
	}

	switch env.Type {
	case "joinSession":
		var p struct {
			Role      string          `json:"role"`
			SessionID string          `json:"sessionId"`
			User      domain.Identity `json:"user"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("bad joinSession payload: %w", err)
		}
		role, ok := domain.ParseRole(p.Role)
		if !ok {
			return nil, fmt.Errorf("joinSession: invalid role %q", p.Role)
		}
		return app.JoinAction{Role: role, SessionID: p.SessionID, User: p.User}, nil

	case "leaveSession":
		return app.LeaveAction{}, nil

	case "fileUpload":
		var doc domain.Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("bad fileUpload payload: %w", err)
		}
		if doc.Empty() {
			return nil, errors.New("fileUpload: missing fileName")
		}
		return app.BroadcastDocumentAction{Doc: doc}, nil

	case "fullscreenToggle":
		var p struct {
			IsFullscreen bool `json:"isFullscreen"`
		}
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("bad fullscreenToggle payload: %w", err)
		}
		return app.ToggleFullscreenAction{Active: p.IsFullscreen}, nil
	}
	return nil, fmt.Errorf("%w: %q", errUnknownEvent, env.Type)
}
