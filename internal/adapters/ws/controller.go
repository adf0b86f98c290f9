// Package ws is the WebSocket transport adapter: it upgrades HTTP requests,
// owns the per-connection pumps, decodes inbound actions for the
// broadcaster and delivers its outbound events.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/itweera/lyricstage/internal/app"
	"github.com/itweera/lyricstage/internal/core"
)

var ErrBackpressure = errors.New("backpressure")

// DropStats counts sends dropped on backpressure. Satisfied by
// monitoring.Metrics; nil disables reporting.
type DropStats interface {
	DroppedSend()
}

// Controller maps connection ids to live sockets and implements
// app.EventSink. Slow consumers are dropped: a full send buffer closes the
// socket, and the read pump then runs the normal teardown.
type Controller struct {
	readLimit  int64
	pingPeriod time.Duration
	stats      DropStats

	bc *app.Broadcaster

	mu    sync.RWMutex
	conns map[core.ConnID]*Conn
}

func NewController(readLimit int64, pingPeriod time.Duration, stats DropStats) *Controller {
	return &Controller{
		readLimit:  readLimit,
		pingPeriod: pingPeriod,
		stats:      stats,
		conns:      make(map[core.ConnID]*Conn),
	}
}

// Bind wires the broadcaster in after construction; controller and
// broadcaster reference each other.
func (ctl *Controller) Bind(bc *app.Broadcaster) { ctl.bc = bc }

// Conn wraps one socket with a buffered send channel. TrySend never blocks;
// the write pump drains the channel.
type Conn struct {
	ws   *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func (c *Conn) TrySend(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *Conn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.ws.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the request and runs the connection lifecycle: register
// on connect, pumps while alive, exactly-once teardown when the read pump
// exits — however the transport terminated.
func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	sock, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("upgrade")
		return
	}

	id := core.ConnID(uuid.NewString())
	log.Info().Str("module", "ws").Str("conn", string(id)).
		Str("client", c.GetString("client_token")).Msg("new connection")

	conn := &Conn{ws: sock, send: make(chan []byte, 32)}

	// The socket must be reachable before Connect so the newcomer sees its
	// own deviceCountUpdate.
	ctl.mu.Lock()
	ctl.conns[id] = conn
	ctl.mu.Unlock()

	ctl.bc.Connect(id)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go func() {
		defer cancel()
		ctl.readPump(ctx, id, conn)
	}()
}

// Send implements app.EventSink. Called under the broadcaster's lock, so it
// only does a non-blocking channel hand-off.
func (ctl *Controller) Send(to core.ConnID, ev app.Event) {
	ctl.mu.RLock()
	conn, ok := ctl.conns[to]
	ctl.mu.RUnlock()
	if !ok {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("marshal event")
		return
	}
	if err := conn.TrySend(data); err != nil {
		if ctl.stats != nil {
			ctl.stats.DroppedSend()
		}
		log.Warn().Err(err).Str("module", "ws").Str("conn", string(to)).Msg("send dropped, closing")
		conn.Close()
	}
}

func (ctl *Controller) remove(id core.ConnID) {
	ctl.mu.Lock()
	delete(ctl.conns, id)
	ctl.mu.Unlock()
}
