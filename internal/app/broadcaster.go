package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/itweera/lyricstage/internal/core"
	"github.com/itweera/lyricstage/internal/domain"
)

// Stats receives coordinator counters. Satisfied by monitoring.Metrics; a
// nil Stats disables reporting.
type Stats interface {
	ConnectedDevices(n int)
	DocumentBroadcast()
}

// Broadcaster is the process-scoped coordinator over the connection registry
// and the shared session state. It validates each inbound action against the
// sender's role, applies it, and fans the resulting events out through the
// sink. One mutex covers the whole of handle-validate-mutate-announce, so no
// other action's effects can interleave between a mutation and its
// announcement, and the presence count a consumer observes always reflects
// the mutation that triggered it.
type Broadcaster struct {
	mu       sync.Mutex
	registry *core.Registry
	state    *core.SessionState
	sink     EventSink
	stats    Stats
}

func NewBroadcaster(reg *core.Registry, state *core.SessionState, sink EventSink, stats Stats) *Broadcaster {
	return &Broadcaster{registry: reg, state: state, sink: sink, stats: stats}
}

// Connect registers a new transport link with an unset role and publishes
// the refreshed presence count to everyone, newcomer included.
func (b *Broadcaster) Connect(id core.ConnID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.registry.Register(id); err != nil {
		// Re-register of a live id: keep the entry, count unchanged.
		log.Warn().Str("module", "app.broadcaster").Str("conn", string(id)).Err(err).Msg("register skipped")
		return
	}
	log.Info().Str("module", "app.broadcaster").Str("conn", string(id)).Int("devices", b.registry.Size()).Msg("connected")
	b.publishDeviceCount()
}

// Disconnect tears a connection down. Abrupt drops and explicit leaves both
// land here; teardown runs exactly once because a second call finds the
// entry already removed.
func (b *Broadcaster) Disconnect(id core.ConnID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.teardown(id)
}

// Handle applies one inbound action for the given connection.
func (b *Broadcaster) Handle(id core.ConnID, action Action) {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch a := action.(type) {
	case JoinAction:
		b.join(id, a)
	case LeaveAction:
		b.teardown(id)
	case BroadcastDocumentAction:
		b.broadcastDocument(id, a.Doc)
	case ToggleFullscreenAction:
		b.toggleFullscreen(id, a.Active)
	}
}

// PublishDocument is the system-origin broadcast used by the authenticated
// upload endpoint. There is no sender connection to exclude, so fileSync
// goes to everyone.
func (b *Broadcaster) PublishDocument(doc domain.Document) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.ReplaceDocument(doc)
	b.sendAll(FileSyncEvent{Type: "fileSync", Document: doc})
	b.sendAll(FileUploadedEvent{Type: "fileUploaded", FileName: doc.FileName, Timestamp: time.Now().UTC()})
	if b.stats != nil {
		b.stats.DocumentBroadcast()
	}
	log.Info().Str("module", "app.broadcaster").Str("file", doc.FileName).Msg("document published")
}

// Status reports the presence count and the session state in one atomic
// read, for the health endpoint.
func (b *Broadcaster) Status() (devices int, snap core.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.registry.Size(), b.state.Snapshot()
}

func (b *Broadcaster) join(id core.ConnID, a JoinAction) {
	if err := b.registry.Join(id, a.Role, a.SessionID, a.User); err != nil {
		log.Warn().Str("module", "app.broadcaster").Str("conn", string(id)).Err(err).Msg("join dropped")
		return
	}
	log.Info().Str("module", "app.broadcaster").Str("conn", string(id)).
		Str("role", string(a.Role)).Str("session", a.SessionID).Str("user", a.User.Label()).Msg("joined")

	b.sendOthers(id, UserJoinedEvent{
		Type:        "userJoined",
		Role:        a.Role,
		SessionID:   a.SessionID,
		User:        a.User,
		DeviceCount: b.registry.Size(),
	})

	// Late-joiner catch-up: the one place state is replayed rather than
	// pushed.
	if a.Role == domain.RoleViewer {
		if snap := b.state.Snapshot(); !snap.CurrentDocument.Empty() {
			b.sink.Send(id, FileSyncEvent{Type: "fileSync", Document: snap.CurrentDocument})
		}
	}
}

func (b *Broadcaster) broadcastDocument(id core.ConnID, doc domain.Document) {
	conn, ok := b.registry.Get(id)
	if !ok {
		log.Warn().Str("module", "app.broadcaster").Str("conn", string(id)).Msg("broadcast from unknown connection")
		return
	}
	if !conn.Role.CanPresent() {
		// Best-effort policy: the sender gets no rejection event.
		log.Warn().Str("module", "app.broadcaster").Str("conn", string(id)).Str("role", string(conn.Role)).Msg("broadcast dropped, not master")
		return
	}
	b.state.ReplaceDocument(doc)
	b.sendOthers(id, FileSyncEvent{Type: "fileSync", Document: doc})
	b.sendAll(FileUploadedEvent{Type: "fileUploaded", FileName: doc.FileName, Timestamp: time.Now().UTC()})
	if b.stats != nil {
		b.stats.DocumentBroadcast()
	}
	log.Info().Str("module", "app.broadcaster").Str("conn", string(id)).Str("file", doc.FileName).Msg("document broadcast")
}

func (b *Broadcaster) toggleFullscreen(id core.ConnID, active bool) {
	conn, ok := b.registry.Get(id)
	if !ok {
		log.Warn().Str("module", "app.broadcaster").Str("conn", string(id)).Msg("toggle from unknown connection")
		return
	}
	if !conn.Role.CanPresent() {
		log.Warn().Str("module", "app.broadcaster").Str("conn", string(id)).Str("role", string(conn.Role)).Msg("toggle dropped, not master")
		return
	}
	b.state.SetFullscreen(active)
	// Relays are not deduplicated: a repeated toggle still goes out.
	b.sendOthers(id, FullscreenToggleEvent{Type: "fullscreenToggle", IsFullscreen: active})
	log.Info().Str("module", "app.broadcaster").Str("conn", string(id)).Bool("fullscreen", active).Msg("fullscreen toggled")
}

func (b *Broadcaster) teardown(id core.ConnID) {
	conn, ok := b.registry.Remove(id)
	if !ok {
		return
	}
	// Un-joined entries never appeared to anyone, so no userLeft for them.
	if conn.Role.Joined() {
		b.sendOthers(id, UserLeftEvent{
			Type:        "userLeft",
			Role:        conn.Role,
			User:        conn.User,
			DeviceCount: b.registry.Size(),
		})
	}
	b.publishDeviceCount()
	log.Info().Str("module", "app.broadcaster").Str("conn", string(id)).Int("devices", b.registry.Size()).Msg("disconnected")
}

func (b *Broadcaster) publishDeviceCount() {
	b.sendAll(DeviceCountEvent{Type: "deviceCountUpdate", DeviceCount: b.registry.Size()})
	if b.stats != nil {
		b.stats.ConnectedDevices(b.registry.Size())
	}
}

func (b *Broadcaster) sendAll(ev Event) {
	for _, c := range b.registry.All() {
		b.sink.Send(c.ID, ev)
	}
}

func (b *Broadcaster) sendOthers(from core.ConnID, ev Event) {
	for _, c := range b.registry.All() {
		if c.ID == from {
			continue
		}
		b.sink.Send(c.ID, ev)
	}
}
