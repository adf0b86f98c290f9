package app

import (
	"time"

	"github.com/itweera/lyricstage/internal/core"
	"github.com/itweera/lyricstage/internal/domain"
)

// Event is the closed set of server-originated events. Each carries its wire
// type in a Type field so the transport can marshal it as-is.
type Event interface{ isEvent() }

// EventSink delivers an outbound event to one connection. Implementations
// must not block: the broadcaster calls Send while holding its lock, which
// is what keeps a mutation and its announcements atomic with respect to
// other actions.
type EventSink interface {
	Send(to core.ConnID, ev Event)
}

// UserJoinedEvent announces a join to every other connection.
type UserJoinedEvent struct {
	Type        string          `json:"type"`
	Role        domain.Role     `json:"role"`
	SessionID   string          `json:"sessionId"`
	User        domain.Identity `json:"user"`
	DeviceCount int             `json:"deviceCount"`
}

// UserLeftEvent announces a leave or disconnect to every other connection.
type UserLeftEvent struct {
	Type        string          `json:"type"`
	Role        domain.Role     `json:"role"`
	User        domain.Identity `json:"user"`
	DeviceCount int             `json:"deviceCount"`
}

// DeviceCountEvent publishes the presence count to all connections.
type DeviceCountEvent struct {
	Type        string `json:"type"`
	DeviceCount int    `json:"deviceCount"`
}

// FileSyncEvent carries the full document record: pushed to others on a
// broadcast, replayed to a late-joining viewer.
type FileSyncEvent struct {
	Type string `json:"type"`
	domain.Document
}

// FileUploadedEvent is the lightweight activity notice sent to everyone,
// sender included.
type FileUploadedEvent struct {
	Type      string    `json:"type"`
	FileName  string    `json:"fileName"`
	Timestamp time.Time `json:"timestamp"`
}

// FullscreenToggleEvent relays the fullscreen flag to every other connection.
type FullscreenToggleEvent struct {
	Type         string `json:"type"`
	IsFullscreen bool   `json:"isFullscreen"`
}

func (UserJoinedEvent) isEvent()       {}
func (UserLeftEvent) isEvent()         {}
func (DeviceCountEvent) isEvent()      {}
func (FileSyncEvent) isEvent()         {}
func (FileUploadedEvent) isEvent()     {}
func (FullscreenToggleEvent) isEvent() {}
