// Package core holds the shared mutable state of the broadcast scope:
// the connection registry and the session state. Neither type locks
// internally — the app.Broadcaster owns one mutex over both, because a
// registry mutation, the presence refresh it implies and the announcement
// that follows must be observed as one atomic unit.
package core

import (
	"errors"

	"github.com/itweera/lyricstage/internal/domain"
)

// ConnID identifies one live transport link, assigned at connect time.
type ConnID string

var (
	ErrUnknownConnection   = errors.New("unknown connection")
	ErrDuplicateConnection = errors.New("duplicate connection")
)

// Connection is the registry record for one live transport link.
type Connection struct {
	ID        ConnID
	Role      domain.Role
	SessionID string
	User      domain.Identity
}

// Registry is the bookkeeping of every live connection and its declared
// role, session label and identity.
type Registry struct {
	conns map[ConnID]*Connection
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[ConnID]*Connection)}
}

// Register creates an entry with an unset role. Registering a live id again
// returns ErrDuplicateConnection; the existing entry is left untouched.
func (r *Registry) Register(id ConnID) error {
	if _, ok := r.conns[id]; ok {
		return ErrDuplicateConnection
	}
	r.conns[id] = &Connection{ID: id}
	return nil
}

// Join promotes a registered connection. A repeated join overwrites role,
// session and identity — last call wins, which is how a mid-session role
// change is modeled.
func (r *Registry) Join(id ConnID, role domain.Role, sessionID string, user domain.Identity) error {
	c, ok := r.conns[id]
	if !ok {
		return ErrUnknownConnection
	}
	c.Role = role
	c.SessionID = sessionID
	c.User = user
	return nil
}

// Remove deletes and returns the entry for id.
func (r *Registry) Remove(id ConnID) (Connection, bool) {
	c, ok := r.conns[id]
	if !ok {
		return Connection{}, false
	}
	delete(r.conns, id)
	return *c, true
}

func (r *Registry) Get(id ConnID) (Connection, bool) {
	c, ok := r.conns[id]
	if !ok {
		return Connection{}, false
	}
	return *c, true
}

// Size is the presence count: presence is derived from the registry, never
// stored separately.
func (r *Registry) Size() int { return len(r.conns) }

// All returns a snapshot of every entry, in no significant order.
func (r *Registry) All() []Connection {
	out := make([]Connection, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, *c)
	}
	return out
}
