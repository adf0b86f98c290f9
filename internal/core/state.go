package core

import "github.com/itweera/lyricstage/internal/domain"

// Snapshot is the read-only view of the session state, replayed to late
// joiners.
type Snapshot struct {
	CurrentDocument  domain.Document
	FullscreenActive bool
}

// SessionState holds the most-recently broadcast document and the current
// fullscreen flag. Last writer wins: a new document replaces the previous
// one, no history is kept. Synchronization is owned by the broadcaster,
// same as Registry.
type SessionState struct {
	doc        domain.Document
	fullscreen bool
}

func NewSessionState() *SessionState { return &SessionState{} }

// ReplaceDocument swaps the active document unconditionally. Role gating
// happens before any caller reaches here.
func (s *SessionState) ReplaceDocument(doc domain.Document) { s.doc = doc }

func (s *SessionState) SetFullscreen(active bool) { s.fullscreen = active }

func (s *SessionState) Snapshot() Snapshot {
	return Snapshot{CurrentDocument: s.doc, FullscreenActive: s.fullscreen}
}
