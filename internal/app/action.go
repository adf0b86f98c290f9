package app

import "github.com/itweera/lyricstage/internal/domain"

// Action is the closed set of inbound participant actions. The transport
// adapter decodes wire payloads into these; the broadcaster never sees raw
// JSON.
type Action interface{ isAction() }

// JoinAction declares the connection's role, session label and identity.
// Allowed from a registered or an already joined connection; a repeated
// join re-enters the joined state with the new role.
type JoinAction struct {
	Role      domain.Role
	SessionID string
	User      domain.Identity
}

// LeaveAction is an explicit leave. It routes to the same teardown as a
// transport disconnect.
type LeaveAction struct{}

// BroadcastDocumentAction replaces the shared document. Master only.
type BroadcastDocumentAction struct {
	Doc domain.Document
}

// ToggleFullscreenAction sets the shared fullscreen flag. Master only.
type ToggleFullscreenAction struct {
	Active bool
}

func (JoinAction) isAction()              {}
func (LeaveAction) isAction()             {}
func (BroadcastDocumentAction) isAction() {}
func (ToggleFullscreenAction) isAction()  {}
