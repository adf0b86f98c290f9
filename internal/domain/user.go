// Package domain contains entities without logic, just meta-data.
package domain

// Identity describes the authenticated caller behind a connection. It is
// carried opaquely: issued by the auth service, echoed in membership
// announcements, never validated by the coordinator.
type Identity struct {
	ID          int    `json:"id,omitempty"`
	Username    string `json:"username"`
	Role        string `json:"role,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
}

// Label picks the human-facing name for logs and announcements.
func (u Identity) Label() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}
