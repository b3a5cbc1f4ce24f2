package realtime

import (
	"time"

	"github.com/google/uuid"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/user"
)

// Connection is a point-in-time view of one websocket session. The registry
// hands out copies only; callers never hold a reference into registry state.
//
// Identity is nil until authentication succeeds. Once set it is never
// mutated, only replaced, so a copied Connection stays consistent.
type Connection struct {
	ID          uuid.UUID
	State       State
	Identity    *user.Identity
	ConnectedAt time.Time
	LastUpdate  time.Time
}

// Authenticated reports whether the session carries a verified identity.
func (conn Connection) Authenticated() bool {
	return conn.State.Authenticated() && conn.Identity != nil
}

// IsTracking reports whether the session is actively sharing location.
func (conn Connection) IsTracking() bool {
	return conn.State.IsTracking()
}

// UserID returns the verified subject, or "" before authentication.
func (conn Connection) UserID() string {
	if conn.Identity == nil {
		return ""
	}
	return conn.Identity.UserID
}

// OrganizationID returns the subject's organization, or "" when the identity
// is absent or carries none.
func (conn Connection) OrganizationID() string {
	if conn.Identity == nil {
		return ""
	}
	return conn.Identity.OrganizationID
}
