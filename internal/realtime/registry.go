package realtime

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/user"
)

var (
	ErrUnknownConnection = errors.New("unknown connection")
	ErrNotAuthenticated  = errors.New("not authenticated")
)

// Registry owns the set of live connections. All accessors copy under the
// lock and never expose internal records, so a returned Connection is a
// consistent snapshot no matter what happens to the session afterwards.
//
// The registry performs no I/O; it is safe to call from any goroutine.
type Registry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]*Connection
	users map[string]map[uuid.UUID]struct{} // user id -> connection ids
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[uuid.UUID]*Connection),
		users: make(map[string]map[uuid.UUID]struct{}),
	}
}

// Register creates the record for a new transport session. Registering an
// id that already exists returns the existing record unchanged.
func (reg *Registry) Register(id uuid.UUID) Connection {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if existing, ok := reg.conns[id]; ok {
		return *existing
	}
	now := time.Now().UTC()
	conn := &Connection{
		ID:          id,
		State:       StateUnauthenticated,
		ConnectedAt: now,
		LastUpdate:  now,
	}
	reg.conns[id] = conn
	return *conn
}

// SetIdentity attaches a verified identity and moves the session to
// AUTHENTICATED. The stored identity is a private copy.
func (reg *Registry) SetIdentity(id uuid.UUID, ident user.Identity) (Connection, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	conn, ok := reg.conns[id]
	if !ok {
		return Connection{}, ErrUnknownConnection
	}

	// a re-authenticated session keeps its tracking state
	if conn.Identity != nil && conn.Identity.UserID != ident.UserID {
		reg.dropUserIndex(conn.Identity.UserID, id)
	}
	identCopy := ident
	conn.Identity = &identCopy
	if conn.State == StateUnauthenticated {
		conn.State = StateAuthenticated
	}
	conn.LastUpdate = time.Now().UTC()

	set, ok := reg.users[ident.UserID]
	if !ok {
		set = make(map[uuid.UUID]struct{})
		reg.users[ident.UserID] = set
	}
	set[id] = struct{}{}

	return *conn, nil
}

// MarkTracking toggles active location sharing. It refuses sessions that
// are unknown or still unauthenticated.
func (reg *Registry) MarkTracking(id uuid.UUID, active bool) (Connection, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	conn, ok := reg.conns[id]
	if !ok {
		return Connection{}, ErrUnknownConnection
	}
	if !conn.State.Authenticated() {
		return *conn, ErrNotAuthenticated
	}
	if active {
		conn.State = StateTracking
	} else {
		conn.State = StateAuthenticated
	}
	conn.LastUpdate = time.Now().UTC()
	return *conn, nil
}

// Touch refreshes LastUpdate, e.g. after an accepted location fix.
func (reg *Registry) Touch(id uuid.UUID) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if conn, ok := reg.conns[id]; ok {
		conn.LastUpdate = time.Now().UTC()
	}
}

// Get returns a snapshot of one session.
func (reg *Registry) Get(id uuid.UUID) (Connection, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	conn, ok := reg.conns[id]
	if !ok {
		return Connection{}, false
	}
	return *conn, true
}

// Remove deletes the record and returns its last live snapshot, so the
// caller can still see whether the session was TRACKING. Removal is the
// CLOSED state; removing an unknown id reports ok=false, which makes
// repeated finalization harmless.
func (reg *Registry) Remove(id uuid.UUID) (Connection, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	conn, ok := reg.conns[id]
	if !ok {
		return Connection{}, false
	}
	delete(reg.conns, id)
	if conn.Identity != nil {
		reg.dropUserIndex(conn.Identity.UserID, id)
	}
	return *conn, true
}

// ByUser returns the sessions authenticated as the given user, tracking
// sessions first.
func (reg *Registry) ByUser(userID string) []Connection {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	ids, ok := reg.users[userID]
	if !ok {
		return nil
	}
	out := make([]Connection, 0, len(ids))
	for id := range ids {
		if conn, ok := reg.conns[id]; ok {
			if conn.State.IsTracking() {
				out = append([]Connection{*conn}, out...)
			} else {
				out = append(out, *conn)
			}
		}
	}
	return out
}

// AllTracking returns a snapshot of every session in TRACKING state.
func (reg *Registry) AllTracking() []Connection {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	out := make([]Connection, 0)
	for _, conn := range reg.conns {
		if conn.State.IsTracking() {
			out = append(out, *conn)
		}
	}
	return out
}

// TrackingByOrganization returns a snapshot of the TRACKING sessions whose
// identity belongs to the given organization.
func (reg *Registry) TrackingByOrganization(orgID string) []Connection {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	out := make([]Connection, 0)
	for _, conn := range reg.conns {
		if conn.State.IsTracking() && conn.Identity != nil && conn.Identity.OrganizationID == orgID {
			out = append(out, *conn)
		}
	}
	return out
}

// All returns a snapshot of every live session regardless of state.
func (reg *Registry) All() []Connection {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	out := make([]Connection, 0, len(reg.conns))
	for _, conn := range reg.conns {
		out = append(out, *conn)
	}
	return out
}

// Len reports the number of live sessions.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.conns)
}

// dropUserIndex removes one connection from the user index, pruning empty
// entries. Caller must hold the write lock.
func (reg *Registry) dropUserIndex(userID string, id uuid.UUID) {
	set, ok := reg.users[userID]
	if !ok {
		return
	}
	delete(set, id)
	if len(set) == 0 {
		delete(reg.users, userID)
	}
}
