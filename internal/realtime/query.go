package realtime

import (
	"context"
	"sort"
	"time"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/geo"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/user"
)

// ActiveUser is one row of the live tracking view: the connection's verified
// identity joined with the latest stored fix. Location is nil when the user
// has never reported one.
type ActiveUser struct {
	UserID         string
	Email          string
	Role           user.Role
	OrganizationID string
	ConnectedAt    time.Time
	LastUpdate     time.Time
	Location       *geo.CurrentLocation
}

// ActiveTrackingUsers returns everyone currently TRACKING for one
// organization, ordered by user id. Each call takes a fresh registry
// snapshot and re-reads locations; nothing is cached.
func (hub *Hub) ActiveTrackingUsers(ctx context.Context, orgID string) []ActiveUser {
	return hub.assemble(ctx, hub.registry.TrackingByOrganization(orgID))
}

// AllActiveTrackingUsers returns every TRACKING user across organizations,
// ordered by user id.
func (hub *Hub) AllActiveTrackingUsers(ctx context.Context) []ActiveUser {
	return hub.assemble(ctx, hub.registry.AllTracking())
}

// UserLive returns the live view of one user, preferring a TRACKING session
// when the user holds several connections. ok=false when the user has no
// open connection at all.
func (hub *Hub) UserLive(ctx context.Context, userID string) (ActiveUser, bool) {
	conns := hub.registry.ByUser(userID)
	if len(conns) == 0 {
		return ActiveUser{}, false
	}
	rows := hub.assemble(ctx, conns[:1])
	if len(rows) == 0 {
		return ActiveUser{}, false
	}
	return rows[0], true
}

// assemble joins connection snapshots with their stored fixes. Multiple
// connections of the same user collapse into one row keeping the freshest
// LastUpdate. A failed location read degrades to a nil Location rather than
// failing the whole view.
func (hub *Hub) assemble(ctx context.Context, conns []Connection) []ActiveUser {
	byUser := make(map[string]Connection, len(conns))
	for _, conn := range conns {
		if conn.Identity == nil {
			continue
		}
		if prev, ok := byUser[conn.Identity.UserID]; !ok || conn.LastUpdate.After(prev.LastUpdate) {
			byUser[conn.Identity.UserID] = conn
		}
	}

	rows := make([]ActiveUser, 0, len(byUser))
	for userID, conn := range byUser {
		location, err := hub.bridge.CurrentLocation(ctx, userID)
		if err != nil {
			hub.logger.Error(ctx, "location_read_failed", "Failed to read current location", err, map[string]any{
				"user_id": userID,
			})
			location = nil
		}
		rows = append(rows, ActiveUser{
			UserID:         conn.Identity.UserID,
			Email:          conn.Identity.Email,
			Role:           conn.Identity.Role,
			OrganizationID: conn.Identity.OrganizationID,
			ConnectedAt:    conn.ConnectedAt,
			LastUpdate:     conn.LastUpdate,
			Location:       location,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].UserID < rows[j].UserID })
	return rows
}

// ----- Push primitives -----
//
// Fire-and-forget sends used by admin endpoints and the directive consumer.
// Each returns how many connections the frame was handed to.

// SendToUser pushes a frame to every connection authenticated as userID.
func (hub *Hub) SendToUser(ctx context.Context, userID, event string, payload map[string]any) int {
	frame := pushFrame(event, payload)
	delivered := 0
	for _, conn := range hub.registry.ByUser(userID) {
		if err := hub.emitter.Emit(conn.ID, frame); err != nil {
			continue
		}
		delivered++
	}
	hub.logger.Debug(ctx, "push_user", "Pushed frame to user connections", map[string]any{
		"user_id":   userID,
		"event":     event,
		"delivered": delivered,
	})
	return delivered
}

// SendToOrganization pushes a frame to every member of an org room.
func (hub *Hub) SendToOrganization(ctx context.Context, orgID, event string, payload map[string]any) int {
	frame := pushFrame(event, payload)
	delivered := 0
	for _, memberID := range hub.rooms.MembersOf(orgID) {
		if err := hub.emitter.Emit(memberID, frame); err != nil {
			continue
		}
		delivered++
	}
	hub.logger.Debug(hub.logger.WithOrgID(ctx, orgID), "push_org", "Pushed frame to organization room", map[string]any{
		"event":     event,
		"delivered": delivered,
	})
	return delivered
}

// BroadcastAll pushes a frame to every authenticated connection.
func (hub *Hub) BroadcastAll(ctx context.Context, event string, payload map[string]any) int {
	frame := pushFrame(event, payload)
	delivered := 0
	for _, conn := range hub.registry.All() {
		if !conn.Authenticated() {
			continue
		}
		if err := hub.emitter.Emit(conn.ID, frame); err != nil {
			continue
		}
		delivered++
	}
	hub.logger.Debug(ctx, "push_broadcast", "Pushed frame to all connections", map[string]any{
		"event":     event,
		"delivered": delivered,
	})
	return delivered
}

// Stats reports live counters for health and overview endpoints.
type Stats struct {
	Connections   int `json:"connections"`
	Authenticated int `json:"authenticated"`
	Tracking      int `json:"tracking"`
	OrgRooms      int `json:"org_rooms"`
	WatchRooms    int `json:"watch_rooms"`
}

func (hub *Hub) Stats() Stats {
	stats := Stats{}
	for _, conn := range hub.registry.All() {
		stats.Connections++
		if conn.Authenticated() {
			stats.Authenticated++
		}
		if conn.IsTracking() {
			stats.Tracking++
		}
	}
	stats.OrgRooms, stats.WatchRooms = hub.rooms.Counts()
	return stats
}

// pushFrame builds a flat outbound frame from a generic payload; the event
// name takes the "type" slot.
func pushFrame(event string, payload map[string]any) map[string]any {
	frame := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		frame[k] = v
	}
	frame["type"] = event
	return frame
}
