package realtime

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/emergency"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/geo"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/general/logger"
)

// Hub is the realtime tracking core: it owns the connection registry and the
// room index, and routes every inbound event through one Handle path. The
// transport layer feeds it raw frames and calls Disconnect exactly when a
// session ends, whatever the close reason.
//
// The hub performs no transport or broker I/O itself; those arrive as the
// Emitter, PersistenceBridge and Mirror ports.
type Hub struct {
	logger   *logger.Logger
	registry *Registry
	rooms    *RoomIndex
	verifier Verifier
	bridge   PersistenceBridge
	emitter  Emitter
	mirror   Mirror
}

// NewHub wires the core. mirror may be nil to disable event mirroring.
func NewHub(log *logger.Logger, verifier Verifier, bridge PersistenceBridge, emitter Emitter, mirror Mirror) *Hub {
	return &Hub{
		logger:   log,
		registry: NewRegistry(),
		rooms:    NewRoomIndex(),
		verifier: verifier,
		bridge:   bridge,
		emitter:  emitter,
		mirror:   mirror,
	}
}

// Connect registers a new transport session and returns its connection id.
func (hub *Hub) Connect(ctx context.Context) uuid.UUID {
	id := uuid.New()
	conn := hub.registry.Register(id)
	hub.logger.Info(hub.logger.WithConnID(ctx, id.String()), "hub_connected", "Connection registered", map[string]any{
		"state": conn.State.String(),
	})
	return id
}

// Handle processes one inbound frame for one connection and returns the
// post-event snapshot. All client feedback (acks, error frames) is emitted
// here; the caller only needs the returned state to manage transport
// deadlines. Events for the same connection must be fed sequentially, which
// the one-reader-goroutine-per-socket transport guarantees.
func (hub *Hub) Handle(ctx context.Context, connID uuid.UUID, raw []byte) (snap Connection) {
	ctx = hub.logger.WithConnID(ctx, connID.String())

	conn, ok := hub.registry.Get(connID)
	if !ok {
		hub.logger.Debug(ctx, "hub_unknown_connection", "Frame for unknown connection dropped", nil)
		return Connection{ID: connID}
	}
	snap = conn

	// a handler crash must cost this event only, never the process
	defer func() {
		if r := recover(); r != nil {
			hub.logger.Error(ctx, "hub_handler_panic", "Recovered panic in event handler", fmt.Errorf("panic: %v", r), nil)
			hub.emitError(ctx, connID, "internal error")
			if cur, ok := hub.registry.Get(connID); ok {
				snap = cur
			}
		}
	}()

	event, err := ParseClientEvent(raw)
	if err != nil {
		hub.logger.Debug(ctx, "hub_frame_rejected", "Inbound frame failed to parse", map[string]any{
			"reason": err.Error(),
		})
		hub.emitError(ctx, connID, err.Error())
		return conn
	}

	if !conn.Authenticated() && event.Type() != EventAuthenticate {
		hub.emitError(ctx, connID, "not authenticated")
		return conn
	}
	if conn.Identity != nil {
		ctx = hub.logger.WithOrgID(ctx, conn.Identity.OrganizationID)
	}

	switch ev := event.(type) {
	case AuthenticateEvent:
		return hub.handleAuthenticate(ctx, conn, ev)
	case LocationUpdateEvent:
		return hub.handleLocationUpdate(ctx, conn, ev)
	case StartTrackingEvent:
		return hub.handleStartTracking(ctx, conn, ev)
	case StopTrackingEvent:
		return hub.handleStopTracking(ctx, conn, ev)
	case WatchDeliveryEvent:
		return hub.handleWatchDelivery(ctx, conn, ev)
	case UnwatchDeliveryEvent:
		return hub.handleUnwatchDelivery(ctx, conn, ev)
	case EmergencyRequestEvent:
		return hub.handleEmergencyRequest(ctx, conn, ev)
	default:
		hub.emitError(ctx, connID, "unknown event type")
		return conn
	}
}

// Disconnect is the single finalization path for every close reason:
// graceful close, read error, ping timeout, failed write. Safe to call more
// than once per connection.
func (hub *Hub) Disconnect(ctx context.Context, connID uuid.UUID) {
	ctx = hub.logger.WithConnID(ctx, connID.String())

	conn, ok := hub.registry.Remove(connID)
	if !ok {
		return // already finalized
	}
	hub.rooms.DropConnection(connID)

	now := time.Now().UTC()
	if conn.IsTracking() && conn.OrganizationID() != "" {
		hub.broadcastOrg(ctx, conn.OrganizationID(), connID, UserDisconnectedFrame{
			Type:      TypeUserDisconnected,
			UserID:    conn.UserID(),
			Timestamp: now,
		})
	}
	if conn.IsTracking() && conn.Identity != nil && hub.mirror != nil {
		hub.mirror.TrackingChanged(ctx, *conn.Identity, false, now)
	}

	hub.logger.Info(hub.logger.WithOrgID(ctx, conn.OrganizationID()), "hub_disconnected", "Connection finalized", map[string]any{
		"user_id":         conn.UserID(),
		"was_tracking":    conn.IsTracking(),
		"session_seconds": int(now.Sub(conn.ConnectedAt).Seconds()),
	})
}

// ----- Event handlers -----

func (hub *Hub) handleAuthenticate(ctx context.Context, conn Connection, ev AuthenticateEvent) Connection {
	if conn.Authenticated() {
		hub.emitError(ctx, conn.ID, "already authenticated")
		return conn
	}

	ident, err := hub.verifier.Verify(ctx, ev.Token)
	if err != nil {
		hub.logger.Info(ctx, "auth_rejected", "Token verification failed", map[string]any{
			"reason": err.Error(),
		})
		hub.emit(ctx, conn.ID, AuthErrorFrame{Type: TypeAuthError, Message: "authentication failed: invalid token"})
		return conn
	}

	next, err := hub.registry.SetIdentity(conn.ID, ident)
	if err != nil {
		// session vanished mid-event; nothing left to answer
		hub.logger.Debug(ctx, "auth_lost_connection", "Connection removed during authentication", nil)
		return conn
	}
	if ident.HasOrganization() {
		hub.rooms.JoinOrganization(ident.OrganizationID, conn.ID)
	}

	hub.emit(ctx, conn.ID, AuthenticatedFrame{
		Type:           TypeAuthenticated,
		UserID:         ident.UserID,
		OrganizationID: ident.OrganizationID,
		Role:           ident.Role.String(),
		Timestamp:      time.Now().UTC(),
	})
	hub.logger.Info(hub.logger.WithOrgID(ctx, ident.OrganizationID), "auth_success", "Connection authenticated", map[string]any{
		"user_id": ident.UserID,
		"role":    ident.Role.String(),
	})
	return next
}

func (hub *Hub) handleLocationUpdate(ctx context.Context, conn Connection, ev LocationUpdateEvent) Connection {
	ident := *conn.Identity

	// bounds gate runs before anything durable or visible happens
	if err := geo.ValidateBounds(ev.Latitude, ev.Longitude); err != nil {
		hub.logger.Info(ctx, "location_rejected", "Fix outside coordinate bounds", map[string]any{
			"user_id":   ident.UserID,
			"latitude":  ev.Latitude,
			"longitude": ev.Longitude,
		})
		hub.emitError(ctx, conn.ID, "invalid coordinates")
		return conn
	}
	if !ident.HasOrganization() {
		hub.emitError(ctx, conn.ID, "no organization to receive location updates")
		return conn
	}

	fix, err := geo.NewSnapshot(ev.Latitude, ev.Longitude, ev.AccuracyMeters, ev.AltitudeMeters, ev.SpeedKMH, ev.HeadingDegrees, time.Now().UTC())
	if err != nil {
		hub.emitError(ctx, conn.ID, err.Error())
		return conn
	}
	location, err := geo.NewCurrentLocation(ident.UserID, ident.OrganizationID, fix, ev.BatteryLevel, geo.NetworkTypeOrUnknown(ev.NetworkType), ev.DeviceInfo, ev.IsActive)
	if err != nil {
		hub.emitError(ctx, conn.ID, err.Error())
		return conn
	}

	// durable write is best effort; the live fan-out below still runs
	if err := hub.bridge.UpsertCurrentLocation(ctx, location); err != nil {
		hub.logger.Error(ctx, "location_persist_failed", "Failed to store current location", err, map[string]any{
			"user_id": ident.UserID,
		})
	}
	hub.registry.Touch(conn.ID)

	frame := LocationBroadcastFrame{
		Type:           TypeLocationUpdated,
		UserID:         ident.UserID,
		Latitude:       fix.Latitude,
		Longitude:      fix.Longitude,
		AccuracyMeters: fix.AccuracyMeters,
		AltitudeMeters: fix.AltitudeMeters,
		SpeedKMH:       fix.SpeedKMH,
		HeadingDegrees: fix.HeadingDegrees,
		BatteryLevel:   ev.BatteryLevel,
		NetworkType:    location.NetworkType.String(),
		IsActive:       ev.IsActive,
		Timestamp:      fix.RecordedAt,
	}
	hub.broadcastOrg(ctx, ident.OrganizationID, conn.ID, frame)

	watchFrame := frame
	watchFrame.Type = TypeDeliveryLocationUpdate
	hub.broadcastWatchers(ctx, ident.UserID, conn.ID, watchFrame)

	if hub.mirror != nil {
		hub.mirror.LocationAccepted(ctx, ident, location)
	}

	if cur, ok := hub.registry.Get(conn.ID); ok {
		return cur
	}
	return conn
}

func (hub *Hub) handleStartTracking(ctx context.Context, conn Connection, ev StartTrackingEvent) Connection {
	ident := *conn.Identity
	if ev.UserID != ident.UserID {
		hub.emitError(ctx, conn.ID, "user_id does not match authenticated user")
		return conn
	}
	if conn.IsTracking() {
		hub.emitError(ctx, conn.ID, "already tracking")
		return conn
	}
	if !ident.HasOrganization() {
		hub.emitError(ctx, conn.ID, "no organization to track for")
		return conn
	}

	if err := hub.bridge.SetTrackingActive(ctx, ident.UserID, ident.OrganizationID, true); err != nil {
		hub.logger.Error(ctx, "tracking_persist_failed", "Failed to store tracking start", err, map[string]any{
			"user_id": ident.UserID,
		})
	}

	next, err := hub.registry.MarkTracking(conn.ID, true)
	if err != nil {
		hub.logger.Debug(ctx, "tracking_lost_connection", "Connection removed during start_tracking", nil)
		return conn
	}
	// producer follows its own watch room so it sees what its watchers see
	hub.rooms.JoinDeliveryWatch(ident.UserID, conn.ID)

	now := time.Now().UTC()
	hub.emit(ctx, conn.ID, TrackingAckFrame{Type: TypeTrackingStarted, Success: true})
	hub.broadcastOrg(ctx, ident.OrganizationID, conn.ID, TrackingStatusFrame{
		Type:      TypeTrackingStarted,
		UserID:    ident.UserID,
		Timestamp: now,
	})
	hub.broadcastWatchers(ctx, ident.UserID, conn.ID, DeliveryTrackingStartedFrame{
		Type:      TypeDeliveryTrackingStarted,
		UserID:    ident.UserID,
		Message:   "delivery tracking started",
		Timestamp: now,
	})
	if hub.mirror != nil {
		hub.mirror.TrackingChanged(ctx, ident, true, now)
	}

	hub.logger.Info(ctx, "tracking_started", "User started sharing location", map[string]any{
		"user_id": ident.UserID,
	})
	return next
}

func (hub *Hub) handleStopTracking(ctx context.Context, conn Connection, ev StopTrackingEvent) Connection {
	ident := *conn.Identity
	if ev.UserID != ident.UserID {
		hub.emitError(ctx, conn.ID, "user_id does not match authenticated user")
		return conn
	}
	if !conn.IsTracking() {
		hub.emitError(ctx, conn.ID, "not tracking")
		return conn
	}

	if err := hub.bridge.SetTrackingActive(ctx, ident.UserID, ident.OrganizationID, false); err != nil {
		hub.logger.Error(ctx, "tracking_persist_failed", "Failed to store tracking stop", err, map[string]any{
			"user_id": ident.UserID,
		})
	}

	next, err := hub.registry.MarkTracking(conn.ID, false)
	if err != nil {
		hub.logger.Debug(ctx, "tracking_lost_connection", "Connection removed during stop_tracking", nil)
		return conn
	}
	// the producer keeps its watch-room membership until disconnect

	now := time.Now().UTC()
	hub.emit(ctx, conn.ID, TrackingAckFrame{Type: TypeTrackingStopped, Success: true})
	hub.broadcastOrg(ctx, ident.OrganizationID, conn.ID, TrackingStatusFrame{
		Type:      TypeTrackingStopped,
		UserID:    ident.UserID,
		Timestamp: now,
	})
	if hub.mirror != nil {
		hub.mirror.TrackingChanged(ctx, ident, false, now)
	}

	hub.logger.Info(ctx, "tracking_stopped", "User stopped sharing location", map[string]any{
		"user_id": ident.UserID,
	})
	return next
}

func (hub *Hub) handleWatchDelivery(ctx context.Context, conn Connection, ev WatchDeliveryEvent) Connection {
	hub.rooms.JoinDeliveryWatch(ev.UserID, conn.ID)
	hub.emit(ctx, conn.ID, WatchAckFrame{Type: TypeDeliveryWatchStarted, UserID: ev.UserID})
	hub.logger.Debug(ctx, "watch_joined", "Connection watching delivery user", map[string]any{
		"watcher":       conn.UserID(),
		"delivery_user": ev.UserID,
	})
	return conn
}

func (hub *Hub) handleUnwatchDelivery(ctx context.Context, conn Connection, ev UnwatchDeliveryEvent) Connection {
	hub.rooms.LeaveDeliveryWatch(ev.UserID, conn.ID)
	hub.emit(ctx, conn.ID, WatchAckFrame{Type: TypeDeliveryWatchStopped, UserID: ev.UserID})
	return conn
}

func (hub *Hub) handleEmergencyRequest(ctx context.Context, conn Connection, ev EmergencyRequestEvent) Connection {
	ident := *conn.Identity
	if ev.UserID != "" && ev.UserID != ident.UserID {
		hub.emitError(ctx, conn.ID, "user_id does not match authenticated user")
		return conn
	}

	alert, err := emergency.NewAlert(ident.UserID, ident.OrganizationID, ev.Location.Latitude, ev.Location.Longitude, ev.Message, emergency.PriorityOrDefault(ev.Priority))
	if err != nil {
		hub.emitError(ctx, conn.ID, err.Error())
		return conn
	}
	alert.ID = uuid.NewString()

	if storedID, err := hub.bridge.AppendEmergency(ctx, alert); err != nil {
		// alert delivery beats durability here too
		hub.logger.Error(ctx, "emergency_persist_failed", "Failed to store emergency alert", err, map[string]any{
			"user_id":  ident.UserID,
			"priority": alert.Priority.String(),
		})
	} else if storedID != "" {
		alert.ID = storedID
	}

	hub.emit(ctx, conn.ID, EmergencySentFrame{Type: TypeEmergencySent, Success: true, EmergencyID: alert.ID})
	if ident.HasOrganization() {
		hub.broadcastOrg(ctx, ident.OrganizationID, conn.ID, EmergencyAlertFrame{
			Type:        TypeEmergencyAlert,
			EmergencyID: alert.ID,
			UserID:      ident.UserID,
			Latitude:    alert.Latitude,
			Longitude:   alert.Longitude,
			Message:     alert.Message,
			Priority:    alert.Priority.String(),
			Status:      alert.Status.String(),
			Timestamp:   alert.CreatedAt,
		})
	}
	if hub.mirror != nil {
		hub.mirror.EmergencyRaised(ctx, alert)
	}

	hub.logger.Info(ctx, "emergency_raised", "Emergency alert accepted", map[string]any{
		"user_id":      ident.UserID,
		"emergency_id": alert.ID,
		"priority":     alert.Priority.String(),
	})
	return conn
}

// ----- Emit helpers -----

func (hub *Hub) emit(ctx context.Context, connID uuid.UUID, frame any) {
	if err := hub.emitter.Emit(connID, frame); err != nil {
		hub.logger.Debug(ctx, "emit_failed", "Failed to deliver frame", map[string]any{
			"target": connID.String(),
			"reason": err.Error(),
		})
	}
}

func (hub *Hub) emitError(ctx context.Context, connID uuid.UUID, message string) {
	hub.emit(ctx, connID, ErrorFrame{Type: TypeError, Message: message})
}

// broadcastOrg fans a frame out to the org room's members as of right now,
// minus the excluded sender. Returns the delivered count.
func (hub *Hub) broadcastOrg(ctx context.Context, orgID string, exclude uuid.UUID, frame any) int {
	delivered := 0
	for _, memberID := range hub.rooms.MembersOf(orgID) {
		if memberID == exclude {
			continue
		}
		if err := hub.emitter.Emit(memberID, frame); err != nil {
			hub.logger.Debug(ctx, "broadcast_emit_failed", "Dropped frame for room member", map[string]any{
				"target": memberID.String(),
				"reason": err.Error(),
			})
			continue
		}
		delivered++
	}
	return delivered
}

// broadcastWatchers fans a frame out to a delivery watch room, minus the
// excluded sender.
func (hub *Hub) broadcastWatchers(ctx context.Context, deliveryUserID string, exclude uuid.UUID, frame any) int {
	delivered := 0
	for _, watcherID := range hub.rooms.WatchersOf(deliveryUserID) {
		if watcherID == exclude {
			continue
		}
		if err := hub.emitter.Emit(watcherID, frame); err != nil {
			hub.logger.Debug(ctx, "broadcast_emit_failed", "Dropped frame for watcher", map[string]any{
				"target": watcherID.String(),
				"reason": err.Error(),
			})
			continue
		}
		delivered++
	}
	return delivered
}
