package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/emergency"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/geo"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/user"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/general/contracts"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/general/jwt"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/general/logger"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/ports"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/realtime"
)

// ----- Hub-facing fakes -----
//
// The service is exercised against a real hub; only the hub's ports are
// faked. The bridge fake here implements realtime.PersistenceBridge, unlike
// the repository fakes in bridge_test.go which sit one layer below.

type stubVerifier struct {
	idents map[string]user.Identity
}

func (v *stubVerifier) Verify(_ context.Context, token string) (user.Identity, error) {
	if ident, ok := v.idents[token]; ok {
		return ident, nil
	}
	return user.Identity{}, errors.New("invalid token")
}

type stubBridge struct {
	mu      sync.Mutex
	current map[string]*geo.CurrentLocation
}

func (b *stubBridge) UpsertCurrentLocation(_ context.Context, location *geo.CurrentLocation) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current[location.UserID] = location
	return nil
}

func (b *stubBridge) SetTrackingActive(context.Context, string, string, bool) error { return nil }

func (b *stubBridge) AppendEmergency(_ context.Context, alert *emergency.Alert) (string, error) {
	return alert.ID, nil
}

func (b *stubBridge) CurrentLocation(_ context.Context, userID string) (*geo.CurrentLocation, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current[userID], nil
}

type stubEmitter struct {
	mu     sync.Mutex
	frames map[uuid.UUID][]any
}

func newStubEmitter() *stubEmitter {
	return &stubEmitter{frames: make(map[uuid.UUID][]any)}
}

func (e *stubEmitter) Emit(connID uuid.UUID, frame any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frames[connID] = append(e.frames[connID], frame)
	return nil
}

func (e *stubEmitter) lastPush(connID uuid.UUID) (map[string]any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	frames := e.frames[connID]
	for i := len(frames) - 1; i >= 0; i-- {
		if push, ok := frames[i].(map[string]any); ok {
			return push, true
		}
	}
	return nil, false
}

// ----- Harness -----

func serviceIdentities() map[string]user.Identity {
	return map[string]user.Identity{
		"tok-d1": {UserID: "d1", Email: "d1@fleet.example", Role: user.RoleDelivery, OrganizationID: "org1"},
		"tok-d2": {UserID: "d2", Email: "d2@fleet.example", Role: user.RoleDelivery, OrganizationID: "org1"},
		"tok-d3": {UserID: "d3", Email: "d3@fleet.example", Role: user.RoleDelivery, OrganizationID: "org2"},
	}
}

func newTestService(t *testing.T) (*trackingService, *realtime.Hub, *stubEmitter) {
	t.Helper()
	log := logger.New("service-test")
	emitter := newStubEmitter()
	bridge := &stubBridge{current: make(map[string]*geo.CurrentLocation)}
	hub := realtime.NewHub(log, &stubVerifier{idents: serviceIdentities()}, bridge, emitter, nil)
	svc, ok := NewTrackingService(log, hub, jwt.NewManager("service-test-secret", time.Hour), nil, 0).(*trackingService)
	if !ok {
		t.Fatal("NewTrackingService returned an unexpected implementation")
	}
	return svc, hub, emitter
}

func frame(t *testing.T, eventType string, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"type": eventType, "data": data})
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	return raw
}

func connectUser(t *testing.T, hub *realtime.Hub, token string) uuid.UUID {
	t.Helper()
	ctx := context.Background()
	id := hub.Connect(ctx)
	conn := hub.Handle(ctx, id, frame(t, "authenticate", map[string]string{"token": token}))
	if !conn.Authenticated() {
		t.Fatalf("authentication with %q failed", token)
	}
	return id
}

func startTracking(t *testing.T, hub *realtime.Hub, connID uuid.UUID, userID string) {
	t.Helper()
	conn := hub.Handle(context.Background(), connID, frame(t, "start_tracking", map[string]string{"user_id": userID}))
	if !conn.IsTracking() {
		t.Fatalf("start_tracking for %q did not stick", userID)
	}
}

func reportLocation(t *testing.T, hub *realtime.Hub, connID uuid.UUID, lat, lng float64) {
	t.Helper()
	hub.Handle(context.Background(), connID, frame(t, "location_update", map[string]any{
		"latitude":  lat,
		"longitude": lng,
		"is_active": true,
	}))
}

// ----- Tests -----

func TestNotifyValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   ports.NotifyInput
	}{
		{"missing event", ports.NotifyInput{Scope: "broadcast"}},
		{"user without target", ports.NotifyInput{Scope: "user", Event: "ping"}},
		{"organization without target", ports.NotifyInput{Scope: "organization", Event: "ping"}},
		{"unknown scope", ports.NotifyInput{Scope: "room", TargetID: "x", Event: "ping"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Notify(ctx, tc.in); !errors.Is(err, ports.ErrInvalidInput) {
				t.Fatalf("Notify(%+v) error = %v, want ErrInvalidInput", tc.in, err)
			}
		})
	}
}

func TestNotifyScopes(t *testing.T) {
	svc, hub, emitter := newTestService(t)
	ctx := context.Background()

	d1 := connectUser(t, hub, "tok-d1") // org1
	connectUser(t, hub, "tok-d2")       // org1
	connectUser(t, hub, "tok-d3")       // org2

	result, err := svc.Notify(ctx, ports.NotifyInput{
		Scope:    "user",
		TargetID: "d1",
		Event:    "shift_ended",
		Payload:  map[string]any{"shift_id": "s-77"},
	})
	if err != nil {
		t.Fatalf("Notify user scope: %v", err)
	}
	if result.Delivered != 1 {
		t.Fatalf("user scope delivered = %d, want 1", result.Delivered)
	}
	push, ok := emitter.lastPush(d1)
	if !ok {
		t.Fatal("no push frame reached d1")
	}
	if push["type"] != "shift_ended" || push["shift_id"] != "s-77" {
		t.Fatalf("unexpected push frame: %+v", push)
	}

	result, err = svc.Notify(ctx, ports.NotifyInput{Scope: "ORGANIZATION", TargetID: "org1", Event: "depot_closed"})
	if err != nil {
		t.Fatalf("Notify organization scope: %v", err)
	}
	if result.Scope != "organization" {
		t.Fatalf("scope not normalized: %q", result.Scope)
	}
	if result.Delivered != 2 {
		t.Fatalf("organization scope delivered = %d, want 2", result.Delivered)
	}

	result, err = svc.Notify(ctx, ports.NotifyInput{Scope: "broadcast", Event: "maintenance"})
	if err != nil {
		t.Fatalf("Notify broadcast scope: %v", err)
	}
	if result.Delivered != 3 {
		t.Fatalf("broadcast delivered = %d, want 3", result.Delivered)
	}
	if result.Message != "notification dispatched" {
		t.Fatalf("unexpected message %q", result.Message)
	}
}

func TestActiveUsersViews(t *testing.T) {
	svc, hub, _ := newTestService(t)
	ctx := context.Background()

	d1 := connectUser(t, hub, "tok-d1")
	startTracking(t, hub, d1, "d1")
	reportLocation(t, hub, d1, 52.52, 13.405)

	d3 := connectUser(t, hub, "tok-d3")
	startTracking(t, hub, d3, "d3")

	// d2 is connected but not tracking, so no view includes it
	connectUser(t, hub, "tok-d2")

	org1, err := svc.ActiveUsers(ctx, "org1")
	if err != nil {
		t.Fatalf("ActiveUsers: %v", err)
	}
	if org1.TotalCount != 1 || len(org1.Users) != 1 {
		t.Fatalf("org1 view = %+v, want exactly d1", org1)
	}
	row := org1.Users[0]
	if row.UserID != "d1" || row.Role != "DELIVERY" || row.OrganizationID != "org1" {
		t.Fatalf("unexpected row: %+v", row)
	}
	if row.Location == nil {
		t.Fatal("d1 reported a fix, row.Location must be set")
	}
	if row.Location.Latitude != 52.52 || row.Location.Longitude != 13.405 {
		t.Fatalf("unexpected location: %+v", row.Location)
	}
	if !row.Location.IsActive {
		t.Fatal("is_active lost in mapping")
	}

	all, err := svc.AllActiveUsers(ctx)
	if err != nil {
		t.Fatalf("AllActiveUsers: %v", err)
	}
	if all.TotalCount != 2 {
		t.Fatalf("all view count = %d, want 2", all.TotalCount)
	}
	if all.Users[0].UserID != "d1" || all.Users[1].UserID != "d3" {
		t.Fatalf("rows not ordered by user id: %+v", all.Users)
	}
	if all.Users[1].Location != nil {
		t.Fatal("d3 never reported a fix, Location must be nil")
	}

	if _, err := svc.ActiveUsers(ctx, "   "); !errors.Is(err, ports.ErrInvalidInput) {
		t.Fatalf("blank organization id error = %v, want ErrInvalidInput", err)
	}
}

func TestUserLive(t *testing.T) {
	svc, hub, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.UserLive(ctx, "ghost"); !errors.Is(err, ports.ErrUserNotConnected) {
		t.Fatalf("unknown user error = %v, want ErrUserNotConnected", err)
	}
	if _, err := svc.UserLive(ctx, ""); !errors.Is(err, ports.ErrInvalidInput) {
		t.Fatalf("blank user id error = %v, want ErrInvalidInput", err)
	}

	d1 := connectUser(t, hub, "tok-d1")
	startTracking(t, hub, d1, "d1")
	reportLocation(t, hub, d1, 48.8566, 2.3522)

	row, err := svc.UserLive(ctx, "d1")
	if err != nil {
		t.Fatalf("UserLive: %v", err)
	}
	if row.UserID != "d1" || row.Email != "d1@fleet.example" || row.Role != "DELIVERY" {
		t.Fatalf("unexpected row: %+v", row)
	}
	if row.Location == nil || row.Location.Latitude != 48.8566 {
		t.Fatalf("unexpected location: %+v", row.Location)
	}
}

func TestMintToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	result, err := svc.MintToken(ctx, ports.MintTokenInput{
		UserID:         "u9",
		Email:          "u9@fleet.example",
		Role:           "admin",
		OrganizationID: "org9",
	})
	if err != nil {
		t.Fatalf("MintToken: %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected a signed token")
	}
	if result.ExpiresAt.Before(time.Now().Add(50 * time.Minute)) {
		t.Fatalf("expiry too soon: %v", result.ExpiresAt)
	}
	_, claims, err := svc.jwtMgr.ParseAndValidate(result.Token)
	if err != nil {
		t.Fatalf("minted token failed validation: %v", err)
	}
	if claims.Subject != "u9" || claims.Role != user.RoleAdmin || claims.OrganizationID != "org9" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := svc.MintToken(ctx, ports.MintTokenInput{UserID: "u9", Email: "u9@fleet.example", Role: "ROOT"}); !errors.Is(err, ports.ErrInvalidInput) {
		t.Fatalf("bad role error = %v, want ErrInvalidInput", err)
	}
	// delivery personnel must belong to an organization
	if _, err := svc.MintToken(ctx, ports.MintTokenInput{UserID: "u9", Email: "u9@fleet.example", Role: "DELIVERY"}); !errors.Is(err, ports.ErrInvalidInput) {
		t.Fatalf("missing org error = %v, want ErrInvalidInput", err)
	}
}

func TestHealthReportsHubStats(t *testing.T) {
	svc, hub, _ := newTestService(t)

	d1 := connectUser(t, hub, "tok-d1")
	startTracking(t, hub, d1, "d1")
	hub.Connect(context.Background()) // open, never authenticated

	health := svc.Health(context.Background())
	if health.Status != "healthy" || health.Service != "tracking-service" {
		t.Fatalf("unexpected health envelope: %+v", health)
	}
	if health.Timestamp.IsZero() {
		t.Fatal("health timestamp not set")
	}
	if health.Stats.Connections != 2 || health.Stats.Authenticated != 1 || health.Stats.Tracking != 1 {
		t.Fatalf("unexpected stats: %+v", health.Stats)
	}
}

func TestHandleDirective(t *testing.T) {
	svc, hub, emitter := newTestService(t)
	ctx := context.Background()
	d1 := connectUser(t, hub, "tok-d1")

	body, err := json.Marshal(contracts.DirectiveMessage{
		Scope:    "user",
		TargetID: "d1",
		Event:    "route_changed",
		Payload:  map[string]any{"route_id": "r-5"},
	})
	if err != nil {
		t.Fatalf("marshal directive: %v", err)
	}
	if err := svc.handleDirective(ctx, amqp.Delivery{Body: body, RoutingKey: "tracking.directive.user"}); err != nil {
		t.Fatalf("handleDirective: %v", err)
	}
	push, ok := emitter.lastPush(d1)
	if !ok {
		t.Fatal("directive did not reach d1")
	}
	if push["type"] != "route_changed" || push["route_id"] != "r-5" {
		t.Fatalf("unexpected push frame: %+v", push)
	}

	// malformed body and invalid directives are dropped with an error so the
	// consumer rejects them without requeue
	if err := svc.handleDirective(ctx, amqp.Delivery{Body: []byte("{broken")}); err == nil {
		t.Fatal("expected error for malformed body")
	}
	bad, _ := json.Marshal(contracts.DirectiveMessage{Scope: "user", Event: "ping"})
	if err := svc.handleDirective(ctx, amqp.Delivery{Body: bad}); !errors.Is(err, ports.ErrInvalidInput) {
		t.Fatalf("invalid directive error = %v, want ErrInvalidInput", err)
	}
}
