package realtime

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/emergency"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/geo"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/user"
)

// Verifier turns a bearer token into a verified identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (user.Identity, error)
}

// PersistenceBridge is the durable store behind the hub. Write failures are
// operational events, not protocol errors: the hub logs them and the
// in-memory fan-out proceeds.
type PersistenceBridge interface {
	UpsertCurrentLocation(ctx context.Context, location *geo.CurrentLocation) error
	SetTrackingActive(ctx context.Context, userID, organizationID string, active bool) error
	AppendEmergency(ctx context.Context, alert *emergency.Alert) (string, error)
	// CurrentLocation returns (nil, nil) when the user has no recorded fix.
	CurrentLocation(ctx context.Context, userID string) (*geo.CurrentLocation, error)
}

// Emitter delivers one outbound frame to one connection. Implementations
// must not block indefinitely; a failed emit is the transport's cue to tear
// the connection down through Disconnect.
type Emitter interface {
	Emit(connID uuid.UUID, frame any) error
}

// Mirror receives copies of accepted events for out-of-process consumers
// (history writers, analytics, dispatch boards). Strictly best effort: the
// hub never waits on it and ignores its failures beyond logging. A nil
// Mirror disables mirroring.
type Mirror interface {
	LocationAccepted(ctx context.Context, ident user.Identity, location *geo.CurrentLocation)
	TrackingChanged(ctx context.Context, ident user.Identity, active bool, at time.Time)
	EmergencyRaised(ctx context.Context, alert *emergency.Alert)
}
