package ports

import (
	"context"
	"errors"
	"time"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/realtime"
)

// ErrUserNotConnected is returned by UserLive for users with no open session.
var ErrUserNotConnected = errors.New("user not connected")

// ErrInvalidInput marks validation failures on service inputs; handlers map
// it to 400.
var ErrInvalidInput = errors.New("invalid input")

// ----- DTOs for Tracking Service -----

// GeoPoint represents a simple latitude/longitude pair.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LocationView is the serialized current location of one user.
type LocationView struct {
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters *float64  `json:"accuracy_meters,omitempty"`
	AltitudeMeters *float64  `json:"altitude_meters,omitempty"`
	SpeedKMH       *float64  `json:"speed_kmh,omitempty"`
	HeadingDegrees *float64  `json:"heading_degrees,omitempty"`
	BatteryLevel   *int      `json:"battery_level,omitempty"`
	NetworkType    string    `json:"network_type,omitempty"`
	IsActive       bool      `json:"is_active"`
	RecordedAt     time.Time `json:"recorded_at"`
}

// ActiveUserRow is a single live tracking row in the admin views.
type ActiveUserRow struct {
	UserID         string        `json:"user_id"`
	Email          string        `json:"email"`
	Role           string        `json:"role"`
	OrganizationID string        `json:"organization_id,omitempty"`
	ConnectedAt    time.Time     `json:"connected_at"`
	LastUpdate     time.Time     `json:"last_update"`
	Location       *LocationView `json:"location,omitempty"`
}

// ActiveUsersResult is the top-level response DTO for the active tracking endpoints.
type ActiveUsersResult struct {
	Users      []ActiveUserRow `json:"users"`
	TotalCount int             `json:"total_count"`
	Timestamp  time.Time       `json:"timestamp"`
}

// NotifyInput is the validated input for POST /admin/notify.
type NotifyInput struct {
	Scope    string         `json:"scope"` // "user" | "organization" | "broadcast"
	TargetID string         `json:"target_id,omitempty"`
	Event    string         `json:"event"`
	Payload  map[string]any `json:"payload,omitempty"`
}

// NotifyResult matches the API response for an admin push.
type NotifyResult struct {
	Scope     string `json:"scope"`
	Delivered int    `json:"delivered"`
	Message   string `json:"message"`
}

// MintTokenInput is the input for the development token endpoint.
type MintTokenInput struct {
	UserID         string `json:"user_id"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	OrganizationID string `json:"organization_id,omitempty"`
}

// MintTokenResult carries a freshly signed access token.
type MintTokenResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// HealthResult is the response DTO for GET /tracking/health.
type HealthResult struct {
	Status    string         `json:"status"`
	Service   string         `json:"service"`
	Timestamp time.Time      `json:"timestamp"`
	Stats     realtime.Stats `json:"stats"`
}

// ----- Tracking Service Interface -----

// TrackingService exposes the boundary for the tracking service.
type TrackingService interface {
	ActiveUsers(ctx context.Context, organizationID string) (ActiveUsersResult, error)
	AllActiveUsers(ctx context.Context) (ActiveUsersResult, error)
	UserLive(ctx context.Context, userID string) (ActiveUserRow, error)
	Notify(ctx context.Context, in NotifyInput) (NotifyResult, error)
	MintToken(ctx context.Context, in MintTokenInput) (MintTokenResult, error)
	Health(ctx context.Context) HealthResult
	RunBackgroundConsumers(ctx context.Context)
}
