package ports

import (
	"context"
	"time"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/emergency"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/geo"
)

// UnitOfWork interface is used to manage transactions across multiple repository operations.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// LocationRepository defines the methods for managing location data.
type LocationRepository interface {
	// UpsertCurrent replaces the user's current location row and appends the
	// fix to location_history in the same transaction.
	UpsertCurrent(ctx context.Context, location *geo.CurrentLocation) error
	// GetCurrent returns the user's current location, pgx.ErrNoRows when the
	// user has never reported one.
	GetCurrent(ctx context.Context, userID string) (*geo.CurrentLocation, error)
}

// TrackingStatusRepository records who is actively sharing location.
type TrackingStatusRepository interface {
	SetActive(ctx context.Context, userID, organizationID string, active bool, at time.Time) error
}

// EmergencyRepository defines the methods for archiving emergency alerts.
type EmergencyRepository interface {
	// Append inserts a new alert and returns its stored id.
	Append(ctx context.Context, alert *emergency.Alert) (string, error)
}
