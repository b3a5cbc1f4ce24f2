package postgres

import (
	"context"
	"fmt"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/geo"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/ports"
)

// LocationRepo persists location data using pgx and plain SQL.
type LocationRepo struct{}

// NewLocationRepo constructs a new LocationRepo.
func NewLocationRepo() ports.LocationRepository {
	return &LocationRepo{}
}

// UpsertCurrent replaces the user's current_locations row and appends the
// same fix to location_history within the caller's transaction.
func (repo *LocationRepo) UpsertCurrent(ctx context.Context, location *geo.CurrentLocation) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	// validate domain invariants
	if err := location.Validate(); err != nil {
		return err
	}

	// 1. upsert the per-user current row
	err = tx.QueryRow(ctx, `
		INSERT INTO current_locations (
			user_id, organization_id,
			latitude, longitude,
			accuracy_meters, altitude_meters, speed_kmh, heading_degrees,
			battery_level, network_type, device_info, is_active,
			recorded_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now())
		ON CONFLICT (user_id) DO UPDATE SET
			organization_id = EXCLUDED.organization_id,
			latitude        = EXCLUDED.latitude,
			longitude       = EXCLUDED.longitude,
			accuracy_meters = EXCLUDED.accuracy_meters,
			altitude_meters = EXCLUDED.altitude_meters,
			speed_kmh       = EXCLUDED.speed_kmh,
			heading_degrees = EXCLUDED.heading_degrees,
			battery_level   = EXCLUDED.battery_level,
			network_type    = EXCLUDED.network_type,
			device_info     = EXCLUDED.device_info,
			is_active       = EXCLUDED.is_active,
			recorded_at     = EXCLUDED.recorded_at,
			updated_at      = now()
		RETURNING updated_at
	`,
		location.UserID,
		location.OrganizationID,
		location.Latitude,
		location.Longitude,
		location.AccuracyMeters,
		location.AltitudeMeters,
		location.SpeedKMH,
		location.HeadingDegrees,
		location.BatteryLevel,
		location.NetworkType.String(),
		location.DeviceInfo,
		location.IsActive,
		location.RecordedAt,
	).Scan(&location.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert current location: %w", err)
	}

	// 2. append the fix to location_history
	record, err := geo.NewHistoryRecord(location.UserID, location.OrganizationID, location.Fix())
	if err != nil {
		return err
	}

	var insertedID string
	err = tx.QueryRow(ctx, `
		INSERT INTO location_history (
			user_id, organization_id,
			latitude, longitude,
			accuracy_meters, altitude_meters, speed_kmh, heading_degrees,
			recorded_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`,
		record.UserID,
		record.OrganizationID,
		record.Latitude,
		record.Longitude,
		record.AccuracyMeters,
		record.AltitudeMeters,
		record.SpeedKMH,
		record.HeadingDegrees,
		record.RecordedAt,
	).Scan(&insertedID)
	if err != nil {
		return fmt.Errorf("failed to append location history: %w", err)
	}
	record.ID = geo.ID(insertedID)

	return nil
}

// GetCurrent retrieves the current location for a user. Callers see
// pgx.ErrNoRows for users that never reported a fix.
func (repo *LocationRepo) GetCurrent(ctx context.Context, userID string) (*geo.CurrentLocation, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var out geo.CurrentLocation
	var network string

	err = tx.QueryRow(ctx, `
		SELECT
			user_id, organization_id,
			latitude, longitude,
			accuracy_meters, altitude_meters, speed_kmh, heading_degrees,
			battery_level, network_type, device_info, is_active,
			recorded_at, updated_at
		FROM current_locations
		WHERE user_id = $1
		LIMIT 1
	`, userID).Scan(
		&out.UserID, &out.OrganizationID,
		&out.Latitude, &out.Longitude,
		&out.AccuracyMeters, &out.AltitudeMeters, &out.SpeedKMH, &out.HeadingDegrees,
		&out.BatteryLevel, &network, &out.DeviceInfo, &out.IsActive,
		&out.RecordedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	out.NetworkType = geo.NetworkTypeOrUnknown(network)

	return &out, nil
}
