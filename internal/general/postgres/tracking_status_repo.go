package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/ports"
)

// TrackingStatusRepo records tracking state transitions using pgx and plain SQL.
type TrackingStatusRepo struct{}

// NewTrackingStatusRepo constructs a new TrackingStatusRepo.
func NewTrackingStatusRepo() ports.TrackingStatusRepository {
	return &TrackingStatusRepo{}
}

// SetActive upserts the user's tracking flag.
func (repo *TrackingStatusRepo) SetActive(ctx context.Context, userID, organizationID string, active bool, at time.Time) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	if userID == "" {
		return errors.New("userID cannot be empty")
	}
	if organizationID == "" {
		return errors.New("organizationID cannot be empty")
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO tracking_status (user_id, organization_id, is_tracking, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO UPDATE SET
			organization_id = EXCLUDED.organization_id,
			is_tracking     = EXCLUDED.is_tracking,
			updated_at      = EXCLUDED.updated_at
	`, userID, organizationID, active, at)

	return err
}
