package postgres

import (
	"context"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/emergency"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/ports"
)

// EmergencyRepo persists emergency alerts using pgx and plain SQL.
type EmergencyRepo struct{}

// NewEmergencyRepo constructs a new EmergencyRepo.
func NewEmergencyRepo() ports.EmergencyRepository {
	return &EmergencyRepo{}
}

// Append inserts a new emergency_alerts row and returns its id.
func (repo *EmergencyRepo) Append(ctx context.Context, alert *emergency.Alert) (string, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return "", err
	}

	// validate alert before inserting
	if err := alert.Validate(); err != nil {
		return "", err
	}

	var insertedID string
	err = tx.QueryRow(ctx, `
		INSERT INTO emergency_alerts (
			user_id, organization_id, latitude, longitude,
			message, priority, status, created_at
		)
		VALUES ($1, NULLIF($2, ''), $3, $4, NULLIF($5, ''), $6, $7, $8)
		RETURNING id
	`,
		alert.UserID,
		alert.OrganizationID,
		alert.Latitude,
		alert.Longitude,
		alert.Message,
		alert.Priority.String(),
		alert.Status.String(),
		alert.CreatedAt,
	).Scan(&insertedID)
	if err != nil {
		return "", err
	}

	alert.ID = insertedID

	return insertedID, nil
}
