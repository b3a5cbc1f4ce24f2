package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/emergency"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/geo"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/ports"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/realtime"
)

// persistenceBridge implements the hub's PersistenceBridge over the
// transactional repositories. Every call opens its own transaction so the
// repositories can always rely on a tx being present in the context.
type persistenceBridge struct {
	uow         ports.UnitOfWork
	locations   ports.LocationRepository
	tracking    ports.TrackingStatusRepository
	emergencies ports.EmergencyRepository
}

var _ realtime.PersistenceBridge = (*persistenceBridge)(nil)

// NewPersistenceBridge wires the durable store behind the hub.
func NewPersistenceBridge(
	uow ports.UnitOfWork,
	locations ports.LocationRepository,
	tracking ports.TrackingStatusRepository,
	emergencies ports.EmergencyRepository,
) realtime.PersistenceBridge {
	return &persistenceBridge{
		uow:         uow,
		locations:   locations,
		tracking:    tracking,
		emergencies: emergencies,
	}
}

// UpsertCurrentLocation stores an accepted fix. The repository writes the
// current row and the history append in the same transaction.
func (bridge *persistenceBridge) UpsertCurrentLocation(ctx context.Context, location *geo.CurrentLocation) error {
	return bridge.uow.WithinTx(ctx, func(ctx context.Context) error {
		return bridge.locations.UpsertCurrent(ctx, location)
	})
}

func (bridge *persistenceBridge) SetTrackingActive(ctx context.Context, userID, organizationID string, active bool) error {
	return bridge.uow.WithinTx(ctx, func(ctx context.Context) error {
		return bridge.tracking.SetActive(ctx, userID, organizationID, active, time.Now().UTC())
	})
}

func (bridge *persistenceBridge) AppendEmergency(ctx context.Context, alert *emergency.Alert) (string, error) {
	var id string
	err := bridge.uow.WithinTx(ctx, func(ctx context.Context) error {
		var txErr error
		id, txErr = bridge.emergencies.Append(ctx, alert)
		return txErr
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// CurrentLocation returns (nil, nil) when the user has never reported a fix.
func (bridge *persistenceBridge) CurrentLocation(ctx context.Context, userID string) (*geo.CurrentLocation, error) {
	var location *geo.CurrentLocation
	err := bridge.uow.WithinTx(ctx, func(ctx context.Context) error {
		var txErr error
		location, txErr = bridge.locations.GetCurrent(ctx, userID)
		if errors.Is(txErr, pgx.ErrNoRows) {
			location = nil
			return nil
		}
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return location, nil
}
