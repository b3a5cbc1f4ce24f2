package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/geo"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/ports"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/realtime"
)

// ActiveUsers returns everyone currently tracking for one organization.
func (service *trackingService) ActiveUsers(ctx context.Context, organizationID string) (ports.ActiveUsersResult, error) {
	organizationID = strings.TrimSpace(organizationID)
	if organizationID == "" {
		return ports.ActiveUsersResult{}, fmt.Errorf("%w: organization id is required", ports.ErrInvalidInput)
	}
	return activeUsersResult(service.hub.ActiveTrackingUsers(ctx, organizationID)), nil
}

// AllActiveUsers returns every tracking user across organizations.
func (service *trackingService) AllActiveUsers(ctx context.Context) (ports.ActiveUsersResult, error) {
	return activeUsersResult(service.hub.AllActiveTrackingUsers(ctx)), nil
}

// UserLive returns the live view of one user, ErrUserNotConnected when the
// user holds no open connection.
func (service *trackingService) UserLive(ctx context.Context, userID string) (ports.ActiveUserRow, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ports.ActiveUserRow{}, fmt.Errorf("%w: user id is required", ports.ErrInvalidInput)
	}
	row, ok := service.hub.UserLive(ctx, userID)
	if !ok {
		return ports.ActiveUserRow{}, ports.ErrUserNotConnected
	}
	return activeUserRow(row), nil
}

func activeUsersResult(rows []realtime.ActiveUser) ports.ActiveUsersResult {
	result := ports.ActiveUsersResult{
		Users:      make([]ports.ActiveUserRow, 0, len(rows)),
		TotalCount: len(rows),
		Timestamp:  time.Now().UTC(),
	}
	for _, row := range rows {
		result.Users = append(result.Users, activeUserRow(row))
	}
	return result
}

func activeUserRow(row realtime.ActiveUser) ports.ActiveUserRow {
	return ports.ActiveUserRow{
		UserID:         row.UserID,
		Email:          row.Email,
		Role:           row.Role.String(),
		OrganizationID: row.OrganizationID,
		ConnectedAt:    row.ConnectedAt,
		LastUpdate:     row.LastUpdate,
		Location:       locationView(row.Location),
	}
}

func locationView(location *geo.CurrentLocation) *ports.LocationView {
	if location == nil {
		return nil
	}
	return &ports.LocationView{
		Latitude:       location.Latitude,
		Longitude:      location.Longitude,
		AccuracyMeters: location.AccuracyMeters,
		AltitudeMeters: location.AltitudeMeters,
		SpeedKMH:       location.SpeedKMH,
		HeadingDegrees: location.HeadingDegrees,
		BatteryLevel:   location.BatteryLevel,
		NetworkType:    string(location.NetworkType),
		IsActive:       location.IsActive,
		RecordedAt:     location.RecordedAt,
	}
}
