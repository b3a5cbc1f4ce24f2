package geo

import (
	"errors"
	"strings"
	"time"
)

// CurrentLocation is the domain entity corresponding to the
// `current_locations` table: the latest accepted fix per user, plus the
// device metadata reported with it.
type CurrentLocation struct {
	UserID         string
	OrganizationID string
	Latitude       float64
	Longitude      float64
	AccuracyMeters *float64
	AltitudeMeters *float64
	SpeedKMH       *float64
	HeadingDegrees *float64
	BatteryLevel   *int
	NetworkType    NetworkType
	DeviceInfo     string
	IsActive       bool
	RecordedAt     time.Time
	UpdatedAt      time.Time
}

var (
	ErrMissingUserID       = errors.New("user id is missing")
	ErrMissingOrgID        = errors.New("organization id is missing")
	ErrInvalidBatteryLevel = errors.New("battery_level must be between 0 and 100")
)

// NewCurrentLocation builds the row for an accepted fix.
func NewCurrentLocation(userID, organizationID string, fix Snapshot, batteryLevel *int, networkType NetworkType, deviceInfo string, isActive bool) (*CurrentLocation, error) {
	location := &CurrentLocation{
		UserID:         strings.TrimSpace(userID),
		OrganizationID: strings.TrimSpace(organizationID),
		Latitude:       fix.Latitude,
		Longitude:      fix.Longitude,
		AccuracyMeters: fix.AccuracyMeters,
		AltitudeMeters: fix.AltitudeMeters,
		SpeedKMH:       fix.SpeedKMH,
		HeadingDegrees: fix.HeadingDegrees,
		BatteryLevel:   batteryLevel,
		NetworkType:    networkType,
		DeviceInfo:     strings.TrimSpace(deviceInfo),
		IsActive:       isActive,
		RecordedAt:     fix.RecordedAt,
		UpdatedAt:      time.Now().UTC(),
	}
	if location.NetworkType == "" {
		location.NetworkType = NetworkTypeUnknown
	}
	if err := location.Validate(); err != nil {
		return nil, err
	}
	return location, nil
}

// Validate checks invariants of the CurrentLocation entity.
func (location *CurrentLocation) Validate() error {
	if location.UserID == "" {
		return ErrMissingUserID
	}
	if location.OrganizationID == "" {
		return ErrMissingOrgID
	}
	if err := (Snapshot{
		Latitude:       location.Latitude,
		Longitude:      location.Longitude,
		AccuracyMeters: location.AccuracyMeters,
		AltitudeMeters: location.AltitudeMeters,
		SpeedKMH:       location.SpeedKMH,
		HeadingDegrees: location.HeadingDegrees,
		RecordedAt:     location.RecordedAt,
	}).Validate(); err != nil {
		return err
	}
	if location.BatteryLevel != nil {
		if *location.BatteryLevel < 0 || *location.BatteryLevel > 100 {
			return ErrInvalidBatteryLevel
		}
	}
	if !location.NetworkType.Valid() {
		return ErrInvalidNetworkType
	}
	return nil
}

// Fix returns the position portion of the row as a Snapshot.
func (location *CurrentLocation) Fix() Snapshot {
	return Snapshot{
		Latitude:       location.Latitude,
		Longitude:      location.Longitude,
		AccuracyMeters: location.AccuracyMeters,
		AltitudeMeters: location.AltitudeMeters,
		SpeedKMH:       location.SpeedKMH,
		HeadingDegrees: location.HeadingDegrees,
		RecordedAt:     location.RecordedAt,
	}
}
