package geo

import (
	"errors"
	"strings"
	"time"
)

// ID is a type alias for history record IDs (UUIDs in DB).
type ID string

// HistoryRecord is the domain entity corresponding to the `location_history`
// table. One row is appended for every accepted fix.
type HistoryRecord struct {
	ID             ID
	UserID         string
	OrganizationID string
	Latitude       float64
	Longitude      float64
	AccuracyMeters *float64
	AltitudeMeters *float64
	SpeedKMH       *float64
	HeadingDegrees *float64
	RecordedAt     time.Time
}

var ErrRecordedAtZeroTime = errors.New("recorded_at must be a valid timestamp")

// NewHistoryRecord constructs a history row from an accepted fix. Only the
// position is strictly required; recordedAt defaults to now when zero.
func NewHistoryRecord(userID, organizationID string, fix Snapshot) (*HistoryRecord, error) {
	record := &HistoryRecord{
		UserID:         strings.TrimSpace(userID),
		OrganizationID: strings.TrimSpace(organizationID),
		Latitude:       fix.Latitude,
		Longitude:      fix.Longitude,
		AccuracyMeters: fix.AccuracyMeters,
		AltitudeMeters: fix.AltitudeMeters,
		SpeedKMH:       fix.SpeedKMH,
		HeadingDegrees: fix.HeadingDegrees,
		RecordedAt:     fix.RecordedAt,
	}
	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now().UTC()
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	return record, nil
}

// Validate checks invariants of the HistoryRecord entity.
func (record HistoryRecord) Validate() error {
	if record.UserID == "" {
		return ErrMissingUserID
	}
	if record.OrganizationID == "" {
		return ErrMissingOrgID
	}
	if err := (Snapshot{
		Latitude:       record.Latitude,
		Longitude:      record.Longitude,
		AccuracyMeters: record.AccuracyMeters,
		SpeedKMH:       record.SpeedKMH,
		HeadingDegrees: record.HeadingDegrees,
		RecordedAt:     record.RecordedAt,
	}).Validate(); err != nil {
		return err
	}
	if record.RecordedAt.IsZero() {
		return ErrRecordedAtZeroTime
	}
	return nil
}
