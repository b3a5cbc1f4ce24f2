package geo

import (
	"errors"
	"math"
	"time"
)

// Snapshot is a single position fix as reported by a device. The realtime
// core forwards it as-is; only the bounds below gate acceptance.
type Snapshot struct {
	Latitude       float64
	Longitude      float64
	AccuracyMeters *float64
	AltitudeMeters *float64
	SpeedKMH       *float64
	HeadingDegrees *float64
	RecordedAt     time.Time
}

var (
	ErrInvalidLatitude  = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude = errors.New("longitude must be between -180 and 180")
	ErrNegativeAccuracy = errors.New("accuracy_meters cannot be negative")
	ErrNegativeSpeed    = errors.New("speed_kmh cannot be negative")
	ErrInvalidHeading   = errors.New("heading_degrees must be between 0 and 360")
)

// NewSnapshot constructs a validated Snapshot. A zero recordedAt is replaced
// with the current time.
func NewSnapshot(latitude, longitude float64, accuracyMeters, altitudeMeters, speedKMH, headingDegrees *float64, recordedAt time.Time) (Snapshot, error) {
	snapshot := Snapshot{
		Latitude:       latitude,
		Longitude:      longitude,
		AccuracyMeters: accuracyMeters,
		AltitudeMeters: altitudeMeters,
		SpeedKMH:       speedKMH,
		HeadingDegrees: headingDegrees,
		RecordedAt:     recordedAt,
	}
	if snapshot.RecordedAt.IsZero() {
		snapshot.RecordedAt = time.Now().UTC()
	}
	if err := snapshot.Validate(); err != nil {
		return Snapshot{}, err
	}
	return snapshot, nil
}

// Validate checks invariants of the Snapshot. Boundary values (+-90, +-180,
// heading 0 and 360) are accepted; some SDKs report 360.0 instead of 0.0.
func (snapshot Snapshot) Validate() error {
	if snapshot.Latitude < -90 || snapshot.Latitude > 90 || math.IsNaN(snapshot.Latitude) {
		return ErrInvalidLatitude
	}
	if snapshot.Longitude < -180 || snapshot.Longitude > 180 || math.IsNaN(snapshot.Longitude) {
		return ErrInvalidLongitude
	}
	if snapshot.AccuracyMeters != nil {
		if *snapshot.AccuracyMeters < 0 || math.IsNaN(*snapshot.AccuracyMeters) {
			return ErrNegativeAccuracy
		}
	}
	if snapshot.SpeedKMH != nil {
		if *snapshot.SpeedKMH < 0 || math.IsNaN(*snapshot.SpeedKMH) {
			return ErrNegativeSpeed
		}
	}
	if snapshot.HeadingDegrees != nil {
		if *snapshot.HeadingDegrees < 0 || *snapshot.HeadingDegrees > 360 || math.IsNaN(*snapshot.HeadingDegrees) {
			return ErrInvalidHeading
		}
	}
	return nil
}

// ValidateBounds is the acceptance gate applied to every inbound fix before
// anything is persisted or broadcast.
func ValidateBounds(latitude, longitude float64) error {
	if latitude < -90 || latitude > 90 || math.IsNaN(latitude) {
		return ErrInvalidLatitude
	}
	if longitude < -180 || longitude > 180 || math.IsNaN(longitude) {
		return ErrInvalidLongitude
	}
	return nil
}
