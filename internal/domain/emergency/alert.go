package emergency

import (
	"errors"
	"strings"
	"time"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/geo"
)

// Alert is the domain entity corresponding to the `emergencies` table.
type Alert struct {
	ID             string
	UserID         string
	OrganizationID string
	Latitude       float64
	Longitude      float64
	Message        string
	Priority       Priority
	Status         Status
	CreatedAt      time.Time
}

var (
	ErrMissingUserID  = errors.New("user id is missing")
	ErrMessageTooLong = errors.New("message exceeds 1000 characters")
)

const maxMessageLen = 1000

// NewAlert constructs a pending Alert from a raised emergency. The
// organization id may be empty for users outside any organization; such
// alerts reach only the platform-wide consumers.
func NewAlert(userID, organizationID string, latitude, longitude float64, message string, priority Priority) (*Alert, error) {
	alert := &Alert{
		UserID:         strings.TrimSpace(userID),
		OrganizationID: strings.TrimSpace(organizationID),
		Latitude:       latitude,
		Longitude:      longitude,
		Message:        strings.TrimSpace(message),
		Priority:       priority,
		Status:         StatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	if alert.Priority == "" {
		alert.Priority = PriorityMedium
	}
	if err := alert.Validate(); err != nil {
		return nil, err
	}
	return alert, nil
}

// Validate checks invariants of the Alert entity.
func (alert *Alert) Validate() error {
	if alert.UserID == "" {
		return ErrMissingUserID
	}
	if err := geo.ValidateBounds(alert.Latitude, alert.Longitude); err != nil {
		return err
	}
	if len(alert.Message) > maxMessageLen {
		return ErrMessageTooLong
	}
	if !alert.Priority.Valid() {
		return ErrInvalidPriority
	}
	if !alert.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}
