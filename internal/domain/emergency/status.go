package emergency

import (
	"errors"
	"strings"
)

// Status is the lifecycle state of an alert as stored in the `emergencies`
// table. The tracking service only creates alerts (pending); the remaining
// transitions belong to the response tooling that consumes the table.
type Status string

const (
	StatusPending      Status = "pending"
	StatusAcknowledged Status = "acknowledged"
	StatusResolved     Status = "resolved"
	StatusDismissed    Status = "dismissed"
)

var ErrInvalidStatus = errors.New("invalid emergency status")

// ParseStatus normalizes (lowercases+trims) and validates a status string.
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidStatus
}

// Valid reports whether status is one of the allowed constants.
func (status Status) Valid() bool {
	switch status {
	case StatusPending, StatusAcknowledged, StatusResolved, StatusDismissed:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Status.
func (status Status) String() string {
	return string(status)
}

// IsOpen reports whether the alert still needs attention.
func (status Status) IsOpen() bool {
	return status == StatusPending || status == StatusAcknowledged
}
