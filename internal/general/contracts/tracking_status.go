package contracts

import "time"

// TrackingStatusMessage is published when a user starts or stops tracking,
// including implicit stops on disconnect.
// Routing key: "tracking.status.{user_id}" on ExchangeTrackingTopic.
type TrackingStatusMessage struct {
	UserID         string    `json:"user_id"`
	OrganizationID string    `json:"organization_id,omitempty"`
	IsTracking     bool      `json:"is_tracking"`
	Timestamp      time.Time `json:"timestamp"`
	Envelope
}
