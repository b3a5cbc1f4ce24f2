package contracts

import "time"

// EmergencyAlertMessage is published for every emergency request accepted on
// a live connection, so dispatch systems can react off-platform.
// Routing key: "emergency.{priority}" on ExchangeEmergencyTopic.
type EmergencyAlertMessage struct {
	EmergencyID    string    `json:"emergency_id"`
	UserID         string    `json:"user_id"`
	OrganizationID string    `json:"organization_id,omitempty"`
	Location       GeoPoint  `json:"location"`
	Message        string    `json:"message,omitempty"`
	Priority       string    `json:"priority"` // low|medium|high|critical
	Status         string    `json:"status"`
	Timestamp      time.Time `json:"timestamp"`
	Envelope
}
