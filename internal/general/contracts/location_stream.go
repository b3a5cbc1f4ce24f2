package contracts

import "time"

// LocationStreamMessage is broadcast for every accepted location fix.
// Exchange: ExchangeLocationFanout (fanout, no routing key).
type LocationStreamMessage struct {
	UserID         string    `json:"user_id"`
	OrganizationID string    `json:"organization_id"`
	Location       GeoPoint  `json:"location"`
	AccuracyMeters *float64  `json:"accuracy_meters,omitempty"`
	SpeedKMH       *float64  `json:"speed_kmh,omitempty"`
	HeadingDegrees *float64  `json:"heading_degrees,omitempty"`
	BatteryLevel   *int      `json:"battery_level,omitempty"`
	NetworkType    string    `json:"network_type,omitempty"`
	IsActive       bool      `json:"is_active"`
	Timestamp      time.Time `json:"timestamp"`
	Envelope
}
