package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Inbound frames arrive as {"type": "...", "data": {...}}. Each type maps to
// exactly one event struct below; Handle switches over the parsed union so
// an unknown or malformed frame can never reach a handler half-validated.

// EventType names an inbound client event.
type EventType string

const (
	EventAuthenticate     EventType = "authenticate"
	EventLocationUpdate   EventType = "location_update"
	EventStartTracking    EventType = "start_tracking"
	EventStopTracking     EventType = "stop_tracking"
	EventWatchDelivery    EventType = "watch_delivery"
	EventUnwatchDelivery  EventType = "unwatch_delivery"
	EventEmergencyRequest EventType = "emergency_request"
)

// Outbound frame type names.
const (
	TypeAuthenticated           = "authenticated"
	TypeAuthError               = "auth_error"
	TypeError                   = "error"
	TypeLocationUpdated         = "location_updated"
	TypeDeliveryLocationUpdate  = "delivery_location_update"
	TypeTrackingStarted         = "tracking_started"
	TypeTrackingStopped         = "tracking_stopped"
	TypeDeliveryTrackingStarted = "delivery_tracking_started"
	TypeDeliveryWatchStarted    = "delivery_watch_started"
	TypeDeliveryWatchStopped    = "delivery_watch_stopped"
	TypeEmergencySent           = "emergency_sent"
	TypeEmergencyAlert          = "emergency_alert"
	TypeUserDisconnected        = "user_disconnected"
)

var (
	ErrMalformedEvent = errors.New("malformed event")
	ErrUnknownEvent   = errors.New("unknown event type")
)

// ClientEvent is the closed set of inbound events.
type ClientEvent interface {
	Type() EventType
}

// Point is a bare latitude/longitude pair on the wire.
type Point struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type AuthenticateEvent struct {
	Token string `json:"token"`
}

type LocationUpdateEvent struct {
	Latitude       float64  `json:"latitude"`
	Longitude      float64  `json:"longitude"`
	AccuracyMeters *float64 `json:"accuracy_meters,omitempty"`
	AltitudeMeters *float64 `json:"altitude_meters,omitempty"`
	SpeedKMH       *float64 `json:"speed_kmh,omitempty"`
	HeadingDegrees *float64 `json:"heading_degrees,omitempty"`
	BatteryLevel   *int     `json:"battery_level,omitempty"`
	NetworkType    string   `json:"network_type,omitempty"`
	DeviceInfo     string   `json:"device_info,omitempty"`
	IsActive       bool     `json:"is_active"`
}

type StartTrackingEvent struct {
	UserID string `json:"user_id"`
}

type StopTrackingEvent struct {
	UserID string `json:"user_id"`
}

type WatchDeliveryEvent struct {
	UserID string `json:"user_id"`
}

type UnwatchDeliveryEvent struct {
	UserID string `json:"user_id"`
}

type EmergencyRequestEvent struct {
	UserID   string `json:"user_id"`
	Location Point  `json:"location"`
	Message  string `json:"message,omitempty"`
	Priority string `json:"priority,omitempty"`
}

func (AuthenticateEvent) Type() EventType     { return EventAuthenticate }
func (LocationUpdateEvent) Type() EventType   { return EventLocationUpdate }
func (StartTrackingEvent) Type() EventType    { return EventStartTracking }
func (StopTrackingEvent) Type() EventType     { return EventStopTracking }
func (WatchDeliveryEvent) Type() EventType    { return EventWatchDelivery }
func (UnwatchDeliveryEvent) Type() EventType  { return EventUnwatchDelivery }
func (EmergencyRequestEvent) Type() EventType { return EventEmergencyRequest }

// ParseClientEvent decodes one inbound frame into the event union. Structural
// problems (bad JSON, unknown type, missing required fields) come back as
// errors wrapping ErrMalformedEvent or ErrUnknownEvent; range checks such as
// coordinate bounds are left to the handlers.
func ParseClientEvent(raw []byte) (ClientEvent, error) {
	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: bad json", ErrMalformedEvent)
	}
	if len(env.Data) == 0 {
		env.Data = json.RawMessage("{}")
	}

	switch EventType(strings.TrimSpace(env.Type)) {
	case EventAuthenticate:
		var ev AuthenticateEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return nil, fmt.Errorf("%w: bad authenticate payload", ErrMalformedEvent)
		}
		if strings.TrimSpace(ev.Token) == "" {
			return nil, fmt.Errorf("%w: token is required", ErrMalformedEvent)
		}
		return ev, nil

	case EventLocationUpdate:
		var ev LocationUpdateEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return nil, fmt.Errorf("%w: bad location payload", ErrMalformedEvent)
		}
		return ev, nil

	case EventStartTracking:
		var ev StartTrackingEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return nil, fmt.Errorf("%w: bad start_tracking payload", ErrMalformedEvent)
		}
		if strings.TrimSpace(ev.UserID) == "" {
			return nil, fmt.Errorf("%w: user_id is required", ErrMalformedEvent)
		}
		return ev, nil

	case EventStopTracking:
		var ev StopTrackingEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return nil, fmt.Errorf("%w: bad stop_tracking payload", ErrMalformedEvent)
		}
		if strings.TrimSpace(ev.UserID) == "" {
			return nil, fmt.Errorf("%w: user_id is required", ErrMalformedEvent)
		}
		return ev, nil

	case EventWatchDelivery:
		var ev WatchDeliveryEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return nil, fmt.Errorf("%w: bad watch_delivery payload", ErrMalformedEvent)
		}
		if strings.TrimSpace(ev.UserID) == "" {
			return nil, fmt.Errorf("%w: user_id is required", ErrMalformedEvent)
		}
		return ev, nil

	case EventUnwatchDelivery:
		var ev UnwatchDeliveryEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return nil, fmt.Errorf("%w: bad unwatch_delivery payload", ErrMalformedEvent)
		}
		if strings.TrimSpace(ev.UserID) == "" {
			return nil, fmt.Errorf("%w: user_id is required", ErrMalformedEvent)
		}
		return ev, nil

	case EventEmergencyRequest:
		var ev EmergencyRequestEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return nil, fmt.Errorf("%w: bad emergency payload", ErrMalformedEvent)
		}
		return ev, nil

	case "":
		return nil, fmt.Errorf("%w: type is required", ErrMalformedEvent)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, env.Type)
	}
}

// ----- Outbound frames -----
//
// Outbound frames are flat: the type discriminator sits beside the payload
// fields, which keeps simple clients free of a second decode step.

type AuthenticatedFrame struct {
	Type           string    `json:"type"` // "authenticated"
	UserID         string    `json:"user_id"`
	OrganizationID string    `json:"organization_id,omitempty"`
	Role           string    `json:"role"`
	Timestamp      time.Time `json:"timestamp"`
}

type AuthErrorFrame struct {
	Type    string `json:"type"` // "auth_error"
	Message string `json:"message"`
}

type ErrorFrame struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

// LocationBroadcastFrame carries an accepted fix to an org room
// ("location_updated") or a delivery watch room ("delivery_location_update").
type LocationBroadcastFrame struct {
	Type           string    `json:"type"`
	UserID         string    `json:"user_id"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters *float64  `json:"accuracy_meters,omitempty"`
	AltitudeMeters *float64  `json:"altitude_meters,omitempty"`
	SpeedKMH       *float64  `json:"speed_kmh,omitempty"`
	HeadingDegrees *float64  `json:"heading_degrees,omitempty"`
	BatteryLevel   *int      `json:"battery_level,omitempty"`
	NetworkType    string    `json:"network_type,omitempty"`
	IsActive       bool      `json:"is_active"`
	Timestamp      time.Time `json:"timestamp"`
}

// TrackingAckFrame confirms a tracking toggle to its sender.
type TrackingAckFrame struct {
	Type    string `json:"type"` // "tracking_started" | "tracking_stopped"
	Success bool   `json:"success"`
}

// TrackingStatusFrame announces a tracking toggle to an org room.
type TrackingStatusFrame struct {
	Type      string    `json:"type"` // "tracking_started" | "tracking_stopped"
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

type DeliveryTrackingStartedFrame struct {
	Type      string    `json:"type"` // "delivery_tracking_started"
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// WatchAckFrame confirms a watch join/leave to its sender.
type WatchAckFrame struct {
	Type   string `json:"type"` // "delivery_watch_started" | "delivery_watch_stopped"
	UserID string `json:"user_id"`
}

type EmergencySentFrame struct {
	Type        string `json:"type"` // "emergency_sent"
	Success     bool   `json:"success"`
	EmergencyID string `json:"emergency_id"`
}

type EmergencyAlertFrame struct {
	Type        string    `json:"type"` // "emergency_alert"
	EmergencyID string    `json:"emergency_id"`
	UserID      string    `json:"user_id"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	Message     string    `json:"message,omitempty"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}

type UserDisconnectedFrame struct {
	Type      string    `json:"type"` // "user_disconnected"
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}
