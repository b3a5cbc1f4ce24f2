package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/emergency"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/geo"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/domain/user"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/general/contracts"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/general/logger"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/general/rabbitmq"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/realtime"
)

const producerName = "tracking-service"

// publisher is the slice of rabbitmq.MQPublisher the mirror needs.
type publisher interface {
	Publish(exchange, routingKey string, body []byte) error
}

var _ publisher = (*rabbitmq.MQPublisher)(nil)

// brokerMirror publishes accepted hub events to RabbitMQ for out-of-process
// consumers (history aggregators, dispatch boards). Strictly best effort:
// publish failures are logged and never reach the websocket fan-out path.
type brokerMirror struct {
	logger *logger.Logger
	pub    publisher
}

var _ realtime.Mirror = (*brokerMirror)(nil)

// NewBrokerMirror wires the event mirror on top of the publisher.
func NewBrokerMirror(log *logger.Logger, pub publisher) realtime.Mirror {
	return &brokerMirror{logger: log, pub: pub}
}

func (mirror *brokerMirror) LocationAccepted(ctx context.Context, _ user.Identity, location *geo.CurrentLocation) {
	msg := contracts.LocationStreamMessage{
		UserID:         location.UserID,
		OrganizationID: location.OrganizationID,
		Location:       contracts.GeoPoint{Lat: location.Latitude, Lng: location.Longitude},
		AccuracyMeters: location.AccuracyMeters,
		SpeedKMH:       location.SpeedKMH,
		HeadingDegrees: location.HeadingDegrees,
		BatteryLevel:   location.BatteryLevel,
		NetworkType:    string(location.NetworkType),
		IsActive:       location.IsActive,
		Timestamp:      location.RecordedAt,
		Envelope:       contracts.NewEnvelope(producerName),
	}
	mirror.publish(ctx, "location_stream_publish_failed", contracts.ExchangeLocationFanout, "", msg,
		map[string]any{"user_id": location.UserID})
}

func (mirror *brokerMirror) TrackingChanged(ctx context.Context, ident user.Identity, active bool, at time.Time) {
	msg := contracts.TrackingStatusMessage{
		UserID:         ident.UserID,
		OrganizationID: ident.OrganizationID,
		IsTracking:     active,
		Timestamp:      at,
		Envelope:       contracts.NewEnvelope(producerName),
	}
	mirror.publish(ctx, "tracking_status_publish_failed", contracts.ExchangeTrackingTopic,
		contracts.RouteTrackingStatusPrefix+ident.UserID, msg,
		map[string]any{"user_id": ident.UserID, "is_tracking": active})
}

func (mirror *brokerMirror) EmergencyRaised(ctx context.Context, alert *emergency.Alert) {
	msg := contracts.EmergencyAlertMessage{
		EmergencyID:    alert.ID,
		UserID:         alert.UserID,
		OrganizationID: alert.OrganizationID,
		Location:       contracts.GeoPoint{Lat: alert.Latitude, Lng: alert.Longitude},
		Message:        alert.Message,
		Priority:       alert.Priority.String(),
		Status:         alert.Status.String(),
		Timestamp:      alert.CreatedAt,
		Envelope:       contracts.NewEnvelope(producerName),
	}
	mirror.publish(ctx, "emergency_publish_failed", contracts.ExchangeEmergencyTopic,
		contracts.RouteEmergencyPrefix+alert.Priority.String(), msg,
		map[string]any{"user_id": alert.UserID, "priority": alert.Priority.String()})
}

func (mirror *brokerMirror) publish(ctx context.Context, action, exchange, routingKey string, msg any, fields map[string]any) {
	body, err := json.Marshal(msg)
	if err != nil {
		mirror.logger.Error(ctx, action, "Failed to marshal mirror message", err, fields)
		return
	}
	if err := mirror.pub.Publish(exchange, routingKey, body); err != nil {
		mirror.logger.Error(ctx, action, "Failed to publish mirror message", err, fields)
	}
}
