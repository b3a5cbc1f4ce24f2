package rabbitmq

import (
	"fmt"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/general/contracts"

	amqp "github.com/rabbitmq/amqp091-go"
)

// declareTopology declares the broker objects the tracking service relies
// on. Everything is durable and the declarations are idempotent, so this
// runs on every connect and reconnect.
func declareTopology(ch *amqp.Channel) error {
	type exchange struct {
		name, kind string
	}
	for _, ex := range []exchange{
		{contracts.ExchangeLocationFanout, "fanout"},
		{contracts.ExchangeTrackingTopic, "topic"},
		{contracts.ExchangeEmergencyTopic, "topic"},
	} {
		if err := ch.ExchangeDeclare(ex.name, ex.kind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}

	// single work queue: admin directives pushed back to connected clients
	if _, err := ch.QueueDeclare(contracts.QueueTrackingDirectives, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", contracts.QueueTrackingDirectives, err)
	}
	err := ch.QueueBind(
		contracts.QueueTrackingDirectives,
		contracts.RouteTrackingDirectivePrefix+"*",
		contracts.ExchangeTrackingTopic,
		false, nil,
	)
	if err != nil {
		return fmt.Errorf("bind queue %s to %s: %w",
			contracts.QueueTrackingDirectives, contracts.ExchangeTrackingTopic, err)
	}
	return nil
}
