package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/general/contracts"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/ports"
)

// RunBackgroundConsumers starts the directive consumer: other services push
// events to live connections by publishing tracking.directive.* messages.
// The loop restarts the consumer after broker reconnects and exits on ctx
// cancellation.
func (service *trackingService) RunBackgroundConsumers(ctx context.Context) {
	go func() {
		for {
			err := service.rabbitmq.Consume(ctx, contracts.QueueTrackingDirectives, "tracking-service-directives", service.prefetch,
				service.handleDirective)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				service.logger.Error(ctx, "mq_consumer_stopped", "Directive consumer stopped; restarting", err,
					map[string]any{"queue": contracts.QueueTrackingDirectives})
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(5 * time.Second):
			}
		}
	}()

	service.logger.Info(ctx, "mq_consumer_started", "Tracking service MQ consumer started",
		map[string]any{"queue": contracts.QueueTrackingDirectives})
}

// handleDirective pushes one broker directive through the hub. Invalid
// messages are rejected without requeue.
func (service *trackingService) handleDirective(ctx context.Context, d amqp.Delivery) error {
	var directive contracts.DirectiveMessage
	if err := json.Unmarshal(d.Body, &directive); err != nil {
		service.logger.Error(ctx, "mq_message_parse_failed", "Failed to parse directive", err,
			map[string]any{"routing_key": d.RoutingKey})
		return err
	}

	result, err := service.Notify(ctx, ports.NotifyInput{
		Scope:    directive.Scope,
		TargetID: directive.TargetID,
		Event:    directive.Event,
		Payload:  directive.Payload,
	})
	if err != nil {
		service.logger.Error(ctx, "directive_rejected", "Dropping invalid directive", err, map[string]any{
			"scope": directive.Scope,
			"event": directive.Event,
		})
		return err
	}

	service.logger.Info(ctx, "directive_processed", "Directive pushed to live connections", map[string]any{
		"scope":          result.Scope,
		"event":          directive.Event,
		"delivered":      result.Delivered,
		"correlation_id": directive.CorrelationID,
	})
	return nil
}
