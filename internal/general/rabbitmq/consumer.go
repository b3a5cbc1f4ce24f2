package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// handlerTimeout bounds one delivery; a stuck handler must not stall the
// whole queue.
const handlerTimeout = 30 * time.Second

// DeliveryHandler processes one delivery. A non-nil error rejects the
// message without requeue.
type DeliveryHandler func(ctx context.Context, d amqp.Delivery) error

// liveConn snapshots the current connection, failing fast when the broker
// session is down or mid-redial.
func (client *Client) liveConn() (*amqp.Connection, error) {
	client.mu.RLock()
	defer client.mu.RUnlock()
	if client.conn == nil || client.conn.IsClosed() {
		return nil, errors.New("rabbitmq: connection is not ready")
	}
	return client.conn, nil
}

// newConsumerChannel opens a dedicated channel with prefetch (QoS) applied.
// prefetch 0 means unlimited, negative values collapse to 1.
func (client *Client) newConsumerChannel(prefetch int) (*amqp.Channel, error) {
	conn, err := client.liveConn()
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: open channel: %w", err)
	}

	if prefetch < 0 {
		prefetch = 1
	}
	if prefetch > 0 {
		if err := ch.Qos(prefetch, 0, false); err != nil {
			_ = ch.Close()
			return nil, fmt.Errorf("rabbitmq: set QoS (prefetch=%d): %w", prefetch, err)
		}
	}
	return ch, nil
}

// Consume reads a queue with manual acks until ctx is canceled or the
// channel dies. Consume does not survive a broker reconnect; callers that
// need the consumer back afterwards restart it themselves.
func (client *Client) Consume(ctx context.Context, queue, consumerTag string, prefetch int, handler DeliveryHandler) error {
	ch, err := client.newConsumerChannel(prefetch)
	if err != nil {
		return err
	}
	defer ch.Close()

	deliveries, err := ch.Consume(queue, consumerTag,
		false, // autoAck, deliveries are settled manually
		false, // exclusive
		false, // noLocal (ignored by RabbitMQ)
		false, // noWait
		nil)
	if err != nil {
		return fmt.Errorf("rabbitmq: consume(%s): %w", queue, err)
	}
	chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))

	for {
		select {
		case <-ctx.Done():
			if consumerTag != "" {
				_ = ch.Cancel(consumerTag, false)
			}
			return nil

		case cerr := <-chClosed:
			if cerr != nil {
				return fmt.Errorf("rabbitmq: channel closed while consuming %s: %w", queue, cerr)
			}
			return nil

		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			client.dispatch(ctx, d, handler)
		}
	}
}

// dispatch runs one delivery through the handler under a bounded context and
// settles it, ack on success, reject without requeue on failure.
func (client *Client) dispatch(ctx context.Context, d amqp.Delivery, handler DeliveryHandler) {
	hCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
	defer cancel()

	if err := handler(hCtx, d); err != nil {
		_ = d.Nack(false, false)
		return
	}
	_ = d.Ack(false)
}
