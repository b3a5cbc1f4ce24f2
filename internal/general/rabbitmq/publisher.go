package rabbitmq

import (
	"context"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	publishTimeout = 5 * time.Second
	confirmDrain   = 2 * time.Second
)

// MQPublisher adapts the Client to the narrow publish interface the event
// mirror consumes.
type MQPublisher struct {
	Client *Client
}

// NewMQPublisher constructs an MQPublisher using the provided RabbitMQ client.
func NewMQPublisher(client *Client) *MQPublisher {
	return &MQPublisher{Client: client}
}

// Publish sends one message to an exchange under a routing key.
func (publisher *MQPublisher) Publish(exchange, routingKey string, body []byte) error {
	return publisher.Client.PublishMessage(exchange, routingKey, body)
}

// PublishMessage publishes one persistent JSON message and waits for the
// broker confirm. Publishes are serialized under pubMu so every confirm can
// be matched to the publish that caused it.
func (client *Client) PublishMessage(exchange, routingKey string, body []byte) error {
	client.mu.RLock()
	conn := client.conn
	ch := client.pubChan
	client.mu.RUnlock()

	if conn == nil || conn.IsClosed() {
		return errors.New("rabbitmq: connection is not open")
	}
	if ch == nil || ch.IsClosed() {
		return errors.New("rabbitmq: publish channel is not open")
	}

	client.pubMu.Lock()
	defer client.pubMu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err := ch.PublishWithContext(ctx, exchange, routingKey, true /* mandatory */, false, /* immediate */
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         body,
		})
	if err != nil {
		return err
	}
	return client.awaitConfirm(ctx)
}

// awaitConfirm consumes exactly one confirm for the publish just issued.
// Caller holds pubMu.
func (client *Client) awaitConfirm(ctx context.Context) error {
	confirms := client.pubConfirms

	select {
	case confirm := <-confirms:
		if !confirm.Ack {
			return errors.New("rabbitmq: publish not acknowledged")
		}
		return nil
	case <-ctx.Done():
	}

	// Timed out. The confirm may still land; drain it so the stream stays
	// aligned for the next publish.
	select {
	case confirm := <-confirms:
		if !confirm.Ack {
			return errors.New("rabbitmq: publish not acknowledged after timeout")
		}
	case <-time.After(confirmDrain):
	}
	return ctx.Err()
}
