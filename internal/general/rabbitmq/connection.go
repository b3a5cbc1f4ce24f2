package rabbitmq

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tanvirTheDev/GeoTrack-backend/internal/general/config"
	"github.com/tanvirTheDev/GeoTrack-backend/internal/general/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	heartbeatInterval = 10 * time.Second
	dialTimeout       = 30 * time.Second
	redialBaseDelay   = time.Second
	redialMaxDelay    = 30 * time.Second
)

// Client keeps one AMQP connection alive for the process: a confirmed
// publish channel for the event mirror plus per-consumer channels opened on
// demand. When the broker drops the session a background watcher redials and
// re-declares the topology; publishes fail fast until it succeeds.
type Client struct {
	url    string
	logger *logger.Logger
	logCtx context.Context // detached so reconnect logging survives ctx cancellation

	mu      sync.RWMutex
	conn    *amqp.Connection
	pubChan *amqp.Channel

	pubMu       sync.Mutex
	pubConfirms chan amqp.Confirmation

	closed chan struct{}
	redial chan struct{}
}

// ConnectRabbitMQ establishes the first broker session and starts the
// reconnect watcher. The initial dial is a single attempt so a misconfigured
// broker fails startup instead of retrying forever.
func ConnectRabbitMQ(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Client, error) {
	client := &Client{
		url: fmt.Sprintf("amqp://%s:%s@%s:%d/",
			cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.Host, cfg.RabbitMQ.Port),
		logger: log,
		logCtx: context.WithoutCancel(ctx),
		closed: make(chan struct{}),
		redial: make(chan struct{}, 1),
	}

	if err := client.openSession(); err != nil {
		return nil, err
	}
	go client.watchRedial()

	return client, nil
}

// Close stops the watcher and tears the session down. Safe to call twice.
func (client *Client) Close() {
	select {
	case <-client.closed:
	default:
		close(client.closed)
	}

	client.mu.Lock()
	conn, ch := client.conn, client.pubChan
	client.conn, client.pubChan = nil, nil
	client.mu.Unlock()

	if ch != nil {
		_ = ch.Close()
	}
	if conn != nil {
		_ = conn.Close()
	}

	// unblock anyone still waiting on a confirm
	client.pubMu.Lock()
	if client.pubConfirms != nil {
		close(client.pubConfirms)
		client.pubConfirms = nil
	}
	client.pubMu.Unlock()
}

// --- session lifecycle ---

// openSession builds one complete broker session and installs it as the
// live one.
func (client *Client) openSession() error {
	conn, err := amqp.DialConfig(client.url, amqp.Config{
		Heartbeat: heartbeatInterval,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout),
	})
	if err != nil {
		client.logger.Error(client.logCtx, "rabbitmq_dial_failed", "Broker dial failed", err, nil)
		return fmt.Errorf("rabbitmq: dial: %w", err)
	}

	ch, err := client.preparePublishChannel(conn)
	if err != nil {
		_ = conn.Close()
		return err
	}

	client.installSession(conn, ch)
	go client.sessionWatch(conn, ch)

	client.logger.Info(client.logCtx, "rabbitmq_connected", "Broker session established", nil)
	return nil
}

// preparePublishChannel opens the publish channel, declares the topology on
// it, switches it into confirm mode and rebinds the confirm stream.
func (client *Client) preparePublishChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	ch, err := conn.Channel()
	if err != nil {
		client.logger.Error(client.logCtx, "rabbitmq_channel_failed", "Publish channel open failed", err, nil)
		return nil, fmt.Errorf("rabbitmq: open publish channel: %w", err)
	}

	if err := declareTopology(ch); err != nil {
		_ = ch.Close()
		client.logger.Error(client.logCtx, "rabbitmq_topology_failed", "Topology declaration failed", err, nil)
		return nil, fmt.Errorf("rabbitmq: declare topology: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		client.logger.Error(client.logCtx, "rabbitmq_confirms_failed", "Switching to confirm mode failed", err, nil)
		return nil, fmt.Errorf("rabbitmq: enable confirms: %w", err)
	}

	// swap in the new confirm stream before the old channel's stream closes,
	// so awaitConfirm never reads from a dead session
	client.pubMu.Lock()
	stale := client.pubConfirms
	client.pubConfirms = ch.NotifyPublish(make(chan amqp.Confirmation, 1))
	client.pubMu.Unlock()
	if stale != nil {
		close(stale)
	}

	go client.logReturns(ch.NotifyReturn(make(chan amqp.Return, 1)))

	return ch, nil
}

// logReturns drains mandatory publishes the broker could not route. The
// stream ends when the channel dies, which the session watch also notices.
func (client *Client) logReturns(returns <-chan amqp.Return) {
	for r := range returns {
		client.logger.Error(client.logCtx, "rabbitmq_returned", "Message returned as unroutable",
			fmt.Errorf("code=%d text=%s", r.ReplyCode, r.ReplyText),
			map[string]any{
				"exchange":   r.Exchange,
				"routingKey": r.RoutingKey,
				"size":       len(r.Body),
			})
	}
}

// installSession publishes the new connection and channel to readers,
// closing a leftover channel from the previous session.
func (client *Client) installSession(conn *amqp.Connection, ch *amqp.Channel) {
	client.mu.Lock()
	defer client.mu.Unlock()

	if client.pubChan != nil && !client.pubChan.IsClosed() {
		_ = client.pubChan.Close()
	}
	client.conn = conn
	client.pubChan = ch
}

// sessionWatch requests a redial as soon as the connection or the publish
// channel reports closure.
func (client *Client) sessionWatch(conn *amqp.Connection, ch *amqp.Channel) {
	connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
	chanClosed := ch.NotifyClose(make(chan *amqp.Error, 1))

	select {
	case <-client.closed:
		return
	case <-connClosed:
	case <-chanClosed:
	}

	select {
	case client.redial <- struct{}{}:
	default: // one pending redial is enough
	}
}

// watchRedial runs for the client's lifetime and rebuilds the session with
// capped exponential backoff whenever a session watch reports loss.
func (client *Client) watchRedial() {
	for {
		select {
		case <-client.closed:
			return
		case <-client.redial:
		}

		delay := redialBaseDelay
		for {
			select {
			case <-client.closed:
				return
			default:
			}

			if err := client.openSession(); err == nil {
				client.logger.Info(client.logCtx, "rabbitmq_reconnected", "Broker session restored", nil)
				break
			} else {
				client.logger.Error(client.logCtx, "rabbitmq_redial_failed", "Redial failed, backing off", err, map[string]any{
					"retry_in": delay.String(),
				})
			}

			time.Sleep(delay)
			delay *= 2
			if delay > redialMaxDelay {
				delay = redialMaxDelay
			}
		}
	}
}
