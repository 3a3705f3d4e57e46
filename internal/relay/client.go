// Package relay shares change notifications between server instances over
// an AMQP fanout exchange, so that a live view on one instance reloads when
// another instance writes.
package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"github.com/muhfadtz/TrackFinance/internal/logger"
	"github.com/muhfadtz/TrackFinance/internal/store"
)

// Notifier receives remote changes. *store.Hub implements it.
type Notifier interface {
	Notify(coll store.Collection, owner string)
}

// Client publishes local changes and consumes remote ones.
type Client struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	queue    string
	instance string
	log      *slog.Logger

	mu sync.Mutex
}

// NewClient connects to url and declares the fanout exchange plus an
// exclusive queue for this instance.
func NewClient(url, exchange string, log *slog.Logger) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	c := &Client{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		instance: uuid.NewString(),
		log:      logger.Component(log, "relay"),
	}
	if err := c.setup(); err != nil {
		c.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return c, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchange, // name
		"fanout",   // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	// server-named queue that goes away with the connection
	q, err := c.channel.QueueDeclare(
		"",    // name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	c.queue = q.Name

	if err := c.channel.QueueBind(c.queue, "", c.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Instance is the id stamped on messages from this process.
func (c *Client) Instance() string { return c.instance }

// Publish announces a local change.
func (c *Client) Publish(ctx context.Context, coll store.Collection, owner string) error {
	body, err := NewChangeMessage(c.instance, coll, owner).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	c.mu.Lock()
	defer c.mu.Unlock()
	err = c.channel.PublishWithContext(
		ctx,
		c.exchange, // exchange
		"",         // routing key, ignored by fanout
		false,      // mandatory
		false,      // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// Consume forwards remote changes to n until ctx is done or the broker
// closes the channel.
func (c *Client) Consume(ctx context.Context, n Notifier) error {
	msgs, err := c.channel.Consume(
		c.queue, // queue
		"",      // consumer
		true,    // auto-ack
		true,    // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.log.InfoContext(ctx, "consuming change notifications", "exchange", c.exchange, "queue", c.queue)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}
			c.dispatch(ctx, d.Body, n)
		}
	}
}

// dispatch decodes one delivery and notifies n unless it came from this
// instance, whose own hub has already been notified.
func (c *Client) dispatch(ctx context.Context, body []byte, n Notifier) bool {
	msg, err := ChangeMessageFromJSON(body)
	if err != nil {
		c.log.WarnContext(ctx, "dropping undecodable message", logger.FieldError, err)
		return false
	}
	if msg.Instance == c.instance || msg.Owner == "" {
		return false
	}
	n.Notify(msg.Collection, msg.Owner)
	return true
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
