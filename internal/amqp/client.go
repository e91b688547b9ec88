package amqp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// EventExpenseRecorded is the AMQP message type of ExpenseRecordedMessage.
const EventExpenseRecorded = "expense.recorded"

const publishTimeout = 5 * time.Second

// Handler processes one decoded event. Returning an error requeues the delivery.
type Handler func(context.Context, *ExpenseRecordedMessage) error

// topology is a durable queue bound to a direct exchange under its own name.
type topology struct {
	exchange string
	queue    string
}

func (t topology) routingKey() string { return t.queue }

func (t topology) declare(ch *amqp091.Channel) error {
	if err := ch.ExchangeDeclare(t.exchange, amqp091.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", t.exchange, err)
	}
	if _, err := ch.QueueDeclare(t.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", t.queue, err)
	}
	if err := ch.QueueBind(t.queue, t.routingKey(), t.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s to %s: %w", t.queue, t.exchange, err)
	}
	return nil
}

// Client publishes and consumes expense events on one channel.
type Client struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
	topo    topology
}

// NewClient dials url and declares the exchange and queue.
func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:    conn,
		channel: channel,
		topo:    topology{exchange: exchangeName, queue: queueName},
	}
	if err := client.topo.declare(channel); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// PublishExpenseRecorded publishes msg as a persistent expense.recorded event.
func (c *Client) PublishExpenseRecorded(ctx context.Context, msg *ExpenseRecordedMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = c.channel.PublishWithContext(ctx, c.topo.exchange, c.topo.routingKey(), false, false,
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Type:         EventExpenseRecorded,
			MessageId:    msg.Backend + ":" + msg.Ref,
			Timestamp:    msg.Timestamp,
			Body:         body,
		})
	if err != nil {
		return fmt.Errorf("publish %s: %w", EventExpenseRecorded, err)
	}

	slog.DebugContext(ctx, "Published expense event",
		"ref", msg.Ref,
		"backend", msg.Backend,
		"exchange", c.topo.exchange)
	return nil
}

// ConsumeExpenseRecorded delivers events to handler until ctx is done or
// the channel closes. Acknowledgement is manual.
func (c *Client) ConsumeExpenseRecorded(ctx context.Context, handler Handler) error {
	deliveries, err := c.channel.ConsumeWithContext(ctx, c.topo.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %s: %w", c.topo.queue, err)
	}

	slog.InfoContext(ctx, "Consuming expense events", "queue", c.topo.queue)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			handleDelivery(ctx, d, handler)
		}
	}
}

// handleDelivery decodes one delivery and settles it: foreign or malformed
// messages are dropped, handler failures requeued, everything else acknowledged.
func handleDelivery(ctx context.Context, d amqp091.Delivery, handler Handler) {
	if d.Type != "" && d.Type != EventExpenseRecorded {
		slog.WarnContext(ctx, "Dropping unexpected message type", "type", d.Type)
		_ = d.Nack(false, false)
		return
	}

	msg, err := ExpenseRecordedMessageFromJSON(d.Body)
	if err != nil {
		slog.ErrorContext(ctx, "Dropping malformed expense event", "error", err)
		_ = d.Nack(false, false)
		return
	}

	if err := handler(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Expense event handler failed, requeueing",
			"error", err,
			"ref", msg.Ref,
			"backend", msg.Backend)
		_ = d.Nack(false, true)
		return
	}

	_ = d.Ack(false)
	slog.DebugContext(ctx, "Expense event processed", "ref", msg.Ref, "backend", msg.Backend)
}

// Close closes the channel and the connection.
func (c *Client) Close() error {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil && !c.conn.IsClosed() {
		return c.conn.Close()
	}
	return nil
}
