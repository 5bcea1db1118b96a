package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/njoroofficial/dev-events/internal/domain"
)

// Consumer drains booking.created and sends a confirmation email per message.
type Consumer struct {
	url    string
	emails domain.EmailService
}

// NewConsumer returns a consumer that will dial the broker at url and deliver
// confirmations through emails.
func NewConsumer(url string, emails domain.EmailService) *Consumer {
	return &Consumer{url: url, emails: emails}
}

// Start runs the consume loop until ctx is cancelled. Broker outages are
// retried with backoff; a dropped connection reconnects, so the consumer can
// be started before the broker is up.
func (c *Consumer) Start(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			log.Printf("[QUEUE] dial broker failed: %v; retrying in %s", err, backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("[QUEUE] consume loop ended: %v; reconnecting", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(20, 0, false); err != nil {
		log.Printf("[QUEUE] set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(bookingCreatedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	msgs, err := ch.Consume(bookingCreatedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.handleDelivery(ctx, d)
		}
	}
}

// handleDelivery acks a sent confirmation, drops malformed messages without
// requeue, and requeues messages whose email could not be sent.
func (c *Consumer) handleDelivery(ctx context.Context, d amqp.Delivery) {
	var msg BookingCreatedMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		log.Printf("[QUEUE] dropping malformed booking message: %v", err)
		_ = d.Nack(false, false)
		return
	}

	data := &domain.BookingConfirmedEmailData{
		Email:      msg.Email,
		EventTitle: msg.EventTitle,
		EventDate:  msg.EventDate,
		Location:   msg.Location,
	}
	if err := c.emails.SendBookingConfirmed(ctx, data); err != nil {
		log.Printf("[QUEUE] booking confirmation for %s failed: %v", msg.Email, err)
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}
