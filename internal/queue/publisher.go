package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/njoroofficial/dev-events/internal/domain"
)

// Publisher pushes booking notifications onto the booking.created queue. It
// implements domain.BookingNotifier; errors are logged and returned so the
// booking flow can treat them as non-fatal.
type Publisher struct {
	conn *amqp.Connection
}

// NewPublisher dials the broker. The connection is shared; a channel is
// opened per publish since channels are not safe for concurrent use.
func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial broker: %w", err)
	}
	return &Publisher{conn: conn}, nil
}

// BookingCreated publishes a persistent JSON message for the booking.
func (p *Publisher) BookingCreated(ctx context.Context, booking *domain.Booking, event *domain.Event) error {
	ch, err := p.conn.Channel()
	if err != nil {
		log.Printf("[QUEUE] channel open failed: %v", err)
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(bookingCreatedQueue, true, false, false, false, nil); err != nil {
		log.Printf("[QUEUE] queue declare failed: %v", err)
		return fmt.Errorf("declare queue: %w", err)
	}

	body, err := json.Marshal(newBookingCreatedMessage(booking, event))
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", bookingCreatedQueue, false, false, pub); err != nil {
		log.Printf("[QUEUE] publish failed: %v", err)
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	return p.conn.Close()
}
