package queue

import (
	"context"
	"log"

	"github.com/njoroofficial/dev-events/internal/domain"
)

// NoopNotifier stands in for the publisher when no broker is configured, so
// bookings work in environments without RabbitMQ.
type NoopNotifier struct{}

func (NoopNotifier) BookingCreated(_ context.Context, booking *domain.Booking, event *domain.Event) error {
	log.Printf("[QUEUE] booking notification skipped (no broker): event %s, %s", event.ID, booking.Email)
	return nil
}
