// Package queue delivers booking notifications over RabbitMQ. The API server
// publishes a message per booking; a consumer drains the queue and sends the
// confirmation email, so a slow or flaky mail provider never blocks a booking.
package queue

import (
	"time"

	"github.com/njoroofficial/dev-events/internal/domain"
)

const bookingCreatedQueue = "booking.created"

// messageDateLayout is the human-readable form the confirmation email shows.
const messageDateLayout = "Monday, 2 January 2006 at 15:04 MST"

// BookingCreatedMessage is published when a booking is persisted. It carries
// everything the consumer needs to send the confirmation email without
// querying either database.
type BookingCreatedMessage struct {
	BookingID  int64  `json:"booking_id"`
	EventID    string `json:"event_id"`
	Email      string `json:"email"`
	EventTitle string `json:"event_title"`
	EventDate  string `json:"event_date"`
	Location   string `json:"location"`
	CreatedAt  string `json:"created_at"`
}

func newBookingCreatedMessage(booking *domain.Booking, event *domain.Event) BookingCreatedMessage {
	return BookingCreatedMessage{
		BookingID:  booking.ID,
		EventID:    event.ID,
		Email:      booking.Email,
		EventTitle: event.Title,
		EventDate:  event.Date.Format(messageDateLayout),
		Location:   event.Location,
		CreatedAt:  booking.CreatedAt.UTC().Format(time.RFC3339),
	}
}
