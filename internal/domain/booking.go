package domain

import (
	"context"
	"errors"
	"time"
)

// ErrAlreadyBooked is returned when an email address books the same event a
// second time.
var ErrAlreadyBooked = errors.New("email already booked for this event")

// Booking records that an email address reserved a spot at an event. Bookings
// live in Postgres; EventID references the Mongo event document by its UUID.
// swagger:model Booking
type Booking struct {
	ID        int64     `json:"id"`
	EventID   string    `json:"event_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// BookingRepository defines the interface for booking storage.
type BookingRepository interface {
	// Create persists a booking. A (event_id, email) pair that already
	// exists yields ErrAlreadyBooked.
	Create(ctx context.Context, booking *Booking) error
	ListByEventID(ctx context.Context, eventID string) ([]*Booking, error)
}

// BookingNotifier is told about new bookings after they are persisted.
// Implementations deliver the notification out of band (a message queue in
// production, a noop locally); failures are logged, never surfaced to the
// person booking.
type BookingNotifier interface {
	BookingCreated(ctx context.Context, booking *Booking, event *Event) error
}

// BookingService defines booking-facing business operations.
type BookingService interface {
	// CreateBooking validates the email, checks the event exists, and
	// persists the booking. Booking the same event twice with one email
	// yields ErrAlreadyBooked; an unknown event yields ErrNotFound.
	CreateBooking(ctx context.Context, eventID, email string) (*Booking, error)
	// ListEventBookings returns the bookings for an event the caller owns.
	ListEventBookings(ctx context.Context, eventID, ownerID string) ([]*Booking, error)
}
