package domain

import (
	"context"
	"errors"
	"time"
)

// ErrSlugTaken is returned when creating an event whose derived slug already
// exists. Slugs are minted from titles, so two events with the same title
// collide here.
var ErrSlugTaken = errors.New("event slug already taken")

// Event modes accepted by CreateEvent.
const (
	ModeOnline   = "online"
	ModeInPerson = "in-person"
	ModeHybrid   = "hybrid"
)

// ValidMode reports whether m is one of the accepted event modes.
func ValidMode(m string) bool {
	return m == ModeOnline || m == ModeInPerson || m == ModeHybrid
}

// Event is a developer event: a talk, meetup, conference, or hackathon that
// visitors can browse and book. Events live in MongoDB; the bson tags drive
// the document mapping, the json tags drive the API shape. ID is a UUID
// string used as the document _id so that bookings stored relationally can
// reference it.
// swagger:model Event
type Event struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Slug        string    `json:"slug" bson:"slug"`
	Description string    `json:"description" bson:"description"`
	Overview    string    `json:"overview" bson:"overview"`
	Date        time.Time `json:"date" bson:"date"`
	Location    string    `json:"location" bson:"location"`
	Mode        string    `json:"mode" bson:"mode"`
	Organizer   string    `json:"organizer" bson:"organizer"`
	ImageURL    string    `json:"image_url" bson:"image_url"`
	Tags        []string  `json:"tags" bson:"tags"`
	Agenda      []string  `json:"agenda" bson:"agenda"`
	OwnerID     string    `json:"owner_id" bson:"owner_id"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// EventFilter narrows event listings. The zero value matches everything.
type EventFilter struct {
	Tag string
}

// CreateEventInput carries the validated fields for a new event. Slug,
// ImageURL, and timestamps are derived by the service.
type CreateEventInput struct {
	Title       string
	Description string
	Overview    string
	Date        time.Time
	Location    string
	Mode        string
	Organizer   string
	Tags        []string
	Agenda      []string
}

// UpdateEventInput carries a partial update. Nil pointers and nil slices mean
// "leave unchanged". The slug is immutable once minted, even when the title
// changes, so published event URLs keep working.
type UpdateEventInput struct {
	Title       *string
	Description *string
	Overview    *string
	Date        *time.Time
	Location    *string
	Mode        *string
	Organizer   *string
	Tags        []string
	Agenda      []string
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetBySlug(ctx context.Context, slug string) (*Event, error)
	GetByID(ctx context.Context, id string) (*Event, error)
	// List returns one page of events plus the total number of matches.
	List(ctx context.Context, filter EventFilter, params PaginationParams) ([]*Event, int, error)
	Update(ctx context.Context, event *Event) error
	Delete(ctx context.Context, id string) error
}

// EventService defines event-facing business operations.
type EventService interface {
	ListEvents(ctx context.Context, filter EventFilter, params PaginationParams) ([]*Event, int, error)
	GetEventBySlug(ctx context.Context, slug string) (*Event, error)
	// CreateEvent validates input, derives the slug from the title, uploads
	// the image through the ImageUploader port, and persists the event. A
	// title whose slug is already taken yields ErrSlugTaken.
	CreateEvent(ctx context.Context, ownerID string, in CreateEventInput, image ImageUpload) (*Event, error)
	// UpdateEvent applies a partial update. Only the owner may update.
	UpdateEvent(ctx context.Context, eventID, ownerID string, in UpdateEventInput) (*Event, error)
	// DeleteEvent removes an event. Only the owner may delete.
	DeleteEvent(ctx context.Context, eventID, ownerID string) error
}
