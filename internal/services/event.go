package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/njoroofficial/dev-events/internal/domain"
)

type eventService struct {
	eventRepo      domain.EventRepository
	images         domain.ImageUploader
	contextTimeout time.Duration
}

func NewEventService(eventRepo domain.EventRepository, images domain.ImageUploader, timeout time.Duration) domain.EventService {
	return &eventService{
		eventRepo:      eventRepo,
		images:         images,
		contextTimeout: timeout,
	}
}

func (s *eventService) ListEvents(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, total, err := s.eventRepo.List(ctx, filter, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}
	if events == nil {
		events = []*domain.Event{}
	}
	return events, total, nil
}

func (s *eventService) GetEventBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	slug = strings.TrimSpace(strings.ToLower(slug))
	if slug == "" {
		return nil, domain.ErrInvalidInput
	}
	event, err := s.eventRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event by slug: %w", err)
	}
	return event, nil
}

func (s *eventService) CreateEvent(ctx context.Context, ownerID string, in domain.CreateEventInput, image domain.ImageUpload) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if ownerID == "" {
		return nil, fmt.Errorf("event owner is required")
	}
	if !domain.ValidMode(in.Mode) {
		return nil, domain.ErrInvalidInput
	}
	if len(in.Tags) == 0 || len(in.Agenda) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if len(image.Data) == 0 {
		return nil, domain.ErrInvalidInput
	}

	slug := slugify(in.Title)
	if slug == "" {
		return nil, domain.ErrInvalidInput
	}

	// Cheap pre-check for a friendly error; the unique index on slug is the
	// real guard against concurrent creates.
	if _, err := s.eventRepo.GetBySlug(ctx, slug); err == nil {
		return nil, domain.ErrSlugTaken
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check slug: %w", err)
	}

	id := uuid.NewString()
	imageURL, err := s.images.Upload(ctx, id, image)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}

	now := time.Now()
	event := &domain.Event{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Slug:        slug,
		Description: in.Description,
		Overview:    in.Overview,
		Date:        in.Date,
		Location:    in.Location,
		Mode:        in.Mode,
		Organizer:   in.Organizer,
		ImageURL:    imageURL,
		Tags:        in.Tags,
		Agenda:      in.Agenda,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.eventRepo.Create(ctx, event); err != nil {
		if errors.Is(err, domain.ErrSlugTaken) {
			return nil, domain.ErrSlugTaken
		}
		return nil, fmt.Errorf("create event: %w", err)
	}
	return event, nil
}

func (s *eventService) UpdateEvent(ctx context.Context, eventID, ownerID string, in domain.UpdateEventInput) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != ownerID {
		return nil, domain.ErrForbidden
	}

	if in.Title != nil {
		event.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		event.Description = *in.Description
	}
	if in.Overview != nil {
		event.Overview = *in.Overview
	}
	if in.Date != nil {
		event.Date = *in.Date
	}
	if in.Location != nil {
		event.Location = *in.Location
	}
	if in.Mode != nil {
		if !domain.ValidMode(*in.Mode) {
			return nil, domain.ErrInvalidInput
		}
		event.Mode = *in.Mode
	}
	if in.Organizer != nil {
		event.Organizer = *in.Organizer
	}
	if in.Tags != nil {
		event.Tags = in.Tags
	}
	if in.Agenda != nil {
		event.Agenda = in.Agenda
	}
	event.UpdatedAt = time.Now()

	if err := s.eventRepo.Update(ctx, event); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update event: %w", err)
	}
	return event, nil
}

func (s *eventService) DeleteEvent(ctx context.Context, eventID, ownerID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != ownerID {
		return domain.ErrForbidden
	}
	if err := s.eventRepo.Delete(ctx, eventID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}
