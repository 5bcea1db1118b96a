package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/njoroofficial/dev-events/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBookingRepo is an in-memory BookingRepository for tests.
type fakeBookingRepo struct {
	bookings  []*domain.Booking
	nextID    int64
	createErr error
	listErr   error
}

func (f *fakeBookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, existing := range f.bookings {
		if existing.EventID == b.EventID && existing.Email == b.Email {
			return domain.ErrAlreadyBooked
		}
	}
	f.nextID++
	b.ID = f.nextID
	f.bookings = append(f.bookings, b)
	return nil
}

func (f *fakeBookingRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.Booking, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []*domain.Booking
	for _, b := range f.bookings {
		if b.EventID == eventID {
			out = append(out, b)
		}
	}
	return out, nil
}

// fakeNotifier records notifications and optionally fails.
type fakeNotifier struct {
	err      error
	notified []string // event IDs
}

func (f *fakeNotifier) BookingCreated(ctx context.Context, b *domain.Booking, e *domain.Event) error {
	if f.err != nil {
		return f.err
	}
	f.notified = append(f.notified, e.ID)
	return nil
}

func eventRepoWithEvent() *fakeEventRepo {
	repo := newFakeEventRepo()
	repo.byID["ev-1"] = &domain.Event{ID: "ev-1", Title: "GopherCon", Slug: "gophercon", OwnerID: "user-1"}
	return repo
}

func TestBookingService_CreateBooking(t *testing.T) {
	ctx := context.Background()
	timeout := 5 * time.Second

	tests := []struct {
		name     string
		setup    func() (*fakeBookingRepo, *fakeEventRepo, *fakeNotifier)
		eventID  string
		email    string
		wantErr  error
		anyErr   bool
		assert   func(t *testing.T, bookingRepo *fakeBookingRepo, notifier *fakeNotifier, booking *domain.Booking)
	}{
		{
			name: "success normalizes email and notifies",
			setup: func() (*fakeBookingRepo, *fakeEventRepo, *fakeNotifier) {
				return &fakeBookingRepo{}, eventRepoWithEvent(), &fakeNotifier{}
			},
			eventID: "ev-1",
			email:   "  Dev@Example.COM ",
			assert: func(t *testing.T, bookingRepo *fakeBookingRepo, notifier *fakeNotifier, booking *domain.Booking) {
				assert.Equal(t, "dev@example.com", booking.Email)
				assert.Equal(t, "ev-1", booking.EventID)
				assert.NotZero(t, booking.ID)
				assert.False(t, booking.CreatedAt.IsZero())
				require.Len(t, bookingRepo.bookings, 1)
				assert.Equal(t, []string{"ev-1"}, notifier.notified)
			},
		},
		{
			name: "invalid email",
			setup: func() (*fakeBookingRepo, *fakeEventRepo, *fakeNotifier) {
				return &fakeBookingRepo{}, eventRepoWithEvent(), &fakeNotifier{}
			},
			eventID: "ev-1",
			email:   "not-an-email",
			wantErr: domain.ErrInvalidInput,
		},
		{
			name: "event not found",
			setup: func() (*fakeBookingRepo, *fakeEventRepo, *fakeNotifier) {
				return &fakeBookingRepo{}, newFakeEventRepo(), &fakeNotifier{}
			},
			eventID: "ev-missing",
			email:   "dev@example.com",
			wantErr: domain.ErrNotFound,
		},
		{
			name: "double booking",
			setup: func() (*fakeBookingRepo, *fakeEventRepo, *fakeNotifier) {
				br := &fakeBookingRepo{}
				br.bookings = []*domain.Booking{{ID: 1, EventID: "ev-1", Email: "dev@example.com"}}
				return br, eventRepoWithEvent(), &fakeNotifier{}
			},
			eventID: "ev-1",
			email:   "dev@example.com",
			wantErr: domain.ErrAlreadyBooked,
		},
		{
			name: "notifier failure does not fail the booking",
			setup: func() (*fakeBookingRepo, *fakeEventRepo, *fakeNotifier) {
				return &fakeBookingRepo{}, eventRepoWithEvent(), &fakeNotifier{err: errors.New("broker down")}
			},
			eventID: "ev-1",
			email:   "dev@example.com",
			assert: func(t *testing.T, bookingRepo *fakeBookingRepo, notifier *fakeNotifier, booking *domain.Booking) {
				require.Len(t, bookingRepo.bookings, 1)
				assert.Empty(t, notifier.notified)
			},
		},
		{
			name: "repo error",
			setup: func() (*fakeBookingRepo, *fakeEventRepo, *fakeNotifier) {
				return &fakeBookingRepo{createErr: errors.New("db error")}, eventRepoWithEvent(), &fakeNotifier{}
			},
			eventID: "ev-1",
			email:   "dev@example.com",
			anyErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bookingRepo, eventRepo, notifier := tt.setup()
			svc := NewBookingService(bookingRepo, eventRepo, notifier, timeout)
			booking, err := svc.CreateBooking(ctx, tt.eventID, tt.email)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			if tt.anyErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, booking)
			if tt.assert != nil {
				tt.assert(t, bookingRepo, notifier, booking)
			}
		})
	}
}

func TestBookingService_CreateBooking_NilNotifier(t *testing.T) {
	ctx := context.Background()
	svc := NewBookingService(&fakeBookingRepo{}, eventRepoWithEvent(), nil, 5*time.Second)

	booking, err := svc.CreateBooking(ctx, "ev-1", "dev@example.com")
	require.NoError(t, err)
	require.NotNil(t, booking)
}

func TestBookingService_ListEventBookings(t *testing.T) {
	ctx := context.Background()
	timeout := 5 * time.Second

	tests := []struct {
		name    string
		setup   func() (*fakeBookingRepo, *fakeEventRepo)
		eventID string
		ownerID string
		wantErr error
		wantLen int
	}{
		{
			name: "success owner lists bookings",
			setup: func() (*fakeBookingRepo, *fakeEventRepo) {
				br := &fakeBookingRepo{bookings: []*domain.Booking{
					{ID: 1, EventID: "ev-1", Email: "a@example.com"},
					{ID: 2, EventID: "ev-1", Email: "b@example.com"},
					{ID: 3, EventID: "ev-other", Email: "c@example.com"},
				}}
				return br, eventRepoWithEvent()
			},
			eventID: "ev-1",
			ownerID: "user-1",
			wantLen: 2,
		},
		{
			name: "success empty is a non-nil slice",
			setup: func() (*fakeBookingRepo, *fakeEventRepo) {
				return &fakeBookingRepo{}, eventRepoWithEvent()
			},
			eventID: "ev-1",
			ownerID: "user-1",
			wantLen: 0,
		},
		{
			name: "event not found",
			setup: func() (*fakeBookingRepo, *fakeEventRepo) {
				return &fakeBookingRepo{}, newFakeEventRepo()
			},
			eventID: "ev-missing",
			ownerID: "user-1",
			wantErr: domain.ErrNotFound,
		},
		{
			name: "forbidden not owner",
			setup: func() (*fakeBookingRepo, *fakeEventRepo) {
				return &fakeBookingRepo{}, eventRepoWithEvent()
			},
			eventID: "ev-1",
			ownerID: "user-2",
			wantErr: domain.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bookingRepo, eventRepo := tt.setup()
			svc := NewBookingService(bookingRepo, eventRepo, &fakeNotifier{}, timeout)
			bookings, err := svc.ListEventBookings(ctx, tt.eventID, tt.ownerID)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, bookings)
			require.Len(t, bookings, tt.wantLen)
		})
	}
}
