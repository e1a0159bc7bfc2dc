package domain

import (
	"context"
	"time"

	"avtoprokat/internal/models"
)

// BookingStore is the persistent home of bookings. Created once by the
// submitter, status is mutated only through the lifecycle manager.
type BookingStore interface {
	CreateBooking(ctx context.Context, booking *models.Booking, credential string) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetRenterBookings(ctx context.Context, renterID int64) ([]*models.Booking, error)
	GetBookingsByStatus(ctx context.Context, statuses ...string) ([]*models.Booking, error)
	SetBookingStatus(ctx context.Context, id int64, version int64, status string) error
}

type ReviewStore interface {
	CreateReview(ctx context.Context, review *models.Review, credential string) error
	GetReviewForBooking(ctx context.Context, bookingID int64) (*models.Review, error)
	HasReview(ctx context.Context, bookingID int64) (bool, error)
}

// CarStore serves the catalog. Backed by the yaml catalog cache.
type CarStore interface {
	GetActiveCars(ctx context.Context) ([]*models.Car, error)
	GetCarByID(ctx context.Context, id int64) (*models.Car, error)
}

// PaymentMethodStore hands out read-only payment references for the
// payment step. The instruments themselves live elsewhere.
type PaymentMethodStore interface {
	GetPaymentMethods(ctx context.Context, renterID int64) ([]*models.PaymentMethod, error)
}

// DraftRepository persists per-renter workflow state between requests.
type DraftRepository interface {
	GetDraft(ctx context.Context, renterID int64) (*models.DraftState, error)
	SetDraft(ctx context.Context, state *models.DraftState) error
	ClearDraft(ctx context.Context, renterID int64) error
	CheckRateLimit(ctx context.Context, renterID int64, limit int, window time.Duration) (bool, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Lifecycle is the only writer of booking status.
type Lifecycle interface {
	Cancel(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	Activate(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	Complete(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	Classify(booking *models.Booking, now time.Time) string
}
