package service

import (
	"context"
	"fmt"
	"time"

	"avtoprokat/internal/domain"
	"avtoprokat/internal/events"
	"avtoprokat/internal/models"

	"github.com/rs/zerolog"
)

// LifecycleManager is the single writer of booking status. All transitions
// go through the version check in the store, so two concurrent managers
// cannot both win on the same booking.
type LifecycleManager struct {
	bookings domain.BookingStore
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewLifecycleManager(bookings domain.BookingStore, eventBus domain.EventPublisher, logger *zerolog.Logger) *LifecycleManager {
	return &LifecycleManager{
		bookings: bookings,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Classify derives the status a booking should carry at the given moment.
// Cancellation is sticky and never reclassified.
func (s *LifecycleManager) Classify(booking *models.Booking, now time.Time) string {
	if booking.Status == models.StatusCancelled {
		return models.StatusCancelled
	}
	if now.Before(booking.Interval.Start) {
		return models.StatusUpcoming
	}
	if now.Before(booking.Interval.End) {
		return models.StatusActive
	}
	return models.StatusCompleted
}

// Cancel переводит заявку в cancelled. Разрешено из upcoming и active.
func (s *LifecycleManager) Cancel(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	if booking.Status != models.StatusUpcoming && booking.Status != models.StatusActive {
		return nil, &domain.TransitionError{
			From:   booking.Status,
			To:     models.StatusCancelled,
			Reason: "only upcoming or active bookings can be cancelled",
		}
	}
	return s.transition(ctx, booking, models.StatusCancelled, events.EventBookingCancelled)
}

// Activate переводит upcoming в active. Вызывается фоновым воркером.
func (s *LifecycleManager) Activate(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	if booking.Status != models.StatusUpcoming {
		return nil, &domain.TransitionError{
			From:   booking.Status,
			To:     models.StatusActive,
			Reason: "only upcoming bookings can become active",
		}
	}
	return s.transition(ctx, booking, models.StatusActive, events.EventBookingActivated)
}

// Complete переводит active в completed.
func (s *LifecycleManager) Complete(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	if booking.Status != models.StatusActive {
		return nil, &domain.TransitionError{
			From:   booking.Status,
			To:     models.StatusCompleted,
			Reason: "only active bookings can be completed",
		}
	}
	return s.transition(ctx, booking, models.StatusCompleted, events.EventBookingCompleted)
}

func (s *LifecycleManager) transition(ctx context.Context, booking *models.Booking, status, eventType string) (*models.Booking, error) {
	if err := s.bookings.SetBookingStatus(ctx, booking.ID, booking.Version, status); err != nil {
		return nil, fmt.Errorf("failed to set booking %d status to %s: %w", booking.ID, status, err)
	}

	updated, err := s.bookings.GetBooking(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload booking %d: %w", booking.ID, err)
	}

	if err := s.eventBus.PublishJSON(eventType, events.BookingEventPayload{
		BookingID: updated.ID,
		Reference: updated.Reference,
		RenterID:  updated.RenterID,
		CarID:     updated.CarID,
		CarName:   updated.CarName,
		Status:    updated.Status,
		Start:     updated.Interval.Start,
		End:       updated.Interval.End,
		Total:     updated.TotalAmount,
	}); err != nil {
		s.logger.Error().Err(err).Int64("booking_id", updated.ID).Str("event", eventType).Msg("Failed to publish booking event")
	}

	s.logger.Info().
		Int64("booking_id", updated.ID).
		Str("from", booking.Status).
		Str("to", updated.Status).
		Msg("Booking status changed")

	return updated, nil
}
