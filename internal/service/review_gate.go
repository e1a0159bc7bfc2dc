package service

import (
	"context"
	"fmt"
	"strings"

	"avtoprokat/internal/domain"
	"avtoprokat/internal/events"
	"avtoprokat/internal/models"

	"github.com/rs/zerolog"
)

// ReviewGate решает, можно ли оставить отзыв, и создает его. Оценка
// допускается только после завершения аренды и не более одного раза.
type ReviewGate struct {
	bookings domain.BookingStore
	reviews  domain.ReviewStore
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewReviewGate(bookings domain.BookingStore, reviews domain.ReviewStore, eventBus domain.EventPublisher, logger *zerolog.Logger) *ReviewGate {
	return &ReviewGate{
		bookings: bookings,
		reviews:  reviews,
		eventBus: eventBus,
		logger:   logger,
	}
}

// CanReview reports whether the booking is eligible for a review right now.
func (g *ReviewGate) CanReview(ctx context.Context, booking *models.Booking) (bool, error) {
	if booking.Status != models.StatusCompleted {
		return false, nil
	}
	exists, err := g.reviews.HasReview(ctx, booking.ID)
	if err != nil {
		return false, fmt.Errorf("failed to check existing review: %w", err)
	}
	return !exists, nil
}

// SubmitReview validates input, resolves the reviewed car and persists the
// review. Validation failures are reported before any store write.
func (g *ReviewGate) SubmitReview(ctx context.Context, renterID, bookingID int64, rating int, comment, credential string) (*models.Review, error) {
	if rating < models.MinRating || rating > models.MaxRating {
		return nil, &domain.ReviewValidationError{Field: "rating"}
	}
	if strings.TrimSpace(comment) == "" {
		return nil, &domain.ReviewValidationError{Field: "comment"}
	}

	booking, err := g.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.RenterID != renterID {
		// Чужие заявки не раскрываем
		return nil, domain.ErrBookingNotFound
	}

	if booking.Status != models.StatusCompleted {
		return nil, &domain.TransitionError{
			From:   booking.Status,
			Reason: "only completed bookings can be reviewed",
		}
	}

	carID := booking.CarID
	if carID == 0 {
		// Старые записи могли потерять ссылку на машину, пробуем перечитать
		g.logger.Warn().Int64("booking_id", bookingID).Msg("Booking has no car reference, re-fetching")
		refreshed, err := g.bookings.GetBooking(ctx, bookingID)
		if err == nil {
			carID = refreshed.CarID
		}
		if carID == 0 {
			return nil, &domain.ReferenceResolutionError{BookingID: bookingID}
		}
	}

	exists, err := g.reviews.HasReview(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing review: %w", err)
	}
	if exists {
		return nil, domain.ErrReviewExists
	}

	review := &models.Review{
		BookingID: bookingID,
		CarID:     carID,
		RenterID:  renterID,
		Rating:    rating,
		Comment:   strings.TrimSpace(comment),
	}

	if err := g.reviews.CreateReview(ctx, review, credential); err != nil {
		return nil, err
	}

	if err := g.eventBus.PublishJSON(events.EventReviewCreated, events.ReviewEventPayload{
		BookingID: review.BookingID,
		CarID:     review.CarID,
		RenterID:  review.RenterID,
		Rating:    review.Rating,
		Comment:   review.Comment,
	}); err != nil {
		g.logger.Error().Err(err).Int64("booking_id", bookingID).Msg("Failed to publish review event")
	}

	g.logger.Info().
		Int64("booking_id", bookingID).
		Int64("renter_id", renterID).
		Int("rating", rating).
		Msg("Review created")

	return review, nil
}
