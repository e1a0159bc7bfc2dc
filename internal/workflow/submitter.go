package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"avtoprokat/internal/domain"
	"avtoprokat/internal/events"
	"avtoprokat/internal/models"
	"avtoprokat/internal/pricing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrSubmissionInFlight rejects a second Submit while one is outstanding.
var ErrSubmissionInFlight = &domain.TransitionError{Reason: "booking submission already in flight"}

// Submitter performs the single remote creation of a booking. The total is
// recomputed from the catalog at submission time; a cached quote is never
// trusted.
type Submitter struct {
	bookings domain.BookingStore
	cars     domain.CarStore
	payments domain.PaymentMethodStore
	eventBus domain.EventPublisher
	logger   *zerolog.Logger

	inFlight sync.Map // renterID -> struct{}
}

func NewSubmitter(
	bookings domain.BookingStore,
	cars domain.CarStore,
	payments domain.PaymentMethodStore,
	eventBus domain.EventPublisher,
	logger *zerolog.Logger,
) *Submitter {
	return &Submitter{
		bookings: bookings,
		cars:     cars,
		payments: payments,
		eventBus: eventBus,
		logger:   logger,
	}
}

// Submit builds the payload from a validated draft and creates the booking.
// At most one submission per renter can be in flight; a concurrent call is
// rejected locally without touching the store. Remote failures come back as
// *domain.SubmissionError and are never retried here.
func (s *Submitter) Submit(ctx context.Context, renter models.Renter, draft *models.BookingDraft) (*models.Booking, error) {
	if _, loaded := s.inFlight.LoadOrStore(renter.ID, struct{}{}); loaded {
		return nil, ErrSubmissionInFlight
	}
	defer s.inFlight.Delete(renter.ID)

	car, err := s.cars.GetCarByID(ctx, draft.CarID)
	if err != nil {
		return nil, s.classify(err)
	}

	interval := draft.Interval()
	quote := pricing.Calculate(interval, car.Rates)

	booking := &models.Booking{
		Reference:       uuid.NewString(),
		CarID:           car.ID,
		CarName:         car.Name,
		RenterID:        renter.ID,
		Interval:        interval,
		PickupLocation:  draft.PickupLocation,
		ReturnLocation:  draft.ReturnLocation,
		TotalAmount:     quote.Total,
		PaymentSummary:  s.paymentSummary(ctx, renter.ID, draft.PaymentMethodID),
		SpecialRequests: draft.SpecialRequests,
		Status:          models.StatusUpcoming,
		CreatedAt:       time.Now(),
	}

	if err := s.bookings.CreateBooking(ctx, booking, renter.Credential); err != nil {
		s.logger.Error().Err(err).Int64("renter_id", renter.ID).Int64("car_id", car.ID).Msg("create booking failed")
		return nil, s.classify(err)
	}

	s.logger.Info().
		Int64("booking_id", booking.ID).
		Str("reference", booking.Reference).
		Int("days", quote.Days).
		Float64("total", quote.Total).
		Msg("booking created")

	if s.eventBus != nil {
		payload := events.BookingEventPayload{
			BookingID: booking.ID,
			Reference: booking.Reference,
			RenterID:  booking.RenterID,
			CarID:     booking.CarID,
			CarName:   booking.CarName,
			Status:    booking.Status,
			Start:     booking.Interval.Start,
			End:       booking.Interval.End,
			Total:     booking.TotalAmount,
		}
		if err := s.eventBus.PublishJSON(events.EventBookingCreated, payload); err != nil {
			s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("publish event error")
		}
	}

	return booking, nil
}

func (s *Submitter) classify(err error) error {
	kind := domain.SubmissionTransport
	if errors.Is(err, domain.ErrPayloadRejected) || errors.Is(err, domain.ErrCarNotFound) {
		kind = domain.SubmissionRejected
	}
	return &domain.SubmissionError{Kind: kind, Err: err}
}

// paymentSummary resolves the selected method into a short display string.
// The instrument reference stays opaque; failure here never blocks the
// submission itself.
func (s *Submitter) paymentSummary(ctx context.Context, renterID, methodID int64) string {
	if s.payments == nil || methodID == 0 {
		return ""
	}
	methods, err := s.payments.GetPaymentMethods(ctx, renterID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("renter_id", renterID).Msg("payment methods lookup failed")
		return fmt.Sprintf("method:%d", methodID)
	}
	for _, m := range methods {
		if m.ID == methodID {
			if m.LastDigits != "" {
				return fmt.Sprintf("%s •%s", m.Label, m.LastDigits)
			}
			return m.Label
		}
	}
	return fmt.Sprintf("method:%d", methodID)
}
