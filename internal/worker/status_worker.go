package worker

import (
	"context"
	"errors"
	"time"

	"avtoprokat/internal/domain"
	"avtoprokat/internal/metrics"
	"avtoprokat/internal/models"

	"github.com/rs/zerolog"
)

// StatusWorker периодически пересматривает незавершенные заявки и двигает
// их по жизненному циклу: upcoming становится active с началом аренды,
// active становится completed после возврата. Отмена воркера не касается.
type StatusWorker struct {
	bookings  domain.BookingStore
	lifecycle domain.Lifecycle
	interval  time.Duration
	retry     RetryPolicy
	logger    *zerolog.Logger
	now       func() time.Time
}

func NewStatusWorker(bookings domain.BookingStore, lifecycle domain.Lifecycle, interval time.Duration, logger *zerolog.Logger) *StatusWorker {
	if interval <= 0 {
		interval = time.Duration(models.StatusRefreshInterval) * time.Second
	}
	return &StatusWorker{
		bookings:  bookings,
		lifecycle: lifecycle,
		interval:  interval,
		retry:     DefaultRetryPolicy(),
		logger:    logger,
		now:       time.Now,
	}
}

// Start blocks until the context is cancelled. The first pass runs
// immediately, then on every tick.
func (w *StatusWorker) Start(ctx context.Context) {
	w.logger.Info().Dur("interval", w.interval).Msg("Status worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Status worker stopped")
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

func (w *StatusWorker) refresh(ctx context.Context) {
	transitions, err := w.RefreshOnce(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("Status refresh failed")
		return
	}
	if transitions > 0 {
		w.logger.Info().Int("transitions", transitions).Msg("Status refresh applied")
	}
}

// RefreshOnce makes one pass over the open bookings and applies the due
// transitions. Returns the number of transitions applied.
func (w *StatusWorker) RefreshOnce(ctx context.Context) (int, error) {
	bookings, err := w.listOpenBookings(ctx)
	if err != nil {
		return 0, err
	}

	now := w.now()
	transitions := 0
	for _, booking := range bookings {
		target := w.lifecycle.Classify(booking, now)
		if target == booking.Status {
			continue
		}

		applied, err := w.apply(ctx, booking, target)
		transitions += applied
		if err != nil {
			if errors.Is(err, domain.ErrConcurrentModification) {
				// Параллельный экземпляр уже обработал заявку
				w.logger.Debug().Int64("booking_id", booking.ID).Msg("Booking already transitioned elsewhere")
				continue
			}
			w.logger.Error().Err(err).Int64("booking_id", booking.ID).Str("target", target).Msg("Transition failed")
		}
	}
	return transitions, nil
}

// listOpenBookings retries transient store failures with backoff.
func (w *StatusWorker) listOpenBookings(ctx context.Context) ([]*models.Booking, error) {
	var lastErr error
	for attempt := 1; attempt <= w.retry.MaxRetries; attempt++ {
		bookings, err := w.bookings.GetBookingsByStatus(ctx, models.StatusUpcoming, models.StatusActive)
		if err == nil {
			return bookings, nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(w.retry.NextDelay(attempt)):
		}
	}
	return nil, lastErr
}

func (w *StatusWorker) apply(ctx context.Context, booking *models.Booking, target string) (int, error) {
	switch target {
	case models.StatusActive:
		if _, err := w.lifecycle.Activate(ctx, booking); err != nil {
			return 0, err
		}
		metrics.IncStatusTransition(models.StatusActive)
		return 1, nil

	case models.StatusCompleted:
		transitions := 0
		current := booking
		// Заявка могла проскочить активную фазу между тиками
		if current.Status == models.StatusUpcoming {
			updated, err := w.lifecycle.Activate(ctx, current)
			if err != nil {
				return 0, err
			}
			metrics.IncStatusTransition(models.StatusActive)
			transitions++
			current = updated
		}
		if _, err := w.lifecycle.Complete(ctx, current); err != nil {
			return transitions, err
		}
		metrics.IncStatusTransition(models.StatusCompleted)
		return transitions + 1, nil
	}
	return 0, nil
}
