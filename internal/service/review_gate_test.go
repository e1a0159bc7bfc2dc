package service

import (
	"context"
	"io"
	"testing"

	"avtoprokat/internal/domain"
	"avtoprokat/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newGate() (*ReviewGate, *mockBookingStore, *mockReviewStore, *mockEventBus) {
	logger := zerolog.New(io.Discard)
	bookings := new(mockBookingStore)
	reviews := new(mockReviewStore)
	bus := new(mockEventBus)
	return NewReviewGate(bookings, reviews, bus, &logger), bookings, reviews, bus
}

func TestCanReview(t *testing.T) {
	ctx := context.Background()

	t.Run("CompletedWithoutReview", func(t *testing.T) {
		gate, _, reviews, _ := newGate()
		reviews.On("HasReview", ctx, int64(1)).Return(false, nil).Once()

		ok, err := gate.CanReview(ctx, &models.Booking{ID: 1, Status: models.StatusCompleted})
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("CompletedWithReview", func(t *testing.T) {
		gate, _, reviews, _ := newGate()
		reviews.On("HasReview", ctx, int64(2)).Return(true, nil).Once()

		ok, err := gate.CanReview(ctx, &models.Booking{ID: 2, Status: models.StatusCompleted})
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("NotCompleted", func(t *testing.T) {
		gate, _, reviews, _ := newGate()

		for _, status := range []string{models.StatusUpcoming, models.StatusActive, models.StatusCancelled} {
			ok, err := gate.CanReview(ctx, &models.Booking{ID: 3, Status: status})
			require.NoError(t, err)
			assert.False(t, ok, status)
		}
		reviews.AssertNotCalled(t, "HasReview", mock.Anything, mock.Anything)
	})
}

func TestSubmitReview(t *testing.T) {
	ctx := context.Background()

	completed := func(id, renterID, carID int64) *models.Booking {
		return &models.Booking{ID: id, RenterID: renterID, CarID: carID, Status: models.StatusCompleted}
	}

	t.Run("Success", func(t *testing.T) {
		gate, bookings, reviews, bus := newGate()
		bookings.On("GetBooking", ctx, int64(1)).Return(completed(1, 100, 7), nil).Once()
		reviews.On("HasReview", ctx, int64(1)).Return(false, nil).Once()
		reviews.On("CreateReview", ctx, mock.Anything, "cred").Return(nil).Once()
		bus.On("PublishJSON", "review_created", mock.Anything).Return(nil).Once()

		review, err := gate.SubmitReview(ctx, 100, 1, 5, "  Отличная машина  ", "cred")
		require.NoError(t, err)
		assert.Equal(t, int64(7), review.CarID)
		assert.Equal(t, "Отличная машина", review.Comment)
		reviews.AssertExpectations(t)
		bus.AssertExpectations(t)
	})

	t.Run("RatingOutOfRange", func(t *testing.T) {
		gate, bookings, _, _ := newGate()

		for _, rating := range []int{0, -1, 6} {
			_, err := gate.SubmitReview(ctx, 100, 1, rating, "ok", "cred")
			var vErr *domain.ReviewValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, "rating", vErr.Field)
		}
		bookings.AssertNotCalled(t, "GetBooking", mock.Anything, mock.Anything)
	})

	t.Run("EmptyComment", func(t *testing.T) {
		gate, _, _, _ := newGate()

		_, err := gate.SubmitReview(ctx, 100, 1, 4, "   ", "cred")
		var vErr *domain.ReviewValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "comment", vErr.Field)
	})

	t.Run("ForeignBookingHidden", func(t *testing.T) {
		gate, bookings, _, _ := newGate()
		bookings.On("GetBooking", ctx, int64(1)).Return(completed(1, 200, 7), nil).Once()

		_, err := gate.SubmitReview(ctx, 100, 1, 4, "ok", "cred")
		require.ErrorIs(t, err, domain.ErrBookingNotFound)
	})

	t.Run("NotCompleted", func(t *testing.T) {
		gate, bookings, _, _ := newGate()
		bookings.On("GetBooking", ctx, int64(1)).
			Return(&models.Booking{ID: 1, RenterID: 100, CarID: 7, Status: models.StatusActive}, nil).Once()

		_, err := gate.SubmitReview(ctx, 100, 1, 4, "ok", "cred")
		var transitionErr *domain.TransitionError
		require.ErrorAs(t, err, &transitionErr)
	})

	t.Run("DuplicateReview", func(t *testing.T) {
		gate, bookings, reviews, _ := newGate()
		bookings.On("GetBooking", ctx, int64(1)).Return(completed(1, 100, 7), nil).Once()
		reviews.On("HasReview", ctx, int64(1)).Return(true, nil).Once()

		_, err := gate.SubmitReview(ctx, 100, 1, 4, "ok", "cred")
		require.ErrorIs(t, err, domain.ErrReviewExists)
	})

	t.Run("CarReferenceRecovered", func(t *testing.T) {
		gate, bookings, reviews, bus := newGate()
		bookings.On("GetBooking", ctx, int64(1)).Return(completed(1, 100, 0), nil).Once()
		bookings.On("GetBooking", ctx, int64(1)).Return(completed(1, 100, 9), nil).Once()
		reviews.On("HasReview", ctx, int64(1)).Return(false, nil).Once()
		reviews.On("CreateReview", ctx, mock.Anything, "cred").Return(nil).Once()
		bus.On("PublishJSON", "review_created", mock.Anything).Return(nil).Once()

		review, err := gate.SubmitReview(ctx, 100, 1, 4, "ok", "cred")
		require.NoError(t, err)
		assert.Equal(t, int64(9), review.CarID)
	})

	t.Run("CarReferenceUnresolvable", func(t *testing.T) {
		gate, bookings, _, _ := newGate()
		bookings.On("GetBooking", ctx, int64(1)).Return(completed(1, 100, 0), nil).Twice()

		_, err := gate.SubmitReview(ctx, 100, 1, 4, "ok", "cred")
		var refErr *domain.ReferenceResolutionError
		require.ErrorAs(t, err, &refErr)
		assert.Equal(t, int64(1), refErr.BookingID)
	})
}
