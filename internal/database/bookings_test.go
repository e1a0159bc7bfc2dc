package database

import (
	"context"
	"os"
	"testing"
	"time"

	"avtoprokat/internal/domain"
	"avtoprokat/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	logger := zerolog.New(os.Stdout)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testBooking(renterID int64) *models.Booking {
	start := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	return &models.Booking{
		Reference:      uuid.NewString(),
		CarID:          1,
		CarName:        "Lada Vesta",
		RenterID:       renterID,
		Interval:       models.RentalInterval{Start: start, End: start.Add(72 * time.Hour)},
		PickupLocation: "Офис на Тверской",
		ReturnLocation: "Офис на Тверской",
		TotalAmount:    3000,
		Status:         models.StatusUpcoming,
	}
}

func TestCreateAndGetBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	b := testBooking(7)
	require.NoError(t, db.CreateBooking(ctx, b, "token"))
	require.NotZero(t, b.ID)
	assert.Equal(t, int64(1), b.Version)

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Reference, got.Reference)
	assert.Equal(t, b.TotalAmount, got.TotalAmount)
	assert.Equal(t, models.StatusUpcoming, got.Status)
	assert.Equal(t, b.Interval.Start.Unix(), got.Interval.Start.Unix())
}

func TestCreateBookingRejections(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	t.Run("missing credential", func(t *testing.T) {
		err := db.CreateBooking(ctx, testBooking(1), "")
		assert.ErrorIs(t, err, domain.ErrPayloadRejected)
	})

	t.Run("missing car", func(t *testing.T) {
		b := testBooking(1)
		b.CarID = 0
		err := db.CreateBooking(ctx, b, "token")
		assert.ErrorIs(t, err, domain.ErrPayloadRejected)
	})

	t.Run("inverted interval", func(t *testing.T) {
		b := testBooking(1)
		b.Interval.End = b.Interval.Start.Add(-time.Hour)
		err := db.CreateBooking(ctx, b, "token")
		assert.ErrorIs(t, err, domain.ErrPayloadRejected)
	})

	t.Run("duplicate reference", func(t *testing.T) {
		b := testBooking(1)
		require.NoError(t, db.CreateBooking(ctx, b, "token"))

		dup := testBooking(1)
		dup.Reference = b.Reference
		err := db.CreateBooking(ctx, dup, "token")
		assert.ErrorIs(t, err, domain.ErrPayloadRejected)
	})
}

func TestGetBookingNotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetBooking(context.Background(), 12345)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestGetRenterBookings(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.CreateBooking(ctx, testBooking(7), "token"))
	require.NoError(t, db.CreateBooking(ctx, testBooking(7), "token"))
	require.NoError(t, db.CreateBooking(ctx, testBooking(8), "token"))

	bookings, err := db.GetRenterBookings(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, bookings, 2)

	bookings, err = db.GetRenterBookings(ctx, 99)
	require.NoError(t, err)
	assert.Empty(t, bookings)
}

func TestSetBookingStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	b := testBooking(7)
	require.NoError(t, db.CreateBooking(ctx, b, "token"))

	require.NoError(t, db.SetBookingStatus(ctx, b.ID, b.Version, models.StatusActive))

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, got.Status)
	assert.Equal(t, int64(2), got.Version)

	t.Run("stale version", func(t *testing.T) {
		err := db.SetBookingStatus(ctx, b.ID, 1, models.StatusCompleted)
		assert.ErrorIs(t, err, domain.ErrConcurrentModification)
	})

	t.Run("unknown booking", func(t *testing.T) {
		err := db.SetBookingStatus(ctx, 999, 1, models.StatusCompleted)
		assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	})
}

func TestGetBookingsByStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	b1 := testBooking(7)
	require.NoError(t, db.CreateBooking(ctx, b1, "token"))
	b2 := testBooking(8)
	require.NoError(t, db.CreateBooking(ctx, b2, "token"))
	require.NoError(t, db.SetBookingStatus(ctx, b2.ID, b2.Version, models.StatusActive))

	upcoming, err := db.GetBookingsByStatus(ctx, models.StatusUpcoming)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, b1.ID, upcoming[0].ID)

	both, err := db.GetBookingsByStatus(ctx, models.StatusUpcoming, models.StatusActive)
	require.NoError(t, err)
	assert.Len(t, both, 2)

	none, err := db.GetBookingsByStatus(ctx)
	require.NoError(t, err)
	assert.Nil(t, none)
}
