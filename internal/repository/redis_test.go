package repository

import (
	"context"
	"testing"
	"time"

	"avtoprokat/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisDraftRepository(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{
		Addr: s.Addr(),
	})
	defer client.Close()

	repo := NewRedisDraftRepository(client, time.Hour)
	ctx := context.Background()

	t.Run("SetAndGetDraft", func(t *testing.T) {
		state := &models.DraftState{
			RenterID: 123,
			Step:     models.StepPersonalDetails,
			Draft: models.BookingDraft{
				CarID:      4,
				PickupDate: "2026-03-12",
				ReturnDate: "2026-03-15",
				FirstName:  "Илья",
			},
		}

		err := repo.SetDraft(ctx, state)
		require.NoError(t, err)

		got, err := repo.GetDraft(ctx, 123)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, state.RenterID, got.RenterID)
		assert.Equal(t, state.Step, got.Step)
		assert.Equal(t, state.Draft.CarID, got.Draft.CarID)
		assert.Equal(t, state.Draft.FirstName, got.Draft.FirstName)
	})

	t.Run("GetNonExistentDraft", func(t *testing.T) {
		got, err := repo.GetDraft(ctx, 999)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ClearDraft", func(t *testing.T) {
		state := &models.DraftState{RenterID: 456, Step: models.StepPayment}
		repo.SetDraft(ctx, state)

		err := repo.ClearDraft(ctx, 456)
		require.NoError(t, err)

		got, _ := repo.GetDraft(ctx, 456)
		assert.Nil(t, got)
	})

	t.Run("RateLimit", func(t *testing.T) {
		renterID := int64(789)
		limit := 2
		window := time.Second

		allowed, err := repo.CheckRateLimit(ctx, renterID, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, renterID, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, renterID, limit, window)
		require.NoError(t, err)
		assert.False(t, allowed)

		// После истечения окна лимит сбрасывается
		s.FastForward(2 * time.Second)

		allowed, err = repo.CheckRateLimit(ctx, renterID, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("NilClient", func(t *testing.T) {
		nilRepo := NewRedisDraftRepository(nil, time.Hour)

		_, err := nilRepo.GetDraft(ctx, 1)
		assert.Error(t, err)

		err = nilRepo.SetDraft(ctx, &models.DraftState{RenterID: 1})
		assert.Error(t, err)
	})
}
