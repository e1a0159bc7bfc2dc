package repository

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"avtoprokat/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetDraft(ctx context.Context, renterID int64) (*models.DraftState, error) {
	args := m.Called(ctx, renterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DraftState), args.Error(1)
}

func (m *mockRepo) SetDraft(ctx context.Context, state *models.DraftState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *mockRepo) ClearDraft(ctx context.Context, renterID int64) error {
	args := m.Called(ctx, renterID)
	return args.Error(0)
}

func (m *mockRepo) CheckRateLimit(ctx context.Context, renterID int64, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, renterID, limit, window)
	return args.Bool(0), args.Error(1)
}

func TestFailoverDraftRepository(t *testing.T) {
	primary := new(mockRepo)
	fallback := new(mockRepo)
	logger := zerolog.New(io.Discard)
	repo := NewFailoverDraftRepository(primary, fallback, &logger)
	ctx := context.Background()

	t.Run("PrimarySuccess", func(t *testing.T) {
		state := &models.DraftState{RenterID: 1}
		primary.On("GetDraft", ctx, int64(1)).Return(state, nil).Once()

		got, err := repo.GetDraft(ctx, 1)
		assert.NoError(t, err)
		assert.Equal(t, state, got)
		primary.AssertExpectations(t)
	})

	t.Run("PrimaryFailFallbackSuccess", func(t *testing.T) {
		state := &models.DraftState{RenterID: 2}
		primary.On("GetDraft", ctx, int64(2)).Return(nil, errors.New("fail")).Once()
		fallback.On("GetDraft", ctx, int64(2)).Return(state, nil).Once()

		got, err := repo.GetDraft(ctx, 2)
		assert.NoError(t, err)
		assert.Equal(t, state, got)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("RecoveryAttempt", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck = time.Now().Add(-2 * time.Minute)

		state := &models.DraftState{RenterID: 3}
		primary.On("GetDraft", ctx, int64(3)).Return(state, nil).Once()

		got, err := repo.GetDraft(ctx, 3)
		assert.NoError(t, err)
		assert.Equal(t, state, got)
		assert.False(t, repo.isDown.Load())
		primary.AssertExpectations(t)
	})

	t.Run("SetDraftFallsBack", func(t *testing.T) {
		repo.isDown.Store(false)

		state := &models.DraftState{RenterID: 4}
		primary.On("SetDraft", ctx, state).Return(errors.New("fail")).Once()
		fallback.On("SetDraft", ctx, state).Return(nil).Once()

		err := repo.SetDraft(ctx, state)
		assert.NoError(t, err)
		assert.True(t, repo.isDown.Load())
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})

	t.Run("WhileDownUsesFallback", func(t *testing.T) {
		repo.isDown.Store(true)
		repo.lastCheck = time.Now()

		fallback.On("ClearDraft", ctx, int64(5)).Return(nil).Once()

		err := repo.ClearDraft(ctx, 5)
		assert.NoError(t, err)
		fallback.AssertExpectations(t)
	})

	t.Run("RateLimitFallsBack", func(t *testing.T) {
		repo.isDown.Store(false)

		primary.On("CheckRateLimit", ctx, int64(6), 5, time.Minute).Return(false, errors.New("fail")).Once()
		fallback.On("CheckRateLimit", ctx, int64(6), 5, time.Minute).Return(true, nil).Once()

		allowed, err := repo.CheckRateLimit(ctx, 6, 5, time.Minute)
		assert.NoError(t, err)
		assert.True(t, allowed)
		primary.AssertExpectations(t)
		fallback.AssertExpectations(t)
	})
}
