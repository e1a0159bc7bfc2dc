package repository

import (
	"context"
	"sync/atomic"
	"time"

	"avtoprokat/internal/domain"
	"avtoprokat/internal/models"

	"github.com/rs/zerolog"
)

// FailoverDraftRepository пишет в основное хранилище, а при сбое
// переключается на резервное. Восстановление пробуется не чаще раза в минуту.
type FailoverDraftRepository struct {
	primary   domain.DraftRepository
	fallback  domain.DraftRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck time.Time
}

func NewFailoverDraftRepository(primary, fallback domain.DraftRepository, logger *zerolog.Logger) *FailoverDraftRepository {
	return &FailoverDraftRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverDraftRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("Primary draft repository failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck = time.Now()
}

func (r *FailoverDraftRepository) GetDraft(ctx context.Context, renterID int64) (*models.DraftState, error) {
	if !r.isDown.Load() {
		state, err := r.primary.GetDraft(ctx, renterID)
		if err == nil {
			return state, nil
		}
		r.markDown(err)
	}

	// Попытка восстановления после минуты простоя
	if r.isDown.Load() && time.Since(r.lastCheck) > time.Minute {
		state, err := r.primary.GetDraft(ctx, renterID)
		if err == nil {
			r.isDown.Store(false)
			return state, nil
		}
		r.lastCheck = time.Now()
	}

	return r.fallback.GetDraft(ctx, renterID)
}

func (r *FailoverDraftRepository) SetDraft(ctx context.Context, state *models.DraftState) error {
	if !r.isDown.Load() {
		err := r.primary.SetDraft(ctx, state)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.SetDraft(ctx, state)
}

func (r *FailoverDraftRepository) ClearDraft(ctx context.Context, renterID int64) error {
	if !r.isDown.Load() {
		err := r.primary.ClearDraft(ctx, renterID)
		if err == nil {
			return nil
		}
		r.markDown(err)
	}

	return r.fallback.ClearDraft(ctx, renterID)
}

func (r *FailoverDraftRepository) CheckRateLimit(ctx context.Context, renterID int64, limit int, window time.Duration) (bool, error) {
	if !r.isDown.Load() {
		allowed, err := r.primary.CheckRateLimit(ctx, renterID, limit, window)
		if err == nil {
			return allowed, nil
		}
		r.markDown(err)
	}

	return r.fallback.CheckRateLimit(ctx, renterID, limit, window)
}
