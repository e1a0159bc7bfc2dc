package repository

import (
	"context"
	"sync"
	"time"

	"avtoprokat/internal/models"
)

// MemoryDraftRepository хранит черновики в памяти процесса.
// Используется как резерв при недоступности Redis.
type MemoryDraftRepository struct {
	mu     sync.RWMutex
	drafts map[int64]*models.DraftState
	hits   map[int64]*rateWindow
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

func NewMemoryDraftRepository() *MemoryDraftRepository {
	return &MemoryDraftRepository{
		drafts: make(map[int64]*models.DraftState),
		hits:   make(map[int64]*rateWindow),
	}
}

func (r *MemoryDraftRepository) GetDraft(_ context.Context, renterID int64) (*models.DraftState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.drafts[renterID]
	if !ok {
		return nil, nil
	}

	copied := *state
	return &copied, nil
}

func (r *MemoryDraftRepository) SetDraft(_ context.Context, state *models.DraftState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *state
	r.drafts[state.RenterID] = &copied
	return nil
}

func (r *MemoryDraftRepository) ClearDraft(_ context.Context, renterID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.drafts, renterID)
	return nil
}

func (r *MemoryDraftRepository) CheckRateLimit(_ context.Context, renterID int64, limit int, window time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	w, ok := r.hits[renterID]
	if !ok || now.After(w.resetAt) {
		r.hits[renterID] = &rateWindow{count: 1, resetAt: now.Add(window)}
		return true, nil
	}

	w.count++
	return w.count <= limit, nil
}
