package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"avtoprokat/internal/config"
	"avtoprokat/internal/models"

	"github.com/redis/go-redis/v9"
)

type RedisDraftRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisDraftRepository(client *redis.Client, ttl time.Duration) *RedisDraftRepository {
	return &RedisDraftRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisDraftRepository) GetDraft(ctx context.Context, renterID int64) (*models.DraftState, error) {
	if r.client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	key := fmt.Sprintf("draft_state:%d", renterID)
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get draft from redis: %w", err)
	}

	var state models.DraftState
	if err := json.Unmarshal([]byte(val), &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal draft: %w", err)
	}

	return &state, nil
}

func (r *RedisDraftRepository) SetDraft(ctx context.Context, state *models.DraftState) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	key := fmt.Sprintf("draft_state:%d", state.RenterID)
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal draft: %w", err)
	}

	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set draft in redis: %w", err)
	}

	return nil
}

func (r *RedisDraftRepository) ClearDraft(ctx context.Context, renterID int64) error {
	if r.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	key := fmt.Sprintf("draft_state:%d", renterID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete draft from redis: %w", err)
	}
	return nil
}

func (r *RedisDraftRepository) CheckRateLimit(ctx context.Context, renterID int64, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, fmt.Errorf("redis client is nil")
	}
	key := fmt.Sprintf("rate_limit:%d", renterID)
	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		r.client.Expire(ctx, key, window)
	}

	return count <= int64(limit), nil
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
