package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/introduceourtown/townrec/config"
	"github.com/introduceourtown/townrec/pkg/models"
)

var _ models.ResponseCache = &RedisCache{}

// RedisCache shares cached answers across replicas. Values are JSON encoded.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func NewRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.Redis.Address,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
	})
}

func (r *RedisCache) Get(
	ctx context.Context,
	key string,
) (*models.RecommendationResult, bool, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("failed to get cached answer: %w", err)
	}

	var result models.RecommendationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached answer: %w", err)
	}

	return &result, true, nil
}

func (r *RedisCache) Set(
	ctx context.Context,
	key string,
	value *models.RecommendationResult,
) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode answer: %w", err)
	}
	if err := r.client.Set(ctx, key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache answer: %w", err)
	}
	return nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
