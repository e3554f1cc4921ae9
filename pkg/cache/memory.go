package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/jinzhu/copier"
	gocache "github.com/patrickmn/go-cache"

	"github.com/introduceourtown/townrec/pkg/models"
)

var _ models.ResponseCache = &MemoryCache{}

// MemoryCache is a process-local TTL cache. Values are deep-copied on Set and
// Get, so the cache shares no slices with its callers.
type MemoryCache struct {
	c *gocache.Cache
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{c: gocache.New(ttl, 2*ttl)}
}

func (m *MemoryCache) Get(
	_ context.Context,
	key string,
) (*models.RecommendationResult, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	stored, ok := v.(*models.RecommendationResult)
	if !ok {
		m.c.Delete(key)
		return nil, false, nil
	}
	result, err := deepCopy(stored)
	if err != nil {
		return nil, false, err
	}
	return result, true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value *models.RecommendationResult) error {
	stored, err := deepCopy(value)
	if err != nil {
		return err
	}
	m.c.Set(key, stored, gocache.DefaultExpiration)
	return nil
}

func (m *MemoryCache) ItemCount() int {
	return m.c.ItemCount()
}

func deepCopy(src *models.RecommendationResult) (*models.RecommendationResult, error) {
	var dst models.RecommendationResult
	if err := copier.CopyWithOption(&dst, src, copier.Option{DeepCopy: true}); err != nil {
		return nil, fmt.Errorf("failed to copy cached result: %w", err)
	}
	return &dst, nil
}
