package cache

import (
	"fmt"
	"time"

	"github.com/introduceourtown/townrec/config"
	"github.com/introduceourtown/townrec/internal"
	"github.com/introduceourtown/townrec/pkg/models"
)

const (
	TypeMemory = "memory"
	TypeRedis  = "redis"
)

// DefaultTTL matches the five minute answer cache of the legacy service.
const DefaultTTL = 300 * time.Second

var log = internal.GetLogger()

// New returns the response cache selected by cache.type.
func New(cfg *config.Config) (models.ResponseCache, error) {
	ttl := cfg.Cache.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	switch cfg.Cache.Type {
	case TypeMemory, "":
		log.Infof("using in-memory response cache with ttl %s", ttl)
		return NewMemoryCache(ttl), nil
	case TypeRedis:
		log.Infof("using redis response cache at %s with ttl %s", cfg.Cache.Redis.Address, ttl)
		return NewRedisCache(NewRedisClient(cfg), ttl), nil
	default:
		return nil, fmt.Errorf("invalid cache type: %s", cfg.Cache.Type)
	}
}
