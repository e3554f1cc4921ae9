package recommend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/jinzhu/copier"

	"github.com/introduceourtown/townrec/internal"
	"github.com/introduceourtown/townrec/pkg/metrics"
	"github.com/introduceourtown/townrec/pkg/models"
)

const cacheKeyPrefix = "townrec:answer:"

var _ models.Recommender = &CachedRecommender{}

// CachedRecommender serves repeated questions from a ResponseCache. A hit is
// returned as is and does not touch conversation memory. Cache failures are
// logged and the wrapped Recommender is used instead.
type CachedRecommender struct {
	next  models.Recommender
	cache models.ResponseCache
}

func NewCachedRecommender(next models.Recommender, cache models.ResponseCache) *CachedRecommender {
	return &CachedRecommender{next: next, cache: cache}
}

func (c *CachedRecommender) Handle(
	ctx context.Context,
	sessionID string,
	req models.RequestContext,
) (*models.RecommendationResult, error) {
	key := CacheKey(req)

	cached, ok, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CacheLookupTotal.WithLabelValues("error").Inc()
		log.Warnf("response cache lookup failed, bypassing: %v", err)
	case ok:
		metrics.CacheLookupTotal.WithLabelValues("hit").Inc()
		var result models.RecommendationResult
		if err := copier.CopyWithOption(&result, cached, copier.Option{DeepCopy: true}); err != nil {
			log.Warnf("failed to copy cached answer, bypassing: %v", err)
			break
		}
		result.Cached = true
		metrics.RecommendationTotal.WithLabelValues("cached").Inc()
		return &result, nil
	default:
		metrics.CacheLookupTotal.WithLabelValues("miss").Inc()
	}

	result, err := c.next.Handle(ctx, sessionID, req)
	if err != nil {
		return nil, err
	}

	var stored models.RecommendationResult
	if err := copier.CopyWithOption(&stored, result, copier.Option{DeepCopy: true}); err != nil {
		log.Warnf("failed to copy answer for caching: %v", err)
		return result, nil
	}
	if err := c.cache.Set(ctx, key, &stored); err != nil {
		log.Warnf("failed to cache answer: %v", err)
	}

	return result, nil
}

// CacheKey normalizes the question, region and radius into a cache key.
// Case and runs of whitespace do not change the key.
func CacheKey(req models.RequestContext) string {
	var region, radius string
	if req.Region != nil {
		region = normalize(*req.Region)
	}
	if req.Radius != nil {
		radius = strconv.FormatFloat(*req.Radius, 'g', -1, 64)
	}

	sum := sha256.Sum256([]byte(strings.Join([]string{normalize(req.Question), region, radius}, "|")))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func normalize(s string) string {
	return strings.ToLower(internal.CollapseWhitespace(s))
}
