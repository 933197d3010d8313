// Package suggestcache caches typeahead suggestions in a key-value store.
package suggestcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/techsearch/internal/db"
	"github.com/kailas-cloud/techsearch/internal/domain"
)

var cacheKeyPrefix = domain.KeyPrefix + "suggest:"

// Suggester resolves typeahead suggestions.
type Suggester interface {
	Suggest(ctx context.Context, fieldName, q string) ([]string, error)
}

// store is the consumer interface for the suggestion cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedSuggester caches successful suggestion lists. Errors are never cached,
// and a failing cache only costs the lookup, never the request.
type CachedSuggester struct {
	inner      Suggester
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator.
// cacheTotal is a counter vec with label "result" ("hit"/"miss"), passed explicitly.
func New(
	inner Suggester,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedSuggester {
	return &CachedSuggester{
		inner:      inner,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Suggest returns cached suggestions or calls the inner suggester.
func (c *CachedSuggester) Suggest(ctx context.Context, fieldName, q string) ([]string, error) {
	key := cacheKey(fieldName, q)

	if vals, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return vals, nil
	}

	c.incCache("miss")

	vals, err := c.inner.Suggest(ctx, fieldName, q)
	if err != nil {
		return nil, err
	}

	c.putToCache(ctx, key, vals)
	return vals, nil
}

func (c *CachedSuggester) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// cacheKey keeps the field readable and hashes the trimmed query text,
// which is what the lookup actually matches on.
func cacheKey(fieldName, q string) string {
	h := sha256.Sum256([]byte(strings.TrimSpace(q)))
	return cacheKeyPrefix + fieldName + ":" + hex.EncodeToString(h[:])
}

func (c *CachedSuggester) getFromCache(ctx context.Context, key string) ([]string, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached suggestions", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	var vals []string
	if err := json.Unmarshal(data, &vals); err != nil {
		c.logger.Warn("Failed to parse cached suggestions", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if vals == nil {
		vals = []string{}
	}
	return vals, true
}

func (c *CachedSuggester) putToCache(ctx context.Context, key string, vals []string) {
	if vals == nil {
		vals = []string{}
	}
	data, err := json.Marshal(vals)
	if err != nil {
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache suggestions", zap.String("key", key), zap.Error(err))
	}
}
