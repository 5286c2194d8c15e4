// Package entitycache memoizes extracted menu entities in Redis.
package entitycache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/menusearch/internal/db"
	"github.com/kailas-cloud/menusearch/internal/domain"
	"github.com/kailas-cloud/menusearch/internal/domain/menu"
)

var cacheKeyPrefix = domain.KeyPrefix + "entity_cache:"

// store is the consumer interface for the entity cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedExtractor caches extraction results keyed by model and text.
type CachedExtractor struct {
	inner      domain.EntityExtractor
	store      store
	model      string
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator. The model name is part of the key so a
// model switch never serves stale entities. cacheTotal has label "result".
func New(
	inner domain.EntityExtractor,
	s store,
	model string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedExtractor {
	return &CachedExtractor{
		inner:      inner,
		store:      s,
		model:      model,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Extract returns cached entities (zero tokens) or calls the inner extractor.
func (c *CachedExtractor) Extract(ctx context.Context, text string) (domain.ExtractionResult, error) {
	key := c.cacheKey(text)

	if entities, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return domain.ExtractionResult{Entities: entities}, nil
	}
	c.incCache("miss")

	result, err := c.inner.Extract(ctx, text)
	if err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("extract entities: %w", err)
	}

	c.putToCache(ctx, key, result.Entities)
	return result, nil
}

func (c *CachedExtractor) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedExtractor) cacheKey(text string) string {
	h := sha256.New()
	h.Write([]byte(c.model))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return cacheKeyPrefix + hex.EncodeToString(h.Sum(nil))
}

func (c *CachedExtractor) getFromCache(ctx context.Context, key string) (menu.Entities, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached entities", zap.String("key", key), zap.Error(err))
		}
		return menu.Entities{}, false
	}
	if len(data) == 0 {
		return menu.Entities{}, false
	}

	var entities menu.Entities
	if err := json.Unmarshal(data, &entities); err != nil {
		c.logger.Warn("Failed to parse cached entities", zap.String("key", key), zap.Error(err))
		return menu.Entities{}, false
	}
	return entities.Normalize(), true
}

func (c *CachedExtractor) putToCache(ctx context.Context, key string, entities menu.Entities) {
	data, err := json.Marshal(entities)
	if err != nil {
		c.logger.Warn("Failed to encode entities for cache", zap.Error(err))
		return
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache entities", zap.String("key", key), zap.Error(err))
	}
}
