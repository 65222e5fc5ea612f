package services

import (
	"sync"
	"time"

	"github.com/bobby-s-dev/weather-dashboard/internal/models"
	"go.uber.org/zap"
)

type PayloadKind string

const (
	KindCurrent  PayloadKind = "current"
	KindForecast PayloadKind = "forecast"
)

// CacheKey identifies one upstream response. Payloads are stored raw, so a
// unit toggle re-normalizes without a refetch.
type CacheKey struct {
	Kind   PayloadKind
	Source models.Source
	Query  string
	Days   int
}

type CacheItem struct {
	Payload   *models.ProviderPayload
	ExpiresAt time.Time
}

type PayloadCache struct {
	mu              sync.RWMutex
	items           map[CacheKey]CacheItem
	logger          *zap.Logger
	defaultDuration time.Duration
	maxSize         int
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
	hits            int
	misses          int
	now             func() time.Time
}

func NewPayloadCache(defaultDuration time.Duration, maxSize int, logger *zap.Logger) *PayloadCache {
	cache := &PayloadCache{
		items:           make(map[CacheKey]CacheItem),
		logger:          logger,
		defaultDuration: defaultDuration,
		maxSize:         maxSize,
		cleanupInterval: time.Minute,
		stopCleanup:     make(chan struct{}),
		now:             time.Now,
	}

	go cache.startCleanup()

	return cache
}

func (c *PayloadCache) Set(key CacheKey, payload *models.ProviderPayload) {
	if c.defaultDuration <= 0 || payload == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && c.maxSize > 0 && len(c.items) >= c.maxSize {
		c.evictOldest()
	}

	expiresAt := c.now().Add(c.defaultDuration)
	c.items[key] = CacheItem{Payload: payload, ExpiresAt: expiresAt}

	c.logger.Debug("Payload cached",
		zap.String("kind", string(key.Kind)),
		zap.String("source", string(key.Source)),
		zap.String("query", key.Query),
		zap.Time("expires_at", expiresAt))
}

func (c *PayloadCache) Get(key CacheKey) (*models.ProviderPayload, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, exists := c.items[key]
	if !exists {
		c.misses++
		return nil, false
	}

	if c.now().After(item.ExpiresAt) {
		delete(c.items, key)
		c.misses++
		return nil, false
	}

	c.hits++
	return item.Payload, true
}

// Invalidate drops every cached payload for a query.
func (c *PayloadCache) Invalidate(query string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.items {
		if key.Query == query {
			delete(c.items, key)
		}
	}
}

func (c *PayloadCache) evictOldest() {
	var oldestKey CacheKey
	var oldestTime time.Time
	found := false

	for key, item := range c.items {
		if !found || item.ExpiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = item.ExpiresAt
			found = true
		}
	}

	if found {
		delete(c.items, oldestKey)
		c.logger.Debug("Evicted oldest payload from cache",
			zap.String("kind", string(oldestKey.Kind)),
			zap.String("query", oldestKey.Query))
	}
}

func (c *PayloadCache) startCleanup() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *PayloadCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	expiredCount := 0

	for key, item := range c.items {
		if now.After(item.ExpiresAt) {
			delete(c.items, key)
			expiredCount++
		}
	}

	if expiredCount > 0 {
		c.logger.Debug("Cleaned expired cache items",
			zap.Int("count", expiredCount))
	}
}

func (c *PayloadCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCleanup)
	})
}

func (c *PayloadCache) GetStats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return map[string]interface{}{
		"items":            len(c.items),
		"hits":             c.hits,
		"misses":           c.misses,
		"max_size":         c.maxSize,
		"default_duration": c.defaultDuration.String(),
	}
}
