package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	appshared "github.com/retailpos/backend/internal/application/shared"
)

const (
	reportKeyPrefix     = "report:"
	generationKeyPrefix = "report:gen:"
)

// RedisReportCache stores report JSON in Redis. Invalidation increments a
// per-shop generation counter instead of scanning for keys.
type RedisReportCache struct {
	client redis.UniversalClient
}

// NewRedisReportCache creates a report cache on an existing client
func NewRedisReportCache(client redis.UniversalClient) *RedisReportCache {
	return &RedisReportCache{client: client}
}

// Get decodes the cached value into dst
func (c *RedisReportCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.client.Get(ctx, reportKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read report cache: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode cached report: %w", err)
	}
	return true, nil
}

// Set encodes value as JSON and stores it for ttl
func (c *RedisReportCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := c.client.Set(ctx, reportKeyPrefix+key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write report cache: %w", err)
	}
	return nil
}

// Generation returns the shop's generation, 0 if never invalidated
func (c *RedisReportCache) Generation(ctx context.Context, shopID uuid.UUID) (int64, error) {
	gen, err := c.client.Get(ctx, generationKeyPrefix+shopID.String()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read report generation: %w", err)
	}
	return gen, nil
}

// InvalidateShop bumps the shop's generation
func (c *RedisReportCache) InvalidateShop(ctx context.Context, shopID uuid.UUID) error {
	if err := c.client.Incr(ctx, generationKeyPrefix+shopID.String()).Err(); err != nil {
		return fmt.Errorf("failed to invalidate reports: %w", err)
	}
	return nil
}

type reportEntry struct {
	payload   []byte
	expiresAt time.Time
}

// InMemoryReportCache is the single-process report cache
type InMemoryReportCache struct {
	mu          sync.RWMutex
	entries     map[string]reportEntry
	generations map[uuid.UUID]int64
	now         func() time.Time
}

// NewInMemoryReportCache creates an empty cache
func NewInMemoryReportCache() *InMemoryReportCache {
	return &InMemoryReportCache{
		entries:     make(map[string]reportEntry),
		generations: make(map[uuid.UUID]int64),
		now:         time.Now,
	}
}

// Get decodes the cached value into dst
func (c *InMemoryReportCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !c.now().Before(e.expiresAt) {
		return false, nil
	}
	if err := json.Unmarshal(e.payload, dst); err != nil {
		return false, fmt.Errorf("failed to decode cached report: %w", err)
	}
	return true, nil
}

// Set stores value for ttl. Entries are copied through JSON so callers
// cannot mutate what other readers see.
func (c *InMemoryReportCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictExpired()
	c.entries[key] = reportEntry{payload: raw, expiresAt: c.now().Add(ttl)}
	return nil
}

// Generation returns the shop's generation
func (c *InMemoryReportCache) Generation(_ context.Context, shopID uuid.UUID) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generations[shopID], nil
}

// InvalidateShop bumps the shop's generation
func (c *InMemoryReportCache) InvalidateShop(_ context.Context, shopID uuid.UUID) error {
	c.mu.Lock()
	c.generations[shopID]++
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included
func (c *InMemoryReportCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// caller holds c.mu
func (c *InMemoryReportCache) evictExpired() {
	now := c.now()
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

var (
	_ appshared.ReportCache = (*RedisReportCache)(nil)
	_ appshared.ReportCache = (*InMemoryReportCache)(nil)
)
