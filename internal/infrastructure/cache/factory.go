package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	appshared "github.com/retailpos/backend/internal/application/shared"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Stores bundles the Redis-backed collaborators of the services.
// Client is nil when the in-memory fallbacks are in use.
type Stores struct {
	Client      *redis.Client
	Idempotency shared.IdempotencyStore
	Reports     appshared.ReportCache
	Locker      appshared.PartyLocker
}

// Close releases the idempotency store and the Redis client
func (s *Stores) Close() error {
	var firstErr error
	if s.Idempotency != nil {
		firstErr = s.Idempotency.Close()
	}
	if s.Client != nil {
		if err := s.Client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// StoreFactory creates the cache-backed stores based on configuration
type StoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory and the stores it builds
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory stores when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(cfg config.RedisConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// InMemoryStores returns process-local stores. They do not share state across
// instances, so idempotency keys and report caches are per process.
func (f *StoreFactory) InMemoryStores() *Stores {
	return &Stores{
		Idempotency: NewInMemoryIdempotencyStore(),
		Reports:     NewInMemoryReportCache(),
		Locker:      appshared.NoopLocker{},
	}
}

// Create tries Redis first and falls back to in-memory stores when allowed
func (f *StoreFactory) Create(ctx context.Context) (*Stores, error) {
	client, err := NewRedisClient(ctx, f.redisConfig)
	if err == nil {
		f.logger.Info("using Redis stores", zap.String("addr", f.redisConfig.Addr()))
		return &Stores{
			Client:      client,
			Idempotency: NewRedisIdempotencyStore(client, DefaultIdempotencyPrefix),
			Reports:     NewRedisReportCache(client),
			Locker:      NewRedisPartyLocker(client, WithLockLogger(f.logger)),
		}, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory stores. "+
		"Idempotency keys and report caches will not be shared between instances.",
		zap.Error(err),
	)
	return f.InMemoryStores(), nil
}
