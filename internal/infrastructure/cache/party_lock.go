package cache

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	appshared "github.com/retailpos/backend/internal/application/shared"
	"go.uber.org/zap"
)

const partyLockPrefix = "ledger:lock:"

// RedisPartyLocker serializes payments for one party across instances.
// The database row lock remains the correctness guarantee; a lock that cannot
// be obtained is logged and the payment proceeds without it.
type RedisPartyLocker struct {
	locker  *redislock.Client
	logger  *zap.Logger
	retries int
	backoff time.Duration
}

// PartyLockerOption configures RedisPartyLocker
type PartyLockerOption func(*RedisPartyLocker)

// WithLockLogger sets the logger used for lock failures
func WithLockLogger(logger *zap.Logger) PartyLockerOption {
	return func(l *RedisPartyLocker) {
		l.logger = logger
	}
}

// WithLockRetry sets how many times Obtain is retried and the pause between attempts
func WithLockRetry(retries int, backoff time.Duration) PartyLockerOption {
	return func(l *RedisPartyLocker) {
		l.retries = retries
		l.backoff = backoff
	}
}

// NewRedisPartyLocker creates a locker on an existing client
func NewRedisPartyLocker(client redis.UniversalClient, opts ...PartyLockerOption) *RedisPartyLocker {
	l := &RedisPartyLocker{
		locker:  redislock.New(client),
		logger:  zap.NewNop(),
		retries: 10,
		backoff: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lock obtains the lock for key. The returned release func is never nil.
func (l *RedisPartyLocker) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lock, err := l.locker.Obtain(ctx, partyLockPrefix+key, ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.backoff), l.retries),
	})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			l.logger.Warn("party lock busy, continuing on row lock", zap.String("key", key))
		} else {
			l.logger.Warn("party lock unavailable, continuing on row lock", zap.String("key", key), zap.Error(err))
		}
		return func() {}, nil
	}

	return func() {
		// the payment already committed; a release error only delays the next holder until ttl
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("failed to release party lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

var _ appshared.PartyLocker = (*RedisPartyLocker)(nil)
