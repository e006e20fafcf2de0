// Package locking serializes moves that target the same location across
// server processes.
package locking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"warehouse_flow_backend/pkg/utils"
)

// ErrNotObtained is returned when another holder keeps the lock past the retry budget.
var ErrNotObtained = errors.New("lock not obtained")

// Locker hands out exclusive, short-lived locks by key.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// LocationKey is the lock key guarding moves into a location.
func LocationKey(locationID int64) string {
	return fmt.Sprintf("lock:location:%d", locationID)
}

// NoopLocker never blocks. Used when Redis is not configured; the database
// guard alone then enforces capacity.
type NoopLocker struct{}

func (NoopLocker) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}

// RedisLocker implements Locker on top of bsm/redislock.
type RedisLocker struct {
	client  *redislock.Client
	ttl     time.Duration
	backoff time.Duration
	retries int
}

// NewRedisLocker creates a locker. ttl bounds how long a crashed holder can
// block a location.
func NewRedisLocker(client redislock.RedisClient, ttl time.Duration) *RedisLocker {
	return &RedisLocker{
		client:  redislock.New(client),
		ttl:     ttl,
		backoff: 50 * time.Millisecond,
		retries: 20,
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	lock, err := l.client.Obtain(ctx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(l.backoff), l.retries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrNotObtained, key)
	}
	if err != nil {
		return nil, fmt.Errorf("obtaining lock %s: %w", key, err)
	}

	return func() {
		// The request context may already be done; release on a fresh one.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			utils.LogWarn(err, "failed to release redis lock", map[string]interface{}{"key": key})
		}
	}, nil
}

// Connect opens a Redis client and verifies it answers.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", addr, err)
	}
	return rdb, nil
}
