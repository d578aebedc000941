package revocation

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "tg:rt"

// Redis stores one key per active refresh session. Keys carry a PX expiry
// matching the token, so Redis evicts expired sessions without a sweeper.
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
	now    func() time.Time
}

// RedisOption customizes a Redis store.
type RedisOption func(*Redis)

// WithRedisPrefix overrides the key prefix (default "tg:rt").
func WithRedisPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		if prefix != "" {
			r.prefix = prefix
		}
	}
}

// WithRedisClock overrides the clock used to turn expiresAt into a TTL.
func WithRedisClock(now func() time.Time) RedisOption {
	return func(r *Redis) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRedis returns a Store backed by rdb.
func NewRedis(rdb redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{
		rdb:    rdb,
		prefix: defaultRedisPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) key(token string) string {
	return r.prefix + ":" + Fingerprint(token)
}

// Add implements Store.
func (r *Redis) Add(ctx context.Context, token string, expiresAt time.Time) error {
	ttl, live := ttlUntil(expiresAt, r.now())
	if !live {
		return nil
	}
	// ttl 0 stores the key without expiry.
	if err := r.rdb.Set(ctx, r.key(token), 1, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Remove implements Store.
func (r *Redis) Remove(ctx context.Context, token string) error {
	if err := r.rdb.Del(ctx, r.key(token)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Contains implements Store.
func (r *Redis) Contains(ctx context.Context, token string) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n == 1, nil
}

// Ping reports the round-trip latency to Redis.
func (r *Redis) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return time.Since(start), nil
}
