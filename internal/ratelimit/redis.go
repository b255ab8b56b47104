package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a fixed-window Limiter shared by every replica behind a load
// balancer. Each window is one INCR'd key that expires with the window.
type Redis struct {
	client    redis.Cmdable
	keyPrefix string
	now       func() time.Time
}

// NewRedis wraps an existing client. keyPrefix namespaces the counters.
func NewRedis(client redis.Cmdable, keyPrefix string) *Redis {
	return &Redis{client: client, keyPrefix: keyPrefix, now: time.Now}
}

// DialRedis connects to addr and pings it.
func DialRedis(ctx context.Context, addr, keyPrefix string) (*Redis, func() error, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ratelimit: redis ping %s: %w", addr, err)
	}
	return NewRedis(client, keyPrefix), client.Close, nil
}

func (r *Redis) key(key string, rule Rule, now time.Time) string {
	return fmt.Sprintf("%sratelimit:%s:%s:%d", r.keyPrefix, rule, key, rule.windowIndex(now))
}

// Allow counts the request in the current window.
func (r *Redis) Allow(ctx context.Context, key string, rule Rule) (Decision, error) {
	now := r.now()
	k := r.key(key, rule, now)
	reset := rule.resetAt(now)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireAt(ctx, k, reset)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, fmt.Errorf("ratelimit: redis: %w", err)
	}

	n := int(incr.Val())
	if n > rule.Limit {
		return Decision{Allowed: false, RetryAfter: reset.Sub(now)}, nil
	}
	return Decision{Allowed: true, Remaining: rule.Limit - n}, nil
}
