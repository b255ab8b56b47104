// Package ratelimit implements the per-client limits in front of the
// lead-capture endpoints. The in-process limiter is a keyed token bucket
// refilled at Limit tokens per Window; the Redis limiter is a fixed window
// identified by floor(now / window), shared by every replica.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"
)

// Rule is "Limit requests per Window".
type Rule struct {
	Limit  int
	Window time.Duration
}

func (r Rule) String() string { return fmt.Sprintf("%d/%s", r.Limit, r.Window) }

// windowIndex is floor(now / window) in whole windows since the epoch.
func (r Rule) windowIndex(now time.Time) int64 {
	return now.UnixMilli() / r.Window.Milliseconds()
}

// resetAt is when the window containing now ends.
func (r Rule) resetAt(now time.Time) time.Time {
	return time.UnixMilli((r.windowIndex(now) + 1) * r.Window.Milliseconds())
}

// refill is the time one token takes to come back.
func (r Rule) refill() time.Duration {
	if r.Limit <= 0 {
		return r.Window
	}
	return r.Window / time.Duration(r.Limit)
}

// Decision is the outcome of one Allow call. Remaining is -1 when the
// limiter cannot tell. RetryAfter is set on denials.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter counts one request for key under rule. Implementations are safe for
// concurrent use.
type Limiter interface {
	Allow(ctx context.Context, key string, rule Rule) (Decision, error)
}

// Memory is an in-process Limiter backed by fortify's keyed token buckets,
// one bucket set per Rule.
type Memory struct {
	mu       sync.Mutex
	limiters map[Rule]ratelimit.RateLimiter
}

// NewMemory returns an empty in-process limiter.
func NewMemory() *Memory {
	return &Memory{limiters: map[Rule]ratelimit.RateLimiter{}}
}

func (m *Memory) limiter(rule Rule) ratelimit.RateLimiter {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.limiters[rule]
	if !ok {
		l = ratelimit.New(&ratelimit.Config{
			Rate:     rule.Limit,
			Burst:    rule.Limit,
			Interval: rule.Window,
		})
		m.limiters[rule] = l
	}
	return l
}

// Allow takes one token from key's bucket for rule. A caller may spend Limit
// requests at once; after that tokens return at Limit per Window.
func (m *Memory) Allow(ctx context.Context, key string, rule Rule) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	if !m.limiter(rule).Allow(ctx, key) {
		return Decision{Allowed: false, Remaining: 0, RetryAfter: rule.refill()}, nil
	}
	return Decision{Allowed: true, Remaining: -1}, nil
}

// Len reports the number of rules seen so far.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.limiters)
}
