// Package ratelimit implements a fixed-window request counter over
// redis. Windows are one minute wide and keyed per identity, so the
// limit applies per tenant rather than globally.
package ratelimit

import (
	"fmt"
	"time"

	"github.com/admux/ad-gateway/pkg/logger"
	"github.com/admux/ad-gateway/pkg/redis"
)

const windowTTL = 2 * time.Minute

type Limiter struct {
	redis    redis.RedisAdapter
	perMin   int64
	now      func() time.Time
	failOpen bool
}

// NewLimiter builds a per-minute limiter. perMin <= 0 disables
// limiting entirely.
func NewLimiter(adapter redis.RedisAdapter, perMin int) *Limiter {
	return &Limiter{
		redis:    adapter,
		perMin:   int64(perMin),
		now:      time.Now,
		failOpen: true,
	}
}

func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Allow counts one request for identity in the current minute bucket
// and reports whether it is within the limit. Redis outages fail open:
// throttling is protective, not billing-grade accounting.
func (l *Limiter) Allow(identity string) bool {
	if l.perMin <= 0 || identity == "" {
		return true
	}

	bucket := l.now().UTC().Unix() / 60
	key := fmt.Sprintf("ratelimit:%s:%d", identity, bucket)

	count, err := l.redis.IncrByWithTTL(key, 1, windowTTL)
	if err != nil {
		logger.Warn("rate limit counter unavailable", "identity", identity, "error", err)
		return l.failOpen
	}
	return count <= l.perMin
}
