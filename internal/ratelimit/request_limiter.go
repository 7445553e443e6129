package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"

	"github.com/venturebridge/venturebridge/internal/config"
)

const keyAccountRequest = "vb:ratelimit:account:%s"

// RequestLimiter throttles API requests per account. A nil limiter
// allows everything, so deployments without Redis keep working.
type RequestLimiter struct {
	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewRequestLimiter(cfg config.Config) *RequestLimiter {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	if cfg.RateLimitPerSecond <= 0 || cfg.RateLimitBurst <= 0 {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
	})

	return &RequestLimiter{
		bucket: NewTokenBucket(client),
		rate:   cfg.RateLimitPerSecond,
		burst:  cfg.RateLimitBurst,
	}
}

func (l *RequestLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// Allow consumes one request token for the given account.
func (l *RequestLimiter) Allow(ctx context.Context, accountID string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyAccountRequest, strings.TrimSpace(accountID))
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}
