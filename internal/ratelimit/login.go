package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/invoicer/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyLoginIP = "invoicer:login:ip:%s"

type bucket interface {
	Allow(ctx context.Context, key string, rate float64, burst int) (*RateLimitResult, error)
}

// LoginLimiter throttles sign-in attempts per client IP. A nil or disabled
// limiter allows every attempt.
type LoginLimiter struct {
	bucket bucket
	rate   float64
	burst  int
	log    *zap.Logger
}

func NewLoginLimiter(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*LoginLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.LoginRate <= 0 || limitCfg.LoginBurst <= 0 {
		return nil, errors.New("login rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: limitCfg.RedisPassword,
		DB:       limitCfg.RedisDB,
	})
	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error { return client.Close() },
		})
	}

	return newLoginLimiter(NewTokenBucket(client), limitCfg.LoginRate, limitCfg.LoginBurst, log), nil
}

func newLoginLimiter(b bucket, rate float64, burst int, log *zap.Logger) *LoginLimiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoginLimiter{bucket: b, rate: rate, burst: burst, log: log.Named("ratelimit.login")}
}

func (l *LoginLimiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

// Allow reports whether ip may attempt a login now. Redis failures fail open
// so an outage of the limiter never locks the admin out.
func (l *LoginLimiter) Allow(ctx context.Context, ip string) (bool, time.Duration) {
	if !l.Enabled() {
		return true, 0
	}
	result, err := l.bucket.Allow(ctx, fmt.Sprintf(keyLoginIP, strings.TrimSpace(ip)), l.rate, l.burst)
	if err != nil {
		l.log.Warn("rate limiter unavailable", zap.Error(err))
		return true, 0
	}
	return result.Allowed, result.RetryAfter
}
