package store

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"leaveportal/internal/config"
	"leaveportal/internal/httpmiddleware"
)

const healthKeyTTL = 30 * time.Second

// Redis is the optional shared state behind the rate limiter. Every key it
// touches lives under Prefix.
type Redis struct {
	Client *redis.Client
	Prefix string
}

// NewRedis connects to cfg.RedisAddr with short timeouts. An empty address
// yields nil, which every method accepts.
func NewRedis(cfg config.App) *Redis {
	if cfg.RedisAddr == "" {
		return nil
	}
	prefix := cfg.RedisPrefix
	if prefix == "" {
		prefix = "leaveportal"
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &Redis{Client: client, Prefix: prefix}
}

// Key joins parts under the portal prefix.
func (r *Redis) Key(parts ...string) string {
	return strings.Join(append([]string{r.Prefix}, parts...), ":")
}

// Limiter returns the shared login/register limiter.
func (r *Redis) Limiter(perMinute int) *httpmiddleware.RedisWindow {
	return httpmiddleware.NewRedisWindow(r.Client, r.Key("ratelimit"), perMinute)
}

// Healthy writes a short-lived key under the prefix. The limiter needs
// writes, so a reachable but read-only server counts as unhealthy.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Set(ctx, r.Key("healthz"), time.Now().Unix(), healthKeyTTL).Err() == nil
}

// Close closes the client; safe on nil.
func (r *Redis) Close() error {
	if r == nil || r.Client == nil {
		return nil
	}
	return r.Client.Close()
}
