// ABOUTME: Builds the session store selected by configuration
// ABOUTME: Supports the profile file, process memory and a shared Redis hash

package config

import (
	"context"
	"fmt"
	"time"

	"github.com/lyonmu/quebec/console/internal/client"
	"github.com/lyonmu/quebec/console/internal/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewSessionStore opens the configured backend. The returned close
// function releases any connection and is always non-nil.
func (c *Config) NewSessionStore(ctx context.Context, configDir string, log *zap.Logger) (*session.KV, func() error, error) {
	noop := func() error { return nil }

	switch c.Session.Backend {
	case BackendMemory:
		return session.New(session.NewMemoryBackend(), log), noop, nil

	case BackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.Session.RedisAddr,
			Password: c.Session.RedisPassword,
			DB:       c.Session.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			rdb.Close()
			return nil, noop, fmt.Errorf("failed to connect to redis at %s: %w", c.Session.RedisAddr, err)
		}
		backend := session.NewRedisBackend(rdb, c.Profile, c.Session.TTL)
		return session.New(backend, log), rdb.Close, nil

	default:
		return session.New(session.NewFileBackend(configDir, c.Profile), log), noop, nil
	}
}

// APIRoot joins the server and base path
func (c *Config) APIRoot() string {
	return client.APIRoot(c.Server, c.BasePath)
}
