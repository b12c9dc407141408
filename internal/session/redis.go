// ABOUTME: Redis hash session backend for sessions shared across terminals
// ABOUTME: Stores each profile under quebec:session:<profile>

package session

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisOpTimeout = 3 * time.Second

// RedisBackend keeps the session in a Redis hash
type RedisBackend struct {
	rdb redis.Cmdable
	key string
	ttl time.Duration
}

// NewRedisBackend creates a backend for profile. A zero ttl never expires.
func NewRedisBackend(rdb redis.Cmdable, profile string, ttl time.Duration) *RedisBackend {
	if profile == "" {
		profile = "default"
	}
	return &RedisBackend{rdb: rdb, key: "quebec:session:" + profile, ttl: ttl}
}

// HashKey returns the Redis key holding the session
func (r *RedisBackend) HashKey() string {
	return r.key
}

// Load reads every field of the hash
func (r *RedisBackend) Load() (map[Key]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	raw, err := r.rdb.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[Key]string, len(raw))
	for k, v := range raw {
		out[Key(k)] = v
	}
	return out, nil
}

// Save writes values into the hash and refreshes the ttl
func (r *RedisBackend) Save(values map[Key]string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	fields := make(map[string]interface{}, len(values))
	for k, v := range values {
		if k.Valid() {
			fields[string(k)] = v
		}
	}
	if len(fields) == 0 {
		return nil
	}

	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.key, fields)
		if r.ttl > 0 {
			pipe.Expire(ctx, r.key, r.ttl)
		}
		return nil
	})
	return err
}

// Delete removes fields from the hash
func (r *RedisBackend) Delete(keys ...Key) error {
	if len(keys) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	fields := make([]string, len(keys))
	for i, k := range keys {
		fields[i] = string(k)
	}
	return r.rdb.HDel(ctx, r.key, fields...).Err()
}
