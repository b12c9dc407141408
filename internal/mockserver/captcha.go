// ABOUTME: Captcha challenge generation and answer storage for the mock backend
// ABOUTME: Answers live in process memory or in Redis with a fixed expiry

package mockserver

import (
	"context"
	"time"

	"github.com/mojocn/base64Captcha"
	"github.com/redis/go-redis/v9"
)

const (
	CaptchaLength = 4
	captchaWidth  = 240
	captchaHeight = 80
	captchaTTL    = 5 * time.Minute
)

// RedisCaptchaStore keeps captcha answers in Redis under captcha:<id>
type RedisCaptchaStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewRedisCaptchaStore returns a base64Captcha store backed by rdb
func NewRedisCaptchaStore(rdb redis.Cmdable, ttl time.Duration) *RedisCaptchaStore {
	if ttl <= 0 {
		ttl = captchaTTL
	}
	return &RedisCaptchaStore{rdb: rdb, ttl: ttl}
}

func (s *RedisCaptchaStore) key(id string) string {
	return "captcha:" + id
}

func (s *RedisCaptchaStore) Set(id string, value string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return s.rdb.Set(ctx, s.key(id), value, s.ttl).Err()
}

func (s *RedisCaptchaStore) Get(id string, clear bool) string {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	value := s.rdb.Get(ctx, s.key(id)).Val()
	if clear {
		s.rdb.Del(ctx, s.key(id))
	}
	return value
}

// Verify consumes the answer whatever the outcome
func (s *RedisCaptchaStore) Verify(id, answer string, clear bool) bool {
	value := s.Get(id, true)
	return value != "" && value == answer
}

func newCaptcha(store base64Captcha.Store) *base64Captcha.Captcha {
	driver := base64Captcha.NewDriverDigit(captchaHeight, captchaWidth, CaptchaLength, 0.7, 80)
	return base64Captcha.NewCaptcha(driver, store)
}
