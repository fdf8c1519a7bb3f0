package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

var sessionTouchScript = redis.NewScript(`
-- KEYS[1] = session key
-- ARGV[1] = token
-- ARGV[2] = ttl_ms
--
-- Returns:
--  0 if an existing entry was extended
--  1 if a new entry was created
if redis.call('EXISTS', KEYS[1]) == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
  return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
return 1
`)

// RedisStore keeps sessions in Redis. Touch is a single atomic round trip.
type RedisStore struct {
	rdb redis.Cmdable
}

func NewRedisStore(rdb redis.Cmdable) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Touch(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	if err := checkSessionArgs(key, ttl); err != nil {
		return false, err
	}
	res, err := sessionTouchScript.Run(ctx, s.rdb, []string{sessionKeyPrefix + key}, token, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("session touch: %w", err)
	}
	return res == 1, nil
}

func (s *RedisStore) Extend(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := checkSessionArgs(key, ttl); err != nil {
		return false, err
	}
	ok, err := s.rdb.PExpire(ctx, sessionKeyPrefix+key, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("session extend: %w", err)
	}
	return ok, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.rdb.Get(ctx, sessionKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("session get: %w", err)
	}
	return v, true, nil
}

func (s *RedisStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := checkSessionArgs(key, ttl); err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, sessionKeyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("session put: %w", err)
	}
	return nil
}

func checkSessionArgs(key string, ttl time.Duration) error {
	if key == "" {
		return errors.New("session key is required")
	}
	if ttl <= 0 {
		return errors.New("session ttl must be > 0")
	}
	return nil
}
