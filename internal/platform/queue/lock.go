package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

type Locker interface {
	Acquire(ctx context.Context, name string) (token string, ok bool, err error)
	Release(ctx context.Context, name, token string) (bool, error)
}

type RedisLocker struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisLocker(rdb *redis.Client, prefix string, ttl time.Duration) *RedisLocker {
	return &RedisLocker{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, name string) (string, bool, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, l.prefix+name, token, l.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("RedisLocker.Acquire %s: %w", name, err)
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// Release reports false when the lock expired or was taken over.
func (l *RedisLocker) Release(ctx context.Context, name, token string) (bool, error) {
	deleted, err := releaseScript.Run(ctx, l.rdb, []string{l.prefix + name}, token).Int64()
	if err != nil {
		return false, fmt.Errorf("RedisLocker.Release %s: %w", name, err)
	}
	return deleted == 1, nil
}
