package submission

import (
	"context"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"tripgate/pkg/platform/sentinel"
)

// Locker serializes submission attempts per entry. Acquire returns a release
// function, or sentinel.ErrInFlight when another attempt holds the lock.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// RedisLocker coordinates across instances with SET NX. The TTL covers the
// worst case of a full challenge poll budget plus the remote call; a crashed
// holder's lock expires on its own.
type RedisLocker struct {
	client *goredis.Client
}

func NewRedisLocker(client *goredis.Client) *RedisLocker {
	return &RedisLocker{client: client}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	redisKey := "tripgate:submit-lock:" + key
	ok, err := l.client.SetNX(ctx, redisKey, "1", ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire submit lock: %w", err)
	}
	if !ok {
		return nil, sentinel.ErrInFlight
	}
	return func() {
		// Release runs on the way out of a possibly-cancelled request.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		l.client.Del(rctx, redisKey)
	}, nil
}

// LocalLocker is the single-instance fallback used in development and tests.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

func (l *LocalLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, taken := l.held[key]; taken {
		return nil, sentinel.ErrInFlight
	}
	l.held[key] = struct{}{}
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
	}, nil
}
