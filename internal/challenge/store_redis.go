package challenge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tripgate/pkg/platform/sentinel"
)

const sessionKeyPrefix = "tripgate:challenge:"

// RedisSessionStore keeps challenge sessions in Redis so the WebView's token
// callback can land on any server instance while another holds the poll loop.
// The session value is the solved token; empty string means unsolved.
type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (s *RedisSessionStore) Create(ctx context.Context, session Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		ttl = SessionTTL
	}
	ok, err := s.client.SetNX(ctx, sessionKeyPrefix+session.ID, "", ttl).Result()
	if err != nil {
		return fmt.Errorf("create challenge session: %w", err)
	}
	if !ok {
		return sentinel.ErrConflict
	}
	return nil
}

func (s *RedisSessionStore) PutToken(ctx context.Context, sessionID, token string) error {
	ok, err := s.client.SetXX(ctx, sessionKeyPrefix+sessionID, token, redis.KeepTTL).Result()
	if err != nil {
		return fmt.Errorf("put challenge token: %w", err)
	}
	if !ok {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *RedisSessionStore) GetToken(ctx context.Context, sessionID string) (string, error) {
	token, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if errors.Is(err, redis.Nil) {
		return "", sentinel.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get challenge token: %w", err)
	}
	return token, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("delete challenge session: %w", err)
	}
	return nil
}
