package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultLocalPrefix is the key prefix legacy client data is stored under.
const DefaultLocalPrefix = "local:"

// LocalStorage exposes Redis strings as the key/value store legacy clients
// saved their data in.
type LocalStorage struct {
	client *redis.Client
	prefix string
}

// NewLocalStorage scopes every key under prefix, which may be empty.
func NewLocalStorage(client *redis.Client, prefix string) *LocalStorage {
	return &LocalStorage{client: client, prefix: prefix}
}

func (s *LocalStorage) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("local storage get: %w", err)
	}
	return v, true, nil
}

func (s *LocalStorage) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("local storage set: %w", err)
	}
	return nil
}

func (s *LocalStorage) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("local storage remove: %w", err)
	}
	return nil
}
