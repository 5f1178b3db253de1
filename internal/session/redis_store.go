// Package session provides storage backends for single-use edit-form tokens.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore tracks issued form tokens in Redis, keyed by token id, until
// they are consumed or expire.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis-backed nonce store
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client), nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "nonce:",
	}
}

func (s *RedisStore) key(jti string) string {
	return s.prefix + jti
}

// SaveNonce remembers an issued token until expiresAt.
func (s *RedisStore) SaveNonce(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, s.key(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("save nonce: %w", err)
	}
	return nil
}

// ConsumeNonce deletes a token and reports whether it was still live. Only one
// of several concurrent callers can observe true.
func (s *RedisStore) ConsumeNonce(ctx context.Context, jti string) (bool, error) {
	deleted, err := s.client.Del(ctx, s.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("consume nonce: %w", err)
	}
	return deleted == 1, nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
