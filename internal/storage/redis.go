package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisAPI is the subset of *redis.Client the backend needs.
type RedisAPI interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

var _ RedisAPI = (*redis.Client)(nil)

// Redis keeps each entry under "<prefix>:<context_id>:<key>".
type Redis struct {
	client RedisAPI
	prefix string
	ttl    time.Duration // 0 = no expiry
}

// NewRedis returns a Redis backend. ttl refreshes on every write.
func NewRedis(client RedisAPI, prefix string, ttl time.Duration) *Redis {
	return &Redis{client: client, prefix: prefix, ttl: ttl}
}

// Scope returns the Storage of one browsing context.
func (r *Redis) Scope(contextID string) Storage {
	return &redisScope{r: r, id: contextID}
}

// Factory adapts Scope to a Factory.
func (r *Redis) Factory() Factory { return r.Scope }

type redisScope struct {
	r  *Redis
	id string
}

func (s *redisScope) key(k string) string {
	var b strings.Builder
	b.Grow(len(s.r.prefix) + len(s.id) + len(k) + 2)
	b.WriteString(s.r.prefix)
	b.WriteString(":")
	b.WriteString(s.id)
	b.WriteString(":")
	b.WriteString(k)
	return b.String()
}

func (s *redisScope) GetItem(ctx context.Context, key string) (string, bool, error) {
	v, err := s.r.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return v, true, nil
}

func (s *redisScope) SetItem(ctx context.Context, key, value string) error {
	if err := s.r.client.Set(ctx, s.key(key), value, s.r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (s *redisScope) RemoveItem(ctx context.Context, key string) error {
	if err := s.r.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
