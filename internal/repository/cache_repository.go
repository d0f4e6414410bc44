package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/noah-isme/section-scheduler/pkg/errors"
)

// CacheRepository stores JSON payloads in Redis under a key prefix. A nil
// client turns every read into a miss and every write into a no-op.
type CacheRepository struct {
	client *redis.Client
	prefix string
}

func NewCacheRepository(client *redis.Client, prefix string) *CacheRepository {
	return &CacheRepository{client: client, prefix: prefix}
}

func (r *CacheRepository) key(name string) string {
	return r.prefix + name
}

// Get unmarshals the cached value into dest or returns ErrCacheMiss.
func (r *CacheRepository) Get(ctx context.Context, name string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}

	key := r.key(name)
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Set stores value as JSON. A zero ttl keeps the key until overwritten.
func (r *CacheRepository) Set(ctx context.Context, name string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	key := r.key(name)
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes the named keys.
func (r *CacheRepository) Delete(ctx context.Context, names ...string) error {
	if r.client == nil || len(names) == 0 {
		return nil
	}

	keys := make([]string, len(names))
	for i, name := range names {
		keys[i] = r.key(name)
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete %v: %w", keys, err)
	}
	return nil
}

func (r *CacheRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
