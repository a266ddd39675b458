// internal/service/negotiation/infrastructure/adapter/cache_redis_adapter.go
package adapter

import (
	"context"
	"time"

	"haggle/internal/pkg/redis"
)

// CacheRedisAdapter implements both cache ports: the coarse invalidator the
// engine fires after mutations, and the short-TTL view cache backing the
// read-side list and stat views.
type CacheRedisAdapter struct {
	client *redis.Client
}

func NewCacheRedisAdapter(client *redis.Client) *CacheRedisAdapter {
	return &CacheRedisAdapter{client: client}
}

// InvalidateNamespace drops every key under the pattern. Correctness over
// hit-rate: the whole offers namespace goes after any mutation.
func (a *CacheRedisAdapter) InvalidateNamespace(ctx context.Context, pattern string) error {
	return a.client.DelByPattern(ctx, pattern)
}

func (a *CacheRedisAdapter) InvalidateKey(ctx context.Context, key string) error {
	return a.client.Del(ctx, key)
}

func (a *CacheRedisAdapter) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := a.client.Get(ctx, key)
	if err != nil {
		if redis.IsNil(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return val, true, nil
}

func (a *CacheRedisAdapter) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return a.client.Set(ctx, key, value, ttl)
}
