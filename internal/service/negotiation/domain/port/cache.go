// internal/service/negotiation/domain/port/cache.go
package port

import (
	"context"
	"time"
)

// CacheInvalidator purges stale read-side entries after a mutation. Calls
// are best effort: a no-op result with an unavailable cache is acceptable.
type CacheInvalidator interface {
	// InvalidateNamespace removes every key matching the glob pattern.
	InvalidateNamespace(ctx context.Context, pattern string) error
	// InvalidateKey removes one point entry.
	InvalidateKey(ctx context.Context, key string) error
}

// ViewCache backs the read-side list and stat views. Derived views carry a
// short TTL so uninvalidated staleness stays bounded.
type ViewCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}
