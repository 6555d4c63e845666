package monitor

import (
	"context"
	"time"
)

// Cache holds the rendered public status overview. Implemented by
// pkg/redisstore, a nil Cache disables caching entirely.
type Cache interface {
	GetOverview(ctx context.Context) ([]byte, error)
	SetOverview(ctx context.Context, data []byte, ttl time.Duration) error
	DelOverview(ctx context.Context) error
}
