package redisstore

import (
	"context"
	"time"
)

const overviewKey string = "status:overview"

// SetOverview caches the rendered public status overview.
func (c *Client) SetOverview(ctx context.Context, data []byte, ttl time.Duration) error {
	return retry(ctx, 2, func() error {
		return c.rdb.Set(ctx, overviewKey, data, ttl).Err()
	})
}

func (c *Client) GetOverview(ctx context.Context) ([]byte, error) {
	return c.rdb.Get(ctx, overviewKey).Bytes()
}

// DelOverview drops the cached overview, called after every committed
// status transition so the public page never serves a stale status for
// longer than one read.
func (c *Client) DelOverview(ctx context.Context) error {
	return c.rdb.Del(ctx, overviewKey).Err()
}
