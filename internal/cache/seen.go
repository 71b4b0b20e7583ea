package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const seenTTL = 7 * 24 * time.Hour

// SeenCache deduplicates token discoveries across scan cycles and process
// restarts. With no Redis client every token reads as unseen, so the
// database upsert becomes the only dedup layer.
type SeenCache struct {
	client *redis.Client
}

func NewSeenCache(client *redis.Client) *SeenCache {
	return &SeenCache{client: client}
}

// MarkSeen records the address and reports whether this call was the
// first sighting within the TTL window.
func (c *SeenCache) MarkSeen(ctx context.Context, address string) (bool, error) {
	if c.client == nil {
		return true, nil
	}
	return c.client.SetNX(ctx, "moonwatch:seen:"+address, 1, seenTTL).Result()
}
