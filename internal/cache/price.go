package cache

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const priceTTL = 30 * time.Second

type PriceSource interface {
	GetLatestPrice(ctx context.Context, address string) (*decimal.Decimal, error)
}

type redisStringOps interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// PriceCache is a read-through cache in front of a price source. The
// trade monitor hits every active trade's price each sweep; a short TTL
// keeps those reads off Postgres without letting exits act on stale
// prices. Without a Redis client it is a transparent passthrough.
type PriceCache struct {
	client redisStringOps
	source PriceSource
}

func NewPriceCache(client *redis.Client, source PriceSource) *PriceCache {
	c := &PriceCache{source: source}
	if client != nil {
		c.client = client
	}
	return c
}

func (c *PriceCache) GetLatestPrice(ctx context.Context, address string) (*decimal.Decimal, error) {
	if c.client == nil {
		return c.source.GetLatestPrice(ctx, address)
	}

	key := "moonwatch:price:" + address
	cached, err := c.client.Get(ctx, key).Result()
	if err == nil {
		price, parseErr := decimal.NewFromString(cached)
		if parseErr == nil {
			return &price, nil
		}
		log.Printf("price cache: bad value for %s: %v", address, parseErr)
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("price cache: read failed for %s: %v", address, err)
	}

	price, err := c.source.GetLatestPrice(ctx, address)
	if err != nil {
		return nil, err
	}
	if price != nil {
		if err := c.client.Set(ctx, key, price.String(), priceTTL).Err(); err != nil {
			log.Printf("price cache: write failed for %s: %v", address, err)
		}
	}
	return price, nil
}
