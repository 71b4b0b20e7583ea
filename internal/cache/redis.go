package cache

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

var Client *redis.Client

func InitRedis(ctx context.Context, redisURL string) {
	if redisURL == "" {
		log.Println("REDIS_URL not set, skipping Redis connection")
		return
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("invalid REDIS_URL: %v", err)
	}
	Client = redis.NewClient(opts)
	if err := Client.Ping(ctx).Err(); err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	log.Println("Connected to Redis")
}
