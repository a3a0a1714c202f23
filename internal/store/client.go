package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient parses redisURL and returns a connected client, failing
// fast with a bounded ping rather than deferring the first real error to
// whichever command happens to run first.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}
