package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Open connects to the Redis at url (redis:// or rediss://). An empty url
// returns a nil client, which callers treat as "Redis disabled".
func Open(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}
