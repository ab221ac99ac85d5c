package cache

import (
	"context"
	"time"

	"github.com/Dias221467/Friendship_Manager/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to addr. It returns nil when addr is empty or the
// server does not answer, and callers run without Redis.
func NewRedisClient(addr string) *redis.Client {
	if addr == "" {
		logger.Log.Info("REDIS_ADDR not set, running without cache")
		return nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Log.WithError(err).Warn("Redis unavailable, continuing without cache")
		_ = client.Close()
		return nil
	}

	logger.Log.WithField("addr", addr).Info("Redis connected successfully")
	return client
}
