package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis wraps the single redis client shared by the job queue, session
// revocation keys, and the change-feed pub/sub.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to redis with short timeouts. The change feed holds a
// subscriber connection open per dashboard viewer, so a couple of idle
// connections stay warm for the request-path commands.
func NewRedis(addr string) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
		MinIdleConns: 2,
	})
	return &Redis{Client: client}
}

// Healthy verifies redis connectivity.
func (r *Redis) Healthy(ctx context.Context) bool {
	if r == nil || r.Client == nil {
		return false
	}
	return r.Client.Ping(ctx).Err() == nil
}
