package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultLeaseTTL bounds how long a crashed holder can block a document.
	DefaultLeaseTTL = 30 * time.Second

	keyPrefix     = "prdtool:lock:"
	retryInterval = 50 * time.Millisecond
)

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// Redis holds per-document leases in Redis so several server instances
// exclude each other.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedis creates a Redis-backed locker with the given lease TTL.
func NewRedis(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Redis {
	return &Redis{client: client, ttl: ttl, logger: logger}
}

// Lock polls SET NX PX until the lease is acquired or ctx is done.
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := keyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(retryInterval)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	return func() {
		// Release must not depend on the caller's (possibly cancelled) context
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(releaseCtx, r.client, []string{redisKey}, token).Err(); err != nil {
			r.logger.Warn("failed to release document lock", "key", key, "error", err)
		}
	}, nil
}
