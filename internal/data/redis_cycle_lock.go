package data

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultCycleLockKey is the Redis key holding the processing cycle lease.
const DefaultCycleLockKey = "pressqueue:cycle-lock"

// releaseScript deletes the lease only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisCycleLock is a lease that keeps processor instances from running cycles concurrently.
// It implements core.CycleLock.
type RedisCycleLock struct {
	client redis.UniversalClient
	key    string
	logger *slog.Logger
}

// NewRedisCycleLock creates a lease on key, or DefaultCycleLockKey when key is empty.
func NewRedisCycleLock(client redis.UniversalClient, key string, logger *slog.Logger) *RedisCycleLock {
	if key == "" {
		key = DefaultCycleLockKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCycleLock{client: client, key: key, logger: logger.With("component", "cycle_lock")}
}

// Acquire takes the lease for ttl. The returned release is safe to call once the cycle ends;
// it never removes a lease that expired and was taken by another instance.
func (l *RedisCycleLock) Acquire(ctx context.Context, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("acquire cycle lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(rctx, l.client, []string{l.key}, token).Err(); err != nil {
			l.logger.WarnContext(rctx, "release cycle lock failed", "error", err)
		}
	}
	return release, true, nil
}
