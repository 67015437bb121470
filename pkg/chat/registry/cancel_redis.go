package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rag-chat-orchestrator/internal/pkg/logger"
)

const cancelKeyPrefix = "chat:cancel:"

// RedisCancellationRegistry shares cancellation flags across orchestrator
// instances. IsCancelled is polled at every chunk boundary, so a lookup
// failure is treated as "not cancelled" rather than aborting the stream.
type RedisCancellationRegistry struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.ILogger
}

func NewRedisCancellationRegistry(rdb *redis.Client, ttl time.Duration, log logger.ILogger) *RedisCancellationRegistry {
	return &RedisCancellationRegistry{rdb: rdb, ttl: ttl, logger: log}
}

func (r *RedisCancellationRegistry) Cancel(ctx context.Context, requestId string) error {
	if err := r.rdb.Set(ctx, cancelKeyPrefix+requestId, "1", r.ttl).Err(); err != nil {
		return fmt.Errorf("set cancellation flag: %w", err)
	}
	return nil
}

func (r *RedisCancellationRegistry) IsCancelled(ctx context.Context, requestId string) bool {
	n, err := r.rdb.Exists(ctx, cancelKeyPrefix+requestId).Result()
	if err != nil {
		r.logger.Warn("CancellationRegistry", "Flag lookup failed", map[string]interface{}{
			"request_id": requestId,
			"error":      err.Error(),
		})
		return false
	}
	return n > 0
}

func (r *RedisCancellationRegistry) Clear(ctx context.Context, requestId string) error {
	return r.rdb.Del(ctx, cancelKeyPrefix+requestId).Err()
}
