package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const pendingKeyPrefix = "chat:pending:"

// RedisPendingRegistry externalizes the correlation table so a retrieval
// completion can be matched by any orchestrator instance consuming the
// queue. Entries expire via key TTL instead of an explicit reaper.
type RedisPendingRegistry struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisPendingRegistry(rdb *redis.Client, ttl time.Duration) *RedisPendingRegistry {
	return &RedisPendingRegistry{rdb: rdb, ttl: ttl}
}

func (r *RedisPendingRegistry) Put(ctx context.Context, query *PendingQuery) error {
	if query.CreatedAt.IsZero() {
		query.CreatedAt = time.Now()
	}

	data, err := json.Marshal(query)
	if err != nil {
		return fmt.Errorf("marshal pending query: %w", err)
	}

	ok, err := r.rdb.SetNX(ctx, pendingKeyPrefix+query.RequestId, data, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("store pending query: %w", err)
	}
	if !ok {
		return ErrDuplicatePending
	}
	return nil
}

func (r *RedisPendingRegistry) Take(ctx context.Context, requestId string) (*PendingQuery, bool, error) {
	data, err := r.rdb.GetDel(ctx, pendingKeyPrefix+requestId).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("take pending query: %w", err)
	}

	var query PendingQuery
	if err := json.Unmarshal(data, &query); err != nil {
		return nil, false, fmt.Errorf("unmarshal pending query: %w", err)
	}
	return &query, true, nil
}

// Reap is a no-op: redis drops expired entries via TTL, so there is nothing
// left to fail explicitly. Clients reconcile stranded requests against
// their own request timeout.
func (r *RedisPendingRegistry) Reap(ctx context.Context, olderThan time.Duration) ([]*PendingQuery, error) {
	return nil, nil
}
