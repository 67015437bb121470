// Package registry holds the orchestrator's only shared mutable state: the
// pending-query correlation table and the per-request cancellation flags.
// All access goes through atomic put/take/set/clear operations; no other
// component touches the backing storage.
package registry

import (
	"context"
	"errors"
	"sync"
	"time"

	"rag-chat-orchestrator/pkg/chat"
)

// ErrDuplicatePending is returned when a request id is already awaiting a
// retrieval response. At most one pending entry exists per request id.
var ErrDuplicatePending = errors.New("pending query already registered for request id")

// PendingQuery correlates an in-flight retrieval request back to its
// originating chat message.
type PendingQuery struct {
	RequestId   string             `json:"request_id"`
	SessionId   string             `json:"session_id"`
	WorkspaceId string             `json:"workspace_id"`
	Content     string             `json:"content"`
	Mode        chat.RetrievalMode `json:"retrieval_mode"`
	CreatedAt   time.Time          `json:"created_at"`
}

// PendingRegistry maps request ids to their pending queries. Take is an
// atomic remove-and-return: at most one caller observes a present value for
// a given id, which is what prevents double-processing a completion under
// concurrent delivery or broker redelivery.
type PendingRegistry interface {
	Put(ctx context.Context, query *PendingQuery) error
	Take(ctx context.Context, requestId string) (*PendingQuery, bool, error)
	// Reap removes and returns entries older than the given age so the
	// orchestrator can fail them with a timeout error.
	Reap(ctx context.Context, olderThan time.Duration) ([]*PendingQuery, error)
}

// MemoryPendingRegistry is the process-local registry. Only safe when one
// orchestrator instance owns a request end-to-end; use the redis variant
// when scaling horizontally.
type MemoryPendingRegistry struct {
	mu      sync.Mutex
	entries map[string]*PendingQuery
}

func NewMemoryPendingRegistry() *MemoryPendingRegistry {
	return &MemoryPendingRegistry{entries: make(map[string]*PendingQuery)}
}

func (r *MemoryPendingRegistry) Put(ctx context.Context, query *PendingQuery) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[query.RequestId]; exists {
		return ErrDuplicatePending
	}
	if query.CreatedAt.IsZero() {
		query.CreatedAt = time.Now()
	}
	r.entries[query.RequestId] = query
	return nil
}

func (r *MemoryPendingRegistry) Take(ctx context.Context, requestId string) (*PendingQuery, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	query, found := r.entries[requestId]
	if !found {
		return nil, false, nil
	}
	delete(r.entries, requestId)
	return query, true, nil
}

func (r *MemoryPendingRegistry) Reap(ctx context.Context, olderThan time.Duration) ([]*PendingQuery, error) {
	cutoff := time.Now().Add(-olderThan)

	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []*PendingQuery
	for id, query := range r.entries {
		if query.CreatedAt.Before(cutoff) {
			expired = append(expired, query)
			delete(r.entries, id)
		}
	}
	return expired, nil
}
