package registry

import (
	"context"
	"sync"
	"sync/atomic"
)

// CancellationRegistry tracks the per-request cancellation signal. A flag is
// created lazily on first set or check and cleared when the request reaches
// a terminal state. A flag set before generation starts is still observed
// once generation begins: the generator checks it before requesting the
// first token.
type CancellationRegistry interface {
	Cancel(ctx context.Context, requestId string) error
	IsCancelled(ctx context.Context, requestId string) bool
	Clear(ctx context.Context, requestId string) error
}

// MemoryCancellationRegistry keeps atomically-checked flags in-process.
type MemoryCancellationRegistry struct {
	flags sync.Map // requestId -> *atomic.Bool
}

func NewMemoryCancellationRegistry() *MemoryCancellationRegistry {
	return &MemoryCancellationRegistry{}
}

func (r *MemoryCancellationRegistry) flag(requestId string) *atomic.Bool {
	if f, ok := r.flags.Load(requestId); ok {
		return f.(*atomic.Bool)
	}
	f, _ := r.flags.LoadOrStore(requestId, new(atomic.Bool))
	return f.(*atomic.Bool)
}

func (r *MemoryCancellationRegistry) Cancel(ctx context.Context, requestId string) error {
	r.flag(requestId).Store(true)
	return nil
}

func (r *MemoryCancellationRegistry) IsCancelled(ctx context.Context, requestId string) bool {
	return r.flag(requestId).Load()
}

func (r *MemoryCancellationRegistry) Clear(ctx context.Context, requestId string) error {
	r.flags.Delete(requestId)
	return nil
}
