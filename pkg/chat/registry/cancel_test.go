package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryCancellationRegistry(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryCancellationRegistry()

	// Unknown request is not cancelled.
	assert.False(t, reg.IsCancelled(ctx, "r1"))

	assert.NoError(t, reg.Cancel(ctx, "r1"))
	assert.True(t, reg.IsCancelled(ctx, "r1"))

	// Other requests are unaffected.
	assert.False(t, reg.IsCancelled(ctx, "r2"))

	assert.NoError(t, reg.Clear(ctx, "r1"))
	assert.False(t, reg.IsCancelled(ctx, "r1"))
}

func TestMemoryCancellationRegistryCancelIsIdempotent(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryCancellationRegistry()

	assert.NoError(t, reg.Cancel(ctx, "r1"))
	assert.NoError(t, reg.Cancel(ctx, "r1"))
	assert.True(t, reg.IsCancelled(ctx, "r1"))
}
