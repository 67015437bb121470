package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStateTransitions(t *testing.T) {
	tests := []struct {
		from State
		to   State
		ok   bool
	}{
		{StateReceived, StateRouted, true},
		// Direct routing skips retrieval entirely.
		{StateReceived, StateGenerating, true},
		{StateRouted, StateAwaitingRetrieval, true},
		{StateAwaitingRetrieval, StateGenerating, true},
		{StateGenerating, StateStreaming, true},
		{StateStreaming, StateCompleted, true},
		{StateStreaming, StateCancelled, true},
		{StateAwaitingRetrieval, StateCancelled, true},

		// A request never moves backwards or out of a terminal state.
		{StateStreaming, StateGenerating, false},
		{StateCompleted, StateFailed, false},
		{StateCancelled, StateGenerating, false},
		{StateReceived, StateCompleted, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, StateCompleted.Terminal())
	assert.True(t, StateFailed.Terminal())
	assert.True(t, StateCancelled.Terminal())
	assert.False(t, StateStreaming.Terminal())
	assert.False(t, StateReceived.Terminal())
}
