package grounding

import (
	"testing"

	"rag-chat-orchestrator/internal/pkg/logger"
	"rag-chat-orchestrator/pkg/events"

	"github.com/stretchr/testify/assert"
)

func TestAssemble(t *testing.T) {
	tests := []struct {
		name          string
		results       []events.RetrievalResult
		dispatched    bool
		wantBlock     string
		wantNoContext bool
	}{
		{
			name:          "empty results after dispatch is no context",
			results:       nil,
			dispatched:    true,
			wantBlock:     "",
			wantNoContext: true,
		},
		{
			name:          "empty results without dispatch is not flagged",
			results:       nil,
			dispatched:    false,
			wantBlock:     "",
			wantNoContext: false,
		},
		{
			name: "relevant result",
			results: []events.RetrievalResult{
				{Text: "raft elects a leader per term", Score: 0.9},
			},
			dispatched:    true,
			wantBlock:     "1. raft elects a leader per term\n",
			wantNoContext: false,
		},
		{
			name: "all below floor still includes text but flags no context",
			results: []events.RetrievalResult{
				{Text: "barely related", Score: 0.05},
				{Text: "noise", Score: 0.01},
			},
			dispatched:    true,
			wantBlock:     "1. barely related\n2. noise\n",
			wantNoContext: true,
		},
		{
			name: "one relevant result clears the flag",
			results: []events.RetrievalResult{
				{Text: "noise", Score: 0.02},
				{Text: "on point", Score: 0.75},
			},
			dispatched:    true,
			wantBlock:     "1. noise\n2. on point\n",
			wantNoContext: false,
		},
		{
			name: "score exactly at floor counts as relevant",
			results: []events.RetrievalResult{
				{Text: "boundary", Score: RelevanceFloor},
			},
			dispatched:    true,
			wantBlock:     "1. boundary\n",
			wantNoContext: false,
		},
	}

	a := NewAssembler(logger.NewNopLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block, noContext := a.Assemble(tt.results, tt.dispatched)
			assert.Equal(t, tt.wantBlock, block)
			assert.Equal(t, tt.wantNoContext, noContext)
		})
	}
}
