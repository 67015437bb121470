// Package grounding converts retrieved passages into the context block fed
// to the model and decides whether "no usable context" applies.
package grounding

import (
	"fmt"
	"strings"

	"rag-chat-orchestrator/internal/pkg/logger"
	"rag-chat-orchestrator/pkg/events"
)

// RelevanceFloor is the score below which a retrieved passage is considered
// not meaningfully relevant.
const RelevanceFloor = 0.1

// Assembler builds numbered context blocks from retrieval results.
type Assembler struct {
	logger logger.ILogger
}

func NewAssembler(log logger.ILogger) *Assembler {
	return &Assembler{logger: log}
}

// Assemble concatenates every result into a numbered context block and
// reports whether no usable context was found. The two no-context cases are
// surfaced identically: nothing retrieved (empty results after a dispatched
// retrieval) and retrieved-but-irrelevant (every score below the floor).
// Low-scoring text is still included in the block; the flag only drives the
// no_context_found signal. A request that never dispatched retrieval never
// sets the flag.
func (a *Assembler) Assemble(results []events.RetrievalResult, dispatched bool) (string, bool) {
	if len(results) == 0 {
		return "", dispatched
	}

	var block strings.Builder
	allBelowFloor := true
	for i, res := range results {
		if res.Score >= RelevanceFloor {
			allBelowFloor = false
		}
		block.WriteString(fmt.Sprintf("%d. %s\n", i+1, res.Text))
	}

	if allBelowFloor {
		a.logger.Info("Assembler", "All retrieved passages below relevance floor", map[string]interface{}{
			"results": len(results),
			"floor":   RelevanceFloor,
		})
	}

	return block.String(), allBelowFloor
}
