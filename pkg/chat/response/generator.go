// Package response drives token-by-token generation against the LLM
// provider, emitting ordered stream events and observing cancellation at
// chunk boundaries.
package response

import (
	"context"
	"fmt"
	"strings"

	"rag-chat-orchestrator/internal/pkg/logger"
	"rag-chat-orchestrator/pkg/chat"
	"rag-chat-orchestrator/pkg/llm"
)

// Sink receives stream events in order. A sink error (typically a rejected
// publish) aborts generation and is returned to the caller.
type Sink func(event chat.StreamEvent) error

// CancelCheck reports whether the request's cancellation flag is set. It is
// polled before the first token and after every token; there is no
// mid-token preemption.
type CancelCheck func() bool

// Outcome reports how a generation ended.
type Outcome struct {
	Terminal chat.StreamEventKind // StreamComplete, StreamCancelled or StreamError
	FullText string               // set when Terminal is StreamComplete
}

const contextPreamble = "Use the following retrieved context to answer the user. " +
	"If the context does not cover the question, say so instead of inventing details.\n\n"

// Generator streams replies from the LLM provider.
type Generator struct {
	provider llm.LLMProvider
	logger   logger.ILogger
}

func NewGenerator(provider llm.LLMProvider, log logger.ILogger) *Generator {
	return &Generator{provider: provider, logger: log}
}

// Generate builds the augmented history, streams tokens and emits stream
// events. Exactly one terminal event is emitted unless the sink itself
// fails. The concatenation of all emitted chunks equals the Complete
// event's full text.
func (g *Generator) Generate(
	ctx context.Context,
	history []llm.Message,
	contextBlock string,
	cancelled CancelCheck,
	emit Sink,
) (*Outcome, error) {

	augmented := history
	if contextBlock != "" {
		augmented = make([]llm.Message, 0, len(history)+1)
		augmented = append(augmented, llm.Message{Role: "system", Content: contextPreamble + contextBlock})
		augmented = append(augmented, history...)
	}

	// A cancel set before generation starts must still be observed.
	if cancelled() {
		if err := emit(chat.CancelledEvent()); err != nil {
			return nil, err
		}
		return &Outcome{Terminal: chat.StreamCancelled}, nil
	}

	streamCtx, stop := context.WithCancel(ctx)
	defer stop()

	stream, err := g.provider.ChatStream(streamCtx, augmented)
	if err != nil {
		g.logger.Error("Generator", "Provider rejected stream request", map[string]interface{}{
			"error": err.Error(),
		})
		if emitErr := emit(chat.ErrorEvent(err.Error())); emitErr != nil {
			return nil, emitErr
		}
		return &Outcome{Terminal: chat.StreamError}, nil
	}

	var full strings.Builder
	seq := 0
	for token := range stream {
		if token.Err != nil {
			// Already-emitted chunks stay visible; no Complete follows.
			g.logger.Error("Generator", "Provider failed mid-stream", map[string]interface{}{
				"error":          token.Err.Error(),
				"chunks_emitted": seq,
			})
			if emitErr := emit(chat.ErrorEvent(token.Err.Error())); emitErr != nil {
				return nil, emitErr
			}
			return &Outcome{Terminal: chat.StreamError}, nil
		}

		if err := emit(chat.ChunkEvent(seq, token.Content)); err != nil {
			return nil, fmt.Errorf("emit chunk %d: %w", seq, err)
		}
		full.WriteString(token.Content)
		seq++

		if cancelled() {
			stop()
			if err := emit(chat.CancelledEvent()); err != nil {
				return nil, err
			}
			return &Outcome{Terminal: chat.StreamCancelled}, nil
		}
	}

	if err := emit(chat.CompleteEvent(full.String())); err != nil {
		return nil, err
	}
	return &Outcome{Terminal: chat.StreamComplete, FullText: full.String()}, nil
}
