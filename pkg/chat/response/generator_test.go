package response

import (
	"context"
	"errors"
	"strings"
	"testing"

	"rag-chat-orchestrator/internal/pkg/logger"
	"rag-chat-orchestrator/pkg/chat"
	"rag-chat-orchestrator/pkg/llm"

	"github.com/stretchr/testify/assert"
)

// scriptedProvider replays a fixed token script, optionally ending with an
// error instead of a clean close.
type scriptedProvider struct {
	tokens    []string
	streamErr error
	rejectErr error

	gotHistory []llm.Message
}

func (p *scriptedProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return strings.Join(p.tokens, ""), nil
}

func (p *scriptedProvider) ChatStream(ctx context.Context, history []llm.Message, options ...llm.Option) (<-chan llm.StreamChunk, error) {
	if p.rejectErr != nil {
		return nil, p.rejectErr
	}
	p.gotHistory = history

	out := make(chan llm.StreamChunk)
	go func() {
		defer close(out)
		for _, tok := range p.tokens {
			select {
			case out <- llm.StreamChunk{Content: tok}:
			case <-ctx.Done():
				return
			}
		}
		if p.streamErr != nil {
			select {
			case out <- llm.StreamChunk{Err: p.streamErr}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

func collectSink(events *[]chat.StreamEvent) Sink {
	return func(ev chat.StreamEvent) error {
		*events = append(*events, ev)
		return nil
	}
}

func never() bool { return false }

func TestGenerateChunksConcatenateToFullText(t *testing.T) {
	provider := &scriptedProvider{tokens: []string{"Hel", "lo ", "world"}}
	g := NewGenerator(provider, logger.NewNopLogger())

	var got []chat.StreamEvent
	outcome, err := g.Generate(context.Background(), nil, "", never, collectSink(&got))
	assert.NoError(t, err)
	assert.Equal(t, chat.StreamComplete, outcome.Terminal)
	assert.Equal(t, "Hello world", outcome.FullText)

	// Ordered chunks with contiguous sequence numbers, then one terminal.
	assert.Len(t, got, 4)
	var rebuilt strings.Builder
	for i := 0; i < 3; i++ {
		assert.Equal(t, chat.StreamChunk, got[i].Kind)
		assert.Equal(t, i, got[i].Seq)
		rebuilt.WriteString(got[i].Chunk)
	}
	assert.Equal(t, chat.StreamComplete, got[3].Kind)
	assert.Equal(t, rebuilt.String(), got[3].FullText)
}

func TestGenerateInjectsContextBlockAsSystemTurn(t *testing.T) {
	provider := &scriptedProvider{tokens: []string{"ok"}}
	g := NewGenerator(provider, logger.NewNopLogger())

	history := []llm.Message{{Role: "user", Content: "what is raft?"}}
	var got []chat.StreamEvent
	_, err := g.Generate(context.Background(), history, "1. raft elects a leader\n", never, collectSink(&got))
	assert.NoError(t, err)

	assert.Len(t, provider.gotHistory, 2)
	assert.Equal(t, "system", provider.gotHistory[0].Role)
	assert.Contains(t, provider.gotHistory[0].Content, "1. raft elects a leader")
	assert.Equal(t, "user", provider.gotHistory[1].Role)
}

func TestGenerateCancelBeforeFirstTokenEmitsNoChunks(t *testing.T) {
	provider := &scriptedProvider{tokens: []string{"never", "sent"}}
	g := NewGenerator(provider, logger.NewNopLogger())

	var got []chat.StreamEvent
	outcome, err := g.Generate(context.Background(), nil, "", func() bool { return true }, collectSink(&got))
	assert.NoError(t, err)
	assert.Equal(t, chat.StreamCancelled, outcome.Terminal)

	assert.Len(t, got, 1)
	assert.Equal(t, chat.StreamCancelled, got[0].Kind)
}

func TestGenerateCancelMidStream(t *testing.T) {
	provider := &scriptedProvider{tokens: []string{"a", "b", "c", "d"}}
	g := NewGenerator(provider, logger.NewNopLogger())

	// Flag flips after the second chunk has been emitted.
	chunks := 0
	cancelled := func() bool { return chunks >= 2 }
	var got []chat.StreamEvent
	sink := func(ev chat.StreamEvent) error {
		if ev.Kind == chat.StreamChunk {
			chunks++
		}
		got = append(got, ev)
		return nil
	}

	outcome, err := g.Generate(context.Background(), nil, "", cancelled, sink)
	assert.NoError(t, err)
	assert.Equal(t, chat.StreamCancelled, outcome.Terminal)

	// Two chunks then the cancelled terminal; no Complete follows.
	assert.Len(t, got, 3)
	assert.Equal(t, chat.StreamChunk, got[0].Kind)
	assert.Equal(t, chat.StreamChunk, got[1].Kind)
	assert.Equal(t, chat.StreamCancelled, got[2].Kind)
}

func TestGenerateProviderMidStreamError(t *testing.T) {
	provider := &scriptedProvider{tokens: []string{"par", "tial"}, streamErr: errors.New("model crashed")}
	g := NewGenerator(provider, logger.NewNopLogger())

	var got []chat.StreamEvent
	outcome, err := g.Generate(context.Background(), nil, "", never, collectSink(&got))
	assert.NoError(t, err)
	assert.Equal(t, chat.StreamError, outcome.Terminal)

	// Emitted chunks stay visible; the terminal is Error, never Complete.
	assert.Len(t, got, 3)
	assert.Equal(t, chat.StreamError, got[2].Kind)
	assert.Equal(t, "model crashed", got[2].Err)
}

func TestGenerateProviderRejection(t *testing.T) {
	provider := &scriptedProvider{rejectErr: errors.New("connection refused")}
	g := NewGenerator(provider, logger.NewNopLogger())

	var got []chat.StreamEvent
	outcome, err := g.Generate(context.Background(), nil, "", never, collectSink(&got))
	assert.NoError(t, err)
	assert.Equal(t, chat.StreamError, outcome.Terminal)
	assert.Len(t, got, 1)
	assert.Equal(t, chat.StreamError, got[0].Kind)
}

func TestGenerateSinkFailurePropagates(t *testing.T) {
	provider := &scriptedProvider{tokens: []string{"a", "b"}}
	g := NewGenerator(provider, logger.NewNopLogger())

	sinkErr := errors.New("publish rejected")
	sink := func(ev chat.StreamEvent) error { return sinkErr }

	outcome, err := g.Generate(context.Background(), nil, "", never, sink)
	assert.ErrorIs(t, err, sinkErr)
	assert.Nil(t, outcome)
}
