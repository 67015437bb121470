package router

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"rag-chat-orchestrator/internal/pkg/logger"
	"rag-chat-orchestrator/pkg/chat"
	"rag-chat-orchestrator/pkg/chat/registry"
	"rag-chat-orchestrator/pkg/events"

	"github.com/stretchr/testify/assert"
)

type stubResolver struct {
	cfg *SessionConfig
	err error
}

func (s *stubResolver) GetRetrievalMode(ctx context.Context, sessionId string) (*SessionConfig, error) {
	return s.cfg, s.err
}

type recordingPublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads [][]byte
	failNext error
}

func (p *recordingPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failNext != nil {
		err := p.failNext
		p.failNext = nil
		return err
	}
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *recordingPublisher) Close() {}

func newTestRouter(resolver ConfigResolver) (*Router, *registry.MemoryPendingRegistry, *recordingPublisher) {
	pending := registry.NewMemoryPendingRegistry()
	pub := &recordingPublisher{}
	return NewRouter(resolver, pending, pub, logger.NewNopLogger()), pending, pub
}

func TestRouteIgnoreRetrievalIsDirect(t *testing.T) {
	// Even with vector configured, the per-message override wins.
	r, _, _ := newTestRouter(&stubResolver{cfg: &SessionConfig{Mode: chat.ModeVector}})

	decision, err := r.Route(context.Background(), &chat.Request{RequestId: "r1", SessionId: "s1", IgnoreRetrieval: true})
	assert.NoError(t, err)
	assert.Equal(t, chat.DecisionDirect, decision.Kind)
}

func TestRouteModes(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *SessionConfig
		wantKind    chat.DecisionKind
		wantTopK    int
		wantMaxHops int
	}{
		{
			name:     "mode none is direct",
			cfg:      &SessionConfig{Mode: chat.ModeNone},
			wantKind: chat.DecisionDirect,
		},
		{
			name:     "vector applies default top-k",
			cfg:      &SessionConfig{Mode: chat.ModeVector},
			wantKind: chat.DecisionDispatch,
			wantTopK: DefaultVectorTopK,
		},
		{
			name:     "vector keeps configured top-k",
			cfg:      &SessionConfig{Mode: chat.ModeVector, TopK: 3},
			wantKind: chat.DecisionDispatch,
			wantTopK: 3,
		},
		{
			name:        "graph applies default max hops",
			cfg:         &SessionConfig{Mode: chat.ModeGraph},
			wantKind:    chat.DecisionDispatch,
			wantMaxHops: DefaultGraphMaxHops,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTestRouter(&stubResolver{cfg: tt.cfg})
			decision, err := r.Route(context.Background(), &chat.Request{RequestId: "r1", SessionId: "s1"})
			assert.NoError(t, err)
			assert.Equal(t, tt.wantKind, decision.Kind)
			assert.Equal(t, tt.wantTopK, decision.TopK)
			assert.Equal(t, tt.wantMaxHops, decision.MaxHops)
		})
	}
}

func TestRouteResolverFailureIsNotSilent(t *testing.T) {
	r, _, _ := newTestRouter(&stubResolver{err: errors.New("config store down")})

	decision, err := r.Route(context.Background(), &chat.Request{RequestId: "r1", SessionId: "s1"})
	assert.Error(t, err)
	assert.Nil(t, decision)
}

func TestDispatchPublishesVectorQuery(t *testing.T) {
	r, pending, pub := newTestRouter(&stubResolver{})
	req := &chat.Request{RequestId: "r1", SessionId: "s1", WorkspaceId: "w1", Content: "what is raft?"}

	err := r.Dispatch(context.Background(), req, &chat.RoutingDecision{Kind: chat.DecisionDispatch, Mode: chat.ModeVector, TopK: 8})
	assert.NoError(t, err)

	assert.Equal(t, []string{events.TopicVectorQuery}, pub.topics)
	var q events.VectorQuery
	assert.NoError(t, json.Unmarshal(pub.payloads[0], &q))
	assert.Equal(t, "r1", q.RequestId)
	assert.Equal(t, "what is raft?", q.Query)
	assert.Equal(t, 8, q.TopK)

	// The pending entry exists and carries the request identity.
	pq, found, err := pending.Take(context.Background(), "r1")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "w1", pq.WorkspaceId)
	assert.Equal(t, chat.ModeVector, pq.Mode)
}

func TestDispatchDuplicateRequestId(t *testing.T) {
	r, _, _ := newTestRouter(&stubResolver{})
	req := &chat.Request{RequestId: "r1", SessionId: "s1", Content: "q"}
	decision := &chat.RoutingDecision{Kind: chat.DecisionDispatch, Mode: chat.ModeVector, TopK: 8}

	assert.NoError(t, r.Dispatch(context.Background(), req, decision))
	assert.ErrorIs(t, r.Dispatch(context.Background(), req, decision), registry.ErrDuplicatePending)
}

func TestDispatchRollsBackPendingOnPublishFailure(t *testing.T) {
	r, pending, pub := newTestRouter(&stubResolver{})
	pub.failNext = errors.New("broker unavailable")
	req := &chat.Request{RequestId: "r1", SessionId: "s1", Content: "q"}
	decision := &chat.RoutingDecision{Kind: chat.DecisionDispatch, Mode: chat.ModeGraph, MaxHops: 2}

	err := r.Dispatch(context.Background(), req, decision)
	assert.Error(t, err)

	// The entry was rolled back so a redelivered message can register again.
	_, found, _ := pending.Take(context.Background(), "r1")
	assert.False(t, found)
	assert.NoError(t, r.Dispatch(context.Background(), req, decision))
}
