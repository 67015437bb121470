// Package router decides the retrieval mode for an incoming chat request
// and dispatches the retrieval-request event to the matching downstream
// queue.
package router

import (
	"context"
	"fmt"

	"rag-chat-orchestrator/internal/pkg/logger"
	"rag-chat-orchestrator/pkg/channel"
	"rag-chat-orchestrator/pkg/chat"
	"rag-chat-orchestrator/pkg/chat/registry"
	"rag-chat-orchestrator/pkg/events"
)

// Mode-specific parameter defaults, applied when the session config leaves
// them unset.
const (
	DefaultVectorTopK   = 8
	DefaultGraphMaxHops = 2
)

// SessionConfig is a session's resolved retrieval configuration.
type SessionConfig struct {
	Mode    chat.RetrievalMode
	TopK    int
	MaxHops int
}

// ConfigResolver returns the retrieval mode and parameters for a session.
type ConfigResolver interface {
	GetRetrievalMode(ctx context.Context, sessionId string) (*SessionConfig, error)
}

// Router routes requests between direct generation and retrieval dispatch.
type Router struct {
	resolver  ConfigResolver
	pending   registry.PendingRegistry
	publisher channel.Publisher
	logger    logger.ILogger
}

func NewRouter(resolver ConfigResolver, pending registry.PendingRegistry, publisher channel.Publisher, log logger.ILogger) *Router {
	return &Router{
		resolver:  resolver,
		pending:   pending,
		publisher: publisher,
		logger:    log,
	}
}

// Route resolves the retrieval mode for the request. A resolver failure
// fails the request immediately with a configuration error; the router
// never silently falls back.
func (r *Router) Route(ctx context.Context, req *chat.Request) (*chat.RoutingDecision, error) {
	if req.IgnoreRetrieval {
		return &chat.RoutingDecision{Kind: chat.DecisionDirect, Mode: chat.ModeNone}, nil
	}

	cfg, err := r.resolver.GetRetrievalMode(ctx, req.SessionId)
	if err != nil {
		return nil, fmt.Errorf("resolve retrieval config for session %s: %w", req.SessionId, err)
	}

	switch cfg.Mode {
	case chat.ModeNone:
		return &chat.RoutingDecision{Kind: chat.DecisionDirect, Mode: chat.ModeNone}, nil
	case chat.ModeVector:
		topK := cfg.TopK
		if topK <= 0 {
			topK = DefaultVectorTopK
		}
		return &chat.RoutingDecision{Kind: chat.DecisionDispatch, Mode: chat.ModeVector, TopK: topK}, nil
	case chat.ModeGraph:
		maxHops := cfg.MaxHops
		if maxHops <= 0 {
			maxHops = DefaultGraphMaxHops
		}
		return &chat.RoutingDecision{Kind: chat.DecisionDispatch, Mode: chat.ModeGraph, MaxHops: maxHops}, nil
	default:
		return nil, fmt.Errorf("unknown retrieval mode %q for session %s", cfg.Mode, req.SessionId)
	}
}

// Dispatch registers the pending query and publishes the retrieval request.
// The registry entry is inserted BEFORE publishing so a completion event
// can never arrive ahead of the entry it must correlate with. If the
// publish is rejected, the entry is taken back so a redelivered message
// can register it again.
func (r *Router) Dispatch(ctx context.Context, req *chat.Request, decision *chat.RoutingDecision) error {
	pq := &registry.PendingQuery{
		RequestId:   req.RequestId,
		SessionId:   req.SessionId,
		WorkspaceId: req.WorkspaceId,
		Content:     req.Content,
		Mode:        decision.Mode,
	}
	if err := r.pending.Put(ctx, pq); err != nil {
		return fmt.Errorf("register pending query: %w", err)
	}

	var ev events.OutboundEvent
	switch decision.Mode {
	case chat.ModeVector:
		ev = events.VectorQuery{
			RequestId:   req.RequestId,
			SessionId:   req.SessionId,
			WorkspaceId: req.WorkspaceId,
			Query:       req.Content,
			TopK:        decision.TopK,
		}
	case chat.ModeGraph:
		ev = events.GraphQuery{
			RequestId:   req.RequestId,
			SessionId:   req.SessionId,
			WorkspaceId: req.WorkspaceId,
			Query:       req.Content,
			MaxHops:     decision.MaxHops,
		}
	default:
		return fmt.Errorf("cannot dispatch retrieval mode %q", decision.Mode)
	}

	payload, err := events.Encode(ev)
	if err != nil {
		return fmt.Errorf("encode retrieval request: %w", err)
	}

	if err := r.publisher.Publish(ctx, ev.Topic(), payload); err != nil {
		if _, _, takeErr := r.pending.Take(ctx, req.RequestId); takeErr != nil {
			r.logger.Warn("Router", "Failed to roll back pending entry after publish failure", map[string]interface{}{
				"request_id": req.RequestId,
				"error":      takeErr.Error(),
			})
		}
		return fmt.Errorf("publish retrieval request: %w", err)
	}

	r.logger.Info("Router", "Retrieval request dispatched", map[string]interface{}{
		"request_id": req.RequestId,
		"mode":       string(decision.Mode),
	})
	return nil
}
