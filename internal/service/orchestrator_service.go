package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"rag-chat-orchestrator/internal/pkg/logger"
	"rag-chat-orchestrator/pkg/channel"
	"rag-chat-orchestrator/pkg/chat"
	"rag-chat-orchestrator/pkg/chat/grounding"
	"rag-chat-orchestrator/pkg/chat/registry"
	"rag-chat-orchestrator/pkg/chat/response"
	"rag-chat-orchestrator/pkg/chat/router"
	"rag-chat-orchestrator/pkg/events"
)

// Request failure classes. Configuration and retrieval failures terminate
// the request without retry; publish failures Nak the inbound delivery.
var (
	ErrConfiguration = errors.New("configuration error")
	ErrRetrieval     = errors.New("retrieval failed")
	ErrTimeout       = errors.New("retrieval timed out")
)

// IOrchestratorService is the top-level event-dispatch loop wiring routing,
// correlation, context assembly and streaming generation into the request
// lifecycle.
type IOrchestratorService interface {
	Start() error
	HandleInbound(ctx context.Context, topic string, payload []byte) error
	Shutdown()
}

type orchestratorService struct {
	publisher   channel.Publisher
	subscriber  channel.Subscriber
	queryRouter *router.Router
	assembler   *grounding.Assembler
	generator   *response.Generator
	pending     registry.PendingRegistry
	cancels     registry.CancellationRegistry
	history     *HistoryLoader
	logger      logger.ILogger

	pendingTimeout time.Duration
	reapInterval   time.Duration

	states sync.Map      // requestId -> chat.State
	sem    chan struct{} // bounds concurrent generations
	wg     sync.WaitGroup
	stopCh chan struct{}
}

func NewOrchestratorService(
	publisher channel.Publisher,
	subscriber channel.Subscriber,
	queryRouter *router.Router,
	assembler *grounding.Assembler,
	generator *response.Generator,
	pending registry.PendingRegistry,
	cancels registry.CancellationRegistry,
	history *HistoryLoader,
	log logger.ILogger,
	pendingTimeout time.Duration,
	reapInterval time.Duration,
	maxInFlight int,
) IOrchestratorService {
	if maxInFlight <= 0 {
		maxInFlight = 1
	}
	return &orchestratorService{
		publisher:      publisher,
		subscriber:     subscriber,
		queryRouter:    queryRouter,
		assembler:      assembler,
		generator:      generator,
		pending:        pending,
		cancels:        cancels,
		history:        history,
		logger:         log,
		pendingTimeout: pendingTimeout,
		reapInterval:   reapInterval,
		sem:            make(chan struct{}, maxInFlight),
		stopCh:         make(chan struct{}),
	}
}

// Start registers the durable subscriptions and the pending-query reaper.
func (s *orchestratorService) Start() error {
	subscriptions := []struct {
		topic   string
		durable string
	}{
		{events.TopicMessageReceived, "chat-orchestrator-messages"},
		{events.TopicCancelRequested, "chat-orchestrator-cancels"},
		{events.TopicVectorQueryCompleted, "chat-orchestrator-vector-completed"},
		{events.TopicGraphQueryCompleted, "chat-orchestrator-graph-completed"},
		{events.TopicVectorQueryFailed, "chat-orchestrator-vector-failed"},
		{events.TopicGraphQueryFailed, "chat-orchestrator-graph-failed"},
	}

	for _, sub := range subscriptions {
		if err := s.subscriber.Subscribe(sub.topic, sub.durable, s.HandleInbound); err != nil {
			return fmt.Errorf("subscribe %s: %w", sub.topic, err)
		}
	}

	s.wg.Add(1)
	go s.reapLoop()

	return nil
}

// Shutdown stops the reaper and waits for in-flight generations to drain.
func (s *orchestratorService) Shutdown() {
	close(s.stopCh)
	s.wg.Wait()
}

// HandleInbound is the dispatch entry for every consumed delivery. Unknown
// event types and undecodable payloads are logged and dropped so the loop
// never crashes; only processing failures that warrant redelivery return an
// error.
func (s *orchestratorService) HandleInbound(ctx context.Context, topic string, payload []byte) error {
	ev, err := events.DecodeInbound(topic, payload)
	if err != nil {
		// Malformed payload on a known topic: redelivery cannot fix it.
		s.logger.Error("Orchestrator", "Dropping undecodable event", map[string]interface{}{
			"topic": topic,
			"error": err.Error(),
		})
		return nil
	}

	switch e := ev.(type) {
	case events.MessageReceived:
		return s.handleMessageReceived(ctx, e)
	case events.CancelRequested:
		return s.handleCancelRequested(ctx, e)
	case events.VectorQueryCompleted:
		return s.handleRetrievalCompleted(ctx, e.RequestId, e.Results)
	case events.GraphQueryCompleted:
		return s.handleRetrievalCompleted(ctx, e.RequestId, e.Results)
	case events.VectorQueryFailed:
		return s.handleRetrievalFailed(ctx, e.RequestId, e.Error)
	case events.GraphQueryFailed:
		return s.handleRetrievalFailed(ctx, e.RequestId, e.Error)
	case events.UnrecognizedEvent:
		s.logger.Warn("Orchestrator", "Dropping unrecognized event", map[string]interface{}{
			"topic": e.RawTopic,
		})
		return nil
	default:
		s.logger.Warn("Orchestrator", "Dropping unhandled event type", map[string]interface{}{
			"topic": topic,
		})
		return nil
	}
}

func (s *orchestratorService) handleMessageReceived(ctx context.Context, ev events.MessageReceived) error {
	req := &chat.Request{
		RequestId:       ev.RequestId,
		SessionId:       ev.SessionId,
		WorkspaceId:     ev.WorkspaceId,
		UserId:          ev.UserId,
		Content:         ev.Content,
		IgnoreRetrieval: ev.IgnoreRetrieval,
	}
	s.states.Store(req.RequestId, chat.StateReceived)

	if err := s.history.AppendTurn(ctx, req.SessionId, "user", req.Content); err != nil {
		// Generation can proceed without the persisted turn.
		s.logger.Warn("Orchestrator", "Failed to persist user turn", map[string]interface{}{
			"request_id": req.RequestId,
			"error":      err.Error(),
		})
	}

	decision, err := s.queryRouter.Route(ctx, req)
	if err != nil {
		return s.failRequest(ctx, req.SessionId, req.RequestId, fmt.Errorf("%w: %v", ErrConfiguration, err))
	}

	if decision.Kind == chat.DecisionDirect {
		s.advance(req.RequestId, chat.StateGenerating)
		s.spawnGeneration(req, "")
		return nil
	}

	s.advance(req.RequestId, chat.StateRouted)
	if err := s.queryRouter.Dispatch(ctx, req, decision); err != nil {
		if errors.Is(err, registry.ErrDuplicatePending) {
			// Broker redelivery of a message we already dispatched.
			s.logger.Warn("Orchestrator", "Duplicate dispatch suppressed", map[string]interface{}{
				"request_id": req.RequestId,
			})
			return nil
		}
		return err
	}
	s.advance(req.RequestId, chat.StateAwaitingRetrieval)

	return nil
}

func (s *orchestratorService) handleCancelRequested(ctx context.Context, ev events.CancelRequested) error {
	if err := s.cancels.Cancel(ctx, ev.RequestId); err != nil {
		return fmt.Errorf("set cancellation flag for %s: %w", ev.RequestId, err)
	}
	s.logger.Info("Orchestrator", "Cancellation requested", map[string]interface{}{
		"request_id": ev.RequestId,
	})
	return nil
}

func (s *orchestratorService) handleRetrievalCompleted(ctx context.Context, requestId string, results []events.RetrievalResult) error {
	pq, found, err := s.pending.Take(ctx, requestId)
	if err != nil {
		return fmt.Errorf("take pending query %s: %w", requestId, err)
	}
	if !found {
		// Correlation miss: already resolved, timed out or never ours.
		s.logger.Warn("Orchestrator", "Completion for unknown request discarded", map[string]interface{}{
			"request_id": requestId,
		})
		return nil
	}

	req := requestFromPending(pq)
	contextBlock, noContext := s.assembler.Assemble(results, true)

	if noContext {
		payload, _ := events.Encode(events.NoContextFound{
			SessionId: pq.SessionId,
			RequestId: pq.RequestId,
			Query:     pq.Content,
		})
		if err := s.publisher.Publish(ctx, events.TopicNoContextFound, payload); err != nil {
			// Restore the entry so the redelivered completion can correlate.
			if putErr := s.pending.Put(ctx, pq); putErr != nil {
				s.logger.Error("Orchestrator", "Failed to restore pending entry", map[string]interface{}{
					"request_id": requestId,
					"error":      putErr.Error(),
				})
			}
			return fmt.Errorf("publish no_context_found: %w", err)
		}
	}

	s.advance(req.RequestId, chat.StateGenerating)
	s.spawnGeneration(req, contextBlock)
	return nil
}

func (s *orchestratorService) handleRetrievalFailed(ctx context.Context, requestId string, message string) error {
	pq, found, err := s.pending.Take(ctx, requestId)
	if err != nil {
		return fmt.Errorf("take pending query %s: %w", requestId, err)
	}
	if !found {
		s.logger.Warn("Orchestrator", "Failure for unknown request discarded", map[string]interface{}{
			"request_id": requestId,
		})
		return nil
	}

	if err := s.failRequest(ctx, pq.SessionId, pq.RequestId, fmt.Errorf("%w: %s", ErrRetrieval, message)); err != nil {
		if putErr := s.pending.Put(ctx, pq); putErr != nil {
			s.logger.Error("Orchestrator", "Failed to restore pending entry", map[string]interface{}{
				"request_id": requestId,
				"error":      putErr.Error(),
			})
		}
		return err
	}
	return nil
}

// failRequest publishes the terminal chat.error event and settles local
// state. A rejected publish propagates so the inbound delivery is Nak'd.
func (s *orchestratorService) failRequest(ctx context.Context, sessionId, requestId string, cause error) error {
	payload, _ := events.Encode(events.ErrorEvent{
		SessionId: sessionId,
		RequestId: requestId,
		Error:     cause.Error(),
	})
	if err := s.publisher.Publish(ctx, events.TopicError, payload); err != nil {
		return fmt.Errorf("publish chat.error: %w", err)
	}

	s.logger.Error("Orchestrator", "Request failed", map[string]interface{}{
		"request_id": requestId,
		"error":      cause.Error(),
	})
	s.settle(ctx, requestId, chat.StateFailed)
	return nil
}

// spawnGeneration runs the generation loop as an independent task so a slow
// generation never blocks dispatch of unrelated events.
func (s *orchestratorService) spawnGeneration(req *chat.Request, contextBlock string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.sem <- struct{}{}
		defer func() { <-s.sem }()

		ctx := context.Background()

		hist, err := s.history.LoadConversationHistory(ctx, req.SessionId)
		if err != nil {
			s.logger.Warn("Orchestrator", "Failed to load history", map[string]interface{}{
				"request_id": req.RequestId,
				"error":      err.Error(),
			})
			hist = nil
		}

		cancelled := func() bool { return s.cancels.IsCancelled(ctx, req.RequestId) }
		sink := func(ev chat.StreamEvent) error { return s.publishStreamEvent(ctx, req, ev) }

		outcome, err := s.generator.Generate(ctx, hist, contextBlock, cancelled, sink)
		if err != nil {
			// The sink rejected a publish mid-stream. The inbound message was
			// already acknowledged, so settle with a best-effort error event.
			s.logger.Error("Orchestrator", "Stream publish failed, abandoning generation", map[string]interface{}{
				"request_id": req.RequestId,
				"error":      err.Error(),
			})
			_ = s.publishStreamEvent(ctx, req, chat.ErrorEvent("response stream interrupted"))
			s.settle(ctx, req.RequestId, chat.StateFailed)
			return
		}

		switch outcome.Terminal {
		case chat.StreamComplete:
			if err := s.history.AppendTurn(ctx, req.SessionId, "assistant", outcome.FullText); err != nil {
				s.logger.Warn("Orchestrator", "Failed to persist assistant turn", map[string]interface{}{
					"request_id": req.RequestId,
					"error":      err.Error(),
				})
			}
			s.settle(ctx, req.RequestId, chat.StateCompleted)
		case chat.StreamCancelled:
			s.settle(ctx, req.RequestId, chat.StateCancelled)
		default:
			s.settle(ctx, req.RequestId, chat.StateFailed)
		}
	}()
}

// publishStreamEvent maps a stream event to its outbound wire event.
func (s *orchestratorService) publishStreamEvent(ctx context.Context, req *chat.Request, ev chat.StreamEvent) error {
	var out events.OutboundEvent
	switch ev.Kind {
	case chat.StreamChunk:
		if ev.Seq == 0 {
			s.advance(req.RequestId, chat.StateStreaming)
		}
		out = events.ResponseChunk{
			SessionId: req.SessionId,
			RequestId: req.RequestId,
			Seq:       ev.Seq,
			Chunk:     ev.Chunk,
		}
	case chat.StreamNoContext:
		out = events.NoContextFound{
			SessionId: req.SessionId,
			RequestId: req.RequestId,
			Query:     req.Content,
		}
	case chat.StreamComplete:
		out = events.ResponseComplete{
			SessionId:    req.SessionId,
			RequestId:    req.RequestId,
			FullResponse: ev.FullText,
		}
	case chat.StreamCancelled:
		out = events.ResponseCancelled{
			SessionId: req.SessionId,
			RequestId: req.RequestId,
		}
	case chat.StreamError:
		out = events.ErrorEvent{
			SessionId: req.SessionId,
			RequestId: req.RequestId,
			Error:     ev.Err,
		}
	default:
		return fmt.Errorf("unknown stream event kind %q", ev.Kind)
	}

	payload, err := events.Encode(out)
	if err != nil {
		return fmt.Errorf("encode %s: %w", out.Topic(), err)
	}
	return s.publisher.Publish(ctx, out.Topic(), payload)
}

// reapLoop periodically fails pending queries whose retrieval never
// completed within the configured bound.
func (s *orchestratorService) reapLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.reapInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			ctx := context.Background()
			expired, err := s.pending.Reap(ctx, s.pendingTimeout)
			if err != nil {
				s.logger.Error("Orchestrator", "Pending reap failed", map[string]interface{}{
					"error": err.Error(),
				})
				continue
			}
			for _, pq := range expired {
				if err := s.failRequest(ctx, pq.SessionId, pq.RequestId, ErrTimeout); err != nil {
					s.logger.Error("Orchestrator", "Failed to publish timeout error", map[string]interface{}{
						"request_id": pq.RequestId,
						"error":      err.Error(),
					})
				}
			}
		}
	}
}

// settle moves a request to its terminal state and clears its cancellation
// flag. Cancellation after this point is a no-op.
func (s *orchestratorService) settle(ctx context.Context, requestId string, terminal chat.State) {
	s.advance(requestId, terminal)
	if err := s.cancels.Clear(ctx, requestId); err != nil {
		s.logger.Warn("Orchestrator", "Failed to clear cancellation flag", map[string]interface{}{
			"request_id": requestId,
			"error":      err.Error(),
		})
	}
	s.states.Delete(requestId)
}

// advance validates and applies a lifecycle transition. Invalid transitions
// are logged and dropped; the caller proceeds with the stored state.
func (s *orchestratorService) advance(requestId string, next chat.State) {
	current, ok := s.states.Load(requestId)
	if !ok {
		s.states.Store(requestId, next)
		return
	}
	state := current.(chat.State)
	if !state.CanTransition(next) {
		s.logger.Warn("Orchestrator", "Invalid lifecycle transition dropped", map[string]interface{}{
			"request_id": requestId,
			"from":       string(state),
			"to":         string(next),
		})
		return
	}
	s.states.Store(requestId, next)
}

func requestFromPending(pq *registry.PendingQuery) *chat.Request {
	return &chat.Request{
		RequestId:   pq.RequestId,
		SessionId:   pq.SessionId,
		WorkspaceId: pq.WorkspaceId,
		Content:     pq.Content,
	}
}
