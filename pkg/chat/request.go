// Package chat holds the shared types of the chat orchestration flow: the
// request identity, routing decisions, lifecycle states and stream events.
package chat

// RetrievalMode is the downstream search strategy a session uses.
type RetrievalMode string

const (
	ModeNone   RetrievalMode = "none"
	ModeVector RetrievalMode = "vector"
	ModeGraph  RetrievalMode = "graph"
)

// Request is one user chat message. Immutable after creation; identified
// uniquely by RequestId for the lifetime of one reply.
type Request struct {
	RequestId       string
	SessionId       string
	WorkspaceId     string
	UserId          string
	Content         string
	IgnoreRetrieval bool
}

// DecisionKind tags a routing decision.
type DecisionKind string

const (
	// DecisionDirect skips retrieval and goes straight to generation with
	// empty context.
	DecisionDirect DecisionKind = "direct"
	// DecisionDispatch publishes a retrieval request and awaits completion.
	DecisionDispatch DecisionKind = "dispatch"
)

// RoutingDecision is the Query Router's verdict for one request.
type RoutingDecision struct {
	Kind    DecisionKind
	Mode    RetrievalMode
	TopK    int // vector mode
	MaxHops int // graph mode
}
