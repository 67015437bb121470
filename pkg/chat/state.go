package chat

// State is a request's position in the reply lifecycle.
type State string

const (
	StateReceived          State = "RECEIVED"
	StateRouted            State = "ROUTED"
	StateAwaitingRetrieval State = "AWAITING_RETRIEVAL"
	StateGenerating        State = "GENERATING"
	StateStreaming         State = "STREAMING"
	StateCompleted         State = "COMPLETED"
	StateFailed            State = "FAILED"
	StateCancelled         State = "CANCELLED"
)

// transitions lists the legal successors of each state. RECEIVED may go
// straight to GENERATING when the routing decision is Direct.
var transitions = map[State][]State{
	StateReceived:          {StateRouted, StateGenerating, StateFailed},
	StateRouted:            {StateAwaitingRetrieval, StateGenerating, StateFailed},
	StateAwaitingRetrieval: {StateGenerating, StateFailed, StateCancelled},
	StateGenerating:        {StateStreaming, StateCompleted, StateFailed, StateCancelled},
	StateStreaming:         {StateCompleted, StateFailed, StateCancelled},
}

// CanTransition reports whether moving from s to next is legal.
func (s State) CanTransition(next State) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the state ends the lifecycle.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}
