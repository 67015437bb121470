package events

import (
	"encoding/json"
	"fmt"
)

// InboundEvent is the closed set of events the orchestrator consumes.
// Unknown topics decode to UnrecognizedEvent so the dispatch loop can log
// and drop them without crashing.
type InboundEvent interface {
	Topic() string
	inbound()
}

type MessageReceived struct {
	RequestId       string `json:"request_id"`
	SessionId       string `json:"session_id"`
	WorkspaceId     string `json:"workspace_id"`
	UserId          string `json:"user_id"`
	Content         string `json:"content"`
	IgnoreRetrieval bool   `json:"ignore_retrieval"`
}

type CancelRequested struct {
	RequestId string `json:"request_id"`
	SessionId string `json:"session_id,omitempty"`
}

type VectorQueryCompleted struct {
	RequestId string            `json:"request_id"`
	Results   []RetrievalResult `json:"results"`
}

type GraphQueryCompleted struct {
	RequestId string            `json:"request_id"`
	Results   []RetrievalResult `json:"results"`
}

type VectorQueryFailed struct {
	RequestId string `json:"request_id"`
	Error     string `json:"error"`
}

type GraphQueryFailed struct {
	RequestId string `json:"request_id"`
	Error     string `json:"error"`
}

// UnrecognizedEvent carries a payload from a topic this worker does not
// dispatch on. Kept for forward compatibility with newer producers.
type UnrecognizedEvent struct {
	RawTopic string
	Payload  []byte
}

func (MessageReceived) Topic() string      { return TopicMessageReceived }
func (CancelRequested) Topic() string      { return TopicCancelRequested }
func (VectorQueryCompleted) Topic() string { return TopicVectorQueryCompleted }
func (GraphQueryCompleted) Topic() string  { return TopicGraphQueryCompleted }
func (VectorQueryFailed) Topic() string    { return TopicVectorQueryFailed }
func (GraphQueryFailed) Topic() string     { return TopicGraphQueryFailed }
func (e UnrecognizedEvent) Topic() string  { return e.RawTopic }

func (MessageReceived) inbound()      {}
func (CancelRequested) inbound()      {}
func (VectorQueryCompleted) inbound() {}
func (GraphQueryCompleted) inbound()  {}
func (VectorQueryFailed) inbound()    {}
func (GraphQueryFailed) inbound()     {}
func (UnrecognizedEvent) inbound()    {}

// DecodeInbound maps a topic + JSON payload to its typed event. A decode
// error on a known topic is returned to the caller (the delivery is bad,
// not the topic); an unknown topic is not an error.
func DecodeInbound(topic string, payload []byte) (InboundEvent, error) {
	var ev InboundEvent
	switch topic {
	case TopicMessageReceived:
		var e MessageReceived
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", topic, err)
		}
		ev = e
	case TopicCancelRequested:
		var e CancelRequested
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", topic, err)
		}
		ev = e
	case TopicVectorQueryCompleted:
		var e VectorQueryCompleted
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", topic, err)
		}
		ev = e
	case TopicGraphQueryCompleted:
		var e GraphQueryCompleted
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", topic, err)
		}
		ev = e
	case TopicVectorQueryFailed:
		var e VectorQueryFailed
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", topic, err)
		}
		ev = e
	case TopicGraphQueryFailed:
		var e GraphQueryFailed
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, fmt.Errorf("decode %s: %w", topic, err)
		}
		ev = e
	default:
		ev = UnrecognizedEvent{RawTopic: topic, Payload: payload}
	}
	return ev, nil
}
