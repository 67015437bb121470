package events

import "encoding/json"

// OutboundEvent is the closed set of events the orchestrator publishes.
type OutboundEvent interface {
	Topic() string
	outbound()
}

type VectorQuery struct {
	RequestId   string `json:"request_id"`
	SessionId   string `json:"session_id"`
	WorkspaceId string `json:"workspace_id"`
	Query       string `json:"query"`
	TopK        int    `json:"top_k"`
}

type GraphQuery struct {
	RequestId   string `json:"request_id"`
	SessionId   string `json:"session_id"`
	WorkspaceId string `json:"workspace_id"`
	Query       string `json:"query"`
	MaxHops     int    `json:"max_hops"`
}

// ResponseChunk carries one generated token. Seq is 0-based per request so
// clients can detect reordering or duplication under at-least-once delivery.
type ResponseChunk struct {
	SessionId string `json:"session_id"`
	RequestId string `json:"request_id"`
	Seq       int    `json:"seq"`
	Chunk     string `json:"chunk"`
}

type ResponseComplete struct {
	SessionId    string `json:"session_id"`
	RequestId    string `json:"request_id"`
	FullResponse string `json:"full_response"`
}

type ResponseCancelled struct {
	SessionId string `json:"session_id"`
	RequestId string `json:"request_id"`
}

type NoContextFound struct {
	SessionId string `json:"session_id"`
	RequestId string `json:"request_id"`
	Query     string `json:"query"`
}

type ErrorEvent struct {
	SessionId string `json:"session_id"`
	RequestId string `json:"request_id"`
	Error     string `json:"error"`
}

func (VectorQuery) Topic() string       { return TopicVectorQuery }
func (GraphQuery) Topic() string        { return TopicGraphQuery }
func (ResponseChunk) Topic() string     { return TopicResponseChunk }
func (ResponseComplete) Topic() string  { return TopicResponseComplete }
func (ResponseCancelled) Topic() string { return TopicResponseCancelled }
func (NoContextFound) Topic() string    { return TopicNoContextFound }
func (ErrorEvent) Topic() string        { return TopicError }

func (VectorQuery) outbound()       {}
func (GraphQuery) outbound()        {}
func (ResponseChunk) outbound()     {}
func (ResponseComplete) outbound()  {}
func (ResponseCancelled) outbound() {}
func (NoContextFound) outbound()    {}
func (ErrorEvent) outbound()        {}

// Encode serializes an outbound event for the wire.
func Encode(ev OutboundEvent) ([]byte, error) {
	return json.Marshal(ev)
}
