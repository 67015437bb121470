package events

// Topic names are the routing keys used on the broker. Inbound topics are
// consumed by the orchestrator worker, outbound topics are produced by it.
const (
	TopicMessageReceived      = "chat.message_received"
	TopicCancelRequested      = "chat.cancel_requested"
	TopicVectorQueryCompleted = "chat.vector_query_completed"
	TopicGraphQueryCompleted  = "chat.graph_query_completed"
	TopicVectorQueryFailed    = "chat.vector_query_failed"
	TopicGraphQueryFailed     = "chat.graph_query_failed"

	TopicVectorQuery       = "chat.vector_query"
	TopicGraphQuery        = "chat.graph_query"
	TopicResponseChunk     = "chat.response_chunk"
	TopicResponseComplete  = "chat.response_complete"
	TopicResponseCancelled = "chat.response_cancelled"
	TopicNoContextFound    = "chat.no_context_found"
	TopicError             = "chat.error"
)

// RetrievalResult is one retrieved passage, correlated back via request_id.
// Scores are in [0,1]; higher means more relevant.
type RetrievalResult struct {
	Text     string                 `json:"text"`
	Score    float64                `json:"relevance_score"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
