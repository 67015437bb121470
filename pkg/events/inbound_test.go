package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeInbound(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload string
		want    InboundEvent
		wantErr bool
	}{
		{
			name:    "message received",
			topic:   TopicMessageReceived,
			payload: `{"request_id":"r1","session_id":"s1","workspace_id":"w1","user_id":"u1","content":"hello","ignore_retrieval":true}`,
			want: MessageReceived{
				RequestId:       "r1",
				SessionId:       "s1",
				WorkspaceId:     "w1",
				UserId:          "u1",
				Content:         "hello",
				IgnoreRetrieval: true,
			},
		},
		{
			name:    "cancel requested",
			topic:   TopicCancelRequested,
			payload: `{"request_id":"r1"}`,
			want:    CancelRequested{RequestId: "r1"},
		},
		{
			name:    "vector completion with results",
			topic:   TopicVectorQueryCompleted,
			payload: `{"request_id":"r1","results":[{"text":"passage","relevance_score":0.82}]}`,
			want: VectorQueryCompleted{
				RequestId: "r1",
				Results:   []RetrievalResult{{Text: "passage", Score: 0.82}},
			},
		},
		{
			name:    "graph failure",
			topic:   TopicGraphQueryFailed,
			payload: `{"request_id":"r1","error":"graph store unavailable"}`,
			want:    GraphQueryFailed{RequestId: "r1", Error: "graph store unavailable"},
		},
		{
			name:    "malformed payload on known topic is an error",
			topic:   TopicMessageReceived,
			payload: `{"request_id":`,
			wantErr: true,
		},
		{
			name:    "unknown topic is not an error",
			topic:   "chat.some_future_event",
			payload: `{"anything":"goes"}`,
			want:    UnrecognizedEvent{RawTopic: "chat.some_future_event", Payload: []byte(`{"anything":"goes"}`)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeInbound(tt.topic, []byte(tt.payload))
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUnrecognizedEventKeepsRawTopic(t *testing.T) {
	ev, err := DecodeInbound("metrics.heartbeat", []byte(`{}`))
	assert.NoError(t, err)

	unrec, ok := ev.(UnrecognizedEvent)
	assert.True(t, ok)
	assert.Equal(t, "metrics.heartbeat", unrec.Topic())
}
