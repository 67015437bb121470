package service

import (
	"context"
	"time"

	"rag-chat-orchestrator/internal/entity"
	"rag-chat-orchestrator/internal/repository/contract"
	"rag-chat-orchestrator/internal/repository/specification"
	"rag-chat-orchestrator/pkg/llm"

	"github.com/google/uuid"
)

// HistoryLoader reads and appends the append-only conversation log.
type HistoryLoader struct {
	turns contract.ConversationTurnRepository
	limit int
}

func NewHistoryLoader(turns contract.ConversationTurnRepository, limit int) *HistoryLoader {
	return &HistoryLoader{turns: turns, limit: limit}
}

// LoadConversationHistory loads the most recent turns for LLM context, in
// chronological order.
func (l *HistoryLoader) LoadConversationHistory(ctx context.Context, sessionId string) ([]llm.Message, error) {
	recent, err := l.turns.FindAll(ctx,
		specification.BySessionID{SessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Limit{Count: l.limit},
	)
	if err != nil {
		return nil, err
	}

	messages := make([]llm.Message, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		turn := recent[i]
		role := turn.Role
		if role == "model" {
			role = "assistant"
		}
		messages = append(messages, llm.Message{
			Role:    role,
			Content: turn.Content,
		})
	}

	return messages, nil
}

// AppendTurn appends one turn to the session log.
func (l *HistoryLoader) AppendTurn(ctx context.Context, sessionId, role, content string) error {
	return l.turns.Append(ctx, &entity.ConversationTurn{
		Id:        uuid.New(),
		SessionId: sessionId,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	})
}
