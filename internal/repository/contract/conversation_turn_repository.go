package contract

import (
	"context"

	"rag-chat-orchestrator/internal/entity"
	"rag-chat-orchestrator/internal/repository/specification"
)

// ConversationTurnRepository is the append-only ordered log of prior turns.
type ConversationTurnRepository interface {
	Append(ctx context.Context, turn *entity.ConversationTurn) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationTurn, error)
}
