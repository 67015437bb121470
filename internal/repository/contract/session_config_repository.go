package contract

import (
	"context"

	"rag-chat-orchestrator/internal/entity"
)

// SessionConfigRepository reads a session's retrieval configuration.
// FindBySessionId returns nil (no error) when the session has no row.
type SessionConfigRepository interface {
	FindBySessionId(ctx context.Context, sessionId string) (*entity.SessionRetrievalConfig, error)
}
