package service

import (
	"context"
	"fmt"
	"time"

	"rag-chat-orchestrator/internal/pkg/logger"
	"rag-chat-orchestrator/internal/repository/contract"
	"rag-chat-orchestrator/pkg/chat"
	"rag-chat-orchestrator/pkg/chat/router"

	"github.com/patrickmn/go-cache"
)

// SessionConfigResolver resolves a session's retrieval mode and parameters,
// with a read-through cache in front of the repository. Implements
// router.ConfigResolver.
type SessionConfigResolver struct {
	repo   contract.SessionConfigRepository
	cache  *cache.Cache
	logger logger.ILogger
}

var _ router.ConfigResolver = &SessionConfigResolver{}

func NewSessionConfigResolver(repo contract.SessionConfigRepository, log logger.ILogger) *SessionConfigResolver {
	// Configs rarely change mid-conversation; cache for an hour, purge
	// expired entries every 10 minutes
	return &SessionConfigResolver{
		repo:   repo,
		cache:  cache.New(1*time.Hour, 10*time.Minute),
		logger: log,
	}
}

// GetRetrievalMode returns the session's retrieval config. A repository
// failure is a configuration error and fails the request; a missing row
// falls back to mode "none", and the fallback is recorded in the log.
func (r *SessionConfigResolver) GetRetrievalMode(ctx context.Context, sessionId string) (*router.SessionConfig, error) {
	if x, found := r.cache.Get(sessionId); found {
		return x.(*router.SessionConfig), nil
	}

	row, err := r.repo.FindBySessionId(ctx, sessionId)
	if err != nil {
		return nil, fmt.Errorf("load session config: %w", err)
	}

	var cfg *router.SessionConfig
	if row == nil {
		r.logger.Warn("ConfigResolver", "Session has no retrieval config, falling back to mode none", map[string]interface{}{
			"session_id": sessionId,
		})
		cfg = &router.SessionConfig{Mode: chat.ModeNone}
	} else {
		cfg = &router.SessionConfig{
			Mode:    chat.RetrievalMode(row.RetrievalMode),
			TopK:    row.TopK,
			MaxHops: row.MaxHops,
		}
	}

	r.cache.Set(sessionId, cfg, cache.DefaultExpiration)
	return cfg, nil
}
