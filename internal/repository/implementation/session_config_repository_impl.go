package implementation

import (
	"context"
	"errors"

	"rag-chat-orchestrator/internal/entity"
	"rag-chat-orchestrator/internal/repository/contract"

	"gorm.io/gorm"
)

type SessionConfigRepositoryImpl struct {
	db *gorm.DB
}

func NewSessionConfigRepository(db *gorm.DB) contract.SessionConfigRepository {
	return &SessionConfigRepositoryImpl{db: db}
}

func (r *SessionConfigRepositoryImpl) FindBySessionId(ctx context.Context, sessionId string) (*entity.SessionRetrievalConfig, error) {
	var cfg entity.SessionRetrievalConfig
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionId).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
