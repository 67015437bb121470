package implementation

import (
	"context"

	"rag-chat-orchestrator/internal/entity"
	"rag-chat-orchestrator/internal/repository/contract"
	"rag-chat-orchestrator/internal/repository/specification"

	"gorm.io/gorm"
)

type ConversationTurnRepositoryImpl struct {
	db *gorm.DB
}

func NewConversationTurnRepository(db *gorm.DB) contract.ConversationTurnRepository {
	return &ConversationTurnRepositoryImpl{db: db}
}

func (r *ConversationTurnRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ConversationTurnRepositoryImpl) Append(ctx context.Context, turn *entity.ConversationTurn) error {
	return r.db.WithContext(ctx).Create(turn).Error
}

func (r *ConversationTurnRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ConversationTurn, error) {
	var turns []*entity.ConversationTurn
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&turns).Error; err != nil {
		return nil, err
	}
	return turns, nil
}
