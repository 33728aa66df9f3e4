package live

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlearnhq/openlearn-backend/internal/domain"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
)

type ChatMessageRepo interface {
	Create(ctx context.Context, tx *gorm.DB, message *domain.ChatMessage) (*domain.ChatMessage, error)
	GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, afterSeq int64, limit int) ([]*domain.ChatMessage, error)
	GetSuperchats(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*domain.ChatMessage, error)
	SuperchatTotal(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (float64, error)
}

type chatMessageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
	return &chatMessageRepo{db: db, log: baseLog.With("repo", "ChatMessageRepo")}
}

func (r *chatMessageRepo) Create(ctx context.Context, tx *gorm.DB, message *domain.ChatMessage) (*domain.ChatMessage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

// GetBySessionID returns messages in seq order. afterSeq lets a reconnecting
// client resume where it left off; pass 0 for the full history.
func (r *chatMessageRepo) GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, afterSeq int64, limit int) ([]*domain.ChatMessage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	query := transaction.WithContext(ctx).
		Preload("User").
		Where("session_id = ? AND seq > ?", sessionID, afterSeq).
		Order("seq ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var results []*domain.ChatMessage
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chatMessageRepo) GetSuperchats(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*domain.ChatMessage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.ChatMessage
	if err := transaction.WithContext(ctx).
		Preload("User").
		Where("session_id = ? AND is_superchat = true", sessionID).
		Order("amount DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *chatMessageRepo) SuperchatTotal(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (float64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var total float64
	err := transaction.WithContext(ctx).
		Model(&domain.ChatMessage{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("session_id = ? AND is_superchat = true", sessionID).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
