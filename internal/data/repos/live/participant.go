package live

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openlearnhq/openlearn-backend/internal/domain"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
)

type ParticipantRepo interface {
	Upsert(ctx context.Context, tx *gorm.DB, sessionID, userID uuid.UUID, joinedAt time.Time) (*domain.SessionParticipant, error)
	MarkLeft(ctx context.Context, tx *gorm.DB, sessionID, userID uuid.UUID, leftAt time.Time) error
	GetBySessionAndUser(ctx context.Context, tx *gorm.DB, sessionID, userID uuid.UUID) (*domain.SessionParticipant, error)
	GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*domain.SessionParticipant, error)
	CountActive(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (int64, error)
}

type participantRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewParticipantRepo(db *gorm.DB, baseLog *logger.Logger) ParticipantRepo {
	return &participantRepo{db: db, log: baseLog.With("repo", "ParticipantRepo")}
}

// Upsert keeps one row per (session, user). A rejoin refreshes joined_at and
// clears left_at instead of stacking a duplicate.
func (r *participantRepo) Upsert(ctx context.Context, tx *gorm.DB, sessionID, userID uuid.UUID, joinedAt time.Time) (*domain.SessionParticipant, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	participant := domain.SessionParticipant{
		SessionID: sessionID,
		UserID:    userID,
		JoinedAt:  joinedAt,
	}
	err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "session_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"joined_at": joinedAt,
				"left_at":   nil,
			}),
		}).
		Create(&participant).Error
	if err != nil {
		return nil, err
	}
	return r.GetBySessionAndUser(ctx, transaction, sessionID, userID)
}

func (r *participantRepo) MarkLeft(ctx context.Context, tx *gorm.DB, sessionID, userID uuid.UUID, leftAt time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&domain.SessionParticipant{}).
		Where("session_id = ? AND user_id = ? AND left_at IS NULL", sessionID, userID).
		Update("left_at", leftAt).Error
}

func (r *participantRepo) GetBySessionAndUser(ctx context.Context, tx *gorm.DB, sessionID, userID uuid.UUID) (*domain.SessionParticipant, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result domain.SessionParticipant
	err := transaction.WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *participantRepo) GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*domain.SessionParticipant, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.SessionParticipant
	if err := transaction.WithContext(ctx).
		Preload("User").
		Where("session_id = ?", sessionID).
		Order("joined_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *participantRepo) CountActive(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&domain.SessionParticipant{}).
		Where("session_id = ? AND left_at IS NULL", sessionID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
