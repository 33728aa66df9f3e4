package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlearnhq/openlearn-backend/internal/domain"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
)

type QuizAttemptRepo interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *domain.QuizAttempt) (*domain.QuizAttempt, error)
	GetByQuizAndUser(ctx context.Context, tx *gorm.DB, quizID, userID uuid.UUID) ([]*domain.QuizAttempt, error)
	CountByQuizAndUser(ctx context.Context, tx *gorm.DB, quizID, userID uuid.UUID) (int64, error)
	GetByQuizIDs(ctx context.Context, tx *gorm.DB, quizIDs []uuid.UUID) ([]*domain.QuizAttempt, error)
}

type quizAttemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizAttemptRepo(db *gorm.DB, baseLog *logger.Logger) QuizAttemptRepo {
	return &quizAttemptRepo{db: db, log: baseLog.With("repo", "QuizAttemptRepo")}
}

func (r *quizAttemptRepo) Create(ctx context.Context, tx *gorm.DB, attempt *domain.QuizAttempt) (*domain.QuizAttempt, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(attempt).Error; err != nil {
		return nil, err
	}
	return attempt, nil
}

func (r *quizAttemptRepo) GetByQuizAndUser(ctx context.Context, tx *gorm.DB, quizID, userID uuid.UUID) ([]*domain.QuizAttempt, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.QuizAttempt
	if err := transaction.WithContext(ctx).
		Where("quiz_id = ? AND user_id = ?", quizID, userID).
		Order("submitted_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *quizAttemptRepo) CountByQuizAndUser(ctx context.Context, tx *gorm.DB, quizID, userID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&domain.QuizAttempt{}).
		Where("quiz_id = ? AND user_id = ?", quizID, userID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *quizAttemptRepo) GetByQuizIDs(ctx context.Context, tx *gorm.DB, quizIDs []uuid.UUID) ([]*domain.QuizAttempt, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.QuizAttempt
	if len(quizIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("quiz_id IN ?", quizIDs).
		Order("submitted_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
