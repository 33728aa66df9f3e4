package user

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlearnhq/openlearn-backend/internal/domain"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
)

type QuizResultRepo interface {
	Create(ctx context.Context, tx *gorm.DB, result *domain.QuizResult) (*domain.QuizResult, error)
	GetByEnrollmentAndQuiz(ctx context.Context, tx *gorm.DB, enrollmentID, quizID uuid.UUID) (*domain.QuizResult, error)
	GetByEnrollmentIDs(ctx context.Context, tx *gorm.DB, enrollmentIDs []uuid.UUID) ([]*domain.QuizResult, error)
	UpdateBestScore(ctx context.Context, tx *gorm.DB, id uuid.UUID, score float64, completedAt time.Time) error
}

type quizResultRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizResultRepo(db *gorm.DB, baseLog *logger.Logger) QuizResultRepo {
	return &quizResultRepo{db: db, log: baseLog.With("repo", "QuizResultRepo")}
}

func (r *quizResultRepo) Create(ctx context.Context, tx *gorm.DB, result *domain.QuizResult) (*domain.QuizResult, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

func (r *quizResultRepo) GetByEnrollmentAndQuiz(ctx context.Context, tx *gorm.DB, enrollmentID, quizID uuid.UUID) (*domain.QuizResult, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result domain.QuizResult
	err := transaction.WithContext(ctx).
		Where("enrollment_id = ? AND quiz_id = ?", enrollmentID, quizID).
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *quizResultRepo) GetByEnrollmentIDs(ctx context.Context, tx *gorm.DB, enrollmentIDs []uuid.UUID) ([]*domain.QuizResult, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.QuizResult
	if len(enrollmentIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("enrollment_id IN ?", enrollmentIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// UpdateBestScore only raises the cached score; lower attempts leave it
// alone. A new best also refreshes completed_at to the winning attempt.
func (r *quizResultRepo) UpdateBestScore(ctx context.Context, tx *gorm.DB, id uuid.UUID, score float64, completedAt time.Time) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&domain.QuizResult{}).
		Where("id = ? AND best_score < ?", id, score).
		Updates(map[string]interface{}{
			"best_score":   score,
			"completed_at": completedAt,
		}).Error
}
