package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlearnhq/openlearn-backend/internal/domain"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
)

type QuizRepo interface {
	Create(ctx context.Context, tx *gorm.DB, quiz *domain.Quiz) (*domain.Quiz, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Quiz, error)
	GetByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*domain.Quiz, error)
	Update(ctx context.Context, tx *gorm.DB, quiz *domain.Quiz) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	ReplaceQuestions(ctx context.Context, tx *gorm.DB, quizID uuid.UUID, questions []*domain.QuizQuestion) error
}

type quizRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizRepo(db *gorm.DB, baseLog *logger.Logger) QuizRepo {
	return &quizRepo{db: db, log: baseLog.With("repo", "QuizRepo")}
}

func (r *quizRepo) Create(ctx context.Context, tx *gorm.DB, quiz *domain.Quiz) (*domain.Quiz, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(quiz).Error; err != nil {
		return nil, err
	}
	return quiz, nil
}

// GetByID loads the quiz with its questions in authored order.
func (r *quizRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Quiz, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result domain.Quiz
	err := transaction.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("quiz_question.position ASC")
		}).
		Where("id = ?", id).
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *quizRepo) GetByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*domain.Quiz, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.Quiz
	if len(courseIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("quiz_question.position ASC")
		}).
		Where("course_id IN ?", courseIDs).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *quizRepo) Update(ctx context.Context, tx *gorm.DB, quiz *domain.Quiz) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).Omit("Questions").Save(quiz).Error
}

func (r *quizRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Quiz{}).Error
}

// ReplaceQuestions swaps the full question set in one pass. Editors submit
// the whole quiz, so partial patches are not supported.
func (r *quizRepo) ReplaceQuestions(ctx context.Context, tx *gorm.DB, quizID uuid.UUID, questions []*domain.QuizQuestion) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	run := func(innerTx *gorm.DB) error {
		if err := innerTx.WithContext(ctx).
			Where("quiz_id = ?", quizID).
			Delete(&domain.QuizQuestion{}).Error; err != nil {
			return err
		}
		if len(questions) == 0 {
			return nil
		}
		for i := range questions {
			questions[i].QuizID = quizID
			questions[i].Position = i
		}
		return innerTx.WithContext(ctx).Create(&questions).Error
	}

	if tx != nil {
		return run(transaction)
	}
	return transaction.Transaction(run)
}
