package user

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/openlearnhq/openlearn-backend/internal/domain"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
)

type EnrollmentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, enrollments []*domain.Enrollment) ([]*domain.Enrollment, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.Enrollment, error)
	GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*domain.Enrollment, error)
	GetByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*domain.Enrollment, error)
	GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*domain.Enrollment, error)
	UpdateProgress(ctx context.Context, tx *gorm.DB, id uuid.UUID, progress int) error
	AddCompletion(ctx context.Context, tx *gorm.DB, enrollmentID, lectureID uuid.UUID, at time.Time) (bool, error)
	GetCompletions(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) ([]*domain.LectureCompletion, error)
	CountCompletions(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) (int64, error)
}

type enrollmentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return &enrollmentRepo{db: db, log: baseLog.With("repo", "EnrollmentRepo")}
}

func (r *enrollmentRepo) Create(ctx context.Context, tx *gorm.DB, enrollments []*domain.Enrollment) ([]*domain.Enrollment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(enrollments) == 0 {
		return []*domain.Enrollment{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&enrollments).Error; err != nil {
		return nil, err
	}
	return enrollments, nil
}

func (r *enrollmentRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.Enrollment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.Enrollment
	if len(ids) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *enrollmentRepo) GetByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) ([]*domain.Enrollment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.Enrollment
	if len(userIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("enrolled_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *enrollmentRepo) GetByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*domain.Enrollment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.Enrollment
	if len(courseIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("course_id IN ?", courseIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *enrollmentRepo) GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*domain.Enrollment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result domain.Enrollment
	err := transaction.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *enrollmentRepo) UpdateProgress(ctx context.Context, tx *gorm.DB, id uuid.UUID, progress int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&domain.Enrollment{}).
		Where("id = ?", id).
		Update("progress", progress).Error
}

// AddCompletion records a lecture completion once per enrollment. The unique
// index absorbs repeats; the bool reports whether a new row was written.
func (r *enrollmentRepo) AddCompletion(ctx context.Context, tx *gorm.DB, enrollmentID, lectureID uuid.UUID, at time.Time) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	completion := domain.LectureCompletion{
		EnrollmentID: enrollmentID,
		LectureID:    lectureID,
		CompletedAt:  at,
	}
	result := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "enrollment_id"}, {Name: "lecture_id"}},
			DoNothing: true,
		}).
		Create(&completion)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *enrollmentRepo) GetCompletions(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) ([]*domain.LectureCompletion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.LectureCompletion
	if err := transaction.WithContext(ctx).
		Where("enrollment_id = ?", enrollmentID).
		Order("completed_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *enrollmentRepo) CountCompletions(ctx context.Context, tx *gorm.DB, enrollmentID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var count int64
	if err := transaction.WithContext(ctx).
		Model(&domain.LectureCompletion{}).
		Where("enrollment_id = ?", enrollmentID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
