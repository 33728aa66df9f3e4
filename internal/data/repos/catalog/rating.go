package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlearnhq/openlearn-backend/internal/domain"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
)

type RatingRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rating *domain.CourseRating) (*domain.CourseRating, error)
	Update(ctx context.Context, tx *gorm.DB, rating *domain.CourseRating) error
	GetByCourseAndUser(ctx context.Context, tx *gorm.DB, courseID, userID uuid.UUID) (*domain.CourseRating, error)
	GetByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*domain.CourseRating, error)
	AverageByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (float64, int64, error)
}

type ratingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRatingRepo(db *gorm.DB, baseLog *logger.Logger) RatingRepo {
	return &ratingRepo{db: db, log: baseLog.With("repo", "RatingRepo")}
}

func (r *ratingRepo) Create(ctx context.Context, tx *gorm.DB, rating *domain.CourseRating) (*domain.CourseRating, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(rating).Error; err != nil {
		return nil, err
	}
	return rating, nil
}

func (r *ratingRepo) Update(ctx context.Context, tx *gorm.DB, rating *domain.CourseRating) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).Save(rating).Error
}

func (r *ratingRepo) GetByCourseAndUser(ctx context.Context, tx *gorm.DB, courseID, userID uuid.UUID) (*domain.CourseRating, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result domain.CourseRating
	err := transaction.WithContext(ctx).
		Where("course_id = ? AND user_id = ?", courseID, userID).
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *ratingRepo) GetByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*domain.CourseRating, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.CourseRating
	if len(courseIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("course_id IN ?", courseIDs).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *ratingRepo) AverageByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (float64, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var row struct {
		Average float64
		Total   int64
	}
	err := transaction.WithContext(ctx).
		Model(&domain.CourseRating{}).
		Select("COALESCE(AVG(rating), 0) AS average, COUNT(*) AS total").
		Where("course_id = ?", courseID).
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return row.Average, row.Total, nil
}
