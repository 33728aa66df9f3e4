package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlearnhq/openlearn-backend/internal/domain"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
)

// ContentStats aggregates the lecture rows of a course.
type ContentStats struct {
	TotalLectures   int64
	DurationSeconds int64
}

type LectureRepo interface {
	Create(ctx context.Context, tx *gorm.DB, lectures []*domain.Lecture) ([]*domain.Lecture, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.Lecture, error)
	GetByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*domain.Lecture, error)
	GetBySectionIDs(ctx context.Context, tx *gorm.DB, sectionIDs []uuid.UUID) ([]*domain.Lecture, error)
	Update(ctx context.Context, tx *gorm.DB, lecture *domain.Lecture) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	IncrementWatchCount(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	StatsByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (ContentStats, error)
}

type lectureRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLectureRepo(db *gorm.DB, baseLog *logger.Logger) LectureRepo {
	return &lectureRepo{db: db, log: baseLog.With("repo", "LectureRepo")}
}

func (r *lectureRepo) Create(ctx context.Context, tx *gorm.DB, lectures []*domain.Lecture) ([]*domain.Lecture, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(lectures) == 0 {
		return []*domain.Lecture{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&lectures).Error; err != nil {
		return nil, err
	}
	return lectures, nil
}

func (r *lectureRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.Lecture, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.Lecture
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

func (r *lectureRepo) GetByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*domain.Lecture, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.Lecture
	if len(courseIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("course_id IN ?", courseIDs).
		Order("position ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *lectureRepo) GetBySectionIDs(ctx context.Context, tx *gorm.DB, sectionIDs []uuid.UUID) ([]*domain.Lecture, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.Lecture
	if len(sectionIDs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("section_id IN ?", sectionIDs).
		Order("position ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *lectureRepo) Update(ctx context.Context, tx *gorm.DB, lecture *domain.Lecture) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).Save(lecture).Error
}

func (r *lectureRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Lecture{}).Error
}

func (r *lectureRepo) IncrementWatchCount(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&domain.Lecture{}).
		Where("id = ?", id).
		Update("watch_count", gorm.Expr("watch_count + 1")).Error
}

func (r *lectureRepo) StatsByCourse(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) (ContentStats, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var stats ContentStats
	err := transaction.WithContext(ctx).
		Model(&domain.Lecture{}).
		Select("COUNT(*) AS total_lectures, COALESCE(SUM(duration_seconds), 0) AS duration_seconds").
		Where("course_id = ?", courseID).
		Scan(&stats).Error
	if err != nil {
		return ContentStats{}, err
	}
	return stats, nil
}
