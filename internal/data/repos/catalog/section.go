package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlearnhq/openlearn-backend/internal/domain"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
)

type SectionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, sections []*domain.CourseSection) ([]*domain.CourseSection, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.CourseSection, error)
	GetByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*domain.CourseSection, error)
	Update(ctx context.Context, tx *gorm.DB, section *domain.CourseSection) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type sectionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSectionRepo(db *gorm.DB, baseLog *logger.Logger) SectionRepo {
	return &sectionRepo{db: db, log: baseLog.With("repo", "SectionRepo")}
}

func (r *sectionRepo) Create(ctx context.Context, tx *gorm.DB, sections []*domain.CourseSection) ([]*domain.CourseSection, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if len(sections) == 0 {
		return []*domain.CourseSection{}, nil
	}

	if err := transaction.WithContext(ctx).Create(&sections).Error; err != nil {
		return nil, err
	}
	return sections, nil
}

func (r *sectionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.CourseSection, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.CourseSection
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

func (r *sectionRepo) GetByCourseIDs(ctx context.Context, tx *gorm.DB, courseIDs []uuid.UUID) ([]*domain.CourseSection, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.CourseSection
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

func (r *sectionRepo) Update(ctx context.Context, tx *gorm.DB, section *domain.CourseSection) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).Save(section).Error
}

func (r *sectionRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.CourseSection{}).Error
}
