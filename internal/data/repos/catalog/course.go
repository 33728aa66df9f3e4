package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlearnhq/openlearn-backend/internal/domain"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
)

// CourseFilter narrows List. Zero values mean "no constraint".
type CourseFilter struct {
	Category      string
	Level         string
	Search        string
	InstructorID  uuid.UUID
	PublishedOnly bool
	FeaturedOnly  bool
	SortBy        string
	Page          int
	PageSize      int
}

type CourseRepo interface {
	Create(ctx context.Context, tx *gorm.DB, course *domain.Course) (*domain.Course, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.Course, error)
	GetBySlugs(ctx context.Context, tx *gorm.DB, slugs []string) ([]*domain.Course, error)
	GetDetailed(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Course, error)
	List(ctx context.Context, tx *gorm.DB, filter CourseFilter) ([]*domain.Course, int64, error)
	Update(ctx context.Context, tx *gorm.DB, course *domain.Course) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	IncrementTotalStudents(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta int) error
	UpdateContentStats(ctx context.Context, tx *gorm.DB, id uuid.UUID, totalLectures int, durationMinutes float64) error
	UpdateAverageRating(ctx context.Context, tx *gorm.DB, id uuid.UUID, average float64) error
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return &courseRepo{db: db, log: baseLog.With("repo", "CourseRepo")}
}

func (r *courseRepo) Create(ctx context.Context, tx *gorm.DB, course *domain.Course) (*domain.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(course).Error; err != nil {
		return nil, err
	}
	return course, nil
}

func (r *courseRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.Course
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

func (r *courseRepo) GetBySlugs(ctx context.Context, tx *gorm.DB, slugs []string) ([]*domain.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.Course
	if len(slugs) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Where("slug IN ?", slugs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *courseRepo) GetDetailed(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Course, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result domain.Course
	err := transaction.WithContext(ctx).
		Preload("Instructor").
		Preload("Sections", func(db *gorm.DB) *gorm.DB {
			return db.Order("course_section.position ASC")
		}).
		Preload("Sections.Lectures", func(db *gorm.DB) *gorm.DB {
			return db.Order("lecture.position ASC")
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

func (r *courseRepo) List(ctx context.Context, tx *gorm.DB, filter CourseFilter) ([]*domain.Course, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	query := transaction.WithContext(ctx).Model(&domain.Course{})
	if filter.PublishedOnly {
		query = query.Where("published = true")
	}
	if filter.FeaturedOnly {
		query = query.Where("featured = true")
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Level != "" {
		query = query.Where("level = ?", filter.Level)
	}
	if filter.InstructorID != uuid.Nil {
		query = query.Where("instructor_id = ?", filter.InstructorID)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch filter.SortBy {
	case "rating":
		query = query.Order("average_rating DESC")
	case "popular":
		query = query.Order("total_students DESC")
	case "price":
		query = query.Order("price ASC")
	default:
		query = query.Order("created_at DESC")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	query = query.Offset((page - 1) * pageSize).Limit(pageSize)

	var results []*domain.Course
	if err := query.Preload("Instructor").Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *courseRepo) Update(ctx context.Context, tx *gorm.DB, course *domain.Course) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).Save(course).Error
}

func (r *courseRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Course{}).Error
}

// IncrementTotalStudents bumps the enrollment counter in SQL so concurrent
// enrollments never lose an update.
func (r *courseRepo) IncrementTotalStudents(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&domain.Course{}).
		Where("id = ?", id).
		Update("total_students", gorm.Expr("total_students + ?", delta)).Error
}

func (r *courseRepo) UpdateContentStats(ctx context.Context, tx *gorm.DB, id uuid.UUID, totalLectures int, durationMinutes float64) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&domain.Course{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_lectures":   totalLectures,
			"duration_minutes": durationMinutes,
		}).Error
}

func (r *courseRepo) UpdateAverageRating(ctx context.Context, tx *gorm.DB, id uuid.UUID, average float64) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Model(&domain.Course{}).
		Where("id = ?", id).
		Update("average_rating", average).Error
}
