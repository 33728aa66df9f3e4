package live

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlearnhq/openlearn-backend/internal/domain"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
)

// SessionFilter narrows List. Zero values mean "no constraint".
type SessionFilter struct {
	CourseID     uuid.UUID
	InstructorID uuid.UUID
	Status       string
	UpcomingFrom *time.Time
	Page         int
	PageSize     int
}

type SessionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, session *domain.LiveSession) (*domain.LiveSession, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.LiveSession, error)
	GetByRoomID(ctx context.Context, tx *gorm.DB, roomID string) (*domain.LiveSession, error)
	List(ctx context.Context, tx *gorm.DB, filter SessionFilter) ([]*domain.LiveSession, int64, error)
	Update(ctx context.Context, tx *gorm.DB, session *domain.LiveSession) error
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to string) (bool, error)
	NextChatSeq(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return &sessionRepo{db: db, log: baseLog.With("repo", "SessionRepo")}
}

func (r *sessionRepo) Create(ctx context.Context, tx *gorm.DB, session *domain.LiveSession) (*domain.LiveSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

func (r *sessionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.LiveSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.LiveSession
	if len(ids) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(ctx).
		Preload("Instructor").
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *sessionRepo) GetByRoomID(ctx context.Context, tx *gorm.DB, roomID string) (*domain.LiveSession, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var result domain.LiveSession
	err := transaction.WithContext(ctx).
		Where("room_id = ?", roomID).
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *sessionRepo) List(ctx context.Context, tx *gorm.DB, filter SessionFilter) ([]*domain.LiveSession, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	query := transaction.WithContext(ctx).Model(&domain.LiveSession{})
	if filter.CourseID != uuid.Nil {
		query = query.Where("course_id = ?", filter.CourseID)
	}
	if filter.InstructorID != uuid.Nil {
		query = query.Where("instructor_id = ?", filter.InstructorID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.UpcomingFrom != nil {
		query = query.Where("status = ? AND start_time > ?", domain.SessionStatusScheduled, *filter.UpcomingFrom)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	var results []*domain.LiveSession
	if err := query.
		Preload("Instructor").
		Order("start_time ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&results).Error; err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

func (r *sessionRepo) Update(ctx context.Context, tx *gorm.DB, session *domain.LiveSession) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).Save(session).Error
}

// UpdateStatus flips the status only when the row still holds the expected
// current value, so two racing transitions cannot both win. The bool reports
// whether this call made the change.
func (r *sessionRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to string) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	result := transaction.WithContext(ctx).
		Model(&domain.LiveSession{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// NextChatSeq bumps the per-session counter and returns the new value.
// Callers must hold a transaction so the seq and the message land together.
func (r *sessionRepo) NextChatSeq(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var seq int64
	err := transaction.WithContext(ctx).
		Raw(`UPDATE live_session SET chat_seq = chat_seq + 1 WHERE id = ? RETURNING chat_seq`, id).
		Scan(&seq).Error
	if err != nil {
		return 0, err
	}
	return seq, nil
}

func (r *sessionRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.LiveSession{}).Error
}
