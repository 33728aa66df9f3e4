package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlearnhq/openlearn-backend/internal/domain"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
)

type CommentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, comment *domain.LectureComment) (*domain.LectureComment, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.LectureComment, error)
	GetByLectureID(ctx context.Context, tx *gorm.DB, lectureID uuid.UUID) ([]*domain.LectureComment, error)
	CreateReply(ctx context.Context, tx *gorm.DB, reply *domain.CommentReply) (*domain.CommentReply, error)
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type commentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCommentRepo(db *gorm.DB, baseLog *logger.Logger) CommentRepo {
	return &commentRepo{db: db, log: baseLog.With("repo", "CommentRepo")}
}

func (r *commentRepo) Create(ctx context.Context, tx *gorm.DB, comment *domain.LectureComment) (*domain.LectureComment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

func (r *commentRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.LectureComment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.LectureComment
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

func (r *commentRepo) GetByLectureID(ctx context.Context, tx *gorm.DB, lectureID uuid.UUID) ([]*domain.LectureComment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.LectureComment
	if err := transaction.WithContext(ctx).
		Preload("User").
		Preload("Replies", func(db *gorm.DB) *gorm.DB {
			return db.Order("comment_reply.created_at ASC")
		}).
		Preload("Replies.User").
		Where("lecture_id = ?", lectureID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *commentRepo) CreateReply(ctx context.Context, tx *gorm.DB, reply *domain.CommentReply) (*domain.CommentReply, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	if err := transaction.WithContext(ctx).Create(reply).Error; err != nil {
		return nil, err
	}
	return reply, nil
}

func (r *commentRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.LectureComment{}).Error
}
