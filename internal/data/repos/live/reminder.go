package live

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlearnhq/openlearn-backend/internal/domain"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
)

type ReminderRepo interface {
	ReplaceForSession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, reminders []*domain.SessionReminder) error
	GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*domain.SessionReminder, error)
	GetDue(ctx context.Context, tx *gorm.DB, now time.Time, limit int) ([]*domain.SessionReminder, error)
	MarkSent(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error)
	DeleteBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error
}

type reminderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReminderRepo(db *gorm.DB, baseLog *logger.Logger) ReminderRepo {
	return &reminderRepo{db: db, log: baseLog.With("repo", "ReminderRepo")}
}

// ReplaceForSession drops the old schedule and writes the new one. Used on
// create and on reschedule; sent flags do not carry over.
func (r *reminderRepo) ReplaceForSession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, reminders []*domain.SessionReminder) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	run := func(innerTx *gorm.DB) error {
		if err := innerTx.WithContext(ctx).
			Where("session_id = ?", sessionID).
			Delete(&domain.SessionReminder{}).Error; err != nil {
			return err
		}
		if len(reminders) == 0 {
			return nil
		}
		for i := range reminders {
			reminders[i].SessionID = sessionID
		}
		return innerTx.WithContext(ctx).Create(&reminders).Error
	}

	if tx != nil {
		return run(transaction)
	}
	return transaction.Transaction(run)
}

func (r *reminderRepo) GetBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) ([]*domain.SessionReminder, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*domain.SessionReminder
	if err := transaction.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("remind_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *reminderRepo) GetDue(ctx context.Context, tx *gorm.DB, now time.Time, limit int) ([]*domain.SessionReminder, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	query := transaction.WithContext(ctx).
		Preload("Session").
		Where("sent = false AND remind_at <= ?", now).
		Order("remind_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var results []*domain.SessionReminder
	if err := query.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// MarkSent flips the flag only if it is still unsent, so two sweepers racing
// on the same reminder deliver it once.
func (r *reminderRepo) MarkSent(ctx context.Context, tx *gorm.DB, id uuid.UUID) (bool, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	result := transaction.WithContext(ctx).
		Model(&domain.SessionReminder{}).
		Where("id = ? AND sent = false", id).
		Update("sent", true)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *reminderRepo) DeleteBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	return transaction.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&domain.SessionReminder{}).Error
}
