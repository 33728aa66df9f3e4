package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	liverepo "github.com/openlearnhq/openlearn-backend/internal/data/repos/live"
	"github.com/openlearnhq/openlearn-backend/internal/domain"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
	"github.com/openlearnhq/openlearn-backend/internal/utils"
)

const reminderSweepBatch = 200

// ReminderSweeper periodically delivers due session reminders. MarkSent is
// guarded in SQL, so several instances can sweep at once and each reminder
// still goes out a single time.
type ReminderSweeper struct {
	db           *gorm.DB
	reminderRepo liverepo.ReminderRepo
	notifier     NotifierService
	interval     time.Duration
	log          *logger.Logger
}

func NewReminderSweeper(
	db *gorm.DB,
	reminderRepo liverepo.ReminderRepo,
	notifier NotifierService,
	baseLog *logger.Logger,
) *ReminderSweeper {
	intervalSeconds := utils.GetEnvAsInt("REMINDER_SWEEP_SECONDS", 30, baseLog)
	return &ReminderSweeper{
		db:           db,
		reminderRepo: reminderRepo,
		notifier:     notifier,
		interval:     time.Duration(intervalSeconds) * time.Second,
		log:          baseLog.With("service", "ReminderSweeper"),
	}
}

// Start blocks until ctx is done. Run it on its own goroutine.
func (s *ReminderSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("Reminder sweeper started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("Reminder sweeper stopped")
			return
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				s.log.Error("Reminder sweep failed", "error", err)
			}
		}
	}
}

func (s *ReminderSweeper) Sweep(ctx context.Context) error {
	due, err := s.reminderRepo.GetDue(ctx, nil, time.Now(), reminderSweepBatch)
	if err != nil {
		return err
	}

	for _, reminder := range due {
		won, err := s.reminderRepo.MarkSent(ctx, nil, reminder.ID)
		if err != nil {
			return err
		}
		if !won {
			continue
		}
		if err := s.deliver(ctx, reminder); err != nil {
			s.log.Warn("Failed to deliver reminder", "reminder_id", reminder.ID, "error", err)
		}
	}
	return nil
}

func (s *ReminderSweeper) deliver(ctx context.Context, reminder *domain.SessionReminder) error {
	session := reminder.Session
	if session == nil || session.IsTerminal() {
		return nil
	}
	if session.CourseID == nil || !session.NotifyStudents {
		return nil
	}

	var lead string
	switch reminder.Offset {
	case domain.ReminderOffset24h:
		lead = "in 24 hours"
	case domain.ReminderOffset1h:
		lead = "in 1 hour"
	case domain.ReminderOffset15min:
		lead = "in 15 minutes"
	default:
		lead = "soon"
	}

	return s.notifier.NotifyCourseStudents(ctx, *session.CourseID,
		"Live session starting "+lead+": "+session.Title, domain.NotificationTypeAnnouncement)
}
