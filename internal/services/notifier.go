package services

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	userrepo "github.com/openlearnhq/openlearn-backend/internal/data/repos/user"
	"github.com/openlearnhq/openlearn-backend/internal/domain"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
)

const notifyBatchSize = 500

type NotifierService interface {
	NotifyUsers(ctx context.Context, userIDs []uuid.UUID, message, notificationType string) error
	NotifyCourseStudents(ctx context.Context, courseID uuid.UUID, message, notificationType string) error
}

type notifierService struct {
	db               *gorm.DB
	notificationRepo userrepo.NotificationRepo
	enrollmentRepo   userrepo.EnrollmentRepo
	log              *logger.Logger
}

func NewNotifierService(
	db *gorm.DB,
	notificationRepo userrepo.NotificationRepo,
	enrollmentRepo userrepo.EnrollmentRepo,
	baseLog *logger.Logger,
) NotifierService {
	return &notifierService{
		db:               db,
		notificationRepo: notificationRepo,
		enrollmentRepo:   enrollmentRepo,
		log:              baseLog.With("service", "NotifierService"),
	}
}

// NotifyUsers writes one notification per user, inserting batches
// concurrently so a big course does not serialize on one round trip.
func (s *notifierService) NotifyUsers(ctx context.Context, userIDs []uuid.UUID, message, notificationType string) error {
	if len(userIDs) == 0 {
		return nil
	}

	notifications := make([]*domain.Notification, 0, len(userIDs))
	for _, id := range userIDs {
		notifications = append(notifications, &domain.Notification{
			UserID:  id,
			Message: message,
			Type:    notificationType,
		})
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for start := 0; start < len(notifications); start += notifyBatchSize {
		end := start + notifyBatchSize
		if end > len(notifications) {
			end = len(notifications)
		}
		batch := notifications[start:end]
		group.Go(func() error {
			_, err := s.notificationRepo.Create(groupCtx, nil, batch)
			return err
		})
	}
	if err := group.Wait(); err != nil {
		s.log.Error("Failed to deliver notifications", "error", err, "count", len(notifications))
		return err
	}
	return nil
}

func (s *notifierService) NotifyCourseStudents(ctx context.Context, courseID uuid.UUID, message, notificationType string) error {
	enrollments, err := s.enrollmentRepo.GetByCourseIDs(ctx, nil, []uuid.UUID{courseID})
	if err != nil {
		return err
	}

	userIDs := make([]uuid.UUID, 0, len(enrollments))
	for _, enrollment := range enrollments {
		userIDs = append(userIDs, enrollment.UserID)
	}
	return s.NotifyUsers(ctx, userIDs, message, notificationType)
}
