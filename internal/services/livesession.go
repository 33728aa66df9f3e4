package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	liverepo "github.com/openlearnhq/openlearn-backend/internal/data/repos/live"
	userrepo "github.com/openlearnhq/openlearn-backend/internal/data/repos/user"
	"github.com/openlearnhq/openlearn-backend/internal/domain"
	"github.com/openlearnhq/openlearn-backend/internal/platform/apperr"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
	"github.com/openlearnhq/openlearn-backend/internal/realtime"
)

type ScheduleSessionInput struct {
	CourseID       *uuid.UUID `json:"course_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        time.Time  `json:"end_time"`
	NotifyStudents *bool      `json:"notify_students"`
}

type RescheduleSessionInput struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	StartTime   *time.Time `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
}

type SendChatInput struct {
	Message     string  `json:"message"`
	IsSuperchat bool    `json:"is_superchat"`
	Amount      float64 `json:"amount"`
}

// JoinSessionResult carries what a client needs to open the room stream.
type JoinSessionResult struct {
	Participant  *domain.SessionParticipant `json:"participant"`
	RoomID       string                     `json:"room_id"`
	Title        string                     `json:"title"`
	InstructorID uuid.UUID                  `json:"instructor_id"`
}

// RoomPublisher pushes an event to everyone watching a room, across
// instances.
type RoomPublisher interface {
	Publish(ctx context.Context, event realtime.Event) error
}

type LiveSessionService interface {
	Schedule(ctx context.Context, instructorID uuid.UUID, input ScheduleSessionInput) (*domain.LiveSession, error)
	Reschedule(ctx context.Context, actorID uuid.UUID, actorRole string, sessionID uuid.UUID, input RescheduleSessionInput) (*domain.LiveSession, error)
	Start(ctx context.Context, actorID uuid.UUID, actorRole string, sessionID uuid.UUID) (*domain.LiveSession, error)
	End(ctx context.Context, actorID uuid.UUID, actorRole string, sessionID uuid.UUID, recordingURL string) (*domain.LiveSession, error)
	Cancel(ctx context.Context, actorID uuid.UUID, actorRole string, sessionID uuid.UUID) (*domain.LiveSession, error)
	Delete(ctx context.Context, actorID uuid.UUID, actorRole string, sessionID uuid.UUID) error
	Join(ctx context.Context, userID, sessionID uuid.UUID) (*JoinSessionResult, error)
	Leave(ctx context.Context, userID, sessionID uuid.UUID) error
	SendChat(ctx context.Context, userID, sessionID uuid.UUID, input SendChatInput) (*domain.ChatMessage, error)
	ChatHistory(ctx context.Context, sessionID uuid.UUID, afterSeq int64, limit int) ([]*domain.ChatMessage, error)
	Superchats(ctx context.Context, sessionID uuid.UUID) ([]*domain.ChatMessage, float64, error)
	Get(ctx context.Context, sessionID uuid.UUID) (*domain.LiveSession, error)
	GetByRoomID(ctx context.Context, roomID string) (*domain.LiveSession, error)
	List(ctx context.Context, filter liverepo.SessionFilter) ([]*domain.LiveSession, int64, error)
	ListUpcoming(ctx context.Context, page, pageSize int) ([]*domain.LiveSession, int64, error)
	Participants(ctx context.Context, sessionID uuid.UUID) ([]*domain.SessionParticipant, error)
}

type liveSessionService struct {
	db              *gorm.DB
	sessionRepo     liverepo.SessionRepo
	participantRepo liverepo.ParticipantRepo
	chatRepo        liverepo.ChatMessageRepo
	reminderRepo    liverepo.ReminderRepo
	enrollmentRepo  userrepo.EnrollmentRepo
	notifier        NotifierService
	rooms           RoomPublisher
	log             *logger.Logger
}

func NewLiveSessionService(
	db *gorm.DB,
	sessionRepo liverepo.SessionRepo,
	participantRepo liverepo.ParticipantRepo,
	chatRepo liverepo.ChatMessageRepo,
	reminderRepo liverepo.ReminderRepo,
	enrollmentRepo userrepo.EnrollmentRepo,
	notifier NotifierService,
	rooms RoomPublisher,
	baseLog *logger.Logger,
) LiveSessionService {
	return &liveSessionService{
		db:              db,
		sessionRepo:     sessionRepo,
		participantRepo: participantRepo,
		chatRepo:        chatRepo,
		reminderRepo:    reminderRepo,
		enrollmentRepo:  enrollmentRepo,
		notifier:        notifier,
		rooms:           rooms,
		log:             baseLog.With("service", "LiveSessionService"),
	}
}

func (s *liveSessionService) Schedule(ctx context.Context, instructorID uuid.UUID, input ScheduleSessionInput) (*domain.LiveSession, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperr.E(apperr.KindValidation, "session title is required")
	}
	if input.StartTime.IsZero() || input.EndTime.IsZero() {
		return nil, apperr.E(apperr.KindValidation, "start and end times are required")
	}
	if !input.EndTime.After(input.StartTime) {
		return nil, apperr.E(apperr.KindValidation, "end time must be after start time")
	}
	if input.StartTime.Before(time.Now()) {
		return nil, apperr.E(apperr.KindValidation, "start time must be in the future")
	}

	session := &domain.LiveSession{
		CourseID:       input.CourseID,
		InstructorID:   instructorID,
		Title:          strings.TrimSpace(input.Title),
		Description:    input.Description,
		StartTime:      input.StartTime,
		EndTime:        input.EndTime,
		RoomID:         "room-" + uuid.NewString(),
		Status:         domain.SessionStatusScheduled,
		NotifyStudents: true,
	}
	if input.NotifyStudents != nil {
		session.NotifyStudents = *input.NotifyStudents
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.sessionRepo.Create(ctx, tx, session); err != nil {
			return err
		}
		return s.reminderRepo.ReplaceForSession(ctx, tx, session.ID, buildReminders(session.ID, session.StartTime))
	})
	if err != nil {
		return nil, err
	}

	if session.NotifyStudents && session.CourseID != nil {
		if err := s.notifier.NotifyCourseStudents(ctx, *session.CourseID,
			"Live session scheduled: "+session.Title, domain.NotificationTypeAnnouncement); err != nil {
			s.log.Warn("Failed to notify students about new session", "session_id", session.ID, "error", err)
		}
	}

	s.log.Info("Scheduled live session", "session_id", session.ID, "room_id", session.RoomID)
	return session, nil
}

func (s *liveSessionService) Reschedule(ctx context.Context, actorID uuid.UUID, actorRole string, sessionID uuid.UUID, input RescheduleSessionInput) (*domain.LiveSession, error) {
	session, err := s.requireOwnedSession(ctx, actorID, actorRole, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionStatusScheduled {
		return nil, apperr.E(apperr.KindInvalidTransition, "only scheduled sessions can be edited")
	}

	startChanged := false
	if input.Title != nil && strings.TrimSpace(*input.Title) != "" {
		session.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		session.Description = *input.Description
	}
	if input.StartTime != nil {
		session.StartTime = *input.StartTime
		startChanged = true
	}
	if input.EndTime != nil {
		session.EndTime = *input.EndTime
	}
	if !session.EndTime.After(session.StartTime) {
		return nil, apperr.E(apperr.KindValidation, "end time must be after start time")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.sessionRepo.Update(ctx, tx, session); err != nil {
			return err
		}
		if startChanged {
			return s.reminderRepo.ReplaceForSession(ctx, tx, session.ID, buildReminders(session.ID, session.StartTime))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (s *liveSessionService) Start(ctx context.Context, actorID uuid.UUID, actorRole string, sessionID uuid.UUID) (*domain.LiveSession, error) {
	return s.transition(ctx, actorID, actorRole, sessionID, domain.SessionStatusLive, "")
}

func (s *liveSessionService) End(ctx context.Context, actorID uuid.UUID, actorRole string, sessionID uuid.UUID, recordingURL string) (*domain.LiveSession, error) {
	return s.transition(ctx, actorID, actorRole, sessionID, domain.SessionStatusCompleted, recordingURL)
}

func (s *liveSessionService) Cancel(ctx context.Context, actorID uuid.UUID, actorRole string, sessionID uuid.UUID) (*domain.LiveSession, error) {
	session, err := s.transition(ctx, actorID, actorRole, sessionID, domain.SessionStatusCancelled, "")
	if err != nil {
		return nil, err
	}

	if err := s.reminderRepo.DeleteBySessionID(ctx, nil, sessionID); err != nil {
		s.log.Warn("Failed to clear reminders for cancelled session", "session_id", sessionID, "error", err)
	}
	if session.NotifyStudents && session.CourseID != nil {
		if err := s.notifier.NotifyCourseStudents(ctx, *session.CourseID,
			"Live session cancelled: "+session.Title, domain.NotificationTypeAnnouncement); err != nil {
			s.log.Warn("Failed to notify students about cancellation", "session_id", sessionID, "error", err)
		}
	}
	return session, nil
}

// Delete removes a session and its reminders. A live session must be ended
// or cancelled first.
func (s *liveSessionService) Delete(ctx context.Context, actorID uuid.UUID, actorRole string, sessionID uuid.UUID) error {
	session, err := s.requireOwnedSession(ctx, actorID, actorRole, sessionID)
	if err != nil {
		return err
	}
	if session.Status == domain.SessionStatusLive {
		return apperr.E(apperr.KindInvalidTransition, "end or cancel the session before deleting it")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.reminderRepo.DeleteBySessionID(ctx, tx, sessionID); err != nil {
			return err
		}
		return s.sessionRepo.Delete(ctx, tx, sessionID)
	})
}

func (s *liveSessionService) transition(ctx context.Context, actorID uuid.UUID, actorRole string, sessionID uuid.UUID, to, recordingURL string) (*domain.LiveSession, error) {
	session, err := s.requireOwnedSession(ctx, actorID, actorRole, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.CanTransition(to) {
		return nil, apperr.E(apperr.KindInvalidTransition, "cannot move a "+session.Status+" session to "+to)
	}

	changed, err := s.sessionRepo.UpdateStatus(ctx, nil, sessionID, session.Status, to)
	if err != nil {
		return nil, err
	}
	if !changed {
		// Someone else transitioned first; reload and report the conflict.
		return nil, apperr.E(apperr.KindConflict, "session status changed concurrently")
	}
	session.Status = to

	if recordingURL != "" {
		session.RecordingURL = recordingURL
		if err := s.sessionRepo.Update(ctx, nil, session); err != nil {
			return nil, err
		}
	}

	s.publish(ctx, session.RoomID, realtime.EventSessionStatus, map[string]interface{}{
		"session_id": session.ID,
		"status":     session.Status,
	})

	// Start and end fan out to enrolled students the same way Schedule and
	// Cancel do. Cancel handles its own message after clearing reminders.
	if to != domain.SessionStatusCancelled && session.NotifyStudents && session.CourseID != nil {
		message := "Live session started: " + session.Title
		if to == domain.SessionStatusCompleted {
			message = "Live session ended: " + session.Title
			if session.RecordingURL != "" {
				message = "Recording available for " + session.Title
			}
		}
		if err := s.notifier.NotifyCourseStudents(ctx, *session.CourseID, message, domain.NotificationTypeAnnouncement); err != nil {
			s.log.Warn("Failed to notify students about session status", "session_id", sessionID, "status", to, "error", err)
		}
	}

	s.log.Info("Live session transitioned", "session_id", sessionID, "status", to)
	return session, nil
}

// requireRoomAccess gates join and chat the same way: a course-backed
// session admits its instructor and enrolled students, a courseless one
// admits any authenticated caller.
func (s *liveSessionService) requireRoomAccess(ctx context.Context, session *domain.LiveSession, userID uuid.UUID) error {
	if session.CourseID == nil || session.InstructorID == userID {
		return nil
	}
	enrollment, err := s.enrollmentRepo.GetByUserAndCourse(ctx, nil, userID, *session.CourseID)
	if err != nil {
		return err
	}
	if enrollment == nil {
		return apperr.E(apperr.KindNotEnrolled, "you are not enrolled in this course")
	}
	return nil
}

// Join upserts the participant row: a rejoin refreshes joined_at and clears
// left_at instead of duplicating the row.
func (s *liveSessionService) Join(ctx context.Context, userID, sessionID uuid.UUID) (*JoinSessionResult, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionStatusLive {
		return nil, apperr.E(apperr.KindInvalidTransition, "session is not live")
	}
	if err := s.requireRoomAccess(ctx, session, userID); err != nil {
		return nil, err
	}

	participant, err := s.participantRepo.Upsert(ctx, nil, sessionID, userID, time.Now())
	if err != nil {
		return nil, err
	}

	s.publish(ctx, session.RoomID, realtime.EventParticipantJoin, map[string]interface{}{
		"session_id": sessionID,
		"user_id":    userID,
	})
	return &JoinSessionResult{
		Participant:  participant,
		RoomID:       session.RoomID,
		Title:        session.Title,
		InstructorID: session.InstructorID,
	}, nil
}

// Leave is idempotent: leaving twice, or without having joined, is a no-op.
func (s *liveSessionService) Leave(ctx context.Context, userID, sessionID uuid.UUID) error {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	if err := s.participantRepo.MarkLeft(ctx, nil, sessionID, userID, time.Now()); err != nil {
		return err
	}

	s.publish(ctx, session.RoomID, realtime.EventParticipantLeft, map[string]interface{}{
		"session_id": sessionID,
		"user_id":    userID,
	})
	return nil
}

// SendChat assigns the message its seq and stores it in one transaction, so
// the room-wide ordering every client sees matches the database.
func (s *liveSessionService) SendChat(ctx context.Context, userID, sessionID uuid.UUID, input SendChatInput) (*domain.ChatMessage, error) {
	if strings.TrimSpace(input.Message) == "" {
		return nil, apperr.E(apperr.KindValidation, "message text is required")
	}
	if input.IsSuperchat && input.Amount <= 0 {
		return nil, apperr.E(apperr.KindValidation, "superchat amount must be positive")
	}

	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionStatusLive {
		return nil, apperr.E(apperr.KindInvalidTransition, "session is not live")
	}
	if err := s.requireRoomAccess(ctx, session, userID); err != nil {
		return nil, err
	}

	amount := 0.0
	if input.IsSuperchat {
		amount = input.Amount
	}

	var message *domain.ChatMessage
	err = s.db.Transaction(func(tx *gorm.DB) error {
		seq, err := s.sessionRepo.NextChatSeq(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		message, err = s.chatRepo.Create(ctx, tx, &domain.ChatMessage{
			SessionID:   sessionID,
			Seq:         seq,
			UserID:      userID,
			Message:     strings.TrimSpace(input.Message),
			IsSuperchat: input.IsSuperchat,
			Amount:      amount,
			SentAt:      time.Now(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	eventType := realtime.EventChatMessage
	if message.IsSuperchat {
		eventType = realtime.EventSuperchat
	}
	s.publish(ctx, session.RoomID, eventType, message)
	return message, nil
}

func (s *liveSessionService) ChatHistory(ctx context.Context, sessionID uuid.UUID, afterSeq int64, limit int) ([]*domain.ChatMessage, error) {
	if _, err := s.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.chatRepo.GetBySessionID(ctx, nil, sessionID, afterSeq, limit)
}

func (s *liveSessionService) Superchats(ctx context.Context, sessionID uuid.UUID) ([]*domain.ChatMessage, float64, error) {
	if _, err := s.Get(ctx, sessionID); err != nil {
		return nil, 0, err
	}
	superchats, err := s.chatRepo.GetSuperchats(ctx, nil, sessionID)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.chatRepo.SuperchatTotal(ctx, nil, sessionID)
	if err != nil {
		return nil, 0, err
	}
	return superchats, total, nil
}

func (s *liveSessionService) Get(ctx context.Context, sessionID uuid.UUID) (*domain.LiveSession, error) {
	sessions, err := s.sessionRepo.GetByIDs(ctx, nil, []uuid.UUID{sessionID})
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, apperr.E(apperr.KindNotFound, "live session not found")
	}
	return sessions[0], nil
}

func (s *liveSessionService) GetByRoomID(ctx context.Context, roomID string) (*domain.LiveSession, error) {
	session, err := s.sessionRepo.GetByRoomID(ctx, nil, roomID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperr.E(apperr.KindNotFound, "live session not found")
	}
	return session, nil
}

func (s *liveSessionService) List(ctx context.Context, filter liverepo.SessionFilter) ([]*domain.LiveSession, int64, error) {
	return s.sessionRepo.List(ctx, nil, filter)
}

func (s *liveSessionService) ListUpcoming(ctx context.Context, page, pageSize int) ([]*domain.LiveSession, int64, error) {
	now := time.Now()
	return s.sessionRepo.List(ctx, nil, liverepo.SessionFilter{
		UpcomingFrom: &now,
		Page:         page,
		PageSize:     pageSize,
	})
}

func (s *liveSessionService) Participants(ctx context.Context, sessionID uuid.UUID) ([]*domain.SessionParticipant, error) {
	if _, err := s.Get(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.participantRepo.GetBySessionID(ctx, nil, sessionID)
}

func (s *liveSessionService) requireOwnedSession(ctx context.Context, actorID uuid.UUID, actorRole string, sessionID uuid.UUID) (*domain.LiveSession, error) {
	session, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.InstructorID != actorID && actorRole != domain.RoleAdmin {
		return nil, apperr.E(apperr.KindNotAuthorized, "you do not own this session")
	}
	return session, nil
}

func (s *liveSessionService) publish(ctx context.Context, roomID, eventType string, payload interface{}) {
	if s.rooms == nil {
		return
	}
	event, err := realtime.NewEvent(roomID, eventType, payload)
	if err != nil {
		s.log.Warn("Failed to encode room event", "room_id", roomID, "type", eventType, "error", err)
		return
	}
	if err := s.rooms.Publish(ctx, event); err != nil {
		s.log.Warn("Failed to publish room event", "room_id", roomID, "type", eventType, "error", err)
	}
}

func buildReminders(sessionID uuid.UUID, start time.Time) []*domain.SessionReminder {
	times := domain.ReminderTimes(start)
	reminders := make([]*domain.SessionReminder, 0, len(times))
	for _, offset := range []string{domain.ReminderOffset24h, domain.ReminderOffset1h, domain.ReminderOffset15min} {
		reminders = append(reminders, &domain.SessionReminder{
			SessionID: sessionID,
			Offset:    offset,
			RemindAt:  times[offset],
		})
	}
	return reminders
}
