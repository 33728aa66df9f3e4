package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	liverepo "github.com/openlearnhq/openlearn-backend/internal/data/repos/live"
	"github.com/openlearnhq/openlearn-backend/internal/domain"
	"github.com/openlearnhq/openlearn-backend/internal/platform/apperr"
	"github.com/openlearnhq/openlearn-backend/internal/realtime"
)

type fakeSessionRepo struct {
	liverepo.SessionRepo
	session *domain.LiveSession
}

func (f *fakeSessionRepo) Create(ctx context.Context, tx *gorm.DB, session *domain.LiveSession) (*domain.LiveSession, error) {
	session.ID = uuid.New()
	f.session = session
	return session, nil
}

func (f *fakeSessionRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.LiveSession, error) {
	if f.session != nil && len(ids) == 1 && f.session.ID == ids[0] {
		return []*domain.LiveSession{f.session}, nil
	}
	return nil, nil
}

func (f *fakeSessionRepo) Update(ctx context.Context, tx *gorm.DB, session *domain.LiveSession) error {
	f.session = session
	return nil
}

func (f *fakeSessionRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, from, to string) (bool, error) {
	if f.session == nil || f.session.ID != id || f.session.Status != from {
		return false, nil
	}
	f.session.Status = to
	return true, nil
}

func (f *fakeSessionRepo) NextChatSeq(ctx context.Context, tx *gorm.DB, id uuid.UUID) (int64, error) {
	f.session.ChatSeq++
	return f.session.ChatSeq, nil
}

func (f *fakeSessionRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	if f.session != nil && f.session.ID == id {
		f.session = nil
	}
	return nil
}

type fakeParticipantRepo struct {
	liverepo.ParticipantRepo
	participants map[uuid.UUID]*domain.SessionParticipant
}

func (f *fakeParticipantRepo) Upsert(ctx context.Context, tx *gorm.DB, sessionID, userID uuid.UUID, joinedAt time.Time) (*domain.SessionParticipant, error) {
	if f.participants == nil {
		f.participants = make(map[uuid.UUID]*domain.SessionParticipant)
	}
	if existing, ok := f.participants[userID]; ok {
		existing.JoinedAt = joinedAt
		existing.LeftAt = nil
		return existing, nil
	}
	participant := &domain.SessionParticipant{
		ID:        uuid.New(),
		SessionID: sessionID,
		UserID:    userID,
		JoinedAt:  joinedAt,
	}
	f.participants[userID] = participant
	return participant, nil
}

func (f *fakeParticipantRepo) MarkLeft(ctx context.Context, tx *gorm.DB, sessionID, userID uuid.UUID, leftAt time.Time) error {
	if participant, ok := f.participants[userID]; ok && participant.LeftAt == nil {
		participant.LeftAt = &leftAt
	}
	return nil
}

type fakeChatRepo struct {
	liverepo.ChatMessageRepo
	messages []*domain.ChatMessage
}

func (f *fakeChatRepo) Create(ctx context.Context, tx *gorm.DB, message *domain.ChatMessage) (*domain.ChatMessage, error) {
	message.ID = uuid.New()
	f.messages = append(f.messages, message)
	return message, nil
}

type fakeReminderRepo struct {
	liverepo.ReminderRepo
	replacements int
	reminders    []*domain.SessionReminder
}

func (f *fakeReminderRepo) ReplaceForSession(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, reminders []*domain.SessionReminder) error {
	f.replacements++
	f.reminders = reminders
	return nil
}

func (f *fakeReminderRepo) DeleteBySessionID(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error {
	f.reminders = nil
	return nil
}

type fakeNotifier struct {
	messages []string
}

func (f *fakeNotifier) NotifyUsers(ctx context.Context, userIDs []uuid.UUID, message, notificationType string) error {
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeNotifier) NotifyCourseStudents(ctx context.Context, courseID uuid.UUID, message, notificationType string) error {
	f.messages = append(f.messages, message)
	return nil
}

type fakePublisher struct {
	events []realtime.Event
}

func (f *fakePublisher) Publish(ctx context.Context, event realtime.Event) error {
	f.events = append(f.events, event)
	return nil
}

type sessionFixture struct {
	service      LiveSessionService
	sessionRepo  *fakeSessionRepo
	participants *fakeParticipantRepo
	chat         *fakeChatRepo
	reminders    *fakeReminderRepo
	enrollments  *fakeEnrollmentRepo
	notifier     *fakeNotifier
	publisher    *fakePublisher
	instructorID uuid.UUID
}

// enrollStudent attaches a course to the fixture session and enrolls a new
// student in it.
func (fx *sessionFixture) enrollStudent(courseID uuid.UUID) uuid.UUID {
	fx.sessionRepo.session.CourseID = &courseID
	userID := uuid.New()
	fx.enrollments.enrollment = &domain.Enrollment{ID: uuid.New(), UserID: userID, CourseID: courseID}
	return userID
}

func newSessionFixture(t *testing.T, status string) *sessionFixture {
	t.Helper()

	instructorID := uuid.New()
	sessionRepo := &fakeSessionRepo{}
	if status != "" {
		sessionRepo.session = &domain.LiveSession{
			ID:           uuid.New(),
			InstructorID: instructorID,
			Title:        "fixture session",
			StartTime:    time.Now().Add(time.Hour),
			EndTime:      time.Now().Add(2 * time.Hour),
			RoomID:       "room-fixture",
			Status:       status,
		}
	}

	participants := &fakeParticipantRepo{}
	chat := &fakeChatRepo{}
	reminders := &fakeReminderRepo{}
	enrollments := &fakeEnrollmentRepo{}
	notifier := &fakeNotifier{}
	publisher := &fakePublisher{}

	service := NewLiveSessionService(
		testDB(t),
		sessionRepo,
		participants,
		chat,
		reminders,
		enrollments,
		notifier,
		publisher,
		testLogger(t),
	)
	return &sessionFixture{
		service:      service,
		sessionRepo:  sessionRepo,
		participants: participants,
		chat:         chat,
		reminders:    reminders,
		enrollments:  enrollments,
		notifier:     notifier,
		publisher:    publisher,
		instructorID: instructorID,
	}
}

func TestScheduleCreatesReminderSet(t *testing.T) {
	fx := newSessionFixture(t, "")
	start := time.Now().Add(48 * time.Hour)

	session, err := fx.service.Schedule(context.Background(), fx.instructorID, ScheduleSessionInput{
		Title:     "Office hours",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if session.Status != domain.SessionStatusScheduled {
		t.Fatalf("status = %s, want scheduled", session.Status)
	}
	if session.RoomID == "" {
		t.Fatalf("room id not assigned")
	}
	if len(fx.reminders.reminders) != 3 {
		t.Fatalf("reminders = %d, want 3", len(fx.reminders.reminders))
	}
}

func TestScheduleValidatesTimes(t *testing.T) {
	fx := newSessionFixture(t, "")
	start := time.Now().Add(time.Hour)

	cases := []ScheduleSessionInput{
		{Title: "", StartTime: start, EndTime: start.Add(time.Hour)},
		{Title: "x", StartTime: start, EndTime: start},
		{Title: "x", StartTime: start.Add(time.Hour), EndTime: start},
		{Title: "x", StartTime: time.Now().Add(-time.Hour), EndTime: start},
	}
	for i, input := range cases {
		if _, err := fx.service.Schedule(context.Background(), fx.instructorID, input); !apperr.Is(err, apperr.KindValidation) {
			t.Fatalf("case %d: err = %v, want validation error", i, err)
		}
	}
}

func TestRescheduleRegeneratesReminders(t *testing.T) {
	fx := newSessionFixture(t, domain.SessionStatusScheduled)
	newStart := time.Now().Add(72 * time.Hour)
	newEnd := newStart.Add(time.Hour)

	_, err := fx.service.Reschedule(context.Background(), fx.instructorID, domain.RoleInstructor, fx.sessionRepo.session.ID,
		RescheduleSessionInput{StartTime: &newStart, EndTime: &newEnd})
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if fx.reminders.replacements != 1 {
		t.Fatalf("reminder regenerations = %d, want 1", fx.reminders.replacements)
	}
	if got := fx.reminders.reminders[0].RemindAt; !got.Equal(newStart.Add(-24 * time.Hour)) {
		t.Fatalf("first reminder at %v, want start-24h", got)
	}
}

func TestRescheduleWithoutTimeChangeKeepsReminders(t *testing.T) {
	fx := newSessionFixture(t, domain.SessionStatusScheduled)
	title := "renamed"

	_, err := fx.service.Reschedule(context.Background(), fx.instructorID, domain.RoleInstructor, fx.sessionRepo.session.ID,
		RescheduleSessionInput{Title: &title})
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if fx.reminders.replacements != 0 {
		t.Fatalf("reminders regenerated on title-only edit")
	}
}

func TestStartTransitionsScheduledSession(t *testing.T) {
	fx := newSessionFixture(t, domain.SessionStatusScheduled)

	session, err := fx.service.Start(context.Background(), fx.instructorID, domain.RoleInstructor, fx.sessionRepo.session.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if session.Status != domain.SessionStatusLive {
		t.Fatalf("status = %s, want live", session.Status)
	}
	if len(fx.publisher.events) != 1 || fx.publisher.events[0].Type != realtime.EventSessionStatus {
		t.Fatalf("status event not published: %+v", fx.publisher.events)
	}
}

func TestStartRejectsTerminalSessions(t *testing.T) {
	for _, status := range []string{domain.SessionStatusCompleted, domain.SessionStatusCancelled, domain.SessionStatusLive} {
		fx := newSessionFixture(t, status)
		_, err := fx.service.Start(context.Background(), fx.instructorID, domain.RoleInstructor, fx.sessionRepo.session.ID)
		if !apperr.Is(err, apperr.KindInvalidTransition) {
			t.Fatalf("start from %s: err = %v, want invalid transition", status, err)
		}
	}
}

func TestStartAndEndNotifyEnrolledStudents(t *testing.T) {
	fx := newSessionFixture(t, domain.SessionStatusScheduled)
	courseID := uuid.New()
	fx.sessionRepo.session.CourseID = &courseID
	fx.sessionRepo.session.NotifyStudents = true

	if _, err := fx.service.Start(context.Background(), fx.instructorID, domain.RoleInstructor, fx.sessionRepo.session.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(fx.notifier.messages) != 1 {
		t.Fatalf("notifications after start = %d, want 1", len(fx.notifier.messages))
	}

	if _, err := fx.service.End(context.Background(), fx.instructorID, domain.RoleInstructor, fx.sessionRepo.session.ID, "https://cdn.example.com/recording.mp4"); err != nil {
		t.Fatalf("End: %v", err)
	}
	if len(fx.notifier.messages) != 2 {
		t.Fatalf("notifications after end = %d, want 2", len(fx.notifier.messages))
	}
}

func TestTransitionsSkipNotificationsWhenDisabled(t *testing.T) {
	fx := newSessionFixture(t, domain.SessionStatusScheduled)
	courseID := uuid.New()
	fx.sessionRepo.session.CourseID = &courseID
	fx.sessionRepo.session.NotifyStudents = false

	if _, err := fx.service.Start(context.Background(), fx.instructorID, domain.RoleInstructor, fx.sessionRepo.session.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if len(fx.notifier.messages) != 0 {
		t.Fatalf("notifications = %v, want none with notify_students off", fx.notifier.messages)
	}
}

func TestEndRequiresLiveSession(t *testing.T) {
	fx := newSessionFixture(t, domain.SessionStatusScheduled)
	_, err := fx.service.End(context.Background(), fx.instructorID, domain.RoleInstructor, fx.sessionRepo.session.ID, "")
	if !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("err = %v, want invalid transition", err)
	}
}

func TestTransitionsRequireOwnership(t *testing.T) {
	fx := newSessionFixture(t, domain.SessionStatusScheduled)
	_, err := fx.service.Start(context.Background(), uuid.New(), domain.RoleInstructor, fx.sessionRepo.session.ID)
	if !apperr.Is(err, apperr.KindNotAuthorized) {
		t.Fatalf("err = %v, want not authorized", err)
	}
}

func TestJoinRequiresLiveSession(t *testing.T) {
	fx := newSessionFixture(t, domain.SessionStatusScheduled)
	_, err := fx.service.Join(context.Background(), uuid.New(), fx.sessionRepo.session.ID)
	if !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("err = %v, want invalid transition", err)
	}
}

func TestJoinReturnsRoomDetails(t *testing.T) {
	fx := newSessionFixture(t, domain.SessionStatusLive)

	joined, err := fx.service.Join(context.Background(), uuid.New(), fx.sessionRepo.session.ID)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if joined.RoomID != fx.sessionRepo.session.RoomID {
		t.Fatalf("room id = %q, want %q", joined.RoomID, fx.sessionRepo.session.RoomID)
	}
	if joined.Title != fx.sessionRepo.session.Title || joined.InstructorID != fx.instructorID {
		t.Fatalf("session details not returned: %+v", joined)
	}
	if joined.Participant == nil {
		t.Fatalf("participant row not returned")
	}
}

func TestJoinTwiceKeepsSingleParticipant(t *testing.T) {
	fx := newSessionFixture(t, domain.SessionStatusLive)
	userID := uuid.New()

	first, err := fx.service.Join(context.Background(), userID, fx.sessionRepo.session.ID)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := fx.service.Leave(context.Background(), userID, fx.sessionRepo.session.ID); err != nil {
		t.Fatalf("Leave: %v", err)
	}

	second, err := fx.service.Join(context.Background(), userID, fx.sessionRepo.session.ID)
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if first.Participant.ID != second.Participant.ID {
		t.Fatalf("rejoin created a second participant row")
	}
	if second.Participant.LeftAt != nil {
		t.Fatalf("left_at not cleared on rejoin")
	}
	if len(fx.participants.participants) != 1 {
		t.Fatalf("participants = %d, want 1", len(fx.participants.participants))
	}
}

func TestLeaveIsIdempotent(t *testing.T) {
	fx := newSessionFixture(t, domain.SessionStatusLive)
	userID := uuid.New()

	if _, err := fx.service.Join(context.Background(), userID, fx.sessionRepo.session.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := fx.service.Leave(context.Background(), userID, fx.sessionRepo.session.ID); err != nil {
			t.Fatalf("Leave #%d: %v", i+1, err)
		}
	}

	// Leaving without ever joining is also fine.
	if err := fx.service.Leave(context.Background(), uuid.New(), fx.sessionRepo.session.ID); err != nil {
		t.Fatalf("Leave without join: %v", err)
	}
}

func TestSendChatAssignsIncreasingSeq(t *testing.T) {
	fx := newSessionFixture(t, domain.SessionStatusLive)
	userID := uuid.New()
	if _, err := fx.service.Join(context.Background(), userID, fx.sessionRepo.session.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}

	for i, text := range []string{"first", "second", "third"} {
		message, err := fx.service.SendChat(context.Background(), userID, fx.sessionRepo.session.ID, SendChatInput{Message: text})
		if err != nil {
			t.Fatalf("SendChat %q: %v", text, err)
		}
		if message.Seq != int64(i+1) {
			t.Fatalf("seq = %d, want %d", message.Seq, i+1)
		}
	}
}

// Chat carries the same gate as join: enrollment (or being the
// instructor), not participant membership.
func TestSendChatRequiresEnrollment(t *testing.T) {
	fx := newSessionFixture(t, domain.SessionStatusLive)
	courseID := uuid.New()
	fx.sessionRepo.session.CourseID = &courseID

	_, err := fx.service.SendChat(context.Background(), uuid.New(), fx.sessionRepo.session.ID, SendChatInput{Message: "hi"})
	if !apperr.Is(err, apperr.KindNotEnrolled) {
		t.Fatalf("err = %v, want not enrolled", err)
	}

	// The instructor chats without an enrollment row.
	if _, err := fx.service.SendChat(context.Background(), fx.instructorID, fx.sessionRepo.session.ID, SendChatInput{Message: "welcome"}); err != nil {
		t.Fatalf("instructor SendChat: %v", err)
	}
}

func TestSendChatAllowsEnrolledUserWithoutJoining(t *testing.T) {
	fx := newSessionFixture(t, domain.SessionStatusLive)
	userID := fx.enrollStudent(uuid.New())

	message, err := fx.service.SendChat(context.Background(), userID, fx.sessionRepo.session.ID, SendChatInput{Message: "hi"})
	if err != nil {
		t.Fatalf("SendChat without joining: %v", err)
	}
	if message.Seq != 1 {
		t.Fatalf("seq = %d, want 1", message.Seq)
	}

	// Leaving does not revoke chat either.
	if _, err := fx.service.Join(context.Background(), userID, fx.sessionRepo.session.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}
	if err := fx.service.Leave(context.Background(), userID, fx.sessionRepo.session.ID); err != nil {
		t.Fatalf("Leave: %v", err)
	}
	if _, err := fx.service.SendChat(context.Background(), userID, fx.sessionRepo.session.ID, SendChatInput{Message: "still here"}); err != nil {
		t.Fatalf("SendChat after leave: %v", err)
	}
}

func TestSendChatValidatesSuperchatAmount(t *testing.T) {
	fx := newSessionFixture(t, domain.SessionStatusLive)
	userID := uuid.New()
	if _, err := fx.service.Join(context.Background(), userID, fx.sessionRepo.session.ID); err != nil {
		t.Fatalf("Join: %v", err)
	}

	_, err := fx.service.SendChat(context.Background(), userID, fx.sessionRepo.session.ID,
		SendChatInput{Message: "hi", IsSuperchat: true, Amount: 0})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}

	message, err := fx.service.SendChat(context.Background(), userID, fx.sessionRepo.session.ID,
		SendChatInput{Message: "take my money", IsSuperchat: true, Amount: 5})
	if err != nil {
		t.Fatalf("SendChat superchat: %v", err)
	}
	if !message.IsSuperchat || message.Amount != 5 {
		t.Fatalf("superchat not stored: %+v", message)
	}
	last := fx.publisher.events[len(fx.publisher.events)-1]
	if last.Type != realtime.EventSuperchat {
		t.Fatalf("event type = %s, want superchat", last.Type)
	}
}

func TestDeleteRejectsLiveSession(t *testing.T) {
	fx := newSessionFixture(t, domain.SessionStatusLive)

	err := fx.service.Delete(context.Background(), fx.instructorID, domain.RoleInstructor, fx.sessionRepo.session.ID)
	if !apperr.Is(err, apperr.KindInvalidTransition) {
		t.Fatalf("err = %v, want invalid transition", err)
	}
	if fx.sessionRepo.session == nil {
		t.Fatalf("live session was deleted")
	}
}

func TestDeleteRemovesSessionAndReminders(t *testing.T) {
	fx := newSessionFixture(t, domain.SessionStatusScheduled)
	fx.reminders.reminders = buildReminders(fx.sessionRepo.session.ID, fx.sessionRepo.session.StartTime)

	if err := fx.service.Delete(context.Background(), fx.instructorID, domain.RoleInstructor, fx.sessionRepo.session.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if fx.sessionRepo.session != nil {
		t.Fatalf("session row not removed")
	}
	if fx.reminders.reminders != nil {
		t.Fatalf("reminders not removed with the session")
	}
}

func TestCancelClearsRemindersAndNotifies(t *testing.T) {
	fx := newSessionFixture(t, domain.SessionStatusScheduled)
	courseID := uuid.New()
	fx.sessionRepo.session.CourseID = &courseID
	fx.sessionRepo.session.NotifyStudents = true
	fx.reminders.reminders = buildReminders(fx.sessionRepo.session.ID, fx.sessionRepo.session.StartTime)

	session, err := fx.service.Cancel(context.Background(), fx.instructorID, domain.RoleInstructor, fx.sessionRepo.session.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if session.Status != domain.SessionStatusCancelled {
		t.Fatalf("status = %s, want cancelled", session.Status)
	}
	if fx.reminders.reminders != nil {
		t.Fatalf("reminders not cleared on cancel")
	}
	if len(fx.notifier.messages) == 0 {
		t.Fatalf("students not notified about cancellation")
	}
}
