package live

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/openlearnhq/openlearn-backend/internal/data/repos/testutil"
	"github.com/openlearnhq/openlearn-backend/internal/domain"
)

func TestUpdateStatusIsGuardedByCurrentStatus(t *testing.T) {
	tx := testutil.Tx(t)
	repo := NewSessionRepo(testutil.DB(t), testutil.Logger(t))
	ctx := context.Background()

	instructor := testutil.SeedUser(t, tx, domain.RoleInstructor)
	session := testutil.SeedSession(t, tx, instructor.ID, time.Now().Add(time.Hour))

	changed, err := repo.UpdateStatus(ctx, tx, session.ID, domain.SessionStatusScheduled, domain.SessionStatusLive)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if !changed {
		t.Fatalf("scheduled -> live flip reported no change")
	}

	// A second flip from the stale status must lose.
	changed, err = repo.UpdateStatus(ctx, tx, session.ID, domain.SessionStatusScheduled, domain.SessionStatusCancelled)
	if err != nil {
		t.Fatalf("UpdateStatus stale: %v", err)
	}
	if changed {
		t.Fatalf("stale status flip reported success")
	}

	reloaded, err := repo.GetByIDs(ctx, tx, []uuid.UUID{session.ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(reloaded) != 1 || reloaded[0].Status != domain.SessionStatusLive {
		t.Fatalf("status = %+v, want live", reloaded)
	}
}

func TestNextChatSeqIsMonotonic(t *testing.T) {
	tx := testutil.Tx(t)
	repo := NewSessionRepo(testutil.DB(t), testutil.Logger(t))
	ctx := context.Background()

	instructor := testutil.SeedUser(t, tx, domain.RoleInstructor)
	session := testutil.SeedSession(t, tx, instructor.ID, time.Now().Add(time.Hour))

	for want := int64(1); want <= 5; want++ {
		seq, err := repo.NextChatSeq(ctx, tx, session.ID)
		if err != nil {
			t.Fatalf("NextChatSeq: %v", err)
		}
		if seq != want {
			t.Fatalf("seq = %d, want %d", seq, want)
		}
	}
}

func TestListFiltersUpcomingSessions(t *testing.T) {
	tx := testutil.Tx(t)
	repo := NewSessionRepo(testutil.DB(t), testutil.Logger(t))
	ctx := context.Background()

	instructor := testutil.SeedUser(t, tx, domain.RoleInstructor)
	past := testutil.SeedSession(t, tx, instructor.ID, time.Now().Add(-2*time.Hour))
	soon := testutil.SeedSession(t, tx, instructor.ID, time.Now().Add(time.Hour))
	later := testutil.SeedSession(t, tx, instructor.ID, time.Now().Add(3*time.Hour))
	cancelled := testutil.SeedSession(t, tx, instructor.ID, time.Now().Add(2*time.Hour))
	if _, err := repo.UpdateStatus(ctx, tx, cancelled.ID, domain.SessionStatusScheduled, domain.SessionStatusCancelled); err != nil {
		t.Fatalf("cancel seeded session: %v", err)
	}

	now := time.Now()
	sessions, total, err := repo.List(ctx, tx, SessionFilter{
		InstructorID: instructor.ID,
		UpcomingFrom: &now,
		Page:         1,
		PageSize:     10,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || len(sessions) != 2 {
		t.Fatalf("upcoming = %d (total %d), want 2", len(sessions), total)
	}
	if sessions[0].ID != soon.ID || sessions[1].ID != later.ID {
		t.Fatalf("upcoming not ordered by start time: %v then %v", sessions[0].ID, sessions[1].ID)
	}
	for _, s := range sessions {
		if s.ID == past.ID || s.ID == cancelled.ID {
			t.Fatalf("past or cancelled session leaked into upcoming list")
		}
	}
}

func TestParticipantUpsertReusesRow(t *testing.T) {
	tx := testutil.Tx(t)
	repo := NewParticipantRepo(testutil.DB(t), testutil.Logger(t))
	ctx := context.Background()

	instructor := testutil.SeedUser(t, tx, domain.RoleInstructor)
	student := testutil.SeedUser(t, tx, domain.RoleStudent)
	session := testutil.SeedSession(t, tx, instructor.ID, time.Now().Add(time.Hour))

	first, err := repo.Upsert(ctx, tx, session.ID, student.ID, time.Now())
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := repo.MarkLeft(ctx, tx, session.ID, student.ID, time.Now()); err != nil {
		t.Fatalf("MarkLeft: %v", err)
	}

	second, err := repo.Upsert(ctx, tx, session.ID, student.ID, time.Now())
	if err != nil {
		t.Fatalf("Upsert rejoin: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("rejoin created row %v, want reuse of %v", second.ID, first.ID)
	}
	if second.LeftAt != nil {
		t.Fatalf("left_at not cleared on rejoin")
	}

	active, err := repo.CountActive(ctx, tx, session.ID)
	if err != nil {
		t.Fatalf("CountActive: %v", err)
	}
	if active != 1 {
		t.Fatalf("active participants = %d, want 1", active)
	}
}

func TestReminderMarkSentIsSingleShot(t *testing.T) {
	tx := testutil.Tx(t)
	repo := NewReminderRepo(testutil.DB(t), testutil.Logger(t))
	ctx := context.Background()

	instructor := testutil.SeedUser(t, tx, domain.RoleInstructor)
	start := time.Now().Add(10 * time.Minute)
	session := testutil.SeedSession(t, tx, instructor.ID, start)

	reminders := []*domain.SessionReminder{
		{SessionID: session.ID, Offset: domain.ReminderOffset24h, RemindAt: start.Add(-24 * time.Hour)},
		{SessionID: session.ID, Offset: domain.ReminderOffset1h, RemindAt: start.Add(-time.Hour)},
		{SessionID: session.ID, Offset: domain.ReminderOffset15min, RemindAt: start.Add(-15 * time.Minute)},
	}
	if err := repo.ReplaceForSession(ctx, tx, session.ID, reminders); err != nil {
		t.Fatalf("ReplaceForSession: %v", err)
	}

	due, err := repo.GetDue(ctx, tx, time.Now(), 10)
	if err != nil {
		t.Fatalf("GetDue: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("due reminders = %d, want 2 (24h and 1h)", len(due))
	}

	claimed, err := repo.MarkSent(ctx, tx, due[0].ID)
	if err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	if !claimed {
		t.Fatalf("first MarkSent did not claim the reminder")
	}

	claimed, err = repo.MarkSent(ctx, tx, due[0].ID)
	if err != nil {
		t.Fatalf("MarkSent repeat: %v", err)
	}
	if claimed {
		t.Fatalf("second MarkSent claimed an already sent reminder")
	}

	due, err = repo.GetDue(ctx, tx, time.Now(), 10)
	if err != nil {
		t.Fatalf("GetDue after send: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("due reminders after send = %d, want 1", len(due))
	}
}
