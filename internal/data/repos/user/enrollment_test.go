package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/openlearnhq/openlearn-backend/internal/data/repos/testutil"
	"github.com/openlearnhq/openlearn-backend/internal/domain"
)

func TestEnrollmentGetByUserAndCourse(t *testing.T) {
	tx := testutil.Tx(t)
	repo := NewEnrollmentRepo(testutil.DB(t), testutil.Logger(t))
	ctx := context.Background()

	instructor := testutil.SeedUser(t, tx, domain.RoleInstructor)
	student := testutil.SeedUser(t, tx, domain.RoleStudent)
	course := testutil.SeedCourse(t, tx, instructor.ID)
	seeded := testutil.SeedEnrollment(t, tx, student.ID, course.ID)

	found, err := repo.GetByUserAndCourse(ctx, tx, student.ID, course.ID)
	if err != nil {
		t.Fatalf("GetByUserAndCourse: %v", err)
	}
	if found == nil || found.ID != seeded.ID {
		t.Fatalf("enrollment = %+v, want %v", found, seeded.ID)
	}

	missing, err := repo.GetByUserAndCourse(ctx, tx, uuid.New(), course.ID)
	if err != nil {
		t.Fatalf("GetByUserAndCourse miss: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown user, got %+v", missing)
	}
}

func TestAddCompletionIsIdempotent(t *testing.T) {
	tx := testutil.Tx(t)
	repo := NewEnrollmentRepo(testutil.DB(t), testutil.Logger(t))
	ctx := context.Background()

	instructor := testutil.SeedUser(t, tx, domain.RoleInstructor)
	student := testutil.SeedUser(t, tx, domain.RoleStudent)
	course := testutil.SeedCourse(t, tx, instructor.ID)
	section := testutil.SeedSection(t, tx, course.ID, 0)
	lecture := testutil.SeedLecture(t, tx, course.ID, section.ID, 0)
	enrollment := testutil.SeedEnrollment(t, tx, student.ID, course.ID)

	inserted, err := repo.AddCompletion(ctx, tx, enrollment.ID, lecture.ID, time.Now())
	if err != nil {
		t.Fatalf("AddCompletion: %v", err)
	}
	if !inserted {
		t.Fatalf("first completion not inserted")
	}

	inserted, err = repo.AddCompletion(ctx, tx, enrollment.ID, lecture.ID, time.Now())
	if err != nil {
		t.Fatalf("AddCompletion repeat: %v", err)
	}
	if inserted {
		t.Fatalf("duplicate completion reported as inserted")
	}

	count, err := repo.CountCompletions(ctx, tx, enrollment.ID)
	if err != nil {
		t.Fatalf("CountCompletions: %v", err)
	}
	if count != 1 {
		t.Fatalf("completions = %d, want 1", count)
	}
}

func TestUpdateProgressPersists(t *testing.T) {
	tx := testutil.Tx(t)
	repo := NewEnrollmentRepo(testutil.DB(t), testutil.Logger(t))
	ctx := context.Background()

	instructor := testutil.SeedUser(t, tx, domain.RoleInstructor)
	student := testutil.SeedUser(t, tx, domain.RoleStudent)
	course := testutil.SeedCourse(t, tx, instructor.ID)
	enrollment := testutil.SeedEnrollment(t, tx, student.ID, course.ID)

	if err := repo.UpdateProgress(ctx, tx, enrollment.ID, 40); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}

	reloaded, err := repo.GetByIDs(ctx, tx, []uuid.UUID{enrollment.ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(reloaded) != 1 || reloaded[0].Progress != 40 {
		t.Fatalf("progress = %+v, want 40", reloaded)
	}
}

func TestQuizResultUpdateBestScoreOnlyImproves(t *testing.T) {
	tx := testutil.Tx(t)
	results := NewQuizResultRepo(testutil.DB(t), testutil.Logger(t))
	ctx := context.Background()

	instructor := testutil.SeedUser(t, tx, domain.RoleInstructor)
	student := testutil.SeedUser(t, tx, domain.RoleStudent)
	course := testutil.SeedCourse(t, tx, instructor.ID)
	quiz := testutil.SeedQuiz(t, tx, course.ID, nil)
	enrollment := testutil.SeedEnrollment(t, tx, student.ID, course.ID)

	firstAttempt := time.Now().Add(-time.Hour).Truncate(time.Second)
	created, err := results.Create(ctx, tx, &domain.QuizResult{
		EnrollmentID: enrollment.ID,
		QuizID:       quiz.ID,
		BestScore:    60,
		CompletedAt:  firstAttempt,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// A lower score must not overwrite the cached best or its timestamp.
	if err := results.UpdateBestScore(ctx, tx, created.ID, 40, time.Now()); err != nil {
		t.Fatalf("UpdateBestScore lower: %v", err)
	}
	cached, err := results.GetByEnrollmentAndQuiz(ctx, tx, enrollment.ID, quiz.ID)
	if err != nil {
		t.Fatalf("GetByEnrollmentAndQuiz: %v", err)
	}
	if cached.BestScore != 60 {
		t.Fatalf("best score = %v after lower attempt, want 60", cached.BestScore)
	}
	if !cached.CompletedAt.Equal(firstAttempt) {
		t.Fatalf("completed_at moved by a losing attempt: %v", cached.CompletedAt)
	}

	bestAttempt := time.Now().Truncate(time.Second)
	if err := results.UpdateBestScore(ctx, tx, created.ID, 85, bestAttempt); err != nil {
		t.Fatalf("UpdateBestScore higher: %v", err)
	}
	cached, err = results.GetByEnrollmentAndQuiz(ctx, tx, enrollment.ID, quiz.ID)
	if err != nil {
		t.Fatalf("GetByEnrollmentAndQuiz: %v", err)
	}
	if cached.BestScore != 85 {
		t.Fatalf("best score = %v after higher attempt, want 85", cached.BestScore)
	}
	if !cached.CompletedAt.Equal(bestAttempt) {
		t.Fatalf("completed_at = %v, want refreshed to the winning attempt", cached.CompletedAt)
	}
}
