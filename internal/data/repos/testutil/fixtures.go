package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/openlearnhq/openlearn-backend/internal/domain"
)

func SeedUser(t *testing.T, tx *gorm.DB, role string) *domain.User {
	t.Helper()

	u := &domain.User{
		Email:    fmt.Sprintf("%s@example.com", uuid.NewString()),
		Password: "$2a$10$seeded-password-hash",
		Name:     "Test " + role,
		Role:     role,
	}
	if err := tx.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCourse(t *testing.T, tx *gorm.DB, instructorID uuid.UUID) *domain.Course {
	t.Helper()

	c := &domain.Course{
		Title:        "Test Course",
		Slug:         "test-course-" + uuid.NewString(),
		Description:  "A course used in tests",
		InstructorID: instructorID,
		Category:     "programming",
		Level:        domain.LevelBeginner,
		Language:     "English",
		Published:    true,
	}
	if err := tx.Create(c).Error; err != nil {
		t.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedSection(t *testing.T, tx *gorm.DB, courseID uuid.UUID, position int) *domain.CourseSection {
	t.Helper()

	s := &domain.CourseSection{
		CourseID: courseID,
		Title:    fmt.Sprintf("Section %d", position),
		Position: position,
	}
	if err := tx.Create(s).Error; err != nil {
		t.Fatalf("seed section: %v", err)
	}
	return s
}

func SeedLecture(t *testing.T, tx *gorm.DB, courseID, sectionID uuid.UUID, position int) *domain.Lecture {
	t.Helper()

	l := &domain.Lecture{
		CourseID:        courseID,
		SectionID:       sectionID,
		Position:        position,
		Title:           fmt.Sprintf("Lecture %d", position),
		VideoURL:        "https://cdn.example.com/video.mp4",
		DurationSeconds: 600,
	}
	if err := tx.Create(l).Error; err != nil {
		t.Fatalf("seed lecture: %v", err)
	}
	return l
}

func SeedEnrollment(t *testing.T, tx *gorm.DB, userID, courseID uuid.UUID) *domain.Enrollment {
	t.Helper()

	e := &domain.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		EnrolledAt: time.Now(),
	}
	if err := tx.Create(e).Error; err != nil {
		t.Fatalf("seed enrollment: %v", err)
	}
	return e
}

func SeedQuiz(t *testing.T, tx *gorm.DB, courseID uuid.UUID, questions []*domain.QuizQuestion) *domain.Quiz {
	t.Helper()

	q := &domain.Quiz{
		CourseID:     courseID,
		Title:        "Test Quiz",
		PassingScore: 70,
		Active:       true,
	}
	if err := tx.Create(q).Error; err != nil {
		t.Fatalf("seed quiz: %v", err)
	}
	for i, question := range questions {
		question.QuizID = q.ID
		question.Position = i
		if err := tx.Create(question).Error; err != nil {
			t.Fatalf("seed quiz question: %v", err)
		}
	}
	q.Questions = questions
	return q
}

func SeedSession(t *testing.T, tx *gorm.DB, instructorID uuid.UUID, start time.Time) *domain.LiveSession {
	t.Helper()

	s := &domain.LiveSession{
		InstructorID: instructorID,
		Title:        "Test Session",
		StartTime:    start,
		EndTime:      start.Add(time.Hour),
		RoomID:       "room-" + uuid.NewString(),
		Status:       domain.SessionStatusScheduled,
	}
	if err := tx.Create(s).Error; err != nil {
		t.Fatalf("seed live session: %v", err)
	}
	return s
}
