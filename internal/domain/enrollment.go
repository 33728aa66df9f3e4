package domain

import (
	"time"

	"github.com/google/uuid"
)

type Enrollment struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;index:idx_enrollment_user_course,unique" json:"user_id"`
	User     *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
	CourseID uuid.UUID `gorm:"type:uuid;not null;index:idx_enrollment_user_course,unique" json:"course_id"`
	Course   *Course   `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"course,omitempty"`

	EnrolledAt time.Time `gorm:"not null;default:now();column:enrolled_at" json:"enrolled_at"`

	// Progress is the cached percent of course lectures completed. Only the
	// progress aggregator writes it.
	Progress int `gorm:"not null;default:0;column:progress" json:"progress"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Enrollment) TableName() string { return "enrollment" }

type LectureCompletion struct {
	ID           uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EnrollmentID uuid.UUID   `gorm:"type:uuid;not null;index:idx_completion_enrollment_lecture,unique" json:"enrollment_id"`
	Enrollment   *Enrollment `gorm:"constraint:OnDelete:CASCADE;foreignKey:EnrollmentID;references:ID" json:"-"`
	LectureID    uuid.UUID   `gorm:"type:uuid;not null;index:idx_completion_enrollment_lecture,unique" json:"lecture_id"`
	Lecture      *Lecture    `gorm:"constraint:OnDelete:CASCADE;foreignKey:LectureID;references:ID" json:"-"`

	CompletedAt time.Time `gorm:"not null;default:now();column:completed_at" json:"completed_at"`
}

func (LectureCompletion) TableName() string { return "lecture_completion" }

// QuizResult is the best-score cache per (enrollment, quiz). The full
// attempt history lives in quiz_attempt; this row only answers "best score
// so far" without scanning the log.
type QuizResult struct {
	ID           uuid.UUID   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EnrollmentID uuid.UUID   `gorm:"type:uuid;not null;index:idx_result_enrollment_quiz,unique" json:"enrollment_id"`
	Enrollment   *Enrollment `gorm:"constraint:OnDelete:CASCADE;foreignKey:EnrollmentID;references:ID" json:"-"`
	QuizID       uuid.UUID   `gorm:"type:uuid;not null;index:idx_result_enrollment_quiz,unique" json:"quiz_id"`
	Quiz         *Quiz       `gorm:"constraint:OnDelete:CASCADE;foreignKey:QuizID;references:ID" json:"-"`

	BestScore   float64   `gorm:"not null;column:best_score" json:"best_score"`
	CompletedAt time.Time `gorm:"not null;default:now();column:completed_at" json:"completed_at"`
}

func (QuizResult) TableName() string { return "quiz_result" }
