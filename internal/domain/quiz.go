package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	QuestionTypeMultipleChoice = "multiple-choice"
	QuestionTypeTrueFalse      = "true-false"
	QuestionTypeCheckbox       = "checkbox"
	QuestionTypeFillInBlank    = "fill-in-blank"
)

type Quiz struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourseID    uuid.UUID `gorm:"type:uuid;not null;index" json:"course_id"`
	Course      *Course   `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"-"`
	Title       string    `gorm:"not null;column:title" json:"title"`
	Description string    `gorm:"type:text;column:description" json:"description,omitempty"`

	PassingScore     float64    `gorm:"not null;default:70;column:passing_score" json:"passing_score"`
	TimeLimitMinutes int        `gorm:"not null;default:0;column:time_limit_minutes" json:"time_limit_minutes"`
	AttemptsAllowed  int        `gorm:"not null;default:0;column:attempts_allowed" json:"attempts_allowed"`
	Active           bool       `gorm:"not null;default:true;column:active" json:"active"`
	StartDate        *time.Time `gorm:"column:start_date" json:"start_date,omitempty"`
	EndDate          *time.Time `gorm:"column:end_date" json:"end_date,omitempty"`

	ShuffleQuestions           bool `gorm:"not null;default:false;column:shuffle_questions" json:"shuffle_questions"`
	ShuffleOptions             bool `gorm:"not null;default:false;column:shuffle_options" json:"shuffle_options"`
	AllowReview                bool `gorm:"not null;default:true;column:allow_review" json:"allow_review"`
	ShowAnswersAfterSubmission bool `gorm:"not null;default:true;column:show_answers_after_submission" json:"show_answers_after_submission"`

	Questions []*QuizQuestion `gorm:"foreignKey:QuizID;references:ID" json:"questions,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Quiz) TableName() string { return "quiz" }

// TotalPoints is the denominator of every attempt score.
func (q *Quiz) TotalPoints() float64 {
	var total float64
	for _, question := range q.Questions {
		total += question.Points
	}
	return total
}

type QuestionOption struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
}

type QuizQuestion struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	QuizID uuid.UUID `gorm:"type:uuid;not null;index" json:"quiz_id"`
	Quiz   *Quiz     `gorm:"constraint:OnDelete:CASCADE;foreignKey:QuizID;references:ID" json:"-"`

	Position int    `gorm:"not null;column:position" json:"position"`
	Type     string `gorm:"not null;default:'multiple-choice';column:type" json:"type"`
	Text     string `gorm:"not null;type:text;column:text" json:"text"`

	// Options holds []QuestionOption for choice questions; CorrectAnswer is
	// the expected string for fill-in-blank.
	Options       datatypes.JSON `gorm:"type:jsonb;column:options" json:"options,omitempty"`
	CorrectAnswer string         `gorm:"column:correct_answer" json:"correct_answer,omitempty"`
	Explanation   string         `gorm:"type:text;column:explanation" json:"explanation,omitempty"`
	Points        float64        `gorm:"not null;default:1;column:points" json:"points"`

	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (QuizQuestion) TableName() string { return "quiz_question" }

func (q *QuizQuestion) DecodedOptions() ([]QuestionOption, error) {
	if len(q.Options) == 0 {
		return nil, nil
	}
	var opts []QuestionOption
	if err := json.Unmarshal(q.Options, &opts); err != nil {
		return nil, err
	}
	return opts, nil
}

func EncodeOptions(opts []QuestionOption) (datatypes.JSON, error) {
	raw, err := json.Marshal(opts)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// ScoredAnswer is one entry of QuizAttempt.Answers.
type ScoredAnswer struct {
	QuestionIndex int             `json:"question_index"`
	Answer        json.RawMessage `json:"answer"`
	IsCorrect     bool            `json:"is_correct"`
	PointsEarned  float64         `json:"points_earned"`
}

// QuizAttempt rows are append-only: a re-submission creates a new row and
// never touches a prior one.
type QuizAttempt struct {
	ID     uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	QuizID uuid.UUID `gorm:"type:uuid;not null;index:idx_attempt_quiz_user" json:"quiz_id"`
	Quiz   *Quiz     `gorm:"constraint:OnDelete:CASCADE;foreignKey:QuizID;references:ID" json:"-"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_attempt_quiz_user" json:"user_id"`
	User   *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`

	Score            float64        `gorm:"not null;column:score" json:"score"`
	Answers          datatypes.JSON `gorm:"type:jsonb;column:answers" json:"answers"`
	SubmittedAt      time.Time      `gorm:"not null;default:now();index" json:"submitted_at"`
	TimeSpentSeconds int            `gorm:"not null;default:0;column:time_spent_seconds" json:"time_spent_seconds"`
}

func (QuizAttempt) TableName() string { return "quiz_attempt" }

func (a *QuizAttempt) DecodedAnswers() ([]ScoredAnswer, error) {
	if len(a.Answers) == 0 {
		return nil, nil
	}
	var answers []ScoredAnswer
	if err := json.Unmarshal(a.Answers, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}
