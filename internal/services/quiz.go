package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	catalogrepo "github.com/openlearnhq/openlearn-backend/internal/data/repos/catalog"
	userrepo "github.com/openlearnhq/openlearn-backend/internal/data/repos/user"
	"github.com/openlearnhq/openlearn-backend/internal/domain"
	"github.com/openlearnhq/openlearn-backend/internal/platform/apperr"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
)

type QuizQuestionInput struct {
	Type          string                  `json:"type"`
	Text          string                  `json:"text"`
	Options       []domain.QuestionOption `json:"options"`
	CorrectAnswer string                  `json:"correct_answer"`
	Explanation   string                  `json:"explanation"`
	Points        float64                 `json:"points"`
}

type CreateQuizInput struct {
	Title                      string              `json:"title"`
	Description                string              `json:"description"`
	PassingScore               float64             `json:"passing_score"`
	TimeLimitMinutes           int                 `json:"time_limit_minutes"`
	AttemptsAllowed            int                 `json:"attempts_allowed"`
	Active                     *bool               `json:"active"`
	StartDate                  *time.Time          `json:"start_date"`
	EndDate                    *time.Time          `json:"end_date"`
	ShuffleQuestions           bool                `json:"shuffle_questions"`
	ShuffleOptions             bool                `json:"shuffle_options"`
	AllowReview                *bool               `json:"allow_review"`
	ShowAnswersAfterSubmission *bool               `json:"show_answers_after_submission"`
	Questions                  []QuizQuestionInput `json:"questions"`
}

type SubmitQuizInput struct {
	Answers          []json.RawMessage `json:"answers"`
	TimeSpentSeconds int               `json:"time_spent_seconds"`
}

// SubmitQuizResult is what a student sees right after grading.
type SubmitQuizResult struct {
	AttemptID    uuid.UUID             `json:"attempt_id"`
	Score        float64               `json:"score"`
	Passed       bool                  `json:"passed"`
	PointsEarned float64               `json:"points_earned"`
	PointsTotal  float64               `json:"points_total"`
	Answers      []domain.ScoredAnswer `json:"answers,omitempty"`
}

type QuizService interface {
	Create(ctx context.Context, actorID uuid.UUID, actorRole string, courseID uuid.UUID, input CreateQuizInput) (*domain.Quiz, error)
	Update(ctx context.Context, actorID uuid.UUID, actorRole string, quizID uuid.UUID, input CreateQuizInput) (*domain.Quiz, error)
	Delete(ctx context.Context, actorID uuid.UUID, actorRole string, quizID uuid.UUID) error
	Get(ctx context.Context, actorID uuid.UUID, actorRole string, quizID uuid.UUID) (*domain.Quiz, error)
	GetForTaking(ctx context.Context, userID, quizID uuid.UUID) (*domain.Quiz, error)
	ListByCourse(ctx context.Context, courseID uuid.UUID) ([]*domain.Quiz, error)
	Submit(ctx context.Context, userID, quizID uuid.UUID, input SubmitQuizInput) (*SubmitQuizResult, error)
	ListAttempts(ctx context.Context, userID uuid.UUID, userRole string, quizID uuid.UUID) ([]*domain.QuizAttempt, error)
}

type quizService struct {
	db             *gorm.DB
	quizRepo       catalogrepo.QuizRepo
	attemptRepo    catalogrepo.QuizAttemptRepo
	courseRepo     catalogrepo.CourseRepo
	enrollmentRepo userrepo.EnrollmentRepo
	progress       ProgressService
	log            *logger.Logger
}

func NewQuizService(
	db *gorm.DB,
	quizRepo catalogrepo.QuizRepo,
	attemptRepo catalogrepo.QuizAttemptRepo,
	courseRepo catalogrepo.CourseRepo,
	enrollmentRepo userrepo.EnrollmentRepo,
	progress ProgressService,
	baseLog *logger.Logger,
) QuizService {
	return &quizService{
		db:             db,
		quizRepo:       quizRepo,
		attemptRepo:    attemptRepo,
		courseRepo:     courseRepo,
		enrollmentRepo: enrollmentRepo,
		progress:       progress,
		log:            baseLog.With("service", "QuizService"),
	}
}

func (s *quizService) Create(ctx context.Context, actorID uuid.UUID, actorRole string, courseID uuid.UUID, input CreateQuizInput) (*domain.Quiz, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperr.E(apperr.KindValidation, "quiz title is required")
	}
	if err := s.requireCourseOwner(ctx, actorID, actorRole, courseID); err != nil {
		return nil, err
	}

	questions, err := buildQuestions(input.Questions)
	if err != nil {
		return nil, err
	}

	quiz := &domain.Quiz{
		CourseID:                   courseID,
		Title:                      strings.TrimSpace(input.Title),
		Description:                input.Description,
		PassingScore:               input.PassingScore,
		TimeLimitMinutes:           input.TimeLimitMinutes,
		AttemptsAllowed:            input.AttemptsAllowed,
		Active:                     true,
		StartDate:                  input.StartDate,
		EndDate:                    input.EndDate,
		ShuffleQuestions:           input.ShuffleQuestions,
		ShuffleOptions:             input.ShuffleOptions,
		AllowReview:                true,
		ShowAnswersAfterSubmission: true,
	}
	if quiz.PassingScore == 0 {
		quiz.PassingScore = 70
	}
	if input.Active != nil {
		quiz.Active = *input.Active
	}
	if input.AllowReview != nil {
		quiz.AllowReview = *input.AllowReview
	}
	if input.ShowAnswersAfterSubmission != nil {
		quiz.ShowAnswersAfterSubmission = *input.ShowAnswersAfterSubmission
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.quizRepo.Create(ctx, tx, quiz); err != nil {
			return err
		}
		return s.quizRepo.ReplaceQuestions(ctx, tx, quiz.ID, questions)
	})
	if err != nil {
		return nil, err
	}
	quiz.Questions = questions

	s.log.Info("Created quiz", "quiz_id", quiz.ID, "course_id", courseID, "questions", len(questions))
	return quiz, nil
}

func (s *quizService) Update(ctx context.Context, actorID uuid.UUID, actorRole string, quizID uuid.UUID, input CreateQuizInput) (*domain.Quiz, error) {
	quiz, err := s.getQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := s.requireCourseOwner(ctx, actorID, actorRole, quiz.CourseID); err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.Title) != "" {
		quiz.Title = strings.TrimSpace(input.Title)
	}
	quiz.Description = input.Description
	if input.PassingScore > 0 {
		quiz.PassingScore = input.PassingScore
	}
	quiz.TimeLimitMinutes = input.TimeLimitMinutes
	quiz.AttemptsAllowed = input.AttemptsAllowed
	quiz.StartDate = input.StartDate
	quiz.EndDate = input.EndDate
	quiz.ShuffleQuestions = input.ShuffleQuestions
	quiz.ShuffleOptions = input.ShuffleOptions
	if input.Active != nil {
		quiz.Active = *input.Active
	}
	if input.AllowReview != nil {
		quiz.AllowReview = *input.AllowReview
	}
	if input.ShowAnswersAfterSubmission != nil {
		quiz.ShowAnswersAfterSubmission = *input.ShowAnswersAfterSubmission
	}

	questions, err := buildQuestions(input.Questions)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.quizRepo.Update(ctx, tx, quiz); err != nil {
			return err
		}
		return s.quizRepo.ReplaceQuestions(ctx, tx, quiz.ID, questions)
	})
	if err != nil {
		return nil, err
	}
	quiz.Questions = questions
	return quiz, nil
}

func (s *quizService) Delete(ctx context.Context, actorID uuid.UUID, actorRole string, quizID uuid.UUID) error {
	quiz, err := s.getQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	if err := s.requireCourseOwner(ctx, actorID, actorRole, quiz.CourseID); err != nil {
		return err
	}
	return s.quizRepo.Delete(ctx, nil, quizID)
}

func (s *quizService) Get(ctx context.Context, actorID uuid.UUID, actorRole string, quizID uuid.UUID) (*domain.Quiz, error) {
	quiz, err := s.getQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := s.requireCourseOwner(ctx, actorID, actorRole, quiz.CourseID); err != nil {
		return nil, err
	}
	return quiz, nil
}

// GetForTaking returns the quiz a student sees: same preconditions as
// Submit. Answer keys stay in the payload when the quiz shows answers
// after submission; otherwise they are stripped from every question.
func (s *quizService) GetForTaking(ctx context.Context, userID, quizID uuid.UUID) (*domain.Quiz, error) {
	quiz, _, err := s.requireTakeable(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.ShowAnswersAfterSubmission {
		return quiz, nil
	}

	for _, question := range quiz.Questions {
		opts, err := question.DecodedOptions()
		if err != nil {
			return nil, err
		}
		for i := range opts {
			opts[i].IsCorrect = false
		}
		stripped, err := domain.EncodeOptions(opts)
		if err != nil {
			return nil, err
		}
		question.Options = stripped
		question.CorrectAnswer = ""
		question.Explanation = ""
	}
	return quiz, nil
}

func (s *quizService) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]*domain.Quiz, error) {
	return s.quizRepo.GetByCourseIDs(ctx, nil, []uuid.UUID{courseID})
}

// Submit grades the answers, appends an attempt and refreshes the best-score
// cache. Preconditions run in order: quiz exists, caller is enrolled, quiz
// is active, the window is open, attempts remain.
func (s *quizService) Submit(ctx context.Context, userID, quizID uuid.UUID, input SubmitQuizInput) (*SubmitQuizResult, error) {
	quiz, enrollment, err := s.requireTakeable(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}

	if quiz.AttemptsAllowed > 0 {
		taken, err := s.attemptRepo.CountByQuizAndUser(ctx, nil, quizID, userID)
		if err != nil {
			return nil, err
		}
		if taken >= int64(quiz.AttemptsAllowed) {
			return nil, apperr.E(apperr.KindAttemptsExceeded, "no attempts remaining for this quiz")
		}
	}

	score, earned, total, scored, err := gradeAttempt(quiz, input.Answers)
	if err != nil {
		return nil, err
	}

	answersJSON, err := json.Marshal(scored)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	attempt := &domain.QuizAttempt{
		QuizID:           quizID,
		UserID:           userID,
		Score:            score,
		Answers:          datatypes.JSON(answersJSON),
		SubmittedAt:      now,
		TimeSpentSeconds: input.TimeSpentSeconds,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.attemptRepo.Create(ctx, tx, attempt); err != nil {
			return err
		}
		return s.progress.RecordQuizResult(ctx, tx, enrollment.ID, quizID, score, now)
	})
	if err != nil {
		return nil, err
	}

	// The submitter always gets the graded review back; the
	// show_answers_after_submission flag only gates the keys on fetch.
	result := &SubmitQuizResult{
		AttemptID:    attempt.ID,
		Score:        score,
		Passed:       score >= quiz.PassingScore,
		PointsEarned: earned,
		PointsTotal:  total,
		Answers:      scored,
	}

	s.log.Info("Graded quiz attempt", "quiz_id", quizID, "user_id", userID, "score", score)
	return result, nil
}

// ListAttempts returns the caller's own attempts; the course owner gets
// every attempt on the quiz.
func (s *quizService) ListAttempts(ctx context.Context, userID uuid.UUID, userRole string, quizID uuid.UUID) ([]*domain.QuizAttempt, error) {
	quiz, err := s.getQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	courses, err := s.courseRepo.GetByIDs(ctx, nil, []uuid.UUID{quiz.CourseID})
	if err != nil {
		return nil, err
	}
	if len(courses) > 0 && (courses[0].InstructorID == userID || userRole == domain.RoleAdmin) {
		return s.attemptRepo.GetByQuizIDs(ctx, nil, []uuid.UUID{quizID})
	}

	if !quiz.AllowReview {
		return nil, apperr.E(apperr.KindNotAuthorized, "attempt review is disabled for this quiz")
	}
	return s.attemptRepo.GetByQuizAndUser(ctx, nil, quizID, userID)
}

func (s *quizService) getQuiz(ctx context.Context, quizID uuid.UUID) (*domain.Quiz, error) {
	quiz, err := s.quizRepo.GetByID(ctx, nil, quizID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, apperr.E(apperr.KindNotFound, "quiz not found")
	}
	return quiz, nil
}

func (s *quizService) requireCourseOwner(ctx context.Context, actorID uuid.UUID, actorRole string, courseID uuid.UUID) error {
	courses, err := s.courseRepo.GetByIDs(ctx, nil, []uuid.UUID{courseID})
	if err != nil {
		return err
	}
	if len(courses) == 0 {
		return apperr.E(apperr.KindNotFound, "course not found")
	}
	if courses[0].InstructorID != actorID && actorRole != domain.RoleAdmin {
		return apperr.E(apperr.KindNotAuthorized, "you do not own this course")
	}
	return nil
}

func (s *quizService) requireTakeable(ctx context.Context, userID, quizID uuid.UUID) (*domain.Quiz, *domain.Enrollment, error) {
	quiz, err := s.getQuiz(ctx, quizID)
	if err != nil {
		return nil, nil, err
	}

	enrollment, err := s.enrollmentRepo.GetByUserAndCourse(ctx, nil, userID, quiz.CourseID)
	if err != nil {
		return nil, nil, err
	}
	if enrollment == nil {
		return nil, nil, apperr.E(apperr.KindNotEnrolled, "you are not enrolled in this course")
	}

	if !quiz.Active {
		return nil, nil, apperr.E(apperr.KindQuizInactive, "quiz is not active")
	}
	now := time.Now()
	if quiz.StartDate != nil && now.Before(*quiz.StartDate) {
		return nil, nil, apperr.E(apperr.KindNotStarted, "quiz has not started yet")
	}
	if quiz.EndDate != nil && now.After(*quiz.EndDate) {
		return nil, nil, apperr.E(apperr.KindEnded, "quiz has ended")
	}
	return quiz, enrollment, nil
}

func buildQuestions(inputs []QuizQuestionInput) ([]*domain.QuizQuestion, error) {
	if len(inputs) == 0 {
		return nil, apperr.E(apperr.KindValidation, "a quiz needs at least one question")
	}

	questions := make([]*domain.QuizQuestion, 0, len(inputs))
	for i, input := range inputs {
		if strings.TrimSpace(input.Text) == "" {
			return nil, apperr.E(apperr.KindValidation, "question text is required")
		}

		questionType := input.Type
		if questionType == "" {
			questionType = domain.QuestionTypeMultipleChoice
		}
		switch questionType {
		case domain.QuestionTypeMultipleChoice, domain.QuestionTypeTrueFalse, domain.QuestionTypeCheckbox:
			if len(input.Options) < 2 {
				return nil, apperr.E(apperr.KindValidation, "choice questions need at least two options")
			}
			correct := 0
			for _, opt := range input.Options {
				if opt.IsCorrect {
					correct++
				}
			}
			if correct == 0 {
				return nil, apperr.E(apperr.KindValidation, "choice questions need a correct option")
			}
		case domain.QuestionTypeFillInBlank:
			if strings.TrimSpace(input.CorrectAnswer) == "" {
				return nil, apperr.E(apperr.KindValidation, "fill-in-blank questions need a correct answer")
			}
		default:
			return nil, apperr.E(apperr.KindValidation, "unknown question type: "+questionType)
		}

		points := input.Points
		if points <= 0 {
			points = 1
		}
		options, err := domain.EncodeOptions(input.Options)
		if err != nil {
			return nil, err
		}
		questions = append(questions, &domain.QuizQuestion{
			Position:      i,
			Type:          questionType,
			Text:          strings.TrimSpace(input.Text),
			Options:       options,
			CorrectAnswer: input.CorrectAnswer,
			Explanation:   input.Explanation,
			Points:        points,
		})
	}
	return questions, nil
}

// gradeAttempt scores answers against the question list in position order.
// Missing or malformed answers score zero for that question rather than
// failing the whole submission.
func gradeAttempt(quiz *domain.Quiz, answers []json.RawMessage) (score, earned, total float64, scored []domain.ScoredAnswer, err error) {
	scored = make([]domain.ScoredAnswer, 0, len(quiz.Questions))

	for i, question := range quiz.Questions {
		total += question.Points

		var answer json.RawMessage
		if i < len(answers) {
			answer = answers[i]
		}

		correct, gradeErr := gradeQuestion(question, answer)
		if gradeErr != nil {
			return 0, 0, 0, nil, gradeErr
		}

		entry := domain.ScoredAnswer{QuestionIndex: i, Answer: answer, IsCorrect: correct}
		if correct {
			entry.PointsEarned = question.Points
			earned += question.Points
		}
		scored = append(scored, entry)
	}

	// The stored score is exact; rounding here could flip passed at the
	// passing-score boundary.
	if total > 0 {
		score = earned / total * 100
	}
	return score, earned, total, scored, nil
}

func gradeQuestion(question *domain.QuizQuestion, answer json.RawMessage) (bool, error) {
	if len(answer) == 0 {
		return false, nil
	}

	switch question.Type {
	case domain.QuestionTypeMultipleChoice, domain.QuestionTypeTrueFalse:
		var index int
		if err := json.Unmarshal(answer, &index); err != nil {
			return false, nil
		}
		opts, err := question.DecodedOptions()
		if err != nil {
			return false, err
		}
		return index >= 0 && index < len(opts) && opts[index].IsCorrect, nil

	case domain.QuestionTypeCheckbox:
		var indices []int
		if err := json.Unmarshal(answer, &indices); err != nil {
			return false, nil
		}
		opts, err := question.DecodedOptions()
		if err != nil {
			return false, err
		}
		selected := make(map[int]bool, len(indices))
		for _, index := range indices {
			if index < 0 || index >= len(opts) {
				return false, nil
			}
			selected[index] = true
		}
		// Exact set match: every correct option picked, nothing extra.
		for i, opt := range opts {
			if opt.IsCorrect != selected[i] {
				return false, nil
			}
		}
		return true, nil

	case domain.QuestionTypeFillInBlank:
		var text string
		if err := json.Unmarshal(answer, &text); err != nil {
			return false, nil
		}
		given := strings.ToLower(strings.TrimSpace(text))
		expected := strings.ToLower(strings.TrimSpace(question.CorrectAnswer))
		return given != "" && given == expected, nil

	default:
		return false, nil
	}
}
