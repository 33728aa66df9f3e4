package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	catalogrepo "github.com/openlearnhq/openlearn-backend/internal/data/repos/catalog"
	userrepo "github.com/openlearnhq/openlearn-backend/internal/data/repos/user"
	"github.com/openlearnhq/openlearn-backend/internal/domain"
	"github.com/openlearnhq/openlearn-backend/internal/platform/apperr"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("create test logger: %v", err)
	}
	return log
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open in-memory database: %v", err)
	}
	return db
}

func mustOptions(t *testing.T, opts []domain.QuestionOption) datatypes.JSON {
	t.Helper()
	encoded, err := domain.EncodeOptions(opts)
	if err != nil {
		t.Fatalf("encode options: %v", err)
	}
	return encoded
}

func choiceQuestion(t *testing.T, points float64, correctIndex int) *domain.QuizQuestion {
	t.Helper()
	opts := []domain.QuestionOption{
		{Text: "a"}, {Text: "b"}, {Text: "c"},
	}
	opts[correctIndex].IsCorrect = true
	return &domain.QuizQuestion{
		Type:    domain.QuestionTypeMultipleChoice,
		Text:    "pick one",
		Options: mustOptions(t, opts),
		Points:  points,
	}
}

func rawAnswer(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal answer: %v", err)
	}
	return raw
}

func TestGradeAttemptScoreFormula(t *testing.T) {
	quiz := &domain.Quiz{Questions: []*domain.QuizQuestion{
		choiceQuestion(t, 1, 0),
		choiceQuestion(t, 2, 1),
	}}

	// Only the 1-point question answered correctly: 1/3 of the points.
	score, earned, total, scored, err := gradeAttempt(quiz, []json.RawMessage{
		rawAnswer(t, 0),
		rawAnswer(t, 2),
	})
	if err != nil {
		t.Fatalf("gradeAttempt: %v", err)
	}
	if want := 1.0 / 3.0 * 100; score != want {
		t.Fatalf("score = %v, want exact %v", score, want)
	}
	if earned != 1 || total != 3 {
		t.Fatalf("earned/total = %v/%v, want 1/3", earned, total)
	}
	if !scored[0].IsCorrect || scored[0].PointsEarned != 1 {
		t.Fatalf("first answer not credited: %+v", scored[0])
	}
	if scored[1].IsCorrect || scored[1].PointsEarned != 0 {
		t.Fatalf("second answer wrongly credited: %+v", scored[1])
	}
}

func TestGradeAttemptPerfectScore(t *testing.T) {
	quiz := &domain.Quiz{Questions: []*domain.QuizQuestion{
		choiceQuestion(t, 1, 0),
		choiceQuestion(t, 1, 2),
	}}

	score, _, _, _, err := gradeAttempt(quiz, []json.RawMessage{
		rawAnswer(t, 0),
		rawAnswer(t, 2),
	})
	if err != nil {
		t.Fatalf("gradeAttempt: %v", err)
	}
	if score != 100 {
		t.Fatalf("score = %v, want 100", score)
	}
}

func TestGradeAttemptZeroTotalPoints(t *testing.T) {
	quiz := &domain.Quiz{Questions: nil}
	score, _, total, _, err := gradeAttempt(quiz, nil)
	if err != nil {
		t.Fatalf("gradeAttempt: %v", err)
	}
	if total != 0 || score != 0 {
		t.Fatalf("score/total = %v/%v, want 0/0", score, total)
	}
}

func TestGradeAttemptMissingAnswersScoreZero(t *testing.T) {
	quiz := &domain.Quiz{Questions: []*domain.QuizQuestion{
		choiceQuestion(t, 1, 0),
		choiceQuestion(t, 1, 1),
	}}

	score, _, _, scored, err := gradeAttempt(quiz, []json.RawMessage{rawAnswer(t, 0)})
	if err != nil {
		t.Fatalf("gradeAttempt: %v", err)
	}
	if score != 50 {
		t.Fatalf("score = %v, want 50", score)
	}
	if scored[1].IsCorrect {
		t.Fatalf("unanswered question marked correct")
	}
}

func TestGradeCheckboxExactSetMatch(t *testing.T) {
	question := &domain.QuizQuestion{
		Type: domain.QuestionTypeCheckbox,
		Options: mustOptions(t, []domain.QuestionOption{
			{Text: "a", IsCorrect: true},
			{Text: "b"},
			{Text: "c", IsCorrect: true},
		}),
		Points: 1,
	}

	cases := []struct {
		name    string
		answer  interface{}
		correct bool
	}{
		{"exact set", []int{0, 2}, true},
		{"order does not matter", []int{2, 0}, true},
		{"subset fails", []int{0}, false},
		{"superset fails", []int{0, 1, 2}, false},
		{"out of range fails", []int{0, 7}, false},
		{"empty fails", []int{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := gradeQuestion(question, rawAnswer(t, tc.answer))
			if err != nil {
				t.Fatalf("gradeQuestion: %v", err)
			}
			if got != tc.correct {
				t.Fatalf("correct = %v, want %v", got, tc.correct)
			}
		})
	}
}

func TestGradeFillInBlankNormalizes(t *testing.T) {
	question := &domain.QuizQuestion{
		Type:          domain.QuestionTypeFillInBlank,
		CorrectAnswer: "Goroutine",
		Points:        1,
	}

	cases := []struct {
		answer  string
		correct bool
	}{
		{"Goroutine", true},
		{"goroutine", true},
		{"  GOROUTINE  ", true},
		{"channel", false},
		{"", false},
	}
	for _, tc := range cases {
		got, err := gradeQuestion(question, rawAnswer(t, tc.answer))
		if err != nil {
			t.Fatalf("gradeQuestion(%q): %v", tc.answer, err)
		}
		if got != tc.correct {
			t.Fatalf("gradeQuestion(%q) = %v, want %v", tc.answer, got, tc.correct)
		}
	}
}

func TestGradeMalformedAnswerScoresZero(t *testing.T) {
	question := choiceQuestion(t, 1, 0)
	got, err := gradeQuestion(question, json.RawMessage(`"not an index"`))
	if err != nil {
		t.Fatalf("gradeQuestion: %v", err)
	}
	if got {
		t.Fatalf("malformed answer marked correct")
	}
}

func TestBuildQuestionsValidation(t *testing.T) {
	cases := []struct {
		name   string
		inputs []QuizQuestionInput
	}{
		{"empty quiz", nil},
		{"missing text", []QuizQuestionInput{{Type: domain.QuestionTypeFillInBlank, CorrectAnswer: "x"}}},
		{"one option", []QuizQuestionInput{{
			Text:    "q",
			Options: []domain.QuestionOption{{Text: "a", IsCorrect: true}},
		}}},
		{"no correct option", []QuizQuestionInput{{
			Text:    "q",
			Options: []domain.QuestionOption{{Text: "a"}, {Text: "b"}},
		}}},
		{"blank fill-in answer", []QuizQuestionInput{{
			Type: domain.QuestionTypeFillInBlank,
			Text: "q",
		}}},
		{"unknown type", []QuizQuestionInput{{Type: "essay", Text: "q"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := buildQuestions(tc.inputs); !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("err = %v, want validation error", err)
			}
		})
	}
}

func TestBuildQuestionsDefaultsPoints(t *testing.T) {
	questions, err := buildQuestions([]QuizQuestionInput{{
		Type:          domain.QuestionTypeFillInBlank,
		Text:          "q",
		CorrectAnswer: "a",
	}})
	if err != nil {
		t.Fatalf("buildQuestions: %v", err)
	}
	if questions[0].Points != 1 {
		t.Fatalf("points = %v, want default 1", questions[0].Points)
	}
}

// --- fakes for the submission flow ---

type fakeQuizRepo struct {
	catalogrepo.QuizRepo
	quiz *domain.Quiz
}

func (f *fakeQuizRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Quiz, error) {
	if f.quiz != nil && f.quiz.ID == id {
		return f.quiz, nil
	}
	return nil, nil
}

type fakeAttemptRepo struct {
	catalogrepo.QuizAttemptRepo
	attempts []*domain.QuizAttempt
}

func (f *fakeAttemptRepo) Create(ctx context.Context, tx *gorm.DB, attempt *domain.QuizAttempt) (*domain.QuizAttempt, error) {
	attempt.ID = uuid.New()
	f.attempts = append(f.attempts, attempt)
	return attempt, nil
}

func (f *fakeAttemptRepo) CountByQuizAndUser(ctx context.Context, tx *gorm.DB, quizID, userID uuid.UUID) (int64, error) {
	var count int64
	for _, attempt := range f.attempts {
		if attempt.QuizID == quizID && attempt.UserID == userID {
			count++
		}
	}
	return count, nil
}

type fakeEnrollmentRepo struct {
	userrepo.EnrollmentRepo
	enrollment *domain.Enrollment
}

func (f *fakeEnrollmentRepo) GetByUserAndCourse(ctx context.Context, tx *gorm.DB, userID, courseID uuid.UUID) (*domain.Enrollment, error) {
	if f.enrollment != nil && f.enrollment.UserID == userID && f.enrollment.CourseID == courseID {
		return f.enrollment, nil
	}
	return nil, nil
}

type recordedResult struct {
	enrollmentID uuid.UUID
	quizID       uuid.UUID
	score        float64
}

type fakeProgress struct {
	ProgressService
	recorded []recordedResult
}

func (f *fakeProgress) RecordQuizResult(ctx context.Context, tx *gorm.DB, enrollmentID, quizID uuid.UUID, score float64, at time.Time) error {
	f.recorded = append(f.recorded, recordedResult{enrollmentID, quizID, score})
	return nil
}

type quizFixture struct {
	service     QuizService
	quiz        *domain.Quiz
	userID      uuid.UUID
	attemptRepo *fakeAttemptRepo
	progress    *fakeProgress
}

func newQuizFixture(t *testing.T, mutate func(*domain.Quiz)) *quizFixture {
	t.Helper()

	userID := uuid.New()
	courseID := uuid.New()
	quiz := &domain.Quiz{
		ID:           uuid.New(),
		CourseID:     courseID,
		Title:        "fixture quiz",
		PassingScore: 70,
		Active:       true,
		Questions: []*domain.QuizQuestion{
			choiceQuestion(t, 1, 0),
			choiceQuestion(t, 1, 1),
		},
	}
	if mutate != nil {
		mutate(quiz)
	}

	enrollment := &domain.Enrollment{ID: uuid.New(), UserID: userID, CourseID: courseID}
	attemptRepo := &fakeAttemptRepo{}
	progress := &fakeProgress{}

	service := NewQuizService(
		testDB(t),
		&fakeQuizRepo{quiz: quiz},
		attemptRepo,
		nil,
		&fakeEnrollmentRepo{enrollment: enrollment},
		progress,
		testLogger(t),
	)
	return &quizFixture{service: service, quiz: quiz, userID: userID, attemptRepo: attemptRepo, progress: progress}
}

func perfectSubmission(t *testing.T) SubmitQuizInput {
	t.Helper()
	return SubmitQuizInput{Answers: []json.RawMessage{rawAnswer(t, 0), rawAnswer(t, 1)}}
}

func TestSubmitGradesAndRecordsResult(t *testing.T) {
	fx := newQuizFixture(t, nil)

	result, err := fx.service.Submit(context.Background(), fx.userID, fx.quiz.ID, perfectSubmission(t))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Score != 100 || !result.Passed {
		t.Fatalf("result = %+v, want score 100 passed", result)
	}
	if len(fx.attemptRepo.attempts) != 1 {
		t.Fatalf("attempts stored = %d, want 1", len(fx.attemptRepo.attempts))
	}
	if len(fx.progress.recorded) != 1 || fx.progress.recorded[0].score != 100 {
		t.Fatalf("progress recorded = %+v, want one entry with score 100", fx.progress.recorded)
	}
	if len(result.Answers) != 2 {
		t.Fatalf("answers not echoed back: %+v", result.Answers)
	}
}

func TestSubmitAppendsEveryAttempt(t *testing.T) {
	fx := newQuizFixture(t, nil)

	for i := 0; i < 3; i++ {
		if _, err := fx.service.Submit(context.Background(), fx.userID, fx.quiz.ID, perfectSubmission(t)); err != nil {
			t.Fatalf("Submit #%d: %v", i+1, err)
		}
	}
	if len(fx.attemptRepo.attempts) != 3 {
		t.Fatalf("attempts stored = %d, want 3", len(fx.attemptRepo.attempts))
	}
	if len(fx.progress.recorded) != 3 {
		t.Fatalf("results recorded = %d, want 3", len(fx.progress.recorded))
	}
}

func TestSubmitEnforcesAttemptLimit(t *testing.T) {
	fx := newQuizFixture(t, func(q *domain.Quiz) { q.AttemptsAllowed = 2 })

	for i := 0; i < 2; i++ {
		if _, err := fx.service.Submit(context.Background(), fx.userID, fx.quiz.ID, perfectSubmission(t)); err != nil {
			t.Fatalf("Submit #%d: %v", i+1, err)
		}
	}
	_, err := fx.service.Submit(context.Background(), fx.userID, fx.quiz.ID, perfectSubmission(t))
	if !apperr.Is(err, apperr.KindAttemptsExceeded) {
		t.Fatalf("err = %v, want attempts exceeded", err)
	}
	if len(fx.attemptRepo.attempts) != 2 {
		t.Fatalf("attempts stored = %d, want 2", len(fx.attemptRepo.attempts))
	}
}

func TestSubmitRequiresEnrollment(t *testing.T) {
	fx := newQuizFixture(t, nil)

	_, err := fx.service.Submit(context.Background(), uuid.New(), fx.quiz.ID, perfectSubmission(t))
	if !apperr.Is(err, apperr.KindNotEnrolled) {
		t.Fatalf("err = %v, want not enrolled", err)
	}
}

func TestSubmitRejectsInactiveQuiz(t *testing.T) {
	fx := newQuizFixture(t, func(q *domain.Quiz) { q.Active = false })

	_, err := fx.service.Submit(context.Background(), fx.userID, fx.quiz.ID, perfectSubmission(t))
	if !apperr.Is(err, apperr.KindQuizInactive) {
		t.Fatalf("err = %v, want quiz inactive", err)
	}
}

func TestSubmitRespectsTimeWindow(t *testing.T) {
	future := time.Now().Add(time.Hour)
	past := time.Now().Add(-time.Hour)

	fx := newQuizFixture(t, func(q *domain.Quiz) { q.StartDate = &future })
	if _, err := fx.service.Submit(context.Background(), fx.userID, fx.quiz.ID, perfectSubmission(t)); !apperr.Is(err, apperr.KindNotStarted) {
		t.Fatalf("err = %v, want not started", err)
	}

	fx = newQuizFixture(t, func(q *domain.Quiz) { q.EndDate = &past })
	if _, err := fx.service.Submit(context.Background(), fx.userID, fx.quiz.ID, perfectSubmission(t)); !apperr.Is(err, apperr.KindEnded) {
		t.Fatalf("err = %v, want ended", err)
	}
}

// The review comes back even when the quiz hides answer keys on fetch;
// the flag only controls what a not-yet-submitted student can see.
func TestSubmitReturnsReviewWhenAnswersHidden(t *testing.T) {
	fx := newQuizFixture(t, func(q *domain.Quiz) { q.ShowAnswersAfterSubmission = false })

	result, err := fx.service.Submit(context.Background(), fx.userID, fx.quiz.ID, perfectSubmission(t))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(result.Answers) != len(fx.quiz.Questions) {
		t.Fatalf("answers = %d entries, want per-question review", len(result.Answers))
	}
	for i, answer := range result.Answers {
		if !answer.IsCorrect {
			t.Fatalf("answer %d not graded in review: %+v", i, answer)
		}
	}
}

func TestSubmitPassBoundaryUsesExactScore(t *testing.T) {
	// Two of three points: exactly 66.66...; rounding to 66.7 would pass.
	fx := newQuizFixture(t, func(q *domain.Quiz) {
		q.PassingScore = 66.7
		q.Questions = []*domain.QuizQuestion{
			choiceQuestion(t, 1, 0),
			choiceQuestion(t, 1, 1),
			choiceQuestion(t, 1, 2),
		}
	})

	result, err := fx.service.Submit(context.Background(), fx.userID, fx.quiz.ID, SubmitQuizInput{
		Answers: []json.RawMessage{rawAnswer(t, 0), rawAnswer(t, 1), rawAnswer(t, 0)},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if want := 2.0 / 3.0 * 100; result.Score != want {
		t.Fatalf("score = %v, want exact %v", result.Score, want)
	}
	if result.Passed {
		t.Fatalf("passed at %v against passing score 66.7", result.Score)
	}
}

func TestGetForTakingStripsAnswerKeys(t *testing.T) {
	fx := newQuizFixture(t, func(q *domain.Quiz) {
		q.ShowAnswersAfterSubmission = false
		q.Questions = append(q.Questions, &domain.QuizQuestion{
			Type:          domain.QuestionTypeFillInBlank,
			Text:          "blank",
			CorrectAnswer: "secret",
			Explanation:   "because",
			Points:        1,
		})
	})

	quiz, err := fx.service.GetForTaking(context.Background(), fx.userID, fx.quiz.ID)
	if err != nil {
		t.Fatalf("GetForTaking: %v", err)
	}
	for _, question := range quiz.Questions {
		if question.CorrectAnswer != "" || question.Explanation != "" {
			t.Fatalf("answer key leaked on question %q", question.Text)
		}
		opts, err := question.DecodedOptions()
		if err != nil {
			t.Fatalf("decode options: %v", err)
		}
		for _, opt := range opts {
			if opt.IsCorrect {
				t.Fatalf("correct flag leaked on question %q", question.Text)
			}
		}
	}
}

func TestGetForTakingKeepsKeysWhenAnswersShown(t *testing.T) {
	fx := newQuizFixture(t, func(q *domain.Quiz) { q.ShowAnswersAfterSubmission = true })

	quiz, err := fx.service.GetForTaking(context.Background(), fx.userID, fx.quiz.ID)
	if err != nil {
		t.Fatalf("GetForTaking: %v", err)
	}
	opts, err := quiz.Questions[0].DecodedOptions()
	if err != nil {
		t.Fatalf("decode options: %v", err)
	}
	correct := 0
	for _, opt := range opts {
		if opt.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		t.Fatalf("correct flags = %d, want the key left intact", correct)
	}
}
