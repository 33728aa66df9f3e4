package services

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	catalogrepo "github.com/openlearnhq/openlearn-backend/internal/data/repos/catalog"
	userrepo "github.com/openlearnhq/openlearn-backend/internal/data/repos/user"
	"github.com/openlearnhq/openlearn-backend/internal/domain"
	"github.com/openlearnhq/openlearn-backend/internal/platform/apperr"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
)

type RateCourseInput struct {
	Rating int    `json:"rating"`
	Review string `json:"review"`
}

// CourseProgress is one row of a student's dashboard.
type CourseProgress struct {
	Enrollment        *domain.Enrollment   `json:"enrollment"`
	Course            *domain.Course       `json:"course"`
	CompletedLectures int64                `json:"completed_lectures"`
	QuizResults       []*domain.QuizResult `json:"quiz_results"`
}

type ProgressService interface {
	Enroll(ctx context.Context, userID, courseID uuid.UUID) (*domain.Enrollment, error)
	MarkLectureComplete(ctx context.Context, userID, courseID, lectureID uuid.UUID) (int, error)
	Rate(ctx context.Context, userID, courseID uuid.UUID, input RateCourseInput) (*domain.CourseRating, error)
	RecordQuizResult(ctx context.Context, tx *gorm.DB, enrollmentID, quizID uuid.UUID, score float64, at time.Time) error
	GetEnrollment(ctx context.Context, userID, courseID uuid.UUID) (*domain.Enrollment, error)
	Overview(ctx context.Context, userID uuid.UUID) ([]*CourseProgress, error)
}

type progressService struct {
	db             *gorm.DB
	enrollmentRepo userrepo.EnrollmentRepo
	quizResultRepo userrepo.QuizResultRepo
	courseRepo     catalogrepo.CourseRepo
	lectureRepo    catalogrepo.LectureRepo
	ratingRepo     catalogrepo.RatingRepo
	log            *logger.Logger
}

func NewProgressService(
	db *gorm.DB,
	enrollmentRepo userrepo.EnrollmentRepo,
	quizResultRepo userrepo.QuizResultRepo,
	courseRepo catalogrepo.CourseRepo,
	lectureRepo catalogrepo.LectureRepo,
	ratingRepo catalogrepo.RatingRepo,
	baseLog *logger.Logger,
) ProgressService {
	return &progressService{
		db:             db,
		enrollmentRepo: enrollmentRepo,
		quizResultRepo: quizResultRepo,
		courseRepo:     courseRepo,
		lectureRepo:    lectureRepo,
		ratingRepo:     ratingRepo,
		log:            baseLog.With("service", "ProgressService"),
	}
}

// Enroll creates the enrollment and bumps the course counter in one
// transaction so the two never drift.
func (s *progressService) Enroll(ctx context.Context, userID, courseID uuid.UUID) (*domain.Enrollment, error) {
	courses, err := s.courseRepo.GetByIDs(ctx, nil, []uuid.UUID{courseID})
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return nil, apperr.E(apperr.KindNotFound, "course not found")
	}
	if !courses[0].Published {
		return nil, apperr.E(apperr.KindNotPublished, "course is not published")
	}

	existing, err := s.enrollmentRepo.GetByUserAndCourse(ctx, nil, userID, courseID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.E(apperr.KindAlreadyEnrolled, "you are already enrolled in this course")
	}

	enrollment := &domain.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		EnrolledAt: time.Now(),
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.enrollmentRepo.Create(ctx, tx, []*domain.Enrollment{enrollment}); err != nil {
			return err
		}
		return s.courseRepo.IncrementTotalStudents(ctx, tx, courseID, 1)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Enrolled user", "user_id", userID, "course_id", courseID)
	return enrollment, nil
}

// MarkLectureComplete records the completion once and refreshes the cached
// percent. Returns the enrollment's progress after the call.
func (s *progressService) MarkLectureComplete(ctx context.Context, userID, courseID, lectureID uuid.UUID) (int, error) {
	enrollment, err := s.enrollmentRepo.GetByUserAndCourse(ctx, nil, userID, courseID)
	if err != nil {
		return 0, err
	}
	if enrollment == nil {
		return 0, apperr.E(apperr.KindNotEnrolled, "you are not enrolled in this course")
	}

	lectures, err := s.lectureRepo.GetByIDs(ctx, nil, []uuid.UUID{lectureID})
	if err != nil {
		return 0, err
	}
	if len(lectures) == 0 || lectures[0].CourseID != courseID {
		return 0, apperr.E(apperr.KindNotFound, "lecture not found in this course")
	}

	var progress int
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.enrollmentRepo.AddCompletion(ctx, tx, enrollment.ID, lectureID, time.Now()); err != nil {
			return err
		}
		completed, err := s.enrollmentRepo.CountCompletions(ctx, tx, enrollment.ID)
		if err != nil {
			return err
		}
		stats, err := s.lectureRepo.StatsByCourse(ctx, tx, courseID)
		if err != nil {
			return err
		}
		progress = ProgressPercent(completed, stats.TotalLectures)
		return s.enrollmentRepo.UpdateProgress(ctx, tx, enrollment.ID, progress)
	})
	if err != nil {
		return 0, err
	}
	return progress, nil
}

func (s *progressService) Rate(ctx context.Context, userID, courseID uuid.UUID, input RateCourseInput) (*domain.CourseRating, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, apperr.E(apperr.KindValidation, "rating must be between 1 and 5")
	}

	enrollment, err := s.enrollmentRepo.GetByUserAndCourse(ctx, nil, userID, courseID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return nil, apperr.E(apperr.KindNotEnrolled, "only enrolled students can rate a course")
	}

	var rating *domain.CourseRating
	err = s.db.Transaction(func(tx *gorm.DB) error {
		existing, err := s.ratingRepo.GetByCourseAndUser(ctx, tx, courseID, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			existing.Rating = input.Rating
			existing.Review = input.Review
			if err := s.ratingRepo.Update(ctx, tx, existing); err != nil {
				return err
			}
			rating = existing
		} else {
			rating, err = s.ratingRepo.Create(ctx, tx, &domain.CourseRating{
				CourseID: courseID,
				UserID:   userID,
				Rating:   input.Rating,
				Review:   input.Review,
			})
			if err != nil {
				return err
			}
		}

		average, _, err := s.ratingRepo.AverageByCourse(ctx, tx, courseID)
		if err != nil {
			return err
		}
		return s.courseRepo.UpdateAverageRating(ctx, tx, courseID, RoundRating(average))
	})
	if err != nil {
		return nil, err
	}
	return rating, nil
}

// RecordQuizResult keeps the per-quiz cache at the best score seen. Runs
// inside the caller's transaction next to the attempt insert.
func (s *progressService) RecordQuizResult(ctx context.Context, tx *gorm.DB, enrollmentID, quizID uuid.UUID, score float64, at time.Time) error {
	existing, err := s.quizResultRepo.GetByEnrollmentAndQuiz(ctx, tx, enrollmentID, quizID)
	if err != nil {
		return err
	}
	if existing == nil {
		_, err = s.quizResultRepo.Create(ctx, tx, &domain.QuizResult{
			EnrollmentID: enrollmentID,
			QuizID:       quizID,
			BestScore:    score,
			CompletedAt:  at,
		})
		return err
	}
	return s.quizResultRepo.UpdateBestScore(ctx, tx, existing.ID, score, at)
}

func (s *progressService) GetEnrollment(ctx context.Context, userID, courseID uuid.UUID) (*domain.Enrollment, error) {
	enrollment, err := s.enrollmentRepo.GetByUserAndCourse(ctx, nil, userID, courseID)
	if err != nil {
		return nil, err
	}
	if enrollment == nil {
		return nil, apperr.E(apperr.KindNotEnrolled, "you are not enrolled in this course")
	}
	return enrollment, nil
}

func (s *progressService) Overview(ctx context.Context, userID uuid.UUID) ([]*CourseProgress, error) {
	enrollments, err := s.enrollmentRepo.GetByUserIDs(ctx, nil, []uuid.UUID{userID})
	if err != nil {
		return nil, err
	}
	if len(enrollments) == 0 {
		return []*CourseProgress{}, nil
	}

	courseIDs := make([]uuid.UUID, 0, len(enrollments))
	enrollmentIDs := make([]uuid.UUID, 0, len(enrollments))
	for _, enrollment := range enrollments {
		courseIDs = append(courseIDs, enrollment.CourseID)
		enrollmentIDs = append(enrollmentIDs, enrollment.ID)
	}

	courses, err := s.courseRepo.GetByIDs(ctx, nil, courseIDs)
	if err != nil {
		return nil, err
	}
	coursesByID := make(map[uuid.UUID]*domain.Course, len(courses))
	for _, course := range courses {
		coursesByID[course.ID] = course
	}

	results, err := s.quizResultRepo.GetByEnrollmentIDs(ctx, nil, enrollmentIDs)
	if err != nil {
		return nil, err
	}
	resultsByEnrollment := make(map[uuid.UUID][]*domain.QuizResult)
	for _, result := range results {
		resultsByEnrollment[result.EnrollmentID] = append(resultsByEnrollment[result.EnrollmentID], result)
	}

	overview := make([]*CourseProgress, 0, len(enrollments))
	for _, enrollment := range enrollments {
		completed, err := s.enrollmentRepo.CountCompletions(ctx, nil, enrollment.ID)
		if err != nil {
			return nil, err
		}
		overview = append(overview, &CourseProgress{
			Enrollment:        enrollment,
			Course:            coursesByID[enrollment.CourseID],
			CompletedLectures: completed,
			QuizResults:       resultsByEnrollment[enrollment.ID],
		})
	}
	return overview, nil
}

// ProgressPercent is the cached enrollment progress: completed lectures over
// total, rounded to the nearest whole percent. A course with no lectures
// reports zero.
func ProgressPercent(completed, total int64) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
