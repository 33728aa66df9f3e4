package services

import (
	"context"
	"math"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	catalogrepo "github.com/openlearnhq/openlearn-backend/internal/data/repos/catalog"
	userrepo "github.com/openlearnhq/openlearn-backend/internal/data/repos/user"
	"github.com/openlearnhq/openlearn-backend/internal/domain"
	"github.com/openlearnhq/openlearn-backend/internal/platform/apperr"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
)

type CreateLectureInput struct {
	SectionID       uuid.UUID `json:"section_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	VideoURL        string    `json:"video_url"`
	DurationSeconds int       `json:"duration_seconds"`
	IsPreview       bool      `json:"is_preview"`
	Transcript      string    `json:"transcript"`
	Position        int       `json:"position"`
}

type LectureService interface {
	Create(ctx context.Context, actorID uuid.UUID, actorRole string, courseID uuid.UUID, input CreateLectureInput) (*domain.Lecture, error)
	Get(ctx context.Context, viewerID uuid.UUID, lectureID uuid.UUID) (*domain.Lecture, error)
	Delete(ctx context.Context, actorID uuid.UUID, actorRole string, lectureID uuid.UUID) error
	RecordView(ctx context.Context, viewerID uuid.UUID, lectureID uuid.UUID) error
	AddComment(ctx context.Context, userID, lectureID uuid.UUID, text string) (*domain.LectureComment, error)
	AddReply(ctx context.Context, userID, commentID uuid.UUID, text string) (*domain.CommentReply, error)
	Comments(ctx context.Context, lectureID uuid.UUID) ([]*domain.LectureComment, error)
}

type lectureService struct {
	db             *gorm.DB
	courseRepo     catalogrepo.CourseRepo
	sectionRepo    catalogrepo.SectionRepo
	lectureRepo    catalogrepo.LectureRepo
	commentRepo    catalogrepo.CommentRepo
	enrollmentRepo userrepo.EnrollmentRepo
	progress       ProgressService
	log            *logger.Logger
}

func NewLectureService(
	db *gorm.DB,
	courseRepo catalogrepo.CourseRepo,
	sectionRepo catalogrepo.SectionRepo,
	lectureRepo catalogrepo.LectureRepo,
	commentRepo catalogrepo.CommentRepo,
	enrollmentRepo userrepo.EnrollmentRepo,
	progress ProgressService,
	baseLog *logger.Logger,
) LectureService {
	return &lectureService{
		db:             db,
		courseRepo:     courseRepo,
		sectionRepo:    sectionRepo,
		lectureRepo:    lectureRepo,
		commentRepo:    commentRepo,
		enrollmentRepo: enrollmentRepo,
		progress:       progress,
		log:            baseLog.With("service", "LectureService"),
	}
}

func (s *lectureService) Create(ctx context.Context, actorID uuid.UUID, actorRole string, courseID uuid.UUID, input CreateLectureInput) (*domain.Lecture, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperr.E(apperr.KindValidation, "lecture title is required")
	}
	if input.VideoURL == "" {
		return nil, apperr.E(apperr.KindValidation, "video url is required")
	}

	courses, err := s.courseRepo.GetByIDs(ctx, nil, []uuid.UUID{courseID})
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return nil, apperr.E(apperr.KindNotFound, "course not found")
	}
	course := courses[0]
	if course.InstructorID != actorID && actorRole != domain.RoleAdmin {
		return nil, apperr.E(apperr.KindNotAuthorized, "you do not own this course")
	}

	sections, err := s.sectionRepo.GetByIDs(ctx, nil, []uuid.UUID{input.SectionID})
	if err != nil {
		return nil, err
	}
	if len(sections) == 0 || sections[0].CourseID != courseID {
		return nil, apperr.E(apperr.KindValidation, "section does not belong to this course")
	}

	lecture := &domain.Lecture{
		CourseID:        courseID,
		SectionID:       input.SectionID,
		Position:        input.Position,
		Title:           strings.TrimSpace(input.Title),
		Description:     input.Description,
		VideoURL:        input.VideoURL,
		DurationSeconds: input.DurationSeconds,
		IsPreview:       input.IsPreview,
		Transcript:      input.Transcript,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.lectureRepo.Create(ctx, tx, []*domain.Lecture{lecture}); err != nil {
			return err
		}
		return s.recomputeContentStats(ctx, tx, courseID)
	})
	if err != nil {
		return nil, err
	}
	return lecture, nil
}

func (s *lectureService) Get(ctx context.Context, viewerID uuid.UUID, lectureID uuid.UUID) (*domain.Lecture, error) {
	lecture, err := s.getLecture(ctx, lectureID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAccess(ctx, viewerID, lecture); err != nil {
		return nil, err
	}
	return lecture, nil
}

func (s *lectureService) Delete(ctx context.Context, actorID uuid.UUID, actorRole string, lectureID uuid.UUID) error {
	lecture, err := s.getLecture(ctx, lectureID)
	if err != nil {
		return err
	}

	courses, err := s.courseRepo.GetByIDs(ctx, nil, []uuid.UUID{lecture.CourseID})
	if err != nil {
		return err
	}
	if len(courses) == 0 {
		return apperr.E(apperr.KindNotFound, "course not found")
	}
	if courses[0].InstructorID != actorID && actorRole != domain.RoleAdmin {
		return apperr.E(apperr.KindNotAuthorized, "you do not own this course")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.lectureRepo.Delete(ctx, tx, lectureID); err != nil {
			return err
		}
		return s.recomputeContentStats(ctx, tx, lecture.CourseID)
	})
}

// RecordView counts the watch and marks the lecture complete for the
// viewer's enrollment. Repeat views keep bumping the counter but the
// completion stays single.
func (s *lectureService) RecordView(ctx context.Context, viewerID uuid.UUID, lectureID uuid.UUID) error {
	lecture, err := s.getLecture(ctx, lectureID)
	if err != nil {
		return err
	}
	if err := s.requireAccess(ctx, viewerID, lecture); err != nil {
		return err
	}

	if err := s.lectureRepo.IncrementWatchCount(ctx, nil, lectureID); err != nil {
		return err
	}
	if _, err := s.progress.MarkLectureComplete(ctx, viewerID, lecture.CourseID, lectureID); err != nil {
		// Preview viewers are not enrolled; the view still counts.
		if apperr.Is(err, apperr.KindNotEnrolled) && lecture.IsPreview {
			return nil
		}
		return err
	}
	return nil
}

func (s *lectureService) AddComment(ctx context.Context, userID, lectureID uuid.UUID, text string) (*domain.LectureComment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.E(apperr.KindValidation, "comment text is required")
	}
	lecture, err := s.getLecture(ctx, lectureID)
	if err != nil {
		return nil, err
	}
	if err := s.requireAccess(ctx, userID, lecture); err != nil {
		return nil, err
	}

	return s.commentRepo.Create(ctx, nil, &domain.LectureComment{
		LectureID: lectureID,
		UserID:    userID,
		Text:      strings.TrimSpace(text),
	})
}

func (s *lectureService) AddReply(ctx context.Context, userID, commentID uuid.UUID, text string) (*domain.CommentReply, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperr.E(apperr.KindValidation, "reply text is required")
	}
	comments, err := s.commentRepo.GetByIDs(ctx, nil, []uuid.UUID{commentID})
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, apperr.E(apperr.KindNotFound, "comment not found")
	}

	return s.commentRepo.CreateReply(ctx, nil, &domain.CommentReply{
		CommentID: commentID,
		UserID:    userID,
		Text:      strings.TrimSpace(text),
	})
}

func (s *lectureService) Comments(ctx context.Context, lectureID uuid.UUID) ([]*domain.LectureComment, error) {
	if _, err := s.getLecture(ctx, lectureID); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByLectureID(ctx, nil, lectureID)
}

func (s *lectureService) getLecture(ctx context.Context, lectureID uuid.UUID) (*domain.Lecture, error) {
	lectures, err := s.lectureRepo.GetByIDs(ctx, nil, []uuid.UUID{lectureID})
	if err != nil {
		return nil, err
	}
	if len(lectures) == 0 {
		return nil, apperr.E(apperr.KindNotFound, "lecture not found")
	}
	return lectures[0], nil
}

func (s *lectureService) requireAccess(ctx context.Context, viewerID uuid.UUID, lecture *domain.Lecture) error {
	if lecture.IsPreview {
		return nil
	}
	enrollment, err := s.enrollmentRepo.GetByUserAndCourse(ctx, nil, viewerID, lecture.CourseID)
	if err != nil {
		return err
	}
	if enrollment == nil {
		courses, err := s.courseRepo.GetByIDs(ctx, nil, []uuid.UUID{lecture.CourseID})
		if err != nil {
			return err
		}
		if len(courses) > 0 && courses[0].InstructorID == viewerID {
			return nil
		}
		return apperr.E(apperr.KindNotEnrolled, "you are not enrolled in this course")
	}
	return nil
}

func (s *lectureService) recomputeContentStats(ctx context.Context, tx *gorm.DB, courseID uuid.UUID) error {
	stats, err := s.lectureRepo.StatsByCourse(ctx, tx, courseID)
	if err != nil {
		return err
	}
	minutes := math.Round(float64(stats.DurationSeconds)/60*10) / 10
	return s.courseRepo.UpdateContentStats(ctx, tx, courseID, int(stats.TotalLectures), minutes)
}
