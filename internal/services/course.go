package services

import (
	"context"
	"math"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	catalogrepo "github.com/openlearnhq/openlearn-backend/internal/data/repos/catalog"
	"github.com/openlearnhq/openlearn-backend/internal/domain"
	"github.com/openlearnhq/openlearn-backend/internal/platform/apperr"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
)

type CreateCourseInput struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Thumbnail        string   `json:"thumbnail"`
	Price            float64  `json:"price"`
	Discount         float64  `json:"discount"`
	Category         string   `json:"category"`
	Level            string   `json:"level"`
	Language         string   `json:"language"`
	Tags             []string `json:"tags"`
	Requirements     []string `json:"requirements"`
	WhatYouWillLearn []string `json:"what_you_will_learn"`
}

type UpdateCourseInput struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Thumbnail   *string  `json:"thumbnail"`
	Price       *float64 `json:"price"`
	Discount    *float64 `json:"discount"`
	Category    *string  `json:"category"`
	Level       *string  `json:"level"`
	Published   *bool    `json:"published"`
	Featured    *bool    `json:"featured"`
}

type SectionInput struct {
	Title    string `json:"title"`
	Position int    `json:"position"`
}

type CourseService interface {
	Create(ctx context.Context, instructorID uuid.UUID, input CreateCourseInput) (*domain.Course, error)
	Get(ctx context.Context, viewerID uuid.UUID, viewerRole string, courseID uuid.UUID) (*domain.Course, error)
	List(ctx context.Context, filter catalogrepo.CourseFilter) ([]*domain.Course, int64, error)
	Update(ctx context.Context, actorID uuid.UUID, actorRole string, courseID uuid.UUID, input UpdateCourseInput) (*domain.Course, error)
	Delete(ctx context.Context, actorID uuid.UUID, actorRole string, courseID uuid.UUID) error
	AddSection(ctx context.Context, actorID uuid.UUID, actorRole string, courseID uuid.UUID, input SectionInput) (*domain.CourseSection, error)
	UpdateSection(ctx context.Context, actorID uuid.UUID, actorRole string, sectionID uuid.UUID, input SectionInput) (*domain.CourseSection, error)
	DeleteSection(ctx context.Context, actorID uuid.UUID, actorRole string, sectionID uuid.UUID) error
	Ratings(ctx context.Context, courseID uuid.UUID) ([]*domain.CourseRating, error)
}

type courseService struct {
	db          *gorm.DB
	courseRepo  catalogrepo.CourseRepo
	sectionRepo catalogrepo.SectionRepo
	lectureRepo catalogrepo.LectureRepo
	ratingRepo  catalogrepo.RatingRepo
	log         *logger.Logger
}

func NewCourseService(
	db *gorm.DB,
	courseRepo catalogrepo.CourseRepo,
	sectionRepo catalogrepo.SectionRepo,
	lectureRepo catalogrepo.LectureRepo,
	ratingRepo catalogrepo.RatingRepo,
	baseLog *logger.Logger,
) CourseService {
	return &courseService{
		db:          db,
		courseRepo:  courseRepo,
		sectionRepo: sectionRepo,
		lectureRepo: lectureRepo,
		ratingRepo:  ratingRepo,
		log:         baseLog.With("service", "CourseService"),
	}
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

func Slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugPattern.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

func (s *courseService) Create(ctx context.Context, instructorID uuid.UUID, input CreateCourseInput) (*domain.Course, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperr.E(apperr.KindValidation, "title is required")
	}
	if input.Category == "" {
		return nil, apperr.E(apperr.KindValidation, "category is required")
	}

	level := input.Level
	if level == "" {
		level = domain.LevelAll
	}
	language := input.Language
	if language == "" {
		language = "English"
	}

	slug := Slugify(input.Title)
	existing, err := s.courseRepo.GetBySlugs(ctx, nil, []string{slug})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, apperr.E(apperr.KindConflict, "a course with this title already exists")
	}

	tags, err := encodeStringList(input.Tags)
	if err != nil {
		return nil, err
	}
	requirements, err := encodeStringList(input.Requirements)
	if err != nil {
		return nil, err
	}
	outcomes, err := encodeStringList(input.WhatYouWillLearn)
	if err != nil {
		return nil, err
	}

	course := &domain.Course{
		Title:            strings.TrimSpace(input.Title),
		Slug:             slug,
		Description:      input.Description,
		Thumbnail:        input.Thumbnail,
		InstructorID:     instructorID,
		Price:            input.Price,
		Discount:         input.Discount,
		Category:         input.Category,
		Level:            level,
		Language:         language,
		Tags:             tags,
		Requirements:     requirements,
		WhatYouWillLearn: outcomes,
	}
	created, err := s.courseRepo.Create(ctx, nil, course)
	if err != nil {
		return nil, err
	}

	s.log.Info("Created course", "course_id", created.ID, "instructor_id", instructorID)
	return created, nil
}

func (s *courseService) Get(ctx context.Context, viewerID uuid.UUID, viewerRole string, courseID uuid.UUID) (*domain.Course, error) {
	course, err := s.courseRepo.GetDetailed(ctx, nil, courseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, apperr.E(apperr.KindNotFound, "course not found")
	}
	if !course.Published && course.InstructorID != viewerID && viewerRole != domain.RoleAdmin {
		return nil, apperr.E(apperr.KindNotPublished, "course is not published")
	}
	return course, nil
}

func (s *courseService) List(ctx context.Context, filter catalogrepo.CourseFilter) ([]*domain.Course, int64, error) {
	return s.courseRepo.List(ctx, nil, filter)
}

func (s *courseService) Update(ctx context.Context, actorID uuid.UUID, actorRole string, courseID uuid.UUID, input UpdateCourseInput) (*domain.Course, error) {
	course, err := s.requireOwnedCourse(ctx, actorID, actorRole, courseID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil && strings.TrimSpace(*input.Title) != "" {
		course.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		course.Description = *input.Description
	}
	if input.Thumbnail != nil {
		course.Thumbnail = *input.Thumbnail
	}
	if input.Price != nil {
		course.Price = *input.Price
	}
	if input.Discount != nil {
		course.Discount = *input.Discount
	}
	if input.Category != nil && *input.Category != "" {
		course.Category = *input.Category
	}
	if input.Level != nil && *input.Level != "" {
		course.Level = *input.Level
	}
	if input.Published != nil {
		course.Published = *input.Published
	}
	if input.Featured != nil {
		if actorRole != domain.RoleAdmin {
			return nil, apperr.E(apperr.KindNotAuthorized, "only admins can feature courses")
		}
		course.Featured = *input.Featured
	}

	if err := s.courseRepo.Update(ctx, nil, course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *courseService) Delete(ctx context.Context, actorID uuid.UUID, actorRole string, courseID uuid.UUID) error {
	if _, err := s.requireOwnedCourse(ctx, actorID, actorRole, courseID); err != nil {
		return err
	}
	return s.courseRepo.Delete(ctx, nil, courseID)
}

func (s *courseService) AddSection(ctx context.Context, actorID uuid.UUID, actorRole string, courseID uuid.UUID, input SectionInput) (*domain.CourseSection, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperr.E(apperr.KindValidation, "section title is required")
	}
	if _, err := s.requireOwnedCourse(ctx, actorID, actorRole, courseID); err != nil {
		return nil, err
	}

	section := &domain.CourseSection{
		CourseID: courseID,
		Title:    strings.TrimSpace(input.Title),
		Position: input.Position,
	}
	created, err := s.sectionRepo.Create(ctx, nil, []*domain.CourseSection{section})
	if err != nil {
		return nil, err
	}
	return created[0], nil
}

func (s *courseService) UpdateSection(ctx context.Context, actorID uuid.UUID, actorRole string, sectionID uuid.UUID, input SectionInput) (*domain.CourseSection, error) {
	section, err := s.requireOwnedSection(ctx, actorID, actorRole, sectionID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.Title) != "" {
		section.Title = strings.TrimSpace(input.Title)
	}
	section.Position = input.Position

	if err := s.sectionRepo.Update(ctx, nil, section); err != nil {
		return nil, err
	}
	return section, nil
}

func (s *courseService) DeleteSection(ctx context.Context, actorID uuid.UUID, actorRole string, sectionID uuid.UUID) error {
	if _, err := s.requireOwnedSection(ctx, actorID, actorRole, sectionID); err != nil {
		return err
	}
	return s.sectionRepo.Delete(ctx, nil, sectionID)
}

func (s *courseService) Ratings(ctx context.Context, courseID uuid.UUID) ([]*domain.CourseRating, error) {
	courses, err := s.courseRepo.GetByIDs(ctx, nil, []uuid.UUID{courseID})
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return nil, apperr.E(apperr.KindNotFound, "course not found")
	}
	return s.ratingRepo.GetByCourseIDs(ctx, nil, []uuid.UUID{courseID})
}

func (s *courseService) requireOwnedCourse(ctx context.Context, actorID uuid.UUID, actorRole string, courseID uuid.UUID) (*domain.Course, error) {
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
	return course, nil
}

func (s *courseService) requireOwnedSection(ctx context.Context, actorID uuid.UUID, actorRole string, sectionID uuid.UUID) (*domain.CourseSection, error) {
	sections, err := s.sectionRepo.GetByIDs(ctx, nil, []uuid.UUID{sectionID})
	if err != nil {
		return nil, err
	}
	if len(sections) == 0 {
		return nil, apperr.E(apperr.KindNotFound, "section not found")
	}
	if _, err := s.requireOwnedCourse(ctx, actorID, actorRole, sections[0].CourseID); err != nil {
		return nil, err
	}
	return sections[0], nil
}

// RoundRating keeps the published average at one decimal place.
func RoundRating(average float64) float64 {
	return math.Round(average*10) / 10
}
