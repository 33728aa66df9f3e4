package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	catalogrepo "github.com/openlearnhq/openlearn-backend/internal/data/repos/catalog"
	"github.com/openlearnhq/openlearn-backend/internal/http/response"
	"github.com/openlearnhq/openlearn-backend/internal/platform/apperr"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
	"github.com/openlearnhq/openlearn-backend/internal/requestdata"
	"github.com/openlearnhq/openlearn-backend/internal/services"
)

type CourseHandler struct {
	courses  services.CourseService
	progress services.ProgressService
	log      *logger.Logger
}

func NewCourseHandler(courses services.CourseService, progress services.ProgressService, baseLog *logger.Logger) *CourseHandler {
	return &CourseHandler{courses: courses, progress: progress, log: baseLog.With("handler", "CourseHandler")}
}

func (h *CourseHandler) Create(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var input services.CreateCourseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, apperr.E(apperr.KindValidation, "invalid request body"))
		return
	}
	course, err := h.courses.Create(c.Request.Context(), rd.UserID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

func (h *CourseHandler) Get(c *gin.Context) {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	viewerID := uuid.Nil
	viewerRole := ""
	if rd != nil {
		viewerID = rd.UserID
		viewerRole = rd.Role
	}
	course, err := h.courses.Get(c.Request.Context(), viewerID, viewerRole, courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, course)
}

func (h *CourseHandler) List(c *gin.Context) {
	filter := catalogrepo.CourseFilter{
		Category:      c.Query("category"),
		Level:         c.Query("level"),
		Search:        c.Query("search"),
		SortBy:        c.Query("sort"),
		PublishedOnly: true,
		FeaturedOnly:  c.Query("featured") == "true",
		Page:          intQuery(c, "page", 1),
		PageSize:      intQuery(c, "page_size", 20),
	}
	courses, total, err := h.courses.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"courses": courses, "total": total})
}

func (h *CourseHandler) Update(c *gin.Context) {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	var input services.UpdateCourseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, apperr.E(apperr.KindValidation, "invalid request body"))
		return
	}
	course, err := h.courses.Update(c.Request.Context(), rd.UserID, rd.Role, courseID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, course)
}

func (h *CourseHandler) Delete(c *gin.Context) {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	if err := h.courses.Delete(c.Request.Context(), rd.UserID, rd.Role, courseID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *CourseHandler) AddSection(c *gin.Context) {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	var input services.SectionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, apperr.E(apperr.KindValidation, "invalid request body"))
		return
	}
	section, err := h.courses.AddSection(c.Request.Context(), rd.UserID, rd.Role, courseID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}

func (h *CourseHandler) UpdateSection(c *gin.Context) {
	sectionID, ok := uuidParam(c, "sectionId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	var input services.SectionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, apperr.E(apperr.KindValidation, "invalid request body"))
		return
	}
	section, err := h.courses.UpdateSection(c.Request.Context(), rd.UserID, rd.Role, sectionID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, section)
}

func (h *CourseHandler) DeleteSection(c *gin.Context) {
	sectionID, ok := uuidParam(c, "sectionId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	if err := h.courses.DeleteSection(c.Request.Context(), rd.UserID, rd.Role, sectionID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *CourseHandler) Enroll(c *gin.Context) {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	enrollment, err := h.progress.Enroll(c.Request.Context(), rd.UserID, courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

func (h *CourseHandler) Rate(c *gin.Context) {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	var input services.RateCourseInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, apperr.E(apperr.KindValidation, "invalid request body"))
		return
	}
	rating, err := h.progress.Rate(c.Request.Context(), rd.UserID, courseID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rating)
}

func (h *CourseHandler) Ratings(c *gin.Context) {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	ratings, err := h.courses.Ratings(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, ratings)
}
