package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/openlearnhq/openlearn-backend/internal/http/response"
	"github.com/openlearnhq/openlearn-backend/internal/platform/apperr"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
	"github.com/openlearnhq/openlearn-backend/internal/requestdata"
	"github.com/openlearnhq/openlearn-backend/internal/services"
)

type LectureHandler struct {
	lectures services.LectureService
	progress services.ProgressService
	log      *logger.Logger
}

func NewLectureHandler(lectures services.LectureService, progress services.ProgressService, baseLog *logger.Logger) *LectureHandler {
	return &LectureHandler{lectures: lectures, progress: progress, log: baseLog.With("handler", "LectureHandler")}
}

func (h *LectureHandler) Create(c *gin.Context) {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	var input services.CreateLectureInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, apperr.E(apperr.KindValidation, "invalid request body"))
		return
	}
	lecture, err := h.lectures.Create(c.Request.Context(), rd.UserID, rd.Role, courseID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lecture)
}

func (h *LectureHandler) Get(c *gin.Context) {
	lectureID, ok := uuidParam(c, "lectureId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	lecture, err := h.lectures.Get(c.Request.Context(), rd.UserID, lectureID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, lecture)
}

func (h *LectureHandler) Delete(c *gin.Context) {
	lectureID, ok := uuidParam(c, "lectureId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	if err := h.lectures.Delete(c.Request.Context(), rd.UserID, rd.Role, lectureID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RecordView marks the lecture watched: the watch counter always moves, and
// for enrolled students the lecture is marked complete.
func (h *LectureHandler) RecordView(c *gin.Context) {
	lectureID, ok := uuidParam(c, "lectureId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	if err := h.lectures.RecordView(c.Request.Context(), rd.UserID, lectureID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *LectureHandler) MarkComplete(c *gin.Context) {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	lectureID, ok := uuidParam(c, "lectureId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	progress, err := h.progress.MarkLectureComplete(c.Request.Context(), rd.UserID, courseID, lectureID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"progress": progress})
}

func (h *LectureHandler) Comments(c *gin.Context) {
	lectureID, ok := uuidParam(c, "lectureId")
	if !ok {
		return
	}
	comments, err := h.lectures.Comments(c.Request.Context(), lectureID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, comments)
}

func (h *LectureHandler) AddComment(c *gin.Context) {
	lectureID, ok := uuidParam(c, "lectureId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	var input struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, apperr.E(apperr.KindValidation, "invalid request body"))
		return
	}
	comment, err := h.lectures.AddComment(c.Request.Context(), rd.UserID, lectureID, input.Text)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, comment)
}

func (h *LectureHandler) AddReply(c *gin.Context) {
	commentID, ok := uuidParam(c, "commentId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	var input struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, apperr.E(apperr.KindValidation, "invalid request body"))
		return
	}
	reply, err := h.lectures.AddReply(c.Request.Context(), rd.UserID, commentID, input.Text)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reply)
}
