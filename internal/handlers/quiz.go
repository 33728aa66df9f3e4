package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/openlearnhq/openlearn-backend/internal/http/response"
	"github.com/openlearnhq/openlearn-backend/internal/platform/apperr"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
	"github.com/openlearnhq/openlearn-backend/internal/requestdata"
	"github.com/openlearnhq/openlearn-backend/internal/services"
)

type QuizHandler struct {
	quizzes services.QuizService
	log     *logger.Logger
}

func NewQuizHandler(quizzes services.QuizService, baseLog *logger.Logger) *QuizHandler {
	return &QuizHandler{quizzes: quizzes, log: baseLog.With("handler", "QuizHandler")}
}

func (h *QuizHandler) Create(c *gin.Context) {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	var input services.CreateQuizInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, apperr.E(apperr.KindValidation, "invalid request body"))
		return
	}
	quiz, err := h.quizzes.Create(c.Request.Context(), rd.UserID, rd.Role, courseID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, quiz)
}

func (h *QuizHandler) Update(c *gin.Context) {
	quizID, ok := uuidParam(c, "quizId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	var input services.CreateQuizInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, apperr.E(apperr.KindValidation, "invalid request body"))
		return
	}
	quiz, err := h.quizzes.Update(c.Request.Context(), rd.UserID, rd.Role, quizID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, quiz)
}

func (h *QuizHandler) Delete(c *gin.Context) {
	quizID, ok := uuidParam(c, "quizId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	if err := h.quizzes.Delete(c.Request.Context(), rd.UserID, rd.Role, quizID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GetForTaking is the student view: answer keys stripped.
func (h *QuizHandler) GetForTaking(c *gin.Context) {
	quizID, ok := uuidParam(c, "quizId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	quiz, err := h.quizzes.GetForTaking(c.Request.Context(), rd.UserID, quizID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, quiz)
}

func (h *QuizHandler) GetFull(c *gin.Context) {
	quizID, ok := uuidParam(c, "quizId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	quiz, err := h.quizzes.Get(c.Request.Context(), rd.UserID, rd.Role, quizID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, quiz)
}

func (h *QuizHandler) ListByCourse(c *gin.Context) {
	courseID, ok := uuidParam(c, "courseId")
	if !ok {
		return
	}
	quizzes, err := h.quizzes.ListByCourse(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, quizzes)
}

func (h *QuizHandler) Submit(c *gin.Context) {
	quizID, ok := uuidParam(c, "quizId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	var input services.SubmitQuizInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, apperr.E(apperr.KindValidation, "invalid request body"))
		return
	}
	result, err := h.quizzes.Submit(c.Request.Context(), rd.UserID, quizID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

func (h *QuizHandler) ListAttempts(c *gin.Context) {
	quizID, ok := uuidParam(c, "quizId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	attempts, err := h.quizzes.ListAttempts(c.Request.Context(), rd.UserID, rd.Role, quizID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, attempts)
}
