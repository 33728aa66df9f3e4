package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	liverepo "github.com/openlearnhq/openlearn-backend/internal/data/repos/live"
	"github.com/openlearnhq/openlearn-backend/internal/http/response"
	"github.com/openlearnhq/openlearn-backend/internal/platform/apperr"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
	"github.com/openlearnhq/openlearn-backend/internal/requestdata"
	"github.com/openlearnhq/openlearn-backend/internal/services"
)

type LiveSessionHandler struct {
	sessions services.LiveSessionService
	log      *logger.Logger
}

func NewLiveSessionHandler(sessions services.LiveSessionService, baseLog *logger.Logger) *LiveSessionHandler {
	return &LiveSessionHandler{sessions: sessions, log: baseLog.With("handler", "LiveSessionHandler")}
}

func (h *LiveSessionHandler) Schedule(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var input services.ScheduleSessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, apperr.E(apperr.KindValidation, "invalid request body"))
		return
	}
	session, err := h.sessions.Schedule(c.Request.Context(), rd.UserID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

func (h *LiveSessionHandler) Reschedule(c *gin.Context) {
	sessionID, ok := uuidParam(c, "sessionId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	var input services.RescheduleSessionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, apperr.E(apperr.KindValidation, "invalid request body"))
		return
	}
	session, err := h.sessions.Reschedule(c.Request.Context(), rd.UserID, rd.Role, sessionID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, session)
}

func (h *LiveSessionHandler) Start(c *gin.Context) {
	sessionID, ok := uuidParam(c, "sessionId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	session, err := h.sessions.Start(c.Request.Context(), rd.UserID, rd.Role, sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, session)
}

func (h *LiveSessionHandler) End(c *gin.Context) {
	sessionID, ok := uuidParam(c, "sessionId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	var input struct {
		RecordingURL string `json:"recording_url"`
	}
	_ = c.ShouldBindJSON(&input)
	session, err := h.sessions.End(c.Request.Context(), rd.UserID, rd.Role, sessionID, input.RecordingURL)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, session)
}

func (h *LiveSessionHandler) Cancel(c *gin.Context) {
	sessionID, ok := uuidParam(c, "sessionId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	session, err := h.sessions.Cancel(c.Request.Context(), rd.UserID, rd.Role, sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, session)
}

func (h *LiveSessionHandler) Delete(c *gin.Context) {
	sessionID, ok := uuidParam(c, "sessionId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	if err := h.sessions.Delete(c.Request.Context(), rd.UserID, rd.Role, sessionID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *LiveSessionHandler) Join(c *gin.Context) {
	sessionID, ok := uuidParam(c, "sessionId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	joined, err := h.sessions.Join(c.Request.Context(), rd.UserID, sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, joined)
}

func (h *LiveSessionHandler) Leave(c *gin.Context) {
	sessionID, ok := uuidParam(c, "sessionId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	if err := h.sessions.Leave(c.Request.Context(), rd.UserID, sessionID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *LiveSessionHandler) SendChat(c *gin.Context) {
	sessionID, ok := uuidParam(c, "sessionId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	var input services.SendChatInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, apperr.E(apperr.KindValidation, "invalid request body"))
		return
	}
	message, err := h.sessions.SendChat(c.Request.Context(), rd.UserID, sessionID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, message)
}

func (h *LiveSessionHandler) ChatHistory(c *gin.Context) {
	sessionID, ok := uuidParam(c, "sessionId")
	if !ok {
		return
	}
	messages, err := h.sessions.ChatHistory(c.Request.Context(), sessionID,
		int64Query(c, "after_seq", 0), intQuery(c, "limit", 0))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, messages)
}

func (h *LiveSessionHandler) Superchats(c *gin.Context) {
	sessionID, ok := uuidParam(c, "sessionId")
	if !ok {
		return
	}
	superchats, total, err := h.sessions.Superchats(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"superchats": superchats, "total_amount": total})
}

func (h *LiveSessionHandler) Get(c *gin.Context) {
	sessionID, ok := uuidParam(c, "sessionId")
	if !ok {
		return
	}
	session, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, session)
}

func (h *LiveSessionHandler) List(c *gin.Context) {
	filter := liverepo.SessionFilter{
		Status:   c.Query("status"),
		Page:     intQuery(c, "page", 1),
		PageSize: intQuery(c, "page_size", 20),
	}
	if raw := c.Query("course_id"); raw != "" {
		courseID, err := uuid.Parse(raw)
		if err != nil {
			response.Error(c, apperr.E(apperr.KindValidation, "course_id must be a valid uuid"))
			return
		}
		filter.CourseID = courseID
	}
	sessions, total, err := h.sessions.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"sessions": sessions, "total": total})
}

func (h *LiveSessionHandler) ListUpcoming(c *gin.Context) {
	sessions, total, err := h.sessions.ListUpcoming(c.Request.Context(),
		intQuery(c, "page", 1), intQuery(c, "page_size", 20))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"sessions": sessions, "total": total})
}

func (h *LiveSessionHandler) Participants(c *gin.Context) {
	sessionID, ok := uuidParam(c, "sessionId")
	if !ok {
		return
	}
	participants, err := h.sessions.Participants(c.Request.Context(), sessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, participants)
}
