package handlers

import (
	"github.com/gin-gonic/gin"

	userrepo "github.com/openlearnhq/openlearn-backend/internal/data/repos/user"
	"github.com/openlearnhq/openlearn-backend/internal/http/response"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
	"github.com/openlearnhq/openlearn-backend/internal/requestdata"
	"github.com/openlearnhq/openlearn-backend/internal/services"
)

type DashboardHandler struct {
	progress         services.ProgressService
	sessions         services.LiveSessionService
	notificationRepo userrepo.NotificationRepo
	log              *logger.Logger
}

func NewDashboardHandler(progress services.ProgressService, sessions services.LiveSessionService, notificationRepo userrepo.NotificationRepo, baseLog *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		progress:         progress,
		sessions:         sessions,
		notificationRepo: notificationRepo,
		log:              baseLog.With("handler", "DashboardHandler"),
	}
}

// Overview aggregates the caller's enrollments, per-course progress and quiz
// results, the unread notification count and the next few upcoming sessions
// in one response.
func (h *DashboardHandler) Overview(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	overview, err := h.progress.Overview(c.Request.Context(), rd.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	unread, err := h.notificationRepo.CountUnread(c.Request.Context(), nil, rd.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	upcoming, _, err := h.sessions.ListUpcoming(c.Request.Context(), 1, 5)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{
		"courses":           overview,
		"unread":            unread,
		"upcoming_sessions": upcoming,
	})
}

func (h *DashboardHandler) Notifications(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	notifications, err := h.notificationRepo.GetByUserID(c.Request.Context(), nil, rd.UserID, intQuery(c, "limit", 50))
	if err != nil {
		response.Error(c, err)
		return
	}
	unread, err := h.notificationRepo.CountUnread(c.Request.Context(), nil, rd.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"notifications": notifications, "unread": unread})
}

func (h *DashboardHandler) MarkNotificationRead(c *gin.Context) {
	notificationID, ok := uuidParam(c, "notificationId")
	if !ok {
		return
	}
	rd := requestdata.GetRequestData(c.Request.Context())
	if err := h.notificationRepo.MarkRead(c.Request.Context(), nil, notificationID, rd.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *DashboardHandler) MarkAllNotificationsRead(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if err := h.notificationRepo.MarkAllRead(c.Request.Context(), nil, rd.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
