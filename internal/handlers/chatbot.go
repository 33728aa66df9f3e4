package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/openlearnhq/openlearn-backend/internal/http/response"
	"github.com/openlearnhq/openlearn-backend/internal/platform/apperr"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
	"github.com/openlearnhq/openlearn-backend/internal/services"
)

type ChatbotHandler struct {
	chatbot services.ChatbotService
	log     *logger.Logger
}

func NewChatbotHandler(chatbot services.ChatbotService, baseLog *logger.Logger) *ChatbotHandler {
	return &ChatbotHandler{chatbot: chatbot, log: baseLog.With("handler", "ChatbotHandler")}
}

func (h *ChatbotHandler) Message(c *gin.Context) {
	var input struct {
		Message string `json:"message"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, apperr.E(apperr.KindValidation, "invalid request body"))
		return
	}
	reply, err := h.chatbot.Reply(c.Request.Context(), input.Message)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, reply)
}

func (h *ChatbotHandler) Topics(c *gin.Context) {
	response.OK(c, h.chatbot.Topics())
}
