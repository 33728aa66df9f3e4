package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/openlearnhq/openlearn-backend/internal/http/response"
	"github.com/openlearnhq/openlearn-backend/internal/platform/apperr"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
	"github.com/openlearnhq/openlearn-backend/internal/requestdata"
	"github.com/openlearnhq/openlearn-backend/internal/services"
)

type AuthHandler struct {
	auth services.AuthService
	log  *logger.Logger
}

func NewAuthHandler(auth services.AuthService, baseLog *logger.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: baseLog.With("handler", "AuthHandler")}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input services.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, apperr.E(apperr.KindValidation, "invalid request body"))
		return
	}
	result, err := h.auth.Register(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input services.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, apperr.E(apperr.KindValidation, "invalid request body"))
		return
	}
	result, err := h.auth.Login(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var input struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.RefreshToken == "" {
		response.Error(c, apperr.E(apperr.KindValidation, "refresh_token is required"))
		return
	}
	result, err := h.auth.Refresh(c.Request.Context(), input.RefreshToken)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if err := h.auth.Logout(c.Request.Context(), rd.TokenString); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *AuthHandler) Me(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	user, err := h.auth.GetUser(c.Request.Context(), rd.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	var input services.UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, apperr.E(apperr.KindValidation, "invalid request body"))
		return
	}
	user, err := h.auth.UpdateProfile(c.Request.Context(), rd.UserID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}
