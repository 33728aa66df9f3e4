package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openlearnhq/openlearn-backend/internal/platform/apperr"
)

type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *errBody    `json:"error,omitempty"`
}

type errBody struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, envelope{Success: true, Data: data})
}

func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error maps a service error to a status code by its kind. Unknown errors
// become a generic 500 so internals never leak to clients.
func Error(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)

	detail := "internal server error"
	if status != http.StatusInternalServerError {
		var ae *apperr.Error
		if errors.As(err, &ae) {
			detail = ae.Detail
		}
	}
	c.AbortWithStatusJSON(status, envelope{Success: false, Error: &errBody{Kind: string(kind), Detail: detail}})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindNotAuthorized:
		return http.StatusForbidden
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity
	case apperr.KindConflict, apperr.KindAlreadyEnrolled:
		return http.StatusConflict
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	case apperr.KindNotEnrolled, apperr.KindNotPublished, apperr.KindQuizInactive,
		apperr.KindNotStarted, apperr.KindEnded, apperr.KindAttemptsExceeded,
		apperr.KindInvalidTransition:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Unauthorized is for missing or bad credentials, before a kind exists.
func Unauthorized(c *gin.Context, detail string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, envelope{
		Success: false,
		Error:   &errBody{Kind: string(apperr.KindNotAuthorized), Detail: detail},
	})
}
