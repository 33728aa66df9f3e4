package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/openlearnhq/openlearn-backend/internal/domain"
	"github.com/openlearnhq/openlearn-backend/internal/http/response"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
	"github.com/openlearnhq/openlearn-backend/internal/requestdata"
	"github.com/openlearnhq/openlearn-backend/internal/services"
)

// RequireAuth validates the bearer token and stashes the caller's identity
// in the request context for handlers downstream.
func RequireAuth(auth services.AuthService, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			response.Unauthorized(c, "missing bearer token")
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		claims, err := auth.ValidateAccessToken(c.Request.Context(), token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			return
		}

		rd := &requestdata.RequestData{
			UserID:      claims.UserID,
			Role:        claims.Role,
			TokenString: token,
		}
		c.Request = c.Request.WithContext(requestdata.WithRequestData(c.Request.Context(), rd))
		c.Next()
	}
}

func RequireInstructor() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := requestdata.GetRequestData(c.Request.Context())
		if rd == nil || (rd.Role != domain.RoleInstructor && rd.Role != domain.RoleAdmin) {
			response.Unauthorized(c, "instructor access required")
			return
		}
		c.Next()
	}
}

func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := requestdata.GetRequestData(c.Request.Context())
		if rd == nil || rd.Role != domain.RoleAdmin {
			response.Unauthorized(c, "admin access required")
			return
		}
		c.Next()
	}
}
