package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openlearnhq/openlearn-backend/internal/http/response"
	"github.com/openlearnhq/openlearn-backend/internal/platform/apperr"
)

// uuidParam parses a path parameter as a UUID, writing the 422 itself on
// failure. Callers bail out when ok is false.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Error(c, apperr.E(apperr.KindValidation, name+" must be a valid uuid"))
		return uuid.Nil, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string, defaultVal int) int {
	raw := c.Query(name)
	if raw == "" {
		return defaultVal
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return defaultVal
	}
	return value
}

func int64Query(c *gin.Context, name string, defaultVal int64) int64 {
	raw := c.Query(name)
	if raw == "" {
		return defaultVal
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return defaultVal
	}
	return value
}
