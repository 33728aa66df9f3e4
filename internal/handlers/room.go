package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openlearnhq/openlearn-backend/internal/http/response"
	"github.com/openlearnhq/openlearn-backend/internal/platform/logger"
	"github.com/openlearnhq/openlearn-backend/internal/realtime"
	"github.com/openlearnhq/openlearn-backend/internal/services"
)

type RoomHandler struct {
	hub      *realtime.RoomHub
	sessions services.LiveSessionService
	log      *logger.Logger
}

func NewRoomHandler(hub *realtime.RoomHub, sessions services.LiveSessionService, baseLog *logger.Logger) *RoomHandler {
	return &RoomHandler{hub: hub, sessions: sessions, log: baseLog.With("handler", "RoomHandler")}
}

// Stream holds the connection open and writes room events as SSE frames
// until the client disconnects or the hub drops the subscriber.
func (h *RoomHandler) Stream(c *gin.Context) {
	roomID := c.Param("roomId")
	session, err := h.sessions.GetByRoomID(c.Request.Context(), roomID)
	if err != nil {
		response.Error(c, err)
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := h.hub.Subscribe(session.RoomID)
	defer h.hub.Unsubscribe(sub)

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			raw, err := json.Marshal(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event.Type, raw)
			flusher.Flush()
		}
	}
}
