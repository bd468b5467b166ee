// internal/handlers/events/events_handler.go
package events

import (
	"io"
	"net/http"

	"neusentra-service/internal/pkg/response"
	"neusentra-service/internal/sse"
	ws "neusentra-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EventsHandler exposes the event gateway to browsers as SSE streams and,
// for clients that prefer it, a websocket bridge onto the same gateway.
type EventsHandler struct {
	gateway *sse.Gateway
	emitter *sse.Emitter
	bridge  *ws.Bridge
	logger  *zap.Logger
}

func NewEventsHandler(gateway *sse.Gateway, emitter *sse.Emitter, bridge *ws.Bridge, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{
		gateway: gateway,
		emitter: emitter,
		bridge:  bridge,
		logger:  logger,
	}
}

// ServerEvents streams the global feed: heartbeats plus every broadcast
// event. Each consumer gets its own subscription so slow readers never
// block each other.
func (h *EventsHandler) ServerEvents(c *gin.Context) {
	feed, cancel := h.emitter.Subscribe()
	defer cancel()

	h.logger.Debug("server event stream opened", zap.String("client_ip", c.ClientIP()))

	setStreamHeaders(c)
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-feed:
			if !ok {
				return false
			}
			c.SSEvent(ev.Event, ev.Data)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// UserEvents streams events targeted at a single user. The caller's role
// comes from the X-User-Role header and scopes role-wide broadcasts.
func (h *EventsHandler) UserEvents(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		response.Error(c, http.StatusBadRequest, "missing user id", nil)
		return
	}

	role := c.GetHeader("X-User-Role")
	if role == "" {
		role = "guest"
	}

	ch := h.gateway.AddClient(userID, role)
	defer h.gateway.Release(userID, ch)

	h.logger.Debug("user event stream opened",
		zap.String("user_id", userID),
		zap.String("role", role),
	)

	setStreamHeaders(c)
	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Event, ev.Data)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// WebSocket upgrades the connection and bridges it onto the gateway,
// delivering the same per-user stream over a websocket.
func (h *EventsHandler) WebSocket(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		response.Error(c, http.StatusBadRequest, "missing user id", nil)
		return
	}

	role := c.GetHeader("X-User-Role")
	if role == "" {
		role = "guest"
	}

	if err := h.bridge.Serve(c.Writer, c.Request, userID, role); err != nil {
		h.logger.Warn("websocket upgrade failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}
}

func setStreamHeaders(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
}
