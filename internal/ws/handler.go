package ws

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"messenger-service/internal/chat"
	"messenger-service/internal/models"
	"messenger-service/internal/observability"
	"messenger-service/internal/repositories"
	"messenger-service/internal/token"
)

// Handler admits authenticated websocket sessions at /ws.
type Handler struct {
	hub     *Hub
	users   repositories.UserRepository
	tokens  *token.Manager
	service *chat.Service
}

// NewHandler constructs a Handler.
func NewHandler(hub *Hub, users repositories.UserRepository, tokens *token.Manager, service *chat.Service) *Handler {
	return &Handler{hub: hub, users: users, tokens: tokens, service: service}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Handle authenticates the handshake, upgrades the connection and runs
// the session until the transport closes. Rejections happen before the
// upgrade so the client sees a plain HTTP status.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("messenger-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	credential := credentialFromRequest(c)
	if credential == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing credentials"})
		return
	}

	userID, err := h.tokens.Verify(credential)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      uuid.NewString(),
		UserID:      user.ID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}

	// The request context is canceled the moment this handler returns,
	// but the session and its disconnect bookkeeping outlive it. The
	// session context keeps the trace values without the cancellation.
	sessionCtx := context.WithoutCancel(ctx)
	client := newClient(sessionCtx, h.hub, conn, h.service, user, info)

	becameOnline := h.hub.Register(client)
	if becameOnline {
		if err := h.users.SetOnline(sessionCtx, user.ID, true); err == nil {
			h.hub.BroadcastAll(models.ServerEvent{
				Event: models.EventUserOnline,
				Data:  models.PresencePayload{UserID: user.ID},
			})
		}
	}

	observability.IncWSActive()
	observability.IncWSEvent("ws_connect")
	_ = observability.PublishEvent(sessionCtx, "ws_events.sessions", observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload:   sessionEventPayload("ws_connect", info, 0, ""),
	}, observability.BuildHeaders(requestID, traceID))

	go client.writePump()

	go func() {
		closeReason := client.readPump()

		wentOffline := h.hub.Unregister(client)
		if wentOffline {
			if err := h.users.SetOnline(sessionCtx, user.ID, false); err == nil {
				h.hub.BroadcastAll(models.ServerEvent{
					Event: models.EventUserOffline,
					Data:  models.PresencePayload{UserID: user.ID},
				})
			}
		}

		observability.DecWSActive()
		observability.IncWSEvent("ws_disconnect")
		_ = observability.PublishEvent(sessionCtx, "ws_events.sessions", observability.EventEnvelope{
			EventType: "ws_events",
			EventName: "ws_disconnect",
			Payload:   sessionEventPayload("ws_disconnect", info, time.Since(info.ConnectedAt).Milliseconds(), closeReason),
		}, observability.BuildHeaders(requestID, traceID))

		conn.Close()
	}()
}

// credentialFromRequest resolves the session token: cookie first, then
// the Authorization header, then a token query parameter for clients
// that cannot set headers on the websocket handshake.
func credentialFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie("token"); err == nil && cookie != "" {
		return strings.TrimPrefix(cookie, "Bearer ")
	}
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return c.Query("token")
}

func sessionEventPayload(event string, info ConnInfo, durationMs int64, reason string) map[string]interface{} {
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": durationMs,
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   strconv.FormatInt(info.UserID, 10),
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
}
