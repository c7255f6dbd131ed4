package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"messenger-service/internal/chat"
	"messenger-service/internal/models"
	"messenger-service/internal/observability"
	"messenger-service/internal/repositories"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 256
)

// Client is one authenticated realtime connection. The resolved user is
// attached at admission and threaded through every handler; it is never
// re-derived from ambient state.
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	service *chat.Service
	ctx     context.Context

	user models.User
	info ConnInfo

	send      chan models.ServerEvent
	closeOnce sync.Once

	// chats is the set of chat ids this connection subscribes to,
	// guarded by the hub lock.
	chats map[string]struct{}
}

func newClient(ctx context.Context, hub *Hub, conn *websocket.Conn, service *chat.Service, user models.User, info ConnInfo) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		service: service,
		ctx:     ctx,
		user:    user,
		info:    info,
		send:    make(chan models.ServerEvent, sendBuffer),
		chats:   make(map[string]struct{}),
	}
}

// trySend enqueues an event for delivery. A connection that cannot keep
// up has its transport closed; the read pump then tears it down.
func (c *Client) trySend(event models.ServerEvent) {
	select {
	case c.send <- event:
	default:
		if c.conn != nil {
			c.conn.Close()
		}
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}

func (c *Client) sendError(message string) {
	c.trySend(models.ServerEvent{Event: models.EventError, Data: models.ErrorPayload{Message: message}})
}

// readPump reads frames until the transport closes and dispatches them
// by event name. It returns the close reason, if any.
func (c *Client) readPump() string {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return ""
			}
			return err.Error()
		}

		var event models.ClientEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			c.sendError("malformed event")
			continue
		}
		c.dispatch(event)
	}
}

// writePump drains the send queue onto the transport and keeps the
// connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				log.Printf("websocket write error: %v", err)
				observability.IncWSEvent("ws_error")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) dispatch(event models.ClientEvent) {
	switch event.Event {
	case models.EventSendMessage:
		c.handleSendMessage(event.Data)
	case models.EventJoinChat:
		if chatID, ok := decodeChatID(event.Data); ok {
			c.hub.Join(c, chatID)
		} else {
			c.sendError("invalid chat id")
		}
	case models.EventLeaveChat:
		if chatID, ok := decodeChatID(event.Data); ok {
			c.hub.Leave(c, chatID)
		} else {
			c.sendError("invalid chat id")
		}
	case models.EventTyping:
		c.handleTyping(event.Data)
	default:
		c.sendError("unknown event: " + event.Event)
	}
}

// handleSendMessage runs the authoritative send protocol. Failures are
// reported to this connection only; the session stays open.
func (c *Client) handleSendMessage(data json.RawMessage) {
	var payload models.SendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		c.sendError("malformed sendMessage payload")
		return
	}

	if _, err := c.service.Send(c.ctx, payload.ChatID, c.user.ID, payload.Content); err != nil {
		observability.IncWSEvent("send_rejected")
		c.sendError(sendErrorMessage(err, payload.ChatID))
	}
}

func (c *Client) handleTyping(data json.RawMessage) {
	var payload models.TypingPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		c.sendError("malformed typing payload")
		return
	}

	c.hub.BroadcastToChatExcept(payload.ChatID, c, models.ServerEvent{
		Event: models.EventUserTyping,
		Data: models.UserTypingPayload{
			UserID:   c.user.ID,
			IsTyping: payload.IsTyping,
			ChatID:   payload.ChatID,
		},
	})
}

// decodeChatID accepts either a bare JSON string or {"chatId": "..."}.
func decodeChatID(data json.RawMessage) (string, bool) {
	var chatID string
	if err := json.Unmarshal(data, &chatID); err == nil && chatID != "" {
		return chatID, true
	}
	var payload struct {
		ChatID string `json:"chatId"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.ChatID != "" {
		return payload.ChatID, true
	}
	return "", false
}

func sendErrorMessage(err error, chatID string) string {
	switch {
	case errors.Is(err, chat.ErrInvalidChatID):
		return "invalid chat id: must be a valid UUID"
	case errors.Is(err, chat.ErrEmptyContent):
		return "content cannot be empty"
	case errors.Is(err, repositories.ErrChatNotFound):
		return "chat " + chatID + " not found"
	case errors.Is(err, repositories.ErrUserNotFound):
		return "sender not found"
	default:
		return "failed to send message"
	}
}
