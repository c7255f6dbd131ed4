package models

import "encoding/json"

// Event names multiplexed over the realtime connection.
const (
	// client -> server
	EventSendMessage = "sendMessage"
	EventJoinChat    = "joinChat"
	EventLeaveChat   = "leaveChat"
	EventTyping      = "typing"

	// server -> client
	EventNewMessage  = "newMessage"
	EventUserOnline  = "userOnline"
	EventUserOffline = "userOffline"
	EventUserTyping  = "userTyping"
	EventError       = "error"
)

// ClientEvent is a frame received from a client; Data is decoded per
// event name.
type ClientEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ServerEvent is a frame sent to clients.
type ServerEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// SendMessagePayload carries a realtime send request.
type SendMessagePayload struct {
	ChatID  string `json:"chatId"`
	Content string `json:"content"`
}

// TypingPayload carries a typing-indicator toggle from a client.
type TypingPayload struct {
	ChatID   string `json:"chatId"`
	IsTyping bool   `json:"isTyping"`
}

// PresencePayload announces a user going online or offline.
type PresencePayload struct {
	UserID int64 `json:"userId"`
}

// UserTypingPayload relays a typing indicator to room subscribers.
type UserTypingPayload struct {
	UserID   int64  `json:"userId"`
	IsTyping bool   `json:"isTyping"`
	ChatID   string `json:"chatId"`
}

// ErrorPayload is a scoped error delivered only to the offending
// connection.
type ErrorPayload struct {
	Message string `json:"message"`
}
