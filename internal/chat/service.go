// Package chat implements the authoritative send-message pipeline shared
// by the realtime and HTTP paths.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"messenger-service/internal/models"
	"messenger-service/internal/repositories"
)

var (
	ErrInvalidChatID = errors.New("invalid chat id")
	ErrEmptyContent  = errors.New("content cannot be empty")
)

// Broadcaster fans an event out to every live subscriber of a chat.
// Satisfied by *ws.Hub.
type Broadcaster interface {
	BroadcastToChat(chatID string, event models.ServerEvent)
}

// Service validates a send, appends it durably and broadcasts the
// canonical message. The mutex spans append+broadcast so subscribers
// observe messages in append-completion order, even under concurrent
// sends from the socket and HTTP paths.
type Service struct {
	mu       sync.Mutex
	chats    repositories.ChatRepository
	users    repositories.UserRepository
	messages repositories.MessageRepository
	hub      Broadcaster
}

// NewService builds a Service.
func NewService(chats repositories.ChatRepository, users repositories.UserRepository, messages repositories.MessageRepository, hub Broadcaster) *Service {
	return &Service{chats: chats, users: users, messages: messages, hub: hub}
}

// Send runs the full send protocol. On any error nothing is stored and
// nothing is broadcast; the caller reports the error to the sender only.
func (s *Service) Send(ctx context.Context, chatID string, senderID int64, content string) (models.Message, error) {
	if _, err := uuid.Parse(chatID); err != nil {
		return models.Message{}, ErrInvalidChatID
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return models.Message{}, ErrEmptyContent
	}

	if _, err := s.chats.GetChat(ctx, chatID); err != nil {
		return models.Message{}, err
	}
	// Re-check the sender even though the connection authenticated; the
	// account could have gone away since admission.
	if _, err := s.users.GetByID(ctx, senderID); err != nil {
		return models.Message{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msg, err := s.messages.Append(ctx, chatID, senderID, content)
	if err != nil {
		return models.Message{}, err
	}

	span := trace.SpanFromContext(ctx)
	span.AddEvent("message.append", trace.WithAttributes(
		attribute.String("chat.id", chatID),
		attribute.Int64("message.id", msg.ID),
	))

	s.hub.BroadcastToChat(chatID, models.ServerEvent{Event: models.EventNewMessage, Data: msg})
	return msg, nil
}
