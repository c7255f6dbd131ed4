package repositories

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"messenger-service/internal/models"
)

var (
	ErrInvalidPage  = errors.New("page must be >= 0")
	ErrInvalidLimit = errors.New("limit must be between 1 and 100")
)

const pqForeignKeyViolation = "23503"

const messageColumns = `m.id, m.chat_id, m.sender_id, m.content, m.created_at,
    u.username AS sender_username, u.is_online AS sender_online`

// MessageRepository is the durable, append-only message log.
type MessageRepository interface {
	Append(ctx context.Context, chatID string, senderID int64, content string) (models.Message, error)
	Page(ctx context.Context, chatID string, page, limit int) (models.MessagePage, error)
}

// MessageRepo is a sqlx implementation of MessageRepository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Append stores one immutable message and returns it with the sender
// display fields resolved, so the caller can broadcast it as-is.
func (r *MessageRepo) Append(ctx context.Context, chatID string, senderID int64, content string) (models.Message, error) {
	var id int64
	err := r.db.GetContext(ctx, &id, `INSERT INTO messages (chat_id, sender_id, content)
        VALUES ($1, $2, $3) RETURNING id`, chatID, senderID, content)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqForeignKeyViolation {
			if pqErr.Constraint == "messages_sender_id_fkey" {
				return models.Message{}, ErrUserNotFound
			}
			return models.Message{}, ErrChatNotFound
		}
		return models.Message{}, err
	}

	var msg models.Message
	err = r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages m
        JOIN users u ON u.id = m.sender_id WHERE m.id=$1`, id)
	return msg, err
}

// Page returns one page of history, newest first. Page 0 is a probe
// that reports only the total count; pages are otherwise 1-based.
func (r *MessageRepo) Page(ctx context.Context, chatID string, page, limit int) (models.MessagePage, error) {
	if page < 0 {
		return models.MessagePage{}, ErrInvalidPage
	}
	if limit < 1 || limit > 100 {
		return models.MessagePage{}, ErrInvalidLimit
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM chats WHERE id=$1)`, chatID); err != nil {
		return models.MessagePage{}, err
	}
	if !exists {
		return models.MessagePage{}, ErrChatNotFound
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM messages WHERE chat_id=$1`, chatID); err != nil {
		return models.MessagePage{}, err
	}

	result := models.MessagePage{Data: []models.Message{}, TotalMessages: total, Page: page, Limit: limit}
	if page == 0 {
		return result, nil
	}

	err := r.db.SelectContext(ctx, &result.Data, `SELECT `+messageColumns+` FROM messages m
        JOIN users u ON u.id = m.sender_id
        WHERE m.chat_id=$1
        ORDER BY m.created_at DESC, m.id DESC
        OFFSET $2 LIMIT $3`, chatID, (page-1)*limit, limit)
	if result.Data == nil {
		result.Data = []models.Message{}
	}
	return result, err
}
