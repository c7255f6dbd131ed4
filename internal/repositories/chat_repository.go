package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"messenger-service/internal/models"
)

var ErrChatNotFound = errors.New("chat not found")

// ChatRepository abstracts chat persistence.
type ChatRepository interface {
	CreateOrGetPrivateChat(ctx context.Context, userID, friendID int64) (models.Chat, error)
	CreateGroupChat(ctx context.Context, name string, creatorID int64, memberIDs []int64) (models.Chat, error)
	GetChat(ctx context.Context, chatID string) (models.Chat, error)
	IsParticipant(ctx context.Context, chatID string, userID int64) (bool, error)
	ListChats(ctx context.Context, userID int64) ([]models.ChatSummary, error)
	Participants(ctx context.Context, chatID string) ([]models.UserSummary, error)
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

const findPrivateChatQuery = `SELECT id, name, is_group, created_at FROM chats
    WHERE user_a = $1 AND user_b = $2`

// CreateOrGetPrivateChat returns the private chat between two users,
// creating it on first call. Private chats carry the ordered pair in
// (user_a, user_b) under a unique index, so two concurrent first
// requests for the same pair resolve to one chat: the loser's insert
// hits the conflict and reads back the winner's row.
func (r *ChatRepo) CreateOrGetPrivateChat(ctx context.Context, userID, friendID int64) (models.Chat, error) {
	if userID == friendID {
		return models.Chat{}, errors.New("cannot create chat with self")
	}
	a, b := orderedPair(userID, friendID)

	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, findPrivateChatQuery, a, b)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Chat{}, err
	}
	defer tx.Rollback()

	chatID := uuid.NewString()
	err = tx.GetContext(ctx, &chat, `INSERT INTO chats (id, is_group, user_a, user_b)
        VALUES ($1, FALSE, $2, $3)
        ON CONFLICT (user_a, user_b) DO NOTHING
        RETURNING id, name, is_group, created_at`, chatID, a, b)
	if errors.Is(err, sql.ErrNoRows) {
		// Lost the race; the committed row is the canonical chat.
		if err := tx.GetContext(ctx, &chat, findPrivateChatQuery, a, b); err != nil {
			return models.Chat{}, err
		}
		return chat, tx.Commit()
	}
	if err != nil {
		return models.Chat{}, err
	}

	for _, id := range []int64{userID, friendID} {
		if _, err := tx.ExecContext(ctx, `INSERT INTO chat_participants (chat_id, user_id) VALUES ($1, $2)`, chatID, id); err != nil {
			return models.Chat{}, err
		}
	}

	return chat, tx.Commit()
}

// orderedPair normalizes an unordered user pair to (low, high).
func orderedPair(a, b int64) (int64, int64) {
	if a < b {
		return a, b
	}
	return b, a
}

// CreateGroupChat creates a named group chat with the creator plus members.
func (r *ChatRepo) CreateGroupChat(ctx context.Context, name string, creatorID int64, memberIDs []int64) (models.Chat, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Chat{}, err
	}
	defer tx.Rollback()

	var chat models.Chat
	chatID := uuid.NewString()
	if err := tx.GetContext(ctx, &chat, `INSERT INTO chats (id, name, is_group) VALUES ($1, $2, TRUE)
        RETURNING id, name, is_group, created_at`, chatID, name); err != nil {
		return models.Chat{}, err
	}

	seen := map[int64]bool{creatorID: true}
	members := []int64{creatorID}
	for _, id := range memberIDs {
		if !seen[id] {
			seen[id] = true
			members = append(members, id)
		}
	}
	for _, id := range members {
		if _, err := tx.ExecContext(ctx, `INSERT INTO chat_participants (chat_id, user_id) VALUES ($1, $2)`, chatID, id); err != nil {
			return models.Chat{}, err
		}
	}

	return chat, tx.Commit()
}

// GetChat fetches a chat by id.
func (r *ChatRepo) GetChat(ctx context.Context, chatID string) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT id, name, is_group, created_at FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// IsParticipant checks whether a user belongs to the chat.
func (r *ChatRepo) IsParticipant(ctx context.Context, chatID string, userID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM chat_participants WHERE chat_id=$1 AND user_id=$2)`, chatID, userID)
	return exists, err
}

// ListChats returns the chats the user participates in, with participants.
func (r *ChatRepo) ListChats(ctx context.Context, userID int64) ([]models.ChatSummary, error) {
	var chats []models.Chat
	err := r.db.SelectContext(ctx, &chats, `SELECT c.id, c.name, c.is_group, c.created_at FROM chats c
        JOIN chat_participants p ON p.chat_id = c.id AND p.user_id = $1
        ORDER BY c.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}

	result := make([]models.ChatSummary, 0, len(chats))
	for _, chat := range chats {
		participants, err := r.Participants(ctx, chat.ID)
		if err != nil {
			return nil, err
		}
		result = append(result, models.ChatSummary{Chat: chat, Participants: participants})
	}
	return result, nil
}

// Participants returns the users in a chat.
func (r *ChatRepo) Participants(ctx context.Context, chatID string) ([]models.UserSummary, error) {
	var users []models.UserSummary
	err := r.db.SelectContext(ctx, &users, `SELECT u.id, u.username, u.email, u.is_online FROM users u
        JOIN chat_participants p ON p.user_id = u.id
        WHERE p.chat_id = $1 ORDER BY u.id`, chatID)
	return users, err
}
