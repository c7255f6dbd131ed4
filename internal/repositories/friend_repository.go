package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"messenger-service/internal/models"
)

var (
	ErrRequestNotFound = errors.New("friend request not found")
	ErrRequestPending  = errors.New("friend request already pending")
	ErrAlreadyFriends  = errors.New("users are already friends")
)

// FriendRepository owns friend requests and confirmed friendships. It
// is the authority the chat layer consults before creating a private chat.
type FriendRepository interface {
	CreateRequest(ctx context.Context, id string, senderID, receiverID int64) (models.FriendRequest, error)
	GetRequest(ctx context.Context, id string) (models.FriendRequest, error)
	UpdateStatus(ctx context.Context, id, status string) error
	CancelRequest(ctx context.Context, id string, senderID int64) error
	PendingForReceiver(ctx context.Context, userID int64) ([]models.FriendRequestView, error)
	AddFriendship(ctx context.Context, userID, friendID int64) error
	AreFriends(ctx context.Context, userID, friendID int64) (bool, error)
	ListFriends(ctx context.Context, userID int64) ([]models.Friend, error)
}

// FriendRepo is a sqlx implementation of FriendRepository.
type FriendRepo struct {
	db *sqlx.DB
}

// NewFriendRepo constructs a FriendRepo.
func NewFriendRepo(db *sqlx.DB) *FriendRepo {
	return &FriendRepo{db: db}
}

// CreateRequest inserts a pending request, refusing when a pending or
// accepted request already exists between the pair in either direction.
// The check is advisory; the partial unique index on the pending pair
// is what holds under concurrent inserts.
func (r *FriendRepo) CreateRequest(ctx context.Context, id string, senderID, receiverID int64) (models.FriendRequest, error) {
	var existingStatus string
	err := r.db.GetContext(ctx, &existingStatus, `SELECT status FROM friend_requests
        WHERE ((sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1))
        AND status IN ('pending', 'accepted')
        ORDER BY created_at DESC LIMIT 1`, senderID, receiverID)
	if err == nil {
		if existingStatus == models.FriendRequestAccepted {
			return models.FriendRequest{}, ErrAlreadyFriends
		}
		return models.FriendRequest{}, ErrRequestPending
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.FriendRequest{}, err
	}

	var req models.FriendRequest
	err = r.db.GetContext(ctx, &req, `INSERT INTO friend_requests (id, sender_id, receiver_id, status)
        VALUES ($1, $2, $3, 'pending') RETURNING id, sender_id, receiver_id, status, created_at`,
		id, senderID, receiverID)
	if err != nil {
		if pendingPairViolation(err) {
			return models.FriendRequest{}, ErrRequestPending
		}
		return models.FriendRequest{}, err
	}
	return req, nil
}

// pendingPairViolation reports whether an insert collided with the
// one-active-request-per-pair index.
func pendingPairViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) &&
		string(pqErr.Code) == pqUniqueViolation &&
		pqErr.Constraint == "idx_friend_requests_active_pair"
}

// GetRequest fetches a request by id.
func (r *FriendRepo) GetRequest(ctx context.Context, id string) (models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.GetContext(ctx, &req, `SELECT id, sender_id, receiver_id, status, created_at
        FROM friend_requests WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.FriendRequest{}, ErrRequestNotFound
	}
	return req, err
}

// UpdateStatus transitions a pending request to accepted or rejected.
func (r *FriendRepo) UpdateStatus(ctx context.Context, id, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE friend_requests SET status=$2 WHERE id=$1 AND status='pending'`, id, status)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// CancelRequest deletes the sender's own pending request.
func (r *FriendRepo) CancelRequest(ctx context.Context, id string, senderID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM friend_requests WHERE id=$1 AND sender_id=$2 AND status='pending'`, id, senderID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrRequestNotFound
	}
	return nil
}

// PendingForReceiver lists incoming pending requests with senders resolved.
func (r *FriendRepo) PendingForReceiver(ctx context.Context, userID int64) ([]models.FriendRequestView, error) {
	var requests []models.FriendRequestView
	err := r.db.SelectContext(ctx, &requests, `SELECT fr.id, fr.status, fr.created_at,
        u.id AS sender_id, u.username AS sender_username
        FROM friend_requests fr
        JOIN users u ON u.id = fr.sender_id
        WHERE fr.receiver_id=$1 AND fr.status='pending'
        ORDER BY fr.created_at DESC`, userID)
	return requests, err
}

// AddFriendship records the confirmed friendship in both directions.
func (r *FriendRepo) AddFriendship(ctx context.Context, userID, friendID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, pair := range [][2]int64{{userID, friendID}, {friendID, userID}} {
		if _, err := tx.ExecContext(ctx, `INSERT INTO friendships (user_id, friend_id) VALUES ($1, $2)
            ON CONFLICT DO NOTHING`, pair[0], pair[1]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// AreFriends answers whether the two users are confirmed friends.
func (r *FriendRepo) AreFriends(ctx context.Context, userID, friendID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM friendships WHERE user_id=$1 AND friend_id=$2)`, userID, friendID)
	return exists, err
}

// ListFriends returns the user's friends with presence and, when one
// exists, the id of the private chat between them.
func (r *FriendRepo) ListFriends(ctx context.Context, userID int64) ([]models.Friend, error) {
	var friends []models.Friend
	err := r.db.SelectContext(ctx, &friends, `SELECT u.id, u.email, u.username, u.is_verified,
        u.is_online, u.last_seen, c.id AS chat_id
        FROM friendships f
        JOIN users u ON u.id = f.friend_id
        LEFT JOIN chats c ON c.is_group = FALSE AND c.id = (
            SELECT p1.chat_id FROM chat_participants p1
            JOIN chat_participants p2 ON p2.chat_id = p1.chat_id
            JOIN chats ch ON ch.id = p1.chat_id AND ch.is_group = FALSE
            WHERE p1.user_id = f.user_id AND p2.user_id = f.friend_id
            LIMIT 1)
        WHERE f.user_id=$1
        ORDER BY u.username`, userID)
	return friends, err
}
