package models

import "time"

// Friend request states.
const (
	FriendRequestPending  = "pending"
	FriendRequestAccepted = "accepted"
	FriendRequestRejected = "rejected"
)

// FriendRequest tracks an invitation between two users. At most one
// active (pending or accepted) request exists per unordered pair.
type FriendRequest struct {
	ID         string    `db:"id" json:"id"`
	SenderID   int64     `db:"sender_id" json:"senderId"`
	ReceiverID int64     `db:"receiver_id" json:"receiverId"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// FriendRequestView is an incoming request with the sender resolved.
type FriendRequestView struct {
	ID             string    `db:"id" json:"id"`
	Status         string    `db:"status" json:"status"`
	SenderID       int64     `db:"sender_id" json:"senderId"`
	SenderUsername string    `db:"sender_username" json:"senderUsername"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// Friend is a confirmed friend together with the private chat id, if
// one has been created yet.
type Friend struct {
	ID         int64      `db:"id" json:"id"`
	Email      string     `db:"email" json:"email"`
	Username   string     `db:"username" json:"username"`
	IsVerified bool       `db:"is_verified" json:"isVerified"`
	IsOnline   bool       `db:"is_online" json:"isOnline"`
	LastSeen   *time.Time `db:"last_seen" json:"lastSeen,omitempty"`
	ChatID     *string    `db:"chat_id" json:"chatId"`
}
