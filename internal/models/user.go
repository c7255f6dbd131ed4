package models

import "time"

// User is an account row. The password hash and token columns never
// leave the service in JSON.
type User struct {
	ID                    int64      `db:"id" json:"id"`
	Email                 string     `db:"email" json:"email"`
	Username              string     `db:"username" json:"username"`
	PasswordHash          string     `db:"password_hash" json:"-"`
	IsVerified            bool       `db:"is_verified" json:"isVerified"`
	VerificationToken     *string    `db:"verification_token" json:"-"`
	VerificationExpiresAt *time.Time `db:"verification_expires_at" json:"-"`
	ResetToken            *string    `db:"reset_token" json:"-"`
	IsOnline              bool       `db:"is_online" json:"isOnline"`
	LastSeen              *time.Time `db:"last_seen" json:"lastSeen,omitempty"`
	CreatedAt             time.Time  `db:"created_at" json:"createdAt"`
}

// UserSummary is the public projection used in search results and
// participant lists.
type UserSummary struct {
	ID       int64  `db:"id" json:"id"`
	Username string `db:"username" json:"username"`
	Email    string `db:"email" json:"email,omitempty"`
	IsOnline bool   `db:"is_online" json:"isOnline"`
}
