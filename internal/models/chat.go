package models

import "time"

// Chat represents a conversation, private (exactly two participants)
// or group (two or more). IDs come from a sparse 128-bit space so they
// cannot be guessed.
type Chat struct {
	ID        string    `db:"id" json:"id"`
	Name      *string   `db:"name" json:"name,omitempty"`
	IsGroup   bool      `db:"is_group" json:"isGroup"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// ChatSummary is a chat with its resolved participant set.
type ChatSummary struct {
	Chat
	Participants []UserSummary `json:"participants"`
}
