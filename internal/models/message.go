package models

import "time"

// Message is an immutable chat message. The sender display fields are
// resolved at read time so the broadcast payload is complete without a
// second lookup.
type Message struct {
	ID             int64     `db:"id" json:"id"`
	ChatID         string    `db:"chat_id" json:"chatId"`
	SenderID       int64     `db:"sender_id" json:"senderId"`
	SenderUsername string    `db:"sender_username" json:"senderUsername"`
	SenderOnline   bool      `db:"sender_online" json:"senderOnline"`
	Content        string    `db:"content" json:"content"`
	CreatedAt      time.Time `db:"created_at" json:"timestamp"`
}

// MessagePage is one page of history, newest first within the page.
type MessagePage struct {
	Data          []Message `json:"data"`
	TotalMessages int       `json:"totalMessages"`
	Page          int       `json:"page"`
	Limit         int       `json:"limit"`
}
