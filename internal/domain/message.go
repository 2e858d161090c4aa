package domain

import "time"

type Message struct {
	ID             string    `db:"id"`
	ConversationID string    `db:"conversation_id"`
	SenderID       string    `db:"sender_id"`
	ReceiverID     string    `db:"receiver_id"`
	Content        string    `db:"content"`
	Read           bool      `db:"read"`
	CreatedAt      time.Time `db:"created_at"`
}

// UnreadSummary — агрегат непрочитанных для бейджей.
type UnreadSummary struct {
	Total         int
	Conversations []ConversationUnread
}

type ConversationUnread struct {
	ConversationID string `db:"conversation_id"`
	Count          int    `db:"count"`
}
