package http

import "time"

type ErrorResponse struct {
	Error string `json:"error"`
}

type CreateConversationRequest struct {
	ReceiverID string `json:"receiver_id"`
}

type SendMessageRequest struct {
	ConversationID string `json:"conversation_id"`
	ReceiverID     string `json:"receiver_id"`
	Content        string `json:"content"`
}

type PeerItem struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
	Email       string  `json:"email"`
	Role        string  `json:"role"`
	Online      bool    `json:"online"`
}

type MessageItem struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	ReceiverID     string    `json:"receiver_id"`
	Content        string    `json:"content"`
	Read           bool      `json:"read"`
	CreatedAt      time.Time `json:"created_at"`
}

type ConversationItem struct {
	ID          string       `json:"id"`
	Peer        PeerItem     `json:"peer"`
	LastMessage *MessageItem `json:"last_message,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

type ConversationsResponse struct {
	Items []ConversationItem `json:"items"`
}

type CreatedConversation struct {
	ID           string    `json:"id"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
}

type MessagesResponse struct {
	Items []MessageItem `json:"items"`
	Page  int           `json:"page"`
}

type UnreadConversationItem struct {
	ConversationID string `json:"conversation_id"`
	Count          int    `json:"count"`
}

type UnreadResponse struct {
	TotalUnread   int                      `json:"total_unread"`
	Conversations []UnreadConversationItem `json:"conversations"`
}
