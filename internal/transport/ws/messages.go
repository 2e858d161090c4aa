package ws

// Типы событий realtime-протокола
const (
	TypeOnlineUsers = "online-users" // снапшот online-пользователей новой сессии
	TypeUserOnline  = "user-online"
	TypeUserOffline = "user-offline"

	TypeJoinConversation  = "join-conversation"
	TypeLeaveConversation = "leave-conversation"

	TypeSendMessage         = "send-message"
	TypeNewMessage          = "new-message"           // в канал диалога
	TypeMessageNotification = "message-notification"  // в персональный канал получателя

	TypeTyping     = "typing"
	TypeUserTyping = "user-typing"

	TypeMarkRead = "mark-read"
	TypeReadAck  = "read-ack" // подтверждение только вызывающему

	TypeError = "error"
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type OnlineUsersPayload struct {
	UserIDs []string `json:"user_ids"`
}

type PresencePayload struct {
	UserID string `json:"user_id"`
}

type JoinConversationPayload struct {
	ConversationID string `json:"conversation_id"`
}

type SendMessagePayload struct {
	ConversationID string `json:"conversation_id,omitempty"`
	ReceiverID     string `json:"receiver_id"`
	Content        string `json:"content"`
}

type MessagePayload struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	SenderID       string `json:"sender_id"`
	ReceiverID     string `json:"receiver_id"`
	Content        string `json:"content"`
	Read           bool   `json:"read"`
	TSUnix         int64  `json:"ts_unix"`
}

type TypingPayload struct {
	ConversationID string `json:"conversation_id"`
	IsTyping       bool   `json:"is_typing"`
}

type UserTypingPayload struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	IsTyping       bool   `json:"is_typing"`
}

type MarkReadPayload struct {
	MessageID string `json:"message_id"`
}

type ReadAckPayload struct {
	MessageID string `json:"message_id"`
}

type ErrorPayload struct {
	Reason string `json:"reason"`
}
