package domain

import "time"

// Conversation — приватный тред между клиентом и исполнителем.
// Пара участников нормализована: UserA < UserB (лексикографически).
type Conversation struct {
	ID            string     `db:"id"`
	UserA         string     `db:"user_a"`
	UserB         string     `db:"user_b"`
	LastMessageID *string    `db:"last_message_id"`
	LastMessageAt *time.Time `db:"last_message_at"`
	CreatedAt     time.Time  `db:"created_at"`
}

// HasParticipant — оба id уже канонизированы на границе.
func (c *Conversation) HasParticipant(userID string) bool {
	return c.UserA == userID || c.UserB == userID
}

// Peer возвращает второго участника для userID.
func (c *Conversation) Peer(userID string) string {
	if c.UserA == userID {
		return c.UserB
	}
	return c.UserA
}

// NormalizePair приводит пару к каноническому порядку хранения.
func NormalizePair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}
