package postgres

import (
	"context"
	"time"

	"github.com/careplace/chat-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ConversationRepository struct {
	db *pgxpool.Pool
}

func NewConversationRepository(db *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Upsert — атомарный get-or-create по канонической паре участников.
// Пара хранится упорядоченной (user_a < user_b), уникальный индекс по (user_a, user_b);
// два параллельных первых сообщения одной пары разрешаются в одну строку.
func (r *ConversationRepository) Upsert(ctx context.Context, userA, userB string) (*domain.Conversation, error) {
	a, b := domain.NormalizePair(userA, userB)

	row := r.db.QueryRow(ctx, `
		INSERT INTO conversations (user_a, user_b)
		VALUES ($1, $2)
		ON CONFLICT (user_a, user_b) DO UPDATE SET user_a = EXCLUDED.user_a
		RETURNING id, user_a, user_b, last_message_id, last_message_at, created_at
	`, a, b)

	var c domain.Conversation
	if err := row.Scan(&c.ID, &c.UserA, &c.UserB, &c.LastMessageID, &c.LastMessageAt, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *ConversationRepository) Get(ctx context.Context, id string) (*domain.Conversation, error) {
	var c domain.Conversation
	err := r.db.QueryRow(ctx, `
		SELECT id, user_a, user_b, last_message_id, last_message_at, created_at
		FROM conversations WHERE id=$1
	`, id).Scan(&c.ID, &c.UserA, &c.UserB, &c.LastMessageID, &c.LastMessageAt, &c.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}
	return &c, nil
}

type ConversationListRow struct {
	ID        string
	CreatedAt time.Time

	PeerID          string
	PeerDisplayName string
	PeerAvatarURL   *string
	PeerEmail       string
	PeerRole        string

	LastMessageID        *string
	LastMessageSenderID  *string
	LastMessageContent   *string
	LastMessageRead      *bool
	LastMessageCreatedAt *time.Time
}

// ListForUser — диалоги пользователя с проекцией собеседника и последним сообщением.
// Пустые диалоги сортируются после всех, где сообщения уже есть.
func (r *ConversationRepository) ListForUser(ctx context.Context, userID string) ([]ConversationListRow, error) {
	const q = `
SELECT c.id,
       c.created_at,
       u.id,
       u.display_name,
       u.avatar_url,
       u.email,
       u.role,
       m.id,
       m.sender_id,
       m.content,
       m.read,
       m.created_at
FROM conversations AS c
JOIN users AS u
  ON u.id = CASE WHEN c.user_a = $1 THEN c.user_b ELSE c.user_a END
LEFT JOIN chat_messages AS m ON m.id = c.last_message_id
WHERE c.user_a = $1 OR c.user_b = $1
ORDER BY c.last_message_at DESC NULLS LAST, c.created_at DESC
`
	rows, err := r.db.Query(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ConversationListRow, 0, 16)
	for rows.Next() {
		var row ConversationListRow
		if err := rows.Scan(
			&row.ID,
			&row.CreatedAt,
			&row.PeerID,
			&row.PeerDisplayName,
			&row.PeerAvatarURL,
			&row.PeerEmail,
			&row.PeerRole,
			&row.LastMessageID,
			&row.LastMessageSenderID,
			&row.LastMessageContent,
			&row.LastMessageRead,
			&row.LastMessageCreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}

	return out, rows.Err()
}

func (r *ConversationRepository) SetLastMessage(ctx context.Context, conversationID, messageID string, at time.Time) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE conversations SET last_message_id=$2, last_message_at=$3 WHERE id=$1
	`, conversationID, messageID, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrConversationNotFound
	}
	return nil
}
