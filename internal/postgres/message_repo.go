package postgres

import (
	"context"

	"github.com/careplace/chat-service/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, conversationID, senderID, receiverID, content string) (*domain.Message, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO chat_messages (conversation_id, sender_id, receiver_id, content, read)
		VALUES ($1, $2, $3, $4, false)
		RETURNING id, conversation_id, sender_id, receiver_id, content, read, created_at
	`, conversationID, senderID, receiverID, content)

	var m domain.Message
	if err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Read, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// ListPage — страница истории в хронологическом порядке.
func (r *MessageRepository) ListPage(ctx context.Context, conversationID string, limit, offset int) ([]domain.Message, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, conversation_id, sender_id, receiver_id, content, read, created_at
		FROM chat_messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Read, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// MarkConversationRead — помечает прочитанными все входящие receiverID в диалоге.
// Возвращает число затронутых строк.
func (r *MessageRepository) MarkConversationRead(ctx context.Context, conversationID, receiverID string) (int64, error) {
	cmd, err := r.db.Exec(ctx, `
		UPDATE chat_messages SET read = true
		WHERE conversation_id = $1 AND receiver_id = $2 AND read = false
	`, conversationID, receiverID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

// MarkRead — идемпотентный переход false→true.
func (r *MessageRepository) MarkRead(ctx context.Context, messageID string) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE chat_messages SET read = true WHERE id = $1
	`, messageID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrMessageNotFound
	}
	return nil
}

// UnreadSummary — суммарный счётчик и разбивка по диалогам.
func (r *MessageRepository) UnreadSummary(ctx context.Context, userID string) (*domain.UnreadSummary, error) {
	rows, err := r.db.Query(ctx, `
		SELECT conversation_id, COUNT(*)
		FROM chat_messages
		WHERE receiver_id = $1 AND read = false
		GROUP BY conversation_id
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sum := &domain.UnreadSummary{Conversations: make([]domain.ConversationUnread, 0, 8)}
	for rows.Next() {
		var cu domain.ConversationUnread
		if err := rows.Scan(&cu.ConversationID, &cu.Count); err != nil {
			return nil, err
		}
		sum.Conversations = append(sum.Conversations, cu)
		sum.Total += cu.Count
	}
	return sum, rows.Err()
}
