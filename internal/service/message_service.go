package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/careplace/chat-service/internal/domain"
	"github.com/careplace/chat-service/internal/postgres"
)

type MessageRepo interface {
	Create(ctx context.Context, conversationID, senderID, receiverID, content string) (*domain.Message, error)
	ListPage(ctx context.Context, conversationID string, limit, offset int) ([]domain.Message, error)
	MarkConversationRead(ctx context.Context, conversationID, receiverID string) (int64, error)
	MarkRead(ctx context.Context, messageID string) error
	UnreadSummary(ctx context.Context, userID string) (*domain.UnreadSummary, error)
}

const maxContentLen = 4000 // todo: вынести в конфиг

type MessageService struct {
	assoc    Authorizer
	convRepo ConversationRepo
	msgRepo  MessageRepo
}

func NewMessageService(assoc Authorizer, convRepo ConversationRepo, msgRepo MessageRepo) *MessageService {
	return &MessageService{
		assoc:    assoc,
		convRepo: convRepo,
		msgRepo:  msgRepo,
	}
}

// Send — единственный путь записи сообщения (REST и realtime ходят сюда).
// Все проверки до первой мутации: отклонённая отправка не оставляет
// ни диалога, ни сообщения.
func (s *MessageService) Send(ctx context.Context, senderID, conversationID, receiverID, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, domain.ErrEmptyContent
	}
	if len(content) > maxContentLen {
		return nil, domain.ErrContentTooLong
	}

	if _, err := s.assoc.Authorize(ctx, senderID, receiverID); err != nil {
		return nil, err
	}

	sender, err := CanonicalID(senderID)
	if err != nil {
		return nil, err
	}
	receiver, err := CanonicalID(receiverID)
	if err != nil {
		return nil, err
	}

	conv, err := s.resolveConversation(ctx, conversationID, sender, receiver)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(sender) || !conv.HasParticipant(receiver) {
		return nil, domain.ErrNotParticipant
	}

	msg, err := s.msgRepo.Create(ctx, conv.ID, sender, receiver, content)
	if err != nil {
		return nil, fmt.Errorf("message create: %w", err)
	}

	if err := s.convRepo.SetLastMessage(ctx, conv.ID, msg.ID, msg.CreatedAt); err != nil {
		// сообщение уже сохранено; указатель догонит на следующей отправке
		slog.Warn("set last message failed", "conversation", conv.ID, "err", err)
	}

	return msg, nil
}

// resolveConversation: переданный id используется, если это валидный диалог;
// иначе get-or-create по паре отправитель/получатель.
func (s *MessageService) resolveConversation(ctx context.Context, conversationID, sender, receiver string) (*domain.Conversation, error) {
	if conversationID != "" {
		convID, err := CanonicalID(conversationID)
		if err == nil {
			conv, err := s.convRepo.Get(ctx, convID)
			if err == nil {
				return conv, nil
			}
			if !errors.Is(err, domain.ErrConversationNotFound) {
				return nil, err
			}
		}
	}
	return s.convRepo.Upsert(ctx, sender, receiver)
}

// History — страница истории в хронологическом порядке. Просмотр страницы
// помечает прочитанными все входящие requester-а в этом диалоге: выборка и
// пометка — два явных шага с одинаковым внешним поведением.
func (s *MessageService) History(ctx context.Context, conversationID, requesterID string, page, limit int) ([]domain.Message, error) {
	convID, err := CanonicalID(conversationID)
	if err != nil {
		return nil, err
	}
	requester, err := CanonicalID(requesterID)
	if err != nil {
		return nil, err
	}

	conv, err := s.convRepo.Get(ctx, convID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(requester) {
		return nil, domain.ErrNotParticipant
	}

	pageLimit, offset := postgres.PageBounds(page, limit)
	msgs, err := s.msgRepo.ListPage(ctx, convID, pageLimit, offset)
	if err != nil {
		return nil, err
	}

	if _, err := s.msgRepo.MarkConversationRead(ctx, convID, requester); err != nil {
		slog.Warn("mark conversation read failed", "conversation", convID, "err", err)
	}

	return msgs, nil
}

// MarkRead — идемпотентно; отсутствующее сообщение — не фатальная ошибка.
func (s *MessageService) MarkRead(ctx context.Context, messageID string) error {
	msgID, err := CanonicalID(messageID)
	if err != nil {
		return err
	}
	return s.msgRepo.MarkRead(ctx, msgID)
}
