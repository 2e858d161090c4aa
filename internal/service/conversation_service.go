package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/careplace/chat-service/internal/domain"
	"github.com/careplace/chat-service/internal/postgres"
)

type Authorizer interface {
	Authorize(ctx context.Context, userA, userB string) (*domain.Association, error)
}

type ConversationRepo interface {
	Upsert(ctx context.Context, userA, userB string) (*domain.Conversation, error)
	Get(ctx context.Context, id string) (*domain.Conversation, error)
	ListForUser(ctx context.Context, userID string) ([]postgres.ConversationListRow, error)
	SetLastMessage(ctx context.Context, conversationID, messageID string, at time.Time) error
}

type ConversationService struct {
	assoc Authorizer
	repo  ConversationRepo
}

func NewConversationService(assoc Authorizer, repo ConversationRepo) *ConversationService {
	return &ConversationService{assoc: assoc, repo: repo}
}

// GetOrCreate — диалог создаётся лениво при первом контакте разрешённой пары.
// Неавторизованная пара не может получить диалог ни одним путём.
func (s *ConversationService) GetOrCreate(ctx context.Context, callerID, otherID string) (*domain.Conversation, error) {
	if _, err := s.assoc.Authorize(ctx, callerID, otherID); err != nil {
		return nil, err
	}

	caller, err := CanonicalID(callerID)
	if err != nil {
		return nil, err
	}
	other, err := CanonicalID(otherID)
	if err != nil {
		return nil, err
	}

	conv, err := s.repo.Upsert(ctx, caller, other)
	if err != nil {
		return nil, fmt.Errorf("conversation upsert: %w", err)
	}
	return conv, nil
}

func (s *ConversationService) ListForUser(ctx context.Context, userID string) ([]postgres.ConversationListRow, error) {
	id, err := CanonicalID(userID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListForUser(ctx, id)
}

// Resolve возвращает диалог, проверив членство userID.
func (s *ConversationService) Resolve(ctx context.Context, conversationID, userID string) (*domain.Conversation, error) {
	convID, err := CanonicalID(conversationID)
	if err != nil {
		return nil, err
	}
	uid, err := CanonicalID(userID)
	if err != nil {
		return nil, err
	}

	conv, err := s.repo.Get(ctx, convID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(uid) {
		return nil, domain.ErrNotParticipant
	}
	return conv, nil
}

// IsParticipant — та же проверка членства, что и на пути отправки;
// используется шлюзом при подписке на канал диалога.
func (s *ConversationService) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	_, err := s.Resolve(ctx, conversationID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotParticipant) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
