package service

import (
	"context"

	"github.com/careplace/chat-service/internal/domain"
)

// UnreadService — pull-агрегация для бейджей. Клиент опрашивает её на старте
// сессии и инкрементит локальный счётчик по live-событиям; пуш-пересчёта нет.
type UnreadService struct {
	msgRepo MessageRepo
}

func NewUnreadService(msgRepo MessageRepo) *UnreadService {
	return &UnreadService{msgRepo: msgRepo}
}

func (s *UnreadService) Summary(ctx context.Context, userID string) (*domain.UnreadSummary, error) {
	id, err := CanonicalID(userID)
	if err != nil {
		return nil, err
	}
	return s.msgRepo.UnreadSummary(ctx, id)
}
