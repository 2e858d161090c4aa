package service

import (
	"context"
	"fmt"

	"github.com/careplace/chat-service/internal/domain"

	"github.com/google/uuid"
)

// ProfileReader — проекция пользователя (внешняя сущность маркетплейса).
type ProfileReader interface {
	Get(ctx context.Context, id string) (*domain.Profile, error)
}

// MarketplaceReader — read-only выборки по jobs/proposals.
type MarketplaceReader interface {
	HasAssignedJob(ctx context.Context, clientID, workerID string) (bool, error)
	LatestProposalJobOwner(ctx context.Context, workerID string) (string, bool, error)
}

// AssociationService решает, разрешена ли переписка паре пользователей.
// Чат возможен только между клиентом и исполнителем, у которых есть
// связь через job или последний proposal исполнителя.
type AssociationService struct {
	users  ProfileReader
	market MarketplaceReader
}

func NewAssociationService(users ProfileReader, market MarketplaceReader) *AssociationService {
	return &AssociationService{users: users, market: market}
}

// Authorize — проверка выполняется на каждый вызов, результат не кэшируется.
func (s *AssociationService) Authorize(ctx context.Context, userA, userB string) (*domain.Association, error) {
	a, err := CanonicalID(userA)
	if err != nil {
		return nil, err
	}
	b, err := CanonicalID(userB)
	if err != nil {
		return nil, err
	}
	if a == b {
		return nil, domain.ErrPairNotAllowed
	}

	profA, err := s.users.Get(ctx, a)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", a, err)
	}
	profB, err := s.users.Get(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", b, err)
	}

	assoc, ok := mapRoles(profA, profB)
	if !ok {
		return nil, domain.ErrPairNotAllowed
	}

	// Path A: исполнитель был выбран на один из job-ов клиента.
	assigned, err := s.market.HasAssignedJob(ctx, assoc.ClientID, assoc.WorkerID)
	if err != nil {
		return nil, fmt.Errorf("assigned job lookup: %w", err)
	}
	if assigned {
		return assoc, nil
	}

	// Path B: последний proposal исполнителя (по всем job-ам, любой статус)
	// указывает на job этого клиента. Исторические proposal-ы с этим клиентом
	// не учитываются, если позже был отклик другому — поведение зафиксировано.
	owner, ok, err := s.market.LatestProposalJobOwner(ctx, assoc.WorkerID)
	if err != nil {
		return nil, fmt.Errorf("latest proposal lookup: %w", err)
	}
	if !ok || owner != assoc.ClientID {
		return nil, domain.ErrPairNotAllowed
	}

	return assoc, nil
}

// mapRoles — пара валидна только в составе client+worker.
func mapRoles(a, b *domain.Profile) (*domain.Association, bool) {
	switch {
	case a.Role == domain.RoleClient && b.Role == domain.RoleWorker:
		return &domain.Association{ClientID: a.ID, WorkerID: b.ID}, true
	case a.Role == domain.RoleWorker && b.Role == domain.RoleClient:
		return &domain.Association{ClientID: b.ID, WorkerID: a.ID}, true
	default:
		return nil, false
	}
}

// CanonicalID нормализует внешний id к каноническому виду до любых сравнений.
func CanonicalID(raw string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", domain.ErrInvalidID
	}
	return id.String(), nil
}
