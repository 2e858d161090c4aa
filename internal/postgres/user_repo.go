package postgres

import (
	"context"

	"github.com/careplace/chat-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository — проекция пользователей маркетплейса для отображения в чате.
type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Get(ctx context.Context, id string) (*domain.Profile, error) {
	var p domain.Profile
	err := r.db.QueryRow(ctx, `
		SELECT id, display_name, avatar_url, email, role
		FROM users WHERE id = $1
	`, id).Scan(&p.ID, &p.DisplayName, &p.AvatarURL, &p.Email, &p.Role)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &p, nil
}
