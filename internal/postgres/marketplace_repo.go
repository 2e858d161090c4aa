package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MarketplaceRepository — read-only обращения к таблицам маркетплейса
// (jobs/proposals), которыми владеют другие сервисы. Чат их не пишет.
type MarketplaceRepository struct {
	db *pgxpool.Pool
}

func NewMarketplaceRepository(db *pgxpool.Pool) *MarketplaceRepository {
	return &MarketplaceRepository{db: db}
}

// HasAssignedJob — существует ли job клиента, где выбран этот исполнитель.
func (r *MarketplaceRepository) HasAssignedJob(ctx context.Context, clientID, workerID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM jobs
			WHERE client_id = $1 AND selected_worker_id = $2
		)
	`, clientID, workerID).Scan(&exists)
	return exists, err
}

// LatestProposalJobOwner — владелец job-а по самому свежему proposal исполнителя.
// Смотрим единственный последний proposal по всем job-ам и любому статусу.
// ok=false — у исполнителя нет ни одного proposal.
func (r *MarketplaceRepository) LatestProposalJobOwner(ctx context.Context, workerID string) (string, bool, error) {
	var clientID string
	err := r.db.QueryRow(ctx, `
		SELECT j.client_id
		FROM proposals AS p
		JOIN jobs AS j ON j.id = p.job_id
		WHERE p.worker_id = $1
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT 1
	`, workerID).Scan(&clientID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "", false, nil
		}
		return "", false, err
	}
	return clientID, true, nil
}
