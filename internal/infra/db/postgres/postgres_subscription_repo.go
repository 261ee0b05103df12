package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"learning-portal/internal/domain"
	"learning-portal/internal/domain/model"
	"learning-portal/internal/domain/ports/repository"
)

// Ensure subscriptionRepo implements repository.SubscriptionRepository
var _ repository.SubscriptionRepository = (*subscriptionRepo)(nil)

type subscriptionRepo struct {
	pool *pgxpool.Pool
}

func NewSubscriptionRepo(pool *pgxpool.Pool) *subscriptionRepo {
	return &subscriptionRepo{pool: pool}
}

const subscriptionColumns = `id, user_id, plan, status, current_period_end, created_at, updated_at`

// Upsert relies on the unique user_id constraint so repeated commits of one
// user converge on a single row that keeps its original id and created_at.
func (r *subscriptionRepo) Upsert(ctx context.Context, tx repository.Tx, rec *model.SubscriptionRecord) (*model.SubscriptionRecord, error) {
	const q = `
INSERT INTO subscriptions (` + subscriptionColumns + `)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (user_id) DO UPDATE SET
  plan=EXCLUDED.plan,
  status=EXCLUDED.status,
  current_period_end=EXCLUDED.current_period_end,
  updated_at=EXCLUDED.updated_at
RETURNING ` + subscriptionColumns + `;`

	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	row := ex.QueryRow(ctx, q, rec.ID, rec.UserID, rec.Plan, string(rec.Status), rec.CurrentPeriodEnd, rec.CreatedAt, rec.UpdatedAt)
	out, err := scanSubscription(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return out, nil
}

func (r *subscriptionRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.SubscriptionRecord, error) {
	const q = `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id=$1;`

	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	out, err := scanSubscription(ex.QueryRow(ctx, q, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrOperationFailed
	}
	return out, nil
}

func (r *subscriptionRepo) ExpireLapsed(ctx context.Context, tx repository.Tx, now time.Time) ([]string, error) {
	const q = `
UPDATE subscriptions
   SET status='expired', updated_at=$1
 WHERE status='active' AND current_period_end <= $1
RETURNING user_id;`

	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := ex.Query(ctx, q, now.UTC())
	if err != nil {
		return nil, domain.ErrOperationFailed
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	return ids, nil
}

func scanSubscription(row pgx.Row) (*model.SubscriptionRecord, error) {
	var (
		s      model.SubscriptionRecord
		status string
	)
	if err := row.Scan(&s.ID, &s.UserID, &s.Plan, &status, &s.CurrentPeriodEnd, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Status = model.SubscriptionStatus(status)
	s.CurrentPeriodEnd = s.CurrentPeriodEnd.UTC()
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return &s, nil
}

// mapWriteError keeps context errors intact for the caller to classify and
// carries the server's own message for everything Postgres rejected.
func mapWriteError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return domain.NewCommitError(pgErr.Message, err)
	}
	return err
}
