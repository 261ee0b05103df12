package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"learning-portal/internal/domain"
	"learning-portal/internal/domain/catalog"
	"learning-portal/internal/domain/model"
	"learning-portal/internal/domain/ports/repository"
)

var _ repository.SubjectRepository = (*subjectRepo)(nil)

type subjectRepo struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

func NewSubjectRepo(pool *pgxpool.Pool) *subjectRepo {
	return &subjectRepo{pool: pool, now: time.Now}
}

// FindSubject loads a user together with the tier granted by its
// subscription. Users without a current subscription are free.
func (r *subjectRepo) FindSubject(ctx context.Context, tx repository.Tx, id string) (*model.Subject, error) {
	const q = `
SELECT u.id, s.plan, s.status, s.current_period_end
  FROM users u
  LEFT JOIN subscriptions s ON s.user_id = u.id
 WHERE u.id=$1;`

	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	var (
		subject model.Subject
		plan    *string
		status  *string
		end     *time.Time
	)
	if err := ex.QueryRow(ctx, q, id).Scan(&subject.ID, &plan, &status, &end); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	subject.Tier = model.TierFree
	if plan != nil && status != nil && end != nil {
		rec := model.SubscriptionRecord{Plan: *plan, Status: model.SubscriptionStatus(*status), CurrentPeriodEnd: *end}
		if rec.IsCurrent(r.now()) {
			if t := catalog.TierForPlan(*plan); t != model.TierNone {
				subject.Tier = t
			}
		}
	}
	return &subject, nil
}

func (r *subjectRepo) EnsureUser(ctx context.Context, tx repository.Tx, id, email string) error {
	const q = `
INSERT INTO users (id, email, created_at)
VALUES ($1,$2,$3)
ON CONFLICT (id) DO UPDATE SET email=EXCLUDED.email;`

	if id == "" {
		return domain.ErrInvalidArgument
	}
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	if _, err := ex.Exec(ctx, q, id, email, r.now().UTC()); err != nil {
		return domain.ErrOperationFailed
	}
	return nil
}
