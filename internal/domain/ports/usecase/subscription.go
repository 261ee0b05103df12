package usecase

import (
	"context"
	"time"

	"learning-portal/internal/domain/model"
)

// SubscriptionCommitter is what the commit flow and the HTTP layer need from
// the subscription use case.
type SubscriptionCommitter interface {
	Commit(ctx context.Context, subject *model.Subject, planID string) (*model.SubscriptionRecord, error)
	Current(ctx context.Context, userID string) (*model.SubscriptionRecord, error)
}

// SubscriptionExpirer is used by the background expiry worker.
type SubscriptionExpirer interface {
	ExpireLapsed(ctx context.Context, now time.Time) (int, error)
}
