package repository

import (
	"context"
	"time"

	"learning-portal/internal/domain/model"
)

// SubscriptionRepository is the port for persisted subscription records.
type SubscriptionRepository interface {
	// Upsert creates or replaces the single record of rec.UserID. The stored
	// row (including its id and created_at) is returned.
	Upsert(ctx context.Context, tx Tx, rec *model.SubscriptionRecord) (*model.SubscriptionRecord, error)
	FindByUser(ctx context.Context, tx Tx, userID string) (*model.SubscriptionRecord, error)
	// ExpireLapsed flips active records whose period ended before now and
	// returns the affected user ids.
	ExpireLapsed(ctx context.Context, tx Tx, now time.Time) ([]string, error)
}
