package repository

import (
	"context"

	"learning-portal/internal/domain/model"
)

// SubjectRepository loads the principal behind a session token, with the
// tier derived from its current subscription.
type SubjectRepository interface {
	FindSubject(ctx context.Context, tx Tx, id string) (*model.Subject, error)
	// EnsureUser registers an id handed out by the auth provider.
	EnsureUser(ctx context.Context, tx Tx, id, email string) error
}

// SubjectCache is implemented by caching decorators so writers can drop a
// stale subject after its subscription changes.
type SubjectCache interface {
	Invalidate(ctx context.Context, id string) error
}
