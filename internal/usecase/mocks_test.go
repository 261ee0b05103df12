//go:build !integration

// File: internal/usecase/mocks_test.go
package usecase

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"learning-portal/internal/domain"
	"learning-portal/internal/domain/model"
	"learning-portal/internal/domain/ports/repository"
)

// memSubscriptionRepo is a small in-memory implementation keyed on user id,
// mirroring the unique constraint of the real table.
type memSubscriptionRepo struct {
	mu      sync.Mutex
	byUser  map[string]*model.SubscriptionRecord
	upserts int

	upsertErr error
	// block, when set, holds Upsert until it is closed or ctx is done.
	block   chan struct{}
	entered chan struct{}
}

func newMemSubscriptionRepo() *memSubscriptionRepo {
	return &memSubscriptionRepo{byUser: make(map[string]*model.SubscriptionRecord)}
}

func (m *memSubscriptionRepo) Upsert(ctx context.Context, tx repository.Tx, rec *model.SubscriptionRecord) (*model.SubscriptionRecord, error) {
	m.mu.Lock()
	m.upserts++
	block, entered := m.block, m.entered
	m.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.upsertErr != nil {
		return nil, m.upsertErr
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	if prev, ok := m.byUser[rec.UserID]; ok {
		cp.ID = prev.ID
		cp.CreatedAt = prev.CreatedAt
	}
	m.byUser[rec.UserID] = &cp
	out := cp
	return &out, nil
}

func (m *memSubscriptionRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.SubscriptionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byUser[userID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (m *memSubscriptionRepo) ExpireLapsed(ctx context.Context, tx repository.Tx, now time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, rec := range m.byUser {
		if rec.Status == model.SubscriptionStatusActive && !now.Before(rec.CurrentPeriodEnd) {
			rec.Status = model.SubscriptionStatusExpired
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *memSubscriptionRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byUser)
}

func (m *memSubscriptionRepo) upsertCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upserts
}

// ---- Subject cache ----

type memSubjectCache struct {
	mu          sync.Mutex
	invalidated []string
	err         error
}

func (c *memSubjectCache) Invalidate(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidated = append(c.invalidated, id)
	return c.err
}

// ---- In-memory Locker (implements adapter.Locker port) ----

type MockLocker struct {
	mu    sync.Mutex
	held  map[string]string
	ErrOn map[string]error
}

func NewMockLocker() *MockLocker {
	return &MockLocker{held: map[string]string{}, ErrOn: map[string]error{}}
}

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err, bad := l.ErrOn[key]; bad {
		return "", err
	}
	if tok, ok := l.held[key]; ok && tok != "" {
		return "", domain.ErrCommitInProgress
	}
	tok := uuid.NewString()
	l.held[key] = tok
	return tok, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
		return nil
	}
	return errors.New("unlock token mismatch")
}

func (l *MockLocker) isHeld(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.held[key]
	return ok
}

// ---- Rate limiter ----

type memRateLimiter struct {
	mu     sync.Mutex
	counts map[string]int
	err    error
}

func (r *memRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.err != nil {
		return false, r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[key]++
	return r.counts[key] <= limit, nil
}

// ---- Committer stub for flow tests ----

type stubCommitter struct {
	mu      sync.Mutex
	calls   int
	commit  func(ctx context.Context, subject *model.Subject, planID string) (*model.SubscriptionRecord, error)
	current *model.SubscriptionRecord
}

func (s *stubCommitter) Commit(ctx context.Context, subject *model.Subject, planID string) (*model.SubscriptionRecord, error) {
	s.mu.Lock()
	s.calls++
	fn := s.commit
	s.mu.Unlock()
	if fn == nil {
		return &model.SubscriptionRecord{UserID: subject.ID, Plan: planID, Status: model.SubscriptionStatusActive}, nil
	}
	return fn(ctx, subject, planID)
}

func (s *stubCommitter) Current(ctx context.Context, userID string) (*model.SubscriptionRecord, error) {
	if s.current == nil {
		return nil, domain.ErrNotFound
	}
	return s.current, nil
}

func (s *stubCommitter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

// newTestLogger creates a silent zerolog.Logger for use in tests.
// It writes to io.Discard to prevent logs from cluttering test output.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

var testDest = Destinations{Login: "/login", Upgrade: "/subscription", Home: "/dashboard"}
