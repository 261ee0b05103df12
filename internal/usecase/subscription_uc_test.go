//go:build !integration

package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learning-portal/internal/domain"
	"learning-portal/internal/domain/model"
	"learning-portal/internal/domain/ports/adapter"
)

var jan15 = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

func newService(repo *memSubscriptionRepo, opts CommitOptions, extra ...ServiceOption) *SubscriptionService {
	options := append([]ServiceOption{WithClock(adapter.ClockFunc(fixedClock(jan15)))}, extra...)
	return NewSubscriptionService(repo, opts, newTestLogger(), options...)
}

func TestSubscriptionService_Commit(t *testing.T) {
	ctx := context.Background()
	subject := &model.Subject{ID: "u1", Tier: model.TierFree}

	t.Run("should persist an active record for thirty days", func(t *testing.T) {
		// --- Arrange ---
		repo := newMemSubscriptionRepo()
		svc := newService(repo, CommitOptions{})

		// --- Act ---
		rec, err := svc.Commit(ctx, subject, "premium")

		// --- Assert ---
		require.NoError(t, err)
		assert.Equal(t, "u1", rec.UserID)
		assert.Equal(t, "premium", rec.Plan)
		assert.Equal(t, model.SubscriptionStatusActive, rec.Status)
		assert.Equal(t, "2024-02-14T00:00:00Z", rec.CurrentPeriodEnd.Format(time.RFC3339))
		assert.NotEmpty(t, rec.ID)

		stored, err := repo.FindByUser(ctx, nil, "u1")
		require.NoError(t, err)
		assert.Equal(t, rec.CurrentPeriodEnd, stored.CurrentPeriodEnd)
	})

	t.Run("should keep one record per subject with the latest period end", func(t *testing.T) {
		// --- Arrange ---
		repo := newMemSubscriptionRepo()
		now := jan15
		svc := NewSubscriptionService(repo, CommitOptions{}, newTestLogger(),
			WithClock(adapter.ClockFunc(func() time.Time { return now })))

		// --- Act ---
		first, err := svc.Commit(ctx, subject, "basic")
		require.NoError(t, err)
		now = jan15.Add(48 * time.Hour)
		second, err := svc.Commit(ctx, subject, "basic")
		require.NoError(t, err)

		// --- Assert ---
		assert.Equal(t, 1, repo.count())
		assert.Equal(t, first.ID, second.ID)
		stored, _ := repo.FindByUser(ctx, nil, "u1")
		assert.Equal(t, "2024-02-16T00:00:00Z", stored.CurrentPeriodEnd.Format(time.RFC3339))
	})

	t.Run("should surface the backend message verbatim", func(t *testing.T) {
		repo := newMemSubscriptionRepo()
		repo.upsertErr = errors.New("network unreachable")
		svc := newService(repo, CommitOptions{})

		_, err := svc.Commit(ctx, subject, "premium")

		require.Error(t, err)
		assert.Equal(t, "network unreachable", err.Error())
		assert.ErrorIs(t, err, domain.ErrCommitFailed)
	})

	t.Run("should keep an already classified commit error", func(t *testing.T) {
		repo := newMemSubscriptionRepo()
		repo.upsertErr = domain.NewCommitError("duplicate key value violates unique constraint", errors.New("pg"))
		svc := newService(repo, CommitOptions{})

		_, err := svc.Commit(ctx, subject, "premium")

		assert.Equal(t, "duplicate key value violates unique constraint", err.Error())
	})

	t.Run("should reject unknown plans before any write", func(t *testing.T) {
		repo := newMemSubscriptionRepo()
		svc := newService(repo, CommitOptions{})

		_, err := svc.Commit(ctx, subject, "platinum")

		assert.ErrorIs(t, err, domain.ErrUnknownPlan)
		assert.Zero(t, repo.upsertCalls())
	})

	t.Run("should refuse a missing subject", func(t *testing.T) {
		repo := newMemSubscriptionRepo()
		svc := newService(repo, CommitOptions{})

		_, err := svc.Commit(ctx, nil, "premium")
		assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
		_, err = svc.Commit(ctx, &model.Subject{}, "premium")
		assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
		assert.Zero(t, repo.upsertCalls())
	})

	t.Run("should map an expired deadline to a timeout", func(t *testing.T) {
		repo := newMemSubscriptionRepo()
		repo.block = make(chan struct{})
		defer close(repo.block)
		svc := newService(repo, CommitOptions{Timeout: 20 * time.Millisecond})

		_, err := svc.Commit(ctx, subject, "premium")

		assert.ErrorIs(t, err, domain.ErrCommitTimeout)
	})

	t.Run("should map caller cancellation to canceled", func(t *testing.T) {
		repo := newMemSubscriptionRepo()
		repo.block = make(chan struct{})
		repo.entered = make(chan struct{}, 1)
		defer close(repo.block)
		svc := newService(repo, CommitOptions{Timeout: time.Minute})

		cctx, cancel := context.WithCancel(ctx)
		go func() {
			<-repo.entered
			cancel()
		}()
		_, err := svc.Commit(cctx, subject, "premium")

		assert.ErrorIs(t, err, domain.ErrCommitCanceled)
		assert.NotErrorIs(t, err, domain.ErrCommitTimeout)
	})

	t.Run("should map an expired request deadline to a timeout", func(t *testing.T) {
		// --- Arrange ---
		repo := newMemSubscriptionRepo()
		repo.block = make(chan struct{})
		defer close(repo.block)
		svc := newService(repo, CommitOptions{Timeout: time.Minute})
		dctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()

		// --- Act ---
		_, err := svc.Commit(dctx, subject, "premium")

		// --- Assert ---
		assert.ErrorIs(t, err, domain.ErrCommitTimeout)
		assert.NotErrorIs(t, err, domain.ErrCommitCanceled)
	})

	t.Run("should invalidate the cached subject after a write", func(t *testing.T) {
		repo := newMemSubscriptionRepo()
		cache := &memSubjectCache{}
		svc := newService(repo, CommitOptions{}, WithSubjectCache(cache))

		_, err := svc.Commit(ctx, subject, "family")

		require.NoError(t, err)
		assert.Equal(t, []string{"u1"}, cache.invalidated)
	})

	t.Run("a failing cache does not fail the commit", func(t *testing.T) {
		repo := newMemSubscriptionRepo()
		cache := &memSubjectCache{err: errors.New("redis down")}
		svc := newService(repo, CommitOptions{}, WithSubjectCache(cache))

		_, err := svc.Commit(ctx, subject, "family")
		assert.NoError(t, err)
	})

	t.Run("should refuse while another instance holds the commit lock", func(t *testing.T) {
		repo := newMemSubscriptionRepo()
		locker := NewMockLocker()
		_, err := locker.TryLock(ctx, lockKey("u1"), time.Minute)
		require.NoError(t, err)
		svc := newService(repo, CommitOptions{}, WithLocker(locker))

		_, err = svc.Commit(ctx, subject, "premium")

		assert.ErrorIs(t, err, domain.ErrCommitInProgress)
		assert.Zero(t, repo.upsertCalls())
	})

	t.Run("should release the commit lock afterwards", func(t *testing.T) {
		repo := newMemSubscriptionRepo()
		locker := NewMockLocker()
		svc := newService(repo, CommitOptions{}, WithLocker(locker))

		_, err := svc.Commit(ctx, subject, "premium")

		require.NoError(t, err)
		assert.False(t, locker.isHeld(lockKey("u1")))
	})

	t.Run("an unavailable locker does not block the commit", func(t *testing.T) {
		repo := newMemSubscriptionRepo()
		locker := NewMockLocker()
		locker.ErrOn[lockKey("u1")] = errors.New("connection refused")
		svc := newService(repo, CommitOptions{}, WithLocker(locker))

		_, err := svc.Commit(ctx, subject, "premium")
		assert.NoError(t, err)
		assert.Equal(t, 1, repo.upsertCalls())
	})

	t.Run("should rate limit repeated commits", func(t *testing.T) {
		repo := newMemSubscriptionRepo()
		svc := newService(repo, CommitOptions{RateLimit: 2}, WithRateLimiter(&memRateLimiter{}))

		for i := 0; i < 2; i++ {
			_, err := svc.Commit(ctx, subject, "basic")
			require.NoError(t, err)
		}
		_, err := svc.Commit(ctx, subject, "basic")

		assert.ErrorIs(t, err, domain.ErrRateLimited)
		assert.Equal(t, 2, repo.upsertCalls())
	})
}

func TestSubscriptionService_Current(t *testing.T) {
	ctx := context.Background()
	repo := newMemSubscriptionRepo()
	svc := newService(repo, CommitOptions{})

	_, err := svc.Current(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Commit(ctx, &model.Subject{ID: "u1"}, "basic")
	require.NoError(t, err)

	rec, err := svc.Current(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "basic", rec.Plan)

	_, err = svc.Current(ctx, "")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestSubscriptionService_ExpireLapsed(t *testing.T) {
	ctx := context.Background()
	repo := newMemSubscriptionRepo()
	cache := &memSubjectCache{}
	svc := newService(repo, CommitOptions{}, WithSubjectCache(cache))

	_, err := svc.Commit(ctx, &model.Subject{ID: "u1"}, "basic")
	require.NoError(t, err)
	cache.invalidated = nil

	n, err := svc.ExpireLapsed(ctx, jan15.AddDate(0, 0, 10))
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = svc.ExpireLapsed(ctx, jan15.AddDate(0, 0, 31))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"u1"}, cache.invalidated)

	rec, _ := repo.FindByUser(ctx, nil, "u1")
	assert.Equal(t, model.SubscriptionStatusExpired, rec.Status)
}
