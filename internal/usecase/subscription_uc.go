// File: internal/usecase/subscription_uc.go
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"learning-portal/internal/domain"
	"learning-portal/internal/domain/catalog"
	"learning-portal/internal/domain/model"
	"learning-portal/internal/domain/ports/adapter"
	"learning-portal/internal/domain/ports/repository"
	ucport "learning-portal/internal/domain/ports/usecase"
	"learning-portal/internal/infra/logging"
	"learning-portal/internal/infra/metrics"
)

var (
	_ ucport.SubscriptionCommitter = (*SubscriptionService)(nil)
	_ ucport.SubscriptionExpirer   = (*SubscriptionService)(nil)
)

// CommitOptions bound a single commit.
type CommitOptions struct {
	Timeout    time.Duration
	LockTTL    time.Duration
	RateLimit  int // 0 disables rate limiting
	RateWindow time.Duration
}

func (o CommitOptions) withDefaults() CommitOptions {
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.LockTTL <= 0 {
		o.LockTTL = 30 * time.Second
	}
	if o.RateWindow <= 0 {
		o.RateWindow = time.Minute
	}
	return o
}

type ServiceOption func(*SubscriptionService)

// WithSubjectCache drops the cached subject after every successful write.
func WithSubjectCache(c repository.SubjectCache) ServiceOption {
	return func(s *SubscriptionService) { s.cache = c }
}

// WithLocker serialises commits of one subject across instances.
func WithLocker(l adapter.Locker) ServiceOption {
	return func(s *SubscriptionService) { s.locker = l }
}

func WithRateLimiter(l adapter.RateLimiter) ServiceOption {
	return func(s *SubscriptionService) { s.limiter = l }
}

func WithClock(c adapter.Clock) ServiceOption {
	return func(s *SubscriptionService) { s.clock = c }
}

// SubscriptionService writes subscription records.
type SubscriptionService struct {
	subs    repository.SubscriptionRepository
	cache   repository.SubjectCache
	locker  adapter.Locker
	limiter adapter.RateLimiter
	clock   adapter.Clock
	opts    CommitOptions
	log     *zerolog.Logger
}

func NewSubscriptionService(subs repository.SubscriptionRepository, opts CommitOptions, logger *zerolog.Logger, options ...ServiceOption) *SubscriptionService {
	l := logger.With().Str("component", "SubscriptionService").Logger()
	s := &SubscriptionService{
		subs:  subs,
		clock: adapter.SystemClock,
		opts:  opts.withDefaults(),
		log:   &l,
	}
	for _, o := range options {
		o(s)
	}
	return s
}

func lockKey(userID string) string { return "subscription:commit:" + userID }

func rateKey(userID string) string { return "rate_limit:subscription:" + userID }

// Commit creates or replaces the subscription of subject with planID. The
// record is active and runs for model.PeriodDays from now.
func (s *SubscriptionService) Commit(ctx context.Context, subject *model.Subject, planID string) (*model.SubscriptionRecord, error) {
	if subject.IsZero() {
		return nil, domain.ErrNotAuthenticated
	}
	ctx = logging.WithUserID(ctx, subject.ID)
	log := logging.With(ctx, s.log)
	defer logging.TraceDuration(log, "SubscriptionService.Commit")()

	if _, err := catalog.Lookup(planID); err != nil {
		metrics.IncCommit("unknown", "unknown_plan")
		log.Info().Str("plan", planID).Msg("rejected commit for unknown plan")
		return nil, err
	}

	if s.limiter != nil && s.opts.RateLimit > 0 {
		ok, err := s.limiter.Allow(ctx, rateKey(subject.ID), s.opts.RateLimit, s.opts.RateWindow)
		if err != nil {
			log.Warn().Err(err).Msg("rate limiter unavailable, continuing")
		} else if !ok {
			metrics.IncCommit(planID, "rate_limited")
			return nil, domain.ErrRateLimited
		}
	}

	if s.locker != nil {
		token, err := s.locker.TryLock(ctx, lockKey(subject.ID), s.opts.LockTTL)
		switch {
		case errors.Is(err, domain.ErrCommitInProgress):
			metrics.IncCommit(planID, "busy")
			return nil, err
		case err != nil:
			// the unique key on user_id still keeps the table consistent
			log.Warn().Err(err).Msg("commit lock unavailable, continuing without it")
		default:
			defer s.unlock(subject.ID, token)
		}
	}

	rec, err := model.NewSubscriptionRecord(subject.ID, planID, s.clock.Now())
	if err != nil {
		return nil, err
	}
	rec.ID = ulid.Make().String()

	cctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	start := time.Now()
	saved, err := s.subs.Upsert(cctx, repository.NoTX, rec)
	if err != nil {
		err = classifyCommitError(ctx, cctx, err)
		outcome := commitOutcome(err)
		metrics.IncCommit(planID, outcome)
		metrics.ObserveCommitLatency(outcome, time.Since(start))
		log.Error().Err(err).Str("plan", planID).Str("outcome", outcome).Msg("subscription commit failed")
		return nil, err
	}
	metrics.IncCommit(planID, "ok")
	metrics.ObserveCommitLatency("ok", time.Since(start))

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, subject.ID); err != nil {
			log.Warn().Err(err).Msg("failed to invalidate cached subject")
		}
	}

	log.Info().
		Str("plan", saved.Plan).
		Time("current_period_end", saved.CurrentPeriodEnd).
		Msg("subscription committed")
	return saved, nil
}

func (s *SubscriptionService) unlock(userID, token string) {
	// the request context may already be gone
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.locker.Unlock(ctx, lockKey(userID), token); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("failed to release commit lock")
	}
}

// classifyCommitError maps an upsert failure to the commit error kinds.
// parent is the caller's context, bounded is the one carrying the timeout.
func classifyCommitError(parent, bounded context.Context, err error) error {
	if errors.Is(parent.Err(), context.Canceled) {
		return fmt.Errorf("%w: %v", domain.ErrCommitCanceled, parent.Err())
	}
	// a request deadline counts as a timeout too
	if errors.Is(err, context.DeadlineExceeded) || bounded.Err() != nil {
		return domain.ErrCommitTimeout
	}
	var ce *domain.CommitError
	if errors.As(err, &ce) {
		return ce
	}
	return domain.NewCommitError("", err)
}

func commitOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrCommitCanceled):
		return "canceled"
	case errors.Is(err, domain.ErrCommitTimeout):
		return "timeout"
	default:
		return "failed"
	}
}

// Current returns the stored record of userID.
func (s *SubscriptionService) Current(ctx context.Context, userID string) (*model.SubscriptionRecord, error) {
	if userID == "" {
		return nil, domain.ErrInvalidArgument
	}
	return s.subs.FindByUser(ctx, repository.NoTX, userID)
}

// ExpireLapsed marks every active record whose period ended before now as
// expired and returns how many were changed.
func (s *SubscriptionService) ExpireLapsed(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.subs.ExpireLapsed(ctx, repository.NoTX, now.UTC())
	if err != nil {
		return 0, err
	}
	if s.cache != nil {
		for _, id := range ids {
			if err := s.cache.Invalidate(ctx, id); err != nil {
				s.log.Warn().Err(err).Str("user_id", id).Msg("failed to invalidate cached subject")
			}
		}
	}
	return len(ids), nil
}
