package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"learning-portal/internal/domain/ports/adapter"
	ucport "learning-portal/internal/domain/ports/usecase"
	"learning-portal/internal/infra/metrics"
)

// ExpiryWorker periodically flips lapsed subscriptions to expired.
type ExpiryWorker struct {
	interval time.Duration
	expirer  ucport.SubscriptionExpirer
	clock    adapter.Clock
	log      *zerolog.Logger
}

func NewExpiryWorker(interval time.Duration, expirer ucport.SubscriptionExpirer, clock adapter.Clock, logger *zerolog.Logger) *ExpiryWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	if clock == nil {
		clock = adapter.SystemClock
	}
	exprLog := logger.With().Str("component", "ExpiryWorker").Logger()
	return &ExpiryWorker{
		interval: interval,
		expirer:  expirer,
		clock:    clock,
		log:      &exprLog,
	}
}

// Run sweeps once immediately and then every interval until ctx is done.
func (w *ExpiryWorker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Msg("Starting expiry worker")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping expiry worker")
			return ctx.Err()
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep and returns how many records expired.
func (w *ExpiryWorker) RunOnce(ctx context.Context) int {
	n, err := w.expirer.ExpireLapsed(ctx, w.clock.Now())
	if err != nil {
		w.log.Error().Err(err).Msg("expiry worker error")
		return 0
	}
	if n > 0 {
		metrics.IncSubscriptionsExpired(n)
		w.log.Info().Int("count", n).Msg("lapsed subscriptions expired")
	}
	return n
}
