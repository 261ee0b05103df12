// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"learning-portal/internal/config"
	"learning-portal/internal/domain/ports/adapter"
	pg "learning-portal/internal/infra/db/postgres"
	"learning-portal/internal/infra/logging"
	"learning-portal/internal/infra/metrics"
	red "learning-portal/internal/infra/redis"
	"learning-portal/internal/infra/sched"
	"learning-portal/internal/infra/web"
	"learning-portal/internal/migrations"
	"learning-portal/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "learning-portal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Info().Msg("[DEV MODE] Enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- Migrations ----
	if cfg.Database.Migrate {
		db, err := migrations.Open(cfg.Database.URL)
		if err != nil {
			return err
		}
		err = migrations.Up(db, logger)
		_ = db.Close()
		if err != nil {
			return err
		}
	}

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 15*time.Second, logger)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer redisClient.Close()

	// ---- Repositories ----
	subRepo := pg.NewSubscriptionRepo(pool)
	subjectRepo := pg.NewSubjectRepoCacheDecorator(pg.NewSubjectRepo(pool), redisClient, cfg.Redis.TTL, logger)

	// ---- Use cases ----
	dest := usecase.Destinations{
		Login:   cfg.Routes.Login,
		Upgrade: cfg.Routes.Upgrade,
		Home:    cfg.Routes.Home,
	}
	subUC := usecase.NewSubscriptionService(subRepo, usecase.CommitOptions{
		Timeout:    cfg.Subscription.CommitTimeout,
		LockTTL:    cfg.Subscription.LockTTL,
		RateLimit:  cfg.Subscription.RateLimit,
		RateWindow: cfg.Subscription.RateWindow,
	}, logger,
		usecase.WithSubjectCache(subjectRepo),
		usecase.WithLocker(red.NewLocker(redisClient)),
		usecase.WithRateLimiter(red.NewRateLimiter(redisClient)),
	)
	gate := usecase.NewAccessGate(dest, logger)
	views := usecase.NewCommitViews(subUC, dest, logger)

	// ---- HTTP ----
	auth := web.NewAuthManager(cfg.Auth)
	srv := web.NewServer(web.Deps{
		Auth:      auth,
		Resolver:  web.NewSessionResolver(auth, subjectRepo, logger),
		Gate:      gate,
		Views:     views,
		Committer: subUC,
		Checks: map[string]web.HealthCheck{
			"postgres": func(ctx context.Context) error { return pool.Ping(ctx) },
			"redis":    redisClient.Ping,
		},
		Addr:           cfg.Server.Addr,
		RequestTimeout: cfg.Server.RequestTimeout,
		Logger:         logger,
	})
	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	// ---- Expiry worker ----
	worker := sched.NewExpiryWorker(cfg.Scheduler.ExpiryInterval, subUC, adapter.SystemClock, logger)
	go func() { _ = worker.Run(ctx) }()

	// ---- Graceful shutdown ----
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown requested")
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
