package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/joho/godotenv"

	"learning-portal/internal/config"
	"learning-portal/internal/domain/model"
	"learning-portal/internal/domain/ports/repository"
	pg "learning-portal/internal/infra/db/postgres"
	"learning-portal/internal/infra/logging"
	"learning-portal/internal/infra/web"
	"learning-portal/internal/migrations"
	"learning-portal/internal/usecase"
)

// demo users; the plan, when set, is committed right away.
var seed = []struct {
	ID    string
	Email string
	Plan  string
}{
	{"demo-free", "free@example.com", ""},
	{"demo-basic", "basic@example.com", "basic"},
	{"demo-premium", "premium@example.com", "premium"},
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := migrations.Open(cfg.Database.URL)
	if err != nil {
		log.Fatalf("migrations: %v", err)
	}
	if err := migrations.Up(db, logger); err != nil {
		log.Fatalf("migrations: %v", err)
	}
	_ = db.Close()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	subjects := pg.NewSubjectRepo(pool)
	txm := pg.NewTxManager(pool)
	err = txm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		for _, u := range seed {
			if err := subjects.EnsureUser(ctx, tx, u.ID, u.Email); err != nil {
				return fmt.Errorf("user %s: %w", u.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("seed users: %v", err)
	}

	subUC := usecase.NewSubscriptionService(pg.NewSubscriptionRepo(pool), usecase.CommitOptions{}, logger)
	auth := web.NewAuthManager(cfg.Auth)
	for _, u := range seed {
		if u.Plan != "" {
			rec, err := subUC.Commit(ctx, &model.Subject{ID: u.ID}, u.Plan)
			if err != nil {
				log.Fatalf("subscribe %s: %v", u.ID, err)
			}
			fmt.Printf("seeded: %s on %s until %s\n", u.ID, rec.Plan, rec.CurrentPeriodEnd.Format(time.RFC3339))
		} else {
			fmt.Printf("seeded: %s (free)\n", u.ID)
		}
		tok, err := auth.Token(u.ID, u.Email)
		if err != nil {
			log.Fatalf("token %s: %v", u.ID, err)
		}
		fmt.Printf("  token: %s\n", tok)
	}

	fmt.Println("Seeding complete.")
}
