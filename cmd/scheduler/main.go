package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecoguard_backend/internal/alerts"
	"ecoguard_backend/internal/companies"
	"ecoguard_backend/internal/email"
	licensesrepo "ecoguard_backend/internal/licenses/repository"
	"ecoguard_backend/internal/scheduler"
	"ecoguard_backend/platform/config"
	"ecoguard_backend/platform/db"
	"ecoguard_backend/platform/logger"

	"github.com/facebookgo/clock"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "interval", cfg.GetAlertScanInterval())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	scanner := alerts.NewScanner(
		licensesrepo.New(pool),
		companies.NewRepository(pool),
		alerts.NewDedupRepository(pool),
		sender,
		clock.New(),
		alerts.ScannerConfig{AdminEmail: cfg.GetAdminEmail(), SendTimeout: cfg.GetAlertSendTimeout()},
		log,
	)

	client, err := scheduler.NewClient(cfg, cfg.GetAlertScanInterval())
	if err != nil {
		log.Error("failed to initialize scheduler client", "error", err)
		panic("failed to initialize scheduler client: " + err.Error())
	}
	defer func() { _ = client.Close() }()

	// The periodic schedule first fires one interval from now.
	if _, err := client.EnqueueAlertScan(ctx, "startup"); err != nil {
		log.Warn("failed to enqueue startup alert scan", "error", err)
	}

	periodic, err := scheduler.NewPeriodic(cfg, cfg.GetAlertScanInterval(), log)
	if err != nil {
		log.Error("failed to initialize periodic scheduler", "error", err)
		panic("failed to initialize periodic scheduler: " + err.Error())
	}
	go periodic.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, scanner, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
