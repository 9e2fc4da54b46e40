package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ecoguard_backend/internal/access"
	"ecoguard_backend/internal/adapters/storage"
	"ecoguard_backend/internal/alerts"
	"ecoguard_backend/internal/checklist"
	"ecoguard_backend/internal/companies"
	"ecoguard_backend/internal/email"
	"ecoguard_backend/internal/events"
	apphttp "ecoguard_backend/internal/http"
	"ecoguard_backend/internal/http/router"
	"ecoguard_backend/internal/inspections"
	"ecoguard_backend/internal/licenses"
	"ecoguard_backend/internal/notification"
	"ecoguard_backend/internal/plants"
	"ecoguard_backend/internal/tickets"
	"ecoguard_backend/internal/users"
	"ecoguard_backend/migrations"
	"ecoguard_backend/platform/config"
	"ecoguard_backend/platform/db"
	"ecoguard_backend/platform/logger"
	"ecoguard_backend/platform/validator"

	"github.com/facebookgo/clock"
	"github.com/jackc/pgx/v5/pgxpool"
)

const storageBucketEnsureErrPrefix = "failed to ensure storage bucket exists: "
const storageBucketEnsureErrMsg = "failed to ensure storage bucket exists"

// ensureBucket wraps the retry logic for verifying a MinIO bucket exists.
func ensureBucket(ctx context.Context, log *logger.Logger, storageSvc storage.StorageService, name, bucket string) {
	if err := withRetry(ctx, log, "ensure "+name+" bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error(storageBucketEnsureErrMsg, "error", err, "bucket", bucket)
		panic(storageBucketEnsureErrPrefix + err.Error())
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

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
	log.Info("database connection established")

	if cfg.MigrationsEnabled {
		if err := db.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
			log.Error("failed to run database migrations", "error", err)
			panic("failed to run database migrations: " + err.Error())
		}
		log.Info("database migrations complete")
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	storageSvc := initStorage(ctx, cfg, log)
	clk := clock.New()

	// ========================================================================
	// Domain Modules
	// ========================================================================

	notificationModule := notification.New(sender, cfg, cfg.GetManagerEmails(), log)
	notificationModule.RegisterHandlers(eventBus)

	checklistModule := checklist.NewModule(pool)
	if err := checklistModule.SeedCatalog(ctx, log); err != nil {
		log.Error("failed to seed checklist catalog", "error", err)
		panic("failed to seed checklist catalog: " + err.Error())
	}

	usersModule := users.NewModule(pool, log)
	companiesModule := companies.NewModule(pool, usersModule.Repository(), val)
	companySvc := companiesModule.Service()

	plantsModule := plants.NewModule(pool, companySvc, storageSvc, plants.Buckets{
		Plans:    cfg.GetMinioBucketPlans(),
		Evidence: cfg.GetMinioBucketEvidence(),
	}, val, log)

	ticketsModule := tickets.NewModule(pool, companySvc, plantsModule.Repository(), storageSvc,
		cfg.GetMinioBucketEvidence(), eventBus, cfg.GetAppBaseURL(), val, log)
	plantsModule.Service().SetTicketOpener(ticketsModule.Service())

	inspectionsModule := inspections.NewModule(pool, companySvc, plantsModule.Repository(), storageSvc,
		cfg.GetMinioBucketEvidence(), eventBus, log)

	licensesModule := licenses.NewModule(pool, companySvc, storageSvc, cfg.GetMinioBucketLicenses(), clk, val)

	alertsModule := alerts.NewModule(pool, licensesModule.Repository(), companySvc, sender, clk, alerts.ScannerConfig{
		AdminEmail:  cfg.GetAdminEmail(),
		SendTimeout: cfg.GetAlertSendTimeout(),
	}, log)

	// Without Redis there is no scheduler process; sweep in-process instead.
	runnerDone := make(chan struct{})
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; running alert scanner in-process")
		runner := alerts.NewRunner(alertsModule.Scanner(), clk, cfg.GetAlertScanInterval(), log)
		go func() {
			defer close(runnerDone)
			runner.Run(ctx)
		}()
	} else {
		close(runnerDone)
	}

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: db.NewPoolAdapter(pool),
		Roles:  access.NewResolver(cfg.GetManagerEmails()),
		Modules: []apphttp.Module{
			usersModule,
			companiesModule,
			checklistModule,
			plantsModule,
			ticketsModule,
			inspectionsModule,
			licensesModule,
			alertsModule,
		},
	}

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
		}
	}

	// Let an in-flight sweep and pending notification emails finish.
	stop()
	<-runnerDone
	eventBus.Wait()
	log.Info("shutdown complete")
}

// initStorage returns a nil interface when MinIO is not configured, so
// services can tell storage is unavailable.
func initStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) storage.StorageService {
	if !cfg.IsMinIOEnabled() {
		log.Warn("MINIO_ENDPOINT not configured; file uploads disabled")
		return nil
	}

	minioSvc, err := storage.NewMinIOService(cfg)
	if err != nil {
		log.Error("failed to initialize storage service", "error", err)
		panic("failed to initialize storage service: " + err.Error())
	}
	ensureBucket(ctx, log, minioSvc, "facility-plans", cfg.GetMinioBucketPlans())
	ensureBucket(ctx, log, minioSvc, "evidence-photos", cfg.GetMinioBucketEvidence())
	ensureBucket(ctx, log, minioSvc, "license-documents", cfg.GetMinioBucketLicenses())
	return minioSvc
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
