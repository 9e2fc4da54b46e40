package scheduler

import (
	"context"
	"fmt"

	"ecoguard_backend/internal/alerts"
	"ecoguard_backend/platform/config"
	"ecoguard_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	sweeper alerts.Sweeper
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, sweeper alerts.Sweeper, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		sweeper: sweeper,
		log:     log,
	}

	mux.HandleFunc(TaskLicenseAlertScan, w.handleLicenseAlertScan)

	return w, nil
}

func (w *Worker) handleLicenseAlertScan(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLicenseAlertScanPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	// Shutdown or task timeout must not cut sends after dedup markers are written.
	result, err := w.sweeper.Sweep(context.WithoutCancel(ctx))
	if err != nil {
		return err
	}
	w.log.Info("alert scan task done", "source", payload.Source, "notified", result.Notified, "skipped", result.Skipped, "failed", result.Failed)
	return nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
