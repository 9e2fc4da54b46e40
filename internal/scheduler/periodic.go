package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecoguard_backend/platform/config"
	"ecoguard_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// Periodic registers the alert scan as a recurring task. Several scheduler
// replicas may run; asynq.Unique collapses their enqueues and the alert
// dedup store covers whatever slips through.
type Periodic struct {
	scheduler *asynq.Scheduler
	log       *logger.Logger
}

func NewPeriodic(cfg config.SchedulerConfig, interval time.Duration, log *logger.Logger) (*Periodic, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("invalid alert scan interval %s", interval)
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{
		Location: time.UTC,
		PostEnqueueFunc: func(info *asynq.TaskInfo, err error) {
			if err != nil && !errors.Is(err, asynq.ErrDuplicateTask) {
				log.Error("failed to enqueue alert scan", "error", err)
			}
		},
	})

	task, err := NewLicenseAlertScanTask(LicenseAlertScanPayload{Source: "periodic"})
	if err != nil {
		return nil, err
	}
	cronspec := fmt.Sprintf("@every %s", interval)
	if _, err := scheduler.Register(cronspec, task, scanTaskOptions(queueName(cfg), interval)...); err != nil {
		return nil, fmt.Errorf("register alert scan: %w", err)
	}

	return &Periodic{scheduler: scheduler, log: log}, nil
}

// Run blocks until ctx is done.
func (p *Periodic) Run(ctx context.Context) {
	if p == nil || p.scheduler == nil {
		return
	}
	if err := p.scheduler.Start(); err != nil {
		p.log.Error("alert scheduler failed to start", "error", err)
		return
	}
	<-ctx.Done()
	p.scheduler.Shutdown()
}
