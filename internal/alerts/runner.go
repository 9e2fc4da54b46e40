package alerts

import (
	"context"
	"time"

	"ecoguard_backend/platform/logger"

	"github.com/facebookgo/clock"
)

// Sweeper is the unit of work a Runner repeats.
type Sweeper interface {
	Sweep(ctx context.Context) (SweepResult, error)
}

// Runner drives sweeps in-process when no external scheduler is configured.
type Runner struct {
	sweeper  Sweeper
	clock    clock.Clock
	interval time.Duration
	log      *logger.Logger
}

func NewRunner(sweeper Sweeper, clk clock.Clock, interval time.Duration, log *logger.Logger) *Runner {
	return &Runner{sweeper: sweeper, clock: clk, interval: interval, log: log}
}

// Run sweeps once immediately and then every interval until ctx is done.
// A sweep in flight is allowed to finish after cancellation.
func (r *Runner) Run(ctx context.Context) {
	ticker := r.clock.Ticker(r.interval)
	defer ticker.Stop()

	r.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			r.log.Info("alert runner stopped")
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Runner) sweep(ctx context.Context) {
	if _, err := r.sweeper.Sweep(context.WithoutCancel(ctx)); err != nil {
		r.log.Error("alert sweep failed", "error", err)
	}
}
