package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"ecoguard_backend/internal/alerts"
	"ecoguard_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/hibiken/asynq"
)

type testSchedulerConfig struct {
	url string
}

func (c testSchedulerConfig) GetRedisURL() string       { return c.url }
func (c testSchedulerConfig) GetRedisTLSInsecure() bool { return false }
func (c testSchedulerConfig) GetAsynqQueueName() string { return "" }
func (c testSchedulerConfig) GetAsynqConcurrency() int  { return 1 }

func TestEnqueueAlertScanIsUnique(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := NewClient(testSchedulerConfig{url: "redis://" + mr.Addr()}, time.Hour)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	queued, err := client.EnqueueAlertScan(context.Background(), "startup")
	if err != nil || !queued {
		t.Fatalf("first enqueue: queued=%v err=%v", queued, err)
	}
	queued, err = client.EnqueueAlertScan(context.Background(), "startup")
	if err != nil || queued {
		t.Fatalf("second enqueue should be collapsed: queued=%v err=%v", queued, err)
	}

	pending, err := mr.List("asynq:{default}:pending")
	if err != nil {
		t.Fatalf("read pending list: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one pending task, got %d", len(pending))
	}
}

func TestNewClientRequiresRedis(t *testing.T) {
	if _, err := NewClient(testSchedulerConfig{}, time.Hour); err == nil {
		t.Fatal("expected error without redis url")
	}
}

type stubSweeper struct {
	calls  int
	err    error
	ctxErr error
}

func (s *stubSweeper) Sweep(ctx context.Context) (alerts.SweepResult, error) {
	s.calls++
	s.ctxErr = ctx.Err()
	return alerts.SweepResult{Notified: 2}, s.err
}

func TestScanTaskHandler(t *testing.T) {
	sweeper := &stubSweeper{}
	w := &Worker{sweeper: sweeper, log: logger.Discard()}

	task, err := NewLicenseAlertScanTask(LicenseAlertScanPayload{Source: "periodic"})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if err := w.handleLicenseAlertScan(context.Background(), task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sweeper.calls != 1 {
		t.Fatalf("expected one sweep, got %d", sweeper.calls)
	}

	sweeper.err = errors.New("db down")
	if err := w.handleLicenseAlertScan(context.Background(), task); err == nil {
		t.Fatal("a failed sweep must fail the task")
	}

	bad := asynq.NewTask(TaskLicenseAlertScan, []byte("{"))
	if err := w.handleLicenseAlertScan(context.Background(), bad); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("malformed payload should skip retry, got %v", err)
	}
}

func TestScanTaskSweepSurvivesTaskCancellation(t *testing.T) {
	sweeper := &stubSweeper{}
	w := &Worker{sweeper: sweeper, log: logger.Discard()}

	task, err := NewLicenseAlertScanTask(LicenseAlertScanPayload{Source: "periodic"})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := w.handleLicenseAlertScan(ctx, task); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sweeper.ctxErr != nil {
		t.Fatalf("sweep ran on a cancelled context: %v", sweeper.ctxErr)
	}
}
