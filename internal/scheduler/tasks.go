package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

// TaskLicenseAlertScan runs one license and condition alert sweep.
const TaskLicenseAlertScan = "alerts.license_scan"

// LicenseAlertScanPayload names what queued the scan. It is part of the
// asynq uniqueness key, so it must not carry per-call values.
type LicenseAlertScanPayload struct {
	Source string `json:"source"`
}

func NewLicenseAlertScanTask(payload LicenseAlertScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLicenseAlertScan, data), nil
}

func ParseLicenseAlertScanPayload(task *asynq.Task) (LicenseAlertScanPayload, error) {
	var payload LicenseAlertScanPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LicenseAlertScanPayload{}, err
	}
	return payload, nil
}

// scanTaskOptions are shared by every enqueue path. A failed sweep is not
// retried; the next scheduled one picks up where it left off.
func scanTaskOptions(queue string, interval time.Duration) []asynq.Option {
	return []asynq.Option{
		asynq.Queue(queue),
		asynq.MaxRetry(0),
		asynq.Unique(interval),
		asynq.Timeout(interval),
	}
}
