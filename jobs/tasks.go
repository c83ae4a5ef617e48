package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskFXWarmup preloads exchange rates for every pair in use.
	TaskFXWarmup = "fx:warmup"
)

// FXWarmupPayload selects the posting date whose rates are preloaded.
// An empty Date means the day the job runs.
type FXWarmupPayload struct {
	Date string `json:"date,omitempty"`
}

// NewFXWarmupTask constructs an fx warmup task for date (YYYY-MM-DD or empty).
func NewFXWarmupTask(date string) (*asynq.Task, error) {
	if date != "" {
		if _, err := time.Parse(time.DateOnly, date); err != nil {
			return nil, fmt.Errorf("jobs: fx warmup date %q: %w", date, err)
		}
	}
	data, err := json.Marshal(FXWarmupPayload{Date: date})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFXWarmup, data, asynq.Queue(QueueDefault)), nil
}
