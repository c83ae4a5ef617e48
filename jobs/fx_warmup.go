package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/blanketorder/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// RateWarmer preloads the rate cache for a posting date.
type RateWarmer interface {
	Warm(ctx context.Context, date time.Time) (int, error)
}

// FXWarmupJob fills the exchange-rate cache ahead of the working day.
type FXWarmupJob struct {
	Rates   RateWarmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Timeout time.Duration
	clock   func() time.Time
}

// NewFXWarmupJob wires dependencies for the warmup handler.
func NewFXWarmupJob(rates RateWarmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *FXWarmupJob {
	return &FXWarmupJob{
		Rates:   rates,
		Logger:  logger,
		Metrics: metrics,
		Timeout: 2 * time.Minute,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes fx warmup tasks.
func (j *FXWarmupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Rates == nil {
		return errors.New("fx warmup: handler not configured")
	}
	var payload FXWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	date := j.now()
	if payload.Date != "" {
		parsed, err := time.Parse(time.DateOnly, payload.Date)
		if err != nil {
			return asynq.SkipRetry
		}
		date = parsed
	}

	tracker := j.metrics().Track(TaskFXWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("date", date.Format(time.DateOnly)))
	logger.Info("starting fx warmup")

	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	start := time.Now()
	warmed, err := j.Rates.Warm(ctx, date)
	if err != nil {
		logger.Error("warm rates", slog.Any("error", err))
		return err
	}
	j.metrics().AddWarmedRates(warmed)
	logger.Info("completed fx warmup", slog.Int("rates", warmed), slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *FXWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskFXWarmup))
	}
	return slog.Default().With(slog.String("job", TaskFXWarmup))
}

func (j *FXWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *FXWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
