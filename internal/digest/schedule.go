package digest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bakkerme/reddit-scout/internal/core"
)

// Job is one scheduled unit of work. Digest.Run fits after discarding its result.
type Job func(ctx context.Context) error

// Schedule fires a Job on a standard five-field cron expression. Ticks that
// arrive while the previous job is still running are skipped.
type Schedule struct {
	schedule string
	location *time.Location
	job      Job
	logger   *slog.Logger
}

func NewSchedule(schedule, timezone string, job Job, logger *slog.Logger) (*Schedule, error) {
	if schedule == "" {
		return nil, fmt.Errorf("cron schedule is required")
	}
	if job == nil {
		return nil, fmt.Errorf("scheduled job is required")
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	location := time.UTC
	if timezone != "" {
		tz, err := time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone: %w", err)
		}
		location = tz
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Schedule{schedule: schedule, location: location, job: job, logger: logger}, nil
}

// Run blocks until ctx is cancelled, then waits for an in-flight job to finish.
func (s *Schedule) Run(ctx context.Context) error {
	cronLogger := slogCronLogger{logger: s.logger}
	c := cron.New(
		cron.WithLocation(s.location),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	id, err := c.AddFunc(s.schedule, func() {
		runCtx := core.WithRunID(ctx, core.NewRunID())
		if err := s.job(runCtx); err != nil {
			s.logger.Error("scheduled job failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	c.Start()
	s.logger.Info("schedule started", "schedule", s.schedule, "timezone", s.location.String(), "next", c.Entry(id).Next)

	<-ctx.Done()
	stopped := c.Stop()
	<-stopped.Done()
	s.logger.Info("schedule stopped")
	return nil
}

// slogCronLogger adapts slog to cron.Logger.
type slogCronLogger struct {
	logger *slog.Logger
}

func (l slogCronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l slogCronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
