package watch

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"

	ferrors "git.home.luguber.info/inful/docweave/internal/foundation/errors"
)

// Scheduler wraps a gocron scheduler for periodic full runs.
type Scheduler struct {
	scheduler gocron.Scheduler
}

// NewScheduler creates a stopped scheduler.
func NewScheduler() (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryInternal, "failed to create scheduler").Build()
	}
	return &Scheduler{scheduler: s}, nil
}

// ScheduleInterval calls fire every interval.
func (s *Scheduler) ScheduleInterval(interval time.Duration, fire func(reason string)) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(fire, "interval"),
		gocron.WithName(fmt.Sprintf("run-every-%s", interval)),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return ferrors.ConfigError("invalid watch interval").WithCause(err).
			WithContext("interval", interval.String()).Fatal().Build()
	}
	return nil
}

// ScheduleCron calls fire on a cron expression. Six fields means a leading seconds field.
func (s *Scheduler) ScheduleCron(expr string, fire func(reason string)) error {
	withSeconds := len(strings.Fields(expr)) == 6
	_, err := s.scheduler.NewJob(
		gocron.CronJob(expr, withSeconds),
		gocron.NewTask(fire, "schedule"),
		gocron.WithName("run-on-schedule"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return ferrors.ConfigError("invalid watch schedule").WithCause(err).
			WithContext("schedule", expr).Fatal().Build()
	}
	return nil
}

// Start begins firing jobs.
func (s *Scheduler) Start() {
	slog.Debug("Starting scheduler", slog.Int("jobs", len(s.scheduler.Jobs())))
	s.scheduler.Start()
}

// Stop shuts the scheduler down and waits for running jobs.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}
