package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

type Schedule struct {
	// Daily and Weekly are standard five-field cron expressions
	Daily    string
	Weekly   string
	Location *time.Location
}

// Controller fires the runner on the daily and weekly schedules
type Controller struct {
	cron     *cron.Cron
	runner   *Runner
	location *time.Location
}

func NewController(ctx context.Context, runner *Runner, schedule Schedule) (*Controller, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner is nil")
	}
	if schedule.Location == nil {
		schedule.Location = time.Local
	}

	logger := cronLogger{logger: zerolog.Ctx(ctx)}
	c := cron.New(
		cron.WithLocation(schedule.Location),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	if _, err := c.AddFunc(schedule.Daily, func() { runner.RunDaily(ctx) }); err != nil {
		return nil, fmt.Errorf("invalid daily schedule %q: %w", schedule.Daily, err)
	}
	if _, err := c.AddFunc(schedule.Weekly, func() { runner.RunWeekly(ctx) }); err != nil {
		return nil, fmt.Errorf("invalid weekly schedule %q: %w", schedule.Weekly, err)
	}

	return &Controller{cron: c, runner: runner, location: schedule.Location}, nil
}

// Start runs the schedule until ctx is done, then waits for an in-flight run to finish
func (ctrl *Controller) Start(ctx context.Context) {
	logger := zerolog.Ctx(ctx)
	ctrl.cron.Start()
	for _, e := range ctrl.cron.Entries() {
		logger.Info().Time("next", e.Next).Msg("scheduled traffic run")
	}

	<-ctx.Done()
	logger.Info().Msg("stopping scheduler")
	<-ctrl.cron.Stop().Done()
}

// NextRuns lists the upcoming trigger times, daily first
func (ctrl *Controller) NextRuns(now time.Time) []time.Time {
	entries := ctrl.cron.Entries()
	next := make([]time.Time, 0, len(entries))
	for _, e := range entries {
		next = append(next, e.Schedule.Next(now.In(ctrl.location)))
	}
	return next
}

type cronLogger struct {
	logger *zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
