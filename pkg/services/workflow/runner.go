package workflow

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/de-tools/flow-atlas/pkg/models/domain"
	"github.com/de-tools/flow-atlas/pkg/services/monitor"
)

// Pipeline is the unit of work the runner triggers
type Pipeline interface {
	Run(ctx context.Context, opts monitor.RunOptions) (domain.FlowSnapshot, error)
}

type RunnerConfig struct {
	// RunTimeout bounds a single triggered run
	RunTimeout time.Duration
}

// Runner executes pipeline runs one at a time and drops triggers that arrive while busy
type Runner struct {
	pipeline Pipeline
	config   RunnerConfig
	mu       sync.Mutex
}

func NewRunner(pipeline Pipeline, config RunnerConfig) *Runner {
	if config.RunTimeout <= 0 {
		config.RunTimeout = 5 * time.Minute
	}
	return &Runner{
		pipeline: pipeline,
		config:   config,
	}
}

func (r *Runner) RunDaily(ctx context.Context) bool {
	return r.run(ctx, monitor.RunOptions{})
}

func (r *Runner) RunWeekly(ctx context.Context) bool {
	return r.run(ctx, monitor.RunOptions{IncludeWeekly: true})
}

// run reports whether the trigger was executed
func (r *Runner) run(ctx context.Context, opts monitor.RunOptions) bool {
	logger := zerolog.Ctx(ctx)
	if !r.mu.TryLock() {
		logger.Warn().Bool("weekly", opts.IncludeWeekly).Msg("previous run still in progress, skipping trigger")
		return false
	}
	defer r.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, r.config.RunTimeout)
	defer cancel()

	if _, err := r.pipeline.Run(ctx, opts); err != nil {
		logger.Error().Err(err).Msg("scheduled run failed")
	}
	return true
}
