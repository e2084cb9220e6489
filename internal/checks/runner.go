package checks

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/novacheck/novacheck/internal/logging"
)

// Runner executes checks sequentially against one environment.
//
// Sequential on purpose: checks share quota in the target project, and
// lifecycle transitions already dominate the wall clock, so parallel runs
// would mostly race each other for hypervisor capacity and muddy failures.
type Runner struct {
	Env *Env
}

// NewRunner builds a runner over env.
func NewRunner(env *Env) *Runner {
	return &Runner{Env: env}
}

// Run executes the given checks in order and returns one result each. A
// check's cleanups run before the next check starts; a failed cleanup marks
// the result's error but does not overwrite a real check failure.
func (r *Runner) Run(ctx context.Context, toRun []Check) []Result {
	results := make([]Result, 0, len(toRun))
	for _, c := range toRun {
		results = append(results, r.runOne(ctx, c))
	}
	return results
}

func (r *Runner) runOne(ctx context.Context, c Check) Result {
	if c.Skip != nil {
		if reason := c.Skip(r.Env.Config); reason != "" {
			logging.Info("check skipped",
				zap.String("check", c.Name),
				zap.String("reason", reason))
			return Result{Name: c.Name, Status: StatusSkipped, Reason: reason}
		}
	}

	logging.Info("check started", zap.String("check", c.Name))
	start := time.Now()
	err := c.Run(ctx, r.Env)
	duration := time.Since(start)

	// Cleanups run on a fresh context so a canceled run still releases
	// what it created.
	cleanupCtx := ctx
	if ctx.Err() != nil {
		cleanupCtx = context.Background()
	}
	if failed := r.Env.runCleanups(cleanupCtx); failed > 0 && err == nil {
		err = fmt.Errorf("%d cleanup(s) failed; resources may be left behind", failed)
	}

	if err != nil {
		logging.Error("check failed",
			zap.String("check", c.Name),
			zap.Duration("duration", duration),
			zap.Error(err))
		return Result{Name: c.Name, Status: StatusFailed, Err: err, Duration: duration}
	}

	logging.Info("check passed",
		zap.String("check", c.Name),
		zap.Duration("duration", duration))
	return Result{Name: c.Name, Status: StatusPassed, Duration: duration}
}

// Summary aggregates results by outcome.
type Summary struct {
	Passed  int
	Failed  int
	Skipped int
	Total   int
}

// Summarize tallies a result list.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		s.Total++
		switch r.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		}
	}
	return s
}

// Success reports whether the run as a whole succeeded: nothing failed.
// Skips do not count against success.
func (s Summary) Success() bool {
	return s.Failed == 0
}
