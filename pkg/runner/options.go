package runner

import (
	"time"

	"digital.vasic.expectations/pkg/config"
	"digital.vasic.expectations/pkg/issue"
	"digital.vasic.expectations/pkg/logging"
	"digital.vasic.expectations/pkg/metrics"
	"digital.vasic.expectations/pkg/monitor"
)

// RunnerOption configures a DefaultRunner.
type RunnerOption func(*DefaultRunner)

// WithLogger sets the logger used by the runner and handed to
// every test context.
func WithLogger(logger logging.Logger) RunnerOption {
	return func(r *DefaultRunner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTimeLimit sets the default time limit for tests that do
// not specify their own. Zero disables the default.
func WithTimeLimit(limit time.Duration) RunnerOption {
	return func(r *DefaultRunner) {
		r.timeLimit = limit
	}
}

// WithMaxConcurrency sets the limit RunParallel uses when called
// with a non-positive maximum.
func WithMaxConcurrency(n int) RunnerOption {
	return func(r *DefaultRunner) {
		r.maxConcurrency = n
	}
}

// WithPreHook adds a hook run before every test body.
func WithPreHook(h PreHook) RunnerOption {
	return func(r *DefaultRunner) {
		r.preHooks = append(r.preHooks, h)
	}
}

// WithPostHook adds a hook run after every finished test.
func WithPostHook(h PostHook) RunnerOption {
	return func(r *DefaultRunner) {
		r.postHooks = append(r.postHooks, h)
	}
}

// WithStream sets the run-level issue stream. By default the
// runner creates its own.
func WithStream(s *issue.Stream) RunnerOption {
	return func(r *DefaultRunner) {
		r.stream = s
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m metrics.Recorder) RunnerOption {
	return func(r *DefaultRunner) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithCollector sends lifecycle and issue events to c.
func WithCollector(c *monitor.EventCollector) RunnerOption {
	return func(r *DefaultRunner) {
		r.collector = c
	}
}

// WithConfig applies the time limit, concurrency and run ID of
// cfg.
func WithConfig(cfg config.Config) RunnerOption {
	return func(r *DefaultRunner) {
		r.timeLimit = cfg.DefaultTimeLimit
		r.maxConcurrency = cfg.MaxConcurrency
		r.runID = cfg.RunID
	}
}
