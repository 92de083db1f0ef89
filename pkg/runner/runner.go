// Package runner is the scheduler boundary of the expectation
// runtime. It gates each test on its conditions, runs the body
// against a fresh test context, and turns the recorded issues
// into a terminal status. Suites run sequentially or in parallel
// with a concurrency limit.
package runner

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"digital.vasic.expectations/pkg/condition"
	"digital.vasic.expectations/pkg/issue"
	"digital.vasic.expectations/pkg/logging"
	"digital.vasic.expectations/pkg/metrics"
	"digital.vasic.expectations/pkg/monitor"
	"digital.vasic.expectations/pkg/testctx"
)

// Runner defines the interface for test execution.
type Runner interface {
	// RunTest runs a single standalone test.
	RunTest(ctx context.Context, test Test) *Result

	// Run executes every test of suite in declaration order.
	Run(ctx context.Context, suite Suite) ([]*Result, error)

	// RunParallel executes the tests of suite concurrently with
	// at most maxConcurrency in flight.
	RunParallel(
		ctx context.Context,
		suite Suite,
		maxConcurrency int,
	) ([]*Result, error)
}

// PreHook runs before a test body with the test's context. A
// pre-hook may register cleanups. An error fails the test and the
// body is not run.
type PreHook func(t *testctx.T) error

// PostHook runs after a test has finished. Errors are logged.
type PostHook func(ctx context.Context, result *Result) error

// DefaultRunner is the standard Runner implementation. It is safe
// for concurrent use.
type DefaultRunner struct {
	logger         logging.Logger
	timeLimit      time.Duration
	maxConcurrency int
	preHooks       []PreHook
	postHooks      []PostHook
	runID          string
	stream         *issue.Stream
	metrics        metrics.Recorder
	collector      *monitor.EventCollector

	active atomic.Int64
}

// NewRunner creates a DefaultRunner with the supplied options.
// Issues published on the runner's stream are forwarded to the
// metrics recorder and, when set, the event collector.
func NewRunner(opts ...RunnerOption) *DefaultRunner {
	r := &DefaultRunner{
		logger:  logging.NullLogger{},
		metrics: metrics.NoopMetrics{},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.stream == nil {
		r.stream = issue.NewStream(r.runID)
	}

	r.stream.Subscribe(func(i issue.Issue) {
		r.metrics.RecordIssue(i.Kind, i.IsKnown)
	})
	if r.collector != nil {
		r.collector.AttachStream(r.stream)
	}
	return r
}

// RunID returns the identifier of the runner's stream.
func (r *DefaultRunner) RunID() string { return r.stream.RunID() }

// Stream returns the run-level issue stream.
func (r *DefaultRunner) Stream() *issue.Stream { return r.stream }

// RunTest runs test as its own root: only its own traits gate it.
func (r *DefaultRunner) RunTest(ctx context.Context, test Test) *Result {
	r.metrics.IncrementRunTotal()
	id := test.ID
	if id == "" {
		id = test.Name
	}
	eval := condition.NewEvaluator(r.logger)
	return r.executeTest(ctx, eval, planned{
		test: test,
		node: &condition.Node{ID: id, Traits: test.Traits},
	})
}

// Run executes the tests of suite sequentially in declaration
// order: a suite's own tests first, then its nested suites. It
// stops early and returns ctx's error if ctx is cancelled between
// tests.
func (r *DefaultRunner) Run(
	ctx context.Context,
	suite Suite,
) ([]*Result, error) {
	plan, err := buildPlan(suite)
	if err != nil {
		return nil, err
	}
	r.metrics.IncrementRunTotal()
	r.logEvent("run_started",
		logging.StringField("run_id", r.RunID()),
		logging.StringField("suite", suiteID(suite, "")),
		logging.IntField("tests", len(plan)),
	)

	eval := condition.NewEvaluator(r.logger)
	results := make([]*Result, 0, len(plan))
	for _, p := range plan {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("run cancelled: %w", err)
		}
		results = append(results, r.executeTest(ctx, eval, p))
	}
	return results, nil
}

// RunParallel executes the tests of suite concurrently. It
// delegates to the parallel runner implementation.
func (r *DefaultRunner) RunParallel(
	ctx context.Context,
	suite Suite,
	maxConcurrency int,
) ([]*Result, error) {
	if maxConcurrency <= 0 {
		maxConcurrency = r.maxConcurrency
	}
	return runParallel(ctx, r, suite, maxConcurrency)
}

// planned is a test paired with its position in the trait tree.
type planned struct {
	test Test
	node *condition.Node
}

// buildPlan flattens suite into declaration order and assigns
// IDs. Duplicate test IDs are rejected.
func buildPlan(suite Suite) ([]planned, error) {
	var plan []planned
	seen := make(map[string]bool)

	var walk func(s Suite, parent *condition.Node)
	walk = func(s Suite, parent *condition.Node) {
		prefix := ""
		if parent != nil {
			prefix = parent.ID
		}
		node := &condition.Node{
			ID:     suiteID(s, prefix),
			Traits: s.Traits,
			Parent: parent,
		}
		for _, t := range s.Tests {
			if t.ID == "" {
				t.ID = joinID(node.ID, t.Name)
			}
			id := t.ID
			plan = append(plan, planned{
				test: t,
				node: &condition.Node{ID: id, Traits: t.Traits, Parent: node},
			})
		}
		for _, child := range s.Suites {
			walk(child, node)
		}
	}
	walk(suite, nil)

	for _, p := range plan {
		if p.test.ID == "" {
			return nil, fmt.Errorf("test in suite %s has no name", p.node.Parent.ID)
		}
		if seen[p.test.ID] {
			return nil, fmt.Errorf("duplicate test id: %s", p.test.ID)
		}
		seen[p.test.ID] = true
	}
	return plan, nil
}

func suiteID(s Suite, prefix string) string {
	if s.ID != "" {
		return s.ID
	}
	return joinID(prefix, s.Name)
}

func joinID(parts ...string) string {
	nonEmpty := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, "/")
}

// logEvent emits a structured log entry.
func (r *DefaultRunner) logEvent(event string, fields ...logging.Field) {
	r.logger.Info(event, fields...)
}
