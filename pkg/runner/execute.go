package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"digital.vasic.expectations/pkg/condition"
	"digital.vasic.expectations/pkg/expect"
	"digital.vasic.expectations/pkg/issue"
	"digital.vasic.expectations/pkg/logging"
	"digital.vasic.expectations/pkg/monitor"
	"digital.vasic.expectations/pkg/testctx"
)

// executeTest runs a single test through its full lifecycle:
// condition gate -> pre-hooks -> body with time limit ->
// cleanups -> seal -> status -> post-hooks.
func (r *DefaultRunner) executeTest(
	ctx context.Context,
	eval *condition.Evaluator,
	p planned,
) *Result {
	test := p.test
	result := &Result{
		RunID:     r.RunID(),
		TestID:    p.node.ID,
		Name:      test.Name,
		StartTime: time.Now(),
	}

	decision := eval.Evaluate(ctx, p.node)
	if !decision.Enabled {
		result.Status = StatusSkipped
		result.SkipReason = decision.Reason
		r.finish(ctx, result)
		r.logEvent("test_skipped",
			logging.TestField(result.TestID),
			logging.StringField("reason", decision.Reason),
			logging.StringField("source", decision.Source),
		)
		return result
	}

	r.logEvent("test_started",
		logging.TestField(result.TestID),
		logging.StringField("name", test.Name),
	)
	if r.collector != nil {
		r.collector.EmitStarted(result.RunID, result.TestID, test.Name)
	}
	r.metrics.SetActiveTests(int(r.active.Add(1)))
	defer func() { r.metrics.SetActiveTests(int(r.active.Add(-1))) }()

	limit := test.TimeLimit
	if limit == 0 {
		limit = r.timeLimit
	}
	execCtx, cancel := ctx, context.CancelFunc(func() {})
	if limit > 0 {
		execCtx, cancel = context.WithTimeout(ctx, limit)
	}
	defer cancel()

	sink := issue.NewSink(result.TestID, r.stream)
	t := testctx.New(execCtx,
		testctx.Info{ID: result.TestID, Name: test.Name},
		sink,
		testctx.WithLogger(r.logger.WithFields(logging.TestField(result.TestID))),
	)

	if r.runPreHooks(t) {
		r.classify(t, invokeBody(t, test.Body))
	}
	if errors.Is(execCtx.Err(), context.DeadlineExceeded) {
		t.RecordTimeLimit(issue.SourceLocation{})
	}

	for _, v := range t.RunCleanups() {
		i := issue.New(issue.KindErrorCaught, issue.SourceLocation{}, "cleanup panicked")
		i.Error = &expect.PanicError{Value: v}
		t.Record(i)
	}

	sink.Seal()
	result.Issues = sink.Issues()
	result.Status = StatusPassed
	if sink.Failed() {
		result.Status = StatusFailed
	}
	r.finish(ctx, result)

	r.logEvent("test_completed",
		logging.TestField(result.TestID),
		logging.StringField("status", string(result.Status)),
		logging.IntField("issues", len(result.Issues)),
		logging.Float64Field("duration_seconds", result.Duration.Seconds()),
	)
	return result
}

// runPreHooks runs the pre-hooks in order and reports whether the
// body may run. The first failing hook is recorded as a caught
// error.
func (r *DefaultRunner) runPreHooks(t *testctx.T) bool {
	for n, hook := range r.preHooks {
		err := invokeBody(t, hook)
		if err == nil {
			continue
		}
		r.logger.Warn("pre_hook_failed",
			logging.TestField(t.ID()),
			logging.IntField("hook", n),
			logging.ErrorField(err),
		)
		if !testctx.IsControlSignal(err) {
			i := issue.New(issue.KindErrorCaught, issue.SourceLocation{}, "pre-hook failed")
			i.Error = err
			t.Record(i)
		}
		return false
	}
	return true
}

// classify records what a body's returned error means. Control
// signals have already been recorded; anything else is a caught
// error.
func (r *DefaultRunner) classify(t *testctx.T, err error) {
	switch {
	case err == nil:
	case testctx.IsControlSignal(err):
		t.Logger().Debug("test_ended_early",
			logging.TestField(t.ID()),
			logging.ErrorField(err),
		)
	case errors.Is(err, context.DeadlineExceeded) &&
		errors.Is(t.Err(), context.DeadlineExceeded):
		t.RecordTimeLimit(issue.SourceLocation{})
	default:
		i := issue.New(issue.KindErrorCaught, issue.SourceLocation{}, "")
		i.Error = err
		t.Record(i)
	}
}

// finish stamps the end time and reports the result to metrics,
// the collector and post-hooks.
func (r *DefaultRunner) finish(ctx context.Context, result *Result) {
	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(result.StartTime)

	r.metrics.RecordTest(result.TestID, string(result.Status), result.Duration)
	if r.collector != nil {
		r.collector.EmitFinished(
			result.RunID, result.TestID, result.Name,
			monitorStatus(result.Status), result.SkipReason,
			result.Duration,
		)
	}

	if result.Status == StatusSkipped {
		return
	}
	for n, hook := range r.postHooks {
		if err := invokePostHook(ctx, hook, result); err != nil {
			r.logger.Warn("post_hook_warning",
				logging.TestField(result.TestID),
				logging.IntField("hook", n),
				logging.ErrorField(err),
			)
		}
	}
}

// invokeBody calls fn, converting a panic into a caught error.
func invokeBody(t *testctx.T, fn func(*testctx.T) error) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = &expect.PanicError{Value: v}
		}
	}()
	if fn == nil {
		return nil
	}
	return fn(t)
}

func invokePostHook(ctx context.Context, h PostHook, result *Result) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = fmt.Errorf("post-hook panicked: %v", v)
		}
	}()
	return h(ctx, result)
}

func monitorStatus(s Status) string {
	switch s {
	case StatusPassed:
		return monitor.StatusPassed
	case StatusFailed:
		return monitor.StatusFailed
	default:
		return monitor.StatusSkipped
	}
}
