// Package testctx provides T, the explicit per-test context that
// carries a test's issue sink, cancellation, logger, cleanup
// stack and known-issue interceptor chain through the body's call
// graph. One T is created per test run and discarded afterwards.
package testctx

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"digital.vasic.expectations/pkg/issue"
	"digital.vasic.expectations/pkg/logging"
)

// Info identifies the test a context belongs to.
type Info struct {
	ID   string
	Name string
}

// Interceptor is offered every failure-severity issue recorded
// within its scope before the issue reaches the sink. Returning
// true claims the issue as known and stops propagation to outer
// interceptors. Implementations must be safe for concurrent use.
type Interceptor interface {
	Intercept(i issue.Issue) bool
}

// state is shared by a T and every child derived from it.
type state struct {
	mu            sync.Mutex
	cleanups      []func()
	timeLimitOnce sync.Once
}

// T is the execution context of a single test. A child created by
// WithInterceptor shares the sink, cancellation and cleanups of
// its parent. T is safe for concurrent use by goroutines spawned
// from the test body.
type T struct {
	ctx         context.Context
	info        Info
	sink        *issue.Sink
	logger      logging.Logger
	parent      *T
	interceptor Interceptor
	shared      *state
}

// Option configures a T.
type Option func(*T)

// WithLogger sets the logger used for issue and cleanup logging.
func WithLogger(l logging.Logger) Option {
	return func(t *T) {
		if l != nil {
			t.logger = l
		}
	}
}

// New creates the context for one test run. A nil sink is
// replaced with an unpublished sink for info.ID.
func New(
	ctx context.Context,
	info Info,
	sink *issue.Sink,
	opts ...Option,
) *T {
	if ctx == nil {
		ctx = context.Background()
	}
	if sink == nil {
		sink = issue.NewSink(info.ID, nil)
	}
	t := &T{
		ctx:    ctx,
		info:   info,
		sink:   sink,
		logger: logging.NullLogger{},
		shared: &state{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Context returns the test's context. It is cancelled when the
// test's time limit fires or the run is cancelled.
func (t *T) Context() context.Context { return t.ctx }

// Err returns the context's error, if any.
func (t *T) Err() error { return t.ctx.Err() }

// Info returns the identity of the test.
func (t *T) Info() Info { return t.info }

// ID returns the test identifier.
func (t *T) ID() string { return t.info.ID }

// Logger returns the logger attached to the test.
func (t *T) Logger() logging.Logger { return t.logger }

// Sink returns the test's issue sink.
func (t *T) Sink() *issue.Sink { return t.sink }

// Depth returns how many interceptors enclose this handle.
func (t *T) Depth() int {
	n := 0
	for cur := t; cur != nil; cur = cur.parent {
		if cur.interceptor != nil {
			n++
		}
	}
	return n
}

// WithInterceptor returns a child handle whose records are offered
// to ic before any interceptor enclosing t. Hand the child to
// every goroutine that should run inside the scope.
func (t *T) WithInterceptor(ic Interceptor) *T {
	return &T{
		ctx:         t.ctx,
		info:        t.info,
		sink:        t.sink,
		logger:      t.logger,
		parent:      t,
		interceptor: ic,
		shared:      t.shared,
	}
}

// Record classifies i against the enclosing interceptors,
// innermost first, and stores it in the sink. It returns the
// issue as stored, with IsKnown set if an interceptor claimed it.
// Warnings and issues already marked known are not offered to
// interceptors.
func (t *T) Record(i issue.Issue) issue.Issue {
	i.TestID = t.info.ID

	if i.Severity == issue.SeverityFailure && !i.IsKnown {
		for cur := t; cur != nil; cur = cur.parent {
			if cur.interceptor != nil && cur.interceptor.Intercept(i) {
				i.IsKnown = true
				break
			}
		}
	}

	recorded, ok := t.sink.Record(i)
	if !ok {
		t.logger.Warn("issue_dropped", logging.IssueFields(i)...)
		return recorded
	}

	if recorded.IsKnown {
		t.logger.Info("known_issue_recorded",
			logging.IssueFields(recorded)...)
	} else {
		t.logger.Info("issue_recorded",
			logging.IssueFields(recorded)...)
	}
	return recorded
}

// RecordTimeLimit records a KindTimeLimitExceeded issue. Only the
// first call for a test records anything.
func (t *T) RecordTimeLimit(loc issue.SourceLocation) {
	t.shared.timeLimitOnce.Do(func() {
		t.Record(issue.New(
			issue.KindTimeLimitExceeded, loc,
			"time limit exceeded",
		))
	})
}

// CheckCancelled returns nil while the test may continue. Once
// the time limit has fired it records the time-limit issue (once
// per test) and returns ErrTimeLimitExceeded; after an external
// cancellation it returns an error wrapping context.Canceled.
func (t *T) CheckCancelled(loc issue.SourceLocation) error {
	err := t.ctx.Err()
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		t.RecordTimeLimit(loc)
		return ErrTimeLimitExceeded
	}
	return fmt.Errorf("test %s cancelled: %w", t.info.ID, err)
}

// Cleanup registers fn to run after the test body exits by any
// path. Cleanups run last-registered first.
func (t *T) Cleanup(fn func()) {
	t.shared.mu.Lock()
	defer t.shared.mu.Unlock()
	t.shared.cleanups = append(t.shared.cleanups, fn)
}

// RunCleanups runs and clears the registered cleanups in reverse
// order. A panicking cleanup does not stop the others; the
// recovered values are returned in the order they occurred. The
// runner calls this once the body has returned.
func (t *T) RunCleanups() []any {
	t.shared.mu.Lock()
	fns := t.shared.cleanups
	t.shared.cleanups = nil
	t.shared.mu.Unlock()

	var panics []any
	for i := len(fns) - 1; i >= 0; i-- {
		func() {
			defer func() {
				if r := recover(); r != nil {
					panics = append(panics, r)
					t.logger.Error("cleanup_panic",
						logging.TestField(t.info.ID),
						logging.LogField("panic", fmt.Sprint(r)),
					)
				}
			}()
			fns[i]()
		}()
	}
	return panics
}
