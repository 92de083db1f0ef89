// Package knownissue suppresses failures that are expected to
// happen. With runs a block inside a scope that claims matching
// issues as known, so they are still reported but no longer fail
// the test. Scopes nest: an issue is offered to the innermost
// scope first and propagates outward until one claims it.
package knownissue

import (
	"errors"
	"sync"
	"sync/atomic"

	"digital.vasic.expectations/pkg/issue"
	"digital.vasic.expectations/pkg/logging"
	"digital.vasic.expectations/pkg/testctx"
)

// Matcher reports whether an issue is the known issue.
type Matcher func(i issue.Issue) bool

// Option configures With.
type Option func(*options)

type options struct {
	intermittent bool
	when         func() bool
	matcher      Matcher
	loc          issue.SourceLocation
}

// Intermittent allows the known issue not to occur at all.
func Intermittent() Option {
	return func(o *options) { o.intermittent = true }
}

// When makes the scope conditional. The predicate is evaluated
// once on entry; if it reports false the scope is inert and every
// issue surfaces normally.
func When(pred func() bool) Option {
	return func(o *options) { o.when = pred }
}

// Matching restricts the scope to issues accepted by m. Without
// it every failure recorded inside the scope is claimed.
func Matching(m Matcher) Option {
	return func(o *options) { o.matcher = m }
}

// At overrides the location reported when the known issue did not
// occur.
func At(loc issue.SourceLocation) Option {
	return func(o *options) { o.loc = loc }
}

// scope is the interceptor installed by With.
type scope struct {
	comment string
	matcher Matcher
	logger  logging.Logger

	mu      sync.RWMutex
	closed  bool
	matched atomic.Int64
}

// Intercept implements testctx.Interceptor. A matcher that panics
// is treated as not matching.
func (s *scope) Intercept(i issue.Issue) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	if !s.match(i) {
		return false
	}
	s.matched.Add(1)
	return true
}

func (s *scope) match(i issue.Issue) (ok bool) {
	if s.matcher == nil {
		return true
	}
	defer func() {
		if r := recover(); r != nil {
			ok = false
			s.logger.Warn("known_issue_matcher_panic",
				logging.StringField("comment", s.comment),
				logging.LogField("panic", r),
			)
		}
	}()
	return s.matcher(i)
}

func (s *scope) close() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return int(s.matched.Load())
}

// With runs body inside a known-issue scope. Matched failures are
// recorded as known; unmatched ones propagate to enclosing scopes
// and the test. Unless the scope is intermittent, a scope that
// matched nothing records a KindKnownIssueUnmatched failure on t.
//
// A failed requirement whose issue was claimed as known ends body
// and is absorbed, so the test continues after With. Any other
// error from body is returned unchanged once the bookkeeping has
// run; a panic is re-raised likewise.
//
// Goroutines started by body must use the *testctx.T passed to it
// for their issues to be classified by this scope.
func With(
	t *testctx.T,
	comment string,
	body func(t *testctx.T) error,
	opts ...Option,
) (err error) {
	o := options{loc: issue.Caller(1)}
	for _, opt := range opts {
		opt(&o)
	}

	if o.when != nil && !o.when() {
		t.Logger().Debug("known_issue_scope_inert",
			logging.TestField(t.ID()),
			logging.StringField("comment", comment),
		)
		return body(t)
	}

	s := &scope{
		comment: comment,
		matcher: o.matcher,
		logger:  t.Logger(),
	}

	defer func() {
		r := recover()
		matched := s.close()

		if matched == 0 && !o.intermittent {
			t.Record(issue.New(issue.KindKnownIssueUnmatched, o.loc, comment))
		}

		if r != nil {
			panic(r)
		}

		var req *testctx.RequirementError
		if errors.As(err, &req) && req.Issue.IsKnown {
			err = nil
		}
	}()

	return body(t.WithInterceptor(s))
}
