// Package confirm tracks asynchronous acknowledgements. Run hands
// its body a Confirmation that any number of goroutines may
// confirm while the body is running; when the body returns, by
// any path, the final count is checked once against the expected
// range.
package confirm

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"digital.vasic.expectations/pkg/issue"
	"digital.vasic.expectations/pkg/logging"
	"digital.vasic.expectations/pkg/testctx"
)

// Confirmation counts acknowledgements of an expected event. It
// is only valid while the Run call that created it is active.
type Confirmation struct {
	comment string
	logger  logging.Logger

	mu     sync.RWMutex
	count  atomic.Int64
	closed bool
	late   atomic.Int64
}

// Confirm records one acknowledgement.
func (c *Confirmation) Confirm() { c.ConfirmN(1) }

// ConfirmN records n acknowledgements. It is safe to call from
// any goroutine. Calls after the scope has ended are ignored.
func (c *Confirmation) ConfirmN(n int) {
	if n <= 0 {
		return
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		c.late.Add(int64(n))
		c.logger.Warn("confirmation_after_scope",
			logging.StringField("comment", c.comment),
			logging.IntField("count", n),
		)
		return
	}
	c.count.Add(int64(n))
}

// Func returns Confirm as a plain callback.
func (c *Confirmation) Func() func() { return c.Confirm }

// Count returns the number of acknowledgements so far.
func (c *Confirmation) Count() int { return int(c.count.Load()) }

// Late returns how many acknowledgements arrived after the scope
// ended and were ignored.
func (c *Confirmation) Late() int { return int(c.late.Load()) }

// close ends the scope and returns the final count. Every
// ConfirmN that returned before close is included.
func (c *Confirmation) close() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return int(c.count.Load())
}

// Option configures Run.
type Option func(*options)

type options struct {
	expected issue.Range
	loc      issue.SourceLocation
}

// Expected sets the accepted range of confirmations. The default
// is exactly one.
func Expected(r issue.Range) Option {
	return func(o *options) { o.expected = r }
}

// At overrides the source location reported on a mismatch.
func At(loc issue.SourceLocation) Option {
	return func(o *options) { o.loc = loc }
}

// Run invokes body with a fresh Confirmation. After body returns
// or panics, the count is compared against the expected range and
// exactly one KindConfirmationMismatch issue is recorded if it
// falls outside. A time limit that fired during body is recorded
// as well. body's error is returned unchanged and a panic is
// re-raised, both after the check.
//
// Work that confirms asynchronously must be awaited by body; the
// count is read once body has returned.
func Run(
	t *testctx.T,
	comment string,
	body func(t *testctx.T, c *Confirmation) error,
	opts ...Option,
) (err error) {
	o := options{
		expected: issue.Exactly(1),
		loc:      issue.Caller(1),
	}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Confirmation{
		comment: comment,
		logger:  t.Logger(),
	}

	defer func() {
		r := recover()
		actual := c.close()

		if errors.Is(t.Err(), context.DeadlineExceeded) {
			t.RecordTimeLimit(o.loc)
		}

		if !o.expected.Contains(actual) {
			i := issue.New(issue.KindConfirmationMismatch, o.loc, comment)
			i.Confirmation = &issue.ConfirmationDetail{
				Expected: o.expected,
				Actual:   actual,
			}
			t.Record(i)
		}

		if r != nil {
			panic(r)
		}
	}()

	return body(t, c)
}
