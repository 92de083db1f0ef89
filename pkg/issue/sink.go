package issue

import (
	"sync"
	"time"
)

// Sink collects the issues of a single test run. One sink is
// created per test and discarded when the test finishes, so
// concurrent tests never share attribution state.
type Sink struct {
	testID string
	stream *Stream

	mu     sync.Mutex
	issues []Issue
	sealed bool
}

// NewSink creates a sink for the given test. The stream may be
// nil, in which case issues are collected but not published and
// carry no sequence number.
func NewSink(testID string, stream *Stream) *Sink {
	return &Sink{
		testID: testID,
		stream: stream,
		issues: make([]Issue, 0, 4),
	}
}

// TestID returns the identity of the owning test.
func (s *Sink) TestID() string { return s.testID }

// Record stamps the issue with the test identity, a timestamp
// and (when a stream is attached) a run-wide sequence number,
// stores it, then publishes it. Storing is atomic with respect to
// other calls on the same sink, so record order matches sequence
// order. Subscribers are notified after the sink's lock is
// released and may read the sink. Record returns false and drops
// the issue once the sink has been sealed.
func (s *Sink) Record(i Issue) (Issue, bool) {
	s.mu.Lock()
	if s.sealed {
		s.mu.Unlock()
		return i, false
	}

	i.TestID = s.testID
	i.RecordedAt = time.Now()
	if s.stream != nil {
		i = s.stream.stamp(i)
	}
	s.issues = append(s.issues, i)
	s.mu.Unlock()

	if s.stream != nil {
		s.stream.deliver(i)
	}
	return i, true
}

// Issues returns a copy of everything recorded so far, in record
// order.
func (s *Sink) Issues() []Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Issue, len(s.issues))
	copy(out, s.issues)
	return out
}

// Failed reports whether any recorded issue fails the test.
// Known issues and warnings do not.
func (s *Sink) Failed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range s.issues {
		if i.IsFailure() {
			return true
		}
	}
	return false
}

// Count returns how many issues of the given kind were recorded.
func (s *Sink) Count(kind Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, i := range s.issues {
		if i.Kind == kind {
			n++
		}
	}
	return n
}

// Seal closes the sink. Later records are dropped.
func (s *Sink) Seal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sealed = true
}

// Sealed reports whether Seal has been called.
func (s *Sink) Sealed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sealed
}
