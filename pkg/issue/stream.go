package issue

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Stream is the run-level push channel between per-test sinks and
// reporting consumers. It stamps every issue with a sequence
// number that increases monotonically across the whole run and
// delivers it to each subscriber. It is safe for concurrent use.
type Stream struct {
	runID string
	seq   atomic.Uint64

	mu       sync.RWMutex
	handlers []func(Issue)
}

// NewStream creates a stream for the given run. An empty runID
// is replaced with a random UUID.
func NewStream(runID string) *Stream {
	if runID == "" {
		runID = uuid.New().String()
	}
	return &Stream{runID: runID}
}

// RunID returns the identifier of the run this stream belongs to.
func (s *Stream) RunID() string { return s.runID }

// Subscribe registers a handler invoked for every published
// issue. Handlers run on the recording goroutine after the sink
// has stored the issue. They may read the sink but must not record
// issues themselves.
func (s *Stream) Subscribe(handler func(Issue)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, handler)
}

// stamp assigns the next sequence number.
func (s *Stream) stamp(i Issue) Issue {
	i.Seq = s.seq.Add(1)
	return i
}

// deliver notifies all subscribers. Delivery happens outside any
// lock, so concurrent tests may deliver out of order; consumers
// order by Seq.
func (s *Stream) deliver(i Issue) {
	s.mu.RLock()
	handlers := make([]func(Issue), len(s.handlers))
	copy(handlers, s.handlers)
	s.mu.RUnlock()

	for _, h := range handlers {
		h(i)
	}
}

// Published returns how many issues have passed through the
// stream.
func (s *Stream) Published() uint64 {
	return s.seq.Load()
}
