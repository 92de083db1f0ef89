package metrics

import (
	"sync"
	"time"

	"digital.vasic.expectations/pkg/issue"
)

// MemoryMetrics implements Recorder with in-memory counters. It
// is safe for concurrent use and is what tests and embedded
// reporters read back from.
type MemoryMetrics struct {
	mu        sync.Mutex
	tests     map[string]int
	issues    map[string]int
	durations map[string][]time.Duration
	runTotal  int
	active    int
}

// NewMemoryMetrics creates a new MemoryMetrics instance.
func NewMemoryMetrics() *MemoryMetrics {
	return &MemoryMetrics{
		tests:     make(map[string]int),
		issues:    make(map[string]int),
		durations: make(map[string][]time.Duration),
	}
}

func (m *MemoryMetrics) RecordTest(testID, status string, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tests[testID+":"+status]++
	m.durations[testID] = append(m.durations[testID], duration)
}

func (m *MemoryMetrics) RecordIssue(kind issue.Kind, known bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.issues[issueKey(kind, known)]++
}

func (m *MemoryMetrics) IncrementRunTotal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runTotal++
}

func (m *MemoryMetrics) SetActiveTests(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = count
}

// TestCount returns the count for a test+status combination.
func (m *MemoryMetrics) TestCount(testID, status string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tests[testID+":"+status]
}

// IssueCount returns how many issues of kind were recorded with
// the given known flag.
func (m *MemoryMetrics) IssueCount(kind issue.Kind, known bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.issues[issueKey(kind, known)]
}

// Durations returns the recorded durations of a test.
func (m *MemoryMetrics) Durations(testID string) []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]time.Duration, len(m.durations[testID]))
	copy(out, m.durations[testID])
	return out
}

// RunTotal returns the total number of runs.
func (m *MemoryMetrics) RunTotal() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runTotal
}

// ActiveTests returns the current active tests gauge.
func (m *MemoryMetrics) ActiveTests() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

func issueKey(kind issue.Kind, known bool) string {
	if known {
		return string(kind) + ":known"
	}
	return string(kind) + ":new"
}
