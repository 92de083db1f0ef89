package condition

import (
	"context"
	"sync"

	"digital.vasic.expectations/pkg/logging"
)

// Node is a suite or test in the declaration tree, carrying its
// own traits in declaration order.
type Node struct {
	ID     string
	Traits []Trait
	Parent *Node
}

// Decision is the terminal outcome of evaluating a node.
type Decision struct {
	// Enabled is true when the node may run.
	Enabled bool

	// Reason is the skip reason when Enabled is false.
	Reason string

	// Source is the ID of the node whose trait disabled it. It
	// differs from the evaluated node when an enclosing suite
	// was disabled.
	Source string
}

type entry struct {
	once     sync.Once
	decision Decision
}

// Evaluator decides, once per node per run, whether a suite or
// test runs. Nodes are identified by pointer; IDs are only used
// for reporting. It is safe for concurrent use; concurrent tests in
// the same suite share the suite's single evaluation.
type Evaluator struct {
	logger logging.Logger

	mu      sync.Mutex
	entries map[*Node]*entry
	counts  map[string]int
}

// NewEvaluator creates an Evaluator. A nil logger discards output.
func NewEvaluator(logger logging.Logger) *Evaluator {
	if logger == nil {
		logger = logging.NullLogger{}
	}
	return &Evaluator{
		logger:  logger,
		entries: make(map[*Node]*entry),
		counts:  make(map[string]int),
	}
}

// Evaluate returns the decision for n. Ancestors are decided
// first; if one is disabled, n's own traits are never evaluated
// and the ancestor's decision is returned. Otherwise n's traits
// run in declaration order and the first disabling trait decides.
func (e *Evaluator) Evaluate(ctx context.Context, n *Node) Decision {
	if n == nil {
		return Decision{Enabled: true}
	}

	if n.Parent != nil {
		if d := e.Evaluate(ctx, n.Parent); !d.Enabled {
			return d
		}
	}

	ent := e.entryFor(n)
	ent.once.Do(func() {
		ent.decision = e.evaluateOwn(ctx, n)
	})
	return ent.decision
}

// Evaluated returns how many times n's own traits were evaluated.
// It is 0 for nodes skipped because an ancestor was disabled and
// at most 1 otherwise.
func (e *Evaluator) Evaluated(id string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.counts[id]
}

func (e *Evaluator) entryFor(n *Node) *entry {
	e.mu.Lock()
	defer e.mu.Unlock()
	ent, ok := e.entries[n]
	if !ok {
		ent = &entry{}
		e.entries[n] = ent
	}
	return ent
}

func (e *Evaluator) evaluateOwn(ctx context.Context, n *Node) Decision {
	e.mu.Lock()
	e.counts[n.ID]++
	e.mu.Unlock()

	for i, tr := range n.Traits {
		enabled, reason := tr.Evaluate(ctx)
		if enabled {
			continue
		}
		e.logger.Debug("condition_disabled",
			logging.StringField("node_id", n.ID),
			logging.IntField("trait", i),
			logging.StringField("reason", reason),
			logging.StringField("location", tr.Location.String()),
		)
		return Decision{Enabled: false, Reason: reason, Source: n.ID}
	}
	return Decision{Enabled: true}
}
