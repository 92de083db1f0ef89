package expect

import (
	"fmt"
	"sort"
	"sync"
)

// Comparator evaluates one binary operator against two captured
// operands. It returns an error when the operands cannot be
// compared with that operator.
type Comparator func(lhs, rhs any) (bool, error)

// Engine resolves comparison operators to comparators.
type Engine interface {
	// Compare evaluates lhs op rhs.
	Compare(op string, lhs, rhs any) (bool, error)

	// Register adds a comparator for a new operator. Returns an
	// error if the operator is already registered.
	Register(op string, c Comparator) error
}

// DefaultEngine is the standard Engine implementation. It is
// safe for concurrent use.
type DefaultEngine struct {
	mu          sync.RWMutex
	comparators map[string]Comparator
}

// Default is the engine used by the condition builders.
var Default = NewEngine()

// NewEngine creates a DefaultEngine with the built-in operators
// registered.
func NewEngine() *DefaultEngine {
	e := &DefaultEngine{
		comparators: make(map[string]Comparator),
	}
	e.registerDefaults()
	return e
}

func (e *DefaultEngine) registerDefaults() {
	e.comparators[OpEqual] = compareEqual
	e.comparators[OpNotEqual] = compareNotEqual
	e.comparators[OpLess] = orderedBy(func(c int) bool { return c < 0 })
	e.comparators[OpLessOrEqual] = orderedBy(func(c int) bool { return c <= 0 })
	e.comparators[OpGreater] = orderedBy(func(c int) bool { return c > 0 })
	e.comparators[OpGreaterOrEqual] = orderedBy(func(c int) bool { return c >= 0 })
	e.comparators[OpContains] = compareContains
}

// Register adds a custom comparator for op.
func (e *DefaultEngine) Register(op string, c Comparator) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.comparators[op]; exists {
		return fmt.Errorf("operator already registered: %s", op)
	}
	e.comparators[op] = c
	return nil
}

// Compare evaluates lhs op rhs. An unknown operator is an error.
func (e *DefaultEngine) Compare(op string, lhs, rhs any) (bool, error) {
	e.mu.RLock()
	c, exists := e.comparators[op]
	e.mu.RUnlock()

	if !exists {
		return false, fmt.Errorf("unknown operator: %s", op)
	}
	return c(lhs, rhs)
}

// Operators returns the registered operators, sorted.
func (e *DefaultEngine) Operators() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ops := make([]string, 0, len(e.comparators))
	for op := range e.comparators {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}
