package condition

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counting(n *atomic.Int64, result bool) Predicate {
	return func(context.Context) (bool, error) {
		n.Add(1)
		return result, nil
	}
}

func TestTrait_Evaluate(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		trait      Trait
		wantOK     bool
		wantReason string
	}{
		{"enabled if true", EnabledIf(true, "x"), true, ""},
		{"enabled if false", EnabledIf(false, "needs network"), false, "needs network"},
		{"disabled if true", DisabledIf(true, "flaky on CI"), false, "flaky on CI"},
		{"disabled if false", DisabledIf(false, "x"), true, ""},
		{"disabled", Disabled(""), false, "disabled"},
		{"predicate error", EnabledWhen("db", func(context.Context) (bool, error) {
			return false, errors.New("db unreachable")
		}), false, "db unreachable"},
		{"predicate panic", DisabledWhen("", func(context.Context) (bool, error) {
			panic("oops")
		}), false, "condition panicked: oops"},
		{"zero trait", Trait{}, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := tt.trait.Evaluate(ctx)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestTrait_RecordsDeclarationSite(t *testing.T) {
	tr := Disabled("x")
	assert.Contains(t, tr.Location.File, "evaluator_test.go")
}

func TestEvaluator_FirstDisablingTraitWins(t *testing.T) {
	var later atomic.Int64
	n := &Node{ID: "t", Traits: []Trait{
		EnabledIf(true, "a"),
		DisabledIf(true, "second"),
		EnabledWhen("third", counting(&later, false)),
	}}

	d := NewEvaluator(nil).Evaluate(context.Background(), n)

	assert.False(t, d.Enabled)
	assert.Equal(t, "second", d.Reason)
	assert.Equal(t, "t", d.Source)
	assert.Equal(t, int64(0), later.Load())
}

func TestEvaluator_SuiteDisablesSubtreeWithoutEvaluatingIt(t *testing.T) {
	var nested atomic.Int64
	suite := &Node{ID: "suite", Traits: []Trait{Disabled("suite off")}}
	inner := &Node{ID: "suite/inner", Parent: suite}
	tests := []*Node{
		{ID: "suite/a", Parent: suite, Traits: []Trait{EnabledWhen("", counting(&nested, true))}},
		{ID: "suite/inner/b", Parent: inner, Traits: []Trait{EnabledWhen("", counting(&nested, true))}},
	}

	e := NewEvaluator(nil)
	for _, n := range tests {
		d := e.Evaluate(context.Background(), n)
		assert.False(t, d.Enabled)
		assert.Equal(t, "suite off", d.Reason)
		assert.Equal(t, "suite", d.Source)
	}

	assert.Equal(t, int64(0), nested.Load())
	assert.Equal(t, 1, e.Evaluated("suite"))
	assert.Equal(t, 0, e.Evaluated("suite/inner"))
	assert.Equal(t, 0, e.Evaluated("suite/a"))
}

func TestEvaluator_EvaluatesOncePerRun(t *testing.T) {
	var suiteCalls, testCalls atomic.Int64
	suite := &Node{ID: "s", Traits: []Trait{EnabledWhen("", counting(&suiteCalls, true))}}
	nodes := make([]*Node, 10)
	for i := range nodes {
		nodes[i] = &Node{
			ID:     "s/t" + string(rune('0'+i)),
			Parent: suite,
			Traits: []Trait{EnabledWhen("", counting(&testCalls, true))},
		}
	}

	e := NewEvaluator(nil)
	var wg sync.WaitGroup
	for _, n := range nodes {
		for j := 0; j < 3; j++ {
			wg.Add(1)
			go func(n *Node) {
				defer wg.Done()
				assert.True(t, e.Evaluate(context.Background(), n).Enabled)
			}(n)
		}
	}
	wg.Wait()

	assert.Equal(t, int64(1), suiteCalls.Load())
	assert.Equal(t, int64(len(nodes)), testCalls.Load())
}

func TestEvaluator_PredicateSeesContext(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "ready")
	n := &Node{ID: "t", Traits: []Trait{
		EnabledWhen("not ready", func(ctx context.Context) (bool, error) {
			return ctx.Value(key{}) == "ready", nil
		}),
	}}

	require.True(t, NewEvaluator(nil).Evaluate(ctx, n).Enabled)
}

func TestEvaluator_NilNode(t *testing.T) {
	assert.True(t, NewEvaluator(nil).Evaluate(context.Background(), nil).Enabled)
}
