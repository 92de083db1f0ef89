package runner

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"digital.vasic.expectations/pkg/condition"
	"digital.vasic.expectations/pkg/logging"
)

// runParallel executes the tests of suite concurrently with at
// most maxConcurrency in flight; a non-positive limit means
// unbounded. Suite conditions are evaluated once and shared by
// every test beneath them. Results are returned in declaration
// order. Tests not started before ctx is cancelled are omitted
// and ctx's error is returned.
func runParallel(
	ctx context.Context,
	r *DefaultRunner,
	suite Suite,
	maxConcurrency int,
) ([]*Result, error) {
	plan, err := buildPlan(suite)
	if err != nil {
		return nil, err
	}
	r.metrics.IncrementRunTotal()
	r.logEvent("run_started",
		logging.StringField("run_id", r.RunID()),
		logging.StringField("suite", suiteID(suite, "")),
		logging.IntField("tests", len(plan)),
		logging.IntField("max_concurrency", maxConcurrency),
	)

	eval := condition.NewEvaluator(r.logger)
	ordered := make([]*Result, len(plan))

	var g errgroup.Group
	if maxConcurrency > 0 {
		g.SetLimit(maxConcurrency)
	}
	for i, p := range plan {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ordered[i] = r.executeTest(ctx, eval, p)
			return nil
		})
	}
	waitErr := g.Wait()

	results := make([]*Result, 0, len(plan))
	for _, res := range ordered {
		if res != nil {
			results = append(results, res)
		}
	}
	if waitErr == nil && len(results) < len(plan) {
		waitErr = ctx.Err()
	}
	if waitErr != nil {
		return results, fmt.Errorf("run cancelled: %w", waitErr)
	}
	return results, nil
}
