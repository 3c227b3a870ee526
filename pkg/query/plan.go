package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/cuemby/protobase/pkg/metrics"
)

// Plan is a node in a query execution tree. Grounded on common.py's
// QueryPlan (execute/optimize), generalized from Python's generator
// protocol to a materialized slice since every backing collection in
// this module is already an immutable, in-memory persistent structure.
type Plan interface {
	// Execute runs the plan and returns its result rows.
	Execute(ctx context.Context) ([]Record, error)

	// Optimize returns a (possibly rewritten, possibly identical) plan,
	// given the full plan tree it sits within for context.
	Optimize(full Plan) Plan
}

// FilterAcceptor is implemented by a plan that can absorb a filter into
// itself instead of leaving it to a wrapping WherePlan to evaluate by
// brute-force scan. Grounded on spec.md §4.8 optimizer step 1.
type FilterAcceptor interface {
	AcceptFilter(filter Expression) (Plan, bool)
}

// FastCounter is implemented by a plan that can report its result count
// without materializing every row. Grounded on spec.md §4.8's count
// optimization ("if the underlying optimized plan exposes a fast
// count()").
type FastCounter interface {
	FastCount() (int, bool)
}

// Optimize runs full's own Optimize, the conventional entry point for a
// caller that built a plan tree and now wants it optimized before
// execution.
func Optimize(full Plan) Plan {
	return full.Optimize(full)
}

// Execute runs plan, the conventional entry point for a caller that has
// already optimized its tree and now wants it run. Latency is recorded
// in QueryPlanExecDuration labeled by plan's concrete type, so a scan
// buried under a slow WherePlan shows up distinctly from a cheap
// IndexedSearchPlan.
func Execute(ctx context.Context, plan Plan) ([]Record, error) {
	timer := metrics.NewTimer()
	rows, err := plan.Execute(ctx)
	timer.ObserveDurationVec(metrics.QueryPlanExecDuration, planKind(plan))
	return rows, err
}

// planKind strips the package qualifier and pointer marker fmt's %T
// verb produces, e.g. "*query.SelectPlan" becomes "SelectPlan".
func planKind(plan Plan) string {
	name := fmt.Sprintf("%T", plan)
	if idx := strings.LastIndexByte(name, '.'); idx >= 0 {
		return name[idx+1:]
	}
	return name
}
