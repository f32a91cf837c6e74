package execution

import (
	"github.com/osprey-db/osprey/catalog"
)

// LimitExecutor skips offset child rows, then emits up to limit rows.
type LimitExecutor struct {
	plan    *LimitPlan
	child   Executor
	emitted int
	skipped bool
}

func NewLimitExecutor(plan *LimitPlan, child Executor) *LimitExecutor {
	return &LimitExecutor{plan: plan, child: child}
}

func (e *LimitExecutor) Init() error {
	e.emitted = 0
	e.skipped = false
	return e.child.Init()
}

func (e *LimitExecutor) Next(tuple *catalog.Tuple, rid *catalog.RID) (bool, error) {
	if !e.skipped {
		e.skipped = true
		for i := 0; i < e.plan.Offset; i++ {
			ok, err := e.child.Next(tuple, rid)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
	}

	if e.emitted >= e.plan.Limit {
		return false, nil
	}

	ok, err := e.child.Next(tuple, rid)
	if err != nil || !ok {
		return false, err
	}

	e.emitted++
	return true, nil
}
