package execution

import (
	"github.com/osprey-db/osprey/catalog"
)

// joinBlockSize bounds how many tuples of either side are buffered at
// once.
const joinBlockSize = 16

// NestedLoopJoinExecutor is a block nested loop join: it buffers up to
// joinBlockSize left rows, streams the right side in blocks of the
// same size, and emits every cross pair that satisfies the predicate.
// When the right side runs out while the left has more rows, the right
// child is re-initialized for another pass.
type NestedLoopJoinExecutor struct {
	ctx   *ExecutorContext
	plan  *NestedLoopJoinPlan
	left  Executor
	right Executor

	leftBlock  []catalog.Tuple
	rightBlock []catalog.Tuple
	output     []*catalog.Tuple
	leftEnd    bool
	rightEnd   bool
}

func NewNestedLoopJoinExecutor(ctx *ExecutorContext, plan *NestedLoopJoinPlan, left, right Executor) *NestedLoopJoinExecutor {
	return &NestedLoopJoinExecutor{ctx: ctx, plan: plan, left: left, right: right}
}

func (e *NestedLoopJoinExecutor) Init() error {
	if err := e.left.Init(); err != nil {
		return err
	}
	if err := e.right.Init(); err != nil {
		return err
	}

	e.leftBlock = nil
	e.rightBlock = nil
	e.output = nil
	e.leftEnd = false
	e.rightEnd = true
	return nil
}

func (e *NestedLoopJoinExecutor) Next(tuple *catalog.Tuple, rid *catalog.RID) (bool, error) {
	for len(e.output) == 0 && !(e.leftEnd && e.rightEnd) {
		if e.rightEnd {
			e.rightEnd = false
			if err := e.fillBlock(e.left, &e.leftBlock, &e.leftEnd); err != nil {
				return false, err
			}
		}

		rightDone := false
		if err := e.fillBlock(e.right, &e.rightBlock, &rightDone); err != nil {
			return false, err
		}
		if rightDone {
			e.rightEnd = true
			if !e.leftEnd {
				if err := e.right.Init(); err != nil {
					return false, err
				}
			}
		}

		for i := range e.leftBlock {
			for j := range e.rightBlock {
				l, r := &e.leftBlock[i], &e.rightBlock[j]
				if e.plan.Predicate != nil &&
					!e.plan.Predicate.EvaluateJoin(l, e.plan.LeftSchema, r, e.plan.RightSchema).AsBool() {
					continue
				}
				e.output = append(e.output, projectJoin(e.plan.OutputExprs, l, e.plan.LeftSchema, r, e.plan.RightSchema))
			}
		}
	}

	if len(e.output) == 0 {
		return false, nil
	}

	*tuple = *e.output[0]
	e.output = e.output[1:]
	return true, nil
}

// fillBlock replaces the block with up to joinBlockSize rows from the
// child, flagging exhaustion.
func (e *NestedLoopJoinExecutor) fillBlock(child Executor, block *[]catalog.Tuple, exhausted *bool) error {
	*block = (*block)[:0]

	var next catalog.Tuple
	var rid catalog.RID
	for range joinBlockSize {
		ok, err := child.Next(&next, &rid)
		if err != nil {
			return err
		}
		if !ok {
			*exhausted = true
			break
		}
		*block = append(*block, next)
	}
	return nil
}
