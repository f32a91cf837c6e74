package execution

import (
	"github.com/osprey-db/osprey/catalog"
	"github.com/osprey-db/osprey/util"
)

// DeleteExecutor tombstones each child row in the heap and removes its
// derived keys from every index. Emits the deleted rows.
type DeleteExecutor struct {
	ctx     *ExecutorContext
	plan    *DeletePlan
	child   Executor
	table   *catalog.TableInfo
	indexes []*catalog.IndexInfo
}

func NewDeleteExecutor(ctx *ExecutorContext, plan *DeletePlan, child Executor) *DeleteExecutor {
	return &DeleteExecutor{ctx: ctx, plan: plan, child: child}
}

func (e *DeleteExecutor) Init() error {
	table, err := e.ctx.Catalog.GetTable(e.plan.TableOid)
	if err != nil {
		return err
	}

	e.table = table
	e.indexes = e.ctx.Catalog.GetTableIndexes(table.Name)
	return e.child.Init()
}

func (e *DeleteExecutor) Next(tuple *catalog.Tuple, rid *catalog.RID) (bool, error) {
	ok, err := e.child.Next(tuple, rid)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	deleted, err := e.table.Heap.MarkDelete(*rid)
	if err != nil {
		return false, err
	}
	if !deleted {
		return false, util.NewNotFoundError("tuple to delete")
	}

	for _, info := range e.indexes {
		key, err := tuple.KeyFromTuple(info.KeyAttr)
		if err != nil {
			return false, err
		}
		if _, err := info.Tree.Remove(key, e.ctx.Txn); err != nil {
			return false, err
		}
	}

	return true, nil
}
