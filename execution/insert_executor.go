package execution

import (
	"github.com/osprey-db/osprey/catalog"
)

// InsertExecutor inserts raw values or its child's rows into the table
// and maintains every index on it. Next performs all the work and
// reports no output rows.
type InsertExecutor struct {
	ctx     *ExecutorContext
	plan    *InsertPlan
	child   Executor
	table   *catalog.TableInfo
	indexes []*catalog.IndexInfo
}

func NewInsertExecutor(ctx *ExecutorContext, plan *InsertPlan, child Executor) *InsertExecutor {
	return &InsertExecutor{ctx: ctx, plan: plan, child: child}
}

func (e *InsertExecutor) Init() error {
	table, err := e.ctx.Catalog.GetTable(e.plan.TableOid)
	if err != nil {
		return err
	}

	e.table = table
	e.indexes = e.ctx.Catalog.GetTableIndexes(table.Name)

	if e.child != nil {
		return e.child.Init()
	}
	return nil
}

func (e *InsertExecutor) Next(tuple *catalog.Tuple, rid *catalog.RID) (bool, error) {
	if e.child == nil {
		for _, values := range e.plan.RawValues {
			if err := e.insertTableAndIndexes(catalog.NewTuple(values)); err != nil {
				return false, err
			}
		}
		return false, nil
	}

	var next catalog.Tuple
	var nextRid catalog.RID
	for {
		ok, err := e.child.Next(&next, &nextRid)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		if err := e.insertTableAndIndexes(&next); err != nil {
			return false, err
		}
	}
}

func (e *InsertExecutor) insertTableAndIndexes(tuple *catalog.Tuple) error {
	rid, err := e.table.Heap.InsertTuple(tuple)
	if err != nil {
		return err
	}

	for _, info := range e.indexes {
		key, err := tuple.KeyFromTuple(info.KeyAttr)
		if err != nil {
			return err
		}
		if _, err := info.Tree.Insert(key, rid, e.ctx.Txn); err != nil {
			return err
		}
	}
	return nil
}
