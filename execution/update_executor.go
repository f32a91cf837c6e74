package execution

import (
	"github.com/osprey-db/osprey/catalog"
)

// UpdateExecutor rewrites each child row per the plan's assignments.
// An in-place update is attempted first; when the row no longer fits
// its page it is tombstoned and re-inserted, and the indexes follow.
type UpdateExecutor struct {
	ctx     *ExecutorContext
	plan    *UpdatePlan
	child   Executor
	table   *catalog.TableInfo
	indexes []*catalog.IndexInfo
}

func NewUpdateExecutor(ctx *ExecutorContext, plan *UpdatePlan, child Executor) *UpdateExecutor {
	return &UpdateExecutor{ctx: ctx, plan: plan, child: child}
}

func (e *UpdateExecutor) Init() error {
	table, err := e.ctx.Catalog.GetTable(e.plan.TableOid)
	if err != nil {
		return err
	}

	e.table = table
	e.indexes = e.ctx.Catalog.GetTableIndexes(table.Name)
	return e.child.Init()
}

func (e *UpdateExecutor) Next(tuple *catalog.Tuple, rid *catalog.RID) (bool, error) {
	ok, err := e.child.Next(tuple, rid)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	newTuple := e.generateUpdatedTuple(tuple)

	updated, err := e.table.Heap.UpdateTuple(newTuple, *rid)
	if err != nil {
		return false, err
	}

	newRid := *rid
	if !updated {
		// the grown row needs a new slot
		if _, err := e.table.Heap.MarkDelete(*rid); err != nil {
			return false, err
		}
		newRid, err = e.table.Heap.InsertTuple(newTuple)
		if err != nil {
			return false, err
		}
	}

	if err := e.updateIndexes(tuple, newTuple, *rid, newRid); err != nil {
		return false, err
	}

	*tuple = *newTuple
	*rid = newRid
	return true, nil
}

func (e *UpdateExecutor) generateUpdatedTuple(tuple *catalog.Tuple) *catalog.Tuple {
	values := make([]catalog.Value, len(tuple.Values))
	copy(values, tuple.Values)

	for col, update := range e.plan.UpdateAttrs {
		switch update.Type {
		case UpdateAdd:
			values[col] = catalog.NewIntValue(values[col].AsInt() + update.Value.AsInt())
		default:
			values[col] = update.Value
		}
	}

	return catalog.NewTuple(values)
}

func (e *UpdateExecutor) updateIndexes(oldTuple, newTuple *catalog.Tuple, oldRid, newRid catalog.RID) error {
	for _, info := range e.indexes {
		oldKey, err := oldTuple.KeyFromTuple(info.KeyAttr)
		if err != nil {
			return err
		}
		newKey, err := newTuple.KeyFromTuple(info.KeyAttr)
		if err != nil {
			return err
		}

		if oldKey == newKey && oldRid == newRid {
			continue
		}

		if _, err := info.Tree.Remove(oldKey, e.ctx.Txn); err != nil {
			return err
		}
		if _, err := info.Tree.Insert(newKey, newRid, e.ctx.Txn); err != nil {
			return err
		}
	}
	return nil
}
