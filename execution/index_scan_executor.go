package execution

import (
	"github.com/osprey-db/osprey/catalog"
	"github.com/osprey-db/osprey/index"
)

// IndexScanExecutor emits tuples in key order through the B+ tree's
// ordered cursor, loading each row by its RID.
type IndexScanExecutor struct {
	ctx   *ExecutorContext
	plan  *IndexScanPlan
	table *catalog.TableInfo
	iter  *index.IndexIterator[int64, catalog.RID]
}

func NewIndexScanExecutor(ctx *ExecutorContext, plan *IndexScanPlan) *IndexScanExecutor {
	return &IndexScanExecutor{ctx: ctx, plan: plan}
}

func (e *IndexScanExecutor) Init() error {
	info, err := e.ctx.Catalog.GetIndex(e.plan.IndexOid)
	if err != nil {
		return err
	}

	table, err := e.ctx.Catalog.GetTableByName(info.TableName)
	if err != nil {
		return err
	}

	iter, err := info.Tree.Begin()
	if err != nil {
		return err
	}

	e.table = table
	e.iter = iter
	return nil
}

func (e *IndexScanExecutor) Next(tuple *catalog.Tuple, rid *catalog.RID) (bool, error) {
	for !e.iter.IsEnd() {
		_, entryRid, err := e.iter.Next()
		if err != nil {
			return false, err
		}

		next, ok, err := e.table.Heap.GetTuple(entryRid)
		if err != nil {
			e.iter.Close()
			return false, err
		}
		if !ok {
			continue
		}

		if e.plan.Predicate != nil && !e.plan.Predicate.Evaluate(next, e.table.Schema).AsBool() {
			continue
		}

		*tuple = *projectTuple(e.plan.OutputExprs, next, e.table.Schema)
		*rid = entryRid
		return true, nil
	}

	return false, nil
}
