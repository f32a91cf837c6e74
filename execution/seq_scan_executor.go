package execution

import (
	"github.com/osprey-db/osprey/catalog"
)

// SeqScanExecutor walks the table heap, filters, and projects.
type SeqScanExecutor struct {
	ctx   *ExecutorContext
	plan  *SeqScanPlan
	table *catalog.TableInfo
	iter  *catalog.TableIterator
}

func NewSeqScanExecutor(ctx *ExecutorContext, plan *SeqScanPlan) *SeqScanExecutor {
	return &SeqScanExecutor{ctx: ctx, plan: plan}
}

func (e *SeqScanExecutor) Init() error {
	table, err := e.ctx.Catalog.GetTable(e.plan.TableOid)
	if err != nil {
		return err
	}

	e.table = table
	e.iter = table.Heap.Iterator()
	return nil
}

func (e *SeqScanExecutor) Next(tuple *catalog.Tuple, rid *catalog.RID) (bool, error) {
	for {
		next, nextRid, ok, err := e.iter.Next()
		if err != nil || !ok {
			return false, err
		}

		if e.plan.Predicate != nil && !e.plan.Predicate.Evaluate(next, e.table.Schema).AsBool() {
			continue
		}

		*tuple = *projectTuple(e.plan.OutputExprs, next, e.table.Schema)
		*rid = nextRid
		return true, nil
	}
}
