package execution

import (
	"github.com/dgraph-io/ristretto/v2"

	"github.com/osprey-db/osprey/catalog"
	"github.com/osprey-db/osprey/util"
)

// NestedIndexJoinExecutor drives the outer child and probes the inner
// table's unique index once per outer row. Inner rows are memoized in
// a ristretto cache keyed by the join key, so repeated outer keys skip
// the tree descent and the heap fetch.
type NestedIndexJoinExecutor struct {
	ctx   *ExecutorContext
	plan  *NestedIndexJoinPlan
	child Executor

	innerTable *catalog.TableInfo
	innerIndex *catalog.IndexInfo
	probeCache *ristretto.Cache[int64, *catalog.Tuple]
}

func NewNestedIndexJoinExecutor(ctx *ExecutorContext, plan *NestedIndexJoinPlan, child Executor) *NestedIndexJoinExecutor {
	return &NestedIndexJoinExecutor{ctx: ctx, plan: plan, child: child}
}

func (e *NestedIndexJoinExecutor) Init() error {
	table, err := e.ctx.Catalog.GetTable(e.plan.InnerTableOid)
	if err != nil {
		return err
	}

	info, err := e.ctx.Catalog.GetIndexByName(e.plan.IndexName)
	if err != nil {
		return err
	}
	if info.TableName != table.Name {
		return util.NewTypeMismatchError("index does not belong to the inner table")
	}

	cache, err := ristretto.NewCache(&ristretto.Config[int64, *catalog.Tuple]{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return err
	}

	e.innerTable = table
	e.innerIndex = info
	e.probeCache = cache
	return e.child.Init()
}

func (e *NestedIndexJoinExecutor) Next(tuple *catalog.Tuple, rid *catalog.RID) (bool, error) {
	var outer catalog.Tuple
	var outerRid catalog.RID

	for {
		ok, err := e.child.Next(&outer, &outerRid)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}

		keyValue := outer.Value(e.plan.OuterKeyIdx)
		if keyValue.Type != catalog.IntegerType {
			return false, util.NewTypeMismatchError("join key column is not an integer")
		}

		inner, found, err := e.probeInner(keyValue.AsInt())
		if err != nil {
			return false, err
		}
		if !found {
			continue
		}

		*tuple = *projectJoin(e.plan.OutputExprs, &outer, e.plan.OuterSchema, inner, e.innerTable.Schema)
		*rid = outerRid
		return true, nil
	}
}

func (e *NestedIndexJoinExecutor) probeInner(key int64) (*catalog.Tuple, bool, error) {
	if inner, ok := e.probeCache.Get(key); ok {
		return inner, true, nil
	}

	entryRid, found, err := e.innerIndex.Tree.GetValue(key)
	if err != nil || !found {
		return nil, false, err
	}

	inner, ok, err := e.innerTable.Heap.GetTuple(entryRid)
	if err != nil || !ok {
		return nil, false, err
	}

	e.probeCache.Set(key, inner, 1)
	return inner, true, nil
}
