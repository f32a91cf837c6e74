package execution

import (
	"github.com/osprey-db/osprey/catalog"
	"github.com/osprey-db/osprey/concurrency"
)

// Executor is the iterator-model operator contract: Init prepares the
// operator, Next produces one output row at a time until it returns
// false.
type Executor interface {
	Init() error
	Next(tuple *catalog.Tuple, rid *catalog.RID) (bool, error)
}

// ExecutorContext is the per-query environment handed to every
// operator.
type ExecutorContext struct {
	Catalog *catalog.Catalog
	Txn     *concurrency.Transaction
}

func NewExecutorContext(cat *catalog.Catalog) *ExecutorContext {
	return &ExecutorContext{Catalog: cat, Txn: concurrency.NewTransaction()}
}

// projectTuple evaluates the output expressions over a source tuple.
// With no expressions the source passes through unchanged.
func projectTuple(exprs []Expression, tuple *catalog.Tuple, schema *catalog.Schema) *catalog.Tuple {
	if len(exprs) == 0 {
		return tuple
	}

	values := make([]catalog.Value, len(exprs))
	for i, expr := range exprs {
		values[i] = expr.Evaluate(tuple, schema)
	}
	out := catalog.NewTuple(values)
	out.Rid = tuple.Rid
	return out
}

// projectJoin evaluates the output expressions over a joined pair.
func projectJoin(exprs []Expression, left *catalog.Tuple, leftSchema *catalog.Schema, right *catalog.Tuple, rightSchema *catalog.Schema) *catalog.Tuple {
	values := make([]catalog.Value, len(exprs))
	for i, expr := range exprs {
		values[i] = expr.EvaluateJoin(left, leftSchema, right, rightSchema)
	}
	return catalog.NewTuple(values)
}
