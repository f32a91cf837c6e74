package execution

import (
	"strings"

	"github.com/osprey-db/osprey/catalog"
)

// aggregateEntry is one group's accumulated state.
type aggregateEntry struct {
	groupBys   []catalog.Value
	aggregates []catalog.Value
	counts     []int64
}

// AggregationExecutor drains its child into a hash aggregation table
// on the first Next, then emits one row per group, filtered by the
// optional HAVING clause. Emission order follows the hash table's
// iteration order and is unspecified to the caller.
type AggregationExecutor struct {
	ctx    *ExecutorContext
	plan   *AggregationPlan
	child  Executor
	schema *catalog.Schema

	drained bool
	output  []*catalog.Tuple
}

func NewAggregationExecutor(ctx *ExecutorContext, plan *AggregationPlan, child Executor, childSchema *catalog.Schema) *AggregationExecutor {
	return &AggregationExecutor{ctx: ctx, plan: plan, child: child, schema: childSchema}
}

func (e *AggregationExecutor) Init() error {
	e.drained = false
	e.output = nil
	return e.child.Init()
}

func (e *AggregationExecutor) Next(tuple *catalog.Tuple, rid *catalog.RID) (bool, error) {
	if !e.drained {
		if err := e.drain(); err != nil {
			return false, err
		}
		e.drained = true
	}

	if len(e.output) == 0 {
		return false, nil
	}

	*tuple = *e.output[0]
	e.output = e.output[1:]
	return true, nil
}

func (e *AggregationExecutor) drain() error {
	table := map[string]*aggregateEntry{}

	var next catalog.Tuple
	var nextRid catalog.RID
	for {
		ok, err := e.child.Next(&next, &nextRid)
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		groupBys := make([]catalog.Value, len(e.plan.GroupBys))
		for i, expr := range e.plan.GroupBys {
			groupBys[i] = expr.Evaluate(&next, e.schema)
		}

		inputs := make([]catalog.Value, len(e.plan.Aggregates))
		for i, expr := range e.plan.Aggregates {
			inputs[i] = expr.Evaluate(&next, e.schema)
		}

		e.combine(table, groupBys, inputs)
	}

	for _, entry := range table {
		if e.plan.Having != nil && !e.plan.Having.EvaluateAggregate(entry.groupBys, entry.aggregates).AsBool() {
			continue
		}

		values := make([]catalog.Value, len(e.plan.OutputExprs))
		for i, expr := range e.plan.OutputExprs {
			values[i] = expr.EvaluateAggregate(entry.groupBys, entry.aggregates)
		}
		e.output = append(e.output, catalog.NewTuple(values))
	}

	return nil
}

func (e *AggregationExecutor) combine(table map[string]*aggregateEntry, groupBys, inputs []catalog.Value) {
	key := groupKey(groupBys)

	entry, ok := table[key]
	if !ok {
		entry = &aggregateEntry{
			groupBys:   groupBys,
			aggregates: make([]catalog.Value, len(e.plan.AggTypes)),
			counts:     make([]int64, len(e.plan.AggTypes)),
		}
		for i, aggType := range e.plan.AggTypes {
			if aggType == CountAggregate || aggType == SumAggregate {
				entry.aggregates[i] = catalog.NewIntValue(0)
			}
		}
		table[key] = entry
	}

	for i, aggType := range e.plan.AggTypes {
		in := inputs[i]
		switch aggType {
		case CountAggregate:
			entry.aggregates[i] = catalog.NewIntValue(entry.aggregates[i].AsInt() + 1)
		case SumAggregate:
			entry.aggregates[i] = catalog.NewIntValue(entry.aggregates[i].AsInt() + in.AsInt())
		case MinAggregate:
			if entry.counts[i] == 0 || in.CompareTo(entry.aggregates[i]) < 0 {
				entry.aggregates[i] = in
			}
		case MaxAggregate:
			if entry.counts[i] == 0 || in.CompareTo(entry.aggregates[i]) > 0 {
				entry.aggregates[i] = in
			}
		}
		entry.counts[i]++
	}
}

func groupKey(groupBys []catalog.Value) string {
	parts := make([]string, len(groupBys))
	for i, v := range groupBys {
		parts[i] = v.String()
	}
	return strings.Join(parts, "\x1f")
}
