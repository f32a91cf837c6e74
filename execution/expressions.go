package execution

import (
	"github.com/osprey-db/osprey/catalog"
)

// Expression is evaluated against a tuple, a joined pair, or an
// aggregation row, depending on where the plan places it.
type Expression interface {
	Evaluate(tuple *catalog.Tuple, schema *catalog.Schema) catalog.Value
	EvaluateJoin(left *catalog.Tuple, leftSchema *catalog.Schema, right *catalog.Tuple, rightSchema *catalog.Schema) catalog.Value
	EvaluateAggregate(groupBys, aggregates []catalog.Value) catalog.Value
}

// ColumnValueExpression reads one column. TupleIdx picks the side of a
// join: 0 for the left/outer tuple, 1 for the right/inner one.
type ColumnValueExpression struct {
	TupleIdx int
	ColIdx   int
}

func NewColumnValue(tupleIdx, colIdx int) *ColumnValueExpression {
	return &ColumnValueExpression{TupleIdx: tupleIdx, ColIdx: colIdx}
}

func (e *ColumnValueExpression) Evaluate(tuple *catalog.Tuple, schema *catalog.Schema) catalog.Value {
	return tuple.Value(e.ColIdx)
}

func (e *ColumnValueExpression) EvaluateJoin(left *catalog.Tuple, leftSchema *catalog.Schema, right *catalog.Tuple, rightSchema *catalog.Schema) catalog.Value {
	if e.TupleIdx == 0 {
		return left.Value(e.ColIdx)
	}
	return right.Value(e.ColIdx)
}

func (e *ColumnValueExpression) EvaluateAggregate(groupBys, aggregates []catalog.Value) catalog.Value {
	return groupBys[e.ColIdx]
}

// ConstantExpression wraps a literal.
type ConstantExpression struct {
	Val catalog.Value
}

func NewConstant(val catalog.Value) *ConstantExpression {
	return &ConstantExpression{Val: val}
}

func (e *ConstantExpression) Evaluate(tuple *catalog.Tuple, schema *catalog.Schema) catalog.Value {
	return e.Val
}

func (e *ConstantExpression) EvaluateJoin(left *catalog.Tuple, leftSchema *catalog.Schema, right *catalog.Tuple, rightSchema *catalog.Schema) catalog.Value {
	return e.Val
}

func (e *ConstantExpression) EvaluateAggregate(groupBys, aggregates []catalog.Value) catalog.Value {
	return e.Val
}

type ComparisonType int

const (
	Equal ComparisonType = iota
	NotEqual
	LessThan
	LessThanOrEqual
	GreaterThan
	GreaterThanOrEqual
)

// ComparisonExpression compares its children and yields a boolean
// value.
type ComparisonExpression struct {
	Op    ComparisonType
	Left  Expression
	Right Expression
}

func NewComparison(op ComparisonType, left, right Expression) *ComparisonExpression {
	return &ComparisonExpression{Op: op, Left: left, Right: right}
}

func (e *ComparisonExpression) compare(l, r catalog.Value) catalog.Value {
	c := l.CompareTo(r)
	switch e.Op {
	case Equal:
		return catalog.NewBoolValue(c == 0)
	case NotEqual:
		return catalog.NewBoolValue(c != 0)
	case LessThan:
		return catalog.NewBoolValue(c < 0)
	case LessThanOrEqual:
		return catalog.NewBoolValue(c <= 0)
	case GreaterThan:
		return catalog.NewBoolValue(c > 0)
	default:
		return catalog.NewBoolValue(c >= 0)
	}
}

func (e *ComparisonExpression) Evaluate(tuple *catalog.Tuple, schema *catalog.Schema) catalog.Value {
	return e.compare(e.Left.Evaluate(tuple, schema), e.Right.Evaluate(tuple, schema))
}

func (e *ComparisonExpression) EvaluateJoin(left *catalog.Tuple, leftSchema *catalog.Schema, right *catalog.Tuple, rightSchema *catalog.Schema) catalog.Value {
	return e.compare(
		e.Left.EvaluateJoin(left, leftSchema, right, rightSchema),
		e.Right.EvaluateJoin(left, leftSchema, right, rightSchema),
	)
}

func (e *ComparisonExpression) EvaluateAggregate(groupBys, aggregates []catalog.Value) catalog.Value {
	return e.compare(
		e.Left.EvaluateAggregate(groupBys, aggregates),
		e.Right.EvaluateAggregate(groupBys, aggregates),
	)
}

// AggregateValueExpression reads an aggregation row: either a group-by
// term or an accumulated aggregate, by position.
type AggregateValueExpression struct {
	IsGroupBy bool
	Idx       int
}

func NewAggregateValue(isGroupBy bool, idx int) *AggregateValueExpression {
	return &AggregateValueExpression{IsGroupBy: isGroupBy, Idx: idx}
}

func (e *AggregateValueExpression) Evaluate(tuple *catalog.Tuple, schema *catalog.Schema) catalog.Value {
	return catalog.Value{}
}

func (e *AggregateValueExpression) EvaluateJoin(left *catalog.Tuple, leftSchema *catalog.Schema, right *catalog.Tuple, rightSchema *catalog.Schema) catalog.Value {
	return catalog.Value{}
}

func (e *AggregateValueExpression) EvaluateAggregate(groupBys, aggregates []catalog.Value) catalog.Value {
	if e.IsGroupBy {
		return groupBys[e.Idx]
	}
	return aggregates[e.Idx]
}
