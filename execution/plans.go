package execution

import (
	"github.com/osprey-db/osprey/catalog"
)

// Plan nodes describe what each operator should do; executors carry
// them out. Output expressions project the operator's result rows; an
// empty list passes rows through unchanged.

type SeqScanPlan struct {
	TableOid    uint32
	Predicate   Expression
	OutputExprs []Expression
}

type IndexScanPlan struct {
	IndexOid    uint32
	Predicate   Expression
	OutputExprs []Expression
}

type InsertPlan struct {
	TableOid  uint32
	RawValues [][]catalog.Value
}

type DeletePlan struct {
	TableOid uint32
}

type UpdateType int

const (
	UpdateSet UpdateType = iota
	UpdateAdd
)

type UpdateInfo struct {
	Type  UpdateType
	Value catalog.Value
}

type UpdatePlan struct {
	TableOid    uint32
	UpdateAttrs map[int]UpdateInfo
}

type LimitPlan struct {
	Limit  int
	Offset int
}

type AggregationType int

const (
	CountAggregate AggregationType = iota
	SumAggregate
	MinAggregate
	MaxAggregate
)

type AggregationPlan struct {
	GroupBys    []Expression
	Aggregates  []Expression
	AggTypes    []AggregationType
	Having      Expression
	OutputExprs []Expression
}

type NestedLoopJoinPlan struct {
	Predicate   Expression
	OutputExprs []Expression
	LeftSchema  *catalog.Schema
	RightSchema *catalog.Schema
}

type NestedIndexJoinPlan struct {
	OuterKeyIdx   int
	InnerTableOid uint32
	IndexName     string
	OutputExprs   []Expression
	OuterSchema   *catalog.Schema
}
