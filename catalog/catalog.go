package catalog

import (
	"fmt"
	"sync"

	"github.com/osprey-db/osprey/buffer"
	"github.com/osprey-db/osprey/concurrency"
	"github.com/osprey-db/osprey/index"
	"github.com/osprey-db/osprey/util"
)

type TableInfo struct {
	Oid    uint32
	Name   string
	Schema *Schema
	Heap   *TableHeap
}

type IndexInfo struct {
	Oid       uint32
	Name      string
	TableName string
	KeyAttr   int
	Tree      *index.BPlusTree[int64, RID]
}

// Catalog resolves table and index oids and names to their handles.
type Catalog struct {
	bpm *buffer.BufferpoolManager

	mu           sync.Mutex
	nextOid      uint32
	tables       map[uint32]*TableInfo
	tableNames   map[string]uint32
	indexes      map[uint32]*IndexInfo
	indexNames   map[string]uint32
	tableIndexes map[string][]uint32
}

func NewCatalog(bpm *buffer.BufferpoolManager) *Catalog {
	return &Catalog{
		bpm:          bpm,
		tables:       map[uint32]*TableInfo{},
		tableNames:   map[string]uint32{},
		indexes:      map[uint32]*IndexInfo{},
		indexNames:   map[string]uint32{},
		tableIndexes: map[string][]uint32{},
	}
}

func (c *Catalog) CreateTable(name string, schema *Schema) (*TableInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.tableNames[name]; ok {
		return nil, fmt.Errorf("table %q already exists", name)
	}

	heap, err := NewTableHeap(c.bpm)
	if err != nil {
		return nil, err
	}

	c.nextOid++
	info := &TableInfo{Oid: c.nextOid, Name: name, Schema: schema, Heap: heap}
	c.tables[info.Oid] = info
	c.tableNames[name] = info.Oid

	return info, nil
}

func (c *Catalog) GetTable(oid uint32) (*TableInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, ok := c.tables[oid]
	if !ok {
		return nil, util.NewNotFoundError(fmt.Sprintf("table oid %d", oid))
	}
	return info, nil
}

func (c *Catalog) GetTableByName(name string) (*TableInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	oid, ok := c.tableNames[name]
	if !ok {
		return nil, util.NewNotFoundError(fmt.Sprintf("table %q", name))
	}
	return c.tables[oid], nil
}

// CreateIndex builds a unique B+ tree index over one integer column
// and backfills it from the table's current tuples.
func (c *Catalog) CreateIndex(name, tableName string, keyAttr int, leafMaxSize, internalMaxSize int32) (*IndexInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tableOid, ok := c.tableNames[tableName]
	if !ok {
		return nil, util.NewNotFoundError(fmt.Sprintf("table %q", tableName))
	}
	table := c.tables[tableOid]

	if _, ok := c.indexNames[name]; ok {
		return nil, fmt.Errorf("index %q already exists", name)
	}
	if keyAttr < 0 || keyAttr >= table.Schema.ColumnCount() {
		return nil, util.NewTypeMismatchError("index key column out of range")
	}
	if table.Schema.Columns[keyAttr].Type != IntegerType {
		return nil, util.NewTypeMismatchError("index key column is not an integer")
	}

	tree, err := index.NewBPlusTree[int64, RID](name, c.bpm, leafMaxSize, internalMaxSize)
	if err != nil {
		return nil, err
	}

	c.nextOid++
	info := &IndexInfo{
		Oid:       c.nextOid,
		Name:      name,
		TableName: tableName,
		KeyAttr:   keyAttr,
		Tree:      tree,
	}

	if err := c.backfill(info, table); err != nil {
		return nil, err
	}

	c.indexes[info.Oid] = info
	c.indexNames[name] = info.Oid
	c.tableIndexes[tableName] = append(c.tableIndexes[tableName], info.Oid)

	return info, nil
}

func (c *Catalog) backfill(info *IndexInfo, table *TableInfo) error {
	iter := table.Heap.Iterator()
	for {
		tuple, rid, ok, err := iter.Next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}

		key, err := tuple.KeyFromTuple(info.KeyAttr)
		if err != nil {
			return err
		}
		if _, err := info.Tree.Insert(key, rid, concurrency.NewTransaction()); err != nil {
			return err
		}
	}
}

func (c *Catalog) GetIndex(oid uint32) (*IndexInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, ok := c.indexes[oid]
	if !ok {
		return nil, util.NewNotFoundError(fmt.Sprintf("index oid %d", oid))
	}
	return info, nil
}

func (c *Catalog) GetIndexByName(name string) (*IndexInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	oid, ok := c.indexNames[name]
	if !ok {
		return nil, util.NewNotFoundError(fmt.Sprintf("index %q", name))
	}
	return c.indexes[oid], nil
}

// GetTableIndexes lists every index on a table, for maintenance on
// insert, delete and update.
func (c *Catalog) GetTableIndexes(tableName string) []*IndexInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	infos := []*IndexInfo{}
	for _, oid := range c.tableIndexes[tableName] {
		infos = append(infos, c.indexes[oid])
	}
	return infos
}
