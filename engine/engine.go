package engine

import (
	"fmt"
	"os"

	"github.com/osprey-db/osprey/buffer"
	"github.com/osprey-db/osprey/catalog"
	"github.com/osprey-db/osprey/execution"
	"github.com/osprey-db/osprey/storage/disk"
)

const DEFAULT_POOL_SIZE = 256

// Engine assembles the storage stack over one db file: disk manager,
// scheduler, replacer, buffer pool and catalog, with the executor
// pipeline on top.
type Engine struct {
	dbFile      *os.File
	diskManager *disk.Manager
	bpm         *buffer.BufferpoolManager
	catalog     *catalog.Catalog
}

func Open(dbPath string, poolSize int) (*Engine, error) {
	if poolSize <= 0 {
		poolSize = DEFAULT_POOL_SIZE
	}

	file, err := os.OpenFile(dbPath, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("error opening db file: %v", err)
	}

	diskManager := disk.NewManager(file)
	scheduler := disk.NewScheduler(diskManager)
	replacer := buffer.NewLRUReplacer(poolSize)
	bpm := buffer.NewBufferpoolManager(poolSize, replacer, scheduler)

	return &Engine{
		dbFile:      file,
		diskManager: diskManager,
		bpm:         bpm,
		catalog:     catalog.NewCatalog(bpm),
	}, nil
}

func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

func (e *Engine) Bpm() *buffer.BufferpoolManager {
	return e.bpm
}

// CreateTable registers a table; indexOn optionally names an integer
// column to build a unique index over.
func (e *Engine) CreateTable(name string, schema *catalog.Schema, indexOn string) (*catalog.TableInfo, error) {
	table, err := e.catalog.CreateTable(name, schema)
	if err != nil {
		return nil, err
	}

	if indexOn != "" {
		keyAttr := schema.ColumnIndex(indexOn)
		if keyAttr < 0 {
			return nil, fmt.Errorf("index column %q does not exist", indexOn)
		}
		if _, err := e.catalog.CreateIndex(name+"_"+indexOn+"_idx", name, keyAttr, 0, 0); err != nil {
			return nil, err
		}
	}

	return table, nil
}

// InsertRow runs an insert plan over raw values, maintaining every
// index of the table.
func (e *Engine) InsertRow(tableName string, values []catalog.Value) error {
	table, err := e.catalog.GetTableByName(tableName)
	if err != nil {
		return err
	}
	if len(values) != table.Schema.ColumnCount() {
		return fmt.Errorf("expected %d values, got %d", table.Schema.ColumnCount(), len(values))
	}

	ctx := execution.NewExecutorContext(e.catalog)
	plan := &execution.InsertPlan{TableOid: table.Oid, RawValues: [][]catalog.Value{values}}
	exec := execution.NewInsertExecutor(ctx, plan, nil)

	if err := exec.Init(); err != nil {
		return err
	}
	return drain(exec, nil)
}

// ScanTable returns every live row in physical order.
func (e *Engine) ScanTable(tableName string) ([]*catalog.Tuple, error) {
	table, err := e.catalog.GetTableByName(tableName)
	if err != nil {
		return nil, err
	}

	ctx := execution.NewExecutorContext(e.catalog)
	exec := execution.NewSeqScanExecutor(ctx, &execution.SeqScanPlan{TableOid: table.Oid})
	if err := exec.Init(); err != nil {
		return nil, err
	}

	rows := []*catalog.Tuple{}
	if err := drain(exec, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// GetByKey probes the table's first index for one row.
func (e *Engine) GetByKey(tableName string, key int64) (*catalog.Tuple, bool, error) {
	table, err := e.catalog.GetTableByName(tableName)
	if err != nil {
		return nil, false, err
	}

	indexes := e.catalog.GetTableIndexes(tableName)
	if len(indexes) == 0 {
		return nil, false, fmt.Errorf("table %q has no index", tableName)
	}

	rid, found, err := indexes[0].Tree.GetValue(key)
	if err != nil || !found {
		return nil, false, err
	}
	return table.Heap.GetTuple(rid)
}

// DeleteByKey removes the rows whose indexed column equals key and
// returns how many were deleted.
func (e *Engine) DeleteByKey(tableName string, key int64) (int, error) {
	table, err := e.catalog.GetTableByName(tableName)
	if err != nil {
		return 0, err
	}

	indexes := e.catalog.GetTableIndexes(tableName)
	if len(indexes) == 0 {
		return 0, fmt.Errorf("table %q has no index", tableName)
	}

	ctx := execution.NewExecutorContext(e.catalog)
	predicate := execution.NewComparison(execution.Equal,
		execution.NewColumnValue(0, indexes[0].KeyAttr),
		execution.NewConstant(catalog.NewIntValue(key)))
	child := execution.NewSeqScanExecutor(ctx, &execution.SeqScanPlan{TableOid: table.Oid, Predicate: predicate})
	exec := execution.NewDeleteExecutor(ctx, &execution.DeletePlan{TableOid: table.Oid}, child)

	if err := exec.Init(); err != nil {
		return 0, err
	}

	rows := []*catalog.Tuple{}
	if err := drain(exec, &rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// Close flushes every dirty page and releases the db file.
func (e *Engine) Close() error {
	e.bpm.FlushAll()
	return e.diskManager.Close()
}

func drain(exec execution.Executor, out *[]*catalog.Tuple) error {
	var tuple catalog.Tuple
	var rid catalog.RID
	for {
		ok, err := exec.Next(&tuple, &rid)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if out != nil {
			row := tuple
			*out = append(*out, &row)
		}
	}
}
