package catalog

import (
	"fmt"
	"os"
	"path"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osprey-db/osprey/buffer"
	"github.com/osprey-db/osprey/storage/disk"
	"github.com/osprey-db/osprey/util"
)

func TestTableHeap(t *testing.T) {
	t.Run("inserted tuples read back by rid", func(t *testing.T) {
		heap, err := NewTableHeap(createBpm(t, 64))
		assert.NoError(t, err)

		rid, err := heap.InsertTuple(NewTuple([]Value{NewIntValue(1), NewVarcharValue("one")}))
		assert.NoError(t, err)

		tuple, ok, err := heap.GetTuple(rid)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, int64(1), tuple.Value(0).AsInt())
		assert.Equal(t, "one", tuple.Value(1).AsString())
	})

	t.Run("oversized tuples are rejected", func(t *testing.T) {
		heap, err := NewTableHeap(createBpm(t, 64))
		assert.NoError(t, err)

		huge := strings.Repeat("x", disk.PAGE_SIZE)
		_, err = heap.InsertTuple(NewTuple([]Value{NewVarcharValue(huge)}))
		assert.Error(t, err)

		var tooLarge *util.TupleTooLargeError
		assert.ErrorAs(t, err, &tooLarge)
	})

	t.Run("inserts spill onto chained pages", func(t *testing.T) {
		heap, err := NewTableHeap(createBpm(t, 64))
		assert.NoError(t, err)

		filler := strings.Repeat("y", 512)
		rids := []RID{}
		for i := range 20 {
			rid, err := heap.InsertTuple(NewTuple([]Value{NewIntValue(int64(i)), NewVarcharValue(filler)}))
			assert.NoError(t, err)
			rids = append(rids, rid)
		}

		pages := map[int64]bool{}
		for _, rid := range rids {
			pages[rid.PageId] = true
		}
		assert.Greater(t, len(pages), 1)

		for i, rid := range rids {
			tuple, ok, err := heap.GetTuple(rid)
			assert.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, int64(i), tuple.Value(0).AsInt())
		}
	})

	t.Run("mark delete tombstones a tuple", func(t *testing.T) {
		heap, err := NewTableHeap(createBpm(t, 64))
		assert.NoError(t, err)

		rid, err := heap.InsertTuple(NewTuple([]Value{NewIntValue(9)}))
		assert.NoError(t, err)

		deleted, err := heap.MarkDelete(rid)
		assert.NoError(t, err)
		assert.True(t, deleted)

		_, ok, err := heap.GetTuple(rid)
		assert.NoError(t, err)
		assert.False(t, ok)

		// a second delete finds nothing
		deleted, err = heap.MarkDelete(rid)
		assert.NoError(t, err)
		assert.False(t, deleted)
	})

	t.Run("update in place keeps the rid", func(t *testing.T) {
		heap, err := NewTableHeap(createBpm(t, 64))
		assert.NoError(t, err)

		rid, err := heap.InsertTuple(NewTuple([]Value{NewIntValue(1), NewVarcharValue("before")}))
		assert.NoError(t, err)

		updated, err := heap.UpdateTuple(NewTuple([]Value{NewIntValue(1), NewVarcharValue("after")}), rid)
		assert.NoError(t, err)
		assert.True(t, updated)

		tuple, ok, err := heap.GetTuple(rid)
		assert.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "after", tuple.Value(1).AsString())
	})

	t.Run("update that overflows the page reports false", func(t *testing.T) {
		heap, err := NewTableHeap(createBpm(t, 64))
		assert.NoError(t, err)

		filler := strings.Repeat("z", 900)
		var rid RID
		for range 4 {
			r, err := heap.InsertTuple(NewTuple([]Value{NewVarcharValue(filler)}))
			assert.NoError(t, err)
			rid = r
		}

		grown := strings.Repeat("z", 2000)
		updated, err := heap.UpdateTuple(NewTuple([]Value{NewVarcharValue(grown)}), rid)
		assert.NoError(t, err)
		assert.False(t, updated)
	})

	t.Run("iterator visits live tuples in physical order", func(t *testing.T) {
		heap, err := NewTableHeap(createBpm(t, 64))
		assert.NoError(t, err)

		rids := []RID{}
		for i := range 10 {
			rid, err := heap.InsertTuple(NewTuple([]Value{NewIntValue(int64(i))}))
			assert.NoError(t, err)
			rids = append(rids, rid)
		}

		_, err = heap.MarkDelete(rids[3])
		assert.NoError(t, err)
		_, err = heap.MarkDelete(rids[7])
		assert.NoError(t, err)

		got := []int64{}
		iter := heap.Iterator()
		for {
			tuple, _, ok, err := iter.Next()
			assert.NoError(t, err)
			if !ok {
				break
			}
			got = append(got, tuple.Value(0).AsInt())
		}
		assert.Equal(t, []int64{0, 1, 2, 4, 5, 6, 8, 9}, got)
	})
}

func TestCatalog(t *testing.T) {
	t.Run("create table and resolve by oid and name", func(t *testing.T) {
		cat := NewCatalog(createBpm(t, 64))

		schema := NewSchema(Column{Name: "id", Type: IntegerType}, Column{Name: "name", Type: VarcharType})
		info, err := cat.CreateTable("users", schema)
		assert.NoError(t, err)

		byOid, err := cat.GetTable(info.Oid)
		assert.NoError(t, err)
		assert.Equal(t, info, byOid)

		byName, err := cat.GetTableByName("users")
		assert.NoError(t, err)
		assert.Equal(t, info, byName)

		_, err = cat.CreateTable("users", schema)
		assert.Error(t, err)
	})

	t.Run("create index backfills existing tuples", func(t *testing.T) {
		cat := NewCatalog(createBpm(t, 64))

		schema := NewSchema(Column{Name: "id", Type: IntegerType})
		table, err := cat.CreateTable("nums", schema)
		assert.NoError(t, err)

		for i := 1; i <= 10; i++ {
			_, err := table.Heap.InsertTuple(NewTuple([]Value{NewIntValue(int64(i))}))
			assert.NoError(t, err)
		}

		info, err := cat.CreateIndex("nums_id_idx", "nums", 0, 4, 4)
		assert.NoError(t, err)

		for i := 1; i <= 10; i++ {
			rid, found, err := info.Tree.GetValue(int64(i))
			assert.NoError(t, err)
			assert.True(t, found)

			tuple, ok, err := table.Heap.GetTuple(rid)
			assert.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, int64(i), tuple.Value(0).AsInt())
		}

		indexes := cat.GetTableIndexes("nums")
		assert.Len(t, indexes, 1)
		assert.Equal(t, info, indexes[0])
	})

	t.Run("index over a varchar column is rejected", func(t *testing.T) {
		cat := NewCatalog(createBpm(t, 64))

		schema := NewSchema(Column{Name: "name", Type: VarcharType})
		_, err := cat.CreateTable("words", schema)
		assert.NoError(t, err)

		_, err = cat.CreateIndex("words_idx", "words", 0, 4, 4)
		assert.Error(t, err)

		var mismatch *util.TypeMismatchError
		assert.ErrorAs(t, err, &mismatch)
	})
}

func createBpm(t *testing.T, size int) *buffer.BufferpoolManager {
	t.Helper()
	dbFile := path.Join(t.TempDir(), "test.db")

	file, err := os.OpenFile(dbFile, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		panic(fmt.Sprintf("failed creating db file\n%v", err))
	}
	t.Cleanup(func() {
		_ = os.Remove(file.Name())
	})
	_ = os.Truncate(file.Name(), disk.PAGE_SIZE)

	diskScheduler := disk.NewScheduler(disk.NewManager(file))
	return buffer.NewBufferpoolManager(size, buffer.NewLRUReplacer(size), diskScheduler)
}
