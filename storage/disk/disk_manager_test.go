package disk

import (
	"fmt"
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiskManager(t *testing.T) {
	t.Run("pages get distinct slots", func(t *testing.T) {
		dm := NewManager(CreateDbFile(t))

		offset1, err := dm.offsetFor(1)
		assert.NoError(t, err)
		offset2, err := dm.offsetFor(2)
		assert.NoError(t, err)

		assert.Equal(t, int64(0), offset1)
		assert.Equal(t, int64(4096), offset2)
	})

	t.Run("a page keeps its slot across calls", func(t *testing.T) {
		dm := NewManager(CreateDbFile(t))

		offset1, err := dm.offsetFor(7)
		assert.NoError(t, err)
		offset2, err := dm.offsetFor(7)
		assert.NoError(t, err)

		assert.Equal(t, offset1, offset2)
	})

	t.Run("deallocated slots are reused", func(t *testing.T) {
		dm := NewManager(CreateDbFile(t))

		offset, err := dm.offsetFor(1)
		assert.NoError(t, err)

		dm.DeallocatePage(1)
		assert.Equal(t, []int64{offset}, dm.freeSlots)

		reused, err := dm.offsetFor(2)
		assert.NoError(t, err)
		assert.Equal(t, offset, reused)
		assert.Empty(t, dm.freeSlots)
	})

	t.Run("db file is resized when full", func(t *testing.T) {
		dbFile := CreateDbFile(t)

		dm := NewManager(dbFile)
		dm.pageCapacity = 1

		_, err := dm.offsetFor(1)
		assert.NoError(t, err)
		_, err = dm.offsetFor(2)
		assert.NoError(t, err)

		assert.Equal(t, int64(2), dm.pageCapacity)

		fileInfo, err := os.Stat(dbFile.Name())
		assert.NoError(t, err)
		assert.Equal(t, int64(PAGE_SIZE)*2, fileInfo.Size())
	})

	t.Run("written pages read back", func(t *testing.T) {
		dm := NewManager(CreateDbFile(t))

		buf := make([]byte, PAGE_SIZE)
		copy(buf, []byte("hello world"))

		assert.NoError(t, dm.WritePage(1, buf))

		res, err := dm.ReadPage(1)
		assert.NoError(t, err)
		assert.Equal(t, buf, res)
	})
}

func CreateDbFile(t *testing.T) *os.File {
	t.Helper()
	dbFile := path.Join(t.TempDir(), "test.db")

	file, err := os.OpenFile(dbFile, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		panic(fmt.Sprintf("failed creating db file\n%v", err))
	}

	t.Cleanup(func() {
		_ = os.Remove(file.Name())
	})

	_ = os.Truncate(file.Name(), PAGE_SIZE)
	return file
}
