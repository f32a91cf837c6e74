package buffer

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osprey-db/osprey/storage/disk"
	"github.com/osprey-db/osprey/util"
)

func TestBufferPoolManager(t *testing.T) {
	t.Run("reads a page from disk", func(t *testing.T) {
		file := CreateDbFile(t)

		diskScheduler := disk.NewScheduler(disk.NewManager(file))
		bufferMgr := NewBufferpoolManager(5, NewLRUReplacer(5), diskScheduler)

		data := make([]byte, disk.PAGE_SIZE)
		copy(data, []byte("hello, world!"))
		syncWrite(1, data, diskScheduler)

		pageGuard, err := bufferMgr.ReadPage(1)
		assert.NoError(t, err)
		defer pageGuard.Drop()

		assert.Equal(t, data, pageGuard.GetData())
	})

	t.Run("evicts the least recently used page", func(t *testing.T) {
		file := CreateDbFile(t)

		diskScheduler := disk.NewScheduler(disk.NewManager(file))
		bufferMgr := NewBufferpoolManager(2, NewLRUReplacer(2), diskScheduler)

		content := []string{"1", "2", "3"}
		for pageId, d := range content {
			data := make([]byte, disk.PAGE_SIZE)
			copy(data, []byte(d))
			syncWrite(int64(pageId+1), data, diskScheduler)
		}

		// touch 1 then 2 so page 1 is the LRU frame
		for _, pageId := range []int64{1, 2} {
			pageGuard, err := bufferMgr.ReadPage(pageId)
			assert.NoError(t, err)
			pageGuard.Drop()
		}

		// reading 3 victimizes page 1's frame
		pageGuard, err := bufferMgr.ReadPage(3)
		assert.NoError(t, err)
		pageGuard.Drop()

		_, ok := bufferMgr.pageTable[1]
		assert.False(t, ok)
		_, ok = bufferMgr.pageTable[3]
		assert.True(t, ok)
	})

	t.Run("dirty evicted pages are flushed to disk", func(t *testing.T) {
		file := CreateDbFile(t)

		diskScheduler := disk.NewScheduler(disk.NewManager(file))
		bufferMgr := NewBufferpoolManager(2, NewLRUReplacer(2), diskScheduler)

		content := []string{"1", "2", "3"}
		for pageId, d := range content {
			pageGuard, err := bufferMgr.WritePage(int64(pageId + 1))
			assert.NoError(t, err)

			data := make([]byte, disk.PAGE_SIZE)
			copy(data, []byte(d))
			copy(*pageGuard.GetDataMut(), data)
			pageGuard.Drop()
		}

		// page 1 was evicted to make room for page 3
		res := syncRead(1, diskScheduler)
		assert.Equal(t, content[0], string(bytes.Trim(res, "\x00")))
	})

	t.Run("can read back written pages", func(t *testing.T) {
		file := CreateDbFile(t)

		diskScheduler := disk.NewScheduler(disk.NewManager(file))
		bufferMgr := NewBufferpoolManager(2, NewLRUReplacer(2), diskScheduler)

		content := []string{"1", "2", "3"}
		for pageId, d := range content {
			pageGuard, err := bufferMgr.WritePage(int64(pageId + 1))
			assert.NoError(t, err)

			data := make([]byte, disk.PAGE_SIZE)
			copy(data, []byte(d))
			copy(*pageGuard.GetDataMut(), data)
			pageGuard.Drop()
		}

		for pageId, data := range content {
			pageGuard, err := bufferMgr.ReadPage(int64(pageId + 1))
			assert.NoError(t, err)

			assert.Equal(t, data, string(bytes.Trim(pageGuard.GetData(), "\x00")))
			pageGuard.Drop()
		}
	})

	t.Run("new page allocates fresh ids and zeroed frames", func(t *testing.T) {
		file := CreateDbFile(t)

		diskScheduler := disk.NewScheduler(disk.NewManager(file))
		bufferMgr := NewBufferpoolManager(5, NewLRUReplacer(5), diskScheduler)

		guard, pageId, err := bufferMgr.NewPage()
		assert.NoError(t, err)
		assert.Equal(t, int64(1), pageId)
		assert.Equal(t, make([]byte, disk.PAGE_SIZE), guard.GetData())
		guard.Drop()

		_, pageId, err = bufferMgr.NewPage()
		assert.NoError(t, err)
		assert.Equal(t, int64(2), pageId)
	})

	t.Run("exhausted pool surfaces a typed error", func(t *testing.T) {
		file := CreateDbFile(t)

		diskScheduler := disk.NewScheduler(disk.NewManager(file))
		bufferMgr := NewBufferpoolManager(2, NewLRUReplacer(2), diskScheduler)

		guard1, err := bufferMgr.WritePage(1)
		assert.NoError(t, err)
		guard2, err := bufferMgr.WritePage(2)
		assert.NoError(t, err)

		_, err = bufferMgr.WritePage(3)
		assert.Error(t, err)
		var exhausted *util.BufferpoolExhaustedError
		assert.ErrorAs(t, err, &exhausted)

		// dropping a pin frees a frame again
		guard1.Drop()
		guard3, err := bufferMgr.WritePage(3)
		assert.NoError(t, err)

		guard3.Drop()
		guard2.Drop()
	})

	t.Run("delete page frees the frame", func(t *testing.T) {
		file := CreateDbFile(t)

		diskScheduler := disk.NewScheduler(disk.NewManager(file))
		bufferMgr := NewBufferpoolManager(2, NewLRUReplacer(2), diskScheduler)

		guard, err := bufferMgr.WritePage(1)
		assert.NoError(t, err)

		// still pinned
		assert.False(t, bufferMgr.DeletePage(1))

		guard.Drop()
		assert.True(t, bufferMgr.DeletePage(1))

		_, ok := bufferMgr.pageTable[1]
		assert.False(t, ok)
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

	_ = os.Truncate(file.Name(), disk.PAGE_SIZE)
	return file
}

func syncWrite(pageId int64, data []byte, diskScheduler *disk.Scheduler) {
	respCh := diskScheduler.Schedule(disk.NewRequest(pageId, data, true))
	<-respCh
}

func syncRead(pageId int64, diskScheduler *disk.Scheduler) []byte {
	respCh := diskScheduler.Schedule(disk.NewRequest(pageId, nil, false))
	res := <-respCh

	return res.Data
}
