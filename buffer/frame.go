package buffer

import (
	"sync"
	"sync/atomic"

	"github.com/osprey-db/osprey/storage/disk"
)

// Frame is one in-memory slot of the pool. latch protects the page
// bytes; pins counts outstanding guards so the pool knows when the
// frame may be handed to the replacer.
type Frame struct {
	latch  sync.RWMutex
	id     int
	data   []byte
	pins   atomic.Int32
	dirty  bool
	pageId int64
}

func (f *Frame) pin() {
	f.pins.Add(1)
}

func (f *Frame) unpin() int32 {
	return f.pins.Add(-1)
}

func (f *Frame) reset() {
	f.dirty = false
	f.pins.Store(0)
	f.pageId = disk.INVALID_PAGE_ID
	f.data = make([]byte, disk.PAGE_SIZE)
}
