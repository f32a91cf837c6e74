package buffer

import (
	"sync"
	"sync/atomic"

	"github.com/osprey-db/osprey/storage/disk"
	"github.com/osprey-db/osprey/util"
)

// BufferpoolManager maps page ids onto a fixed set of frames. Frame
// resolution (page table hit, free frame, or replacer victim) happens
// under the pool mutex; the page latch is taken only after the mutex
// is released. The frame is pinned by then, so it cannot be victimized
// in the window.
type BufferpoolManager struct {
	mu            sync.Mutex
	frames        []*Frame
	pageTable     map[int64]int
	nextPageId    atomic.Int64
	diskScheduler *disk.Scheduler
	replacer      *LRUReplacer
	freeFrames    []int
}

func NewBufferpoolManager(size int, replacer *LRUReplacer, diskScheduler *disk.Scheduler) *BufferpoolManager {
	frames := make([]*Frame, size)
	freeFrames := make([]int, size)

	for i := range size {
		frames[i] = &Frame{
			id:     i,
			pageId: disk.INVALID_PAGE_ID,
			data:   make([]byte, disk.PAGE_SIZE),
		}
		freeFrames[i] = i
	}

	return &BufferpoolManager{
		frames:        frames,
		pageTable:     make(map[int64]int),
		replacer:      replacer,
		diskScheduler: diskScheduler,
		freeFrames:    freeFrames,
	}
}

// ReadPage fetches a page and returns a guard holding its shared latch.
func (b *BufferpoolManager) ReadPage(pageId int64) (*ReadPageGuard, error) {
	frame, err := b.acquireFrame(pageId, true, false)
	if err != nil {
		return nil, err
	}

	frame.latch.RLock()
	return newReadPageGuard(frame, b), nil
}

// WritePage fetches a page and returns a guard holding its exclusive
// latch. The frame is marked dirty up front.
func (b *BufferpoolManager) WritePage(pageId int64) (*WritePageGuard, error) {
	frame, err := b.acquireFrame(pageId, true, true)
	if err != nil {
		return nil, err
	}

	frame.latch.Lock()
	return newWritePageGuard(frame, b), nil
}

// NewPage allocates a fresh page id and returns it with an exclusive
// guard over a zeroed frame.
func (b *BufferpoolManager) NewPage() (*WritePageGuard, int64, error) {
	pageId := b.nextPageId.Add(1)

	frame, err := b.acquireFrame(pageId, false, true)
	if err != nil {
		return nil, disk.INVALID_PAGE_ID, err
	}

	frame.latch.Lock()
	return newWritePageGuard(frame, b), pageId, nil
}

// DeletePage drops an unpinned page from the pool and returns its disk
// slot to the free list. Returns false while the page is still pinned.
func (b *BufferpoolManager) DeletePage(pageId int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	idx, ok := b.pageTable[pageId]
	if !ok {
		b.diskScheduler.Manager().DeallocatePage(pageId)
		return true
	}

	frame := b.frames[idx]
	if frame.pins.Load() > 0 {
		return false
	}

	delete(b.pageTable, pageId)
	b.replacer.Pin(frame.id)
	frame.reset()
	b.freeFrames = append(b.freeFrames, frame.id)
	b.diskScheduler.Manager().DeallocatePage(pageId)

	return true
}

// FlushPage writes a resident page's frame back to disk if it is dirty.
func (b *BufferpoolManager) FlushPage(pageId int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if idx, ok := b.pageTable[pageId]; ok {
		b.flush(b.frames[idx])
	}
}

// FlushAll writes every dirty resident page back to disk.
func (b *BufferpoolManager) FlushAll() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, idx := range b.pageTable {
		b.flush(b.frames[idx])
	}
}

func (b *BufferpoolManager) acquireFrame(pageId int64, load, markDirty bool) (*Frame, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if idx, ok := b.pageTable[pageId]; ok {
		frame := b.frames[idx]
		frame.pin()
		if markDirty {
			frame.dirty = true
		}
		b.replacer.Pin(frame.id)
		return frame, nil
	}

	var frame *Frame
	if len(b.freeFrames) > 0 {
		frame = b.frames[b.freeFrames[0]]
		b.freeFrames = b.freeFrames[1:]
	} else if id, ok := b.replacer.Victim(); ok {
		frame = b.frames[id]
		b.flush(frame)
		delete(b.pageTable, frame.pageId)
	} else {
		return nil, util.NewBufferpoolExhaustedError()
	}

	b.pageTable[pageId] = frame.id
	frame.reset()
	frame.pin()
	frame.pageId = pageId
	frame.dirty = markDirty
	b.replacer.Pin(frame.id)

	if load {
		resp := <-b.diskScheduler.Schedule(disk.NewRequest(pageId, nil, false))
		if resp.Success {
			copy(frame.data, resp.Data)
		}
	}

	return frame, nil
}

// unpinFrame returns one pin; the frame becomes a victim candidate
// when the last pin goes. Runs under the pool mutex so it cannot race
// a concurrent fetch pinning the same frame.
func (b *BufferpoolManager) unpinFrame(frame *Frame) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if frame.unpin() == 0 {
		b.replacer.Unpin(frame.id)
	}
}

func (b *BufferpoolManager) flush(frame *Frame) {
	if frame.dirty {
		// block until the write lands
		<-b.diskScheduler.Schedule(disk.NewRequest(frame.pageId, frame.data, true))
		frame.dirty = false
	}
}
