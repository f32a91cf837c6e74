package disk

import (
	"fmt"
	"os"
	"sync"

	"github.com/osprey-db/osprey/util"
)

const (
	PAGE_SIZE             = util.PageSize
	INVALID_PAGE_ID int64 = -1

	defaultPageCapacity = 16
)

// Manager lays pages out in a flat db file. Offsets are tracked per
// page id so deallocated slots can be reused before the file grows.
type Manager struct {
	mu           sync.Mutex
	dbFile       *os.File
	pages        map[int64]int64
	freeSlots    []int64
	nextOffset   int64
	pageCapacity int64
}

func NewManager(file *os.File) *Manager {
	return &Manager{
		dbFile:       file,
		pageCapacity: defaultPageCapacity,
		freeSlots:    []int64{},
		pages:        map[int64]int64{},
	}
}

func (dm *Manager) WritePage(pageId int64, data []byte) error {
	offset, err := dm.offsetFor(pageId)
	if err != nil {
		return err
	}

	if _, err := dm.dbFile.WriteAt(data, offset); err != nil {
		return fmt.Errorf("error writing page %d at offset %d: %v", pageId, offset, err)
	}

	return nil
}

func (dm *Manager) ReadPage(pageId int64) ([]byte, error) {
	offset, err := dm.offsetFor(pageId)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, PAGE_SIZE)
	if _, err := dm.dbFile.ReadAt(buf, offset); err != nil {
		return nil, fmt.Errorf("error reading page %d from offset %d: %v", pageId, offset, err)
	}

	return buf, nil
}

// DeallocatePage returns a page's file slot to the free list.
func (dm *Manager) DeallocatePage(pageId int64) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if offset, ok := dm.pages[pageId]; ok {
		dm.freeSlots = append(dm.freeSlots, offset)
		delete(dm.pages, pageId)
	}
}

func (dm *Manager) Close() error {
	if err := dm.dbFile.Sync(); err != nil {
		return err
	}
	return dm.dbFile.Close()
}

// offsetFor resolves a page id to its slot, allocating one on first
// touch. The offset is claimed together with the pages entry so
// concurrent callers cannot grab the same slot.
func (dm *Manager) offsetFor(pageId int64) (int64, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if offset, ok := dm.pages[pageId]; ok {
		return offset, nil
	}

	offset, err := dm.allocateSlot()
	if err != nil {
		return -1, err
	}
	dm.pages[pageId] = offset

	return offset, nil
}

func (dm *Manager) allocateSlot() (int64, error) {
	if len(dm.freeSlots) > 0 {
		offset := dm.freeSlots[0]
		dm.freeSlots = dm.freeSlots[1:]

		return offset, nil
	}

	if dm.nextOffset/PAGE_SIZE+1 > dm.pageCapacity {
		dm.pageCapacity *= 2
		if err := dm.dbFile.Truncate(dm.pageCapacity * PAGE_SIZE); err != nil {
			return -1, fmt.Errorf("error resizing db file: %v", err)
		}
	}

	offset := dm.nextOffset
	dm.nextOffset += PAGE_SIZE
	return offset, nil
}
