package catalog

import (
	"github.com/osprey-db/osprey/storage/disk"
	"github.com/osprey-db/osprey/util"
)

// TableIterator walks every live tuple of a heap in physical order.
// Each page is decoded once and released before its slots are served,
// so no latch is held between Next calls.
type TableIterator struct {
	heap   *TableHeap
	page   tablePage
	slot   int
	loaded bool
}

func (h *TableHeap) Iterator() *TableIterator {
	return &TableIterator{heap: h}
}

// Next returns the next live tuple, or ok=false at the end of the
// heap.
func (it *TableIterator) Next() (*Tuple, RID, bool, error) {
	if !it.loaded {
		if err := it.loadPage(it.heap.firstPageId); err != nil {
			return nil, RID{}, false, err
		}
	}

	for {
		for it.slot < len(it.page.Slots) {
			slot := it.page.Slots[it.slot]
			rid := RID{PageId: it.page.PageId, Slot: int32(it.slot)}
			it.slot++

			if slot.Deleted {
				continue
			}

			tuple, err := deserializeTuple(slot.Data)
			if err != nil {
				return nil, RID{}, false, err
			}
			tuple.Rid = rid
			return tuple, rid, true, nil
		}

		if it.page.Next == disk.INVALID_PAGE_ID {
			return nil, RID{}, false, nil
		}
		if err := it.loadPage(it.page.Next); err != nil {
			return nil, RID{}, false, err
		}
	}
}

func (it *TableIterator) loadPage(pageId int64) error {
	guard, err := it.heap.bpm.ReadPage(pageId)
	if err != nil {
		return err
	}
	defer guard.Drop()

	page, err := util.ToStruct[tablePage](guard.GetData())
	if err != nil {
		return err
	}

	it.page = page
	it.slot = 0
	it.loaded = true
	return nil
}
