package catalog

import (
	"sync"

	"github.com/osprey-db/osprey/buffer"
	"github.com/osprey-db/osprey/storage/disk"
	"github.com/osprey-db/osprey/util"
)

// tablePage chains slotted pages of serialized rows. Deleted rows keep
// their slot so RIDs of later rows stay stable.
type tablePage struct {
	PageId int64
	Next   int64
	Slots  []tableSlot
}

type tableSlot struct {
	Data    []byte
	Deleted bool
}

// slotOverhead approximates the per-row encoding cost on top of the
// row image; pageOverhead the page header's.
const (
	slotOverhead = 16
	pageOverhead = 64
)

func (p *tablePage) usedBytes() int {
	used := pageOverhead
	for _, slot := range p.Slots {
		used += len(slot.Data) + slotOverhead
	}
	return used
}

// TableHeap is an unordered collection of tuples over chained table
// pages. Inserts always go to the tail page.
type TableHeap struct {
	bpm         *buffer.BufferpoolManager
	mu          sync.Mutex
	firstPageId int64
	lastPageId  int64
}

func NewTableHeap(bpm *buffer.BufferpoolManager) (*TableHeap, error) {
	guard, pageId, err := bpm.NewPage()
	if err != nil {
		return nil, err
	}
	defer guard.Drop()

	page := tablePage{PageId: pageId, Next: disk.INVALID_PAGE_ID}
	if err := savePage(guard, &page); err != nil {
		return nil, err
	}

	return &TableHeap{bpm: bpm, firstPageId: pageId, lastPageId: pageId}, nil
}

func (h *TableHeap) FirstPageId() int64 {
	return h.firstPageId
}

// InsertTuple appends the tuple and returns its RID. A tuple whose row
// image cannot fit an empty page is rejected with TupleTooLargeError.
func (h *TableHeap) InsertTuple(tuple *Tuple) (RID, error) {
	data, err := tuple.serialize()
	if err != nil {
		return RID{}, err
	}
	if len(data)+slotOverhead+pageOverhead > disk.PAGE_SIZE {
		return RID{}, util.NewTupleTooLargeError()
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	guard, err := h.bpm.WritePage(h.lastPageId)
	if err != nil {
		return RID{}, err
	}

	page, err := util.ToStruct[tablePage](guard.GetData())
	if err != nil {
		guard.Drop()
		return RID{}, err
	}

	if page.usedBytes()+len(data)+slotOverhead > disk.PAGE_SIZE {
		newGuard, newPageId, err := h.bpm.NewPage()
		if err != nil {
			guard.Drop()
			return RID{}, err
		}

		page.Next = newPageId
		if err := savePage(guard, &page); err != nil {
			newGuard.Drop()
			guard.Drop()
			return RID{}, err
		}
		guard.Drop()

		guard = newGuard
		page = tablePage{PageId: newPageId, Next: disk.INVALID_PAGE_ID}
		h.lastPageId = newPageId
	}
	defer guard.Drop()

	page.Slots = append(page.Slots, tableSlot{Data: data})
	rid := RID{PageId: page.PageId, Slot: int32(len(page.Slots) - 1)}

	if err := savePage(guard, &page); err != nil {
		return RID{}, err
	}

	return rid, nil
}

// MarkDelete tombstones the tuple at rid. Returns false when the slot
// does not hold a live tuple.
func (h *TableHeap) MarkDelete(rid RID) (bool, error) {
	guard, err := h.bpm.WritePage(rid.PageId)
	if err != nil {
		return false, err
	}
	defer guard.Drop()

	page, err := util.ToStruct[tablePage](guard.GetData())
	if err != nil {
		return false, err
	}

	if int(rid.Slot) >= len(page.Slots) || page.Slots[rid.Slot].Deleted {
		return false, nil
	}

	page.Slots[rid.Slot].Deleted = true
	if err := savePage(guard, &page); err != nil {
		return false, err
	}

	return true, nil
}

// UpdateTuple replaces the row image at rid in place. Returns false
// when the new image no longer fits the page; the caller then falls
// back to delete plus insert.
func (h *TableHeap) UpdateTuple(tuple *Tuple, rid RID) (bool, error) {
	data, err := tuple.serialize()
	if err != nil {
		return false, err
	}

	guard, err := h.bpm.WritePage(rid.PageId)
	if err != nil {
		return false, err
	}
	defer guard.Drop()

	page, err := util.ToStruct[tablePage](guard.GetData())
	if err != nil {
		return false, err
	}

	if int(rid.Slot) >= len(page.Slots) || page.Slots[rid.Slot].Deleted {
		return false, util.NewNotFoundError("tuple")
	}

	newUsed := page.usedBytes() - len(page.Slots[rid.Slot].Data) + len(data)
	if newUsed > disk.PAGE_SIZE {
		return false, nil
	}

	page.Slots[rid.Slot].Data = data
	if err := savePage(guard, &page); err != nil {
		return false, err
	}

	return true, nil
}

// GetTuple loads the tuple at rid.
func (h *TableHeap) GetTuple(rid RID) (*Tuple, bool, error) {
	guard, err := h.bpm.ReadPage(rid.PageId)
	if err != nil {
		return nil, false, err
	}
	defer guard.Drop()

	page, err := util.ToStruct[tablePage](guard.GetData())
	if err != nil {
		return nil, false, err
	}

	if int(rid.Slot) >= len(page.Slots) || page.Slots[rid.Slot].Deleted {
		return nil, false, nil
	}

	tuple, err := deserializeTuple(page.Slots[rid.Slot].Data)
	if err != nil {
		return nil, false, err
	}
	tuple.Rid = rid

	return tuple, true, nil
}

func savePage(guard *buffer.WritePageGuard, page *tablePage) error {
	data, err := util.ToByteSlice(*page)
	if err != nil {
		return err
	}
	copy(*guard.GetDataMut(), data)
	return nil
}
