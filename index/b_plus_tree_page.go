package index

import (
	"github.com/osprey-db/osprey/storage/disk"
)

type PageType = int32

const (
	INVALID_PAGE PageType = iota
	INTERNAL_PAGE
	LEAF_PAGE
)

const (
	HEADER_PAGE_ID  int64 = 0
	INVALID_PAGE_ID       = disk.INVALID_PAGE_ID
)

type accessMode int

const (
	modeSearch accessMode = iota
	modeInsert
	modeDelete
)

// pageHeader carries the fields shared by leaf and internal pages. It
// also doubles as the decode target for sniffing a page's type before
// the full page struct is known.
type pageHeader struct {
	PageType PageType
	PageId   int64
	IsRoot   bool
	Size     int32
	MaxSize  int32
}

func (h *pageHeader) isLeafPage() bool {
	return h.PageType == LEAF_PAGE
}

func (h *pageHeader) isRootPage() bool {
	return h.IsRoot
}

func (h *pageHeader) getSize() int {
	return int(h.Size)
}

func (h *pageHeader) minSize() int {
	return int(h.MaxSize) / 2
}

// isSafe reports whether an operation in the given mode cannot
// propagate a structural change above this page: an insert that stays
// below the split threshold, or a delete that keeps the page at or
// above half full.
func (h *pageHeader) isSafe(mode accessMode) bool {
	switch mode {
	case modeSearch:
		return true
	case modeInsert:
		return h.getSize() < int(h.MaxSize)-1
	default:
		return h.getSize() > h.minSize()
	}
}
