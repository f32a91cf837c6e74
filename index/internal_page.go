package index

import (
	"cmp"
	"slices"
)

// internalPage routes keys to child pages. Children has Size elements;
// Keys mirrors it slot for slot, with slot 0 unused as the "-infinity"
// separator: Keys[i] (i >= 1) is the least key reachable under
// Children[i].
type internalPage[K cmp.Ordered] struct {
	pageHeader
	Keys     []K
	Children []int64
}

func (p *internalPage[K]) init(pageId int64, maxSize int32) {
	p.PageType = INTERNAL_PAGE
	p.PageId = pageId
	p.MaxSize = maxSize
}

func (p *internalPage[K]) keyAt(idx int) K {
	return p.Keys[idx]
}

func (p *internalPage[K]) childAt(idx int) int64 {
	return p.Children[idx]
}

func (p *internalPage[K]) setKeyAt(idx int, key K) {
	p.Keys[idx] = key
}

// lookup returns the child whose subtree contains key: the rightmost
// child whose separator is <= key.
func (p *internalPage[K]) lookup(key K) int64 {
	left := 1
	right := p.getSize() - 1

	for left <= right {
		mid := left + (right-left)/2
		if p.keyAt(mid) <= key {
			left = mid + 1
		} else {
			right = mid - 1
		}
	}

	return p.Children[left-1]
}

// valueIndex returns the slot holding childPageId, or -1. Linear scan;
// fan-out is bounded by MaxSize.
func (p *internalPage[K]) valueIndex(childPageId int64) int {
	for i := range p.getSize() {
		if p.Children[i] == childPageId {
			return i
		}
	}
	return -1
}

// populateNewRoot initializes a fresh root over two children split
// from the old root.
func (p *internalPage[K]) populateNewRoot(left int64, separator K, right int64) {
	var unused K
	p.Keys = []K{unused, separator}
	p.Children = []int64{left, right}
	p.Size = 2
}

// insertNodeAfter places (key, child) immediately after the slot of
// existingChild and returns the new size.
func (p *internalPage[K]) insertNodeAfter(existingChild int64, key K, child int64) int {
	idx := p.valueIndex(existingChild) + 1
	p.Keys = slices.Insert(p.Keys, idx, key)
	p.Children = slices.Insert(p.Children, idx, child)
	p.Size++
	return p.getSize()
}

// remove drops the slot at idx.
func (p *internalPage[K]) remove(idx int) {
	p.Keys = slices.Delete(p.Keys, idx, idx+1)
	p.Children = slices.Delete(p.Children, idx, idx+1)
	p.Size--
}

// moveHalfTo moves the upper half of the slots to an empty sibling.
// The moved slot 0 key becomes dest's unused separator; the tree
// pushes it up as the split's middle key.
func (p *internalPage[K]) moveHalfTo(dest *internalPage[K]) {
	mid := p.minSize()

	dest.Keys = append(dest.Keys, p.Keys[mid:]...)
	dest.Children = append(dest.Children, p.Children[mid:]...)
	dest.Size = int32(len(dest.Children))

	p.Keys = p.Keys[:mid]
	p.Children = p.Children[:mid]
	p.Size = int32(mid)
}

// moveAllTo appends every slot to dest, its left sibling, bridging the
// two with middleKey (the parent separator between them).
func (p *internalPage[K]) moveAllTo(dest *internalPage[K], middleKey K) {
	dest.Keys = append(dest.Keys, middleKey)
	dest.Keys = append(dest.Keys, p.Keys[1:]...)
	dest.Children = append(dest.Children, p.Children...)
	dest.Size = int32(len(dest.Children))

	p.Keys = nil
	p.Children = nil
	p.Size = 0
}

// moveFirstToEndOf rotates this page's first child onto the tail of
// dest, its left sibling. middleKey is the parent separator between
// the two pages; the displaced Keys[1] is returned as the new
// separator.
func (p *internalPage[K]) moveFirstToEndOf(dest *internalPage[K], middleKey K) K {
	newSeparator := p.Keys[1]

	dest.Keys = append(dest.Keys, middleKey)
	dest.Children = append(dest.Children, p.Children[0])
	dest.Size++

	p.Keys = slices.Delete(p.Keys, 1, 2)
	p.Children = slices.Delete(p.Children, 0, 1)
	p.Size--

	return newSeparator
}

// moveLastToFrontOf rotates this page's last child onto the head of
// dest, its right sibling. middleKey is the parent separator between
// the two pages; the displaced last key is returned as the new
// separator.
func (p *internalPage[K]) moveLastToFrontOf(dest *internalPage[K], middleKey K) K {
	last := p.getSize() - 1
	newSeparator := p.Keys[last]

	dest.Keys = slices.Insert(dest.Keys, 1, middleKey)
	dest.Children = slices.Insert(dest.Children, 0, p.Children[last])
	dest.Size++

	p.Keys = p.Keys[:last]
	p.Children = p.Children[:last]
	p.Size--

	return newSeparator
}

// removeAndReturnOnlyChild collapses a size-1 root, handing back the
// surviving child.
func (p *internalPage[K]) removeAndReturnOnlyChild() int64 {
	child := p.Children[0]
	p.Keys = nil
	p.Children = nil
	p.Size = 0
	return child
}
