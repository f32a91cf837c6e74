package index

import (
	"cmp"
	"slices"
)

// leafPage holds sorted (key, value) pairs and a pointer to the next
// leaf, forming the singly linked leaf chain. Keys and Values always
// have Size elements.
type leafPage[K cmp.Ordered, V any] struct {
	pageHeader
	Next   int64
	Keys   []K
	Values []V
}

func (p *leafPage[K, V]) init(pageId int64, maxSize int32) {
	p.PageType = LEAF_PAGE
	p.PageId = pageId
	p.MaxSize = maxSize
	p.Next = INVALID_PAGE_ID
}

func (p *leafPage[K, V]) keyAt(idx int) K {
	return p.Keys[idx]
}

func (p *leafPage[K, V]) valueAt(idx int) V {
	return p.Values[idx]
}

// getInsertIdx returns the position of the first key >= key, which is
// getSize() when every key is smaller.
func (p *leafPage[K, V]) getInsertIdx(key K) int {
	left := 0
	right := p.getSize() - 1

	for left <= right {
		mid := left + (right-left)/2
		if p.keyAt(mid) < key {
			left = mid + 1
		} else {
			right = mid - 1
		}
	}

	return left
}

// keyIndex returns the position of the first key >= key, or -1 when
// every key in the page is smaller.
func (p *leafPage[K, V]) keyIndex(key K) int {
	idx := p.getInsertIdx(key)
	if idx >= p.getSize() {
		return -1
	}
	return idx
}

func (p *leafPage[K, V]) lookup(key K) (V, bool) {
	var zero V

	idx := p.getInsertIdx(key)
	if idx < p.getSize() && p.keyAt(idx) == key {
		return p.valueAt(idx), true
	}
	return zero, false
}

// insert places the pair in key order and returns the new size.
// Duplicate keys are rejected, leaving the size unchanged.
func (p *leafPage[K, V]) insert(key K, value V) int {
	idx := p.getInsertIdx(key)
	if idx < p.getSize() && p.keyAt(idx) == key {
		return p.getSize()
	}

	p.Keys = slices.Insert(p.Keys, idx, key)
	p.Values = slices.Insert(p.Values, idx, value)
	p.Size++
	return p.getSize()
}

// remove deletes the pair for key, if present, and returns the new
// size.
func (p *leafPage[K, V]) remove(key K) int {
	idx := p.getInsertIdx(key)
	if idx < p.getSize() && p.keyAt(idx) == key {
		p.Keys = slices.Delete(p.Keys, idx, idx+1)
		p.Values = slices.Delete(p.Values, idx, idx+1)
		p.Size--
	}
	return p.getSize()
}

// moveHalfTo moves the upper half of this page's pairs to an empty
// sibling, leaving minSize pairs behind.
func (p *leafPage[K, V]) moveHalfTo(dest *leafPage[K, V]) {
	mid := p.minSize()

	dest.Keys = append(dest.Keys, p.Keys[mid:]...)
	dest.Values = append(dest.Values, p.Values[mid:]...)
	dest.Size = int32(len(dest.Keys))

	p.Keys = p.Keys[:mid]
	p.Values = p.Values[:mid]
	p.Size = int32(mid)
}

// moveAllTo appends every pair to dest. The caller repairs the sibling
// chain.
func (p *leafPage[K, V]) moveAllTo(dest *leafPage[K, V]) {
	dest.Keys = append(dest.Keys, p.Keys...)
	dest.Values = append(dest.Values, p.Values...)
	dest.Size = int32(len(dest.Keys))

	p.Keys = nil
	p.Values = nil
	p.Size = 0
}

// moveFirstToEndOf shifts this page's smallest pair onto the tail of
// dest, its left sibling.
func (p *leafPage[K, V]) moveFirstToEndOf(dest *leafPage[K, V]) {
	dest.Keys = append(dest.Keys, p.Keys[0])
	dest.Values = append(dest.Values, p.Values[0])
	dest.Size++

	p.Keys = slices.Delete(p.Keys, 0, 1)
	p.Values = slices.Delete(p.Values, 0, 1)
	p.Size--
}

// moveLastToFrontOf shifts this page's largest pair onto the head of
// dest, its right sibling.
func (p *leafPage[K, V]) moveLastToFrontOf(dest *leafPage[K, V]) {
	last := p.getSize() - 1
	dest.Keys = slices.Insert(dest.Keys, 0, p.Keys[last])
	dest.Values = slices.Insert(dest.Values, 0, p.Values[last])
	dest.Size++

	p.Keys = p.Keys[:last]
	p.Values = p.Values[:last]
	p.Size--
}
