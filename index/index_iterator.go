package index

import (
	"cmp"
	"fmt"

	"github.com/osprey-db/osprey/buffer"
	"github.com/osprey-db/osprey/util"
)

// IndexIterator is a forward cursor over the leaf chain. It holds the
// current leaf's shared latch; crossing to the next leaf acquires the
// sibling before the previous leaf is released. An exhausted iterator
// has released everything.
type IndexIterator[K cmp.Ordered, V any] struct {
	bpm   *buffer.BufferpoolManager
	guard *buffer.ReadPageGuard
	leaf  leafPage[K, V]
	pos   int
}

func newIndexIterator[K cmp.Ordered, V any](bpm *buffer.BufferpoolManager, guard *buffer.ReadPageGuard, leaf leafPage[K, V], pos int) *IndexIterator[K, V] {
	return &IndexIterator[K, V]{bpm: bpm, guard: guard, leaf: leaf, pos: pos}
}

func endIterator[K cmp.Ordered, V any](bpm *buffer.BufferpoolManager) *IndexIterator[K, V] {
	return &IndexIterator[K, V]{bpm: bpm, pos: -1}
}

func (it *IndexIterator[K, V]) IsEnd() bool {
	return it.guard == nil
}

// Next returns the current pair and advances. Crossing a leaf boundary
// latches the next leaf, then releases the previous one.
func (it *IndexIterator[K, V]) Next() (K, V, error) {
	var key K
	var value V

	if it.IsEnd() {
		return key, value, fmt.Errorf("index iterator exhausted")
	}

	key = it.leaf.keyAt(it.pos)
	value = it.leaf.valueAt(it.pos)
	it.pos++

	if it.pos >= it.leaf.getSize() {
		if err := it.hop(); err != nil {
			return key, value, err
		}
	}

	return key, value, nil
}

// hop moves the cursor to the head of the next leaf, or to the end
// sentinel when the chain runs out.
func (it *IndexIterator[K, V]) hop() error {
	if it.leaf.Next == INVALID_PAGE_ID {
		it.Close()
		return nil
	}

	nextGuard, err := it.bpm.ReadPage(it.leaf.Next)
	if err != nil {
		it.Close()
		return err
	}

	nextLeaf, err := util.ToStruct[leafPage[K, V]](nextGuard.GetData())
	if err != nil {
		nextGuard.Drop()
		it.Close()
		return err
	}

	it.guard.Drop()
	it.guard = nextGuard
	it.leaf = nextLeaf
	it.pos = 0
	return nil
}

// Close releases the held leaf. Safe to call repeatedly.
func (it *IndexIterator[K, V]) Close() {
	if it.guard != nil {
		it.guard.Drop()
		it.guard = nil
		it.pos = -1
	}
}
