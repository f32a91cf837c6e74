package index

import (
	"github.com/osprey-db/osprey/concurrency"
	"github.com/osprey-db/osprey/util"
)

// Begin positions a cursor at the smallest key.
func (t *BPlusTree[K, V]) Begin() (*IndexIterator[K, V], error) {
	return t.beginAt(nil)
}

// BeginAt positions a cursor at the first key >= key.
func (t *BPlusTree[K, V]) BeginAt(key K) (*IndexIterator[K, V], error) {
	return t.beginAt(&key)
}

func (t *BPlusTree[K, V]) beginAt(key *K) (*IndexIterator[K, V], error) {
	t.rootMu.Lock()
	if t.rootPageId == INVALID_PAGE_ID {
		t.rootMu.Unlock()
		return endIterator[K, V](t.bpm), nil
	}

	guard, err := t.bpm.ReadPage(t.rootPageId)
	t.rootMu.Unlock()
	if err != nil {
		return nil, err
	}

	for {
		hdr, err := util.ToStruct[pageHeader](guard.GetData())
		if err != nil {
			guard.Drop()
			return nil, err
		}

		if hdr.isLeafPage() {
			break
		}

		internal, err := util.ToStruct[internalPage[K]](guard.GetData())
		if err != nil {
			guard.Drop()
			return nil, err
		}

		childId := internal.childAt(0)
		if key != nil {
			childId = internal.lookup(*key)
		}

		childGuard, err := t.bpm.ReadPage(childId)
		if err != nil {
			guard.Drop()
			return nil, err
		}
		guard.Drop()
		guard = childGuard
	}

	leaf, err := util.ToStruct[leafPage[K, V]](guard.GetData())
	if err != nil {
		guard.Drop()
		return nil, err
	}

	pos := 0
	if key != nil {
		pos = leaf.keyIndex(*key)
	}

	it := newIndexIterator(t.bpm, guard, leaf, pos)
	if pos == -1 {
		// every key in this leaf is smaller: the position is the head
		// of the next leaf
		it.pos = leaf.getSize()
		if err := it.hop(); err != nil {
			return nil, err
		}
	}
	return it, nil
}

// GetKeyRange collects the values for keys in [start, stop].
func (t *BPlusTree[K, V]) GetKeyRange(start, stop K) ([]V, error) {
	it, err := t.BeginAt(start)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	res := []V{}
	for !it.IsEnd() {
		key, val, err := it.Next()
		if err != nil {
			return res, err
		}
		if key > stop {
			break
		}
		res = append(res, val)
	}

	return res, nil
}

// BatchInsert inserts every pair in items.
func (t *BPlusTree[K, V]) BatchInsert(items map[K]V) error {
	for k, v := range items {
		if _, err := t.Insert(k, v, concurrency.NewTransaction()); err != nil {
			return err
		}
	}

	return nil
}
