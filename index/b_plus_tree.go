package index

import (
	"cmp"
	"fmt"
	"math"
	"sync"

	"github.com/osprey-db/osprey/buffer"
	"github.com/osprey-db/osprey/concurrency"
	"github.com/osprey-db/osprey/util"
)

const (
	DEFAULT_LEAF_MAX_SIZE     int32 = 64
	DEFAULT_INTERNAL_MAX_SIZE int32 = 64
)

// BPlusTree is a disk-resident, unique-key B+ tree. GetValue, Insert,
// Remove and iterator construction are safe under concurrent callers;
// every page access happens under a page guard, crabbed down the tree
// optimistically first and with an all-exclusive descent when the
// target leaf turns out unsafe.
//
// rootMu guards rootPageId. A descent that might change which page is
// the root (empty tree, root split, root collapse) holds it until the
// descent proves the root will survive, which is the moment the first
// safe node is found.
type BPlusTree[K cmp.Ordered, V any] struct {
	bpm             *buffer.BufferpoolManager
	indexName       string
	rootMu          sync.Mutex
	rootPageId      int64
	leafMaxSize     int32
	internalMaxSize int32
}

// NewBPlusTree attaches to the index's root recorded in the header
// page, or starts empty when no record exists. Max sizes are the split
// thresholds visible to callers; internally each is kept one higher so
// a page can hold the overflowing entry while it is being split.
func NewBPlusTree[K cmp.Ordered, V any](name string, bpm *buffer.BufferpoolManager, leafMaxSize, internalMaxSize int32) (*BPlusTree[K, V], error) {
	if leafMaxSize <= 0 {
		leafMaxSize = DEFAULT_LEAF_MAX_SIZE
	}
	if internalMaxSize <= 0 {
		internalMaxSize = DEFAULT_INTERNAL_MAX_SIZE
	}
	// below 3 a non-root page could end up without a sibling to
	// borrow from or merge with
	leafMaxSize = max(leafMaxSize, 3)
	internalMaxSize = max(internalMaxSize, 3)

	rootPageId, ok, err := getRootId(bpm, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		rootPageId = INVALID_PAGE_ID
	}

	return &BPlusTree[K, V]{
		bpm:             bpm,
		indexName:       name,
		rootPageId:      rootPageId,
		leafMaxSize:     leafMaxSize + 1,
		internalMaxSize: internalMaxSize + 1,
	}, nil
}

func (t *BPlusTree[K, V]) IsEmpty() bool {
	t.rootMu.Lock()
	defer t.rootMu.Unlock()

	return t.rootPageId == INVALID_PAGE_ID
}

/*****************************************************************************
 * SEARCH
 *****************************************************************************/

// GetValue looks up key, crabbing shared latches down to the leaf.
func (t *BPlusTree[K, V]) GetValue(key K) (V, bool, error) {
	var zero V

	t.rootMu.Lock()
	if t.rootPageId == INVALID_PAGE_ID {
		t.rootMu.Unlock()
		return zero, false, nil
	}

	guard, err := t.bpm.ReadPage(t.rootPageId)
	t.rootMu.Unlock()
	if err != nil {
		return zero, false, err
	}

	for {
		hdr, err := util.ToStruct[pageHeader](guard.GetData())
		if err != nil {
			guard.Drop()
			return zero, false, err
		}

		if hdr.isLeafPage() {
			leaf, err := util.ToStruct[leafPage[K, V]](guard.GetData())
			guard.Drop()
			if err != nil {
				return zero, false, err
			}

			value, found := leaf.lookup(key)
			return value, found, nil
		}

		internal, err := util.ToStruct[internalPage[K]](guard.GetData())
		if err != nil {
			guard.Drop()
			return zero, false, err
		}

		childGuard, err := t.bpm.ReadPage(internal.lookup(key))
		guard.Drop()
		if err != nil {
			return zero, false, err
		}
		guard = childGuard
	}
}

/*****************************************************************************
 * INSERTION
 *****************************************************************************/

// Insert adds a unique (key, value) pair. Returns false without error
// when the key already exists.
func (t *BPlusTree[K, V]) Insert(key K, value V, txn *concurrency.Transaction) (bool, error) {
	t.rootMu.Lock()
	holdRoot := true
	releaseRoot := func() {
		if holdRoot {
			t.rootMu.Unlock()
			holdRoot = false
		}
	}
	defer releaseRoot()

	if t.rootPageId == INVALID_PAGE_ID {
		if err := t.startNewTree(key, value); err != nil {
			return false, err
		}
		return true, nil
	}

	leafGuard, err := t.findLeafWriteOptimistic(key, releaseRoot)
	if err != nil {
		return false, err
	}

	leaf, err := util.ToStruct[leafPage[K, V]](leafGuard.GetData())
	if err != nil {
		leafGuard.Drop()
		return false, err
	}

	if leaf.isSafe(modeInsert) {
		oldSize := leaf.getSize()
		if leaf.insert(key, value) == oldSize {
			leafGuard.Drop()
			return false, nil
		}
		err := saveInto(leafGuard, &leaf)
		leafGuard.Drop()
		return err == nil, err
	}

	// unsafe leaf: restart with an exclusive descent
	leafGuard.Drop()
	releaseRoot()
	return t.insertPessimistic(key, value, txn)
}

// startNewTree allocates the root leaf and publishes its id. Races are
// settled by rootMu, which the caller holds: one thread wins, the rest
// see a non-empty tree.
func (t *BPlusTree[K, V]) startNewTree(key K, value V) error {
	guard, pageId, err := t.bpm.NewPage()
	if err != nil {
		return err
	}
	defer guard.Drop()

	var leaf leafPage[K, V]
	leaf.init(pageId, t.leafMaxSize)
	leaf.IsRoot = true
	leaf.insert(key, value)

	if err := saveInto(guard, &leaf); err != nil {
		return err
	}

	t.rootPageId = pageId
	return upsertRecord(t.bpm, t.indexName, pageId)
}

func (t *BPlusTree[K, V]) insertPessimistic(key K, value V, txn *concurrency.Transaction) (bool, error) {
	t.rootMu.Lock()
	holdRoot := true
	releaseRoot := func() {
		if holdRoot {
			t.rootMu.Unlock()
			holdRoot = false
		}
	}
	defer releaseRoot()
	defer txn.ReleasePageSet()

	if t.rootPageId == INVALID_PAGE_ID {
		// the tree emptied between descents
		if err := t.startNewTree(key, value); err != nil {
			return false, err
		}
		return true, nil
	}

	leafGuard, err := t.findLeafExclusive(key, modeInsert, txn, releaseRoot)
	if err != nil {
		return false, err
	}
	defer leafGuard.Drop()

	leaf, err := util.ToStruct[leafPage[K, V]](leafGuard.GetData())
	if err != nil {
		return false, err
	}

	oldSize := leaf.getSize()
	newSize := leaf.insert(key, value)
	if newSize == oldSize {
		return false, nil
	}

	if int32(newSize) == t.leafMaxSize {
		if err := t.splitLeaf(leafGuard, &leaf, txn); err != nil {
			return false, err
		}
	} else if err := saveInto(leafGuard, &leaf); err != nil {
		return false, err
	}

	return true, nil
}

// splitLeaf moves the upper half into a fresh sibling, splices the
// leaf chain, and pushes the sibling's first key into the parent.
func (t *BPlusTree[K, V]) splitLeaf(guard *buffer.WritePageGuard, leaf *leafPage[K, V], txn *concurrency.Transaction) error {
	newGuard, newPageId, err := t.bpm.NewPage()
	if err != nil {
		return err
	}
	defer newGuard.Drop()

	var newLeaf leafPage[K, V]
	newLeaf.init(newPageId, t.leafMaxSize)
	leaf.moveHalfTo(&newLeaf)
	newLeaf.Next = leaf.Next
	leaf.Next = newPageId

	separator := newLeaf.keyAt(0)
	wasRoot := leaf.IsRoot
	leaf.IsRoot = false

	if err := saveInto(guard, leaf); err != nil {
		return err
	}
	if err := saveInto(newGuard, &newLeaf); err != nil {
		return err
	}

	if wasRoot {
		return t.createNewRoot(guard.PageId(), separator, newPageId)
	}
	return t.insertIntoParent(guard.PageId(), separator, newPageId, txn)
}

// insertIntoParent records a split in the parent popped from the
// transaction's page set, splitting it in turn when it overflows.
func (t *BPlusTree[K, V]) insertIntoParent(oldId int64, separator K, newId int64, txn *concurrency.Transaction) error {
	parentGuard := txn.PopPageSet()
	if parentGuard == nil {
		panic("b+tree: split propagated past the latched ancestor set")
	}
	defer parentGuard.Drop()

	parent, err := util.ToStruct[internalPage[K]](parentGuard.GetData())
	if err != nil {
		return err
	}

	parent.insertNodeAfter(oldId, separator, newId)
	if int32(parent.getSize()) == t.internalMaxSize {
		return t.splitInternal(parentGuard, &parent, txn)
	}
	return saveInto(parentGuard, &parent)
}

func (t *BPlusTree[K, V]) splitInternal(guard *buffer.WritePageGuard, internal *internalPage[K], txn *concurrency.Transaction) error {
	newGuard, newPageId, err := t.bpm.NewPage()
	if err != nil {
		return err
	}
	defer newGuard.Drop()

	var newInternal internalPage[K]
	newInternal.init(newPageId, t.internalMaxSize)
	internal.moveHalfTo(&newInternal)

	// the moved slot 0 key separates the two halves; it stays unused
	// inside the new page and goes up to the parent
	middleKey := newInternal.keyAt(0)
	wasRoot := internal.IsRoot
	internal.IsRoot = false

	if err := saveInto(guard, internal); err != nil {
		return err
	}
	if err := saveInto(newGuard, &newInternal); err != nil {
		return err
	}

	if wasRoot {
		return t.createNewRoot(guard.PageId(), middleKey, newPageId)
	}
	return t.insertIntoParent(guard.PageId(), middleKey, newPageId, txn)
}

// createNewRoot installs a fresh internal root over a split old root.
// rootMu is necessarily still held: a split can only reach the root
// when no safe ancestor released it on the way down.
func (t *BPlusTree[K, V]) createNewRoot(leftId int64, separator K, rightId int64) error {
	guard, pageId, err := t.bpm.NewPage()
	if err != nil {
		return err
	}
	defer guard.Drop()

	var root internalPage[K]
	root.init(pageId, t.internalMaxSize)
	root.IsRoot = true
	root.populateNewRoot(leftId, separator, rightId)

	if err := saveInto(guard, &root); err != nil {
		return err
	}

	t.rootPageId = pageId
	return upsertRecord(t.bpm, t.indexName, pageId)
}

/*****************************************************************************
 * REMOVAL
 *****************************************************************************/

// Remove deletes key's pair. Returns false without error when the key
// is absent.
func (t *BPlusTree[K, V]) Remove(key K, txn *concurrency.Transaction) (bool, error) {
	t.rootMu.Lock()
	holdRoot := true
	releaseRoot := func() {
		if holdRoot {
			t.rootMu.Unlock()
			holdRoot = false
		}
	}
	defer releaseRoot()

	if t.rootPageId == INVALID_PAGE_ID {
		return false, nil
	}

	leafGuard, err := t.findLeafWriteOptimistic(key, releaseRoot)
	if err != nil {
		return false, err
	}

	leaf, err := util.ToStruct[leafPage[K, V]](leafGuard.GetData())
	if err != nil {
		leafGuard.Drop()
		return false, err
	}

	if leaf.isSafe(modeDelete) {
		oldSize := leaf.getSize()
		if leaf.remove(key) == oldSize {
			leafGuard.Drop()
			return false, nil
		}
		err := saveInto(leafGuard, &leaf)
		leafGuard.Drop()
		return err == nil, err
	}

	// unsafe leaf: restart with an exclusive descent
	leafGuard.Drop()
	releaseRoot()
	return t.removePessimistic(key, txn)
}

func (t *BPlusTree[K, V]) removePessimistic(key K, txn *concurrency.Transaction) (bool, error) {
	t.rootMu.Lock()
	holdRoot := true
	releaseRoot := func() {
		if holdRoot {
			t.rootMu.Unlock()
			holdRoot = false
		}
	}
	defer releaseRoot()
	defer txn.ReleasePageSet()

	if t.rootPageId == INVALID_PAGE_ID {
		return false, nil
	}

	leafGuard, err := t.findLeafExclusive(key, modeDelete, txn, releaseRoot)
	if err != nil {
		return false, err
	}

	leaf, err := util.ToStruct[leafPage[K, V]](leafGuard.GetData())
	if err != nil {
		leafGuard.Drop()
		return false, err
	}

	oldSize := leaf.getSize()
	newSize := leaf.remove(key)
	removed := newSize < oldSize

	if err := saveInto(leafGuard, &leaf); err != nil {
		leafGuard.Drop()
		return removed, err
	}

	if removed && newSize < leaf.minSize() {
		// consumes leafGuard
		if err := t.coalesceOrRedistribute(leafGuard, txn); err != nil {
			return removed, err
		}
	} else {
		leafGuard.Drop()
	}

	for _, pageId := range txn.DrainDeletedPageSet() {
		t.bpm.DeletePage(pageId)
	}

	return removed, nil
}

// coalesceOrRedistribute repairs an underflowed node, either borrowing
// one entry from a sibling or merging with one. Takes ownership of
// nodeGuard. The node's bytes are already saved.
func (t *BPlusTree[K, V]) coalesceOrRedistribute(nodeGuard *buffer.WritePageGuard, txn *concurrency.Transaction) error {
	hdr, err := util.ToStruct[pageHeader](nodeGuard.GetData())
	if err != nil {
		nodeGuard.Drop()
		return err
	}

	if hdr.isRootPage() {
		return t.adjustRoot(nodeGuard, &hdr, txn)
	}

	parentGuard := txn.PopPageSet()
	if parentGuard == nil {
		panic("b+tree: underflow propagated past the latched ancestor set")
	}

	parent, err := util.ToStruct[internalPage[K]](parentGuard.GetData())
	if err != nil {
		nodeGuard.Drop()
		parentGuard.Drop()
		return err
	}

	idx := parent.valueIndex(nodeGuard.PageId())
	if idx < 0 {
		panic("b+tree: node missing from its parent")
	}

	// try the left sibling, then the right; one entry is enough to
	// absorb the underflow as long as the donor stays above the merge
	// bound
	leftSize, rightSize := math.MaxInt32, math.MaxInt32
	if idx > 0 {
		siblingGuard, err := t.bpm.WritePage(parent.childAt(idx - 1))
		if err != nil {
			nodeGuard.Drop()
			parentGuard.Drop()
			return err
		}

		leftSize, err = t.siblingSize(siblingGuard)
		if err != nil {
			siblingGuard.Drop()
			nodeGuard.Drop()
			parentGuard.Drop()
			return err
		}

		if leftSize+hdr.getSize() > int(hdr.MaxSize)-1 {
			return t.redistribute(siblingGuard, nodeGuard, parentGuard, &parent, idx, true)
		}
		siblingGuard.Drop()
	}
	if idx < parent.getSize()-1 {
		siblingGuard, err := t.bpm.WritePage(parent.childAt(idx + 1))
		if err != nil {
			nodeGuard.Drop()
			parentGuard.Drop()
			return err
		}

		rightSize, err = t.siblingSize(siblingGuard)
		if err != nil {
			siblingGuard.Drop()
			nodeGuard.Drop()
			parentGuard.Drop()
			return err
		}

		if rightSize+hdr.getSize() > int(hdr.MaxSize)-1 {
			return t.redistribute(siblingGuard, nodeGuard, parentGuard, &parent, idx, false)
		}
		siblingGuard.Drop()
	}

	// neither sibling can spare an entry: merge with the smaller one
	return t.coalesce(nodeGuard, parentGuard, &parent, idx, leftSize <= rightSize, txn)
}

func (t *BPlusTree[K, V]) siblingSize(guard *buffer.WritePageGuard) (int, error) {
	hdr, err := util.ToStruct[pageHeader](guard.GetData())
	if err != nil {
		return 0, err
	}
	return hdr.getSize(), nil
}

// redistribute moves exactly one entry from the sibling into the node
// and refreshes the parent's separator. fromLeft tells which side the
// sibling is on. Drops every guard it is handed.
func (t *BPlusTree[K, V]) redistribute(siblingGuard, nodeGuard, parentGuard *buffer.WritePageGuard, parent *internalPage[K], idx int, fromLeft bool) error {
	defer siblingGuard.Drop()
	defer nodeGuard.Drop()
	defer parentGuard.Drop()

	hdr, err := util.ToStruct[pageHeader](nodeGuard.GetData())
	if err != nil {
		return err
	}

	if hdr.isLeafPage() {
		node, err := util.ToStruct[leafPage[K, V]](nodeGuard.GetData())
		if err != nil {
			return err
		}
		sibling, err := util.ToStruct[leafPage[K, V]](siblingGuard.GetData())
		if err != nil {
			return err
		}

		if fromLeft {
			sibling.moveLastToFrontOf(&node)
			parent.setKeyAt(idx, node.keyAt(0))
		} else {
			sibling.moveFirstToEndOf(&node)
			parent.setKeyAt(idx+1, sibling.keyAt(0))
		}

		if err := saveInto(nodeGuard, &node); err != nil {
			return err
		}
		if err := saveInto(siblingGuard, &sibling); err != nil {
			return err
		}
		return saveInto(parentGuard, parent)
	}

	node, err := util.ToStruct[internalPage[K]](nodeGuard.GetData())
	if err != nil {
		return err
	}
	sibling, err := util.ToStruct[internalPage[K]](siblingGuard.GetData())
	if err != nil {
		return err
	}

	if fromLeft {
		newSeparator := sibling.moveLastToFrontOf(&node, parent.keyAt(idx))
		parent.setKeyAt(idx, newSeparator)
	} else {
		newSeparator := sibling.moveFirstToEndOf(&node, parent.keyAt(idx+1))
		parent.setKeyAt(idx+1, newSeparator)
	}

	if err := saveInto(nodeGuard, &node); err != nil {
		return err
	}
	if err := saveInto(siblingGuard, &sibling); err != nil {
		return err
	}
	return saveInto(parentGuard, parent)
}

// coalesce merges the node with the chosen sibling, always moving the
// right page's entries into the left one, removes the dead child's
// slot from the parent, and recurses when the parent underflows in
// turn. Takes ownership of nodeGuard and parentGuard.
func (t *BPlusTree[K, V]) coalesce(nodeGuard, parentGuard *buffer.WritePageGuard, parent *internalPage[K], idx int, withLeft bool, txn *concurrency.Transaction) error {
	var survivorGuard, victimGuard *buffer.WritePageGuard
	var sepIdx int

	if withLeft {
		guard, err := t.bpm.WritePage(parent.childAt(idx - 1))
		if err != nil {
			nodeGuard.Drop()
			parentGuard.Drop()
			return err
		}
		survivorGuard, victimGuard, sepIdx = guard, nodeGuard, idx
	} else {
		guard, err := t.bpm.WritePage(parent.childAt(idx + 1))
		if err != nil {
			nodeGuard.Drop()
			parentGuard.Drop()
			return err
		}
		survivorGuard, victimGuard, sepIdx = nodeGuard, guard, idx+1
	}

	hdr, err := util.ToStruct[pageHeader](victimGuard.GetData())
	if err == nil {
		if hdr.isLeafPage() {
			err = t.mergeLeaves(survivorGuard, victimGuard)
		} else {
			err = t.mergeInternals(survivorGuard, victimGuard, parent.keyAt(sepIdx))
		}
	}
	if err != nil {
		survivorGuard.Drop()
		victimGuard.Drop()
		parentGuard.Drop()
		return err
	}

	parent.remove(sepIdx)
	if err := saveInto(parentGuard, parent); err != nil {
		survivorGuard.Drop()
		victimGuard.Drop()
		parentGuard.Drop()
		return err
	}

	victimId := victimGuard.PageId()
	victimGuard.Drop()
	survivorGuard.Drop()
	txn.AddIntoDeletedPageSet(victimId)

	if parent.getSize() < parent.minSize() || (parent.isRootPage() && parent.getSize() == 1) {
		return t.coalesceOrRedistribute(parentGuard, txn)
	}

	parentGuard.Drop()
	return nil
}

func (t *BPlusTree[K, V]) mergeLeaves(survivorGuard, victimGuard *buffer.WritePageGuard) error {
	survivor, err := util.ToStruct[leafPage[K, V]](survivorGuard.GetData())
	if err != nil {
		return err
	}
	victim, err := util.ToStruct[leafPage[K, V]](victimGuard.GetData())
	if err != nil {
		return err
	}

	victim.moveAllTo(&survivor)
	survivor.Next = victim.Next

	return saveInto(survivorGuard, &survivor)
}

func (t *BPlusTree[K, V]) mergeInternals(survivorGuard, victimGuard *buffer.WritePageGuard, middleKey K) error {
	survivor, err := util.ToStruct[internalPage[K]](survivorGuard.GetData())
	if err != nil {
		return err
	}
	victim, err := util.ToStruct[internalPage[K]](victimGuard.GetData())
	if err != nil {
		return err
	}

	victim.moveAllTo(&survivor, middleKey)

	return saveInto(survivorGuard, &survivor)
}

// adjustRoot handles underflow at the root itself: an internal root
// left with a single child hands the tree over to that child, and an
// emptied leaf root leaves the tree empty. A root holding anything
// else is allowed to stay below minSize. Takes ownership of rootGuard;
// rootMu is necessarily still held.
func (t *BPlusTree[K, V]) adjustRoot(rootGuard *buffer.WritePageGuard, hdr *pageHeader, txn *concurrency.Transaction) error {
	if !hdr.isLeafPage() && hdr.getSize() == 1 {
		root, err := util.ToStruct[internalPage[K]](rootGuard.GetData())
		if err != nil {
			rootGuard.Drop()
			return err
		}

		childId := root.removeAndReturnOnlyChild()
		oldRootId := rootGuard.PageId()
		rootGuard.Drop()

		if err := t.markRoot(childId); err != nil {
			return err
		}

		txn.AddIntoDeletedPageSet(oldRootId)
		t.rootPageId = childId
		return upsertRecord(t.bpm, t.indexName, childId)
	}

	if hdr.isLeafPage() && hdr.getSize() == 0 {
		oldRootId := rootGuard.PageId()
		rootGuard.Drop()

		txn.AddIntoDeletedPageSet(oldRootId)
		t.rootPageId = INVALID_PAGE_ID
		return deleteRecord(t.bpm, t.indexName)
	}

	rootGuard.Drop()
	return nil
}

// markRoot flips the IsRoot flag on a page promoted by a root
// collapse.
func (t *BPlusTree[K, V]) markRoot(pageId int64) error {
	guard, err := t.bpm.WritePage(pageId)
	if err != nil {
		return err
	}
	defer guard.Drop()

	hdr, err := util.ToStruct[pageHeader](guard.GetData())
	if err != nil {
		return err
	}

	if hdr.isLeafPage() {
		leaf, err := util.ToStruct[leafPage[K, V]](guard.GetData())
		if err != nil {
			return err
		}
		leaf.IsRoot = true
		return saveInto(guard, &leaf)
	}

	internal, err := util.ToStruct[internalPage[K]](guard.GetData())
	if err != nil {
		return err
	}
	internal.IsRoot = true
	return saveInto(guard, &internal)
}

/*****************************************************************************
 * DESCENT HELPERS
 *****************************************************************************/

// findLeafWriteOptimistic crabs shared latches down the tree and
// returns the target leaf under an exclusive latch. The upgrade from
// shared to exclusive happens while the parent's shared latch (or
// rootMu, for a root leaf) is still held, so the leaf cannot be split
// away in the gap: a split would need the parent exclusively.
func (t *BPlusTree[K, V]) findLeafWriteOptimistic(key K, releaseRoot func()) (*buffer.WritePageGuard, error) {
	guard, err := t.bpm.ReadPage(t.rootPageId)
	if err != nil {
		return nil, err
	}

	hdr, err := util.ToStruct[pageHeader](guard.GetData())
	if err != nil {
		guard.Drop()
		return nil, err
	}

	if hdr.isLeafPage() {
		// root leaf: rootMu stays held across the upgrade
		pageId := guard.PageId()
		guard.Drop()
		return t.bpm.WritePage(pageId)
	}

	// the root is internal: it can no longer be mutated by this
	// operation's optimistic attempt
	releaseRoot()

	for {
		internal, err := util.ToStruct[internalPage[K]](guard.GetData())
		if err != nil {
			guard.Drop()
			return nil, err
		}

		childId := internal.lookup(key)
		childGuard, err := t.bpm.ReadPage(childId)
		if err != nil {
			guard.Drop()
			return nil, err
		}

		childHdr, err := util.ToStruct[pageHeader](childGuard.GetData())
		if err != nil {
			childGuard.Drop()
			guard.Drop()
			return nil, err
		}

		if childHdr.isLeafPage() {
			childGuard.Drop()
			leafGuard, err := t.bpm.WritePage(childId)
			guard.Drop()
			return leafGuard, err
		}

		guard.Drop()
		guard = childGuard
	}
}

// findLeafExclusive descends with exclusive latches all the way down,
// accumulating ancestors in the transaction's page set. Whenever a
// child turns out safe for the access mode, every strict ancestor is
// released, along with rootMu: the structural change cannot climb past
// a safe node. The returned leaf guard is not part of the page set.
func (t *BPlusTree[K, V]) findLeafExclusive(key K, mode accessMode, txn *concurrency.Transaction, releaseRoot func()) (*buffer.WritePageGuard, error) {
	guard, err := t.bpm.WritePage(t.rootPageId)
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
			return guard, nil
		}

		internal, err := util.ToStruct[internalPage[K]](guard.GetData())
		if err != nil {
			guard.Drop()
			return nil, err
		}

		txn.AddIntoPageSet(guard)

		childGuard, err := t.bpm.WritePage(internal.lookup(key))
		if err != nil {
			return nil, err
		}

		childHdr, err := util.ToStruct[pageHeader](childGuard.GetData())
		if err != nil {
			childGuard.Drop()
			return nil, err
		}

		if childHdr.isSafe(mode) {
			releaseRoot()
			txn.ReleasePageSet()
		}

		guard = childGuard
	}
}

// saveInto serializes a page struct back into its guard's frame.
func saveInto[T any](guard *buffer.WritePageGuard, page *T) error {
	data, err := util.ToByteSlice(*page)
	if err != nil {
		return fmt.Errorf("error serializing page: %v", err)
	}
	copy(*guard.GetDataMut(), data)
	return nil
}
