package index

import (
	"cmp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/osprey-db/osprey/util"
)

// checkInvariants walks the whole tree and asserts the structural
// rules: strictly ascending keys per page, non-root sizes within
// bounds, all leaves at equal depth, subtree keys within the interval
// set by the surrounding separators, and a leaf chain that visits the
// leaves in order.
func checkInvariants[K cmp.Ordered, V any](t *testing.T, tree *BPlusTree[K, V]) {
	t.Helper()

	tree.rootMu.Lock()
	rootId := tree.rootPageId
	tree.rootMu.Unlock()

	if rootId == INVALID_PAGE_ID {
		return
	}

	leafDepth := -1
	leaves := []int64{}
	allKeys := []K{}

	var walk func(pageId int64, depth int, lower, upper *K, isRoot bool)
	walk = func(pageId int64, depth int, lower, upper *K, isRoot bool) {
		guard, err := tree.bpm.ReadPage(pageId)
		assert.NoError(t, err)

		hdr, err := util.ToStruct[pageHeader](guard.GetData())
		assert.NoError(t, err)
		assert.Equal(t, isRoot, hdr.isRootPage(), "page %d root flag", pageId)
		assert.Equal(t, pageId, hdr.PageId, "page %d self id", pageId)

		if !isRoot {
			assert.GreaterOrEqual(t, hdr.getSize(), hdr.minSize(), "page %d underflow", pageId)
			assert.LessOrEqual(t, hdr.getSize(), int(hdr.MaxSize)-1, "page %d overflow", pageId)
		}

		if hdr.isLeafPage() {
			leaf, err := util.ToStruct[leafPage[K, V]](guard.GetData())
			guard.Drop()
			assert.NoError(t, err)

			if leafDepth == -1 {
				leafDepth = depth
			}
			assert.Equal(t, leafDepth, depth, "leaf %d depth", pageId)
			leaves = append(leaves, pageId)

			for i, key := range leaf.Keys {
				if i > 0 {
					assert.Less(t, leaf.Keys[i-1], key, "leaf %d key order", pageId)
				}
				if lower != nil {
					assert.GreaterOrEqual(t, key, *lower, "leaf %d lower bound", pageId)
				}
				if upper != nil {
					assert.Less(t, key, *upper, "leaf %d upper bound", pageId)
				}
			}
			allKeys = append(allKeys, leaf.Keys...)
			return
		}

		internal, err := util.ToStruct[internalPage[K]](guard.GetData())
		guard.Drop()
		assert.NoError(t, err)
		assert.Equal(t, internal.getSize(), len(internal.Children), "internal %d child count", pageId)

		for i := 2; i < internal.getSize(); i++ {
			assert.Less(t, internal.keyAt(i-1), internal.keyAt(i), "internal %d separator order", pageId)
		}

		for i := range internal.getSize() {
			childLower, childUpper := lower, upper
			if i > 0 {
				key := internal.keyAt(i)
				childLower = &key
			}
			if i+1 < internal.getSize() {
				key := internal.keyAt(i + 1)
				childUpper = &key
			}
			walk(internal.childAt(i), depth+1, childLower, childUpper, false)
		}
	}

	walk(rootId, 0, nil, nil, true)

	for i := 1; i < len(allKeys); i++ {
		assert.Less(t, allKeys[i-1], allKeys[i], "global key order")
	}

	// the leaf chain visits the leaves left to right
	chain := []int64{}
	pageId := leaves[0]
	for pageId != INVALID_PAGE_ID {
		chain = append(chain, pageId)
		leaf := readLeaf[K, V](t, tree.bpm, pageId)
		pageId = leaf.Next
	}
	assert.Equal(t, leaves, chain)
}
