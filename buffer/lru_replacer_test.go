package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLRUReplacer(t *testing.T) {
	t.Run("victim on empty replacer is not ok", func(t *testing.T) {
		replacer := NewLRUReplacer(5)

		frameId, ok := replacer.Victim()
		assert.False(t, ok)
		assert.Equal(t, INVALID_FRAME_ID, frameId)
	})

	t.Run("evicts least recently unpinned frame first", func(t *testing.T) {
		replacer := NewLRUReplacer(5)

		replacer.Unpin(1)
		replacer.Unpin(2)
		replacer.Unpin(3)
		assert.Equal(t, 3, replacer.Size())

		for _, want := range []int{1, 2, 3} {
			frameId, ok := replacer.Victim()
			assert.True(t, ok)
			assert.Equal(t, want, frameId)
		}
		assert.Equal(t, 0, replacer.Size())
	})

	t.Run("pin removes a frame from the candidates", func(t *testing.T) {
		replacer := NewLRUReplacer(5)

		replacer.Unpin(1)
		replacer.Unpin(2)
		replacer.Unpin(3)

		replacer.Pin(1)
		assert.Equal(t, 2, replacer.Size())

		frameId, ok := replacer.Victim()
		assert.True(t, ok)
		assert.Equal(t, 2, frameId)
	})

	t.Run("pin is idempotent", func(t *testing.T) {
		replacer := NewLRUReplacer(5)

		replacer.Unpin(1)
		replacer.Pin(1)
		replacer.Pin(1)
		assert.Equal(t, 0, replacer.Size())

		// a fresh frame is conceptually pinned already
		replacer.Pin(4)
		assert.Equal(t, 0, replacer.Size())
	})

	t.Run("unpin is idempotent and keeps the original position", func(t *testing.T) {
		replacer := NewLRUReplacer(5)

		replacer.Unpin(1)
		replacer.Unpin(2)
		replacer.Unpin(1)
		assert.Equal(t, 2, replacer.Size())

		// 1 was unpinned before 2 and the repeat did not move it
		frameId, ok := replacer.Victim()
		assert.True(t, ok)
		assert.Equal(t, 1, frameId)
	})

	t.Run("victim marks the frame pinned", func(t *testing.T) {
		replacer := NewLRUReplacer(5)

		replacer.Unpin(1)
		replacer.Unpin(2)

		frameId, ok := replacer.Victim()
		assert.True(t, ok)
		assert.Equal(t, 1, frameId)

		// the evicted frame can go around again
		replacer.Unpin(1)
		assert.Equal(t, 2, replacer.Size())

		frameId, ok = replacer.Victim()
		assert.True(t, ok)
		assert.Equal(t, 2, frameId)

		frameId, ok = replacer.Victim()
		assert.True(t, ok)
		assert.Equal(t, 1, frameId)
	})

	t.Run("size tracks net unpinned frames across interleavings", func(t *testing.T) {
		replacer := NewLRUReplacer(64)

		for i := range 10 {
			replacer.Unpin(i)
		}
		for i := range 5 {
			replacer.Pin(i)
		}
		replacer.Unpin(2)
		replacer.Unpin(2)

		assert.Equal(t, 6, replacer.Size())
	})
}
