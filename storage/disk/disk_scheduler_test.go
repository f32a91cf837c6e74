package disk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDiskScheduler(t *testing.T) {
	t.Run("schedule is non blocking", func(t *testing.T) {
		ds := NewScheduler(NewManager(CreateDbFile(t)))

		data := make([]byte, PAGE_SIZE)
		copy(data, []byte("hello world"))

		start := time.Now()
		ds.Schedule(NewRequest(1, data, true))
		elapsed := time.Since(start)

		assert.Less(t, elapsed, 50*time.Millisecond)
	})

	t.Run("a read scheduled after a write observes it", func(t *testing.T) {
		ds := NewScheduler(NewManager(CreateDbFile(t)))

		data := make([]byte, PAGE_SIZE)
		copy(data, []byte("hello world"))

		writeResp := ds.Schedule(NewRequest(1, data, true))
		assert.True(t, (<-writeResp).Success)

		readResp := ds.Schedule(NewRequest(1, nil, false))
		res := <-readResp
		assert.True(t, res.Success)
		assert.Equal(t, data, res.Data)
	})

	t.Run("requests against distinct pages all complete", func(t *testing.T) {
		ds := NewScheduler(NewManager(CreateDbFile(t)))

		channels := []<-chan Response{}
		for pageId := range int64(8) {
			data := make([]byte, PAGE_SIZE)
			data[0] = byte(pageId + 1)
			channels = append(channels, ds.Schedule(NewRequest(pageId+1, data, true)))
		}

		for _, ch := range channels {
			assert.True(t, (<-ch).Success)
		}

		for pageId := range int64(8) {
			res := <-ds.Schedule(NewRequest(pageId+1, nil, false))
			assert.True(t, res.Success)
			assert.Equal(t, byte(pageId+1), res.Data[0])
		}
	})
}
