package buffer

// Page guards bundle a frame's latch with its pin. Holding a guard is
// the only way code outside this package touches page bytes, which
// keeps the latching rule (every access under shared or exclusive
// latch) and the pin protocol (one unpin per fetch) in one place.

type PageGuard struct {
	frame *Frame
	bpm   *BufferpoolManager
}

type ReadPageGuard struct {
	PageGuard
}

type WritePageGuard struct {
	PageGuard
}

func newReadPageGuard(frame *Frame, bpm *BufferpoolManager) *ReadPageGuard {
	return &ReadPageGuard{PageGuard{frame: frame, bpm: bpm}}
}

func newWritePageGuard(frame *Frame, bpm *BufferpoolManager) *WritePageGuard {
	return &WritePageGuard{PageGuard{frame: frame, bpm: bpm}}
}

func (pg *PageGuard) PageId() int64 {
	return pg.frame.pageId
}

// Drop releases the shared latch and returns the pin. Safe to call on
// a nil or already-dropped guard.
func (pg *ReadPageGuard) Drop() {
	if pg == nil || pg.frame == nil {
		return
	}

	frame := pg.frame
	pg.frame = nil

	frame.latch.RUnlock()
	pg.bpm.unpinFrame(frame)
}

// Drop releases the exclusive latch and returns the pin. Safe to call
// on a nil or already-dropped guard.
func (pg *WritePageGuard) Drop() {
	if pg == nil || pg.frame == nil {
		return
	}

	frame := pg.frame
	pg.frame = nil

	frame.latch.Unlock()
	pg.bpm.unpinFrame(frame)
}

func (pg *ReadPageGuard) GetData() []byte {
	return pg.frame.data
}

func (pg *WritePageGuard) GetData() []byte {
	return pg.frame.data
}

func (pg *WritePageGuard) GetDataMut() *[]byte {
	return &pg.frame.data
}
