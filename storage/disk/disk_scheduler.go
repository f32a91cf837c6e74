package disk

import (
	"sync"
)

// Scheduler accepts read/write requests on a channel and hands each
// page its own worker goroutine, so requests against the same page are
// applied in arrival order while distinct pages proceed in parallel.
type Scheduler struct {
	reqCh       chan Request
	diskManager *Manager

	pageQueueMu sync.Mutex
	pageQueue   map[int64]chan Request
}

type Request struct {
	PageId int64
	Data   []byte
	Write  bool
	RespCh chan Response
}

type Response struct {
	Success bool
	Data    []byte
}

func NewScheduler(diskManager *Manager) *Scheduler {
	ds := &Scheduler{
		reqCh:       make(chan Request, 100),
		pageQueue:   make(map[int64]chan Request),
		diskManager: diskManager,
	}

	go ds.handleRequests()
	return ds
}

func NewRequest(pageId int64, data []byte, isWrite bool) Request {
	return Request{
		PageId: pageId,
		Data:   data,
		Write:  isWrite,
		RespCh: make(chan Response, 1),
	}
}

func (ds *Scheduler) Manager() *Manager {
	return ds.diskManager
}

func (ds *Scheduler) Schedule(req Request) <-chan Response {
	ds.reqCh <- req
	return req.RespCh
}

func (ds *Scheduler) handleRequests() {
	for req := range ds.reqCh {
		// enqueue under the mutex so a retiring worker cannot miss the
		// request: retirement also holds the mutex and re-checks the
		// queue length
		ds.pageQueueMu.Lock()
		queue, ok := ds.pageQueue[req.PageId]
		if !ok {
			queue = make(chan Request, 10)
			ds.pageQueue[req.PageId] = queue
		}
		queue <- req
		ds.pageQueueMu.Unlock()

		if !ok {
			go ds.pageWorker(req.PageId, queue)
		}
	}
}

func (ds *Scheduler) pageWorker(pageId int64, reqQueue chan Request) {
	for {
		select {
		case req := <-reqQueue:
			if req.Write {
				if err := ds.diskManager.WritePage(req.PageId, req.Data); err != nil {
					req.RespCh <- Response{Success: false}
				} else {
					req.RespCh <- Response{Success: true}
				}
			} else {
				if data, err := ds.diskManager.ReadPage(req.PageId); err != nil {
					req.RespCh <- Response{Success: false}
				} else {
					req.RespCh <- Response{Success: true, Data: data}
				}
			}

		default:
			ds.pageQueueMu.Lock()
			if len(reqQueue) == 0 {
				// queue drained, retire this page's worker
				delete(ds.pageQueue, pageId)
				ds.pageQueueMu.Unlock()
				return
			}
			ds.pageQueueMu.Unlock()
		}
	}
}
