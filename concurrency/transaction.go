package concurrency

import (
	"github.com/google/uuid"

	"github.com/osprey-db/osprey/buffer"
)

// Transaction carries the per-operation state a tree descent needs:
// the exclusively latched ancestor pages, in descent order, and the
// pages deleted by coalescing for post-operation cleanup.
type Transaction struct {
	id         uuid.UUID
	pageSet    []*buffer.WritePageGuard
	deletedSet []int64
}

func NewTransaction() *Transaction {
	return &Transaction{id: uuid.New()}
}

func (t *Transaction) Id() uuid.UUID {
	return t.id
}

func (t *Transaction) AddIntoPageSet(guard *buffer.WritePageGuard) {
	t.pageSet = append(t.pageSet, guard)
}

// PopPageSet removes and returns the most recently latched page, the
// current node's parent during splits and merges.
func (t *Transaction) PopPageSet() *buffer.WritePageGuard {
	if len(t.pageSet) == 0 {
		return nil
	}

	last := t.pageSet[len(t.pageSet)-1]
	t.pageSet = t.pageSet[:len(t.pageSet)-1]
	return last
}

// ReleasePageSet drops every held ancestor latch, oldest first.
func (t *Transaction) ReleasePageSet() {
	for _, guard := range t.pageSet {
		guard.Drop()
	}
	t.pageSet = t.pageSet[:0]
}

func (t *Transaction) PageSetEmpty() bool {
	return len(t.pageSet) == 0
}

func (t *Transaction) AddIntoDeletedPageSet(pageId int64) {
	t.deletedSet = append(t.deletedSet, pageId)
}

// DrainDeletedPageSet hands the deleted pages to the caller and clears
// the set.
func (t *Transaction) DrainDeletedPageSet() []int64 {
	deleted := t.deletedSet
	t.deletedSet = nil
	return deleted
}
