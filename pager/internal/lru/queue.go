// Package lru keeps the recency order of occupied frames.
package lru

import (
	"github.com/google/btree"

	"gitlab.com/akita/lrusim/clock"
)

type block struct {
	frame   int
	lastRef clock.SimClock
}

// Less orders blocks by last reference time. Blocks referenced at the same
// time are ordered by frame index so that the lowest index is evicted first.
func (b *block) Less(than btree.Item) bool {
	other := than.(*block)
	if c := b.lastRef.Compare(other.lastRef); c != 0 {
		return c < 0
	}
	return b.frame < other.frame
}

// A Queue orders frames from least to most recently referenced.
type Queue struct {
	visitTree *btree.BTree
	blocks    map[int]*block
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{
		visitTree: btree.New(2),
		blocks:    make(map[int]*block),
	}
}

// Visit records that frame was referenced at time at.
func (q *Queue) Visit(frame int, at clock.SimClock) {
	b, found := q.blocks[frame]
	if found {
		q.visitTree.Delete(b)
	} else {
		b = &block{frame: frame}
		q.blocks[frame] = b
	}

	b.lastRef = at
	q.visitTree.ReplaceOrInsert(b)
}

// Oldest returns the least recently referenced frame.
func (q *Queue) Oldest() (frame int, ok bool) {
	item := q.visitTree.Min()
	if item == nil {
		return 0, false
	}
	return item.(*block).frame, true
}

// Len returns the number of frames tracked.
func (q *Queue) Len() int {
	return q.visitTree.Len()
}

// Ascend calls fn for every frame from oldest to newest until fn returns
// false.
func (q *Queue) Ascend(fn func(frame int, lastRef clock.SimClock) bool) {
	q.visitTree.Ascend(func(i btree.Item) bool {
		b := i.(*block)
		return fn(b.frame, b.lastRef)
	})
}
