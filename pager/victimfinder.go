package pager

import (
	"log"

	"gitlab.com/akita/lrusim/clock"
	"gitlab.com/akita/lrusim/pager/internal/lru"
)

// A VictimFinder decides which frame receives a faulting page.
type VictimFinder interface {
	// FindVictim returns the frame to load the faulting page into.
	FindVictim(frames *FrameTable) int

	// Visit tells the finder that frame was referenced at time at.
	Visit(frame int, at clock.SimClock)
}

// LRUVictimFinder picks the first free frame, or the least recently used
// occupied frame if there is none. Ties go to the lowest frame index.
type LRUVictimFinder struct {
	queue *lru.Queue
}

// NewLRUVictimFinder returns a newly constructed LRU victim finder.
func NewLRUVictimFinder() *LRUVictimFinder {
	return &LRUVictimFinder{
		queue: lru.NewQueue(),
	}
}

// FindVictim returns the victim frame.
func (e *LRUVictimFinder) FindVictim(frames *FrameTable) int {
	if i, ok := frames.FirstFree(); ok {
		return i
	}

	victim, ok := e.queue.Oldest()
	if !ok {
		log.Panicf("no frame to evict among %d frames", frames.Len())
	}

	return victim
}

// Visit updates the recency of frame.
func (e *LRUVictimFinder) Visit(frame int, at clock.SimClock) {
	e.queue.Visit(frame, at)
}
