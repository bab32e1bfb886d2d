package pager

import (
	"github.com/sarchlab/akita/v3/mem/vm"

	"gitlab.com/akita/lrusim/clock"
)

// A Snapshot is a copy of the resolver state at one point in time.
type Snapshot struct {
	Clock      clock.SimClock `json:"clock"`
	PageSize   uint64         `json:"page_size"`
	Frames     []Frame        `json:"frames"`
	PageTables [][]FrameRef   `json:"page_tables"`
}

// Snapshot copies the current clock, frame table and page tables. It must
// not be called while a request is being resolved.
func (r *Resolver) Snapshot() Snapshot {
	return Snapshot{
		Clock:      r.clock,
		PageSize:   r.pageSize,
		Frames:     r.frames.copyFrames(),
		PageTables: r.pageTables.copyEntries(),
	}
}

// NumOccupied returns the number of frames that hold a page.
func (s Snapshot) NumOccupied() int {
	n := 0
	for _, f := range s.Frames {
		if f.Occupied {
			n++
		}
	}
	return n
}

// NumDirty returns the number of occupied dirty frames.
func (s Snapshot) NumDirty() int {
	n := 0
	for _, f := range s.Frames {
		if f.Occupied && f.Dirty {
			n++
		}
	}
	return n
}

// FramesOf returns the indices of the frames owned by pid.
func (s Snapshot) FramesOf(pid vm.PID) []int {
	var frames []int
	for i, f := range s.Frames {
		if f.Occupied && f.Owner == pid {
			frames = append(frames, i)
		}
	}
	return frames
}

// Resident reports whether page of pid is held by a frame that slot's page
// table points to.
func (s Snapshot) Resident(slot int, pid vm.PID, page uint64) bool {
	idx, mapped := s.PageTables[slot][page].Index()
	return mapped && s.Frames[idx].Holds(pid, page)
}
