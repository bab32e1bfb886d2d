package pager

import (
	"github.com/sarchlab/akita/v3/mem/vm"

	"gitlab.com/akita/lrusim/clock"
)

// A Frame describes one physical frame. When Occupied is false, Dirty, Owner
// and Page carry whatever the last occupant left behind and must be ignored.
type Frame struct {
	Occupied bool           `json:"occupied"`
	Dirty    bool           `json:"dirty"`
	Owner    vm.PID         `json:"owner"`
	Page     uint64         `json:"page"`
	LastRef  clock.SimClock `json:"last_ref"`
}

// Holds reports whether the frame currently holds page of process pid.
func (f Frame) Holds(pid vm.PID, page uint64) bool {
	return f.Occupied && f.Owner == pid && f.Page == page
}

// A FrameTable is the fixed set of physical frames shared by all processes.
// Frames are never released. They change hands only by being evicted.
type FrameTable struct {
	frames      []Frame
	numOccupied int
}

// NewFrameTable creates a table of n empty frames.
func NewFrameTable(n int) *FrameTable {
	return &FrameTable{
		frames: make([]Frame, n),
	}
}

// Len returns the number of frames.
func (t *FrameTable) Len() int {
	return len(t.frames)
}

// At returns a copy of frame i.
func (t *FrameTable) At(i int) Frame {
	return t.frames[i]
}

// NumOccupied returns how many frames hold a page.
func (t *FrameTable) NumOccupied() int {
	return t.numOccupied
}

// FirstFree returns the lowest-indexed unoccupied frame.
func (t *FrameTable) FirstFree() (int, bool) {
	if t.numOccupied == len(t.frames) {
		return 0, false
	}

	for i := range t.frames {
		if !t.frames[i].Occupied {
			return i, true
		}
	}

	return 0, false
}

func (t *FrameTable) touch(i int, at clock.SimClock, write bool) {
	f := &t.frames[i]
	if write {
		f.Dirty = true
	}
	f.LastRef = at
}

func (t *FrameTable) install(
	i int,
	pid vm.PID,
	page uint64,
	write bool,
	at clock.SimClock,
) {
	if !t.frames[i].Occupied {
		t.numOccupied++
	}

	t.frames[i] = Frame{
		Occupied: true,
		Dirty:    write,
		Owner:    pid,
		Page:     page,
		LastRef:  at,
	}
}

func (t *FrameTable) copyFrames() []Frame {
	frames := make([]Frame, len(t.frames))
	copy(frames, t.frames)
	return frames
}
