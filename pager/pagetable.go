package pager

import (
	"encoding/json"
	"fmt"

	"github.com/sarchlab/akita/v3/mem/vm"
)

// A FrameRef is a page table entry. It either names a frame or is unmapped.
// The zero value is unmapped.
type FrameRef struct {
	index  int
	mapped bool
}

// Mapped returns an entry pointing at frame i.
func Mapped(i int) FrameRef {
	return FrameRef{index: i, mapped: true}
}

// Unmapped returns an empty entry.
func Unmapped() FrameRef {
	return FrameRef{}
}

// Index returns the frame index and whether the entry is mapped.
func (r FrameRef) Index() (int, bool) {
	return r.index, r.mapped
}

// IsMapped reports whether the entry names a frame.
func (r FrameRef) IsMapped() bool {
	return r.mapped
}

func (r FrameRef) String() string {
	if !r.mapped {
		return "-"
	}
	return fmt.Sprintf("%d", r.index)
}

// MarshalJSON encodes a mapped entry as its frame index and an unmapped one
// as null.
func (r FrameRef) MarshalJSON() ([]byte, error) {
	if !r.mapped {
		return []byte("null"), nil
	}
	return json.Marshal(r.index)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (r *FrameRef) UnmarshalJSON(data []byte) error {
	var idx *int
	if err := json.Unmarshal(data, &idx); err != nil {
		return err
	}

	if idx == nil {
		*r = Unmapped()
		return nil
	}

	*r = Mapped(*idx)
	return nil
}

// A PageTable maps page numbers of one process slot to frames.
type PageTable struct {
	entries []FrameRef
}

func newPageTable(numPages int) PageTable {
	return PageTable{entries: make([]FrameRef, numPages)}
}

// Lookup returns the entry of page.
func (t *PageTable) Lookup(page uint64) FrameRef {
	return t.entries[page]
}

// Len returns the number of pages the table covers.
func (t *PageTable) Len() int {
	return len(t.entries)
}

func (t *PageTable) set(page uint64, ref FrameRef) {
	t.entries[page] = ref
}

// A SlotFunc maps a process ID onto one of numSlots page tables. Different
// PIDs may share a slot.
type SlotFunc func(pid vm.PID, numSlots int) int

// ModuloSlot is the default SlotFunc.
func ModuloSlot(pid vm.PID, numSlots int) int {
	return int(uint64(pid) % uint64(numSlots))
}

// A PageTableSet holds one page table per process slot.
type PageTableSet struct {
	tables   []PageTable
	slotFunc SlotFunc
}

// NewPageTableSet creates numSlots page tables of numPages entries each.
func NewPageTableSet(numSlots, numPages int, slotFunc SlotFunc) *PageTableSet {
	if slotFunc == nil {
		slotFunc = ModuloSlot
	}

	s := &PageTableSet{
		tables:   make([]PageTable, numSlots),
		slotFunc: slotFunc,
	}
	for i := range s.tables {
		s.tables[i] = newPageTable(numPages)
	}

	return s
}

// NumSlots returns the number of page tables.
func (s *PageTableSet) NumSlots() int {
	return len(s.tables)
}

// SlotOf returns the slot of pid. The second return value is false if the
// slot function produced an index outside the set.
func (s *PageTableSet) SlotOf(pid vm.PID) (int, bool) {
	slot := s.slotFunc(pid, len(s.tables))
	if slot < 0 || slot >= len(s.tables) {
		return slot, false
	}
	return slot, true
}

// Table returns the page table of slot.
func (s *PageTableSet) Table(slot int) *PageTable {
	return &s.tables[slot]
}

func (s *PageTableSet) copyEntries() [][]FrameRef {
	entries := make([][]FrameRef, len(s.tables))
	for i := range s.tables {
		entries[i] = make([]FrameRef, len(s.tables[i].entries))
		copy(entries[i], s.tables[i].entries)
	}
	return entries
}
