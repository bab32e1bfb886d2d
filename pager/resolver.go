// Package pager implements the page-fault resolution engine: a shared frame
// table, per-slot page tables, LRU replacement and the logical clock that
// orders everything.
//
// A Resolver is not safe for concurrent use. Every request must be resolved
// by the single owner of the Resolver, one at a time.
package pager

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rs/xid"
	"github.com/sarchlab/akita/v3/mem/vm"
	"github.com/sarchlab/akita/v3/tracing"

	"gitlab.com/akita/lrusim/clock"
)

// ErrInvalidRequest is returned for requests whose address lies outside the
// address space or whose PID maps to no page table.
var ErrInvalidRequest = errors.New("invalid request")

// A Request asks for one memory access on behalf of a process.
type Request struct {
	ID      string
	PID     vm.PID
	Address uint64
	IsWrite bool
}

// NewRequest creates a request with a fresh ID.
func NewRequest(pid vm.PID, address uint64, isWrite bool) Request {
	return Request{
		ID:      xid.New().String(),
		PID:     pid,
		Address: address,
		IsWrite: isWrite,
	}
}

// Outcome tells how a request was served.
type Outcome int

// Outcomes of a resolved request.
const (
	Hit Outcome = iota
	FaultFreeFrame
	FaultEvictClean
	FaultEvictDirty
)

// IsFault reports whether the request missed.
func (o Outcome) IsFault() bool {
	return o != Hit
}

// IsEviction reports whether a resident page was replaced.
func (o Outcome) IsEviction() bool {
	return o == FaultEvictClean || o == FaultEvictDirty
}

func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case FaultFreeFrame:
		return "fault_free_frame"
	case FaultEvictClean:
		return "fault_evict_clean"
	case FaultEvictDirty:
		return "fault_evict_dirty"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// A Grant answers a Request. Granted is always true.
type Grant struct {
	RequestID string
	PID       vm.PID
	Granted   bool
	Outcome   Outcome
	Page      uint64
	Frame     int

	// Victim holds the previous contents of Frame when Outcome is an
	// eviction.
	Victim Frame

	// Time is the clock after the request has been charged.
	Time clock.SimClock
}

// A Resolver owns the frame table, the page tables and the clock.
type Resolver struct {
	name         string
	pageSize     uint64
	numPages     int
	opQuantum    int64
	dirtyPenalty int64

	clock        clock.SimClock
	frames       *FrameTable
	pageTables   *PageTableSet
	victimFinder VictimFinder
	tracer       tracing.Tracer
	logger       *slog.Logger
}

// Name returns the name given to Build.
func (r *Resolver) Name() string {
	return r.name
}

// Clock returns the current time.
func (r *Resolver) Clock() clock.SimClock {
	return r.clock
}

// PageSize returns the page size in bytes.
func (r *Resolver) PageSize() uint64 {
	return r.pageSize
}

// NumPages returns the number of pages per address space.
func (r *Resolver) NumPages() int {
	return r.numPages
}

// NumFrames returns the number of physical frames.
func (r *Resolver) NumFrames() int {
	return r.frames.Len()
}

// AddressSpace returns the number of addressable bytes per process.
func (r *Resolver) AddressSpace() uint64 {
	return r.pageSize * uint64(r.numPages)
}

// Resolve serves req, installing the page on a fault, and advances the
// clock. Malformed requests return an error wrapping ErrInvalidRequest and
// leave all state untouched.
func (r *Resolver) Resolve(req Request) (Grant, error) {
	if req.Address >= r.AddressSpace() {
		return Grant{}, fmt.Errorf(
			"%w: address %d of pid %d outside [0, %d)",
			ErrInvalidRequest, req.Address, req.PID, r.AddressSpace())
	}

	slot, ok := r.pageTables.SlotOf(req.PID)
	if !ok {
		return Grant{}, fmt.Errorf("%w: pid %d maps to slot %d of %d",
			ErrInvalidRequest, req.PID, slot, r.pageTables.NumSlots())
	}

	r.startTask(req)

	page := req.Address / r.pageSize
	table := r.pageTables.Table(slot)

	var grant Grant
	if frame, hit := r.lookup(table, req.PID, page); hit {
		grant = r.handleHit(req, page, frame)
	} else {
		grant = r.handleFault(req, page, table)
	}

	r.clock.Advance(0, r.opQuantum)
	grant.Time = r.clock

	r.endTask(req, grant)

	return grant, nil
}

// lookup treats a mapping as valid only if the frame still holds the page of
// this very process. Stale entries left by evictions and entries written by
// another PID of the same slot count as misses.
func (r *Resolver) lookup(
	table *PageTable,
	pid vm.PID,
	page uint64,
) (int, bool) {
	idx, mapped := table.Lookup(page).Index()
	if !mapped {
		return 0, false
	}

	if !r.frames.At(idx).Holds(pid, page) {
		return 0, false
	}

	return idx, true
}

func (r *Resolver) handleHit(req Request, page uint64, frame int) Grant {
	r.frames.touch(frame, r.clock, req.IsWrite)
	r.victimFinder.Visit(frame, r.clock)

	r.logger.Debug("page hit",
		"pid", req.PID, "page", page, "frame", frame,
		"write", req.IsWrite, "time", r.clock.String())

	return Grant{
		RequestID: req.ID,
		PID:       req.PID,
		Granted:   true,
		Outcome:   Hit,
		Page:      page,
		Frame:     frame,
	}
}

func (r *Resolver) handleFault(
	req Request,
	page uint64,
	table *PageTable,
) Grant {
	victim := r.victimFinder.FindVictim(r.frames)
	old := r.frames.At(victim)

	outcome := FaultFreeFrame
	if old.Occupied {
		outcome = FaultEvictClean
		if old.Dirty {
			outcome = FaultEvictDirty
			r.clock.Advance(0, r.dirtyPenalty)
			r.stepTask(req, "dirty_writeback")
		}

		r.logger.Debug("evicting page",
			"victim_pid", old.Owner, "victim_page", old.Page,
			"frame", victim, "dirty", old.Dirty)
	}

	r.frames.install(victim, req.PID, page, req.IsWrite, r.clock)
	r.victimFinder.Visit(victim, r.clock)
	table.set(page, Mapped(victim))

	r.logger.Debug("page fault",
		"pid", req.PID, "page", page, "frame", victim,
		"write", req.IsWrite, "outcome", outcome.String(),
		"time", r.clock.String())

	grant := Grant{
		RequestID: req.ID,
		PID:       req.PID,
		Granted:   true,
		Outcome:   outcome,
		Page:      page,
		Frame:     victim,
	}
	if outcome.IsEviction() {
		grant.Victim = old
	}

	return grant
}

func (r *Resolver) startTask(req Request) {
	if r.tracer == nil {
		return
	}

	what := "read"
	if req.IsWrite {
		what = "write"
	}

	r.tracer.StartTask(tracing.Task{
		ID:        req.ID,
		Kind:      "mem_access",
		What:      what,
		Where:     r.name,
		StartTime: r.clock.VTime(),
		Detail:    req,
	})
}

func (r *Resolver) stepTask(req Request, what string) {
	if r.tracer == nil {
		return
	}

	r.tracer.StepTask(tracing.Task{
		ID:     req.ID,
		Kind:   "mem_access",
		What:   what,
		Where:  r.name,
		Detail: req,
	})
}

func (r *Resolver) endTask(req Request, grant Grant) {
	if r.tracer == nil {
		return
	}

	r.tracer.EndTask(tracing.Task{
		ID:      req.ID,
		Kind:    "mem_access",
		What:    grant.Outcome.String(),
		Where:   r.name,
		EndTime: grant.Time.VTime(),
		Detail:  grant,
	})
}
