// Package profiler collects access statistics from the pager's tracing
// tasks and writes them out as a JSON report.
package profiler

import (
	"sort"
	"sync"

	"github.com/sarchlab/akita/v3/mem/vm"
	"github.com/sarchlab/akita/v3/sim"
	"github.com/sarchlab/akita/v3/tracing"

	"gitlab.com/akita/lrusim/pager"
)

const accessKind = "mem_access"

// PIDSummary holds the counters of one process.
type PIDSummary struct {
	PID      vm.PID `json:"pid"`
	Accesses uint64 `json:"accesses"`
	Faults   uint64 `json:"faults"`
}

// Summary is a point-in-time copy of the statistics. Invalid is left for the
// owner of the pager to fill, as refused requests never reach the tracer.
type Summary struct {
	Requests          uint64       `json:"requests"`
	Reads             uint64       `json:"reads"`
	Writes            uint64       `json:"writes"`
	Hits              uint64       `json:"hits"`
	Faults            uint64       `json:"faults"`
	FreeFrameFaults   uint64       `json:"free_frame_faults"`
	Evictions         uint64       `json:"evictions"`
	DirtyEvictions    uint64       `json:"dirty_evictions"`
	Invalid           uint64       `json:"invalid"`
	FaultRate         float64      `json:"fault_rate"`
	SimTime           float64      `json:"simtime"`
	AccessesPerSecond float64      `json:"accesses_per_second"`
	MeanLatency       float64      `json:"mean_latency"`
	WallTime          float64      `json:"walltime"`
	PerPID            []PIDSummary `json:"per_pid"`
}

// Stats is a tracing.Tracer that counts the outcome of every access the
// pager resolves. It is safe to read while the pager runs on another
// goroutine.
type Stats struct {
	lock sync.Mutex

	inflight map[string]tracing.Task
	perPID   map[vm.PID]*PIDSummary

	requests        uint64
	reads           uint64
	writes          uint64
	hits            uint64
	freeFrameFaults uint64
	cleanEvictions  uint64
	dirtyEvictions  uint64
	writebacks      uint64

	totalLatency sim.VTimeInSec
	lastEnd      sim.VTimeInSec
}

// NewStats returns an empty Stats.
func NewStats() *Stats {
	return &Stats{
		inflight: map[string]tracing.Task{},
		perPID:   map[vm.PID]*PIDSummary{},
	}
}

// StartTask records an access that the pager started to resolve.
func (s *Stats) StartTask(task tracing.Task) {
	if task.Kind != accessKind {
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.inflight[task.ID] = task
}

// StepTask counts dirty write-backs.
func (s *Stats) StepTask(task tracing.Task) {
	if task.Kind != accessKind || task.What != "dirty_writeback" {
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if _, found := s.inflight[task.ID]; !found {
		return
	}
	s.writebacks++
}

// EndTask counts the outcome of a resolved access.
func (s *Stats) EndTask(task tracing.Task) {
	if task.Kind != accessKind {
		return
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	start, found := s.inflight[task.ID]
	if !found {
		return
	}
	delete(s.inflight, task.ID)

	grant, ok := task.Detail.(pager.Grant)
	if !ok {
		return
	}

	s.requests++
	if start.What == "write" {
		s.writes++
	} else {
		s.reads++
	}

	pid := s.pidSummary(grant.PID)
	pid.Accesses++

	switch grant.Outcome {
	case pager.Hit:
		s.hits++
	case pager.FaultFreeFrame:
		s.freeFrameFaults++
	case pager.FaultEvictClean:
		s.cleanEvictions++
	case pager.FaultEvictDirty:
		s.dirtyEvictions++
	}
	if grant.Outcome.IsFault() {
		pid.Faults++
	}

	s.totalLatency += task.EndTime - start.StartTime
	if task.EndTime > s.lastEnd {
		s.lastEnd = task.EndTime
	}
}

func (s *Stats) pidSummary(pid vm.PID) *PIDSummary {
	p, found := s.perPID[pid]
	if !found {
		p = &PIDSummary{PID: pid}
		s.perPID[pid] = p
	}
	return p
}

// NumInflight returns how many accesses have started but not ended.
func (s *Stats) NumInflight() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return len(s.inflight)
}

// NumWritebacks returns how many dirty victims were written back.
func (s *Stats) NumWritebacks() uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.writebacks
}

// Summary returns a copy of the current counters.
func (s *Stats) Summary() Summary {
	s.lock.Lock()
	defer s.lock.Unlock()

	faults := s.freeFrameFaults + s.cleanEvictions + s.dirtyEvictions
	sum := Summary{
		Requests:        s.requests,
		Reads:           s.reads,
		Writes:          s.writes,
		Hits:            s.hits,
		Faults:          faults,
		FreeFrameFaults: s.freeFrameFaults,
		Evictions:       s.cleanEvictions + s.dirtyEvictions,
		DirtyEvictions:  s.dirtyEvictions,
		SimTime:         float64(s.lastEnd),
	}

	if s.requests > 0 {
		sum.FaultRate = float64(faults) / float64(s.requests)
		sum.MeanLatency = float64(s.totalLatency) / float64(s.requests)
	}
	if s.lastEnd > 0 {
		sum.AccessesPerSecond = float64(s.requests) / float64(s.lastEnd)
	}

	sum.PerPID = make([]PIDSummary, 0, len(s.perPID))
	for _, p := range s.perPID {
		sum.PerPID = append(sum.PerPID, *p)
	}
	sort.Slice(sum.PerPID, func(i, j int) bool {
		return sum.PerPID[i].PID < sum.PerPID[j].PID
	})

	return sum
}
