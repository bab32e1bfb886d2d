package oss

import (
	"log"

	"github.com/sarchlab/akita/v3/mem/vm"
	"github.com/sarchlab/akita/v3/sim"
)

// pendingEntry is a request that arrived and has not been granted yet.
type pendingEntry struct {
	PID       vm.PID
	RequestID string
	Address   uint64
	IssueTime sim.VTimeInSec
}

// pendingTable tracks the outstanding request of every process. A process
// waits for its grant, so it never has more than one entry.
type pendingTable struct {
	entries map[vm.PID]*pendingEntry
}

func newPendingTable() *pendingTable {
	t := new(pendingTable)
	t.Reset()
	return t
}

func (t *pendingTable) Add(
	pid vm.PID,
	reqID string,
	addr uint64,
	issueTime sim.VTimeInSec,
) *pendingEntry {
	if e, found := t.entries[pid]; found {
		log.Panicf("pid %d sent request %s while %s is outstanding",
			pid, reqID, e.RequestID)
	}

	e := &pendingEntry{
		PID:       pid,
		RequestID: reqID,
		Address:   addr,
		IssueTime: issueTime,
	}
	t.entries[pid] = e

	return e
}

func (t *pendingTable) Query(pid vm.PID) *pendingEntry {
	return t.entries[pid]
}

func (t *pendingTable) Remove(pid vm.PID) *pendingEntry {
	e, found := t.entries[pid]
	if !found {
		panic("trying to remove an non-exist entry")
	}

	delete(t.entries, pid)
	return e
}

func (t *pendingTable) Len() int {
	return len(t.entries)
}

func (t *pendingTable) Reset() {
	t.entries = make(map[vm.PID]*pendingEntry)
}
