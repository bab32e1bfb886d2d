// Package oss drives the pager from a discrete-event engine. Simulated
// processes send RequestEvents to the Manager and wait for the GrantEvent
// that answers them. The Launcher admits new processes over time.
package oss

import (
	"github.com/sarchlab/akita/v3/mem/vm"
	"github.com/sarchlab/akita/v3/sim"

	"gitlab.com/akita/lrusim/pager"
)

// A RequestEvent carries a memory request to the Manager.
type RequestEvent struct {
	*sim.EventBase
	Req  pager.Request
	From sim.Handler
}

func newRequestEvent(
	t sim.VTimeInSec,
	manager sim.Handler,
	req pager.Request,
	from sim.Handler,
) *RequestEvent {
	return &RequestEvent{
		EventBase: sim.NewEventBase(t, manager),
		Req:       req,
		From:      from,
	}
}

// A GrantEvent carries the answer to a request back to its sender. Err is set
// only if the request was malformed, in which case Grant is empty.
type GrantEvent struct {
	*sim.EventBase
	Grant pager.Grant
	Err   error
}

// A SpawnEvent asks the Launcher to try to admit a new process.
type SpawnEvent struct {
	*sim.EventBase
}

// A Worker is a simulated process that the Launcher can start.
type Worker interface {
	sim.Handler
	PID() vm.PID
	Start(now sim.VTimeInSec)
}

// A WorkerFactory creates the worker for pid.
type WorkerFactory func(pid vm.PID) Worker

// An ExitListener is told when a worker terminates.
type ExitListener interface {
	NotifyExit(pid vm.PID, now sim.VTimeInSec)
}

// A SnapshotObserver receives snapshots chosen by the sampling policy.
type SnapshotObserver interface {
	ObserveSnapshot(s pager.Snapshot)
}
