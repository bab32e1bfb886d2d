// Package userproc simulates the processes that generate memory traffic.
// Each process issues one random access at a time, waits for the grant and
// terminates after a random number of operations. A process either exchanges
// events with the oss manager or calls a Submitter directly.
package userproc

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"reflect"

	"github.com/sarchlab/akita/v3/mem/vm"
	"github.com/sarchlab/akita/v3/sim"

	"gitlab.com/akita/lrusim/oss"
	"gitlab.com/akita/lrusim/pager"
)

// Default workload shape.
const (
	DefaultWriteRatio = 0.3
	DefaultMinOps     = 1000
	DefaultMaxOps     = 1200
)

// A Sender delivers requests to the memory manager.
type Sender interface {
	Send(now sim.VTimeInSec, req pager.Request, from sim.Handler)
}

// A Process is one simulated workload process.
type Process struct {
	pid        vm.PID
	sender     Sender
	exit       oss.ExitListener
	rand       *rand.Rand
	pageSize   uint64
	numPages   int
	writeRatio float64
	targetOps  int
	logger     *slog.Logger

	numOps    int
	numWrites int
	numFaults int
	done      bool
}

// A Builder can build a Process.
type Builder struct {
	sender     Sender
	exit       oss.ExitListener
	seed       int64
	pageSize   uint64
	numPages   int
	writeRatio float64
	minOps     int
	maxOps     int
	logger     *slog.Logger
}

// MakeBuilder returns a Builder with the default workload shape.
func MakeBuilder() Builder {
	return Builder{
		pageSize:   pager.DefaultPageSize,
		numPages:   pager.DefaultNumPages,
		writeRatio: DefaultWriteRatio,
		minOps:     DefaultMinOps,
		maxOps:     DefaultMaxOps,
	}
}

// WithSender sets where requests are sent.
func (b Builder) WithSender(s Sender) Builder {
	b.sender = s
	return b
}

// WithExitListener sets who is told when the process terminates.
func (b Builder) WithExitListener(l oss.ExitListener) Builder {
	b.exit = l
	return b
}

// WithSeed sets the seed of the process's random source. The PID is mixed
// into it so that processes built from one builder differ.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// WithAddressSpace sets the page size and the number of pages to draw
// addresses from.
func (b Builder) WithAddressSpace(pageSize uint64, numPages int) Builder {
	b.pageSize = pageSize
	b.numPages = numPages
	return b
}

// WithWriteRatio sets the probability that an access is a write.
func (b Builder) WithWriteRatio(r float64) Builder {
	b.writeRatio = r
	return b
}

// WithOpsRange sets the bounds, inclusive, of the number of operations a
// process performs.
func (b Builder) WithOpsRange(min, max int) Builder {
	b.minOps = min
	b.maxOps = max
	return b
}

// WithLogger sets the logger. slog.Default() is used otherwise.
func (b Builder) WithLogger(l *slog.Logger) Builder {
	b.logger = l
	return b
}

// Build returns the process with the given PID.
func (b Builder) Build(pid vm.PID) *Process {
	if b.minOps <= 0 || b.maxOps < b.minOps {
		log.Panicf("process %d: bad operation range [%d, %d]",
			pid, b.minOps, b.maxOps)
	}

	p := &Process{
		pid:        pid,
		sender:     b.sender,
		exit:       b.exit,
		rand:       rand.New(rand.NewSource(b.seed ^ int64(pid)<<32)),
		pageSize:   b.pageSize,
		numPages:   b.numPages,
		writeRatio: b.writeRatio,
		logger:     b.logger,
	}
	p.targetOps = b.minOps + p.rand.Intn(b.maxOps-b.minOps+1)

	if p.logger == nil {
		p.logger = slog.Default()
	}
	p.logger = p.logger.With("component", p.Name())

	return p
}

// Name returns the name of the process.
func (p *Process) Name() string {
	return fmt.Sprintf("Proc[%d]", p.pid)
}

// PID returns the process ID.
func (p *Process) PID() vm.PID {
	return p.pid
}

// TargetOps returns how many operations the process performs.
func (p *Process) TargetOps() int {
	return p.targetOps
}

// NumOps returns how many operations have been granted.
func (p *Process) NumOps() int {
	return p.numOps
}

// NumWrites returns how many of the requests sent were writes.
func (p *Process) NumWrites() int {
	return p.numWrites
}

// NumFaults returns how many granted operations faulted.
func (p *Process) NumFaults() int {
	return p.numFaults
}

// Done reports whether the process has terminated.
func (p *Process) Done() bool {
	return p.done
}

// Start sends the first request. The rest follow as grants arrive.
func (p *Process) Start(now sim.VTimeInSec) {
	if p.sender == nil {
		log.Panicf("process %d has no sender", p.pid)
	}
	p.sendNext(now)
}

// A Submitter resolves a request synchronously.
type Submitter interface {
	Submit(ctx context.Context, req pager.Request) (pager.Grant, error)
}

// Run performs every operation of the process through sub, one blocking
// call at a time, instead of exchanging events. It returns when the process
// terminates, with the error of the request that ended it early. A process
// ended by a refusal reports the time of its last granted request.
func (p *Process) Run(ctx context.Context, sub Submitter) error {
	var lastGranted sim.VTimeInSec

	for !p.done {
		req := p.nextRequest()
		if req.IsWrite {
			p.numWrites++
		}

		grant, err := sub.Submit(ctx, req)
		if err != nil {
			p.logger.Error("request refused, terminating", "error", err)
			p.terminate(lastGranted)
			return err
		}

		lastGranted = grant.Time.VTime()
		p.record(grant)
		if p.numOps >= p.targetOps {
			p.terminate(lastGranted)
		}
	}

	return nil
}

// Handle processes the grants addressed to the process.
func (p *Process) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *oss.GrantEvent:
		p.handleGrant(e)
	default:
		log.Panicf("cannot handle event of %s", reflect.TypeOf(e))
	}
	return nil
}

func (p *Process) handleGrant(e *oss.GrantEvent) {
	if p.done {
		log.Panicf("process %d received a grant after terminating", p.pid)
	}

	if e.Err != nil {
		p.logger.Error("request refused, terminating", "error", e.Err)
		p.terminate(e.Time())
		return
	}

	p.record(e.Grant)

	if p.numOps >= p.targetOps {
		p.terminate(e.Time())
		return
	}

	p.sendNext(e.Time())
}

func (p *Process) record(g pager.Grant) {
	p.numOps++
	if g.Outcome.IsFault() {
		p.numFaults++
	}
}

func (p *Process) sendNext(now sim.VTimeInSec) {
	req := p.nextRequest()
	if req.IsWrite {
		p.numWrites++
	}
	p.sender.Send(now, req, p)
}

func (p *Process) nextRequest() pager.Request {
	page := uint64(p.rand.Intn(p.numPages))
	offset := uint64(p.rand.Int63n(int64(p.pageSize)))
	write := p.rand.Float64() < p.writeRatio

	return pager.NewRequest(p.pid, page*p.pageSize+offset, write)
}

func (p *Process) terminate(now sim.VTimeInSec) {
	p.done = true

	p.logger.Info("process finished",
		"ops", p.numOps, "writes", p.numWrites, "faults", p.numFaults)

	if p.exit != nil {
		p.exit.NotifyExit(p.pid, now)
	}
}
