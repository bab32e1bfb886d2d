// Package broker serves pager requests from concurrent goroutines. A single
// goroutine owns the pager, so every request is resolved to completion
// before the next one starts.
package broker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"gitlab.com/akita/lrusim/oss"
	"gitlab.com/akita/lrusim/pager"
)

// ErrServerClosed is returned by Submit once Close has been called.
var ErrServerClosed = errors.New("broker: server closed")

type result struct {
	grant pager.Grant
	err   error
}

type call struct {
	seq   uint64
	req   pager.Request
	reply chan result
}

// A Server accepts requests through Submit and resolves them one at a time.
type Server struct {
	resolver  *pager.Resolver
	policy    oss.SamplingPolicy
	observers []oss.SnapshotObserver
	logger    *slog.Logger

	calls     chan *call
	snapshots chan chan pager.Snapshot
	done      chan struct{}
	stopped   chan struct{}
	startOnce sync.Once
	closeOnce sync.Once

	lock    sync.Mutex
	nextSeq uint64
	pending map[uint64]*call

	numResolved uint64
	numInvalid  uint64
}

// A Builder can build a Server.
type Builder struct {
	resolver  *pager.Resolver
	policy    oss.SamplingPolicy
	observers []oss.SnapshotObserver
	logger    *slog.Logger
}

// MakeBuilder returns a Builder that never samples.
func MakeBuilder() Builder {
	return Builder{policy: oss.Never()}
}

// WithResolver sets the pager the server owns.
func (b Builder) WithResolver(r *pager.Resolver) Builder {
	b.resolver = r
	return b
}

// WithSamplingPolicy sets when snapshots are published.
func (b Builder) WithSamplingPolicy(p oss.SamplingPolicy) Builder {
	b.policy = p
	return b
}

// WithSnapshotObserver adds a receiver of published snapshots.
func (b Builder) WithSnapshotObserver(o oss.SnapshotObserver) Builder {
	b.observers = append(b.observers[:len(b.observers):len(b.observers)], o)
	return b
}

// WithLogger sets the logger. slog.Default() is used otherwise.
func (b Builder) WithLogger(l *slog.Logger) Builder {
	b.logger = l
	return b
}

// Build creates the server. It does not serve until Start is called.
func (b Builder) Build(name string) (*Server, error) {
	if b.resolver == nil {
		return nil, fmt.Errorf("broker %s: %w", name, pager.ErrInvalidConfig)
	}

	s := &Server{
		resolver:  b.resolver,
		policy:    b.policy,
		observers: b.observers,
		logger:    b.logger,
		calls:     make(chan *call),
		snapshots: make(chan chan pager.Snapshot),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
		pending:   make(map[uint64]*call),
	}

	if s.policy == nil {
		s.policy = oss.Never()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", name)

	return s, nil
}

// Start launches the goroutine that owns the pager.
func (s *Server) Start() {
	s.startOnce.Do(func() {
		go s.serve()
	})
}

// Close stops accepting requests and waits for the serving goroutine to
// finish the request it holds. Close of a server that was never started
// returns immediately.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})

	started := true
	s.startOnce.Do(func() {
		started = false
		close(s.stopped)
	})
	if started {
		<-s.stopped
	}
}

// Submit sends req to the server and waits for its grant. Requests are told
// apart by the server, so any number of them may share an ID. A request handed
// to the serving goroutine is always resolved, even if ctx is cancelled
// while waiting for the answer.
func (s *Server) Submit(ctx context.Context, req pager.Request) (pager.Grant, error) {
	c := &call{req: req, reply: make(chan result, 1)}

	s.addPending(c)

	select {
	case s.calls <- c:
	case <-s.done:
		s.removePending(c.seq)
		return pager.Grant{}, ErrServerClosed
	case <-ctx.Done():
		s.removePending(c.seq)
		return pager.Grant{}, ctx.Err()
	}

	select {
	case r := <-c.reply:
		return r.grant, r.err
	case <-ctx.Done():
		return pager.Grant{}, ctx.Err()
	}
}

// Snapshot asks the serving goroutine for a copy of the pager state.
func (s *Server) Snapshot(ctx context.Context) (pager.Snapshot, error) {
	reply := make(chan pager.Snapshot, 1)

	select {
	case s.snapshots <- reply:
	case <-s.done:
		return pager.Snapshot{}, ErrServerClosed
	case <-ctx.Done():
		return pager.Snapshot{}, ctx.Err()
	}

	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return pager.Snapshot{}, ctx.Err()
	}
}

// NumPending returns how many submitted requests have not been answered.
func (s *Server) NumPending() int {
	s.lock.Lock()
	defer s.lock.Unlock()

	return len(s.pending)
}

// NumResolved returns how many requests were granted. It is only exact
// after Close.
func (s *Server) NumResolved() uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.numResolved
}

// NumInvalid returns how many malformed requests were refused.
func (s *Server) NumInvalid() uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.numInvalid
}

func (s *Server) addPending(c *call) {
	s.lock.Lock()
	defer s.lock.Unlock()

	c.seq = s.nextSeq
	s.nextSeq++
	s.pending[c.seq] = c
}

func (s *Server) removePending(seq uint64) {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.pending, seq)
}

func (s *Server) serve() {
	defer close(s.stopped)

	for {
		select {
		case c := <-s.calls:
			s.handle(c)
		case reply := <-s.snapshots:
			reply <- s.resolver.Snapshot()
		case <-s.done:
			return
		}
	}
}

func (s *Server) handle(c *call) {
	req := c.req

	s.logger.Debug("received request",
		"address", req.Address, "pid", req.PID, "write", req.IsWrite)

	grant, err := s.resolver.Resolve(req)

	s.lock.Lock()
	delete(s.pending, c.seq)
	if err != nil {
		s.numInvalid++
	} else {
		s.numResolved++
	}
	numResolved := s.numResolved
	s.lock.Unlock()

	if err != nil {
		s.logger.Warn("refused request", "pid", req.PID, "error", err)
		c.reply <- result{err: err}
		return
	}

	c.reply <- result{grant: grant}

	if len(s.observers) > 0 &&
		s.policy.ShouldSample(numResolved, s.resolver.Clock()) {
		snap := s.resolver.Snapshot()
		for _, o := range s.observers {
			o.ObserveSnapshot(snap)
		}
	}
}
