package oss

import (
	"log"
	"log/slog"
	"reflect"

	"github.com/sarchlab/akita/v3/sim"

	"gitlab.com/akita/lrusim/pager"
)

// A Manager owns the pager and serves every RequestEvent to completion
// before the next one. Because the engine runs handlers one at a time, the
// pager is never touched concurrently.
type Manager struct {
	name      string
	engine    sim.Engine
	resolver  *pager.Resolver
	pending   *pendingTable
	policy    SamplingPolicy
	observers []SnapshotObserver
	logger    *slog.Logger

	numResolved uint64
	numInvalid  uint64
}

// A Builder can build a Manager.
type Builder struct {
	engine    sim.Engine
	resolver  *pager.Resolver
	policy    SamplingPolicy
	observers []SnapshotObserver
	logger    *slog.Logger
}

// MakeBuilder returns a Builder that never samples.
func MakeBuilder() Builder {
	return Builder{
		policy: Never(),
	}
}

// WithEngine sets the engine that delivers events.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithResolver sets the pager that the manager owns.
func (b Builder) WithResolver(r *pager.Resolver) Builder {
	b.resolver = r
	return b
}

// WithSamplingPolicy sets when snapshots are published.
func (b Builder) WithSamplingPolicy(p SamplingPolicy) Builder {
	b.policy = p
	return b
}

// WithSnapshotObserver adds a receiver of published snapshots.
func (b Builder) WithSnapshotObserver(o SnapshotObserver) Builder {
	b.observers = append(b.observers[:len(b.observers):len(b.observers)], o)
	return b
}

// WithLogger sets the logger. slog.Default() is used otherwise.
func (b Builder) WithLogger(l *slog.Logger) Builder {
	b.logger = l
	return b
}

// Build returns a newly created Manager.
func (b Builder) Build(name string) *Manager {
	if b.engine == nil || b.resolver == nil {
		log.Panicf("manager %s needs an engine and a resolver", name)
	}

	m := &Manager{
		name:      name,
		engine:    b.engine,
		resolver:  b.resolver,
		pending:   newPendingTable(),
		policy:    b.policy,
		observers: b.observers,
		logger:    b.logger,
	}

	if m.policy == nil {
		m.policy = Never()
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	m.logger = m.logger.With("component", name)

	return m
}

// Name returns the name of the manager.
func (m *Manager) Name() string {
	return m.name
}

// NumResolved returns how many requests were granted.
func (m *Manager) NumResolved() uint64 {
	return m.numResolved
}

// NumInvalid returns how many malformed requests were refused.
func (m *Manager) NumInvalid() uint64 {
	return m.numInvalid
}

// NumPending returns how many requests wait for their grant.
func (m *Manager) NumPending() int {
	return m.pending.Len()
}

// Resolver returns the pager owned by the manager.
func (m *Manager) Resolver() *pager.Resolver {
	return m.resolver
}

// Send schedules req to arrive at the manager at time now. The grant is
// delivered to from. A process must not send again before its grant
// arrives.
func (m *Manager) Send(now sim.VTimeInSec, req pager.Request, from sim.Handler) {
	m.pending.Add(req.PID, req.ID, req.Address, now)
	m.engine.Schedule(newRequestEvent(now, m, req, from))
}

// Handle processes the events of the manager.
func (m *Manager) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *RequestEvent:
		m.handleRequest(e)
	default:
		log.Panicf("cannot handle event of %s", reflect.TypeOf(e))
	}
	return nil
}

func (m *Manager) handleRequest(e *RequestEvent) {
	req := e.Req

	op := "READ"
	if req.IsWrite {
		op = "WRITE"
	}
	m.logger.Debug("received request",
		"op", op, "address", req.Address, "pid", req.PID,
		"time", m.resolver.Clock().String())

	grant, err := m.resolver.Resolve(req)
	m.pending.Remove(req.PID)

	if err != nil {
		m.numInvalid++
		m.logger.Warn("refused request", "pid", req.PID, "error", err)
		m.deliver(e, pager.Grant{}, err)
		return
	}

	m.numResolved++
	m.logger.Debug("granted request",
		"pid", req.PID, "page", grant.Page, "frame", grant.Frame,
		"outcome", grant.Outcome.String(), "time", grant.Time.String())

	m.deliver(e, grant, nil)
	m.sample()
}

// deliver schedules the answer no earlier than the pager clock, so that a
// process observes the latency its request was charged.
func (m *Manager) deliver(e *RequestEvent, grant pager.Grant, err error) {
	t := m.resolver.Clock().VTime()
	if t < e.Time() {
		t = e.Time()
	}

	m.engine.Schedule(&GrantEvent{
		EventBase: sim.NewEventBase(t, e.From),
		Grant:     grant,
		Err:       err,
	})
}

func (m *Manager) sample() {
	if len(m.observers) == 0 {
		return
	}

	if !m.policy.ShouldSample(m.numResolved, m.resolver.Clock()) {
		return
	}

	m.Publish()
}

// Publish hands a snapshot of the pager to every observer. It must only be
// called between events.
func (m *Manager) Publish() {
	s := m.resolver.Snapshot()
	for _, o := range m.observers {
		o.ObserveSnapshot(s)
	}
}
