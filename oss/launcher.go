package oss

import (
	"log"
	"log/slog"
	"reflect"

	"github.com/sarchlab/akita/v3/mem/vm"
	"github.com/sarchlab/akita/v3/sim"
)

// Default admission limits.
const (
	DefaultMaxConcurrent   = 18
	DefaultMaxTotal        = 100
	DefaultSpawnIntervalNs = 1_000_000
)

// A Launcher admits new workers every spawn interval, keeping at most
// maxConcurrent of them alive and at most maxTotal over the whole run.
type Launcher struct {
	name          string
	engine        sim.Engine
	factory       WorkerFactory
	maxConcurrent int
	maxTotal      int
	spawnInterval sim.VTimeInSec
	nextPID       vm.PID
	logger        *slog.Logger

	live     map[vm.PID]Worker
	launched int
	exited   int
}

// A LauncherBuilder can build a Launcher.
type LauncherBuilder struct {
	engine          sim.Engine
	factory         WorkerFactory
	maxConcurrent   int
	maxTotal        int
	spawnIntervalNs int64
	firstPID        vm.PID
	logger          *slog.Logger
}

// MakeLauncherBuilder returns a LauncherBuilder with the default limits.
func MakeLauncherBuilder() LauncherBuilder {
	return LauncherBuilder{
		maxConcurrent:   DefaultMaxConcurrent,
		maxTotal:        DefaultMaxTotal,
		spawnIntervalNs: DefaultSpawnIntervalNs,
		firstPID:        1,
	}
}

// WithEngine sets the engine that delivers spawn events.
func (b LauncherBuilder) WithEngine(engine sim.Engine) LauncherBuilder {
	b.engine = engine
	return b
}

// WithWorkerFactory sets how workers are created.
func (b LauncherBuilder) WithWorkerFactory(f WorkerFactory) LauncherBuilder {
	b.factory = f
	return b
}

// WithMaxConcurrent sets how many workers may be alive at once.
func (b LauncherBuilder) WithMaxConcurrent(n int) LauncherBuilder {
	b.maxConcurrent = n
	return b
}

// WithMaxTotal sets how many workers are launched over the run.
func (b LauncherBuilder) WithMaxTotal(n int) LauncherBuilder {
	b.maxTotal = n
	return b
}

// WithSpawnInterval sets the simulated nanoseconds between admission
// attempts.
func (b LauncherBuilder) WithSpawnInterval(ns int64) LauncherBuilder {
	b.spawnIntervalNs = ns
	return b
}

// WithFirstPID sets the PID of the first worker. Later workers count up.
func (b LauncherBuilder) WithFirstPID(pid vm.PID) LauncherBuilder {
	b.firstPID = pid
	return b
}

// WithLogger sets the logger. slog.Default() is used otherwise.
func (b LauncherBuilder) WithLogger(l *slog.Logger) LauncherBuilder {
	b.logger = l
	return b
}

// Build returns a newly created Launcher.
func (b LauncherBuilder) Build(name string) *Launcher {
	if b.engine == nil || b.factory == nil {
		log.Panicf("launcher %s needs an engine and a worker factory", name)
	}
	if b.maxConcurrent <= 0 || b.maxTotal < 0 || b.spawnIntervalNs <= 0 {
		log.Panicf("launcher %s: bad limits concurrent=%d total=%d interval=%d",
			name, b.maxConcurrent, b.maxTotal, b.spawnIntervalNs)
	}

	l := &Launcher{
		name:          name,
		engine:        b.engine,
		factory:       b.factory,
		maxConcurrent: b.maxConcurrent,
		maxTotal:      b.maxTotal,
		spawnInterval: sim.VTimeInSec(float64(b.spawnIntervalNs) * 1e-9),
		nextPID:       b.firstPID,
		logger:        b.logger,
		live:          make(map[vm.PID]Worker),
	}

	if l.logger == nil {
		l.logger = slog.Default()
	}
	l.logger = l.logger.With("component", name)

	return l
}

// Name returns the name of the launcher.
func (l *Launcher) Name() string {
	return l.name
}

// NumLive returns how many workers are running.
func (l *Launcher) NumLive() int {
	return len(l.live)
}

// NumLaunched returns how many workers have been started.
func (l *Launcher) NumLaunched() int {
	return l.launched
}

// NumExited returns how many workers have terminated.
func (l *Launcher) NumExited() int {
	return l.exited
}

// Finished reports whether every worker has been launched and has exited.
func (l *Launcher) Finished() bool {
	return l.launched == l.maxTotal && len(l.live) == 0
}

// Start schedules the first admission attempt at time now.
func (l *Launcher) Start(now sim.VTimeInSec) {
	if l.maxTotal == 0 {
		return
	}
	l.engine.Schedule(&SpawnEvent{EventBase: sim.NewEventBase(now, l)})
}

// Handle processes the events of the launcher.
func (l *Launcher) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *SpawnEvent:
		l.handleSpawn(e)
	default:
		log.Panicf("cannot handle event of %s", reflect.TypeOf(e))
	}
	return nil
}

func (l *Launcher) handleSpawn(e *SpawnEvent) {
	now := e.Time()

	if len(l.live) < l.maxConcurrent {
		l.spawn(now)
	} else {
		l.logger.Debug("admission deferred", "live", len(l.live))
	}

	if l.launched < l.maxTotal {
		l.engine.Schedule(&SpawnEvent{
			EventBase: sim.NewEventBase(now+l.spawnInterval, l),
		})
	}
}

func (l *Launcher) spawn(now sim.VTimeInSec) {
	pid := l.nextPID
	l.nextPID++

	w := l.factory(pid)
	l.live[pid] = w
	l.launched++

	l.logger.Info("launched process",
		"pid", pid, "live", len(l.live), "launched", l.launched)

	w.Start(now)
}

// NotifyExit releases the admission slot of pid.
func (l *Launcher) NotifyExit(pid vm.PID, now sim.VTimeInSec) {
	if _, found := l.live[pid]; !found {
		log.Panicf("process %d exited but was not running", pid)
	}

	delete(l.live, pid)
	l.exited++

	l.logger.Info("process terminated",
		"pid", pid, "live", len(l.live), "exited", l.exited)
}
