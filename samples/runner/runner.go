// Package runner wires the pager, the memory manager and the workload into
// a runnable simulation configured by command-line flags.
package runner

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/sarchlab/akita/v3/mem/vm"
	"github.com/sarchlab/akita/v3/sim"
	"github.com/tebeka/atexit"

	"gitlab.com/akita/lrusim/broker"
	"gitlab.com/akita/lrusim/dump"
	"gitlab.com/akita/lrusim/logging"
	"gitlab.com/akita/lrusim/monitoring"
	"gitlab.com/akita/lrusim/oss"
	"gitlab.com/akita/lrusim/pager"
	"gitlab.com/akita/lrusim/profiler"
	"gitlab.com/akita/lrusim/userproc"
)

var numFramesFlag = flag.Int("frames", pager.DefaultNumFrames,
	"Number of physical frames.")
var pageSizeFlag = flag.Uint64("page-size", pager.DefaultPageSize,
	"Page size in bytes.")
var numPagesFlag = flag.Int("pages", pager.DefaultNumPages,
	"Number of pages in each process address space.")
var numSlotsFlag = flag.Int("slots", pager.DefaultNumSlots,
	"Number of page tables. Processes whose PIDs collide share a table.")
var maxConcurrentFlag = flag.Int("max-concurrent", oss.DefaultMaxConcurrent,
	"Maximum number of processes alive at the same time.")
var maxTotalFlag = flag.Int("max-total", oss.DefaultMaxTotal,
	"Number of processes launched over the run.")
var spawnIntervalFlag = flag.Int64("spawn-interval-ns",
	oss.DefaultSpawnIntervalNs,
	"Simulated nanoseconds between two admission attempts.")
var writeRatioFlag = flag.Float64("write-ratio", userproc.DefaultWriteRatio,
	"Probability that an access is a write.")
var minOpsFlag = flag.Int("min-ops", userproc.DefaultMinOps,
	"Minimum number of operations per process.")
var maxOpsFlag = flag.Int("max-ops", userproc.DefaultMaxOps,
	"Maximum number of operations per process.")
var snapshotEveryFlag = flag.Uint64("snapshot-every", 0,
	"Publish a snapshot every N resolved requests. 0 disables snapshots.")
var snapshotIntervalFlag = flag.Int64("snapshot-interval-ns", 0,
	"Publish a snapshot every N simulated nanoseconds. "+
		"Ignored if -snapshot-every is set.")
var logFileFlag = flag.String("log-file", "oss.log",
	"File that receives the log and the snapshots. Empty logs to stdout only.")
var logLevelFlag = flag.String("log-level", "INFO",
	"Log level: DEBUG, INFO, WARN or ERROR.")
var reportFlag = flag.String("report", "result.json",
	"File to write the access statistics to. Empty disables the report.")
var monitorAddrFlag = flag.String("monitor-addr", "",
	"Address to serve snapshots over HTTP, for example localhost:8080.")
var historyLenFlag = flag.Int("monitor-history", monitoring.DefaultHistoryLen,
	"Number of snapshots kept by the monitoring server.")
var seedFlag = flag.Int64("seed", 1, "Seed of the workload random sources.")
var transportFlag = flag.String("transport", "event",
	"How processes reach the pager: event (simulated) or broker (goroutines).")

// Runner is a simulation that can be configured with flags.
type Runner struct {
	transport  string
	reportPath string
	seed       int64

	logFile  *os.File
	walltime *profiler.WallTime
	stats    *profiler.Stats
	resolver *pager.Resolver
	monitor  *monitoring.Server

	engine   sim.Engine
	manager  *oss.Manager
	launcher *oss.Launcher

	broker *broker.Server

	reportOnce sync.Once
}

// ParseFlag reads the parsed command-line flags.
func (r *Runner) ParseFlag() *Runner {
	r.transport = *transportFlag
	r.reportPath = *reportFlag
	r.seed = *seedFlag

	if err := checkFlags(); err != nil {
		log.Fatal(err)
	}

	return r
}

func checkFlags() error {
	if *transportFlag != "event" && *transportFlag != "broker" {
		return fmt.Errorf("unknown transport %q", *transportFlag)
	}
	if *maxConcurrentFlag <= 0 {
		return fmt.Errorf("-max-concurrent must be > 0, got %d",
			*maxConcurrentFlag)
	}
	if *maxTotalFlag < 0 {
		return fmt.Errorf("-max-total must be >= 0, got %d", *maxTotalFlag)
	}
	if *spawnIntervalFlag <= 0 {
		return fmt.Errorf("-spawn-interval-ns must be > 0, got %d",
			*spawnIntervalFlag)
	}
	if *minOpsFlag <= 0 || *maxOpsFlag < *minOpsFlag {
		return fmt.Errorf("bad operation range [%d, %d]",
			*minOpsFlag, *maxOpsFlag)
	}
	return nil
}

// Init builds the simulation.
func (r *Runner) Init() *Runner {
	logFile, err := logging.Init(*logFileFlag, *logLevelFlag)
	if err != nil {
		log.Fatal(err)
	}
	r.logFile = logFile

	r.walltime = profiler.NewWallTime()
	r.stats = profiler.NewStats()

	r.resolver, err = pager.MakeBuilder().
		WithNumFrames(*numFramesFlag).
		WithPageSize(*pageSizeFlag).
		WithNumPages(*numPagesFlag).
		WithNumSlots(*numSlotsFlag).
		WithTracer(r.stats).
		Build("Pager")
	if err != nil {
		log.Fatal(err)
	}

	if *monitorAddrFlag != "" {
		r.monitor = monitoring.NewServer(*historyLenFlag, r.stats, nil)
		if _, err := r.monitor.StartServer(*monitorAddrFlag); err != nil {
			log.Fatal(err)
		}
	}

	switch r.transport {
	case "event":
		r.buildEventTransport()
	case "broker":
		r.buildBrokerTransport()
	}

	atexit.Register(r.finish)

	return r
}

func (r *Runner) samplingPolicy() oss.SamplingPolicy {
	if *snapshotEveryFlag > 0 {
		return oss.EveryNRequests(*snapshotEveryFlag)
	}
	return oss.EveryInterval(*snapshotIntervalFlag)
}

func (r *Runner) snapshotObservers() []oss.SnapshotObserver {
	var w io.Writer = os.Stdout
	if r.logFile != nil {
		w = r.logFile
	}

	observers := []oss.SnapshotObserver{dump.NewObserver(w, nil)}
	if r.monitor != nil {
		observers = append(observers, r.monitor)
	}

	return observers
}

func (r *Runner) processBuilder() userproc.Builder {
	return userproc.MakeBuilder().
		WithSeed(r.seed).
		WithAddressSpace(*pageSizeFlag, *numPagesFlag).
		WithWriteRatio(*writeRatioFlag).
		WithOpsRange(*minOpsFlag, *maxOpsFlag)
}

func (r *Runner) buildEventTransport() {
	r.engine = sim.NewSerialEngine()

	mb := oss.MakeBuilder().
		WithEngine(r.engine).
		WithResolver(r.resolver).
		WithSamplingPolicy(r.samplingPolicy())
	for _, o := range r.snapshotObservers() {
		mb = mb.WithSnapshotObserver(o)
	}
	r.manager = mb.Build("OSS")

	procBuilder := r.processBuilder().WithSender(r.manager)
	r.launcher = oss.MakeLauncherBuilder().
		WithEngine(r.engine).
		WithMaxConcurrent(*maxConcurrentFlag).
		WithMaxTotal(*maxTotalFlag).
		WithSpawnInterval(*spawnIntervalFlag).
		WithWorkerFactory(func(pid vm.PID) oss.Worker {
			return procBuilder.WithExitListener(r.launcher).Build(pid)
		}).
		Build("Launcher")
}

func (r *Runner) buildBrokerTransport() {
	bb := broker.MakeBuilder().
		WithResolver(r.resolver).
		WithSamplingPolicy(r.samplingPolicy())
	for _, o := range r.snapshotObservers() {
		bb = bb.WithSnapshotObserver(o)
	}

	var err error
	r.broker, err = bb.Build("Broker")
	if err != nil {
		log.Fatal(err)
	}
}

// Run runs the simulation to completion and exits the program.
func (r *Runner) Run() {
	r.walltime.Start("run")

	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt)
	go func() {
		<-interrupts
		slog.Warn("interrupted, writing partial report")
		atexit.Exit(1)
	}()

	switch r.transport {
	case "event":
		r.runEvent()
	case "broker":
		r.runBroker()
	}

	atexit.Exit(0)
}

func (r *Runner) runEvent() {
	r.launcher.Start(0)

	if err := r.engine.Run(); err != nil {
		log.Panic(err)
	}

	if !r.launcher.Finished() {
		slog.Error("simulation stopped with processes alive",
			"live", r.launcher.NumLive())
	}

	r.manager.Publish()
}

func (r *Runner) runBroker() {
	r.broker.Start()

	ctx := context.Background()
	procBuilder := r.processBuilder()
	admission := make(chan struct{}, *maxConcurrentFlag)

	var wg sync.WaitGroup
	for i := 0; i < *maxTotalFlag; i++ {
		admission <- struct{}{}

		p := procBuilder.Build(vm.PID(i + 1))
		slog.Info("launched process", "pid", p.PID())

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-admission }()

			if err := p.Run(ctx, r.broker); err != nil {
				slog.Error("process ended early", "pid", p.PID(), "error", err)
			}
		}()
	}
	wg.Wait()

	snap, err := r.broker.Snapshot(ctx)
	if err == nil {
		for _, o := range r.snapshotObservers() {
			o.ObserveSnapshot(snap)
		}
	}

	r.broker.Close()
}

func (r *Runner) numInvalid() uint64 {
	switch {
	case r.manager != nil:
		return r.manager.NumInvalid()
	case r.broker != nil:
		return r.broker.NumInvalid()
	}
	return 0
}

func (r *Runner) finish() {
	r.reportOnce.Do(func() {
		sum := r.stats.Summary()
		sum.Invalid = r.numInvalid()
		sum.WallTime = r.walltime.Stop("run")

		slog.Info("simulation finished",
			"requests", sum.Requests,
			"faults", sum.Faults,
			"fault_rate", sum.FaultRate,
			"evictions", sum.Evictions,
			"dirty_evictions", sum.DirtyEvictions,
			"invalid", sum.Invalid,
			"simtime", sum.SimTime,
			"walltime", sum.WallTime)

		if r.reportPath != "" {
			if err := profiler.ReportStats(r.reportPath, sum); err != nil {
				slog.Error("cannot write report", "error", err)
			}
		}

		if r.monitor != nil {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := r.monitor.Shutdown(ctx); err != nil {
				slog.Error("cannot stop monitoring server", "error", err)
			}
		}

		if r.logFile != nil {
			r.logFile.Close()
		}
	})
}
