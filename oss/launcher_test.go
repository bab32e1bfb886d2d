package oss

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v3/mem/vm"
	"github.com/sarchlab/akita/v3/sim"
)

type exitEvent struct {
	*sim.EventBase
}

type fakeWorker struct {
	pid      vm.PID
	engine   sim.Engine
	lifetime sim.VTimeInSec
	exit     ExitListener
	started  sim.VTimeInSec
	onStart  func()
}

func (w *fakeWorker) PID() vm.PID {
	return w.pid
}

func (w *fakeWorker) Start(now sim.VTimeInSec) {
	w.started = now
	w.onStart()
	w.engine.Schedule(&exitEvent{sim.NewEventBase(now+w.lifetime, w)})
}

func (w *fakeWorker) Handle(e sim.Event) error {
	w.exit.NotifyExit(w.pid, e.Time())
	return nil
}

var _ = Describe("Launcher", func() {
	var (
		engine   *sim.SerialEngine
		launcher *Launcher
		workers  []*fakeWorker
		maxLive  int
	)

	build := func(maxConcurrent, maxTotal int) {
		launcher = MakeLauncherBuilder().
			WithEngine(engine).
			WithMaxConcurrent(maxConcurrent).
			WithMaxTotal(maxTotal).
			WithSpawnInterval(1_000_000).
			WithWorkerFactory(func(pid vm.PID) Worker {
				w := &fakeWorker{
					pid:      pid,
					engine:   engine,
					lifetime: 2.5e-3,
					exit:     launcher,
					onStart: func() {
						if launcher.NumLive() > maxLive {
							maxLive = launcher.NumLive()
						}
					},
				}
				workers = append(workers, w)
				return w
			}).
			Build("Launcher")
	}

	BeforeEach(func() {
		engine = sim.NewSerialEngine()
		workers = nil
		maxLive = 0
	})

	It("should respect the concurrency and total limits", func() {
		build(2, 5)

		launcher.Start(0)
		Expect(engine.Run()).To(Succeed())

		Expect(launcher.Finished()).To(BeTrue())
		Expect(launcher.NumLaunched()).To(Equal(5))
		Expect(launcher.NumExited()).To(Equal(5))
		Expect(launcher.NumLive()).To(Equal(0))
		Expect(maxLive).To(Equal(2))

		starts := []float64{0, 1e-3, 3e-3, 4e-3, 6e-3}
		Expect(workers).To(HaveLen(5))
		for i, w := range workers {
			Expect(w.pid).To(Equal(vm.PID(i + 1)))
			Expect(float64(w.started)).To(BeNumerically("~", starts[i], 1e-12))
		}
	})

	It("should do nothing when no process is allowed", func() {
		build(2, 0)

		launcher.Start(0)
		Expect(engine.Run()).To(Succeed())

		Expect(workers).To(BeEmpty())
		Expect(launcher.Finished()).To(BeTrue())
	})

	It("should panic when an unknown process exits", func() {
		build(2, 5)

		Expect(func() { launcher.NotifyExit(42, 0) }).To(Panic())
	})
})
