package userproc_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v3/mem/vm"
	"github.com/sarchlab/akita/v3/sim"

	"gitlab.com/akita/lrusim/oss"
	"gitlab.com/akita/lrusim/pager"
	"gitlab.com/akita/lrusim/userproc"
)

var _ = Describe("Workload", func() {
	It("should run every process to completion", func() {
		engine := sim.NewSerialEngine()
		resolver, err := pager.MakeBuilder().
			WithNumFrames(16).
			Build("Pager")
		Expect(err).NotTo(HaveOccurred())

		manager := oss.MakeBuilder().
			WithEngine(engine).
			WithResolver(resolver).
			Build("OSS")

		var (
			launcher *oss.Launcher
			procs    []*userproc.Process
		)
		procBuilder := userproc.MakeBuilder().
			WithSender(manager).
			WithSeed(1).
			WithOpsRange(50, 60)
		launcher = oss.MakeLauncherBuilder().
			WithEngine(engine).
			WithMaxConcurrent(3).
			WithMaxTotal(6).
			WithSpawnInterval(100_000).
			WithWorkerFactory(func(pid vm.PID) oss.Worker {
				p := procBuilder.WithExitListener(launcher).Build(pid)
				procs = append(procs, p)
				return p
			}).
			Build("Launcher")

		launcher.Start(0)
		Expect(engine.Run()).To(Succeed())

		Expect(launcher.Finished()).To(BeTrue())
		Expect(procs).To(HaveLen(6))

		total := 0
		for _, p := range procs {
			Expect(p.Done()).To(BeTrue())
			Expect(p.NumOps()).To(Equal(p.TargetOps()))
			total += p.NumOps()
		}
		Expect(manager.NumResolved()).To(Equal(uint64(total)))
		Expect(manager.NumPending()).To(Equal(0))

		s := resolver.Snapshot()
		Expect(s.NumOccupied()).To(Equal(16))
		Expect(s.Clock.Nanos()).To(BeNumerically(">=", int64(total)*100))
	})
})
