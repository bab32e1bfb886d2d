package oss

import (
	"errors"

	"github.com/golang/mock/gomock"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v3/sim"

	"gitlab.com/akita/lrusim/clock"
	"gitlab.com/akita/lrusim/pager"
)

type grantRecorder struct {
	grants []*GrantEvent
}

func (r *grantRecorder) Handle(e sim.Event) error {
	r.grants = append(r.grants, e.(*GrantEvent))
	return nil
}

var _ = Describe("Manager", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *sim.SerialEngine
		resolver *pager.Resolver
		m        *Manager
		rec      *grantRecorder
	)

	BeforeEach(func() {
		var err error
		mockCtrl = gomock.NewController(GinkgoT())
		engine = sim.NewSerialEngine()
		resolver, err = pager.MakeBuilder().WithNumFrames(2).Build("Pager")
		Expect(err).NotTo(HaveOccurred())
		m = MakeBuilder().
			WithEngine(engine).
			WithResolver(resolver).
			Build("OSS")
		rec = &grantRecorder{}
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should grant a request at the pager clock", func() {
		m.Send(0, pager.NewRequest(1, 0, false), rec)
		Expect(m.NumPending()).To(Equal(1))

		Expect(engine.Run()).To(Succeed())

		Expect(rec.grants).To(HaveLen(1))
		g := rec.grants[0]
		Expect(g.Err).NotTo(HaveOccurred())
		Expect(g.Grant.Granted).To(BeTrue())
		Expect(g.Grant.Outcome).To(Equal(pager.FaultFreeFrame))
		Expect(g.Time()).To(Equal(clock.FromNanos(100).VTime()))
		Expect(m.NumPending()).To(Equal(0))
		Expect(m.NumResolved()).To(Equal(uint64(1)))
	})

	It("should not answer before the request arrived", func() {
		m.Send(1e-3, pager.NewRequest(1, 0, false), rec)

		Expect(engine.Run()).To(Succeed())

		Expect(rec.grants[0].Time()).To(Equal(sim.VTimeInSec(1e-3)))
	})

	It("should serve requests in arrival order", func() {
		m.Send(2e-6, pager.NewRequest(2, 1024, true), rec)
		m.Send(0, pager.NewRequest(1, 0, false), rec)

		Expect(engine.Run()).To(Succeed())

		Expect(rec.grants).To(HaveLen(2))
		Expect(rec.grants[0].Grant.PID).To(BeEquivalentTo(1))
		Expect(rec.grants[0].Grant.Frame).To(Equal(0))
		Expect(rec.grants[1].Grant.PID).To(BeEquivalentTo(2))
		Expect(rec.grants[1].Grant.Frame).To(Equal(1))
	})

	It("should refuse malformed requests without touching the pager", func() {
		m.Send(0, pager.NewRequest(1, 1<<20, false), rec)

		Expect(engine.Run()).To(Succeed())

		Expect(rec.grants).To(HaveLen(1))
		Expect(errors.Is(rec.grants[0].Err, pager.ErrInvalidRequest)).
			To(BeTrue())
		Expect(m.NumInvalid()).To(Equal(uint64(1)))
		Expect(m.NumResolved()).To(Equal(uint64(0)))
		Expect(m.NumPending()).To(Equal(0))
		Expect(resolver.Clock()).To(Equal(clock.SimClock{}))
	})

	It("should panic if a process sends again before its grant", func() {
		m.Send(0, pager.NewRequest(1, 0, false), rec)

		Expect(func() {
			m.Send(0, pager.NewRequest(1, 1024, false), rec)
		}).To(Panic())
	})

	It("should panic on unknown events", func() {
		e := &SpawnEvent{EventBase: sim.NewEventBase(0, m)}

		Expect(func() { m.Handle(e) }).To(Panic())
	})

	It("should publish snapshots as the policy says", func() {
		observer := NewMockSnapshotObserver(mockCtrl)
		m = MakeBuilder().
			WithEngine(engine).
			WithResolver(resolver).
			WithSamplingPolicy(EveryNRequests(2)).
			WithSnapshotObserver(observer).
			Build("OSS")

		observer.EXPECT().ObserveSnapshot(gomock.Any()).
			Do(func(s pager.Snapshot) {
				Expect(s.NumOccupied()).To(Equal(2))
				Expect(s.Clock).To(Equal(clock.FromNanos(200)))
			})

		m.Send(0, pager.NewRequest(1, 0, false), rec)
		m.Send(1e-6, pager.NewRequest(2, 0, false), rec)
		m.Send(2e-6, pager.NewRequest(3, 0, false), rec)

		Expect(engine.Run()).To(Succeed())
		Expect(rec.grants).To(HaveLen(3))
	})

	It("should publish on demand", func() {
		observer := NewMockSnapshotObserver(mockCtrl)
		m = MakeBuilder().
			WithEngine(engine).
			WithResolver(resolver).
			WithSnapshotObserver(observer).
			Build("OSS")

		observer.EXPECT().ObserveSnapshot(gomock.Any())

		m.Publish()
	})
})
