package oss

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"gitlab.com/akita/lrusim/clock"
)

var _ = Describe("Sampling policies", func() {
	It("should never sample", func() {
		p := Never()

		Expect(p.ShouldSample(1, clock.SimClock{})).To(BeFalse())
		Expect(p.ShouldSample(1000, clock.New(10, 0))).To(BeFalse())
	})

	It("should sample every n requests", func() {
		p := EveryNRequests(3)

		var fired []uint64
		for n := uint64(0); n <= 7; n++ {
			if p.ShouldSample(n, clock.SimClock{}) {
				fired = append(fired, n)
			}
		}

		Expect(fired).To(Equal([]uint64{3, 6}))
	})

	It("should treat zero requests as never", func() {
		Expect(EveryNRequests(0).ShouldSample(0, clock.SimClock{})).
			To(BeFalse())
	})

	It("should sample once per elapsed interval", func() {
		p := EveryInterval(1000)

		Expect(p.ShouldSample(1, clock.FromNanos(500))).To(BeFalse())
		Expect(p.ShouldSample(2, clock.FromNanos(1000))).To(BeTrue())
		Expect(p.ShouldSample(3, clock.FromNanos(1500))).To(BeFalse())
		Expect(p.ShouldSample(4, clock.FromNanos(4200))).To(BeTrue())
		Expect(p.ShouldSample(5, clock.FromNanos(4900))).To(BeFalse())
		Expect(p.ShouldSample(6, clock.FromNanos(5000))).To(BeTrue())
	})

	It("should carry across seconds", func() {
		p := EveryInterval(clock.NanosPerSecond)

		Expect(p.ShouldSample(1, clock.SimClock{Nanoseconds: 999_999_999})).
			To(BeFalse())
		Expect(p.ShouldSample(2, clock.SimClock{Seconds: 1})).To(BeTrue())
	})
})
