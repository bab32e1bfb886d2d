package monitoring

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"gitlab.com/akita/lrusim/clock"
	"gitlab.com/akita/lrusim/pager"
)

func snapshotAt(ns int64) pager.Snapshot {
	return pager.Snapshot{Clock: clock.FromNanos(ns)}
}

func clocksOf(snaps []pager.Snapshot) []int64 {
	var ns []int64
	for _, s := range snaps {
		ns = append(ns, s.Clock.Nanos())
	}
	return ns
}

var _ = Describe("history", func() {
	It("should keep snapshots in time order", func() {
		h := newHistory(0)

		h.Push(snapshotAt(300))
		h.Push(snapshotAt(100))
		h.Push(snapshotAt(200))

		Expect(clocksOf(h.All())).To(Equal([]int64{100, 200, 300}))
		latest, found := h.Latest()
		Expect(found).To(BeTrue())
		Expect(latest.Clock.Nanos()).To(Equal(int64(300)))
	})

	It("should drop the oldest snapshot when full", func() {
		h := newHistory(2)

		h.Push(snapshotAt(100))
		h.Push(snapshotAt(200))
		h.Push(snapshotAt(300))

		Expect(h.Len()).To(Equal(2))
		Expect(clocksOf(h.All())).To(Equal([]int64{200, 300}))
	})

	It("should report when it is empty", func() {
		_, found := newHistory(2).Latest()

		Expect(found).To(BeFalse())
	})
})
