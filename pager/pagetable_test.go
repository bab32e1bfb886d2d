package pager

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/akita/v3/mem/vm"

	"gitlab.com/akita/lrusim/clock"
)

var _ = Describe("FrameRef", func() {
	It("should be unmapped by default", func() {
		var ref FrameRef

		_, mapped := ref.Index()

		Expect(mapped).To(BeFalse())
		Expect(ref).To(Equal(Unmapped()))
		Expect(ref.String()).To(Equal("-"))
	})

	It("should not confuse frame zero with unmapped", func() {
		ref := Mapped(0)

		idx, mapped := ref.Index()

		Expect(mapped).To(BeTrue())
		Expect(idx).To(Equal(0))
		Expect(ref).NotTo(Equal(Unmapped()))
	})

	It("should encode to JSON as an index or null", func() {
		data, err := json.Marshal([]FrameRef{Mapped(3), Unmapped()})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal("[3,null]"))

		var refs []FrameRef
		Expect(json.Unmarshal(data, &refs)).To(Succeed())
		Expect(refs).To(Equal([]FrameRef{Mapped(3), Unmapped()}))
	})
})

var _ = Describe("PageTableSet", func() {
	It("should fold PIDs onto slots by modulo", func() {
		s := NewPageTableSet(18, 32, nil)

		slot, ok := s.SlotOf(vm.PID(40))

		Expect(ok).To(BeTrue())
		Expect(slot).To(Equal(4))
		Expect(s.NumSlots()).To(Equal(18))
		Expect(s.Table(slot).Len()).To(Equal(32))
	})

	It("should flag slot functions that leave the set", func() {
		s := NewPageTableSet(2, 4, func(vm.PID, int) int { return -1 })

		_, ok := s.SlotOf(1)

		Expect(ok).To(BeFalse())
	})

	It("should start with every page unmapped", func() {
		s := NewPageTableSet(2, 4, nil)

		for slot := 0; slot < 2; slot++ {
			for page := uint64(0); page < 4; page++ {
				Expect(s.Table(slot).Lookup(page).IsMapped()).To(BeFalse())
			}
		}
	})
})

var _ = Describe("LRUVictimFinder", func() {
	It("should prefer the lowest free frame", func() {
		frames := NewFrameTable(3)
		frames.install(1, 1, 0, false, clock.SimClock{})
		e := NewLRUVictimFinder()
		e.Visit(1, clock.SimClock{})

		Expect(e.FindVictim(frames)).To(Equal(0))
		Expect(frames.NumOccupied()).To(Equal(1))
	})

	It("should pick the oldest frame once all are occupied", func() {
		frames := NewFrameTable(3)
		e := NewLRUVictimFinder()
		for i, ns := range []int64{300, 100, 100} {
			frames.install(i, 1, uint64(i), false, clock.FromNanos(ns))
			e.Visit(i, clock.FromNanos(ns))
		}

		Expect(e.FindVictim(frames)).To(Equal(1))

		e.Visit(1, clock.FromNanos(400))
		Expect(e.FindVictim(frames)).To(Equal(2))
	})
})
