package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/sarchlab/minicpu/cache"
)

var _ = Describe("Hierarchy", func() {
	var (
		mockCtrl *gomock.Controller
		backing  *MockBacking
		h        *cache.Hierarchy
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		backing = NewMockBacking(mockCtrl)
		h = cache.NewHierarchy(backing, []int{3, 4, 5})
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should miss on a cold read and fill L1 from backing", func() {
		backing.EXPECT().Load(0x10).Return(42)

		value, level, hit := h.Read(0x10, 1)

		Expect(hit).To(BeFalse())
		Expect(level).To(Equal(0))
		Expect(value).To(Equal(42))

		l1 := h.Levels()[0]
		Expect(l1.Misses).To(Equal(1))
		Expect(l1.Active).To(BeTrue())
		Expect(l1.ActiveAddr).To(Equal(0x10))
		Expect(l1.WasHit).To(BeFalse())
	})

	It("should hit on a second read of the same address", func() {
		backing.EXPECT().Load(0x10).Return(42)

		h.Read(0x10, 1)
		value, level, hit := h.Read(0x10, 2)

		Expect(hit).To(BeTrue())
		Expect(level).To(Equal(0))
		Expect(value).To(Equal(42))
		Expect(h.Levels()[0].Hits).To(Equal(1))
	})

	It("should evict the least recently used line", func() {
		backing.EXPECT().Load(gomock.Any()).Return(0).AnyTimes()

		// A, B, C fill the three L1 lines; D must evict A.
		h.Read(0xA, 1)
		h.Read(0xB, 2)
		h.Read(0xC, 3)
		h.Read(0xD, 4)

		l1 := h.Levels()[0]
		addrs := validAddrs(l1)
		Expect(addrs).NotTo(ContainElement(0xA))
		Expect(addrs).To(ContainElements(0xB, 0xC, 0xD))
	})

	It("should refresh recency on hit before evicting", func() {
		backing.EXPECT().Load(gomock.Any()).Return(0).AnyTimes()

		h.Read(0xA, 1)
		h.Read(0xB, 2)
		h.Read(0xC, 3)
		h.Read(0xA, 4) // A becomes most recent; B is now LRU
		h.Read(0xD, 5)

		addrs := validAddrs(h.Levels()[0])
		Expect(addrs).NotTo(ContainElement(0xB))
		Expect(addrs).To(ContainElements(0xA, 0xC, 0xD))
	})

	It("should break recency ties by array order", func() {
		backing.EXPECT().Load(gomock.Any()).Return(0).AnyTimes()

		h.Read(0xA, 7)
		h.Read(0xB, 7)
		h.Read(0xC, 7)
		h.Read(0xD, 8)

		addrs := validAddrs(h.Levels()[0])
		Expect(addrs).NotTo(ContainElement(0xA))
	})

	It("should keep at most one valid line per address per level", func() {
		backing.EXPECT().Load(gomock.Any()).Return(0).AnyTimes()

		for cycle := 1; cycle <= 20; cycle++ {
			h.Read(cycle%4, cycle)
			h.Write(cycle%3, cycle, cycle)
		}

		for _, lvl := range h.Levels() {
			seen := map[int]int{}
			for _, line := range lvl.Lines {
				if line.Valid {
					seen[line.Addr]++
				}
			}
			for addr, n := range seen {
				Expect(n).To(Equal(1),
					"address %d valid %d times in %s", addr, n, lvl.Name)
			}
		}
	})

	It("should write into an existing line and mark it dirty", func() {
		backing.EXPECT().Load(0x10).Return(5)

		h.Read(0x10, 1)
		level, hit := h.Write(0x10, 99, 2)

		Expect(hit).To(BeTrue())
		Expect(level).To(Equal(0))

		l1 := h.Levels()[0]
		idx := lineIndexOf(l1, 0x10)
		Expect(l1.Lines[idx].Value).To(Equal(99))
		Expect(l1.Lines[idx].Dirty).To(BeTrue())
	})

	It("should fill a dirty L1 line on a write miss", func() {
		level, hit := h.Write(0x20, 7, 1)

		Expect(hit).To(BeFalse())
		Expect(level).To(Equal(0))

		l1 := h.Levels()[0]
		Expect(l1.Misses).To(Equal(1))
		idx := lineIndexOf(l1, 0x20)
		Expect(l1.Lines[idx].Dirty).To(BeTrue())
		Expect(l1.Lines[idx].Value).To(Equal(7))
	})

	It("should return the written value on a later read", func() {
		h.Write(0x30, 123, 1)

		value, _, hit := h.Read(0x30, 2)

		Expect(hit).To(BeTrue())
		Expect(value).To(Equal(123))
	})

	It("should clear only transient state on deactivation", func() {
		backing.EXPECT().Load(0x10).Return(0)

		h.Read(0x10, 1)
		h.DeactivateAll()

		l1 := h.Levels()[0]
		Expect(l1.Active).To(BeFalse())
		Expect(l1.Misses).To(Equal(1))
		Expect(lineIndexOf(l1, 0x10)).To(BeNumerically(">=", 0))
	})

	It("should invalidate everything on reset", func() {
		backing.EXPECT().Load(gomock.Any()).Return(0).AnyTimes()

		h.Read(0x10, 1)
		h.Write(0x20, 1, 2)
		h.Reset()

		for _, lvl := range h.Levels() {
			Expect(lvl.Hits).To(Equal(0))
			Expect(lvl.Misses).To(Equal(0))
			Expect(lvl.Active).To(BeFalse())
			for _, line := range lvl.Lines {
				Expect(line.Valid).To(BeFalse())
			}
		}
	})

	It("should panic on an empty geometry", func() {
		Expect(func() { cache.NewHierarchy(backing, nil) }).To(Panic())
	})
})

func validAddrs(lvl cache.Level) []int {
	addrs := []int{}
	for _, line := range lvl.Lines {
		if line.Valid {
			addrs = append(addrs, line.Addr)
		}
	}

	return addrs
}

func lineIndexOf(lvl cache.Level, addr int) int {
	for i, line := range lvl.Lines {
		if line.Valid && line.Addr == addr {
			return i
		}
	}

	return -1
}
