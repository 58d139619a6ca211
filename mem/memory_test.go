package mem_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/minicpu/mem"
)

var _ = Describe("Memory", func() {
	var memory *mem.Memory

	BeforeEach(func() {
		memory = mem.NewMemory(256)
	})

	It("should start zeroed and untouched", func() {
		for _, cell := range memory.Cells() {
			Expect(cell.Value).To(Equal(0))
			Expect(cell.Used).To(BeFalse())
			Expect(cell.Active).To(BeFalse())
		}
	})

	It("should mark cells used and active on write", func() {
		Expect(memory.Write(0x10, 42)).To(BeTrue())

		cell, ok := memory.Cell(0x10)
		Expect(ok).To(BeTrue())
		Expect(cell.Value).To(Equal(42))
		Expect(cell.Used).To(BeTrue())
		Expect(cell.Active).To(BeTrue())
	})

	It("should mark cells used and active on read", func() {
		_, ok := memory.Read(0x20)
		Expect(ok).To(BeTrue())

		cell, _ := memory.Cell(0x20)
		Expect(cell.Used).To(BeTrue())
		Expect(cell.Active).To(BeTrue())
	})

	It("should not touch flags on peek", func() {
		memory.Write(0x30, 7)
		memory.DeactivateAll()

		v, ok := memory.Peek(0x30)
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(7))

		cell, _ := memory.Cell(0x30)
		Expect(cell.Active).To(BeFalse())
	})

	It("should report out-of-range accesses", func() {
		_, ok := memory.Read(256)
		Expect(ok).To(BeFalse())

		Expect(memory.Write(-1, 1)).To(BeFalse())
	})

	It("should keep the used flag across deactivation", func() {
		memory.Write(0x40, 1)
		memory.DeactivateAll()

		cell, _ := memory.Cell(0x40)
		Expect(cell.Used).To(BeTrue())
		Expect(cell.Active).To(BeFalse())
	})

	It("should clear everything on reset", func() {
		memory.Write(0x50, 99)
		memory.Reset()

		cell, _ := memory.Cell(0x50)
		Expect(cell).To(Equal(mem.Cell{Addr: 0x50}))
	})
})

var _ = Describe("RegisterFile", func() {
	var regs *mem.RegisterFile

	BeforeEach(func() {
		regs = mem.NewRegisterFile(mem.DefaultRegisters())
	})

	It("should create registers at zero", func() {
		v, ok := regs.Value("R1")
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(0))
	})

	It("should report unknown registers", func() {
		_, ok := regs.Value("R9")
		Expect(ok).To(BeFalse())
		Expect(regs.Set("R9", 1)).To(BeFalse())
	})

	It("should mark registers active on set", func() {
		regs.Set("R2", 5)

		snapshot := regs.Snapshot()
		for _, r := range snapshot {
			if r.Name == "R2" {
				Expect(r.Value).To(Equal(5))
				Expect(r.Active).To(BeTrue())
			}
		}
	})

	It("should keep listed registers active during deactivation", func() {
		regs.Set(mem.PC, 1)
		regs.Set("R1", 2)

		regs.DeactivateAllExcept(mem.PC, mem.IR)

		for _, r := range regs.Snapshot() {
			switch r.Name {
			case mem.PC:
				Expect(r.Active).To(BeTrue())
			case "R1":
				Expect(r.Active).To(BeFalse())
			}
		}
	})

	It("should count nonzero registers", func() {
		Expect(regs.CountNonzero()).To(Equal(0))

		regs.Set("R1", 4)
		regs.Set("R2", -1)
		regs.Set("R3", 0)

		Expect(regs.CountNonzero()).To(Equal(2))
	})

	It("should preserve declaration order in snapshots", func() {
		names := regs.Names()
		Expect(names[0]).To(Equal(mem.PC))
		Expect(names[1]).To(Equal(mem.IR))
	})

	It("should zero all registers on reset", func() {
		regs.Set("R1", 10)
		regs.Reset()

		v, _ := regs.Value("R1")
		Expect(v).To(Equal(0))
	})

	It("should panic on duplicate register names", func() {
		Expect(func() {
			mem.NewRegisterFile([]mem.Register{
				{Name: "R1"}, {Name: "R1"},
			})
		}).To(Panic())
	})
})
