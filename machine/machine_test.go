package machine_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/minicpu/bus"
	"github.com/sarchlab/minicpu/isa"
	"github.com/sarchlab/minicpu/machine"
	"github.com/sarchlab/minicpu/mem"
)

func newTestMachine() *machine.Machine {
	return machine.MakeBuilder().
		WithMemorySize(512).
		WithStepDuration(time.Millisecond).
		Build()
}

var _ = Describe("Machine", func() {
	var m *machine.Machine

	BeforeEach(func() {
		m = newTestMachine()
	})

	It("should run the addition program end to end", func() {
		m.LoadProgram(machine.AdditionProgram())

		for i := 0; i < 16; i++ {
			Expect(m.Step()).To(BeTrue(), "step %d", i)
		}
		Expect(m.Step()).To(BeFalse())

		state := m.State()
		Expect(registerValue(state, "R3")).To(Equal(8))
		Expect(state.Memory[0x100].Value).To(Equal(8))
		Expect(state.Phase).To(Equal(machine.PhaseIdle))
	})

	It("should return true exactly 4N times", func() {
		program := machine.AdditionProgram()
		m.LoadProgram(program)

		Expect(m.Run()).To(Equal(4 * len(program)))
		Expect(m.Step()).To(BeFalse())
	})

	It("should cycle phases in fixed order", func() {
		m.LoadProgram(machine.AdditionProgram()[:1])

		want := []machine.Phase{
			machine.PhaseFetch,
			machine.PhaseDecode,
			machine.PhaseExecute,
			machine.PhaseStore,
		}

		for _, phase := range want {
			m.Step()
			last := m.State().History[len(m.State().History)-1]
			Expect(last.Phase).To(Equal(phase))
		}
	})

	It("should stay in STORE between instructions", func() {
		m.LoadProgram(machine.AdditionProgram())

		for i := 0; i < 4; i++ {
			m.Step()
		}
		Expect(m.State().Phase).To(Equal(machine.PhaseStore))

		m.Step()
		Expect(m.State().Phase).To(Equal(machine.PhaseFetch))
	})

	It("should fit the addition program in a default-built machine", func() {
		dm := machine.MakeBuilder().
			WithStepDuration(time.Millisecond).
			Build()
		dm.LoadProgram(machine.AdditionProgram())
		dm.Run()

		state := dm.State()
		Expect(state.Memory).To(HaveLen(512))
		Expect(state.Memory[0x100].Value).To(Equal(8))
	})

	It("should advance PC and latch IR on fetch", func() {
		m.LoadProgram(machine.AdditionProgram())

		m.Step() // FETCH of instruction 0

		state := m.State()
		Expect(state.PC).To(Equal(1))
		Expect(registerValue(state, mem.IR)).To(Equal(0))
		Expect(state.Inst.Opcode).To(Equal(isa.OpLoad))
	})

	It("should log an address and a data transfer per fetch", func() {
		m.LoadProgram(machine.AdditionProgram()[:1])

		m.Step()

		transfers := m.State().Bus
		Expect(transfers).To(HaveLen(2))
		Expect(transfers[0].Kind).To(Equal(bus.Address))
		Expect(transfers[0].From).To(Equal(mem.PC))
		Expect(transfers[1].Kind).To(Equal(bus.Data))
		Expect(transfers[1].To).To(Equal(mem.IR))
	})

	It("should only mutate state during EXECUTE", func() {
		m.LoadProgram(machine.AdditionProgram()[:1])

		m.Step() // FETCH
		m.Step() // DECODE
		Expect(registerValue(m.State(), "R1")).To(Equal(0))

		m.Step() // EXECUTE
		Expect(registerValue(m.State(), "R1")).To(Equal(5))

		record := m.State().History[2]
		Expect(record.RegisterDeltas).To(HaveLen(1))
		Expect(record.RegisterDeltas[0].Name).To(Equal("R1"))
	})

	It("should deactivate everything but PC and IR at STORE", func() {
		m.LoadProgram(machine.AdditionProgram()[:1])

		for i := 0; i < 4; i++ {
			m.Step()
		}

		for _, r := range m.State().Registers {
			switch r.Name {
			case mem.PC, mem.IR:
				Expect(r.Active).To(BeTrue(), r.Name)
			default:
				Expect(r.Active).To(BeFalse(), r.Name)
			}
		}

		for _, cell := range m.State().Memory {
			Expect(cell.Active).To(BeFalse())
		}
	})

	It("should clear cache access status after the step duration", func() {
		m.LoadProgram(machine.CacheThrashProgram(8)[:1])

		for i := 0; i < 4; i++ {
			m.Step()
		}

		Eventually(func() bool {
			for _, lvl := range m.State().Cache {
				if lvl.Active {
					return false
				}
			}
			return true
		}).Should(BeTrue())
	})

	It("should keep snapshots safe while the deferred cache clear fires", func() {
		m.LoadProgram(machine.AdditionProgram()[:1])

		for i := 0; i < 4; i++ {
			Expect(m.Step()).To(BeTrue())
		}

		// Snapshot continuously while the deactivation timer lands; the
		// race detector watches this window.
		cleared := false
		deadline := time.Now().Add(50 * time.Millisecond)
		for time.Now().Before(deadline) {
			active := false
			for _, lvl := range m.State().Cache {
				if lvl.Active {
					active = true
				}
			}
			if !active {
				cleared = true
			}
		}

		Expect(cleared).To(BeTrue())
	})

	It("should replay deterministically", func() {
		run := func() machine.Snapshot {
			vm := newTestMachine()
			vm.LoadProgram(machine.AdditionProgram())
			vm.Run()
			// Let the cosmetic deactivation timers land so both replays
			// are compared in the same settled state.
			time.Sleep(20 * time.Millisecond)
			return vm.State()
		}

		a := run()
		b := run()

		Expect(a.History).To(Equal(b.History))
		Expect(a.Registers).To(Equal(b.Registers))
		Expect(a.Memory).To(Equal(b.Memory))
		Expect(a.Cache).To(Equal(b.Cache))
	})

	It("should reset completely", func() {
		m.LoadProgram(machine.AdditionProgram())
		m.Run()

		m.Reset()

		state := m.State()
		Expect(state.Cycle).To(Equal(0))
		Expect(state.Phase).To(Equal(machine.PhaseIdle))
		Expect(state.PC).To(Equal(0))
		Expect(state.History).To(BeEmpty())
		Expect(state.Bus).To(BeEmpty())

		for _, r := range state.Registers {
			Expect(r.Value).To(Equal(0))
			Expect(r.Active).To(BeFalse())
		}
		for _, cell := range state.Memory {
			Expect(cell.Value).To(Equal(0))
			Expect(cell.Used).To(BeFalse())
		}
		for _, lvl := range state.Cache {
			Expect(lvl.Hits).To(Equal(0))
			Expect(lvl.Misses).To(Equal(0))
			for _, line := range lvl.Lines {
				Expect(line.Valid).To(BeFalse())
			}
		}
	})

	It("should be safe to reset during a pending deactivation", func() {
		m.LoadProgram(machine.AdditionProgram())
		m.Run()

		m.Reset()
		time.Sleep(5 * time.Millisecond)

		Expect(m.State().Bus).To(BeEmpty())
	})

	It("should preserve memory and cache across LoadProgram", func() {
		m.LoadProgram(machine.AdditionProgram())
		m.Run()

		m.LoadProgram(machine.AdditionProgram()[:1])

		state := m.State()
		Expect(state.Memory[0x100].Value).To(Equal(8))
		Expect(state.Cycle).To(Equal(0))
		Expect(state.PC).To(Equal(0))
		Expect(state.History).To(BeEmpty())
		Expect(state.Bus).To(BeEmpty())
	})

	It("should step a skipped instruction without mutating state", func() {
		m.LoadProgram([]isa.Instruction{{
			Opcode: isa.OpAdd,
			Op1:    isa.Lit(1),
			Op2:    isa.Lit(2),
			Dest:   "R9", // not a register of this machine
		}})

		Expect(m.Run()).To(Equal(4))

		state := m.State()
		execute := state.History[2]
		Expect(execute.Skipped).To(BeTrue())
		Expect(execute.RegisterDeltas).To(BeEmpty())
	})

	It("should invoke hooks around each phase", func() {
		hook := &countingHook{}
		m.AcceptHook(hook)

		m.LoadProgram(machine.AdditionProgram()[:1])
		m.Run()

		Expect(hook.before).To(Equal(4))
		Expect(hook.after).To(Equal(4))
	})

	It("should report skipped instructions to hooks", func() {
		hook := &countingHook{}
		m.AcceptHook(hook)

		m.LoadProgram([]isa.Instruction{{Opcode: isa.OpMov, Dest: "R1"}})
		m.Run()

		Expect(hook.skipped).To(Equal(1))
	})
})

type countingHook struct {
	before  int
	after   int
	skipped int
}

func (h *countingHook) Func(ctx machine.HookCtx) {
	switch ctx.Pos {
	case machine.HookPosBeforePhase:
		h.before++
	case machine.HookPosAfterPhase:
		h.after++
	case machine.HookPosInstructionSkipped:
		h.skipped++
	}
}

func registerValue(s machine.Snapshot, name string) int {
	for _, r := range s.Registers {
		if r.Name == name {
			return r.Value
		}
	}

	return 0
}
