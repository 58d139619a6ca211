// Package machine sequences the fetch, decode, execute, store cycle of the
// teaching CPU and records the step history the visualization replays.
package machine

import (
	"sync"
	"time"

	"github.com/sarchlab/minicpu/bus"
	"github.com/sarchlab/minicpu/cache"
	"github.com/sarchlab/minicpu/isa"
	"github.com/sarchlab/minicpu/kernel"
	"github.com/sarchlab/minicpu/mem"
)

// A StepRecord is one entry of the machine history. Records are append-only
// and never mutated after creation.
type StepRecord struct {
	Cycle          int
	Phase          Phase
	Inst           isa.Instruction
	RegisterDeltas []kernel.RegisterDelta
	MemoryDeltas   []kernel.MemoryDelta
	Skipped        bool
}

// A Snapshot is a read-only copy of the whole machine state.
type Snapshot struct {
	Phase     Phase
	Cycle     int
	PC        int
	Inst      *isa.Instruction
	Registers []mem.Register
	Memory    []mem.Cell
	Cache     []cache.Level
	Bus       []bus.Transfer
	History   []StepRecord
}

// A Machine is one complete teaching CPU. It never schedules itself: the
// host calls Step repeatedly, on a timer or by hand. The only deferred work
// is the cosmetic deactivation of bus records and cache access status,
// which an epoch counter keeps from touching a machine that has since been
// reset.
type Machine struct {
	HookableBase

	regs   *mem.RegisterFile
	memory *mem.Memory
	caches *cache.Hierarchy
	busLog *bus.Log
	kern   *kernel.Kernel

	program []isa.Instruction
	cursor  int
	inst    *isa.Instruction
	phase   Phase
	cycle   int
	history []StepRecord

	stepDuration time.Duration

	epochMu sync.Mutex
	epoch   uint64
}

// Registers exposes the machine's register bank. The game driver shares it
// with the kernel; mutating it from elsewhere breaks determinism.
func (m *Machine) Registers() *mem.RegisterFile {
	return m.regs
}

// Memory exposes the machine's memory bank.
func (m *Machine) Memory() *mem.Memory {
	return m.memory
}

// Kernel exposes the execution kernel bound to this machine.
func (m *Machine) Kernel() *kernel.Kernel {
	return m.kern
}

// Caches exposes the machine's cache hierarchy.
func (m *Machine) Caches() *cache.Hierarchy {
	return m.caches
}

// Bus exposes the machine's bus transfer log.
func (m *Machine) Bus() *bus.Log {
	return m.busLog
}

// Program returns a copy of the loaded instruction list.
func (m *Machine) Program() []isa.Instruction {
	program := make([]isa.Instruction, len(m.program))
	copy(program, m.program)

	return program
}

// Reset brings the machine back to its initial state: registers zeroed,
// memory zeroed, caches invalid, PC at zero, phase IDLE, cycle zero, bus
// log and history empty. Safe to call while deferred deactivations are
// pending.
func (m *Machine) Reset() {
	m.bumpEpoch()

	m.regs.Reset()
	m.memory.Reset()
	m.caches.Reset()
	m.busLog.Reset()

	m.program = nil
	m.cursor = 0
	m.inst = nil
	m.phase = PhaseIdle
	m.cycle = 0
	m.history = nil
}

// LoadProgram replaces the pending instruction list and rewinds the cycle
// machinery: cursor to instruction zero, phase IDLE, cycle zero, history
// and bus log cleared. Register, memory, and cache contents are preserved,
// except PC and IR which restart at zero.
func (m *Machine) LoadProgram(program []isa.Instruction) {
	m.bumpEpoch()

	m.program = make([]isa.Instruction, len(program))
	copy(m.program, program)

	m.cursor = 0
	m.inst = nil
	m.phase = PhaseIdle
	m.cycle = 0
	m.history = nil
	m.busLog.Reset()

	m.regs.Set(mem.PC, 0)
	m.regs.Set(mem.IR, 0)
	m.regs.DeactivateAllExcept()
}

// Step advances the machine by exactly one phase of exactly one
// instruction. It reports whether the program has further phases to run:
// a program of N instructions yields 4N true steps, then false. Between
// instructions the observable phase stays STORE; IDLE marks only the
// fresh and the exhausted machine.
func (m *Machine) Step() bool {
	if m.cursor >= len(m.program) {
		return false
	}

	next := m.nextPhase()
	m.cycle++

	ctx := HookCtx{Machine: m, Pos: HookPosBeforePhase, Phase: next, Inst: m.inst}
	m.InvokeHook(ctx)

	var record StepRecord
	switch next {
	case PhaseFetch:
		record = m.fetch()
	case PhaseDecode:
		record = m.decode()
	case PhaseExecute:
		record = m.execute()
	case PhaseStore:
		record = m.store()
	}

	m.phase = next
	m.history = append(m.history, record)

	ctx.Pos = HookPosAfterPhase
	ctx.Inst = m.inst
	ctx.Record = &record
	m.InvokeHook(ctx)

	if next == PhaseStore {
		m.cursor++
		if m.cursor >= len(m.program) {
			m.phase = PhaseIdle
		}
	}

	return true
}

// Run steps the machine until the program is exhausted and returns the
// number of phases performed.
func (m *Machine) Run() int {
	steps := 0
	for m.Step() {
		steps++
	}

	return steps
}

func (m *Machine) nextPhase() Phase {
	switch m.phase {
	case PhaseFetch:
		return PhaseDecode
	case PhaseDecode:
		return PhaseExecute
	case PhaseExecute:
		return PhaseStore
	default:
		// IDLE before the first instruction, STORE between instructions.
		return PhaseFetch
	}
}

// fetch latches the next instruction into the instruction register,
// advances the program counter, and shows the two transfers of an
// instruction fetch on the bus.
func (m *Machine) fetch() StepRecord {
	inst := m.program[m.cursor]
	m.inst = &inst

	pc, _ := m.regs.Value(mem.PC)
	m.regs.Set(mem.IR, m.cursor)
	m.regs.Set(mem.PC, pc+1)

	m.busLog.Record(bus.Address, mem.PC, "Memory", pc)
	m.busLog.Record(bus.Data, "Memory", mem.IR, m.cursor)

	return StepRecord{Cycle: m.cycle, Phase: PhaseFetch, Inst: inst}
}

// decode only highlights the instruction register; the teaching machine
// decodes nothing for real.
func (m *Machine) decode() StepRecord {
	m.regs.Touch(mem.IR)

	return StepRecord{Cycle: m.cycle, Phase: PhaseDecode, Inst: *m.inst}
}

func (m *Machine) execute() StepRecord {
	delta := m.kern.Execute(*m.inst, m.cycle)

	record := StepRecord{
		Cycle:          m.cycle,
		Phase:          PhaseExecute,
		Inst:           *m.inst,
		RegisterDeltas: delta.RegisterDeltas,
		MemoryDeltas:   delta.MemoryDeltas,
		Skipped:        delta.Skipped,
	}

	if delta.Skipped {
		m.InvokeHook(HookCtx{
			Machine: m,
			Pos:     HookPosInstructionSkipped,
			Phase:   PhaseExecute,
			Inst:    m.inst,
			Record:  &record,
		})
	}

	return record
}

// store clears the transient activity markers: every register except PC
// and IR, every memory cell, and, once the configured step duration has
// elapsed, the cache access status. The delayed part is cosmetic and is
// dropped if the machine resets first.
func (m *Machine) store() StepRecord {
	m.regs.DeactivateAllExcept(mem.PC, mem.IR)
	m.memory.DeactivateAll()

	epoch := m.currentEpoch()
	time.AfterFunc(m.stepDuration, func() {
		if m.currentEpoch() != epoch {
			return
		}

		m.caches.DeactivateAll()
	})

	return StepRecord{Cycle: m.cycle, Phase: PhaseStore, Inst: *m.inst}
}

// State returns a read-only snapshot of the machine.
func (m *Machine) State() Snapshot {
	pc, _ := m.regs.Value(mem.PC)

	var inst *isa.Instruction
	if m.inst != nil {
		cp := *m.inst
		inst = &cp
	}

	history := make([]StepRecord, len(m.history))
	copy(history, m.history)

	return Snapshot{
		Phase:     m.phase,
		Cycle:     m.cycle,
		PC:        pc,
		Inst:      inst,
		Registers: m.regs.Snapshot(),
		Memory:    m.memory.Cells(),
		Cache:     m.caches.Levels(),
		Bus:       m.busLog.Transfers(),
		History:   history,
	}
}

func (m *Machine) bumpEpoch() {
	m.epochMu.Lock()
	m.epoch++
	m.epochMu.Unlock()
}

func (m *Machine) currentEpoch() uint64 {
	m.epochMu.Lock()
	defer m.epochMu.Unlock()

	return m.epoch
}
