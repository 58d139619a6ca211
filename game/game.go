// Package game drives the teaching CPU under resource constraints. Instead
// of phase sequencing, it charges a cycle and energy cost per submitted
// instruction and, at higher difficulties, gates arithmetic on register
// availability. Instruction semantics come from the execution kernel
// unchanged, so both front ends always agree on results.
package game

import (
	"github.com/sarchlab/minicpu/isa"
	"github.com/sarchlab/minicpu/kernel"
	"github.com/sarchlab/minicpu/machine"
	"github.com/sarchlab/minicpu/mem"
)

// RegisterManagementThreshold is the difficulty at which arithmetic
// instructions start requiring an available destination register.
const RegisterManagementThreshold = 3

// A Result reports the outcome of one submitted instruction.
type Result struct {
	OK         bool
	CyclesUsed int
	EnergyUsed float64
	Reason     string
}

// A Session runs one player's instructions against one machine.
type Session struct {
	m          *machine.Machine
	difficulty int
	managed    map[string]bool

	cycle       int
	totalCycles int
	totalEnergy float64
}

// NewSession creates a session at the given difficulty. Every register of
// the machine except PC and IR is under register management.
func NewSession(m *machine.Machine, difficulty int) *Session {
	s := &Session{
		m:          m,
		difficulty: difficulty,
		managed:    make(map[string]bool),
	}

	for _, name := range m.Registers().Names() {
		if name != mem.PC && name != mem.IR {
			s.managed[name] = true
		}
	}

	return s
}

// Submit executes one instruction, charging its cycle and energy cost.
// Rejected and malformed instructions cost nothing.
func (s *Session) Submit(inst isa.Instruction) Result {
	if s.requiresAvailableRegister(inst.Opcode) && !s.registerAvailable(inst.Dest) {
		return Result{
			Reason: "register " + inst.Dest + " is not available",
		}
	}

	cycles := isa.CycleCost(inst.Opcode)
	energy := kernel.EnergyCost(inst.Opcode, s.m.Registers())

	s.cycle++
	delta := s.m.Kernel().Execute(inst, s.cycle)
	if delta.Skipped {
		return Result{Reason: "malformed instruction"}
	}

	s.totalCycles += cycles
	s.totalEnergy += energy

	return Result{OK: true, CyclesUsed: cycles, EnergyUsed: energy}
}

// TotalCycles returns the cycles charged so far.
func (s *Session) TotalCycles() int {
	return s.totalCycles
}

// TotalEnergy returns the energy charged so far.
func (s *Session) TotalEnergy() float64 {
	return s.totalEnergy
}

func (s *Session) requiresAvailableRegister(op isa.Opcode) bool {
	if s.difficulty < RegisterManagementThreshold {
		return false
	}

	switch op {
	case isa.OpAdd, isa.OpSub, isa.OpMul, isa.OpDiv:
		return true
	default:
		return false
	}
}

// registerAvailable is a membership test of the destination in the managed
// register set, not an occupancy test: a register that already holds a
// value still counts as available. The tests pin this behavior down.
func (s *Session) registerAvailable(name string) bool {
	return s.managed[name]
}
