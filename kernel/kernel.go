// Package kernel implements the execution semantics of the teaching
// instruction set against one machine's registers, memory, cache, and bus.
// Both front ends, the cycle stepper and the resource-constrained game
// driver, dispatch through this package so their semantics cannot drift.
package kernel

import (
	"fmt"

	"github.com/sarchlab/minicpu/bus"
	"github.com/sarchlab/minicpu/cache"
	"github.com/sarchlab/minicpu/isa"
	"github.com/sarchlab/minicpu/mem"
)

// A RegisterDelta records one register mutation of an EXECUTE phase.
type RegisterDelta struct {
	Name string
	Old  int
	New  int
}

// A MemoryDelta records one memory mutation of an EXECUTE phase.
type MemoryDelta struct {
	Addr int
	Old  int
	New  int
}

// A Delta is the full effect of executing one instruction. Skipped is true
// when the instruction was malformed and the kernel failed soft. Fault is
// only populated in strict mode.
type Delta struct {
	RegisterDeltas []RegisterDelta
	MemoryDeltas   []MemoryDelta
	Skipped        bool
	Fault          error
}

// A MalformedInstructionError describes an instruction the kernel refused
// to execute because a required operand, destination, or address was
// missing. It is only surfaced in strict mode; the default policy skips
// the instruction silently so the teaching simulation always advances.
type MalformedInstructionError struct {
	Inst   isa.Instruction
	Reason string
}

func (e *MalformedInstructionError) Error() string {
	return fmt.Sprintf("malformed instruction %q: %s", e.Inst, e.Reason)
}

// A Kernel executes instructions against one machine's state.
type Kernel struct {
	regs   *mem.RegisterFile
	memory *mem.Memory
	caches *cache.Hierarchy
	busLog *bus.Log
	strict bool
}

// New creates a kernel bound to the given state. All parts belong to one
// machine; kernels never share state.
func New(
	regs *mem.RegisterFile,
	memory *mem.Memory,
	caches *cache.Hierarchy,
	busLog *bus.Log,
) *Kernel {
	return &Kernel{
		regs:   regs,
		memory: memory,
		caches: caches,
		busLog: busLog,
	}
}

// SetStrict makes malformed instructions surface a structured error on the
// returned delta instead of being skipped silently.
func (k *Kernel) SetStrict(strict bool) {
	k.strict = strict
}

// Execute runs one instruction at the given cycle and returns its effect.
func (k *Kernel) Execute(inst isa.Instruction, cycle int) Delta {
	switch inst.Opcode {
	case isa.OpLoad:
		return k.executeLoad(inst, cycle)
	case isa.OpStore:
		return k.executeStore(inst, cycle)
	case isa.OpAdd, isa.OpSub, isa.OpMul, isa.OpDiv:
		return k.executeArithmetic(inst)
	case isa.OpMov:
		return k.executeMov(inst)
	case isa.OpJmp, isa.OpJz, isa.OpJnz, isa.OpHalt:
		// Defined by the ISA but not implemented by the teaching machine.
		return Delta{}
	default:
		return k.skip(inst, "unknown opcode")
	}
}

func (k *Kernel) executeLoad(inst isa.Instruction, cycle int) Delta {
	old, ok := k.regs.Value(inst.Dest)
	if !ok {
		return k.skip(inst, "no destination register")
	}

	var value int
	if inst.HasAddress {
		value, _, _ = k.caches.Read(inst.Address, cycle)
		k.memory.MarkUsed(inst.Address)
		k.busLog.Record(bus.Data, "Memory", inst.Dest, value)
	} else {
		lit, isLit := inst.Op1.Literal()
		if !isLit {
			return k.skip(inst, "no literal operand")
		}

		value = lit
	}

	k.regs.Set(inst.Dest, value)

	return Delta{
		RegisterDeltas: []RegisterDelta{{Name: inst.Dest, Old: old, New: value}},
	}
}

func (k *Kernel) executeStore(inst isa.Instruction, cycle int) Delta {
	if !inst.HasAddress {
		return k.skip(inst, "no memory address")
	}

	src, ok := inst.Op1.Register()
	if !ok {
		return k.skip(inst, "no source register")
	}

	value, ok := k.regs.Value(src)
	if !ok {
		return k.skip(inst, "source register "+src+" not found")
	}

	old, ok := k.memory.Peek(inst.Address)
	if !ok {
		return k.skip(inst, "address out of range")
	}

	k.memory.Write(inst.Address, value)
	k.caches.Write(inst.Address, value, cycle)
	k.regs.Touch(src)
	k.busLog.Record(bus.Data, src, "Memory", value)

	return Delta{
		MemoryDeltas: []MemoryDelta{{Addr: inst.Address, Old: old, New: value}},
	}
}

func (k *Kernel) executeArithmetic(inst isa.Instruction) Delta {
	a, ok := k.resolve(inst.Op1)
	if !ok {
		return k.skip(inst, "operand 1 unresolvable")
	}

	b, ok := k.resolve(inst.Op2)
	if !ok {
		return k.skip(inst, "operand 2 unresolvable")
	}

	old, ok := k.regs.Value(inst.Dest)
	if !ok {
		return k.skip(inst, "no destination register")
	}

	value := applyArithmetic(inst.Opcode, a, b)
	k.regs.Set(inst.Dest, value)

	return Delta{
		RegisterDeltas: []RegisterDelta{{Name: inst.Dest, Old: old, New: value}},
	}
}

func (k *Kernel) executeMov(inst isa.Instruction) Delta {
	lit, ok := inst.Op1.Literal()
	if !ok {
		return k.skip(inst, "no literal operand")
	}

	old, ok := k.regs.Value(inst.Dest)
	if !ok {
		return k.skip(inst, "no destination register")
	}

	k.regs.Set(inst.Dest, lit)

	return Delta{
		RegisterDeltas: []RegisterDelta{{Name: inst.Dest, Old: old, New: lit}},
	}
}

// resolve turns an operand into a value: a literal directly, a register
// reference by reading the register. Absent operands and references to
// unknown registers do not resolve.
func (k *Kernel) resolve(o isa.Operand) (int, bool) {
	if v, ok := o.Literal(); ok {
		return v, true
	}

	if name, ok := o.Register(); ok {
		return k.regs.Value(name)
	}

	return 0, false
}

func (k *Kernel) skip(inst isa.Instruction, reason string) Delta {
	d := Delta{Skipped: true}

	if k.strict {
		d.Fault = &MalformedInstructionError{Inst: inst, Reason: reason}
	}

	return d
}

// applyArithmetic computes the result of an arithmetic opcode. Division
// floors toward negative infinity so that the displayed results match the
// teaching convention, and division by zero yields zero rather than an
// error.
func applyArithmetic(op isa.Opcode, a, b int) int {
	switch op {
	case isa.OpAdd:
		return a + b
	case isa.OpSub:
		return a - b
	case isa.OpMul:
		return a * b
	case isa.OpDiv:
		return floorDiv(a, b)
	default:
		panic(fmt.Sprintf("kernel: %s is not an arithmetic opcode", op))
	}
}

func floorDiv(a, b int) int {
	if b == 0 {
		return 0
	}

	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}

	return q
}

// EnergyCost returns the energy charged for executing op on a machine with
// the given register bank: the opcode's cycle cost plus half a unit per
// register currently holding a nonzero value.
func EnergyCost(op isa.Opcode, regs *mem.RegisterFile) float64 {
	return float64(isa.CycleCost(op)) + 0.5*float64(regs.CountNonzero())
}
