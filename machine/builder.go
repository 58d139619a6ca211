package machine

import (
	"time"

	"github.com/sarchlab/minicpu/bus"
	"github.com/sarchlab/minicpu/cache"
	"github.com/sarchlab/minicpu/kernel"
	"github.com/sarchlab/minicpu/mem"
)

// A Builder configures and creates machines.
type Builder struct {
	memorySize   int
	geometry     []int
	registers    []mem.Register
	stepDuration time.Duration
	strict       bool
}

// MakeBuilder returns a builder with the reference sizing: 512 memory
// cells (the canonical addition program stores at address 0x100, which a
// 256-cell bank cannot hold), an 8/16/32-line cache hierarchy, the default
// register bank, and an 800ms step duration for the cosmetic deactivation
// timers.
func MakeBuilder() Builder {
	return Builder{
		memorySize:   512,
		geometry:     cache.DefaultGeometry(),
		registers:    mem.DefaultRegisters(),
		stepDuration: 800 * time.Millisecond,
	}
}

// WithMemorySize sets the number of memory cells.
func (b Builder) WithMemorySize(size int) Builder {
	b.memorySize = size
	return b
}

// WithCacheGeometry sets the number of lines per cache level, L1 first.
func (b Builder) WithCacheGeometry(geometry []int) Builder {
	b.geometry = geometry
	return b
}

// WithRegisters replaces the register bank. The bank must include PC and
// IR for the cycle machinery to work.
func (b Builder) WithRegisters(registers []mem.Register) Builder {
	b.registers = registers
	return b
}

// WithStepDuration sets the delay after which bus records and cache access
// status deactivate.
func (b Builder) WithStepDuration(d time.Duration) Builder {
	b.stepDuration = d
	return b
}

// WithStrictDecode makes malformed instructions surface a structured fault
// instead of being skipped silently.
func (b Builder) WithStrictDecode() Builder {
	b.strict = true
	return b
}

// Build creates the machine.
func (b Builder) Build() *Machine {
	m := &Machine{
		regs:         mem.NewRegisterFile(b.registers),
		memory:       mem.NewMemory(b.memorySize),
		busLog:       bus.NewLog(),
		stepDuration: b.stepDuration,
	}

	m.caches = cache.NewHierarchy(m.memory, b.geometry)
	m.kern = kernel.New(m.regs, m.memory, m.caches, m.busLog)
	m.kern.SetStrict(b.strict)
	m.busLog.SetTTL(b.stepDuration)

	return m
}
