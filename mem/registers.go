package mem

// Names of the two registers every machine owns. PC and IR keep their
// active flag across the STORE phase so the visualization can always show
// where the machine is.
const (
	PC = "PC"
	IR = "IR"
)

// A Register is one named storage slot of the bank. Active is transient,
// true only during the cycle in which the register was last touched.
type Register struct {
	Name        string
	Value       int
	Active      bool
	Description string
}

// A RegisterFile is a fixed set of named registers. Registers are created
// once and only ever reset, never destroyed. Lookups of unknown names are
// reported to the caller, matching the fail-soft policy of the kernel.
type RegisterFile struct {
	order []string
	regs  map[string]*Register
}

// DefaultRegisters returns the register set of the teaching machine: the
// program counter, the instruction register, and four general registers.
func DefaultRegisters() []Register {
	return []Register{
		{Name: PC, Description: "program counter"},
		{Name: IR, Description: "instruction register"},
		{Name: "R1", Description: "general purpose register 1"},
		{Name: "R2", Description: "general purpose register 2"},
		{Name: "R3", Description: "general purpose register 3"},
		{Name: "R4", Description: "general purpose register 4"},
	}
}

// NewRegisterFile creates a register file holding the given registers.
// Duplicate names are a programming error.
func NewRegisterFile(registers []Register) *RegisterFile {
	rf := &RegisterFile{
		regs: make(map[string]*Register, len(registers)),
	}

	for _, r := range registers {
		if _, ok := rf.regs[r.Name]; ok {
			panic("mem: register " + r.Name + " already defined")
		}

		reg := r
		rf.order = append(rf.order, r.Name)
		rf.regs[r.Name] = &reg
	}

	return rf
}

// Names returns the register names in declaration order.
func (rf *RegisterFile) Names() []string {
	names := make([]string, len(rf.order))
	copy(names, rf.order)

	return names
}

// Has tells if a register with the given name exists.
func (rf *RegisterFile) Has(name string) bool {
	_, ok := rf.regs[name]
	return ok
}

// Value returns the current value of the named register.
func (rf *RegisterFile) Value(name string) (int, bool) {
	reg, ok := rf.regs[name]
	if !ok {
		return 0, false
	}

	return reg.Value, true
}

// Set writes the named register and marks it active.
func (rf *RegisterFile) Set(name string, value int) bool {
	reg, ok := rf.regs[name]
	if !ok {
		return false
	}

	reg.Value = value
	reg.Active = true

	return true
}

// Touch marks the named register active without changing its value.
func (rf *RegisterFile) Touch(name string) bool {
	reg, ok := rf.regs[name]
	if !ok {
		return false
	}

	reg.Active = true

	return true
}

// DeactivateAllExcept clears the active flag of every register not listed.
func (rf *RegisterFile) DeactivateAllExcept(keep ...string) {
	kept := make(map[string]bool, len(keep))
	for _, name := range keep {
		kept[name] = true
	}

	for _, reg := range rf.regs {
		if !kept[reg.Name] {
			reg.Active = false
		}
	}
}

// CountNonzero returns how many registers currently hold a nonzero value.
// The game driver charges energy proportional to it.
func (rf *RegisterFile) CountNonzero() int {
	n := 0
	for _, reg := range rf.regs {
		if reg.Value != 0 {
			n++
		}
	}

	return n
}

// Snapshot returns a copy of all registers in declaration order.
func (rf *RegisterFile) Snapshot() []Register {
	snapshot := make([]Register, 0, len(rf.order))
	for _, name := range rf.order {
		snapshot = append(snapshot, *rf.regs[name])
	}

	return snapshot
}

// Reset zeroes every register and clears its active flag.
func (rf *RegisterFile) Reset() {
	for _, reg := range rf.regs {
		reg.Value = 0
		reg.Active = false
	}
}
