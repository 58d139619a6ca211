// Package mem provides the flat addressable memory and the register bank of
// the teaching machine.
package mem

// A Cell is one addressable memory location. The Active flag is transient
// and cleared at the end of every STORE phase. The Used flag is sticky: it
// is set the first time the cell is read or written and survives until the
// machine is reset.
type Cell struct {
	Addr   int
	Value  int
	Active bool
	Used   bool
}

// Memory is a fixed-size bank of cells addressed 0..Size()-1. Out-of-range
// accesses are reported to the caller rather than panicking, so that the
// execution kernel can skip over them.
type Memory struct {
	cells []Cell
}

// NewMemory creates a memory bank with the given number of cells.
func NewMemory(size int) *Memory {
	m := &Memory{
		cells: make([]Cell, size),
	}

	for i := range m.cells {
		m.cells[i].Addr = i
	}

	return m
}

// Size returns the number of cells.
func (m *Memory) Size() int {
	return len(m.cells)
}

// Read returns the value at addr, marking the cell used and active.
func (m *Memory) Read(addr int) (value int, ok bool) {
	if !m.inRange(addr) {
		return 0, false
	}

	cell := &m.cells[addr]
	cell.Used = true
	cell.Active = true

	return cell.Value, true
}

// Write stores value at addr, marking the cell used and active.
func (m *Memory) Write(addr, value int) bool {
	if !m.inRange(addr) {
		return false
	}

	cell := &m.cells[addr]
	cell.Value = value
	cell.Used = true
	cell.Active = true

	return true
}

// Peek returns the value at addr without touching any flag. The cache uses
// it to fill lines on a miss and snapshots use it for display.
func (m *Memory) Peek(addr int) (value int, ok bool) {
	if !m.inRange(addr) {
		return 0, false
	}

	return m.cells[addr].Value, true
}

// Load implements the cache backing interface: it returns the value at
// addr without touching any flag, and a missing location reads as zero.
func (m *Memory) Load(addr int) int {
	value, _ := m.Peek(addr)
	return value
}

// MarkUsed sets the sticky used flag of the cell at addr without changing
// its value or its active flag.
func (m *Memory) MarkUsed(addr int) bool {
	if !m.inRange(addr) {
		return false
	}

	m.cells[addr].Used = true

	return true
}

// Cell returns a copy of the cell at addr.
func (m *Memory) Cell(addr int) (Cell, bool) {
	if !m.inRange(addr) {
		return Cell{}, false
	}

	return m.cells[addr], true
}

// Cells returns a copy of all cells.
func (m *Memory) Cells() []Cell {
	snapshot := make([]Cell, len(m.cells))
	copy(snapshot, m.cells)

	return snapshot
}

// DeactivateAll clears the transient Active flag of every cell.
func (m *Memory) DeactivateAll() {
	for i := range m.cells {
		m.cells[i].Active = false
	}
}

// Reset zeroes every cell and clears both flags.
func (m *Memory) Reset() {
	for i := range m.cells {
		m.cells[i] = Cell{Addr: i}
	}
}

func (m *Memory) inRange(addr int) bool {
	return addr >= 0 && addr < len(m.cells)
}
