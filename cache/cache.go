// Package cache simulates the three-level cache hierarchy of the teaching
// machine, with hit/miss accounting and least-recently-used eviction.
package cache

import (
	"fmt"
	"sync"
)

//go:generate mockgen -destination mock_backing_test.go -package cache_test github.com/sarchlab/minicpu/cache Backing

// A Backing supplies the value of a memory location when a read misses
// every level. A location that was never written reads as zero.
type Backing interface {
	Load(addr int) int
}

// A Line is one slot of a cache level. LastAccess carries the cycle number
// of the most recent touch and orders lines for eviction.
type Line struct {
	Addr       int
	Value      int
	Valid      bool
	Dirty      bool
	LastAccess int
}

// A Level is one fixed-size array of lines plus its running hit and miss
// counters. Active, ActiveAddr and WasHit describe only the most recent
// access and exist for visualization; they carry no causal weight.
type Level struct {
	Name   string
	Lines  []Line
	Hits   int
	Misses int

	Active     bool
	ActiveAddr int
	WasHit     bool
}

func newLevel(name string, numLines int) *Level {
	if numLines <= 0 {
		panic(fmt.Sprintf("cache: level %s must have at least one line", name))
	}

	return &Level{
		Name:  name,
		Lines: make([]Line, numLines),
	}
}

// lookup returns the index of the valid line holding addr, or -1.
func (l *Level) lookup(addr int) int {
	for i, line := range l.Lines {
		if line.Valid && line.Addr == addr {
			return i
		}
	}

	return -1
}

func (l *Level) clearTransient() {
	l.Active = false
	l.ActiveAddr = 0
	l.WasHit = false
}

func (l *Level) markAccess(addr int, hit bool) {
	l.Active = true
	l.ActiveAddr = addr
	l.WasHit = hit
}

// DefaultGeometry is the reference sizing of the hierarchy: 8 lines in L1,
// 16 in L2, and 32 in L3.
func DefaultGeometry() []int {
	return []int{8, 16, 32}
}

// A Hierarchy owns the cache levels of one machine. Levels are scanned in
// fixed order, L1 first, and all misses fill into L1. Nothing here is
// shared between machines; parallel machines own independent hierarchies.
// The deferred transient clear after a STORE phase fires on a timer
// goroutine, so the hierarchy carries its own lock, like the bus log does.
type Hierarchy struct {
	mu      sync.Mutex
	levels  []*Level
	backing Backing
	victims victimFinder
}

// NewHierarchy creates a hierarchy with one level per entry of geometry,
// named L1, L2, ... in order. Reads that miss all levels fill from backing.
func NewHierarchy(backing Backing, geometry []int) *Hierarchy {
	if len(geometry) == 0 {
		panic("cache: hierarchy needs at least one level")
	}

	h := &Hierarchy{
		backing: backing,
		victims: lruVictimFinder{},
	}

	for i, numLines := range geometry {
		h.levels = append(h.levels, newLevel(fmt.Sprintf("L%d", i+1), numLines))
	}

	return h
}

// NumLevels returns the number of levels.
func (h *Hierarchy) NumLevels() int {
	return len(h.levels)
}

// Read performs the read path for addr at the given cycle. The first level
// holding a valid line for addr scores a hit and the line value is
// returned. When every level misses, L1 scores a miss, a victim line in L1
// is replaced with the value loaded from backing, and that value is
// returned. The returned level is the index of the level that served the
// access.
func (h *Hierarchy) Read(addr, cycle int) (value, level int, hit bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clearTransient()

	for i, lvl := range h.levels {
		idx := lvl.lookup(addr)
		if idx < 0 {
			continue
		}

		lvl.Hits++
		lvl.markAccess(addr, true)
		lvl.Lines[idx].LastAccess = cycle

		return lvl.Lines[idx].Value, i, true
	}

	l1 := h.levels[0]
	l1.Misses++
	l1.markAccess(addr, false)

	value = h.backing.Load(addr)
	victim := h.victims.FindVictim(l1)
	l1.Lines[victim] = Line{
		Addr:       addr,
		Value:      value,
		Valid:      true,
		LastAccess: cycle,
	}

	return value, 0, false
}

// Write performs the write path for addr at the given cycle. Every level is
// scanned for an existing valid line; on a hit the line is overwritten and
// marked dirty. On a miss the value is filled into an L1 victim line,
// dirty. Write-through: the caller persists the value to backing memory
// independently of this call.
func (h *Hierarchy) Write(addr, value, cycle int) (level int, hit bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clearTransient()

	for i, lvl := range h.levels {
		idx := lvl.lookup(addr)
		if idx < 0 {
			continue
		}

		lvl.Hits++
		lvl.markAccess(addr, true)
		lvl.Lines[idx].Value = value
		lvl.Lines[idx].Dirty = true
		lvl.Lines[idx].LastAccess = cycle

		return i, true
	}

	l1 := h.levels[0]
	l1.Misses++
	l1.markAccess(addr, false)

	victim := h.victims.FindVictim(l1)
	l1.Lines[victim] = Line{
		Addr:       addr,
		Value:      value,
		Valid:      true,
		Dirty:      true,
		LastAccess: cycle,
	}

	return 0, false
}

// Levels returns a deep copy of all levels for snapshots.
func (h *Hierarchy) Levels() []Level {
	h.mu.Lock()
	defer h.mu.Unlock()

	snapshot := make([]Level, 0, len(h.levels))
	for _, lvl := range h.levels {
		cp := *lvl
		cp.Lines = make([]Line, len(lvl.Lines))
		copy(cp.Lines, lvl.Lines)
		snapshot = append(snapshot, cp)
	}

	return snapshot
}

// DeactivateAll clears the transient access status of every level. The
// machine calls it on a delay after the STORE phase; it never affects
// which lines are valid.
func (h *Hierarchy) DeactivateAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clearTransient()
}

// Reset invalidates every line and zeroes all counters.
func (h *Hierarchy) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, lvl := range h.levels {
		for i := range lvl.Lines {
			lvl.Lines[i] = Line{}
		}

		lvl.Hits = 0
		lvl.Misses = 0
		lvl.clearTransient()
	}
}

func (h *Hierarchy) clearTransient() {
	for _, lvl := range h.levels {
		lvl.clearTransient()
	}
}
