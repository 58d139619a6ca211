package datarecording

import "github.com/sarchlab/minicpu/machine"

// Table names written by a TraceHook.
const (
	PhaseTable         = "phases"
	RegisterDeltaTable = "register_deltas"
	MemoryDeltaTable   = "memory_deltas"
)

// A PhaseRow is one executed phase of the machine.
type PhaseRow struct {
	Cycle       int
	Phase       string
	Instruction string
	Skipped     bool
}

// A RegisterDeltaRow is one register mutation of an EXECUTE phase.
type RegisterDeltaRow struct {
	Cycle    int
	Register string
	OldValue int
	NewValue int
}

// A MemoryDeltaRow is one memory mutation of an EXECUTE phase.
type MemoryDeltaRow struct {
	Cycle    int
	Addr     int
	OldValue int
	NewValue int
}

// A TraceHook records every machine phase and its deltas into a Recorder.
// Register it with machine.AcceptHook.
type TraceHook struct {
	rec Recorder
}

// NewTraceHook creates the trace tables on rec and returns the hook.
func NewTraceHook(rec Recorder) *TraceHook {
	rec.CreateTable(PhaseTable, PhaseRow{})
	rec.CreateTable(RegisterDeltaTable, RegisterDeltaRow{})
	rec.CreateTable(MemoryDeltaTable, MemoryDeltaRow{})

	return &TraceHook{rec: rec}
}

// Func implements machine.Hook.
func (h *TraceHook) Func(ctx machine.HookCtx) {
	if ctx.Pos != machine.HookPosAfterPhase || ctx.Record == nil {
		return
	}

	record := ctx.Record

	h.rec.Insert(PhaseTable, PhaseRow{
		Cycle:       record.Cycle,
		Phase:       record.Phase.String(),
		Instruction: record.Inst.String(),
		Skipped:     record.Skipped,
	})

	for _, d := range record.RegisterDeltas {
		h.rec.Insert(RegisterDeltaTable, RegisterDeltaRow{
			Cycle:    record.Cycle,
			Register: d.Name,
			OldValue: d.Old,
			NewValue: d.New,
		})
	}

	for _, d := range record.MemoryDeltas {
		h.rec.Insert(MemoryDeltaTable, MemoryDeltaRow{
			Cycle:    record.Cycle,
			Addr:     d.Addr,
			OldValue: d.Old,
			NewValue: d.New,
		})
	}
}
