package machine

import "github.com/sarchlab/minicpu/isa"

// HookPos defines the enum of possible hooking positions.
type HookPos struct {
	Name string
}

// HookPosBeforePhase triggers before a phase of the cycle runs.
var HookPosBeforePhase = &HookPos{Name: "BeforePhase"}

// HookPosAfterPhase triggers after a phase of the cycle ran.
var HookPosAfterPhase = &HookPos{Name: "AfterPhase"}

// HookPosInstructionSkipped triggers when the kernel fails soft on a
// malformed instruction.
var HookPosInstructionSkipped = &HookPos{Name: "InstructionSkipped"}

// HookCtx holds all the information about the site that a hook is
// triggered.
type HookCtx struct {
	Machine *Machine
	Pos     *HookPos
	Phase   Phase
	Inst    *isa.Instruction
	Record  *StepRecord
}

// A Hook is a short piece of program that observes the machine. Hooks are
// purely observational; mutating the machine from a hook is a programming
// error.
type Hook interface {
	Func(ctx HookCtx)
}

// Hookable defines an object that accepts hooks.
type Hookable interface {
	AcceptHook(hook Hook)
}

// A HookableBase provides the utility functions for types that implement
// the Hookable interface.
type HookableBase struct {
	hooks []Hook
}

// AcceptHook registers a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.hooks = append(h.hooks, hook)
}

// InvokeHook triggers the registered hooks.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}
