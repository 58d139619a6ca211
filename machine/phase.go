package machine

// A Phase is one stage of the instruction cycle. The order is fixed and
// cyclic: FETCH, DECODE, EXECUTE, STORE, then the FETCH of the next
// instruction, or IDLE when the program is exhausted.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFetch
	PhaseDecode
	PhaseExecute
	PhaseStore
)

var phaseNames = map[Phase]string{
	PhaseIdle:    "IDLE",
	PhaseFetch:   "FETCH",
	PhaseDecode:  "DECODE",
	PhaseExecute: "EXECUTE",
	PhaseStore:   "STORE",
}

func (p Phase) String() string {
	name, ok := phaseNames[p]
	if !ok {
		return "UNKNOWN"
	}

	return name
}
