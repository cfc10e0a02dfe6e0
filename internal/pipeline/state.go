package pipeline

import "fmt"

// State is the lifecycle position of a work unit.
//
//	Pending -> Fetching -> Extracting -> Reaping -> Done
//	                    \-> FetchFailed ----------> Done
type State int

const (
	Pending State = iota
	Fetching
	FetchFailed
	Extracting
	Reaping
	Done
)

// String returns the string representation of the State.
func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Fetching:
		return "fetching"
	case FetchFailed:
		return "fetch-failed"
	case Extracting:
		return "extracting"
	case Reaping:
		return "reaping"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// Active reports whether a unit in this state occupies a worker slot.
func (s State) Active() bool {
	return s != Pending && s != Done
}

// validTransitions lists the allowed successor states.
// Fetching -> Done covers units that end before extraction starts
// (cancellation, filesystem errors).
var validTransitions = map[State][]State{
	Pending:     {Fetching, Done},
	Fetching:    {FetchFailed, Extracting, Done},
	FetchFailed: {Done},
	Extracting:  {Reaping},
	Reaping:     {Done},
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Outcome summarizes how a unit ended.
type Outcome int

const (
	// OutcomeOK means every segment produced a clip.
	OutcomeOK Outcome = iota
	// OutcomePartial means at least one segment failed.
	OutcomePartial
	// OutcomeFetchFailed means the video could not be fetched; no clips were attempted.
	OutcomeFetchFailed
	// OutcomeCanceled means the unit was interrupted while running.
	OutcomeCanceled
	// OutcomeSkipped means the unit was never started because the run was stopping.
	OutcomeSkipped
	// OutcomeFilesystemError means a local filesystem error ended the unit.
	OutcomeFilesystemError
)

// String returns the string representation of the Outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomePartial:
		return "partial"
	case OutcomeFetchFailed:
		return "fetch-failed"
	case OutcomeCanceled:
		return "canceled"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFilesystemError:
		return "filesystem-error"
	default:
		return fmt.Sprintf("Outcome(%d)", o)
	}
}
