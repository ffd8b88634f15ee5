package lifecycle

// State is the progress of one lifecycle request.
type State string

const (
	StateRequested  State = "REQUESTED"
	StateAuthorized State = "AUTHORIZED"
	StateGathering  State = "GATHERING_DOMAIN_INFO"
	StateExecuting  State = "EXECUTING_STEPS"
	StateCommitting State = "COMMITTING"
	StateSucceeded  State = "SUCCEEDED"
	StateDenied     State = "DENIED"
	StateFailed     State = "FAILED"
)

// Failure phases recorded with StateFailed.
const (
	PhaseAuthorize = "AUTHORIZE"
	PhaseGathering = "GATHERING"
	PhaseCommit    = "COMMIT"
)

// StepPhase is the failure phase for a named transaction step.
func StepPhase(step string) string {
	return "STEP:" + step
}

// validTransitions defines allowed state transitions
var validTransitions = map[State][]State{
	StateRequested:  {StateAuthorized, StateDenied, StateFailed},
	StateAuthorized: {StateGathering, StateFailed},
	StateGathering:  {StateExecuting, StateFailed},
	StateExecuting:  {StateCommitting, StateFailed},
	StateCommitting: {StateSucceeded, StateFailed},
	StateSucceeded:  {}, // Terminal state
	StateDenied:     {}, // Terminal state
	StateFailed:     {}, // Terminal state
}

// IsTerminal returns true if the state is a terminal state
func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateDenied || s == StateFailed
}

// CanTransitionTo returns true if transition to the target state is allowed
func (s State) CanTransitionTo(target State) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}
