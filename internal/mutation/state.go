package mutation

import "fmt"

// State is the lifecycle position of one mutation
type State string

const (
	StateIdle       State = "idle"
	StatePredicting State = "predicting"
	StateSubmitting State = "submitting"
	StateRetrying   State = "retrying"
	StateHeld       State = "held" // waiting for connectivity
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

// transitions lists the legal next states of each state
var transitions = map[State][]State{
	StateIdle:       {StatePredicting},
	StatePredicting: {StateSubmitting, StateHeld, StateFailed},
	StateSubmitting: {StateSucceeded, StateFailed, StateRetrying, StateHeld},
	StateRetrying:   {StateSubmitting, StateHeld, StateFailed},
	StateHeld:       {StateSubmitting, StateFailed},
	StateSucceeded:  nil,
	StateFailed:     nil,
}

// CanTransition reports whether from -> to is a legal move
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s is a settled state
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Next returns the legal next states of s
func (s State) Next() []State {
	return append([]State(nil), transitions[s]...)
}

// TransitionError is returned for an illegal state change
type TransitionError struct {
	From, To State
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal mutation transition %s -> %s", e.From, e.To)
}
