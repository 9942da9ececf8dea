package mutation

import (
	"time"

	"github.com/google/uuid"
)

// Outcome of a settled mutation
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// GenericFailureMessage is shown when the server gave no reason
const GenericFailureMessage = "Could not save your changes. Please try again."

// Notice is the user-visible signal emitted on settlement
type Notice struct {
	MutationID uuid.UUID `json:"mutationId"`
	Name       string    `json:"name"`
	Outcome    Outcome   `json:"outcome"`
	Message    string    `json:"message"`
	Status     int       `json:"status,omitempty"` // HTTP status of a rejection
	Attempts   int       `json:"attempts"`
	At         time.Time `json:"at"`
}

// Notifier receives settlement notices. Notify must not block.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a func to Notifier
type NotifierFunc func(n Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

type noopNotifier struct{}

func (noopNotifier) Notify(Notice) {}
