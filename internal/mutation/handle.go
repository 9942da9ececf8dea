package mutation

import (
	"context"
	"sync"
	"time"

	"github.com/dafibh/domo/domo-client/internal/gateway"
	"github.com/google/uuid"
)

// Handle tracks one dispatched mutation
type Handle struct {
	ID   uuid.UUID
	Name string

	mu        sync.Mutex
	state     State
	attempts  int
	err       error
	result    []byte
	createdAt time.Time
	settledAt time.Time
	done      chan struct{}
}

// Status is the JSON view of a Handle
type Status struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	State     State      `json:"state"`
	Attempts  int        `json:"attempts"`
	Error     string     `json:"error,omitempty"`
	Reason    string     `json:"reason,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	SettledAt *time.Time `json:"settledAt,omitempty"`
}

func newHandle(name string) *Handle {
	return &Handle{
		ID:        uuid.New(),
		Name:      name,
		state:     StateIdle,
		createdAt: time.Now(),
		done:      make(chan struct{}),
	}
}

// transition moves the handle to a new state if the move is legal
func (h *Handle) transition(to State) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state == to {
		return nil
	}
	if !CanTransition(h.state, to) {
		return &TransitionError{From: h.state, To: to}
	}
	h.state = to
	return nil
}

func (h *Handle) setAttempts(n int) {
	h.mu.Lock()
	h.attempts = n
	h.mu.Unlock()
}

// settle records the outcome and releases waiters
func (h *Handle) settle(to State, result []byte, err error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !CanTransition(h.state, to) {
		return &TransitionError{From: h.state, To: to}
	}
	h.state = to
	h.result = result
	h.err = err
	h.settledAt = time.Now()
	close(h.done)
	return nil
}

// State returns the current state
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Attempts returns how many submits were made
func (h *Handle) Attempts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attempts
}

// Err returns the failure cause once settled
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Result returns the response body of a successful mutation
func (h *Handle) Result() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.result
}

// Done is closed once the mutation settles
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the mutation settles and returns its error
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return h.Err()
	}
}

// Status returns a point-in-time view of the handle
func (h *Handle) Status() Status {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := Status{
		ID:        h.ID,
		Name:      h.Name,
		State:     h.state,
		Attempts:  h.attempts,
		CreatedAt: h.createdAt,
	}
	if h.err != nil {
		s.Error = h.err.Error()
		s.Reason = gateway.ReasonOf(h.err)
	}
	if !h.settledAt.IsZero() {
		at := h.settledAt
		s.SettledAt = &at
	}
	return s
}
