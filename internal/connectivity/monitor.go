package connectivity

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Monitor tracks whether the remote API is reachable. It starts online.
type Monitor struct {
	mu        sync.Mutex
	online    bool
	changed   chan struct{} // closed on the next transition
	listeners []func(online bool)
	logger    zerolog.Logger
}

// NewMonitor creates a Monitor in the online state
func NewMonitor(logger zerolog.Logger) *Monitor {
	return &Monitor{
		online:  true,
		changed: make(chan struct{}),
		logger:  logger.With().Str("component", "connectivity").Logger(),
	}
}

// Online reports the current state
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline records a probe result, waking waiters on a transition
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	close(m.changed)
	m.changed = make(chan struct{})
	listeners := append([]func(bool){}, m.listeners...)
	m.mu.Unlock()

	if online {
		m.logger.Info().Msg("API reachable again")
	} else {
		m.logger.Warn().Msg("API unreachable, holding mutations")
	}

	for _, fn := range listeners {
		fn(online)
	}
}

// ReportOffline is called by anyone who saw a connection-level failure
func (m *Monitor) ReportOffline() {
	m.SetOnline(false)
}

// OnChange registers fn to run after every transition
func (m *Monitor) OnChange(fn func(online bool)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// WaitOnline blocks until the monitor is online or ctx is done
func (m *Monitor) WaitOnline(ctx context.Context) error {
	for {
		m.mu.Lock()
		online, changed := m.online, m.changed
		m.mu.Unlock()

		if online {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}
