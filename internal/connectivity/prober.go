package connectivity

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Pinger checks reachability of the remote API
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProberConfig holds configuration for the prober
type ProberConfig struct {
	Interval        time.Duration // probe period while online
	OfflineInterval time.Duration // probe period while offline
	Timeout         time.Duration // per-probe timeout
}

// DefaultProberConfig returns sensible defaults
func DefaultProberConfig() ProberConfig {
	return ProberConfig{
		Interval:        30 * time.Second,
		OfflineInterval: 3 * time.Second,
		Timeout:         5 * time.Second,
	}
}

// Prober is a background worker that pings the API and feeds the Monitor
type Prober struct {
	pinger  Pinger
	monitor *Monitor
	logger  zerolog.Logger
	config  ProberConfig
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewProber creates a new prober
func NewProber(pinger Pinger, monitor *Monitor, logger zerolog.Logger, config ProberConfig) *Prober {
	defaults := DefaultProberConfig()
	if config.Interval <= 0 {
		config.Interval = defaults.Interval
	}
	if config.OfflineInterval <= 0 {
		config.OfflineInterval = defaults.OfflineInterval
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}

	return &Prober{
		pinger:  pinger,
		monitor: monitor,
		logger:  logger.With().Str("component", "prober").Logger(),
		config:  config,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start begins probing in the background
func (p *Prober) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.mu.Unlock()

	p.logger.Info().
		Dur("interval", p.config.Interval).
		Dur("offline_interval", p.config.OfflineInterval).
		Msg("Starting connectivity prober")

	go p.run(ctx)
}

// Stop stops the prober and waits for it to exit
func (p *Prober) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	close(p.stopCh)
	<-p.doneCh
	p.logger.Info().Msg("Connectivity prober stopped")
}

// IsRunning returns whether the prober is running
func (p *Prober) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Prober) run(ctx context.Context) {
	defer close(p.doneCh)
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	p.Probe(ctx)

	timer := time.NewTimer(p.next())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-timer.C:
			p.Probe(ctx)
			timer.Reset(p.next())
		}
	}
}

func (p *Prober) next() time.Duration {
	if p.monitor.Online() {
		return p.config.Interval
	}
	return p.config.OfflineInterval
}

// Probe pings once and records the result
func (p *Prober) Probe(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	err := p.pinger.Ping(probeCtx)
	if err != nil && ctx.Err() != nil {
		// shutting down, not a connectivity signal
		return false
	}
	if err != nil {
		p.logger.Debug().Err(err).Msg("Probe failed")
	}
	p.monitor.SetOnline(err == nil)
	return err == nil
}
