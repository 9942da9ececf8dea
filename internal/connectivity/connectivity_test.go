package connectivity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakePinger) Ping(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakePinger) setErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *fakePinger) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestMonitor_StartsOnline(t *testing.T) {
	m := NewMonitor(zerolog.Nop())
	assert.True(t, m.Online())
	assert.NoError(t, m.WaitOnline(context.Background()))
}

func TestMonitor_WaitOnlineBlocksUntilTransition(t *testing.T) {
	m := NewMonitor(zerolog.Nop())
	m.ReportOffline()
	require.False(t, m.Online())

	done := make(chan error, 1)
	go func() {
		done <- m.WaitOnline(context.Background())
	}()

	select {
	case <-done:
		t.Fatal("WaitOnline returned while offline")
	case <-time.After(20 * time.Millisecond):
	}

	m.SetOnline(true)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("WaitOnline did not return after going online")
	}
}

func TestMonitor_WaitOnlineHonoursContext(t *testing.T) {
	m := NewMonitor(zerolog.Nop())
	m.ReportOffline()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, m.WaitOnline(ctx), context.DeadlineExceeded)
}

func TestMonitor_OnChangeFiresOnTransitionsOnly(t *testing.T) {
	m := NewMonitor(zerolog.Nop())

	var states []bool
	m.OnChange(func(online bool) { states = append(states, online) })

	m.SetOnline(true) // no transition
	m.ReportOffline()
	m.ReportOffline()
	m.SetOnline(true)

	assert.Equal(t, []bool{false, true}, states)
}

func TestProber_ProbeUpdatesMonitor(t *testing.T) {
	m := NewMonitor(zerolog.Nop())
	pinger := &fakePinger{err: errors.New("connection refused")}
	p := NewProber(pinger, m, zerolog.Nop(), ProberConfig{})

	assert.False(t, p.Probe(context.Background()))
	assert.False(t, m.Online())

	pinger.setErr(nil)
	assert.True(t, p.Probe(context.Background()))
	assert.True(t, m.Online())
}

func TestProber_StartStop(t *testing.T) {
	m := NewMonitor(zerolog.Nop())
	pinger := &fakePinger{}
	p := NewProber(pinger, m, zerolog.Nop(), ProberConfig{
		Interval:        10 * time.Millisecond,
		OfflineInterval: 5 * time.Millisecond,
		Timeout:         time.Second,
	})

	p.Start(context.Background())
	assert.True(t, p.IsRunning())

	time.Sleep(50 * time.Millisecond)
	p.Stop()

	assert.False(t, p.IsRunning())
	assert.GreaterOrEqual(t, pinger.Calls(), 2)
}

func TestProber_DefaultConfig(t *testing.T) {
	p := NewProber(&fakePinger{}, NewMonitor(zerolog.Nop()), zerolog.Nop(), ProberConfig{})

	assert.Equal(t, 30*time.Second, p.config.Interval)
	assert.Equal(t, 3*time.Second, p.config.OfflineInterval)
	assert.Equal(t, 5*time.Second, p.config.Timeout)
}
