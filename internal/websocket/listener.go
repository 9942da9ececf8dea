package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/dafibh/domo/domo-client/internal/cache"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Invalidator is the part of the cache store remote events act on
type Invalidator interface {
	Invalidate(keys ...cache.Key)
}

// ListenerConfig holds configuration for the remote event listener
type ListenerConfig struct {
	URL            string
	Token          string
	ReconnectDelay time.Duration
	HandshakeWait  time.Duration
}

// Listener subscribes to the API's event stream and marks the cache keys of
// changed entities stale, so edits made elsewhere show up here. After a
// reconnect every key is invalidated, since events may have been missed.
type Listener struct {
	config ListenerConfig
	store  Invalidator
	dialer *websocket.Dialer
	logger zerolog.Logger

	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
	conn    *websocket.Conn
}

// NewListener creates a new remote event listener
func NewListener(store Invalidator, logger zerolog.Logger, config ListenerConfig) *Listener {
	if config.ReconnectDelay <= 0 {
		config.ReconnectDelay = 5 * time.Second
	}
	if config.HandshakeWait <= 0 {
		config.HandshakeWait = 10 * time.Second
	}
	return &Listener{
		config: config,
		store:  store,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: config.HandshakeWait,
		},
		logger: logger.With().Str("component", "event_listener").Logger(),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start connects in the background and keeps reconnecting until stopped
func (l *Listener) Start(ctx context.Context) {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.mu.Unlock()

	l.logger.Info().Str("url", l.config.URL).Msg("Starting remote event listener")
	go l.run(ctx)
}

// Stop closes the connection and waits for the listener to exit
func (l *Listener) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()

	close(l.stopCh)
	l.closeConn()
	<-l.doneCh
	l.logger.Info().Msg("Remote event listener stopped")
}

func (l *Listener) run(ctx context.Context) {
	defer close(l.doneCh)
	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
	}()

	// Unblock a pending read when the context ends
	go func() {
		select {
		case <-ctx.Done():
			l.closeConn()
		case <-l.stopCh:
		}
	}()

	connected := false
	for {
		conn, err := l.connect(ctx)
		if err == nil {
			if connected {
				l.store.Invalidate(cache.AllKeys...)
			}
			connected = true
			l.readLoop(conn)
		} else {
			l.logger.Debug().Err(err).Msg("Event stream unavailable")
		}

		select {
		case <-ctx.Done():
			return
		case <-l.stopCh:
			return
		case <-time.After(l.config.ReconnectDelay):
		}
	}
}

func (l *Listener) connect(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if l.config.Token != "" {
		header.Set("Authorization", "Token "+l.config.Token)
	}
	conn, _, err := l.dialer.DialContext(ctx, l.config.URL, header)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	select {
	case <-l.stopCh:
		l.mu.Unlock()
		conn.Close()
		return nil, websocket.ErrCloseSent
	default:
	}
	l.conn = conn
	l.mu.Unlock()

	l.logger.Info().Msg("Connected to event stream")
	return conn, nil
}

func (l *Listener) readLoop(conn *websocket.Conn) {
	defer l.closeConn()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				l.logger.Warn().Err(err).Msg("Event stream closed")
			}
			return
		}
		var ev RemoteEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			l.logger.Warn().Err(err).Msg("Malformed remote event")
			continue
		}
		l.Handle(ev)
	}
}

// Handle invalidates the cache keys of one remote event
func (l *Listener) Handle(ev RemoteEvent) {
	keys := KeysFor(ev)
	if len(keys) == 0 {
		l.logger.Debug().Str("event_type", ev.Type).Msg("Ignoring remote event")
		return
	}
	l.store.Invalidate(keys...)
}

func (l *Listener) closeConn() {
	l.mu.Lock()
	conn := l.conn
	l.conn = nil
	l.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}
