package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dafibh/domo/domo-client/internal/cache"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingInvalidator struct {
	mu   sync.Mutex
	keys [][]cache.Key
}

func (r *recordingInvalidator) Invalidate(keys ...cache.Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, keys)
}

func (r *recordingInvalidator) Calls() [][]cache.Key {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]cache.Key(nil), r.keys...)
}

// eventServer sends frames to the first connection and records its
// Authorization header
func eventServer(t *testing.T, frames ...string) (*httptest.Server, <-chan string) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	auth := make(chan string, 4)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth <- r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		// Hold the connection until the client goes away
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv, auth
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestListener_InvalidatesMappedKeys(t *testing.T) {
	srv, auth := eventServer(t,
		`{"type":"account.updated","payload":{"id":1}}`,
		`not json`,
		`{"type":"wishlist.created"}`,
		`{"type":"inventory.deleted"}`,
	)
	store := &recordingInvalidator{}
	l := NewListener(store, zerolog.Nop(), ListenerConfig{URL: wsURL(srv), Token: "secret", ReconnectDelay: time.Hour})

	l.Start(context.Background())
	defer l.Stop()

	select {
	case header := <-auth:
		assert.Equal(t, "Token secret", header)
	case <-time.After(2 * time.Second):
		t.Fatal("listener never connected")
	}

	require.Eventually(t, func() bool { return len(store.Calls()) == 2 }, 2*time.Second, 10*time.Millisecond)
	calls := store.Calls()
	assert.Equal(t, []cache.Key{cache.KeyAccounts}, calls[0])
	assert.Equal(t, []cache.Key{cache.KeyInventory}, calls[1])
}

func TestListener_ReconnectInvalidatesEverything(t *testing.T) {
	var mu sync.Mutex
	connections := 0
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		mu.Lock()
		connections++
		first := connections == 1
		mu.Unlock()
		if first {
			// Drop the first connection right away
			conn.Close()
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	store := &recordingInvalidator{}
	l := NewListener(store, zerolog.Nop(), ListenerConfig{URL: wsURL(srv), ReconnectDelay: 10 * time.Millisecond})
	l.Start(context.Background())
	defer l.Stop()

	require.Eventually(t, func() bool { return len(store.Calls()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, cache.AllKeys, store.Calls()[0])
}

func TestListener_StopWhileDisconnected(t *testing.T) {
	store := &recordingInvalidator{}
	l := NewListener(store, zerolog.Nop(), ListenerConfig{URL: "ws://127.0.0.1:1/events", ReconnectDelay: time.Hour})

	l.Start(context.Background())
	done := make(chan struct{})
	go func() {
		l.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
	assert.Empty(t, store.Calls())
}
