package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/dafibh/domo/domo-client/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is a test double for Client that captures sent messages
type mockClient struct {
	id       string
	messages [][]byte
	mu       sync.Mutex
	closed   bool
}

func newMockClient(id string) *mockClient {
	return &mockClient{id: id}
}

func (m *mockClient) ID() string      { return m.id }
func (m *mockClient) Subject() string { return "auth0|" + m.id }

func (m *mockClient) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClientClosed
	}
	m.messages = append(m.messages, data)
	return nil
}

func (m *mockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockClient) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockClient) GetMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([][]byte, len(m.messages))
	copy(copied, m.messages)
	return copied
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()
	client1 := newMockClient("client-1")
	client2 := newMockClient("client-2")

	hub.Register(client1)
	hub.Register(client2)
	assert.Equal(t, 2, hub.ClientCount())

	hub.Unregister(client1)
	assert.Equal(t, 1, hub.ClientCount())

	// Unregistering twice is harmless
	hub.Unregister(client1)
	assert.Equal(t, 1, hub.ClientCount())
}

func TestHub_BroadcastReachesEveryClient(t *testing.T) {
	hub := NewHub()
	client1 := newMockClient("client-1")
	client2 := newMockClient("client-2")
	hub.Register(client1)
	hub.Register(client2)

	hub.Broadcast(ConnectivityChanged(true))

	for _, c := range []*mockClient{client1, client2} {
		messages := c.GetMessages()
		require.Len(t, messages, 1)
		var decoded map[string]any
		require.NoError(t, json.Unmarshal(messages[0], &decoded))
		assert.Equal(t, "connectivity.changed", decoded["type"])
	}
}

func TestHub_BroadcastSkipsClosedClients(t *testing.T) {
	hub := NewHub()
	open := newMockClient("open")
	closed := newMockClient("closed")
	_ = closed.Close()
	hub.Register(open)
	hub.Register(closed)

	assert.NotPanics(t, func() { hub.Broadcast(ConnectivityChanged(false)) })
	assert.Len(t, open.GetMessages(), 1)
	assert.Empty(t, closed.GetMessages())
}

func TestHub_BroadcastWithoutClients(t *testing.T) {
	hub := NewHub()
	assert.NotPanics(t, func() { hub.Broadcast(ConnectivityChanged(true)) })
}

func TestHub_ReplaysConnectivityToNewViews(t *testing.T) {
	hub := NewHub()
	hub.Broadcast(ConnectivityChanged(true))
	hub.Broadcast(CacheUpdated(cache.Change{Key: cache.KeyAccounts, Present: true, Version: 1}))
	hub.Broadcast(ConnectivityChanged(false))

	late := newMockClient("late")
	hub.Register(late)

	messages := late.GetMessages()
	require.Len(t, messages, 1, "only the latest connectivity state is replayed")
	var decoded struct {
		Type    string          `json:"type"`
		Payload map[string]bool `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(messages[0], &decoded))
	assert.Equal(t, "connectivity.changed", decoded.Type)
	assert.False(t, decoded.Payload["online"])
}

func TestHub_CloseAll(t *testing.T) {
	hub := NewHub()
	client := newMockClient("client-1")
	hub.Register(client)

	hub.CloseAll()

	assert.True(t, client.IsClosed())
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_ConcurrentAccess(t *testing.T) {
	hub := NewHub()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			c := newMockClient(fmt.Sprintf("client-%d", i))
			hub.Register(c)
			hub.Unregister(c)
		}(i)
		go func() {
			defer wg.Done()
			hub.Broadcast(ConnectivityChanged(true))
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, hub.ClientCount())
}
