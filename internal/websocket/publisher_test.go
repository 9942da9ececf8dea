package websocket

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/dafibh/domo/domo-client/internal/cache"
	"github.com/dafibh/domo/domo-client/internal/mutation"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingPublisher) Publish(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingPublisher) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func TestHub_Publish(t *testing.T) {
	hub := NewHub()
	client := newMockClient("client-1")
	hub.Register(client)

	var publisher EventPublisher = hub
	publisher.Publish(ConnectivityChanged(true))

	assert.Len(t, client.GetMessages(), 1)
}

func TestPublishCacheChanges(t *testing.T) {
	store := cache.New(zerolog.Nop())
	pub := &recordingPublisher{}

	stop := PublishCacheChanges(store, pub)
	store.Set(cache.KeyAccounts, []int{1})
	store.Invalidate(cache.KeyAccounts)
	stop()
	store.Set(cache.KeyAccounts, []int{2})

	events := pub.Events()
	require.Len(t, events, 2)
	assert.Equal(t, EventCacheUpdated, events[0].Type)
	payload := events[1].Payload.(CachePayload)
	assert.Equal(t, cache.KeyAccounts, payload.Key)
	assert.True(t, payload.Stale)
}

func TestNotifier(t *testing.T) {
	hub := NewHub()
	client := newMockClient("client-1")
	hub.Register(client)

	Notifier(hub).Notify(mutation.Notice{Name: "accounts.create", Outcome: mutation.OutcomeFailed, Message: "Nome já existe"})

	messages := client.GetMessages()
	require.Len(t, messages, 1)
	var decoded struct {
		Type    string `json:"type"`
		Payload struct {
			Name    string `json:"name"`
			Message string `json:"message"`
		} `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(messages[0], &decoded))
	assert.Equal(t, "mutation.failed", decoded.Type)
	assert.Equal(t, "accounts.create", decoded.Payload.Name)
	assert.Equal(t, "Nome já existe", decoded.Payload.Message)
}

func TestConnectivityListener(t *testing.T) {
	pub := &recordingPublisher{}
	ConnectivityListener(pub)(false)

	events := pub.Events()
	require.Len(t, events, 1)
	assert.Equal(t, EventConnectivityChange, events[0].Type)
}
