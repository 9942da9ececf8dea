package websocket

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when attempting to send to a closed client
var ErrClientClosed = errors.New("client is closed")

// ClientInterface is what the hub needs from a connected view
type ClientInterface interface {
	ID() string
	Subject() string
	Send(data []byte) error
	Close() error
}

// Hub fans events out to every connected view. State events (currently only
// connectivity) are remembered and replayed to views that connect later, so a
// fresh view knows whether it is offline without polling /status.
// Hub is safe for concurrent use.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]ClientInterface
	sticky  map[EventType][]byte
}

// stickyEvents are replayed on Register
var stickyEvents = map[EventType]bool{
	EventConnectivityChange: true,
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]ClientInterface),
		sticky:  make(map[EventType][]byte),
	}
}

// Register adds a client and replays the remembered state events to it
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	h.clients[client.ID()] = client
	replay := make([][]byte, 0, len(h.sticky))
	for _, data := range h.sticky {
		replay = append(replay, data)
	}
	h.mu.Unlock()

	for _, data := range replay {
		_ = client.Send(data)
	}

	log.Debug().
		Str("client_id", client.ID()).
		Str("subject", client.Subject()).
		Int("replayed", len(replay)).
		Msg("View registered")
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	_, ok := h.clients[client.ID()]
	delete(h.clients, client.ID())
	h.mu.Unlock()

	if ok {
		log.Debug().Str("client_id", client.ID()).Msg("View unregistered")
	}
}

// Broadcast sends an event to every client. Slow or closed clients are
// skipped; they resynchronise from the cache when they reconnect.
func (h *Hub) Broadcast(event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().Err(err).Str("event_type", string(event.Type)).Msg("Failed to serialize event")
		return
	}

	h.mu.Lock()
	if stickyEvents[event.Type] {
		h.sticky[event.Type] = data
	}
	clients := make([]ClientInterface, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		if err := c.Send(data); err != nil {
			log.Warn().Err(err).Str("client_id", c.ID()).Msg("Failed to send to view")
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll disconnects every client, used on shutdown
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]ClientInterface)
	h.mu.Unlock()

	for _, c := range clients {
		_ = c.Close()
	}
}
