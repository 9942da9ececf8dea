package websocket

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/dafibh/domo/domo-client/internal/cache"
	"github.com/dafibh/domo/domo-client/internal/mutation"
)

// EventType is the "<topic>.<action>" name of a pushed event
type EventType string

const (
	EventCacheUpdated       EventType = "cache.updated"
	EventMutationSucceeded  EventType = "mutation.succeeded"
	EventMutationFailed     EventType = "mutation.failed"
	EventConnectivityChange EventType = "connectivity.changed"
)

// Event represents a WebSocket event message sent to view clients
// Format: { type, payload, timestamp }
type Event struct {
	Type      EventType `json:"type"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// NewEvent creates a new event stamped with the current time
func NewEvent(t EventType, payload any) Event {
	return Event{
		Type:      t,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// CachePayload describes a cache write without its value; views refetch the
// key through the local API when they need it
type CachePayload struct {
	Key     cache.Key `json:"key"`
	Present bool      `json:"present"`
	Stale   bool      `json:"stale"`
	Version uint64    `json:"version"`
}

// CacheUpdated creates a cache.updated event
func CacheUpdated(c cache.Change) Event {
	return NewEvent(EventCacheUpdated, CachePayload{
		Key:     c.Key,
		Present: c.Present,
		Stale:   c.Stale,
		Version: c.Version,
	})
}

// MutationSettled creates a mutation.succeeded or mutation.failed event
func MutationSettled(n mutation.Notice) Event {
	t := EventMutationSucceeded
	if n.Outcome == mutation.OutcomeFailed {
		t = EventMutationFailed
	}
	return NewEvent(t, n)
}

// ConnectivityChanged creates a connectivity.changed event
func ConnectivityChanged(online bool) Event {
	return NewEvent(EventConnectivityChange, map[string]bool{"online": online})
}

// RemoteEvent is a message of the API's own event stream, e.g.
// {"type":"transaction.created","payload":{...}}
type RemoteEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Entity returns the part of Type before the dot
func (e RemoteEvent) Entity() string {
	entity, _, _ := strings.Cut(e.Type, ".")
	return entity
}

// entityKeys maps API entities to the cache keys their changes make stale
var entityKeys = map[string][]cache.Key{
	"account":        {cache.KeyAccounts},
	"credit_card":    {cache.KeyCreditCards},
	"invoice":        {cache.KeyCreditCards, cache.KeyAccounts, cache.KeyTransactions},
	"transaction":    {cache.KeyTransactions, cache.KeyAccounts, cache.KeyCreditCards},
	"recurring_bill": {cache.KeyRecurringBills},
	"category":       {cache.KeyCategories},
	"product":        {cache.KeyProducts, cache.KeyInventory, cache.KeyShoppingList},
	"inventory":      {cache.KeyInventory},
	"shopping_list":  {cache.KeyShoppingList},
	"member":         {cache.KeyMembers},
	"invitation":     {cache.KeyInvitations},
	"house":          cache.AllKeys,
}

// KeysFor returns the cache keys a remote event invalidates. Unknown entities
// map to nothing.
func KeysFor(e RemoteEvent) []cache.Key {
	return entityKeys[e.Entity()]
}
