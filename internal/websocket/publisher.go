package websocket

import (
	"github.com/dafibh/domo/domo-client/internal/cache"
	"github.com/dafibh/domo/domo-client/internal/mutation"
)

// EventPublisher defines the interface for publishing events to view clients
type EventPublisher interface {
	Publish(event Event)
}

// Ensure Hub implements EventPublisher
var _ EventPublisher = (*Hub)(nil)

// Publish implements EventPublisher by broadcasting the event
func (h *Hub) Publish(event Event) {
	h.Broadcast(event)
}

// ChangeSource is the part of the cache store the publisher listens to
type ChangeSource interface {
	SubscribeAll(fn cache.Listener) func()
}

// PublishCacheChanges pushes a cache.updated event for every write to store.
// The returned func stops it.
func PublishCacheChanges(store ChangeSource, pub EventPublisher) func() {
	return store.SubscribeAll(func(c cache.Change) {
		pub.Publish(CacheUpdated(c))
	})
}

// Notifier adapts pub to the mutation engine's settlement notices
func Notifier(pub EventPublisher) mutation.Notifier {
	return mutation.NotifierFunc(func(n mutation.Notice) {
		pub.Publish(MutationSettled(n))
	})
}

// ConnectivityListener returns a callback for connectivity transitions
func ConnectivityListener(pub EventPublisher) func(online bool) {
	return func(online bool) {
		pub.Publish(ConnectivityChanged(online))
	}
}
