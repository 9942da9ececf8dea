package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// ErrNoFetcher is returned by Read for a key that is neither cached nor fetchable
var ErrNoFetcher = errors.New("no fetcher registered for key")

// Fetcher loads the authoritative value of a key from the API
type Fetcher func(ctx context.Context) (any, error)

// Getter is the read-only view of the store used by predictions
type Getter interface {
	Get(key Key) (any, bool)
}

// Change is delivered to subscribers after every write or invalidation
type Change struct {
	Key     Key
	Value   any
	Present bool
	Stale   bool
	Version uint64
}

// Listener receives changes. It runs synchronously on the writer's goroutine
// and must not block or write back into the store.
type Listener func(Change)

// EntryInfo describes the state of one key
type EntryInfo struct {
	Key       Key       `json:"key"`
	Present   bool      `json:"present"`
	Stale     bool      `json:"stale"`
	Pinned    bool      `json:"pinned"`
	Version   uint64    `json:"version"`
	FetchedAt time.Time `json:"fetchedAt,omitempty"`
}

type entry struct {
	value     any
	present   bool
	stale     bool
	version   uint64
	gen       uint64 // bumped by every Invalidate
	pins      int
	fetchedAt time.Time
}

// Store is an in-memory keyed snapshot store with stale-while-revalidate
// reads. Values are treated as immutable: writers always store fresh values
// and never modify one they got from Get.
// It is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	entries   map[Key]*entry
	fetchers  map[Key]Fetcher
	listeners map[Key]map[uint64]Listener
	global    map[uint64]Listener
	nextSub   uint64
	group     singleflight.Group
	logger    zerolog.Logger
}

// New creates an empty Store
func New(logger zerolog.Logger) *Store {
	return &Store{
		entries:   make(map[Key]*entry),
		fetchers:  make(map[Key]Fetcher),
		listeners: make(map[Key]map[uint64]Listener),
		global:    make(map[uint64]Listener),
		logger:    logger.With().Str("component", "cache").Logger(),
	}
}

// entryFor returns the entry for key, creating it. Caller holds s.mu.
func (s *Store) entryFor(key Key) *entry {
	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	return e
}

// Get returns the last known value of key
func (s *Store) Get(key Key) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || !e.present {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key and notifies subscribers
func (s *Store) Set(key Key, value any) {
	s.mu.Lock()
	e := s.entryFor(key)
	e.value = value
	e.present = true
	e.version++
	change := changeOf(key, e)
	s.mu.Unlock()

	s.notify(change)
}

// Update replaces the value of key with fn(old). The read and the write
// happen under one lock.
func (s *Store) Update(key Key, fn func(old any, ok bool) any) {
	s.mu.Lock()
	e := s.entryFor(key)
	e.value = fn(e.value, e.present)
	e.present = true
	e.version++
	change := changeOf(key, e)
	s.mu.Unlock()

	s.notify(change)
}

// Delete drops the value of key. Fetchers and subscriptions are kept.
func (s *Store) Delete(key Key) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok || !e.present {
		s.mu.Unlock()
		return
	}
	e.value = nil
	e.present = false
	e.version++
	change := changeOf(key, e)
	s.mu.Unlock()

	s.notify(change)
}

// Invalidate marks keys stale. Values stay readable until the next Read
// refetches them. Invalidating an already stale key sends no notice, but a
// refetch in flight will not clear it.
func (s *Store) Invalidate(keys ...Key) {
	var changes []Change

	s.mu.Lock()
	for _, key := range keys {
		e := s.entryFor(key)
		e.gen++
		if e.stale {
			continue
		}
		e.stale = true
		changes = append(changes, changeOf(key, e))
	}
	s.mu.Unlock()

	for _, c := range changes {
		s.notify(c)
	}
}

// IsStale reports whether key is waiting for a refetch. Keys never loaded are
// not stale.
func (s *Store) IsStale(key Key) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	return ok && e.stale
}

// Version returns the write counter of key
func (s *Store) Version(key Key) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if e, ok := s.entries[key]; ok {
		return e.version
	}
	return 0
}

// Info describes the state of key
func (s *Store) Info(key Key) EntryInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	info := EntryInfo{Key: key}
	if e, ok := s.entries[key]; ok {
		info.Present = e.present
		info.Stale = e.stale
		info.Pinned = e.pins > 0
		info.Version = e.version
		info.FetchedAt = e.fetchedAt
	}
	return info
}

// Pin holds off refetches of key while a mutation touching it is in flight
func (s *Store) Pin(key Key) {
	s.mu.Lock()
	s.entryFor(key).pins++
	s.mu.Unlock()
}

// Unpin releases one Pin
func (s *Store) Unpin(key Key) {
	s.mu.Lock()
	if e, ok := s.entries[key]; ok && e.pins > 0 {
		e.pins--
	}
	s.mu.Unlock()
}

// Subscribe registers fn for changes to key and returns its cancel func
func (s *Store) Subscribe(key Key, fn Listener) func() {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	if s.listeners[key] == nil {
		s.listeners[key] = make(map[uint64]Listener)
	}
	s.listeners[key][id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners[key], id)
		s.mu.Unlock()
	}
}

// SubscribeAll registers fn for changes to every key
func (s *Store) SubscribeAll(fn Listener) func() {
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.global[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.global, id)
		s.mu.Unlock()
	}
}

func (s *Store) notify(c Change) {
	s.mu.RLock()
	fns := make([]Listener, 0, len(s.listeners[c.Key])+len(s.global))
	for _, fn := range s.listeners[c.Key] {
		fns = append(fns, fn)
	}
	for _, fn := range s.global {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}

func changeOf(key Key, e *entry) Change {
	return Change{
		Key:     key,
		Value:   e.value,
		Present: e.present,
		Stale:   e.stale,
		Version: e.version,
	}
}

// Register sets the fetcher used by Read for key
func (s *Store) Register(key Key, fetcher Fetcher) {
	s.mu.Lock()
	s.fetchers[key] = fetcher
	s.mu.Unlock()
}

// Read returns the value of key, refetching it first when it is missing or
// stale and not pinned. Concurrent reads of the same key share one fetch.
// When the refetch fails but a value is cached, the cached value is returned
// and the key stays stale so the next Read tries again.
func (s *Store) Read(ctx context.Context, key Key) (any, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	fetcher := s.fetchers[key]
	if ok && e.present && (!e.stale || e.pins > 0) {
		v := e.value
		s.mu.RUnlock()
		return v, nil
	}
	s.mu.RUnlock()

	if fetcher == nil {
		if v, ok := s.Get(key); ok {
			return v, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrNoFetcher, key)
	}

	v, err, _ := s.group.Do(string(key), func() (any, error) {
		return s.refresh(ctx, key, fetcher)
	})
	if err != nil {
		if cached, ok := s.Get(key); ok {
			s.logger.Warn().Err(err).Str("key", string(key)).Msg("Refetch failed, serving cached value")
			return cached, nil
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return v, nil
}

// refresh runs fetcher and stores its result. A loaded key that was written
// or pinned while the fetch was in flight keeps its value. A key invalidated
// meanwhile takes the result but stays stale, since the result may predate
// the change.
func (s *Store) refresh(ctx context.Context, key Key, fetcher Fetcher) (any, error) {
	s.mu.RLock()
	var startVersion, startGen uint64
	if e, ok := s.entries[key]; ok {
		startVersion, startGen = e.version, e.gen
	}
	s.mu.RUnlock()
	start := time.Now()

	value, err := fetcher(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	e := s.entryFor(key)
	if e.present && (e.version != startVersion || e.pins > 0) {
		current := e.value
		s.mu.Unlock()
		s.logger.Debug().
			Str("key", string(key)).
			Msg("Discarding refetch superseded by a newer write")
		return current, nil
	}
	e.value = value
	e.present = true
	e.stale = e.gen != startGen
	e.version++
	e.fetchedAt = time.Now()
	change := changeOf(key, e)
	s.mu.Unlock()

	s.logger.Debug().
		Str("key", string(key)).
		Bool("stale", change.Stale).
		Dur("elapsed", time.Since(start)).
		Msg("Refetched")

	s.notify(change)
	return value, nil
}

// Token holds the values of a set of keys captured by Snapshot
type Token struct {
	items []snapshotItem
}

type snapshotItem struct {
	key     Key
	value   any
	present bool
}

// Keys lists the keys captured in the token
func (t Token) Keys() []Key {
	keys := make([]Key, len(t.items))
	for i, it := range t.items {
		keys[i] = it.key
	}
	return keys
}

// Value returns the captured value of key
func (t Token) Value(key Key) (value any, present bool, ok bool) {
	for _, it := range t.items {
		if it.key == key {
			return it.value, it.present, true
		}
	}
	return nil, false, false
}

// With returns a copy of the token with key's captured value replaced
func (t Token) With(key Key, value any, present bool) Token {
	items := make([]snapshotItem, 0, len(t.items))
	found := false
	for _, it := range t.items {
		if it.key == key {
			it.value, it.present = value, present
			found = true
		}
		items = append(items, it)
	}
	if !found {
		items = append(items, snapshotItem{key: key, value: value, present: present})
	}
	return Token{items: items}
}

// Snapshot captures the current values of keys
func (s *Store) Snapshot(keys ...Key) Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]snapshotItem, 0, len(keys))
	for _, key := range keys {
		it := snapshotItem{key: key}
		if e, ok := s.entries[key]; ok && e.present {
			it.value = e.value
			it.present = true
		}
		items = append(items, it)
	}
	return Token{items: items}
}

// Restore writes the captured values back verbatim. A key that was absent
// when captured is deleted.
func (s *Store) Restore(t Token) {
	for _, it := range t.items {
		if it.present {
			s.Set(it.key, it.value)
		} else {
			s.Delete(it.key)
		}
	}
}

// Lookup returns the value of key as a T
func Lookup[T any](g Getter, key Key) (T, bool) {
	var zero T
	v, ok := g.Get(key)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// ReadAs is Read with a typed result
func ReadAs[T any](ctx context.Context, s *Store, key Key) (T, error) {
	var zero T
	v, err := s.Read(ctx, key)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache key %s holds %T", key, v)
	}
	return t, nil
}
