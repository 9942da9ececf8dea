// Package service holds the mutation catalogue: one service per remote
// resource. Reads go through the cache store, writes only through the
// mutation engine.
package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dafibh/domo/domo-client/internal/cache"
	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/dafibh/domo/domo-client/internal/mutation"
)

// Clock returns the current time
type Clock func() time.Time

// Deps are the collaborators shared by every service
type Deps struct {
	Store  *cache.Store
	Engine *mutation.Engine
	Clock  Clock
}

func (d Deps) now() time.Time {
	if d.Clock == nil {
		return time.Now()
	}
	return d.Clock()
}

func (d Deps) today() domain.Date {
	return domain.NewDate(d.now())
}

var tempIDs atomic.Int32

// tempID numbers rows created optimistically. Negative ids never collide with
// server ids; the row is replaced by the server's on the next refetch.
func tempID() int32 {
	return tempIDs.Add(-1)
}

// listOf returns the cached list under key. ok is false when the key has not
// been loaded, in which case predictions leave it alone.
func listOf[T any](view cache.Getter, key cache.Key) ([]T, bool) {
	return cache.Lookup[[]T](view, key)
}

// readList loads a list through the store's read-through path
func readList[T any](ctx context.Context, store *cache.Store, key cache.Key) ([]T, error) {
	return cache.ReadAs[[]T](ctx, store, key)
}

func appended[T any](items []T, item T) []T {
	out := make([]T, 0, len(items)+1)
	out = append(out, items...)
	return append(out, item)
}

func prepended[T any](items []T, head ...T) []T {
	out := make([]T, 0, len(items)+len(head))
	out = append(out, head...)
	return append(out, items...)
}

// replaced copies items applying fn to the matching ones
func replaced[T any](items []T, match func(T) bool, fn func(T) T) ([]T, bool) {
	out := make([]T, len(items))
	found := false
	for i, it := range items {
		if match(it) {
			it = fn(it)
			found = true
		}
		out[i] = it
	}
	return out, found
}

// without copies items dropping the matching ones
func without[T any](items []T, match func(T) bool) ([]T, bool) {
	out := make([]T, 0, len(items))
	found := false
	for _, it := range items {
		if match(it) {
			found = true
			continue
		}
		out = append(out, it)
	}
	return out, found
}

// Shared is the payload of every privacy toggle
type Shared struct {
	ID     int32
	Shared bool
}
