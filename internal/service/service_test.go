package service

import (
	"context"
	"testing"
	"time"

	"github.com/dafibh/domo/domo-client/internal/cache"
	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/dafibh/domo/domo-client/internal/mutation"
	"github.com/dafibh/domo/domo-client/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedNow is a Saturday in the middle of March, after a closing day of 10
var fixedNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store  *cache.Store
	gw     *testutil.MockGateway
	engine *mutation.Engine
	deps   Deps
}

func setup(t *testing.T) *fixture {
	t.Helper()
	return setupAt(t, fixedNow)
}

func setupAt(t *testing.T, now time.Time) *fixture {
	t.Helper()

	store := cache.New(zerolog.Nop())
	gw := testutil.NewMockGateway()
	engine := mutation.NewEngine(store, gw, zerolog.Nop(), mutation.Options{Retry: mutation.NoRetry})
	t.Cleanup(engine.Close)

	return &fixture{
		store:  store,
		gw:     gw,
		engine: engine,
		deps: Deps{
			Store:  store,
			Engine: engine,
			Clock:  func() time.Time { return now },
		},
	}
}

func (f *fixture) seed(key cache.Key, value any) {
	f.store.Set(key, value)
}

// settle waits for h and returns its outcome
func settle(t *testing.T, h *mutation.Handle) error {
	t.Helper()
	require.NotNil(t, h)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := h.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded, "mutation did not settle")
	return err
}

func cached[T any](t *testing.T, f *fixture, key cache.Key) T {
	t.Helper()
	v, ok := cache.Lookup[T](f.store, key)
	require.True(t, ok, "key %s not cached", key)
	return v
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func ptr[T any](v T) *T {
	return &v
}

func assertValidation(t *testing.T, err error, target error) {
	t.Helper()
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.ErrorIs(t, err, target)
}

func TestTempID_IsNegativeAndUnique(t *testing.T) {
	a, b := tempID(), tempID()
	assert.Negative(t, a)
	assert.Negative(t, b)
	assert.NotEqual(t, a, b)
}

func TestListHelpers_CopyInput(t *testing.T) {
	items := []int{1, 2, 3}

	next, found := replaced(items, func(i int) bool { return i == 2 }, func(i int) int { return i * 10 })
	assert.True(t, found)
	assert.Equal(t, []int{1, 20, 3}, next)
	assert.Equal(t, []int{1, 2, 3}, items)

	rest, found := without(items, func(i int) bool { return i == 1 })
	assert.True(t, found)
	assert.Equal(t, []int{2, 3}, rest)

	_, found = without(items, func(i int) bool { return i == 9 })
	assert.False(t, found)

	assert.Equal(t, []int{0, 1, 2, 3}, prepended(items, 0))
	assert.Equal(t, []int{1, 2, 3, 4}, appended(items, 4))
	assert.Equal(t, []int{1, 2, 3}, items)
}
