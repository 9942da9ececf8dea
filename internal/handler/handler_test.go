package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dafibh/domo/domo-client/internal/cache"
	"github.com/dafibh/domo/domo-client/internal/connectivity"
	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/dafibh/domo/domo-client/internal/mutation"
	"github.com/dafibh/domo/domo-client/internal/service"
	"github.com/dafibh/domo/domo-client/internal/testutil"
	"github.com/dafibh/domo/domo-client/internal/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

// harness serves the full router over an in-memory cache and a scripted
// gateway
type harness struct {
	t       *testing.T
	store   *cache.Store
	gw      *testutil.MockGateway
	engine  *mutation.Engine
	images  *testutil.MockImageStorage
	hub     *websocket.Hub
	monitor *connectivity.Monitor
	e       *echo.Echo
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := cache.New(zerolog.Nop())
	gw := testutil.NewMockGateway()
	engine := mutation.NewEngine(store, gw, zerolog.Nop(), mutation.Options{Retry: mutation.NoRetry})
	t.Cleanup(engine.Close)

	deps := service.Deps{
		Store:  store,
		Engine: engine,
		Clock:  func() time.Time { return fixedNow },
	}
	images := testutil.NewMockImageStorage()
	imageService := service.NewImageService(images)
	productService := service.NewProductService(deps, imageService, zerolog.Nop())
	dashboardService := service.NewDashboardService(deps)
	hub := websocket.NewHub()
	monitor := connectivity.NewMonitor(zerolog.Nop())

	e := echo.New()
	RegisterRoutes(e, nil, nil, Handlers{
		Status:      NewStatusHandler(monitor, engine, hub),
		Cache:       NewCacheHandler(store),
		Mutation:    NewMutationHandler(engine),
		Account:     NewAccountHandler(service.NewAccountService(deps)),
		CreditCard:  NewCCHandler(service.NewCreditCardService(deps), dashboardService),
		Transaction: NewTransactionHandler(service.NewTransactionService(deps)),
		Recurring:   NewRecurringHandler(service.NewRecurringService(deps)),
		Category:    NewCategoryHandler(service.NewCategoryService(deps)),
		Product:     NewProductHandler(productService),
		Image:       NewImageHandler(productService, imageService),
		Inventory:   NewInventoryHandler(service.NewInventoryService(deps)),
		Shopping:    NewShoppingHandler(service.NewShoppingService(deps, decimal.RequireFromString("0.05"))),
		Household:   NewHouseholdHandler(service.NewHouseholdService(deps)),
		Dashboard:   NewDashboardHandler(dashboardService),
		WebSocket:   NewWebSocketHandler(hub, nil, nil),
	})

	return &harness{
		t:       t,
		store:   store,
		gw:      gw,
		engine:  engine,
		images:  images,
		hub:     hub,
		monitor: monitor,
		e:       e,
	}
}

// do sends a request through the router. A string body is sent as is, any
// other non-nil body is JSON encoded.
func (h *harness) do(method, path string, body any) *httptest.ResponseRecorder {
	h.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(h.t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)
	return rec
}

// settled asserts a 202 answer and waits for the mutation it names
func (h *harness) settled(rec *httptest.ResponseRecorder) mutation.Status {
	h.t.Helper()
	require.Equal(h.t, http.StatusAccepted, rec.Code, rec.Body.String())

	status := decode[mutation.Status](h.t, rec)
	handle, ok := h.engine.Lookup(status.ID)
	require.True(h.t, ok, "mutation %s not tracked", status.ID)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := handle.Wait(ctx)
	require.NotErrorIs(h.t, err, context.DeadlineExceeded, "mutation did not settle")
	return handle.Status()
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func cached[T any](t *testing.T, h *harness, key cache.Key) T {
	t.Helper()
	v, ok := cache.Lookup[T](h.store, key)
	require.True(t, ok, "key %s not cached", key)
	return v
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertProblem(t *testing.T, rec *httptest.ResponseRecorder, status int, field string) ProblemDetails {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	p := decode[ProblemDetails](t, rec)
	assert.Equal(t, status, p.Status)
	if field != "" {
		fields := make([]string, len(p.Errors))
		for i, e := range p.Errors {
			fields[i] = e.Field
		}
		assert.Contains(t, fields, field)
	}
	return p
}

func seedAccounts(h *harness) {
	h.store.Set(cache.KeyAccounts, []domain.Account{
		{ID: 1, Name: "Checking", Balance: dec("1000")},
		{ID: 2, Name: "Wallet", Balance: dec("50")},
	})
}

func TestGetStatus(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/api/v1/status", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[StatusResponse](t, rec)
	assert.True(t, status.Online)
	assert.Equal(t, 0, status.PendingMutations)
	assert.Equal(t, 0, status.ConnectedViews)

	h.monitor.SetOnline(false)
	status = decode[StatusResponse](t, h.do(http.MethodGet, "/api/v1/status", nil))
	assert.False(t, status.Online)
}

func TestCacheEntry(t *testing.T) {
	h := newHarness(t)
	seedAccounts(h)

	rec := h.do(http.MethodGet, "/api/v1/cache/accounts", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	entry := decode[struct {
		Key     cache.Key        `json:"key"`
		Stale   bool             `json:"stale"`
		Version uint64           `json:"version"`
		Value   []domain.Account `json:"value"`
	}](t, rec)
	assert.Equal(t, cache.KeyAccounts, entry.Key)
	assert.False(t, entry.Stale)
	assert.NotZero(t, entry.Version)
	assert.Len(t, entry.Value, 2)
}

func TestCacheEntry_Fetches(t *testing.T) {
	h := newHarness(t)
	h.store.Register(cache.KeyCategories, func(ctx context.Context) (any, error) {
		return []domain.Category{{ID: 4, Name: "Food"}}, nil
	})

	rec := h.do(http.MethodGet, "/api/v1/cache/categories", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	categories := cached[[]domain.Category](t, h, cache.KeyCategories)
	assert.Equal(t, "Food", categories[0].Name)
}

func TestCacheEntry_Errors(t *testing.T) {
	h := newHarness(t)

	assertProblem(t, h.do(http.MethodGet, "/api/v1/cache/loans", nil), http.StatusNotFound, "")
	// Known key, nothing cached and nothing to fetch it with
	assertProblem(t, h.do(http.MethodGet, "/api/v1/cache/members", nil), http.StatusNotFound, "")

	h.store.Register(cache.KeyMembers, func(ctx context.Context) (any, error) {
		return nil, testutil.NetworkError(false)
	})
	assertProblem(t, h.do(http.MethodGet, "/api/v1/cache/members", nil), http.StatusServiceUnavailable, "")
}

func TestCacheInvalidate(t *testing.T) {
	h := newHarness(t)
	seedAccounts(h)

	rec := h.do(http.MethodPost, "/api/v1/cache/accounts/invalidate", nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, h.store.IsStale(cache.KeyAccounts))
}

func TestGetMutation(t *testing.T) {
	h := newHarness(t)
	seedAccounts(h)

	created := h.settled(h.do(http.MethodPost, "/api/v1/accounts", map[string]any{"name": "Savings", "balance": "10"}))

	rec := h.do(http.MethodGet, "/api/v1/mutations/"+created.ID.String()+"?wait=1", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	status := decode[mutation.Status](t, rec)
	assert.Equal(t, created.ID, status.ID)
	assert.Equal(t, "accounts.create", status.Name)
	assert.Equal(t, mutation.StateSucceeded, status.State)
	assert.NotNil(t, status.SettledAt)
}

func TestGetMutation_Errors(t *testing.T) {
	h := newHarness(t)

	assertProblem(t, h.do(http.MethodGet, "/api/v1/mutations/not-a-uuid", nil), http.StatusBadRequest, "")
	assertProblem(t, h.do(http.MethodGet, "/api/v1/mutations/7f0c1c9e-8d0a-4b43-9a43-2f1a3f9b1a11", nil), http.StatusNotFound, "")
}
