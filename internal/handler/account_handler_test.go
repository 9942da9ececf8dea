package handler

import (
	"net/http"
	"testing"

	"github.com/dafibh/domo/domo-client/internal/cache"
	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/dafibh/domo/domo-client/internal/mutation"
	"github.com/dafibh/domo/domo-client/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetAccounts(t *testing.T) {
	h := newHarness(t)
	seedAccounts(h)

	rec := h.do(http.MethodGet, "/api/v1/accounts", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	accounts := decode[[]domain.Account](t, rec)
	require.Len(t, accounts, 2)
	assert.Equal(t, "Checking", accounts[0].Name)
}

func TestCreateAccount(t *testing.T) {
	h := newHarness(t)
	seedAccounts(h)

	rec := h.do(http.MethodPost, "/api/v1/accounts", map[string]any{"name": "Savings", "balance": "250.50"})

	// The optimistic row is visible as soon as the request is accepted
	require.Equal(t, http.StatusAccepted, rec.Code)
	status := h.settled(rec)
	assert.Equal(t, mutation.StateSucceeded, status.State)

	call, ok := h.gw.LastCall()
	require.True(t, ok)
	assert.Equal(t, http.MethodPost, call.Method)
	assert.Equal(t, "/accounts/", call.Path)
	assert.True(t, h.store.IsStale(cache.KeyAccounts))
}

func TestCreateAccount_Validation(t *testing.T) {
	h := newHarness(t)
	seedAccounts(h)

	assertProblem(t, h.do(http.MethodPost, "/api/v1/accounts", map[string]any{"name": "  "}), http.StatusBadRequest, "name")
	assertProblem(t, h.do(http.MethodPost, "/api/v1/accounts", `{"name":`), http.StatusBadRequest, "")
	assert.Zero(t, h.gw.CallCount())
}

func TestCreateAccount_Rejected(t *testing.T) {
	h := newHarness(t)
	seedAccounts(h)
	h.gw.Enqueue(nil, testutil.HTTPError(http.StatusBadRequest, "name already in use"))

	status := h.settled(h.do(http.MethodPost, "/api/v1/accounts", map[string]any{"name": "Checking"}))

	assert.Equal(t, mutation.StateFailed, status.State)
	assert.Equal(t, "name already in use", status.Reason)
	assert.Len(t, cached[[]domain.Account](t, h, cache.KeyAccounts), 2)
}

func TestUpdateAccount(t *testing.T) {
	h := newHarness(t)
	seedAccounts(h)

	status := h.settled(h.do(http.MethodPut, "/api/v1/accounts/2", map[string]any{"name": "Pocket", "balance": "60"}))

	assert.Equal(t, mutation.StateSucceeded, status.State)
	call, _ := h.gw.LastCall()
	assert.Equal(t, http.MethodPut, call.Method)
	assert.Equal(t, "/accounts/2/", call.Path)
	accounts := cached[[]domain.Account](t, h, cache.KeyAccounts)
	assert.Equal(t, "Pocket", accounts[1].Name)
}

func TestUpdateAccount_Errors(t *testing.T) {
	h := newHarness(t)
	seedAccounts(h)

	assertProblem(t, h.do(http.MethodPut, "/api/v1/accounts/abc", map[string]any{"name": "X"}), http.StatusBadRequest, "")
	assertProblem(t, h.do(http.MethodPut, "/api/v1/accounts/99", map[string]any{"name": "X"}), http.StatusNotFound, "")
}

func TestDeleteAccount(t *testing.T) {
	h := newHarness(t)
	seedAccounts(h)

	status := h.settled(h.do(http.MethodDelete, "/api/v1/accounts/1", nil))

	assert.Equal(t, mutation.StateSucceeded, status.State)
	accounts := cached[[]domain.Account](t, h, cache.KeyAccounts)
	require.Len(t, accounts, 1)
	assert.Equal(t, int32(2), accounts[0].ID)
}

func TestShareAccount(t *testing.T) {
	h := newHarness(t)
	seedAccounts(h)

	status := h.settled(h.do(http.MethodPatch, "/api/v1/accounts/1/share", map[string]any{"shared": true}))

	assert.Equal(t, mutation.StateSucceeded, status.State)
	call, _ := h.gw.LastCall()
	var body map[string]bool
	require.NoError(t, call.DecodeBody(&body))
	assert.True(t, body["is_shared"])
	assert.True(t, cached[[]domain.Account](t, h, cache.KeyAccounts)[0].IsShared)
}
