package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/dafibh/domo/domo-client/internal/cache"
	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/dafibh/domo/domo-client/internal/mutation"
	"github.com/dafibh/domo/domo-client/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAccounts(f *fixture) {
	f.seed(cache.KeyAccounts, []domain.Account{
		{ID: 1, Name: "Nubank", Balance: dec("1000")},
		{ID: 2, Name: "Carteira", Balance: dec("50.50")},
	})
}

func TestCreateAccount_AppendsOptimisticRow(t *testing.T) {
	f := setup(t)
	seedAccounts(f)
	svc := NewAccountService(f.deps)

	h, err := svc.Create(context.Background(), domain.AccountInput{Name: "Itaú", Balance: dec("200")})
	require.NoError(t, err)

	// Visible before the server answers
	accounts := cached[[]domain.Account](t, f, cache.KeyAccounts)
	require.Len(t, accounts, 3)
	assert.Equal(t, "Itaú", accounts[2].Name)
	assert.Negative(t, accounts[2].ID)

	require.NoError(t, settle(t, h))
	call, ok := f.gw.LastCall()
	require.True(t, ok)
	assert.Equal(t, http.MethodPost, call.Method)
	assert.Equal(t, "/accounts/", call.Path)
	assert.True(t, f.store.IsStale(cache.KeyAccounts))
}

func TestCreateAccount_ValidationNeverDispatches(t *testing.T) {
	f := setup(t)
	seedAccounts(f)
	svc := NewAccountService(f.deps)

	h, err := svc.Create(context.Background(), domain.AccountInput{Name: "  "})

	assert.Nil(t, h)
	assertValidation(t, err, domain.ErrNameRequired)
	assert.Equal(t, 0, f.gw.CallCount())
	assert.Len(t, cached[[]domain.Account](t, f, cache.KeyAccounts), 2)
}

func TestCreateAccount_NotLoadedIsStillSubmitted(t *testing.T) {
	f := setup(t)
	svc := NewAccountService(f.deps)

	h, err := svc.Create(context.Background(), domain.AccountInput{Name: "Itaú"})
	require.NoError(t, err)
	require.NoError(t, settle(t, h))

	_, ok := f.store.Get(cache.KeyAccounts)
	assert.False(t, ok)
	assert.Equal(t, 1, f.gw.CallCount())
}

func TestListAccounts_WhileCreateOnUnloadedListIsInFlight(t *testing.T) {
	f := setup(t)
	RegisterFetchers(f.store, f.gw)
	release := make(chan struct{})
	f.gw.HandleFn = func(ctx context.Context, method, path string, body any) ([]byte, error) {
		if method == http.MethodPost {
			<-release
			return []byte(`{}`), nil
		}
		return []byte(`[{"id":1,"name":"Nubank","balance":"10.00","is_shared":false}]`), nil
	}
	svc := NewAccountService(f.deps)

	h, err := svc.Create(context.Background(), domain.AccountInput{Name: "Itaú"})
	require.NoError(t, err)
	defer func() {
		close(release)
		require.NoError(t, settle(t, h))
	}()

	accounts, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assert.Equal(t, "Nubank", accounts[0].Name)
}

func TestUpdateAccount(t *testing.T) {
	f := setup(t)
	seedAccounts(f)
	svc := NewAccountService(f.deps)

	h, err := svc.Update(context.Background(), 2, domain.AccountInput{Name: "Wallet", Balance: dec("75")})
	require.NoError(t, err)
	require.NoError(t, settle(t, h))

	accounts := cached[[]domain.Account](t, f, cache.KeyAccounts)
	assert.Equal(t, "Wallet", accounts[1].Name)
	assertDec(t, "75", accounts[1].Balance)

	call, _ := f.gw.LastCall()
	assert.Equal(t, http.MethodPut, call.Method)
	assert.Equal(t, "/accounts/2/", call.Path)
}

func TestDeleteAccount_RejectedRollsBack(t *testing.T) {
	f := setup(t)
	seedAccounts(f)
	svc := NewAccountService(f.deps)
	f.gw.Enqueue(nil, testutil.HTTPError(http.StatusBadRequest, "Account has linked transactions"))

	h, err := svc.Delete(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, cached[[]domain.Account](t, f, cache.KeyAccounts), 1)

	err = settle(t, h)
	require.Error(t, err)
	assert.Equal(t, mutation.StateFailed, h.State())
	assert.Len(t, cached[[]domain.Account](t, f, cache.KeyAccounts), 2)
}

func TestDeleteAccount_Unknown(t *testing.T) {
	f := setup(t)
	seedAccounts(f)
	svc := NewAccountService(f.deps)

	_, err := svc.Delete(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrAccountNotFound)
	assert.Equal(t, 0, f.gw.CallCount())
}

func TestSetAccountShared(t *testing.T) {
	f := setup(t)
	seedAccounts(f)
	svc := NewAccountService(f.deps)

	h, err := svc.SetShared(context.Background(), 1, true)
	require.NoError(t, err)
	assert.True(t, cached[[]domain.Account](t, f, cache.KeyAccounts)[0].IsShared)
	require.NoError(t, settle(t, h))

	call, _ := f.gw.LastCall()
	assert.Equal(t, http.MethodPatch, call.Method)
	var body map[string]bool
	require.NoError(t, call.DecodeBody(&body))
	assert.Equal(t, map[string]bool{"is_shared": true}, body)
}

func TestListAccounts_ReadsThroughFetcher(t *testing.T) {
	f := setup(t)
	RegisterFetchers(f.store, f.gw)
	f.gw.Enqueue([]byte(`[{"id":1,"name":"Nubank","balance":"10.00","is_shared":false}]`), nil)
	svc := NewAccountService(f.deps)

	accounts, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	assertDec(t, "10", accounts[0].Balance)

	call, _ := f.gw.LastCall()
	assert.Equal(t, http.MethodGet, call.Method)
	assert.Equal(t, "/accounts/", call.Path)
}
