package handler

import (
	"net/http"
	"testing"

	"github.com/dafibh/domo/domo-client/internal/aggregate"
	"github.com/dafibh/domo/domo-client/internal/cache"
	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/dafibh/domo/domo-client/internal/mutation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

// seedShopping leaves 250 payable: rice 5 x 30 and coffee 5 x 20 purchased
func seedShopping(h *harness) {
	seedProducts(h)
	h.store.Set(cache.KeyShoppingList, []domain.ShoppingListItem{
		{ID: 11, ProductID: ptr(int32(1)), ProductName: "Arroz", QuantityToBuy: dec("5"), EstimatedPrice: dec("10"), IsPurchased: true, RealUnitPrice: dec("30")},
		{ID: 12, ProductID: ptr(int32(2)), ProductName: "Cafe", QuantityToBuy: dec("5"), EstimatedPrice: dec("18"), IsPurchased: true, RealUnitPrice: dec("20")},
		{ID: 13, NewProductName: "Sabao", QuantityToBuy: dec("2")},
	})
	seedAccounts(h)
	h.store.Set(cache.KeyCreditCards, []domain.CreditCard{})
	h.store.Set(cache.KeyTransactions, []domain.Transaction{})
}

func TestGetShoppingSummary(t *testing.T) {
	h := newHarness(t)
	seedShopping(h)

	rec := h.do(http.MethodGet, "/api/v1/shopping-list/summary", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[aggregate.ShoppingSummary](t, rec)
	assert.Equal(t, 2, summary.Purchased)
	assert.True(t, dec("250").Equal(summary.Payable), summary.Payable.String())
}

func TestAddShoppingItem(t *testing.T) {
	h := newHarness(t)
	seedShopping(h)

	status := h.settled(h.do(http.MethodPost, "/api/v1/shopping-list", map[string]any{"productId": 1, "quantity": "2"}))

	assert.Equal(t, mutation.StateSucceeded, status.State)
	call, _ := h.gw.LastCall()
	assert.Equal(t, "/shopping-list/", call.Path)
	var body map[string]any
	require.NoError(t, call.DecodeBody(&body))
	assert.EqualValues(t, 1, body["product"])
	assert.NotContains(t, body, "create_product_name")
}

func TestAddShoppingItem_Validation(t *testing.T) {
	h := newHarness(t)
	seedShopping(h)

	assertProblem(t, h.do(http.MethodPost, "/api/v1/shopping-list", map[string]any{"quantity": "2"}), http.StatusBadRequest, "product")
	assertProblem(t, h.do(http.MethodPost, "/api/v1/shopping-list", map[string]any{"productId": 1, "quantity": "0"}), http.StatusBadRequest, "quantity_to_buy")
}

func TestToggleShoppingItem(t *testing.T) {
	h := newHarness(t)
	seedShopping(h)

	status := h.settled(h.do(http.MethodPost, "/api/v1/shopping-list/13/toggle", nil))

	assert.Equal(t, mutation.StateSucceeded, status.State)
	call, _ := h.gw.LastCall()
	assert.Equal(t, "/shopping-list/13/", call.Path)
	items := cached[[]domain.ShoppingListItem](t, h, cache.KeyShoppingList)
	assert.True(t, items[2].IsPurchased)

	assertProblem(t, h.do(http.MethodPost, "/api/v1/shopping-list/99/toggle", nil), http.StatusNotFound, "")
}

func TestUpdateShoppingItem_NegativePrice(t *testing.T) {
	h := newHarness(t)
	seedShopping(h)

	rec := h.do(http.MethodPatch, "/api/v1/shopping-list/11", map[string]any{"real_unit_price": "-2"})

	assertProblem(t, rec, http.StatusBadRequest, "real_unit_price")
}

func TestFinishShopping(t *testing.T) {
	h := newHarness(t)
	seedShopping(h)

	status := h.settled(h.do(http.MethodPost, "/api/v1/shopping-list/finish", map[string]any{
		"splits": []map[string]any{
			{"paymentMethod": "ACCOUNT", "sourceId": 1, "value": "200"},
			{"paymentMethod": "ACCOUNT", "sourceId": 2, "value": "50"},
		},
		"updateInventory": true,
	}))

	assert.Equal(t, mutation.StateSucceeded, status.State)
	call, _ := h.gw.LastCall()
	assert.Equal(t, "/shopping-list/finish/", call.Path)

	items := cached[[]domain.ShoppingListItem](t, h, cache.KeyShoppingList)
	require.Len(t, items, 1)
	assert.Equal(t, int32(13), items[0].ID)
	accounts := cached[[]domain.Account](t, h, cache.KeyAccounts)
	assert.True(t, dec("800").Equal(accounts[0].Balance))
	assert.True(t, dec("0").Equal(accounts[1].Balance))
	stock := cached[[]domain.InventoryItem](t, h, cache.KeyInventory)
	assert.True(t, dec("7").Equal(stock[0].Quantity))
}

func TestFinishShopping_Errors(t *testing.T) {
	h := newHarness(t)
	seedShopping(h)

	short := map[string]any{"splits": []map[string]any{{"paymentMethod": "ACCOUNT", "sourceId": 1, "value": "100"}}}
	assertProblem(t, h.do(http.MethodPost, "/api/v1/shopping-list/finish", short), http.StatusBadRequest, "")

	badMethod := map[string]any{"splits": []map[string]any{{"paymentMethod": "CASH", "sourceId": 1, "value": "250"}}}
	assertProblem(t, h.do(http.MethodPost, "/api/v1/shopping-list/finish", badMethod), http.StatusBadRequest, "splits[0]")

	assert.Zero(t, h.gw.CallCount())
}
