package handler

import (
	"net/http"
	"testing"

	"github.com/dafibh/domo/domo-client/internal/cache"
	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/dafibh/domo/domo-client/internal/mutation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedProducts(h *harness) {
	h.store.Set(cache.KeyProducts, []domain.Product{
		{ID: 1, Name: "Arroz", MeasureUnit: domain.UnitKilo, EstimatedPrice: dec("30"), MinQuantity: dec("5")},
		{ID: 2, Name: "Cafe", MeasureUnit: domain.UnitPackage, EstimatedPrice: dec("20"), ImageURL: "products/2/old_display.jpg"},
	})
	h.store.Set(cache.KeyInventory, []domain.InventoryItem{
		{ID: 7, ProductID: 1, ProductName: "Arroz", Quantity: dec("2"), MinQuantity: dec("5")},
	})
	h.store.Set(cache.KeyShoppingList, []domain.ShoppingListItem{})
}

func TestGetProducts(t *testing.T) {
	h := newHarness(t)
	seedProducts(h)

	rec := h.do(http.MethodGet, "/api/v1/products", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]domain.Product](t, rec), 2)
}

func TestCreateProduct(t *testing.T) {
	h := newHarness(t)
	seedProducts(h)

	status := h.settled(h.do(http.MethodPost, "/api/v1/products", map[string]any{
		"name":            "Feijao",
		"measure_unit":    "kg",
		"estimated_price": "9.90",
		"min_quantity":    "2",
	}))

	assert.Equal(t, mutation.StateSucceeded, status.State)
	call, _ := h.gw.LastCall()
	assert.Equal(t, "/products/", call.Path)
	assert.Len(t, cached[[]domain.Product](t, h, cache.KeyProducts), 3)
}

func TestCreateProduct_InvalidUnit(t *testing.T) {
	h := newHarness(t)
	seedProducts(h)

	rec := h.do(http.MethodPost, "/api/v1/products", map[string]any{"name": "Feijao", "measure_unit": "ton"})

	assertProblem(t, rec, http.StatusBadRequest, "measure_unit")
}

func TestDeleteProduct(t *testing.T) {
	h := newHarness(t)
	seedProducts(h)

	status := h.settled(h.do(http.MethodDelete, "/api/v1/products/1", nil))

	assert.Equal(t, mutation.StateSucceeded, status.State)
	assert.Len(t, cached[[]domain.Product](t, h, cache.KeyProducts), 1)
	assert.Empty(t, cached[[]domain.InventoryItem](t, h, cache.KeyInventory))
}
