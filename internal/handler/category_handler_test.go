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

func seedCategories(h *harness) {
	h.store.Set(cache.KeyCategories, []domain.Category{
		{ID: 1, Name: "Food", Type: domain.TransactionTypeExpense},
		{ID: 2, Name: "Salary", Type: domain.TransactionTypeIncome},
	})
}

func TestCreateCategory(t *testing.T) {
	h := newHarness(t)
	seedCategories(h)

	status := h.settled(h.do(http.MethodPost, "/api/v1/categories", map[string]any{"name": " Pets ", "type": "EXPENSE"}))

	assert.Equal(t, mutation.StateSucceeded, status.State)
	categories := cached[[]domain.Category](t, h, cache.KeyCategories)
	require.Len(t, categories, 3)
	assert.Equal(t, "Pets", categories[2].Name)
}

func TestCreateCategory_InvalidType(t *testing.T) {
	h := newHarness(t)
	seedCategories(h)

	assertProblem(t, h.do(http.MethodPost, "/api/v1/categories", map[string]any{"name": "Pets", "type": "GIFT"}), http.StatusBadRequest, "type")
}

func TestRenameCategory(t *testing.T) {
	h := newHarness(t)
	seedCategories(h)

	status := h.settled(h.do(http.MethodPatch, "/api/v1/categories/1", map[string]any{"name": "Groceries"}))

	assert.Equal(t, mutation.StateSucceeded, status.State)
	call, _ := h.gw.LastCall()
	assert.Equal(t, http.MethodPatch, call.Method)
	assert.Equal(t, "/categories/1/", call.Path)
	assert.Equal(t, "Groceries", cached[[]domain.Category](t, h, cache.KeyCategories)[0].Name)
}

func TestDeleteCategory_Unknown(t *testing.T) {
	h := newHarness(t)
	seedCategories(h)

	assertProblem(t, h.do(http.MethodDelete, "/api/v1/categories/9", nil), http.StatusNotFound, "")
}
