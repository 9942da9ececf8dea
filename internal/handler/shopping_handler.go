package handler

import (
	"fmt"
	"net/http"

	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/dafibh/domo/domo-client/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// ShoppingHandler handles shopping list HTTP requests
type ShoppingHandler struct {
	shoppingService *service.ShoppingService
}

// NewShoppingHandler creates a new ShoppingHandler
func NewShoppingHandler(shoppingService *service.ShoppingService) *ShoppingHandler {
	return &ShoppingHandler{shoppingService: shoppingService}
}

// AddItemRequest adds either a catalog product or a product to be created
type AddItemRequest struct {
	ProductID      *int32          `json:"productId,omitempty"`
	NewProductName string          `json:"newProductName,omitempty"`
	Quantity       decimal.Decimal `json:"quantity"`
}

// SplitRequest is one funding source of a finished purchase
type SplitRequest struct {
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
	SourceID      int32                `json:"sourceId"`
	Value         decimal.Decimal      `json:"value"`
	Installments  int                  `json:"installments,omitempty"`
}

// FinishRequest represents the finish shopping request body
type FinishRequest struct {
	Splits          []SplitRequest `json:"splits"`
	Date            domain.Date    `json:"date"`
	CategoryID      *int32         `json:"categoryId,omitempty"`
	UpdateInventory bool           `json:"updateInventory"`
}

// GetList handles GET /api/v1/shopping-list
func (h *ShoppingHandler) GetList(c echo.Context) error {
	items, err := h.shoppingService.List(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Failed to get shopping list")
	}
	return c.JSON(http.StatusOK, items)
}

// GetSummary handles GET /api/v1/shopping-list/summary
func (h *ShoppingHandler) GetSummary(c echo.Context) error {
	summary, err := h.shoppingService.Summary(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Failed to get shopping summary")
	}
	return c.JSON(http.StatusOK, summary)
}

// AddItem handles POST /api/v1/shopping-list
func (h *ShoppingHandler) AddItem(c echo.Context) error {
	var req AddItemRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	handle, err := h.shoppingService.Add(c.Request().Context(), domain.ShoppingItemInput{
		ProductID:      req.ProductID,
		NewProductName: req.NewProductName,
		Quantity:       req.Quantity,
	})
	if err != nil {
		return respondError(c, err, "Failed to add shopping item")
	}
	return accepted(c, handle)
}

// UpdateItem handles PATCH /api/v1/shopping-list/:id
func (h *ShoppingHandler) UpdateItem(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c, "item")
	}

	var req domain.ShoppingItemPatch
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	handle, err := h.shoppingService.Update(c.Request().Context(), id, req)
	if err != nil {
		return respondError(c, err, "Failed to update shopping item")
	}
	return accepted(c, handle)
}

// ToggleItem handles POST /api/v1/shopping-list/:id/toggle
func (h *ShoppingHandler) ToggleItem(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c, "item")
	}

	handle, err := h.shoppingService.TogglePurchased(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Failed to toggle shopping item")
	}
	return accepted(c, handle)
}

// RemoveItem handles DELETE /api/v1/shopping-list/:id
func (h *ShoppingHandler) RemoveItem(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c, "item")
	}

	handle, err := h.shoppingService.Remove(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Failed to remove shopping item")
	}
	return accepted(c, handle)
}

// Finish handles POST /api/v1/shopping-list/finish
func (h *ShoppingHandler) Finish(c echo.Context) error {
	var req FinishRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	splits := make([]domain.PaymentSplit, 0, len(req.Splits))
	for i, s := range req.Splits {
		src, err := domain.NewPaymentSource(s.PaymentMethod, s.SourceID, s.Value, s.Installments)
		if err != nil {
			return respondError(c, domain.NewValidationError(fmt.Sprintf("splits[%d]", i), err), "Failed to finish shopping")
		}
		splits = append(splits, domain.PaymentSplit{Source: src})
	}

	handle, err := h.shoppingService.Finish(c.Request().Context(), service.FinishInput{
		Splits:          splits,
		Date:            req.Date,
		CategoryID:      req.CategoryID,
		UpdateInventory: req.UpdateInventory,
	})
	if err != nil {
		return respondError(c, err, "Failed to finish shopping")
	}
	return accepted(c, handle)
}
