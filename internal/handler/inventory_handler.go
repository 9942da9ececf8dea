package handler

import (
	"net/http"

	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/dafibh/domo/domo-client/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// InventoryHandler handles pantry stock HTTP requests
type InventoryHandler struct {
	inventoryService *service.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(inventoryService *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: inventoryService}
}

// SetQuantityRequest represents the stock adjustment request body
type SetQuantityRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// GetInventory handles GET /api/v1/inventory
func (h *InventoryHandler) GetInventory(c echo.Context) error {
	items, err := h.inventoryService.List(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Failed to get inventory")
	}
	return c.JSON(http.StatusOK, items)
}

// CreateItem handles POST /api/v1/inventory
func (h *InventoryHandler) CreateItem(c echo.Context) error {
	var req domain.InventoryInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	handle, err := h.inventoryService.Create(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err, "Failed to create inventory item")
	}
	return accepted(c, handle)
}

// UpdateItem handles PUT /api/v1/inventory/:id
func (h *InventoryHandler) UpdateItem(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c, "inventory item")
	}

	var req domain.InventoryInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	handle, err := h.inventoryService.Update(c.Request().Context(), id, req)
	if err != nil {
		return respondError(c, err, "Failed to update inventory item")
	}
	return accepted(c, handle)
}

// SetQuantity handles PATCH /api/v1/inventory/:id/quantity
func (h *InventoryHandler) SetQuantity(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c, "inventory item")
	}

	var req SetQuantityRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	handle, err := h.inventoryService.SetQuantity(c.Request().Context(), id, req.Quantity)
	if err != nil {
		return respondError(c, err, "Failed to set quantity")
	}
	return accepted(c, handle)
}

// DeleteItem handles DELETE /api/v1/inventory/:id
func (h *InventoryHandler) DeleteItem(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c, "inventory item")
	}

	handle, err := h.inventoryService.Delete(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Failed to delete inventory item")
	}
	return accepted(c, handle)
}
