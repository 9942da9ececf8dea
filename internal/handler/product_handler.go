package handler

import (
	"net/http"

	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/dafibh/domo/domo-client/internal/service"
	"github.com/labstack/echo/v4"
)

// ProductHandler handles product catalog HTTP requests
type ProductHandler struct {
	productService *service.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// GetProducts handles GET /api/v1/products
func (h *ProductHandler) GetProducts(c echo.Context) error {
	products, err := h.productService.List(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Failed to get products")
	}
	return c.JSON(http.StatusOK, products)
}

// CreateProduct handles POST /api/v1/products
func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req domain.ProductInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	handle, err := h.productService.Create(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err, "Failed to create product")
	}
	return accepted(c, handle)
}

// UpdateProduct handles PUT /api/v1/products/:id
func (h *ProductHandler) UpdateProduct(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c, "product")
	}

	var req domain.ProductInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	handle, err := h.productService.Update(c.Request().Context(), id, req)
	if err != nil {
		return respondError(c, err, "Failed to update product")
	}
	return accepted(c, handle)
}

// DeleteProduct handles DELETE /api/v1/products/:id
func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c, "product")
	}

	handle, err := h.productService.Delete(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Failed to delete product")
	}
	return accepted(c, handle)
}
