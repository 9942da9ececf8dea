package handler

import (
	"net/http"

	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/dafibh/domo/domo-client/internal/service"
	"github.com/labstack/echo/v4"
)

// CategoryHandler handles category HTTP requests
type CategoryHandler struct {
	categoryService *service.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// RenameCategoryRequest represents the rename category request body
type RenameCategoryRequest struct {
	Name string `json:"name"`
}

// GetCategories handles GET /api/v1/categories
func (h *CategoryHandler) GetCategories(c echo.Context) error {
	categories, err := h.categoryService.List(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Failed to get categories")
	}
	return c.JSON(http.StatusOK, categories)
}

// CreateCategory handles POST /api/v1/categories
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	var req domain.CategoryInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	handle, err := h.categoryService.Create(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err, "Failed to create category")
	}
	return accepted(c, handle)
}

// RenameCategory handles PATCH /api/v1/categories/:id
func (h *CategoryHandler) RenameCategory(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c, "category")
	}

	var req RenameCategoryRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	handle, err := h.categoryService.Rename(c.Request().Context(), id, req.Name)
	if err != nil {
		return respondError(c, err, "Failed to rename category")
	}
	return accepted(c, handle)
}

// DeleteCategory handles DELETE /api/v1/categories/:id
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c, "category")
	}

	handle, err := h.categoryService.Delete(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Failed to delete category")
	}
	return accepted(c, handle)
}
