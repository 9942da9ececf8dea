package handler

import (
	"net/http"

	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/dafibh/domo/domo-client/internal/service"
	"github.com/labstack/echo/v4"
)

// AccountHandler handles account-related HTTP requests
type AccountHandler struct {
	accountService *service.AccountService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountService *service.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// ShareRequest toggles whether a record is visible to the whole household
type ShareRequest struct {
	Shared bool `json:"shared"`
}

// GetAccounts handles GET /api/v1/accounts
func (h *AccountHandler) GetAccounts(c echo.Context) error {
	accounts, err := h.accountService.List(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Failed to get accounts")
	}
	return c.JSON(http.StatusOK, accounts)
}

// CreateAccount handles POST /api/v1/accounts
func (h *AccountHandler) CreateAccount(c echo.Context) error {
	var req domain.AccountInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	handle, err := h.accountService.Create(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err, "Failed to create account")
	}
	return accepted(c, handle)
}

// UpdateAccount handles PUT /api/v1/accounts/:id
func (h *AccountHandler) UpdateAccount(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c, "account")
	}

	var req domain.AccountInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	handle, err := h.accountService.Update(c.Request().Context(), id, req)
	if err != nil {
		return respondError(c, err, "Failed to update account")
	}
	return accepted(c, handle)
}

// DeleteAccount handles DELETE /api/v1/accounts/:id
func (h *AccountHandler) DeleteAccount(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c, "account")
	}

	handle, err := h.accountService.Delete(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Failed to delete account")
	}
	return accepted(c, handle)
}

// ShareAccount handles PATCH /api/v1/accounts/:id/share
func (h *AccountHandler) ShareAccount(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c, "account")
	}

	var req ShareRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	handle, err := h.accountService.SetShared(c.Request().Context(), id, req.Shared)
	if err != nil {
		return respondError(c, err, "Failed to update account sharing")
	}
	return accepted(c, handle)
}
