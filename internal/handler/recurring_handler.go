package handler

import (
	"net/http"

	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/dafibh/domo/domo-client/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// RecurringHandler handles recurring bill HTTP requests
type RecurringHandler struct {
	recurringService *service.RecurringService
}

// NewRecurringHandler creates a new RecurringHandler
func NewRecurringHandler(recurringService *service.RecurringService) *RecurringHandler {
	return &RecurringHandler{recurringService: recurringService}
}

// PayBillRequest represents the pay bill request body. A zero value pays the
// bill's base value.
type PayBillRequest struct {
	AccountID int32           `json:"accountId"`
	Value     decimal.Decimal `json:"value"`
	Date      domain.Date     `json:"date"`
}

// GetBills handles GET /api/v1/recurring-bills
func (h *RecurringHandler) GetBills(c echo.Context) error {
	bills, err := h.recurringService.List(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Failed to get recurring bills")
	}
	return c.JSON(http.StatusOK, bills)
}

// CreateBill handles POST /api/v1/recurring-bills
func (h *RecurringHandler) CreateBill(c echo.Context) error {
	var req domain.RecurringBillInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	handle, err := h.recurringService.Create(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err, "Failed to create recurring bill")
	}
	return accepted(c, handle)
}

// UpdateBill handles PUT /api/v1/recurring-bills/:id
func (h *RecurringHandler) UpdateBill(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c, "bill")
	}

	var req domain.RecurringBillInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	handle, err := h.recurringService.Update(c.Request().Context(), id, req)
	if err != nil {
		return respondError(c, err, "Failed to update recurring bill")
	}
	return accepted(c, handle)
}

// DeleteBill handles DELETE /api/v1/recurring-bills/:id
func (h *RecurringHandler) DeleteBill(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c, "bill")
	}

	handle, err := h.recurringService.Delete(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Failed to delete recurring bill")
	}
	return accepted(c, handle)
}

// PayBill handles POST /api/v1/recurring-bills/:id/pay
func (h *RecurringHandler) PayBill(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c, "bill")
	}

	var req PayBillRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	handle, err := h.recurringService.Pay(c.Request().Context(), service.PayBillInput{
		BillID:    id,
		AccountID: req.AccountID,
		Value:     req.Value,
		Date:      req.Date,
	})
	if err != nil {
		return respondError(c, err, "Failed to pay recurring bill")
	}
	return accepted(c, handle)
}
