package handler

import (
	"net/http"

	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/dafibh/domo/domo-client/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// CCHandler handles credit card and invoice HTTP requests
type CCHandler struct {
	cardService      *service.CreditCardService
	dashboardService *service.DashboardService
}

// NewCCHandler creates a new CCHandler
func NewCCHandler(cardService *service.CreditCardService, dashboardService *service.DashboardService) *CCHandler {
	return &CCHandler{
		cardService:      cardService,
		dashboardService: dashboardService,
	}
}

// PayInvoiceRequest represents the pay invoice request body. The card comes
// from the path.
type PayInvoiceRequest struct {
	AccountID int32           `json:"accountId"`
	Value     decimal.Decimal `json:"value"`
	Date      domain.Date     `json:"date"`
}

// GetCards handles GET /api/v1/credit-cards
func (h *CCHandler) GetCards(c echo.Context) error {
	cards, err := h.cardService.List(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Failed to get credit cards")
	}
	return c.JSON(http.StatusOK, cards)
}

// CreateCard handles POST /api/v1/credit-cards
func (h *CCHandler) CreateCard(c echo.Context) error {
	var req domain.CreditCardInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	handle, err := h.cardService.Create(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err, "Failed to create credit card")
	}
	return accepted(c, handle)
}

// UpdateCard handles PUT /api/v1/credit-cards/:id
func (h *CCHandler) UpdateCard(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c, "credit card")
	}

	var req domain.CreditCardInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	handle, err := h.cardService.Update(c.Request().Context(), id, req)
	if err != nil {
		return respondError(c, err, "Failed to update credit card")
	}
	return accepted(c, handle)
}

// DeleteCard handles DELETE /api/v1/credit-cards/:id
func (h *CCHandler) DeleteCard(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c, "credit card")
	}

	handle, err := h.cardService.Delete(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Failed to delete credit card")
	}
	return accepted(c, handle)
}

// ShareCard handles PATCH /api/v1/credit-cards/:id/share
func (h *CCHandler) ShareCard(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c, "credit card")
	}

	var req ShareRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	handle, err := h.cardService.SetShared(c.Request().Context(), id, req.Shared)
	if err != nil {
		return respondError(c, err, "Failed to update credit card sharing")
	}
	return accepted(c, handle)
}

// GetInvoice handles GET /api/v1/credit-cards/:id/invoice
func (h *CCHandler) GetInvoice(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c, "credit card")
	}

	invoice, err := h.dashboardService.Invoice(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "Failed to get invoice")
	}
	return c.JSON(http.StatusOK, invoice)
}

// PayInvoice handles POST /api/v1/credit-cards/:id/invoice/pay
func (h *CCHandler) PayInvoice(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return invalidID(c, "credit card")
	}

	var req PayInvoiceRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	handle, err := h.cardService.PayInvoice(c.Request().Context(), service.PayInvoiceInput{
		CardID:    id,
		AccountID: req.AccountID,
		Value:     req.Value,
		Date:      req.Date,
	})
	if err != nil {
		return respondError(c, err, "Failed to pay invoice")
	}
	return accepted(c, handle)
}
