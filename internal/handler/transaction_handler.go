package handler

import (
	"errors"
	"net/http"

	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/dafibh/domo/domo-client/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// CreateTransactionRequest represents the create transaction request body
type CreateTransactionRequest struct {
	Description   string                 `json:"description"`
	Value         decimal.Decimal        `json:"value"`
	Type          domain.TransactionType `json:"type"`
	Date          domain.Date            `json:"date"`
	CategoryID    *int32                 `json:"categoryId,omitempty"`
	PaymentMethod domain.PaymentMethod   `json:"paymentMethod"`
	SourceID      int32                  `json:"sourceId"`
	Installments  int                    `json:"installments,omitempty"`
}

// paymentSource builds the funding source, reporting a bad method or a
// missing source as a field error
func paymentSource(method domain.PaymentMethod, sourceID int32, value decimal.Decimal, installments int) (domain.PaymentSource, error) {
	src, err := domain.NewPaymentSource(method, sourceID, value, installments)
	if err == nil {
		return src, nil
	}
	field := "sourceId"
	if errors.Is(err, domain.ErrInvalidMethod) {
		field = "paymentMethod"
	}
	return nil, domain.NewValidationError(field, err)
}

// GetTransactions handles GET /api/v1/transactions
func (h *TransactionHandler) GetTransactions(c echo.Context) error {
	transactions, err := h.transactionService.List(c.Request().Context())
	if err != nil {
		return respondError(c, err, "Failed to get transactions")
	}
	return c.JSON(http.StatusOK, transactions)
}

// CreateTransaction handles POST /api/v1/transactions
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	var req CreateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	payment, err := paymentSource(req.PaymentMethod, req.SourceID, req.Value, req.Installments)
	if err != nil {
		return respondError(c, err, "Failed to create transaction")
	}

	handle, err := h.transactionService.Create(c.Request().Context(), domain.TransactionInput{
		Description: req.Description,
		Type:        req.Type,
		Date:        req.Date,
		CategoryID:  req.CategoryID,
		Payment:     payment,
	})
	if err != nil {
		return respondError(c, err, "Failed to create transaction")
	}
	return accepted(c, handle)
}
