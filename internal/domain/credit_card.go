package domain

import (
	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceOpen   InvoiceStatus = "OPEN"
	InvoiceClosed InvoiceStatus = "CLOSED"
	InvoicePaid   InvoiceStatus = "PAID"
)

// InvoiceInfo is the current invoice embedded in a card by the API
type InvoiceInfo struct {
	ID            int32           `json:"id"`
	Value         decimal.Decimal `json:"value"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	Status        InvoiceStatus   `json:"status"`
	ReferenceDate Date            `json:"reference_date"`
}

// Outstanding is what is left to pay on the invoice, never negative
func (i InvoiceInfo) Outstanding() decimal.Decimal {
	return decimal.Max(decimal.Zero, i.Value.Sub(i.AmountPaid))
}

type CreditCard struct {
	ID             int32           `json:"id"`
	Name           string          `json:"name"`
	LimitTotal     decimal.Decimal `json:"limit_total"`
	LimitAvailable decimal.Decimal `json:"limit_available"`
	ClosingDay     int             `json:"closing_day"`
	DueDay         int             `json:"due_day"`
	IsShared       bool            `json:"is_shared"`
	InvoiceInfo    *InvoiceInfo    `json:"invoice_info,omitempty"`
}

// ClampAvailable keeps 0 <= LimitAvailable <= LimitTotal
func (c *CreditCard) ClampAvailable() {
	hi := decimal.Max(decimal.Zero, c.LimitTotal)
	c.LimitAvailable = Clamp(c.LimitAvailable, decimal.Zero, hi)
}

// CurrentInvoiceValue is the embedded invoice value, zero without one
func (c CreditCard) CurrentInvoiceValue() decimal.Decimal {
	if c.InvoiceInfo == nil {
		return decimal.Zero
	}
	return c.InvoiceInfo.Value
}

// CreditCardInput is the editable part of a card
type CreditCardInput struct {
	Name           string          `json:"name"`
	LimitTotal     decimal.Decimal `json:"limit_total"`
	LimitAvailable decimal.Decimal `json:"limit_available"`
	ClosingDay     int             `json:"closing_day"`
	DueDay         int             `json:"due_day"`
	IsShared       bool            `json:"is_shared"`
}

// Validate checks the card form before dispatch
func (in CreditCardInput) Validate() error {
	v := &ValidationError{}
	validateName(v, "name", in.Name)
	if in.LimitTotal.IsNegative() {
		v.Add("limit_total", ErrInvalidAmount)
	}
	if in.LimitAvailable.IsNegative() {
		v.Add("limit_available", ErrInvalidAmount)
	} else if in.LimitAvailable.GreaterThan(in.LimitTotal) {
		v.Add("limit_available", ErrLimitExceedsTotal)
	}
	validateDay(v, "closing_day", in.ClosingDay)
	validateDay(v, "due_day", in.DueDay)
	return v.OrNil()
}

// FindCard returns the card with the given id
func FindCard(cards []CreditCard, id int32) (CreditCard, bool) {
	for _, c := range cards {
		if c.ID == id {
			return c, true
		}
	}
	return CreditCard{}, false
}
