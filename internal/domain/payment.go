package domain

import (
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentMethodAccount    PaymentMethod = "ACCOUNT"
	PaymentMethodCreditCard PaymentMethod = "CREDIT_CARD"
)

// PaymentSource is one funding source of a payment. It is a closed union:
// only AccountPayment and CardPayment implement it.
type PaymentSource interface {
	Method() PaymentMethod
	SourceID() int32
	Amount() decimal.Decimal
	isPaymentSource()
}

// AccountPayment debits a bank account or wallet
type AccountPayment struct {
	AccountID int32
	Value     decimal.Decimal
}

func (p AccountPayment) Method() PaymentMethod   { return PaymentMethodAccount }
func (p AccountPayment) SourceID() int32         { return p.AccountID }
func (p AccountPayment) Amount() decimal.Decimal { return p.Value }
func (AccountPayment) isPaymentSource()          {}

// CardPayment charges a credit card, optionally in installments
type CardPayment struct {
	CardID       int32
	Value        decimal.Decimal
	Installments int
}

func (p CardPayment) Method() PaymentMethod   { return PaymentMethodCreditCard }
func (p CardPayment) SourceID() int32         { return p.CardID }
func (p CardPayment) Amount() decimal.Decimal { return p.Value }
func (CardPayment) isPaymentSource()          {}

// InstallmentCount is at least 1
func (p CardPayment) InstallmentCount() int {
	if p.Installments < 1 {
		return 1
	}
	return p.Installments
}

// NewPaymentSource builds the union member for a wire-level method name.
// Installments are ignored for account payments.
func NewPaymentSource(method PaymentMethod, sourceID int32, value decimal.Decimal, installments int) (PaymentSource, error) {
	if sourceID == 0 {
		return nil, ErrSourceRequired
	}
	switch method {
	case PaymentMethodAccount:
		return AccountPayment{AccountID: sourceID, Value: value}, nil
	case PaymentMethodCreditCard:
		return CardPayment{CardID: sourceID, Value: value, Installments: installments}, nil
	default:
		return nil, ErrInvalidMethod
	}
}

// WithAmount returns a copy of p carrying a different value
func WithAmount(p PaymentSource, value decimal.Decimal) PaymentSource {
	switch s := p.(type) {
	case AccountPayment:
		s.Value = value
		return s
	case CardPayment:
		s.Value = value
		return s
	}
	return p
}

// PaymentSplit is one entry of a multi-source settlement being assembled
type PaymentSplit struct {
	Source     PaymentSource
	SourceName string
}

// SumSplits adds up the split values
func SumSplits(splits []PaymentSplit) decimal.Decimal {
	total := decimal.Zero
	for _, s := range splits {
		if s.Source != nil {
			total = total.Add(s.Source.Amount())
		}
	}
	return total
}

// validatePayment checks a single payment source
func validatePayment(v *ValidationError, field string, p PaymentSource) {
	if p == nil {
		v.Add(field, ErrSourceRequired)
		return
	}
	if p.SourceID() == 0 {
		v.Add(field, ErrSourceRequired)
	}
	if !p.Amount().IsPositive() {
		v.Add(field+".value", ErrValueNotPositive)
	}
	if c, ok := p.(CardPayment); ok && c.Installments > MaxInstallments {
		v.Add(field+".installments", ErrInvalidInput)
	}
}
