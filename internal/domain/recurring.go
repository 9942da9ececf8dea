package domain

import (
	"github.com/shopspring/decimal"
)

// RecurringBill is a fixed monthly bill. IsPaidThisMonth is computed by the
// API for the current calendar month and is read-only here.
type RecurringBill struct {
	ID              int32           `json:"id"`
	Name            string          `json:"name"`
	BaseValue       decimal.Decimal `json:"base_value"`
	DueDay          int             `json:"due_day"`
	CategoryID      *int32          `json:"category,omitempty"`
	IsPaidThisMonth bool            `json:"is_paid_this_month"`
}

// RecurringBillInput is the editable part of a bill
type RecurringBillInput struct {
	Name       string          `json:"name"`
	BaseValue  decimal.Decimal `json:"base_value"`
	DueDay     int             `json:"due_day"`
	CategoryID *int32          `json:"category,omitempty"`
}

// Validate checks the bill form before dispatch
func (in RecurringBillInput) Validate() error {
	v := &ValidationError{}
	validateName(v, "name", in.Name)
	if !in.BaseValue.IsPositive() {
		v.Add("base_value", ErrValueNotPositive)
	}
	validateDay(v, "due_day", in.DueDay)
	return v.OrNil()
}

// FindBill returns the bill with the given id
func FindBill(bills []RecurringBill, id int32) (RecurringBill, bool) {
	for _, b := range bills {
		if b.ID == id {
			return b, true
		}
	}
	return RecurringBill{}, false
}
