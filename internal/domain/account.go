package domain

import (
	"github.com/shopspring/decimal"
)

type Account struct {
	ID       int32            `json:"id"`
	Name     string           `json:"name"`
	Balance  decimal.Decimal  `json:"balance"`
	Limit    *decimal.Decimal `json:"limit,omitempty"`
	IsShared bool             `json:"is_shared"`
}

// AccountInput is the editable part of an account
type AccountInput struct {
	Name     string           `json:"name"`
	Balance  decimal.Decimal  `json:"balance"`
	Limit    *decimal.Decimal `json:"limit,omitempty"`
	IsShared bool             `json:"is_shared"`
}

// Validate checks the account form before dispatch
func (in AccountInput) Validate() error {
	v := &ValidationError{}
	validateName(v, "name", in.Name)
	if in.Limit != nil && in.Limit.IsNegative() {
		v.Add("limit", ErrInvalidAmount)
	}
	return v.OrNil()
}

// FindAccount returns the account with the given id
func FindAccount(accounts []Account, id int32) (Account, bool) {
	for _, a := range accounts {
		if a.ID == id {
			return a, true
		}
	}
	return Account{}, false
}
