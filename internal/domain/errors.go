package domain

import (
	"errors"
	"strings"
)

// Domain errors
var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNameRequired      = errors.New("name is required")
	ErrNameTooLong       = errors.New("name exceeds maximum length")
	ErrValueNotPositive  = errors.New("value must be greater than zero")
	ErrDayOutOfRange     = errors.New("day must be between 1 and 31")
	ErrInvalidType       = errors.New("invalid transaction type")
	ErrInvalidMethod     = errors.New("invalid payment method")
	ErrSourceRequired    = errors.New("payment source is required")
	ErrInvalidUnit       = errors.New("invalid measure unit")
	ErrNegativeQuantity  = errors.New("quantity cannot be negative")
	ErrLimitExceedsTotal = errors.New("available limit exceeds total limit")
	ErrNothingPurchased  = errors.New("no purchased items to finish")
	ErrSplitNotCovered   = errors.New("payment splits do not cover the total")
	ErrSplitOverpaid     = errors.New("payment splits exceed the total")
	ErrNoOpenInvoice     = errors.New("card has no invoice to pay")
	ErrInvoiceNotClosed  = errors.New("invoice is not closed")
	ErrInvalidEmail      = errors.New("invalid email")
	ErrAccountNotFound   = errors.New("account not found")
	ErrCardNotFound      = errors.New("credit card not found")
	ErrBillNotFound      = errors.New("recurring bill not found")
	ErrProductNotFound   = errors.New("product not found")
	ErrItemNotFound      = errors.New("item not found")
	ErrCategoryNotFound  = errors.New("category not found")
	ErrMemberNotFound    = errors.New("member not found")
	ErrBillAlreadyPaid   = errors.New("bill already paid this month")
	ErrCannotRemoveOwner = errors.New("the household owner cannot be removed")
)

// Validation constants
const (
	MaxNameLength        = 100
	MaxDescriptionLength = 100
	MaxInstallments      = 48
)

// FieldError describes a single invalid field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// ValidationError collects field errors found before a mutation is dispatched
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Is lets errors.Is match ErrInvalidInput and any wrapped field error
func (e *ValidationError) Is(target error) bool {
	if target == ErrInvalidInput {
		return true
	}
	for _, f := range e.Fields {
		if f.Err != nil && errors.Is(f.Err, target) {
			return true
		}
	}
	return false
}

// Add records a field error
func (e *ValidationError) Add(field string, err error) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: err.Error(), Err: err})
}

// OrNil returns nil when no field errors were collected
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

// NewValidationError builds a ValidationError for a single field
func NewValidationError(field string, err error) *ValidationError {
	v := &ValidationError{}
	v.Add(field, err)
	return v
}
