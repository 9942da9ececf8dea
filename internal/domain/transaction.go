package domain

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/dafibh/domo/domo-client/internal/util"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "INCOME"
	TransactionTypeExpense TransactionType = "EXPENSE"
)

// Valid reports whether t is a known type
func (t TransactionType) Valid() bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense
}

// TransactionItem is a line of a shopping-derived transaction
type TransactionItem struct {
	Description string          `json:"description"`
	Value       decimal.Decimal `json:"value"`
	Quantity    decimal.Decimal `json:"quantity"`
}

type Transaction struct {
	ID              int32             `json:"id"`
	Description     string            `json:"description"`
	Value           decimal.Decimal   `json:"value"`
	Type            TransactionType   `json:"type"`
	Date            Date              `json:"date"`
	PaymentMethod   PaymentMethod     `json:"payment_method,omitempty"`
	AccountID       *int32            `json:"account,omitempty"`
	CardID          *int32            `json:"card_id,omitempty"`
	InvoiceID       *int32            `json:"invoice,omitempty"`
	CategoryID      *int32            `json:"category,omitempty"`
	CategoryName    string            `json:"category_name,omitempty"`
	RecurringBillID *int32            `json:"recurring_bill,omitempty"`
	Installments    int               `json:"installments,omitempty"`
	Items           []TransactionItem `json:"items,omitempty"`
	IsShared        bool              `json:"is_shared"`
}

// IsExpense reports whether the transaction takes money out
func (t Transaction) IsExpense() bool {
	return t.Type == TransactionTypeExpense
}

// TransactionInput is the create-transaction form
type TransactionInput struct {
	Description string
	Type        TransactionType
	Date        Date
	CategoryID  *int32
	Payment     PaymentSource
}

// Validate checks the transaction form before dispatch
func (in TransactionInput) Validate() error {
	v := &ValidationError{}
	if in.Description == "" {
		v.Add("description", ErrNameRequired)
	} else if len(in.Description) > MaxDescriptionLength {
		v.Add("description", ErrNameTooLong)
	}
	if !in.Type.Valid() {
		v.Add("type", ErrInvalidType)
	}
	if in.Date.IsZero() {
		v.Add("date", ErrInvalidInput)
	}
	validatePayment(v, "payment", in.Payment)
	if _, isCard := in.Payment.(CardPayment); isCard && in.Type == TransactionTypeIncome {
		v.Add("payment", ErrInvalidMethod)
	}
	return v.OrNil()
}

// SplitInstallments divides total into n installments rounded to cents. The
// first installment absorbs the rounding difference so the parts always add up
// to total.
func SplitInstallments(total decimal.Decimal, n int) []decimal.Decimal {
	if n < 1 {
		n = 1
	}
	each := total.Div(decimal.NewFromInt(int64(n))).Round(CurrencyPlaces)
	first := total.Sub(each.Mul(decimal.NewFromInt(int64(n - 1))))

	parts := make([]decimal.Decimal, n)
	parts[0] = first
	for i := 1; i < n; i++ {
		parts[i] = each
	}
	return parts
}

// InvoiceReferenceDate returns the first day of the invoice month that the
// i-th installment of a purchase falls into. Purchases on or after the
// closing day roll into the next month's invoice.
func InvoiceReferenceDate(purchase Date, closingDay int, installment int) Date {
	target := util.AddMonths(purchase.Time, installment)
	if target.Day() >= closingDay {
		target = util.AddMonths(target, 1)
	}
	return Date{util.MonthStart(target)}
}

// InstallmentDescription labels the i-th (0-based) of n installments
func InstallmentDescription(desc string, i, n int) string {
	if n <= 1 {
		return desc
	}
	return fmt.Sprintf("%s (%d/%d)", desc, i+1, n)
}

var installmentPattern = regexp.MustCompile(`\((\d+)/(\d+)\)`)

// InstallmentIndex parses the "(i/n)" suffix of a description. ok is false
// when the description carries no installment marker.
func InstallmentIndex(desc string) (i, n int, ok bool) {
	m := installmentPattern.FindStringSubmatch(desc)
	if m == nil {
		return 0, 0, false
	}
	i, _ = strconv.Atoi(m[1])
	n, _ = strconv.Atoi(m[2])
	return i, n, true
}
