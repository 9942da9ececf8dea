package service

import (
	"context"
	"net/http"

	"github.com/dafibh/domo/domo-client/internal/cache"
	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/dafibh/domo/domo-client/internal/gateway"
	"github.com/dafibh/domo/domo-client/internal/mutation"
	"github.com/shopspring/decimal"
)

// RecurringService handles fixed monthly bills
type RecurringService struct {
	deps Deps

	create mutation.Spec[domain.RecurringBillInput]
	update mutation.Spec[RecurringBillUpdate]
	delete mutation.Spec[int32]
	pay    mutation.Spec[billPayment]
}

// RecurringBillUpdate replaces the editable fields of a bill
type RecurringBillUpdate struct {
	ID    int32
	Input domain.RecurringBillInput
}

// PayBillInput pays this month's occurrence of a bill from an account. A zero
// Value pays the bill's base value.
type PayBillInput struct {
	BillID    int32           `json:"billId"`
	AccountID int32           `json:"accountId"`
	Value     decimal.Decimal `json:"value"`
	Date      domain.Date     `json:"date"`
}

type billPayment struct {
	PayBillInput
	description string
	categoryID  *int32
}

// NewRecurringService creates a new RecurringService
func NewRecurringService(deps Deps) *RecurringService {
	s := &RecurringService{deps: deps}
	touches := []cache.Key{cache.KeyRecurringBills}

	s.create = mutation.Spec[domain.RecurringBillInput]{
		Name:    "recurring_bills.create",
		Touches: touches,
		Predict: func(view cache.Getter, in domain.RecurringBillInput) (mutation.Values, error) {
			if err := in.Validate(); err != nil {
				return nil, err
			}
			bills, ok := listOf[domain.RecurringBill](view, cache.KeyRecurringBills)
			if !ok {
				return nil, nil
			}
			return mutation.Values{cache.KeyRecurringBills: appended(bills, domain.RecurringBill{
				ID:         tempID(),
				Name:       in.Name,
				BaseValue:  in.BaseValue,
				DueDay:     in.DueDay,
				CategoryID: in.CategoryID,
			})}, nil
		},
		Submit: func(ctx context.Context, gw gateway.Gateway, in domain.RecurringBillInput) ([]byte, error) {
			return gw.Call(ctx, http.MethodPost, gateway.Collection(gateway.RecurringBills), in)
		},
	}

	s.update = mutation.Spec[RecurringBillUpdate]{
		Name:    "recurring_bills.update",
		Touches: touches,
		Predict: func(view cache.Getter, u RecurringBillUpdate) (mutation.Values, error) {
			if err := u.Input.Validate(); err != nil {
				return nil, err
			}
			return updateBill(view, u.ID, func(b domain.RecurringBill) domain.RecurringBill {
				b.Name = u.Input.Name
				b.BaseValue = u.Input.BaseValue
				b.DueDay = u.Input.DueDay
				b.CategoryID = u.Input.CategoryID
				return b
			})
		},
		Submit: func(ctx context.Context, gw gateway.Gateway, u RecurringBillUpdate) ([]byte, error) {
			return gw.Call(ctx, http.MethodPut, gateway.Item(gateway.RecurringBills, u.ID), u.Input)
		},
	}

	s.delete = mutation.Spec[int32]{
		Name:    "recurring_bills.delete",
		Touches: touches,
		Predict: func(view cache.Getter, id int32) (mutation.Values, error) {
			bills, ok := listOf[domain.RecurringBill](view, cache.KeyRecurringBills)
			if !ok {
				return nil, nil
			}
			next, found := without(bills, func(b domain.RecurringBill) bool { return b.ID == id })
			if !found {
				return nil, domain.ErrBillNotFound
			}
			return mutation.Values{cache.KeyRecurringBills: next}, nil
		},
		Submit: func(ctx context.Context, gw gateway.Gateway, id int32) ([]byte, error) {
			return gw.Call(ctx, http.MethodDelete, gateway.Item(gateway.RecurringBills, id), nil)
		},
	}

	s.pay = mutation.Spec[billPayment]{
		Name:    "recurring_bills.pay",
		Touches: []cache.Key{cache.KeyRecurringBills, cache.KeyAccounts, cache.KeyTransactions},
		Predict: predictBillPayment,
		Submit: func(ctx context.Context, gw gateway.Gateway, p billPayment) ([]byte, error) {
			// A transaction linked to the bill is what marks it paid
			bill := p.BillID
			account := p.AccountID
			return gw.Call(ctx, http.MethodPost, gateway.Collection(gateway.Transactions), transactionBody{
				Description:     p.description,
				Value:           p.Value,
				Type:            domain.TransactionTypeExpense,
				Date:            p.Date,
				CategoryID:      p.categoryID,
				PaymentMethod:   domain.PaymentMethodAccount,
				AccountID:       &account,
				RecurringBillID: &bill,
			})
		},
	}

	return s
}

func predictBillPayment(view cache.Getter, p billPayment) (mutation.Values, error) {
	v := &domain.ValidationError{}
	if !p.Value.IsPositive() {
		v.Add("value", domain.ErrValueNotPositive)
	}
	if p.AccountID == 0 {
		v.Add("account", domain.ErrSourceRequired)
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	values := mutation.Values{}

	if bills, ok := listOf[domain.RecurringBill](view, cache.KeyRecurringBills); ok {
		bill, found := domain.FindBill(bills, p.BillID)
		if !found {
			return nil, domain.ErrBillNotFound
		}
		if bill.IsPaidThisMonth {
			return nil, domain.NewValidationError("bill", domain.ErrBillAlreadyPaid)
		}
		values[cache.KeyRecurringBills], _ = replaced(bills, func(b domain.RecurringBill) bool { return b.ID == p.BillID }, func(b domain.RecurringBill) domain.RecurringBill {
			b.IsPaidThisMonth = true
			return b
		})
	}

	if accounts, ok := listOf[domain.Account](view, cache.KeyAccounts); ok {
		next, found := replaced(accounts, func(a domain.Account) bool { return a.ID == p.AccountID }, func(a domain.Account) domain.Account {
			a.Balance = a.Balance.Sub(p.Value)
			return a
		})
		if !found {
			return nil, domain.NewValidationError("account", domain.ErrAccountNotFound)
		}
		values[cache.KeyAccounts] = next
	}

	if txs, ok := listOf[domain.Transaction](view, cache.KeyTransactions); ok {
		bill := p.BillID
		account := p.AccountID
		values[cache.KeyTransactions] = prepended(txs, domain.Transaction{
			ID:              tempID(),
			Description:     p.description,
			Value:           p.Value,
			Type:            domain.TransactionTypeExpense,
			Date:            p.Date,
			PaymentMethod:   domain.PaymentMethodAccount,
			AccountID:       &account,
			CategoryID:      p.categoryID,
			CategoryName:    categoryName(view, p.categoryID),
			RecurringBillID: &bill,
		})
	}

	return values, nil
}

// updateBill rewrites one cached bill. An unloaded list is left alone.
func updateBill(view cache.Getter, id int32, fn func(domain.RecurringBill) domain.RecurringBill) (mutation.Values, error) {
	bills, ok := listOf[domain.RecurringBill](view, cache.KeyRecurringBills)
	if !ok {
		return nil, nil
	}
	next, found := replaced(bills, func(b domain.RecurringBill) bool { return b.ID == id }, fn)
	if !found {
		return nil, domain.ErrBillNotFound
	}
	return mutation.Values{cache.KeyRecurringBills: next}, nil
}

// List returns the active bills
func (s *RecurringService) List(ctx context.Context) ([]domain.RecurringBill, error) {
	return readList[domain.RecurringBill](ctx, s.deps.Store, cache.KeyRecurringBills)
}

// Create adds a bill
func (s *RecurringService) Create(ctx context.Context, in domain.RecurringBillInput) (*mutation.Handle, error) {
	return mutation.Dispatch(ctx, s.deps.Engine, s.create, in)
}

// Update replaces a bill's editable fields
func (s *RecurringService) Update(ctx context.Context, id int32, in domain.RecurringBillInput) (*mutation.Handle, error) {
	return mutation.Dispatch(ctx, s.deps.Engine, s.update, RecurringBillUpdate{ID: id, Input: in})
}

// Delete removes a bill
func (s *RecurringService) Delete(ctx context.Context, id int32) (*mutation.Handle, error) {
	return mutation.Dispatch(ctx, s.deps.Engine, s.delete, id)
}

// Pay records this month's payment of a bill
func (s *RecurringService) Pay(ctx context.Context, in PayBillInput) (*mutation.Handle, error) {
	bills, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	bill, ok := domain.FindBill(bills, in.BillID)
	if !ok {
		return nil, domain.ErrBillNotFound
	}
	if in.Value.IsZero() {
		in.Value = bill.BaseValue
	}
	if in.Date.IsZero() {
		in.Date = s.deps.today()
	}

	return mutation.Dispatch(ctx, s.deps.Engine, s.pay, billPayment{
		PayBillInput: in,
		description:  bill.Name,
		categoryID:   bill.CategoryID,
	})
}
