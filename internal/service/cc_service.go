package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dafibh/domo/domo-client/internal/aggregate"
	"github.com/dafibh/domo/domo-client/internal/cache"
	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/dafibh/domo/domo-client/internal/gateway"
	"github.com/dafibh/domo/domo-client/internal/mutation"
	"github.com/shopspring/decimal"
)

// InvoicePaymentDescription prefixes the transaction the API records for an
// invoice payment
const InvoicePaymentDescription = "Pagamento Fatura"

// CreditCardService handles credit cards and their invoices
type CreditCardService struct {
	deps Deps

	create     mutation.Spec[domain.CreditCardInput]
	update     mutation.Spec[CreditCardUpdate]
	delete     mutation.Spec[int32]
	setShared  mutation.Spec[Shared]
	payInvoice mutation.Spec[invoicePayment]
}

// CreditCardUpdate replaces the editable fields of a card
type CreditCardUpdate struct {
	ID    int32
	Input domain.CreditCardInput
}

// PayInvoiceInput pays the current invoice of a card from an account
type PayInvoiceInput struct {
	CardID    int32           `json:"cardId"`
	AccountID int32           `json:"accountId"`
	Value     decimal.Decimal `json:"value"`
	Date      domain.Date     `json:"date"`
}

type invoicePayment struct {
	PayInvoiceInput
	invoiceID int32
	today     time.Time
}

// NewCreditCardService creates a new CreditCardService
func NewCreditCardService(deps Deps) *CreditCardService {
	s := &CreditCardService{deps: deps}
	touches := []cache.Key{cache.KeyCreditCards}

	s.create = mutation.Spec[domain.CreditCardInput]{
		Name:    "credit_cards.create",
		Touches: touches,
		Predict: func(view cache.Getter, in domain.CreditCardInput) (mutation.Values, error) {
			if err := in.Validate(); err != nil {
				return nil, err
			}
			cards, ok := listOf[domain.CreditCard](view, cache.KeyCreditCards)
			if !ok {
				return nil, nil
			}
			return mutation.Values{cache.KeyCreditCards: appended(cards, domain.CreditCard{
				ID:             tempID(),
				Name:           in.Name,
				LimitTotal:     in.LimitTotal,
				LimitAvailable: in.LimitAvailable,
				ClosingDay:     in.ClosingDay,
				DueDay:         in.DueDay,
				IsShared:       in.IsShared,
			})}, nil
		},
		Submit: func(ctx context.Context, gw gateway.Gateway, in domain.CreditCardInput) ([]byte, error) {
			return gw.Call(ctx, http.MethodPost, gateway.Collection(gateway.CreditCards), in)
		},
	}

	s.update = mutation.Spec[CreditCardUpdate]{
		Name:    "credit_cards.update",
		Touches: touches,
		Predict: func(view cache.Getter, u CreditCardUpdate) (mutation.Values, error) {
			if err := u.Input.Validate(); err != nil {
				return nil, err
			}
			return updateCard(view, u.ID, func(c domain.CreditCard) domain.CreditCard {
				c.Name = u.Input.Name
				c.LimitTotal = u.Input.LimitTotal
				c.LimitAvailable = u.Input.LimitAvailable
				c.ClosingDay = u.Input.ClosingDay
				c.DueDay = u.Input.DueDay
				c.IsShared = u.Input.IsShared
				c.ClampAvailable()
				return c
			})
		},
		Submit: func(ctx context.Context, gw gateway.Gateway, u CreditCardUpdate) ([]byte, error) {
			return gw.Call(ctx, http.MethodPut, gateway.Item(gateway.CreditCards, u.ID), u.Input)
		},
	}

	s.delete = mutation.Spec[int32]{
		Name:    "credit_cards.delete",
		Touches: touches,
		Predict: func(view cache.Getter, id int32) (mutation.Values, error) {
			cards, ok := listOf[domain.CreditCard](view, cache.KeyCreditCards)
			if !ok {
				return nil, nil
			}
			next, found := without(cards, func(c domain.CreditCard) bool { return c.ID == id })
			if !found {
				return nil, domain.ErrCardNotFound
			}
			return mutation.Values{cache.KeyCreditCards: next}, nil
		},
		Submit: func(ctx context.Context, gw gateway.Gateway, id int32) ([]byte, error) {
			return gw.Call(ctx, http.MethodDelete, gateway.Item(gateway.CreditCards, id), nil)
		},
	}

	s.setShared = mutation.Spec[Shared]{
		Name:    "credit_cards.set_shared",
		Touches: touches,
		Predict: func(view cache.Getter, p Shared) (mutation.Values, error) {
			return updateCard(view, p.ID, func(c domain.CreditCard) domain.CreditCard {
				c.IsShared = p.Shared
				return c
			})
		},
		Submit: func(ctx context.Context, gw gateway.Gateway, p Shared) ([]byte, error) {
			return gw.Call(ctx, http.MethodPatch, gateway.Item(gateway.CreditCards, p.ID), map[string]bool{"is_shared": p.Shared})
		},
	}

	s.payInvoice = mutation.Spec[invoicePayment]{
		Name:    "invoices.pay",
		Touches: []cache.Key{cache.KeyCreditCards, cache.KeyAccounts, cache.KeyTransactions},
		Predict: predictInvoicePayment,
		Submit: func(ctx context.Context, gw gateway.Gateway, p invoicePayment) ([]byte, error) {
			return gw.Call(ctx, http.MethodPost, gateway.Action(gateway.Invoices, p.invoiceID, "pay"), map[string]any{
				"account_id": p.AccountID,
				"value":      p.Value,
				"date":       p.Date,
			})
		},
	}

	return s
}

func predictInvoicePayment(view cache.Getter, p invoicePayment) (mutation.Values, error) {
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
	cardName := ""

	if cards, ok := listOf[domain.CreditCard](view, cache.KeyCreditCards); ok {
		card, found := domain.FindCard(cards, p.CardID)
		if !found {
			return nil, domain.ErrCardNotFound
		}
		if !aggregate.CanPayInvoice(card, p.today) {
			return nil, domain.NewValidationError("invoice", domain.ErrInvoiceNotClosed)
		}
		cardName = card.Name
		next, _ := replaced(cards, func(c domain.CreditCard) bool { return c.ID == p.CardID }, func(c domain.CreditCard) domain.CreditCard {
			inv := *c.InvoiceInfo
			inv.AmountPaid = inv.AmountPaid.Add(p.Value)
			if inv.AmountPaid.GreaterThanOrEqual(inv.Value) {
				inv.Status = domain.InvoicePaid
			}
			c.InvoiceInfo = &inv
			c.LimitAvailable = c.LimitAvailable.Add(p.Value)
			c.ClampAvailable()
			return c
		})
		values[cache.KeyCreditCards] = next
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
		accountID := p.AccountID
		values[cache.KeyTransactions] = prepended(txs, domain.Transaction{
			ID:            tempID(),
			Description:   fmt.Sprintf("%s %s", InvoicePaymentDescription, cardName),
			Value:         p.Value,
			Type:          domain.TransactionTypeExpense,
			Date:          p.Date,
			PaymentMethod: domain.PaymentMethodAccount,
			AccountID:     &accountID,
		})
	}

	return values, nil
}

// updateCard rewrites one cached card. An unloaded list is left alone.
func updateCard(view cache.Getter, id int32, fn func(domain.CreditCard) domain.CreditCard) (mutation.Values, error) {
	cards, ok := listOf[domain.CreditCard](view, cache.KeyCreditCards)
	if !ok {
		return nil, nil
	}
	next, found := replaced(cards, func(c domain.CreditCard) bool { return c.ID == id }, fn)
	if !found {
		return nil, domain.ErrCardNotFound
	}
	return mutation.Values{cache.KeyCreditCards: next}, nil
}

// List returns the cards with their current invoices
func (s *CreditCardService) List(ctx context.Context) ([]domain.CreditCard, error) {
	return readList[domain.CreditCard](ctx, s.deps.Store, cache.KeyCreditCards)
}

// Create adds a card
func (s *CreditCardService) Create(ctx context.Context, in domain.CreditCardInput) (*mutation.Handle, error) {
	return mutation.Dispatch(ctx, s.deps.Engine, s.create, in)
}

// Update replaces a card's editable fields
func (s *CreditCardService) Update(ctx context.Context, id int32, in domain.CreditCardInput) (*mutation.Handle, error) {
	return mutation.Dispatch(ctx, s.deps.Engine, s.update, CreditCardUpdate{ID: id, Input: in})
}

// Delete removes a card
func (s *CreditCardService) Delete(ctx context.Context, id int32) (*mutation.Handle, error) {
	return mutation.Dispatch(ctx, s.deps.Engine, s.delete, id)
}

// SetShared toggles whether the household sees the card
func (s *CreditCardService) SetShared(ctx context.Context, id int32, shared bool) (*mutation.Handle, error) {
	return mutation.Dispatch(ctx, s.deps.Engine, s.setShared, Shared{ID: id, Shared: shared})
}

// PayInvoice pays the card's current invoice from an account. Only a CLOSED
// invoice with something outstanding can be paid.
func (s *CreditCardService) PayInvoice(ctx context.Context, in PayInvoiceInput) (*mutation.Handle, error) {
	cards, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	card, ok := domain.FindCard(cards, in.CardID)
	if !ok {
		return nil, domain.ErrCardNotFound
	}
	if card.InvoiceInfo == nil || card.InvoiceInfo.ID == 0 {
		return nil, domain.NewValidationError("invoice", domain.ErrNoOpenInvoice)
	}
	if in.Date.IsZero() {
		in.Date = s.deps.today()
	}

	return mutation.Dispatch(ctx, s.deps.Engine, s.payInvoice, invoicePayment{
		PayInvoiceInput: in,
		invoiceID:       card.InvoiceInfo.ID,
		today:           s.deps.now(),
	})
}
