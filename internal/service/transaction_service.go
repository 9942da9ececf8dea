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

// TransactionService records income and expenses
type TransactionService struct {
	deps   Deps
	create mutation.Spec[domain.TransactionInput]
}

// transactionBody is the create-transaction request of the API. Card
// purchases send card_id and installments; the API splits them itself.
type transactionBody struct {
	Description     string                 `json:"description"`
	Value           decimal.Decimal        `json:"value"`
	Type            domain.TransactionType `json:"type"`
	Date            domain.Date            `json:"date"`
	CategoryID      *int32                 `json:"category,omitempty"`
	PaymentMethod   domain.PaymentMethod   `json:"payment_method"`
	AccountID       *int32                 `json:"account,omitempty"`
	CardID          *int32                 `json:"card_id,omitempty"`
	Installments    int                    `json:"installments,omitempty"`
	RecurringBillID *int32                 `json:"recurring_bill,omitempty"`
}

func newTransactionBody(in domain.TransactionInput) transactionBody {
	body := transactionBody{
		Description:   in.Description,
		Value:         in.Payment.Amount(),
		Type:          in.Type,
		Date:          in.Date,
		CategoryID:    in.CategoryID,
		PaymentMethod: in.Payment.Method(),
	}
	switch p := in.Payment.(type) {
	case domain.AccountPayment:
		id := p.AccountID
		body.AccountID = &id
	case domain.CardPayment:
		id := p.CardID
		body.CardID = &id
		body.Installments = p.InstallmentCount()
	}
	return body
}

// NewTransactionService creates a new TransactionService
func NewTransactionService(deps Deps) *TransactionService {
	s := &TransactionService{deps: deps}

	s.create = mutation.Spec[domain.TransactionInput]{
		Name:    "transactions.create",
		Touches: []cache.Key{cache.KeyTransactions, cache.KeyAccounts, cache.KeyCreditCards},
		Predict: predictTransaction,
		Submit: func(ctx context.Context, gw gateway.Gateway, in domain.TransactionInput) ([]byte, error) {
			return gw.Call(ctx, http.MethodPost, gateway.Collection(gateway.Transactions), newTransactionBody(in))
		},
	}

	return s
}

func predictTransaction(view cache.Getter, in domain.TransactionInput) (mutation.Values, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	values := mutation.Values{}
	var rows []domain.Transaction

	switch p := in.Payment.(type) {
	case domain.AccountPayment:
		if accounts, ok := listOf[domain.Account](view, cache.KeyAccounts); ok {
			next, found := replaced(accounts, func(a domain.Account) bool { return a.ID == p.AccountID }, func(a domain.Account) domain.Account {
				if in.Type == domain.TransactionTypeExpense {
					a.Balance = a.Balance.Sub(p.Value)
				} else {
					a.Balance = a.Balance.Add(p.Value)
				}
				return a
			})
			if !found {
				return nil, domain.NewValidationError("payment", domain.ErrAccountNotFound)
			}
			values[cache.KeyAccounts] = next
		}
		accountID := p.AccountID
		rows = []domain.Transaction{{
			ID:            tempID(),
			Description:   in.Description,
			Value:         p.Value,
			Type:          in.Type,
			Date:          in.Date,
			PaymentMethod: domain.PaymentMethodAccount,
			AccountID:     &accountID,
			CategoryID:    in.CategoryID,
			CategoryName:  categoryName(view, in.CategoryID),
		}}

	case domain.CardPayment:
		cards, ok := listOf[domain.CreditCard](view, cache.KeyCreditCards)
		card, found := domain.FindCard(cards, p.CardID)
		if ok && !found {
			return nil, domain.NewValidationError("payment", domain.ErrCardNotFound)
		}
		next, cardRows := chargeCard(card, in, p)
		if ok {
			values[cache.KeyCreditCards], _ = replaced(cards, func(c domain.CreditCard) bool { return c.ID == p.CardID }, func(domain.CreditCard) domain.CreditCard {
				return next
			})
		}
		rows = cardRows
		for i := range rows {
			rows[i].CategoryName = categoryName(view, in.CategoryID)
		}
	}

	if txs, ok := listOf[domain.Transaction](view, cache.KeyTransactions); ok {
		values[cache.KeyTransactions] = prepended(txs, rows...)
	}
	return values, nil
}

// chargeCard applies a card purchase to card: the whole value leaves the
// available limit, clamped at zero, and every installment whose invoice month
// is the card's current invoice is added to it. It returns one row per
// installment, all dated on the purchase day.
func chargeCard(card domain.CreditCard, in domain.TransactionInput, p domain.CardPayment) (domain.CreditCard, []domain.Transaction) {
	n := p.InstallmentCount()
	parts := domain.SplitInstallments(p.Value, n)

	card.LimitAvailable = card.LimitAvailable.Sub(p.Value)
	card.ClampAvailable()

	var inv *domain.InvoiceInfo
	if card.InvoiceInfo != nil {
		copied := *card.InvoiceInfo
		inv = &copied
		card.InvoiceInfo = inv
	}

	cardID := p.CardID
	rows := make([]domain.Transaction, 0, n)
	for i, part := range parts {
		ref := domain.InvoiceReferenceDate(in.Date, card.ClosingDay, i)
		if inv != nil && inv.ReferenceDate.Equal(ref.Time) && inv.Status != domain.InvoicePaid {
			inv.Value = inv.Value.Add(part)
		}
		rows = append(rows, domain.Transaction{
			ID:            tempID(),
			Description:   domain.InstallmentDescription(in.Description, i, n),
			Value:         part,
			Type:          domain.TransactionTypeExpense,
			Date:          in.Date,
			PaymentMethod: domain.PaymentMethodCreditCard,
			CardID:        &cardID,
			CategoryID:    in.CategoryID,
			Installments:  n,
		})
	}
	return card, rows
}

func categoryName(view cache.Getter, id *int32) string {
	if id == nil {
		return ""
	}
	categories, _ := listOf[domain.Category](view, cache.KeyCategories)
	for _, c := range categories {
		if c.ID == *id {
			return c.Name
		}
	}
	return ""
}

// List returns the transactions, newest first
func (s *TransactionService) List(ctx context.Context) ([]domain.Transaction, error) {
	return readList[domain.Transaction](ctx, s.deps.Store, cache.KeyTransactions)
}

// Create records a transaction paid from an account or charged to a card
func (s *TransactionService) Create(ctx context.Context, in domain.TransactionInput) (*mutation.Handle, error) {
	if in.Date.IsZero() {
		in.Date = s.deps.today()
	}
	return mutation.Dispatch(ctx, s.deps.Engine, s.create, in)
}
