package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/dafibh/domo/domo-client/internal/aggregate"
	"github.com/dafibh/domo/domo-client/internal/cache"
	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/dafibh/domo/domo-client/internal/gateway"
	"github.com/dafibh/domo/domo-client/internal/mutation"
	"github.com/shopspring/decimal"
)

// ShoppingDescription is the description of the transactions a finished
// shopping trip records
const ShoppingDescription = "Compras"

// ShoppingService handles the shopping list and its settlement
type ShoppingService struct {
	deps      Deps
	tolerance decimal.Decimal

	add    mutation.Spec[domain.ShoppingItemInput]
	update mutation.Spec[ShoppingItemUpdate]
	remove mutation.Spec[int32]
	finish mutation.Spec[shoppingFinish]
}

// ShoppingItemUpdate is a partial update of one list item
type ShoppingItemUpdate struct {
	ID    int32
	Patch domain.ShoppingItemPatch
}

// FinishInput settles every purchased item of the list across one or more
// payment sources
type FinishInput struct {
	Splits          []domain.PaymentSplit
	Date            domain.Date
	CategoryID      *int32
	UpdateInventory bool
}

type shoppingFinish struct {
	FinishInput
	tolerance decimal.Decimal
	payable   decimal.Decimal // list total when dispatched
}

type addItemBody struct {
	ProductID      *int32          `json:"product,omitempty"`
	NewProductName string          `json:"create_product_name,omitempty"`
	QuantityToBuy  decimal.Decimal `json:"quantity_to_buy"`
}

type finishSplitBody struct {
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	SourceID      int32                `json:"source_id"`
	Value         decimal.Decimal      `json:"value"`
	Installments  int                  `json:"installments,omitempty"`
}

type finishBody struct {
	TotalValue      decimal.Decimal   `json:"total_value"`
	Date            domain.Date       `json:"date"`
	CategoryID      *int32            `json:"category,omitempty"`
	UpdateInventory bool              `json:"update_inventory"`
	Splits          []finishSplitBody `json:"splits"`
}

// NewShoppingService creates a new ShoppingService. tolerance is how far the
// splits may miss the payable total.
func NewShoppingService(deps Deps, tolerance decimal.Decimal) *ShoppingService {
	s := &ShoppingService{deps: deps, tolerance: tolerance}
	touches := []cache.Key{cache.KeyShoppingList}

	// The API creates the catalog entry of a new-product marker itself
	s.add = mutation.Spec[domain.ShoppingItemInput]{
		Name:        "shopping_list.add",
		Touches:     touches,
		Invalidates: []cache.Key{cache.KeyShoppingList, cache.KeyProducts},
		Predict: func(view cache.Getter, in domain.ShoppingItemInput) (mutation.Values, error) {
			if err := in.Validate(); err != nil {
				return nil, err
			}
			item := domain.ShoppingListItem{
				ID:             tempID(),
				ProductID:      in.ProductID,
				NewProductName: strings.TrimSpace(in.NewProductName),
				QuantityToBuy:  in.Quantity,
				EstimatedPrice: decimal.Zero,
			}
			if in.ProductID != nil {
				if products, ok := listOf[domain.Product](view, cache.KeyProducts); ok {
					p, found := domain.FindProduct(products, *in.ProductID)
					if !found {
						return nil, domain.NewValidationError("product", domain.ErrProductNotFound)
					}
					item.ProductName = p.Name
					item.EstimatedPrice = p.EstimatedPrice
				}
			}
			items, ok := listOf[domain.ShoppingListItem](view, cache.KeyShoppingList)
			if !ok {
				return nil, nil
			}
			return mutation.Values{cache.KeyShoppingList: appended(items, item)}, nil
		},
		Submit: func(ctx context.Context, gw gateway.Gateway, in domain.ShoppingItemInput) ([]byte, error) {
			body := addItemBody{ProductID: in.ProductID, QuantityToBuy: in.Quantity}
			if in.ProductID == nil {
				body.NewProductName = strings.TrimSpace(in.NewProductName)
			}
			return gw.Call(ctx, http.MethodPost, gateway.Collection(gateway.ShoppingList), body)
		},
	}

	s.update = mutation.Spec[ShoppingItemUpdate]{
		Name:    "shopping_list.update",
		Touches: touches,
		Predict: func(view cache.Getter, u ShoppingItemUpdate) (mutation.Values, error) {
			if err := u.Patch.Validate(); err != nil {
				return nil, err
			}
			items, ok := listOf[domain.ShoppingListItem](view, cache.KeyShoppingList)
			if !ok {
				return nil, nil
			}
			next, found := replaced(items, func(i domain.ShoppingListItem) bool { return i.ID == u.ID }, u.Patch.Apply)
			if !found {
				return nil, domain.ErrItemNotFound
			}
			return mutation.Values{cache.KeyShoppingList: next}, nil
		},
		Submit: func(ctx context.Context, gw gateway.Gateway, u ShoppingItemUpdate) ([]byte, error) {
			return gw.Call(ctx, http.MethodPatch, gateway.Item(gateway.ShoppingList, u.ID), u.Patch)
		},
	}

	s.remove = mutation.Spec[int32]{
		Name:    "shopping_list.remove",
		Touches: touches,
		Predict: func(view cache.Getter, id int32) (mutation.Values, error) {
			items, ok := listOf[domain.ShoppingListItem](view, cache.KeyShoppingList)
			if !ok {
				return nil, nil
			}
			next, found := without(items, func(i domain.ShoppingListItem) bool { return i.ID == id })
			if !found {
				return nil, domain.ErrItemNotFound
			}
			return mutation.Values{cache.KeyShoppingList: next}, nil
		},
		Submit: func(ctx context.Context, gw gateway.Gateway, id int32) ([]byte, error) {
			return gw.Call(ctx, http.MethodDelete, gateway.Item(gateway.ShoppingList, id), nil)
		},
	}

	s.finish = mutation.Spec[shoppingFinish]{
		Name: "shopping_list.finish",
		Touches: []cache.Key{
			cache.KeyShoppingList, cache.KeyAccounts, cache.KeyCreditCards,
			cache.KeyTransactions, cache.KeyInventory,
		},
		Predict: predictFinish,
		Submit: func(ctx context.Context, gw gateway.Gateway, f shoppingFinish) ([]byte, error) {
			body := finishBody{
				TotalValue:      f.payable,
				Date:            f.Date,
				CategoryID:      f.CategoryID,
				UpdateInventory: f.UpdateInventory,
				Splits:          make([]finishSplitBody, 0, len(f.Splits)),
			}
			for _, sp := range f.Splits {
				split := finishSplitBody{
					PaymentMethod: sp.Source.Method(),
					SourceID:      sp.Source.SourceID(),
					Value:         sp.Source.Amount(),
				}
				if c, ok := sp.Source.(domain.CardPayment); ok {
					split.Installments = c.InstallmentCount()
				}
				body.Splits = append(body.Splits, split)
			}
			return gw.Call(ctx, http.MethodPost, gateway.CollectionAction(gateway.ShoppingList, "finish"), body)
		},
	}

	return s
}

// predictFinish clears the purchased items, debits every split source and
// records the purchase. The list must be loaded: the splits are checked
// against its payable total.
func predictFinish(view cache.Getter, f shoppingFinish) (mutation.Values, error) {
	items, ok := listOf[domain.ShoppingListItem](view, cache.KeyShoppingList)
	if !ok {
		return nil, domain.NewValidationError("items", domain.ErrNothingPurchased)
	}
	summary := aggregate.ShoppingTotals(items)
	if summary.Purchased == 0 {
		return nil, domain.NewValidationError("items", domain.ErrNothingPurchased)
	}
	if f.Date.IsZero() {
		return nil, domain.NewValidationError("date", domain.ErrInvalidInput)
	}
	if err := aggregate.CanSubmitSplits(summary.Payable, f.Splits, f.tolerance); err != nil {
		return nil, err
	}

	var purchased []domain.ShoppingListItem
	values := mutation.Values{}
	values[cache.KeyShoppingList], _ = without(items, func(i domain.ShoppingListItem) bool {
		if i.IsPurchased {
			purchased = append(purchased, i)
		}
		return i.IsPurchased
	})

	lines := make([]domain.TransactionItem, 0, len(purchased))
	for _, it := range purchased {
		_, unit := aggregate.UnitPrices(it)
		lines = append(lines, domain.TransactionItem{
			Description: it.DisplayName(),
			Value:       domain.RoundCents(unit.Mul(it.QuantityToBuy)),
			Quantity:    it.QuantityToBuy,
		})
	}

	accounts, accountsLoaded := listOf[domain.Account](view, cache.KeyAccounts)
	cards, cardsLoaded := listOf[domain.CreditCard](view, cache.KeyCreditCards)
	var rows []domain.Transaction

	for _, sp := range f.Splits {
		switch p := sp.Source.(type) {
		case domain.AccountPayment:
			if accountsLoaded {
				next, found := replaced(accounts, func(a domain.Account) bool { return a.ID == p.AccountID }, func(a domain.Account) domain.Account {
					a.Balance = a.Balance.Sub(p.Value)
					return a
				})
				if !found {
					return nil, domain.NewValidationError("splits", domain.ErrAccountNotFound)
				}
				accounts = next
				values[cache.KeyAccounts] = accounts
			}
			accountID := p.AccountID
			rows = append(rows, domain.Transaction{
				ID:            tempID(),
				Description:   ShoppingDescription,
				Value:         p.Value,
				Type:          domain.TransactionTypeExpense,
				Date:          f.Date,
				PaymentMethod: domain.PaymentMethodAccount,
				AccountID:     &accountID,
				CategoryID:    f.CategoryID,
				CategoryName:  categoryName(view, f.CategoryID),
				Items:         lines,
			})

		case domain.CardPayment:
			card, found := domain.FindCard(cards, p.CardID)
			if cardsLoaded && !found {
				return nil, domain.NewValidationError("splits", domain.ErrCardNotFound)
			}
			in := domain.TransactionInput{
				Description: ShoppingDescription,
				Type:        domain.TransactionTypeExpense,
				Date:        f.Date,
				CategoryID:  f.CategoryID,
				Payment:     p,
			}
			charged, cardRows := chargeCard(card, in, p)
			if cardsLoaded {
				cards, _ = replaced(cards, func(c domain.CreditCard) bool { return c.ID == p.CardID }, func(domain.CreditCard) domain.CreditCard {
					return charged
				})
				values[cache.KeyCreditCards] = cards
			}
			for i := range cardRows {
				cardRows[i].CategoryName = categoryName(view, f.CategoryID)
				cardRows[i].Items = lines
			}
			rows = append(rows, cardRows...)
		}
	}

	if txs, ok := listOf[domain.Transaction](view, cache.KeyTransactions); ok {
		values[cache.KeyTransactions] = prepended(txs, rows...)
	}

	if f.UpdateInventory {
		if stock, ok := listOf[domain.InventoryItem](view, cache.KeyInventory); ok {
			bought := map[int32]decimal.Decimal{}
			for _, it := range purchased {
				if it.ProductID != nil {
					bought[*it.ProductID] = bought[*it.ProductID].Add(it.QuantityToBuy)
				}
			}
			values[cache.KeyInventory], _ = replaced(stock, func(i domain.InventoryItem) bool {
				_, ok := bought[i.ProductID]
				return ok
			}, func(i domain.InventoryItem) domain.InventoryItem {
				i.Quantity = i.Quantity.Add(bought[i.ProductID])
				return i
			})
		}
	}

	return values, nil
}

// List returns the shopping list
func (s *ShoppingService) List(ctx context.Context) ([]domain.ShoppingListItem, error) {
	return readList[domain.ShoppingListItem](ctx, s.deps.Store, cache.KeyShoppingList)
}

// Summary computes the list totals
func (s *ShoppingService) Summary(ctx context.Context) (aggregate.ShoppingSummary, error) {
	items, err := s.List(ctx)
	if err != nil {
		return aggregate.ShoppingSummary{}, err
	}
	return aggregate.ShoppingTotals(items), nil
}

// Add puts a product, or a new-product marker, on the list
func (s *ShoppingService) Add(ctx context.Context, in domain.ShoppingItemInput) (*mutation.Handle, error) {
	return mutation.Dispatch(ctx, s.deps.Engine, s.add, in)
}

// Update changes quantity, prices or the purchased flag of an item
func (s *ShoppingService) Update(ctx context.Context, id int32, patch domain.ShoppingItemPatch) (*mutation.Handle, error) {
	return mutation.Dispatch(ctx, s.deps.Engine, s.update, ShoppingItemUpdate{ID: id, Patch: patch})
}

// TogglePurchased flips the purchased flag of an item
func (s *ShoppingService) TogglePurchased(ctx context.Context, id int32) (*mutation.Handle, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.ID == id {
			purchased := !it.IsPurchased
			return s.Update(ctx, id, domain.ShoppingItemPatch{IsPurchased: &purchased})
		}
	}
	return nil, domain.ErrItemNotFound
}

// Remove takes an item off the list
func (s *ShoppingService) Remove(ctx context.Context, id int32) (*mutation.Handle, error) {
	return mutation.Dispatch(ctx, s.deps.Engine, s.remove, id)
}

// Finish settles the purchased items. It is rejected before dispatch when
// nothing is purchased or the splits do not match the payable total.
func (s *ShoppingService) Finish(ctx context.Context, in FinishInput) (*mutation.Handle, error) {
	// Load the list so the splits are checked against it
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		in.Date = s.deps.today()
	}
	return mutation.Dispatch(ctx, s.deps.Engine, s.finish, shoppingFinish{
		FinishInput: in,
		tolerance:   s.tolerance,
		payable:     aggregate.ShoppingTotals(items).Payable,
	})
}
