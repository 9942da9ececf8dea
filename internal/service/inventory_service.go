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

// InventoryService handles household stock
type InventoryService struct {
	deps Deps

	create      mutation.Spec[domain.InventoryInput]
	update      mutation.Spec[InventoryUpdate]
	setQuantity mutation.Spec[InventoryQuantity]
	delete      mutation.Spec[int32]
}

// InventoryUpdate replaces the editable fields of a stock row
type InventoryUpdate struct {
	ID    int32
	Input domain.InventoryInput
}

// InventoryQuantity sets the quantity of a stock row, as the +/- stepper does
type InventoryQuantity struct {
	ID       int32
	Quantity decimal.Decimal
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(deps Deps) *InventoryService {
	s := &InventoryService{deps: deps}
	touches := []cache.Key{cache.KeyInventory}

	// A second row for the same product is rejected by the API with a 400
	s.create = mutation.Spec[domain.InventoryInput]{
		Name:    "inventory.create",
		Touches: touches,
		Predict: func(view cache.Getter, in domain.InventoryInput) (mutation.Values, error) {
			if err := in.Validate(); err != nil {
				return nil, err
			}
			items, ok := listOf[domain.InventoryItem](view, cache.KeyInventory)
			if !ok {
				return nil, nil
			}
			row := domain.InventoryItem{
				ID:          tempID(),
				ProductID:   in.ProductID,
				Quantity:    in.Quantity,
				MinQuantity: in.MinQuantity,
			}
			if products, ok := listOf[domain.Product](view, cache.KeyProducts); ok {
				if p, found := domain.FindProduct(products, in.ProductID); found {
					row.ProductName = p.Name
					row.MeasureUnit = p.MeasureUnit
				}
			}
			return mutation.Values{cache.KeyInventory: appended(items, row)}, nil
		},
		Submit: func(ctx context.Context, gw gateway.Gateway, in domain.InventoryInput) ([]byte, error) {
			return gw.Call(ctx, http.MethodPost, gateway.Collection(gateway.Inventory), in)
		},
	}

	s.update = mutation.Spec[InventoryUpdate]{
		Name:    "inventory.update",
		Touches: touches,
		Predict: func(view cache.Getter, u InventoryUpdate) (mutation.Values, error) {
			if err := u.Input.Validate(); err != nil {
				return nil, err
			}
			return updateInventory(view, u.ID, func(i domain.InventoryItem) domain.InventoryItem {
				i.Quantity = u.Input.Quantity
				i.MinQuantity = u.Input.MinQuantity
				return i
			})
		},
		Submit: func(ctx context.Context, gw gateway.Gateway, u InventoryUpdate) ([]byte, error) {
			return gw.Call(ctx, http.MethodPut, gateway.Item(gateway.Inventory, u.ID), u.Input)
		},
	}

	s.setQuantity = mutation.Spec[InventoryQuantity]{
		Name:    "inventory.set_quantity",
		Touches: touches,
		Predict: func(view cache.Getter, q InventoryQuantity) (mutation.Values, error) {
			if q.Quantity.IsNegative() {
				return nil, domain.NewValidationError("quantity", domain.ErrNegativeQuantity)
			}
			return updateInventory(view, q.ID, func(i domain.InventoryItem) domain.InventoryItem {
				i.Quantity = q.Quantity
				return i
			})
		},
		Submit: func(ctx context.Context, gw gateway.Gateway, q InventoryQuantity) ([]byte, error) {
			return gw.Call(ctx, http.MethodPatch, gateway.Item(gateway.Inventory, q.ID), map[string]decimal.Decimal{"quantity": q.Quantity})
		},
	}

	s.delete = mutation.Spec[int32]{
		Name:    "inventory.delete",
		Touches: touches,
		Predict: func(view cache.Getter, id int32) (mutation.Values, error) {
			items, ok := listOf[domain.InventoryItem](view, cache.KeyInventory)
			if !ok {
				return nil, nil
			}
			next, found := without(items, func(i domain.InventoryItem) bool { return i.ID == id })
			if !found {
				return nil, domain.ErrItemNotFound
			}
			return mutation.Values{cache.KeyInventory: next}, nil
		},
		Submit: func(ctx context.Context, gw gateway.Gateway, id int32) ([]byte, error) {
			return gw.Call(ctx, http.MethodDelete, gateway.Item(gateway.Inventory, id), nil)
		},
	}

	return s
}

func updateInventory(view cache.Getter, id int32, fn func(domain.InventoryItem) domain.InventoryItem) (mutation.Values, error) {
	items, ok := listOf[domain.InventoryItem](view, cache.KeyInventory)
	if !ok {
		return nil, nil
	}
	next, found := replaced(items, func(i domain.InventoryItem) bool { return i.ID == id }, fn)
	if !found {
		return nil, domain.ErrItemNotFound
	}
	return mutation.Values{cache.KeyInventory: next}, nil
}

// List returns the stock rows
func (s *InventoryService) List(ctx context.Context) ([]domain.InventoryItem, error) {
	return readList[domain.InventoryItem](ctx, s.deps.Store, cache.KeyInventory)
}

// Create adds a stock row for a product
func (s *InventoryService) Create(ctx context.Context, in domain.InventoryInput) (*mutation.Handle, error) {
	return mutation.Dispatch(ctx, s.deps.Engine, s.create, in)
}

// Update replaces quantity and minimum of a row
func (s *InventoryService) Update(ctx context.Context, id int32, in domain.InventoryInput) (*mutation.Handle, error) {
	return mutation.Dispatch(ctx, s.deps.Engine, s.update, InventoryUpdate{ID: id, Input: in})
}

// SetQuantity changes only the quantity
func (s *InventoryService) SetQuantity(ctx context.Context, id int32, quantity decimal.Decimal) (*mutation.Handle, error) {
	return mutation.Dispatch(ctx, s.deps.Engine, s.setQuantity, InventoryQuantity{ID: id, Quantity: quantity})
}

// Delete removes a stock row
func (s *InventoryService) Delete(ctx context.Context, id int32) (*mutation.Handle, error) {
	return mutation.Dispatch(ctx, s.deps.Engine, s.delete, id)
}
