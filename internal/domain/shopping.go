package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ShoppingListItem is a pending purchase. An item with a nil ProductID and a
// NewProductName is waiting for its catalog entry to be created.
type ShoppingListItem struct {
	ID                int32           `json:"id"`
	ProductID         *int32          `json:"product,omitempty"`
	ProductName       string          `json:"product_name,omitempty"`
	NewProductName    string          `json:"create_product_name,omitempty"`
	QuantityToBuy     decimal.Decimal `json:"quantity_to_buy"`
	EstimatedPrice    decimal.Decimal `json:"estimated_price"`
	IsPurchased       bool            `json:"is_purchased"`
	RealUnitPrice     decimal.Decimal `json:"real_unit_price"`
	DiscountUnitPrice decimal.Decimal `json:"discount_unit_price"`
}

// PendingProduct reports whether the item still needs a product created
func (i ShoppingListItem) PendingProduct() bool {
	return i.ProductID == nil && i.NewProductName != ""
}

// DisplayName prefers the catalog name
func (i ShoppingListItem) DisplayName() string {
	if i.ProductName != "" {
		return i.ProductName
	}
	return i.NewProductName
}

// ShoppingItemInput adds a product (or a new-product marker) to the list
type ShoppingItemInput struct {
	ProductID      *int32
	NewProductName string
	Quantity       decimal.Decimal
}

// Validate checks the add-item form before dispatch
func (in ShoppingItemInput) Validate() error {
	v := &ValidationError{}
	if in.ProductID == nil && strings.TrimSpace(in.NewProductName) == "" {
		v.Add("product", ErrProductNotFound)
	}
	if !in.Quantity.IsPositive() {
		v.Add("quantity_to_buy", ErrValueNotPositive)
	}
	return v.OrNil()
}

// ShoppingItemPatch is a partial update of a list item
type ShoppingItemPatch struct {
	QuantityToBuy     *decimal.Decimal `json:"quantity_to_buy,omitempty"`
	IsPurchased       *bool            `json:"is_purchased,omitempty"`
	RealUnitPrice     *decimal.Decimal `json:"real_unit_price,omitempty"`
	DiscountUnitPrice *decimal.Decimal `json:"discount_unit_price,omitempty"`
}

// Validate rejects negative quantities and prices
func (p ShoppingItemPatch) Validate() error {
	v := &ValidationError{}
	if p.QuantityToBuy != nil && !p.QuantityToBuy.IsPositive() {
		v.Add("quantity_to_buy", ErrValueNotPositive)
	}
	if p.RealUnitPrice != nil && p.RealUnitPrice.IsNegative() {
		v.Add("real_unit_price", ErrInvalidAmount)
	}
	if p.DiscountUnitPrice != nil && p.DiscountUnitPrice.IsNegative() {
		v.Add("discount_unit_price", ErrInvalidAmount)
	}
	return v.OrNil()
}

// Apply returns a copy of item with the patch applied
func (p ShoppingItemPatch) Apply(item ShoppingListItem) ShoppingListItem {
	if p.QuantityToBuy != nil {
		item.QuantityToBuy = *p.QuantityToBuy
	}
	if p.IsPurchased != nil {
		item.IsPurchased = *p.IsPurchased
	}
	if p.RealUnitPrice != nil {
		item.RealUnitPrice = *p.RealUnitPrice
	}
	if p.DiscountUnitPrice != nil {
		item.DiscountUnitPrice = *p.DiscountUnitPrice
	}
	return item
}
