package domain

import (
	"github.com/shopspring/decimal"
)

// InventoryItem is the stock row of a product. The API keeps one row per
// product and rejects duplicates.
type InventoryItem struct {
	ID          int32           `json:"id"`
	ProductID   int32           `json:"product"`
	ProductName string          `json:"product_name,omitempty"`
	MeasureUnit MeasureUnit     `json:"measure_unit,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	MinQuantity decimal.Decimal `json:"min_quantity"`
}

// NeedsRestock reports whether stock is below the minimum
func (i InventoryItem) NeedsRestock() bool {
	return i.Quantity.LessThan(i.MinQuantity)
}

// InventoryInput is the editable part of a stock row
type InventoryInput struct {
	ProductID   int32           `json:"product"`
	Quantity    decimal.Decimal `json:"quantity"`
	MinQuantity decimal.Decimal `json:"min_quantity"`
}

// Validate checks the inventory form before dispatch
func (in InventoryInput) Validate() error {
	v := &ValidationError{}
	if in.ProductID == 0 {
		v.Add("product", ErrProductNotFound)
	}
	if in.Quantity.IsNegative() {
		v.Add("quantity", ErrNegativeQuantity)
	}
	if in.MinQuantity.IsNegative() {
		v.Add("min_quantity", ErrNegativeQuantity)
	}
	return v.OrNil()
}
