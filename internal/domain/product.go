package domain

import (
	"github.com/shopspring/decimal"
)

type MeasureUnit string

const (
	UnitPiece   MeasureUnit = "un"
	UnitKilo    MeasureUnit = "kg"
	UnitLiter   MeasureUnit = "L"
	UnitBox     MeasureUnit = "cx"
	UnitPackage MeasureUnit = "pct"
)

// Valid reports whether u is one of the catalog units
func (u MeasureUnit) Valid() bool {
	switch u {
	case UnitPiece, UnitKilo, UnitLiter, UnitBox, UnitPackage:
		return true
	}
	return false
}

type Product struct {
	ID             int32           `json:"id"`
	Name           string          `json:"name"`
	MeasureUnit    MeasureUnit     `json:"measure_unit"`
	EstimatedPrice decimal.Decimal `json:"estimated_price"`
	MinQuantity    decimal.Decimal `json:"min_quantity"`
	ImageURL       string          `json:"image_url,omitempty"`
}

// ProductInput is the editable part of a catalog entry
type ProductInput struct {
	Name           string          `json:"name"`
	MeasureUnit    MeasureUnit     `json:"measure_unit"`
	EstimatedPrice decimal.Decimal `json:"estimated_price"`
	MinQuantity    decimal.Decimal `json:"min_quantity"`
}

// Validate checks the product form before dispatch
func (in ProductInput) Validate() error {
	v := &ValidationError{}
	validateName(v, "name", in.Name)
	if !in.MeasureUnit.Valid() {
		v.Add("measure_unit", ErrInvalidUnit)
	}
	if in.EstimatedPrice.IsNegative() {
		v.Add("estimated_price", ErrInvalidAmount)
	}
	if in.MinQuantity.IsNegative() {
		v.Add("min_quantity", ErrNegativeQuantity)
	}
	return v.OrNil()
}

// FindProduct returns the product with the given id
func FindProduct(products []Product, id int32) (Product, bool) {
	for _, p := range products {
		if p.ID == id {
			return p, true
		}
	}
	return Product{}, false
}
