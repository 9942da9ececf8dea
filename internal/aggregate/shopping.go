package aggregate

import (
	"sort"

	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultSplitTolerance absorbs rounding when splits are compared to a total
var DefaultSplitTolerance = decimal.RequireFromString("0.05")

// ShoppingSummary holds the running totals of the shopping list
type ShoppingSummary struct {
	Estimated decimal.Decimal `json:"estimated"`
	Real      decimal.Decimal `json:"real"`
	Discount  decimal.Decimal `json:"discount"`
	Payable   decimal.Decimal `json:"payable"`
	Purchased int             `json:"purchased"`
	Pending   int             `json:"pending"`
}

// ShoppingTotals computes the list totals. Every item counts towards the
// estimate; only purchased items count towards the real and discounted totals,
// falling back to the estimated price and then the real price when the more
// specific price was not filled in.
func ShoppingTotals(items []domain.ShoppingListItem) ShoppingSummary {
	s := ShoppingSummary{Estimated: decimal.Zero, Real: decimal.Zero, Discount: decimal.Zero}
	for _, it := range items {
		qty := it.QuantityToBuy
		s.Estimated = s.Estimated.Add(it.EstimatedPrice.Mul(qty))
		if !it.IsPurchased {
			s.Pending++
			continue
		}
		s.Purchased++

		unitReal, disc := UnitPrices(it)
		s.Real = s.Real.Add(unitReal.Mul(qty))
		s.Discount = s.Discount.Add(disc.Mul(qty))
	}

	s.Estimated = domain.RoundCents(s.Estimated)
	s.Real = domain.RoundCents(s.Real)
	s.Discount = domain.RoundCents(s.Discount)
	s.Payable = s.Real
	if s.Discount.IsPositive() {
		s.Payable = s.Discount
	}
	return s
}

// UnitPrices returns the real and discounted unit prices of an item, falling
// back to the estimate when a price was not entered
func UnitPrices(it domain.ShoppingListItem) (unitReal, discount decimal.Decimal) {
	unitReal = it.EstimatedPrice
	if it.RealUnitPrice.IsPositive() {
		unitReal = it.RealUnitPrice
	}
	discount = unitReal
	if it.DiscountUnitPrice.IsPositive() {
		discount = it.DiscountUnitPrice
	}
	return unitReal, discount
}

// PaymentSplitRemaining is what the splits still leave uncovered, never negative
func PaymentSplitRemaining(total decimal.Decimal, splits []domain.PaymentSplit) decimal.Decimal {
	return decimal.Max(decimal.Zero, total.Sub(domain.SumSplits(splits)))
}

// SplitOverpayment is how far the splits exceed total, never negative
func SplitOverpayment(total decimal.Decimal, splits []domain.PaymentSplit) decimal.Decimal {
	return decimal.Max(decimal.Zero, domain.SumSplits(splits).Sub(total))
}

// CapSplitValue limits a new split to what is still uncovered
func CapSplitValue(total decimal.Decimal, splits []domain.PaymentSplit, value decimal.Decimal) decimal.Decimal {
	return decimal.Min(value, PaymentSplitRemaining(total, splits))
}

// CanSubmitSplits validates a settlement before it is dispatched. The splits
// must cover total within tolerance, must not overpay beyond it, and each one
// must be a valid payment.
func CanSubmitSplits(total decimal.Decimal, splits []domain.PaymentSplit, tolerance decimal.Decimal) error {
	v := &domain.ValidationError{}
	if len(splits) == 0 {
		v.Add("splits", domain.ErrSourceRequired)
		return v
	}
	for _, s := range splits {
		if s.Source == nil || s.Source.SourceID() == 0 {
			v.Add("splits", domain.ErrSourceRequired)
			continue
		}
		if !s.Source.Amount().IsPositive() {
			v.Add("splits.value", domain.ErrValueNotPositive)
		}
	}
	if PaymentSplitRemaining(total, splits).GreaterThan(tolerance) {
		v.Add("splits", domain.ErrSplitNotCovered)
	}
	if SplitOverpayment(total, splits).GreaterThan(tolerance) {
		v.Add("splits", domain.ErrSplitOverpaid)
	}
	return v.OrNil()
}

// Restock is an inventory row below its minimum
type Restock struct {
	Item    domain.InventoryItem `json:"item"`
	Missing decimal.Decimal      `json:"missing"`
}

// RestockSuggestions lists the rows that need restocking, by product name
func RestockSuggestions(items []domain.InventoryItem) []Restock {
	out := []Restock{}
	for _, it := range items {
		if it.NeedsRestock() {
			out = append(out, Restock{Item: it, Missing: it.MinQuantity.Sub(it.Quantity)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Item.ProductName < out[j].Item.ProductName })
	return out
}
