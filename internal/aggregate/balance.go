// Package aggregate computes the derived figures shown on the dashboard,
// charts and shopping screens. Every function is pure: it reads the values it
// is given and allocates fresh results.
package aggregate

import (
	"sort"
	"time"

	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/dafibh/domo/domo-client/internal/util"
	"github.com/shopspring/decimal"
)

// ForecastKind tells invoice lines from bill lines
type ForecastKind string

const (
	ForecastInvoice ForecastKind = "invoice"
	ForecastBill    ForecastKind = "bill"
)

// ForecastItem is one expected expense of the current cycle
type ForecastItem struct {
	Kind        ForecastKind    `json:"kind"`
	SourceID    int32           `json:"sourceId"`
	Name        string          `json:"name"`
	Value       decimal.Decimal `json:"value"`
	Outstanding decimal.Decimal `json:"outstanding"` // unpaid part of Value
	DueDate     domain.Date     `json:"dueDate"`
}

// ForecastDetail is the forecast total with its breakdown, soonest first
type ForecastDetail struct {
	Total decimal.Decimal `json:"total"`
	Items []ForecastItem  `json:"items"`
}

// TotalBalance sums account balances
func TotalBalance(accounts []domain.Account) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return total
}

// Forecast lists what is due this cycle: the full value of each card's
// current invoice, partial payments included, plus every recurring bill not
// yet paid this month
func Forecast(cards []domain.CreditCard, bills []domain.RecurringBill, now time.Time) ForecastDetail {
	detail := ForecastDetail{Total: decimal.Zero, Items: []ForecastItem{}}

	for _, c := range cards {
		value := c.CurrentInvoiceValue()
		if value.IsZero() {
			continue
		}
		detail.Items = append(detail.Items, ForecastItem{
			Kind:        ForecastInvoice,
			SourceID:    c.ID,
			Name:        c.Name,
			Value:       value,
			Outstanding: c.InvoiceInfo.Outstanding(),
			DueDate:     InvoiceDueDate(c, now),
		})
		detail.Total = detail.Total.Add(value)
	}

	for _, b := range bills {
		if b.IsPaidThisMonth {
			continue
		}
		detail.Items = append(detail.Items, ForecastItem{
			Kind:        ForecastBill,
			SourceID:    b.ID,
			Name:        b.Name,
			Value:       b.BaseValue,
			Outstanding: b.BaseValue,
			DueDate:     domain.Date{Time: util.CalculateActualDate(now.Year(), now.Month(), b.DueDay)},
		})
		detail.Total = detail.Total.Add(b.BaseValue)
	}

	sort.SliceStable(detail.Items, func(i, j int) bool {
		return detail.Items[i].DueDate.Before(detail.Items[j].DueDate.Time)
	})
	return detail
}

// TotalForecast is Forecast without the breakdown
func TotalForecast(cards []domain.CreditCard, bills []domain.RecurringBill, now time.Time) decimal.Decimal {
	return Forecast(cards, bills, now).Total
}

// FreeBalance is what remains after the forecast is paid
func FreeBalance(accounts []domain.Account, cards []domain.CreditCard, bills []domain.RecurringBill, now time.Time) decimal.Decimal {
	return TotalBalance(accounts).Sub(TotalForecast(cards, bills, now))
}
