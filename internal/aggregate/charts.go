package aggregate

import (
	"fmt"
	"sort"
	"time"

	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/dafibh/domo/domo-client/internal/util"
	"github.com/shopspring/decimal"
)

// Granularity selects the bucket size of GroupByPeriod
type Granularity string

const (
	Day   Granularity = "day"
	Month Granularity = "month"
)

// ParseGranularity accepts "day" and "month", defaulting to Day when empty
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case "", Day:
		return Day, nil
	case Month:
		return Month, nil
	}
	return "", fmt.Errorf("%w: granularity %q", domain.ErrInvalidInput, s)
}

// Chart labels for synthetic buckets
const (
	OtherLabel         = "Other"
	UncategorizedLabel = "Uncategorized"
)

var monthLabels = [...]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"}

// PeriodBucket is one point of the income/expense chart
type PeriodBucket struct {
	Label   string          `json:"label"`
	Start   domain.Date     `json:"start"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

// GroupByPeriod buckets transactions by calendar day or by month and returns
// the buckets in chronological order
func GroupByPeriod(txs []domain.Transaction, g Granularity) []PeriodBucket {
	buckets := map[time.Time]*PeriodBucket{}
	for _, tx := range txs {
		if tx.Date.IsZero() {
			continue
		}
		start, label := bucketOf(tx.Date.Time, g)
		b, ok := buckets[start]
		if !ok {
			b = &PeriodBucket{Label: label, Start: domain.Date{Time: start}, Income: decimal.Zero, Expense: decimal.Zero}
			buckets[start] = b
		}
		if tx.IsExpense() {
			b.Expense = b.Expense.Add(tx.Value)
		} else {
			b.Income = b.Income.Add(tx.Value)
		}
	}

	out := make([]PeriodBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start.Time) })
	return out
}

func bucketOf(t time.Time, g Granularity) (time.Time, string) {
	if g == Month {
		start := util.MonthStart(t)
		return start, fmt.Sprintf("%s %d", monthLabels[start.Month()-1], start.Year())
	}
	start := domain.NewDate(t).Time
	return start, start.Format("02/01")
}

// InPeriod keeps the transactions a chart of granularity g shows around now:
// the current month for Day, the current year for Month
func InPeriod(txs []domain.Transaction, g Granularity, now time.Time) []domain.Transaction {
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Date.Year() != now.Year() {
			continue
		}
		if g == Day && tx.Date.Month() != now.Month() {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// CategoryTotal is one slice of the expenses-by-category chart
type CategoryTotal struct {
	Name  string          `json:"name"`
	Value decimal.Decimal `json:"value"`
}

// DefaultTopCategories is the slice count used when n is not positive
const DefaultTopCategories = 5

// TopCategories sums expenses per category, largest first, and folds whatever
// does not fit in n into an Other bucket. Other is omitted when it would be 0.
func TopCategories(txs []domain.Transaction, n int) []CategoryTotal {
	if n <= 0 {
		n = DefaultTopCategories
	}

	sums := map[string]decimal.Decimal{}
	for _, tx := range txs {
		if !tx.IsExpense() {
			continue
		}
		name := tx.CategoryName
		if name == "" {
			name = UncategorizedLabel
		}
		sums[name] = sums[name].Add(tx.Value)
	}

	all := make([]CategoryTotal, 0, len(sums))
	for name, v := range sums {
		all = append(all, CategoryTotal{Name: name, Value: v})
	}
	sort.Slice(all, func(i, j int) bool {
		if c := all[i].Value.Cmp(all[j].Value); c != 0 {
			return c > 0
		}
		return all[i].Name < all[j].Name
	})

	if len(all) <= n {
		return all
	}
	top := all[:n:n]
	rest := decimal.Zero
	for _, c := range all[n:] {
		rest = rest.Add(c.Value)
	}
	if !rest.IsZero() {
		top = append(top, CategoryTotal{Name: OtherLabel, Value: rest})
	}
	return top
}

// FlowSummary totals a set of transactions
type FlowSummary struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// Summarize adds up income and expense
func Summarize(txs []domain.Transaction) FlowSummary {
	s := FlowSummary{Income: decimal.Zero, Expense: decimal.Zero}
	for _, tx := range txs {
		if tx.IsExpense() {
			s.Expense = s.Expense.Add(tx.Value)
		} else {
			s.Income = s.Income.Add(tx.Value)
		}
	}
	s.Net = s.Income.Sub(s.Expense)
	return s
}

// DefaultRecentTransactions is the list size used when n is not positive
const DefaultRecentTransactions = 15

// RecentTransactions returns the newest transactions, showing only the first
// installment of a card purchase
func RecentTransactions(txs []domain.Transaction, n int) []domain.Transaction {
	if n <= 0 {
		n = DefaultRecentTransactions
	}
	out := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if i, _, ok := domain.InstallmentIndex(tx.Description); ok && i != 1 {
			continue
		}
		out = append(out, tx)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
