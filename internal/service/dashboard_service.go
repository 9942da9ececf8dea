package service

import (
	"context"

	"github.com/dafibh/domo/domo-client/internal/aggregate"
	"github.com/dafibh/domo/domo-client/internal/cache"
	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// DashboardSummary is everything the home screen shows
type DashboardSummary struct {
	TotalBalance       decimal.Decimal           `json:"totalBalance"`
	Forecast           aggregate.ForecastDetail  `json:"forecast"`
	FreeBalance        decimal.Decimal           `json:"freeBalance"`
	Accounts           []domain.Account          `json:"accounts"`
	Invoices           []aggregate.InvoiceView   `json:"invoices"`
	Bills              []domain.RecurringBill    `json:"bills"`
	RecentTransactions []domain.Transaction      `json:"recentTransactions"`
	TopCategories      []aggregate.CategoryTotal `json:"topCategories"`
	Month              aggregate.FlowSummary     `json:"month"`
}

// ChartData feeds the cash-flow and category charts
type ChartData struct {
	Granularity   aggregate.Granularity     `json:"granularity"`
	Flow          []aggregate.PeriodBucket  `json:"flow"`
	TopCategories []aggregate.CategoryTotal `json:"topCategories"`
	Summary       aggregate.FlowSummary     `json:"summary"`
}

// ShoppingOverview is the shopping screen: list totals and what is running low
type ShoppingOverview struct {
	Summary aggregate.ShoppingSummary `json:"summary"`
	Restock []aggregate.Restock       `json:"restock"`
}

// DashboardService composes cached lists into the derived views
type DashboardService struct {
	deps Deps
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(deps Deps) *DashboardService {
	return &DashboardService{deps: deps}
}

type financeLists struct {
	accounts []domain.Account
	cards    []domain.CreditCard
	bills    []domain.RecurringBill
	txs      []domain.Transaction
}

// load reads the finance lists in parallel; each key fetches at most once
func (s *DashboardService) load(ctx context.Context) (financeLists, error) {
	var l financeLists
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		l.accounts, err = readList[domain.Account](ctx, s.deps.Store, cache.KeyAccounts)
		return err
	})
	g.Go(func() (err error) {
		l.cards, err = readList[domain.CreditCard](ctx, s.deps.Store, cache.KeyCreditCards)
		return err
	})
	g.Go(func() (err error) {
		l.bills, err = readList[domain.RecurringBill](ctx, s.deps.Store, cache.KeyRecurringBills)
		return err
	})
	g.Go(func() (err error) {
		l.txs, err = readList[domain.Transaction](ctx, s.deps.Store, cache.KeyTransactions)
		return err
	})
	if err := g.Wait(); err != nil {
		return financeLists{}, err
	}
	return l, nil
}

// Summary builds the dashboard from the cache
func (s *DashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	l, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	now := s.deps.now()

	invoices := make([]aggregate.InvoiceView, 0, len(l.cards))
	for _, c := range l.cards {
		invoices = append(invoices, aggregate.InvoiceDetail(c, now))
	}
	monthTxs := aggregate.InPeriod(l.txs, aggregate.Day, now)

	return &DashboardSummary{
		TotalBalance:       aggregate.TotalBalance(l.accounts),
		Forecast:           aggregate.Forecast(l.cards, l.bills, now),
		FreeBalance:        aggregate.FreeBalance(l.accounts, l.cards, l.bills, now),
		Accounts:           l.accounts,
		Invoices:           invoices,
		Bills:              l.bills,
		RecentTransactions: aggregate.RecentTransactions(l.txs, aggregate.DefaultRecentTransactions),
		TopCategories:      aggregate.TopCategories(monthTxs, aggregate.DefaultTopCategories),
		Month:              aggregate.Summarize(monthTxs),
	}, nil
}

// Charts groups the transactions of the current month (by day) or year (by
// month)
func (s *DashboardService) Charts(ctx context.Context, g aggregate.Granularity) (*ChartData, error) {
	txs, err := readList[domain.Transaction](ctx, s.deps.Store, cache.KeyTransactions)
	if err != nil {
		return nil, err
	}
	period := aggregate.InPeriod(txs, g, s.deps.now())
	return &ChartData{
		Granularity:   g,
		Flow:          aggregate.GroupByPeriod(period, g),
		TopCategories: aggregate.TopCategories(period, aggregate.DefaultTopCategories),
		Summary:       aggregate.Summarize(period),
	}, nil
}

// Invoice returns the current invoice view of one card
func (s *DashboardService) Invoice(ctx context.Context, cardID int32) (*aggregate.InvoiceView, error) {
	cards, err := readList[domain.CreditCard](ctx, s.deps.Store, cache.KeyCreditCards)
	if err != nil {
		return nil, err
	}
	card, ok := domain.FindCard(cards, cardID)
	if !ok {
		return nil, domain.ErrCardNotFound
	}
	view := aggregate.InvoiceDetail(card, s.deps.now())
	return &view, nil
}

// Shopping returns the list totals and the restock suggestions
func (s *DashboardService) Shopping(ctx context.Context) (*ShoppingOverview, error) {
	var items []domain.ShoppingListItem
	var stock []domain.InventoryItem
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		items, err = readList[domain.ShoppingListItem](gctx, s.deps.Store, cache.KeyShoppingList)
		return err
	})
	g.Go(func() (err error) {
		stock, err = readList[domain.InventoryItem](gctx, s.deps.Store, cache.KeyInventory)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &ShoppingOverview{
		Summary: aggregate.ShoppingTotals(items),
		Restock: aggregate.RestockSuggestions(stock),
	}, nil
}
