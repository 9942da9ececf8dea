package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/dafibh/domo/domo-client/internal/cache"
	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/dafibh/domo/domo-client/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedBills(f *fixture) {
	f.seed(cache.KeyRecurringBills, []domain.RecurringBill{
		{ID: 1, Name: "Internet", BaseValue: dec("120"), DueDay: 20, CategoryID: ptr(int32(3))},
		{ID: 2, Name: "Aluguel", BaseValue: dec("1500"), DueDay: 5, IsPaidThisMonth: true},
	})
	f.seed(cache.KeyAccounts, []domain.Account{{ID: 1, Name: "Conta", Balance: dec("1000")}})
	f.seed(cache.KeyCategories, []domain.Category{{ID: 3, Name: "Casa", Type: domain.TransactionTypeExpense}})
	f.seed(cache.KeyTransactions, []domain.Transaction{})
}

func TestPayBill_DefaultsToBaseValue(t *testing.T) {
	f := setup(t)
	seedBills(f)
	svc := NewRecurringService(f.deps)

	h, err := svc.Pay(context.Background(), PayBillInput{BillID: 1, AccountID: 1})
	require.NoError(t, err)

	bills := cached[[]domain.RecurringBill](t, f, cache.KeyRecurringBills)
	assert.True(t, bills[0].IsPaidThisMonth)
	assertDec(t, "880", cached[[]domain.Account](t, f, cache.KeyAccounts)[0].Balance)

	txs := cached[[]domain.Transaction](t, f, cache.KeyTransactions)
	require.Len(t, txs, 1)
	assert.Equal(t, "Internet", txs[0].Description)
	assert.Equal(t, "Casa", txs[0].CategoryName)
	require.NotNil(t, txs[0].RecurringBillID)
	assert.Equal(t, int32(1), *txs[0].RecurringBillID)

	require.NoError(t, settle(t, h))
	call, _ := f.gw.LastCall()
	assert.Equal(t, http.MethodPost, call.Method)
	assert.Equal(t, "/transactions/", call.Path)
	var body map[string]any
	require.NoError(t, call.DecodeBody(&body))
	assert.EqualValues(t, 1, body["recurring_bill"])
	assert.Equal(t, "120", body["value"])
	assert.Equal(t, "2025-03-15", body["date"])
}

func TestPayBill_CustomValue(t *testing.T) {
	f := setup(t)
	seedBills(f)
	svc := NewRecurringService(f.deps)

	_, err := svc.Pay(context.Background(), PayBillInput{BillID: 1, AccountID: 1, Value: dec("99.90")})
	require.NoError(t, err)

	assertDec(t, "900.10", cached[[]domain.Account](t, f, cache.KeyAccounts)[0].Balance)
}

func TestPayBill_AlreadyPaid(t *testing.T) {
	f := setup(t)
	seedBills(f)
	svc := NewRecurringService(f.deps)

	_, err := svc.Pay(context.Background(), PayBillInput{BillID: 2, AccountID: 1})
	assertValidation(t, err, domain.ErrBillAlreadyPaid)
	assert.Equal(t, 0, f.gw.CallCount())
}

func TestPayBill_UnknownBill(t *testing.T) {
	f := setup(t)
	seedBills(f)
	svc := NewRecurringService(f.deps)

	_, err := svc.Pay(context.Background(), PayBillInput{BillID: 7, AccountID: 1})
	assert.ErrorIs(t, err, domain.ErrBillNotFound)
}

func TestPayBill_RejectedRestoresBillAndAccount(t *testing.T) {
	f := setup(t)
	seedBills(f)
	svc := NewRecurringService(f.deps)
	f.gw.Enqueue(nil, testutil.HTTPError(http.StatusBadRequest, "Saldo insuficiente"))

	h, err := svc.Pay(context.Background(), PayBillInput{BillID: 1, AccountID: 1})
	require.NoError(t, err)
	require.Error(t, settle(t, h))

	assert.False(t, cached[[]domain.RecurringBill](t, f, cache.KeyRecurringBills)[0].IsPaidThisMonth)
	assertDec(t, "1000", cached[[]domain.Account](t, f, cache.KeyAccounts)[0].Balance)
	assert.Empty(t, cached[[]domain.Transaction](t, f, cache.KeyTransactions))
}

func TestCreateBill_DueDayValidated(t *testing.T) {
	f := setup(t)
	seedBills(f)
	svc := NewRecurringService(f.deps)

	_, err := svc.Create(context.Background(), domain.RecurringBillInput{Name: "Luz", BaseValue: dec("80"), DueDay: 32})
	assertValidation(t, err, domain.ErrDayOutOfRange)

	h, err := svc.Create(context.Background(), domain.RecurringBillInput{Name: "Luz", BaseValue: dec("80"), DueDay: 31})
	require.NoError(t, err)
	require.NoError(t, settle(t, h))
	assert.Len(t, cached[[]domain.RecurringBill](t, f, cache.KeyRecurringBills), 3)
}

func TestUpdateAndDeleteBill(t *testing.T) {
	f := setup(t)
	seedBills(f)
	svc := NewRecurringService(f.deps)

	h, err := svc.Update(context.Background(), 1, domain.RecurringBillInput{Name: "Fibra", BaseValue: dec("130"), DueDay: 21})
	require.NoError(t, err)
	require.NoError(t, settle(t, h))
	bill := cached[[]domain.RecurringBill](t, f, cache.KeyRecurringBills)[0]
	assert.Equal(t, "Fibra", bill.Name)
	assertDec(t, "130", bill.BaseValue)

	h, err = svc.Delete(context.Background(), 2)
	require.NoError(t, err)
	require.NoError(t, settle(t, h))
	assert.Len(t, cached[[]domain.RecurringBill](t, f, cache.KeyRecurringBills), 1)
}
