package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func checkErr(t *testing.T, err, want error) {
	t.Helper()
	if want == nil {
		if err != nil {
			t.Errorf("got %v, want nil", err)
		}
		return
	}
	if !errors.Is(err, want) {
		t.Errorf("got %v, want %v", err, want)
	}
}

func TestAccountInputValidate(t *testing.T) {
	neg := d("-1")
	checkErr(t, AccountInput{Name: "Wallet"}.Validate(), nil)
	checkErr(t, AccountInput{Name: ""}.Validate(), ErrNameRequired)
	checkErr(t, AccountInput{Name: strings.Repeat("x", MaxNameLength+1)}.Validate(), ErrNameTooLong)
	checkErr(t, AccountInput{Name: "Wallet", Limit: &neg}.Validate(), ErrInvalidAmount)
}

func TestCreditCardInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		input   CreditCardInput
		wantErr error
	}{
		{"valid", CreditCardInput{Name: "Visa", LimitTotal: d("1000"), LimitAvailable: d("800"), ClosingDay: 5, DueDay: 15}, nil},
		{"available above total", CreditCardInput{Name: "Visa", LimitTotal: d("1000"), LimitAvailable: d("1001"), ClosingDay: 5, DueDay: 15}, ErrLimitExceedsTotal},
		{"negative total", CreditCardInput{Name: "Visa", LimitTotal: d("-1"), ClosingDay: 5, DueDay: 15}, ErrInvalidAmount},
		{"closing day", CreditCardInput{Name: "Visa", LimitTotal: d("1"), ClosingDay: 0, DueDay: 15}, ErrDayOutOfRange},
		{"due day", CreditCardInput{Name: "Visa", LimitTotal: d("1"), ClosingDay: 5, DueDay: 40}, ErrDayOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt.input.Validate(), tt.wantErr)
		})
	}
}

func TestProductInputValidate(t *testing.T) {
	checkErr(t, ProductInput{Name: "Rice", MeasureUnit: UnitKilo}.Validate(), nil)
	checkErr(t, ProductInput{Name: "Rice", MeasureUnit: "ton"}.Validate(), ErrInvalidUnit)
	checkErr(t, ProductInput{Name: "Rice", MeasureUnit: UnitKilo, EstimatedPrice: d("-2")}.Validate(), ErrInvalidAmount)
	checkErr(t, ProductInput{Name: "Rice", MeasureUnit: UnitKilo, MinQuantity: d("-2")}.Validate(), ErrNegativeQuantity)
}

func TestInventoryInputValidate(t *testing.T) {
	checkErr(t, InventoryInput{ProductID: 1, Quantity: d("2")}.Validate(), nil)
	checkErr(t, InventoryInput{Quantity: d("2")}.Validate(), ErrProductNotFound)
	checkErr(t, InventoryInput{ProductID: 1, Quantity: d("-1")}.Validate(), ErrNegativeQuantity)
}

func TestCategoryInputValidate(t *testing.T) {
	checkErr(t, CategoryInput{Name: "Food", Type: TransactionTypeExpense}.Validate(), nil)
	checkErr(t, CategoryInput{Name: "Food", Type: "OTHER"}.Validate(), ErrInvalidType)
}

func TestShoppingValidation(t *testing.T) {
	id := int32(3)
	checkErr(t, ShoppingItemInput{ProductID: &id, Quantity: d("1")}.Validate(), nil)
	checkErr(t, ShoppingItemInput{NewProductName: "Coffee", Quantity: d("1")}.Validate(), nil)
	checkErr(t, ShoppingItemInput{NewProductName: " ", Quantity: d("1")}.Validate(), ErrProductNotFound)
	checkErr(t, ShoppingItemInput{ProductID: &id, Quantity: d("0")}.Validate(), ErrValueNotPositive)

	neg := d("-1")
	checkErr(t, ShoppingItemPatch{RealUnitPrice: &neg}.Validate(), ErrInvalidAmount)

	bought := true
	price := d("4.5")
	item := ShoppingItemPatch{IsPurchased: &bought, RealUnitPrice: &price}.Apply(ShoppingListItem{ID: 1, QuantityToBuy: d("2")})
	if !item.IsPurchased || !item.RealUnitPrice.Equal(price) || !item.QuantityToBuy.Equal(d("2")) {
		t.Errorf("Apply() = %+v", item)
	}
}

func TestValidateEmail(t *testing.T) {
	checkErr(t, ValidateEmail("ana@example.com"), nil)
	checkErr(t, ValidateEmail("ana"), ErrInvalidEmail)
}

func TestNewPaymentSource(t *testing.T) {
	src, err := NewPaymentSource(PaymentMethodCreditCard, 2, d("30"), 3)
	if err != nil {
		t.Fatal(err)
	}
	card, ok := src.(CardPayment)
	if !ok || card.InstallmentCount() != 3 || card.SourceID() != 2 {
		t.Errorf("NewPaymentSource() = %#v", src)
	}

	src, err = NewPaymentSource(PaymentMethodAccount, 1, d("30"), 3)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := src.(AccountPayment); !ok {
		t.Errorf("account method built %T", src)
	}

	if _, err := NewPaymentSource("PIX", 1, d("1"), 0); !errors.Is(err, ErrInvalidMethod) {
		t.Errorf("unknown method error = %v", err)
	}
	if _, err := NewPaymentSource(PaymentMethodAccount, 0, d("1"), 0); !errors.Is(err, ErrSourceRequired) {
		t.Errorf("missing source error = %v", err)
	}

	moved := WithAmount(AccountPayment{AccountID: 1, Value: d("1")}, d("7"))
	if !moved.Amount().Equal(d("7")) {
		t.Errorf("WithAmount() = %s", moved.Amount())
	}
}

func TestValidationErrorMessage(t *testing.T) {
	v := &ValidationError{}
	if v.OrNil() != nil {
		t.Error("empty ValidationError should be nil")
	}
	v.Add("name", ErrNameRequired)
	v.Add("due_day", ErrDayOutOfRange)
	want := "validation failed: name: name is required; due_day: day must be between 1 and 31"
	if v.Error() != want {
		t.Errorf("Error() = %q", v.Error())
	}
}
