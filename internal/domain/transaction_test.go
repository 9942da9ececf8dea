package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSplitInstallments(t *testing.T) {
	tests := []struct {
		name  string
		total string
		n     int
		want  []string
	}{
		{"even split", "300", 3, []string{"100", "100", "100"}},
		{"first absorbs remainder", "100", 3, []string{"33.34", "33.33", "33.33"}},
		{"single installment", "59.90", 1, []string{"59.90"}},
		{"zero treated as one", "10", 0, []string{"10"}},
		{"cents", "0.05", 2, []string{"0.02", "0.03"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := decimal.RequireFromString(tt.total)
			got := SplitInstallments(total, tt.n)
			if len(got) != len(tt.want) {
				t.Fatalf("SplitInstallments(%s, %d) returned %d parts, want %d", tt.total, tt.n, len(got), len(tt.want))
			}
			sum := decimal.Zero
			for i, part := range got {
				sum = sum.Add(part)
				if !part.Equal(decimal.RequireFromString(tt.want[i])) {
					t.Errorf("part %d = %s, want %s", i, part, tt.want[i])
				}
			}
			if !sum.Equal(total) {
				t.Errorf("parts add up to %s, want %s", sum, total)
			}
		})
	}
}

func TestInvoiceReferenceDate(t *testing.T) {
	tests := []struct {
		name        string
		purchase    string
		closingDay  int
		installment int
		want        string
	}{
		{"before closing", "2026-05-05", 10, 0, "2026-05-01"},
		{"on closing day rolls over", "2026-05-10", 10, 0, "2026-06-01"},
		{"second installment", "2026-05-05", 10, 1, "2026-06-01"},
		{"year boundary", "2026-12-20", 10, 0, "2027-01-01"},
		{"short month clamp", "2026-01-31", 29, 1, "2026-02-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InvoiceReferenceDate(MustDate(tt.purchase), tt.closingDay, tt.installment)
			if got.String() != tt.want {
				t.Errorf("InvoiceReferenceDate(%s, %d, %d) = %s, want %s",
					tt.purchase, tt.closingDay, tt.installment, got, tt.want)
			}
		})
	}
}

func TestInstallmentDescription(t *testing.T) {
	if got := InstallmentDescription("TV", 0, 3); got != "TV (1/3)" {
		t.Errorf("got %q", got)
	}
	if got := InstallmentDescription("TV", 0, 1); got != "TV" {
		t.Errorf("single installment should keep the description, got %q", got)
	}

	i, n, ok := InstallmentIndex("TV (2/10)")
	if !ok || i != 2 || n != 10 {
		t.Errorf("InstallmentIndex = %d, %d, %v", i, n, ok)
	}
	if _, _, ok := InstallmentIndex("Market"); ok {
		t.Error("plain description should carry no marker")
	}
}

func TestTransactionInputValidate(t *testing.T) {
	valid := TransactionInput{
		Description: "Market",
		Type:        TransactionTypeExpense,
		Date:        MustDate("2026-05-01"),
		Payment:     AccountPayment{AccountID: 1, Value: decimal.NewFromInt(10)},
	}

	tests := []struct {
		name    string
		mutate  func(*TransactionInput)
		wantErr error
	}{
		{"valid", func(*TransactionInput) {}, nil},
		{"missing description", func(in *TransactionInput) { in.Description = "" }, ErrNameRequired},
		{"bad type", func(in *TransactionInput) { in.Type = "GIFT" }, ErrInvalidType},
		{"missing date", func(in *TransactionInput) { in.Date = Date{} }, ErrInvalidInput},
		{"no payment", func(in *TransactionInput) { in.Payment = nil }, ErrSourceRequired},
		{"zero value", func(in *TransactionInput) {
			in.Payment = AccountPayment{AccountID: 1, Value: decimal.Zero}
		}, ErrValueNotPositive},
		{"card income", func(in *TransactionInput) {
			in.Type = TransactionTypeIncome
			in.Payment = CardPayment{CardID: 2, Value: decimal.NewFromInt(10)}
		}, ErrInvalidMethod},
		{"too many installments", func(in *TransactionInput) {
			in.Payment = CardPayment{CardID: 2, Value: decimal.NewFromInt(10), Installments: MaxInstallments + 1}
		}, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)
			err := in.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
