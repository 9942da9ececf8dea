package aggregate

import (
	"time"

	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/dafibh/domo/domo-client/internal/util"
	"github.com/shopspring/decimal"
)

// InvoiceStatusFor derives the displayed status of a card's current invoice.
// PAID comes only from the server. Otherwise the invoice reads CLOSED from the
// closing day on, unless its reference month is still ahead of today.
func InvoiceStatusFor(card domain.CreditCard, today time.Time) domain.InvoiceStatus {
	inv := card.InvoiceInfo
	if inv != nil && inv.Status == domain.InvoicePaid {
		return domain.InvoicePaid
	}
	if today.Day() >= card.ClosingDay && !referenceInFuture(inv, today) {
		return domain.InvoiceClosed
	}
	return domain.InvoiceOpen
}

func referenceInFuture(inv *domain.InvoiceInfo, today time.Time) bool {
	if inv == nil || inv.ReferenceDate.IsZero() {
		return false
	}
	return util.MonthAfter(inv.ReferenceDate.Time, today)
}

// InvoiceView is the current invoice of a card as the dashboard shows it
type InvoiceView struct {
	CardID       int32                `json:"cardId"`
	CardName     string               `json:"cardName"`
	InvoiceID    int32                `json:"invoiceId,omitempty"`
	Value        decimal.Decimal      `json:"value"`
	AmountPaid   decimal.Decimal      `json:"amountPaid"`
	Outstanding  decimal.Decimal      `json:"outstanding"`
	Status       domain.InvoiceStatus `json:"status"`
	ServerStatus domain.InvoiceStatus `json:"serverStatus"`
	// Diverges is set while the locally derived status disagrees with the
	// server, typically between the closing day and the server's own close.
	Diverges  bool            `json:"diverges"`
	DueDate   domain.Date     `json:"dueDate"`
	CanPay    bool            `json:"canPay"`
	Available decimal.Decimal `json:"availablePercent"`
}

// InvoiceDetail builds the InvoiceView of card
func InvoiceDetail(card domain.CreditCard, today time.Time) InvoiceView {
	v := InvoiceView{
		CardID:       card.ID,
		CardName:     card.Name,
		Value:        decimal.Zero,
		AmountPaid:   decimal.Zero,
		Outstanding:  decimal.Zero,
		Status:       InvoiceStatusFor(card, today),
		ServerStatus: domain.InvoiceOpen,
		DueDate:      InvoiceDueDate(card, today),
		Available:    CardAvailablePercent(card),
	}
	if inv := card.InvoiceInfo; inv != nil {
		v.InvoiceID = inv.ID
		v.Value = inv.Value
		v.AmountPaid = inv.AmountPaid
		v.Outstanding = inv.Outstanding()
		if inv.Status != "" {
			v.ServerStatus = inv.Status
		}
	}
	v.Diverges = v.Status != v.ServerStatus
	v.CanPay = canPay(card, v.Status)
	return v
}

// CanPayInvoice reports whether the pay-invoice action is offered: only for a
// CLOSED invoice with something left to pay
func CanPayInvoice(card domain.CreditCard, today time.Time) bool {
	return canPay(card, InvoiceStatusFor(card, today))
}

func canPay(card domain.CreditCard, status domain.InvoiceStatus) bool {
	return status == domain.InvoiceClosed &&
		card.InvoiceInfo != nil &&
		card.InvoiceInfo.ID != 0 &&
		card.InvoiceInfo.Outstanding().IsPositive()
}

// InvoiceDueDate is the due date of the card's current invoice. Invoices are
// due in their reference month, or the month after when the due day is not
// after the closing day.
func InvoiceDueDate(card domain.CreditCard, today time.Time) domain.Date {
	inv := card.InvoiceInfo
	if inv == nil || inv.ReferenceDate.IsZero() {
		return domain.Date{Time: util.NextOccurrence(today, card.DueDay)}
	}
	ref := inv.ReferenceDate.Time
	due := util.CalculateActualDate(ref.Year(), ref.Month(), card.DueDay)
	if card.DueDay <= card.ClosingDay {
		next := util.AddMonths(util.MonthStart(ref), 1)
		due = util.CalculateActualDate(next.Year(), next.Month(), card.DueDay)
	}
	return domain.Date{Time: due}
}

var hundred = decimal.NewFromInt(100)

// CardAvailablePercent is the share of the limit still available, 0 to 100
func CardAvailablePercent(card domain.CreditCard) decimal.Decimal {
	if !card.LimitTotal.IsPositive() {
		return decimal.Zero
	}
	pct := card.LimitAvailable.Div(card.LimitTotal).Mul(hundred).Round(1)
	return domain.Clamp(pct, decimal.Zero, hundred)
}
