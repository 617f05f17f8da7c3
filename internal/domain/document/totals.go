package document

import (
	"github.com/erp/books/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Type identifies a customer-facing document kind
type Type string

const (
	TypeEstimate   Type = "estimate"
	TypeCreditMemo Type = "credit_memo"
	TypeInvoice    Type = "invoice"
	TypePurchase   Type = "purchase_order"
)

// IsValid checks if the type is a known document type
func (t Type) IsValid() bool {
	switch t {
	case TypeEstimate, TypeCreditMemo, TypeInvoice, TypePurchase:
		return true
	}
	return false
}

// LineItem is a priced line on a document
type LineItem struct {
	Description string          `json:"description" yaml:"description"`
	Quantity    decimal.Decimal `json:"quantity" yaml:"quantity"`
	Rate        decimal.Decimal `json:"rate" yaml:"rate"`
	Taxable     bool            `json:"taxable" yaml:"taxable"`
}

// Amount returns quantity times rate, unrounded
func (l LineItem) Amount() decimal.Decimal {
	return l.Quantity.Mul(l.Rate)
}

// Totals holds the computed figures of a document at full precision
type Totals struct {
	Subtotal        decimal.Decimal
	TaxableSubtotal decimal.Decimal
	TaxRate         decimal.Decimal
	Tax             decimal.Decimal
	Total           decimal.Decimal
}

// ComputeTotals sums lines and applies the tax rate to the taxable part.
// Nothing is rounded here; use Rounded for display.
func ComputeTotals(lines []LineItem, rate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	taxable := decimal.Zero
	for _, l := range lines {
		amount := l.Amount()
		subtotal = subtotal.Add(amount)
		if l.Taxable {
			taxable = taxable.Add(amount)
		}
	}
	tax := taxable.Mul(rate)
	return Totals{
		Subtotal:        subtotal,
		TaxableSubtotal: taxable,
		TaxRate:         rate,
		Tax:             tax,
		Total:           subtotal.Add(tax),
	}
}

// Rounded returns the totals rounded to display precision
func (t Totals) Rounded() Totals {
	return Totals{
		Subtotal:        t.Subtotal.Round(valueobject.DisplayPlaces),
		TaxableSubtotal: t.TaxableSubtotal.Round(valueobject.DisplayPlaces),
		TaxRate:         t.TaxRate,
		Tax:             t.Tax.Round(valueobject.DisplayPlaces),
		Total:           t.Total.Round(valueobject.DisplayPlaces),
	}
}

// TotalMoney returns the grand total as Money in the given currency
func (t Totals) TotalMoney(currency valueobject.Currency) valueobject.Money {
	m, err := valueobject.NewMoney(t.Total, currency)
	if err != nil {
		return valueobject.USDollars(t.Total)
	}
	return m
}
