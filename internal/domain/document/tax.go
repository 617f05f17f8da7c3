package document

import (
	"fmt"

	"github.com/erp/books/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TaxPolicy resolves the tax rate applied to a document type
type TaxPolicy interface {
	RateFor(docType Type) (decimal.Decimal, error)
}

// DefaultRates are the rates used when configuration sets none
var DefaultRates = map[Type]decimal.Decimal{
	TypeEstimate:   decimal.RequireFromString("0.08"),
	TypeCreditMemo: decimal.RequireFromString("0.0825"),
	TypeInvoice:    decimal.RequireFromString("0.08"),
}

// FixedTaxPolicy applies one configured rate per document type
type FixedTaxPolicy struct {
	rates map[Type]decimal.Decimal
}

// NewFixedTaxPolicy creates a policy from the given rates, falling back to
// DefaultRates for any type not listed. Rates must be between 0 and 1.
func NewFixedTaxPolicy(rates map[Type]decimal.Decimal) (*FixedTaxPolicy, error) {
	merged := make(map[Type]decimal.Decimal, len(DefaultRates)+len(rates))
	for t, r := range DefaultRates {
		merged[t] = r
	}
	for t, r := range rates {
		if r.IsNegative() || r.GreaterThan(decimal.NewFromInt(1)) {
			return nil, shared.NewDomainError("INVALID_TAX_RATE", fmt.Sprintf("tax rate for %s must be between 0 and 1, got %s", t, r))
		}
		merged[t] = r
	}
	return &FixedTaxPolicy{rates: merged}, nil
}

// RateFor implements TaxPolicy
func (p *FixedTaxPolicy) RateFor(docType Type) (decimal.Decimal, error) {
	rate, ok := p.rates[docType]
	if !ok {
		return decimal.Zero, shared.NewDomainError("NO_TAX_RATE", fmt.Sprintf("no tax rate configured for %s", docType))
	}
	return rate, nil
}

// Compute resolves the rate for docType through the policy and computes totals
func Compute(policy TaxPolicy, docType Type, lines []LineItem) (Totals, error) {
	rate, err := policy.RateFor(docType)
	if err != nil {
		return Totals{}, err
	}
	return ComputeTotals(lines, rate), nil
}
