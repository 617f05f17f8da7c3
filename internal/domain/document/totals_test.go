package document

import (
	"testing"

	"github.com/erp/books/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioLines() []LineItem {
	return []LineItem{
		{Description: "Consulting", Quantity: decimal.NewFromInt(2), Rate: decimal.RequireFromString("150.00"), Taxable: true},
		{Description: "License", Quantity: decimal.NewFromInt(1), Rate: decimal.RequireFromString("299.00"), Taxable: true},
	}
}

func TestComputeTotals_Scenario(t *testing.T) {
	totals := ComputeTotals(scenarioLines(), decimal.RequireFromString("0.08")).Rounded()

	assert.Equal(t, "599.00", totals.Subtotal.StringFixed(2))
	assert.Equal(t, "47.92", totals.Tax.StringFixed(2))
	assert.Equal(t, "646.92", totals.Total.StringFixed(2))
}

func TestComputeTotals_OnlyTaxableLinesAreTaxed(t *testing.T) {
	lines := scenarioLines()
	lines[1].Taxable = false

	totals := ComputeTotals(lines, decimal.RequireFromString("0.08"))
	assert.True(t, totals.TaxableSubtotal.Equal(decimal.NewFromInt(300)))
	assert.True(t, totals.Tax.Equal(decimal.NewFromInt(24)))
	assert.True(t, totals.Total.Equal(decimal.NewFromInt(623)))
}

func TestComputeTotals_NoIntermediateRounding(t *testing.T) {
	lines := make([]LineItem, 3)
	for i := range lines {
		lines[i] = LineItem{Quantity: decimal.NewFromInt(1), Rate: decimal.RequireFromString("0.333")}
	}
	totals := ComputeTotals(lines, decimal.Zero)
	assert.Equal(t, "0.999", totals.Subtotal.String())
	assert.Equal(t, "1.00", totals.Rounded().Subtotal.StringFixed(2))
}

func TestComputeTotals_Empty(t *testing.T) {
	totals := ComputeTotals(nil, decimal.RequireFromString("0.08"))
	assert.True(t, totals.Total.IsZero())
}

func TestTotals_TotalMoney(t *testing.T) {
	totals := ComputeTotals(scenarioLines(), decimal.RequireFromString("0.08"))
	assert.Equal(t, "646.92 USD", totals.TotalMoney(valueobject.USD).String())
}

func TestFixedTaxPolicy(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		p, err := NewFixedTaxPolicy(nil)
		require.NoError(t, err)

		rate, err := p.RateFor(TypeEstimate)
		require.NoError(t, err)
		assert.True(t, rate.Equal(decimal.RequireFromString("0.08")))

		rate, err = p.RateFor(TypeCreditMemo)
		require.NoError(t, err)
		assert.True(t, rate.Equal(decimal.RequireFromString("0.0825")))

		_, err = p.RateFor(TypePurchase)
		assert.Error(t, err)
	})

	t.Run("overrides", func(t *testing.T) {
		p, err := NewFixedTaxPolicy(map[Type]decimal.Decimal{TypeInvoice: decimal.RequireFromString("0.05")})
		require.NoError(t, err)

		totals, err := Compute(p, TypeInvoice, scenarioLines())
		require.NoError(t, err)
		assert.Equal(t, "628.95", totals.Rounded().Total.StringFixed(2))
	})

	t.Run("rejects out of range", func(t *testing.T) {
		_, err := NewFixedTaxPolicy(map[Type]decimal.Decimal{TypeInvoice: decimal.NewFromInt(8)})
		assert.Error(t, err)
	})
}
