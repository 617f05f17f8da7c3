package valueobject

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is an ISO 4217 code
type Currency string

const (
	USD Currency = "USD"
	CAD Currency = "CAD"
	EUR Currency = "EUR"
	GBP Currency = "GBP"
)

// DefaultCurrency applies to amounts the backend sends without a currency
const DefaultCurrency = USD

// DisplayPlaces is how many decimals an amount keeps once shown. Sums are
// carried at full precision until then.
const DisplayPlaces int32 = 2

// Valid reports whether c looks like an ISO 4217 code
func (c Currency) Valid() bool {
	if len(c) != 3 {
		return false
	}
	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// Money is an amount in one currency. The zero value is not usable.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney pairs an amount with a currency code
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if !currency.Valid() {
		return Money{}, fmt.Errorf("invalid currency %q", currency)
	}
	return Money{amount: amount, currency: currency}, nil
}

// ParseMoney reads a decimal string such as "646.92"
func ParseMoney(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return NewMoney(d, currency)
}

// USDollars is NewMoney for the default currency, which cannot fail
func USDollars(amount decimal.Decimal) Money {
	return Money{amount: amount, currency: USD}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }
func (m Money) IsNegative() bool        { return m.amount.IsNegative() }

// Plus adds amounts of the same currency
func (m Money) Plus(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("currency mismatch: %s + %s", m.currency, other.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Sum totals amounts that all share currency. An empty list sums to zero.
func Sum(currency Currency, amounts ...Money) (Money, error) {
	total := Money{amount: decimal.Zero, currency: currency}
	for _, a := range amounts {
		var err error
		if total, err = total.Plus(a); err != nil {
			return Money{}, err
		}
	}
	return total, nil
}

// Times scales the amount, e.g. a unit cost by a quantity
func (m Money) Times(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor), currency: m.currency}
}

// Display rounds half away from zero to DisplayPlaces
func (m Money) Display() Money {
	return Money{amount: m.amount.Round(DisplayPlaces), currency: m.currency}
}

// Equal compares amount and currency
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

func (m Money) String() string {
	return m.amount.StringFixed(DisplayPlaces) + " " + string(m.currency)
}

type moneyJSON struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Currency        `json:"currency,omitempty"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount, Currency: m.currency})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var v moneyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.Currency == "" {
		v.Currency = DefaultCurrency
	}
	if !v.Currency.Valid() {
		return fmt.Errorf("invalid currency %q", v.Currency)
	}
	m.amount, m.currency = v.Amount, v.Currency
	return nil
}
