package company

import (
	"github.com/erp/books/internal/domain/partner"
	"github.com/erp/books/internal/domain/shared/valueobject"
)

// Settings is the company profile and preferences
type Settings struct {
	ID              string               `json:"id" validate:"required"`
	Name            string               `json:"company_name" validate:"required"`
	LegalName       string               `json:"legal_name,omitempty"`
	Email           string               `json:"email,omitempty"`
	Phone           string               `json:"phone,omitempty"`
	Website         string               `json:"website,omitempty"`
	TaxID           string               `json:"tax_id,omitempty"`
	Address         partner.Address      `json:"address"`
	Currency        valueobject.Currency `json:"currency"`
	FiscalYearStart int                  `json:"fiscal_year_start_month" validate:"omitempty,min=1,max=12"`
	DefaultTerms    string               `json:"default_payment_terms,omitempty"`
	InventoryMethod string               `json:"inventory_valuation_method,omitempty" validate:"omitempty,oneof=fifo lifo average"`
}

// CurrencyOrDefault returns the configured currency, or the system default
func (s Settings) CurrencyOrDefault() valueobject.Currency {
	if s.Currency == "" {
		return valueobject.DefaultCurrency
	}
	return s.Currency
}
