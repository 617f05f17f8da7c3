package partner

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// VendorStatus represents whether a vendor can be used on new documents
type VendorStatus string

const (
	VendorStatusActive   VendorStatus = "active"
	VendorStatusInactive VendorStatus = "inactive"
)

// IsValid checks if the status is a valid VendorStatus
func (s VendorStatus) IsValid() bool {
	return s == VendorStatusActive || s == VendorStatusInactive
}

// Address is a postal address
type Address struct {
	Line1      string `json:"line1,omitempty" yaml:"line1,omitempty"`
	Line2      string `json:"line2,omitempty" yaml:"line2,omitempty"`
	City       string `json:"city,omitempty" yaml:"city,omitempty"`
	State      string `json:"state,omitempty" yaml:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty" yaml:"postal_code,omitempty"`
	Country    string `json:"country,omitempty" yaml:"country,omitempty"`
}

// String formats the address on one line, skipping empty parts
func (a Address) String() string {
	var parts []string
	for _, p := range []string{a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Vendor is a supplier as returned by the backend
type Vendor struct {
	ID          string          `json:"id" validate:"required"`
	Name        string          `json:"name" validate:"required"`
	CompanyName string          `json:"company_name,omitempty"`
	Email       string          `json:"email,omitempty"`
	Phone       string          `json:"phone,omitempty"`
	TaxID       string          `json:"tax_id,omitempty"`
	Terms       string          `json:"payment_terms,omitempty"`
	Address     Address         `json:"address"`
	Balance     decimal.Decimal `json:"balance"`
	Status      VendorStatus    `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
}

// DisplayName prefers the company name when the vendor has one
func (v Vendor) DisplayName() string {
	if v.CompanyName != "" {
		return v.CompanyName
	}
	return v.Name
}

// IsActive reports whether the vendor is active. Records without a status are
// treated as active.
func (v Vendor) IsActive() bool {
	return v.Status != VendorStatusInactive
}

// VendorInput is the vendor form payload
type VendorInput struct {
	Name        string       `json:"name" validate:"required,max=200"`
	CompanyName string       `json:"company_name,omitempty" validate:"max=200"`
	Email       string       `json:"email,omitempty" validate:"omitempty,email"`
	Phone       string       `json:"phone,omitempty" validate:"max=50"`
	TaxID       string       `json:"tax_id,omitempty" validate:"max=50"`
	Terms       string       `json:"payment_terms,omitempty"`
	Address     Address      `json:"address"`
	Status      VendorStatus `json:"status,omitempty" validate:"omitempty,oneof=active inactive"`
}

// Normalize trims whitespace from the free-text fields
func (in VendorInput) Normalize() VendorInput {
	in.Name = strings.TrimSpace(in.Name)
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	return in
}

// InputFrom builds an edit form from an existing vendor
func InputFrom(v Vendor) VendorInput {
	return VendorInput{
		Name:        v.Name,
		CompanyName: v.CompanyName,
		Email:       v.Email,
		Phone:       v.Phone,
		TaxID:       v.TaxID,
		Terms:       v.Terms,
		Address:     v.Address,
		Status:      v.Status,
	}
}
