package api

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the date format the backend expects in query strings
const DateLayout = "2006-01-02"

// Query builds a query string that omits every unset filter. Nothing is
// clamped or rewritten: page_size goes out exactly as given.
type Query struct {
	values url.Values
}

// NewQuery creates an empty query
func NewQuery() *Query {
	return &Query{values: url.Values{}}
}

// Set adds a string parameter unless it is blank
func (q *Query) Set(key, value string) *Query {
	if strings.TrimSpace(value) != "" {
		q.values.Set(key, value)
	}
	return q
}

// SetInt adds an integer parameter unless it is zero
func (q *Query) SetInt(key string, value int) *Query {
	if value != 0 {
		q.values.Set(key, strconv.Itoa(value))
	}
	return q
}

// SetBool adds a boolean parameter when it is set
func (q *Query) SetBool(key string, value *bool) *Query {
	if value != nil {
		q.values.Set(key, strconv.FormatBool(*value))
	}
	return q
}

// SetDate adds a date parameter when it is set
func (q *Query) SetDate(key string, value *time.Time) *Query {
	if value != nil && !value.IsZero() {
		q.values.Set(key, value.Format(DateLayout))
	}
	return q
}

// SetDecimal adds a numeric parameter when it is set
func (q *Query) SetDecimal(key string, value *decimal.Decimal) *Query {
	if value != nil {
		q.values.Set(key, value.String())
	}
	return q
}

// Get returns the value stored for key
func (q *Query) Get(key string) string {
	return q.values.Get(key)
}

// Has reports whether key is present
func (q *Query) Has(key string) bool {
	return q.values.Has(key)
}

// Encode returns the URL-encoded query, keys sorted
func (q *Query) Encode() string {
	return q.values.Encode()
}

// ListParams are the paging and sorting parameters shared by list endpoints
type ListParams struct {
	Search    string
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

func (p ListParams) apply(q *Query) *Query {
	return q.Set("search", p.Search).
		Set("sort_by", p.SortBy).
		Set("sort_order", p.SortOrder).
		SetInt("page", p.Page).
		SetInt("page_size", p.PageSize)
}

// VendorParams filters the vendor list
type VendorParams struct {
	ListParams
	Status string
}

// Query builds the query string
func (p VendorParams) Query() *Query {
	return p.apply(NewQuery()).Set("status", p.Status)
}

// BillParams filters the bill list
type BillParams struct {
	ListParams
	VendorID  string
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	IsPosted  *bool
}

// Query builds the query string
func (p BillParams) Query() *Query {
	return p.apply(NewQuery()).
		Set("vendor_id", p.VendorID).
		Set("status", p.Status).
		SetDate("start_date", p.StartDate).
		SetDate("end_date", p.EndDate).
		SetDecimal("min_amount", p.MinAmount).
		SetDecimal("max_amount", p.MaxAmount).
		SetBool("is_posted", p.IsPosted)
}

// ItemParams filters item lists
type ItemParams struct {
	ListParams
	Category   string
	Status     string
	LocationID string
	VendorID   string
}

// Query builds the query string
func (p ItemParams) Query() *Query {
	return p.apply(NewQuery()).
		Set("category", p.Category).
		Set("status", p.Status).
		Set("location_id", p.LocationID).
		Set("vendor_id", p.VendorID)
}

// OrderParams filters the purchase order list
type OrderParams struct {
	ListParams
	VendorID string
	Status   string
	DateFrom *time.Time
	DateTo   *time.Time
}

// Query builds the query string
func (p OrderParams) Query() *Query {
	return p.apply(NewQuery()).
		Set("vendor_id", p.VendorID).
		Set("status", p.Status).
		SetDate("date_from", p.DateFrom).
		SetDate("date_to", p.DateTo)
}

// TransactionParams filters the inventory ledger
type TransactionParams struct {
	ListParams
	ItemID    string
	Type      string
	StartDate *time.Time
	EndDate   *time.Time
}

// Query builds the query string
func (p TransactionParams) Query() *Query {
	return p.apply(NewQuery()).
		Set("item_id", p.ItemID).
		Set("type", p.Type).
		SetDate("start_date", p.StartDate).
		SetDate("end_date", p.EndDate)
}

// TemplateParams filters the template list
type TemplateParams struct {
	ListParams
	Type string
}

// Query builds the query string
func (p TemplateParams) Query() *Query {
	return p.apply(NewQuery()).Set("template_type", p.Type)
}
