package fakeapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/erp/books/internal/domain/billing"
	"github.com/erp/books/internal/domain/company"
	"github.com/erp/books/internal/domain/document"
	"github.com/erp/books/internal/domain/inventory"
	"github.com/erp/books/internal/domain/partner"
	"github.com/erp/books/internal/domain/purchasing"
	"github.com/erp/books/internal/domain/shared/valueobject"
	"github.com/erp/books/internal/domain/template"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// table keeps rows in insertion order
type table[T any] struct {
	order []string
	rows  map[string]T
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]T)}
}

func (t *table[T]) put(id string, v T) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = v
}

func (t *table[T]) get(id string) (T, bool) {
	v, ok := t.rows[id]
	return v, ok
}

func (t *table[T]) remove(id string) bool {
	if _, ok := t.rows[id]; !ok {
		return false
	}
	delete(t.rows, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

func (t *table[T]) all() []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.rows[id])
	}
	return out
}

func (t *table[T]) len() int { return len(t.order) }

// companyData is everything the fake backend stores for one company
type companyData struct {
	settings     company.Settings
	vendors      *table[partner.Vendor]
	items        *table[inventory.Item]
	bills        *table[billing.Bill]
	orders       *table[purchasing.PurchaseOrder]
	templates    *table[template.Template]
	locations    *table[inventory.Location]
	assemblies   *table[inventory.Assembly]
	receipts     *table[inventory.Receipt]
	adjustments  []inventory.Adjustment
	transactions []inventory.Transaction
}

func newCompanyData(settings company.Settings) *companyData {
	return &companyData{
		settings:   settings,
		vendors:    newTable[partner.Vendor](),
		items:      newTable[inventory.Item](),
		bills:      newTable[billing.Bill](),
		orders:     newTable[purchasing.PurchaseOrder](),
		templates:  newTable[template.Template](),
		locations:  newTable[inventory.Location](),
		assemblies: newTable[inventory.Assembly](),
		receipts:   newTable[inventory.Receipt](),
	}
}

// itemBySKU finds an item by SKU, ignoring case
func (d *companyData) itemBySKU(sku string) (inventory.Item, bool) {
	for _, it := range d.items.all() {
		if strings.EqualFold(it.SKU, sku) {
			return it, true
		}
	}
	return inventory.Item{}, false
}

// moveStock changes an item's quantity and records a ledger entry
func (d *companyData) moveStock(itemID, kind, ref string, qty decimal.Decimal, at time.Time) bool {
	it, ok := d.items.get(itemID)
	if !ok {
		return false
	}
	it.QuantityOnHand = it.QuantityOnHand.Add(qty)
	it.UpdatedAt = at
	d.items.put(it.ID, it)
	d.transactions = append(d.transactions, inventory.Transaction{
		ID:           uuid.NewString(),
		ItemID:       it.ID,
		Type:         kind,
		Quantity:     qty,
		UnitCost:     it.UnitCost,
		ReferenceID:  ref,
		OccurredAt:   at,
		BalanceAfter: it.QuantityOnHand,
	})
	return true
}

func (d *companyData) vendorName(id string) string {
	if v, ok := d.vendors.get(id); ok {
		return v.DisplayName()
	}
	return ""
}

// AddCompany seeds an extra company and returns its ID
func (s *Server) AddCompany(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := gofakeit.New(s.opts.Seed + uint64(len(s.companies)) + 1)
	s.companies[id] = seedCompany(f, id, s.opts, s.opts.Now())
	return id
}

// Company returns a copy of the company's settings, for assertions
func (s *Server) Company(id string) (company.Settings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.companies[id]
	if !ok {
		return company.Settings{}, false
	}
	return d.settings, true
}

// Count returns how many rows a company holds for a resource: vendors,
// items, bills, purchase-orders or templates.
func (s *Server) Count(companyID, resource string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.companies[companyID]
	if !ok {
		return 0
	}
	switch resource {
	case "vendors":
		return d.vendors.len()
	case "items":
		return d.items.len()
	case "bills":
		return d.bills.len()
	case "purchase-orders":
		return d.orders.len()
	case "templates":
		return d.templates.len()
	}
	return 0
}

// Reset drops all data for a company, leaving an empty company with default
// settings. Useful as a restore target.
func (s *Server) Reset(companyID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companies[companyID] = newCompanyData(company.Settings{
		ID:       companyID,
		Name:     "Empty Co",
		Currency: valueobject.USD,
	})
}

// loadCompany resolves :company_id and holds the server lock for the rest of
// the request.
func (s *Server) loadCompany() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		defer s.mu.Unlock()
		d, ok := s.companies[c.Param("company_id")]
		if !ok {
			notFound(c, "company")
			return
		}
		c.Set("company", d)
		c.Next()
	}
}

func data(c *gin.Context) *companyData {
	return c.MustGet("company").(*companyData)
}

func seed(s *Server, opts Options) {
	for i, id := range opts.Companies {
		f := gofakeit.New(opts.Seed + uint64(i))
		s.companies[id] = seedCompany(f, id, opts, opts.Now())
	}
}

var categories = []string{"Hardware", "Office", "Packaging", "Electrical", "Cleaning"}

func seedCompany(f *gofakeit.Faker, id string, opts Options, now time.Time) *companyData {
	d := newCompanyData(company.Settings{
		ID:              id,
		Name:            f.Company(),
		Email:           f.Email(),
		Phone:           f.Phone(),
		Website:         "https://" + f.DomainName(),
		Address:         fakeAddress(f),
		Currency:        valueobject.USD,
		FiscalYearStart: 1,
		DefaultTerms:    "Net 30",
		InventoryMethod: "fifo",
	})

	main := inventory.Location{ID: uuid.NewString(), Name: "Main Warehouse", Address: f.Street(), IsDefault: true}
	d.locations.put(main.ID, main)

	vendorIDs := make([]string, 0, opts.Vendors)
	for range opts.Vendors {
		v := partner.Vendor{
			ID:          uuid.NewString(),
			Name:        f.Name(),
			CompanyName: f.Company(),
			Email:       f.Email(),
			Phone:       f.Phone(),
			Terms:       f.RandomString([]string{"Net 15", "Net 30", "Net 60", "Due on receipt"}),
			Address:     fakeAddress(f),
			Balance:     decimal.Zero,
			Status:      partner.VendorStatusActive,
			CreatedAt:   now.AddDate(0, 0, -f.IntRange(30, 400)),
		}
		if f.IntRange(0, 9) == 0 {
			v.Status = partner.VendorStatusInactive
		}
		d.vendors.put(v.ID, v)
		vendorIDs = append(vendorIDs, v.ID)
	}

	for i := range opts.Items {
		reorder := decimal.NewFromInt(int64(f.IntRange(5, 25)))
		it := inventory.Item{
			ID:             uuid.NewString(),
			SKU:            fmt.Sprintf("SKU-%04d", i+1),
			Name:           f.ProductName(),
			Description:    f.ProductDescription(),
			Category:       f.RandomString(categories),
			QuantityOnHand: decimal.NewFromInt(int64(f.IntRange(0, 120))),
			ReorderPoint:   reorder,
			MaxStock:       reorder.Mul(decimal.NewFromInt(5)),
			UnitCost:       decimal.NewFromFloat(f.Price(2, 200)).Round(2),
			LocationID:     main.ID,
			IsActive:       true,
			UpdatedAt:      now,
		}
		it.UnitPrice = it.UnitCost.Mul(decimal.NewFromFloat(1.4)).Round(2)
		if len(vendorIDs) > 0 {
			it.VendorID = vendorIDs[i%len(vendorIDs)]
		}
		d.items.put(it.ID, it)
	}

	for i := range opts.Bills {
		if len(vendorIDs) == 0 {
			break
		}
		vendorID := vendorIDs[f.IntRange(0, len(vendorIDs)-1)]
		billDate := now.AddDate(0, 0, -f.IntRange(0, 120))
		lines := []billing.BillLine{{
			Description: f.ProductName(),
			Quantity:    decimal.NewFromInt(int64(f.IntRange(1, 10))),
			UnitCost:    decimal.NewFromFloat(f.Price(10, 500)).Round(2),
		}}
		b := billing.Bill{
			ID:         uuid.NewString(),
			Number:     fmt.Sprintf("BILL-%04d", i+1),
			VendorID:   vendorID,
			VendorName: d.vendorName(vendorID),
			BillDate:   billDate,
			DueDate:    billDate.AddDate(0, 0, 30),
			Status:     billing.BillStatusOpen,
			IsPosted:   true,
			Lines:      lines,
		}
		b.Total = lines[0].Amount()
		b.BalanceDue = b.Total
		switch f.IntRange(0, 5) {
		case 0:
			b.Status, b.BalanceDue = billing.BillStatusPaid, decimal.Zero
		case 1:
			b.Status, b.BalanceDue = billing.BillStatusPartial, b.Total.Div(decimal.NewFromInt(2)).Round(2)
		}
		d.bills.put(b.ID, b)
	}

	statuses := []purchasing.Status{purchasing.StatusDraft, purchasing.StatusSent, purchasing.StatusApproved, purchasing.StatusReceived}
	items := d.items.all()
	for i := range opts.Orders {
		if len(vendorIDs) == 0 || len(items) == 0 {
			break
		}
		it := items[f.IntRange(0, len(items)-1)]
		vendorID := vendorIDs[i%len(vendorIDs)]
		o := purchasing.PurchaseOrder{
			ID:         uuid.NewString(),
			Number:     fmt.Sprintf("PO-%04d", i+1),
			VendorID:   vendorID,
			VendorName: d.vendorName(vendorID),
			Status:     statuses[i%len(statuses)],
			OrderDate:  now.AddDate(0, 0, -f.IntRange(1, 60)),
			Lines: []purchasing.LineItem{{
				ItemID:      it.ID,
				Description: it.Name,
				Quantity:    decimal.NewFromInt(int64(f.IntRange(5, 50))),
				UnitCost:    it.UnitCost,
			}},
		}
		o.Total = o.Subtotal()
		d.orders.put(o.ID, o)
	}

	for _, t := range []document.Type{document.TypeInvoice, document.TypeEstimate, document.TypeCreditMemo, document.TypePurchase} {
		tpl := template.Template{
			ID:        uuid.NewString(),
			Name:      "Standard " + strings.ReplaceAll(string(t), "_", " "),
			Type:      t,
			IsDefault: true,
			Settings:  template.DefaultSettings(),
			CreatedAt: now,
			UpdatedAt: now,
		}
		d.templates.put(tpl.ID, tpl)
	}
	return d
}

func fakeAddress(f *gofakeit.Faker) partner.Address {
	return partner.Address{
		Line1:      f.Street(),
		City:       f.City(),
		State:      f.StateAbr(),
		PostalCode: f.Zip(),
		Country:    "US",
	}
}

// statusCreated answers 201 with the record
func statusCreated(c *gin.Context, v any) {
	c.JSON(http.StatusCreated, v)
}
