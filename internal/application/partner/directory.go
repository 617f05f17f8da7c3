// Package partner is the vendor directory screen
package partner

import (
	"context"
	"fmt"
	"sync"

	"github.com/erp/books/internal/application/viewstate"
	"github.com/erp/books/internal/domain/partner"
	"github.com/erp/books/internal/domain/shared"
	"github.com/erp/books/internal/infrastructure/api"
)

// VendorAPI is the vendor backend surface
type VendorAPI interface {
	List(ctx context.Context, companyID string, params api.VendorParams) (shared.Paginated[partner.Vendor], error)
	Create(ctx context.Context, companyID string, in partner.VendorInput) (partner.Vendor, error)
	Update(ctx context.Context, companyID, vendorID string, in partner.VendorInput) (partner.Vendor, error)
	Delete(ctx context.Context, companyID, vendorID string) error
}

// Data is one page of vendors
type Data struct {
	Vendors []partner.Vendor
	Page    shared.Page
}

// Directory is the vendor screen. It has no fallback: a failed load leaves
// the previous list in place and returns an error the caller can retry on.
type Directory struct {
	api        VendorAPI
	env        viewstate.Env
	loader     *viewstate.Loader[Data]
	dispatcher *viewstate.Dispatcher

	mu     sync.RWMutex
	filter shared.Filter
}

// NewDirectory creates the vendor screen
func NewDirectory(vendorAPI VendorAPI, env viewstate.Env) *Directory {
	env = env.WithDefaults()
	d := &Directory{
		api:    vendorAPI,
		env:    env,
		filter: shared.NewFilter("name"),
	}
	d.loader = viewstate.NewLoader("vendors", viewstate.NewStore[Data](), d.fetch, env.Options)
	d.dispatcher = env.NewDispatcher(d.loader.Load)
	return d
}

// Filter returns the current filter state
func (d *Directory) Filter() shared.Filter {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.filter
}

// SetFilter replaces the filter state; Load applies it
func (d *Directory) SetFilter(f shared.Filter) {
	d.mu.Lock()
	d.filter = f
	d.mu.Unlock()
}

// Load refreshes the list
func (d *Directory) Load(ctx context.Context) viewstate.Result {
	return d.loader.Load(ctx)
}

// Snapshot returns the current published state
func (d *Directory) Snapshot() *viewstate.Snapshot[Data] {
	return d.loader.Store().Current()
}

func (d *Directory) fetch(ctx context.Context) (Data, error) {
	f := d.Filter()
	page, err := d.api.List(ctx, d.env.CompanyID, api.VendorParams{
		ListParams: api.ListParams{
			Search:    f.Search,
			SortBy:    f.SortBy,
			SortOrder: string(f.SortDir),
			Page:      f.Page.Page,
			PageSize:  f.Page.PageSize,
		},
		Status: f.Status,
	})
	if err != nil {
		return Data{}, err
	}
	return Data{Vendors: page.Items, Page: page.PageState()}, nil
}

// Create adds a vendor
func (d *Directory) Create(ctx context.Context, in partner.VendorInput) error {
	in = in.Normalize()
	return d.dispatcher.Dispatch(ctx, viewstate.Mutation{
		Name:     "create vendor",
		Validate: func() error { return d.env.Validator.Struct(in) },
		Execute: func(ctx context.Context) error {
			_, err := d.api.Create(ctx, d.env.CompanyID, in)
			return err
		},
		Success: fmt.Sprintf("Vendor %s created", in.Name),
	})
}

// Update edits a vendor
func (d *Directory) Update(ctx context.Context, vendorID string, in partner.VendorInput) error {
	in = in.Normalize()
	return d.dispatcher.Dispatch(ctx, viewstate.Mutation{
		Name: "update vendor",
		Validate: func() error {
			if vendorID == "" {
				return shared.NewValidationError("vendor_id", "is required")
			}
			return d.env.Validator.Struct(in)
		},
		Execute: func(ctx context.Context) error {
			_, err := d.api.Update(ctx, d.env.CompanyID, vendorID, in)
			return err
		},
		Success: fmt.Sprintf("Vendor %s updated", in.Name),
	})
}

// Delete removes a vendor after confirmation
func (d *Directory) Delete(ctx context.Context, vendorID string) error {
	return d.dispatcher.Dispatch(ctx, viewstate.Mutation{
		Name:        "delete vendor",
		Destructive: true,
		Prompt:      fmt.Sprintf("Delete vendor %s?", vendorID),
		Validate: func() error {
			if vendorID == "" {
				return shared.NewValidationError("vendor_id", "is required")
			}
			return nil
		},
		Execute: func(ctx context.Context) error {
			return d.api.Delete(ctx, d.env.CompanyID, vendorID)
		},
		Success: "Vendor deleted",
	})
}
