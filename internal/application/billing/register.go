// Package billing is the vendor bill register with payables aging
package billing

import (
	"context"
	"fmt"
	"sync"

	"github.com/erp/books/internal/application/viewstate"
	"github.com/erp/books/internal/domain/billing"
	"github.com/erp/books/internal/domain/shared"
	"github.com/erp/books/internal/infrastructure/api"
	"github.com/shopspring/decimal"
)

// agingPageSize is the page size used when walking every bill for aging
const agingPageSize = 100

// BillAPI is the bill backend surface
type BillAPI interface {
	List(ctx context.Context, companyID string, params api.BillParams) (shared.Paginated[billing.Bill], error)
	Create(ctx context.Context, companyID string, in billing.BillInput) (billing.Bill, error)
}

// Filter is the bill register filter state
type Filter struct {
	shared.Filter
	MinAmount *decimal.Decimal
	MaxAmount *decimal.Decimal
	IsPosted  *bool
}

// NewFilter returns the register's default filter
func NewFilter() Filter {
	return Filter{Filter: shared.NewFilter("due_date")}
}

func (f Filter) params() api.BillParams {
	return api.BillParams{
		ListParams: api.ListParams{
			Search:    f.Search,
			SortBy:    f.SortBy,
			SortOrder: string(f.SortDir),
			Page:      f.Page.Page,
			PageSize:  f.Page.PageSize,
		},
		VendorID:  f.VendorID,
		Status:    f.Status,
		StartDate: f.DateFrom,
		EndDate:   f.DateTo,
		MinAmount: f.MinAmount,
		MaxAmount: f.MaxAmount,
		IsPosted:  f.IsPosted,
	}
}

// Data is one page of bills with its aging summary
type Data struct {
	Bills []billing.BillView
	Page  shared.Page
	// Aging covers the loaded page only; it is marked Partial when the
	// backend reports more bills than were loaded.
	Aging billing.AgingSummary
}

// Register is the bill screen
type Register struct {
	api        BillAPI
	env        viewstate.Env
	loader     *viewstate.Loader[Data]
	dispatcher *viewstate.Dispatcher

	mu     sync.RWMutex
	filter Filter
}

// NewRegister creates the bill screen
func NewRegister(billAPI BillAPI, env viewstate.Env) *Register {
	env = env.WithDefaults()
	r := &Register{
		api:    billAPI,
		env:    env,
		filter: NewFilter(),
	}
	r.loader = viewstate.NewLoader("bills", viewstate.NewStore[Data](), r.fetch, env.Options)
	r.dispatcher = env.NewDispatcher(r.loader.Load)
	return r
}

// Filter returns the current filter state
func (r *Register) Filter() Filter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter
}

// SetFilter replaces the filter state; Load applies it
func (r *Register) SetFilter(f Filter) {
	r.mu.Lock()
	r.filter = f
	r.mu.Unlock()
}

// Load refreshes the register
func (r *Register) Load(ctx context.Context) viewstate.Result {
	return r.loader.Load(ctx)
}

// Snapshot returns the current published state
func (r *Register) Snapshot() *viewstate.Snapshot[Data] {
	return r.loader.Store().Current()
}

func (r *Register) fetch(ctx context.Context) (Data, error) {
	page, err := r.api.List(ctx, r.env.CompanyID, r.Filter().params())
	if err != nil {
		return Data{}, err
	}
	asOf := r.env.Now()
	views := make([]billing.BillView, 0, len(page.Items))
	for _, b := range page.Items {
		views = append(views, billing.NewBillView(b, asOf))
	}
	aging := billing.Aging(page.Items, asOf)
	aging.Partial = page.IsPartial()
	return Data{Bills: views, Page: page.PageState(), Aging: aging}, nil
}

// FullAging walks every page matching the current filter and ages all
// outstanding bills. maxPages bounds the walk; hitting it marks the result
// partial.
func (r *Register) FullAging(ctx context.Context, maxPages int) (billing.AgingSummary, error) {
	params := r.Filter().params()
	params.PageSize = agingPageSize

	var bills []billing.Bill
	var total int64
	for page := 1; maxPages <= 0 || page <= maxPages; page++ {
		params.Page = page
		res, err := r.api.List(ctx, r.env.CompanyID, params)
		if err != nil {
			return billing.AgingSummary{}, fmt.Errorf("loading bills page %d: %w", page, err)
		}
		bills = append(bills, res.Items...)
		total = res.Total
		if len(res.Items) == 0 || int64(len(bills)) >= total {
			break
		}
	}
	summary := billing.Aging(bills, r.env.Now())
	summary.Partial = int64(len(bills)) < total
	return summary, nil
}

// Create records a new bill
func (r *Register) Create(ctx context.Context, in billing.BillInput) error {
	return r.dispatcher.Dispatch(ctx, viewstate.Mutation{
		Name: "create bill",
		Validate: func() error {
			if err := in.Validate(); err != nil {
				return err
			}
			return r.env.Validator.Struct(in)
		},
		Execute: func(ctx context.Context) error {
			_, err := r.api.Create(ctx, r.env.CompanyID, in)
			return err
		},
		Success: fmt.Sprintf("Bill %s created for %s", in.Number, in.Total().StringFixed(2)),
	})
}
