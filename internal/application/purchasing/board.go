// Package purchasing is the purchase order board: orders with their totals
// and legal actions, loaded together with the vendors and items forms need.
package purchasing

import (
	"context"
	"fmt"
	"sync"

	"github.com/erp/books/internal/application/viewstate"
	"github.com/erp/books/internal/domain/inventory"
	"github.com/erp/books/internal/domain/partner"
	"github.com/erp/books/internal/domain/purchasing"
	"github.com/erp/books/internal/domain/shared"
	"github.com/erp/books/internal/infrastructure/api"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderAPI is the purchase order backend surface
type OrderAPI interface {
	List(ctx context.Context, companyID string, params api.OrderParams) (shared.Paginated[purchasing.PurchaseOrder], error)
	Create(ctx context.Context, companyID string, in purchasing.OrderInput) (purchasing.PurchaseOrder, error)
	UpdateStatus(ctx context.Context, companyID, orderID string, status purchasing.Status) (purchasing.PurchaseOrder, error)
	Delete(ctx context.Context, companyID, orderID string) error
	Email(ctx context.Context, companyID, orderID string, req purchasing.EmailRequest) error
}

// VendorLister lists vendors for the vendor picker
type VendorLister interface {
	List(ctx context.Context, companyID string, params api.VendorParams) (shared.Paginated[partner.Vendor], error)
}

// ItemLister lists items for the line picker
type ItemLister interface {
	List(ctx context.Context, companyID string, params api.ItemParams) (shared.Paginated[inventory.Item], error)
}

// Data is what one load of the board produces
type Data struct {
	Orders    []purchasing.OrderView
	Page      shared.Page
	Vendors   []partner.Vendor
	Items     []inventory.Item
	Counts    map[purchasing.Status]int
	OpenTotal decimal.Decimal
}

// Find returns the order view with the given id
func (d Data) Find(orderID string) (purchasing.OrderView, bool) {
	for _, o := range d.Orders {
		if o.ID == orderID {
			return o, true
		}
	}
	return purchasing.OrderView{}, false
}

// Board is the purchase order screen
type Board struct {
	orders  OrderAPI
	vendors VendorLister
	items   ItemLister
	env     viewstate.Env

	loader     *viewstate.Loader[Data]
	dispatcher *viewstate.Dispatcher

	mu     sync.RWMutex
	filter shared.Filter
}

// NewBoard creates the purchase order screen
func NewBoard(orders OrderAPI, vendors VendorLister, items ItemLister, env viewstate.Env) *Board {
	env = env.WithDefaults()
	b := &Board{
		orders:  orders,
		vendors: vendors,
		items:   items,
		env:     env,
		filter:  shared.NewFilter("order_date"),
	}
	b.filter.SortDir = shared.SortDesc
	b.loader = viewstate.NewLoader("purchase_orders", viewstate.NewStore[Data](), b.fetch, env.Options).
		WithFallback(fallbackData)
	b.dispatcher = env.NewDispatcher(b.loader.Load)
	return b
}

// Filter returns the current filter state
func (b *Board) Filter() shared.Filter {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.filter
}

// SetFilter replaces the filter state; Load applies it
func (b *Board) SetFilter(f shared.Filter) {
	b.mu.Lock()
	b.filter = f
	b.mu.Unlock()
}

// Load refreshes the board
func (b *Board) Load(ctx context.Context) viewstate.Result {
	return b.loader.Load(ctx)
}

// Snapshot returns the current published state
func (b *Board) Snapshot() *viewstate.Snapshot[Data] {
	return b.loader.Store().Current()
}

// fetch loads orders, vendors and items in parallel. Only the order list is
// required; the pickers come up empty if their lists fail.
func (b *Board) fetch(ctx context.Context) (Data, error) {
	f := b.Filter()

	var (
		wg        sync.WaitGroup
		orders    shared.Paginated[purchasing.PurchaseOrder]
		vendors   shared.Paginated[partner.Vendor]
		items     shared.Paginated[inventory.Item]
		ordersErr error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		orders, ordersErr = b.orders.List(ctx, b.env.CompanyID, api.OrderParams{
			ListParams: api.ListParams{
				Search:    f.Search,
				SortBy:    f.SortBy,
				SortOrder: string(f.SortDir),
				Page:      f.Page.Page,
				PageSize:  f.Page.PageSize,
			},
			VendorID: f.VendorID,
			Status:   f.Status,
			DateFrom: f.DateFrom,
			DateTo:   f.DateTo,
		})
	}()
	go func() {
		defer wg.Done()
		var err error
		vendors, err = b.vendors.List(ctx, b.env.CompanyID, api.VendorParams{Status: string(partner.VendorStatusActive)})
		if err != nil {
			b.env.Logger.Warn("vendor list unavailable", zap.Error(err))
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		items, err = b.items.List(ctx, b.env.CompanyID, api.ItemParams{})
		if err != nil {
			b.env.Logger.Warn("item list unavailable", zap.Error(err))
		}
	}()
	wg.Wait()

	if ordersErr != nil {
		return Data{}, ordersErr
	}
	return buildData(orders, vendors.Items, items.Items), nil
}

func buildData(orders shared.Paginated[purchasing.PurchaseOrder], vendors []partner.Vendor, items []inventory.Item) Data {
	names := make(map[string]string, len(vendors))
	for _, v := range vendors {
		names[v.ID] = v.DisplayName()
	}
	views := make([]purchasing.OrderView, 0, len(orders.Items))
	for _, o := range orders.Items {
		views = append(views, purchasing.NewOrderView(o, names))
	}
	return Data{
		Orders:    views,
		Page:      orders.PageState(),
		Vendors:   vendors,
		Items:     items,
		Counts:    purchasing.StatusCounts(views),
		OpenTotal: purchasing.OpenTotal(views),
	}
}

// Create submits a new purchase order
func (b *Board) Create(ctx context.Context, in purchasing.OrderInput) error {
	return b.dispatcher.Dispatch(ctx, viewstate.Mutation{
		Name: "create purchase order",
		Validate: func() error {
			if err := in.Validate(); err != nil {
				return err
			}
			return b.env.Validator.Struct(in)
		},
		Execute: func(ctx context.Context) error {
			_, err := b.orders.Create(ctx, b.env.CompanyID, in)
			return err
		},
		Success: "Purchase order created",
	})
}

// Transition applies an action to an order. Only actions the order's current
// status offers are dispatched; cancelling asks for confirmation. A board
// showing sample orders refuses with ErrUnavailable.
func (b *Board) Transition(ctx context.Context, orderID string, action purchasing.Action) error {
	var target purchasing.Status
	return b.dispatcher.Dispatch(ctx, viewstate.Mutation{
		Name:        string(action) + " purchase order",
		Destructive: action == purchasing.ActionCancel,
		Prompt:      fmt.Sprintf("Cancel purchase order %s?", orderID),
		Validate: func() error {
			data, ok, err := b.loader.Store().Live()
			if err != nil {
				return fmt.Errorf("purchase order %s: %w", orderID, err)
			}
			if !ok {
				return fmt.Errorf("purchase order %s: %w", orderID, shared.ErrNotFound)
			}
			order, ok := data.Find(orderID)
			if !ok {
				return fmt.Errorf("purchase order %s: %w", orderID, shared.ErrNotFound)
			}
			target, err = purchasing.CheckAction(order.Status, action)
			return err
		},
		Execute: func(ctx context.Context) error {
			_, err := b.orders.UpdateStatus(ctx, b.env.CompanyID, orderID, target)
			return err
		},
		Success: fmt.Sprintf("Purchase order %s: %s", orderID, action),
	})
}

// Email sends an order to its vendor
func (b *Board) Email(ctx context.Context, orderID string, req purchasing.EmailRequest) error {
	return b.dispatcher.Dispatch(ctx, viewstate.Mutation{
		Name: "email purchase order",
		Validate: func() error {
			if orderID == "" {
				return shared.NewValidationError("order_id", "is required")
			}
			return b.env.Validator.Struct(req)
		},
		Execute: func(ctx context.Context) error {
			return b.orders.Email(ctx, b.env.CompanyID, orderID, req)
		},
		Success: "Purchase order emailed",
	})
}

// Delete removes an order after confirmation
func (b *Board) Delete(ctx context.Context, orderID string) error {
	return b.dispatcher.Dispatch(ctx, viewstate.Mutation{
		Name:        "delete purchase order",
		Destructive: true,
		Prompt:      fmt.Sprintf("Delete purchase order %s? This cannot be undone.", orderID),
		Validate: func() error {
			if orderID == "" {
				return shared.NewValidationError("order_id", "is required")
			}
			return nil
		},
		Execute: func(ctx context.Context) error {
			return b.orders.Delete(ctx, b.env.CompanyID, orderID)
		},
		Success: "Purchase order deleted",
	})
}
