// Package inventory is the inventory screen: item list with derived stock
// status, overview, reorder suggestions and item mutations.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/erp/books/internal/application/viewstate"
	"github.com/erp/books/internal/domain/inventory"
	"github.com/erp/books/internal/domain/shared"
	"github.com/erp/books/internal/infrastructure/api"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Sort keys offered by the item list
const (
	SortName     = "name"
	SortSKU      = "sku"
	SortQuantity = "quantity"
	SortValue    = "value"
	SortStatus   = "status"
)

// ItemAPI is the backend surface the inventory screen uses
type ItemAPI interface {
	ListItems(ctx context.Context, companyID string, params api.ItemParams) (shared.Paginated[inventory.Item], error)
	CreateItem(ctx context.Context, companyID string, in inventory.ItemInput) (inventory.Item, error)
	UpdateItem(ctx context.Context, companyID, itemID string, in inventory.ItemInput) (inventory.Item, error)
	DeleteItem(ctx context.Context, companyID, itemID string) error
	Adjust(ctx context.Context, companyID string, in inventory.AdjustmentInput) (inventory.Adjustment, error)
	Valuation(ctx context.Context, companyID string) (inventory.Valuation, error)
	Reorder(ctx context.Context, companyID string) (shared.Paginated[inventory.ReorderSuggestion], error)
	Import(ctx context.Context, companyID, filename string, data []byte) (inventory.ImportResult, error)
	Export(ctx context.Context, companyID, format string) ([]byte, error)
}

// Data is what one load of the inventory screen produces
type Data struct {
	Items    []inventory.ItemView
	Page     shared.Page
	Overview inventory.Overview
}

// Center is the inventory screen
type Center struct {
	api        ItemAPI
	env        viewstate.Env
	loader     *viewstate.Loader[Data]
	dispatcher *viewstate.Dispatcher

	mu     sync.RWMutex
	filter shared.Filter
}

// NewCenter creates the inventory screen. Failed loads show a small sample
// catalogue marked degraded.
func NewCenter(itemAPI ItemAPI, env viewstate.Env) *Center {
	env = env.WithDefaults()
	c := &Center{
		api:    itemAPI,
		env:    env,
		filter: shared.NewFilter(SortName),
	}
	c.loader = viewstate.NewLoader("inventory", viewstate.NewStore[Data](), c.fetch, env.Options).
		WithFallback(fallbackData)
	c.dispatcher = env.NewDispatcher(c.loader.Load)
	return c
}

// Filter returns the current filter state
func (c *Center) Filter() shared.Filter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filter
}

// SetFilter replaces the filter state. Call Load to apply the parts the
// backend filters on; View applies the rest immediately.
func (c *Center) SetFilter(f shared.Filter) {
	c.mu.Lock()
	c.filter = f
	c.mu.Unlock()
}

// Load refreshes the screen
func (c *Center) Load(ctx context.Context) viewstate.Result {
	return c.loader.Load(ctx)
}

// Snapshot returns the current published state, nil before the first load
func (c *Center) Snapshot() *viewstate.Snapshot[Data] {
	return c.loader.Store().Current()
}

// fetch loads the item page, then the valuation covering all items. Without
// a valuation the overview is reduced from the page and flagged partial.
func (c *Center) fetch(ctx context.Context) (Data, error) {
	f := c.Filter()
	page, err := c.api.ListItems(ctx, c.env.CompanyID, api.ItemParams{
		ListParams: api.ListParams{
			Search:   f.Search,
			Page:     f.Page.Page,
			PageSize: f.Page.PageSize,
		},
		Category: f.Category,
		VendorID: f.VendorID,
	})
	if err != nil {
		return Data{}, err
	}

	views := inventory.NewItemViews(page.Items)
	data := Data{Items: views, Page: page.PageState()}

	valuation, err := c.api.Valuation(ctx, c.env.CompanyID)
	if err != nil {
		c.env.Logger.Debug("valuation unavailable, summarizing loaded page", zap.Error(err))
		data.Overview = inventory.Summarize(views)
		data.Overview.Partial = page.IsPartial()
		data.Overview.CategoriesPartial = data.Overview.Partial
		return data, nil
	}
	data.Overview = inventory.FromValuation(valuation, views)
	return data, nil
}

// View returns the loaded items with the status filter and sort applied.
// Status and sort work on derived fields so they are applied locally.
func (c *Center) View() []inventory.ItemView {
	data, ok := c.loader.Store().Data()
	if !ok {
		return nil
	}
	return FilterAndSort(data.Items, c.Filter())
}

// FilterAndSort applies search, category, stock status and sort order
func FilterAndSort(items []inventory.ItemView, f shared.Filter) []inventory.ItemView {
	out := make([]inventory.ItemView, 0, len(items))
	for _, v := range items {
		if !f.Matches(v.Name, v.SKU, v.Description) {
			continue
		}
		if f.Category != "" && !strings.EqualFold(v.Category, f.Category) {
			continue
		}
		if f.Status != "" && !strings.EqualFold(string(v.Status), f.Status) {
			continue
		}
		out = append(out, v)
	}

	less := lessFunc(f.SortBy)
	sort.SliceStable(out, func(i, j int) bool {
		if f.Descending() {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

func lessFunc(key string) func(a, b inventory.ItemView) bool {
	switch key {
	case SortSKU:
		return func(a, b inventory.ItemView) bool { return a.SKU < b.SKU }
	case SortQuantity:
		return func(a, b inventory.ItemView) bool { return a.QuantityOnHand.LessThan(b.QuantityOnHand) }
	case SortValue:
		return func(a, b inventory.ItemView) bool { return a.TotalValue.LessThan(b.TotalValue) }
	case SortStatus:
		return func(a, b inventory.ItemView) bool { return a.Status.Rank() < b.Status.Rank() }
	default:
		return func(a, b inventory.ItemView) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	}
}

// Overview returns the summary of the current snapshot
func (c *Center) Overview() (inventory.Overview, bool) {
	data, ok := c.loader.Store().Data()
	return data.Overview, ok
}

// ReorderSuggestions asks the backend for reorder lines. If that fails the
// lines are derived from the loaded items and partial is true, unless the
// loaded items are sample content.
func (c *Center) ReorderSuggestions(ctx context.Context) (lines []inventory.ReorderSuggestion, partial bool, err error) {
	page, err := c.api.Reorder(ctx, c.env.CompanyID)
	if err == nil {
		return page.Items, false, nil
	}
	data, ok, liveErr := c.loader.Store().Live()
	if liveErr != nil {
		return nil, false, fmt.Errorf("reorder suggestions: %w", errors.Join(err, liveErr))
	}
	if !ok {
		return nil, false, err
	}
	c.env.Logger.Warn("reorder endpoint failed, using loaded items", zap.Error(err))
	return inventory.LocalReorderSuggestions(data.Items), true, nil
}

// CreateItem adds an item
func (c *Center) CreateItem(ctx context.Context, in inventory.ItemInput) error {
	return c.dispatcher.Dispatch(ctx, viewstate.Mutation{
		Name:     "create item",
		Validate: func() error { return c.validateItem(in) },
		Execute: func(ctx context.Context) error {
			_, err := c.api.CreateItem(ctx, c.env.CompanyID, in)
			return err
		},
		Success: fmt.Sprintf("Item %s created", in.SKU),
	})
}

// UpdateItem edits an item
func (c *Center) UpdateItem(ctx context.Context, itemID string, in inventory.ItemInput) error {
	return c.dispatcher.Dispatch(ctx, viewstate.Mutation{
		Name:     "update item",
		Validate: func() error { return c.validateItem(in) },
		Execute: func(ctx context.Context) error {
			_, err := c.api.UpdateItem(ctx, c.env.CompanyID, itemID, in)
			return err
		},
		Success: fmt.Sprintf("Item %s updated", in.SKU),
	})
}

func (c *Center) validateItem(in inventory.ItemInput) error {
	if err := c.env.Validator.Struct(in); err != nil {
		return err
	}
	for field, v := range map[string]decimal.Decimal{
		"reorder_point": in.ReorderPoint,
		"max_stock":     in.MaxStock,
		"unit_cost":     in.UnitCost,
		"unit_price":    in.UnitPrice,
	} {
		if v.IsNegative() {
			return shared.NewValidationError(field, "cannot be negative")
		}
	}
	return nil
}

// Adjust records a signed stock change
func (c *Center) Adjust(ctx context.Context, in inventory.AdjustmentInput) error {
	return c.dispatcher.Dispatch(ctx, viewstate.Mutation{
		Name: "adjust stock",
		Validate: func() error {
			if err := c.env.Validator.Struct(in); err != nil {
				return err
			}
			if in.QuantityChange.IsZero() {
				return shared.NewValidationError("quantity_change", "cannot be zero")
			}
			return nil
		},
		Execute: func(ctx context.Context) error {
			_, err := c.api.Adjust(ctx, c.env.CompanyID, in)
			return err
		},
		Success: fmt.Sprintf("Stock adjusted by %s", in.QuantityChange),
	})
}

// DeleteItem removes an item after confirmation
func (c *Center) DeleteItem(ctx context.Context, itemID string) error {
	return c.dispatcher.Dispatch(ctx, viewstate.Mutation{
		Name:        "delete item",
		Destructive: true,
		Prompt:      fmt.Sprintf("Delete item %s? This cannot be undone.", itemID),
		Validate: func() error {
			if strings.TrimSpace(itemID) == "" {
				return shared.NewValidationError("item_id", "is required")
			}
			return nil
		},
		Execute: func(ctx context.Context) error {
			return c.api.DeleteItem(ctx, c.env.CompanyID, itemID)
		},
		Success: "Item deleted",
	})
}

// Import uploads an item file and reloads
func (c *Center) Import(ctx context.Context, filename string, data []byte) (inventory.ImportResult, error) {
	var result inventory.ImportResult
	err := c.dispatcher.Dispatch(ctx, viewstate.Mutation{
		Name: "import items",
		Validate: func() error {
			if len(data) == 0 {
				return shared.NewValidationError("file", "is empty")
			}
			return nil
		},
		Execute: func(ctx context.Context) error {
			var err error
			result, err = c.api.Import(ctx, c.env.CompanyID, filename, data)
			return err
		},
		Success: "Items imported",
	})
	return result, err
}

// Export downloads the item list in the given format
func (c *Center) Export(ctx context.Context, format string) ([]byte, error) {
	return c.api.Export(ctx, c.env.CompanyID, format)
}
