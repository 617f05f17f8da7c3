package inventory

import (
	"time"

	"github.com/erp/books/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// StockStatus is the display classification of an item's stock level
type StockStatus string

const (
	StatusOutOfStock StockStatus = "Out of Stock"
	StatusLowStock   StockStatus = "Low Stock"
	StatusInStock    StockStatus = "In Stock"
)

// IsValid checks if the status is a valid StockStatus
func (s StockStatus) IsValid() bool {
	switch s {
	case StatusOutOfStock, StatusLowStock, StatusInStock:
		return true
	}
	return false
}

// Rank orders statuses from most to least urgent for sorting
func (s StockStatus) Rank() int {
	switch s {
	case StatusOutOfStock:
		return 0
	case StatusLowStock:
		return 1
	default:
		return 2
	}
}

// Classify derives the stock status from quantity on hand and reorder point.
// A quantity at or below zero is out of stock, a positive quantity up to and
// including the reorder point is low, anything above it is in stock.
func Classify(quantity, reorderPoint decimal.Decimal) StockStatus {
	switch {
	case quantity.LessThanOrEqual(decimal.Zero):
		return StatusOutOfStock
	case quantity.LessThanOrEqual(reorderPoint):
		return StatusLowStock
	default:
		return StatusInStock
	}
}

// ReorderQuantity suggests how much to order to refill up to maxStock.
// It is zero unless the quantity has fallen to the reorder point, and never negative.
func ReorderQuantity(maxStock, quantity, reorderPoint decimal.Decimal) decimal.Decimal {
	if quantity.GreaterThan(reorderPoint) {
		return decimal.Zero
	}
	return decimal.Max(decimal.Zero, maxStock.Sub(quantity))
}

// Item is an inventory item as returned by the backend
type Item struct {
	ID             string          `json:"id" yaml:"id" validate:"required"`
	SKU            string          `json:"sku" yaml:"sku"`
	Name           string          `json:"name" yaml:"name" validate:"required,max=200"`
	Description    string          `json:"description,omitempty" yaml:"description,omitempty"`
	Category       string          `json:"category,omitempty" yaml:"category,omitempty"`
	QuantityOnHand decimal.Decimal `json:"quantity_on_hand" yaml:"quantity_on_hand"`
	ReorderPoint   decimal.Decimal `json:"reorder_point" yaml:"reorder_point"`
	MaxStock       decimal.Decimal `json:"max_stock" yaml:"max_stock"`
	UnitCost       decimal.Decimal `json:"unit_cost" yaml:"unit_cost"`
	UnitPrice      decimal.Decimal `json:"unit_price" yaml:"unit_price"`
	LocationID     string          `json:"location_id,omitempty" yaml:"location_id,omitempty"`
	VendorID       string          `json:"vendor_id,omitempty" yaml:"vendor_id,omitempty"`
	IsActive       bool            `json:"is_active" yaml:"is_active"`
	UpdatedAt      time.Time       `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// ItemInput is the payload for creating or updating an item
type ItemInput struct {
	SKU          string          `json:"sku" validate:"required,max=50"`
	Name         string          `json:"name" validate:"required,max=200"`
	Description  string          `json:"description,omitempty" validate:"max=2000"`
	Category     string          `json:"category,omitempty"`
	Quantity     decimal.Decimal `json:"quantity_on_hand"`
	ReorderPoint decimal.Decimal `json:"reorder_point"`
	MaxStock     decimal.Decimal `json:"max_stock"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	LocationID   string          `json:"location_id,omitempty"`
	VendorID     string          `json:"vendor_id,omitempty"`
}

// ItemView is the derived projection of an Item shown on the inventory screen.
// It is rebuilt from the Item on every load, never edited in place.
type ItemView struct {
	Item
	TotalValue       decimal.Decimal
	Status           StockStatus
	SuggestedReorder decimal.Decimal
}

// NewItemView derives the display fields of an item
func NewItemView(item Item) ItemView {
	return ItemView{
		Item:             item,
		TotalValue:       item.QuantityOnHand.Mul(item.UnitCost),
		Status:           Classify(item.QuantityOnHand, item.ReorderPoint),
		SuggestedReorder: ReorderQuantity(item.MaxStock, item.QuantityOnHand, item.ReorderPoint),
	}
}

// NewItemViews derives views for a list of items
func NewItemViews(items []Item) []ItemView {
	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, NewItemView(item))
	}
	return views
}

// ValueMoney returns the item's total value as Money
func (v ItemView) ValueMoney() valueobject.Money {
	return valueobject.USDollars(v.TotalValue)
}

// NeedsReorder reports whether the item has hit its reorder point
func (v ItemView) NeedsReorder() bool {
	return v.Status != StatusInStock
}
