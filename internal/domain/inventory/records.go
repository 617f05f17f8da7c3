package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdjustmentReason classifies a manual stock adjustment
type AdjustmentReason string

const (
	ReasonCount    AdjustmentReason = "count"
	ReasonDamage   AdjustmentReason = "damage"
	ReasonLoss     AdjustmentReason = "loss"
	ReasonReturn   AdjustmentReason = "return"
	ReasonTransfer AdjustmentReason = "transfer"
	ReasonOther    AdjustmentReason = "other"
)

// IsValid checks if the reason is a known value
func (r AdjustmentReason) IsValid() bool {
	switch r {
	case ReasonCount, ReasonDamage, ReasonLoss, ReasonReturn, ReasonTransfer, ReasonOther:
		return true
	}
	return false
}

// AdjustmentInput is the payload for a stock adjustment. QuantityChange is a
// signed delta applied by the backend.
type AdjustmentInput struct {
	ItemID         string           `json:"item_id" validate:"required"`
	QuantityChange decimal.Decimal  `json:"quantity_change"`
	Reason         AdjustmentReason `json:"reason" validate:"required,oneof=count damage loss return transfer other"`
	LocationID     string           `json:"location_id,omitempty"`
	Memo           string           `json:"memo,omitempty" validate:"max=500"`
}

// Adjustment is a recorded stock adjustment
type Adjustment struct {
	ID             string           `json:"id" validate:"required"`
	ItemID         string           `json:"item_id" validate:"required"`
	QuantityChange decimal.Decimal  `json:"quantity_change"`
	Reason         AdjustmentReason `json:"reason"`
	Memo           string           `json:"memo,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}

// Location is a place inventory is stored
type Location struct {
	ID        string `json:"id" validate:"required"`
	Name      string `json:"name" validate:"required"`
	Address   string `json:"address,omitempty"`
	IsDefault bool   `json:"is_default"`
}

// LocationInput is the payload for creating or updating a location
type LocationInput struct {
	Name      string `json:"name" validate:"required,max=100"`
	Address   string `json:"address,omitempty" validate:"max=500"`
	IsDefault bool   `json:"is_default"`
}

// Transaction is a single movement in the inventory ledger
type Transaction struct {
	ID           string          `json:"id" validate:"required"`
	ItemID       string          `json:"item_id" validate:"required"`
	Type         string          `json:"type" validate:"required"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	ReferenceID  string          `json:"reference_id,omitempty"`
	OccurredAt   time.Time       `json:"occurred_at"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
}

// AssemblyComponent is one input of an assembly
type AssemblyComponent struct {
	ItemID   string          `json:"item_id" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
}

// Assembly is a build definition producing one item from components
type Assembly struct {
	ID         string              `json:"id" validate:"required"`
	ItemID     string              `json:"item_id" validate:"required"`
	Name       string              `json:"name"`
	Components []AssemblyComponent `json:"components" validate:"dive"`
}

// AssemblyInput is the payload for creating an assembly
type AssemblyInput struct {
	ItemID     string              `json:"item_id" validate:"required"`
	Name       string              `json:"name" validate:"required"`
	Components []AssemblyComponent `json:"components" validate:"required,min=1,dive"`
}

// BuildInput requests building a number of assemblies
type BuildInput struct {
	Quantity   decimal.Decimal `json:"quantity"`
	LocationID string          `json:"location_id,omitempty"`
}

// ReorderSuggestion is a backend-computed reorder line
type ReorderSuggestion struct {
	ItemID            string          `json:"item_id" validate:"required"`
	ItemName          string          `json:"item_name"`
	VendorID          string          `json:"vendor_id,omitempty"`
	QuantityOnHand    decimal.Decimal `json:"quantity_on_hand"`
	ReorderPoint      decimal.Decimal `json:"reorder_point"`
	SuggestedQuantity decimal.Decimal `json:"suggested_quantity"`
}

// LocalReorderSuggestions derives reorder lines from loaded views, used when
// the backend reorder endpoint is unavailable.
func LocalReorderSuggestions(views []ItemView) []ReorderSuggestion {
	var out []ReorderSuggestion
	for _, v := range views {
		if !v.SuggestedReorder.IsPositive() {
			continue
		}
		out = append(out, ReorderSuggestion{
			ItemID:            v.ID,
			ItemName:          v.Name,
			VendorID:          v.VendorID,
			QuantityOnHand:    v.QuantityOnHand,
			ReorderPoint:      v.ReorderPoint,
			SuggestedQuantity: v.SuggestedReorder,
		})
	}
	return out
}

// ReceiptLine is one received item on a receipt
type ReceiptLine struct {
	ItemID   string          `json:"item_id" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// Receipt records goods received into inventory
type Receipt struct {
	ID              string        `json:"id" validate:"required"`
	PurchaseOrderID string        `json:"purchase_order_id,omitempty"`
	ReceivedAt      time.Time     `json:"received_at"`
	Lines           []ReceiptLine `json:"lines" validate:"dive"`
}

// ReceiptInput is the payload for recording a receipt
type ReceiptInput struct {
	PurchaseOrderID string        `json:"purchase_order_id,omitempty"`
	LocationID      string        `json:"location_id,omitempty"`
	Lines           []ReceiptLine `json:"lines" validate:"required,min=1,dive"`
}

// Valuation is the backend's authoritative inventory summary
type Valuation struct {
	ItemCount       int             `json:"item_count"`
	TotalQuantity   decimal.Decimal `json:"total_quantity"`
	TotalValue      decimal.Decimal `json:"total_value"`
	LowStockCount   int             `json:"low_stock_count"`
	OutOfStockCount int             `json:"out_of_stock_count"`
	Method          string          `json:"method,omitempty"`
	AsOf            time.Time       `json:"as_of"`
}

// ImportResult reports the outcome of a bulk item import
type ImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}
