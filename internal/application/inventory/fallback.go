package inventory

import (
	"github.com/erp/books/internal/domain/inventory"
	"github.com/erp/books/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// fallbackData is the sample catalogue shown when the backend is unreachable
func fallbackData() Data {
	d := decimal.RequireFromString
	items := []inventory.Item{
		{ID: "sample-1", SKU: "WID-001", Name: "Widget", Category: "Hardware",
			QuantityOnHand: d("120"), ReorderPoint: d("25"), MaxStock: d("200"), UnitCost: d("4.50"), UnitPrice: d("9.99"), IsActive: true},
		{ID: "sample-2", SKU: "GAD-002", Name: "Gadget", Category: "Hardware",
			QuantityOnHand: d("8"), ReorderPoint: d("10"), MaxStock: d("60"), UnitCost: d("22.00"), UnitPrice: d("49.00"), IsActive: true},
		{ID: "sample-3", SKU: "CAB-003", Name: "USB Cable", Category: "Accessories",
			QuantityOnHand: d("0"), ReorderPoint: d("15"), MaxStock: d("100"), UnitCost: d("1.75"), UnitPrice: d("6.50"), IsActive: true},
	}
	views := inventory.NewItemViews(items)
	return Data{
		Items:    views,
		Page:     shared.Page{Page: 1, PageSize: len(views), Total: int64(len(views))},
		Overview: inventory.Summarize(views),
	}
}
