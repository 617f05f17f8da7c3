package purchasing

import (
	"time"

	"github.com/erp/books/internal/domain/purchasing"
	"github.com/erp/books/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// fallbackData is shown when the order list cannot be loaded
func fallbackData() Data {
	day := time.Now().Truncate(24 * time.Hour)
	orders := []purchasing.PurchaseOrder{
		{
			ID: "sample-po-1", Number: "PO-1001", VendorID: "sample-vendor", VendorName: "Sample Supplies",
			Status: purchasing.StatusDraft, OrderDate: day,
			Lines: []purchasing.LineItem{{Description: "Printer paper", Quantity: decimal.NewFromInt(10), UnitCost: decimal.RequireFromString("5.50")}},
		},
		{
			ID: "sample-po-2", Number: "PO-1002", VendorID: "sample-vendor", VendorName: "Sample Supplies",
			Status: purchasing.StatusSent, OrderDate: day.AddDate(0, 0, -7),
			Lines: []purchasing.LineItem{{Description: "Toner", Quantity: decimal.NewFromInt(2), UnitCost: decimal.RequireFromString("89.00")}},
		},
	}
	return buildData(shared.NewPaginated(orders, int64(len(orders)), 1, len(orders)), nil, nil)
}
