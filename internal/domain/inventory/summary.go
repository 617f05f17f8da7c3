package inventory

import (
	"sort"

	"github.com/shopspring/decimal"
)

// CategoryTotal is the value held in one item category
type CategoryTotal struct {
	Category string
	Items    int
	Value    decimal.Decimal
}

// Overview is the summary shown above the inventory list
type Overview struct {
	TotalItems      int
	TotalQuantity   decimal.Decimal
	TotalValue      decimal.Decimal
	LowStockCount   int
	OutOfStockCount int
	Categories      []CategoryTotal
	// CategoriesPartial is set when Categories covers fewer items than
	// TotalItems, e.g. only the loaded page.
	CategoriesPartial bool
	// Partial is set when the overview was reduced from a single loaded page
	// rather than reported by the backend for the whole inventory.
	Partial bool
}

// UncategorizedLabel groups items without a category
const UncategorizedLabel = "Uncategorized"

// Summarize reduces the given views into an overview. Values are summed at
// full precision; callers round only when presenting them.
func Summarize(views []ItemView) Overview {
	overview := Overview{
		TotalQuantity: decimal.Zero,
		TotalValue:    decimal.Zero,
	}
	byCategory := make(map[string]*CategoryTotal)

	for _, v := range views {
		overview.TotalItems++
		overview.TotalQuantity = overview.TotalQuantity.Add(v.QuantityOnHand)
		overview.TotalValue = overview.TotalValue.Add(v.TotalValue)

		switch v.Status {
		case StatusLowStock:
			overview.LowStockCount++
		case StatusOutOfStock:
			overview.OutOfStockCount++
		}

		category := v.Category
		if category == "" {
			category = UncategorizedLabel
		}
		ct, ok := byCategory[category]
		if !ok {
			ct = &CategoryTotal{Category: category, Value: decimal.Zero}
			byCategory[category] = ct
		}
		ct.Items++
		ct.Value = ct.Value.Add(v.TotalValue)
	}

	overview.Categories = make([]CategoryTotal, 0, len(byCategory))
	for _, ct := range byCategory {
		overview.Categories = append(overview.Categories, *ct)
	}
	sort.Slice(overview.Categories, func(i, j int) bool {
		return overview.Categories[i].Category < overview.Categories[j].Category
	})

	return overview
}

// FromValuation builds an overview from the backend valuation report, which is
// authoritative for the whole inventory. Category breakdown comes from views
// and is flagged partial when they are fewer than the valuation's items.
func FromValuation(valuation Valuation, views []ItemView) Overview {
	local := Summarize(views)
	return Overview{
		TotalItems:        valuation.ItemCount,
		TotalQuantity:     valuation.TotalQuantity,
		TotalValue:        valuation.TotalValue,
		LowStockCount:     valuation.LowStockCount,
		OutOfStockCount:   valuation.OutOfStockCount,
		Categories:        local.Categories,
		CategoriesPartial: local.TotalItems < valuation.ItemCount,
	}
}

// Categories returns the distinct category names present in the views
func Categories(views []ItemView) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, v := range views {
		if v.Category == "" {
			continue
		}
		if _, ok := seen[v.Category]; ok {
			continue
		}
		seen[v.Category] = struct{}{}
		out = append(out, v.Category)
	}
	sort.Strings(out)
	return out
}
