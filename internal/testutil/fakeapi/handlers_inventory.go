package fakeapi

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/erp/books/internal/domain/inventory"
	"github.com/erp/books/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// exportColumns is the CSV layout of inventory export and import
var exportColumns = []string{"sku", "name", "category", "quantity_on_hand", "reorder_point", "max_stock", "unit_cost", "unit_price"}

func (s *Server) listItems(c *gin.Context) {
	rows := data(c).items.all()
	category, status := c.Query("category"), c.Query("status")
	location, vendor := c.Query("location_id"), c.Query("vendor_id")
	rows = slices.DeleteFunc(rows, func(it inventory.Item) bool {
		switch {
		case category != "" && !strings.EqualFold(it.Category, category),
			status != "" && !strings.EqualFold(string(inventory.Classify(it.QuantityOnHand, it.ReorderPoint)), status),
			location != "" && it.LocationID != location,
			vendor != "" && it.VendorID != vendor:
			return true
		}
		return false
	})
	paginate(c, rows, func(it inventory.Item) string { return it.SKU + " " + it.Name + " " + it.Category })
}

func (s *Server) getItem(c *gin.Context) {
	it, ok := data(c).items.get(c.Param("id"))
	if !ok {
		notFound(c, "item")
		return
	}
	c.JSON(http.StatusOK, it)
}

func (s *Server) createItem(c *gin.Context) {
	var in inventory.ItemInput
	if !bind(c, &in) {
		return
	}
	d := data(c)
	if !s.check(c, in) {
		return
	}
	if _, dup := d.itemBySKU(in.SKU); dup {
		conflict(c, fmt.Sprintf("SKU %s already exists", in.SKU))
		return
	}
	it := itemFrom(uuid.NewString(), in)
	it.UpdatedAt = s.opts.Now()
	d.items.put(it.ID, it)
	statusCreated(c, it)
}

func (s *Server) updateItem(c *gin.Context) {
	d := data(c)
	existing, ok := d.items.get(c.Param("id"))
	if !ok {
		notFound(c, "item")
		return
	}
	var in inventory.ItemInput
	if !bind(c, &in) {
		return
	}
	if !s.check(c, in) {
		return
	}
	if other, dup := d.itemBySKU(in.SKU); dup && other.ID != existing.ID {
		conflict(c, fmt.Sprintf("SKU %s already exists", in.SKU))
		return
	}
	it := itemFrom(existing.ID, in)
	it.IsActive = existing.IsActive
	it.UpdatedAt = s.opts.Now()
	d.items.put(it.ID, it)
	c.JSON(http.StatusOK, it)
}

func (s *Server) deleteItem(c *gin.Context) {
	if !data(c).items.remove(c.Param("id")) {
		notFound(c, "item")
		return
	}
	c.Status(http.StatusNoContent)
}

func itemFrom(id string, in inventory.ItemInput) inventory.Item {
	return inventory.Item{
		ID:             id,
		SKU:            in.SKU,
		Name:           in.Name,
		Description:    in.Description,
		Category:       in.Category,
		QuantityOnHand: in.Quantity,
		ReorderPoint:   in.ReorderPoint,
		MaxStock:       in.MaxStock,
		UnitCost:       in.UnitCost,
		UnitPrice:      in.UnitPrice,
		LocationID:     in.LocationID,
		VendorID:       in.VendorID,
		IsActive:       true,
	}
}

func (s *Server) listAdjustments(c *gin.Context) {
	rows := slices.Clone(data(c).adjustments)
	if itemID := c.Query("item_id"); itemID != "" {
		rows = slices.DeleteFunc(rows, func(a inventory.Adjustment) bool { return a.ItemID != itemID })
	}
	paginate(c, rows, func(a inventory.Adjustment) string { return a.Memo })
}

func (s *Server) adjust(c *gin.Context) {
	var in inventory.AdjustmentInput
	if !bind(c, &in) {
		return
	}
	if !s.check(c, in, func() error {
		if in.QuantityChange.IsZero() {
			return shared.NewValidationError("quantity_change", "cannot be zero")
		}
		return nil
	}) {
		return
	}
	d := data(c)
	a := inventory.Adjustment{
		ID:             uuid.NewString(),
		ItemID:         in.ItemID,
		QuantityChange: in.QuantityChange,
		Reason:         in.Reason,
		Memo:           in.Memo,
		CreatedAt:      s.opts.Now(),
	}
	if !d.moveStock(in.ItemID, "adjustment", a.ID, in.QuantityChange, a.CreatedAt) {
		notFound(c, "item")
		return
	}
	d.adjustments = append(d.adjustments, a)
	statusCreated(c, a)
}

func (s *Server) listLocations(c *gin.Context) {
	paginate(c, data(c).locations.all(), func(l inventory.Location) string { return l.Name })
}

func (s *Server) createLocation(c *gin.Context) {
	var in inventory.LocationInput
	if !bind(c, &in) || !s.check(c, in) {
		return
	}
	d := data(c)
	l := inventory.Location{ID: uuid.NewString(), Name: in.Name, Address: in.Address, IsDefault: in.IsDefault}
	d.putLocation(l)
	statusCreated(c, l)
}

func (s *Server) updateLocation(c *gin.Context) {
	d := data(c)
	id := c.Param("id")
	if _, ok := d.locations.get(id); !ok {
		notFound(c, "location")
		return
	}
	var in inventory.LocationInput
	if !bind(c, &in) || !s.check(c, in) {
		return
	}
	l := inventory.Location{ID: id, Name: in.Name, Address: in.Address, IsDefault: in.IsDefault}
	d.putLocation(l)
	c.JSON(http.StatusOK, l)
}

func (s *Server) deleteLocation(c *gin.Context) {
	d := data(c)
	id := c.Param("id")
	l, ok := d.locations.get(id)
	if !ok {
		notFound(c, "location")
		return
	}
	if l.IsDefault {
		conflict(c, "the default location cannot be deleted")
		return
	}
	for _, it := range d.items.all() {
		if it.LocationID == id {
			conflict(c, "location still holds items")
			return
		}
	}
	d.locations.remove(id)
	c.Status(http.StatusNoContent)
}

// putLocation stores l, keeping a single default location
func (d *companyData) putLocation(l inventory.Location) {
	if l.IsDefault {
		for _, other := range d.locations.all() {
			if other.ID != l.ID && other.IsDefault {
				other.IsDefault = false
				d.locations.put(other.ID, other)
			}
		}
	}
	d.locations.put(l.ID, l)
}

func (s *Server) listTransactions(c *gin.Context) {
	rows := slices.Clone(data(c).transactions)
	itemID, kind := c.Query("item_id"), c.Query("type")
	rows = slices.DeleteFunc(rows, func(t inventory.Transaction) bool {
		return (itemID != "" && t.ItemID != itemID) || (kind != "" && t.Type != kind)
	})
	paginate(c, rows, func(t inventory.Transaction) string { return t.ReferenceID })
}

func (s *Server) listAssemblies(c *gin.Context) {
	paginate(c, data(c).assemblies.all(), func(a inventory.Assembly) string { return a.Name })
}

func (s *Server) createAssembly(c *gin.Context) {
	var in inventory.AssemblyInput
	if !bind(c, &in) {
		return
	}
	d := data(c)
	if !s.check(c, in, func() error {
		if _, ok := d.items.get(in.ItemID); !ok {
			return shared.NewValidationError("item_id", "does not match an item")
		}
		for _, comp := range in.Components {
			if _, ok := d.items.get(comp.ItemID); !ok {
				return shared.NewValidationError("components", "reference an unknown item")
			}
		}
		return nil
	}) {
		return
	}
	a := inventory.Assembly{ID: uuid.NewString(), ItemID: in.ItemID, Name: in.Name, Components: in.Components}
	d.assemblies.put(a.ID, a)
	statusCreated(c, a)
}

// buildAssembly consumes components and adds finished units. It refuses the
// whole build when any component would go negative.
func (s *Server) buildAssembly(c *gin.Context) {
	d := data(c)
	a, ok := d.assemblies.get(c.Param("id"))
	if !ok {
		notFound(c, "assembly")
		return
	}
	var in inventory.BuildInput
	if !bind(c, &in) {
		return
	}
	if !in.Quantity.IsPositive() {
		invalid(c, shared.NewValidationError("quantity", "must be positive"))
		return
	}
	for _, comp := range a.Components {
		it, _ := d.items.get(comp.ItemID)
		if it.QuantityOnHand.LessThan(comp.Quantity.Mul(in.Quantity)) {
			conflict(c, fmt.Sprintf("not enough %s on hand", it.Name))
			return
		}
	}
	now := s.opts.Now()
	for _, comp := range a.Components {
		d.moveStock(comp.ItemID, "assembly_consume", a.ID, comp.Quantity.Mul(in.Quantity).Neg(), now)
	}
	d.moveStock(a.ItemID, "assembly_build", a.ID, in.Quantity, now)
	c.Status(http.StatusNoContent)
}

func (s *Server) reorder(c *gin.Context) {
	rows := inventory.LocalReorderSuggestions(inventory.NewItemViews(data(c).items.all()))
	paginate(c, rows, func(r inventory.ReorderSuggestion) string { return r.ItemName })
}

func (s *Server) listReceipts(c *gin.Context) {
	paginate(c, data(c).receipts.all(), func(r inventory.Receipt) string { return r.PurchaseOrderID })
}

func (s *Server) createReceipt(c *gin.Context) {
	var in inventory.ReceiptInput
	if !bind(c, &in) {
		return
	}
	d := data(c)
	if !s.check(c, in, func() error {
		for _, l := range in.Lines {
			if _, ok := d.items.get(l.ItemID); !ok {
				return shared.NewValidationError("lines", "reference an unknown item")
			}
			if !l.Quantity.IsPositive() {
				return shared.NewValidationError("lines", "quantities must be positive")
			}
		}
		return nil
	}) {
		return
	}
	r := inventory.Receipt{ID: uuid.NewString(), PurchaseOrderID: in.PurchaseOrderID, ReceivedAt: s.opts.Now(), Lines: in.Lines}
	for _, l := range in.Lines {
		d.moveStock(l.ItemID, "receipt", r.ID, l.Quantity, r.ReceivedAt)
	}
	d.receipts.put(r.ID, r)
	statusCreated(c, r)
}

func (s *Server) valuation(c *gin.Context) {
	d := data(c)
	v := inventory.Valuation{
		TotalQuantity: decimal.Zero,
		TotalValue:    decimal.Zero,
		Method:        d.settings.InventoryMethod,
		AsOf:          s.opts.Now(),
	}
	for _, it := range d.items.all() {
		v.ItemCount++
		v.TotalQuantity = v.TotalQuantity.Add(it.QuantityOnHand)
		v.TotalValue = v.TotalValue.Add(it.QuantityOnHand.Mul(it.UnitCost))
		switch inventory.Classify(it.QuantityOnHand, it.ReorderPoint) {
		case inventory.StatusOutOfStock:
			v.OutOfStockCount++
		case inventory.StatusLowStock:
			v.LowStockCount++
		}
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) exportItems(c *gin.Context) {
	items := data(c).items.all()
	switch format := strings.ToLower(c.DefaultQuery("format", "csv")); format {
	case "csv":
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		_ = w.Write(exportColumns)
		for _, it := range items {
			_ = w.Write([]string{
				it.SKU, it.Name, it.Category,
				it.QuantityOnHand.String(), it.ReorderPoint.String(), it.MaxStock.String(),
				it.UnitCost.String(), it.UnitPrice.String(),
			})
		}
		w.Flush()
		c.Data(http.StatusOK, "text/csv", buf.Bytes())
	case "json":
		out, _ := json.Marshal(items)
		c.Data(http.StatusOK, "application/json", out)
	case "yaml":
		out, err := yaml.Marshal(items)
		if err != nil {
			fail(c, http.StatusInternalServerError, CodeInternal, err.Error())
			return
		}
		c.Data(http.StatusOK, "application/yaml", out)
	default:
		fail(c, http.StatusBadRequest, CodeBadRequest, "unsupported export format "+format)
	}
}

// importItems upserts items by SKU from an uploaded CSV in the export layout.
// Rows that do not parse are skipped and reported.
func (s *Server) importItems(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, "file is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		invalid(c, shared.NewValidationError("file", "has no header row"))
		return
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"sku", "name"} {
		if _, ok := col[required]; !ok {
			invalid(c, shared.NewValidationError("file", "is missing the "+required+" column"))
			return
		}
	}

	d := data(c)
	var result inventory.ImportResult
	for line := 2; ; line++ {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		in, err := importRow(rec, col)
		if err == nil {
			err = s.validator.Struct(in)
		}
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		if existing, ok := d.itemBySKU(in.SKU); ok {
			it := itemFrom(existing.ID, in)
			it.UpdatedAt = s.opts.Now()
			d.items.put(it.ID, it)
			result.Updated++
			continue
		}
		it := itemFrom(uuid.NewString(), in)
		it.UpdatedAt = s.opts.Now()
		d.items.put(it.ID, it)
		result.Created++
	}
	c.JSON(http.StatusOK, result)
}

func importRow(rec []string, col map[string]int) (inventory.ItemInput, error) {
	field := func(name string) string {
		if i, ok := col[name]; ok && i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}
	number := func(name string) (decimal.Decimal, error) {
		raw := field(name)
		if raw == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%s: %q is not a number", name, raw)
		}
		return d, nil
	}

	in := inventory.ItemInput{SKU: field("sku"), Name: field("name"), Category: field("category")}
	for name, dst := range map[string]*decimal.Decimal{
		"quantity_on_hand": &in.Quantity,
		"reorder_point":    &in.ReorderPoint,
		"max_stock":        &in.MaxStock,
		"unit_cost":        &in.UnitCost,
		"unit_price":       &in.UnitPrice,
	} {
		v, err := number(name)
		if err != nil {
			return in, err
		}
		*dst = v
	}
	return in, nil
}
