package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/erp/books/internal/domain/inventory"
	"github.com/erp/books/internal/domain/shared"
)

const resourceInventory = "inventory"

// InventoryService calls the /inventory endpoints
type InventoryService struct {
	c *Client
}

// Inventory returns the inventory service
func (c *Client) Inventory() *InventoryService {
	return &InventoryService{c: c}
}

func (s *InventoryService) path(companyID string, parts ...string) string {
	return companyPath(companyID, append([]string{"inventory"}, parts...)...)
}

// ListItems returns one page of inventory items
func (s *InventoryService) ListItems(ctx context.Context, companyID string, params ItemParams) (shared.Paginated[inventory.Item], error) {
	if err := requireID("company", companyID); err != nil {
		return shared.Paginated[inventory.Item]{}, err
	}
	return getList[inventory.Item](ctx, s.c, resourceInventory, s.path(companyID, "items"), params.Query())
}

// GetItem returns an inventory item by ID
func (s *InventoryService) GetItem(ctx context.Context, companyID, itemID string) (inventory.Item, error) {
	if err := requireIDs("company", companyID, "item", itemID); err != nil {
		return inventory.Item{}, err
	}
	return getOne[inventory.Item](ctx, s.c, resourceInventory, s.path(companyID, "items", itemID), nil)
}

// CreateItem creates an inventory item
func (s *InventoryService) CreateItem(ctx context.Context, companyID string, in inventory.ItemInput) (inventory.Item, error) {
	if err := requireID("company", companyID); err != nil {
		return inventory.Item{}, err
	}
	return call[inventory.Item](ctx, s.c, Request{Method: http.MethodPost, Path: s.path(companyID, "items"), Body: in, Resource: resourceInventory})
}

// UpdateItem replaces an inventory item's editable fields
func (s *InventoryService) UpdateItem(ctx context.Context, companyID, itemID string, in inventory.ItemInput) (inventory.Item, error) {
	if err := requireIDs("company", companyID, "item", itemID); err != nil {
		return inventory.Item{}, err
	}
	return call[inventory.Item](ctx, s.c, Request{Method: http.MethodPut, Path: s.path(companyID, "items", itemID), Body: in, Resource: resourceInventory})
}

// DeleteItem removes an inventory item
func (s *InventoryService) DeleteItem(ctx context.Context, companyID, itemID string) error {
	if err := requireIDs("company", companyID, "item", itemID); err != nil {
		return err
	}
	return s.c.Do(ctx, Request{Method: http.MethodDelete, Path: s.path(companyID, "items", itemID), Resource: resourceInventory}, nil)
}

// Adjust records a quantity adjustment
func (s *InventoryService) Adjust(ctx context.Context, companyID string, in inventory.AdjustmentInput) (inventory.Adjustment, error) {
	if err := requireID("company", companyID); err != nil {
		return inventory.Adjustment{}, err
	}
	return call[inventory.Adjustment](ctx, s.c, Request{Method: http.MethodPost, Path: s.path(companyID, "adjustments"), Body: in, Resource: resourceInventory})
}

// Adjustments lists past adjustments
func (s *InventoryService) Adjustments(ctx context.Context, companyID string, params TransactionParams) (shared.Paginated[inventory.Adjustment], error) {
	if err := requireID("company", companyID); err != nil {
		return shared.Paginated[inventory.Adjustment]{}, err
	}
	return getList[inventory.Adjustment](ctx, s.c, resourceInventory, s.path(companyID, "adjustments"), params.Query())
}

// Locations lists stock locations
func (s *InventoryService) Locations(ctx context.Context, companyID string) (shared.Paginated[inventory.Location], error) {
	if err := requireID("company", companyID); err != nil {
		return shared.Paginated[inventory.Location]{}, err
	}
	return getList[inventory.Location](ctx, s.c, resourceInventory, s.path(companyID, "locations"), nil)
}

// CreateLocation creates a stock location
func (s *InventoryService) CreateLocation(ctx context.Context, companyID string, in inventory.LocationInput) (inventory.Location, error) {
	if err := requireID("company", companyID); err != nil {
		return inventory.Location{}, err
	}
	return call[inventory.Location](ctx, s.c, Request{Method: http.MethodPost, Path: s.path(companyID, "locations"), Body: in, Resource: resourceInventory})
}

// UpdateLocation replaces a stock location
func (s *InventoryService) UpdateLocation(ctx context.Context, companyID, locationID string, in inventory.LocationInput) (inventory.Location, error) {
	if err := requireIDs("company", companyID, "location", locationID); err != nil {
		return inventory.Location{}, err
	}
	return call[inventory.Location](ctx, s.c, Request{Method: http.MethodPut, Path: s.path(companyID, "locations", locationID), Body: in, Resource: resourceInventory})
}

// DeleteLocation removes a stock location
func (s *InventoryService) DeleteLocation(ctx context.Context, companyID, locationID string) error {
	if err := requireIDs("company", companyID, "location", locationID); err != nil {
		return err
	}
	return s.c.Do(ctx, Request{Method: http.MethodDelete, Path: s.path(companyID, "locations", locationID), Resource: resourceInventory}, nil)
}

// Transactions lists the stock ledger
func (s *InventoryService) Transactions(ctx context.Context, companyID string, params TransactionParams) (shared.Paginated[inventory.Transaction], error) {
	if err := requireID("company", companyID); err != nil {
		return shared.Paginated[inventory.Transaction]{}, err
	}
	return getList[inventory.Transaction](ctx, s.c, resourceInventory, s.path(companyID, "transactions"), params.Query())
}

// Assemblies lists assembly definitions
func (s *InventoryService) Assemblies(ctx context.Context, companyID string) (shared.Paginated[inventory.Assembly], error) {
	if err := requireID("company", companyID); err != nil {
		return shared.Paginated[inventory.Assembly]{}, err
	}
	return getList[inventory.Assembly](ctx, s.c, resourceInventory, s.path(companyID, "assemblies"), nil)
}

// CreateAssembly defines a new assembly
func (s *InventoryService) CreateAssembly(ctx context.Context, companyID string, in inventory.AssemblyInput) (inventory.Assembly, error) {
	if err := requireID("company", companyID); err != nil {
		return inventory.Assembly{}, err
	}
	return call[inventory.Assembly](ctx, s.c, Request{Method: http.MethodPost, Path: s.path(companyID, "assemblies"), Body: in, Resource: resourceInventory})
}

// BuildAssembly consumes components to build finished units
func (s *InventoryService) BuildAssembly(ctx context.Context, companyID, assemblyID string, in inventory.BuildInput) error {
	if err := requireIDs("company", companyID, "assembly", assemblyID); err != nil {
		return err
	}
	return s.c.Do(ctx, Request{Method: http.MethodPost, Path: s.path(companyID, "assemblies", assemblyID, "build"), Body: in, Resource: resourceInventory}, nil)
}

// Reorder returns the backend's reorder suggestions
func (s *InventoryService) Reorder(ctx context.Context, companyID string) (shared.Paginated[inventory.ReorderSuggestion], error) {
	if err := requireID("company", companyID); err != nil {
		return shared.Paginated[inventory.ReorderSuggestion]{}, err
	}
	return getList[inventory.ReorderSuggestion](ctx, s.c, resourceInventory, s.path(companyID, "reorder"), nil)
}

// Receipts lists goods receipts
func (s *InventoryService) Receipts(ctx context.Context, companyID string, params ListParams) (shared.Paginated[inventory.Receipt], error) {
	if err := requireID("company", companyID); err != nil {
		return shared.Paginated[inventory.Receipt]{}, err
	}
	return getList[inventory.Receipt](ctx, s.c, resourceInventory, s.path(companyID, "receipts"), params.apply(NewQuery()))
}

// CreateReceipt records received goods
func (s *InventoryService) CreateReceipt(ctx context.Context, companyID string, in inventory.ReceiptInput) (inventory.Receipt, error) {
	if err := requireID("company", companyID); err != nil {
		return inventory.Receipt{}, err
	}
	return call[inventory.Receipt](ctx, s.c, Request{Method: http.MethodPost, Path: s.path(companyID, "receipts"), Body: in, Resource: resourceInventory})
}

// Valuation returns the backend-computed stock valuation
func (s *InventoryService) Valuation(ctx context.Context, companyID string) (inventory.Valuation, error) {
	if err := requireID("company", companyID); err != nil {
		return inventory.Valuation{}, err
	}
	return getOne[inventory.Valuation](ctx, s.c, resourceInventory, s.path(companyID, "valuation"), nil)
}

// Export returns the inventory export file as raw bytes
func (s *InventoryService) Export(ctx context.Context, companyID, format string) ([]byte, error) {
	if err := requireID("company", companyID); err != nil {
		return nil, err
	}
	var data []byte
	err := s.c.Do(ctx, Request{
		Method:   http.MethodGet,
		Path:     s.path(companyID, "export"),
		Query:    NewQuery().Set("format", format),
		Resource: resourceInventory,
	}, &data)
	return data, err
}

// Import uploads an inventory file as a multipart form
func (s *InventoryService) Import(ctx context.Context, companyID, filename string, data []byte) (inventory.ImportResult, error) {
	if err := requireID("company", companyID); err != nil {
		return inventory.ImportResult{}, err
	}
	body, contentType, err := multipartFile("file", filename, data)
	if err != nil {
		return inventory.ImportResult{}, err
	}
	var out inventory.ImportResult
	err = s.c.Do(ctx, Request{
		Method:      http.MethodPost,
		Path:        s.path(companyID, "import"),
		RawBody:     body,
		ContentType: contentType,
		Resource:    resourceInventory,
	}, &out)
	return out, err
}

// multipartFile encodes a single file field
func multipartFile(field, filename string, data []byte) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return nil, "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", fmt.Errorf("writing form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart writer: %w", err)
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
