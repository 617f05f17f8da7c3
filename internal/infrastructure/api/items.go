package api

import (
	"context"
	"net/http"

	"github.com/erp/books/internal/domain/inventory"
	"github.com/erp/books/internal/domain/shared"
)

const resourceItems = "items"

// ItemService calls the product and service item endpoints under /items
type ItemService struct {
	c *Client
}

// Items returns the item service
func (c *Client) Items() *ItemService {
	return &ItemService{c: c}
}

// List returns one page of items
func (s *ItemService) List(ctx context.Context, companyID string, params ItemParams) (shared.Paginated[inventory.Item], error) {
	if err := requireID("company", companyID); err != nil {
		return shared.Paginated[inventory.Item]{}, err
	}
	return getList[inventory.Item](ctx, s.c, resourceItems, companyPath(companyID, "items"), params.Query())
}

// Get returns an item by ID
func (s *ItemService) Get(ctx context.Context, companyID, itemID string) (inventory.Item, error) {
	if err := requireIDs("company", companyID, "item", itemID); err != nil {
		return inventory.Item{}, err
	}
	return getOne[inventory.Item](ctx, s.c, resourceItems, companyPath(companyID, "items", itemID), nil)
}

// Create creates an item
func (s *ItemService) Create(ctx context.Context, companyID string, in inventory.ItemInput) (inventory.Item, error) {
	if err := requireID("company", companyID); err != nil {
		return inventory.Item{}, err
	}
	return call[inventory.Item](ctx, s.c, Request{
		Method:   http.MethodPost,
		Path:     companyPath(companyID, "items"),
		Body:     in,
		Resource: resourceItems,
	})
}

// Update replaces an item's editable fields
func (s *ItemService) Update(ctx context.Context, companyID, itemID string, in inventory.ItemInput) (inventory.Item, error) {
	if err := requireIDs("company", companyID, "item", itemID); err != nil {
		return inventory.Item{}, err
	}
	return call[inventory.Item](ctx, s.c, Request{
		Method:   http.MethodPut,
		Path:     companyPath(companyID, "items", itemID),
		Body:     in,
		Resource: resourceItems,
	})
}

// Delete removes an item
func (s *ItemService) Delete(ctx context.Context, companyID, itemID string) error {
	if err := requireIDs("company", companyID, "item", itemID); err != nil {
		return err
	}
	return s.c.Do(ctx, Request{
		Method:   http.MethodDelete,
		Path:     companyPath(companyID, "items", itemID),
		Resource: resourceItems,
	}, nil)
}
