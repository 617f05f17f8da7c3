package api

import (
	"context"
	"net/http"

	"github.com/erp/books/internal/domain/purchasing"
	"github.com/erp/books/internal/domain/shared"
)

const resourcePurchaseOrders = "purchase_orders"

// PurchaseOrderService calls the purchase order endpoints
type PurchaseOrderService struct {
	c *Client
}

// PurchaseOrders returns the purchase order service
func (c *Client) PurchaseOrders() *PurchaseOrderService {
	return &PurchaseOrderService{c: c}
}

// List returns one page of purchase orders
func (s *PurchaseOrderService) List(ctx context.Context, companyID string, params OrderParams) (shared.Paginated[purchasing.PurchaseOrder], error) {
	if err := requireID("company", companyID); err != nil {
		return shared.Paginated[purchasing.PurchaseOrder]{}, err
	}
	return getList[purchasing.PurchaseOrder](ctx, s.c, resourcePurchaseOrders, companyPath(companyID, "purchase-orders"), params.Query())
}

// Get returns a purchase order by ID
func (s *PurchaseOrderService) Get(ctx context.Context, companyID, orderID string) (purchasing.PurchaseOrder, error) {
	if err := requireIDs("company", companyID, "purchase_order", orderID); err != nil {
		return purchasing.PurchaseOrder{}, err
	}
	return getOne[purchasing.PurchaseOrder](ctx, s.c, resourcePurchaseOrders, companyPath(companyID, "purchase-orders", orderID), nil)
}

// Create creates a draft purchase order
func (s *PurchaseOrderService) Create(ctx context.Context, companyID string, in purchasing.OrderInput) (purchasing.PurchaseOrder, error) {
	if err := requireID("company", companyID); err != nil {
		return purchasing.PurchaseOrder{}, err
	}
	return call[purchasing.PurchaseOrder](ctx, s.c, Request{
		Method:   http.MethodPost,
		Path:     companyPath(companyID, "purchase-orders"),
		Body:     in,
		Resource: resourcePurchaseOrders,
	})
}

// Update replaces a purchase order's lines and dates
func (s *PurchaseOrderService) Update(ctx context.Context, companyID, orderID string, in purchasing.OrderInput) (purchasing.PurchaseOrder, error) {
	if err := requireIDs("company", companyID, "purchase_order", orderID); err != nil {
		return purchasing.PurchaseOrder{}, err
	}
	return call[purchasing.PurchaseOrder](ctx, s.c, Request{
		Method:   http.MethodPut,
		Path:     companyPath(companyID, "purchase-orders", orderID),
		Body:     in,
		Resource: resourcePurchaseOrders,
	})
}

// UpdateStatus moves a purchase order to a new status
func (s *PurchaseOrderService) UpdateStatus(ctx context.Context, companyID, orderID string, status purchasing.Status) (purchasing.PurchaseOrder, error) {
	if err := requireIDs("company", companyID, "purchase_order", orderID); err != nil {
		return purchasing.PurchaseOrder{}, err
	}
	return call[purchasing.PurchaseOrder](ctx, s.c, Request{
		Method:   http.MethodPut,
		Path:     companyPath(companyID, "purchase-orders", orderID, "status"),
		Body:     purchasing.StatusUpdate{Status: status},
		Resource: resourcePurchaseOrders,
	})
}

// Delete removes a purchase order
func (s *PurchaseOrderService) Delete(ctx context.Context, companyID, orderID string) error {
	if err := requireIDs("company", companyID, "purchase_order", orderID); err != nil {
		return err
	}
	return s.c.Do(ctx, Request{
		Method:   http.MethodDelete,
		Path:     companyPath(companyID, "purchase-orders", orderID),
		Resource: resourcePurchaseOrders,
	}, nil)
}

// Email sends the purchase order to the given recipients
func (s *PurchaseOrderService) Email(ctx context.Context, companyID, orderID string, req purchasing.EmailRequest) error {
	if err := requireIDs("company", companyID, "purchase_order", orderID); err != nil {
		return err
	}
	return s.c.Do(ctx, Request{
		Method:   http.MethodPost,
		Path:     companyPath(companyID, "purchase-orders", orderID, "email"),
		Body:     req,
		Resource: resourcePurchaseOrders,
	}, nil)
}
