package api

import (
	"context"
	"net/http"

	"github.com/erp/books/internal/domain/billing"
	"github.com/erp/books/internal/domain/shared"
)

const resourceBills = "bills"

// BillService calls the vendor bill endpoints
type BillService struct {
	c *Client
}

// Bills returns the bill service
func (c *Client) Bills() *BillService {
	return &BillService{c: c}
}

// List returns one page of bills
func (s *BillService) List(ctx context.Context, companyID string, params BillParams) (shared.Paginated[billing.Bill], error) {
	if err := requireID("company", companyID); err != nil {
		return shared.Paginated[billing.Bill]{}, err
	}
	return getList[billing.Bill](ctx, s.c, resourceBills, companyPath(companyID, "bills"), params.Query())
}

// Get returns a bill by ID
func (s *BillService) Get(ctx context.Context, companyID, billID string) (billing.Bill, error) {
	if err := requireIDs("company", companyID, "bill", billID); err != nil {
		return billing.Bill{}, err
	}
	return getOne[billing.Bill](ctx, s.c, resourceBills, companyPath(companyID, "bills", billID), nil)
}

// Create enters a new bill
func (s *BillService) Create(ctx context.Context, companyID string, in billing.BillInput) (billing.Bill, error) {
	if err := requireID("company", companyID); err != nil {
		return billing.Bill{}, err
	}
	return call[billing.Bill](ctx, s.c, Request{
		Method:   http.MethodPost,
		Path:     companyPath(companyID, "bills"),
		Body:     in,
		Resource: resourceBills,
	})
}
