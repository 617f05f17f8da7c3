package api

import (
	"context"
	"net/http"

	"github.com/erp/books/internal/domain/partner"
	"github.com/erp/books/internal/domain/shared"
)

const resourceVendors = "vendors"

// VendorService calls the vendor endpoints
type VendorService struct {
	c *Client
}

// Vendors returns the vendor service
func (c *Client) Vendors() *VendorService {
	return &VendorService{c: c}
}

// List returns one page of vendors
func (s *VendorService) List(ctx context.Context, companyID string, params VendorParams) (shared.Paginated[partner.Vendor], error) {
	if err := requireID("company", companyID); err != nil {
		return shared.Paginated[partner.Vendor]{}, err
	}
	return getList[partner.Vendor](ctx, s.c, resourceVendors, companyPath(companyID, "vendors"), params.Query())
}

// Get returns a vendor by ID
func (s *VendorService) Get(ctx context.Context, companyID, vendorID string) (partner.Vendor, error) {
	if err := requireIDs("company", companyID, "vendor", vendorID); err != nil {
		return partner.Vendor{}, err
	}
	return getOne[partner.Vendor](ctx, s.c, resourceVendors, companyPath(companyID, "vendors", vendorID), nil)
}

// Create creates a vendor
func (s *VendorService) Create(ctx context.Context, companyID string, in partner.VendorInput) (partner.Vendor, error) {
	if err := requireID("company", companyID); err != nil {
		return partner.Vendor{}, err
	}
	return call[partner.Vendor](ctx, s.c, Request{
		Method:   http.MethodPost,
		Path:     companyPath(companyID, "vendors"),
		Body:     in,
		Resource: resourceVendors,
	})
}

// Update replaces a vendor's editable fields
func (s *VendorService) Update(ctx context.Context, companyID, vendorID string, in partner.VendorInput) (partner.Vendor, error) {
	if err := requireIDs("company", companyID, "vendor", vendorID); err != nil {
		return partner.Vendor{}, err
	}
	return call[partner.Vendor](ctx, s.c, Request{
		Method:   http.MethodPut,
		Path:     companyPath(companyID, "vendors", vendorID),
		Body:     in,
		Resource: resourceVendors,
	})
}

// Delete removes a vendor
func (s *VendorService) Delete(ctx context.Context, companyID, vendorID string) error {
	if err := requireIDs("company", companyID, "vendor", vendorID); err != nil {
		return err
	}
	return s.c.Do(ctx, Request{
		Method:   http.MethodDelete,
		Path:     companyPath(companyID, "vendors", vendorID),
		Resource: resourceVendors,
	}, nil)
}
