package fakeapi

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/erp/books/internal/domain/billing"
	"github.com/erp/books/internal/domain/company"
	"github.com/erp/books/internal/domain/partner"
	"github.com/erp/books/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (s *Server) getSettings(c *gin.Context) {
	c.JSON(http.StatusOK, data(c).settings)
}

func (s *Server) updateSettings(c *gin.Context) {
	var in company.Settings
	if !bind(c, &in) {
		return
	}
	d := data(c)
	in.ID = d.settings.ID
	if !s.check(c, in) {
		return
	}
	d.settings = in
	c.JSON(http.StatusOK, in)
}

func (s *Server) listVendors(c *gin.Context) {
	rows := data(c).vendors.all()
	if status := c.Query("status"); status != "" {
		rows = slices.DeleteFunc(rows, func(v partner.Vendor) bool { return string(v.Status) != status })
	}
	paginate(c, rows, func(v partner.Vendor) string { return v.Name + " " + v.CompanyName + " " + v.Email })
}

func (s *Server) getVendor(c *gin.Context) {
	v, ok := data(c).vendors.get(c.Param("id"))
	if !ok {
		notFound(c, "vendor")
		return
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) createVendor(c *gin.Context) {
	var in partner.VendorInput
	if !bind(c, &in) {
		return
	}
	in = in.Normalize()
	if !s.check(c, in) {
		return
	}
	v := vendorFrom(uuid.NewString(), in, s.opts.Now())
	if v.Status == "" {
		v.Status = partner.VendorStatusActive
	}
	data(c).vendors.put(v.ID, v)
	statusCreated(c, v)
}

func (s *Server) updateVendor(c *gin.Context) {
	d := data(c)
	existing, ok := d.vendors.get(c.Param("id"))
	if !ok {
		notFound(c, "vendor")
		return
	}
	var in partner.VendorInput
	if !bind(c, &in) {
		return
	}
	in = in.Normalize()
	if !s.check(c, in) {
		return
	}
	v := vendorFrom(existing.ID, in, existing.CreatedAt)
	v.Balance = existing.Balance
	if v.Status == "" {
		v.Status = existing.Status
	}
	d.vendors.put(v.ID, v)
	c.JSON(http.StatusOK, v)
}

// deleteVendor refuses vendors that still have money owed to them
func (s *Server) deleteVendor(c *gin.Context) {
	d := data(c)
	id := c.Param("id")
	if _, ok := d.vendors.get(id); !ok {
		notFound(c, "vendor")
		return
	}
	for _, b := range d.bills.all() {
		if b.VendorID == id && b.Status.IsOutstanding() {
			conflict(c, "vendor has outstanding bills")
			return
		}
	}
	d.vendors.remove(id)
	c.Status(http.StatusNoContent)
}

func vendorFrom(id string, in partner.VendorInput, created time.Time) partner.Vendor {
	return partner.Vendor{
		ID:          id,
		Name:        in.Name,
		CompanyName: in.CompanyName,
		Email:       in.Email,
		Phone:       in.Phone,
		TaxID:       in.TaxID,
		Terms:       in.Terms,
		Address:     in.Address,
		Balance:     decimal.Zero,
		Status:      in.Status,
		CreatedAt:   created,
	}
}

func (s *Server) listBills(c *gin.Context) {
	rows := data(c).bills.all()
	keep, err := billFilter(c)
	if err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	rows = slices.DeleteFunc(rows, func(b billing.Bill) bool { return !keep(b) })
	paginate(c, rows, func(b billing.Bill) string { return b.Number + " " + b.VendorName + " " + b.Memo })
}

// billFilter builds a predicate from the bill list query parameters
func billFilter(c *gin.Context) (func(billing.Bill) bool, error) {
	vendorID, status := c.Query("vendor_id"), c.Query("status")

	var start, end *time.Time
	for key, dst := range map[string]**time.Time{"start_date": &start, "end_date": &end} {
		if raw := c.Query(key); raw != "" {
			t, err := time.Parse("2006-01-02", raw)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			*dst = &t
		}
	}

	var lo, hi *decimal.Decimal
	for key, dst := range map[string]**decimal.Decimal{"min_amount": &lo, "max_amount": &hi} {
		if raw := c.Query(key); raw != "" {
			d, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			*dst = &d
		}
	}

	var posted *bool
	if raw := c.Query("is_posted"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("is_posted: %w", err)
		}
		posted = &b
	}

	return func(b billing.Bill) bool {
		switch {
		case vendorID != "" && b.VendorID != vendorID,
			status != "" && string(b.Status) != status,
			start != nil && b.BillDate.Before(*start),
			end != nil && b.BillDate.After(end.AddDate(0, 0, 1)),
			lo != nil && b.Total.LessThan(*lo),
			hi != nil && b.Total.GreaterThan(*hi),
			posted != nil && b.IsPosted != *posted:
			return false
		}
		return true
	}, nil
}

func (s *Server) getBill(c *gin.Context) {
	b, ok := data(c).bills.get(c.Param("id"))
	if !ok {
		notFound(c, "bill")
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *Server) createBill(c *gin.Context) {
	var in billing.BillInput
	if !bind(c, &in) {
		return
	}
	d := data(c)
	if !s.check(c, in, in.Validate, func() error {
		if _, ok := d.vendors.get(in.VendorID); !ok {
			return shared.NewValidationError("vendor_id", "does not match a vendor")
		}
		return nil
	}) {
		return
	}

	number := in.Number
	if number == "" {
		number = fmt.Sprintf("BILL-%05d", s.nextNumber())
	}
	b := billing.Bill{
		ID:         uuid.NewString(),
		Number:     number,
		VendorID:   in.VendorID,
		VendorName: d.vendorName(in.VendorID),
		BillDate:   in.BillDate,
		DueDate:    in.DueDate,
		Status:     billing.BillStatusOpen,
		IsPosted:   true,
		Total:      in.Total(),
		Memo:       in.Memo,
		Lines:      in.Lines,
	}
	b.BalanceDue = b.Total
	d.bills.put(b.ID, b)
	statusCreated(c, b)
}
