package fakeapi

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/erp/books/internal/domain/purchasing"
	"github.com/erp/books/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) listOrders(c *gin.Context) {
	rows := data(c).orders.all()
	vendorID, status := c.Query("vendor_id"), c.Query("status")
	from, errFrom := optionalDate(c.Query("date_from"))
	to, errTo := optionalDate(c.Query("date_to"))
	if errFrom != nil || errTo != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, "dates must be YYYY-MM-DD")
		return
	}
	rows = slices.DeleteFunc(rows, func(o purchasing.PurchaseOrder) bool {
		switch {
		case vendorID != "" && o.VendorID != vendorID,
			status != "" && string(o.Status) != status,
			from != nil && o.OrderDate.Before(*from),
			to != nil && o.OrderDate.After(to.AddDate(0, 0, 1)):
			return true
		}
		return false
	})
	paginate(c, rows, func(o purchasing.PurchaseOrder) string { return o.Number + " " + o.VendorName + " " + o.Memo })
}

func optionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Server) getOrder(c *gin.Context) {
	o, ok := data(c).orders.get(c.Param("id"))
	if !ok {
		notFound(c, "purchase order")
		return
	}
	c.JSON(http.StatusOK, o)
}

func (s *Server) bindOrder(c *gin.Context, d *companyData) (purchasing.OrderInput, bool) {
	var in purchasing.OrderInput
	if !bind(c, &in) {
		return in, false
	}
	ok := s.check(c, in, in.Validate, func() error {
		if _, ok := d.vendors.get(in.VendorID); !ok {
			return shared.NewValidationError("vendor_id", "does not match a vendor")
		}
		return nil
	})
	return in, ok
}

func (s *Server) createOrder(c *gin.Context) {
	d := data(c)
	in, ok := s.bindOrder(c, d)
	if !ok {
		return
	}
	o := purchasing.PurchaseOrder{
		ID:     uuid.NewString(),
		Number: fmt.Sprintf("PO-%05d", s.nextNumber()),
		Status: purchasing.StatusDraft,
	}
	applyOrder(&o, in, d)
	d.orders.put(o.ID, o)
	statusCreated(c, o)
}

// updateOrder edits a draft; orders that have left draft are read-only
func (s *Server) updateOrder(c *gin.Context) {
	d := data(c)
	o, ok := d.orders.get(c.Param("id"))
	if !ok {
		notFound(c, "purchase order")
		return
	}
	if o.Status != purchasing.StatusDraft {
		fail(c, http.StatusConflict, CodeTransition, "only draft purchase orders can be edited")
		return
	}
	in, ok := s.bindOrder(c, d)
	if !ok {
		return
	}
	applyOrder(&o, in, d)
	d.orders.put(o.ID, o)
	c.JSON(http.StatusOK, o)
}

func applyOrder(o *purchasing.PurchaseOrder, in purchasing.OrderInput, d *companyData) {
	o.VendorID = in.VendorID
	o.VendorName = d.vendorName(in.VendorID)
	o.OrderDate = in.OrderDate
	o.ExpectedDate = in.ExpectedDate
	o.Memo = in.Memo
	o.Lines = in.Lines
	o.Total = o.Subtotal()
}

func (s *Server) deleteOrder(c *gin.Context) {
	d := data(c)
	o, ok := d.orders.get(c.Param("id"))
	if !ok {
		notFound(c, "purchase order")
		return
	}
	if o.Status != purchasing.StatusDraft && o.Status != purchasing.StatusCancelled {
		fail(c, http.StatusConflict, CodeTransition, fmt.Sprintf("a %s purchase order cannot be deleted", o.Status))
		return
	}
	d.orders.remove(o.ID)
	c.Status(http.StatusNoContent)
}

// updateOrderStatus applies a transition. Receiving an order adds its item
// lines to stock.
func (s *Server) updateOrderStatus(c *gin.Context) {
	d := data(c)
	o, ok := d.orders.get(c.Param("id"))
	if !ok {
		notFound(c, "purchase order")
		return
	}
	var in purchasing.StatusUpdate
	if !bind(c, &in) {
		return
	}
	if !s.check(c, in, func() error {
		if !in.Status.IsValid() {
			return shared.NewValidationError("status", "is not a known status")
		}
		return nil
	}) {
		return
	}
	if !o.Status.CanTransitionTo(in.Status) {
		fail(c, http.StatusConflict, CodeTransition, fmt.Sprintf("cannot move a %s purchase order to %s", o.Status, in.Status))
		return
	}
	o.Status = in.Status
	if o.Status == purchasing.StatusReceived {
		now := s.opts.Now()
		for _, l := range o.Lines {
			if l.ItemID != "" {
				d.moveStock(l.ItemID, "purchase_receipt", o.ID, l.Quantity, now)
			}
		}
	}
	d.orders.put(o.ID, o)
	c.JSON(http.StatusOK, o)
}

func (s *Server) emailOrder(c *gin.Context) {
	d := data(c)
	o, ok := d.orders.get(c.Param("id"))
	if !ok {
		notFound(c, "purchase order")
		return
	}
	var in purchasing.EmailRequest
	if !bind(c, &in) || !s.check(c, in) {
		return
	}
	if o.Status == purchasing.StatusCancelled {
		fail(c, http.StatusConflict, CodeTransition, "a cancelled purchase order cannot be emailed")
		return
	}
	subject := in.Subject
	if subject == "" {
		subject = "Purchase order " + o.Number
	}
	// The server lock is already held by loadCompany
	s.emails = append(s.emails, SentEmail{CompanyID: c.Param("company_id"), OrderID: o.ID, To: in.To, Subject: subject})
	c.Status(http.StatusNoContent)
}
