package billing

import (
	"time"

	"github.com/erp/books/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BillStatus represents the payment status of a vendor bill
type BillStatus string

const (
	BillStatusDraft   BillStatus = "draft"
	BillStatusOpen    BillStatus = "open"
	BillStatusPartial BillStatus = "partial"
	BillStatusPaid    BillStatus = "paid"
	BillStatusVoid    BillStatus = "void"
)

// IsValid checks if the status is a valid BillStatus
func (s BillStatus) IsValid() bool {
	switch s {
	case BillStatusDraft, BillStatusOpen, BillStatusPartial, BillStatusPaid, BillStatusVoid:
		return true
	}
	return false
}

// IsOutstanding returns true if money is still owed on a bill in this status
func (s BillStatus) IsOutstanding() bool {
	return s == BillStatusOpen || s == BillStatusPartial
}

// BillLine is an expense or item line on a bill
type BillLine struct {
	AccountID   string          `json:"account_id,omitempty"`
	ItemID      string          `json:"item_id,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

// Amount returns the unrounded line amount
func (l BillLine) Amount() decimal.Decimal {
	return l.Quantity.Mul(l.UnitCost)
}

// Bill is a vendor bill as returned by the backend
type Bill struct {
	ID         string          `json:"id" validate:"required"`
	Number     string          `json:"bill_number"`
	VendorID   string          `json:"vendor_id" validate:"required"`
	VendorName string          `json:"vendor_name,omitempty"`
	BillDate   time.Time       `json:"bill_date"`
	DueDate    time.Time       `json:"due_date"`
	Status     BillStatus      `json:"status" validate:"required,oneof=draft open partial paid void"`
	IsPosted   bool            `json:"is_posted"`
	Total      decimal.Decimal `json:"total"`
	BalanceDue decimal.Decimal `json:"balance_due"`
	Memo       string          `json:"memo,omitempty"`
	Lines      []BillLine      `json:"line_items,omitempty"`
}

// DaysOverdue returns whole days past the due date as of the given day,
// zero if not yet due. Days are counted between calendar dates in the due
// date's zone, so a DST change in between does not shorten the count.
func (b Bill) DaysOverdue(asOf time.Time) int {
	due := calendarDay(b.DueDate)
	today := calendarDay(asOf.In(b.DueDate.Location()))
	if !today.After(due) {
		return 0
	}
	return int(today.Sub(due).Hours() / 24)
}

// BillInput is the payload for creating a bill
type BillInput struct {
	VendorID string     `json:"vendor_id" validate:"required"`
	Number   string     `json:"bill_number" validate:"max=50"`
	BillDate time.Time  `json:"bill_date" validate:"required"`
	DueDate  time.Time  `json:"due_date" validate:"required"`
	Memo     string     `json:"memo,omitempty" validate:"max=1000"`
	Lines    []BillLine `json:"line_items" validate:"required,min=1,dive"`
}

// Validate performs the client-side checks run before a bill is submitted
func (in BillInput) Validate() error {
	verr := &shared.ValidationError{}
	if in.VendorID == "" {
		verr.Fields = append(verr.Fields, shared.FieldError{Field: "vendor_id", Message: "is required"})
	}
	if in.BillDate.IsZero() {
		verr.Fields = append(verr.Fields, shared.FieldError{Field: "bill_date", Message: "is required"})
	}
	if !in.DueDate.IsZero() && in.DueDate.Before(in.BillDate) {
		verr.Fields = append(verr.Fields, shared.FieldError{Field: "due_date", Message: "cannot be before the bill date"})
	}
	if len(in.Lines) == 0 {
		verr.Fields = append(verr.Fields, shared.FieldError{Field: "line_items", Message: "must have at least one line"})
	}
	for _, l := range in.Lines {
		if !l.Amount().IsPositive() {
			verr.Fields = append(verr.Fields, shared.FieldError{Field: "line_items", Message: "amounts must be positive"})
			break
		}
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// Total sums the input lines
func (in BillInput) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range in.Lines {
		sum = sum.Add(l.Amount())
	}
	return sum
}

// BillView is the display projection of a bill
type BillView struct {
	Bill
	Bucket      AgingBucket
	DaysOverdue int
	Overdue     bool
}

// NewBillView derives the aging fields of a bill as of the given day
func NewBillView(bill Bill, asOf time.Time) BillView {
	days := bill.DaysOverdue(asOf)
	return BillView{
		Bill:        bill,
		Bucket:      BucketFor(days),
		DaysOverdue: days,
		Overdue:     days > 0 && bill.Status.IsOutstanding(),
	}
}

// calendarDay is midnight UTC on t's local date
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
