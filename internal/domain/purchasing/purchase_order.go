package purchasing

import (
	"fmt"
	"time"

	"github.com/erp/books/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Status represents the status of a purchase order
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusApproved  Status = "approved"
	StatusReceived  Status = "received"
	StatusCancelled Status = "cancelled"
)

// IsValid checks if the status is a valid Status
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusSent, StatusApproved, StatusReceived, StatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true for statuses with no outgoing transitions
func (s Status) IsTerminal() bool {
	return s == StatusReceived || s == StatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusDraft:
		return target == StatusSent || target == StatusCancelled
	case StatusSent:
		return target == StatusApproved || target == StatusCancelled
	case StatusApproved:
		return target == StatusReceived || target == StatusCancelled
	case StatusReceived, StatusCancelled:
		return false // Terminal states
	}
	return false
}

// Action is a user-triggerable status transition
type Action string

const (
	ActionSend    Action = "send"
	ActionApprove Action = "approve"
	ActionReceive Action = "receive"
	ActionCancel  Action = "cancel"
)

// Target returns the status the action moves an order to
func (a Action) Target() (Status, bool) {
	switch a {
	case ActionSend:
		return StatusSent, true
	case ActionApprove:
		return StatusApproved, true
	case ActionReceive:
		return StatusReceived, true
	case ActionCancel:
		return StatusCancelled, true
	}
	return "", false
}

var allActions = []Action{ActionSend, ActionApprove, ActionReceive, ActionCancel}

// AvailableActions lists the actions that are legal from the given status,
// in display order. Terminal statuses have none.
func AvailableActions(status Status) []Action {
	var actions []Action
	for _, a := range allActions {
		target, _ := a.Target()
		if status.CanTransitionTo(target) {
			actions = append(actions, a)
		}
	}
	return actions
}

// CheckAction returns the target status of the action, or ErrInvalidTransition
// if the action is not offered for the current status.
func CheckAction(current Status, action Action) (Status, error) {
	target, ok := action.Target()
	if !ok {
		return "", shared.NewDomainError("INVALID_ACTION", fmt.Sprintf("unknown purchase order action %q", action))
	}
	if !current.CanTransitionTo(target) {
		return "", fmt.Errorf("cannot %s a %s purchase order: %w", action, current, shared.ErrInvalidTransition)
	}
	return target, nil
}

// LineItem represents a line on a purchase order
type LineItem struct {
	ItemID      string          `json:"item_id,omitempty"`
	Description string          `json:"description" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

// Amount returns quantity times unit cost, unrounded
func (l LineItem) Amount() decimal.Decimal {
	return l.Quantity.Mul(l.UnitCost)
}

// PurchaseOrder is a purchase order as returned by the backend
type PurchaseOrder struct {
	ID           string     `json:"id" validate:"required"`
	Number       string     `json:"po_number"`
	VendorID     string     `json:"vendor_id"`
	VendorName   string     `json:"vendor_name,omitempty"`
	Status       Status     `json:"status" validate:"required,oneof=draft sent approved received cancelled"`
	OrderDate    time.Time  `json:"order_date"`
	ExpectedDate *time.Time `json:"expected_date,omitempty"`
	Memo         string     `json:"memo,omitempty"`
	Lines        []LineItem `json:"line_items" validate:"dive"`
	// Total is the backend's figure; it is kept for comparison but views
	// recompute the total from lines.
	Total decimal.Decimal `json:"total"`
}

// Subtotal sums the line amounts
func (o PurchaseOrder) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range o.Lines {
		sum = sum.Add(l.Amount())
	}
	return sum
}

// OrderInput is the payload for creating or updating a purchase order
type OrderInput struct {
	VendorID     string     `json:"vendor_id" validate:"required"`
	OrderDate    time.Time  `json:"order_date" validate:"required"`
	ExpectedDate *time.Time `json:"expected_date,omitempty"`
	Memo         string     `json:"memo,omitempty" validate:"max=1000"`
	Lines        []LineItem `json:"line_items" validate:"required,min=1,dive"`
}

// Validate checks the order input beyond struct tags
func (in OrderInput) Validate() error {
	verr := &shared.ValidationError{}
	if in.VendorID == "" {
		verr.Fields = append(verr.Fields, shared.FieldError{Field: "vendor_id", Message: "is required"})
	}
	if len(in.Lines) == 0 {
		verr.Fields = append(verr.Fields, shared.FieldError{Field: "line_items", Message: "must have at least one line"})
	}
	for i, l := range in.Lines {
		if !l.Quantity.IsPositive() {
			verr.Fields = append(verr.Fields, shared.FieldError{Field: fmt.Sprintf("line_items[%d].quantity", i), Message: "must be positive"})
		}
		if l.UnitCost.IsNegative() {
			verr.Fields = append(verr.Fields, shared.FieldError{Field: fmt.Sprintf("line_items[%d].unit_cost", i), Message: "cannot be negative"})
		}
	}
	if in.ExpectedDate != nil && in.ExpectedDate.Before(in.OrderDate) {
		verr.Fields = append(verr.Fields, shared.FieldError{Field: "expected_date", Message: "cannot be before the order date"})
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// StatusUpdate is the payload for a status transition
type StatusUpdate struct {
	Status Status `json:"status" validate:"required"`
}

// EmailRequest is the payload for emailing a purchase order to its vendor
type EmailRequest struct {
	To      []string `json:"to" validate:"required,min=1,dive,email"`
	Subject string   `json:"subject,omitempty"`
	Message string   `json:"message,omitempty"`
}

// OrderView is the display projection of a purchase order
type OrderView struct {
	PurchaseOrder
	Subtotal decimal.Decimal
	Actions  []Action
	// VendorLabel is the vendor's display name, resolved from the vendor list
	// when the order itself does not carry one.
	VendorLabel string
}

// NewOrderView derives the display fields of an order
func NewOrderView(order PurchaseOrder, vendorNames map[string]string) OrderView {
	label := order.VendorName
	if label == "" {
		label = vendorNames[order.VendorID]
	}
	if label == "" {
		label = order.VendorID
	}
	return OrderView{
		PurchaseOrder: order,
		Subtotal:      order.Subtotal(),
		Actions:       AvailableActions(order.Status),
		VendorLabel:   label,
	}
}

// Allows reports whether the action is offered for this order
func (v OrderView) Allows(action Action) bool {
	for _, a := range v.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// StatusCounts tallies orders per status
func StatusCounts(views []OrderView) map[Status]int {
	counts := make(map[Status]int)
	for _, v := range views {
		counts[v.Status]++
	}
	return counts
}

// OpenTotal sums the subtotals of orders that are not terminal
func OpenTotal(views []OrderView) decimal.Decimal {
	sum := decimal.Zero
	for _, v := range views {
		if !v.Status.IsTerminal() {
			sum = sum.Add(v.Subtotal)
		}
	}
	return sum
}
