package billing

import (
	"errors"
	"testing"
	"time"

	"github.com/erp/books/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var asOf = time.Date(2026, 6, 30, 15, 0, 0, 0, time.UTC)

func billDue(id string, daysAgo int, balance string, status BillStatus) Bill {
	return Bill{
		ID:         id,
		VendorID:   "v-1",
		Status:     status,
		DueDate:    time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -daysAgo),
		BalanceDue: decimal.RequireFromString(balance),
		Total:      decimal.RequireFromString(balance),
	}
}

func TestBucketFor(t *testing.T) {
	tests := []struct {
		days     int
		expected AgingBucket
	}{
		{-5, BucketCurrent},
		{0, BucketCurrent},
		{1, Bucket1To30},
		{30, Bucket1To30},
		{31, Bucket31To60},
		{60, Bucket31To60},
		{61, Bucket61To90},
		{90, Bucket61To90},
		{91, BucketOver90},
		{400, BucketOver90},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, BucketFor(tt.days), "days=%d", tt.days)
	}
}

func TestBill_DaysOverdue(t *testing.T) {
	assert.Equal(t, 0, billDue("1", 0, "1", BillStatusOpen).DaysOverdue(asOf))
	assert.Equal(t, 0, billDue("1", -10, "1", BillStatusOpen).DaysOverdue(asOf))
	assert.Equal(t, 45, billDue("1", 45, "1", BillStatusOpen).DaysOverdue(asOf))
}

func TestBill_DaysOverdueAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Clocks spring forward on 2026-03-08, so that day lasts 23 hours.
	spring := Bill{DueDate: time.Date(2026, 3, 7, 0, 0, 0, 0, ny)}
	assert.Equal(t, 1, spring.DaysOverdue(time.Date(2026, 3, 8, 0, 0, 0, 0, ny)))
	assert.Equal(t, 2, spring.DaysOverdue(time.Date(2026, 3, 9, 0, 0, 0, 0, ny)))
	assert.Equal(t, 10, spring.DaysOverdue(time.Date(2026, 3, 17, 9, 30, 0, 0, ny)))

	// Clocks fall back on 2026-11-01.
	fall := Bill{DueDate: time.Date(2026, 10, 31, 0, 0, 0, 0, ny)}
	assert.Equal(t, 2, fall.DaysOverdue(time.Date(2026, 11, 2, 23, 59, 0, 0, ny)))
}

func TestAging(t *testing.T) {
	bills := []Bill{
		billDue("current", -3, "100.00", BillStatusOpen),
		billDue("early", 10, "50.25", BillStatusPartial),
		billDue("mid", 45, "20.00", BillStatusOpen),
		billDue("late", 75, "5.10", BillStatusOpen),
		billDue("ancient", 200, "1000", BillStatusOpen),
		billDue("paid", 200, "999", BillStatusPaid),
		billDue("void", 200, "999", BillStatusVoid),
		billDue("zero", 10, "0", BillStatusOpen),
	}

	summary := Aging(bills, asOf)

	assert.True(t, summary.Totals[BucketCurrent].Equal(decimal.RequireFromString("100")))
	assert.True(t, summary.Totals[Bucket1To30].Equal(decimal.RequireFromString("50.25")))
	assert.True(t, summary.Totals[Bucket31To60].Equal(decimal.RequireFromString("20")))
	assert.True(t, summary.Totals[Bucket61To90].Equal(decimal.RequireFromString("5.10")))
	assert.True(t, summary.Totals[BucketOver90].Equal(decimal.RequireFromString("1000")))
	assert.Equal(t, "1175.35", summary.Total.StringFixed(2))
	assert.Equal(t, "1075.35", summary.Overdue.StringFixed(2))
	assert.Equal(t, 1, summary.Counts[BucketOver90])
	assert.False(t, summary.Partial)
}

func TestAging_EmptyHasAllBuckets(t *testing.T) {
	summary := Aging(nil, asOf)
	for _, b := range Buckets {
		assert.True(t, summary.Totals[b].IsZero(), string(b))
	}
}

func TestNewBillView(t *testing.T) {
	view := NewBillView(billDue("1", 40, "10", BillStatusOpen), asOf)
	assert.Equal(t, Bucket31To60, view.Bucket)
	assert.Equal(t, 40, view.DaysOverdue)
	assert.True(t, view.Overdue)

	paid := NewBillView(billDue("2", 40, "0", BillStatusPaid), asOf)
	assert.False(t, paid.Overdue)
}

func TestBillInput_Validate(t *testing.T) {
	billDate := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	valid := BillInput{
		VendorID: "v-1",
		BillDate: billDate,
		DueDate:  billDate.AddDate(0, 0, 30),
		Lines:    []BillLine{{Description: "Paper", Quantity: decimal.NewFromInt(3), UnitCost: decimal.RequireFromString("4.50")}},
	}
	require.NoError(t, valid.Validate())
	assert.Equal(t, "13.50", valid.Total().StringFixed(2))

	invalid := BillInput{BillDate: billDate, DueDate: billDate.AddDate(0, 0, -1)}
	err := invalid.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))

	var verr *shared.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 3)
}
