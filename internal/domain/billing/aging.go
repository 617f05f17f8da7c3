package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// AgingBucket is a range of days past due
type AgingBucket string

const (
	BucketCurrent AgingBucket = "current"
	Bucket1To30   AgingBucket = "1-30"
	Bucket31To60  AgingBucket = "31-60"
	Bucket61To90  AgingBucket = "61-90"
	BucketOver90  AgingBucket = "90+"
)

// Buckets lists all aging buckets in display order
var Buckets = []AgingBucket{BucketCurrent, Bucket1To30, Bucket31To60, Bucket61To90, BucketOver90}

// BucketFor returns the bucket for a number of days overdue
func BucketFor(daysOverdue int) AgingBucket {
	switch {
	case daysOverdue <= 0:
		return BucketCurrent
	case daysOverdue <= 30:
		return Bucket1To30
	case daysOverdue <= 60:
		return Bucket31To60
	case daysOverdue <= 90:
		return Bucket61To90
	default:
		return BucketOver90
	}
}

// AgingSummary is the payables aging report
type AgingSummary struct {
	AsOf    time.Time
	Totals  map[AgingBucket]decimal.Decimal
	Counts  map[AgingBucket]int
	Total   decimal.Decimal
	Overdue decimal.Decimal
	// Partial is set when the summary covers only the loaded page of bills
	Partial bool
}

// Aging buckets the outstanding balance of each bill by days past due.
// Paid, void and draft bills are ignored.
func Aging(bills []Bill, asOf time.Time) AgingSummary {
	summary := AgingSummary{
		AsOf:    asOf,
		Totals:  make(map[AgingBucket]decimal.Decimal, len(Buckets)),
		Counts:  make(map[AgingBucket]int, len(Buckets)),
		Total:   decimal.Zero,
		Overdue: decimal.Zero,
	}
	for _, b := range Buckets {
		summary.Totals[b] = decimal.Zero
	}

	for _, bill := range bills {
		if !bill.Status.IsOutstanding() || !bill.BalanceDue.IsPositive() {
			continue
		}
		bucket := BucketFor(bill.DaysOverdue(asOf))
		summary.Totals[bucket] = summary.Totals[bucket].Add(bill.BalanceDue)
		summary.Counts[bucket]++
		summary.Total = summary.Total.Add(bill.BalanceDue)
		if bucket != BucketCurrent {
			summary.Overdue = summary.Overdue.Add(bill.BalanceDue)
		}
	}
	return summary
}
