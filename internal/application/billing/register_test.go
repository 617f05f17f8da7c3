package billing

import (
	"context"
	"testing"
	"time"

	"github.com/erp/books/internal/application/viewstate"
	"github.com/erp/books/internal/domain/billing"
	"github.com/erp/books/internal/domain/shared"
	"github.com/erp/books/internal/infrastructure/api"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// MockBillAPI is a mock implementation of BillAPI
type MockBillAPI struct {
	mock.Mock
}

func (m *MockBillAPI) List(ctx context.Context, companyID string, params api.BillParams) (shared.Paginated[billing.Bill], error) {
	args := m.Called(ctx, companyID, params)
	return args.Get(0).(shared.Paginated[billing.Bill]), args.Error(1)
}

func (m *MockBillAPI) Create(ctx context.Context, companyID string, in billing.BillInput) (billing.Bill, error) {
	args := m.Called(ctx, companyID, in)
	return args.Get(0).(billing.Bill), args.Error(1)
}

var _ BillAPI = (*api.BillService)(nil)

var asOf = time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC)

func newRegister(t *testing.T, m *MockBillAPI) *Register {
	return NewRegister(m, viewstate.Env{
		CompanyID: "c1",
		Confirmer: viewstate.AlwaysConfirm,
		Options: viewstate.Options{
			Logger: zaptest.NewLogger(t),
			Now:    func() time.Time { return asOf },
		},
	})
}

func bill(id string, daysOverdue int, balance string, status billing.BillStatus) billing.Bill {
	due := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -daysOverdue)
	b := decimal.RequireFromString(balance)
	return billing.Bill{ID: id, VendorID: "v1", DueDate: due, BillDate: due.AddDate(0, 0, -30), Status: status, Total: b, BalanceDue: b}
}

func TestRegister_LoadAgesPageAndFlagsPartial(t *testing.T) {
	m := new(MockBillAPI)
	bills := []billing.Bill{
		bill("b1", 0, "100", billing.BillStatusOpen),
		bill("b2", 45, "250.50", billing.BillStatusPartial),
		bill("b3", 120, "75", billing.BillStatusOpen),
		bill("b4", 10, "999", billing.BillStatusPaid),
	}
	m.On("List", mock.Anything, "c1", mock.Anything).Return(shared.NewPaginated(bills, 30, 1, 20), nil)

	r := newRegister(t, m)
	require.NoError(t, r.Load(context.Background()).Err)

	data := r.Snapshot().Data
	assert.True(t, data.Aging.Partial)
	assert.True(t, data.Aging.Total.Equal(decimal.RequireFromString("425.50")))
	assert.True(t, data.Aging.Overdue.Equal(decimal.RequireFromString("325.50")))
	assert.True(t, data.Aging.Totals[billing.Bucket31To60].Equal(decimal.RequireFromString("250.50")))
	assert.Equal(t, billing.BucketOver90, data.Bills[2].Bucket)
	assert.True(t, data.Bills[1].Overdue)
	assert.False(t, data.Bills[3].Overdue)
}

func TestRegister_FilterParams(t *testing.T) {
	m := new(MockBillAPI)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	minAmount := decimal.NewFromInt(100)
	posted := true
	want := api.BillParams{
		ListParams: api.ListParams{SortBy: "due_date", SortOrder: "asc", Page: 1, PageSize: 20},
		VendorID:   "v1",
		StartDate:  &start,
		MinAmount:  &minAmount,
		IsPosted:   &posted,
	}
	m.On("List", mock.Anything, "c1", want).Return(shared.NewPaginated([]billing.Bill{}, 0, 1, 20), nil)

	r := newRegister(t, m)
	f := r.Filter()
	f.VendorID = "v1"
	f.DateFrom = &start
	f.MinAmount = &minAmount
	f.IsPosted = &posted
	r.SetFilter(f)

	require.NoError(t, r.Load(context.Background()).Err)
	assert.False(t, r.Snapshot().Data.Aging.Partial)
	m.AssertExpectations(t)

	q := want.Query().Encode()
	assert.NotContains(t, q, "max_amount")
	assert.NotContains(t, q, "end_date")
	assert.Contains(t, q, "is_posted=true")
}

func TestRegister_FullAgingWalksPages(t *testing.T) {
	m := new(MockBillAPI)
	page1 := make([]billing.Bill, agingPageSize)
	for i := range page1 {
		page1[i] = bill("p1", 5, "1", billing.BillStatusOpen)
	}
	m.On("List", mock.Anything, "c1", mock.MatchedBy(func(p api.BillParams) bool { return p.Page == 1 })).
		Return(shared.NewPaginated(page1, 101, 1, agingPageSize), nil)
	m.On("List", mock.Anything, "c1", mock.MatchedBy(func(p api.BillParams) bool { return p.Page == 2 })).
		Return(shared.NewPaginated([]billing.Bill{bill("p2", 70, "50", billing.BillStatusOpen)}, 101, 2, agingPageSize), nil)

	r := newRegister(t, m)
	summary, err := r.FullAging(context.Background(), 10)
	require.NoError(t, err)
	assert.False(t, summary.Partial)
	assert.Equal(t, 100, summary.Counts[billing.Bucket1To30])
	assert.Equal(t, 1, summary.Counts[billing.Bucket61To90])
	assert.True(t, summary.Total.Equal(decimal.NewFromInt(150)))

	capped, err := r.FullAging(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, capped.Partial)
}

func TestRegister_CreateValidates(t *testing.T) {
	m := new(MockBillAPI)
	r := newRegister(t, m)

	err := r.Create(context.Background(), billing.BillInput{
		VendorID: "v1",
		BillDate: asOf,
		DueDate:  asOf.AddDate(0, 0, -1),
		Lines:    []billing.BillLine{{Description: "Rent", Quantity: decimal.NewFromInt(1), UnitCost: decimal.NewFromInt(1000)}},
	})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "due_date", verr.Fields[0].Field)
	m.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestRegister_CreateReloads(t *testing.T) {
	m := new(MockBillAPI)
	in := billing.BillInput{
		VendorID: "v1",
		Number:   "INV-7",
		BillDate: asOf,
		DueDate:  asOf.AddDate(0, 0, 30),
		Lines:    []billing.BillLine{{Description: "Rent", Quantity: decimal.NewFromInt(1), UnitCost: decimal.NewFromInt(1000)}},
	}
	m.On("Create", mock.Anything, "c1", in).Return(billing.Bill{ID: "b9"}, nil)
	m.On("List", mock.Anything, "c1", mock.Anything).Return(shared.NewPaginated([]billing.Bill{bill("b9", 0, "1000", billing.BillStatusOpen)}, 1, 1, 20), nil)

	r := newRegister(t, m)
	require.NoError(t, r.Create(context.Background(), in))
	require.NotNil(t, r.Snapshot())
	assert.Len(t, r.Snapshot().Data.Bills, 1)
}
