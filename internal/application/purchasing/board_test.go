package purchasing

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/erp/books/internal/application/viewstate"
	"github.com/erp/books/internal/domain/inventory"
	"github.com/erp/books/internal/domain/partner"
	"github.com/erp/books/internal/domain/purchasing"
	"github.com/erp/books/internal/domain/shared"
	"github.com/erp/books/internal/infrastructure/api"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// MockOrderAPI is a mock implementation of OrderAPI
type MockOrderAPI struct {
	mock.Mock
}

func (m *MockOrderAPI) List(ctx context.Context, companyID string, params api.OrderParams) (shared.Paginated[purchasing.PurchaseOrder], error) {
	args := m.Called(ctx, companyID, params)
	return args.Get(0).(shared.Paginated[purchasing.PurchaseOrder]), args.Error(1)
}

func (m *MockOrderAPI) Create(ctx context.Context, companyID string, in purchasing.OrderInput) (purchasing.PurchaseOrder, error) {
	args := m.Called(ctx, companyID, in)
	return args.Get(0).(purchasing.PurchaseOrder), args.Error(1)
}

func (m *MockOrderAPI) UpdateStatus(ctx context.Context, companyID, orderID string, status purchasing.Status) (purchasing.PurchaseOrder, error) {
	args := m.Called(ctx, companyID, orderID, status)
	return args.Get(0).(purchasing.PurchaseOrder), args.Error(1)
}

func (m *MockOrderAPI) Delete(ctx context.Context, companyID, orderID string) error {
	return m.Called(ctx, companyID, orderID).Error(0)
}

func (m *MockOrderAPI) Email(ctx context.Context, companyID, orderID string, req purchasing.EmailRequest) error {
	return m.Called(ctx, companyID, orderID, req).Error(0)
}

// slowVendors answers after a delay and counts concurrent callers
type slowVendors struct {
	delay   time.Duration
	running *atomic.Int32
	peak    *atomic.Int32
	err     error
}

func (s slowVendors) List(ctx context.Context, _ string, _ api.VendorParams) (shared.Paginated[partner.Vendor], error) {
	track(s.running, s.peak, s.delay)
	if s.err != nil {
		return shared.Paginated[partner.Vendor]{}, s.err
	}
	return shared.NewPaginated([]partner.Vendor{{ID: "v1", Name: "Acme", CompanyName: "Acme Corp"}}, 1, 1, 20), nil
}

type slowItems struct {
	delay   time.Duration
	running *atomic.Int32
	peak    *atomic.Int32
}

func (s slowItems) List(ctx context.Context, _ string, _ api.ItemParams) (shared.Paginated[inventory.Item], error) {
	track(s.running, s.peak, s.delay)
	return shared.NewPaginated([]inventory.Item{{ID: "i1", Name: "Paper"}}, 1, 1, 20), nil
}

func track(running, peak *atomic.Int32, delay time.Duration) {
	n := running.Add(1)
	for {
		p := peak.Load()
		if n <= p || peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(delay)
	running.Add(-1)
}

var (
	_ OrderAPI     = (*api.PurchaseOrderService)(nil)
	_ VendorLister = (*api.VendorService)(nil)
	_ ItemLister   = (*api.ItemService)(nil)
)

func sampleOrders() []purchasing.PurchaseOrder {
	return []purchasing.PurchaseOrder{
		{ID: "po1", Number: "PO-1", VendorID: "v1", Status: purchasing.StatusDraft,
			Lines: []purchasing.LineItem{{Description: "Paper", Quantity: decimal.NewFromInt(3), UnitCost: decimal.RequireFromString("2.50")}}},
		{ID: "po2", Number: "PO-2", VendorID: "v9", VendorName: "Other Co", Status: purchasing.StatusReceived,
			Lines: []purchasing.LineItem{{Description: "Ink", Quantity: decimal.NewFromInt(1), UnitCost: decimal.RequireFromString("40")}}},
	}
}

type fixture struct {
	orders  *MockOrderAPI
	running atomic.Int32
	peak    atomic.Int32
}

func newBoard(t *testing.T, f *fixture, vendorErr error, confirmer viewstate.Confirmer) *Board {
	delay := 20 * time.Millisecond
	return NewBoard(f.orders,
		slowVendors{delay: delay, running: &f.running, peak: &f.peak, err: vendorErr},
		slowItems{delay: delay, running: &f.running, peak: &f.peak},
		viewstate.Env{
			CompanyID: "c1",
			Confirmer: confirmer,
			Options:   viewstate.Options{Logger: zaptest.NewLogger(t)},
		})
}

func TestBoard_LoadsInParallel(t *testing.T) {
	f := &fixture{orders: new(MockOrderAPI)}
	f.orders.On("List", mock.Anything, "c1", mock.Anything).
		Run(func(mock.Arguments) { track(&f.running, &f.peak, 20*time.Millisecond) }).
		Return(shared.NewPaginated(sampleOrders(), 2, 1, 20), nil)

	b := newBoard(t, f, nil, nil)
	require.NoError(t, b.Load(context.Background()).Err)

	assert.Equal(t, int32(3), f.peak.Load())

	data := b.Snapshot().Data
	require.Len(t, data.Orders, 2)
	assert.Equal(t, "Acme Corp", data.Orders[0].VendorLabel)
	assert.Equal(t, "Other Co", data.Orders[1].VendorLabel)
	assert.Equal(t, []purchasing.Action{purchasing.ActionSend, purchasing.ActionCancel}, data.Orders[0].Actions)
	assert.Empty(t, data.Orders[1].Actions)
	assert.True(t, data.OpenTotal.Equal(decimal.RequireFromString("7.5")))
	assert.Equal(t, 1, data.Counts[purchasing.StatusReceived])
	assert.Len(t, data.Items, 1)
}

func TestBoard_VendorFailureIsNotFatal(t *testing.T) {
	f := &fixture{orders: new(MockOrderAPI)}
	f.orders.On("List", mock.Anything, "c1", mock.Anything).Return(shared.NewPaginated(sampleOrders(), 2, 1, 20), nil)

	b := newBoard(t, f, errors.New("vendors down"), nil)
	res := b.Load(context.Background())
	require.NoError(t, res.Err)
	assert.False(t, res.Degraded)
	assert.Equal(t, "v1", b.Snapshot().Data.Orders[0].VendorLabel)
}

func TestBoard_OrderFailureFallsBack(t *testing.T) {
	f := &fixture{orders: new(MockOrderAPI)}
	f.orders.On("List", mock.Anything, "c1", mock.Anything).
		Return(shared.Paginated[purchasing.PurchaseOrder]{}, errors.New("timeout"))

	b := newBoard(t, f, nil, nil)
	res := b.Load(context.Background())
	assert.True(t, res.Degraded)
	assert.True(t, b.Snapshot().Degraded)
	assert.NotEmpty(t, b.Snapshot().Data.Orders)
}

func TestBoard_TransitionRefusesSampleOrders(t *testing.T) {
	f := &fixture{orders: new(MockOrderAPI)}
	f.orders.On("List", mock.Anything, "c1", mock.Anything).
		Return(shared.Paginated[purchasing.PurchaseOrder]{}, errors.New("timeout"))

	b := newBoard(t, f, nil, viewstate.AlwaysConfirm)
	require.True(t, b.Load(context.Background()).Degraded)
	sample := b.Snapshot().Data.Orders[0]
	require.Contains(t, sample.Actions, purchasing.ActionSend)

	err := b.Transition(context.Background(), sample.ID, purchasing.ActionSend)
	assert.ErrorIs(t, err, shared.ErrUnavailable)
	assert.ErrorContains(t, err, "timeout")
	f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBoard_TransitionOnlyOfferedActions(t *testing.T) {
	f := &fixture{orders: new(MockOrderAPI)}
	f.orders.On("List", mock.Anything, "c1", mock.Anything).Return(shared.NewPaginated(sampleOrders(), 2, 1, 20), nil)
	f.orders.On("UpdateStatus", mock.Anything, "c1", "po1", purchasing.StatusSent).Return(purchasing.PurchaseOrder{}, nil)

	b := newBoard(t, f, nil, viewstate.AlwaysConfirm)
	require.NoError(t, b.Load(context.Background()).Err)

	err := b.Transition(context.Background(), "po1", purchasing.ActionApprove)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)

	err = b.Transition(context.Background(), "po2", purchasing.ActionCancel)
	assert.ErrorIs(t, err, shared.ErrInvalidTransition)

	err = b.Transition(context.Background(), "missing", purchasing.ActionSend)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	require.NoError(t, b.Transition(context.Background(), "po1", purchasing.ActionSend))
	f.orders.AssertNumberOfCalls(t, "UpdateStatus", 1)
}

func TestBoard_CancelNeedsConfirmation(t *testing.T) {
	f := &fixture{orders: new(MockOrderAPI)}
	f.orders.On("List", mock.Anything, "c1", mock.Anything).Return(shared.NewPaginated(sampleOrders(), 2, 1, 20), nil)

	b := newBoard(t, f, nil, viewstate.NeverConfirm)
	require.NoError(t, b.Load(context.Background()).Err)

	err := b.Transition(context.Background(), "po1", purchasing.ActionCancel)
	assert.ErrorIs(t, err, shared.ErrNotConfirmed)
	f.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBoard_DeleteAndEmail(t *testing.T) {
	f := &fixture{orders: new(MockOrderAPI)}
	f.orders.On("List", mock.Anything, "c1", mock.Anything).Return(shared.NewPaginated(sampleOrders(), 2, 1, 20), nil)
	f.orders.On("Delete", mock.Anything, "c1", "po1").Return(errors.New("409 conflict"))

	b := newBoard(t, f, nil, viewstate.AlwaysConfirm)
	require.NoError(t, b.Load(context.Background()).Err)
	before := b.Snapshot()

	assert.Error(t, b.Delete(context.Background(), "po1"))
	assert.Same(t, before, b.Snapshot())

	err := b.Email(context.Background(), "po1", purchasing.EmailRequest{To: []string{"not-an-email"}})
	assert.ErrorIs(t, err, shared.ErrValidation)
	f.orders.AssertNotCalled(t, "Email", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBoard_CreateValidates(t *testing.T) {
	f := &fixture{orders: new(MockOrderAPI)}
	b := newBoard(t, f, nil, viewstate.AlwaysConfirm)

	err := b.Create(context.Background(), purchasing.OrderInput{VendorID: "v1", OrderDate: time.Now()})
	assert.ErrorIs(t, err, shared.ErrValidation)
	f.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}
