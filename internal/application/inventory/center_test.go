package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/books/internal/application/viewstate"
	"github.com/erp/books/internal/domain/inventory"
	"github.com/erp/books/internal/domain/shared"
	"github.com/erp/books/internal/infrastructure/api"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// MockItemAPI is a mock implementation of ItemAPI
type MockItemAPI struct {
	mock.Mock
}

func (m *MockItemAPI) ListItems(ctx context.Context, companyID string, params api.ItemParams) (shared.Paginated[inventory.Item], error) {
	args := m.Called(ctx, companyID, params)
	return args.Get(0).(shared.Paginated[inventory.Item]), args.Error(1)
}

func (m *MockItemAPI) CreateItem(ctx context.Context, companyID string, in inventory.ItemInput) (inventory.Item, error) {
	args := m.Called(ctx, companyID, in)
	return args.Get(0).(inventory.Item), args.Error(1)
}

func (m *MockItemAPI) UpdateItem(ctx context.Context, companyID, itemID string, in inventory.ItemInput) (inventory.Item, error) {
	args := m.Called(ctx, companyID, itemID, in)
	return args.Get(0).(inventory.Item), args.Error(1)
}

func (m *MockItemAPI) DeleteItem(ctx context.Context, companyID, itemID string) error {
	args := m.Called(ctx, companyID, itemID)
	return args.Error(0)
}

func (m *MockItemAPI) Adjust(ctx context.Context, companyID string, in inventory.AdjustmentInput) (inventory.Adjustment, error) {
	args := m.Called(ctx, companyID, in)
	return args.Get(0).(inventory.Adjustment), args.Error(1)
}

func (m *MockItemAPI) Valuation(ctx context.Context, companyID string) (inventory.Valuation, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).(inventory.Valuation), args.Error(1)
}

func (m *MockItemAPI) Reorder(ctx context.Context, companyID string) (shared.Paginated[inventory.ReorderSuggestion], error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).(shared.Paginated[inventory.ReorderSuggestion]), args.Error(1)
}

func (m *MockItemAPI) Import(ctx context.Context, companyID, filename string, data []byte) (inventory.ImportResult, error) {
	args := m.Called(ctx, companyID, filename, data)
	return args.Get(0).(inventory.ImportResult), args.Error(1)
}

func (m *MockItemAPI) Export(ctx context.Context, companyID, format string) ([]byte, error) {
	args := m.Called(ctx, companyID, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

var _ ItemAPI = (*api.InventoryService)(nil)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleItems() []inventory.Item {
	return []inventory.Item{
		{ID: "i1", SKU: "B-2", Name: "bolt", Category: "Hardware", QuantityOnHand: d("100"), ReorderPoint: d("10"), MaxStock: d("150"), UnitCost: d("0.25")},
		{ID: "i2", SKU: "A-1", Name: "Anchor", Category: "Hardware", QuantityOnHand: d("5"), ReorderPoint: d("10"), MaxStock: d("50"), UnitCost: d("3.00")},
		{ID: "i3", SKU: "C-3", Name: "Cable", Category: "Electrical", QuantityOnHand: d("-2"), ReorderPoint: d("5"), MaxStock: d("40"), UnitCost: d("2.00")},
	}
}

func newCenter(t *testing.T, m *MockItemAPI, confirmer viewstate.Confirmer) *Center {
	return NewCenter(m, viewstate.Env{
		CompanyID: "c1",
		Confirmer: confirmer,
		Options:   viewstate.Options{Logger: zaptest.NewLogger(t)},
	})
}

func TestCenter_LoadUsesValuation(t *testing.T) {
	m := new(MockItemAPI)
	m.On("ListItems", mock.Anything, "c1", api.ItemParams{ListParams: api.ListParams{Page: 1, PageSize: 20}}).
		Return(shared.NewPaginated(sampleItems(), 3, 1, 20), nil)
	m.On("Valuation", mock.Anything, "c1").
		Return(inventory.Valuation{ItemCount: 3, TotalValue: d("40.00"), LowStockCount: 1, OutOfStockCount: 1}, nil)

	c := newCenter(t, m, nil)
	res := c.Load(context.Background())
	require.NoError(t, res.Err)

	overview, ok := c.Overview()
	require.True(t, ok)
	assert.Equal(t, 3, overview.TotalItems)
	assert.True(t, overview.TotalValue.Equal(d("40.00")))
	assert.False(t, overview.Partial)
	assert.False(t, overview.CategoriesPartial)
	assert.Len(t, overview.Categories, 2)
	m.AssertExpectations(t)
}

func TestCenter_ValuationFailureSummarizesPage(t *testing.T) {
	m := new(MockItemAPI)
	m.On("ListItems", mock.Anything, "c1", mock.Anything).
		Return(shared.NewPaginated(sampleItems(), 30, 1, 20), nil)
	m.On("Valuation", mock.Anything, "c1").Return(inventory.Valuation{}, errors.New("404"))

	c := newCenter(t, m, nil)
	require.NoError(t, c.Load(context.Background()).Err)

	overview, _ := c.Overview()
	assert.True(t, overview.Partial)
	assert.True(t, overview.CategoriesPartial)
	// 100*0.25 + 5*3 + -2*2
	assert.True(t, overview.TotalValue.Equal(d("36")), overview.TotalValue.String())
	assert.Equal(t, 1, overview.LowStockCount)
	assert.Equal(t, 1, overview.OutOfStockCount)
}

func TestCenter_FailedLoadShowsDegradedSample(t *testing.T) {
	m := new(MockItemAPI)
	m.On("ListItems", mock.Anything, "c1", mock.Anything).
		Return(shared.Paginated[inventory.Item]{}, errors.New("connection refused"))

	c := newCenter(t, m, nil)
	res := c.Load(context.Background())
	assert.True(t, res.Degraded)
	assert.Error(t, res.Err)

	snap := c.Snapshot()
	require.NotNil(t, snap)
	assert.True(t, snap.Degraded)
	assert.Len(t, snap.Data.Items, 3)
	m.AssertNotCalled(t, "Valuation", mock.Anything, mock.Anything)
}

func TestCenter_FilterSendsOnlySetValues(t *testing.T) {
	m := new(MockItemAPI)
	want := api.ItemParams{
		ListParams: api.ListParams{Search: "bolt", Page: 2, PageSize: 50},
		Category:   "Hardware",
	}
	m.On("ListItems", mock.Anything, "c1", want).Return(shared.NewPaginated(sampleItems()[:1], 51, 2, 50), nil)
	m.On("Valuation", mock.Anything, "c1").Return(inventory.Valuation{ItemCount: 51}, nil)

	c := newCenter(t, m, nil)
	f := c.Filter()
	f.Search = "bolt"
	f.Category = "Hardware"
	f.Page = shared.Page{Page: 2, PageSize: 50}
	c.SetFilter(f)

	require.NoError(t, c.Load(context.Background()).Err)
	assert.Equal(t, 2, c.Snapshot().Data.Page.TotalPages())
	m.AssertExpectations(t)
}

func TestFilterAndSort(t *testing.T) {
	views := inventory.NewItemViews(sampleItems())

	f := shared.NewFilter(SortName)
	names := func(vs []inventory.ItemView) []string {
		var out []string
		for _, v := range vs {
			out = append(out, v.Name)
		}
		return out
	}
	assert.Equal(t, []string{"Anchor", "bolt", "Cable"}, names(FilterAndSort(views, f)))

	f.SortBy = SortStatus
	assert.Equal(t, []string{"Cable", "Anchor", "bolt"}, names(FilterAndSort(views, f)))

	f.SortBy = SortValue
	f.SortDir = shared.SortDesc
	assert.Equal(t, []string{"bolt", "Anchor", "Cable"}, names(FilterAndSort(views, f)))

	f.Reset()
	f.Status = string(inventory.StatusLowStock)
	assert.Equal(t, []string{"Anchor"}, names(FilterAndSort(views, f)))

	f.Reset()
	f.Search = "c-3"
	assert.Equal(t, []string{"Cable"}, names(FilterAndSort(views, f)))
}

func TestCenter_ReorderFallsBackToLoadedItems(t *testing.T) {
	m := new(MockItemAPI)
	m.On("ListItems", mock.Anything, "c1", mock.Anything).Return(shared.NewPaginated(sampleItems(), 3, 1, 20), nil)
	m.On("Valuation", mock.Anything, "c1").Return(inventory.Valuation{}, nil)
	m.On("Reorder", mock.Anything, "c1").Return(shared.Paginated[inventory.ReorderSuggestion]{}, errors.New("500"))

	c := newCenter(t, m, nil)
	require.NoError(t, c.Load(context.Background()).Err)

	lines, partial, err := c.ReorderSuggestions(context.Background())
	require.NoError(t, err)
	assert.True(t, partial)
	require.Len(t, lines, 2)
	for _, l := range lines {
		assert.False(t, l.SuggestedQuantity.IsNegative())
	}
}

func TestCenter_ReorderRefusesSampleCatalogue(t *testing.T) {
	m := new(MockItemAPI)
	m.On("ListItems", mock.Anything, "c1", mock.Anything).Return(shared.Paginated[inventory.Item]{}, errors.New("timeout"))
	m.On("Reorder", mock.Anything, "c1").Return(shared.Paginated[inventory.ReorderSuggestion]{}, errors.New("500"))

	c := newCenter(t, m, nil)
	require.True(t, c.Load(context.Background()).Degraded)

	lines, partial, err := c.ReorderSuggestions(context.Background())
	assert.ErrorIs(t, err, shared.ErrUnavailable)
	assert.False(t, partial)
	assert.Empty(t, lines)
}

func TestCenter_UnconfirmedDeleteMakesNoCalls(t *testing.T) {
	m := new(MockItemAPI)
	c := newCenter(t, m, viewstate.NeverConfirm)

	err := c.DeleteItem(context.Background(), "i1")
	assert.ErrorIs(t, err, shared.ErrNotConfirmed)
	m.AssertNotCalled(t, "DeleteItem", mock.Anything, mock.Anything, mock.Anything)
}

func TestCenter_FailedDeleteKeepsSnapshot(t *testing.T) {
	m := new(MockItemAPI)
	m.On("ListItems", mock.Anything, "c1", mock.Anything).Return(shared.NewPaginated(sampleItems(), 3, 1, 20), nil).Once()
	m.On("Valuation", mock.Anything, "c1").Return(inventory.Valuation{ItemCount: 3}, nil).Once()
	m.On("DeleteItem", mock.Anything, "c1", "i1").Return(errors.New("500 internal error"))

	c := newCenter(t, m, viewstate.AlwaysConfirm)
	require.NoError(t, c.Load(context.Background()).Err)
	before := c.Snapshot()

	err := c.DeleteItem(context.Background(), "i1")
	assert.Error(t, err)
	assert.Same(t, before, c.Snapshot())
	m.AssertExpectations(t)
}

func TestCenter_DeleteReloads(t *testing.T) {
	m := new(MockItemAPI)
	m.On("ListItems", mock.Anything, "c1", mock.Anything).Return(shared.NewPaginated(sampleItems(), 3, 1, 20), nil).Once()
	m.On("ListItems", mock.Anything, "c1", mock.Anything).Return(shared.NewPaginated(sampleItems()[1:], 2, 1, 20), nil).Once()
	m.On("Valuation", mock.Anything, "c1").Return(inventory.Valuation{}, nil)
	m.On("DeleteItem", mock.Anything, "c1", "i1").Return(nil)

	c := newCenter(t, m, viewstate.AlwaysConfirm)
	require.NoError(t, c.Load(context.Background()).Err)
	require.NoError(t, c.DeleteItem(context.Background(), "i1"))

	assert.Len(t, c.View(), 2)
	m.AssertExpectations(t)
}

func TestCenter_ValidationBeforeCalls(t *testing.T) {
	m := new(MockItemAPI)
	c := newCenter(t, m, viewstate.AlwaysConfirm)

	err := c.CreateItem(context.Background(), inventory.ItemInput{Name: "No SKU"})
	assert.ErrorIs(t, err, shared.ErrValidation)

	err = c.CreateItem(context.Background(), inventory.ItemInput{SKU: "X", Name: "Neg", UnitCost: d("-1")})
	assert.ErrorIs(t, err, shared.ErrValidation)

	err = c.Adjust(context.Background(), inventory.AdjustmentInput{ItemID: "i1", Reason: inventory.ReasonCount})
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = c.Import(context.Background(), "items.csv", nil)
	assert.ErrorIs(t, err, shared.ErrValidation)

	m.AssertNotCalled(t, "CreateItem", mock.Anything, mock.Anything, mock.Anything)
	m.AssertNotCalled(t, "Adjust", mock.Anything, mock.Anything, mock.Anything)
	m.AssertNotCalled(t, "Import", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
