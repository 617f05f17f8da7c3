package partner

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/books/internal/application/viewstate"
	"github.com/erp/books/internal/domain/partner"
	"github.com/erp/books/internal/domain/shared"
	"github.com/erp/books/internal/infrastructure/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// MockVendorAPI is a mock implementation of VendorAPI
type MockVendorAPI struct {
	mock.Mock
}

func (m *MockVendorAPI) List(ctx context.Context, companyID string, params api.VendorParams) (shared.Paginated[partner.Vendor], error) {
	args := m.Called(ctx, companyID, params)
	return args.Get(0).(shared.Paginated[partner.Vendor]), args.Error(1)
}

func (m *MockVendorAPI) Create(ctx context.Context, companyID string, in partner.VendorInput) (partner.Vendor, error) {
	args := m.Called(ctx, companyID, in)
	return args.Get(0).(partner.Vendor), args.Error(1)
}

func (m *MockVendorAPI) Update(ctx context.Context, companyID, vendorID string, in partner.VendorInput) (partner.Vendor, error) {
	args := m.Called(ctx, companyID, vendorID, in)
	return args.Get(0).(partner.Vendor), args.Error(1)
}

func (m *MockVendorAPI) Delete(ctx context.Context, companyID, vendorID string) error {
	return m.Called(ctx, companyID, vendorID).Error(0)
}

var _ VendorAPI = (*api.VendorService)(nil)

func newDirectory(t *testing.T, m *MockVendorAPI, confirmer viewstate.Confirmer) *Directory {
	return NewDirectory(m, viewstate.Env{
		CompanyID: "c1",
		Confirmer: confirmer,
		Options:   viewstate.Options{Logger: zaptest.NewLogger(t)},
	})
}

func TestDirectory_LoadPagination(t *testing.T) {
	m := new(MockVendorAPI)
	vendors := make([]partner.Vendor, 20)
	for i := range vendors {
		vendors[i] = partner.Vendor{ID: string(rune('a' + i)), Name: "Vendor"}
	}
	m.On("List", mock.Anything, "c1", api.VendorParams{
		ListParams: api.ListParams{SortBy: "name", SortOrder: "asc", Page: 1, PageSize: 20},
	}).Return(shared.NewPaginated(vendors, 45, 1, 20), nil)

	d := newDirectory(t, m, nil)
	require.NoError(t, d.Load(context.Background()).Err)

	page := d.Snapshot().Data.Page
	assert.Equal(t, 3, page.TotalPages())
	assert.True(t, page.HasNext())
	assert.False(t, page.HasPrev())
	m.AssertExpectations(t)
}

func TestDirectory_FailedLoadKeepsListAndIsRetryable(t *testing.T) {
	m := new(MockVendorAPI)
	m.On("List", mock.Anything, "c1", mock.Anything).
		Return(shared.NewPaginated([]partner.Vendor{{ID: "v1", Name: "Acme"}}, 1, 1, 20), nil).Once()
	m.On("List", mock.Anything, "c1", mock.Anything).
		Return(shared.Paginated[partner.Vendor]{}, errors.New("503")).Once()

	d := newDirectory(t, m, nil)
	require.NoError(t, d.Load(context.Background()).Err)
	before := d.Snapshot()

	res := d.Load(context.Background())
	require.Error(t, res.Err)
	assert.False(t, res.Degraded)
	assert.Same(t, before, d.Snapshot())
}

func TestDirectory_CreateValidation(t *testing.T) {
	m := new(MockVendorAPI)
	d := newDirectory(t, m, nil)

	err := d.Create(context.Background(), partner.VendorInput{Name: "   "})
	assert.ErrorIs(t, err, shared.ErrValidation)

	err = d.Create(context.Background(), partner.VendorInput{Name: "Acme", Email: "acme-at-example"})
	var verr *shared.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Fields[0].Field)

	m.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestDirectory_CreateTrimsAndReloads(t *testing.T) {
	m := new(MockVendorAPI)
	m.On("Create", mock.Anything, "c1", partner.VendorInput{Name: "Acme", Email: "ap@acme.example"}).
		Return(partner.Vendor{ID: "v1", Name: "Acme"}, nil)
	m.On("List", mock.Anything, "c1", mock.Anything).
		Return(shared.NewPaginated([]partner.Vendor{{ID: "v1", Name: "Acme"}}, 1, 1, 20), nil)

	d := newDirectory(t, m, nil)
	require.NoError(t, d.Create(context.Background(), partner.VendorInput{Name: " Acme ", Email: " ap@acme.example"}))
	require.NotNil(t, d.Snapshot())
	assert.Len(t, d.Snapshot().Data.Vendors, 1)
	m.AssertExpectations(t)
}

func TestDirectory_Delete(t *testing.T) {
	m := new(MockVendorAPI)
	d := newDirectory(t, m, viewstate.NeverConfirm)
	assert.ErrorIs(t, d.Delete(context.Background(), "v1"), shared.ErrNotConfirmed)
	m.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)

	m.On("Delete", mock.Anything, "c1", "v1").Return(&api.Error{StatusCode: 404, Message: "not found"})
	d = newDirectory(t, m, viewstate.AlwaysConfirm)
	err := d.Delete(context.Background(), "v1")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Nil(t, d.Snapshot())
}
