package template

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/erp/books/internal/application/viewstate"
	"github.com/erp/books/internal/domain/company"
	"github.com/erp/books/internal/domain/document"
	"github.com/erp/books/internal/domain/shared"
	"github.com/erp/books/internal/domain/template"
	"github.com/erp/books/internal/infrastructure/api"
	"github.com/erp/books/internal/infrastructure/printing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// MockTemplateAPI is a mock implementation of TemplateAPI
type MockTemplateAPI struct {
	mock.Mock
}

func (m *MockTemplateAPI) List(ctx context.Context, companyID string, params api.TemplateParams) (shared.Paginated[template.Template], error) {
	args := m.Called(ctx, companyID, params)
	return args.Get(0).(shared.Paginated[template.Template]), args.Error(1)
}

func (m *MockTemplateAPI) Get(ctx context.Context, companyID, templateID string) (template.Template, error) {
	args := m.Called(ctx, companyID, templateID)
	return args.Get(0).(template.Template), args.Error(1)
}

func (m *MockTemplateAPI) Create(ctx context.Context, companyID string, in template.Input) (template.Template, error) {
	args := m.Called(ctx, companyID, in)
	return args.Get(0).(template.Template), args.Error(1)
}

func (m *MockTemplateAPI) Update(ctx context.Context, companyID, templateID string, in template.Input) (template.Template, error) {
	args := m.Called(ctx, companyID, templateID, in)
	return args.Get(0).(template.Template), args.Error(1)
}

func (m *MockTemplateAPI) Delete(ctx context.Context, companyID, templateID string) error {
	return m.Called(ctx, companyID, templateID).Error(0)
}

func (m *MockTemplateAPI) SetDefault(ctx context.Context, companyID, templateID string) (template.Template, error) {
	args := m.Called(ctx, companyID, templateID)
	return args.Get(0).(template.Template), args.Error(1)
}

func (m *MockTemplateAPI) UploadLogo(ctx context.Context, companyID, templateID, filename string, data []byte) (template.Template, error) {
	args := m.Called(ctx, companyID, templateID, filename, data)
	return args.Get(0).(template.Template), args.Error(1)
}

type stubSettings struct {
	settings company.Settings
	err      error
}

func (s stubSettings) Get(context.Context, string) (company.Settings, error) {
	return s.settings, s.err
}

type stubPDF struct{}

func (stubPDF) Render(_ context.Context, html string, _ template.Settings) ([]byte, error) {
	return []byte("%PDF-" + html[:15]), nil
}

var (
	_ TemplateAPI  = (*api.TemplateService)(nil)
	_ SettingsAPI  = (*api.SettingsService)(nil)
	_ HTMLRenderer = (*printing.Engine)(nil)
	_ PDFRenderer  = (*printing.PDFRenderer)(nil)
)

var now = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func newDesigner(t *testing.T, m *MockTemplateAPI, settings SettingsAPI, confirmer viewstate.Confirmer) *Designer {
	engine, err := printing.NewEngine()
	require.NoError(t, err)
	return NewDesigner(m, Deps{Settings: settings, HTML: engine, PDF: stubPDF{}}, viewstate.Env{
		CompanyID: "c1",
		Confirmer: confirmer,
		Options: viewstate.Options{
			Logger: zaptest.NewLogger(t),
			Now:    func() time.Time { return now },
		},
	})
}

func sampleTemplate() template.Template {
	s := template.DefaultSettings()
	s.PaperSize = template.PaperA4
	s.FooterText = "Thanks!"
	return template.Template{ID: "t1", Name: "Modern", Type: document.TypeInvoice, IsDefault: true, Settings: s}
}

func TestDesigner_ExportImportRoundTrip(t *testing.T) {
	for _, ext := range []string{".json", ".yaml"} {
		t.Run(ext, func(t *testing.T) {
			m := new(MockTemplateAPI)
			original := sampleTemplate()
			m.On("Get", mock.Anything, "c1", "t1").Return(original, nil)

			var created template.Input
			m.On("Create", mock.Anything, "c1", mock.Anything).
				Run(func(args mock.Arguments) { created = args.Get(2).(template.Input) }).
				Return(template.Template{ID: "t2"}, nil)
			m.On("List", mock.Anything, "c1", mock.Anything).Return(shared.NewPaginated([]template.Template{original}, 1, 1, 20), nil)

			d := newDesigner(t, m, nil, nil)
			path := filepath.Join(t.TempDir(), "modern"+ext)
			require.NoError(t, d.Export(context.Background(), "t1", path))

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.NotContains(t, string(raw), "is_default")

			imported, err := d.Import(context.Background(), path)
			require.NoError(t, err)
			assert.Equal(t, "t2", imported.ID)

			assert.Equal(t, original.Settings, created.Settings)
			assert.Equal(t, original.Type, created.Type)
			assert.False(t, created.IsDefault)
			assert.NotEqual(t, original.Name, created.Name)
			assert.True(t, strings.HasPrefix(created.Name, "Modern (imported "))
		})
	}
}

func TestDesigner_ImportRejectsBadFile(t *testing.T) {
	m := new(MockTemplateAPI)
	d := newDesigner(t, m, nil, nil)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 99, "name": "x"}`), 0o644))

	_, err := d.Import(context.Background(), path)
	assert.Error(t, err)
	m.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestDesigner_PreviewUsesCompanyAndTax(t *testing.T) {
	m := new(MockTemplateAPI)
	m.On("Get", mock.Anything, "c1", "t1").Return(sampleTemplate(), nil)

	d := newDesigner(t, m, stubSettings{settings: company.Settings{ID: "c1", Name: "Northwind", Currency: "USD"}}, nil)
	html, settings, err := d.Preview(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, template.PaperA4, settings.PaperSize)
	assert.Contains(t, html, "Northwind")
	assert.Contains(t, html, "646.92 USD")
	assert.Contains(t, html, "Thanks!")
}

func TestDesigner_PreviewWithoutCompanySettings(t *testing.T) {
	m := new(MockTemplateAPI)
	d := newDesigner(t, m, stubSettings{err: errors.New("403")}, nil)

	html, err := d.PreviewSettings(context.Background(), document.TypeEstimate, template.DefaultSettings())
	require.NoError(t, err)
	assert.Contains(t, html, "Your Company")
	assert.Contains(t, html, "Estimate")
}

func TestDesigner_RenderPDF(t *testing.T) {
	m := new(MockTemplateAPI)
	m.On("Get", mock.Anything, "c1", "t1").Return(sampleTemplate(), nil)

	d := newDesigner(t, m, nil, nil)
	pdf, err := d.RenderPDF(context.Background(), "t1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF-"))
}

func TestDesigner_DeleteAndDefault(t *testing.T) {
	m := new(MockTemplateAPI)
	d := newDesigner(t, m, nil, viewstate.NeverConfirm)
	assert.ErrorIs(t, d.Delete(context.Background(), "t1"), shared.ErrNotConfirmed)
	m.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)

	m.On("SetDefault", mock.Anything, "c1", "t1").Return(sampleTemplate(), nil)
	m.On("List", mock.Anything, "c1", api.TemplateParams{}).Return(shared.NewPaginated([]template.Template{sampleTemplate()}, 1, 1, 20), nil)
	require.NoError(t, d.SetDefault(context.Background(), "t1"))
	require.NotNil(t, d.Snapshot())
	assert.True(t, d.Snapshot().Data.Templates[0].IsDefault)
}

func TestDesigner_CreateValidates(t *testing.T) {
	m := new(MockTemplateAPI)
	d := newDesigner(t, m, nil, nil)

	in := template.Input{Name: "Bad", Type: document.TypeInvoice, Settings: template.DefaultSettings()}
	in.Settings.Colors.Primary = "blue"
	_, err := d.Create(context.Background(), in)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = d.Create(context.Background(), template.Input{Name: "x", Type: "receipt", Settings: template.DefaultSettings()})
	assert.ErrorIs(t, err, shared.ErrValidation)
	m.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestDesigner_UploadLogo(t *testing.T) {
	m := new(MockTemplateAPI)
	path := filepath.Join(t.TempDir(), "logo.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG"), 0o644))
	m.On("UploadLogo", mock.Anything, "c1", "t1", "logo.png", []byte("\x89PNG")).Return(sampleTemplate(), nil)
	m.On("List", mock.Anything, "c1", mock.Anything).Return(shared.NewPaginated([]template.Template{}, 0, 1, 20), nil)

	d := newDesigner(t, m, nil, nil)
	require.NoError(t, d.UploadLogo(context.Background(), "t1", path))
	assert.ErrorIs(t, d.UploadLogo(context.Background(), "t1", filepath.Join(t.TempDir(), "missing.png")), shared.ErrValidation)
	m.AssertNumberOfCalls(t, "UploadLogo", 1)
}
