// Package template is the document template designer: template CRUD, file
// export and import, and previews rendered from a sample document.
package template

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/erp/books/internal/application/viewstate"
	"github.com/erp/books/internal/domain/company"
	"github.com/erp/books/internal/domain/document"
	"github.com/erp/books/internal/domain/shared"
	"github.com/erp/books/internal/domain/template"
	"github.com/erp/books/internal/infrastructure/api"
	"github.com/erp/books/internal/infrastructure/printing"
	"go.uber.org/zap"
)

// TemplateAPI is the template backend surface
type TemplateAPI interface {
	List(ctx context.Context, companyID string, params api.TemplateParams) (shared.Paginated[template.Template], error)
	Get(ctx context.Context, companyID, templateID string) (template.Template, error)
	Create(ctx context.Context, companyID string, in template.Input) (template.Template, error)
	Update(ctx context.Context, companyID, templateID string, in template.Input) (template.Template, error)
	Delete(ctx context.Context, companyID, templateID string) error
	SetDefault(ctx context.Context, companyID, templateID string) (template.Template, error)
	UploadLogo(ctx context.Context, companyID, templateID, filename string, data []byte) (template.Template, error)
}

// SettingsAPI reads the company profile shown on previews
type SettingsAPI interface {
	Get(ctx context.Context, companyID string) (company.Settings, error)
}

// HTMLRenderer renders a template design with a document
type HTMLRenderer interface {
	Render(settings template.Settings, doc printing.Document) (string, error)
}

// PDFRenderer prints rendered HTML
type PDFRenderer interface {
	Render(ctx context.Context, html string, settings template.Settings) ([]byte, error)
}

// Deps are the collaborators of the designer besides its backend service
type Deps struct {
	Settings SettingsAPI
	Tax      document.TaxPolicy
	HTML     HTMLRenderer
	// PDF is optional; without it RenderPDF fails
	PDF PDFRenderer
}

// Data is the template list
type Data struct {
	Templates []template.Template
	Page      shared.Page
}

// Designer is the template screen
type Designer struct {
	api        TemplateAPI
	deps       Deps
	env        viewstate.Env
	loader     *viewstate.Loader[Data]
	dispatcher *viewstate.Dispatcher

	mu      sync.RWMutex
	docType document.Type
}

// NewDesigner creates the template screen
func NewDesigner(templateAPI TemplateAPI, deps Deps, env viewstate.Env) *Designer {
	env = env.WithDefaults()
	if deps.Tax == nil {
		// The built-in rates are always valid
		deps.Tax, _ = document.NewFixedTaxPolicy(nil)
	}
	d := &Designer{api: templateAPI, deps: deps, env: env}
	d.loader = viewstate.NewLoader("templates", viewstate.NewStore[Data](), d.fetch, env.Options)
	d.dispatcher = env.NewDispatcher(d.loader.Load)
	return d
}

// SetType limits the list to one document type; empty lists all
func (d *Designer) SetType(t document.Type) {
	d.mu.Lock()
	d.docType = t
	d.mu.Unlock()
}

// Load refreshes the list
func (d *Designer) Load(ctx context.Context) viewstate.Result {
	return d.loader.Load(ctx)
}

// Snapshot returns the current published state
func (d *Designer) Snapshot() *viewstate.Snapshot[Data] {
	return d.loader.Store().Current()
}

func (d *Designer) fetch(ctx context.Context) (Data, error) {
	d.mu.RLock()
	docType := d.docType
	d.mu.RUnlock()

	page, err := d.api.List(ctx, d.env.CompanyID, api.TemplateParams{Type: string(docType)})
	if err != nil {
		return Data{}, err
	}
	return Data{Templates: page.Items, Page: page.PageState()}, nil
}

func (d *Designer) validate(in template.Input) error {
	if err := in.Validate(); err != nil {
		return err
	}
	return d.env.Validator.Struct(in)
}

// Create adds a template
func (d *Designer) Create(ctx context.Context, in template.Input) (template.Template, error) {
	var created template.Template
	err := d.dispatcher.Dispatch(ctx, viewstate.Mutation{
		Name:     "create template",
		Validate: func() error { return d.validate(in) },
		Execute: func(ctx context.Context) error {
			var err error
			created, err = d.api.Create(ctx, d.env.CompanyID, in)
			return err
		},
		Success: fmt.Sprintf("Template %q created", in.Name),
	})
	return created, err
}

// Update saves a template design
func (d *Designer) Update(ctx context.Context, templateID string, in template.Input) error {
	return d.dispatcher.Dispatch(ctx, viewstate.Mutation{
		Name: "update template",
		Validate: func() error {
			if templateID == "" {
				return shared.NewValidationError("template_id", "is required")
			}
			return d.validate(in)
		},
		Execute: func(ctx context.Context) error {
			_, err := d.api.Update(ctx, d.env.CompanyID, templateID, in)
			return err
		},
		Success: fmt.Sprintf("Template %q saved", in.Name),
	})
}

// Delete removes a template after confirmation
func (d *Designer) Delete(ctx context.Context, templateID string) error {
	return d.dispatcher.Dispatch(ctx, viewstate.Mutation{
		Name:        "delete template",
		Destructive: true,
		Prompt:      fmt.Sprintf("Delete template %s?", templateID),
		Validate: func() error {
			if templateID == "" {
				return shared.NewValidationError("template_id", "is required")
			}
			return nil
		},
		Execute: func(ctx context.Context) error {
			return d.api.Delete(ctx, d.env.CompanyID, templateID)
		},
		Success: "Template deleted",
	})
}

// SetDefault makes a template the default for its document type
func (d *Designer) SetDefault(ctx context.Context, templateID string) error {
	return d.dispatcher.Dispatch(ctx, viewstate.Mutation{
		Name: "set default template",
		Validate: func() error {
			if templateID == "" {
				return shared.NewValidationError("template_id", "is required")
			}
			return nil
		},
		Execute: func(ctx context.Context) error {
			_, err := d.api.SetDefault(ctx, d.env.CompanyID, templateID)
			return err
		},
		Success: "Default template changed",
	})
}

// UploadLogo sends an image file as the template logo
func (d *Designer) UploadLogo(ctx context.Context, templateID, path string) error {
	var data []byte
	return d.dispatcher.Dispatch(ctx, viewstate.Mutation{
		Name: "upload logo",
		Validate: func() error {
			var err error
			data, err = os.ReadFile(path)
			if err != nil {
				return shared.NewValidationError("logo", err.Error())
			}
			if len(data) == 0 {
				return shared.NewValidationError("logo", "is empty")
			}
			return nil
		},
		Execute: func(ctx context.Context) error {
			_, err := d.api.UploadLogo(ctx, d.env.CompanyID, templateID, filepath.Base(path), data)
			return err
		},
		Success: "Logo uploaded",
	})
}

// Export writes a template to path, as YAML for .yaml/.yml and JSON otherwise
func (d *Designer) Export(ctx context.Context, templateID, path string) error {
	t, err := d.api.Get(ctx, d.env.CompanyID, templateID)
	if err != nil {
		return err
	}
	data, err := template.Encode(template.Export(t, d.env.Now()), template.FormatForPath(path))
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing template file: %w", err)
	}
	d.env.Logger.Info("template exported", zap.String("template_id", templateID), zap.String("path", path))
	return nil
}

// Import creates a new template from an export file. The imported copy gets
// a fresh name and is never the default.
func (d *Designer) Import(ctx context.Context, path string) (template.Template, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return template.Template{}, fmt.Errorf("reading template file: %w", err)
	}
	file, err := template.Decode(raw, template.FormatForPath(path))
	if err != nil {
		return template.Template{}, err
	}
	return d.Create(ctx, template.ImportInput(file))
}

// Preview renders a template with a sample document
func (d *Designer) Preview(ctx context.Context, templateID string) (string, template.Settings, error) {
	t, err := d.api.Get(ctx, d.env.CompanyID, templateID)
	if err != nil {
		return "", template.Settings{}, err
	}
	html, err := d.PreviewSettings(ctx, t.Type, t.Settings)
	return html, t.Settings, err
}

// PreviewSettings renders an unsaved design with a sample document
func (d *Designer) PreviewSettings(ctx context.Context, docType document.Type, settings template.Settings) (string, error) {
	profile := company.Settings{Name: "Your Company"}
	if d.deps.Settings != nil {
		p, err := d.deps.Settings.Get(ctx, d.env.CompanyID)
		if err != nil {
			d.env.Logger.Warn("company settings unavailable, previewing with placeholder", zap.Error(err))
		} else {
			profile = p
		}
	}
	doc := printing.SampleDocument(docType, profile, d.deps.Tax, d.env.Now())
	return d.deps.HTML.Render(settings, doc)
}

// RenderPDF prints the preview of a template
func (d *Designer) RenderPDF(ctx context.Context, templateID string) ([]byte, error) {
	if d.deps.PDF == nil {
		return nil, shared.NewDomainError("PDF_UNAVAILABLE", "PDF rendering is not configured")
	}
	html, settings, err := d.Preview(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return d.deps.PDF.Render(ctx, html, settings)
}
