package api

import (
	"context"
	"net/http"

	"github.com/erp/books/internal/domain/shared"
	"github.com/erp/books/internal/domain/template"
)

const resourceTemplates = "templates"

// TemplateService calls the document template endpoints
type TemplateService struct {
	c *Client
}

// Templates returns the template service
func (c *Client) Templates() *TemplateService {
	return &TemplateService{c: c}
}

func (s *TemplateService) path(companyID string, parts ...string) string {
	return companyPath(companyID, append([]string{"emails", "templates"}, parts...)...)
}

// List returns the company's templates
func (s *TemplateService) List(ctx context.Context, companyID string, params TemplateParams) (shared.Paginated[template.Template], error) {
	if err := requireID("company", companyID); err != nil {
		return shared.Paginated[template.Template]{}, err
	}
	return getList[template.Template](ctx, s.c, resourceTemplates, s.path(companyID), params.Query())
}

// Get returns a template by ID
func (s *TemplateService) Get(ctx context.Context, companyID, templateID string) (template.Template, error) {
	if err := requireIDs("company", companyID, "template", templateID); err != nil {
		return template.Template{}, err
	}
	return getOne[template.Template](ctx, s.c, resourceTemplates, s.path(companyID, templateID), nil)
}

// Create creates a template
func (s *TemplateService) Create(ctx context.Context, companyID string, in template.Input) (template.Template, error) {
	if err := requireID("company", companyID); err != nil {
		return template.Template{}, err
	}
	return call[template.Template](ctx, s.c, Request{Method: http.MethodPost, Path: s.path(companyID), Body: in, Resource: resourceTemplates})
}

// Update replaces a template
func (s *TemplateService) Update(ctx context.Context, companyID, templateID string, in template.Input) (template.Template, error) {
	if err := requireIDs("company", companyID, "template", templateID); err != nil {
		return template.Template{}, err
	}
	return call[template.Template](ctx, s.c, Request{Method: http.MethodPut, Path: s.path(companyID, templateID), Body: in, Resource: resourceTemplates})
}

// Delete removes a template
func (s *TemplateService) Delete(ctx context.Context, companyID, templateID string) error {
	if err := requireIDs("company", companyID, "template", templateID); err != nil {
		return err
	}
	return s.c.Do(ctx, Request{Method: http.MethodDelete, Path: s.path(companyID, templateID), Resource: resourceTemplates}, nil)
}

// SetDefault makes the template the default for its document type
func (s *TemplateService) SetDefault(ctx context.Context, companyID, templateID string) (template.Template, error) {
	if err := requireIDs("company", companyID, "template", templateID); err != nil {
		return template.Template{}, err
	}
	return call[template.Template](ctx, s.c, Request{Method: http.MethodPost, Path: s.path(companyID, templateID, "default"), Resource: resourceTemplates})
}

// UploadLogo attaches a logo image and returns the updated template
func (s *TemplateService) UploadLogo(ctx context.Context, companyID, templateID, filename string, data []byte) (template.Template, error) {
	if err := requireIDs("company", companyID, "template", templateID); err != nil {
		return template.Template{}, err
	}
	body, contentType, err := multipartFile("logo", filename, data)
	if err != nil {
		return template.Template{}, err
	}
	return call[template.Template](ctx, s.c, Request{
		Method:      http.MethodPost,
		Path:        s.path(companyID, templateID, "logo"),
		RawBody:     body,
		ContentType: contentType,
		Resource:    resourceTemplates,
	})
}
