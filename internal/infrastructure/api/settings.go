package api

import (
	"context"
	"net/http"

	"github.com/erp/books/internal/domain/company"
)

const resourceSettings = "settings"

// SettingsService calls the company settings endpoint
type SettingsService struct {
	c *Client
}

// Settings returns the settings service
func (c *Client) Settings() *SettingsService {
	return &SettingsService{c: c}
}

// Get returns the company settings
func (s *SettingsService) Get(ctx context.Context, companyID string) (company.Settings, error) {
	if err := requireID("company", companyID); err != nil {
		return company.Settings{}, err
	}
	return getOne[company.Settings](ctx, s.c, resourceSettings, companyPath(companyID, "settings"), nil)
}

// Update replaces the company settings
func (s *SettingsService) Update(ctx context.Context, companyID string, in company.Settings) (company.Settings, error) {
	if err := requireID("company", companyID); err != nil {
		return company.Settings{}, err
	}
	return call[company.Settings](ctx, s.c, Request{
		Method:   http.MethodPut,
		Path:     companyPath(companyID, "settings"),
		Body:     in,
		Resource: resourceSettings,
	})
}
