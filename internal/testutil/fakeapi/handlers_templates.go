package fakeapi

import (
	"net/http"
	"net/url"
	"path"
	"slices"
	"strings"

	"github.com/erp/books/internal/domain/template"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxLogoBytes caps logo uploads
const maxLogoBytes = 2 << 20

// LogoBaseURL prefixes the URL of every uploaded logo
const LogoBaseURL = "https://files.books.test/logos/"

func (s *Server) listTemplates(c *gin.Context) {
	rows := data(c).templates.all()
	if kind := c.Query("template_type"); kind != "" {
		rows = slices.DeleteFunc(rows, func(t template.Template) bool { return string(t.Type) != kind })
	}
	paginate(c, rows, func(t template.Template) string { return t.Name })
}

func (s *Server) getTemplate(c *gin.Context) {
	t, ok := data(c).templates.get(c.Param("id"))
	if !ok {
		notFound(c, "template")
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) bindTemplate(c *gin.Context) (template.Input, bool) {
	var in template.Input
	if !bind(c, &in) {
		return in, false
	}
	return in, s.check(c, in, in.Validate)
}

func (s *Server) createTemplate(c *gin.Context) {
	in, ok := s.bindTemplate(c)
	if !ok {
		return
	}
	d := data(c)
	now := s.opts.Now()
	t := template.Template{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Type:      in.Type,
		IsDefault: in.IsDefault,
		Settings:  in.Settings,
		CreatedAt: now,
		UpdatedAt: now,
	}
	d.putTemplate(t)
	statusCreated(c, t)
}

func (s *Server) updateTemplate(c *gin.Context) {
	d := data(c)
	existing, ok := d.templates.get(c.Param("id"))
	if !ok {
		notFound(c, "template")
		return
	}
	in, ok := s.bindTemplate(c)
	if !ok {
		return
	}
	existing.Name = in.Name
	existing.Type = in.Type
	existing.IsDefault = existing.IsDefault || in.IsDefault
	existing.Settings = in.Settings
	existing.UpdatedAt = s.opts.Now()
	d.putTemplate(existing)
	c.JSON(http.StatusOK, existing)
}

// deleteTemplate refuses the default template of a type
func (s *Server) deleteTemplate(c *gin.Context) {
	d := data(c)
	t, ok := d.templates.get(c.Param("id"))
	if !ok {
		notFound(c, "template")
		return
	}
	if t.IsDefault {
		conflict(c, "the default template cannot be deleted, make another template the default first")
		return
	}
	d.templates.remove(t.ID)
	c.Status(http.StatusNoContent)
}

func (s *Server) setDefaultTemplate(c *gin.Context) {
	d := data(c)
	t, ok := d.templates.get(c.Param("id"))
	if !ok {
		notFound(c, "template")
		return
	}
	t.IsDefault = true
	t.UpdatedAt = s.opts.Now()
	d.putTemplate(t)
	c.JSON(http.StatusOK, t)
}

func (s *Server) uploadLogo(c *gin.Context) {
	d := data(c)
	t, ok := d.templates.get(c.Param("id"))
	if !ok {
		notFound(c, "template")
		return
	}
	fh, err := c.FormFile("logo")
	if err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, "logo file is required")
		return
	}
	if fh.Size == 0 || fh.Size > maxLogoBytes {
		fail(c, http.StatusBadRequest, CodeBadRequest, "logo must be between 1 byte and 2 MB")
		return
	}
	switch strings.ToLower(path.Ext(fh.Filename)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".svg":
	default:
		fail(c, http.StatusBadRequest, CodeBadRequest, "logo must be a png, jpeg, gif or svg image")
		return
	}
	t.Settings.LogoURL = LogoBaseURL + t.ID + "/" + url.PathEscape(path.Base(fh.Filename))
	t.UpdatedAt = s.opts.Now()
	d.templates.put(t.ID, t)
	c.JSON(http.StatusOK, t)
}

// putTemplate stores t, keeping one default per document type
func (d *companyData) putTemplate(t template.Template) {
	if t.IsDefault {
		for _, other := range d.templates.all() {
			if other.ID != t.ID && other.Type == t.Type && other.IsDefault {
				other.IsDefault = false
				d.templates.put(other.ID, other)
			}
		}
	}
	d.templates.put(t.ID, t)
}
