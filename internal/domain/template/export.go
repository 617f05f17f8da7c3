package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/erp/books/internal/domain/document"
	"github.com/erp/books/internal/domain/shared"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// FormatVersion is written into every export file
const FormatVersion = 1

// Format is the encoding of an export file
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the format from a file extension, defaulting to JSON
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ExportFile is the portable representation of a template. Identity fields
// (id, default flag, timestamps) are deliberately not part of it.
type ExportFile struct {
	Version    int           `json:"version" yaml:"version"`
	ExportedAt time.Time     `json:"exported_at" yaml:"exported_at"`
	Name       string        `json:"name" yaml:"name"`
	Type       document.Type `json:"template_type" yaml:"template_type"`
	Settings   Settings      `json:"settings" yaml:"settings"`
}

// Export builds the export file for a template
func Export(t Template, now time.Time) ExportFile {
	return ExportFile{
		Version:    FormatVersion,
		ExportedAt: now.UTC(),
		Name:       t.Name,
		Type:       t.Type,
		Settings:   t.Settings,
	}
}

// Encode writes the export file in the given format
func Encode(file ExportFile, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(file); err != nil {
			return nil, fmt.Errorf("encoding template yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		data, err := json.MarshalIndent(file, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encoding template json: %w", err)
		}
		return append(data, '\n'), nil
	}
}

// Decode parses an export file in the given format
func Decode(data []byte, format Format) (ExportFile, error) {
	var file ExportFile
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &file)
	default:
		err = json.Unmarshal(data, &file)
	}
	if err != nil {
		return ExportFile{}, shared.NewDomainError("INVALID_TEMPLATE_FILE", fmt.Sprintf("cannot parse template file: %v", err))
	}
	if file.Version == 0 || file.Version > FormatVersion {
		return ExportFile{}, shared.NewDomainError("INVALID_TEMPLATE_FILE", fmt.Sprintf("unsupported template file version %d", file.Version))
	}
	if !file.Type.IsValid() {
		return ExportFile{}, shared.NewDomainError("INVALID_TEMPLATE_FILE", fmt.Sprintf("unknown template type %q", file.Type))
	}
	return file, nil
}

// ImportInput turns an export file into a create payload. The name gets a
// fresh suffix so the import never collides with the template it came from.
func ImportInput(file ExportFile) Input {
	return Input{
		Name:      ImportedName(file.Name),
		Type:      file.Type,
		IsDefault: false,
		Settings:  file.Settings,
	}
}

// ImportedName appends a short unique suffix to name
func ImportedName(name string) string {
	base := strings.TrimSpace(name)
	if base == "" {
		base = "Template"
	}
	return fmt.Sprintf("%s (imported %s)", base, uuid.NewString()[:8])
}
