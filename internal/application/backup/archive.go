// Package backup snapshots a company's records into compressed archives and
// restores them by replaying creates against the backend.
package backup

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/erp/books/internal/domain/billing"
	"github.com/erp/books/internal/domain/company"
	"github.com/erp/books/internal/domain/inventory"
	"github.com/erp/books/internal/domain/partner"
	"github.com/erp/books/internal/domain/purchasing"
	"github.com/erp/books/internal/domain/shared"
	"github.com/erp/books/internal/domain/template"
)

// ArchiveVersion is written into every archive
const ArchiveVersion = 1

// Archive is the content of one backup
type Archive struct {
	Version        int                        `json:"version"`
	CompanyID      string                     `json:"company_id"`
	CreatedAt      time.Time                  `json:"created_at"`
	Settings       company.Settings           `json:"settings"`
	Vendors        []partner.Vendor           `json:"vendors"`
	Items          []inventory.Item           `json:"items"`
	Bills          []billing.Bill             `json:"bills"`
	PurchaseOrders []purchasing.PurchaseOrder `json:"purchase_orders"`
	Templates      []template.Template        `json:"templates"`
}

// Counts summarizes the records held by an archive
func (a Archive) Counts() map[string]int {
	return map[string]int{
		"vendors":         len(a.Vendors),
		"items":           len(a.Items),
		"bills":           len(a.Bills),
		"purchase_orders": len(a.PurchaseOrders),
		"templates":       len(a.Templates),
	}
}

// Encode writes the archive as gzip-compressed JSON
func Encode(a Archive) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Name = "backup.json"
	zw.ModTime = a.CreatedAt
	if err := json.NewEncoder(zw).Encode(a); err != nil {
		return nil, fmt.Errorf("encoding archive: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compressing archive: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode reads an archive written by Encode
func Decode(data []byte) (Archive, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return Archive{}, shared.NewDomainError("INVALID_ARCHIVE", fmt.Sprintf("archive is not gzip data: %v", err))
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return Archive{}, shared.NewDomainError("INVALID_ARCHIVE", fmt.Sprintf("archive is truncated: %v", err))
	}
	var a Archive
	if err := json.Unmarshal(raw, &a); err != nil {
		return Archive{}, shared.NewDomainError("INVALID_ARCHIVE", fmt.Sprintf("archive is not valid JSON: %v", err))
	}
	if a.Version == 0 || a.Version > ArchiveVersion {
		return Archive{}, shared.NewDomainError("INVALID_ARCHIVE", fmt.Sprintf("unsupported archive version %d", a.Version))
	}
	return a, nil
}
