package backup

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/erp/books/internal/application/viewstate"
	"github.com/erp/books/internal/domain/billing"
	"github.com/erp/books/internal/domain/company"
	"github.com/erp/books/internal/domain/inventory"
	"github.com/erp/books/internal/domain/partner"
	"github.com/erp/books/internal/domain/purchasing"
	"github.com/erp/books/internal/domain/shared"
	"github.com/erp/books/internal/domain/template"
	"github.com/erp/books/internal/infrastructure/api"
	"github.com/erp/books/internal/infrastructure/storage"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	pageSize = 100
	// maxPages bounds how much of one resource a backup reads
	maxPages = 1000
	keyTime  = "20060102T150405Z"
)

// SettingsAPI reads and writes the company profile
type SettingsAPI interface {
	Get(ctx context.Context, companyID string) (company.Settings, error)
	Update(ctx context.Context, companyID string, in company.Settings) (company.Settings, error)
}

// VendorAPI lists and creates vendors
type VendorAPI interface {
	List(ctx context.Context, companyID string, params api.VendorParams) (shared.Paginated[partner.Vendor], error)
	Create(ctx context.Context, companyID string, in partner.VendorInput) (partner.Vendor, error)
}

// ItemAPI lists and creates items
type ItemAPI interface {
	List(ctx context.Context, companyID string, params api.ItemParams) (shared.Paginated[inventory.Item], error)
	Create(ctx context.Context, companyID string, in inventory.ItemInput) (inventory.Item, error)
}

// BillAPI lists and creates bills
type BillAPI interface {
	List(ctx context.Context, companyID string, params api.BillParams) (shared.Paginated[billing.Bill], error)
	Create(ctx context.Context, companyID string, in billing.BillInput) (billing.Bill, error)
}

// OrderAPI lists and creates purchase orders
type OrderAPI interface {
	List(ctx context.Context, companyID string, params api.OrderParams) (shared.Paginated[purchasing.PurchaseOrder], error)
	Create(ctx context.Context, companyID string, in purchasing.OrderInput) (purchasing.PurchaseOrder, error)
}

// TemplateAPI lists and creates templates
type TemplateAPI interface {
	List(ctx context.Context, companyID string, params api.TemplateParams) (shared.Paginated[template.Template], error)
	Create(ctx context.Context, companyID string, in template.Input) (template.Template, error)
}

// Services are the backend resources a backup covers
type Services struct {
	Settings  SettingsAPI
	Vendors   VendorAPI
	Items     ItemAPI
	Bills     BillAPI
	Orders    OrderAPI
	Templates TemplateAPI
}

// Service creates, lists and restores backups
type Service struct {
	api        Services
	store      storage.ArchiveStore
	env        viewstate.Env
	dispatcher *viewstate.Dispatcher
}

// NewService creates the backup service
func NewService(services Services, store storage.ArchiveStore, env viewstate.Env) *Service {
	env = env.WithDefaults()
	return &Service{
		api:        services,
		store:      store,
		env:        env,
		dispatcher: env.NewDispatcher(nil),
	}
}

func (s *Service) prefix() string {
	return s.env.CompanyID + "/"
}

// Create reads every record of the company and stores one archive
func (s *Service) Create(ctx context.Context) (storage.ArchiveInfo, error) {
	archive, err := s.snapshot(ctx)
	if err != nil {
		return storage.ArchiveInfo{}, err
	}
	data, err := Encode(archive)
	if err != nil {
		return storage.ArchiveInfo{}, err
	}
	key := path.Join(s.env.CompanyID, archive.CreatedAt.UTC().Format(keyTime)+".json.gz")
	if err := s.store.Put(ctx, key, data); err != nil {
		return storage.ArchiveInfo{}, fmt.Errorf("storing archive: %w", err)
	}
	s.env.Logger.Info("backup created",
		zap.String("key", key),
		zap.Int("bytes", len(data)),
		zap.Any("records", archive.Counts()))
	return storage.ArchiveInfo{Key: key, Size: int64(len(data)), ModifiedAt: archive.CreatedAt}, nil
}

func (s *Service) snapshot(ctx context.Context) (Archive, error) {
	companyID := s.env.CompanyID
	a := Archive{Version: ArchiveVersion, CompanyID: companyID, CreatedAt: s.env.Now().UTC()}

	var err error
	if a.Settings, err = s.api.Settings.Get(ctx, companyID); err != nil {
		return Archive{}, fmt.Errorf("reading settings: %w", err)
	}
	if a.Vendors, err = collect(ctx, "vendors", func(ctx context.Context, lp api.ListParams) (shared.Paginated[partner.Vendor], error) {
		return s.api.Vendors.List(ctx, companyID, api.VendorParams{ListParams: lp})
	}); err != nil {
		return Archive{}, err
	}
	if a.Items, err = collect(ctx, "items", func(ctx context.Context, lp api.ListParams) (shared.Paginated[inventory.Item], error) {
		return s.api.Items.List(ctx, companyID, api.ItemParams{ListParams: lp})
	}); err != nil {
		return Archive{}, err
	}
	if a.Bills, err = collect(ctx, "bills", func(ctx context.Context, lp api.ListParams) (shared.Paginated[billing.Bill], error) {
		return s.api.Bills.List(ctx, companyID, api.BillParams{ListParams: lp})
	}); err != nil {
		return Archive{}, err
	}
	if a.PurchaseOrders, err = collect(ctx, "purchase orders", func(ctx context.Context, lp api.ListParams) (shared.Paginated[purchasing.PurchaseOrder], error) {
		return s.api.Orders.List(ctx, companyID, api.OrderParams{ListParams: lp})
	}); err != nil {
		return Archive{}, err
	}
	if a.Templates, err = collect(ctx, "templates", func(ctx context.Context, lp api.ListParams) (shared.Paginated[template.Template], error) {
		return s.api.Templates.List(ctx, companyID, api.TemplateParams{ListParams: lp})
	}); err != nil {
		return Archive{}, err
	}
	return a, nil
}

// collect pages through a list endpoint until the backend total is reached
func collect[T any](ctx context.Context, resource string, list func(context.Context, api.ListParams) (shared.Paginated[T], error)) ([]T, error) {
	var all []T
	for page := 1; page <= maxPages; page++ {
		res, err := list(ctx, api.ListParams{Page: page, PageSize: pageSize})
		if err != nil {
			return nil, fmt.Errorf("reading %s page %d: %w", resource, page, err)
		}
		all = append(all, res.Items...)
		if len(res.Items) == 0 || int64(len(all)) >= res.Total {
			return all, nil
		}
	}
	return nil, fmt.Errorf("reading %s: more than %d pages", resource, maxPages)
}

// List returns the company's archives, newest first
func (s *Service) List(ctx context.Context) ([]storage.ArchiveInfo, error) {
	return s.store.List(ctx, s.prefix())
}

// Load reads and decodes one archive. A bare file name is looked up among
// the company's own archives; a full key such as "acme/20260501T083000Z.json.gz"
// may name another company's archive.
func (s *Service) Load(ctx context.Context, key string) (Archive, error) {
	if !strings.Contains(key, "/") {
		key = path.Join(s.env.CompanyID, key)
	}
	data, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrArchiveNotFound) {
			return Archive{}, fmt.Errorf("backup %s: %w", key, shared.ErrNotFound)
		}
		return Archive{}, err
	}
	return Decode(data)
}

// RestoreOptions tunes a restore
type RestoreOptions struct {
	// Settings overwrites the company profile with the archived one
	Settings bool
}

// Failure is one record a restore could not recreate
type Failure struct {
	Resource string
	ID       string
	Err      error
}

// Report is the outcome of a restore
type Report struct {
	Created  map[string]int
	Skipped  map[string]int
	Failures []Failure
}

func (r *Report) fail(resource, id string, err error) {
	r.Failures = append(r.Failures, Failure{Resource: resource, ID: id, Err: err})
}

// Restore recreates the records of an archive in the current company. It
// only creates: existing records are never updated or deleted. References
// between records are remapped to the ids the backend assigns. A record that
// fails is reported and the restore continues.
func (s *Service) Restore(ctx context.Context, key string, opts RestoreOptions) (Report, error) {
	archive, err := s.Load(ctx, key)
	if err != nil {
		return Report{}, err
	}

	report := Report{Created: map[string]int{}, Skipped: map[string]int{}}
	err = s.dispatcher.Dispatch(ctx, viewstate.Mutation{
		Name:        "restore backup",
		Destructive: true,
		Prompt: fmt.Sprintf("Restore %s into company %s? This creates %d vendors, %d items, %d bills, %d purchase orders and %d templates.",
			key, s.env.CompanyID, len(archive.Vendors), len(archive.Items), len(archive.Bills), len(archive.PurchaseOrders), len(archive.Templates)),
		Execute: func(ctx context.Context) error {
			return s.replay(ctx, archive, opts, &report)
		},
		Success: "Backup restored",
	})
	return report, err
}

func (s *Service) replay(ctx context.Context, a Archive, opts RestoreOptions, report *Report) error {
	companyID := s.env.CompanyID

	if opts.Settings {
		settings := a.Settings
		settings.ID = companyID
		if _, err := s.api.Settings.Update(ctx, companyID, settings); err != nil {
			report.fail("settings", companyID, err)
		} else {
			report.Created["settings"]++
		}
	}

	vendorIDs := make(map[string]string, len(a.Vendors))
	for _, v := range a.Vendors {
		if err := ctx.Err(); err != nil {
			return err
		}
		created, err := s.api.Vendors.Create(ctx, companyID, partner.InputFrom(v))
		if err != nil {
			report.fail("vendors", v.ID, err)
			continue
		}
		vendorIDs[v.ID] = created.ID
		report.Created["vendors"]++
	}

	itemIDs := make(map[string]string, len(a.Items))
	for _, it := range a.Items {
		if err := ctx.Err(); err != nil {
			return err
		}
		in := inventory.ItemInput{
			SKU:          it.SKU,
			Name:         it.Name,
			Description:  it.Description,
			Category:     it.Category,
			Quantity:     it.QuantityOnHand,
			ReorderPoint: it.ReorderPoint,
			MaxStock:     it.MaxStock,
			UnitCost:     it.UnitCost,
			UnitPrice:    it.UnitPrice,
			VendorID:     vendorIDs[it.VendorID],
		}
		created, err := s.api.Items.Create(ctx, companyID, in)
		if err != nil {
			report.fail("items", it.ID, err)
			continue
		}
		itemIDs[it.ID] = created.ID
		report.Created["items"]++
	}

	for _, b := range a.Bills {
		if err := ctx.Err(); err != nil {
			return err
		}
		vendorID, ok := vendorIDs[b.VendorID]
		if !ok {
			report.Skipped["bills"]++
			continue
		}
		if _, err := s.api.Bills.Create(ctx, companyID, billInput(b, vendorID, itemIDs)); err != nil {
			report.fail("bills", b.ID, err)
			continue
		}
		report.Created["bills"]++
	}

	for _, o := range a.PurchaseOrders {
		if err := ctx.Err(); err != nil {
			return err
		}
		vendorID, ok := vendorIDs[o.VendorID]
		if !ok {
			report.Skipped["purchase_orders"]++
			continue
		}
		in := purchasing.OrderInput{
			VendorID:     vendorID,
			OrderDate:    o.OrderDate,
			ExpectedDate: o.ExpectedDate,
			Memo:         o.Memo,
		}
		for _, l := range o.Lines {
			l.ItemID = itemIDs[l.ItemID]
			in.Lines = append(in.Lines, l)
		}
		if _, err := s.api.Orders.Create(ctx, companyID, in); err != nil {
			report.fail("purchase_orders", o.ID, err)
			continue
		}
		report.Created["purchase_orders"]++
	}

	for _, t := range a.Templates {
		if err := ctx.Err(); err != nil {
			return err
		}
		in := template.InputFrom(t)
		in.IsDefault = false
		if _, err := s.api.Templates.Create(ctx, companyID, in); err != nil {
			report.fail("templates", t.ID, err)
			continue
		}
		report.Created["templates"]++
	}

	if len(report.Failures) > 0 {
		s.env.Logger.Warn("restore finished with failures", zap.Int("failures", len(report.Failures)))
	}
	return nil
}

// billInput rebuilds a bill payload with item references mapped to the
// restored items; a reference to an item that was not restored is dropped.
// Bills listed without lines are restored as one line carrying the total.
func billInput(b billing.Bill, vendorID string, itemIDs map[string]string) billing.BillInput {
	lines := make([]billing.BillLine, 0, len(b.Lines))
	for _, l := range b.Lines {
		if l.ItemID != "" {
			l.ItemID = itemIDs[l.ItemID]
		}
		lines = append(lines, l)
	}
	if len(lines) == 0 {
		lines = []billing.BillLine{{Description: "Restored bill total", Quantity: decimal.NewFromInt(1), UnitCost: b.Total}}
	}
	return billing.BillInput{
		VendorID: vendorID,
		Number:   b.Number,
		BillDate: b.BillDate,
		DueDate:  b.DueDate,
		Memo:     b.Memo,
		Lines:    lines,
	}
}
