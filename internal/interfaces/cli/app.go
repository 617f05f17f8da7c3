// Package cli is the books command line: one cobra command per screen
// operation, wired to the same screens and services an interactive front end
// would use.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	backupapp "github.com/erp/books/internal/application/backup"
	billingapp "github.com/erp/books/internal/application/billing"
	inventoryapp "github.com/erp/books/internal/application/inventory"
	partnerapp "github.com/erp/books/internal/application/partner"
	purchasingapp "github.com/erp/books/internal/application/purchasing"
	templateapp "github.com/erp/books/internal/application/template"
	"github.com/erp/books/internal/application/viewstate"
	"github.com/erp/books/internal/domain/document"
	"github.com/erp/books/internal/infrastructure/api"
	"github.com/erp/books/internal/infrastructure/config"
	"github.com/erp/books/internal/infrastructure/logger"
	"github.com/erp/books/internal/infrastructure/printing"
	"github.com/erp/books/internal/infrastructure/session"
	"github.com/erp/books/internal/infrastructure/storage"
	"github.com/erp/books/internal/infrastructure/telemetry"
	"github.com/erp/books/internal/infrastructure/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// App holds everything one command invocation needs. It is built after flag
// parsing and closed when the command returns.
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *telemetry.Metrics
	Client  *api.Client
	Session *session.Manager

	companyID string
	yes       bool
	in        io.Reader
	out       io.Writer
	errOut    io.Writer
	now       func() time.Time

	tracer       *telemetry.TracerProvider
	sessionStore session.Store
	ownsStore    bool
	archives     storage.ArchiveStore
	validator    *validation.Validator
}

// globalFlags are the persistent flags shared by every command
type globalFlags struct {
	configPath string
	companyID  string
	logLevel   string
	yes        bool
}

func newApp(ctx context.Context, flags globalFlags, opts Options) (*App, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	a := &App{
		Config:    cfg,
		Logger:    log,
		companyID: flags.companyID,
		yes:       flags.yes,
		in:        opts.Stdin,
		out:       opts.Stdout,
		errOut:    opts.Stderr,
		now:       opts.Now,
		validator: validation.New(),
	}
	if a.companyID == "" {
		a.companyID = cfg.App.CompanyID
	}
	if cfg.Metrics.Enabled {
		a.Metrics = telemetry.NewMetrics()
	}

	a.tracer, err = telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return nil, err
	}

	a.Client, err = api.New(api.Options{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout,
		RateLimit:  cfg.API.RateLimit,
		RateBurst:  cfg.API.RateBurst,
		UserAgent:  cfg.API.UserAgent,
		HTTPClient: opts.HTTPClient,
		Logger:     log,
		Metrics:    a.Metrics,
		Tracer:     a.tracer.Tracer("books/api"),
	})
	if err != nil {
		return nil, err
	}

	a.sessionStore = opts.SessionStore
	if a.sessionStore == nil {
		a.sessionStore, err = session.NewStore(cfg.Session, log)
		if err != nil {
			return nil, fmt.Errorf("opening session store: %w", err)
		}
		a.ownsStore = true
	}
	a.Session = session.NewManager(a.sessionStore, a.Client.Auth(), session.KeyFor(cfg.API.BaseURL),
		session.WithRefreshSkew(cfg.Session.RefreshSkew),
		session.WithLogger(log),
		session.WithMetrics(a.Metrics),
	)
	a.Client.SetTokenSource(a.Session)
	a.archives = opts.Archives

	log.Debug("books starting",
		zap.String("env", cfg.App.Env),
		zap.String("base_url", cfg.API.BaseURL),
		zap.String("session_store", cfg.Session.Store),
	)
	return a, nil
}

// Close flushes metrics and spans and releases the session store
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.Metrics.WriteTextfile(a.Config.Metrics.TextfilePath); err != nil {
		errs = append(errs, err)
	}
	if err := a.tracer.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if a.ownsStore {
		if err := a.sessionStore.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	_ = a.Logger.Sync()
	return errors.Join(errs...)
}

// company returns the selected company or an error naming the flag to set
func (a *App) company() (string, error) {
	if a.companyID == "" {
		return "", errors.New("no company selected: pass --company or set app.company_id")
	}
	return a.companyID, nil
}

// env builds the screen environment for the selected company
func (a *App) env() (viewstate.Env, error) {
	companyID, err := a.company()
	if err != nil {
		return viewstate.Env{}, err
	}
	var confirmer viewstate.Confirmer = newPromptConfirmer(a.in, a.errOut)
	if a.yes {
		confirmer = viewstate.AlwaysConfirm
	}
	return viewstate.Env{
		CompanyID: companyID,
		Confirmer: confirmer,
		Notifier:  newNoticePrinter(a.out, a.errOut, a.Logger),
		Validator: a.validator,
		Options: viewstate.Options{
			Logger:  logger.Enrich(logger.WithCompanyID(context.Background(), companyID), a.Logger),
			Metrics: a.Metrics,
			Now:     a.now,
		},
	}, nil
}

func (a *App) vendorDirectory() (*partnerapp.Directory, error) {
	env, err := a.env()
	if err != nil {
		return nil, err
	}
	return partnerapp.NewDirectory(a.Client.Vendors(), env), nil
}

func (a *App) billRegister() (*billingapp.Register, error) {
	env, err := a.env()
	if err != nil {
		return nil, err
	}
	return billingapp.NewRegister(a.Client.Bills(), env), nil
}

func (a *App) inventoryCenter() (*inventoryapp.Center, error) {
	env, err := a.env()
	if err != nil {
		return nil, err
	}
	return inventoryapp.NewCenter(a.Client.Inventory(), env), nil
}

func (a *App) orderBoard() (*purchasingapp.Board, error) {
	env, err := a.env()
	if err != nil {
		return nil, err
	}
	return purchasingapp.NewBoard(a.Client.PurchaseOrders(), a.Client.Vendors(), a.Client.Items(), env), nil
}

// templateDesigner wires the designer with HTML rendering and, when withPDF
// is set, a headless browser for PDF output. The returned cleanup stops the
// browser.
func (a *App) templateDesigner(withPDF bool) (*templateapp.Designer, func(), error) {
	env, err := a.env()
	if err != nil {
		return nil, nil, err
	}
	tax, err := taxPolicy(a.Config.Tax)
	if err != nil {
		return nil, nil, err
	}
	engine, err := printing.NewEngine()
	if err != nil {
		return nil, nil, err
	}
	deps := templateapp.Deps{Settings: a.Client.Settings(), Tax: tax, HTML: engine}
	cleanup := func() {}
	if withPDF {
		pdf := printing.NewPDFRenderer(printing.PDFConfig{
			ExecPath: a.Config.Printing.ChromePath,
			Timeout:  a.Config.Printing.Timeout,
			Logger:   a.Logger,
		})
		deps.PDF = pdf
		cleanup = func() { _ = pdf.Close() }
	}
	return templateapp.NewDesigner(a.Client.Templates(), deps, env), cleanup, nil
}

func (a *App) backupService(ctx context.Context) (*backupapp.Service, error) {
	env, err := a.env()
	if err != nil {
		return nil, err
	}
	if a.archives == nil {
		a.archives, err = storage.NewArchiveStore(ctx, a.Config.Storage, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("opening archive store: %w", err)
		}
	}
	return backupapp.NewService(backupapp.Services{
		Settings:  a.Client.Settings(),
		Vendors:   a.Client.Vendors(),
		Items:     a.Client.Items(),
		Bills:     a.Client.Bills(),
		Orders:    a.Client.PurchaseOrders(),
		Templates: a.Client.Templates(),
	}, a.archives, env), nil
}

// taxPolicy builds the document tax policy from configured rates
func taxPolicy(cfg config.TaxConfig) (document.TaxPolicy, error) {
	rates := make(map[document.Type]decimal.Decimal, len(cfg.Rates))
	for name, rate := range cfg.Rates {
		t := document.Type(name)
		if !t.IsValid() {
			return nil, fmt.Errorf("tax.rates: unknown document type %q", name)
		}
		rates[t] = rate
	}
	policy, err := document.NewFixedTaxPolicy(rates)
	if err != nil {
		return nil, fmt.Errorf("tax.rates: %w", err)
	}
	return policy, nil
}
