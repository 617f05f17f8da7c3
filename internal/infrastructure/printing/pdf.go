package printing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/erp/books/internal/domain/template"
	"go.uber.org/zap"
)

const defaultRenderTimeout = 30 * time.Second

// PDFConfig configures the headless Chrome renderer
type PDFConfig struct {
	// ExecPath is the Chrome binary; empty searches PATH
	ExecPath string
	Timeout  time.Duration
	// NoSandbox is needed when running as root, e.g. in containers
	NoSandbox bool
	Logger    *zap.Logger
}

// PDFRenderer prints HTML to PDF through the Chrome DevTools Protocol
type PDFRenderer struct {
	timeout     time.Duration
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewPDFRenderer prepares a browser allocator. Chrome is started lazily on
// the first render.
func NewPDFRenderer(cfg PDFConfig) *PDFRenderer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRenderTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("font-render-hinting", "none"),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &PDFRenderer{
		timeout:     cfg.Timeout,
		logger:      logger.Named("printing"),
		allocCtx:    allocCtx,
		allocCancel: cancel,
	}
}

// Render prints html using the page setup of the template settings
func (r *PDFRenderer) Render(ctx context.Context, html string, settings template.Settings) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, errors.New("HTML content is empty")
	}
	if !settings.PaperSize.IsValid() {
		return nil, fmt.Errorf("unsupported paper size %q", settings.PaperSize)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	browserCtx, browserCancel := chromedp.NewContext(r.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			r.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer browserCancel()

	// Tie the browser tab to the caller's deadline
	go func() {
		<-ctx.Done()
		browserCancel()
	}()

	width, height := settings.PaperSize.Dimensions()
	m := settings.Margins
	start := time.Now()
	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithPrintBackground(true).
				WithPaperWidth(width).
				WithPaperHeight(height).
				WithMarginTop(mmToInches(m.Top)).
				WithMarginRight(mmToInches(m.Right)).
				WithMarginBottom(mmToInches(m.Bottom)).
				WithMarginLeft(mmToInches(m.Left)).
				WithLandscape(settings.Orientation == template.OrientationLandscape).
				Do(ctx)
			if err != nil {
				return err
			}
			pdf = data
			return nil
		}),
	)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("PDF rendering timed out after %v: %w", r.timeout, err)
		}
		return nil, fmt.Errorf("PDF rendering failed: %w", err)
	}

	r.logger.Debug("PDF rendered", zap.Int("bytes", len(pdf)), zap.Duration("elapsed", time.Since(start)))
	return pdf, nil
}

// Close shuts down the browser
func (r *PDFRenderer) Close() error {
	if r.allocCancel != nil {
		r.allocCancel()
	}
	return nil
}

func mmToInches(mm int) float64 {
	return float64(mm) / 25.4
}
