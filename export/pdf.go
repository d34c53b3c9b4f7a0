package export

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dispatch-ledger/models"
	"dispatch-ledger/utils"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// PDFPrinter prints HTML pages to PDF with headless Chrome
type PDFPrinter struct {
	logger     *utils.Logger
	timeout    time.Duration
	maxRetries int
	limiter    *utils.RateLimiter
}

// NewPDFPrinter creates a new PDFPrinter. Renders are spaced by at least minIntervalMs.
func NewPDFPrinter(timeout time.Duration, maxRetries, minIntervalMs int, logger *utils.Logger) *PDFPrinter {
	return &PDFPrinter{
		logger:     logger,
		timeout:    timeout,
		maxRetries: maxRetries,
		limiter:    utils.NewRateLimiter(minIntervalMs),
	}
}

// newContext starts a fresh headless browser bound to parent
func (p *PDFPrinter) newContext(parent context.Context) (context.Context, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("log-level", "3"), // suppress Chrome logs
		chromedp.WindowSize(1280, 900),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	ctx, cancelCtx := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	ctx, cancelTimeout := context.WithTimeout(ctx, p.timeout)

	cancel := func() {
		cancelTimeout()
		cancelCtx()
		cancelAlloc()
	}
	return ctx, cancel
}

// Print loads html into a blank page and returns it printed as a landscape PDF
func (p *PDFPrinter) Print(ctx context.Context, html string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("pdf render cancelled: %w", err)
	}

	var pdf []byte
	err := utils.RetryWithBackoff(ctx, p.maxRetries, func() error {
		browserCtx, cancel := p.newContext(ctx)
		defer cancel()

		return chromedp.Run(browserCtx,
			chromedp.Navigate("about:blank"),
			chromedp.ActionFunc(func(ctx context.Context) error {
				tree, err := page.GetFrameTree().Do(ctx)
				if err != nil {
					return err
				}
				return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
			}),
			chromedp.ActionFunc(func(ctx context.Context) error {
				buf, _, err := page.PrintToPDF().
					WithPrintBackground(true).
					WithLandscape(true).
					Do(ctx)
				if err != nil {
					return err
				}
				pdf = buf
				return nil
			}),
		)
	}, p.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to print PDF: %w", err)
	}
	return pdf, nil
}

// Render renders report as HTML and prints it
func (p *PDFPrinter) Render(ctx context.Context, report *models.DashboardReport) ([]byte, error) {
	var html bytes.Buffer
	if err := RenderHTML(&html, report); err != nil {
		return nil, err
	}
	return p.Print(ctx, html.String())
}

// WriteFile renders report to a PDF file at path
func (p *PDFPrinter) WriteFile(ctx context.Context, report *models.DashboardReport, path string) error {
	pdf, err := p.Render(ctx, report)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, pdf, 0644); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	p.logger.Info("Dashboard PDF written to: %s (%d bytes)", path, len(pdf))
	return nil
}
