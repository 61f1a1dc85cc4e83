package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"cartelera/internal/dom"
	"cartelera/internal/site"
)

// Default capture parameters.
const (
	DefaultWidth      = 1280
	DefaultHeight     = 1600
	DefaultTimeoutSec = 30

	// ReadySelector is what the booted listing page exposes once the first
	// filter pass is done.
	ReadySelector = `body[data-ready="true"]`
)

// Options defines parameters for a Chromium-based screenshot capture.
type Options struct {
	// URL is the listing page, e.g. "http://127.0.0.1:8080/".
	URL string

	// Query is appended to URL (e.g. "?teatro&2024-06-20").
	Query string

	// OutputPath is where the PNG screenshot will be written.
	OutputPath string

	// Width and Height are the viewport dimensions in pixels. If zero,
	// DefaultWidth / DefaultHeight are used.
	Width  int
	Height int

	// Timeout bounds the entire capture operation. If zero,
	// DefaultTimeoutSec is used.
	Timeout time.Duration
}

// TargetURL joins URL and Query, replacing any query URL already has.
func (o Options) TargetURL() string {
	if o.Query == "" {
		return o.URL
	}
	q := o.Query
	if q[0] != '?' {
		q = "?" + q
	}
	return dom.WithoutQuery(o.URL) + q
}

func (o *Options) normalize() error {
	if o.URL == "" {
		return fmt.Errorf("capture: URL is required")
	}
	if o.OutputPath == "" {
		return fmt.Errorf("capture: OutputPath is required")
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Timeout <= 0 {
		o.Timeout = time.Duration(DefaultTimeoutSec) * time.Second
	}
	return nil
}

// CapturePNG drives a headless Chromium to the listing at opts.Query,
// waits until the page's scripts have run their first filter pass and
// writes a full-page PNG screenshot.
func CapturePNG(parentCtx context.Context, opts Options) error {
	if err := opts.normalize(); err != nil {
		return err
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.TargetURL()),
		chromedp.WaitVisible(ReadySelector, chromedp.ByQuery),
		// Small extra delay to allow final paints.
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := site.WriteAtomic(opts.OutputPath, png); err != nil {
		return fmt.Errorf("capture: failed to write PNG: %w", err)
	}
	return nil
}
