// Package capture grabs a screenshot of the ticker page with headless
// Chromium, for checking the layout without standing in front of the TV.
package capture

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/chromedp"
)

// TV-sized defaults matching the target display.
const (
	DefaultWidth   = 1920
	DefaultHeight  = 1080
	DefaultTimeout = 30 * time.Second
)

// Options defines parameters for a preview capture.
type Options struct {
	// URL of the ticker page, e.g. "http://127.0.0.1:8000/".
	URL string
	// OutputPath is where the PNG is written; /preview.png serves it.
	OutputPath string
	// Width and Height are the viewport in pixels; zero means the defaults.
	Width  int
	Height int
	// Timeout bounds the whole capture.
	Timeout time.Duration
}

// TickerPNG navigates headless Chromium to the ticker page, waits until the
// page marks itself rendered (data-ready="true" on the ticker root), and
// writes a full screenshot to opts.OutputPath.
func TickerPNG(parentCtx context.Context, opts Options) error {
	if opts.URL == "" {
		return fmt.Errorf("capture: URL is required")
	}
	if opts.OutputPath == "" {
		return fmt.Errorf("capture: OutputPath is required")
	}
	if opts.Width <= 0 {
		opts.Width = DefaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = DefaultHeight
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var png []byte
	tasks := chromedp.Tasks{
		chromedp.EmulateViewport(int64(opts.Width), int64(opts.Height)),
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(`[data-ready="true"]`, chromedp.ByQuery),
		// Let the first scroll frames paint.
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.FullScreenshot(&png, 100),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return fmt.Errorf("capture: chromedp run failed: %w", err)
	}

	if err := os.WriteFile(opts.OutputPath, png, 0o644); err != nil {
		return fmt.Errorf("capture: write PNG: %w", err)
	}

	return nil
}
