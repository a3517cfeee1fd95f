package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// MinContentLength is the minimum extracted text length for a plain HTTP
// fetch to count as successful. Shorter pages are likely rendered client-side.
const MinContentLength = 500

// settleDelay gives client-side scripts time to populate the page.
const settleDelay = 3 * time.Second

// NeedsRender reports whether extracted text is too short to be the real page.
func NeedsRender(text string) bool {
	return len(strings.TrimSpace(text)) < MinContentLength
}

// Renderer turns a URL into HTML after client-side rendering.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, url string) (string, error)

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

// Browser renders pages in headless Chrome. Chrome or Chromium must be
// installed.
type Browser struct {
	Timeout time.Duration
	Logger  *slog.Logger
}

// NewBrowser returns a Browser with a 30 second timeout.
func NewBrowser(logger *slog.Logger) *Browser {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Browser{Timeout: 30 * time.Second, Logger: logger}
}

// Render loads url, waits for scripts to settle and returns the outer HTML.
func (b *Browser) Render(ctx context.Context, url string) (string, error) {
	logger := b.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.Debug("starting headless browser", "url", url)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	timeout := b.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(settleDelay),
		chromedp.ActionFunc(func(ctx context.Context) error {
			// Cookie banners are optional; a missing button is not an error.
			_ = chromedp.Click(`button[id*="accept"], button[class*="accept"]`, chromedp.NodeVisible, chromedp.AtLeast(0)).Do(ctx)
			return nil
		}),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}

	logger.Debug("rendered page", "url", url, "bytes", len(html))
	return html, nil
}
