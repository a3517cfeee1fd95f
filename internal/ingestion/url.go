package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"

	"github.com/jonathan/resume-genie/internal/fetch"
)

// loadURL fetches a page and extracts its main text using selectors for the
// detected job board. Documents served directly (PDF, DOCX, plain text) skip
// HTML extraction. When UseBrowser is set and the text looks like an unrendered
// single-page app, the page is rendered and extracted again.
func loadURL(ctx context.Context, rawURL string, opts *Options, logger *slog.Logger) (*Document, error) {
	page, err := fetch.Get(ctx, rawURL, opts.Fetch)
	if err != nil {
		return nil, err
	}

	if format, ok := FormatFromContentType(page.ContentType); ok && format != FormatHTML {
		return newDocument(rawURL, KindURL, format, []byte(page.HTML))
	}
	if !page.IsHTML() {
		if format, err := FormatFromName(urlPath(rawURL)); err == nil && format != FormatHTML && format != FormatText {
			return newDocument(rawURL, KindURL, format, []byte(page.HTML))
		}
	}

	platform := fetch.DetectPlatform(rawURL)
	logger.Debug("fetched page", "url", rawURL, "platform", platform, "bytes", len(page.HTML))

	html := page.HTML
	text, err := fetch.MainText(html, platform.ContentSelectors(), platform.NoiseSelectors()...)
	if err != nil {
		return nil, fmt.Errorf("content extraction failed for %s: %w", rawURL, err)
	}

	rendered := false
	if opts.UseBrowser && fetch.NeedsRender(text) {
		logger.Info("page content too short, rendering in browser",
			"url", rawURL, "chars", len(text), "min", fetch.MinContentLength)

		renderer := opts.Renderer
		if renderer == nil {
			renderer = fetch.NewBrowser(logger)
		}
		renderedHTML, renderErr := renderer.Render(ctx, rawURL)
		if renderErr != nil {
			// The plain HTTP text is still usable.
			logger.Warn("browser rendering failed", "url", rawURL, "error", renderErr)
		} else if renderedText, extractErr := fetch.MainText(renderedHTML, platform.ContentSelectors(), platform.NoiseSelectors()...); extractErr == nil {
			html, text, rendered = renderedHTML, renderedText, true
		}
	}

	cleaned := CleanText(text)
	meta := NewMetadata(rawURL, KindURL, FormatHTML, cleaned)
	meta.Platform = string(platform)
	meta.Title = fetch.Title(html)
	meta.Rendered = rendered
	return &Document{Text: cleaned, Metadata: meta}, nil
}

func urlPath(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return path.Base(parsed.Path)
}
