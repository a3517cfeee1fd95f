// Package ingestion loads job postings and resumes from files, web pages and
// object storage and normalizes them to clean text.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jonathan/resume-genie/internal/fetch"
)

// Kind identifies where a document was loaded from.
type Kind string

const (
	KindFile Kind = "file"
	KindURL  Kind = "url"
	KindS3   Kind = "s3"
)

// ErrEmptyDocument is returned when a source yields no text after cleaning.
var ErrEmptyDocument = errors.New("document contains no text")

// Options configures Load. The zero value loads local files and plain HTTP
// pages; s3:// sources build a client from S3 settings on first use.
type Options struct {
	Fetch *fetch.Options

	// UseBrowser renders pages whose plain HTTP text is too short.
	UseBrowser bool
	// Renderer overrides the headless browser.
	Renderer fetch.Renderer

	S3       S3Getter
	S3Config S3Config

	Logger *slog.Logger
}

// Document is cleaned text plus where it came from.
type Document struct {
	Text     string
	Metadata *Metadata
}

// KindOf classifies a source string.
func KindOf(source string) Kind {
	lower := strings.ToLower(source)
	switch {
	case strings.HasPrefix(lower, "s3://"):
		return KindS3
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return KindURL
	default:
		return KindFile
	}
}

// Load returns the cleaned text of a path, http(s) URL or s3://bucket/key URI.
func Load(ctx context.Context, source string, opts *Options) (string, error) {
	doc, err := LoadDocument(ctx, source, opts)
	if err != nil {
		return "", err
	}
	return doc.Text, nil
}

// LoadDocument is Load with metadata.
func LoadDocument(ctx context.Context, source string, opts *Options) (*Document, error) {
	if opts == nil {
		opts = &Options{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	source = strings.TrimSpace(source)
	if source == "" {
		return nil, errors.New("document source is empty")
	}

	var (
		doc *Document
		err error
	)
	switch kind := KindOf(source); kind {
	case KindS3:
		doc, err = loadS3(ctx, source, opts)
	case KindURL:
		doc, err = loadURL(ctx, source, opts, logger)
	default:
		doc, err = loadFile(source)
	}
	if err != nil {
		return nil, err
	}

	if doc.Text == "" {
		return nil, fmt.Errorf("%s: %w", source, ErrEmptyDocument)
	}
	logger.Debug("loaded document",
		"source", source,
		"kind", doc.Metadata.Kind,
		"format", doc.Metadata.Format,
		"chars", doc.Metadata.Chars,
	)
	return doc, nil
}

func loadFile(path string) (*Document, error) {
	format, err := FormatFromName(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %w", err)
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return newDocument(path, KindFile, format, data)
}

func loadS3(ctx context.Context, uri string, opts *Options) (*Document, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}

	client := opts.S3
	if client == nil {
		c, err := NewS3Client(ctx, opts.S3Config)
		if err != nil {
			return nil, err
		}
		client = c
	}

	data, contentType, err := downloadObject(ctx, client, bucket, key)
	if err != nil {
		return nil, err
	}

	format, ok := FormatFromContentType(contentType)
	if !ok {
		if format, err = FormatFromName(key); err != nil {
			var unsupported *UnsupportedFormatError
			if errors.As(err, &unsupported) {
				unsupported.Source = uri
			}
			return nil, err
		}
	}
	return newDocument(uri, KindS3, format, data)
}

func newDocument(source string, kind Kind, format Format, data []byte) (*Document, error) {
	raw, err := ExtractText(format, data)
	if err != nil {
		var unsupported *UnsupportedFormatError
		if errors.As(err, &unsupported) {
			unsupported.Source = source
			return nil, unsupported
		}
		return nil, fmt.Errorf("failed to extract text from %s: %w", source, err)
	}

	text := CleanText(raw)
	return &Document{Text: text, Metadata: NewMetadata(source, kind, format, text)}, nil
}
