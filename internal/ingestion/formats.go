package ingestion

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"github.com/jonathan/resume-genie/internal/fetch"
)

// Format is the encoding of a document before text extraction.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatPDF      Format = "pdf"
	FormatDOCX     Format = "docx"
)

// UnsupportedFormatError is returned for documents that cannot be turned into
// text.
type UnsupportedFormatError struct {
	Source string
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported document format %q for %s (supported: .txt, .md, .html, .pdf, .docx)", e.Format, e.Source)
}

// FormatFromName guesses a format from a file name or object key.
// Names without an extension are treated as plain text.
func FormatFromName(name string) (Format, error) {
	ext := strings.ToLower(path.Ext(name))
	switch ext {
	case "", ".txt", ".text":
		return FormatText, nil
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".html", ".htm":
		return FormatHTML, nil
	case ".pdf":
		return FormatPDF, nil
	case ".docx":
		return FormatDOCX, nil
	default:
		return "", &UnsupportedFormatError{Source: name, Format: ext}
	}
}

// FormatFromContentType maps a MIME type to a format. ok is false for types
// that should fall back to name-based detection.
func FormatFromContentType(contentType string) (Format, bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}
	switch mediaType {
	case "text/plain":
		return FormatText, true
	case "text/markdown":
		return FormatMarkdown, true
	case "text/html", "application/xhtml+xml":
		return FormatHTML, true
	case "application/pdf":
		return FormatPDF, true
	case "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return FormatDOCX, true
	default:
		return "", false
	}
}

// ExtractText converts raw document bytes to text. The result is not cleaned.
func ExtractText(format Format, data []byte) (string, error) {
	switch format {
	case FormatText, FormatMarkdown:
		if !utf8.Valid(data) {
			return "", errors.New("text document is not valid UTF-8")
		}
		return string(data), nil
	case FormatHTML:
		return fetch.MainText(string(data), fetch.JobPostingSelectors(), fetch.PlatformUnknown.NoiseSelectors()...)
	case FormatPDF:
		return extractPDFText(bytes.NewReader(data), int64(len(data)))
	case FormatDOCX:
		return extractDocxText(bytes.NewReader(data), int64(len(data)))
	default:
		return "", &UnsupportedFormatError{Format: string(format)}
	}
}

func extractPDFText(r io.ReaderAt, size int64) (string, error) {
	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read pdf page %d: %w", i, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}
	return sb.String(), nil
}

func extractDocxText(r io.ReaderAt, size int64) (string, error) {
	doc, err := docx.ReadDocxFromMemory(r, size)
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer func() { _ = doc.Close() }()

	return wordXMLText(doc.Editable().GetContent())
}

// wordXMLText pulls the visible text out of a WordprocessingML body. Runs
// (<w:t>) are concatenated, paragraphs end a line and tabs and breaks are
// kept.
func wordXMLText(content string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))
	var sb strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse docx body: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return sb.String(), nil
}
