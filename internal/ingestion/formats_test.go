package ingestion

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildDocx assembles a minimal Word document with one paragraph per entry.
func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()

	var body bytes.Buffer
	body.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t xml:space="preserve">` + p + `</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)

	rels := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"word/document.xml":            body.String(),
		"word/_rels/document.xml.rels": rels,
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestFormatFromName(t *testing.T) {
	tests := []struct {
		name string
		want Format
	}{
		{"resume.txt", FormatText},
		{"resume", FormatText},
		{"README.MD", FormatMarkdown},
		{"posting.html", FormatHTML},
		{"cv.PDF", FormatPDF},
		{"cv.docx", FormatDOCX},
		{"folder/key/resume.pdf", FormatPDF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatFromName(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatFromName_Unsupported(t *testing.T) {
	_, err := FormatFromName("resume.doc")
	require.Error(t, err)

	var unsupported *UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, ".doc", unsupported.Format)
	assert.Contains(t, err.Error(), ".docx")
}

func TestFormatFromContentType(t *testing.T) {
	format, ok := FormatFromContentType("application/pdf")
	assert.True(t, ok)
	assert.Equal(t, FormatPDF, format)

	format, ok = FormatFromContentType("text/html; charset=utf-8")
	assert.True(t, ok)
	assert.Equal(t, FormatHTML, format)

	_, ok = FormatFromContentType("application/octet-stream")
	assert.False(t, ok)

	_, ok = FormatFromContentType("")
	assert.False(t, ok)
}

func TestExtractText_Docx(t *testing.T) {
	data := buildDocx(t, "Jane Doe", "Backend engineer &amp; Go developer")

	text, err := ExtractText(FormatDOCX, data)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nBackend engineer & Go developer", CleanText(text))
}

func TestExtractText_InvalidDocx(t *testing.T) {
	_, err := ExtractText(FormatDOCX, []byte("not a zip"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse docx")
}

func TestExtractText_InvalidPDF(t *testing.T) {
	_, err := ExtractText(FormatPDF, []byte("definitely not a pdf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read pdf")
}

func TestExtractText_HTML(t *testing.T) {
	html := `<html><body><nav>Menu</nav><div class="job-description"><p>Build services in Go</p></div></body></html>`

	text, err := ExtractText(FormatHTML, []byte(html))
	require.NoError(t, err)
	assert.Equal(t, "Build services in Go", text)
}

func TestExtractText_InvalidUTF8(t *testing.T) {
	_, err := ExtractText(FormatText, []byte{0xff, 0xfe, 0xfd})
	assert.Error(t, err)
}

func TestWordXMLText(t *testing.T) {
	xml := `<w:document xmlns:w="w"><w:body>` +
		`<w:p><w:r><w:t>Skills:</w:t></w:r><w:r><w:tab/><w:t>Go</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Line</w:t><w:br/><w:t>Break</w:t></w:r></w:p>` +
		`</w:body></w:document>`

	text, err := wordXMLText(xml)
	require.NoError(t, err)
	assert.Equal(t, "Skills:\tGo\nLine\nBreak\n", text)
}
