package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_Success(t *testing.T) {
	var gotUA, gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotHeader = r.Header.Get("Accept-Language")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body><h1>Test</h1></body></html>"))
	}))
	defer server.Close()

	opts := DefaultOptions()
	opts.Headers = map[string]string{"Accept-Language": "en-US"}

	page, err := Get(context.Background(), server.URL, opts)
	require.NoError(t, err)
	assert.Equal(t, server.URL, page.URL)
	assert.Contains(t, page.HTML, "<h1>Test</h1>")
	assert.Equal(t, http.StatusOK, page.StatusCode)
	assert.True(t, page.IsHTML())
	assert.Equal(t, DefaultUserAgent, gotUA)
	assert.Equal(t, "en-US", gotHeader)
}

func TestGet_InvalidURL(t *testing.T) {
	for _, raw := range []string{"", "not-a-valid-url", "example.com", "http://", "ftp://example.com/file"} {
		t.Run(raw, func(t *testing.T) {
			_, err := Get(context.Background(), raw, nil)
			require.Error(t, err)

			var fetchErr *Error
			assert.ErrorAs(t, err, &fetchErr)
			assert.Contains(t, err.Error(), "invalid URL")
		})
	}
}

func TestGet_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	page, err := Get(context.Background(), server.URL, nil)
	require.Error(t, err)
	require.NotNil(t, page)
	assert.Equal(t, http.StatusNotFound, page.StatusCode)

	var fetchErr *Error
	assert.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "404")
}

func TestGet_ClientTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	_, err := Get(context.Background(), server.URL, &Options{Timeout: 50 * time.Millisecond})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP request failed")
}

func TestGet_CustomClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.4"))
	}))
	defer server.Close()

	page, err := Get(context.Background(), server.URL, &Options{Client: server.Client()})
	require.NoError(t, err)
	assert.False(t, page.IsHTML())
}

func TestMainText_WithMainElement(t *testing.T) {
	html := `
	<html>
		<body>
			<nav>Navigation</nav>
			<main>
				<h1>Main Content</h1>
				<p>This is the important text.</p>
			</main>
			<footer>Footer</footer>
		</body>
	</html>`

	text, err := MainText(html, JobPostingSelectors())
	require.NoError(t, err)
	assert.Contains(t, text, "Main Content")
	assert.Contains(t, text, "important text")
	assert.NotContains(t, text, "Navigation")
	assert.NotContains(t, text, "Footer")
}

func TestMainText_FallbackToBody(t *testing.T) {
	html := `<html><body><div>Some content here.</div></body></html>`

	text, err := MainText(html, []string{".missing"})
	require.NoError(t, err)
	assert.Equal(t, "Some content here.", text)
}

func TestMainText_JobPostingSelectors(t *testing.T) {
	html := `
	<html>
		<body>
			<div class="sidebar">Sidebar junk</div>
			<div class="job-description">
				<h2>Requirements</h2>
				<ul><li>5 years experience in Go</li><li>Kubernetes</li></ul>
			</div>
		</body>
	</html>`

	text, err := MainText(html, JobPostingSelectors())
	require.NoError(t, err)
	assert.Contains(t, text, "Requirements")
	assert.Contains(t, text, "- 5 years experience in Go")
	assert.Contains(t, text, "- Kubernetes")
	assert.NotContains(t, text, "Sidebar junk")
}

func TestMainText_NoiseSelectors(t *testing.T) {
	html := `<html><body><main><p>Role details</p><form>Apply now</form><div class="eeo">EEO text</div></main></body></html>`

	text, err := MainText(html, []string{"main"}, "form", ".eeo")
	require.NoError(t, err)
	assert.Contains(t, text, "Role details")
	assert.NotContains(t, text, "Apply now")
	assert.NotContains(t, text, "EEO text")
}

func TestMainText_SeparatesBlocks(t *testing.T) {
	html := `<html><body><main><p>First</p><p>Second</p></main></body></html>`

	text, err := MainText(html, []string{"main"})
	require.NoError(t, err)
	assert.Equal(t, []string{"First", "Second"}, strings.Split(text, "\n"))
}

func TestTitle(t *testing.T) {
	assert.Equal(t, "Backend Engineer", Title("<html><head><title> Backend Engineer </title></head></html>"))
	assert.Empty(t, Title("<html><body></body></html>"))
}

func TestNeedsRender(t *testing.T) {
	assert.True(t, NeedsRender("   short   "))
	assert.False(t, NeedsRender(strings.Repeat("x", MinContentLength)))
}

func TestRendererFunc(t *testing.T) {
	r := RendererFunc(func(_ context.Context, url string) (string, error) {
		return "<html>" + url + "</html>", nil
	})
	html, err := r.Render(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "<html>https://example.com</html>", html)
}
