package fetcher

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"legal-indexer-be/internal/entity"
	"legal-indexer-be/internal/pkg/logger"
	"legal-indexer-be/pkg/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `<html><head><title> Tenant Rights </title><style>p{}</style></head>
<body>
<header><p>Site header that is long enough to count</p></header>
<nav><li>Navigation item that is long enough</li></nav>
<h1>Security Deposits</h1>
<p>Landlords must return the security deposit within 30 days.</p>
<p>Too short.</p>
<ul><li>Itemized deductions must be provided in writing.</li></ul>
<script>var x = "a script that is long enough to count";</script>
<footer><p>Footer text that is long enough to count</p></footer>
</body></html>`

func newTestFetcher(maxBytes int64) *Fetcher {
	policy := resilience.NewPolicy(resilience.Config{
		Timeout:         time.Second,
		MaxTries:        3,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
	})
	return NewFetcher(Config{MaxBytes: maxBytes}, policy, logger.NewNopLogger())
}

func TestExtractHTML(t *testing.T) {
	doc, err := extractHTML([]byte(page))
	require.NoError(t, err)

	assert.Equal(t, "Tenant Rights", doc.Metadata.Title)
	assert.Equal(t, "Security Deposits\n\n"+
		"Landlords must return the security deposit within 30 days.\n\n"+
		"Itemized deductions must be provided in writing.", doc.Text)
}

func TestExtractHTMLWithoutTitle(t *testing.T) {
	doc, err := extractHTML([]byte("<p>no title here but enough words</p>"))
	require.NoError(t, err)
	assert.Equal(t, "Untitled", doc.Metadata.Title)
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		url         string
		contentType string
		expected    entity.SourceType
	}{
		{"https://example.com/act.PDF", "", entity.SourceTypePDF},
		{"https://example.com/act.pdf?download=1", "text/html", entity.SourceTypePDF},
		{"https://example.com/form.docx", "", entity.SourceTypeDOCX},
		{"https://example.com/download", "application/pdf; charset=binary", entity.SourceTypePDF},
		{"https://example.com/download", docxContentType, entity.SourceTypeDOCX},
		{"https://example.com/article", "text/html; charset=utf-8", entity.SourceTypeWebpage},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, DetectType(tt.url, tt.contentType), tt.url)
	}
}

func TestDocxParagraphs(t *testing.T) {
	content := `<w:document><w:body><w:p><w:r><w:t>Section 1 &amp; 2</w:t></w:r></w:p>` +
		`<w:p></w:p><w:p><w:r><w:t>Notice</w:t><w:tab/><w:t>period</w:t></w:r></w:p></w:body></w:document>`
	assert.Equal(t, []string{"Section 1 & 2", "Notice period"}, docxParagraphs(content))
}

func TestExtractDOCX(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"word/document.xml":            `<w:document><w:body><w:p><w:r><w:t>Residential Lease</w:t></w:r></w:p><w:p><w:r><w:t>Rent is due monthly.</w:t></w:r></w:p></w:body></w:document>`,
		"word/_rels/document.xml.rels": `<Relationships></Relationships>`,
	}
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	doc, err := extractDOCX(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "Residential Lease", doc.Metadata.Title)
	assert.Equal(t, "Residential Lease\n\nRent is due monthly.", doc.Text)
}

func TestFetchWebpage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	doc, err := newTestFetcher(0).Fetch(context.Background(), server.URL+"/rights")
	require.NoError(t, err)
	assert.Equal(t, entity.SourceTypeWebpage, doc.Metadata.Type)
	assert.Equal(t, server.URL+"/rights", doc.Metadata.URL)
	assert.Equal(t, len([]rune(doc.Text)), doc.Metadata.Length)
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := newTestFetcher(0).Fetch(context.Background(), server.URL)
	assert.ErrorContains(t, err, "unexpected status 404")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(page))
	}))
	defer server.Close()

	_, err := newTestFetcher(0).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchRejectsOversizeAndEmptyBodies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/empty" {
			return
		}
		_, _ = w.Write(bytes.Repeat([]byte("a"), 64))
	}))
	defer server.Close()

	f := newTestFetcher(32)
	_, err := f.Fetch(context.Background(), server.URL+"/big")
	assert.ErrorIs(t, err, ErrBodyTooLarge)

	_, err = f.Fetch(context.Background(), server.URL+"/empty")
	assert.ErrorIs(t, err, ErrEmptyBody)
}
