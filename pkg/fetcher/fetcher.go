package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"legal-indexer-be/internal/entity"
	"legal-indexer-be/internal/pkg/logger"
	"legal-indexer-be/pkg/resilience"
)

const (
	moduleName       = "Fetcher"
	userAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	docxContentType  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	defaultMaxBytes  = 25 << 20
	defaultTimeout   = 30 * time.Second
	untitledWebpage  = "Untitled"
	untitledPDF      = "Untitled PDF"
	untitledDocument = "Untitled Document"
)

var (
	ErrEmptyBody    = errors.New("empty response body")
	ErrBodyTooLarge = errors.New("response body exceeds size limit")
)

type Metadata struct {
	URL    string            `json:"url"`
	Title  string            `json:"title"`
	Type   entity.SourceType `json:"type"`
	Length int               `json:"length"`
	Pages  int               `json:"pages,omitempty"`
}

type Document struct {
	Text     string
	Metadata Metadata
}

type Config struct {
	Timeout  time.Duration
	MaxBytes int64
}

// Fetcher downloads a source and extracts its text.
type Fetcher struct {
	client   *http.Client
	maxBytes int64
	policy   *resilience.Policy
	logger   logger.ILogger
}

func NewFetcher(config Config, policy *resilience.Policy, logger logger.ILogger) *Fetcher {
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if config.MaxBytes <= 0 {
		config.MaxBytes = defaultMaxBytes
	}
	return &Fetcher{
		client:   &http.Client{Timeout: config.Timeout},
		maxBytes: config.MaxBytes,
		policy:   policy,
		logger:   logger,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	dl, err := resilience.Do(ctx, f.policy, "fetch", func(ctx context.Context) (download, error) {
		return f.download(ctx, rawURL)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	body := dl.body

	kind := DetectType(rawURL, dl.contentType)

	var doc *Document
	switch kind {
	case entity.SourceTypePDF:
		doc, err = extractPDF(body)
	case entity.SourceTypeDOCX:
		doc, err = extractDOCX(body)
	default:
		doc, err = extractHTML(body)
	}
	if err != nil {
		return nil, fmt.Errorf("extract %s from %s: %w", kind, rawURL, err)
	}

	doc.Metadata.URL = rawURL
	doc.Metadata.Type = kind
	doc.Metadata.Length = len([]rune(doc.Text))

	f.logger.Info(moduleName, "Document fetched", map[string]interface{}{
		"url":    rawURL,
		"type":   kind,
		"title":  doc.Metadata.Title,
		"length": doc.Metadata.Length,
	})
	return doc, nil
}

type download struct {
	body        []byte
	contentType string
}

func (f *Fetcher) download(ctx context.Context, rawURL string) (download, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return download{}, resilience.Permanent(err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return download{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := fmt.Errorf("unexpected status %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return download{}, resilience.Permanent(statusErr)
		}
		return download{}, statusErr
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return download{}, err
	}
	if int64(len(body)) > f.maxBytes {
		return download{}, resilience.Permanent(ErrBodyTooLarge)
	}
	if len(body) == 0 {
		return download{}, resilience.Permanent(ErrEmptyBody)
	}

	return download{body: body, contentType: resp.Header.Get("Content-Type")}, nil
}

// DetectType picks the extractor from the url path extension, then the
// response content type.
func DetectType(rawURL, contentType string) entity.SourceType {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".pdf":
		return entity.SourceTypePDF
	case ".docx":
		return entity.SourceTypeDOCX
	}

	mediaType, _, _ := mime.ParseMediaType(contentType)
	switch mediaType {
	case "application/pdf":
		return entity.SourceTypePDF
	case docxContentType:
		return entity.SourceTypeDOCX
	}
	return entity.SourceTypeWebpage
}
