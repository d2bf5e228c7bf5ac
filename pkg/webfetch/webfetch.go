// Package webfetch downloads reference blog posts and reduces them to plain text.
package webfetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

var (
	// ErrInvalidURL indicates the link is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("reference url must be an absolute http(s) url")
	// ErrInsufficientContent indicates the page had too little readable text.
	ErrInsufficientContent = errors.New("reference page has insufficient text")
	// ErrTooLarge indicates a download exceeded the byte limit.
	ErrTooLarge = errors.New("remote file exceeds size limit")
)

const (
	defaultMaxRunes = 3000
	minRunes        = 100
	maxFileBytes    = 20 << 20
	userAgent       = "Mozilla/5.0 (compatible; seoblog-api/1.0)"
)

// contentSelectors are tried in order; the first match with text wins.
var contentSelectors = []string{
	".se-main-container",
	"#postViewArea",
	".tt_article_useless_p_margin",
	"article",
	"main",
	"body",
}

// Fetcher retrieves pages over HTTP.
type Fetcher struct {
	client   *http.Client
	maxRunes int
}

// New wires an HTTP client; a nil client gets a 10 second timeout.
func New(client *http.Client, maxRunes int) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if maxRunes <= 0 {
		maxRunes = defaultMaxRunes
	}
	return &Fetcher{client: client, maxRunes: maxRunes}
}

// FetchText downloads the page and returns its main readable text.
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	pageURL, err := absoluteURL(rawURL)
	if err != nil {
		return "", err
	}

	doc, err := f.fetchDocument(ctx, pageURL)
	if err != nil {
		return "", err
	}

	text := ExtractText(doc)
	if utf8.RuneCountInString(text) < minRunes {
		return "", ErrInsufficientContent
	}
	if utf8.RuneCountInString(text) > f.maxRunes {
		text = string([]rune(text)[:f.maxRunes])
	}
	return text, nil
}

// FetchBytes downloads a file such as a stored image, up to 20 MiB.
func (f *Fetcher) FetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	fileURL, err := absoluteURL(rawURL)
	if err != nil {
		return nil, err
	}

	resp, err := f.get(ctx, fileURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFileBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(data) > maxFileBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

func absoluteURL(rawURL string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", ErrInvalidURL
	}
	return parsed.String(), nil
}

// get issues the request and closes the body itself on a non-200 answer.
func (f *Fetcher) get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", target, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%s returned %s", target, resp.Status)
	}
	return resp, nil
}

func (f *Fetcher) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	resp, err := f.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// ExtractText drops non-content elements and returns the whitespace-collapsed text
// of the most specific content container.
func ExtractText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, iframe, nav, header, footer, aside, form").Remove()

	for _, selector := range contentSelectors {
		selection := doc.Find(selector).First()
		if selection.Length() == 0 {
			continue
		}
		text := collapse(selection.Text())
		if text != "" {
			return text
		}
	}
	return ""
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
