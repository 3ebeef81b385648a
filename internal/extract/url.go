package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/corpora-labs/corpora/internal/core/domain"
)

// maxFetchBytes bounds how much of a remote page is read.
const maxFetchBytes = 10 << 20 // 10 MiB

// DefaultFetchTimeout is the default timeout for URL fetches.
const DefaultFetchTimeout = 30 * time.Second

// URLFetcher fetches a web page and extracts its readable text.
type URLFetcher struct {
	client *http.Client
}

// NewURLFetcher creates a URL fetcher with the given timeout.
// A zero timeout uses DefaultFetchTimeout.
func NewURLFetcher(timeout time.Duration) *URLFetcher {
	if timeout == 0 {
		timeout = DefaultFetchTimeout
	}
	return &URLFetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch retrieves the URL and returns its title and extracted text.
// Network and HTTP failures are reported as domain.ErrExtraction so the
// ingestor marks the document failed without partial index state.
func (f *URLFetcher) Fetch(ctx context.Context, url string) (title, text string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", "", fmt.Errorf("%w: create request: %w", domain.ErrExtraction, err)
	}
	req.Header.Set("Accept", "text/html, text/plain")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("%w: fetch %s: %w", domain.ErrExtraction, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("%w: fetch %s: status %d", domain.ErrExtraction, url, resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, maxFetchBytes)
	contentType := resp.Header.Get("Content-Type")
	if strings.Contains(contentType, "text/html") || contentType == "" {
		title, text, err = FromHTML(body)
		if err != nil {
			return "", "", fmt.Errorf("%w: parse %s: %w", domain.ErrExtraction, url, err)
		}
	} else {
		raw, readErr := io.ReadAll(body)
		if readErr != nil {
			return "", "", fmt.Errorf("%w: read %s: %w", domain.ErrExtraction, url, readErr)
		}
		text = Normalize(string(raw))
	}

	if title == "" {
		title = url
	}
	return title, text, nil
}

// skipElements are HTML elements whose text content is never readable.
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
}

// blockElements introduce line breaks in the extracted text.
var blockElements = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "blockquote": true, "pre": true,
}

// FromHTML parses an HTML document and returns its <title> and visible
// text with tags stripped and entities decoded.
func FromHTML(r io.Reader) (title, text string, err error) {
	root, err := html.Parse(r)
	if err != nil {
		return "", "", err
	}

	var sb strings.Builder
	var walk func(n *html.Node, skip bool)
	walk = func(n *html.Node, skip bool) {
		switch n.Type {
		case html.ElementNode:
			if n.Data == "title" && title == "" {
				if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			}
			if skipElements[n.Data] {
				return
			}
			if blockElements[n.Data] {
				sb.WriteByte('\n')
			}
		case html.TextNode:
			if !skip {
				sb.WriteString(n.Data)
				sb.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, skip)
		}
	}
	walk(root, false)

	return title, Normalize(sb.String()), nil
}
