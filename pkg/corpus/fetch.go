package corpus

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/japaniel/blini/pkg/segment"
)

// MaxBodySize caps how much of a fetched page is read.
const MaxBodySize = 10 * 1024 * 1024

// Article is the readable text of a web page split into sentences.
type Article struct {
	URL       string
	Title     string
	Sentences []string
}

// Client is used by FetchArticle. Tests may replace it.
var Client = &http.Client{Timeout: 30 * time.Second}

// FetchArticle downloads rawURL, extracts the main article text and splits
// it into sentences.
func FetchArticle(ctx context.Context, rawURL string) (*Article, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	// Some sites refuse requests without browser headers.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,ja;q=0.8")

	resp, err := Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: got status %s", rawURL, resp.Status)
	}
	if resp.ContentLength > MaxBodySize {
		return nil, fmt.Errorf("content-length %d exceeds limit of %d bytes", resp.ContentLength, MaxBodySize)
	}

	// Read one byte past the limit to tell a full page from a truncated one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(body) > MaxBodySize {
		return nil, fmt.Errorf("response body exceeded maximum size limit of %d bytes", MaxBodySize)
	}

	// Ruby annotations would otherwise duplicate the base text.
	body = segment.SanitizeRuby(body)

	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err != nil {
		return nil, fmt.Errorf("extract article: %w", err)
	}
	return &Article{
		URL:       rawURL,
		Title:     article.Title,
		Sentences: segment.SplitSentences(article.TextContent),
	}, nil
}
