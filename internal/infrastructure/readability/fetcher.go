// Package readability downloads article pages and extracts their readable
// body text for on-demand analysis and summarization.
package readability

import (
	"context"
	"fmt"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"FeedAnnotator/internal/ports"
)

const (
	defaultTimeout = 30 * time.Second
	maxContentLen  = 10000
)

// Fetcher implements ports.ContentFetcher with readability extraction.
type Fetcher struct {
	timeout time.Duration
}

var _ ports.ContentFetcher = (*Fetcher)(nil)

// NewFetcher builds a fetcher; timeout <= 0 uses the default.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Fetcher{timeout: timeout}
}

// Fetch downloads the page and returns its extracted text, truncated to
// the length the analysis prompts accept.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("article url is empty")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	article, err := readability.FromURL(url, f.timeout)
	if err != nil {
		return "", fmt.Errorf("readability extraction %s: %w", url, err)
	}

	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return "", fmt.Errorf("no readable content at %s", url)
	}
	if len(text) > maxContentLen {
		text = text[:maxContentLen]
	}
	return text, nil
}
