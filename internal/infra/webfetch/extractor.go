// Package webfetch — Task 5.1: HTTP page-text extraction for web_reader.
// Fetches a page with a browser-like User-Agent, strips script/style blocks
// and tags, collapses whitespace, and caps the result so long pages cannot
// blow the provider context window.
package webfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// maxTextLen bounds the extracted text (matches the original 10 000 chars).
const maxTextLen = 10000

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

var (
	scriptStylePattern = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	tagPattern         = regexp.MustCompile(`<[^>]*>`)
	blankPattern       = regexp.MustCompile(`\n{2,}`)
)

// Extractor fetches pages over HTTP. Implements plugin.PageExtractor.
type Extractor struct {
	httpClient *http.Client
}

// NewExtractor creates an Extractor with a 10s timeout.
func NewExtractor() *Extractor {
	return &Extractor{
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// ExtractText downloads url and returns its visible text, capped at
// maxTextLen characters.
func (e *Extractor) ExtractText(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("webfetch: build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("webfetch: get %s: %w", url, err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("webfetch: get %s: status %d", url, resp.StatusCode)
	}

	// Read a bounded amount of HTML; 2 MiB is plenty for the 10k text cap.
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", fmt.Errorf("webfetch: read %s: %w", url, err)
	}

	return StripHTML(string(raw)), nil
}

// StripHTML reduces an HTML document to its visible text: script/style
// blocks removed, tags stripped, lines trimmed, blank runs collapsed.
func StripHTML(html string) string {
	text := scriptStylePattern.ReplaceAllString(html, " ")
	text = tagPattern.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	text = strings.Join(lines, "\n")
	text = blankPattern.ReplaceAllString(text, "\n")
	text = strings.TrimSpace(text)

	return capText(text)
}

// capText truncates s to at most maxTextLen bytes without splitting a rune;
// the cut backs off to the nearest rune boundary.
func capText(s string) string {
	if len(s) <= maxTextLen {
		return s
	}
	cut := maxTextLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
