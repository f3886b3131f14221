// Task 5.2: YouTube transcript retrieval for summarize_youtube_video.
// Uses the public timedtext endpoint; videos without captions return an
// empty document, which surfaces as an error so the pipeline falls through.
package webfetch

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const timedTextBaseURL = "https://video.google.com/timedtext"

var captionLinePattern = regexp.MustCompile(`(?s)<text[^>]*>(.*?)</text>`)

// TranscriptClient fetches YouTube captions. Implements plugin.TranscriptFetcher.
type TranscriptClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewTranscriptClient creates a TranscriptClient with a 10s timeout.
func NewTranscriptClient() *TranscriptClient {
	return &TranscriptClient{
		baseURL:    timedTextBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Transcript returns the English caption track of videoID as plain text,
// capped at maxTextLen characters like extracted page text.
func (c *TranscriptClient) Transcript(ctx context.Context, videoID string) (string, error) {
	endpoint := fmt.Sprintf("%s?lang=en&v=%s", c.baseURL, url.QueryEscape(videoID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("webfetch: build transcript request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("webfetch: transcript %s: %w", videoID, err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("webfetch: transcript %s: status %d", videoID, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return "", fmt.Errorf("webfetch: read transcript %s: %w", videoID, err)
	}

	text := parseTimedText(string(raw))
	if text == "" {
		return "", fmt.Errorf("webfetch: no captions for video %s", videoID)
	}
	return text, nil
}

// parseTimedText flattens a timedtext XML document into one text blob.
// Caption payloads are double-escaped (&amp;#39;), hence the two passes.
func parseTimedText(doc string) string {
	var lines []string
	for _, m := range captionLinePattern.FindAllStringSubmatch(doc, -1) {
		line := html.UnescapeString(html.UnescapeString(m[1]))
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return capText(strings.Join(lines, " "))
}
