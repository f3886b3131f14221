// Task 4.6: web_reader plugin.
// When the last user message contains a URL that is not a YouTube link, the
// page's visible text is fetched through the injected PageExtractor and the
// message is rewritten into a summarization prompt. Fetch failures are
// returned as errors so the pipeline treats the plugin as non-applicable
// and the raw URL still reaches the provider.
package plugin

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/matiasleandrokruk/llmgate/internal/infra/llm"
)

// PageExtractor fetches the visible text of a web page. The HTTP
// implementation lives in internal/infra/webfetch; tests inject stubs.
type PageExtractor interface {
	ExtractText(ctx context.Context, url string) (string, error)
}

var urlPattern = regexp.MustCompile(`https?://\S+`)

func isYouTubeURL(url string) bool {
	return strings.Contains(url, "youtube.com") || strings.Contains(url, "youtu.be")
}

// firstURL returns the first URL in the last user message's text, if any.
func firstURL(messages []llm.Message) (string, bool) {
	last, ok := lastUserMessage(messages)
	if !ok {
		return "", false
	}
	url := urlPattern.FindString(last.Text())
	return url, url != ""
}

type webReader struct {
	extractor PageExtractor
}

// NewWebReader builds the web page summarizer stage.
func NewWebReader(extractor PageExtractor) Plugin {
	return &webReader{extractor: extractor}
}

func (w *webReader) Name() string { return "web_reader" }

// Applicable matches a non-YouTube URL in the last user message.
// YouTube links are left for summarize_youtube_video.
func (w *webReader) Applicable(messages []llm.Message, _ string) bool {
	url, ok := firstURL(messages)
	return ok && !isYouTubeURL(url)
}

func (w *webReader) Transform(ctx context.Context, messages []llm.Message, _ string) (Result, error) {
	url, _ := firstURL(messages)
	text, err := w.extractor.ExtractText(ctx, url)
	if err != nil {
		return Result{}, fmt.Errorf("web_reader: extract %s: %w", url, err)
	}

	prompt := fmt.Sprintf(`Please provide a brief and comprehensive summary of the following web page content.
Focus on the main points and key information.

CONTENT:
%s`, text)

	last, _ := lastUserMessage(messages)
	return Result{Messages: replaceLast(messages, last.WithText(prompt))}, nil
}
