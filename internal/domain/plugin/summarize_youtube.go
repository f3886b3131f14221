// Task 4.7: summarize_youtube_video plugin.
// A YouTube link in the last user message is rewritten into a transcript
// summarization prompt. The transcript itself comes from an injected
// TranscriptFetcher collaborator; fetch failures surface as plugin errors so
// the pipeline falls through to the next stage (web_reader deliberately
// skips YouTube links, so the raw URL then goes to the provider as-is).
package plugin

import (
	"context"
	"fmt"
	"regexp"

	"github.com/matiasleandrokruk/llmgate/internal/infra/llm"
)

// TranscriptFetcher retrieves the transcript text for a YouTube video id.
type TranscriptFetcher interface {
	Transcript(ctx context.Context, videoID string) (string, error)
}

// videoIDPattern extracts the 11-character video id from watch and short URLs.
var videoIDPattern = regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})`)

// youtubeVideoID returns the video id embedded in url, or "".
func youtubeVideoID(url string) string {
	m := videoIDPattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

const transcriptPromptHeader = `STRICT INFORMATION PROCESSING INSTRUCTIONS:
1. OUTPUT FORMAT:
- Executive summary in maximum 5 points
- Neutral and direct language
- No subjective assessments

2. MANDATORY ANALYSIS:
- Identify MAIN FACTS
- Extract CONCRETE DATA
- Prioritize verifiable information

3. STRUCTURE:
[Objective headline]
- Point 1: What happened
- Point 2: Who was involved
- Point 3: When and where
- Point 4: Immediate consequences
- Point 5: Relevant context

CONTENT TO SUMMARIZE:
`

type summarizeYouTube struct {
	fetcher TranscriptFetcher
}

// NewSummarizeYouTube builds the YouTube transcript summarizer stage.
func NewSummarizeYouTube(fetcher TranscriptFetcher) Plugin {
	return &summarizeYouTube{fetcher: fetcher}
}

func (s *summarizeYouTube) Name() string { return "summarize_youtube_video" }

// Applicable matches a YouTube URL with an extractable video id in the last
// user message.
func (s *summarizeYouTube) Applicable(messages []llm.Message, _ string) bool {
	url, ok := firstURL(messages)
	return ok && isYouTubeURL(url) && youtubeVideoID(url) != ""
}

func (s *summarizeYouTube) Transform(ctx context.Context, messages []llm.Message, _ string) (Result, error) {
	url, _ := firstURL(messages)
	videoID := youtubeVideoID(url)

	transcript, err := s.fetcher.Transcript(ctx, videoID)
	if err != nil {
		return Result{}, fmt.Errorf("summarize_youtube_video: transcript %s: %w", videoID, err)
	}

	last, _ := lastUserMessage(messages)
	return Result{Messages: replaceLast(messages, last.WithText(transcriptPromptHeader + transcript))}, nil
}
