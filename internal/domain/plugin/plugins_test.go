// Tests for the concrete plugins: media gates, generate_picture, web_reader
// and summarize_youtube_video.
package plugin_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/matiasleandrokruk/llmgate/internal/domain/capability"
	"github.com/matiasleandrokruk/llmgate/internal/domain/plugin"
	"github.com/matiasleandrokruk/llmgate/internal/infra/llm"
)

func testMatrix() *capability.Matrix {
	return capability.New(map[string][]llm.Kind{
		"openai":    {llm.KindText, llm.KindImage, llm.KindAudio, capability.ImageGen},
		"anthropic": {llm.KindText, llm.KindImage},
	})
}

func mediaMessage(kind llm.Kind) []llm.Message {
	return []llm.Message{{
		Role: llm.RoleUser,
		Parts: []llm.ContentPart{
			{Kind: llm.KindText, Text: "look at this"},
			{Kind: kind, Data: []byte{0x1}, MIMEType: "application/octet-stream"},
		},
	}}
}

// ===== STUBS =====

type stubExtractor struct {
	text string
	err  error
	url  string // records the requested URL
}

func (s *stubExtractor) ExtractText(_ context.Context, url string) (string, error) {
	s.url = url
	return s.text, s.err
}

type stubTranscripts struct {
	text    string
	err     error
	videoID string
}

func (s *stubTranscripts) Transcript(_ context.Context, videoID string) (string, error) {
	s.videoID = videoID
	return s.text, s.err
}

// ===== TESTS: MEDIA GATES =====

// TestMediaGate_BlocksUnsupportedProvider: audio to a text/image-only
// provider must be blocked with a warning naming the provider.
func TestMediaGate_BlocksUnsupportedProvider(t *testing.T) {
	t.Parallel()

	gate := plugin.NewListenAudio(testMatrix())
	msgs := mediaMessage(llm.KindAudio)

	if !gate.Applicable(msgs, "anthropic") {
		t.Fatal("gate not applicable to an audio message")
	}
	res, err := gate.Transform(context.Background(), msgs, "anthropic")
	if err != nil {
		t.Fatalf("Transform error = %v", err)
	}
	if !res.Blocked {
		t.Fatal("audio to non-audio provider not blocked")
	}
	if !strings.Contains(res.Warning, "anthropic") {
		t.Errorf("warning %q does not name the provider", res.Warning)
	}
}

func TestMediaGate_PassesSupportedProvider(t *testing.T) {
	t.Parallel()

	gate := plugin.NewWatchPicture(testMatrix())
	msgs := mediaMessage(llm.KindImage)

	res, err := gate.Transform(context.Background(), msgs, "anthropic")
	if err != nil {
		t.Fatalf("Transform error = %v", err)
	}
	if res.Blocked {
		t.Fatal("image to vision provider blocked; want pass-through")
	}
	if res.Messages[0].Text() != "look at this" {
		t.Error("pass-through modified the message")
	}
}

// TestMediaGate_FailsClosedForUnknownProvider: the matrix has no row for the
// provider, so the gate must block.
func TestMediaGate_FailsClosedForUnknownProvider(t *testing.T) {
	t.Parallel()

	gate := plugin.NewWatchVideo(testMatrix())
	res, err := gate.Transform(context.Background(), mediaMessage(llm.KindVideo), "mystery")
	if err != nil {
		t.Fatalf("Transform error = %v", err)
	}
	if !res.Blocked {
		t.Fatal("unknown provider not blocked; capability checks must fail closed")
	}
}

func TestMediaGate_NotApplicableWithoutModality(t *testing.T) {
	t.Parallel()

	gate := plugin.NewListenAudio(testMatrix())
	if gate.Applicable(userMessages("just text"), "anthropic") {
		t.Error("audio gate applicable to a text-only message")
	}
}

// ===== TESTS: GENERATE PICTURE =====

func TestGeneratePicture_KeywordDetection(t *testing.T) {
	t.Parallel()

	p := plugin.NewGeneratePicture(testMatrix())

	cases := []struct {
		text string
		want bool
	}{
		{"please generate image of a cat", true},
		{"DRAW me a dragon", true},
		{"dibuja un castillo", true},
		{"haz una imagen del mar", true},
		{"what is the weather", false},
	}
	for _, tc := range cases {
		if got := p.Applicable(userMessages(tc.text), "openai"); got != tc.want {
			t.Errorf("Applicable(%q) = %v; want %v", tc.text, got, tc.want)
		}
	}
}

func TestGeneratePicture_BlocksProviderWithoutImageGen(t *testing.T) {
	t.Parallel()

	p := plugin.NewGeneratePicture(testMatrix())
	res, err := p.Transform(context.Background(), userMessages("draw a cat"), "anthropic")
	if err != nil {
		t.Fatalf("Transform error = %v", err)
	}
	if !res.Blocked {
		t.Fatal("generation request to non-generating provider not blocked")
	}

	res, err = p.Transform(context.Background(), userMessages("draw a cat"), "openai")
	if err != nil {
		t.Fatalf("Transform error = %v", err)
	}
	if res.Blocked {
		t.Fatal("generation request to capable provider blocked")
	}
}

// ===== TESTS: WEB READER =====

func TestWebReader_RewritesURLIntoSummaryPrompt(t *testing.T) {
	t.Parallel()

	extractor := &stubExtractor{text: "PAGE BODY TEXT"}
	p := plugin.NewWebReader(extractor)
	msgs := userMessages("check https://example.com/article please")

	if !p.Applicable(msgs, "openai") {
		t.Fatal("web_reader not applicable to a message with a URL")
	}
	res, err := p.Transform(context.Background(), msgs, "openai")
	if err != nil {
		t.Fatalf("Transform error = %v", err)
	}
	if extractor.url != "https://example.com/article" {
		t.Errorf("fetched %q; want the message URL", extractor.url)
	}
	rewritten := res.Messages[len(res.Messages)-1].Text()
	if !strings.Contains(rewritten, "PAGE BODY TEXT") {
		t.Error("rewritten prompt does not include the extracted page text")
	}
}

func TestWebReader_SkipsYouTubeLinks(t *testing.T) {
	t.Parallel()

	p := plugin.NewWebReader(&stubExtractor{})
	if p.Applicable(userMessages("https://www.youtube.com/watch?v=dQw4w9WgXcQ"), "openai") {
		t.Error("web_reader claimed a YouTube link; that belongs to summarize_youtube_video")
	}
}

func TestWebReader_FetchFailureSurfacesAsError(t *testing.T) {
	t.Parallel()

	p := plugin.NewWebReader(&stubExtractor{err: errors.New("unreachable")})
	_, err := p.Transform(context.Background(), userMessages("see https://example.com"), "openai")
	if err == nil {
		t.Fatal("Transform succeeded; want error so the pipeline falls through")
	}
}

// ===== TESTS: SUMMARIZE YOUTUBE =====

func TestSummarizeYouTube_RewritesTranscript(t *testing.T) {
	t.Parallel()

	fetcher := &stubTranscripts{text: "VIDEO TRANSCRIPT"}
	p := plugin.NewSummarizeYouTube(fetcher)
	msgs := userMessages("summarize https://www.youtube.com/watch?v=dQw4w9WgXcQ")

	if !p.Applicable(msgs, "openai") {
		t.Fatal("summarize_youtube_video not applicable to a watch URL")
	}
	res, err := p.Transform(context.Background(), msgs, "openai")
	if err != nil {
		t.Fatalf("Transform error = %v", err)
	}
	if fetcher.videoID != "dQw4w9WgXcQ" {
		t.Errorf("fetched video id %q; want dQw4w9WgXcQ", fetcher.videoID)
	}
	rewritten := res.Messages[len(res.Messages)-1].Text()
	if !strings.Contains(rewritten, "VIDEO TRANSCRIPT") {
		t.Error("rewritten prompt does not include the transcript")
	}
}

func TestSummarizeYouTube_ShortURL(t *testing.T) {
	t.Parallel()

	p := plugin.NewSummarizeYouTube(&stubTranscripts{text: "x"})
	if !p.Applicable(userMessages("https://youtu.be/dQw4w9WgXcQ"), "openai") {
		t.Error("summarize_youtube_video not applicable to a youtu.be short URL")
	}
}

func TestSummarizeYouTube_NotApplicableWithoutURL(t *testing.T) {
	t.Parallel()

	p := plugin.NewSummarizeYouTube(&stubTranscripts{})
	if p.Applicable(userMessages("tell me about youtube"), "openai") {
		t.Error("applicable without a URL")
	}
}
