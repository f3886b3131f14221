// Tests for the chat handler: request decoding and error-code mapping.
package handlers_test

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/matiasleandrokruk/llmgate/internal/api/ctxkeys"
	"github.com/matiasleandrokruk/llmgate/internal/api/handlers"
	"github.com/matiasleandrokruk/llmgate/internal/domain/dispatch"
	"github.com/matiasleandrokruk/llmgate/internal/domain/route"
	"github.com/matiasleandrokruk/llmgate/internal/infra/llm"
)

func TestMain(m *testing.M) {
	os.Setenv("JWT_SECRET", "test-secret-for-handler-tests") //nolint:errcheck
	os.Exit(m.Run())
}

// stubChatService scripts the dispatcher's answer and records what it got.
type stubChatService struct {
	reply *dispatch.Reply
	err   error

	userID string
	text   string
	parts  []llm.ContentPart
}

func (s *stubChatService) HandleMessage(_ context.Context, userID, text string, parts []llm.ContentPart) (*dispatch.Reply, error) {
	s.userID = userID
	s.text = text
	s.parts = parts
	return s.reply, s.err
}

func doChat(t *testing.T, svc handlers.ChatService, body string, withUser bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
	if withUser {
		req = req.WithContext(ctxkeys.WithValue(req.Context(), ctxkeys.UserID, "alice"))
	}
	rec := httptest.NewRecorder()
	handlers.NewChatHandler(svc).Chat(rec, req)
	return rec
}

func TestChat_Success(t *testing.T) {
	t.Parallel()

	svc := &stubChatService{reply: &dispatch.Reply{
		Text: "hello back", Provider: "openai", Reason: route.ReasonDefault,
	}}
	rec := doChat(t, svc, `{"text":"hello"}`, true)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if svc.userID != "alice" || svc.text != "hello" {
		t.Errorf("dispatcher got userID=%q text=%q", svc.userID, svc.text)
	}
	if !strings.Contains(rec.Body.String(), "hello back") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestChat_DecodesMediaParts(t *testing.T) {
	t.Parallel()

	svc := &stubChatService{reply: &dispatch.Reply{Text: "ok", Provider: "openai", Reason: route.ReasonDefault}}
	data := base64.StdEncoding.EncodeToString([]byte{0xFF, 0xD8})
	body := `{"text":"look","parts":[{"kind":"image","data":"` + data + `","mime_type":"image/jpeg"}]}`

	if rec := doChat(t, svc, body, true); rec.Code != http.StatusOK {
		t.Fatalf("status = %d; body %s", rec.Code, rec.Body.String())
	}
	if len(svc.parts) != 1 || svc.parts[0].Kind != llm.KindImage {
		t.Fatalf("parts = %+v", svc.parts)
	}
	if svc.parts[0].Data[0] != 0xFF {
		t.Error("base64 data not decoded")
	}
}

func TestChat_BadRequests(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
	}{
		{"invalid json", `{`},
		{"empty message", `{"text":""}`},
		{"unknown part kind", `{"text":"x","parts":[{"kind":"hologram","data":"aGk="}]}`},
		{"bad base64", `{"text":"x","parts":[{"kind":"image","data":"%%%"}]}`},
	}
	for _, tc := range cases {
		svc := &stubChatService{reply: &dispatch.Reply{}}
		if rec := doChat(t, svc, tc.body, true); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d; want 400", tc.name, rec.Code)
		}
	}
}

func TestChat_MissingUserContext(t *testing.T) {
	t.Parallel()

	rec := doChat(t, &stubChatService{}, `{"text":"hi"}`, false)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d; want 401", rec.Code)
	}
}

// TestChat_RateLimited: a RateLimitedError maps to 429 with a Retry-After
// header rounded up to whole seconds.
func TestChat_RateLimited(t *testing.T) {
	t.Parallel()

	svc := &stubChatService{err: &dispatch.RateLimitedError{RetryAfter: 30 * time.Second}}
	rec := doChat(t, svc, `{"text":"hi"}`, true)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d; want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "31" {
		t.Errorf("Retry-After = %q; want 31", got)
	}
}

func TestChat_ClientFaultErrors(t *testing.T) {
	t.Parallel()

	for _, err := range []error{
		route.ErrUnknownProvider,
		dispatch.ErrTooManyMediaItems,
		dispatch.ErrMediaTooLarge,
	} {
		svc := &stubChatService{err: err}
		if rec := doChat(t, svc, `{"text":"hi"}`, true); rec.Code != http.StatusBadRequest {
			t.Errorf("%v: status = %d; want 400", err, rec.Code)
		}
	}
}

func TestChat_UpstreamFailureIsBadGateway(t *testing.T) {
	t.Parallel()

	svc := &stubChatService{err: errors.New("provider exploded")}
	rec := doChat(t, svc, `{"text":"hi"}`, true)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d; want 502", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "exploded") {
		t.Error("upstream error detail leaked to the client")
	}
}
