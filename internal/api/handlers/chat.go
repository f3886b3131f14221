// HTTP handler for POST /api/v1/chat.
// Translates the HTTP request into a dispatch.Dispatcher call and maps the
// dispatch error taxonomy to HTTP codes.
package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/matiasleandrokruk/llmgate/internal/domain/dispatch"
	"github.com/matiasleandrokruk/llmgate/internal/domain/route"
	"github.com/matiasleandrokruk/llmgate/internal/infra/llm"
)

// ChatService is the dispatch contract used by the handler.
// dispatch.Dispatcher satisfies this interface; tests inject stubs.
type ChatService interface {
	HandleMessage(ctx context.Context, userID, text string, parts []llm.ContentPart) (*dispatch.Reply, error)
}

// ChatHandler handles chat dispatch requests.
type ChatHandler struct {
	service ChatService
}

// NewChatHandler creates a ChatHandler backed by the given dispatcher.
func NewChatHandler(service ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

// chatPart is one media attachment in the request body. Data is base64.
type chatPart struct {
	Kind     string `json:"kind"` // image | audio | video
	Data     string `json:"data"`
	MIMEType string `json:"mime_type,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

type chatRequest struct {
	Text  string     `json:"text"`
	Parts []chatPart `json:"parts,omitempty"`
}

type chatResponse struct {
	Reply        string `json:"reply"`
	Provider     string `json:"provider"`
	Reason       string `json:"reason"` // explicit_prefix | default
	Plugin       string `json:"plugin,omitempty"`
	Blocked      bool   `json:"blocked,omitempty"`
	SwitchReport string `json:"switch_report,omitempty"`
}

// Chat handles POST /api/v1/chat.
//
// Response codes:
//   - 200 OK: dispatched (including pipeline-blocked replies — those carry
//     blocked=true and the warning as the reply text)
//   - 400 Bad Request: invalid JSON, empty message, bad media encoding,
//     unknown provider selector, media limits exceeded
//   - 429 Too Many Requests: rate limit hit; Retry-After header set
//   - 502 Bad Gateway: upstream provider failure after the retry budget
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == "" && len(req.Parts) == 0 {
		writeError(w, http.StatusBadRequest, "message is empty")
		return
	}

	parts, err := decodeParts(req.Parts)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reply, err := h.service.HandleMessage(r.Context(), userID, req.Text, parts)
	if err != nil {
		writeChatError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Reply:        reply.Text,
		Provider:     reply.Provider,
		Reason:       string(reply.Reason),
		Plugin:       reply.Plugin,
		Blocked:      reply.Blocked,
		SwitchReport: reply.SwitchReport,
	})
}

// decodeParts converts the wire attachments into llm content parts.
func decodeParts(in []chatPart) ([]llm.ContentPart, error) {
	var out []llm.ContentPart
	for i, p := range in {
		kind := llm.Kind(p.Kind)
		switch kind {
		case llm.KindImage, llm.KindAudio, llm.KindVideo:
		default:
			return nil, fmt.Errorf("part %d: unknown kind %q", i, p.Kind)
		}
		data, err := base64.StdEncoding.DecodeString(p.Data)
		if err != nil {
			return nil, fmt.Errorf("part %d: invalid base64 data", i)
		}
		out = append(out, llm.ContentPart{
			Kind:     kind,
			Data:     data,
			MIMEType: p.MIMEType,
			Caption:  p.Caption,
		})
	}
	return out, nil
}

// writeChatError maps the dispatch error taxonomy to HTTP codes.
func writeChatError(w http.ResponseWriter, err error) {
	var rl *dispatch.RateLimitedError
	if errors.As(err, &rl) {
		w.Header().Set("Retry-After", strconv.Itoa(int(rl.RetryAfter.Seconds())+1))
		writeError(w, http.StatusTooManyRequests, rl.Error())
		return
	}
	if errors.Is(err, route.ErrUnknownProvider) ||
		errors.Is(err, dispatch.ErrTooManyMediaItems) ||
		errors.Is(err, dispatch.ErrMediaTooLarge) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusBadGateway, "upstream provider request failed")
}
