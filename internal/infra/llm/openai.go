// Package llm — Task 2.4: OpenAI HTTP adapter.
// OpenAIProvider calls the Chat Completions REST API using stdlib net/http.
// Endpoints used:
//   - POST /v1/chat/completions — non-streaming chat completion
//   - GET  /v1/models           — health check
//
// Multimodal encoding: image parts become image_url entries with base64
// data URLs; audio/video parts are never sent here — the capability gate
// in the pipeline blocks them before dispatch when unsupported.
package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const (
	mimeJSON          = "application/json"
	headerContentType = "Content-Type"
)

// OpenAIProvider implements Provider against the OpenAI API.
type OpenAIProvider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewOpenAIProvider creates an OpenAIProvider. The client carries no
// timeout of its own: the per-dispatch deadline comes from the caller's
// context, and a client-level timeout would silently cap it.
func NewOpenAIProvider(baseURL, apiKey, model string) *OpenAIProvider {
	return &OpenAIProvider{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
	}
}

// ─── internal OpenAI JSON types ──────────────────────────────────────────────

type openaiContentPart struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ImageURL *openaiImageURL `json:"image_url,omitempty"`
}

type openaiImageURL struct {
	URL string `json:"url"`
}

type openaiChatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []openaiContentPart
}

type openaiChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openaiChatMessage `json:"messages"`
	Temperature float32             `json:"temperature,omitempty"`
	MaxTokens   int                 `json:"max_completion_tokens,omitempty"`
}

type openaiChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

// ─── Provider implementation ────────────────────────────────────────────────

// Complete performs a non-streaming chat via POST /v1/chat/completions.
func (p *OpenAIProvider) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	msgs := make([]openaiChatMessage, len(req.Messages))
	for i, m := range req.Messages {
		msgs[i] = encodeOpenAIMessage(m)
	}

	body, err := json.Marshal(openaiChatRequest{
		Model:       model,
		Messages:    msgs,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	respBody, postErr := p.doPost(ctx, "/v1/chat/completions", body)
	if postErr != nil {
		return nil, postErr
	}
	defer respBody.Close() //nolint:errcheck

	var oaResp openaiChatResponse
	if decodeErr := json.NewDecoder(respBody).Decode(&oaResp); decodeErr != nil {
		return nil, fmt.Errorf("decode chat response: %w", decodeErr)
	}
	if len(oaResp.Choices) == 0 {
		return nil, &UpstreamError{Provider: "openai", Class: ClassInvalid, Err: fmt.Errorf("empty choices")}
	}
	return &ChatResponse{
		Content:    oaResp.Choices[0].Message.Content,
		StopReason: oaResp.Choices[0].FinishReason,
		Tokens:     oaResp.Usage.TotalTokens,
	}, nil
}

// encodeOpenAIMessage converts a universal Message into the OpenAI shape.
// Pure-text messages stay plain strings (smaller payload, matches the
// pre-multimodal API); anything with media becomes a content-part array.
func encodeOpenAIMessage(m Message) openaiChatMessage {
	if m.MediaCount() == 0 {
		return openaiChatMessage{Role: string(m.Role), Content: m.Text()}
	}
	parts := make([]openaiContentPart, 0, len(m.Parts)+1)
	for _, part := range m.Parts {
		switch part.Kind {
		case KindText:
			parts = append(parts, openaiContentPart{Type: "text", Text: part.Text})
		case KindImage:
			if part.Caption != "" {
				parts = append(parts, openaiContentPart{Type: "text", Text: part.Caption})
			}
			parts = append(parts, openaiContentPart{
				Type:     "image_url",
				ImageURL: &openaiImageURL{URL: dataURL(part)},
			})
		}
		// audio/video never reach this adapter — blocked by the capability gate
	}
	return openaiChatMessage{Role: string(m.Role), Content: parts}
}

// dataURL encodes a media part as a base64 data URL.
func dataURL(part ContentPart) string {
	mime := part.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(part.Data))
}

// Meta returns static metadata for this provider/model.
func (p *OpenAIProvider) Meta() ProviderMeta {
	return ProviderMeta{
		ID:        "openai",
		Model:     p.model,
		MaxTokens: 128000,
	}
}

// HealthCheck calls GET /v1/models — returns nil if the API is reachable
// and the key is accepted.
func (p *OpenAIProvider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/models", nil)
	if err != nil {
		return fmt.Errorf("openai healthcheck: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("openai healthcheck: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openai healthcheck: status %d", resp.StatusCode)
	}
	return nil
}

// doPost sends a POST request to baseURL+path and returns the response body.
// Non-2xx statuses are mapped into *UpstreamError by class.
// Caller is responsible for closing the returned ReadCloser.
func (p *OpenAIProvider) doPost(ctx context.Context, path string, body []byte) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai post %s: build request: %w", path, err)
	}
	req.Header.Set(headerContentType, mimeJSON)
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, wrapTransportErr("openai", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close() //nolint:errcheck
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &UpstreamError{
			Provider: "openai",
			Status:   resp.StatusCode,
			Class:    classifyStatus(resp.StatusCode),
			Err:      fmt.Errorf("post %s: status %d: %s", path, resp.StatusCode, bytes.TrimSpace(detail)),
		}
	}
	return resp.Body, nil
}
