// Package llm — Task 2.5: Anthropic HTTP adapter.
// AnthropicProvider calls the Messages REST API using stdlib net/http.
// The system message travels in the top-level "system" field, not in the
// messages array; image parts use the base64 source shape.
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

const anthropicVersion = "2023-06-01"

// AnthropicProvider implements Provider against the Anthropic API.
type AnthropicProvider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewAnthropicProvider creates an AnthropicProvider. Deadlines come from the
// caller's context; the client itself carries no timeout.
func NewAnthropicProvider(baseURL, apiKey, model string) *AnthropicProvider {
	return &AnthropicProvider{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
	}
}

// ─── internal Anthropic JSON types ──────────────────────────────────────────

type anthropicContentBlock struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicSource struct {
	Type      string `json:"type"` // "base64"
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float32            `json:"temperature,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// ─── Provider implementation ────────────────────────────────────────────────

// Complete performs a non-streaming chat via POST /v1/messages.
func (p *AnthropicProvider) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	system, msgs := splitSystem(req.Messages)
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024 // max_tokens is mandatory in the Messages API
	}

	body, err := json.Marshal(anthropicRequest{
		Model:       model,
		System:      system,
		Messages:    msgs,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, err
	}

	respBody, postErr := p.doPost(ctx, "/v1/messages", body)
	if postErr != nil {
		return nil, postErr
	}
	defer respBody.Close() //nolint:errcheck

	var aResp anthropicResponse
	if decodeErr := json.NewDecoder(respBody).Decode(&aResp); decodeErr != nil {
		return nil, fmt.Errorf("decode messages response: %w", decodeErr)
	}

	var text string
	for _, block := range aResp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return &ChatResponse{
		Content:    text,
		StopReason: aResp.StopReason,
		Tokens:     aResp.Usage.InputTokens + aResp.Usage.OutputTokens,
	}, nil
}

// splitSystem extracts the leading system message into the top-level system
// field and converts the rest into Anthropic message shapes.
func splitSystem(messages []Message) (string, []anthropicMessage) {
	var system string
	out := make([]anthropicMessage, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n"
			}
			system += m.Text()
			continue
		}
		out = append(out, anthropicMessage{
			Role:    string(m.Role),
			Content: encodeAnthropicBlocks(m),
		})
	}
	return system, out
}

func encodeAnthropicBlocks(m Message) []anthropicContentBlock {
	blocks := make([]anthropicContentBlock, 0, len(m.Parts)+1)
	for _, part := range m.Parts {
		switch part.Kind {
		case KindText:
			blocks = append(blocks, anthropicContentBlock{Type: "text", Text: part.Text})
		case KindImage:
			if part.Caption != "" {
				blocks = append(blocks, anthropicContentBlock{Type: "text", Text: part.Caption})
			}
			mime := part.MIMEType
			if mime == "" {
				mime = "image/jpeg"
			}
			blocks = append(blocks, anthropicContentBlock{
				Type: "image",
				Source: &anthropicSource{
					Type:      "base64",
					MediaType: mime,
					Data:      base64.StdEncoding.EncodeToString(part.Data),
				},
			})
		}
	}
	return blocks
}

// Meta returns static metadata for this provider/model.
func (p *AnthropicProvider) Meta() ProviderMeta {
	return ProviderMeta{
		ID:        "anthropic",
		Model:     p.model,
		MaxTokens: 200000,
	}
}

// HealthCheck sends a minimal request and accepts any authenticated answer.
// Anthropic has no cheap list endpoint, so a 400 (empty body rejected) still
// proves reachability and key validity; only 401/403 and transport failures
// count as unhealthy.
func (p *AnthropicProvider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/messages", bytes.NewReader([]byte("{}")))
	if err != nil {
		return fmt.Errorf("anthropic healthcheck: build request: %w", err)
	}
	p.setHeaders(req)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("anthropic healthcheck: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("anthropic healthcheck: status %d", resp.StatusCode)
	}
	return nil
}

func (p *AnthropicProvider) setHeaders(req *http.Request) {
	req.Header.Set(headerContentType, mimeJSON)
	req.Header.Set("x-api-key", p.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
}

// doPost sends a POST request to baseURL+path and returns the response body.
// Caller is responsible for closing the returned ReadCloser.
func (p *AnthropicProvider) doPost(ctx context.Context, path string, body []byte) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("anthropic post %s: build request: %w", path, err)
	}
	p.setHeaders(req)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, wrapTransportErr("anthropic", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close() //nolint:errcheck
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &UpstreamError{
			Provider: "anthropic",
			Status:   resp.StatusCode,
			Class:    classifyStatus(resp.StatusCode),
			Err:      fmt.Errorf("post %s: status %d: %s", path, resp.StatusCode, bytes.TrimSpace(detail)),
		}
	}
	return resp.Body, nil
}
