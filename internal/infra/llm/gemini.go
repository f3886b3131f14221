// Package llm — Task 2.6: Gemini HTTP adapter.
// GeminiProvider calls the generateContent REST API using stdlib net/http.
// Roles map as user→user, assistant→model; the system message travels in
// system_instruction. Media parts use inline_data and may carry audio and
// video in addition to images — Gemini is the only backend here that
// accepts all three.
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

// GeminiProvider implements Provider against the Google Generative Language API.
type GeminiProvider struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewGeminiProvider creates a GeminiProvider. Deadlines come from the
// caller's context; the client itself carries no timeout.
func NewGeminiProvider(baseURL, apiKey, model string) *GeminiProvider {
	return &GeminiProvider{
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
	}
}

// ─── internal Gemini JSON types ─────────────────────────────────────────────

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent   `json:"system_instruction,omitempty"`
	Contents          []geminiContent  `json:"contents"`
	GenerationConfig  *geminiGenConfig `json:"generationConfig,omitempty"`
}

type geminiGenConfig struct {
	Temperature     float32 `json:"temperature,omitempty"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		TotalTokenCount int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

// ─── Provider implementation ────────────────────────────────────────────────

// Complete performs a non-streaming chat via POST /v1beta/models/{m}:generateContent.
func (p *GeminiProvider) Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	gReq := geminiRequest{}
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			gReq.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: m.Text()}}}
			continue
		}
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		gReq.Contents = append(gReq.Contents, geminiContent{Role: role, Parts: encodeGeminiParts(m)})
	}
	if req.Temperature != 0 || req.MaxTokens != 0 {
		gReq.GenerationConfig = &geminiGenConfig{Temperature: req.Temperature, MaxOutputTokens: req.MaxTokens}
	}

	body, err := json.Marshal(gReq)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/v1beta/models/%s:generateContent", model)
	respBody, postErr := p.doPost(ctx, path, body)
	if postErr != nil {
		return nil, postErr
	}
	defer respBody.Close() //nolint:errcheck

	var gResp geminiResponse
	if decodeErr := json.NewDecoder(respBody).Decode(&gResp); decodeErr != nil {
		return nil, fmt.Errorf("decode generateContent response: %w", decodeErr)
	}
	if len(gResp.Candidates) == 0 {
		return nil, &UpstreamError{Provider: "gemini", Class: ClassInvalid, Err: fmt.Errorf("empty candidates")}
	}

	var text string
	for _, part := range gResp.Candidates[0].Content.Parts {
		text += part.Text
	}
	return &ChatResponse{
		Content:    text,
		StopReason: gResp.Candidates[0].FinishReason,
		Tokens:     gResp.UsageMetadata.TotalTokenCount,
	}, nil
}

func encodeGeminiParts(m Message) []geminiPart {
	parts := make([]geminiPart, 0, len(m.Parts)+1)
	for _, part := range m.Parts {
		if part.Kind == KindText {
			parts = append(parts, geminiPart{Text: part.Text})
			continue
		}
		if part.Caption != "" {
			parts = append(parts, geminiPart{Text: part.Caption})
		}
		mime := part.MIMEType
		if mime == "" {
			mime = defaultMIME(part.Kind)
		}
		parts = append(parts, geminiPart{InlineData: &geminiInlineData{
			MIMEType: mime,
			Data:     base64.StdEncoding.EncodeToString(part.Data),
		}})
	}
	return parts
}

func defaultMIME(k Kind) string {
	switch k {
	case KindImage:
		return "image/jpeg"
	case KindAudio:
		return "audio/ogg"
	case KindVideo:
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}

// Meta returns static metadata for this provider/model.
func (p *GeminiProvider) Meta() ProviderMeta {
	return ProviderMeta{
		ID:        "gemini",
		Model:     p.model,
		MaxTokens: 1000000,
	}
}

// HealthCheck calls GET /v1beta/models — returns nil if the API is reachable.
func (p *GeminiProvider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1beta/models", nil)
	if err != nil {
		return fmt.Errorf("gemini healthcheck: build request: %w", err)
	}
	req.Header.Set("x-goog-api-key", p.apiKey)
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gemini healthcheck: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gemini healthcheck: status %d", resp.StatusCode)
	}
	return nil
}

// doPost sends a POST request to baseURL+path and returns the response body.
// Caller is responsible for closing the returned ReadCloser.
func (p *GeminiProvider) doPost(ctx context.Context, path string, body []byte) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gemini post %s: build request: %w", path, err)
	}
	req.Header.Set(headerContentType, mimeJSON)
	req.Header.Set("x-goog-api-key", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, wrapTransportErr("gemini", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close() //nolint:errcheck
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &UpstreamError{
			Provider: "gemini",
			Status:   resp.StatusCode,
			Class:    classifyStatus(resp.StatusCode),
			Err:      fmt.Errorf("post %s: status %d: %s", path, resp.StatusCode, bytes.TrimSpace(detail)),
		}
	}
	return resp.Body, nil
}
