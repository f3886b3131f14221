// Package llm — Task 2.1: Provider interface.
// Adapters (OpenAI, Anthropic, Gemini) implement this interface so the
// dispatch pipeline is never coupled to a specific LLM vendor.
package llm

import "context"

// Provider is the uniform send boundary every backend adapter implements.
// Complete performs a non-streaming chat completion; failures are returned
// as *UpstreamError so callers can distinguish transient from permanent
// classes without inspecting vendor payloads.
type Provider interface {
	// Complete performs a non-streaming chat completion.
	Complete(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// Meta returns static metadata about the provider/model.
	Meta() ProviderMeta

	// HealthCheck returns nil if the provider is reachable and operational.
	HealthCheck(ctx context.Context) error
}
