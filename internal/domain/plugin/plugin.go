// Package plugin — Task 4.1: the message-processing plugin contract.
//
// The original bot discovered duck-typed plugin modules by listing a
// directory at startup; here the candidate set is a compiled, explicit list
// of implementations registered in a fixed order (see Registry). Every unit
// exposes the same two-function contract: an applicability predicate and a
// transform. Both must be side-effect-free with respect to pipeline state —
// the pipeline may invoke Applicable speculatively on every active plugin.
package plugin

import (
	"context"

	"github.com/matiasleandrokruk/llmgate/internal/infra/llm"
)

// Result is the outcome of a plugin transform.
//
// A nil-Messages pass-through is not allowed: a transform either returns the
// (possibly rewritten) conversation, or marks it Blocked. Blocked results
// carry a user-facing warning and tell the orchestrator to skip the provider
// call entirely — the block marker from the original validator plugins.
type Result struct {
	Messages []llm.Message
	Blocked  bool
	Warning  string // user-facing explanation, set when Blocked
}

// Plugin is one pipeline stage. Implementations inspect a conversation and
// optionally rewrite its last user message before it reaches a provider.
type Plugin interface {
	// Name is the stable identifier used by the enable/disable surface.
	Name() string

	// Applicable reports whether this plugin wants to handle the
	// conversation as it would be sent to providerID. It must be cheap and
	// free of side effects.
	Applicable(messages []llm.Message, providerID string) bool

	// Transform rewrites the conversation for providerID. It receives a
	// snapshot it may freely return modified copies of; it must not mutate
	// the input slice in place. An error is treated as PluginFailure: logged
	// by the pipeline and the scan continues with the next plugin.
	Transform(ctx context.Context, messages []llm.Message, providerID string) (Result, error)
}

// lastUserMessage returns the trailing message if it is a user turn.
func lastUserMessage(messages []llm.Message) (llm.Message, bool) {
	if len(messages) == 0 {
		return llm.Message{}, false
	}
	last := messages[len(messages)-1]
	if last.Role != llm.RoleUser {
		return llm.Message{}, false
	}
	return last, true
}

// replaceLast returns a copy of messages with the final entry swapped.
func replaceLast(messages []llm.Message, msg llm.Message) []llm.Message {
	out := make([]llm.Message, len(messages))
	copy(out, messages)
	out[len(out)-1] = msg
	return out
}
