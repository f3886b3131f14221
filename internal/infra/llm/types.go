// Package llm defines the model-agnostic LLM provider abstraction (Task 2.1).
// All types here are shared between the provider interface and the per-vendor
// HTTP adapters; nothing outside this package depends on a vendor wire format.
package llm

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Kind tags a single content part with its modality.
type Kind string

const (
	KindText  Kind = "text"
	KindImage Kind = "image"
	KindAudio Kind = "audio"
	KindVideo Kind = "video"
)

// ContentPart is one typed part of a message. Text parts carry Text;
// media parts carry the raw payload plus its MIME type and an optional
// caption supplied by the chat frontend.
type ContentPart struct {
	Kind     Kind   `json:"kind"`
	Text     string `json:"text,omitempty"`
	Data     []byte `json:"data,omitempty"`
	MIMEType string `json:"mime_type,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

// Message represents a single turn in a conversation.
// Messages are treated as immutable once appended to a conversation;
// plugins that rewrite a message build a new one.
type Message struct {
	Role  Role          `json:"role"`
	Parts []ContentPart `json:"parts"`
}

// TextMessage builds a message with a single text part.
func TextMessage(role Role, text string) Message {
	return Message{Role: role, Parts: []ContentPart{{Kind: KindText, Text: text}}}
}

// Text concatenates the text parts of the message (captions excluded).
func (m Message) Text() string {
	var out string
	for _, p := range m.Parts {
		if p.Kind == KindText {
			if out != "" {
				out += " "
			}
			out += p.Text
		}
	}
	return out
}

// HasKind reports whether any part of the message carries the given kind.
func (m Message) HasKind(k Kind) bool {
	for _, p := range m.Parts {
		if p.Kind == k {
			return true
		}
	}
	return false
}

// MediaCount returns the number of non-text parts.
func (m Message) MediaCount() int {
	n := 0
	for _, p := range m.Parts {
		if p.Kind != KindText {
			n++
		}
	}
	return n
}

// WithText returns a copy of the message whose content is replaced by a
// single text part. Used by transform plugins that rewrite the last user
// message (e.g. URL → extracted page text).
func (m Message) WithText(text string) Message {
	return Message{Role: m.Role, Parts: []ContentPart{{Kind: KindText, Text: text}}}
}

// ChatRequest is the input for a non-streaming chat completion.
type ChatRequest struct {
	// Model overrides the provider default when non-empty.
	Model       string
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// ChatResponse is the output from a non-streaming chat completion.
type ChatResponse struct {
	Content    string // The assistant message text.
	StopReason string // "stop" | "length" | "error"
	Tokens     int    // Total tokens consumed (prompt + completion).
}

// ProviderMeta describes the provider/model identity.
type ProviderMeta struct {
	ID        string // provider key, e.g. "openai", "anthropic", "gemini"
	Model     string // e.g. "gpt-4o", "claude-sonnet-4-5"
	MaxTokens int    // maximum context window size
}
