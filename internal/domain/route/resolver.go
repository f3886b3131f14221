// Package route — Task 3.3: explicit provider selection by message prefix.
// The original bot let users switch backends by starting a message with a
// short indicator ("o: …" for OpenAI, "a: …" for Anthropic), including
// Cyrillic homoglyph variants typed on a Russian keyboard layout. The
// locale-specific string matching is replaced here by one explicit table
// mapping every recognized token (all alphabet variants) to a provider
// identifier, checked before any other parsing.
package route

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrUnknownProvider is returned when the message starts with a selector
// token that maps to no registered provider.
var ErrUnknownProvider = errors.New("unknown provider selector")

// Reason records how a provider was chosen.
type Reason string

const (
	ReasonExplicitPrefix Reason = "explicit_prefix"
	ReasonDefault        Reason = "default"
)

// Selection is the result of resolving a raw inbound message.
type Selection struct {
	Provider string // resolved provider identifier
	Reason   Reason
	Rest     string // the message with any selector prefix stripped
}

// indicators maps each recognized selector token (lowercase, colon included)
// to its provider. Latin and Cyrillic variants map to the same provider.
var indicators = map[string]string{
	"o:": "openai",
	"о:": "openai", // Cyrillic о
	"a:": "anthropic",
	"а:": "anthropic", // Cyrillic а
	"c:": "anthropic",
	"с:": "anthropic", // Cyrillic с
	"g:": "gemini",
	"г:": "gemini", // Cyrillic г
}

// Resolve picks the provider for an inbound message. A recognized prefix
// token wins and is stripped from the forwarded text; otherwise the
// configured default is selected. A single-letter selector token that maps
// to no provider yields ErrUnknownProvider — resolution happens once per
// message, before pipeline processing, so plugins always receive a resolved
// provider identifier.
func Resolve(rawText, configuredDefault string) (Selection, error) {
	trimmed := strings.TrimSpace(rawText)
	lower := strings.ToLower(trimmed)

	for token, provider := range indicators {
		if strings.HasPrefix(lower, token) {
			return Selection{
				Provider: provider,
				Reason:   ReasonExplicitPrefix,
				Rest:     strings.TrimSpace(trimmed[len(token):]),
			}, nil
		}
	}

	if tok, ok := selectorToken(trimmed); ok {
		return Selection{}, fmt.Errorf("%w: %q", ErrUnknownProvider, tok)
	}

	return Selection{Provider: configuredDefault, Reason: ReasonDefault, Rest: trimmed}, nil
}

// selectorToken reports whether the text starts with something shaped like a
// provider selector: exactly one letter followed by a colon. Longer runs
// ("PS: hello") are ordinary prose and pass through untouched.
func selectorToken(text string) (string, bool) {
	r, size := utf8.DecodeRuneInString(text)
	if r == utf8.RuneError || !unicode.IsLetter(r) {
		return "", false
	}
	if !strings.HasPrefix(text[size:], ":") {
		return "", false
	}
	return text[:size+1], true
}
