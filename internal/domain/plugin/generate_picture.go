// Task 4.5: generate_picture plugin.
// Detects image-generation intent through a multilingual keyword list
// (English and Spanish, from the original plugin) and blocks the request
// when the active provider has no image-generation capability. Providers
// that can generate pass the message through untouched.
package plugin

import (
	"context"
	"fmt"
	"strings"

	"github.com/matiasleandrokruk/llmgate/internal/domain/capability"
	"github.com/matiasleandrokruk/llmgate/internal/infra/llm"
)

// generationKeywords trigger the plugin when present in the last user text.
var generationKeywords = []string{
	"generate image", "create image", "draw", "paint", "picture of",
	"generar imagen", "crear imagen", "dibuja", "pinta", "foto de",
	"generate a picture", "create a picture", "haz un dibujo", "haz una imagen",
}

type generatePicture struct {
	caps *capability.Matrix
}

// NewGeneratePicture builds the image-generation gate.
func NewGeneratePicture(caps *capability.Matrix) Plugin {
	return &generatePicture{caps: caps}
}

func (g *generatePicture) Name() string { return "generate_picture" }

// Applicable matches when the last user message's text contains any
// generation keyword, case-insensitively.
func (g *generatePicture) Applicable(messages []llm.Message, _ string) bool {
	last, ok := lastUserMessage(messages)
	if !ok {
		return false
	}
	text := strings.ToLower(last.Text())
	for _, kw := range generationKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func (g *generatePicture) Transform(_ context.Context, messages []llm.Message, providerID string) (Result, error) {
	if g.caps.Supports(providerID, capability.ImageGen) {
		return Result{Messages: messages}, nil
	}

	warning := fmt.Sprintf("Sorry, the current AI provider (%s) does not support image generation. Switch to a provider that does.", providerID)
	last, _ := lastUserMessage(messages)
	return Result{
		Messages: replaceLast(messages, last.WithText(warning)),
		Blocked:  true,
		Warning:  warning,
	}, nil
}
