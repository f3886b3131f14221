// Task 4.4: capability-gate validator plugins.
// One gate per media modality, mirroring the original watch_picture /
// listen_audio / watch_video validators: if the last user message carries
// the modality and the active provider lacks the capability, the message is
// replaced by a block marker with a user-facing warning and never reaches
// the provider. Supported providers pass the message through unchanged.
package plugin

import (
	"context"
	"fmt"

	"github.com/matiasleandrokruk/llmgate/internal/domain/capability"
	"github.com/matiasleandrokruk/llmgate/internal/infra/llm"
)

// mediaGate validates one content kind against the capability matrix.
type mediaGate struct {
	name  string
	kind  llm.Kind
	label string // human word used in the warning ("image analysis", …)
	caps  *capability.Matrix
}

// NewWatchPicture gates image parts on vision support.
func NewWatchPicture(caps *capability.Matrix) Plugin {
	return &mediaGate{name: "watch_picture", kind: llm.KindImage, label: "image analysis", caps: caps}
}

// NewListenAudio gates audio/voice parts on native audio support.
func NewListenAudio(caps *capability.Matrix) Plugin {
	return &mediaGate{name: "listen_audio", kind: llm.KindAudio, label: "audio analysis", caps: caps}
}

// NewWatchVideo gates video parts on native video support.
func NewWatchVideo(caps *capability.Matrix) Plugin {
	return &mediaGate{name: "watch_video", kind: llm.KindVideo, label: "video analysis", caps: caps}
}

func (g *mediaGate) Name() string { return g.name }

// Applicable matches when the last user message carries the gated kind.
// The provider is deliberately ignored here: the gate claims every message
// with this modality so that, once matched, no later plugin sees it.
func (g *mediaGate) Applicable(messages []llm.Message, _ string) bool {
	last, ok := lastUserMessage(messages)
	return ok && last.HasKind(g.kind)
}

// Transform passes the conversation through unchanged when the provider
// supports the modality; otherwise it returns a blocked result whose
// warning tells the user which provider refused what.
func (g *mediaGate) Transform(_ context.Context, messages []llm.Message, providerID string) (Result, error) {
	if g.caps.Supports(providerID, g.kind) {
		return Result{Messages: messages}, nil
	}

	warning := fmt.Sprintf("Sorry, the current AI provider (%s) does not support %s. Switch providers to send this.", providerID, g.label)
	last, _ := lastUserMessage(messages)
	return Result{
		Messages: replaceLast(messages, last.WithText(warning)),
		Blocked:  true,
		Warning:  warning,
	}, nil
}
