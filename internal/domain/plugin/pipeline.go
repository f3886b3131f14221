// Package plugin — Task 4.3: first-match pipeline.
package plugin

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/matiasleandrokruk/llmgate/internal/infra/llm"
)

// Outcome is what the pipeline hands back to the orchestrator.
type Outcome struct {
	Messages []llm.Message
	Plugin   string // name of the plugin that handled the message, "" if none
	Blocked  bool
	Warning  string
}

// Pipeline applies the first applicable active plugin to a conversation.
type Pipeline struct {
	registry *Registry
	log      zerolog.Logger
}

// NewPipeline creates a Pipeline over the given registry.
func NewPipeline(registry *Registry, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		registry: registry,
		log:      log.With().Str("component", "pipeline").Logger(),
	}
}

// Process scans the active plugins in registration order and invokes the
// transform of the FIRST one whose predicate matches, then stops. At most
// one plugin ever transforms a message — this is the contract, not an
// optimization: validators rely on being the only handler once they match.
//
// A plugin that panics or returns an error is logged and treated as
// non-applicable; the scan continues so a single faulty plugin never aborts
// delivery. If nothing matches, the conversation passes through unmodified.
func (p *Pipeline) Process(ctx context.Context, messages []llm.Message, providerID string) Outcome {
	for _, plg := range p.registry.Active() {
		handled, outcome := p.tryPlugin(ctx, plg, messages, providerID)
		if handled {
			return outcome
		}
	}
	return Outcome{Messages: messages}
}

// tryPlugin evaluates one plugin; handled=false means "keep scanning",
// covering both a false predicate and an isolated plugin failure.
func (p *Pipeline) tryPlugin(ctx context.Context, plg Plugin, messages []llm.Message, providerID string) (handled bool, out Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			p.log.Error().Str("plugin", plg.Name()).Any("panic", rec).Msg("plugin panicked, skipping")
			handled = false
		}
	}()

	if !plg.Applicable(messages, providerID) {
		return false, Outcome{}
	}

	result, err := plg.Transform(ctx, messages, providerID)
	if err != nil {
		p.log.Warn().Err(err).Str("plugin", plg.Name()).Msg("plugin failed, treating as non-applicable")
		return false, Outcome{}
	}
	if len(result.Messages) == 0 {
		// A transform must hand back the conversation; an empty result is a
		// contract violation and is isolated like any other plugin failure.
		p.log.Warn().Str("plugin", plg.Name()).Msg("plugin returned no messages, treating as non-applicable")
		return false, Outcome{}
	}

	p.log.Debug().Str("plugin", plg.Name()).Bool("blocked", result.Blocked).Msg("plugin handled message")
	return true, Outcome{
		Messages: result.Messages,
		Plugin:   plg.Name(),
		Blocked:  result.Blocked,
		Warning:  result.Warning,
	}
}
