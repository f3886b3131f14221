// Package dispatch — Task 5.3: the message orchestrator.
//
// One HandleMessage call spans the whole per-message flow: resolve provider
// → media admission → pipeline → rate limit → provider call → history
// append. The entire span holds a per-user mutex, so requests from a single
// user are strictly FIFO — a second message arriving while the first awaits
// a provider response queues behind it and never interleaves with the
// history. Cancelling an in-flight request with a newer one is deliberately
// unsupported; the newer request waits. Different users only ever share the
// read-mostly registry and capability matrix.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/matiasleandrokruk/llmgate/internal/domain/conversation"
	"github.com/matiasleandrokruk/llmgate/internal/domain/plugin"
	"github.com/matiasleandrokruk/llmgate/internal/domain/ratelimit"
	"github.com/matiasleandrokruk/llmgate/internal/domain/route"
	"github.com/matiasleandrokruk/llmgate/internal/infra/eventbus"
	"github.com/matiasleandrokruk/llmgate/internal/infra/llm"
)

// TopicDispatched is the event-bus topic for completed dispatch attempts.
const TopicDispatched = "chat.dispatched"

// maxTransientRetries bounds automatic retries of transient upstream
// failures. Anything beyond this budget is surfaced to the user — silent
// unbounded retries could duplicate billable upstream calls.
const maxTransientRetries = 2

// Event is the payload published on TopicDispatched.
type Event struct {
	UserID   string
	Provider string
	Plugin   string
	Blocked  bool
	Tokens   int
	Failed   bool
}

// Reply is what the orchestrator hands back to the transport layer.
type Reply struct {
	Text         string
	Provider     string
	Reason       route.Reason
	Plugin       string // plugin that handled the message, "" if none
	Blocked      bool
	SwitchReport string // "anthropic -> openai" when an explicit prefix changed the provider
}

// Config carries the dispatch-relevant limits.
type Config struct {
	DefaultProvider string
	MaxMediaItems   int
	MaxMediaBytes   int64
	RequestTimeout  time.Duration
}

// Dispatcher composes the core components into the per-message flow.
type Dispatcher struct {
	store     *conversation.Store
	pipeline  *plugin.Pipeline
	limiter   *ratelimit.Limiter
	providers *llm.Registry
	bus       *eventbus.Bus
	cfg       Config
	log       zerolog.Logger

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// NewDispatcher wires the orchestrator.
func NewDispatcher(store *conversation.Store, pipeline *plugin.Pipeline, limiter *ratelimit.Limiter, providers *llm.Registry, bus *eventbus.Bus, cfg Config, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		store:     store,
		pipeline:  pipeline,
		limiter:   limiter,
		providers: providers,
		bus:       bus,
		cfg:       cfg,
		log:       log.With().Str("component", "dispatch").Logger(),
		locks:     make(map[string]*sync.Mutex),
	}
}

// userLock returns the mutex serializing one user's dispatches.
func (d *Dispatcher) userLock(userID string) *sync.Mutex {
	d.lockMu.Lock()
	defer d.lockMu.Unlock()
	mu, ok := d.locks[userID]
	if !ok {
		mu = &sync.Mutex{}
		d.locks[userID] = mu
	}
	return mu
}

// HandleMessage processes one inbound user message end to end.
//
// Failure contract: rate-limit rejections and media-limit violations return
// an error and mutate nothing; blocked pipeline results append the user
// message plus the warning and make no provider call; upstream failures
// append the user message plus a failure notice and return the upstream
// error.
func (d *Dispatcher) HandleMessage(ctx context.Context, userID, text string, parts []llm.ContentPart) (*Reply, error) {
	mu := d.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	// 1. Resolve the provider once, before anything else, so plugins and
	// capability checks see an identifier rather than raw text.
	sel, err := route.Resolve(text, d.cfg.DefaultProvider)
	if err != nil {
		return nil, err
	}
	switchReport := ""
	if sel.Reason == route.ReasonExplicitPrefix && sel.Provider != d.cfg.DefaultProvider {
		switchReport = fmt.Sprintf("%s -> %s", d.cfg.DefaultProvider, sel.Provider)
	}

	// 2. Media admission. Excess media is rejected before the pipeline.
	candidate := buildUserMessage(sel.Rest, parts)
	if err := d.admitMedia(candidate); err != nil {
		return nil, err
	}

	// 3. Pipeline on a snapshot + the candidate message. Plugins never see
	// store state that isn't committed yet for other users, and nothing is
	// appended if the rate check below rejects.
	working := append(d.store.View(userID), candidate)
	outcome := d.pipeline.Process(ctx, working, sel.Provider)

	if outcome.Blocked {
		// The user's message and the warning both enter history; the
		// provider is never called and no quota is consumed.
		d.store.Append(userID, candidate)
		d.store.Append(userID, llm.TextMessage(llm.RoleAssistant, outcome.Warning))
		d.publish(Event{UserID: userID, Provider: sel.Provider, Plugin: outcome.Plugin, Blocked: true})
		return &Reply{
			Text:         outcome.Warning,
			Provider:     sel.Provider,
			Reason:       sel.Reason,
			Plugin:       outcome.Plugin,
			Blocked:      true,
			SwitchReport: switchReport,
		}, nil
	}

	// 4. Quota. Rejection mutates nothing.
	if decision := d.limiter.CheckAndConsume(userID); !decision.Allowed {
		return nil, &RateLimitedError{RetryAfter: decision.RetryAfter}
	}

	// 5. Commit the (possibly transformed) user message and dispatch.
	userMsg := outcome.Messages[len(outcome.Messages)-1]
	d.store.Append(userID, userMsg)

	resp, err := d.send(ctx, sel.Provider, outcome.Messages)
	if err != nil {
		notice := fmt.Sprintf("Sorry, the request to %s failed. Your message was kept; try again.", sel.Provider)
		d.store.Append(userID, llm.TextMessage(llm.RoleAssistant, notice))
		d.publish(Event{UserID: userID, Provider: sel.Provider, Plugin: outcome.Plugin, Failed: true})
		d.log.Error().Err(err).Str("user_id", userID).Str("provider", sel.Provider).Msg("upstream dispatch failed")
		return nil, err
	}

	d.store.Append(userID, llm.TextMessage(llm.RoleAssistant, resp.Content))
	d.publish(Event{UserID: userID, Provider: sel.Provider, Plugin: outcome.Plugin, Tokens: resp.Tokens})
	d.log.Info().
		Str("user_id", userID).
		Str("provider", sel.Provider).
		Str("plugin", outcome.Plugin).
		Int("tokens", resp.Tokens).
		Msg("dispatched")

	return &Reply{
		Text:         resp.Content,
		Provider:     sel.Provider,
		Reason:       sel.Reason,
		Plugin:       outcome.Plugin,
		SwitchReport: switchReport,
	}, nil
}

// send performs the provider call under the configured timeout, retrying
// transient failures within the bounded budget. On timeout the call is
// abandoned, never retried: the context error is not transient.
func (d *Dispatcher) send(ctx context.Context, providerID string, messages []llm.Message) (*llm.ChatResponse, error) {
	client, err := d.providers.Get(providerID)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, d.cfg.RequestTimeout)
	defer cancel()

	req := llm.ChatRequest{Messages: messages, MaxTokens: 1024}
	var resp *llm.ChatResponse
	for attempt := 0; ; attempt++ {
		resp, err = client.Complete(callCtx, req)
		if err == nil {
			return resp, nil
		}
		if !llm.Transient(err) || attempt >= maxTransientRetries {
			return nil, err
		}
		d.log.Warn().Err(err).Str("provider", providerID).Int("attempt", attempt+1).Msg("transient upstream failure, retrying")
	}
}

// admitMedia enforces max_media_items_per_message and max_media_size_mb.
func (d *Dispatcher) admitMedia(msg llm.Message) error {
	if n := msg.MediaCount(); n > d.cfg.MaxMediaItems {
		return fmt.Errorf("%w: got %d, allowed %d", ErrTooManyMediaItems, n, d.cfg.MaxMediaItems)
	}
	for _, part := range msg.Parts {
		if part.Kind != llm.KindText && int64(len(part.Data)) > d.cfg.MaxMediaBytes {
			return fmt.Errorf("%w: %d bytes, allowed %d", ErrMediaTooLarge, len(part.Data), d.cfg.MaxMediaBytes)
		}
	}
	return nil
}

func (d *Dispatcher) publish(ev Event) {
	if d.bus != nil {
		d.bus.Publish(TopicDispatched, ev)
	}
}

// buildUserMessage assembles the candidate message from the prefix-stripped
// text and the media parts supplied by the transport.
func buildUserMessage(text string, parts []llm.ContentPart) llm.Message {
	msg := llm.Message{Role: llm.RoleUser}
	if text != "" {
		msg.Parts = append(msg.Parts, llm.ContentPart{Kind: llm.KindText, Text: text})
	}
	msg.Parts = append(msg.Parts, parts...)
	return msg
}

// IsClientFault reports whether err is a this-message-only failure the
// transport should map to a 4xx (never an upstream problem).
func IsClientFault(err error) bool {
	var rl *RateLimitedError
	return errors.Is(err, ErrTooManyMediaItems) ||
		errors.Is(err, ErrMediaTooLarge) ||
		errors.Is(err, route.ErrUnknownProvider) ||
		errors.As(err, &rl)
}
