// Task 6.3: bus-driven reaction recorder.
// The HTTP handler publishes TopicRecorded and returns immediately; this
// consumer persists the events. Same shape as a knowledge-ingest worker:
// subscribe once, loop until the context dies.
package reaction

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/matiasleandrokruk/llmgate/internal/infra/eventbus"
)

// TopicRecorded is the event-bus topic carrying Reaction payloads.
const TopicRecorded = "reaction.recorded"

// Recorder consumes reaction events from the bus and writes them to the store.
type Recorder struct {
	store *Store
	log   zerolog.Logger
}

// NewRecorder creates a Recorder over the given store.
func NewRecorder(store *Store, log zerolog.Logger) *Recorder {
	return &Recorder{
		store: store,
		log:   log.With().Str("component", "reaction_recorder").Logger(),
	}
}

// Start consumes TopicRecorded until ctx is done. Run it on its own
// goroutine; persistence failures are logged and dropped (reactions are
// analytics data, never worth failing a request over).
func (r *Recorder) Start(ctx context.Context, bus eventbus.EventBus) {
	ch := bus.Subscribe(TopicRecorded)
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			reaction, isReaction := evt.Payload.(Reaction)
			if !isReaction {
				r.log.Warn().Str("topic", evt.Topic).Msg("unexpected payload type, dropping")
				continue
			}
			if _, err := r.store.Record(ctx, reaction); err != nil {
				r.log.Error().Err(err).Str("message_id", reaction.MessageID).Msg("failed to persist reaction")
			}
		}
	}
}
