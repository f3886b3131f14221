// HTTP handlers for the reaction endpoints.
// Recording is fire-and-forget: the handler validates, publishes to the
// event bus and returns 202; the reaction.Recorder goroutine persists.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/matiasleandrokruk/llmgate/internal/domain/reaction"
	"github.com/matiasleandrokruk/llmgate/internal/infra/eventbus"
)

// ReactionHandler handles reaction recording and analytics.
type ReactionHandler struct {
	store *reaction.Store
	bus   eventbus.EventBus
}

// NewReactionHandler creates a ReactionHandler.
func NewReactionHandler(store *reaction.Store, bus eventbus.EventBus) *ReactionHandler {
	return &ReactionHandler{store: store, bus: bus}
}

type reactionRequest struct {
	ChatID    string `json:"chat_id"`
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
	Action    string `json:"action"` // added | removed
	Provider  string `json:"provider,omitempty"`
}

// Record handles POST /api/v1/reactions.
//
// Response codes:
//   - 202 Accepted: event published for persistence
//   - 400 Bad Request: invalid JSON or missing required fields
func (h *ReactionHandler) Record(w http.ResponseWriter, r *http.Request) {
	userID, err := getUserID(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "missing user context")
		return
	}

	var req reactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MessageID == "" {
		writeError(w, http.StatusBadRequest, "message_id is required")
		return
	}
	if req.Emoji == "" {
		writeError(w, http.StatusBadRequest, "emoji is required")
		return
	}
	action := reaction.Action(req.Action)
	if action != reaction.ActionAdded && action != reaction.ActionRemoved {
		writeError(w, http.StatusBadRequest, "action must be added or removed")
		return
	}

	h.bus.Publish(reaction.TopicRecorded, reaction.Reaction{
		ChatID:    req.ChatID,
		MessageID: req.MessageID,
		UserID:    userID,
		Emoji:     req.Emoji,
		Action:    action,
		Provider:  req.Provider,
	})

	w.WriteHeader(http.StatusAccepted)
}

// Summary handles GET /api/v1/reactions/summary.
// Optional query param since=RFC3339 bounds the window; absent = all history.
func (h *ReactionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be RFC3339")
			return
		}
		since = parsed
	}

	summary, err := h.store.Summarize(r.Context(), since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "summary query failed")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
