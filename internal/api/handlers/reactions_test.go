// Tests for the reaction endpoints: fire-and-forget recording and the
// analytics summary.
package handlers_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/matiasleandrokruk/llmgate/internal/api/ctxkeys"
	"github.com/matiasleandrokruk/llmgate/internal/api/handlers"
	"github.com/matiasleandrokruk/llmgate/internal/domain/reaction"
	"github.com/matiasleandrokruk/llmgate/internal/infra/eventbus"
	"github.com/matiasleandrokruk/llmgate/internal/infra/sqlite"
)

func newReactionHandler(t *testing.T) (*handlers.ReactionHandler, *reaction.Store, <-chan eventbus.Event) {
	t.Helper()
	db, err := sqlite.NewDB(":memory:")
	if err != nil {
		t.Fatalf("NewDB error = %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck
	if err := sqlite.MigrateUp(db); err != nil {
		t.Fatalf("MigrateUp error = %v", err)
	}
	store := reaction.NewStore(db)
	bus := eventbus.New()
	ch := bus.Subscribe(reaction.TopicRecorded)
	return handlers.NewReactionHandler(store, bus), store, ch
}

func doRecord(t *testing.T, h *handlers.ReactionHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reactions", strings.NewReader(body))
	req = req.WithContext(ctxkeys.WithValue(req.Context(), ctxkeys.UserID, "alice"))
	rec := httptest.NewRecorder()
	h.Record(rec, req)
	return rec
}

func TestReactions_RecordPublishesAndAccepts(t *testing.T) {
	t.Parallel()

	h, _, ch := newReactionHandler(t)
	rec := doRecord(t, h, `{"chat_id":"c1","message_id":"m1","emoji":"👍","action":"added","provider":"openai"}`)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d; want 202", rec.Code)
	}

	select {
	case evt := <-ch:
		r, ok := evt.Payload.(reaction.Reaction)
		if !ok {
			t.Fatalf("payload type = %T", evt.Payload)
		}
		// the user id comes from the token, never from the body
		if r.UserID != "alice" || r.MessageID != "m1" || r.Action != reaction.ActionAdded {
			t.Errorf("published reaction = %+v", r)
		}
	case <-time.After(time.Second):
		t.Fatal("no event published")
	}
}

func TestReactions_RecordValidation(t *testing.T) {
	t.Parallel()

	h, _, ch := newReactionHandler(t)
	for _, body := range []string{
		`{`,
		`{"emoji":"👍","action":"added"}`,                     // missing message_id
		`{"message_id":"m1","action":"added"}`,               // missing emoji
		`{"message_id":"m1","emoji":"👍","action":"toggled"}`, // bad action
	} {
		if rec := doRecord(t, h, body); rec.Code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d; want 400", body, rec.Code)
		}
	}

	select {
	case evt := <-ch:
		t.Fatalf("invalid request published event %+v", evt)
	default:
	}
}

func TestReactions_Summary(t *testing.T) {
	t.Parallel()

	h, store, _ := newReactionHandler(t)
	if _, err := store.Record(context.Background(), reaction.Reaction{
		ChatID: "c", MessageID: "m", UserID: "u", Emoji: "👍", Action: reaction.ActionAdded,
	}); err != nil {
		t.Fatalf("seed reaction: %v", err)
	}

	rec := httptest.NewRecorder()
	h.Summary(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reactions/summary", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; body %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"total":1`) {
		t.Errorf("body = %s; want total 1", rec.Body.String())
	}
}

func TestReactions_SummaryBadSince(t *testing.T) {
	t.Parallel()

	h, _, _ := newReactionHandler(t)
	rec := httptest.NewRecorder()
	h.Summary(rec, httptest.NewRequest(http.MethodGet, "/api/v1/reactions/summary?since=yesterday", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want 400", rec.Code)
	}
}
