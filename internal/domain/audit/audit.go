// Package audit provides append-only audit logging for administrative
// actions (plugin toggles) and dispatch outcomes. Events are immutable:
// Log is the only way to create one, there are no updates or deletes.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/matiasleandrokruk/llmgate/pkg/uuid"
)

// Outcome represents the result of an audited action.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeDenied  Outcome = "denied"
	OutcomeError   Outcome = "error"
)

// Event is a single audit log entry.
type Event struct {
	ID        string          `json:"id"`
	ActorID   string          `json:"actor_id"`
	Action    string          `json:"action"` // e.g. "plugin.enable", "chat.dispatch"
	Entity    string          `json:"entity,omitempty"`
	Details   json.RawMessage `json:"details,omitempty"`
	Outcome   Outcome         `json:"outcome"`
	CreatedAt time.Time       `json:"created_at"`
}

// Service writes audit events.
type Service struct {
	db *sql.DB
}

// NewService creates a Service over an already-migrated database.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// Log appends one event. ID and CreatedAt are filled in when empty.
func (s *Service) Log(ctx context.Context, ev Event) error {
	if ev.ID == "" {
		ev.ID = uuid.NewV7().String()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	details := ev.Details
	if len(details) == 0 {
		details = json.RawMessage("{}")
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, actor_id, action, entity, details, outcome, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, ev.ID, ev.ActorID, ev.Action, ev.Entity, string(details), string(ev.Outcome), ev.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

// LogAdmin is the helper for the common plugin-toggle case.
func (s *Service) LogAdmin(ctx context.Context, actorID, action, entity string, outcome Outcome) error {
	return s.Log(ctx, Event{ActorID: actorID, Action: action, Entity: entity, Outcome: outcome})
}
