// Package reaction — Task 6.1: reaction tracking for learning from user
// feedback. Emoji reactions on bot messages are persisted in SQLite and
// summarized by the analytics queries; none of this sits on the dispatch
// path. Recording normally flows through the event bus (see Recorder) so an
// HTTP handler never waits on a disk write.
package reaction

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/matiasleandrokruk/llmgate/pkg/uuid"
)

// Action distinguishes adding a reaction from withdrawing one.
type Action string

const (
	ActionAdded   Action = "added"
	ActionRemoved Action = "removed"
)

// Reaction is one emoji event on a bot message.
type Reaction struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	MessageID string    `json:"message_id"`
	UserID    string    `json:"user_id"`
	Emoji     string    `json:"emoji"`
	Action    Action    `json:"action"`
	Provider  string    `json:"provider,omitempty"` // backend that produced the reacted-to message
	CreatedAt time.Time `json:"created_at"`
}

// Store persists reactions. Append-only; removals are recorded as their own
// events so the score math stays auditable.
type Store struct {
	db *sql.DB
}

// NewStore creates a Store over an already-migrated database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record inserts one reaction event. ID and CreatedAt are filled in when
// empty.
func (s *Store) Record(ctx context.Context, r Reaction) (*Reaction, error) {
	if strings.TrimSpace(r.Emoji) == "" {
		return nil, fmt.Errorf("reaction: emoji is required")
	}
	if r.Action != ActionAdded && r.Action != ActionRemoved {
		return nil, fmt.Errorf("reaction: invalid action %q", r.Action)
	}
	if r.ID == "" {
		r.ID = uuid.NewV7().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reactions (id, chat_id, message_id, user_id, emoji, action, provider, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.ChatID, r.MessageID, r.UserID, r.Emoji, string(r.Action), r.Provider, r.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("reaction: insert: %w", err)
	}
	return &r, nil
}
