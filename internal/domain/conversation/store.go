// Package conversation — Task 3.1: per-user bounded message history.
// Keeping only the last maxMessages turns was chosen in the original bot as
// the most user-friendly strategy (vs. topic-change detection or nightly
// resets), even if it is costlier; the system prompt is re-pinned at the
// front after every trim so the assistant never loses its instructions.
package conversation

import (
	"sync"

	"github.com/matiasleandrokruk/llmgate/internal/infra/llm"
)

// Store holds one bounded conversation per user key.
// Appends for the same user are serialized by a per-entry mutex; different
// users never contend beyond the map lookup.
type Store struct {
	mu           sync.Mutex // guards byUser map shape only
	byUser       map[string]*entry
	maxMessages  int
	systemPrompt string
}

type entry struct {
	mu   sync.Mutex
	msgs []llm.Message
}

// NewStore creates a Store. maxMessages bounds the history length including
// the pinned system message; systemPrompt seeds every new conversation.
func NewStore(maxMessages int, systemPrompt string) *Store {
	return &Store{
		byUser:       make(map[string]*entry),
		maxMessages:  maxMessages,
		systemPrompt: systemPrompt,
	}
}

// entryFor returns (creating on first use) the entry for a user.
// A conversation is created on the first message and never explicitly
// destroyed; eviction policy is out of scope here.
func (s *Store) entryFor(userID string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byUser[userID]
	if !ok {
		e = &entry{}
		if s.systemPrompt != "" {
			e.msgs = []llm.Message{llm.TextMessage(llm.RoleSystem, s.systemPrompt)}
		}
		s.byUser[userID] = e
	}
	return e
}

// Append appends msg to the user's history and trims to maxMessages from
// the front (FIFO). The system message survives trimming at position 0.
func (s *Store) Append(userID string, msg llm.Message) {
	e := s.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.msgs = append(e.msgs, msg)
	if len(e.msgs) <= s.maxMessages {
		return
	}

	// Drop oldest first. If a system message is pinned at the front, keep it
	// and evict from the turns after it.
	if len(e.msgs) > 0 && e.msgs[0].Role == llm.RoleSystem {
		keep := s.maxMessages - 1
		e.msgs = append(e.msgs[:1], e.msgs[len(e.msgs)-keep:]...)
	} else {
		e.msgs = e.msgs[len(e.msgs)-s.maxMessages:]
	}
}

// View returns a read-only snapshot of the user's history in order.
// The slice and its messages are copies at the top level; callers must not
// mutate part payloads.
func (s *Store) View(userID string) []llm.Message {
	e := s.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]llm.Message, len(e.msgs))
	copy(out, e.msgs)
	return out
}

// Len returns the current history length for a user.
func (s *Store) Len(userID string) int {
	e := s.entryFor(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.msgs)
}
