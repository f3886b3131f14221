// Task 6.2: reaction analytics queries.
package reaction

import (
	"context"
	"fmt"
	"time"
)

// EmojiCount is one row of the popularity report.
type EmojiCount struct {
	Emoji string `json:"emoji"`
	Count int    `json:"count"`
}

// DailyCount is one row of the activity-over-time report.
type DailyCount struct {
	Day   string `json:"day"` // YYYY-MM-DD
	Count int    `json:"count"`
}

// Summary is the analytics payload served by the HTTP layer.
type Summary struct {
	Total      int          `json:"total"`
	TopEmojis  []EmojiCount `json:"top_emojis"`
	DailyTrend []DailyCount `json:"daily_trend"`
}

// TopEmojis returns the most popular reaction emojis since the cutoff
// (zero time = all history), net of removals.
func (s *Store) TopEmojis(ctx context.Context, since time.Time, limit int) ([]EmojiCount, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT emoji,
		       SUM(CASE action WHEN 'added' THEN 1 ELSE -1 END) AS net
		FROM reactions
		WHERE created_at >= ?
		GROUP BY emoji
		HAVING net > 0
		ORDER BY net DESC, emoji ASC
		LIMIT ?
	`, sinceParam(since), limit)
	if err != nil {
		return nil, fmt.Errorf("reaction: top emojis: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []EmojiCount
	for rows.Next() {
		var ec EmojiCount
		if err := rows.Scan(&ec.Emoji, &ec.Count); err != nil {
			return nil, fmt.Errorf("reaction: scan emoji row: %w", err)
		}
		out = append(out, ec)
	}
	return out, rows.Err()
}

// MessageScore returns the net reaction count for one bot message.
func (s *Store) MessageScore(ctx context.Context, chatID, messageID string) (int, error) {
	var score int
	row := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE action WHEN 'added' THEN 1 ELSE -1 END), 0)
		FROM reactions
		WHERE chat_id = ? AND message_id = ?
	`, chatID, messageID)
	if err := row.Scan(&score); err != nil {
		return 0, fmt.Errorf("reaction: message score: %w", err)
	}
	return score, nil
}

// DailyCounts returns added-reaction counts per day since the cutoff.
func (s *Store) DailyCounts(ctx context.Context, since time.Time) ([]DailyCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT substr(created_at, 1, 10) AS day, COUNT(*)
		FROM reactions
		WHERE action = 'added' AND created_at >= ?
		GROUP BY day
		ORDER BY day ASC
	`, sinceParam(since))
	if err != nil {
		return nil, fmt.Errorf("reaction: daily counts: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var out []DailyCount
	for rows.Next() {
		var dc DailyCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, fmt.Errorf("reaction: scan daily row: %w", err)
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

// Summarize assembles the full analytics summary since the cutoff.
func (s *Store) Summarize(ctx context.Context, since time.Time) (*Summary, error) {
	top, err := s.TopEmojis(ctx, since, 10)
	if err != nil {
		return nil, err
	}
	daily, err := s.DailyCounts(ctx, since)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, d := range daily {
		total += d.Count
	}
	return &Summary{Total: total, TopEmojis: top, DailyTrend: daily}, nil
}

// sinceParam renders the cutoff for comparison against the stored RFC3339
// timestamps; the zero time sorts before everything.
func sinceParam(since time.Time) string {
	if since.IsZero() {
		return ""
	}
	return since.UTC().Format(time.RFC3339)
}
