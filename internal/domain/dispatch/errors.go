// Package dispatch — Task 5.2: dispatch-level error types.
// Errors that are purely about the current message (quota, media limits)
// are represented here and never reach the upstream provider call.
package dispatch

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTooManyMediaItems — the message carries more media parts than
	// max_media_items_per_message allows (album rejection). Checked before
	// the pipeline ever sees the message.
	ErrTooManyMediaItems = errors.New("too many media items in one message")

	// ErrMediaTooLarge — a media payload exceeds max_media_size_mb.
	ErrMediaTooLarge = errors.New("media file exceeds the size limit")
)

// RateLimitedError tells the user when the quota window resets.
// It mutates no conversation state and consumes no provider call.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry in %s", e.RetryAfter.Round(time.Second))
}
