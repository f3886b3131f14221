// Tests for UUID v7 generation.
package uuid

import (
	"regexp"
	"testing"
	"time"
)

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func TestNewV7_Format(t *testing.T) {
	t.Parallel()

	s := NewV7().String()
	if !uuidPattern.MatchString(s) {
		t.Errorf("UUID %q is not a well-formed v7", s)
	}
}

func TestNewV7_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		s := NewV7().String()
		if seen[s] {
			t.Fatalf("duplicate UUID %q", s)
		}
		seen[s] = true
	}
}

// TestNewV7_TimeOrdered: ids generated across a timestamp tick sort by
// generation time, which keeps the reactions table naturally ordered.
func TestNewV7_TimeOrdered(t *testing.T) {
	t.Parallel()

	first := NewV7().String()
	time.Sleep(2 * time.Millisecond)
	second := NewV7().String()
	if !(first < second) {
		t.Errorf("UUIDs not time-ordered: %q then %q", first, second)
	}
}
