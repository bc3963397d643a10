package lottery

import (
	"strings"
	"testing"
	"time"
)

// TestGenerateCodeFormat verifies generated codes match the round pattern.
func TestGenerateCodeFormat(t *testing.T) {
	t.Parallel()

	for _, round := range []int{1, 2, 7, 12} {
		pattern := CodePattern(round)
		for i := 0; i < 200; i++ {
			code := GenerateCode(round)
			if !pattern.MatchString(code) {
				t.Fatalf("GenerateCode(%d) = %q does not match %s", round, code, pattern)
			}
		}
	}
}

// TestGenerateCodeVaries verifies consecutive draws are not constant.
func TestGenerateCodeVaries(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		seen[GenerateCode(1)] = struct{}{}
	}
	if len(seen) < 90 {
		t.Fatalf("expected close to 100 distinct codes, got %d", len(seen))
	}
}

func TestAttemptBudget(t *testing.T) {
	t.Parallel()

	if got := AttemptBudget(3); got != 30 {
		t.Fatalf("AttemptBudget(3) = %d, want 30", got)
	}
}

func TestNewOrderID(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 10, 0, 0, 123456789, time.UTC)
	id := NewOrderID(now)
	if !strings.HasPrefix(id, "ORD") {
		t.Fatalf("NewOrderID() = %q, want ORD prefix", id)
	}
	if id == NewOrderID(now.Add(time.Nanosecond)) {
		t.Fatalf("expected distinct ids for distinct timestamps")
	}
}
