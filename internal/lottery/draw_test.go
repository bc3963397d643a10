package lottery

import (
	"math/rand"
	"testing"
)

// TestDrawAssignsTiersInOrder verifies tier prizes are handed out in order
// and all winners are distinct tickets.
func TestDrawAssignsTiersInOrder(t *testing.T) {
	t.Parallel()

	codes := []string{"1LOT-AAAAA", "1LOT-BBBBB", "1LOT-CCCCC", "1LOT-DDDDD", "1LOT-EEEEE"}
	tiers := []PrizeTier{{Count: 1, Amount: 500}, {Count: 2, Amount: 100}}

	results := Draw(codes, tiers, rand.New(rand.NewSource(42)))
	if len(results) != 3 {
		t.Fatalf("expected 3 winners, got %d", len(results))
	}
	if results[0].PrizeAmount != 500 || results[1].PrizeAmount != 100 || results[2].PrizeAmount != 100 {
		t.Fatalf("unexpected prize order: %+v", results)
	}

	seen := make(map[string]struct{})
	for _, res := range results {
		if _, dup := seen[res.TicketCode]; dup {
			t.Fatalf("duplicate winner %s", res.TicketCode)
		}
		seen[res.TicketCode] = struct{}{}
	}
}

// TestDrawStopsAtTicketCount verifies the draw never selects more winners
// than there are tickets.
func TestDrawStopsAtTicketCount(t *testing.T) {
	t.Parallel()

	codes := []string{"1LOT-AAAAA", "1LOT-BBBBB"}
	tiers := []PrizeTier{{Count: 5, Amount: 100}}

	results := Draw(codes, tiers, rand.New(rand.NewSource(1)))
	if len(results) != 2 {
		t.Fatalf("expected 2 winners, got %d", len(results))
	}
}

// TestDrawUniformity runs many seeded draws over a small set and checks no
// position is starved, which would indicate a biased shuffle.
func TestDrawUniformity(t *testing.T) {
	t.Parallel()

	codes := []string{"1LOT-AAAAA", "1LOT-BBBBB", "1LOT-CCCCC"}
	tiers := []PrizeTier{{Count: 1, Amount: 100}}

	hits := make(map[string]int)
	for seed := int64(0); seed < 3000; seed++ {
		results := Draw(codes, tiers, rand.New(rand.NewSource(seed)))
		hits[results[0].TicketCode]++
	}
	for _, code := range codes {
		if hits[code] < 700 {
			t.Fatalf("code %s won only %d of 3000 draws, shuffle looks biased: %v", code, hits[code], hits)
		}
	}
}

func TestDrawEmptyInputs(t *testing.T) {
	t.Parallel()

	if got := Draw(nil, DefaultPrizeTiers, nil); got != nil {
		t.Fatalf("expected nil for empty codes, got %+v", got)
	}
	if got := Draw([]string{"1LOT-AAAAA"}, nil, nil); got != nil {
		t.Fatalf("expected nil for empty tiers, got %+v", got)
	}
}
