package lottery

import "math/rand"

// PrizeTier describes one slice of an automatic draw: Count winners, each
// awarded Amount.
type PrizeTier struct {
	Count  int   `json:"count"`
	Amount int64 `json:"amount"`
}

// DrawResult pairs a winning ticket code with its prize.
type DrawResult struct {
	TicketCode  string
	PrizeAmount int64
}

// DefaultPrizeTiers is used when an auto-draw request does not specify tiers.
var DefaultPrizeTiers = []PrizeTier{
	{Count: 1, Amount: 50000},
	{Count: 2, Amount: 10000},
	{Count: 5, Amount: 1000},
}

// Draw selects winners from the confirmed ticket codes with a Fisher-Yates
// shuffle, so every permutation is equally likely, then assigns prize tiers
// in order. If the tiers ask for more winners than there are tickets the
// draw stops at the ticket count.
func Draw(codes []string, tiers []PrizeTier, rng *rand.Rand) []DrawResult {
	if len(codes) == 0 || len(tiers) == 0 {
		return nil
	}

	shuffled := make([]string, len(codes))
	copy(shuffled, codes)
	if rng != nil {
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
	} else {
		rand.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
	}

	results := make([]DrawResult, 0)
	next := 0
	for _, tier := range tiers {
		for i := 0; i < tier.Count; i++ {
			if next >= len(shuffled) {
				return results
			}
			results = append(results, DrawResult{TicketCode: shuffled[next], PrizeAmount: tier.Amount})
			next++
		}
	}
	return results
}
