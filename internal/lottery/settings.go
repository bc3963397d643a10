package lottery

import "luckydraw/backend/internal/models"

// Defaults applied when no lottery_settings row is active.
const (
	DefaultRound        = 1
	DefaultTicketPrice  = 101
	DefaultTotalTickets = 1000
)

// DefaultSettings returns the hardcoded round configuration used when the
// admin has not saved one yet. Callers fetch settings at the start of every
// operation that needs them; there is no process-wide cached copy.
func DefaultSettings() models.LotterySettings {
	return models.LotterySettings{
		Round:        DefaultRound,
		TicketPrice:  DefaultTicketPrice,
		TotalTickets: DefaultTotalTickets,
		IsActive:     true,
	}
}
