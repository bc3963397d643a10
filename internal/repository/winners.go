package repository

import (
	"context"
	"errors"
	"math/rand"

	"luckydraw/backend/internal/lottery"
	"luckydraw/backend/internal/models"

	"github.com/jackc/pgx/v5"
)

var ErrWinnerNotFound = errors.New("winner not found")

// UpsertWinner assigns a prize to a ticket code. A ticket has at most one
// winner row; repeating the call replaces the prize amount.
func (r *Repository) UpsertWinner(ctx context.Context, ticketCode string, prizeAmount int64) (models.Winner, error) {
	ticket, err := r.GetTicketByCode(ctx, ticketCode)
	if err != nil {
		return models.Winner{}, err
	}

	row := r.pool.QueryRow(ctx, `
INSERT INTO winners (ticket_code, prize_amount, round)
VALUES ($1, $2, $3)
ON CONFLICT (ticket_code) DO UPDATE SET
	prize_amount = EXCLUDED.prize_amount
RETURNING id, ticket_code, prize_amount, round, created_at;`,
		ticket.Code,
		prizeAmount,
		ticket.Round,
	)
	return scanWinner(row)
}

func (r *Repository) GetWinnerByTicketCode(ctx context.Context, ticketCode string) (models.Winner, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, ticket_code, prize_amount, round, created_at
FROM winners
WHERE ticket_code = $1;`, ticketCode)
	out, err := scanWinner(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Winner{}, ErrWinnerNotFound
		}
		return models.Winner{}, err
	}
	return out, nil
}

// ListRecentWinners returns the top prizes with masked holder phones for the
// public listing.
func (r *Repository) ListRecentWinners(ctx context.Context, limit int) ([]models.WinnerEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
SELECT w.ticket_code, w.prize_amount, w.round, u.phone, u.name
FROM winners w
JOIN tickets t ON t.code = w.ticket_code
JOIN users u ON u.id = t.user_id
ORDER BY w.prize_amount DESC, w.created_at DESC
LIMIT $1;`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.WinnerEntry, 0)
	for rows.Next() {
		var entry models.WinnerEntry
		var phone string
		if err := rows.Scan(&entry.TicketCode, &entry.PrizeAmount, &entry.Round, &phone, &entry.Name); err != nil {
			return nil, err
		}
		entry.MaskedPhone = lottery.MaskPhone(phone)
		items = append(items, entry)
	}
	return items, rows.Err()
}

// AutoGenerateWinners draws winners uniformly from the round's confirmed
// tickets and stores them. Tickets that already hold a prize are excluded so
// a re-draw fills remaining tiers instead of reshuffling declared winners.
func (r *Repository) AutoGenerateWinners(ctx context.Context, round int, tiers []lottery.PrizeTier, rng *rand.Rand) ([]models.Winner, error) {
	if len(tiers) == 0 {
		tiers = lottery.DefaultPrizeTiers
	}

	rows, err := r.pool.Query(ctx, `
SELECT t.code
FROM tickets t
LEFT JOIN winners w ON w.ticket_code = t.code
WHERE t.round = $1
	AND t.status = $2
	AND w.id IS NULL
ORDER BY t.id ASC;`, round, models.TicketStatusConfirmed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	codes := make([]string, 0)
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	results := lottery.Draw(codes, tiers, rng)
	winners := make([]models.Winner, 0, len(results))
	err = r.WithTx(ctx, func(tx pgx.Tx) error {
		for _, res := range results {
			row := tx.QueryRow(ctx, `
INSERT INTO winners (ticket_code, prize_amount, round)
VALUES ($1, $2, $3)
ON CONFLICT (ticket_code) DO UPDATE SET
	prize_amount = EXCLUDED.prize_amount
RETURNING id, ticket_code, prize_amount, round, created_at;`,
				res.TicketCode,
				res.PrizeAmount,
				round,
			)
			winner, err := scanWinner(row)
			if err != nil {
				return err
			}
			winners = append(winners, winner)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return winners, nil
}

func scanWinner(row pgx.Row) (models.Winner, error) {
	var out models.Winner
	if err := row.Scan(
		&out.ID,
		&out.TicketCode,
		&out.PrizeAmount,
		&out.Round,
		&out.CreatedAt,
	); err != nil {
		return out, err
	}
	return out, nil
}
