package repository

import (
	"context"
	"errors"

	"luckydraw/backend/internal/lottery"
	"luckydraw/backend/internal/models"

	"github.com/jackc/pgx/v5"
)

// issueTicketsTx mints quantity unique ticket codes for the order inside the
// caller's transaction. Candidate generation is budgeted at quantity*10
// attempts; when the budget runs out before quantity free codes are found,
// the transaction fails with ErrIssuanceExhausted and no rows are kept. The
// UNIQUE constraint on tickets.code is the backstop: a candidate that
// slipped past the existence check still cannot be stored twice, it fails
// the insert and rolls the whole batch back.
func issueTicketsTx(ctx context.Context, tx pgx.Tx, userID int64, orderID string, round, quantity int) ([]models.Ticket, error) {
	if quantity <= 0 {
		return nil, nil
	}

	codes := make([]string, 0, quantity)
	picked := make(map[string]struct{}, quantity)
	budget := lottery.AttemptBudget(quantity)
	for attempt := 0; attempt < budget && len(codes) < quantity; attempt++ {
		candidate := lottery.GenerateCode(round)
		if _, dup := picked[candidate]; dup {
			continue
		}
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM tickets WHERE code = $1);`, candidate).Scan(&exists); err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		picked[candidate] = struct{}{}
		codes = append(codes, candidate)
	}
	if len(codes) < quantity {
		return nil, ErrIssuanceExhausted
	}

	tickets := make([]models.Ticket, 0, quantity)
	for _, code := range codes {
		row := tx.QueryRow(ctx, `
INSERT INTO tickets (code, round, user_id, order_id, status)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, code, round, user_id, order_id, status, created_at;`,
			code,
			round,
			userID,
			orderID,
			models.TicketStatusConfirmed,
		)
		ticket, err := scanTicket(row)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

func ticketsByOrderTx(ctx context.Context, tx pgx.Tx, orderID string) ([]models.Ticket, error) {
	rows, err := tx.Query(ctx, `
SELECT id, code, round, user_id, order_id, status, created_at
FROM tickets
WHERE order_id = $1
ORDER BY created_at ASC, id ASC;`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, ticket)
	}
	return items, rows.Err()
}

func (r *Repository) GetTicketsByOrderID(ctx context.Context, orderID string) ([]models.Ticket, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, code, round, user_id, order_id, status, created_at
FROM tickets
WHERE order_id = $1
ORDER BY created_at ASC, id ASC;`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]models.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, ticket)
	}
	return items, rows.Err()
}

func (r *Repository) GetTicketByCode(ctx context.Context, code string) (models.Ticket, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, code, round, user_id, order_id, status, created_at
FROM tickets
WHERE code = $1;`, code)
	out, err := scanTicket(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Ticket{}, ErrTicketNotFound
		}
		return models.Ticket{}, err
	}
	return out, nil
}

// CountTicketsSold counts tickets issued for the round.
func (r *Repository) CountTicketsSold(ctx context.Context, round int) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM tickets WHERE round = $1;`, round).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanTicket(row pgx.Row) (models.Ticket, error) {
	var out models.Ticket
	if err := row.Scan(
		&out.ID,
		&out.Code,
		&out.Round,
		&out.UserID,
		&out.OrderID,
		&out.Status,
		&out.CreatedAt,
	); err != nil {
		return out, err
	}
	return out, nil
}
