package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"luckydraw/backend/internal/lottery"
	"luckydraw/backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrTicketNotFound     = errors.New("ticket not found")
	ErrInventoryExhausted = errors.New("not enough tickets remaining")
	ErrIssuanceExhausted  = errors.New("could not mint enough unique ticket codes")
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) WithTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

// UpsertUserByPhone finds or creates the user for a phone number. Display
// name is refreshed on repeat orders; users are never deleted.
func (r *Repository) UpsertUserByPhone(ctx context.Context, name, phone string) (models.User, error) {
	row := r.pool.QueryRow(ctx, `
INSERT INTO users (name, phone)
VALUES ($1, $2)
ON CONFLICT (phone) DO UPDATE SET
	name = EXCLUDED.name,
	updated_at = now()
RETURNING id, name, phone, created_at, updated_at;`, name, phone)
	return scanUser(row)
}

// GetActiveSettings returns the active round configuration, or the hardcoded
// defaults when no row is active. Fetched at the start of each operation
// that needs it; never cached in-process.
func (r *Repository) GetActiveSettings(ctx context.Context) (models.LotterySettings, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, round, ticket_price, total_tickets, tickets_reserved, draw_date, banner_url, is_active, created_at, updated_at
FROM lottery_settings
WHERE is_active
ORDER BY updated_at DESC
LIMIT 1;`)
	out, err := scanSettings(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return lottery.DefaultSettings(), nil
		}
		return models.LotterySettings{}, err
	}
	return out, nil
}

// UpsertSettings deactivates any currently active round configuration and
// stores the new one as the single active row.
func (r *Repository) UpsertSettings(ctx context.Context, in models.LotterySettings) (models.LotterySettings, error) {
	var out models.LotterySettings
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
UPDATE lottery_settings
SET is_active = false,
	updated_at = now()
WHERE is_active;`); err != nil {
			return err
		}
		row := tx.QueryRow(ctx, `
INSERT INTO lottery_settings (round, ticket_price, total_tickets, draw_date, banner_url, is_active)
VALUES ($1, $2, $3, $4, $5, true)
RETURNING id, round, ticket_price, total_tickets, tickets_reserved, draw_date, banner_url, is_active, created_at, updated_at;`,
			in.Round,
			in.TicketPrice,
			in.TotalTickets,
			in.DrawDate,
			nullString(in.BannerURL),
		)
		var err error
		out, err = scanSettings(row)
		return err
	})
	if err != nil {
		return models.LotterySettings{}, err
	}
	return out, nil
}

// SetBannerURL updates the banner reference on the active round, creating a
// default row first when the admin has not configured one yet.
func (r *Repository) SetBannerURL(ctx context.Context, bannerURL string) (models.LotterySettings, error) {
	var out models.LotterySettings
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		if err := ensureActiveSettingsTx(ctx, tx); err != nil {
			return err
		}
		row := tx.QueryRow(ctx, `
UPDATE lottery_settings
SET banner_url = $1,
	updated_at = now()
WHERE is_active
RETURNING id, round, ticket_price, total_tickets, tickets_reserved, draw_date, banner_url, is_active, created_at, updated_at;`,
			nullString(bannerURL))
		var err error
		out, err = scanSettings(row)
		return err
	})
	if err != nil {
		return models.LotterySettings{}, err
	}
	return out, nil
}

// ReserveInventory atomically claims quantity tickets against the active
// round. The conditional update is the only inventory gate: two concurrent
// orders cannot both take the last tickets. The reservation is released by
// ReleaseInventory when the gateway rejects the order.
func (r *Repository) ReserveInventory(ctx context.Context, quantity int) (models.LotterySettings, error) {
	var out models.LotterySettings
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		if err := ensureActiveSettingsTx(ctx, tx); err != nil {
			return err
		}
		row := tx.QueryRow(ctx, `
UPDATE lottery_settings
SET tickets_reserved = tickets_reserved + $1,
	updated_at = now()
WHERE is_active
	AND tickets_reserved + $1 <= total_tickets
RETURNING id, round, ticket_price, total_tickets, tickets_reserved, draw_date, banner_url, is_active, created_at, updated_at;`,
			quantity)
		settings, err := scanSettings(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrInventoryExhausted
			}
			return err
		}
		out = settings
		return nil
	})
	if err != nil {
		return models.LotterySettings{}, err
	}
	return out, nil
}

// ReleaseInventory returns a reservation taken by ReserveInventory.
func (r *Repository) ReleaseInventory(ctx context.Context, quantity int) error {
	_, err := r.pool.Exec(ctx, `
UPDATE lottery_settings
SET tickets_reserved = GREATEST(0, tickets_reserved - $1),
	updated_at = now()
WHERE is_active;`, quantity)
	return err
}

// ensureActiveSettingsTx inserts the default round configuration when no
// active row exists, so conditional updates always have a row to hit.
func ensureActiveSettingsTx(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx, `
INSERT INTO lottery_settings (round, ticket_price, total_tickets, is_active)
SELECT $1, $2, $3, true
WHERE NOT EXISTS (SELECT 1 FROM lottery_settings WHERE is_active);`,
		lottery.DefaultRound,
		lottery.DefaultTicketPrice,
		lottery.DefaultTotalTickets,
	)
	return err
}

// GetStats aggregates counts for the admin dashboard.
func (r *Repository) GetStats(ctx context.Context) (models.LotteryStats, error) {
	settings, err := r.GetActiveSettings(ctx)
	if err != nil {
		return models.LotteryStats{}, err
	}

	var out models.LotteryStats
	out.Round = settings.Round
	out.TotalTickets = settings.TotalTickets

	row := r.pool.QueryRow(ctx, `
SELECT
	(SELECT count(*) FROM tickets WHERE round = $1),
	(SELECT count(*) FROM users),
	(SELECT count(*) FROM payments),
	(SELECT count(*) FROM payments WHERE status = $2),
	(SELECT COALESCE(sum(amount), 0) FROM payments WHERE status = $2),
	(SELECT count(*) FROM winners WHERE round = $1);`,
		settings.Round, models.PaymentStatusSuccess)
	if err := row.Scan(
		&out.TicketsSold,
		&out.TotalUsers,
		&out.TotalPayments,
		&out.PaidPayments,
		&out.RevenueRupees,
		&out.WinnersDeclared,
	); err != nil {
		return models.LotteryStats{}, err
	}
	out.Remaining = out.TotalTickets - out.TicketsSold
	return out, nil
}

// ListUserDetails returns every user with their tickets and any wins,
// newest users first.
func (r *Repository) ListUserDetails(ctx context.Context) ([]models.UserDetail, error) {
	rows, err := r.pool.Query(ctx, `
SELECT id, name, phone, created_at, updated_at
FROM users
ORDER BY created_at DESC;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := make([]models.UserDetail, 0)
	index := make(map[int64]int)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		index[user.ID] = len(details)
		details = append(details, models.UserDetail{User: user, Tickets: make([]models.Ticket, 0)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ticketRows, err := r.pool.Query(ctx, `
SELECT t.id, t.code, t.round, t.user_id, t.order_id, t.status, t.created_at
FROM tickets t
ORDER BY t.created_at ASC, t.id ASC;`)
	if err != nil {
		return nil, err
	}
	defer ticketRows.Close()
	for ticketRows.Next() {
		ticket, err := scanTicket(ticketRows)
		if err != nil {
			return nil, err
		}
		if pos, ok := index[ticket.UserID]; ok {
			details[pos].Tickets = append(details[pos].Tickets, ticket)
		}
	}
	if err := ticketRows.Err(); err != nil {
		return nil, err
	}

	winnerRows, err := r.pool.Query(ctx, `
SELECT w.id, w.ticket_code, w.prize_amount, w.round, w.created_at, t.user_id
FROM winners w
JOIN tickets t ON t.code = w.ticket_code
ORDER BY w.prize_amount DESC;`)
	if err != nil {
		return nil, err
	}
	defer winnerRows.Close()
	for winnerRows.Next() {
		var winner models.Winner
		var userID int64
		if err := winnerRows.Scan(&winner.ID, &winner.TicketCode, &winner.PrizeAmount, &winner.Round, &winner.CreatedAt, &userID); err != nil {
			return nil, err
		}
		if pos, ok := index[userID]; ok {
			details[pos].Winners = append(details[pos].Winners, winner)
		}
	}
	return details, winnerRows.Err()
}

func scanUser(row pgx.Row) (models.User, error) {
	var out models.User
	if err := row.Scan(&out.ID, &out.Name, &out.Phone, &out.CreatedAt, &out.UpdatedAt); err != nil {
		return out, err
	}
	return out, nil
}

func scanSettings(row pgx.Row) (models.LotterySettings, error) {
	var out models.LotterySettings
	var drawDate sql.NullTime
	var bannerURL sql.NullString
	if err := row.Scan(
		&out.ID,
		&out.Round,
		&out.TicketPrice,
		&out.TotalTickets,
		&out.TicketsReserved,
		&drawDate,
		&bannerURL,
		&out.IsActive,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		return out, err
	}
	out.DrawDate = nullTimeToPtr(drawDate)
	if bannerURL.Valid {
		out.BannerURL = bannerURL.String
	}
	return out, nil
}

func nullString(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

func nullTimeToPtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	v := value.Time
	return &v
}
