package repository

import (
	"context"
	"database/sql"
	"errors"
	"math"

	"luckydraw/backend/internal/models"

	"github.com/jackc/pgx/v5"
)

// CreatePaymentParams represents create payment params.
type CreatePaymentParams struct {
	OrderID  string
	Amount   int64
	Phone    string
	Quantity int
	UserID   int64
}

// CreatePayment inserts a pending payment row with status "created".
func (r *Repository) CreatePayment(ctx context.Context, params CreatePaymentParams) (models.Payment, error) {
	row := r.pool.QueryRow(ctx, `
INSERT INTO payments (order_id, amount, phone, quantity, status, user_id)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, order_id, gateway_order_id, amount, phone, quantity, status, user_id, created_at, updated_at;`,
		params.OrderID,
		params.Amount,
		params.Phone,
		params.Quantity,
		models.PaymentStatusCreated,
		params.UserID,
	)
	return scanPayment(row)
}

// SetGatewayOrderID records the id the payment gateway assigned to our order.
func (r *Repository) SetGatewayOrderID(ctx context.Context, orderID, gatewayOrderID string) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE payments
SET gateway_order_id = $2,
	updated_at = now()
WHERE order_id = $1;`, orderID, gatewayOrderID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

// DeletePayment removes a pending payment. Compensating action for a failed
// gateway order creation; never applied to successful payments.
func (r *Repository) DeletePayment(ctx context.Context, orderID string) error {
	cmd, err := r.pool.Exec(ctx, `
DELETE FROM payments
WHERE order_id = $1
	AND status = $2;`, orderID, models.PaymentStatusCreated)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func (r *Repository) GetPaymentByOrderID(ctx context.Context, orderID string) (models.Payment, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, order_id, gateway_order_id, amount, phone, quantity, status, user_id, created_at, updated_at
FROM payments
WHERE order_id = $1;`, orderID)
	out, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Payment{}, ErrPaymentNotFound
		}
		return models.Payment{}, err
	}
	return out, nil
}

// GetPaymentByGatewayOrderID resolves a webhook's gateway order id back to
// our payment row.
func (r *Repository) GetPaymentByGatewayOrderID(ctx context.Context, gatewayOrderID string) (models.Payment, error) {
	row := r.pool.QueryRow(ctx, `
SELECT id, order_id, gateway_order_id, amount, phone, quantity, status, user_id, created_at, updated_at
FROM payments
WHERE gateway_order_id = $1;`, gatewayOrderID)
	out, err := scanPayment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Payment{}, ErrPaymentNotFound
		}
		return models.Payment{}, err
	}
	return out, nil
}

// ConfirmResult is the outcome of ConfirmPayment.
type ConfirmResult struct {
	Payment   models.Payment
	Tickets   []models.Ticket
	IssuedNow bool
}

// ConfirmPayment is the single confirmation path shared by webhook delivery
// and synchronous verification. It locks the payment row, issues tickets for
// the order if none exist yet, and marks the payment successful, all in one
// transaction. Re-running it for an already confirmed order returns the
// previously issued tickets unchanged, so duplicate webhooks and poll
// retries converge on the same result.
func (r *Repository) ConfirmPayment(ctx context.Context, orderID string, round int, ticketPrice int64) (ConfirmResult, error) {
	var out ConfirmResult
	err := r.WithTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
SELECT id, order_id, gateway_order_id, amount, phone, quantity, status, user_id, created_at, updated_at
FROM payments
WHERE order_id = $1
FOR UPDATE;`, orderID)
		payment, err := scanPayment(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrPaymentNotFound
			}
			return err
		}

		// Older payment rows may predate the quantity column; derive it
		// from the amount paid.
		quantity := payment.Quantity
		if quantity <= 0 && ticketPrice > 0 {
			quantity = int(math.Round(float64(payment.Amount) / float64(ticketPrice)))
		}
		if quantity <= 0 {
			quantity = 1
		}

		tickets, err := ticketsByOrderTx(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if payment.Status == models.PaymentStatusSuccess && len(tickets) >= quantity {
			out.Payment = payment
			out.Tickets = tickets
			return nil
		}

		if len(tickets) < quantity {
			minted, err := issueTicketsTx(ctx, tx, payment.UserID, orderID, round, quantity-len(tickets))
			if err != nil {
				return err
			}
			tickets = append(tickets, minted...)
			out.IssuedNow = true
		}

		if payment.Status != models.PaymentStatusSuccess {
			cmd, err := tx.Exec(ctx, `
UPDATE payments
SET status = $2,
	updated_at = now()
WHERE order_id = $1
	AND status = $3;`, orderID, models.PaymentStatusSuccess, models.PaymentStatusCreated)
			if err != nil {
				return err
			}
			if cmd.RowsAffected() == 0 {
				return ErrPaymentNotFound
			}
			payment.Status = models.PaymentStatusSuccess
		}

		out.Payment = payment
		out.Tickets = tickets
		return nil
	})
	if err != nil {
		return ConfirmResult{}, err
	}
	return out, nil
}

// scanPayment scans payment.
func scanPayment(row pgx.Row) (models.Payment, error) {
	var out models.Payment
	var gatewayOrderID sql.NullString
	if err := row.Scan(
		&out.ID,
		&out.OrderID,
		&gatewayOrderID,
		&out.Amount,
		&out.Phone,
		&out.Quantity,
		&out.Status,
		&out.UserID,
		&out.CreatedAt,
		&out.UpdatedAt,
	); err != nil {
		return out, err
	}
	if gatewayOrderID.Valid {
		out.GatewayOrderID = gatewayOrderID.String
	}
	return out, nil
}
