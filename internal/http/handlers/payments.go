package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"luckydraw/backend/internal/integrations/razorpay"
	"luckydraw/backend/internal/models"
	"luckydraw/backend/internal/repository"
)

const (
	verifyPollAttempts = 5
	verifyPollInterval = 2 * time.Second
	webhookBodyLimit   = 1 << 20
)

type verifyPaymentRequest struct {
	OrderID string `json:"orderId" validate:"required"`
}

type paymentResultResponse struct {
	OrderID string   `json:"orderId"`
	Status  string   `json:"status"`
	Tickets []string `json:"tickets,omitempty"`
}

// VerifyPayment is the synchronous fallback for clients that come back from
// checkout before the webhook lands. It polls the gateway order status a few
// times and confirms the payment once the gateway reports it paid.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	if h.gateway == nil {
		writeError(w, http.StatusServiceUnavailable, "payments are not configured")
		return
	}

	var req verifyPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("verify_payment", "status", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	req.OrderID = strings.TrimSpace(req.OrderID)
	if err := h.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "orderId is required")
		return
	}

	// Polling spans several gateway round trips, so it gets a wider budget
	// than the usual per-request timeout.
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	payment, err := h.repo.GetPaymentByOrderID(ctx, req.OrderID)
	if err != nil {
		h.handleLotteryError(logger, w, "verify_payment", err)
		return
	}

	settings, err := h.repo.GetActiveSettings(ctx)
	if err != nil {
		h.handleLotteryError(logger, w, "verify_payment", err)
		return
	}

	if payment.Status == models.PaymentStatusSuccess {
		// Already confirmed: answer from the issued tickets without
		// opening another confirmation transaction, unless the ticket
		// batch is somehow short.
		tickets, err := h.repo.GetTicketsByOrderID(ctx, req.OrderID)
		if err != nil {
			h.handleLotteryError(logger, w, "verify_payment", err)
			return
		}
		if len(tickets) > 0 && len(tickets) >= payment.Quantity {
			writeJSON(w, http.StatusOK, paymentResultResponse{
				OrderID: req.OrderID,
				Status:  payment.Status,
				Tickets: ticketCodes(tickets),
			})
			return
		}
		h.respondConfirmed(ctx, logger, w, req.OrderID, settings)
		return
	}
	if payment.GatewayOrderID == "" {
		logger.Warn("verify_payment", "status", "no_gateway_order", "order_id", req.OrderID)
		writeError(w, http.StatusBadRequest, "payment not confirmed")
		return
	}

	paid := false
	for attempt := 0; attempt < verifyPollAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				writeError(w, http.StatusBadRequest, "payment not confirmed")
				return
			case <-time.After(verifyPollInterval):
			}
		}
		order, _, err := h.gateway.GetOrder(ctx, payment.GatewayOrderID)
		if err != nil {
			logger.Warn("verify_payment", "status", "gateway_poll_failed", "order_id", req.OrderID, "attempt", attempt+1, "error", err)
			continue
		}
		if razorpay.IsPaidStatus(order.Status) {
			paid = true
			break
		}
	}
	if !paid {
		logger.Info("verify_payment", "status", "not_confirmed", "order_id", req.OrderID)
		writeError(w, http.StatusBadRequest, "payment not confirmed")
		return
	}

	h.respondConfirmed(ctx, logger, w, req.OrderID, settings)
}

func (h *Handler) respondConfirmed(ctx context.Context, logger *slog.Logger, w http.ResponseWriter, orderID string, settings models.LotterySettings) {
	result, err := h.repo.ConfirmPayment(ctx, orderID, settings.Round, settings.TicketPrice)
	if err != nil {
		h.handleLotteryError(logger, w, "verify_payment", err)
		return
	}
	codes := ticketCodes(result.Tickets)
	logger.Info("verify_payment", "status", "confirmed", "order_id", orderID,
		"tickets", len(codes), "issued_now", result.IssuedNow)
	writeJSON(w, http.StatusOK, paymentResultResponse{
		OrderID: orderID,
		Status:  result.Payment.Status,
		Tickets: codes,
	})
}

// RazorpayWebhook is the authoritative confirmation path. Signature failures
// are rejected; everything else answers 200 so the gateway stops retrying.
func (h *Handler) RazorpayWebhook(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	if !h.webhookLimiter.Allow() {
		logger.Warn("razorpay_webhook", "status", "rate_limited")
		writeError(w, http.StatusTooManyRequests, "try again later")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, webhookBodyLimit))
	if err != nil {
		writeError(w, http.StatusBadRequest, "cannot read body")
		return
	}
	signature := r.Header.Get(razorpay.SignatureHeader)
	event, err := razorpay.ParseWebhookEvent(h.cfg.Razorpay.WebhookSecret, body, signature)
	if err != nil {
		if errors.Is(err, razorpay.ErrInvalidWebhookSignature) {
			logger.Warn("razorpay_webhook", "status", "bad_signature")
			writeError(w, http.StatusBadRequest, "invalid signature")
			return
		}
		logger.Warn("razorpay_webhook", "status", "bad_payload", "error", err)
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	if !event.IsPaymentSuccess() {
		logger.Info("razorpay_webhook", "status", "ignored", "event", event.Event)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}
	gatewayOrderID := event.GatewayOrderID()
	if gatewayOrderID == "" {
		logger.Warn("razorpay_webhook", "status", "missing_order_id", "event", event.Event)
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	payment, err := h.repo.GetPaymentByGatewayOrderID(ctx, gatewayOrderID)
	if err != nil {
		if errors.Is(err, repository.ErrPaymentNotFound) {
			logger.Warn("razorpay_webhook", "status", "unknown_order", "gateway_order_id", gatewayOrderID)
			writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
			return
		}
		h.handleLotteryError(logger, w, "razorpay_webhook", err)
		return
	}

	settings, err := h.repo.GetActiveSettings(ctx)
	if err != nil {
		h.handleLotteryError(logger, w, "razorpay_webhook", err)
		return
	}

	result, err := h.repo.ConfirmPayment(ctx, payment.OrderID, settings.Round, settings.TicketPrice)
	if err != nil {
		h.handleLotteryError(logger, w, "razorpay_webhook", err)
		return
	}

	logger.Info("razorpay_webhook", "status", "processed", "event", event.Event,
		"order_id", payment.OrderID, "tickets", len(result.Tickets), "issued_now", result.IssuedNow)
	writeJSON(w, http.StatusOK, map[string]string{"status": "processed"})
}

func ticketCodes(tickets []models.Ticket) []string {
	out := make([]string, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, t.Code)
	}
	return out
}
