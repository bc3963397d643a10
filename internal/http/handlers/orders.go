package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"luckydraw/backend/internal/integrations/razorpay"
	"luckydraw/backend/internal/lottery"
	"luckydraw/backend/internal/repository"
)

type createOrderRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Quantity int    `json:"quantity"`
}

type createOrderResponse struct {
	OrderID         string `json:"orderId"`
	GatewayOrderID  string `json:"gatewayOrderId"`
	PaymentRedirect string `json:"paymentRedirect,omitempty"`
	UserID          int64  `json:"userId"`
	Quantity        int    `json:"quantity"`
	Amount          int64  `json:"amount"`
	KeyID           string `json:"keyId,omitempty"`
}

// validateCreateOrder checks the request fields in order, returning a
// distinct message for the first one that fails. The "number" rule only
// accepts unsigned digits, unlike "numeric".
func (h *Handler) validateCreateOrder(req createOrderRequest) (string, bool) {
	if err := h.validator.Var(req.Phone, "required,len=10,number"); err != nil {
		return "phone must be exactly 10 digits", false
	}
	if req.Quantity < 1 {
		return "quantity must be at least 1", false
	}
	if req.Quantity > h.cfg.MaxQuantity {
		return fmt.Sprintf("quantity must not exceed %d", h.cfg.MaxQuantity), false
	}
	return "", true
}

// CreateOrder reserves inventory, records a pending payment and registers
// the order with the payment gateway. The reservation and the payment row
// are rolled back if the gateway call fails.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	if h.gateway == nil {
		writeError(w, http.StatusServiceUnavailable, "payments are not configured")
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("create_order", "status", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if msg, ok := h.validateCreateOrder(req); !ok {
		logger.Warn("create_order", "status", "validation_failed", "reason", msg)
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if !h.orderLimiter.Allow(req.Phone) {
		logger.Warn("create_order", "status", "rate_limited", "phone", lottery.MaskPhone(req.Phone))
		writeError(w, http.StatusTooManyRequests, "too many orders, try again later")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	settings, err := h.repo.ReserveInventory(ctx, req.Quantity)
	if err != nil {
		h.handleLotteryError(logger, w, "create_order", err)
		return
	}

	user, err := h.repo.UpsertUserByPhone(ctx, req.Name, req.Phone)
	if err != nil {
		h.releaseReservation(logger, req.Quantity)
		h.handleLotteryError(logger, w, "create_order", err)
		return
	}

	orderID := lottery.NewOrderID(time.Now())
	amount := int64(req.Quantity) * settings.TicketPrice
	payment, err := h.repo.CreatePayment(ctx, repository.CreatePaymentParams{
		OrderID:  orderID,
		Amount:   amount,
		Phone:    req.Phone,
		Quantity: req.Quantity,
		UserID:   user.ID,
	})
	if err != nil {
		h.releaseReservation(logger, req.Quantity)
		h.handleLotteryError(logger, w, "create_order", err)
		return
	}

	gatewayOrder, _, err := h.gateway.CreateOrder(ctx, razorpay.CreateOrderRequest{
		Amount:   amount * 100,
		Currency: "INR",
		Receipt:  orderID,
		Notes: map[string]string{
			"phone":    req.Phone,
			"quantity": fmt.Sprintf("%d", req.Quantity),
		},
	})
	if err != nil {
		logger.Error("create_order", "status", "gateway_error", "order_id", orderID, "error", err)
		h.compensateOrder(logger, orderID, req.Quantity)
		writeError(w, http.StatusBadGateway, "payment gateway order failed")
		return
	}

	if err := h.repo.SetGatewayOrderID(ctx, orderID, gatewayOrder.ID); err != nil {
		logger.Error("create_order", "status", "db_error", "order_id", orderID, "error", err)
		h.compensateOrder(logger, orderID, req.Quantity)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	logger.Info("create_order", "status", "created", "order_id", orderID,
		"gateway_order_id", gatewayOrder.ID, "quantity", req.Quantity, "amount", amount)
	writeJSON(w, http.StatusCreated, createOrderResponse{
		OrderID:         orderID,
		GatewayOrderID:  gatewayOrder.ID,
		PaymentRedirect: h.paymentRedirectURL(orderID),
		UserID:          user.ID,
		Quantity:        payment.Quantity,
		Amount:          amount,
		KeyID:           h.gateway.KeyID(),
	})
}

// compensateOrder undoes the pending payment and the inventory reservation
// after a failed gateway call. It runs on a fresh context: the usual reason
// the gateway call failed is that the request context already expired, and
// the compensation must still reach the database.
func (h *Handler) compensateOrder(logger *slog.Logger, orderID string, quantity int) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.repo.DeletePayment(ctx, orderID); err != nil && !errors.Is(err, repository.ErrPaymentNotFound) {
		logger.Error("create_order", "status", "cleanup_failed", "order_id", orderID, "error", err)
	}
	if err := h.repo.ReleaseInventory(ctx, quantity); err != nil {
		logger.Error("create_order", "status", "release_failed", "order_id", orderID, "error", err)
	}
}

// releaseReservation hands back a reservation when no payment row was
// stored. Detached from the request context for the same reason as
// compensateOrder.
func (h *Handler) releaseReservation(logger *slog.Logger, quantity int) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.repo.ReleaseInventory(ctx, quantity); err != nil {
		logger.Error("create_order", "status", "release_failed", "error", err)
	}
}

// paymentRedirectURL builds the checkout callback URL carrying our order id,
// so the frontend can come back to verify-payment after checkout.
func (h *Handler) paymentRedirectURL(orderID string) string {
	base := strings.TrimRight(strings.TrimSpace(h.cfg.BaseURL), "/")
	if base == "" {
		return ""
	}
	return fmt.Sprintf("%s/payment?order_id=%s", base, orderID)
}
