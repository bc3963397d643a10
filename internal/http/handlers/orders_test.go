package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"luckydraw/backend/internal/config"
	"luckydraw/backend/internal/integrations/razorpay"
	"luckydraw/backend/internal/repository"
)

// orderHandler builds a handler with a gateway but no repository, so any
// request that slips past validation would hit a nil pointer. A rejection
// therefore proves the request never touched the store.
func orderHandler(cfg *config.Config) *Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	gateway := razorpay.NewClient(razorpay.Config{KeyID: "rzp_test", KeySecret: "secret"}, nil, logger)
	return New(nil, gateway, nil, cfg, logger)
}

// TestCreateOrderValidation verifies that malformed phones and quantities
// are rejected with a field-specific message before any store access. The
// phone check must only accept ten bare digits, not anything the looser
// numeric formats allow.
func TestCreateOrderValidation(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{MaxQuantity: 50}

	cases := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{
			name:    "phone with leading minus",
			body:    `{"name":"A","phone":"-123456789","quantity":1}`,
			wantMsg: "phone must be exactly 10 digits",
		},
		{
			name:    "phone with leading plus",
			body:    `{"name":"A","phone":"+123456789","quantity":1}`,
			wantMsg: "phone must be exactly 10 digits",
		},
		{
			name:    "phone with decimal point",
			body:    `{"name":"A","phone":"12345.6789","quantity":1}`,
			wantMsg: "phone must be exactly 10 digits",
		},
		{
			name:    "phone too short",
			body:    `{"name":"A","phone":"123456789","quantity":1}`,
			wantMsg: "phone must be exactly 10 digits",
		},
		{
			name:    "phone too long",
			body:    `{"name":"A","phone":"98765432100","quantity":1}`,
			wantMsg: "phone must be exactly 10 digits",
		},
		{
			name:    "phone with letters",
			body:    `{"name":"A","phone":"98765abcde","quantity":1}`,
			wantMsg: "phone must be exactly 10 digits",
		},
		{
			name:    "phone missing",
			body:    `{"name":"A","quantity":1}`,
			wantMsg: "phone must be exactly 10 digits",
		},
		{
			name:    "quantity zero",
			body:    `{"name":"A","phone":"9876543210","quantity":0}`,
			wantMsg: "quantity must be at least 1",
		},
		{
			name:    "quantity negative",
			body:    `{"name":"A","phone":"9876543210","quantity":-2}`,
			wantMsg: "quantity must be at least 1",
		},
		{
			name:    "quantity above cap",
			body:    `{"name":"A","phone":"9876543210","quantity":51}`,
			wantMsg: "quantity must not exceed 50",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := orderHandler(cfg)
			req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			h.CreateOrder(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
			if !strings.Contains(rec.Body.String(), tc.wantMsg) {
				t.Fatalf("body = %q, want it to contain %q", rec.Body.String(), tc.wantMsg)
			}
		})
	}
}

// TestCreateOrderWithoutGateway verifies the handler refuses orders when no
// payment gateway is configured.
func TestCreateOrderWithoutGateway(t *testing.T) {
	t.Parallel()

	h := testHandler(&config.Config{MaxQuantity: 50})
	req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{"phone":"9876543210","quantity":1}`))
	rec := httptest.NewRecorder()
	h.CreateOrder(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

// TestLotteryErrorStatusMapping verifies which side of the 4xx/5xx line each
// repository failure lands on. Running out of ticket-code attempts is a
// server fault, so it must not be reported as a client conflict.
func TestLotteryErrorStatusMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "payment not found", err: repository.ErrPaymentNotFound, wantStatus: http.StatusNotFound},
		{name: "inventory exhausted", err: repository.ErrInventoryExhausted, wantStatus: http.StatusConflict},
		{name: "issuance exhausted", err: repository.ErrIssuanceExhausted, wantStatus: http.StatusInternalServerError},
		{name: "unclassified", err: errors.New("connection reset"), wantStatus: http.StatusInternalServerError},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := testHandler(&config.Config{})
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			rec := httptest.NewRecorder()
			h.handleLotteryError(logger, rec, "test_action", tc.err)

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
		})
	}
}
