package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"luckydraw/backend/internal/config"
	"luckydraw/backend/internal/integrations/razorpay"
)

func webhookSignature(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

// TestRazorpayWebhookSignatureGate verifies that the webhook rejects bad
// signatures and quietly ignores event types that do not confirm a payment.
// Neither path touches the database.
func TestRazorpayWebhookSignatureGate(t *testing.T) {
	t.Parallel()

	const secret = "whsec_test"
	cfg := &config.Config{
		JWTSecret: "test-secret",
		Razorpay:  config.RazorpayConfig{WebhookSecret: secret},
	}

	cases := []struct {
		name       string
		body       string
		signature  string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "missing signature",
			body:       `{"event":"payment.captured"}`,
			signature:  "",
			wantStatus: http.StatusBadRequest,
			wantBody:   "invalid signature",
		},
		{
			name:       "wrong signature",
			body:       `{"event":"payment.captured"}`,
			signature:  "deadbeef",
			wantStatus: http.StatusBadRequest,
			wantBody:   "invalid signature",
		},
		{
			name:       "non payment event ignored",
			body:       `{"event":"payment.failed","payload":{}}`,
			signature:  webhookSignature(secret, `{"event":"payment.failed","payload":{}}`),
			wantStatus: http.StatusOK,
			wantBody:   "ignored",
		},
		{
			name:       "success event without order id ignored",
			body:       `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1"}}}}`,
			signature:  webhookSignature(secret, `{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1"}}}}`),
			wantStatus: http.StatusOK,
			wantBody:   "ignored",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			h := testHandler(cfg)
			req := httptest.NewRequest(http.MethodPost, "/api/razorpay/webhook", strings.NewReader(tc.body))
			if tc.signature != "" {
				req.Header.Set(razorpay.SignatureHeader, tc.signature)
			}
			rec := httptest.NewRecorder()
			h.RazorpayWebhook(rec, req)
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.wantStatus, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), tc.wantBody) {
				t.Fatalf("body %q does not contain %q", rec.Body.String(), tc.wantBody)
			}
		})
	}
}

// TestPaymentRedirectURL verifies the callback URL shape handed to checkout.
func TestPaymentRedirectURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		baseURL string
		orderID string
		want    string
	}{
		{name: "plain base", baseURL: "https://lottery.example.com", orderID: "ORD123", want: "https://lottery.example.com/payment?order_id=ORD123"},
		{name: "trailing slash", baseURL: "https://lottery.example.com/", orderID: "ORD123", want: "https://lottery.example.com/payment?order_id=ORD123"},
		{name: "empty base", baseURL: "", orderID: "ORD123", want: ""},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			h := testHandler(&config.Config{BaseURL: tc.baseURL})
			if got := h.paymentRedirectURL(tc.orderID); got != tc.want {
				t.Fatalf("paymentRedirectURL = %q, want %q", got, tc.want)
			}
		})
	}
}
