package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
)

func signBody(t *testing.T, secret string, body []byte) string {
	t.Helper()
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// TestVerifyWebhookSignature verifies signature acceptance and rejection
// behavior against the shared secret.
func TestVerifyWebhookSignature(t *testing.T) {
	t.Parallel()

	body := []byte(`{"event":"payment.captured"}`)
	secret := "whsec_test"
	good := signBody(t, secret, body)

	cases := []struct {
		name      string
		signature string
		secret    string
		wantErr   bool
	}{
		{name: "valid", signature: good, secret: secret},
		{name: "valid with surrounding whitespace", signature: "  " + good + " ", secret: secret},
		{name: "wrong secret", signature: good, secret: "other", wantErr: true},
		{name: "garbage signature", signature: "deadbeef", secret: secret, wantErr: true},
		{name: "empty signature", signature: "", secret: secret, wantErr: true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := VerifyWebhookSignature(tc.secret, body, tc.signature)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidWebhookSignature) {
					t.Fatalf("expected ErrInvalidWebhookSignature, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

// TestVerifyWebhookSignatureTamperedBody verifies that modifying the raw
// body after signing invalidates the signature.
func TestVerifyWebhookSignatureTamperedBody(t *testing.T) {
	t.Parallel()

	body := []byte(`{"event":"payment.captured","amount":10100}`)
	secret := "whsec_test"
	sig := signBody(t, secret, body)

	tampered := []byte(`{"event":"payment.captured","amount":99900}`)
	if err := VerifyWebhookSignature(secret, tampered, sig); !errors.Is(err, ErrInvalidWebhookSignature) {
		t.Fatalf("expected ErrInvalidWebhookSignature, got %v", err)
	}
}

// TestParseWebhookEvent verifies event envelope parsing and the
// gateway order id fallback chain.
func TestParseWebhookEvent(t *testing.T) {
	t.Parallel()

	const secret = "whsec_test"

	t.Run("payment captured", func(t *testing.T) {
		t.Parallel()
		body := []byte(`{
			"event": "payment.captured",
			"payload": {
				"payment": {
					"entity": {
						"id": "pay_Nxq111",
						"order_id": "order_Nxq222",
						"amount": 10100,
						"status": "captured",
						"method": "upi",
						"contact": "+919876543210"
					}
				}
			},
			"created_at": 1721900000
		}`)
		event, err := ParseWebhookEvent(secret, body, signBody(t, secret, body))
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if !event.IsPaymentSuccess() {
			t.Fatalf("expected success event")
		}
		if got := event.GatewayOrderID(); got != "order_Nxq222" {
			t.Fatalf("unexpected gateway order id: %q", got)
		}
	})

	t.Run("order paid uses order entity", func(t *testing.T) {
		t.Parallel()
		body := []byte(`{
			"event": "order.paid",
			"payload": {
				"order": {
					"entity": {
						"id": "order_Nxq333",
						"amount": 10100,
						"status": "paid"
					}
				}
			}
		}`)
		event, err := ParseWebhookEvent(secret, body, signBody(t, secret, body))
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if !event.IsPaymentSuccess() {
			t.Fatalf("expected success event")
		}
		if got := event.GatewayOrderID(); got != "order_Nxq333" {
			t.Fatalf("unexpected gateway order id: %q", got)
		}
	})

	t.Run("unrelated event is not success", func(t *testing.T) {
		t.Parallel()
		body := []byte(`{"event":"payment.failed","payload":{}}`)
		event, err := ParseWebhookEvent(secret, body, signBody(t, secret, body))
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if event.IsPaymentSuccess() {
			t.Fatalf("payment.failed should not be success")
		}
	})

	t.Run("bad signature rejected before decode", func(t *testing.T) {
		t.Parallel()
		body := []byte(`{"event":"payment.captured"}`)
		if _, err := ParseWebhookEvent(secret, body, "deadbeef"); !errors.Is(err, ErrInvalidWebhookSignature) {
			t.Fatalf("expected ErrInvalidWebhookSignature, got %v", err)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()
		body := []byte("{not json")
		if _, err := ParseWebhookEvent(secret, body, signBody(t, secret, body)); err == nil {
			t.Fatalf("expected error")
		}
	})
}
