package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
)

// Webhook event types that indicate money arrived. Every other event is
// acknowledged and ignored.
const (
	EventPaymentCaptured = "payment.captured"
	EventOrderPaid       = "order.paid"
)

// SignatureHeader carries the webhook HMAC.
const SignatureHeader = "X-Razorpay-Signature"

var ErrInvalidWebhookSignature = errors.New("invalid webhook signature")

// WebhookEvent is the envelope the gateway posts to our webhook endpoint.
type WebhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity PaymentEntity `json:"entity"`
		} `json:"payment"`
		Order struct {
			Entity Order `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
	CreatedAt int64 `json:"created_at"`
}

type PaymentEntity struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Amount  int64  `json:"amount"`
	Status  string `json:"status"`
	Method  string `json:"method"`
	Contact string `json:"contact"`
}

// IsPaymentSuccess reports whether the event announces a successful payment.
func (e WebhookEvent) IsPaymentSuccess() bool {
	switch e.Event {
	case EventPaymentCaptured, EventOrderPaid:
		return true
	default:
		return false
	}
}

// GatewayOrderID returns the gateway order the event refers to, regardless
// of which entity the gateway chose to populate.
func (e WebhookEvent) GatewayOrderID() string {
	if id := strings.TrimSpace(e.Payload.Payment.Entity.OrderID); id != "" {
		return id
	}
	return strings.TrimSpace(e.Payload.Order.Entity.ID)
}

// VerifyWebhookSignature checks the HMAC-SHA256 hex signature the gateway
// sends over the raw request body.
func VerifyWebhookSignature(secret string, body []byte, signature string) error {
	if strings.TrimSpace(secret) == "" {
		return errors.New("webhook secret is required")
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature)))) != 1 {
		return ErrInvalidWebhookSignature
	}
	return nil
}

// ParseWebhookEvent verifies the signature and decodes the envelope.
func ParseWebhookEvent(secret string, body []byte, signature string) (WebhookEvent, error) {
	var event WebhookEvent
	if err := VerifyWebhookSignature(secret, body, signature); err != nil {
		return event, err
	}
	if err := json.Unmarshal(body, &event); err != nil {
		return event, err
	}
	return event, nil
}
