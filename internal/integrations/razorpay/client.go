package razorpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Order statuses reported by the gateway.
const (
	OrderStatusCreated   = "created"
	OrderStatusAttempted = "attempted"
	OrderStatusPaid      = "paid"
)

type Config struct {
	BaseURL   string
	KeyID     string
	KeySecret string
}

type Client struct {
	baseURL    string
	keyID      string
	keySecret  string
	httpClient *http.Client
	logger     *slog.Logger
}

type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("razorpay api status %d: %s", e.StatusCode, e.Body)
}

type CreateOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type Order struct {
	ID         string            `json:"id"`
	Amount     int64             `json:"amount"`
	AmountPaid int64             `json:"amount_paid"`
	AmountDue  int64             `json:"amount_due"`
	Currency   string            `json:"currency"`
	Receipt    string            `json:"receipt"`
	Status     string            `json:"status"`
	Attempts   int               `json:"attempts"`
	Notes      map[string]string `json:"notes,omitempty"`
	CreatedAt  int64             `json:"created_at"`
}

func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.razorpay.com"
	}
	return &Client{
		baseURL:    baseURL,
		keyID:      strings.TrimSpace(cfg.KeyID),
		keySecret:  strings.TrimSpace(cfg.KeySecret),
		httpClient: httpClient,
		logger:     logger,
	}
}

// KeyID is exposed so checkout responses can hand the public key to clients.
func (c *Client) KeyID() string {
	return c.keyID
}

// CreateOrder registers a gateway order for the given amount in paise.
func (c *Client) CreateOrder(ctx context.Context, in CreateOrderRequest) (Order, []byte, error) {
	var out Order
	payload, err := json.Marshal(in)
	if err != nil {
		return out, nil, err
	}
	body, err := c.do(ctx, http.MethodPost, "/v1/orders", payload)
	if err != nil {
		return out, body, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, body, fmt.Errorf("decode create order response: %w", err)
	}
	if strings.TrimSpace(out.ID) == "" {
		return out, body, fmt.Errorf("create order response missing id")
	}
	return out, body, nil
}

// GetOrder fetches the current gateway-side state of an order.
func (c *Client) GetOrder(ctx context.Context, gatewayOrderID string) (Order, []byte, error) {
	var out Order
	pathPart := fmt.Sprintf("/v1/orders/%s", url.PathEscape(strings.TrimSpace(gatewayOrderID)))
	body, err := c.do(ctx, http.MethodGet, pathPart, nil)
	if err != nil {
		return out, body, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, body, fmt.Errorf("decode get order response: %w", err)
	}
	return out, body, nil
}

// IsPaidStatus reports whether a gateway order status means the money
// arrived.
func IsPaidStatus(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), OrderStatusPaid)
}

func (c *Client) do(ctx context.Context, method, pathPart string, payload []byte) ([]byte, error) {
	if c.keyID == "" || c.keySecret == "" {
		return nil, fmt.Errorf("razorpay api keys are required")
	}

	target := c.baseURL + pathPart
	var bodyReader io.Reader
	if len(payload) > 0 {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)
	if len(payload) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if c.logger != nil {
		c.logger.Debug("razorpay_api_response", "method", method, "path", pathPart, "status", resp.StatusCode)
	}
	return body, nil
}
