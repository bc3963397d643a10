package razorpay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestCreateOrderParsing verifies create order request shape and response
// parsing behavior.
func TestCreateOrderParsing(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/orders" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "rzp_test_key" || pass != "secret" {
			t.Fatalf("unexpected basic auth: %s %s %v", user, pass, ok)
		}
		var raw map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if raw["amount"] != float64(20200) {
			t.Fatalf("unexpected amount: %#v", raw["amount"])
		}
		if raw["currency"] != "INR" {
			t.Fatalf("unexpected currency: %#v", raw["currency"])
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":       "order_Nxq7a2b3c4d5e6",
			"amount":   20200,
			"currency": "INR",
			"receipt":  raw["receipt"],
			"status":   "created",
		})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, KeyID: "rzp_test_key", KeySecret: "secret"}, srv.Client(), nil)
	order, raw, err := client.CreateOrder(context.Background(), CreateOrderRequest{
		Amount:   20200,
		Currency: "INR",
		Receipt:  "ORD1234",
		Notes:    map[string]string{"phone": "9876543210"},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}
	if order.ID != "order_Nxq7a2b3c4d5e6" {
		t.Fatalf("unexpected order id: %q", order.ID)
	}
	if order.Status != OrderStatusCreated {
		t.Fatalf("unexpected status: %q", order.Status)
	}
	if !strings.Contains(string(raw), "order_Nxq7a2b3c4d5e6") {
		t.Fatalf("raw body not returned")
	}
}

// TestGetOrderStatus verifies order status fetch behavior.
func TestGetOrderStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/orders/order_abc123" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":          "order_abc123",
			"amount":      101,
			"amount_paid": 101,
			"status":      "paid",
		})
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, KeyID: "k", KeySecret: "s"}, srv.Client(), nil)
	order, _, err := client.GetOrder(context.Background(), "order_abc123")
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if !IsPaidStatus(order.Status) {
		t.Fatalf("expected paid status, got %q", order.Status)
	}
}

// TestCreateOrderAPIError verifies gateway errors surface as APIError.
func TestCreateOrderAPIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"description":"amount too small"}}`))
	}))
	defer srv.Close()

	client := NewClient(Config{BaseURL: srv.URL, KeyID: "k", KeySecret: "s"}, srv.Client(), nil)
	_, _, err := client.CreateOrder(context.Background(), CreateOrderRequest{Amount: 0, Currency: "INR"})
	if err == nil {
		t.Fatalf("expected error")
	}
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", apiErr.StatusCode)
	}
}

func TestIsPaidStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want bool
	}{
		{in: "paid", want: true},
		{in: "Paid", want: true},
		{in: "created", want: false},
		{in: "attempted", want: false},
		{in: "", want: false},
	}
	for _, tc := range cases {
		if got := IsPaidStatus(tc.in); got != tc.want {
			t.Fatalf("IsPaidStatus(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
