package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(secret, orderID, paymentID string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(h.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	secret := "test_secret"
	sig := sign(secret, "order_123", "pay_456")

	assert.True(t, VerifySignature(secret, "order_123", "pay_456", sig))

	// tampered payment id
	assert.False(t, VerifySignature(secret, "order_123", "pay_457", sig))
	// wrong secret
	assert.False(t, VerifySignature("other_secret", "order_123", "pay_456", sig))
	// uppercase hex is not accepted
	assert.False(t, VerifySignature(secret, "order_123", "pay_456", "ABC123"))
	assert.False(t, VerifySignature(secret, "order_123", "pay_456", ""))
}

func TestCreateOrderSendsMinorUnits(t *testing.T) {
	var gotBody map[string]any
	var gotAuthUser string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/orders", r.URL.Path)
		user, _, ok := r.BasicAuth()
		require.True(t, ok)
		gotAuthUser = user

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]any{
			"id":       "order_abc",
			"amount":   gotBody["amount"],
			"currency": "INR",
			"receipt":  gotBody["receipt"],
		})
	}))
	defer srv.Close()

	t.Setenv("RAZORPAY_BASE_URL", srv.URL)
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test_key")
	t.Setenv("RAZORPAY_KEY_SECRET", "rzp_test_secret")

	client := NewClient()
	order, err := client.CreateOrder(context.Background(), 499.0, "INR", "rcpt_1")
	require.NoError(t, err)

	assert.Equal(t, "order_abc", order.OrderID)
	assert.Equal(t, int64(49900), order.Amount)
	assert.Equal(t, float64(49900), gotBody["amount"])
	assert.Equal(t, "rzp_test_key", gotAuthUser)
	assert.Equal(t, "rzp_test_key", client.KeyID())
}

func TestCreateOrderRoundsFractionalPaise(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]any{"id": "order_x", "amount": body["amount"], "currency": "INR"})
	}))
	defer srv.Close()

	t.Setenv("RAZORPAY_BASE_URL", srv.URL)

	order, err := NewClient().CreateOrder(context.Background(), 123.456, "INR", "r")
	require.NoError(t, err)
	assert.Equal(t, int64(12346), order.Amount)
}

func TestCreateOrderGatewayFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	t.Setenv("RAZORPAY_BASE_URL", srv.URL)

	_, err := NewClient().CreateOrder(context.Background(), 100, "INR", "r")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "payment gateway returned 401")
}
