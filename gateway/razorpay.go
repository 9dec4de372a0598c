package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"os"
	"time"

	"veloura/apperr"
)

// Order is the gateway's order record: amount in integer minor units.
type Order struct {
	OrderID  string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// Client talks to the Razorpay orders API. Only the request/response contract
// lives here; the gateway's internals are an external collaborator.
type Client struct {
	keyID     string
	keySecret string
	baseURL   string
	http      *http.Client
}

func NewClient() *Client {
	baseURL := os.Getenv("RAZORPAY_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.razorpay.com"
	}
	return &Client{
		keyID:     os.Getenv("RAZORPAY_KEY_ID"),
		keySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
		baseURL:   baseURL,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

// KeyID is exposed so clients can initialize the gateway's browser SDK.
func (c *Client) KeyID() string {
	return c.keyID
}

// CreateOrder registers a gateway order for the given amount (major units,
// converted to minor units here).
func (c *Client) CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*Order, error) {
	payload := map[string]any{
		"amount":   int64(math.Round(amount * 100)),
		"currency": currency,
		"receipt":  receipt,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperr.Upstream(fmt.Sprintf("payment gateway unreachable: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperr.Upstream(fmt.Sprintf("payment gateway returned %d", resp.StatusCode))
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, apperr.Upstream("invalid payment gateway response")
	}
	return &order, nil
}

// VerifySignature recomputes HMAC-SHA256(secret, "orderID|paymentID") as
// lowercase hex and compares it to the client-supplied signature in constant
// time. Hex case matters: the gateway signs lowercase.
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	return VerifySignature(c.keySecret, orderID, paymentID, signature)
}

func VerifySignature(secret, orderID, paymentID, signature string) bool {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
