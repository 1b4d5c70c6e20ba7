// Package payments wraps the checkout gateway REST boundary. Amounts inside
// the application are rupees; this package converts to paise (x100) when
// talking to the gateway and back when reading its responses.
package payments

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// Gateway is the checkout boundary used by the payment service.
type Gateway interface {
	// CreateOrder registers an order with the gateway and returns its id.
	CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*Order, error)

	// VerifySignature checks the gateway's HMAC-SHA256 signature over
	// "order_id|payment_id".
	VerifySignature(orderID, paymentID, signature string) bool
}

// Order is the gateway's view of a pending payment. Amount is in the
// gateway's smallest subunit (paise).
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type Client struct {
	baseURL    string
	keyID      string
	secret     string
	httpClient *http.Client
}

func NewClient(baseURL, keyID, secret string) *Client {
	return &Client{
		baseURL: baseURL,
		keyID:   keyID,
		secret:  secret,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ToSubunits converts rupees to paise for the gateway boundary.
func ToSubunits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// FromSubunits converts paise back to rupees.
func FromSubunits(amount int64) float64 {
	return float64(amount) / 100
}

// CreateOrder posts {amount, currency, receipt} to the gateway's orders
// endpoint. amount is rupees and is converted to paise on the wire.
func (c *Client) CreateOrder(ctx context.Context, amount float64, currency, receipt string) (*Order, error) {
	payload := map[string]any{
		"amount":   ToSubunits(amount),
		"currency": currency,
		"receipt":  receipt,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.secret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("gateway returned %d: %s", resp.StatusCode, string(respBody))
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, fmt.Errorf("failed to decode gateway response: %w", err)
	}

	return &order, nil
}

// VerifySignature recomputes HMAC-SHA256 over "order_id|payment_id" with the
// shared secret and compares in constant time.
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.secret))
	fmt.Fprintf(mac, "%s|%s", orderID, paymentID)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
