package payments

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

func TestCreateOrder_ConvertsToSubunits(t *testing.T) {
	var received map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "key_test", user)
		assert.Equal(t, "secret_test", pass)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		json.NewEncoder(w).Encode(Order{
			ID:       "order_123",
			Amount:   int64(received["amount"].(float64)),
			Currency: received["currency"].(string),
			Receipt:  received["receipt"].(string),
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key_test", "secret_test")

	order, err := client.CreateOrder(context.Background(), 390, "INR", "enq-1")
	require.NoError(t, err)

	// 390 rupees cross the boundary as 39000 paise
	assert.Equal(t, float64(39000), received["amount"])
	assert.Equal(t, "order_123", order.ID)
	assert.Equal(t, int64(39000), order.Amount)
	assert.Equal(t, "INR", order.Currency)
}

func TestCreateOrder_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"bad key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "bad", "bad")

	_, err := client.CreateOrder(context.Background(), 100, "INR", "enq-1")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestVerifySignature(t *testing.T) {
	client := NewClient("http://unused", "key", "shared_secret")

	mac := hmac.New(sha256.New, []byte("shared_secret"))
	mac.Write([]byte("order_1|pay_1"))
	valid := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, client.VerifySignature("order_1", "pay_1", valid))
	assert.False(t, client.VerifySignature("order_1", "pay_1", "deadbeef"))
	assert.False(t, client.VerifySignature("order_1", "pay_2", valid))
	assert.False(t, client.VerifySignature("order_1", "pay_1", ""))
}

func TestSubunitConversion(t *testing.T) {
	assert.Equal(t, int64(19500), ToSubunits(195))
	assert.Equal(t, int64(48750), ToSubunits(487.5))
	assert.Equal(t, 195.0, FromSubunits(19500))
	// float drift must not lose a paisa
	assert.Equal(t, int64(33), ToSubunits(0.1+0.2+0.03))
}
