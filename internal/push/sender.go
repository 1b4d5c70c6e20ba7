// Package push delivers push notifications through an FCM-compatible HTTP
// endpoint.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Sender delivers one push message to a device token.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// Message is one push notification.
type Message struct {
	Token string         `json:"to"`
	Title string         `json:"-"`
	Body  string         `json:"-"`
	Data  map[string]any `json:"data,omitempty"`
}

type HTTPSender struct {
	endpoint   string
	serverKey  string
	httpClient *http.Client
}

func NewHTTPSender(endpoint, serverKey string) *HTTPSender {
	return &HTTPSender{
		endpoint:  endpoint,
		serverKey: serverKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Send posts the message to the push endpoint. A non-2xx response is an
// error; the caller (the dispatch worker) decides whether to retry.
func (s *HTTPSender) Send(ctx context.Context, msg *Message) error {
	if s.endpoint == "" {
		return fmt.Errorf("push endpoint is not configured")
	}

	payload := map[string]any{
		"to": msg.Token,
		"notification": map[string]string{
			"title": msg.Title,
			"body":  msg.Body,
		},
	}
	if msg.Data != nil {
		payload["data"] = msg.Data
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.serverKey != "" {
		req.Header.Set("Authorization", "key="+s.serverKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("push endpoint returned %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
