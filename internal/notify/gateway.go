// Package notify is the client side of the external email webhook.  The
// core never sends mail itself; it hands a structured message to the
// gateway and treats anything but an explicit acknowledgement as
// failure.  Delivery is fire-and-forget with a bounded wait.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Message is one outbound email.
type Message struct {
	To       string
	Subject  string
	Body     string
	HTMLBody string
}

// Gateway posts messages to the configured webhook.  The wire payload
// carries a shared secret, the destination, plain and HTML bodies, and a
// sender display name.  The webhook signals success via an "ok" field in
// its JSON response; a non-acknowledging or malformed response is an
// error even on HTTP 200, since the upstream service is known to return
// 200 for failures.
type Gateway struct {
	url        string
	secret     string
	senderName string
	client     *http.Client
	log        zerolog.Logger
}

// NewGateway builds a Gateway.  The timeout bounds the whole call; past
// it the send is treated as failed and never retried by the core.
func NewGateway(url, secret, senderName string, timeout time.Duration, log zerolog.Logger) *Gateway {
	return &Gateway{
		url:        url,
		secret:     secret,
		senderName: senderName,
		client:     &http.Client{Timeout: timeout},
		log:        log,
	}
}

type webhookPayload struct {
	Secret   string `json:"secret"`
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	HTMLBody string `json:"htmlBody"`
	Name     string `json:"name"`
}

type webhookResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Send delivers one message.  A nil return means the webhook explicitly
// acknowledged the mail.
func (g *Gateway) Send(ctx context.Context, msg Message) error {
	if g.url == "" {
		return fmt.Errorf("notify: webhook url not configured")
	}
	body, err := json.Marshal(webhookPayload{
		Secret:   g.secret,
		To:       msg.To,
		Subject:  msg.Subject,
		Body:     msg.Body,
		HTMLBody: msg.HTMLBody,
		Name:     g.senderName,
	})
	if err != nil {
		return fmt.Errorf("notify: marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: post: %w", err)
	}
	defer resp.Body.Close()

	var ack webhookResponse
	if err := json.NewDecoder(resp.Body).Decode(&ack); err != nil {
		return fmt.Errorf("notify: webhook returned non-JSON (status %d)", resp.StatusCode)
	}
	if !ack.OK {
		return fmt.Errorf("notify: webhook did not acknowledge (status %d, error %q)", resp.StatusCode, ack.Error)
	}
	g.log.Debug().Str("to", msg.To).Str("subject", msg.Subject).Msg("email handed to webhook")
	return nil
}
