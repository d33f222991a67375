// Package notification holds the outbound SMS gateway client. Delivery is
// best effort everywhere it is used: callers decide whether to retry or
// just log the failure.
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SMSClient posts messages to a bulk-SMS HTTP gateway as a form-encoded
// request (token, to, message).
type SMSClient struct {
	gatewayURL string
	token      string
	client     *http.Client
}

func NewSMSClient(gatewayURL, token string) *SMSClient {
	return &SMSClient{
		gatewayURL: gatewayURL,
		token:      token,
		client:     &http.Client{Timeout: 5 * time.Second},
	}
}

func (c *SMSClient) Send(ctx context.Context, phone, message string) error {
	form := url.Values{}
	form.Set("token", c.token)
	form.Set("to", phone)
	form.Set("message", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gatewayURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return nil
}

// LogSender is the fallback when no gateway is configured: messages land
// in the log instead of a phone. Useful for development.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, phone, message string) error {
	slog.Info("sms (log only)", "to", phone, "message", message)
	return nil
}
