package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SMSGatewayConfig points at the HTTP SMS gateway.
type SMSGatewayConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// SMSGatewaySender posts form-encoded messages to the SMS gateway.
type SMSGatewaySender struct {
	cfg    SMSGatewayConfig
	client *http.Client
}

func NewSMSGatewaySender(cfg SMSGatewayConfig) *SMSGatewaySender {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &SMSGatewaySender{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *SMSGatewaySender) Send(ctx context.Context, from, to, body string) (string, error) {
	form := url.Values{
		"from":    {from},
		"to":      {to},
		"message": {body},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.URL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("sms request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read sms response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return string(raw), fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return string(raw), nil
}
