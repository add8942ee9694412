package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const oneSignalURL = "https://onesignal.com/api/v1/notifications"

// OneSignalConfig selects the app credentials for the environment.
type OneSignalConfig struct {
	AppID   string
	APIKey  string
	Timeout time.Duration
}

// OneSignalSender delivers push batches through the OneSignal REST API,
// addressing recipients by email tag filters.
type OneSignalSender struct {
	cfg    OneSignalConfig
	client *http.Client
}

func NewOneSignalSender(cfg OneSignalConfig) *OneSignalSender {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &OneSignalSender{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (s *OneSignalSender) Send(ctx context.Context, msg PushMessage) (string, error) {
	fields := map[string]any{
		"app_id":         s.cfg.AppID,
		"tags":           emailTagFilter(msg.Emails),
		"data":           msg.Data,
		"title":          msg.Title,
		"contents":       msg.Contents,
		"ios_badgeType":  "Increase",
		"ios_badgeCount": 1,
		"android_sound":  msg.AndroidSound,
		"ios_sound":      msg.IOSSound,
	}
	if msg.SendAfter != nil {
		fields["send_after"] = msg.SendAfter.Format("2006-01-02 15:04:05 MST")
	}

	body, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("failed to encode push payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, oneSignalURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("push request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read push response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return string(raw), fmt.Errorf("push provider returned status %d", resp.StatusCode)
	}
	return string(raw), nil
}

// emailTagFilter builds the provider's tag filter: email equality
// terms joined with OR operators.
func emailTagFilter(emails []string) []map[string]string {
	tags := make([]map[string]string, 0, len(emails)*2)
	for i, email := range emails {
		if i > 0 {
			tags = append(tags, map[string]string{"operator": "OR"})
		}
		tags = append(tags, map[string]string{
			"key":      "email",
			"relation": "=",
			"value":    strings.ToLower(email),
		})
	}
	return tags
}
