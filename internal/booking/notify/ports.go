package notify

import (
	"context"
	"time"
)

// PushMessage is one batch call to the push provider. The audience is
// addressed by account email tags, matching the provider's tag filter
// API.
type PushMessage struct {
	Emails       []string
	Title        map[string]string
	Contents     map[string]string
	Data         map[string]any
	IOSSound     string
	AndroidSound string
	SendAfter    *time.Time
}

// PushSender delivers one push batch and returns the provider's raw
// response body.
type PushSender interface {
	Send(ctx context.Context, msg PushMessage) (string, error)
}

// SmsSender delivers a single SMS and returns the gateway status.
type SmsSender interface {
	Send(ctx context.Context, from, to, body string) (string, error)
}

// Mailer delivers a templated email.
type Mailer interface {
	Send(ctx context.Context, toAddress, toName, subject, templateID string, data map[string]any) error
}

// Clock supplies the current time; injected so delay decisions are
// testable.
type Clock interface {
	Now() time.Time
}

// BusinessHours decides push delay policy: whether a moment falls in
// the night-time window, and when a delayed push should be released.
type BusinessHours interface {
	IsNightTime(t time.Time) bool
	NextBusinessTime(t time.Time) time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }
