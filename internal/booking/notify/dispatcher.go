// Package notify fans notifications out to customers and translators
// over push, SMS and email. Dispatch is stateless and best-effort:
// provider failures are captured in the DispatchResult and logged, and
// never roll back the booking transition that triggered them.
package notify

import (
	"context"
	"log/slog"

	"github.com/interpretly/booking-be/internal/booking/domain"
)

// NotificationType tags the structured data of a push so the mobile
// client can route it.
const (
	TypeSuitableJob        = "suitable_job"
	TypeJobAccepted        = "job_accepted"
	TypeJobCancelled       = "job_cancelled"
	TypeJobExpired         = "job_expired"
	TypeSessionStartRemind = "session_start_remind"
)

// DispatchResult reports how many sends were attempted and which
// failed. Sent counts attempts, not confirmed deliveries.
type DispatchResult struct {
	Sent   int
	Errors []error
}

// PushPayload is the channel-independent content of a push fanout.
type PushPayload struct {
	JobID     string
	Type      string
	Contents  map[string]string
	Data      map[string]any
	Emergency bool // immediate booking: skips emergency opt-outs, emergency sound
}

// Dispatcher fans a notification out to a set of recipients.
type Dispatcher struct {
	push    PushSender
	sms     SmsSender
	mailer  Mailer
	clock   Clock
	hours   BusinessHours
	smsFrom string
	logger  *slog.Logger
}

type Config struct {
	Push    PushSender
	SMS     SmsSender
	Mailer  Mailer
	Clock   Clock
	Hours   BusinessHours
	SMSFrom string
	Logger  *slog.Logger
}

func NewDispatcher(cfg Config) *Dispatcher {
	hours := cfg.Hours
	if hours == nil {
		hours = DefaultBusinessHours{}
	}
	return &Dispatcher{
		push:    cfg.Push,
		sms:     cfg.SMS,
		mailer:  cfg.Mailer,
		clock:   cfg.Clock,
		hours:   hours,
		smsFrom: cfg.SMSFrom,
		logger:  cfg.Logger,
	}
}

// DispatchPush partitions the audience into an immediate and a delayed
// batch and issues one provider call per non-empty batch. A recipient
// is delayed only when it is currently night-time and they opted out of
// night pushes; delayed sends carry the next business time.
func (d *Dispatcher) DispatchPush(ctx context.Context, audience []domain.User, p PushPayload) DispatchResult {
	var res DispatchResult
	var now, delayed []string

	nowT := d.clock.Now()
	night := d.hours.IsNightTime(nowT)

	for _, u := range audience {
		if !u.PushEnabled {
			continue
		}
		if p.Emergency && u.EmergencyPushOptOut {
			continue
		}
		if night && u.NightPushOptOut {
			delayed = append(delayed, u.Email)
		} else {
			now = append(now, u.Email)
		}
	}

	data := map[string]any{
		"job_id":            p.JobID,
		"notification_type": p.Type,
	}
	for k, v := range p.Data {
		data[k] = v
	}

	iosSound, androidSound := "default", "default"
	if p.Type == TypeSuitableJob {
		if p.Emergency {
			iosSound, androidSound = "emergency_booking.mp3", "emergency_booking"
		} else {
			iosSound, androidSound = "normal_booking.mp3", "normal_booking"
		}
	}

	msg := PushMessage{
		Title:        map[string]string{"en": "Interpretly"},
		Contents:     p.Contents,
		Data:         data,
		IOSSound:     iosSound,
		AndroidSound: androidSound,
	}

	if len(now) > 0 {
		msg.Emails = now
		msg.SendAfter = nil
		if resp, err := d.push.Send(ctx, msg); err != nil {
			res.Errors = append(res.Errors, err)
			d.logger.Error("push batch failed",
				slog.String("job_id", p.JobID),
				slog.Int("audience", len(now)),
				slog.Any("error", err),
			)
		} else {
			res.Sent += len(now)
			d.logger.Info("push batch sent",
				slog.String("job_id", p.JobID),
				slog.String("notification_type", p.Type),
				slog.Int("audience", len(now)),
				slog.String("response", resp),
			)
		}
	}

	if len(delayed) > 0 {
		after := d.hours.NextBusinessTime(nowT)
		msg.Emails = delayed
		msg.SendAfter = &after
		if resp, err := d.push.Send(ctx, msg); err != nil {
			res.Errors = append(res.Errors, err)
			d.logger.Error("delayed push batch failed",
				slog.String("job_id", p.JobID),
				slog.Int("audience", len(delayed)),
				slog.Any("error", err),
			)
		} else {
			res.Sent += len(delayed)
			d.logger.Info("delayed push batch sent",
				slog.String("job_id", p.JobID),
				slog.String("notification_type", p.Type),
				slog.Int("audience", len(delayed)),
				slog.Time("send_after", after),
				slog.String("response", resp),
			)
		}
	}

	return res
}

// DispatchSMS sends one message per recipient synchronously. Failures
// are logged per recipient and do not abort the batch.
func (d *Dispatcher) DispatchSMS(ctx context.Context, audience []domain.User, body string) DispatchResult {
	var res DispatchResult
	for _, u := range audience {
		if u.Mobile == "" {
			continue
		}
		res.Sent++
		status, err := d.sms.Send(ctx, d.smsFrom, u.Mobile, body)
		if err != nil {
			res.Errors = append(res.Errors, err)
			d.logger.Error("sms send failed",
				slog.String("to", u.Email),
				slog.Any("error", err),
			)
			continue
		}
		d.logger.Info("sms sent",
			slog.String("to", u.Email),
			slog.String("mobile", u.Mobile),
			slog.String("status", status),
		)
	}
	return res
}

// DispatchEmail sends a single templated email. Callers deduplicate
// recipients per (job, notification-type) event before calling.
func (d *Dispatcher) DispatchEmail(ctx context.Context, toAddress, toName, subject, templateID string, data map[string]any) DispatchResult {
	var res DispatchResult
	res.Sent = 1
	if err := d.mailer.Send(ctx, toAddress, toName, subject, templateID, data); err != nil {
		res.Errors = append(res.Errors, err)
		d.logger.Error("email send failed",
			slog.String("to", toAddress),
			slog.String("template", templateID),
			slog.Any("error", err),
		)
	}
	return res
}
