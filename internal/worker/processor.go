package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/interpretly/booking-be/internal/booking/domain"
	"github.com/interpretly/booking-be/internal/booking/event"
)

var errUnknownEventType = errors.New("unknown event type")

// processEvent runs the notification fanout for one booking event. A
// booking that is no longer pending is skipped: the fanout would only
// advertise a job nobody can claim.
func (w *Worker) processEvent(ctx context.Context, ev event.Event) error {
	w.logger.Info("Processing event",
		slog.String("type", ev.Type),
		slog.String("job_id", ev.JobID),
	)

	job, err := w.store.GetJob(ctx, ev.JobID)
	if err != nil {
		return fmt.Errorf("failed to load booking: %w", err)
	}

	if job.Status != domain.StatusPending {
		w.logger.Info("Skipping fanout - booking no longer pending",
			slog.String("job_id", job.ID),
			slog.String("status", string(job.Status)),
		)
		return nil
	}

	switch ev.Type {
	case event.TypeJobCreated:
		result := w.engine.NotifySuitableTranslators(ctx, job, ev.ExcludeTranslatorID)
		w.logger.Info("Push fanout complete",
			slog.String("job_id", job.ID),
			slog.Int("sent", result.Sent),
			slog.Int("errors", len(result.Errors)),
		)
		sent, err := w.engine.NotifySuitableTranslatorsSMS(ctx, job)
		if err != nil {
			// Push already went out; log and ACK rather than redeliver.
			w.logger.Error("SMS fanout failed",
				slog.String("job_id", job.ID),
				slog.String("error", err.Error()),
			)
			return nil
		}
		w.logger.Info("SMS fanout complete",
			slog.String("job_id", job.ID),
			slog.Int("sent", sent),
		)
		return nil

	case event.TypePushResend:
		result := w.engine.NotifySuitableTranslators(ctx, job, ev.ExcludeTranslatorID)
		w.logger.Info("Push fanout complete",
			slog.String("job_id", job.ID),
			slog.Int("sent", result.Sent),
			slog.Int("errors", len(result.Errors)),
		)
		return nil

	case event.TypeSMSResend:
		sent, err := w.engine.NotifySuitableTranslatorsSMS(ctx, job)
		if err != nil {
			return fmt.Errorf("sms fanout failed: %w", err)
		}
		w.logger.Info("SMS fanout complete",
			slog.String("job_id", job.ID),
			slog.Int("sent", sent),
		)
		return nil

	default:
		return fmt.Errorf("%w: %s", errUnknownEventType, ev.Type)
	}
}
