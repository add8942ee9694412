package transition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/interpretly/booking-be/internal/booking/domain"
	"github.com/interpretly/booking-be/internal/booking/notify"
)

// ErrCancelWindow is returned when a translator tries to cancel a
// booking inside the 24 hour window before its due time.
var ErrCancelWindow = errors.New("booking cannot be cancelled within 24 hours")

const cancelWindow = 24 * time.Hour

// Accept claims a pending job for a translator. The pending->assigned
// check-and-set and the assignment insert are atomic in the store, so
// of two concurrent accepts exactly one succeeds; the loser sees
// domain.ErrJobTaken. A translator already booked at the job's time
// sees domain.ErrTranslatorBooked.
func (e *Engine) Accept(ctx context.Context, jobID, translatorID string) (*domain.Job, error) {
	job, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if err := e.store.AcceptJob(ctx, job.ID, translatorID, job.Due, job.Duration); err != nil {
		return nil, err
	}
	job.Status = domain.StatusAssigned

	customer, err := e.store.GetUser(ctx, job.CustomerID)
	if err != nil {
		return nil, err
	}

	e.dispatcher.DispatchEmail(ctx, customer.BestEmail(job), customer.Name,
		notify.SubjectAccepted(job.ID), notify.TmplJobAccepted,
		map[string]any{"job_id": job.ID, "user_name": customer.Name})

	language := e.languageName(ctx, job.FromLanguageID)
	e.dispatcher.DispatchPush(ctx, []domain.User{*customer}, notify.PushPayload{
		JobID:    job.ID,
		Type:     notify.TypeJobAccepted,
		Contents: notify.AcceptedPushText(language, job.Duration, job.Due.Format("2006-01-02 15:04:05")),
	})

	return job, nil
}

// CancelByCustomer withdraws the customer's own booking. More than 24
// hours before due the booking ends as withdrawbefore24, inside the
// window as withdrawafter24; either way the active assignment is
// closed and its translator pushed a cancellation notice.
func (e *Engine) CancelByCustomer(ctx context.Context, job *domain.Job) error {
	now := e.now()
	job.WithdrawAt = &now
	if job.Due.Sub(now) >= cancelWindow {
		job.Status = domain.StatusWithdrawBefore24
	} else {
		job.Status = domain.StatusWithdrawAfter24
	}
	job.UpdatedAt = now

	assignment, err := e.store.ActiveAssignment(ctx, job.ID)
	if err != nil {
		return err
	}
	if assignment != nil {
		if err := e.store.CancelAssignment(ctx, assignment.ID, now); err != nil {
			return err
		}
	}
	if err := e.store.SaveJob(ctx, job); err != nil {
		return err
	}

	if assignment != nil {
		translator, err := e.store.GetUser(ctx, assignment.TranslatorID)
		if err != nil {
			e.logger.Error("translator lookup failed for cancel push", slog.Any("error", err))
			return nil
		}
		language := e.languageName(ctx, job.FromLanguageID)
		e.dispatcher.DispatchPush(ctx, []domain.User{*translator}, notify.PushPayload{
			JobID:    job.ID,
			Type:     notify.TypeJobCancelled,
			Contents: notify.CancelledByCustomerPushText(language, job.Duration, job.Due.Format("2006-01-02 15:04:05")),
		})
	}
	return nil
}

// CancelByTranslator lets an assigned translator withdraw from a
// booking more than 24 hours out. The job reverts to pending, the
// assignment is closed (history preserved), the customer is notified,
// and a fresh fanout goes to every eligible translator except the one
// who just cancelled.
func (e *Engine) CancelByTranslator(ctx context.Context, job *domain.Job, translatorID string) error {
	now := e.now()
	if job.Due.Sub(now) <= cancelWindow {
		return ErrCancelWindow
	}

	assignment, err := e.store.ActiveAssignment(ctx, job.ID)
	if err != nil {
		return err
	}
	if assignment == nil || assignment.TranslatorID != translatorID {
		return domain.ErrNoActiveAssignment
	}

	if err := e.store.CancelAssignment(ctx, assignment.ID, now); err != nil {
		return err
	}

	job.Status = domain.StatusPending
	job.WillExpireAt = domain.WillExpireAt(job.Due, now)
	job.UpdatedAt = now
	if err := e.store.SaveJob(ctx, job); err != nil {
		return err
	}

	customer, err := e.store.GetUser(ctx, job.CustomerID)
	if err == nil {
		language := e.languageName(ctx, job.FromLanguageID)
		e.dispatcher.DispatchPush(ctx, []domain.User{*customer}, notify.PushPayload{
			JobID:    job.ID,
			Type:     notify.TypeJobCancelled,
			Contents: notify.CancelledByTranslatorPushText(language, job.Duration, job.Due.Format("2006-01-02 15:04:05")),
		})
	}

	e.NotifySuitableTranslators(ctx, job, translatorID)
	return nil
}

// End completes a started session. The session time is measured from
// the booking's due time to now; both parties get the session-ended
// email and the assignment is closed with the ending actor recorded.
func (e *Engine) End(ctx context.Context, jobID, actorID string) error {
	job, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	assignment, err := e.store.ActiveAssignment(ctx, job.ID)
	if err != nil {
		return err
	}
	if assignment == nil {
		return domain.ErrNoActiveAssignment
	}

	now := e.now()
	job.Status = domain.StatusCompleted
	job.EndAt = &now
	job.SessionTime = domain.SessionInterval(now.Sub(job.Due))
	job.UpdatedAt = now
	if err := e.store.SaveJob(ctx, job); err != nil {
		return err
	}
	if err := e.store.CompleteAssignment(ctx, assignment.ID, now, actorID); err != nil {
		return err
	}

	sessionLabel := domain.SessionTimeLabel(job.SessionTime)
	subject := notify.SubjectSessionEnded(job.ID)

	if customer, err := e.store.GetUser(ctx, job.CustomerID); err == nil {
		e.dispatcher.DispatchEmail(ctx, customer.BestEmail(job), customer.Name, subject, notify.TmplSessionEnded,
			map[string]any{"job_id": job.ID, "session_time": sessionLabel, "for_text": "faktura"})
	}
	if translator, err := e.store.GetUser(ctx, assignment.TranslatorID); err == nil {
		e.dispatcher.DispatchEmail(ctx, translator.Email, translator.Name, subject, notify.TmplSessionEnded,
			map[string]any{"job_id": job.ID, "session_time": sessionLabel, "for_text": "lön"})
	}
	return nil
}

// CustomerNoShow closes a session the customer never turned up for.
// The booking ends as not_carried_out_customer and the assignment is
// completed in the translator's favour.
func (e *Engine) CustomerNoShow(ctx context.Context, jobID string) error {
	job, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}
	assignment, err := e.store.ActiveAssignment(ctx, job.ID)
	if err != nil {
		return err
	}
	if assignment == nil {
		return domain.ErrNoActiveAssignment
	}

	now := e.now()
	job.Status = domain.StatusNotCarriedOutCustomer
	job.EndAt = &now
	job.UpdatedAt = now
	if err := e.store.SaveJob(ctx, job); err != nil {
		return err
	}
	return e.store.CompleteAssignment(ctx, assignment.ID, now, assignment.TranslatorID)
}

// Reopen puts a closed booking back on the market. A timedout booking
// gets a full reset (expiry bookkeeping, reminder flags, an admin note
// recording the reopen); any other status gets the partial reset of
// status, creation time and expiry. Either way the open assignment is
// cancelled, the customer notified and the translator fanout re-fired.
func (e *Engine) Reopen(ctx context.Context, jobID, actorID string) error {
	job, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	now := e.now()
	if job.Status == domain.StatusTimedout {
		job.Status = domain.StatusPending
		job.CreatedAt = now
		job.UpdatedAt = now
		job.WillExpireAt = domain.WillExpireAt(job.Due, now)
		job.Cust16HourSent = false
		job.Cust48HourSent = false
		job.EmailSent = false
		job.AdminComments = fmt.Sprintf("This booking is a reopening of booking # %s", job.ID)
	} else {
		job.Status = domain.StatusPending
		job.CreatedAt = now
		job.UpdatedAt = now
		job.WillExpireAt = domain.WillExpireAt(job.Due, now)
	}

	assignment, err := e.store.ActiveAssignment(ctx, job.ID)
	if err != nil {
		return err
	}
	if assignment != nil {
		if err := e.store.CancelAssignment(ctx, assignment.ID, now); err != nil {
			return err
		}
	}
	if err := e.store.SaveJob(ctx, job); err != nil {
		return err
	}

	if customer, err := e.store.GetUser(ctx, job.CustomerID); err == nil {
		language := e.languageName(ctx, job.FromLanguageID)
		e.dispatcher.DispatchEmail(ctx, customer.BestEmail(job), customer.Name,
			notify.SubjectReopened(language, job.ID), notify.TmplReopenedCustomer,
			map[string]any{"job_id": job.ID, "user_name": customer.Name})
	}

	e.NotifySuitableTranslators(ctx, job, "")
	e.logger.Info("booking reopened",
		slog.String("job_id", job.ID),
		slog.String("actor_id", actorID),
	)
	return nil
}
