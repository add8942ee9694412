package transition

import (
	"context"
	"log/slog"

	"github.com/interpretly/booking-be/internal/booking/domain"
	"github.com/interpretly/booking-be/internal/booking/notify"
)

// change carries one update's working state across the four diffs:
// the job being mutated, the request, the parties involved, and the
// accumulated audit entries and deferred notices.
type change struct {
	job      *domain.Job
	req      *UpdateRequest
	customer *domain.User

	current           *domain.Assignment // active assignment before this update
	currentTranslator *domain.User
	newTranslator     *domain.User
	translatorChanged bool

	logs    []Change
	notices []func(context.Context)
}

func (ch *change) log(field, old, new string) {
	ch.logs = append(ch.logs, Change{Field: field, Old: old, New: new})
}

func (ch *change) notice(fn func(context.Context)) {
	ch.notices = append(ch.notices, fn)
}

type transitionKey struct {
	From, To domain.Status
}

// transitionFn applies one modeled status transition. It returns false
// when its guard refuses the change; the update then records no status
// diff and fires no notification for it.
type transitionFn func(e *Engine, ctx context.Context, ch *change) (bool, error)

// transitions is the allowed status graph. Requested transitions with
// no entry are rejected as no-ops.
var transitions = map[transitionKey]transitionFn{
	{domain.StatusPending, domain.StatusAssigned}:         (*Engine).pendingToAssigned,
	{domain.StatusPending, domain.StatusWithdrawBefore24}: (*Engine).pendingToCancelled,
	{domain.StatusPending, domain.StatusWithdrawAfter24}:  (*Engine).pendingToCancelled,
	{domain.StatusPending, domain.StatusTimedout}:         (*Engine).pendingToTimedout,

	{domain.StatusTimedout, domain.StatusPending}:  (*Engine).timedoutToPending,
	{domain.StatusTimedout, domain.StatusAssigned}: (*Engine).timedoutToAssigned,

	{domain.StatusStarted, domain.StatusCompleted}: (*Engine).startedToCompleted,

	{domain.StatusAssigned, domain.StatusWithdrawBefore24}: (*Engine).assignedToCancelled,
	{domain.StatusAssigned, domain.StatusWithdrawAfter24}:  (*Engine).assignedToCancelled,
	{domain.StatusAssigned, domain.StatusTimedout}:         (*Engine).assignedToTimedout,

	{domain.StatusWithdrawAfter24, domain.StatusTimedout}: (*Engine).withdrawToTimedout,
}

// changeStatus evaluates the status diff of an update through the
// transition table. A refused or unmodeled transition leaves the job
// untouched and returns false.
func (e *Engine) changeStatus(ctx context.Context, ch *change) (bool, error) {
	requested := ch.req.Status
	if requested == "" || requested == ch.job.Status {
		return false, nil
	}

	// a completed booking accepts no further status changes; the rest
	// of the update (reference, comments) still persists
	if ch.job.Status == domain.StatusCompleted {
		return false, nil
	}

	fn, ok := transitions[transitionKey{ch.job.Status, requested}]
	if !ok {
		e.logger.Info("transition not allowed",
			slog.String("job_id", ch.job.ID),
			slog.String("from", string(ch.job.Status)),
			slog.String("to", string(requested)),
		)
		return false, nil
	}

	old := ch.job.Status
	changed, err := fn(e, ctx, ch)
	if err != nil || !changed {
		return false, err
	}
	ch.log("status", string(old), string(requested))
	return true, nil
}

// pendingToAssigned fires when an admin attaches a translator and sets
// the status in the same update. The customer gets the acceptance
// email, the new translator their assignment email, and both a
// session-start reminder push.
func (e *Engine) pendingToAssigned(ctx context.Context, ch *change) (bool, error) {
	if !ch.translatorChanged || ch.newTranslator == nil {
		return false, nil
	}
	ch.job.Status = domain.StatusAssigned

	job, customer, translator := ch.job, ch.customer, ch.newTranslator
	ch.notice(func(ctx context.Context) {
		data := map[string]any{"job_id": job.ID, "user_name": customer.Name}
		subject := notify.SubjectAccepted(job.ID)
		e.dispatcher.DispatchEmail(ctx, customer.BestEmail(job), customer.Name, subject, notify.TmplJobAccepted, data)
		e.dispatcher.DispatchEmail(ctx, translator.Email, translator.Name, subject, notify.TmplChangedTranslatorNew, data)

		language := e.languageName(ctx, job.FromLanguageID)
		e.sessionStartReminder(ctx, customer, job, language)
		e.sessionStartReminder(ctx, translator, job, language)
	})
	return true, nil
}

// pendingToCancelled covers admin withdrawals of an unassigned booking.
func (e *Engine) pendingToCancelled(ctx context.Context, ch *change) (bool, error) {
	ch.job.Status = ch.req.Status
	ch.job.AdminComments = ch.req.AdminComments
	e.noticeCustomerCancelled(ch)
	return true, nil
}

// pendingToTimedout requires an admin comment explaining the timeout.
func (e *Engine) pendingToTimedout(ctx context.Context, ch *change) (bool, error) {
	if ch.req.AdminComments == "" {
		return false, nil
	}
	ch.job.Status = domain.StatusTimedout
	ch.job.AdminComments = ch.req.AdminComments
	e.noticeCustomerCancelled(ch)
	return true, nil
}

// timedoutToPending is the reopen path through a status update: reset
// the reminder-email bookkeeping, tell the customer, and re-run the
// translator fanout.
func (e *Engine) timedoutToPending(ctx context.Context, ch *change) (bool, error) {
	ch.job.Status = domain.StatusPending
	ch.job.EmailSent = false
	ch.job.Cust16HourSent = false
	ch.job.Cust48HourSent = false
	ch.job.WillExpireAt = domain.WillExpireAt(ch.job.Due, e.now())

	job, customer := ch.job, ch.customer
	ch.notice(func(ctx context.Context) {
		language := e.languageName(ctx, job.FromLanguageID)
		subject := notify.SubjectReopened(language, job.ID)
		e.dispatcher.DispatchEmail(ctx, customer.BestEmail(job), customer.Name, subject, notify.TmplReopenedCustomer,
			map[string]any{"job_id": job.ID, "user_name": customer.Name})
		e.NotifySuitableTranslators(ctx, job, "")
	})
	return true, nil
}

// timedoutToAssigned fires when a translator accepted while the job
// was marked timedout; the customer just gets the acceptance email.
func (e *Engine) timedoutToAssigned(ctx context.Context, ch *change) (bool, error) {
	if !ch.translatorChanged {
		return false, nil
	}
	ch.job.Status = domain.StatusAssigned

	job, customer := ch.job, ch.customer
	ch.notice(func(ctx context.Context) {
		e.dispatcher.DispatchEmail(ctx, customer.BestEmail(job), customer.Name,
			notify.SubjectAccepted(job.ID), notify.TmplJobAccepted,
			map[string]any{"job_id": job.ID, "user_name": customer.Name})
	})
	return true, nil
}

// startedToCompleted closes out a session: an admin supplies the
// session time and a comment, both parties get the session-ended
// email (customer for invoicing, translator for payroll).
func (e *Engine) startedToCompleted(ctx context.Context, ch *change) (bool, error) {
	if ch.req.AdminComments == "" || ch.req.SessionTime == "" {
		return false, nil
	}
	now := e.now()
	ch.job.Status = domain.StatusCompleted
	ch.job.AdminComments = ch.req.AdminComments
	ch.job.SessionTime = ch.req.SessionTime
	ch.job.EndAt = &now

	job, customer, translator := ch.job, ch.customer, ch.currentTranslator
	sessionLabel := domain.SessionTimeLabel(ch.req.SessionTime)
	ch.notice(func(ctx context.Context) {
		subject := notify.SubjectSessionEnded(job.ID)
		e.dispatcher.DispatchEmail(ctx, customer.BestEmail(job), customer.Name, subject, notify.TmplSessionEnded,
			map[string]any{"job_id": job.ID, "session_time": sessionLabel, "for_text": "faktura"})
		if translator != nil {
			e.dispatcher.DispatchEmail(ctx, translator.Email, translator.Name, subject, notify.TmplSessionEnded,
				map[string]any{"job_id": job.ID, "session_time": sessionLabel, "for_text": "lön"})
		}
	})
	return true, nil
}

// assignedToCancelled withdraws an assigned booking: the customer is
// emailed, and so is the active translator if one exists.
func (e *Engine) assignedToCancelled(ctx context.Context, ch *change) (bool, error) {
	ch.job.Status = ch.req.Status
	ch.job.AdminComments = ch.req.AdminComments

	job, customer, translator := ch.job, ch.customer, ch.currentTranslator
	ch.notice(func(ctx context.Context) {
		subject := notify.SubjectCancelled(job.ID)
		e.dispatcher.DispatchEmail(ctx, customer.BestEmail(job), customer.Name, subject, notify.TmplStatusChangedCustomer,
			map[string]any{"job_id": job.ID, "user_name": customer.Name})
		if translator != nil {
			e.dispatcher.DispatchEmail(ctx, translator.Email, translator.Name, subject, notify.TmplJobCancelTranslator,
				map[string]any{"job_id": job.ID, "user_name": translator.Name})
		}
	})
	return true, nil
}

// assignedToTimedout and withdrawToTimedout persist the timeout with
// its mandatory admin comment; no notification fires.
func (e *Engine) assignedToTimedout(ctx context.Context, ch *change) (bool, error) {
	if ch.req.AdminComments == "" {
		return false, nil
	}
	ch.job.Status = domain.StatusTimedout
	ch.job.AdminComments = ch.req.AdminComments
	return true, nil
}

func (e *Engine) withdrawToTimedout(ctx context.Context, ch *change) (bool, error) {
	if ch.req.AdminComments == "" {
		return false, nil
	}
	ch.job.Status = domain.StatusTimedout
	ch.job.AdminComments = ch.req.AdminComments
	return true, nil
}

func (e *Engine) noticeCustomerCancelled(ch *change) {
	job, customer := ch.job, ch.customer
	ch.notice(func(ctx context.Context) {
		e.dispatcher.DispatchEmail(ctx, customer.BestEmail(job), customer.Name,
			notify.SubjectCancelled(job.ID), notify.TmplStatusChangedCustomer,
			map[string]any{"job_id": job.ID, "user_name": customer.Name})
	})
}

// AllowedTransition reports whether the table models from -> to.
// Exposed for validation at the API boundary.
func AllowedTransition(from, to domain.Status) bool {
	_, ok := transitions[transitionKey{from, to}]
	return ok
}
