package transition

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/interpretly/booking-be/internal/booking/domain"
	"github.com/interpretly/booking-be/internal/booking/notify"
)

// UpdateRequest is the admin booking update. Zero values mean "leave
// unchanged"; each populated field is evaluated as an isolated diff
// with its own guard and audit entry.
type UpdateRequest struct {
	Status          domain.Status
	Due             *time.Time
	FromLanguageID  *int64
	TranslatorID    string
	TranslatorEmail string
	AdminComments   string
	Reference       string
	SessionTime     string
}

// UpdateResult reports which diffs were applied.
type UpdateResult struct {
	Changed           bool
	TranslatorChanged bool
	DateChanged       bool
	LanguageChanged   bool
	StatusChanged     bool
}

// Update applies the aggregate booking update: the translator, due,
// language and status diffs are evaluated independently, their audit
// entries unioned into a single record, the job persisted once, and
// only then the notifications for the non-empty diffs fired. All
// notification side effects are suppressed when the booking's due time
// is not strictly in the future.
func (e *Engine) Update(ctx context.Context, jobID, actorID string, req *UpdateRequest) (*UpdateResult, error) {
	job, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	customer, err := e.store.GetUser(ctx, job.CustomerID)
	if err != nil {
		return nil, err
	}

	ch := &change{job: job, req: req, customer: customer}

	ch.current, err = e.store.ActiveAssignment(ctx, job.ID)
	if err != nil {
		return nil, err
	}
	if ch.current != nil {
		ch.currentTranslator, err = e.store.GetUser(ctx, ch.current.TranslatorID)
		if err != nil {
			return nil, err
		}
	}

	res := &UpdateResult{}

	if res.TranslatorChanged, err = e.changeTranslator(ctx, ch); err != nil {
		return nil, err
	}

	var oldDue time.Time
	if res.DateChanged, oldDue = e.changeDue(ch); res.DateChanged {
		job, oldDue := job, oldDue
		ch.notice(func(ctx context.Context) {
			e.sendChangedDateNotification(ctx, job, ch.currentTranslator, ch.newTranslator, oldDue)
		})
	}

	var oldLang int64
	if res.LanguageChanged, oldLang = e.changeLanguage(ctx, ch); res.LanguageChanged {
		job, oldLang := job, oldLang
		ch.notice(func(ctx context.Context) {
			e.sendChangedLangNotification(ctx, job, ch.currentTranslator, ch.newTranslator, oldLang)
		})
	}

	if res.StatusChanged, err = e.changeStatus(ctx, ch); err != nil {
		return nil, err
	}

	if req.AdminComments != "" {
		job.AdminComments = req.AdminComments
	}
	if req.Reference != "" {
		job.Reference = req.Reference
	}

	res.Changed = res.TranslatorChanged || res.DateChanged || res.LanguageChanged || res.StatusChanged

	now := e.now()
	job.UpdatedAt = now
	if err := e.store.SaveJob(ctx, job); err != nil {
		return nil, err
	}

	// audit only what actually persisted
	if len(ch.logs) > 0 {
		if err := e.audit.Record(ctx, actorID, job.ID, ch.logs); err != nil {
			e.logger.Error("audit record failed",
				slog.String("job_id", job.ID),
				slog.Any("error", err),
			)
		}
		e.logger.Info("booking updated",
			slog.String("actor_id", actorID),
			slog.String("job_id", job.ID),
			slog.Int("changes", len(ch.logs)),
		)
	}

	// only notify for future-dated bookings; a booking already past its
	// due time persists the changes silently
	if job.Due.After(now) {
		for _, fn := range ch.notices {
			fn(ctx)
		}
	}

	return res, nil
}

// changeTranslator evaluates the reassignment diff. The active
// assignment is cancelled before the replacement row is inserted, so
// the per-job assignment history is append-only.
func (e *Engine) changeTranslator(ctx context.Context, ch *change) (bool, error) {
	req := ch.req
	if req.TranslatorID == "" && req.TranslatorEmail == "" {
		return false, nil
	}

	var newTranslator *domain.User
	var err error
	if req.TranslatorEmail != "" {
		newTranslator, err = e.store.GetUserByEmail(ctx, req.TranslatorEmail)
	} else {
		newTranslator, err = e.store.GetUser(ctx, req.TranslatorID)
	}
	if err != nil {
		return false, fmt.Errorf("failed to resolve translator: %w", err)
	}

	if ch.current != nil && ch.current.TranslatorID == newTranslator.ID {
		return false, nil
	}

	oldEmail := ""
	if ch.current != nil {
		if err := e.store.CancelAssignment(ctx, ch.current.ID, e.now()); err != nil {
			return false, err
		}
		if ch.currentTranslator != nil {
			oldEmail = ch.currentTranslator.Email
		}
	}
	if _, err := e.store.CreateAssignment(ctx, ch.job.ID, newTranslator.ID); err != nil {
		return false, err
	}

	ch.translatorChanged = true
	ch.newTranslator = newTranslator
	ch.log("translator", oldEmail, newTranslator.Email)

	job, current, translator := ch.job, ch.currentTranslator, newTranslator
	ch.notice(func(ctx context.Context) {
		e.sendChangedTranslatorNotification(ctx, job, ch.customer, current, translator)
	})
	return true, nil
}

// changeDue evaluates the due-time diff. will_expire_at is always
// recomputed alongside, never set independently.
func (e *Engine) changeDue(ch *change) (bool, time.Time) {
	req := ch.req
	if req.Due == nil || req.Due.Equal(ch.job.Due) {
		return false, time.Time{}
	}
	old := ch.job.Due
	ch.job.Due = *req.Due
	ch.job.WillExpireAt = domain.WillExpireAt(ch.job.Due, e.now())
	ch.log("due", old.Format(time.RFC3339), ch.job.Due.Format(time.RFC3339))
	return true, old
}

// changeLanguage evaluates the language diff, logging display names
// rather than raw ids.
func (e *Engine) changeLanguage(ctx context.Context, ch *change) (bool, int64) {
	req := ch.req
	if req.FromLanguageID == nil || *req.FromLanguageID == ch.job.FromLanguageID {
		return false, 0
	}
	old := ch.job.FromLanguageID
	ch.job.FromLanguageID = *req.FromLanguageID
	ch.log("language", e.languageName(ctx, old), e.languageName(ctx, ch.job.FromLanguageID))
	return true, old
}

func (e *Engine) sendChangedTranslatorNotification(ctx context.Context, job *domain.Job, customer, oldTranslator, newTranslator *domain.User) {
	subject := notify.SubjectChangedTranslator(job.ID)
	data := map[string]any{"job_id": job.ID}

	e.dispatcher.DispatchEmail(ctx, customer.BestEmail(job), customer.Name, subject, notify.TmplChangedTranslatorCust, data)
	if oldTranslator != nil {
		e.dispatcher.DispatchEmail(ctx, oldTranslator.Email, oldTranslator.Name, subject, notify.TmplChangedTranslatorOld, data)
	}
	e.dispatcher.DispatchEmail(ctx, newTranslator.Email, newTranslator.Name, subject, notify.TmplChangedTranslatorNew, data)
}

func (e *Engine) sendChangedDateNotification(ctx context.Context, job *domain.Job, oldTranslator, newTranslator *domain.User, oldTime time.Time) {
	customer, err := e.store.GetUser(ctx, job.CustomerID)
	if err != nil {
		e.logger.Error("customer lookup failed for date-change email", slog.Any("error", err))
		return
	}
	subject := notify.SubjectChangedBooking(job.ID)
	data := map[string]any{
		"job_id":   job.ID,
		"old_time": oldTime.Format("2006-01-02 15:04:05"),
	}
	e.dispatcher.DispatchEmail(ctx, customer.BestEmail(job), customer.Name, subject, notify.TmplChangedDate, data)

	if translator := pickAssigned(oldTranslator, newTranslator); translator != nil {
		e.dispatcher.DispatchEmail(ctx, translator.Email, translator.Name, subject, notify.TmplChangedDate, data)
	}
}

func (e *Engine) sendChangedLangNotification(ctx context.Context, job *domain.Job, oldTranslator, newTranslator *domain.User, oldLang int64) {
	customer, err := e.store.GetUser(ctx, job.CustomerID)
	if err != nil {
		e.logger.Error("customer lookup failed for language-change email", slog.Any("error", err))
		return
	}
	subject := notify.SubjectChangedBooking(job.ID)
	data := map[string]any{
		"job_id":   job.ID,
		"old_lang": e.languageName(ctx, oldLang),
		"new_lang": e.languageName(ctx, job.FromLanguageID),
	}
	e.dispatcher.DispatchEmail(ctx, customer.BestEmail(job), customer.Name, subject, notify.TmplChangedLang, data)

	if translator := pickAssigned(oldTranslator, newTranslator); translator != nil {
		e.dispatcher.DispatchEmail(ctx, translator.Email, translator.Name, subject, notify.TmplChangedLang, data)
	}
}

// pickAssigned resolves "the translator on the job" after an update:
// the replacement when a reassignment happened, otherwise the one who
// was already active.
func pickAssigned(oldTranslator, newTranslator *domain.User) *domain.User {
	if newTranslator != nil {
		return newTranslator
	}
	return oldTranslator
}
