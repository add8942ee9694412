// Package transition implements the booking state machine. Status
// changes go through an explicit transition table keyed by (current,
// requested) status; unmodeled transitions are no-ops, never crashes.
// Every transition computes its notification side effects as deferred
// notices which fire only after the job has been persisted, and only
// when the booking is still in the future.
package transition

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/interpretly/booking-be/internal/booking/domain"
	"github.com/interpretly/booking-be/internal/booking/matching"
	"github.com/interpretly/booking-be/internal/booking/notify"
)

// Engine mutates booking state and triggers notification fanout.
type Engine struct {
	store      Store
	matcher    *matching.Engine
	dispatcher *notify.Dispatcher
	clock      notify.Clock
	langs      LanguageResolver
	towns      TownResolver
	audit      AuditLog
	logger     *slog.Logger
}

type Config struct {
	Store      Store
	Matcher    *matching.Engine
	Dispatcher *notify.Dispatcher
	Clock      notify.Clock
	Languages  LanguageResolver
	Towns      TownResolver
	Audit      AuditLog
	Logger     *slog.Logger
}

func NewEngine(cfg Config) *Engine {
	return &Engine{
		store:      cfg.Store,
		matcher:    cfg.Matcher,
		dispatcher: cfg.Dispatcher,
		clock:      cfg.Clock,
		langs:      cfg.Languages,
		towns:      cfg.Towns,
		audit:      cfg.Audit,
		logger:     cfg.Logger,
	}
}

func (e *Engine) languageName(ctx context.Context, id int64) string {
	name, err := e.langs.NameFor(ctx, id)
	if err != nil {
		e.logger.Warn("language lookup failed",
			slog.Int64("language_id", id),
			slog.Any("error", err),
		)
		return strconv.FormatInt(id, 10)
	}
	return name
}

// NotifySuitableTranslators fans the new-booking push out to every
// translator currently eligible for the job, excluding at most one
// translator (the one who just cancelled). Physical-only jobs are
// restricted to translators sharing the customer's town, the same
// filter applied when listing potential jobs.
func (e *Engine) NotifySuitableTranslators(ctx context.Context, job *domain.Job, excludeTranslatorID string) notify.DispatchResult {
	audience, err := e.eligibleAudience(ctx, job, excludeTranslatorID)
	if err != nil {
		e.logger.Error("translator fanout audience failed",
			slog.String("job_id", job.ID),
			slog.Any("error", err),
		)
		return notify.DispatchResult{Errors: []error{err}}
	}
	if len(audience) == 0 {
		// valid state: the job just stays pending
		e.logger.Info("no eligible translators for job",
			slog.String("job_id", job.ID),
		)
		return notify.DispatchResult{}
	}

	language := e.languageName(ctx, job.FromLanguageID)
	customerTown, customerType := e.customerMeta(ctx, job)
	payload := notify.PushPayload{
		JobID:     job.ID,
		Type:      notify.TypeSuitableJob,
		Contents:  notify.NewJobPushText(language, job.Duration, job.Due.Format("2006-01-02 15:04:05"), job.Immediate),
		Data:      notify.PushData(job, customerTown, customerType),
		Emergency: job.Immediate,
	}

	e.logger.Info("push fanout for job",
		slog.String("job_id", job.ID),
		slog.Int("audience", len(audience)),
	)
	return e.dispatcher.DispatchPush(ctx, audience, payload)
}

// NotifySuitableTranslatorsSMS sends the new-booking SMS to every
// eligible translator. Returns how many sends were attempted.
func (e *Engine) NotifySuitableTranslatorsSMS(ctx context.Context, job *domain.Job) (int, error) {
	audience, err := e.eligibleAudience(ctx, job, "")
	if err != nil {
		return 0, err
	}

	date, clock := job.DueDateTime()
	duration := domain.DurationLabel(job.Duration)

	var body string
	switch {
	case job.OnSiteBooking && !job.PhoneBooking:
		town := job.Town
		if town == "" {
			if customer, err := e.store.GetUser(ctx, job.CustomerID); err == nil {
				town = customer.City
			}
		}
		body = notify.PhysicalJobSMS(date, clock, town, duration, job.ID)
	case job.PhoneBooking && !job.OnSiteBooking:
		body = notify.PhoneJobSMS(date, clock, duration, job.ID)
	default:
		// exactly one delivery mode should be active for SMS templating
		e.logger.Warn("ambiguous delivery mode, skipping sms fanout",
			slog.String("job_id", job.ID),
		)
		return 0, nil
	}

	res := e.dispatcher.DispatchSMS(ctx, audience, body)
	return res.Sent, nil
}

// NotifyExpired tells the customer no translator accepted their
// booking. Invoked by the expiry cron through the service layer.
func (e *Engine) NotifyExpired(ctx context.Context, job *domain.Job, customer *domain.User) {
	language := e.languageName(ctx, job.FromLanguageID)
	e.dispatcher.DispatchPush(ctx, []domain.User{*customer}, notify.PushPayload{
		JobID:    job.ID,
		Type:     notify.TypeJobExpired,
		Contents: notify.ExpiredPushText(language, job.Duration, job.Due.Format("2006-01-02 15:04:05")),
	})
}

// PotentialJobs lists the pending jobs a translator may take. The
// physical-only town restriction is applied here with the same
// predicate the fanout uses.
func (e *Engine) PotentialJobs(ctx context.Context, translator *domain.User) ([]domain.Job, error) {
	jobs, err := e.store.ListPendingJobs(ctx, PendingJobsFilter{
		JobType:     domain.JobTypeForTranslator(translator.TranslatorType),
		LanguageIDs: translator.LanguageIDs,
		Gender:      translator.Gender,
		Level:       translator.TranslatorLevel,
	})
	if err != nil {
		return nil, err
	}

	out := jobs[:0]
	for _, job := range jobs {
		if job.PhysicalOnly() {
			shared, err := e.towns.SharesTown(ctx, job.CustomerID, translator.ID)
			if err != nil {
				return nil, err
			}
			if !shared {
				continue
			}
		}
		out = append(out, job)
	}
	return out, nil
}

func (e *Engine) eligibleAudience(ctx context.Context, job *domain.Job, excludeTranslatorID string) ([]domain.User, error) {
	var (
		audience []domain.User
		err      error
	)
	if excludeTranslatorID != "" {
		audience, err = e.matcher.FindEligibleTranslatorsExcluding(ctx, job, excludeTranslatorID)
	} else {
		audience, err = e.matcher.FindEligibleTranslators(ctx, job)
	}
	if err != nil {
		return nil, err
	}
	if !job.PhysicalOnly() {
		return audience, nil
	}

	filtered := audience[:0]
	for _, t := range audience {
		shared, err := e.towns.SharesTown(ctx, job.CustomerID, t.ID)
		if err != nil {
			return nil, err
		}
		if shared {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

func (e *Engine) customerMeta(ctx context.Context, job *domain.Job) (town, consumerType string) {
	customer, err := e.store.GetUser(ctx, job.CustomerID)
	if err != nil {
		return job.Town, ""
	}
	town = job.Town
	if town == "" {
		town = customer.City
	}
	return town, customer.ConsumerType
}

// sessionStartReminder pushes the pre-session reminder to one party.
func (e *Engine) sessionStartReminder(ctx context.Context, user *domain.User, job *domain.Job, language string) {
	dueDate, dueTime := job.DueDateTime()
	e.dispatcher.DispatchPush(ctx, []domain.User{*user}, notify.PushPayload{
		JobID:    job.ID,
		Type:     notify.TypeSessionStartRemind,
		Contents: notify.SessionStartRemindText(language, job.Town, dueDate, dueTime, job.Duration, job.OnSiteBooking),
	})
}

func (e *Engine) now() time.Time { return e.clock.Now() }
