// Package booking exposes the orchestration layer callers go through.
// Role preconditions and input validation live here; state changes and
// notification fanout are delegated to the transition engine. Expected
// business-rule failures come back as fail results, never errors.
package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/interpretly/booking-be/internal/booking/domain"
	"github.com/interpretly/booking-be/internal/booking/event"
	"github.com/interpretly/booking-be/internal/booking/notify"
	"github.com/interpretly/booking-be/internal/booking/transition"
)

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
)

// Result is the structured outcome of a service call. Fail results
// carry a user-displayable message; hard errors (not found, storage)
// are returned as errors instead.
type Result struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func success(data any) *Result {
	return &Result{Status: StatusSuccess, Data: data}
}

func fail(message string, data any) *Result {
	return &Result{Status: StatusFail, Message: message, Data: data}
}

// Publisher hands fanout work to the notification worker.
type Publisher interface {
	Publish(ctx context.Context, ev event.Event) error
}

// Service orchestrates booking operations.
type Service struct {
	store      transition.Store
	engine     *transition.Engine
	dispatcher *notify.Dispatcher
	publisher  Publisher
	langs      transition.LanguageResolver
	clock      notify.Clock
	logger     *slog.Logger
}

type ServiceConfig struct {
	Store      transition.Store
	Engine     *transition.Engine
	Dispatcher *notify.Dispatcher
	Publisher  Publisher
	Languages  transition.LanguageResolver
	Clock      notify.Clock
	Logger     *slog.Logger
}

func NewService(cfg ServiceConfig) *Service {
	return &Service{
		store:      cfg.Store,
		engine:     cfg.Engine,
		dispatcher: cfg.Dispatcher,
		publisher:  cfg.Publisher,
		langs:      cfg.Languages,
		clock:      cfg.Clock,
		logger:     cfg.Logger,
	}
}

// CreateJobRequest carries the fields a customer submits when booking
// an interpreter. For immediate bookings Due is ignored and the slot
// starts a fixed offset from now, by phone.
type CreateJobRequest struct {
	FromLanguageID int64
	Immediate      bool
	Due            time.Time
	Duration       int
	PhoneBooking   bool
	OnSiteBooking  bool
	JobFor         []string
	Town           string
	Address        string
	Instructions   string
	UserEmail      string
	Reference      string
}

// CreateJob validates and stores a new booking, then queues the
// translator fanout. Only customers can create bookings.
func (s *Service) CreateJob(ctx context.Context, customerID string, req *CreateJobRequest) (*Result, error) {
	customer, err := s.store.GetUser(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if !customer.CanCreateBooking() {
		return fail("Translator can not create booking", nil), nil
	}

	if req.FromLanguageID == 0 {
		return failMissing("from_language_id"), nil
	}

	now := s.clock.Now()
	job := &domain.Job{
		ID:             uuid.NewString(),
		CustomerID:     customer.ID,
		Status:         domain.StatusPending,
		FromLanguageID: req.FromLanguageID,
		Immediate:      req.Immediate,
		Duration:       req.Duration,
		Town:           req.Town,
		Address:        req.Address,
		Instructions:   req.Instructions,
		UserEmail:      req.UserEmail,
		Reference:      req.Reference,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if req.Immediate {
		job.Due = now.Add(domain.ImmediateDueOffset)
		job.PhoneBooking = true
	} else {
		if req.Due.IsZero() {
			return failMissing("due_date"), nil
		}
		if req.Duration == 0 {
			return failMissing("duration"), nil
		}
		if !req.PhoneBooking && !req.OnSiteBooking {
			return failMissing("customer_phone_type"), nil
		}
		if !req.Due.After(now) {
			return fail("Can't create booking in past", nil), nil
		}
		job.Due = req.Due
		job.PhoneBooking = req.PhoneBooking
		job.OnSiteBooking = req.OnSiteBooking
	}

	job.Gender = domain.GenderFromJobFor(req.JobFor)
	job.Certified = domain.CertifiedFromJobFor(req.JobFor)
	job.JobType = domain.JobTypeForConsumer(customer.ConsumerType)
	job.WillExpireAt = domain.WillExpireAt(job.Due, now)

	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	if job.UserEmail != "" {
		s.dispatcher.DispatchEmail(ctx, job.UserEmail, customer.Name,
			notify.SubjectJobReceived(job.ID), notify.TmplJobCreated,
			map[string]any{"job_id": job.ID, "user_name": customer.Name})
		job.EmailSent = true
		if err := s.store.SaveJob(ctx, job); err != nil {
			s.logger.Error("marking booking email sent failed",
				slog.String("job_id", job.ID), slog.Any("error", err))
		}
	}

	s.publish(ctx, event.Event{Type: event.TypeJobCreated, JobID: job.ID})
	return success(job), nil
}

// AcceptJob claims a pending booking for a translator. Races and
// double bookings come back as fail results with the message the
// translator should see.
func (s *Service) AcceptJob(ctx context.Context, jobID, translatorID string) (*Result, error) {
	translator, err := s.store.GetUser(ctx, translatorID)
	if err != nil {
		return nil, err
	}
	if !translator.CanAccept() {
		return fail("Du har inte behörighet att acceptera bokningar", nil), nil
	}

	job, err := s.engine.Accept(ctx, jobID, translator.ID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrJobTaken):
			lost, lookupErr := s.store.GetJob(ctx, jobID)
			if lookupErr != nil {
				return nil, lookupErr
			}
			return fail(notify.AlreadyAcceptedMessage(s.languageName(ctx, lost.FromLanguageID),
				lost.Duration, lost.Due.Format("2006-01-02 15:04:05")), nil), nil
		case errors.Is(err, domain.ErrTranslatorBooked):
			lost, lookupErr := s.store.GetJob(ctx, jobID)
			if lookupErr != nil {
				return nil, lookupErr
			}
			return fail(notify.DoubleBookedMessage(lost.Due.Format("2006-01-02 15:04:05")), nil), nil
		default:
			return nil, err
		}
	}

	message := notify.AcceptedConfirmation(s.languageName(ctx, job.FromLanguageID),
		job.Duration, job.Due.Format("2006-01-02 15:04:05"))
	return &Result{Status: StatusSuccess, Message: message, Data: job}, nil
}

// CancelJob withdraws a booking. The owning customer and the assigned
// translator take different branches; a translator inside the 24 hour
// window gets a fail result.
func (s *Service) CancelJob(ctx context.Context, jobID, actorID string) (*Result, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	actor, err := s.store.GetUser(ctx, actorID)
	if err != nil {
		return nil, err
	}

	switch {
	case actor.Role == domain.RoleTranslator:
		err := s.engine.CancelByTranslator(ctx, job, actor.ID)
		switch {
		case errors.Is(err, transition.ErrCancelWindow):
			return fail(notify.CancelWindowMessage(), nil), nil
		case errors.Is(err, domain.ErrNoActiveAssignment):
			// not the assigned translator: a permission failure, not a
			// server error
			return fail("Du har inte behörighet att avboka denna bokning", nil), nil
		case err != nil:
			return nil, err
		}
		return success(job), nil

	case actor.CanCancel(job):
		if err := s.engine.CancelByCustomer(ctx, job); err != nil {
			return nil, err
		}
		return success(job), nil

	default:
		return fail("Du har inte behörighet att avboka denna bokning", nil), nil
	}
}

// EndJob completes a started session. Session time is computed
// server-side from the booking's due time.
func (s *Service) EndJob(ctx context.Context, jobID, actorID string) (*Result, error) {
	if err := s.engine.End(ctx, jobID, actorID); err != nil {
		if errors.Is(err, domain.ErrNoActiveAssignment) {
			return fail("Bokningen har ingen aktiv tolk", nil), nil
		}
		return nil, err
	}
	return success(nil), nil
}

// CustomerNoShow closes a session the customer missed.
func (s *Service) CustomerNoShow(ctx context.Context, jobID, actorID string) (*Result, error) {
	if err := s.engine.CustomerNoShow(ctx, jobID); err != nil {
		if errors.Is(err, domain.ErrNoActiveAssignment) {
			return fail("Bokningen har ingen aktiv tolk", nil), nil
		}
		return nil, err
	}
	s.logger.Info("customer no-show recorded",
		slog.String("job_id", jobID), slog.String("actor_id", actorID))
	return success(nil), nil
}

// ReopenJob puts a closed booking back on the market.
func (s *Service) ReopenJob(ctx context.Context, jobID, actorID string) (*Result, error) {
	if err := s.engine.Reopen(ctx, jobID, actorID); err != nil {
		return nil, err
	}
	return &Result{Status: StatusSuccess, Message: "Tolk cancelled!"}, nil
}

// UpdateJob applies an admin edit; see the transition engine for the
// diff and notification semantics.
func (s *Service) UpdateJob(ctx context.Context, jobID, adminID string, req *transition.UpdateRequest) (*Result, error) {
	res, err := s.engine.Update(ctx, jobID, adminID, req)
	if err != nil {
		return nil, err
	}
	if !res.Changed {
		return fail("Nothing to update", nil), nil
	}
	return success(res), nil
}

// GetPotentialJobs lists the pending bookings a translator could take.
func (s *Service) GetPotentialJobs(ctx context.Context, translatorID string) (*Result, error) {
	translator, err := s.store.GetUser(ctx, translatorID)
	if err != nil {
		return nil, err
	}
	if translator.Role != domain.RoleTranslator {
		return fail("Only translators have potential bookings", nil), nil
	}
	jobs, err := s.engine.PotentialJobs(ctx, translator)
	if err != nil {
		return nil, err
	}
	return success(jobs), nil
}

// ResendNotifications queues a fresh push fanout for a booking.
func (s *Service) ResendNotifications(ctx context.Context, jobID string) (*Result, error) {
	if _, err := s.store.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	s.publish(ctx, event.Event{Type: event.TypePushResend, JobID: jobID})
	return &Result{Status: StatusSuccess, Message: "Push sent"}, nil
}

// ResendSMSNotifications queues a fresh SMS fanout for a booking.
func (s *Service) ResendSMSNotifications(ctx context.Context, jobID string) (*Result, error) {
	if _, err := s.store.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	s.publish(ctx, event.Event{Type: event.TypeSMSResend, JobID: jobID})
	return &Result{Status: StatusSuccess, Message: "SMS sent"}, nil
}

func (s *Service) publish(ctx context.Context, ev event.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Error("publishing booking event failed",
			slog.String("type", ev.Type),
			slog.String("job_id", ev.JobID),
			slog.Any("error", err),
		)
	}
}

func (s *Service) languageName(ctx context.Context, id int64) string {
	name, err := s.langs.NameFor(ctx, id)
	if err != nil {
		return ""
	}
	return name
}

func failMissing(field string) *Result {
	return fail(notify.MissingFieldMessage(), map[string]any{"field_name": field})
}
