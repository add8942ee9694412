package booking

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interpretly/booking-be/internal/booking/domain"
	"github.com/interpretly/booking-be/internal/booking/event"
	"github.com/interpretly/booking-be/internal/booking/matching"
	"github.com/interpretly/booking-be/internal/booking/notify"
	"github.com/interpretly/booking-be/internal/booking/transition"
)

type memStore struct {
	jobs        map[string]*domain.Job
	users       map[string]*domain.User
	assignments []*domain.Assignment
	eligible    []domain.User
	pending     []domain.Job
	seq         int
}

func newMemStore() *memStore {
	return &memStore{
		jobs:  make(map[string]*domain.Job),
		users: make(map[string]*domain.User),
	}
}

func (s *memStore) putJob(job domain.Job) { s.jobs[job.ID] = &job }

func (s *memStore) putUser(u domain.User) { s.users[u.ID] = &u }

func (s *memStore) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *memStore) SaveJob(ctx context.Context, job *domain.Job) error {
	if _, ok := s.jobs[job.ID]; !ok {
		return domain.ErrJobNotFound
	}
	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *memStore) CreateJob(ctx context.Context, job *domain.Job) error {
	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *memStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	u, ok := s.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *memStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *memStore) ActiveAssignment(ctx context.Context, jobID string) (*domain.Assignment, error) {
	for _, a := range s.assignments {
		if a.JobID == jobID && a.Active() {
			return a, nil
		}
	}
	return nil, nil
}

func (s *memStore) CreateAssignment(ctx context.Context, jobID, translatorID string) (*domain.Assignment, error) {
	s.seq++
	a := &domain.Assignment{
		ID:           fmt.Sprintf("assign-%d", s.seq),
		JobID:        jobID,
		TranslatorID: translatorID,
	}
	s.assignments = append(s.assignments, a)
	return a, nil
}

func (s *memStore) CancelAssignment(ctx context.Context, assignmentID string, at time.Time) error {
	for _, a := range s.assignments {
		if a.ID == assignmentID && a.Active() {
			a.CancelAt = &at
			return nil
		}
	}
	return domain.ErrNoActiveAssignment
}

func (s *memStore) CompleteAssignment(ctx context.Context, assignmentID string, at time.Time, completedBy string) error {
	for _, a := range s.assignments {
		if a.ID == assignmentID && a.Active() {
			a.CompletedAt = &at
			a.CompletedBy = completedBy
			return nil
		}
	}
	return domain.ErrNoActiveAssignment
}

func (s *memStore) AcceptJob(ctx context.Context, jobID, translatorID string, due time.Time, duration int) error {
	job, ok := s.jobs[jobID]
	if !ok {
		return domain.ErrJobNotFound
	}
	if job.Status != domain.StatusPending {
		return domain.ErrJobTaken
	}
	job.Status = domain.StatusAssigned
	_, err := s.CreateAssignment(ctx, jobID, translatorID)
	return err
}

func (s *memStore) ListEligibleTranslators(ctx context.Context, c matching.Criteria) ([]domain.User, error) {
	return s.eligible, nil
}

func (s *memStore) ListPendingJobs(ctx context.Context, f transition.PendingJobsFilter) ([]domain.Job, error) {
	return s.pending, nil
}

func (s *memStore) NameFor(ctx context.Context, languageID int64) (string, error) {
	return "svensk", nil
}

func (s *memStore) SharesTown(ctx context.Context, customerID, translatorID string) (bool, error) {
	return true, nil
}

func (s *memStore) Record(ctx context.Context, actorID, jobID string, changes []transition.Change) error {
	return nil
}

type memPublisher struct{ events []event.Event }

func (p *memPublisher) Publish(ctx context.Context, ev event.Event) error {
	p.events = append(p.events, ev)
	return nil
}

type nopPush struct{}

func (nopPush) Send(ctx context.Context, msg notify.PushMessage) (string, error) { return "ok", nil }

type nopSMS struct{}

func (nopSMS) Send(ctx context.Context, from, to, body string) (string, error) { return "queued", nil }

type memMailer struct{ to []string }

func (m *memMailer) Send(ctx context.Context, toAddress, toName, subject, templateID string, data map[string]any) error {
	m.to = append(m.to, toAddress)
	return nil
}

type serviceFixture struct {
	svc       *Service
	store     *memStore
	publisher *memPublisher
	mailer    *memMailer
	now       time.Time
}

func newServiceFixture() *serviceFixture {
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	store := newMemStore()
	publisher := &memPublisher{}
	mailer := &memMailer{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := notify.ClockFunc(func() time.Time { return now })

	dispatcher := notify.NewDispatcher(notify.Config{
		Push:    nopPush{},
		SMS:     nopSMS{},
		Mailer:  mailer,
		Clock:   clock,
		SMSFrom: "Interpretly",
		Logger:  logger,
	})
	engine := transition.NewEngine(transition.Config{
		Store:      store,
		Matcher:    matching.New(store),
		Dispatcher: dispatcher,
		Clock:      clock,
		Languages:  store,
		Towns:      store,
		Audit:      store,
		Logger:     logger,
	})
	svc := NewService(ServiceConfig{
		Store:      store,
		Engine:     engine,
		Dispatcher: dispatcher,
		Publisher:  publisher,
		Languages:  store,
		Clock:      clock,
		Logger:     logger,
	})
	return &serviceFixture{svc: svc, store: store, publisher: publisher, mailer: mailer, now: now}
}

func (f *serviceFixture) addCustomer() {
	f.store.putUser(domain.User{
		ID:           "cust-1",
		Role:         domain.RoleCustomer,
		Name:         "Anna",
		Email:        "anna@example.se",
		ConsumerType: "paid",
	})
}

func (f *serviceFixture) addTranslator() {
	f.store.putUser(domain.User{
		ID:              "trans-1",
		Role:            domain.RoleTranslator,
		Name:            "Tolk",
		Email:           "tolk@example.se",
		TranslatorType:  domain.TranslatorProfessional,
		TranslatorLevel: domain.LevelCertified,
	})
}

func validCreateRequest(now time.Time) *CreateJobRequest {
	return &CreateJobRequest{
		FromLanguageID: 1,
		Due:            now.Add(48 * time.Hour),
		Duration:       60,
		PhoneBooking:   true,
		JobFor:         []string{"female", "certified_in_law"},
	}
}

func TestCreateJob(t *testing.T) {
	f := newServiceFixture()
	f.addCustomer()

	res, err := f.svc.CreateJob(context.Background(), "cust-1", validCreateRequest(f.now))
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, res.Status)

	job, ok := res.Data.(*domain.Job)
	require.True(t, ok)
	assert.Equal(t, domain.StatusPending, job.Status)
	assert.Equal(t, "cust-1", job.CustomerID)
	assert.Equal(t, domain.JobTypePaid, job.JobType)
	assert.Equal(t, "female", job.Gender)
	assert.Equal(t, domain.CertifiedLaw, job.Certified)
	assert.Equal(t, domain.WillExpireAt(job.Due, f.now), job.WillExpireAt)

	_, persisted := f.store.jobs[job.ID]
	assert.True(t, persisted)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, event.TypeJobCreated, f.publisher.events[0].Type)
	assert.Equal(t, job.ID, f.publisher.events[0].JobID)
}

func TestCreateJob_TranslatorRejected(t *testing.T) {
	f := newServiceFixture()
	f.addTranslator()

	res, err := f.svc.CreateJob(context.Background(), "trans-1", validCreateRequest(f.now))
	require.NoError(t, err)

	assert.Equal(t, StatusFail, res.Status)
	assert.Equal(t, "Translator can not create booking", res.Message)
	assert.Empty(t, f.store.jobs)
}

func TestCreateJob_Validation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(now time.Time, req *CreateJobRequest)
		wantField string
		wantMsg   string
	}{
		{
			name:      "missing language",
			mutate:    func(now time.Time, req *CreateJobRequest) { req.FromLanguageID = 0 },
			wantField: "from_language_id",
		},
		{
			name:      "missing due",
			mutate:    func(now time.Time, req *CreateJobRequest) { req.Due = time.Time{} },
			wantField: "due_date",
		},
		{
			name:      "missing duration",
			mutate:    func(now time.Time, req *CreateJobRequest) { req.Duration = 0 },
			wantField: "duration",
		},
		{
			name: "missing delivery mode",
			mutate: func(now time.Time, req *CreateJobRequest) {
				req.PhoneBooking = false
				req.OnSiteBooking = false
			},
			wantField: "customer_phone_type",
		},
		{
			name:    "due in the past",
			mutate:  func(now time.Time, req *CreateJobRequest) { req.Due = now.Add(-time.Hour) },
			wantMsg: "Can't create booking in past",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture()
			f.addCustomer()

			req := validCreateRequest(f.now)
			tt.mutate(f.now, req)

			res, err := f.svc.CreateJob(context.Background(), "cust-1", req)
			require.NoError(t, err)
			require.Equal(t, StatusFail, res.Status)

			if tt.wantField != "" {
				data, ok := res.Data.(map[string]any)
				require.True(t, ok)
				assert.Equal(t, tt.wantField, data["field_name"])
			}
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, res.Message)
			}
		})
	}
}

func TestCreateJob_ImmediateDefaults(t *testing.T) {
	f := newServiceFixture()
	f.addCustomer()

	res, err := f.svc.CreateJob(context.Background(), "cust-1", &CreateJobRequest{
		FromLanguageID: 1,
		Immediate:      true,
		Duration:       30,
	})
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, res.Status)

	job := res.Data.(*domain.Job)
	assert.Equal(t, f.now.Add(domain.ImmediateDueOffset), job.Due)
	assert.True(t, job.PhoneBooking)
	assert.True(t, job.Immediate)
}

func TestCreateJob_ConfirmationEmail(t *testing.T) {
	f := newServiceFixture()
	f.addCustomer()

	req := validCreateRequest(f.now)
	req.UserEmail = "billing@example.se"
	res, err := f.svc.CreateJob(context.Background(), "cust-1", req)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, res.Status)

	assert.Equal(t, []string{"billing@example.se"}, f.mailer.to)
	job := res.Data.(*domain.Job)
	assert.True(t, f.store.jobs[job.ID].EmailSent)
}

func TestAcceptJob(t *testing.T) {
	f := newServiceFixture()
	f.addCustomer()
	f.addTranslator()
	f.store.putJob(domain.Job{
		ID:             "job-1",
		CustomerID:     "cust-1",
		Status:         domain.StatusPending,
		FromLanguageID: 1,
		Due:            f.now.Add(48 * time.Hour),
		Duration:       60,
	})

	res, err := f.svc.AcceptJob(context.Background(), "job-1", "trans-1")
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Contains(t, res.Message, "Du har nu accepterat")
	assert.Equal(t, domain.StatusAssigned, f.store.jobs["job-1"].Status)
}

func TestAcceptJob_CustomerRejected(t *testing.T) {
	f := newServiceFixture()
	f.addCustomer()

	res, err := f.svc.AcceptJob(context.Background(), "job-1", "cust-1")
	require.NoError(t, err)

	assert.Equal(t, StatusFail, res.Status)
}

func TestAcceptJob_AlreadyTaken(t *testing.T) {
	f := newServiceFixture()
	f.addCustomer()
	f.addTranslator()
	f.store.putJob(domain.Job{
		ID:             "job-1",
		CustomerID:     "cust-1",
		Status:         domain.StatusAssigned,
		FromLanguageID: 1,
		Due:            f.now.Add(48 * time.Hour),
		Duration:       60,
	})

	res, err := f.svc.AcceptJob(context.Background(), "job-1", "trans-1")
	require.NoError(t, err)

	assert.Equal(t, StatusFail, res.Status)
	assert.Contains(t, res.Message, "redan")
}

func TestCancelJob_TranslatorInsideWindow(t *testing.T) {
	f := newServiceFixture()
	f.addCustomer()
	f.addTranslator()
	f.store.putJob(domain.Job{
		ID:         "job-1",
		CustomerID: "cust-1",
		Status:     domain.StatusAssigned,
		Due:        f.now.Add(10 * time.Hour),
	})
	f.store.CreateAssignment(context.Background(), "job-1", "trans-1")

	res, err := f.svc.CancelJob(context.Background(), "job-1", "trans-1")
	require.NoError(t, err)

	assert.Equal(t, StatusFail, res.Status)
	assert.NotEmpty(t, res.Message)
	assert.Equal(t, domain.StatusAssigned, f.store.jobs["job-1"].Status)
}

func TestCancelJob_OwnerWithdraws(t *testing.T) {
	f := newServiceFixture()
	f.addCustomer()
	f.store.putJob(domain.Job{
		ID:         "job-1",
		CustomerID: "cust-1",
		Status:     domain.StatusPending,
		Due:        f.now.Add(48 * time.Hour),
	})

	res, err := f.svc.CancelJob(context.Background(), "job-1", "cust-1")
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, res.Status)
	assert.Equal(t, domain.StatusWithdrawBefore24, f.store.jobs["job-1"].Status)
}

func TestCancelJob_TranslatorWithoutAssignment(t *testing.T) {
	f := newServiceFixture()
	f.addCustomer()
	f.addTranslator()
	f.store.putJob(domain.Job{
		ID:         "job-1",
		CustomerID: "cust-1",
		Status:     domain.StatusPending,
		Due:        f.now.Add(48 * time.Hour),
	})

	res, err := f.svc.CancelJob(context.Background(), "job-1", "trans-1")
	require.NoError(t, err)

	assert.Equal(t, StatusFail, res.Status)
	assert.Equal(t, "Du har inte behörighet att avboka denna bokning", res.Message)
	assert.Equal(t, domain.StatusPending, f.store.jobs["job-1"].Status)
}

func TestCancelJob_StrangerRejected(t *testing.T) {
	f := newServiceFixture()
	f.addCustomer()
	f.store.putUser(domain.User{ID: "cust-2", Role: domain.RoleCustomer})
	f.store.putJob(domain.Job{
		ID:         "job-1",
		CustomerID: "cust-1",
		Status:     domain.StatusPending,
		Due:        f.now.Add(48 * time.Hour),
	})

	res, err := f.svc.CancelJob(context.Background(), "job-1", "cust-2")
	require.NoError(t, err)

	assert.Equal(t, StatusFail, res.Status)
	assert.Equal(t, domain.StatusPending, f.store.jobs["job-1"].Status)
}

func TestEndJob_NoActiveTranslator(t *testing.T) {
	f := newServiceFixture()
	f.addCustomer()
	f.store.putJob(domain.Job{
		ID:         "job-1",
		CustomerID: "cust-1",
		Status:     domain.StatusStarted,
		Due:        f.now.Add(-time.Hour),
	})

	res, err := f.svc.EndJob(context.Background(), "job-1", "cust-1")
	require.NoError(t, err)

	assert.Equal(t, StatusFail, res.Status)
	assert.Equal(t, "Bokningen har ingen aktiv tolk", res.Message)
}

func TestUpdateJob_NothingToUpdate(t *testing.T) {
	f := newServiceFixture()
	f.addCustomer()
	f.store.putJob(domain.Job{
		ID:         "job-1",
		CustomerID: "cust-1",
		Status:     domain.StatusPending,
		Due:        f.now.Add(48 * time.Hour),
	})

	res, err := f.svc.UpdateJob(context.Background(), "job-1", "admin-1", &transition.UpdateRequest{})
	require.NoError(t, err)

	assert.Equal(t, StatusFail, res.Status)
	assert.Equal(t, "Nothing to update", res.Message)
}

func TestGetPotentialJobs_CustomerRejected(t *testing.T) {
	f := newServiceFixture()
	f.addCustomer()

	res, err := f.svc.GetPotentialJobs(context.Background(), "cust-1")
	require.NoError(t, err)

	assert.Equal(t, StatusFail, res.Status)
}

func TestResendNotifications(t *testing.T) {
	f := newServiceFixture()
	f.store.putJob(domain.Job{ID: "job-1", Status: domain.StatusPending})

	res, err := f.svc.ResendNotifications(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, res.Status)

	smsRes, err := f.svc.ResendSMSNotifications(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, smsRes.Status)

	require.Len(t, f.publisher.events, 2)
	assert.Equal(t, event.TypePushResend, f.publisher.events[0].Type)
	assert.Equal(t, event.TypeSMSResend, f.publisher.events[1].Type)
}

func TestResendNotifications_UnknownJob(t *testing.T) {
	f := newServiceFixture()

	_, err := f.svc.ResendNotifications(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}
