package transition

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interpretly/booking-be/internal/booking/domain"
	"github.com/interpretly/booking-be/internal/booking/matching"
	"github.com/interpretly/booking-be/internal/booking/notify"
)

// fakeStore is an in-memory Store that also serves as the language,
// town and audit collaborators, mirroring how the real storage layer
// backs all four ports.
type fakeStore struct {
	jobs        map[string]*domain.Job
	users       map[string]*domain.User
	assignments []*domain.Assignment
	eligible    []domain.User
	pending     []domain.Job
	languages   map[int64]string

	lastCriteria matching.Criteria
	audits       [][]Change
	auditActors  []string
	seq          int

	saveErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		jobs:      make(map[string]*domain.Job),
		users:     make(map[string]*domain.User),
		languages: map[int64]string{1: "Swedish", 2: "Arabic"},
	}
}

func (s *fakeStore) putJob(job domain.Job) { s.jobs[job.ID] = &job }

func (s *fakeStore) putUser(u domain.User) { s.users[u.ID] = &u }

func (s *fakeStore) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *fakeStore) SaveJob(ctx context.Context, job *domain.Job) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	if _, ok := s.jobs[job.ID]; !ok {
		return domain.ErrJobNotFound
	}
	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *fakeStore) CreateJob(ctx context.Context, job *domain.Job) error {
	cp := *job
	s.jobs[job.ID] = &cp
	return nil
}

func (s *fakeStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	u, ok := s.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *fakeStore) ActiveAssignment(ctx context.Context, jobID string) (*domain.Assignment, error) {
	for _, a := range s.assignments {
		if a.JobID == jobID && a.Active() {
			return a, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) CreateAssignment(ctx context.Context, jobID, translatorID string) (*domain.Assignment, error) {
	s.seq++
	a := &domain.Assignment{
		ID:           fmt.Sprintf("assign-%d", s.seq),
		JobID:        jobID,
		TranslatorID: translatorID,
	}
	s.assignments = append(s.assignments, a)
	return a, nil
}

func (s *fakeStore) CancelAssignment(ctx context.Context, assignmentID string, at time.Time) error {
	for _, a := range s.assignments {
		if a.ID == assignmentID && a.Active() {
			a.CancelAt = &at
			return nil
		}
	}
	return domain.ErrNoActiveAssignment
}

func (s *fakeStore) CompleteAssignment(ctx context.Context, assignmentID string, at time.Time, completedBy string) error {
	for _, a := range s.assignments {
		if a.ID == assignmentID && a.Active() {
			a.CompletedAt = &at
			a.CompletedBy = completedBy
			return nil
		}
	}
	return domain.ErrNoActiveAssignment
}

func (s *fakeStore) AcceptJob(ctx context.Context, jobID, translatorID string, due time.Time, duration int) error {
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

func (s *fakeStore) ListEligibleTranslators(ctx context.Context, c matching.Criteria) ([]domain.User, error) {
	s.lastCriteria = c
	return s.eligible, nil
}

func (s *fakeStore) ListPendingJobs(ctx context.Context, f PendingJobsFilter) ([]domain.Job, error) {
	return s.pending, nil
}

func (s *fakeStore) NameFor(ctx context.Context, languageID int64) (string, error) {
	name, ok := s.languages[languageID]
	if !ok {
		return "", fmt.Errorf("language %d not found", languageID)
	}
	return name, nil
}

func (s *fakeStore) SharesTown(ctx context.Context, customerID, translatorID string) (bool, error) {
	c, ok := s.users[customerID]
	if !ok {
		return false, domain.ErrUserNotFound
	}
	t, ok := s.users[translatorID]
	if !ok {
		return false, domain.ErrUserNotFound
	}
	return c.City != "" && c.City == t.City, nil
}

func (s *fakeStore) Record(ctx context.Context, actorID, jobID string, changes []Change) error {
	s.auditActors = append(s.auditActors, actorID)
	s.audits = append(s.audits, changes)
	return nil
}

func (s *fakeStore) assignmentsFor(jobID string) []*domain.Assignment {
	var out []*domain.Assignment
	for _, a := range s.assignments {
		if a.JobID == jobID {
			out = append(out, a)
		}
	}
	return out
}

type capturePush struct{ calls []notify.PushMessage }

func (c *capturePush) Send(ctx context.Context, msg notify.PushMessage) (string, error) {
	c.calls = append(c.calls, msg)
	return "ok", nil
}

func (c *capturePush) allEmails() []string {
	var out []string
	for _, call := range c.calls {
		out = append(out, call.Emails...)
	}
	return out
}

type captureSMS struct{ to []string }

func (c *captureSMS) Send(ctx context.Context, from, to, body string) (string, error) {
	c.to = append(c.to, to)
	return "queued", nil
}

type mailCall struct {
	to       string
	subject  string
	template string
	data     map[string]any
}

type captureMail struct{ calls []mailCall }

func (c *captureMail) Send(ctx context.Context, toAddress, toName, subject, templateID string, data map[string]any) error {
	c.calls = append(c.calls, mailCall{to: toAddress, subject: subject, template: templateID, data: data})
	return nil
}

func (c *captureMail) templates() []string {
	var out []string
	for _, call := range c.calls {
		out = append(out, call.template)
	}
	return out
}

type testEngine struct {
	*Engine
	store *fakeStore
	push  *capturePush
	sms   *captureSMS
	mail  *captureMail
	now   time.Time
}

func newTestEngine(store *fakeStore, now time.Time) *testEngine {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	push := &capturePush{}
	sms := &captureSMS{}
	mail := &captureMail{}
	clock := notify.ClockFunc(func() time.Time { return now })

	dispatcher := notify.NewDispatcher(notify.Config{
		Push:    push,
		SMS:     sms,
		Mailer:  mail,
		Clock:   clock,
		SMSFrom: "Interpretly",
		Logger:  logger,
	})
	engine := NewEngine(Config{
		Store:      store,
		Matcher:    matching.New(store),
		Dispatcher: dispatcher,
		Clock:      clock,
		Languages:  store,
		Towns:      store,
		Audit:      store,
		Logger:     logger,
	})
	return &testEngine{Engine: engine, store: store, push: push, sms: sms, mail: mail, now: now}
}

// noon is a fixed daytime reference so push partitioning never delays.
var noon = time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)

func pendingJob(id string, due time.Time) domain.Job {
	return domain.Job{
		ID:             id,
		CustomerID:     "cust-1",
		Status:         domain.StatusPending,
		JobType:        domain.JobTypePaid,
		FromLanguageID: 1,
		Due:            due,
		Duration:       60,
		PhoneBooking:   true,
	}
}

func customer() domain.User {
	return domain.User{
		ID:          "cust-1",
		Role:        domain.RoleCustomer,
		Name:        "Anna",
		Email:       "anna@example.se",
		City:        "Stockholm",
		PushEnabled: true,
	}
}

func translator(id, email string) domain.User {
	return domain.User{
		ID:              id,
		Role:            domain.RoleTranslator,
		Name:            "T " + id,
		Email:           email,
		Mobile:          "+46" + id,
		City:            "Stockholm",
		TranslatorType:  domain.TranslatorProfessional,
		TranslatorLevel: domain.LevelCertified,
		PushEnabled:     true,
	}
}

func TestAccept(t *testing.T) {
	store := newFakeStore()
	store.putJob(pendingJob("job-1", noon.Add(48*time.Hour)))
	store.putUser(customer())
	e := newTestEngine(store, noon)

	job, err := e.Accept(context.Background(), "job-1", "trans-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAssigned, job.Status)

	assert.Equal(t, domain.StatusAssigned, store.jobs["job-1"].Status)
	assignments := store.assignmentsFor("job-1")
	require.Len(t, assignments, 1)
	assert.Equal(t, "trans-1", assignments[0].TranslatorID)
	assert.True(t, assignments[0].Active())

	require.Len(t, e.mail.calls, 1)
	assert.Equal(t, "anna@example.se", e.mail.calls[0].to)
	assert.Equal(t, notify.TmplJobAccepted, e.mail.calls[0].template)
	require.Len(t, e.push.calls, 1)
	assert.Equal(t, []string{"anna@example.se"}, e.push.calls[0].Emails)
	assert.Equal(t, notify.TypeJobAccepted, e.push.calls[0].Data["notification_type"])
}

func TestAccept_JobTaken(t *testing.T) {
	store := newFakeStore()
	job := pendingJob("job-1", noon.Add(48*time.Hour))
	job.Status = domain.StatusAssigned
	store.putJob(job)
	store.putUser(customer())
	e := newTestEngine(store, noon)

	_, err := e.Accept(context.Background(), "job-1", "trans-1")
	assert.ErrorIs(t, err, domain.ErrJobTaken)
	assert.Empty(t, e.mail.calls)
}

func TestCancelByCustomer_OutsideWindow(t *testing.T) {
	store := newFakeStore()
	store.putJob(pendingJob("job-1", noon.Add(30*time.Hour)))
	store.putUser(customer())
	e := newTestEngine(store, noon)

	job, _ := store.GetJob(context.Background(), "job-1")
	require.NoError(t, e.CancelByCustomer(context.Background(), job))

	saved := store.jobs["job-1"]
	assert.Equal(t, domain.StatusWithdrawBefore24, saved.Status)
	require.NotNil(t, saved.WithdrawAt)
	assert.Equal(t, noon, *saved.WithdrawAt)
}

func TestCancelByCustomer_InsideWindowClosesAssignment(t *testing.T) {
	store := newFakeStore()
	store.putJob(pendingJob("job-1", noon.Add(10*time.Hour)))
	store.putUser(customer())
	store.putUser(translator("trans-1", "t1@example.se"))
	store.CreateAssignment(context.Background(), "job-1", "trans-1")
	e := newTestEngine(store, noon)

	job, _ := store.GetJob(context.Background(), "job-1")
	require.NoError(t, e.CancelByCustomer(context.Background(), job))

	assert.Equal(t, domain.StatusWithdrawAfter24, store.jobs["job-1"].Status)
	assignments := store.assignmentsFor("job-1")
	require.Len(t, assignments, 1)
	assert.False(t, assignments[0].Active())

	// the assigned translator is told over push
	assert.Equal(t, []string{"t1@example.se"}, e.push.allEmails())
}

func TestCancelByTranslator_InsideWindowRejected(t *testing.T) {
	store := newFakeStore()
	store.putJob(pendingJob("job-1", noon.Add(23*time.Hour)))
	store.putUser(customer())
	store.CreateAssignment(context.Background(), "job-1", "trans-1")
	e := newTestEngine(store, noon)

	job, _ := store.GetJob(context.Background(), "job-1")
	err := e.CancelByTranslator(context.Background(), job, "trans-1")
	assert.ErrorIs(t, err, ErrCancelWindow)

	assert.Equal(t, domain.StatusPending, store.jobs["job-1"].Status)
	assert.True(t, store.assignmentsFor("job-1")[0].Active())
}

func TestCancelByTranslator_NotTheAssignee(t *testing.T) {
	store := newFakeStore()
	store.putJob(pendingJob("job-1", noon.Add(48*time.Hour)))
	store.putUser(customer())
	store.CreateAssignment(context.Background(), "job-1", "trans-1")
	e := newTestEngine(store, noon)

	job, _ := store.GetJob(context.Background(), "job-1")
	err := e.CancelByTranslator(context.Background(), job, "someone-else")
	assert.ErrorIs(t, err, domain.ErrNoActiveAssignment)
}

func TestCancelByTranslator_ReopensAndRefansOut(t *testing.T) {
	store := newFakeStore()
	due := noon.Add(48 * time.Hour)
	job := pendingJob("job-1", due)
	job.Status = domain.StatusAssigned
	store.putJob(job)
	store.putUser(customer())
	store.putUser(translator("trans-1", "t1@example.se"))
	store.CreateAssignment(context.Background(), "job-1", "trans-1")
	store.eligible = []domain.User{
		translator("trans-1", "t1@example.se"),
		translator("trans-2", "t2@example.se"),
	}
	e := newTestEngine(store, noon)

	got, _ := store.GetJob(context.Background(), "job-1")
	require.NoError(t, e.CancelByTranslator(context.Background(), got, "trans-1"))

	saved := store.jobs["job-1"]
	assert.Equal(t, domain.StatusPending, saved.Status)
	assert.Equal(t, domain.WillExpireAt(due, noon), saved.WillExpireAt)
	assert.False(t, store.assignmentsFor("job-1")[0].Active())

	// customer notified, then fanout to everyone except the canceller
	assert.Equal(t, "trans-1", store.lastCriteria.ExcludeTranslatorID)
	emails := e.push.allEmails()
	assert.Contains(t, emails, "anna@example.se")
	assert.Contains(t, emails, "t2@example.se")
	assert.NotContains(t, emails, "t1@example.se")
}

func TestEnd(t *testing.T) {
	store := newFakeStore()
	due := noon.Add(-90 * time.Minute)
	job := pendingJob("job-1", due)
	job.Status = domain.StatusStarted
	store.putJob(job)
	store.putUser(customer())
	store.putUser(translator("trans-1", "t1@example.se"))
	store.CreateAssignment(context.Background(), "job-1", "trans-1")
	e := newTestEngine(store, noon)

	require.NoError(t, e.End(context.Background(), "job-1", "cust-1"))

	saved := store.jobs["job-1"]
	assert.Equal(t, domain.StatusCompleted, saved.Status)
	assert.Equal(t, "1:30:0", saved.SessionTime)
	require.NotNil(t, saved.EndAt)

	a := store.assignmentsFor("job-1")[0]
	assert.NotNil(t, a.CompletedAt)
	assert.Equal(t, "cust-1", a.CompletedBy)

	require.Len(t, e.mail.calls, 2)
	assert.Equal(t, "faktura", e.mail.calls[0].data["for_text"])
	assert.Equal(t, "lön", e.mail.calls[1].data["for_text"])
}

func TestEnd_NoActiveAssignment(t *testing.T) {
	store := newFakeStore()
	store.putJob(pendingJob("job-1", noon))
	store.putUser(customer())
	e := newTestEngine(store, noon)

	err := e.End(context.Background(), "job-1", "cust-1")
	assert.ErrorIs(t, err, domain.ErrNoActiveAssignment)
}

func TestCustomerNoShow(t *testing.T) {
	store := newFakeStore()
	job := pendingJob("job-1", noon.Add(-time.Hour))
	job.Status = domain.StatusStarted
	store.putJob(job)
	store.putUser(customer())
	store.CreateAssignment(context.Background(), "job-1", "trans-1")
	e := newTestEngine(store, noon)

	require.NoError(t, e.CustomerNoShow(context.Background(), "job-1"))

	assert.Equal(t, domain.StatusNotCarriedOutCustomer, store.jobs["job-1"].Status)
	a := store.assignmentsFor("job-1")[0]
	assert.NotNil(t, a.CompletedAt)
	assert.Equal(t, "trans-1", a.CompletedBy)
}

func TestReopen_TimedoutFullReset(t *testing.T) {
	store := newFakeStore()
	due := noon.Add(72 * time.Hour)
	job := pendingJob("job-1", due)
	job.Status = domain.StatusTimedout
	job.EmailSent = true
	job.Cust16HourSent = true
	job.Cust48HourSent = true
	store.putJob(job)
	store.putUser(customer())
	e := newTestEngine(store, noon)

	require.NoError(t, e.Reopen(context.Background(), "job-1", "admin-1"))

	saved := store.jobs["job-1"]
	assert.Equal(t, domain.StatusPending, saved.Status)
	assert.False(t, saved.EmailSent)
	assert.False(t, saved.Cust16HourSent)
	assert.False(t, saved.Cust48HourSent)
	assert.Equal(t, noon, saved.CreatedAt)
	assert.Equal(t, domain.WillExpireAt(due, noon), saved.WillExpireAt)
	assert.Contains(t, saved.AdminComments, "reopening of booking # job-1")

	require.NotEmpty(t, e.mail.calls)
	assert.Equal(t, notify.TmplReopenedCustomer, e.mail.calls[0].template)
}

func TestReopen_CancelledPartialReset(t *testing.T) {
	store := newFakeStore()
	job := pendingJob("job-1", noon.Add(72*time.Hour))
	job.Status = domain.StatusWithdrawAfter24
	job.AdminComments = "customer called in"
	store.putJob(job)
	store.putUser(customer())
	store.CreateAssignment(context.Background(), "job-1", "trans-1")
	e := newTestEngine(store, noon)

	require.NoError(t, e.Reopen(context.Background(), "job-1", "admin-1"))

	saved := store.jobs["job-1"]
	assert.Equal(t, domain.StatusPending, saved.Status)
	assert.Equal(t, "customer called in", saved.AdminComments)
	assert.False(t, store.assignmentsFor("job-1")[0].Active())
}

func TestUpdate_NothingToChange(t *testing.T) {
	store := newFakeStore()
	store.putJob(pendingJob("job-1", noon.Add(48*time.Hour)))
	store.putUser(customer())
	e := newTestEngine(store, noon)

	res, err := e.Update(context.Background(), "job-1", "admin-1", &UpdateRequest{})
	require.NoError(t, err)

	assert.False(t, res.Changed)
	assert.Empty(t, store.audits)
	assert.Empty(t, e.mail.calls)
}

func TestUpdate_TranslatorReassignment(t *testing.T) {
	store := newFakeStore()
	job := pendingJob("job-1", noon.Add(48*time.Hour))
	job.Status = domain.StatusAssigned
	store.putJob(job)
	store.putUser(customer())
	store.putUser(translator("trans-1", "old@example.se"))
	store.putUser(translator("trans-2", "new@example.se"))
	store.CreateAssignment(context.Background(), "job-1", "trans-1")
	e := newTestEngine(store, noon)

	res, err := e.Update(context.Background(), "job-1", "admin-1", &UpdateRequest{TranslatorID: "trans-2"})
	require.NoError(t, err)
	assert.True(t, res.TranslatorChanged)

	// history is append-only: the old row is cancelled, a new one added
	assignments := store.assignmentsFor("job-1")
	require.Len(t, assignments, 2)
	assert.False(t, assignments[0].Active())
	assert.Equal(t, "trans-2", assignments[1].TranslatorID)
	assert.True(t, assignments[1].Active())

	require.Len(t, store.audits, 1)
	assert.Equal(t, []string{"admin-1"}, store.auditActors)
	assert.Equal(t, Change{Field: "translator", Old: "old@example.se", New: "new@example.se"}, store.audits[0][0])

	assert.ElementsMatch(t, []string{
		notify.TmplChangedTranslatorCust,
		notify.TmplChangedTranslatorOld,
		notify.TmplChangedTranslatorNew,
	}, e.mail.templates())
}

func TestUpdate_SameTranslatorIsNoop(t *testing.T) {
	store := newFakeStore()
	job := pendingJob("job-1", noon.Add(48*time.Hour))
	job.Status = domain.StatusAssigned
	store.putJob(job)
	store.putUser(customer())
	store.putUser(translator("trans-1", "t1@example.se"))
	store.CreateAssignment(context.Background(), "job-1", "trans-1")
	e := newTestEngine(store, noon)

	res, err := e.Update(context.Background(), "job-1", "admin-1", &UpdateRequest{TranslatorID: "trans-1"})
	require.NoError(t, err)

	assert.False(t, res.Changed)
	assert.Len(t, store.assignmentsFor("job-1"), 1)
}

func TestUpdate_DueChangeRecomputesExpiry(t *testing.T) {
	store := newFakeStore()
	store.putJob(pendingJob("job-1", noon.Add(48*time.Hour)))
	store.putUser(customer())
	e := newTestEngine(store, noon)

	newDue := noon.Add(96 * time.Hour)
	res, err := e.Update(context.Background(), "job-1", "admin-1", &UpdateRequest{Due: &newDue})
	require.NoError(t, err)
	assert.True(t, res.DateChanged)

	saved := store.jobs["job-1"]
	assert.Equal(t, newDue, saved.Due)
	assert.Equal(t, domain.WillExpireAt(newDue, noon), saved.WillExpireAt)

	require.Len(t, store.audits, 1)
	assert.Equal(t, "due", store.audits[0][0].Field)
	require.NotEmpty(t, e.mail.calls)
	assert.Equal(t, notify.TmplChangedDate, e.mail.calls[0].template)
}

func TestUpdate_LanguageChangeLogsNames(t *testing.T) {
	store := newFakeStore()
	store.putJob(pendingJob("job-1", noon.Add(48*time.Hour)))
	store.putUser(customer())
	e := newTestEngine(store, noon)

	lang := int64(2)
	res, err := e.Update(context.Background(), "job-1", "admin-1", &UpdateRequest{FromLanguageID: &lang})
	require.NoError(t, err)
	assert.True(t, res.LanguageChanged)

	require.Len(t, store.audits, 1)
	assert.Equal(t, Change{Field: "language", Old: "Swedish", New: "Arabic"}, store.audits[0][0])
}

func TestUpdate_PastDueSuppressesNotifications(t *testing.T) {
	store := newFakeStore()
	store.putJob(pendingJob("job-1", noon.Add(-time.Hour)))
	store.putUser(customer())
	e := newTestEngine(store, noon)

	res, err := e.Update(context.Background(), "job-1", "admin-1", &UpdateRequest{
		Status:        domain.StatusWithdrawBefore24,
		AdminComments: "never happened",
	})
	require.NoError(t, err)
	assert.True(t, res.StatusChanged)

	assert.Equal(t, domain.StatusWithdrawBefore24, store.jobs["job-1"].Status)
	assert.Empty(t, e.mail.calls)
	assert.Empty(t, e.push.calls)
}

func TestUpdate_FailedPersistRecordsNoAudit(t *testing.T) {
	store := newFakeStore()
	store.putJob(pendingJob("job-1", noon.Add(48*time.Hour)))
	store.putUser(customer())
	store.saveErr = errors.New("connection reset")
	e := newTestEngine(store, noon)

	newDue := noon.Add(96 * time.Hour)
	_, err := e.Update(context.Background(), "job-1", "admin-1", &UpdateRequest{Due: &newDue})
	require.Error(t, err)

	assert.Empty(t, store.audits)
	assert.Empty(t, e.mail.calls)
}

func TestUpdate_TimedoutRequiresComment(t *testing.T) {
	store := newFakeStore()
	store.putJob(pendingJob("job-1", noon.Add(48*time.Hour)))
	store.putUser(customer())
	e := newTestEngine(store, noon)

	res, err := e.Update(context.Background(), "job-1", "admin-1", &UpdateRequest{Status: domain.StatusTimedout})
	require.NoError(t, err)

	assert.False(t, res.StatusChanged)
	assert.Equal(t, domain.StatusPending, store.jobs["job-1"].Status)
}

func TestUpdate_CompletedIsFrozen(t *testing.T) {
	store := newFakeStore()
	job := pendingJob("job-1", noon.Add(48*time.Hour))
	job.Status = domain.StatusCompleted
	store.putJob(job)
	store.putUser(customer())
	e := newTestEngine(store, noon)

	res, err := e.Update(context.Background(), "job-1", "admin-1", &UpdateRequest{
		Status:    domain.StatusTimedout,
		Reference: "ref-99",
	})
	require.NoError(t, err)

	// the status stays put but the reference edit still lands
	assert.False(t, res.StatusChanged)
	assert.Equal(t, domain.StatusCompleted, store.jobs["job-1"].Status)
	assert.Equal(t, "ref-99", store.jobs["job-1"].Reference)
}

func TestUpdate_UnmodeledTransitionIsNoop(t *testing.T) {
	store := newFakeStore()
	store.putJob(pendingJob("job-1", noon.Add(48*time.Hour)))
	store.putUser(customer())
	e := newTestEngine(store, noon)

	res, err := e.Update(context.Background(), "job-1", "admin-1", &UpdateRequest{Status: domain.StatusCompleted})
	require.NoError(t, err)

	assert.False(t, res.StatusChanged)
	assert.Equal(t, domain.StatusPending, store.jobs["job-1"].Status)
}

func TestAllowedTransition(t *testing.T) {
	assert.True(t, AllowedTransition(domain.StatusPending, domain.StatusAssigned))
	assert.True(t, AllowedTransition(domain.StatusTimedout, domain.StatusPending))
	assert.False(t, AllowedTransition(domain.StatusPending, domain.StatusCompleted))
	assert.False(t, AllowedTransition(domain.StatusCompleted, domain.StatusPending))
}

func TestNotifySuitableTranslators_PhysicalOnlyTownFilter(t *testing.T) {
	store := newFakeStore()
	job := pendingJob("job-1", noon.Add(48*time.Hour))
	job.PhoneBooking = false
	job.OnSiteBooking = true
	job.Town = "Stockholm"
	store.putJob(job)
	store.putUser(customer())
	local := translator("trans-1", "local@example.se")
	remote := translator("trans-2", "remote@example.se")
	remote.City = "Malmö"
	store.putUser(local)
	store.putUser(remote)
	store.eligible = []domain.User{local, remote}
	e := newTestEngine(store, noon)

	got, _ := store.GetJob(context.Background(), "job-1")
	res := e.NotifySuitableTranslators(context.Background(), got, "")

	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, []string{"local@example.se"}, e.push.allEmails())
}

func TestNotifySuitableTranslatorsSMS(t *testing.T) {
	store := newFakeStore()
	store.putJob(pendingJob("job-1", noon.Add(48*time.Hour)))
	store.putUser(customer())
	store.eligible = []domain.User{
		translator("trans-1", "t1@example.se"),
		translator("trans-2", "t2@example.se"),
	}
	e := newTestEngine(store, noon)

	got, _ := store.GetJob(context.Background(), "job-1")
	sent, err := e.NotifySuitableTranslatorsSMS(context.Background(), got)
	require.NoError(t, err)

	assert.Equal(t, 2, sent)
	assert.Equal(t, []string{"+46trans-1", "+46trans-2"}, e.sms.to)
}

func TestPotentialJobs_PhysicalOnlyTownFilter(t *testing.T) {
	store := newFakeStore()
	store.putUser(customer())
	phone := pendingJob("job-phone", noon.Add(24*time.Hour))
	onsite := pendingJob("job-onsite", noon.Add(24*time.Hour))
	onsite.PhoneBooking = false
	onsite.OnSiteBooking = true
	store.pending = []domain.Job{phone, onsite}

	remote := translator("trans-1", "t1@example.se")
	remote.City = "Malmö"
	store.putUser(remote)
	e := newTestEngine(store, noon)

	jobs, err := e.PotentialJobs(context.Background(), &remote)
	require.NoError(t, err)

	require.Len(t, jobs, 1)
	assert.Equal(t, "job-phone", jobs[0].ID)
}
