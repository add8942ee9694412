package transition

import (
	"context"
	"time"

	"github.com/interpretly/booking-be/internal/booking/domain"
	"github.com/interpretly/booking-be/internal/booking/matching"
)

// PendingJobsFilter selects the pending jobs a translator could take.
type PendingJobsFilter struct {
	JobType     domain.JobType
	LanguageIDs []int64
	Gender      string
	Level       domain.TranslatorLevel
}

// Store is the persistence port for jobs, users and assignments. All
// mutation of job status and assignment rows goes through the engine;
// no other collaborator writes these tables.
type Store interface {
	GetJob(ctx context.Context, jobID string) (*domain.Job, error)
	SaveJob(ctx context.Context, job *domain.Job) error
	CreateJob(ctx context.Context, job *domain.Job) error

	GetUser(ctx context.Context, userID string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// ActiveAssignment returns nil, nil when a job has no active claim.
	ActiveAssignment(ctx context.Context, jobID string) (*domain.Assignment, error)
	CreateAssignment(ctx context.Context, jobID, translatorID string) (*domain.Assignment, error)
	CancelAssignment(ctx context.Context, assignmentID string, at time.Time) error
	CompleteAssignment(ctx context.Context, assignmentID string, at time.Time, completedBy string) error

	// AcceptJob atomically moves a pending job to assigned and inserts
	// the assignment row. Returns domain.ErrJobTaken when the job is no
	// longer pending and domain.ErrTranslatorBooked when the translator
	// already holds an overlapping assignment.
	AcceptJob(ctx context.Context, jobID, translatorID string, due time.Time, duration int) error

	ListEligibleTranslators(ctx context.Context, c matching.Criteria) ([]domain.User, error)
	ListPendingJobs(ctx context.Context, f PendingJobsFilter) ([]domain.Job, error)
}

// LanguageResolver maps a language id to its display name.
type LanguageResolver interface {
	NameFor(ctx context.Context, languageID int64) (string, error)
}

// TownResolver answers whether a customer and a translator share a
// town, for the physical-only job restriction.
type TownResolver interface {
	SharesTown(ctx context.Context, customerID, translatorID string) (bool, error)
}

// Change is one field diff inside an audit record.
type Change struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

// AuditLog records the union of diffs a booking update produced.
type AuditLog interface {
	Record(ctx context.Context, actorID, jobID string, changes []Change) error
}
