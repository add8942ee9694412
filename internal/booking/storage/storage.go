// Package storage is the PostgreSQL persistence layer for bookings,
// users and translator assignments.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/interpretly/booking-be/internal/booking/domain"
	"github.com/interpretly/booking-be/shared/postgresql"
)

const jobColumns = `
	job_id, user_id, status, job_type, immediate, from_language_id,
	gender, certified, due, duration, customer_phone_type,
	customer_physical_type, town, address, instructions, user_email,
	reference, admin_comments, session_time, will_expire_at, end_at,
	withdraw_at, emailsent, cust_16_hour_email, cust_48_hour_email,
	created_at, updated_at
`

const userColumns = `
	user_id, role, name, email, mobile, gender, city, consumer_type,
	translator_type, translator_level, push_enabled,
	night_push_opt_out, emergency_push_opt_out
`

const assignmentColumns = `
	assignment_id, job_id, translator_id, created_at, cancel_at,
	completed_at, completed_by
`

type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

func NewStorage(pg *postgresql.Client, logger *slog.Logger) *Storage {
	return &Storage{
		db:     pg.GetDB(),
		logger: logger,
	}
}

func (s *Storage) GetJob(ctx context.Context, jobID string) (*domain.Job, error) {
	var job domain.Job
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE job_id = $1`

	err := s.db.GetContext(ctx, &job, query, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

func (s *Storage) CreateJob(ctx context.Context, job *domain.Job) error {
	query := `
		INSERT INTO jobs (` + jobColumns + `) VALUES (
			:job_id, :user_id, :status, :job_type, :immediate,
			:from_language_id, :gender, :certified, :due, :duration,
			:customer_phone_type, :customer_physical_type, :town,
			:address, :instructions, :user_email, :reference,
			:admin_comments, :session_time, :will_expire_at, :end_at,
			:withdraw_at, :emailsent, :cust_16_hour_email,
			:cust_48_hour_email, :created_at, :updated_at
		)
	`

	if _, err := s.db.NamedExecContext(ctx, query, job); err != nil {
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

func (s *Storage) SaveJob(ctx context.Context, job *domain.Job) error {
	query := `
		UPDATE jobs SET
			status = :status,
			job_type = :job_type,
			from_language_id = :from_language_id,
			gender = :gender,
			certified = :certified,
			due = :due,
			duration = :duration,
			customer_phone_type = :customer_phone_type,
			customer_physical_type = :customer_physical_type,
			town = :town,
			address = :address,
			instructions = :instructions,
			user_email = :user_email,
			reference = :reference,
			admin_comments = :admin_comments,
			session_time = :session_time,
			will_expire_at = :will_expire_at,
			end_at = :end_at,
			withdraw_at = :withdraw_at,
			emailsent = :emailsent,
			cust_16_hour_email = :cust_16_hour_email,
			cust_48_hour_email = :cust_48_hour_email,
			created_at = :created_at,
			updated_at = :updated_at
		WHERE job_id = :job_id
	`

	result, err := s.db.NamedExecContext(ctx, query, job)
	if err != nil {
		return fmt.Errorf("failed to save job: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrJobNotFound
	}

	return nil
}

func (s *Storage) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	var user domain.User
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`

	err := s.db.GetContext(ctx, &user, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.loadLanguages(ctx, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	err := s.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	if err := s.loadLanguages(ctx, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (s *Storage) loadLanguages(ctx context.Context, user *domain.User) error {
	if user.Role != domain.RoleTranslator {
		return nil
	}

	query := `SELECT language_id FROM user_languages WHERE user_id = $1 ORDER BY language_id`

	if err := s.db.SelectContext(ctx, &user.LanguageIDs, query, user.ID); err != nil {
		return fmt.Errorf("failed to load user languages: %w", err)
	}
	return nil
}

// ActiveAssignment returns the job's current claim, or nil, nil when
// the job has none.
func (s *Storage) ActiveAssignment(ctx context.Context, jobID string) (*domain.Assignment, error) {
	var assignment domain.Assignment
	query := `
		SELECT ` + assignmentColumns + `
		FROM translator_assignments
		WHERE job_id = $1 AND cancel_at IS NULL AND completed_at IS NULL
	`

	err := s.db.GetContext(ctx, &assignment, query, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active assignment: %w", err)
	}

	return &assignment, nil
}

func (s *Storage) CreateAssignment(ctx context.Context, jobID, translatorID string) (*domain.Assignment, error) {
	assignment := &domain.Assignment{
		ID:           uuid.NewString(),
		JobID:        jobID,
		TranslatorID: translatorID,
		CreatedAt:    time.Now().UTC(),
	}

	query := `
		INSERT INTO translator_assignments (assignment_id, job_id, translator_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := s.db.ExecContext(ctx, query, assignment.ID, assignment.JobID, assignment.TranslatorID, assignment.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}

	return assignment, nil
}

func (s *Storage) CancelAssignment(ctx context.Context, assignmentID string, at time.Time) error {
	query := `
		UPDATE translator_assignments
		SET cancel_at = $1
		WHERE assignment_id = $2 AND cancel_at IS NULL AND completed_at IS NULL
	`

	result, err := s.db.ExecContext(ctx, query, at, assignmentID)
	if err != nil {
		return fmt.Errorf("failed to cancel assignment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNoActiveAssignment
	}

	return nil
}

func (s *Storage) CompleteAssignment(ctx context.Context, assignmentID string, at time.Time, completedBy string) error {
	query := `
		UPDATE translator_assignments
		SET completed_at = $1, completed_by = $2
		WHERE assignment_id = $3 AND cancel_at IS NULL AND completed_at IS NULL
	`

	result, err := s.db.ExecContext(ctx, query, at, completedBy, assignmentID)
	if err != nil {
		return fmt.Errorf("failed to complete assignment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNoActiveAssignment
	}

	return nil
}

// AcceptJob claims a pending job for a translator. The status
// check-and-set and the assignment insert run in one transaction, so
// concurrent accepts race on the UPDATE and exactly one commits. The
// overlap check rejects a translator who already holds an active
// assignment whose booking overlaps this job's time window.
func (s *Storage) AcceptJob(ctx context.Context, jobID, translatorID string, due time.Time, duration int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin accept transaction: %w", err)
	}
	defer tx.Rollback()

	overlapQuery := `
		SELECT EXISTS (
			SELECT 1
			FROM translator_assignments a
			JOIN jobs j ON j.job_id = a.job_id
			WHERE a.translator_id = $1
			  AND a.cancel_at IS NULL
			  AND a.completed_at IS NULL
			  AND j.due < $3
			  AND j.due + make_interval(mins => j.duration) > $2
		)
	`

	var overlapping bool
	end := due.Add(time.Duration(duration) * time.Minute)
	if err := tx.GetContext(ctx, &overlapping, overlapQuery, translatorID, due, end); err != nil {
		return fmt.Errorf("failed to check overlapping assignments: %w", err)
	}
	if overlapping {
		return domain.ErrTranslatorBooked
	}

	claimQuery := `
		UPDATE jobs
		SET status = $1, updated_at = NOW()
		WHERE job_id = $2 AND status = $3
	`

	result, err := tx.ExecContext(ctx, claimQuery, domain.StatusAssigned, jobID, domain.StatusPending)
	if err != nil {
		return fmt.Errorf("failed to claim job: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		s.logger.Warn("failed to claim job - already taken or not found",
			slog.String("job_id", jobID),
			slog.String("translator_id", translatorID),
		)
		return domain.ErrJobTaken
	}

	insertQuery := `
		INSERT INTO translator_assignments (assignment_id, job_id, translator_id, created_at)
		VALUES ($1, $2, $3, NOW())
	`

	if _, err := tx.ExecContext(ctx, insertQuery, uuid.NewString(), jobID, translatorID); err != nil {
		return fmt.Errorf("failed to insert assignment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit accept transaction: %w", err)
	}

	s.logger.Info("job accepted",
		slog.String("job_id", jobID),
		slog.String("translator_id", translatorID),
	)

	return nil
}
