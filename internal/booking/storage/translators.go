package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/interpretly/booking-be/internal/booking/domain"
	"github.com/interpretly/booking-be/internal/booking/matching"
	"github.com/interpretly/booking-be/internal/booking/transition"
)

// ListEligibleTranslators returns translator accounts matching the
// criteria: right sub-type, speaking the job's language, at an
// accepted qualification tier, not blacklisted by the customer.
func (s *Storage) ListEligibleTranslators(ctx context.Context, c matching.Criteria) ([]domain.User, error) {
	query := `
		SELECT DISTINCT ` + userColumns + `
		FROM users u
		JOIN user_languages ul ON ul.user_id = u.user_id
		WHERE u.role = $1
		  AND u.translator_type = $2
		  AND ul.language_id = $3
	`
	args := []interface{}{domain.RoleTranslator, c.TranslatorType, c.LanguageID}
	argIdx := 4

	if c.Gender != "" {
		query += fmt.Sprintf(" AND u.gender = $%d", argIdx)
		args = append(args, c.Gender)
		argIdx++
	}

	if len(c.Levels) > 0 {
		query += fmt.Sprintf(" AND u.translator_level = ANY($%d)", argIdx)
		args = append(args, pq.Array(levelStrings(c.Levels)))
		argIdx++
	}

	if c.ExcludeBlacklistedBy != "" {
		query += fmt.Sprintf(` AND NOT EXISTS (
			SELECT 1 FROM customer_blacklist b
			WHERE b.customer_id = $%d AND b.translator_id = u.user_id
		)`, argIdx)
		args = append(args, c.ExcludeBlacklistedBy)
		argIdx++
	}

	if c.ExcludeTranslatorID != "" {
		query += fmt.Sprintf(" AND u.user_id <> $%d", argIdx)
		args = append(args, c.ExcludeTranslatorID)
	}

	var users []domain.User
	if err := s.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list eligible translators: %w", err)
	}

	return users, nil
}

// ListPendingJobs returns the pending bookings a translator could
// claim, newest first. The caller applies the physical-only town
// filter.
func (s *Storage) ListPendingJobs(ctx context.Context, f transition.PendingJobsFilter) ([]domain.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM jobs
		WHERE status = $1
		  AND job_type = $2
		  AND from_language_id = ANY($3)
		  AND (gender = '' OR gender = $4)
		  AND certified = ANY($5)
		ORDER BY created_at DESC
	`

	var jobs []domain.Job
	err := s.db.SelectContext(ctx, &jobs, query,
		domain.StatusPending,
		f.JobType,
		pq.Array(f.LanguageIDs),
		f.Gender,
		pq.Array(certifiedsForLevel(f.Level)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending jobs: %w", err)
	}

	return jobs, nil
}

// certifiedsForLevel inverts the certification-to-level table: the
// certification requirements a translator at this tier satisfies. An
// empty requirement accepts every tier.
func certifiedsForLevel(level domain.TranslatorLevel) []string {
	certifieds := []string{string(domain.CertifiedNone)}
	for _, c := range []domain.Certified{
		domain.CertifiedNormal,
		domain.CertifiedYes,
		domain.CertifiedLaw,
		domain.CertifiedHealth,
		domain.CertifiedNLaw,
		domain.CertifiedNHealth,
		domain.CertifiedBoth,
	} {
		for _, l := range matching.RequiredLevels(c) {
			if l == level {
				certifieds = append(certifieds, string(c))
				break
			}
		}
	}
	return certifieds
}

func levelStrings(levels []domain.TranslatorLevel) []string {
	out := make([]string, len(levels))
	for i, l := range levels {
		out[i] = string(l)
	}
	return out
}

// JobFilter selects bookings for the admin listing endpoint.
type JobFilter struct {
	CustomerID string
	Status     string
	JobType    string
	PageSize   int
	Cursor     *JobCursor
}

// JobCursor is a (created_at, job_id) keyset pagination cursor.
type JobCursor struct {
	CreatedAt time.Time
	JobID     string
}

// ListJobs pages through bookings newest first. It fetches PageSize+1
// rows so the caller can tell whether another page exists.
func (s *Storage) ListJobs(ctx context.Context, filter JobFilter) ([]domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if filter.CustomerID != "" {
		query += fmt.Sprintf(" AND user_id = $%d", argIdx)
		args = append(args, filter.CustomerID)
		argIdx++
	}

	if filter.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, filter.Status)
		argIdx++
	}

	if filter.JobType != "" {
		query += fmt.Sprintf(" AND job_type = $%d", argIdx)
		args = append(args, filter.JobType)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (created_at, job_id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.JobID)
		argIdx += 2
	}

	query += " ORDER BY created_at DESC, job_id DESC"
	query += fmt.Sprintf(" LIMIT $%d", argIdx)
	args = append(args, filter.PageSize+1)

	var jobs []domain.Job
	if err := s.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}

// NameFor resolves a language id to its display name.
func (s *Storage) NameFor(ctx context.Context, languageID int64) (string, error) {
	var name string
	query := `SELECT name FROM languages WHERE language_id = $1`

	if err := s.db.GetContext(ctx, &name, query, languageID); err != nil {
		return "", fmt.Errorf("failed to resolve language name: %w", err)
	}
	return name, nil
}

// SharesTown reports whether a customer and a translator live in the
// same town, for the physical-only booking restriction.
func (s *Storage) SharesTown(ctx context.Context, customerID, translatorID string) (bool, error) {
	var shared bool
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM users c, users t
			WHERE c.user_id = $1 AND t.user_id = $2
			  AND c.city <> '' AND c.city = t.city
		)
	`

	if err := s.db.GetContext(ctx, &shared, query, customerID, translatorID); err != nil {
		return false, fmt.Errorf("failed to check shared town: %w", err)
	}
	return shared, nil
}
