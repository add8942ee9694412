package domain

import "time"

// Assignment records one translator's claim on a job over a time
// window. Rows are append-only: reassignment cancels the active row and
// inserts a new one, never overwriting history.
type Assignment struct {
	ID           string     `db:"assignment_id"`
	JobID        string     `db:"job_id"`
	TranslatorID string     `db:"translator_id"`
	CreatedAt    time.Time  `db:"created_at"`
	CancelAt     *time.Time `db:"cancel_at"`
	CompletedAt  *time.Time `db:"completed_at"`
	CompletedBy  string     `db:"completed_by"`
}

// Active reports whether this row is the job's current claim: neither
// completed nor cancelled. At most one assignment per job may be
// active at any time.
func (a *Assignment) Active() bool {
	return a.CompletedAt == nil && a.CancelAt == nil
}
