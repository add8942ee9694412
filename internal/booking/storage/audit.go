package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/interpretly/booking-be/internal/booking/transition"
)

// Record appends one audit row holding the union of field diffs a
// booking update produced. Rows are never updated or deleted.
func (s *Storage) Record(ctx context.Context, actorID, jobID string, changes []transition.Change) error {
	payload, err := json.Marshal(changes)
	if err != nil {
		return fmt.Errorf("failed to marshal audit changes: %w", err)
	}

	query := `
		INSERT INTO booking_audit (audit_id, job_id, actor_id, changes, created_at)
		VALUES ($1, $2, $3, $4, NOW())
	`

	if _, err := s.db.ExecContext(ctx, query, uuid.NewString(), jobID, actorID, payload); err != nil {
		return fmt.Errorf("failed to record audit entry: %w", err)
	}

	return nil
}
