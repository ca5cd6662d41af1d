package store

import (
	"context"
	"fmt"

	"github.com/cadenzalab/cadenza/internal/ir"
)

// PutPending persists an escalated conflict. Re-submitting a known ID
// is a no-op, so repeated escalation stays idempotent.
func (s *Store) PutPending(ctx context.Context, id string, payload ir.Object) error {
	payloadJSON, err := marshalObject(payload)
	if err != nil {
		return fmt.Errorf("put pending conflict: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pending_conflicts (id, payload, status)
		VALUES (?, ?, 'pending')
		ON CONFLICT(id) DO NOTHING
	`, id, payloadJSON)
	if err != nil {
		return fmt.Errorf("put pending conflict: %w", err)
	}
	return nil
}

// ListPending returns every conflict still awaiting review, keyed by
// conflict ID.
func (s *Store) ListPending(ctx context.Context) (map[string]ir.Object, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, payload FROM pending_conflicts
		WHERE status = 'pending'
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list pending conflicts: %w", err)
	}
	defer rows.Close()

	out := map[string]ir.Object{}
	for rows.Next() {
		var id, payloadJSON string
		if err := rows.Scan(&id, &payloadJSON); err != nil {
			return nil, fmt.Errorf("scan pending conflict: %w", err)
		}
		payload, err := unmarshalObject(payloadJSON)
		if err != nil {
			return nil, fmt.Errorf("pending conflict %s: %w", id, err)
		}
		out[id] = payload
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending conflicts: %w", err)
	}

	return out, nil
}

// MarkResolved records the operator's decision and closes the pending
// record. The row is kept for audit rather than deleted.
func (s *Store) MarkResolved(ctx context.Context, id string, resolution ir.Object) error {
	resolutionJSON, err := marshalObject(resolution)
	if err != nil {
		return fmt.Errorf("mark conflict resolved: %w", err)
	}
	result, err := s.db.ExecContext(ctx, `
		UPDATE pending_conflicts
		SET status = 'resolved', resolution = ?
		WHERE id = ? AND status = 'pending'
	`, resolutionJSON, id)
	if err != nil {
		return fmt.Errorf("mark conflict resolved: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark conflict resolved: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("mark conflict resolved: no pending conflict %s", id)
	}
	return nil
}
