package store

import (
	"context"
	"fmt"

	"github.com/cadenzalab/cadenza/internal/ir"
)

// HoldAction parks a then-action whose target concept is unavailable.
// Held actions survive restarts and are replayed by DrainHeld when the
// concept comes back.
func (s *Store) HoldAction(ctx context.Context, concept string, payload ir.Object) error {
	payloadJSON, err := marshalObject(payload)
	if err != nil {
		return fmt.Errorf("hold action for %s: %w", concept, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO held_actions (concept, payload)
		VALUES (?, ?)
	`, concept, payloadJSON)
	if err != nil {
		return fmt.Errorf("hold action for %s: %w", concept, err)
	}
	return nil
}

// DrainHeld atomically removes and returns all actions held for a
// concept, in the order they were held.
func (s *Store) DrainHeld(ctx context.Context, concept string) ([]ir.Object, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("drain held for %s: begin tx: %w", concept, err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, payload FROM held_actions
		WHERE concept = ?
		ORDER BY id ASC
	`, concept)
	if err != nil {
		return nil, fmt.Errorf("drain held for %s: query: %w", concept, err)
	}

	var ids []int64
	var payloads []ir.Object
	for rows.Next() {
		var id int64
		var payloadJSON string
		if err := rows.Scan(&id, &payloadJSON); err != nil {
			rows.Close()
			return nil, fmt.Errorf("drain held for %s: scan: %w", concept, err)
		}
		payload, err := unmarshalObject(payloadJSON)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("drain held for %s: %w", concept, err)
		}
		ids = append(ids, id)
		payloads = append(payloads, payload)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("drain held for %s: iterate: %w", concept, err)
	}
	rows.Close()

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM held_actions WHERE id = ?`, id); err != nil {
			return nil, fmt.Errorf("drain held for %s: delete: %w", concept, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("drain held for %s: commit: %w", concept, err)
	}

	if payloads == nil {
		payloads = []ir.Object{}
	}
	return payloads, nil
}

// HeldCount returns how many actions are parked for a concept.
func (s *Store) HeldCount(ctx context.Context, concept string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM held_actions WHERE concept = ?
	`, concept).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count held for %s: %w", concept, err)
	}
	return count, nil
}
