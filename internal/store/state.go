package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cadenzalab/cadenza/internal/ir"
)

// ConceptState is the read/write view of per-concept relation state.
// It satisfies the query evaluator's Storage interface: Find returns
// rows in insertion order (rowid), Get addresses a single keyed row.
type ConceptState struct {
	s *Store
}

// State returns the concept-state view over this store.
func (s *Store) State() *ConceptState {
	return &ConceptState{s: s}
}

// Put upserts one keyed row in a concept relation.
func (c *ConceptState) Put(ctx context.Context, concept, relation, key string, value ir.Object) error {
	valueJSON, err := marshalObject(value)
	if err != nil {
		return fmt.Errorf("put state %s/%s: %w", concept, relation, err)
	}
	_, err = c.s.db.ExecContext(ctx, `
		INSERT INTO concept_state (concept, relation, key, value)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(concept, relation, key) DO UPDATE SET value = excluded.value
	`, concept, relation, key, valueJSON)
	if err != nil {
		return fmt.Errorf("put state %s/%s: %w", concept, relation, err)
	}
	return nil
}

// Get retrieves one keyed row. The bool reports presence.
func (c *ConceptState) Get(ctx context.Context, concept, relation, key string) (ir.Object, bool, error) {
	var valueJSON string
	err := c.s.db.QueryRowContext(ctx, `
		SELECT value FROM concept_state
		WHERE concept = ? AND relation = ? AND key = ?
	`, concept, relation, key).Scan(&valueJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get state %s/%s: %w", concept, relation, err)
	}

	obj, err := unmarshalObject(valueJSON)
	if err != nil {
		return nil, false, fmt.Errorf("get state %s/%s: %w", concept, relation, err)
	}
	return obj, true, nil
}

// Find returns relation rows in insertion order. A non-nil match is a
// partial object: every present field must be equal. Filtering happens
// in Go because row values are opaque JSON.
func (c *ConceptState) Find(ctx context.Context, concept, relation string, match ir.Object) ([]ir.Object, error) {
	rows, err := c.s.db.QueryContext(ctx, `
		SELECT value FROM concept_state
		WHERE concept = ? AND relation = ?
		ORDER BY rowid ASC
	`, concept, relation)
	if err != nil {
		return nil, fmt.Errorf("find state %s/%s: %w", concept, relation, err)
	}
	defer rows.Close()

	var out []ir.Object
	for rows.Next() {
		var valueJSON string
		if err := rows.Scan(&valueJSON); err != nil {
			return nil, fmt.Errorf("scan state row: %w", err)
		}
		obj, err := unmarshalObject(valueJSON)
		if err != nil {
			return nil, fmt.Errorf("find state %s/%s: %w", concept, relation, err)
		}
		if matchesPartial(obj, match) {
			out = append(out, obj)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate state rows: %w", err)
	}

	return out, nil
}

// Delete removes one keyed row. Missing rows are not an error.
func (c *ConceptState) Delete(ctx context.Context, concept, relation, key string) error {
	_, err := c.s.db.ExecContext(ctx, `
		DELETE FROM concept_state
		WHERE concept = ? AND relation = ? AND key = ?
	`, concept, relation, key)
	if err != nil {
		return fmt.Errorf("delete state %s/%s: %w", concept, relation, err)
	}
	return nil
}

func matchesPartial(row, match ir.Object) bool {
	for k, v := range match {
		rv, ok := row[k]
		if !ok || !ir.Equal(rv, v) {
			return false
		}
	}
	return true
}
