package store

import (
	"context"
	"fmt"
)

// WriteFiring claims the (record, sync, bindings) firing slot. The
// UNIQUE constraint makes the claim atomic: inserted=false means the
// sync already fired for these bindings and must not fire again.
func (s *Store) WriteFiring(ctx context.Context, recordID, syncName, bindingHash string, seq int64) (id int64, inserted bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("write firing: begin tx: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO sync_firings
		(record_id, sync_name, binding_hash, seq)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(record_id, sync_name, binding_hash) DO NOTHING
	`, recordID, syncName, bindingHash, seq)
	if err != nil {
		return 0, false, fmt.Errorf("write firing: insert: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("write firing: rows affected: %w", err)
	}

	if affected > 0 {
		id, err = result.LastInsertId()
		if err != nil {
			return 0, false, fmt.Errorf("write firing: last insert id: %w", err)
		}
		inserted = true
	} else {
		err = tx.QueryRowContext(ctx, `
			SELECT id FROM sync_firings
			WHERE record_id = ? AND sync_name = ? AND binding_hash = ?
		`, recordID, syncName, bindingHash).Scan(&id)
		if err != nil {
			return 0, false, fmt.Errorf("write firing: select existing: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("write firing: commit: %w", err)
	}

	return id, inserted, nil
}

// HasFiring reports whether the firing slot is already claimed.
func (s *Store) HasFiring(ctx context.Context, recordID, syncName, bindingHash string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM sync_firings
		WHERE record_id = ? AND sync_name = ? AND binding_hash = ?
	`, recordID, syncName, bindingHash).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check firing: %w", err)
	}
	return count > 0, nil
}
