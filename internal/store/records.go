package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cadenzalab/cadenza/internal/ir"
)

// AppendRecord inserts an action record. ON CONFLICT(id) DO NOTHING
// makes duplicate appends of the same content-addressed ID silently
// idempotent; other constraint violations still error. Returns whether
// a new row was written.
func (s *Store) AppendRecord(ctx context.Context, rec ir.ActionRecord) (inserted bool, err error) {
	inputJSON, err := marshalObject(rec.Input)
	if err != nil {
		return false, fmt.Errorf("append record: %w", err)
	}
	outputJSON, err := marshalObject(rec.Output)
	if err != nil {
		return false, fmt.Errorf("append record: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO records
		(id, concept, action, variant, input, output, flow_id, seq, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		rec.ID, rec.Concept, rec.Action, rec.Variant,
		inputJSON, outputJSON, rec.FlowID, rec.Seq, rec.Timestamp,
	)
	if err != nil {
		return false, fmt.Errorf("append record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("append record: rows affected: %w", err)
	}
	return affected > 0, nil
}

// ReadRecord retrieves a single record by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRecord(ctx context.Context, id string) (ir.ActionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, concept, action, variant, input, output, flow_id, seq, ts
		FROM records
		WHERE id = ?
	`, id)
	return scanRecordRow(row)
}

// ReadFlow returns all records for a flow in deterministic order.
// Returns an empty slice, not nil, when the flow has no records.
func (s *Store) ReadFlow(ctx context.Context, flowID string) ([]ir.ActionRecord, error) {
	return s.queryRecords(ctx, `
		SELECT id, concept, action, variant, input, output, flow_id, seq, ts
		FROM records
		WHERE flow_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, flowID)
}

// ReadAllRecords returns the full log in deterministic order.
func (s *Store) ReadAllRecords(ctx context.Context) ([]ir.ActionRecord, error) {
	return s.queryRecords(ctx, `
		SELECT id, concept, action, variant, input, output, flow_id, seq, ts
		FROM records
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
}

// ReadByTrigger returns records matching a trigger key in deterministic
// order. An empty variant matches every variant.
func (s *Store) ReadByTrigger(ctx context.Context, concept, action, variant string) ([]ir.ActionRecord, error) {
	if variant == "" {
		return s.queryRecords(ctx, `
			SELECT id, concept, action, variant, input, output, flow_id, seq, ts
			FROM records
			WHERE concept = ? AND action = ?
			ORDER BY seq ASC, id COLLATE BINARY ASC
		`, concept, action)
	}
	return s.queryRecords(ctx, `
		SELECT id, concept, action, variant, input, output, flow_id, seq, ts
		FROM records
		WHERE concept = ? AND action = ? AND variant = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, concept, action, variant)
}

// LastSeq returns the highest seq in the log, for resuming the logical
// clock after restart.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var maxSeq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM records
	`).Scan(&maxSeq)
	if err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}

	var firingSeq int64
	err = s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM sync_firings
	`).Scan(&firingSeq)
	if err != nil {
		return 0, fmt.Errorf("get last firing seq: %w", err)
	}
	if firingSeq > maxSeq {
		maxSeq = firingSeq
	}

	return maxSeq, nil
}

// ListFlows returns all distinct flow IDs, ordered alphabetically.
func (s *Store) ListFlows(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT flow_id FROM records
		ORDER BY flow_id
	`)
	if err != nil {
		return nil, fmt.Errorf("list flows: %w", err)
	}
	defer rows.Close()

	var flows []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan flow id: %w", err)
		}
		flows = append(flows, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate flow ids: %w", err)
	}

	if flows == nil {
		flows = []string{}
	}
	return flows, nil
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]ir.ActionRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []ir.ActionRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	if records == nil {
		records = []ir.ActionRecord{}
	}
	return records, nil
}

func scanRecord(rows *sql.Rows) (ir.ActionRecord, error) {
	var rec ir.ActionRecord
	var inputJSON, outputJSON string

	if err := rows.Scan(
		&rec.ID, &rec.Concept, &rec.Action, &rec.Variant,
		&inputJSON, &outputJSON, &rec.FlowID, &rec.Seq, &rec.Timestamp,
	); err != nil {
		return ir.ActionRecord{}, fmt.Errorf("scan record: %w", err)
	}

	return fillRecordObjects(rec, inputJSON, outputJSON)
}

func scanRecordRow(row *sql.Row) (ir.ActionRecord, error) {
	var rec ir.ActionRecord
	var inputJSON, outputJSON string

	if err := row.Scan(
		&rec.ID, &rec.Concept, &rec.Action, &rec.Variant,
		&inputJSON, &outputJSON, &rec.FlowID, &rec.Seq, &rec.Timestamp,
	); err != nil {
		return ir.ActionRecord{}, err
	}

	return fillRecordObjects(rec, inputJSON, outputJSON)
}

func fillRecordObjects(rec ir.ActionRecord, inputJSON, outputJSON string) (ir.ActionRecord, error) {
	input, err := unmarshalObject(inputJSON)
	if err != nil {
		return ir.ActionRecord{}, fmt.Errorf("record %s input: %w", rec.ID, err)
	}
	rec.Input = input

	output, err := unmarshalObject(outputJSON)
	if err != nil {
		return ir.ActionRecord{}, fmt.Errorf("record %s output: %w", rec.ID, err)
	}
	rec.Output = output

	return rec, nil
}
