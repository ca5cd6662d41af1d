package store

import (
	"context"
	"fmt"

	"github.com/cadenzalab/cadenza/internal/ir"
)

// UpsertEdge records a causal edge. Edges are keyed (from, to):
// rewriting the same pair updates the sync name instead of growing the
// table, so re-processing a record leaves edge counts unchanged.
func (s *Store) UpsertEdge(ctx context.Context, edge ir.Edge) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO edges (from_id, to_id, sync_name)
		VALUES (?, ?, ?)
		ON CONFLICT(from_id, to_id) DO UPDATE SET sync_name = excluded.sync_name
	`, edge.From, edge.To, edge.Sync)
	if err != nil {
		return fmt.Errorf("upsert edge: %w", err)
	}
	return nil
}

// EdgesFrom returns edges leaving a record (forward trace), ordered by
// target ID for determinism.
func (s *Store) EdgesFrom(ctx context.Context, fromID string) ([]ir.Edge, error) {
	return s.queryEdges(ctx, `
		SELECT from_id, to_id, sync_name FROM edges
		WHERE from_id = ?
		ORDER BY to_id COLLATE BINARY ASC
	`, fromID)
}

// EdgesTo returns edges arriving at a record (backward trace: what
// caused it), ordered by source ID for determinism.
func (s *Store) EdgesTo(ctx context.Context, toID string) ([]ir.Edge, error) {
	return s.queryEdges(ctx, `
		SELECT from_id, to_id, sync_name FROM edges
		WHERE to_id = ?
		ORDER BY from_id COLLATE BINARY ASC
	`, toID)
}

// AllEdges returns every edge, ordered (from, to) for determinism.
func (s *Store) AllEdges(ctx context.Context) ([]ir.Edge, error) {
	return s.queryEdges(ctx, `
		SELECT from_id, to_id, sync_name FROM edges
		ORDER BY from_id COLLATE BINARY ASC, to_id COLLATE BINARY ASC
	`)
}

func (s *Store) queryEdges(ctx context.Context, query string, args ...any) ([]ir.Edge, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}
	defer rows.Close()

	var edges []ir.Edge
	for rows.Next() {
		var e ir.Edge
		if err := rows.Scan(&e.From, &e.To, &e.Sync); err != nil {
			return nil, fmt.Errorf("scan edge: %w", err)
		}
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edges: %w", err)
	}

	if edges == nil {
		edges = []ir.Edge{}
	}
	return edges, nil
}
