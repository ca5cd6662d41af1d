package store

import (
	"context"
	"testing"

	"github.com/cadenzalab/cadenza/internal/ir"
)

func TestUpsertEdge_DuplicateKeyLeavesOneRow(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	edge := ir.Edge{From: "rec-a", To: "rec-b", Sync: "notify"}
	if err := s.UpsertEdge(ctx, edge); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	// Same (from, to) with a different sync name updates in place.
	edge.Sync = "notify_v2"
	if err := s.UpsertEdge(ctx, edge); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	edges, err := s.AllEdges(ctx)
	if err != nil {
		t.Fatalf("AllEdges() failed: %v", err)
	}
	if len(edges) != 1 {
		t.Fatalf("got %d edges, want exactly 1", len(edges))
	}
	if edges[0].Sync != "notify_v2" {
		t.Errorf("sync name not updated: got %q", edges[0].Sync)
	}
}

func TestEdges_ForwardAndBackwardTrace(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, e := range []ir.Edge{
		{From: "root", To: "child-b", Sync: "s1"},
		{From: "root", To: "child-a", Sync: "s1"},
		{From: "other", To: "child-a", Sync: "s2"},
	} {
		if err := s.UpsertEdge(ctx, e); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}

	forward, err := s.EdgesFrom(ctx, "root")
	if err != nil {
		t.Fatalf("EdgesFrom() failed: %v", err)
	}
	if len(forward) != 2 {
		t.Fatalf("forward trace got %d edges, want 2", len(forward))
	}
	// Ordered by target ID.
	if forward[0].To != "child-a" || forward[1].To != "child-b" {
		t.Errorf("forward trace order wrong: %+v", forward)
	}

	backward, err := s.EdgesTo(ctx, "child-a")
	if err != nil {
		t.Fatalf("EdgesTo() failed: %v", err)
	}
	if len(backward) != 2 {
		t.Fatalf("backward trace got %d edges, want 2", len(backward))
	}
	if backward[0].From != "other" || backward[1].From != "root" {
		t.Errorf("backward trace order wrong: %+v", backward)
	}
}
