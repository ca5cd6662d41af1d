package store

import (
	"context"
	"testing"

	"github.com/cadenzalab/cadenza/internal/ir"
)

func TestWriteFiring_ClaimsSlotOnce(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := createTestRecord("Counter", "inc", ir.VariantOK, "flow-1", 1)
	if _, err := s.AppendRecord(ctx, rec); err != nil {
		t.Fatalf("append: %v", err)
	}

	id1, inserted, err := s.WriteFiring(ctx, rec.ID, "count_sync", "hash-1", 2)
	if err != nil {
		t.Fatalf("first WriteFiring() failed: %v", err)
	}
	if !inserted {
		t.Error("expected inserted=true for new firing")
	}

	id2, inserted, err := s.WriteFiring(ctx, rec.ID, "count_sync", "hash-1", 3)
	if err != nil {
		t.Fatalf("second WriteFiring() failed: %v", err)
	}
	if inserted {
		t.Error("expected inserted=false for duplicate firing")
	}
	if id1 != id2 {
		t.Errorf("duplicate firing returned different ID: %d vs %d", id1, id2)
	}
}

func TestWriteFiring_DifferentBindingsFireSeparately(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := createTestRecord("Group", "join", ir.VariantOK, "flow-1", 1)
	if _, err := s.AppendRecord(ctx, rec); err != nil {
		t.Fatalf("append: %v", err)
	}

	_, inserted1, err := s.WriteFiring(ctx, rec.ID, "notify_members", "hash-alice", 2)
	if err != nil || !inserted1 {
		t.Fatalf("first binding: inserted=%v err=%v", inserted1, err)
	}
	_, inserted2, err := s.WriteFiring(ctx, rec.ID, "notify_members", "hash-bob", 3)
	if err != nil || !inserted2 {
		t.Fatalf("second binding: inserted=%v err=%v", inserted2, err)
	}

	has, err := s.HasFiring(ctx, rec.ID, "notify_members", "hash-alice")
	if err != nil || !has {
		t.Errorf("HasFiring(alice) = %v, %v", has, err)
	}
	has, err = s.HasFiring(ctx, rec.ID, "notify_members", "hash-carol")
	if err != nil || has {
		t.Errorf("HasFiring(carol) = %v, %v; want false", has, err)
	}
}
