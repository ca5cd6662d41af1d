package store

import (
	"path/filepath"
	"testing"

	"github.com/cadenzalab/cadenza/internal/ir"
)

// createTestStore opens a store backed by a temp file.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRecord builds a record with a content-addressed ID.
func createTestRecord(concept, action, variant, flowID string, seq int64) ir.ActionRecord {
	input := ir.Object{"seq": ir.Int(seq)}
	output := ir.Object{"ok": ir.Bool(true)}
	return ir.ActionRecord{
		ID:      ir.MustRecordID(concept, action, variant, input, output, flowID, seq),
		Concept: concept,
		Action:  action,
		Variant: variant,
		Input:   input,
		Output:  output,
		FlowID:  flowID,
		Seq:     seq,
	}
}
