package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadenzalab/cadenza/internal/ir"
	"github.com/cadenzalab/cadenza/internal/store"
)

func seedTraceStore(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trace.db")
	st, err := store.Open(path)
	require.NoError(t, err)
	defer st.Close()

	ctx := context.Background()
	records := []ir.ActionRecord{
		{
			ID: "rec-publish", Concept: "ArticlePublish", Action: "publish", Variant: "ok",
			Input:  ir.Object{"id": ir.String("a1")},
			Output: ir.Object{"id": ir.String("a1")},
			FlowID: "flow-9", Seq: 1, Timestamp: 1000,
		},
		{
			ID: "rec-send", Concept: "Notification", Action: "send", Variant: "ok",
			Input:  ir.Object{"article": ir.String("a1")},
			Output: ir.Object{"article": ir.String("a1")},
			FlowID: "flow-9", Seq: 2, Timestamp: 1001,
		},
		{
			ID: "rec-audit", Concept: "Audit", Action: "log", Variant: "error",
			Input:  ir.Object{"article": ir.String("a1")},
			Output: ir.Object{"message": ir.String("disk full")},
			FlowID: "flow-9", Seq: 3, Timestamp: 1002,
		},
	}
	for _, rec := range records {
		inserted, err := st.AppendRecord(ctx, rec)
		require.NoError(t, err)
		require.True(t, inserted)
	}
	require.NoError(t, st.UpsertEdge(ctx, ir.Edge{From: "rec-publish", To: "rec-send", Sync: "notify"}))
	require.NoError(t, st.UpsertEdge(ctx, ir.Edge{From: "rec-publish", To: "rec-audit", Sync: "audit"}))
	return path
}

func TestTrace_TextOutput(t *testing.T) {
	db := seedTraceStore(t)

	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", db, "--flow", "flow-9"})

	require.NoError(t, cmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "flow flow-9")
	assert.Contains(t, out, "ArticlePublish.publish  ok")
	assert.Contains(t, out, "Audit.log  error")
	assert.Contains(t, out, "ArticlePublish.publish -> Notification.send [notify]")
	assert.Contains(t, out, "3 record(s), 2 edge(s), 1 error(s)")
}

func TestTrace_JSONOutput(t *testing.T) {
	db := seedTraceStore(t)

	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", db, "--flow", "flow-9"})

	require.NoError(t, cmd.Execute())

	var resp Response
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)

	payload, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result TraceResult
	require.NoError(t, json.Unmarshal(payload, &result))

	assert.Equal(t, "flow-9", result.Flow)
	require.Len(t, result.Timeline, 3)
	assert.Equal(t, int64(1), result.Stats.FirstSeq)
	assert.Equal(t, int64(3), result.Stats.LastSeq)
	assert.Equal(t, 1, result.Stats.Errors)
	require.Len(t, result.Provenance, 2)
}

func TestTrace_ConceptFilter(t *testing.T) {
	db := seedTraceStore(t)

	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--db", db, "--flow", "flow-9", "--concept", "Notification"})

	require.NoError(t, cmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "Notification.send")
	assert.NotContains(t, out, "Audit.log")
	assert.Contains(t, out, "1 record(s)")
}

func TestTrace_FlowNotFound(t *testing.T) {
	db := seedTraceStore(t)

	buf := &bytes.Buffer{}
	cmd := NewTraceCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--db", db, "--flow", "no-such-flow"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestRootCommand_RejectsUnknownFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"validate", "ignored", "--concepts", "ignored", "--format", "xml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}
