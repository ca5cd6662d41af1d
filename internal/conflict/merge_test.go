package conflict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadenzalab/cadenza/internal/ir"
)

func ancestorOf(fields ir.Object) *VersionData {
	return &VersionData{Fields: fields, Timestamp: 100}
}

func TestFieldMerge_DisjointEditsAutoMerge(t *testing.T) {
	c := &Conflict{
		EntityID: "doc-1",
		Ancestor: ancestorOf(ir.Object{"title": ir.String("base"), "body": ir.String("base")}),
		VersionA: VersionData{Fields: ir.Object{"title": ir.String("edited"), "body": ir.String("base")}},
		VersionB: VersionData{Fields: ir.Object{"title": ir.String("base"), "body": ir.String("rewritten")}},
	}

	fm := NewFieldMerge()
	require.True(t, fm.CanAutoResolve(c))

	res, err := fm.Resolve(c)
	require.NoError(t, err)
	assert.Equal(t, WinnerMerged, res.Winner)
	assert.True(t, res.AutoResolved)
	assert.Equal(t, ir.String("edited"), res.MergedFields["title"])
	assert.Equal(t, ir.String("rewritten"), res.MergedFields["body"])
	assert.Empty(t, res.Unresolved)
}

func TestFieldMerge_DeclinesOnSameFieldEdit(t *testing.T) {
	c := &Conflict{
		EntityID: "doc-1",
		Ancestor: ancestorOf(ir.Object{"title": ir.String("base")}),
		VersionA: VersionData{Fields: ir.Object{"title": ir.String("a-edit")}},
		VersionB: VersionData{Fields: ir.Object{"title": ir.String("b-edit")}},
	}

	fm := NewFieldMerge()
	assert.False(t, fm.CanAutoResolve(c))

	// Forced resolve defaults the conflicted field to version a.
	res, err := fm.Resolve(c)
	require.NoError(t, err)
	assert.False(t, res.AutoResolved)
	assert.Equal(t, ir.String("a-edit"), res.MergedFields["title"])
	require.Len(t, res.Unresolved, 1)
	assert.Equal(t, "title", res.Unresolved[0].Field)
}

func TestFieldMerge_NoAncestorEveryDisagreementConflicts(t *testing.T) {
	c := &Conflict{
		EntityID: "doc-1",
		VersionA: VersionData{Fields: ir.Object{"x": ir.Int(1)}},
		VersionB: VersionData{Fields: ir.Object{"x": ir.Int(2)}},
	}

	assert.False(t, NewFieldMerge().CanAutoResolve(c))
}

func TestFieldMerge_OneSidedDeleteMerges(t *testing.T) {
	c := &Conflict{
		EntityID: "doc-1",
		Ancestor: ancestorOf(ir.Object{"title": ir.String("base"), "stale": ir.Bool(true)}),
		VersionA: VersionData{Fields: ir.Object{"title": ir.String("base")}},
		VersionB: VersionData{Fields: ir.Object{"title": ir.String("base"), "stale": ir.Bool(true)}},
	}

	fm := NewFieldMerge()
	require.True(t, fm.CanAutoResolve(c))

	res, err := fm.Resolve(c)
	require.NoError(t, err)
	_, kept := res.MergedFields["stale"]
	assert.False(t, kept)
}

func TestThreeWay_CleanMergeWithDeletion(t *testing.T) {
	c := &Conflict{
		EntityID: "doc-1",
		Ancestor: ancestorOf(ir.Object{
			"title": ir.String("base"),
			"body":  ir.String("base"),
			"tag":   ir.String("old"),
		}),
		VersionA: VersionData{Fields: ir.Object{
			"title": ir.String("new title"),
			"body":  ir.String("base"),
			"tag":   ir.String("old"),
		}},
		VersionB: VersionData{Fields: ir.Object{
			"title": ir.String("base"),
			"body":  ir.String("base"),
		}},
	}

	tw := NewThreeWay()
	require.True(t, tw.CanAutoResolve(c))

	res, err := tw.Resolve(c)
	require.NoError(t, err)
	assert.True(t, res.AutoResolved)
	assert.Equal(t, ir.String("new title"), res.MergedFields["title"])
	_, kept := res.MergedFields["tag"]
	assert.False(t, kept)
}

func TestThreeWay_DeclinesOnOverlap(t *testing.T) {
	c := &Conflict{
		EntityID: "doc-1",
		Ancestor: ancestorOf(ir.Object{"title": ir.String("base")}),
		VersionA: VersionData{Fields: ir.Object{"title": ir.String("a")}},
		VersionB: VersionData{Fields: ir.Object{"title": ir.String("b")}},
	}

	assert.False(t, NewThreeWay().CanAutoResolve(c))
}

func TestThreeWay_BothSidesSameChangeIsClean(t *testing.T) {
	c := &Conflict{
		EntityID: "doc-1",
		Ancestor: ancestorOf(ir.Object{"title": ir.String("base")}),
		VersionA: VersionData{Fields: ir.Object{"title": ir.String("agreed")}},
		VersionB: VersionData{Fields: ir.Object{"title": ir.String("agreed")}},
	}

	tw := NewThreeWay()
	require.True(t, tw.CanAutoResolve(c))

	res, err := tw.Resolve(c)
	require.NoError(t, err)
	assert.Equal(t, ir.String("agreed"), res.MergedFields["title"])
}

func TestThreeWay_DeclinesWithoutAncestor(t *testing.T) {
	c := &Conflict{
		EntityID: "doc-1",
		VersionA: VersionData{Fields: ir.Object{"x": ir.Int(1)}},
		VersionB: VersionData{Fields: ir.Object{"x": ir.Int(1)}},
	}

	assert.False(t, NewThreeWay().CanAutoResolve(c))
}

func TestManual_NeverAutoResolves(t *testing.T) {
	c := &Conflict{
		EntityID: "doc-1",
		VersionA: VersionData{Fields: ir.Object{"x": ir.Int(1)}},
		VersionB: VersionData{Fields: ir.Object{"x": ir.Int(2)}},
	}

	m := NewManual()
	assert.False(t, m.CanAutoResolve(c))

	res, err := m.Resolve(c)
	require.NoError(t, err)
	assert.Equal(t, WinnerManual, res.Winner)
	assert.False(t, res.AutoResolved)
	require.Len(t, res.Unresolved, 1)
	assert.Equal(t, "x", res.Unresolved[0].Field)
}
