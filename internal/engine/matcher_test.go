package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadenzalab/cadenza/internal/ir"
)

func publishRecord() ir.ActionRecord {
	return ir.ActionRecord{
		ID:      "rec-1",
		Concept: "ArticlePublish",
		Action:  "publish",
		Variant: ir.VariantOK,
		Input:   ir.Object{"draft": ir.String("d-9")},
		Output:  ir.Object{"id": ir.String("art-1"), "author": ir.String("alice")},
		FlowID:  "flow-1",
		Seq:     1,
	}
}

func TestUnify_BindsFromOutput(t *testing.T) {
	when := ir.WhenClause{
		Concept: "ArticlePublish",
		Action:  "publish",
		Variant: ir.VariantOK,
		Bind:    map[string]string{"article": "id", "who": "author"},
	}

	env, ok := unify(when, publishRecord())
	require.True(t, ok)
	assert.Equal(t, ir.String("art-1"), env["article"])
	assert.Equal(t, ir.String("alice"), env["who"])
}

func TestUnify_BindsFromInput(t *testing.T) {
	when := ir.WhenClause{
		Concept: "ArticlePublish",
		Action:  "publish",
		From:    ir.BindInput,
		Bind:    map[string]string{"draft": "draft"},
	}

	env, ok := unify(when, publishRecord())
	require.True(t, ok)
	assert.Equal(t, ir.String("d-9"), env["draft"])
}

func TestUnify_EmptyVariantMatchesAny(t *testing.T) {
	when := ir.WhenClause{Concept: "ArticlePublish", Action: "publish"}

	rec := publishRecord()
	rec.Variant = ir.VariantError
	_, ok := unify(when, rec)
	assert.True(t, ok)
}

func TestUnify_VariantMismatch(t *testing.T) {
	when := ir.WhenClause{Concept: "ArticlePublish", Action: "publish", Variant: ir.VariantOK}

	rec := publishRecord()
	rec.Variant = ir.VariantError
	_, ok := unify(when, rec)
	assert.False(t, ok)
}

func TestUnify_WildcardAction(t *testing.T) {
	when := ir.WhenClause{Concept: "ArticlePublish", Action: "*"}

	_, ok := unify(when, publishRecord())
	assert.True(t, ok)

	rec := publishRecord()
	rec.Action = "create"
	_, ok = unify(when, rec)
	assert.True(t, ok)
}

func TestUnify_MissingBindFieldFailsWholeClause(t *testing.T) {
	when := ir.WhenClause{
		Concept: "ArticlePublish",
		Action:  "publish",
		Bind:    map[string]string{"article": "id", "missing": "nope"},
	}

	env, ok := unify(when, publishRecord())
	assert.False(t, ok)
	assert.Nil(t, env)
}

func TestMergeEnvs_SharedVariableMustAgree(t *testing.T) {
	a := ir.Object{"order": ir.String("o-1"), "x": ir.Int(1)}
	b := ir.Object{"order": ir.String("o-1"), "y": ir.Int(2)}

	merged, ok := mergeEnvs(a, b)
	require.True(t, ok)
	assert.Equal(t, ir.Int(1), merged["x"])
	assert.Equal(t, ir.Int(2), merged["y"])

	b["order"] = ir.String("o-2")
	_, ok = mergeEnvs(a, b)
	assert.False(t, ok)
}

func TestResolveArgs_TemplatesAndLiterals(t *testing.T) {
	env := ir.Object{"article": ir.String("art-1"), "n": ir.Int(7)}

	args, err := resolveArgs(map[string]string{
		"target": "${bound.article}",
		"count":  "${bound.n}",
		"kind":   "publish-notice",
	}, env)
	require.NoError(t, err)
	assert.Equal(t, ir.String("art-1"), args["target"])
	assert.Equal(t, ir.Int(7), args["count"])
	assert.Equal(t, ir.String("publish-notice"), args["kind"])
}

func TestResolveArgs_UnboundReference(t *testing.T) {
	_, err := resolveArgs(map[string]string{"x": "${bound.ghost}"}, ir.Object{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"ghost"`)
}
