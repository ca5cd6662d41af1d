package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadenzalab/cadenza/internal/ir"
)

// fakeStorage serves canned rows per concept/relation in insertion order.
type fakeStorage struct {
	rows map[string][]ir.Object // "concept/relation" -> rows
}

func (f *fakeStorage) Get(_ context.Context, concept, relation, key string) (ir.Object, bool, error) {
	for _, row := range f.rows[concept+"/"+relation] {
		if row["id"] == ir.String(key) {
			return row, true, nil
		}
	}
	return nil, false, nil
}

func (f *fakeStorage) Find(_ context.Context, concept, relation string, match ir.Object) ([]ir.Object, error) {
	var out []ir.Object
	for _, row := range f.rows[concept+"/"+relation] {
		keep := true
		for k, v := range match {
			if !ir.Equal(row[k], v) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, row)
		}
	}
	return out, nil
}

func TestRef(t *testing.T) {
	name, ok := Ref("${bound.article}")
	assert.True(t, ok)
	assert.Equal(t, "article", name)

	_, ok = Ref("literal")
	assert.False(t, ok)

	_, ok = Ref("${bound.}")
	assert.False(t, ok)
}

func TestEval_EmptyPipelinePassesThrough(t *testing.T) {
	env := ir.Object{"article": ir.String("art-1")}

	out, err := Eval(context.Background(), &fakeStorage{}, nil, env)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.True(t, ir.Equal(env, out[0]))
}

func TestEval_BindAndGuard(t *testing.T) {
	steps := []ir.Step{
		ir.BindStep{As: "status", Expr: "published"},
		ir.GuardStep{Left: "${bound.status}", Right: "published"},
	}

	out, err := Eval(context.Background(), &fakeStorage{}, steps, ir.Object{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, ir.String("published"), out[0]["status"])
}

func TestEval_GuardRejects(t *testing.T) {
	steps := []ir.Step{
		ir.GuardStep{Left: "${bound.status}", Right: "published"},
	}

	out, err := Eval(context.Background(), &fakeStorage{}, steps, ir.Object{
		"status": ir.String("draft"),
	})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestEval_QueryFansOutPerRow(t *testing.T) {
	st := &fakeStorage{rows: map[string][]ir.Object{
		"Group/members": {
			{"id": ir.String("m1"), "group": ir.String("g1"), "user": ir.String("alice")},
			{"id": ir.String("m2"), "group": ir.String("g1"), "user": ir.String("bob")},
			{"id": ir.String("m3"), "group": ir.String("g2"), "user": ir.String("carol")},
		},
	}}

	steps := []ir.Step{
		ir.QueryStep{
			Concept:  "Group",
			Relation: "members",
			Filter:   ir.BoundEquals{Field: "group", Var: "group"},
			Bind:     map[string]string{"member": "user"},
		},
	}

	out, err := Eval(context.Background(), st, steps, ir.Object{"group": ir.String("g1")})
	require.NoError(t, err)
	require.Len(t, out, 2)

	// Insertion order is preserved.
	assert.Equal(t, ir.String("alice"), out[0]["member"])
	assert.Equal(t, ir.String("bob"), out[1]["member"])
	// The original binding carries through.
	assert.Equal(t, ir.String("g1"), out[0]["group"])
}

func TestEval_QueryNoRowsDiscards(t *testing.T) {
	st := &fakeStorage{rows: map[string][]ir.Object{}}

	steps := []ir.Step{
		ir.QueryStep{
			Concept:  "Group",
			Relation: "members",
			Filter:   ir.Equals{Field: "group", Value: ir.String("g9")},
		},
	}

	out, err := Eval(context.Background(), st, steps, ir.Object{})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestCheckVars_UnboundReference(t *testing.T) {
	steps := []ir.Step{
		ir.GuardStep{Left: "${bound.missing}", Right: "x"},
	}

	err := CheckVars(steps, map[string]bool{"present": true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing")
}

func TestCheckVars_BindIntroducesVariable(t *testing.T) {
	steps := []ir.Step{
		ir.BindStep{As: "derived", Expr: "${bound.seed}"},
		ir.GuardStep{Left: "${bound.derived}", Right: "x"},
	}

	bound := map[string]bool{"seed": true}
	require.NoError(t, CheckVars(steps, bound))
	assert.True(t, bound["derived"])
}

func TestCheckVars_QueryFilterUnbound(t *testing.T) {
	steps := []ir.Step{
		ir.QueryStep{
			Concept:  "Group",
			Relation: "members",
			Filter:   ir.And{Predicates: []ir.Predicate{ir.BoundEquals{Field: "group", Var: "group"}}},
		},
	}

	err := CheckVars(steps, map[string]bool{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"group"`)
}
