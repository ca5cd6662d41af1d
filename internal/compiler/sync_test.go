package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadenzalab/cadenza/internal/ir"
)

func TestCompileString_FullSync(t *testing.T) {
	src := `
sync: notify: {
	priority: 2
	when: [{
		concept: "ArticlePublish"
		action:  "publish"
		variant: "ok"
		bind: {article: "id", group: "group"}
	}]
	where: [
		{query: {
			concept:  "Group"
			relation: "members"
			filter: {field: "group", var: "group"}
			bind: {user: "user"}
		}},
		{guard: {left: "${bound.user}", right: "alice"}},
	]
	then: [{
		concept: "Notification"
		action:  "send"
		args: {article: "${bound.article}", user: "${bound.user}"}
	}]
}
`
	syncs, err := CompileString(src, "notify.cue")
	require.NoError(t, err)
	require.Len(t, syncs, 1)

	s := syncs[0]
	assert.Equal(t, "notify", s.Name)
	assert.Equal(t, 2, s.Priority)

	require.Len(t, s.When, 1)
	assert.Equal(t, "ArticlePublish", s.When[0].Concept)
	assert.Equal(t, "publish", s.When[0].Action)
	assert.Equal(t, ir.VariantOK, s.When[0].Variant)
	assert.Equal(t, map[string]string{"article": "id", "group": "group"}, s.When[0].Bind)

	require.Len(t, s.Where, 2)
	q, ok := s.Where[0].(ir.QueryStep)
	require.True(t, ok)
	assert.Equal(t, "Group", q.Concept)
	assert.Equal(t, "members", q.Relation)
	assert.Equal(t, ir.BoundEquals{Field: "group", Var: "group"}, q.Filter)
	assert.Equal(t, map[string]string{"user": "user"}, q.Bind)

	g, ok := s.Where[1].(ir.GuardStep)
	require.True(t, ok)
	assert.Equal(t, "${bound.user}", g.Left)

	require.Len(t, s.Then, 1)
	assert.Equal(t, "Notification", s.Then[0].Concept)
	assert.Equal(t, "send", s.Then[0].Action)
	assert.Equal(t, "${bound.article}", s.Then[0].Args["article"])
}

func TestCompileString_MultiWhenAndBindStep(t *testing.T) {
	src := `
sync: fulfill: {
	when: [
		{concept: "Payment", action: "capture", bind: {order: "order_id"}},
		{concept: "Shipment", action: "reserve", from: "input", bind: {order: "order"}},
	]
	where: [
		{bind: {as: "channel", expr: "fulfillment"}},
	]
	then: [{concept: "Fulfillment", action: "pack", args: {order: "${bound.order}"}}]
}
`
	syncs, err := CompileString(src, "fulfill.cue")
	require.NoError(t, err)
	require.Len(t, syncs, 1)

	s := syncs[0]
	require.Len(t, s.When, 2)
	assert.Equal(t, ir.BindSource(""), s.When[0].From)
	assert.Equal(t, ir.BindInput, s.When[1].From)

	require.Len(t, s.Where, 1)
	b, ok := s.Where[0].(ir.BindStep)
	require.True(t, ok)
	assert.Equal(t, "channel", b.As)
	assert.Equal(t, "fulfillment", b.Expr)
}

func TestCompileString_LiteralPredicates(t *testing.T) {
	src := `
sync: active: {
	when: [{concept: "A", action: "a", bind: {k: "k"}}]
	where: [
		{query: {
			concept:  "Users"
			relation: "rows"
			filter: {all: [
				{field: "status", value: "active"},
				{field: "retries", value: 3},
				{field: "admin", value: true},
			]}
		}},
	]
	then: [{concept: "B", action: "b"}]
}
`
	syncs, err := CompileString(src, "active.cue")
	require.NoError(t, err)

	q := syncs[0].Where[0].(ir.QueryStep)
	and, ok := q.Filter.(ir.And)
	require.True(t, ok)
	require.Len(t, and.Predicates, 3)
	assert.Equal(t, ir.Equals{Field: "status", Value: ir.String("active")}, and.Predicates[0])
	assert.Equal(t, ir.Equals{Field: "retries", Value: ir.Int(3)}, and.Predicates[1])
	assert.Equal(t, ir.Equals{Field: "admin", Value: ir.Bool(true)}, and.Predicates[2])
}

func TestCompileString_DeclarationOrderPreserved(t *testing.T) {
	src := `
sync: {
	zeta: {
		when: [{concept: "A", action: "a"}]
		then: [{concept: "B", action: "b"}]
	}
	alpha: {
		when: [{concept: "A", action: "a"}]
		then: [{concept: "B", action: "b"}]
	}
}
`
	syncs, err := CompileString(src, "order.cue")
	require.NoError(t, err)
	require.Len(t, syncs, 2)
	assert.Equal(t, "zeta", syncs[0].Name)
	assert.Equal(t, "alpha", syncs[1].Name)
}

func TestCompileString_MissingWhen(t *testing.T) {
	src := `
sync: broken: {
	then: [{concept: "B", action: "b"}]
}
`
	_, err := CompileString(src, "broken.cue")
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Field, "broken.when")
}

func TestCompileString_FloatLiteralRejected(t *testing.T) {
	src := `
sync: bad: {
	when: [{concept: "A", action: "a"}]
	where: [
		{query: {concept: "C", relation: "r", filter: {field: "score", value: 1.5}}},
	]
	then: [{concept: "B", action: "b"}]
}
`
	_, err := CompileString(src, "bad.cue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "float")
}

func TestCompileString_UnknownStepKind(t *testing.T) {
	src := `
sync: bad: {
	when: [{concept: "A", action: "a"}]
	where: [{mystery: {}}]
	then: [{concept: "B", action: "b"}]
}
`
	_, err := CompileString(src, "bad.cue")
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Contains(t, cerr.Message, `"bind", "query", "guard"`)
}

func TestCompileString_SyntaxErrorCarriesPosition(t *testing.T) {
	_, err := CompileString("sync: { nope", "syntax.cue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "syntax.cue")
}
