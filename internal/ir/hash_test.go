package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordID_Deterministic(t *testing.T) {
	input := Object{"title": String("Hello")}
	output := Object{"article": String("art-1")}

	id1, err := RecordID("ArticlePublish", "create", VariantOK, input, output, "flow-1", 1)
	require.NoError(t, err)
	id2, err := RecordID("ArticlePublish", "create", VariantOK, input, output, "flow-1", 1)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 64)
}

func TestRecordID_DiffersByField(t *testing.T) {
	input := Object{"title": String("Hello")}
	output := Object{"article": String("art-1")}

	base := MustRecordID("ArticlePublish", "create", VariantOK, input, output, "flow-1", 1)

	assert.NotEqual(t, base, MustRecordID("ArticlePublish", "create", VariantOK, input, output, "flow-1", 2))
	assert.NotEqual(t, base, MustRecordID("ArticlePublish", "create", VariantError, input, output, "flow-1", 1))
	assert.NotEqual(t, base, MustRecordID("ArticlePublish", "update", VariantOK, input, output, "flow-1", 1))
}

func TestBindingHash_DomainSeparated(t *testing.T) {
	bindings := Object{"article": String("art-1")}

	bh := MustBindingHash(bindings)
	rid := MustRecordID("", "", "", Object{}, Object{}, "", 0)

	// Different domains never collide even on related content.
	assert.NotEqual(t, bh, rid)
}
