package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortedKeysNoHTMLEscape(t *testing.T) {
	obj := Object{
		"b":    String("<tag> & text"),
		"a":    Int(1),
		"flag": Bool(true),
	}

	out, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":"<tag> & text","flag":true}`, string(out))
}

func TestMarshalCanonical_RejectsNull(t *testing.T) {
	_, err := MarshalCanonical(Object{"x": Null{}})
	assert.Error(t, err)
}

func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	// "e" + combining acute (NFD) must serialize identically to the
	// precomposed form (NFC).
	decomposed := Object{"k": String("é")}
	composed := Object{"k": String("é")}

	a, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	b, err := MarshalCanonical(composed)
	require.NoError(t, err)
	assert.Equal(t, string(b), string(a))
}

func TestMarshalCanonical_LineSeparatorsLiteral(t *testing.T) {
	// U+2028 and U+2029 must appear literally, not as \u escapes.
	out, err := MarshalCanonical(String("a\u2028b\u2029c"))
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\u2029c\"", string(out))
}

func TestMarshalCanonical_BackslashU2028StaysEscaped(t *testing.T) {
	// A literal backslash followed by "u2028" is text, not an escape.
	out, err := MarshalCanonical(String(`\u2028`))
	require.NoError(t, err)
	assert.Equal(t, `"\\u2028"`, string(out))
}
