package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseValue_Types(t *testing.T) {
	v, err := ParseValue([]byte(`{"name":"cart","count":5,"open":true,"tags":["a","b"],"note":null}`))
	require.NoError(t, err)

	obj, ok := v.(Object)
	require.True(t, ok)
	assert.Equal(t, String("cart"), obj["name"])
	assert.Equal(t, Int(5), obj["count"])
	assert.Equal(t, Bool(true), obj["open"])
	assert.Equal(t, Array{String("a"), String("b")}, obj["tags"])
	assert.Equal(t, Null{}, obj["note"])
}

func TestParseValue_RejectsFloats(t *testing.T) {
	cases := []string{`1.5`, `{"x":2.0}`, `[1e3]`, `{"nested":{"y":0.1}}`}
	for _, c := range cases {
		_, err := ParseValue([]byte(c))
		assert.Error(t, err, "input %s should be rejected", c)
	}
}

func TestObject_RoundTrip(t *testing.T) {
	obj := Object{
		"id":    String("art-1"),
		"count": Int(3),
		"inner": Object{"flag": Bool(false)},
	}

	data, err := json.Marshal(obj)
	require.NoError(t, err)

	var back Object
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, Equal(obj, back))
}

func TestObject_SortedKeysUTF16Order(t *testing.T) {
	// U+1D400 (math bold A) encodes as a surrogate pair starting 0xD835,
	// so in UTF-16 code-unit order it sorts BEFORE U+FF21 (fullwidth A).
	// UTF-8 byte order would put it after.
	obj := Object{
		"\U0001D400": Int(1),
		"Ａ":     Int(2),
		"a":          Int(3),
	}
	keys := obj.SortedKeys()
	assert.Equal(t, []string{"a", "\U0001D400", "Ａ"}, keys)
}

func TestEqual(t *testing.T) {
	a := Object{"x": Array{Int(1), String("two")}, "n": Null{}}
	b := Object{"x": Array{Int(1), String("two")}, "n": Null{}}
	c := Object{"x": Array{Int(1), String("three")}, "n": Null{}}

	assert.True(t, Equal(a, b))
	assert.False(t, Equal(a, c))
	assert.False(t, Equal(Int(1), String("1")))
}
