package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParseValueKeepsMemberOrder(t *testing.T) {
	v, err := ParseValue([]byte(`{"z":1,"a":[true,null,"x"],"m":{"k":-2.5e3}}`))
	require.NoError(t, err)

	require.Equal(t, KindObject, v.Kind())
	keys := make([]string, 0, len(v.Members()))
	for _, m := range v.Members() {
		keys = append(keys, m.Key)
	}
	assert.Equal(t, []string{"z", "a", "m"}, keys)
	assert.Equal(t, `{"z":1,"a":[true,null,"x"],"m":{"k":-2.5e3}}`, v.String())
}

func TestParseValueScalars(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		kind Kind
		want string
	}{
		{name: "null", raw: "null", kind: KindNull, want: "null"},
		{name: "bool", raw: "false", kind: KindBool, want: "false"},
		{name: "big integer keeps literal", raw: "12345678901234567890", kind: KindNumber, want: "12345678901234567890"},
		{name: "string", raw: `"a<b>&"`, kind: KindString, want: `"a<b>&"`},
		{name: "empty array", raw: "[ ]", kind: KindArray, want: "[]"},
		{name: "empty object", raw: "{ }", kind: KindObject, want: "{}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseValue([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.kind, v.Kind())
			assert.Equal(t, tt.want, v.String())
		})
	}
}

func TestParseValueRejectsBadInput(t *testing.T) {
	for _, raw := range []string{"", "{", `{"a":}`, "1 2", "[1,]", "nope"} {
		_, err := ParseValue([]byte(raw))
		assert.Error(t, err, "input %q", raw)
	}
}

func TestValueAbsentVersusNull(t *testing.T) {
	var absent Value
	assert.False(t, absent.Present())
	assert.Equal(t, "", absent.String())
	assert.True(t, Null().Present())
	assert.False(t, absent.Equal(Null()))

	out, err := json.Marshal(absent)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestValueGetReturnsLastDuplicate(t *testing.T) {
	v, err := ParseValue([]byte(`{"n":1,"n":2}`))
	require.NoError(t, err)
	got, ok := v.Get("n")
	require.True(t, ok)
	assert.Equal(t, "2", got.Text())

	_, ok = v.Get("missing")
	assert.False(t, ok)
}

func TestValueInterfaceMatchesEncodingJSON(t *testing.T) {
	v := Object(
		Member{Key: "n", Value: Number("1")},
		Member{Key: "tags", Value: Array(String("a"), Bool(true))},
		Member{Key: "none", Value: Null()},
	)
	assert.Equal(t, map[string]any{
		"n":    json.Number("1"),
		"tags": []any{"a", true},
		"none": nil,
	}, v.Interface())
}

func TestValueUnmarshalJSONInStruct(t *testing.T) {
	var holder struct {
		Data Value `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"data":{"b":1,"a":2}}`), &holder))
	assert.Equal(t, `{"b":1,"a":2}`, holder.Data.String())
}

func valueGen(depth int) *rapid.Generator[Value] {
	scalar := rapid.OneOf(
		rapid.Just(Null()),
		rapid.Map(rapid.Bool(), Bool),
		rapid.Map(rapid.Int64(), func(n int64) Value { return Number(jsonInt(n)) }),
		rapid.Map(rapid.String(), String),
	)
	if depth <= 0 {
		return scalar
	}
	child := valueGen(depth - 1)
	return rapid.OneOf(
		scalar,
		rapid.Map(rapid.SliceOfN(child, 0, 4), func(items []Value) Value { return Array(items...) }),
		rapid.Custom(func(t *rapid.T) Value {
			n := rapid.IntRange(0, 4).Draw(t, "members")
			members := make([]Member, n)
			for i := range members {
				members[i] = Member{
					Key:   rapid.StringN(0, 8, -1).Draw(t, "key"),
					Value: child.Draw(t, "value"),
				}
			}
			return Object(members...)
		}),
	)
}

func jsonInt(n int64) string {
	out, _ := json.Marshal(n)
	return string(out)
}

func TestValueStringParsesBackToEqualValue(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := valueGen(3).Draw(t, "value")
		parsed, err := ParseValue([]byte(v.String()))
		if err != nil {
			t.Fatalf("parse %q: %v", v.String(), err)
		}
		if !parsed.Equal(v) {
			t.Fatalf("got %s, want %s", parsed.String(), v.String())
		}
	})
}
