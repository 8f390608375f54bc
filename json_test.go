package rewrite_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rewrite "github.com/njchilds90/gorewrite"
)

// ============================================================
// JSON tests
// ============================================================

func TestJSON_RoundTrip(t *testing.T) {
	sys := rewrite.NewSystem()
	x := sys.Sym("x")
	e := sys.Sym("f").Of(
		x,
		sys.Int(-12),
		sys.Rat(1, 3),
		sys.Real(2.5),
		sys.True,
		sys.Text("hi"),
		sys.Plus.Of(x, sys.Int(1)),
	)
	data, err := rewrite.EncodeJSON(e)
	require.NoError(t, err)

	back, err := sys.DecodeJSON(data, nil)
	require.NoError(t, err)
	assert.True(t, rewrite.Equivalent(e, back), "got %s", back)

	inv := back.(*rewrite.Invocation)
	assert.Same(t, x, inv.Arg(0), "names resolve to the existing global symbol")
	assert.Same(t, sys.Plus, inv.Arg(6).Head())
}

func TestJSON_Format(t *testing.T) {
	sys := rewrite.NewSystem()
	data, err := rewrite.EncodeJSON(sys.ListOf(sys.Int(1)))
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "call", m["type"])
	head := m["head"].(map[string]interface{})
	assert.Equal(t, "List", head["name"])
	args := m["args"].([]interface{})
	require.Len(t, args, 1)
	assert.Equal(t, "1", args[0].(map[string]interface{})["value"])
}

func TestJSON_DecodeIntoScope(t *testing.T) {
	sys := rewrite.NewSystem()
	scope := sys.PushScope(nil)
	out, err := sys.DecodeJSON([]byte(`{"type":"symbol","name":"fresh"}`), scope)
	require.NoError(t, err)
	s := out.(*rewrite.Symbol)
	assert.True(t, scope.Owns(s))
	_, global := sys.Lookup("fresh")
	assert.False(t, global)
}

func TestJSON_Errors(t *testing.T) {
	sys := rewrite.NewSystem()
	_, err := rewrite.EncodeJSON(sys.Handle(1))
	assert.Error(t, err)

	bad := []string{
		`[]`,
		`{"type":"matrix"}`,
		`{"type":"integer","value":"1.5"}`,
		`{"type":"integer","value":1}`,
		`{"type":"boolean","value":"yes"}`,
		`{"type":"symbol","name":""}`,
		`{"type":"call","head":{"type":"symbol","name":"f"}}`,
		`{"type":"call","head":{"type":"symbol","name":"f"},"args":[1]}`,
	}
	for _, in := range bad {
		_, err := sys.DecodeJSON([]byte(in), nil)
		assert.Error(t, err, in)
	}
}
