package rewrite_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rewrite "github.com/njchilds90/gorewrite"
)

// obj decodes a JSON literal into a tool parameter.
func obj(t *testing.T, s string) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func sym(name string) string { return `{"type":"symbol","name":"` + name + `"}` }
func integer(v string) string { return `{"type":"integer","value":"` + v + `"}` }
func call(head string, args ...string) string {
	out := `{"type":"call","head":` + sym(head) + `,"args":[`
	for i, a := range args {
		if i > 0 {
			out += ","
		}
		out += a
	}
	return out + "]}"
}

// ============================================================
// Tool call tests
// ============================================================

func TestHandleToolCall_Evaluate(t *testing.T) {
	sys := rewrite.NewSystem()
	resp := sys.HandleToolCall(context.Background(), rewrite.ToolRequest{
		Tool:   "evaluate",
		Params: map[string]interface{}{"expr": obj(t, call("Plus", integer("1"), sym("x"), integer("2")))},
	})
	require.Empty(t, resp.Error)
	assert.Equal(t, "Plus[3, x]", resp.String)
	assert.Equal(t, "3 + x", resp.Infix)
	assert.NotNil(t, resp.Result)
}

func TestHandleToolCall_EvaluateWithDefinitions(t *testing.T) {
	sys := rewrite.NewSystem()
	pattern := call("Pattern", sym("n"), call("Hole"))
	def := call("SetDelayed", call("sq", pattern), call("Power", sym("n"), integer("2")))
	resp := sys.HandleToolCall(context.Background(), rewrite.ToolRequest{
		Tool: "evaluate",
		Params: map[string]interface{}{
			"definitions": []interface{}{obj(t, def)},
			"expr":        obj(t, call("sq", integer("7"))),
		},
	})
	require.Empty(t, resp.Error)
	assert.Equal(t, "49", resp.String)
}

func TestHandleToolCall_Match(t *testing.T) {
	sys := rewrite.NewSystem()
	pattern := call("f", call("Pattern", sym("x"), call("Hole")), call("Pattern", sym("rest"), call("HoleSplice")))
	resp := sys.HandleToolCall(context.Background(), rewrite.ToolRequest{
		Tool: "match",
		Params: map[string]interface{}{
			"pattern": obj(t, pattern),
			"expr":    obj(t, call("f", integer("1"), integer("2"), integer("3"))),
		},
	})
	require.Empty(t, resp.Error)
	result := resp.Result.(map[string]interface{})
	assert.Equal(t, true, result["matched"])
	binds := result["bindings"].(map[string]interface{})
	assert.Equal(t, "1", binds["x"].(map[string]interface{})["value"])
	assert.Len(t, binds["rest"], 2)
}

func TestHandleToolCall_ReplaceAllAndCanonicalize(t *testing.T) {
	sys := rewrite.NewSystem()
	ctx := context.Background()
	resp := sys.HandleToolCall(ctx, rewrite.ToolRequest{
		Tool: "replace_all",
		Params: map[string]interface{}{
			"expr":  obj(t, call("List", sym("a"), sym("b"))),
			"rules": obj(t, call("Rule", sym("a"), integer("5"))),
		},
	})
	require.Empty(t, resp.Error)
	assert.Equal(t, "{5, b}", resp.Infix)

	resp = sys.HandleToolCall(ctx, rewrite.ToolRequest{
		Tool:   "canonicalize",
		Params: map[string]interface{}{"expr": obj(t, call("Plus", integer("2"), integer("1")))},
	})
	require.Empty(t, resp.Error)
	assert.Equal(t, "Plus[1, 2]", resp.String)
}

func TestHandleToolCall_Errors(t *testing.T) {
	sys := rewrite.NewSystem()
	ctx := context.Background()
	resp := sys.HandleToolCall(ctx, rewrite.ToolRequest{Tool: "simplify"})
	assert.Contains(t, resp.Error, "unknown tool")

	resp = sys.HandleToolCall(ctx, rewrite.ToolRequest{Tool: "evaluate", Params: map[string]interface{}{}})
	assert.Contains(t, resp.Error, "missing param")

	resp = sys.HandleToolCall(ctx, rewrite.ToolRequest{
		Tool:   "evaluate",
		Params: map[string]interface{}{"expr": obj(t, call("Power", integer("0"), integer("-1")))},
	})
	assert.Contains(t, resp.Error, "division by zero")
}

func TestToolSpec(t *testing.T) {
	var spec struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal([]byte(rewrite.ToolSpec()), &spec))
	var names []string
	for _, tool := range spec.Tools {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"evaluate", "canonicalize", "replace_all", "match", "tool_spec"}, names)
}
