package rewrite

import (
	"context"
	"encoding/json"
	"fmt"
)

// ============================================================
// Tool calls — JSON request surface for hosts and agents
// ============================================================
//
// Terms travel in the tagged JSON form of EncodeJSON. A request runs
// against one System; definitions it makes stay in that system.

type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type ToolResponse struct {
	Result interface{} `json:"result,omitempty"`
	String string      `json:"string,omitempty"`
	Infix  string      `json:"infix,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// HandleToolCall runs one tool. Failures are reported in the Error field.
func (sys *System) HandleToolCall(ctx context.Context, req ToolRequest) ToolResponse {
	getExpr := func(key string) (Expr, error) {
		v, ok := req.Params[key]
		if !ok {
			return nil, fmt.Errorf("missing param: %s", key)
		}
		val, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("invalid type for param %s", key)
		}
		return sys.fromJSON(val, sys.global)
	}
	getExprs := func(key string) ([]Expr, error) {
		v, ok := req.Params[key]
		if !ok {
			return nil, nil
		}
		raw, ok := v.([]interface{})
		if !ok {
			return nil, fmt.Errorf("param %s must be array", key)
		}
		out := make([]Expr, len(raw))
		for i, r := range raw {
			m, ok := r.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("param %s[%d] must be an object", key, i)
			}
			e, err := sys.fromJSON(m, sys.global)
			if err != nil {
				return nil, err
			}
			out[i] = e
		}
		return out, nil
	}
	respond := func(e Expr) ToolResponse {
		m, err := toJSON(e)
		if err != nil {
			return ToolResponse{String: e.String(), Error: err.Error()}
		}
		return ToolResponse{Result: m, String: e.String(), Infix: ToString(e, InfixForm)}
	}
	evaluate := func(e Expr) ToolResponse {
		out, err := sys.Evaluate(ctx, e)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return respond(out)
	}

	switch req.Tool {
	case "evaluate":
		defs, err := getExprs("definitions")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		for i, d := range defs {
			if _, err := sys.Evaluate(ctx, d); err != nil {
				return ToolResponse{Error: fmt.Sprintf("definitions[%d]: %v", i, err)}
			}
		}
		e, err := getExpr("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return evaluate(e)

	case "canonicalize":
		e, err := getExpr("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return respond(sys.Canonicalize(e))

	case "replace_all":
		e, err := getExpr("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		rules, err := getExpr("rules")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return evaluate(sys.invoke(sys.ReplaceAll, []Expr{e, rules}))

	case "match":
		p, err := getExpr("pattern")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		e, err := getExpr("expr")
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		sub := NewSubstitution()
		ok, err := sys.TryMatch(ctx, p, e, nil, sub)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		binds, err := bindingsJSON(sub)
		if err != nil {
			return ToolResponse{Error: err.Error()}
		}
		return ToolResponse{Result: map[string]interface{}{"matched": ok, "bindings": binds}, String: fmt.Sprint(ok)}

	case "tool_spec":
		return ToolResponse{String: ToolSpec()}
	}
	return ToolResponse{Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
}

// bindingsJSON maps variable names to tagged terms; splice bindings map
// to arrays.
func bindingsJSON(sub *Substitution) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	for _, b := range sub.binds {
		if !b.Splice {
			m, err := toJSON(b.Value)
			if err != nil {
				return nil, err
			}
			out[b.Var.name] = m
			continue
		}
		seq := make([]interface{}, len(b.Seq))
		for i, e := range b.Seq {
			m, err := toJSON(e)
			if err != nil {
				return nil, err
			}
			seq[i] = m
		}
		out[b.Var.name] = seq
	}
	return out, nil
}

// ToolSpec describes the tools in the MCP tools/list shape.
func ToolSpec() string {
	tools := []map[string]interface{}{
		ts("evaluate", "Evaluate a term to its fixpoint after evaluating optional definitions in order", []string{"expr"}, map[string]string{"expr": "object", "definitions": "array"}),
		ts("canonicalize", "Canonicalize a term without evaluating it", []string{"expr"}, map[string]string{"expr": "object"}),
		ts("replace_all", "Rewrite a term once with a Rule or a List of rules", []string{"expr", "rules"}, map[string]string{"expr": "object", "rules": "object"}),
		ts("match", "Match a pattern against a term and return the bindings", []string{"pattern", "expr"}, map[string]string{"pattern": "object", "expr": "object"}),
		ts("tool_spec", "Return this tool schema", []string{}, map[string]string{}),
	}
	spec := map[string]interface{}{"tools": tools}
	b, _ := json.MarshalIndent(spec, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
