package rewrite

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
)

// ============================================================
// JSON Serialization
// ============================================================
//
// Terms encode as objects tagged by "type":
//
//	{"type":"integer","value":"12"}
//	{"type":"rational","value":"1/3"}
//	{"type":"real","value":"2.5"}
//	{"type":"boolean","value":true}
//	{"type":"string","value":"hi"}
//	{"type":"symbol","name":"x"}
//	{"type":"call","head":{...},"args":[{...}, ...]}
//
// Numbers travel as strings so no precision is lost. Handles cannot be
// encoded.

func toJSON(e Expr) (map[string]interface{}, error) {
	switch t := e.(type) {
	case *Integer:
		return map[string]interface{}{"type": "integer", "value": t.v.String()}, nil
	case *Rational:
		return map[string]interface{}{"type": "rational", "value": t.v.RatString()}, nil
	case *Real:
		return map[string]interface{}{"type": "real", "value": strconv.FormatFloat(t.v, 'g', -1, 64)}, nil
	case *Boolean:
		return map[string]interface{}{"type": "boolean", "value": t.v}, nil
	case *Text:
		return map[string]interface{}{"type": "string", "value": t.v}, nil
	case *Symbol:
		return map[string]interface{}{"type": "symbol", "name": t.name}, nil
	case *Invocation:
		head, err := toJSON(t.head)
		if err != nil {
			return nil, err
		}
		args := make([]interface{}, len(t.args))
		for i, a := range t.args {
			if args[i], err = toJSON(a); err != nil {
				return nil, err
			}
		}
		return map[string]interface{}{"type": "call", "head": head, "args": args}, nil
	}
	return nil, fmt.Errorf("rewrite: cannot encode %T as JSON", e)
}

// EncodeJSON renders e in the tagged JSON form.
func EncodeJSON(e Expr) ([]byte, error) {
	m, err := toJSON(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// DecodeJSON parses the tagged JSON form. Symbol names resolve through
// scope (the global scope when nil); unknown names are bound in it.
func (sys *System) DecodeJSON(data []byte, scope *Scope) (Expr, error) {
	if scope == nil {
		scope = sys.global
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("rewrite: decode: %w", err)
	}
	return sys.fromJSON(m, scope)
}

func (sys *System) fromJSON(data map[string]interface{}, scope *Scope) (Expr, error) {
	if data == nil {
		return nil, fmt.Errorf("rewrite: term must be an object")
	}
	typ, ok := data["type"].(string)
	if !ok || typ == "" {
		return nil, fmt.Errorf("rewrite: field 'type' must be a non-empty string")
	}

	subString := func(field string) (string, error) {
		v, ok := data[field]
		if !ok {
			return "", fmt.Errorf("rewrite: %s: missing %q", typ, field)
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("rewrite: %s: %q must be a string", typ, field)
		}
		return s, nil
	}

	subObj := func(field string) (map[string]interface{}, error) {
		v, ok := data[field]
		if !ok {
			return nil, fmt.Errorf("rewrite: %s: missing %q", typ, field)
		}
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("rewrite: %s: %q must be an object", typ, field)
		}
		return m, nil
	}

	subObjArray := func(field string) ([]map[string]interface{}, error) {
		v, ok := data[field]
		if !ok {
			return nil, fmt.Errorf("rewrite: %s: missing %q", typ, field)
		}
		raw, ok := v.([]interface{})
		if !ok {
			return nil, fmt.Errorf("rewrite: %s: %q must be an array", typ, field)
		}
		out := make([]map[string]interface{}, len(raw))
		for i, it := range raw {
			m, ok := it.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("rewrite: %s: %q[%d] must be an object", typ, field, i)
			}
			out[i] = m
		}
		return out, nil
	}

	switch typ {
	case "integer":
		val, err := subString("value")
		if err != nil {
			return nil, err
		}
		n, ok := new(big.Int).SetString(val, 10)
		if !ok {
			return nil, fmt.Errorf("rewrite: invalid integer value: %s", val)
		}
		return sys.newInteger(n), nil

	case "rational":
		val, err := subString("value")
		if err != nil {
			return nil, err
		}
		r, ok := new(big.Rat).SetString(val)
		if !ok {
			return nil, fmt.Errorf("rewrite: invalid rational value: %s", val)
		}
		return sys.BigRat(r), nil

	case "real":
		val, err := subString("value")
		if err != nil {
			return nil, err
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("rewrite: invalid real value: %w", err)
		}
		return sys.Real(f), nil

	case "boolean":
		v, ok := data["value"].(bool)
		if !ok {
			return nil, fmt.Errorf("rewrite: boolean: 'value' must be true or false")
		}
		return sys.Bool(v), nil

	case "string":
		val, err := subString("value")
		if err != nil {
			return nil, err
		}
		return sys.Text(val), nil

	case "symbol":
		name, err := subString("name")
		if err != nil {
			return nil, err
		}
		if name == "" {
			return nil, fmt.Errorf("rewrite: symbol: 'name' must be non-empty")
		}
		if s, ok := scope.Lookup(name); ok {
			return s, nil
		}
		sym, err := scope.Bind(name)
		if err != nil {
			return nil, err
		}
		return sym, nil

	case "call":
		headM, err := subObj("head")
		if err != nil {
			return nil, err
		}
		head, err := sys.fromJSON(headM, scope)
		if err != nil {
			return nil, err
		}
		objs, err := subObjArray("args")
		if err != nil {
			return nil, err
		}
		args := make([]Expr, len(objs))
		for i, o := range objs {
			if args[i], err = sys.fromJSON(o, scope); err != nil {
				return nil, err
			}
		}
		inv, err := sys.NewInvocation(head, args...)
		if err != nil {
			return nil, err
		}
		return inv, nil
	}
	return nil, fmt.Errorf("rewrite: unknown term type %q", typ)
}
