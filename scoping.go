package rewrite

// ============================================================
// Function and Module
// ============================================================

// functionParams reads the parameter part of Function[params, body].
func (sys *System) functionParams(e Expr) ([]*Symbol, bool) {
	if s, ok := e.(*Symbol); ok {
		return []*Symbol{s}, true
	}
	l, ok := e.(*Invocation)
	if !ok || l.head != Expr(sys.List) {
		return nil, false
	}
	out := make([]*Symbol, len(l.args))
	for i, a := range l.args {
		s, ok := a.(*Symbol)
		if !ok {
			return nil, false
		}
		out[i] = s
	}
	return out, true
}

// applyFunction reduces Function[params, body][args...] by substituting
// the arguments for the parameters. Extra arguments are ignored; too few
// leave the invocation alone.
func (sys *System) applyFunction(c *Call) (Expr, error) {
	fn := c.Head().(*Invocation)
	if len(fn.args) != 2 {
		return nil, nil
	}
	params, ok := sys.functionParams(fn.args[0])
	if !ok {
		return nil, c.malformed("Function parameters must be symbols")
	}
	if len(params) > c.Len() {
		return nil, nil
	}
	sub := NewSubstitution()
	for i, p := range params {
		if !sub.Bind(p, c.Arg(i)) {
			return nil, c.malformed("duplicate parameter %s", p.name)
		}
	}
	return sub.Apply(fn.args[1]), nil
}

// reduceModule gives each local of Module[{x, y = init, ...}, body] a
// fresh symbol x$N in a new scope and returns the renamed body. The scope
// is not popped: the locals may escape in the result.
func (sys *System) reduceModule(c *Call) (Expr, error) {
	if c.Len() != 2 {
		return nil, nil
	}
	l, ok := c.Arg(0).(*Invocation)
	if !ok || l.head != Expr(sys.List) {
		return nil, c.malformed("Module locals must be a list")
	}
	scope := sys.PushScope(nil)
	sub := NewSubstitution()
	type pending struct {
		local *Symbol
		value Expr
	}
	var inits []pending
	for _, a := range l.args {
		name, value := a, Expr(nil)
		if set, ok := a.(*Invocation); ok && set.head == Expr(sys.Set) && len(set.args) == 2 {
			name, value = set.args[0], set.args[1]
		}
		v, ok := name.(*Symbol)
		if !ok {
			return nil, c.malformed("Module local must be a symbol, got %s", name)
		}
		local, err := scope.Bind(sys.freshName(v.name))
		if err != nil {
			return nil, err
		}
		if !sub.Bind(v, local) {
			return nil, c.malformed("duplicate local %s", v.name)
		}
		if value != nil {
			inits = append(inits, pending{local, value})
		}
	}
	for _, in := range inits {
		v, err := c.Evaluate(in.value)
		if err != nil {
			return nil, err
		}
		if err := in.local.Define(&Rule{Kind: Immediate, Pattern: in.local, Template: v}); err != nil {
			return nil, err
		}
	}
	if sys.debugEnabled() {
		sys.log.Debug("module scope", "locals", len(scope.order))
	}
	return sub.Apply(c.Arg(1)), nil
}
