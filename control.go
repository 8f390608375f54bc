package rewrite

// ============================================================
// Control flow
// ============================================================

func (sys *System) reduceIf(c *Call) (Expr, error) {
	if c.Len() < 2 || c.Len() > 4 {
		return nil, nil
	}
	switch c.Arg(0) {
	case Expr(sys.True):
		return c.Arg(1), nil
	case Expr(sys.False):
		if c.Len() == 2 {
			return sys.Null, nil
		}
		return c.Arg(2), nil
	}
	if c.Len() == 4 {
		return c.Arg(3), nil
	}
	return nil, nil
}

// reduceCompound evaluates all but the last argument for effect and
// returns the last one for the evaluator to continue with.
func (sys *System) reduceCompound(c *Call) (Expr, error) {
	if c.Len() == 0 {
		return sys.Null, nil
	}
	for _, a := range c.Args()[:c.Len()-1] {
		if _, err := c.Evaluate(a); err != nil {
			return nil, err
		}
	}
	return c.Arg(c.Len() - 1), nil
}

// ============================================================
// Definitions
// ============================================================

// definitionOwner returns the symbol a definition with left-hand side lhs
// is stored on.
func (sys *System) definitionOwner(c *Call, lhs Expr) (*Symbol, error) {
	owner := ruleHead(lhs)
	if owner == nil {
		return nil, c.malformed("cannot define a value for %s", lhs)
	}
	return owner, nil
}

func (sys *System) reduceSet(c *Call) (Expr, error) {
	if c.Len() != 2 {
		return nil, nil
	}
	lhs, rhs := c.Arg(0), c.Arg(1)
	owner, err := sys.definitionOwner(c, lhs)
	if err != nil {
		return nil, err
	}
	if err := owner.Define(&Rule{Kind: Immediate, Pattern: lhs, Template: rhs}); err != nil {
		return nil, err
	}
	return rhs, nil
}

// reduceSetDelayed stores lhs :> rhs. A right-hand side Condition[body,
// test] becomes the rule's condition.
func (sys *System) reduceSetDelayed(c *Call) (Expr, error) {
	if c.Len() != 2 {
		return nil, nil
	}
	lhs, rhs := c.Arg(0), c.Arg(1)
	owner, err := sys.definitionOwner(c, lhs)
	if err != nil {
		return nil, err
	}
	r := &Rule{Kind: Delayed, Pattern: lhs, Template: rhs}
	if cond, ok := rhs.(*Invocation); ok && cond.head == Expr(sys.Condition) && len(cond.args) == 2 {
		r.Template, r.Condition = cond.args[0], cond.args[1]
	}
	if err := owner.Define(r); err != nil {
		return nil, err
	}
	return sys.Null, nil
}

func (sys *System) reduceClear(c *Call) (Expr, error) {
	for _, a := range c.Args() {
		s, ok := a.(*Symbol)
		if !ok {
			return nil, c.malformed("Clear expects symbols, got %s", a)
		}
		if err := s.ClearValues(); err != nil {
			return nil, err
		}
	}
	return sys.Null, nil
}

// reduceSetAttributes handles SetAttributes (add) and ClearAttributes.
// Both take a symbol or list of symbols and an attribute name or list.
func (sys *System) reduceSetAttributes(add bool) ReducerFunc {
	return func(c *Call) (Expr, error) {
		if c.Len() != 2 {
			return nil, nil
		}
		targets, err := sys.symbolList(c, c.Arg(0))
		if err != nil {
			return nil, err
		}
		names, err := sys.symbolList(c, c.Arg(1))
		if err != nil {
			return nil, err
		}
		var attrs Attributes
		lock := false
		for _, n := range names {
			if n == sys.Locked {
				lock = true
				continue
			}
			a, ok := sys.attributeOf(n)
			if !ok {
				return nil, c.DomainError("unknown attribute %s", n.name)
			}
			attrs = attrs.With(a)
		}
		for _, s := range targets {
			switch {
			case add:
				err = s.AddAttributes(attrs)
			case lock:
				err = &EvalError{Op: "ClearAttributes", Term: s, Err: ErrLocked}
			default:
				err = s.RemoveAttributes(attrs)
			}
			if err != nil {
				return nil, err
			}
			if add && lock {
				s.Lock()
			}
		}
		return sys.Null, nil
	}
}

func (sys *System) symbolList(c *Call, e Expr) ([]*Symbol, error) {
	items := []Expr{e}
	if l, ok := e.(*Invocation); ok && l.head == Expr(sys.List) {
		items = l.args
	}
	out := make([]*Symbol, len(items))
	for i, it := range items {
		s, ok := it.(*Symbol)
		if !ok {
			return nil, c.malformed("expected a symbol, got %s", it)
		}
		out[i] = s
	}
	return out, nil
}

func (sys *System) reduceAttributes(c *Call) (Expr, error) {
	if c.Len() != 1 {
		return nil, nil
	}
	s, ok := c.Arg(0).(*Symbol)
	if !ok {
		return nil, c.malformed("Attributes expects a symbol")
	}
	return sys.invoke(sys.List, sys.attributeSymbols(s.attrs, s.locked)), nil
}

// ============================================================
// Rules as data
// ============================================================

// reduceReplaceAll rewrites e top down: at each subterm the first rule
// that matches replaces it and its parts are not visited again.
func (sys *System) reduceReplaceAll(c *Call) (Expr, error) {
	if c.Len() != 2 {
		return nil, nil
	}
	rules, ok := sys.rulesOf(c.Arg(1))
	if !ok {
		return nil, nil
	}
	out, _, err := sys.replaceAll(c.sess, c.Arg(0), rules)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (sys *System) rulesOf(e Expr) ([]*Rule, bool) {
	items := []Expr{e}
	if l, ok := e.(*Invocation); ok && l.head == Expr(sys.List) {
		items = l.args
	}
	rules := make([]*Rule, 0, len(items))
	for _, it := range items {
		inv, ok := it.(*Invocation)
		if !ok || len(inv.args) != 2 {
			return nil, false
		}
		switch inv.head {
		case Expr(sys.Rule):
			rules = append(rules, &Rule{Kind: Immediate, Pattern: inv.args[0], Template: inv.args[1]})
		case Expr(sys.RuleDelayed):
			rules = append(rules, &Rule{Kind: Delayed, Pattern: inv.args[0], Template: inv.args[1]})
		default:
			return nil, false
		}
	}
	return rules, true
}

func (sys *System) replaceAll(s *session, e Expr, rules []*Rule) (Expr, bool, error) {
	for _, r := range rules {
		out, ok, err := s.applyRule(r, e)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return out, true, nil
		}
	}
	inv, ok := e.(*Invocation)
	if !ok {
		return e, false, nil
	}
	st := sys.NewStage(inv)
	head, _, err := sys.replaceAll(s, inv.head, rules)
	if err != nil {
		return nil, false, err
	}
	st.SetHead(head)
	for i, a := range inv.args {
		na, _, err := sys.replaceAll(s, a, rules)
		if err != nil {
			return nil, false, err
		}
		st.Set(i, na)
	}
	changed := st.Dirty()
	return st.Build(), changed, nil
}
