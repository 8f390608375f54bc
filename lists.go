package rewrite

import "math/big"

// ============================================================
// Lists
// ============================================================

func (sys *System) reduceLength(c *Call) (Expr, error) {
	if c.Len() != 1 {
		return nil, nil
	}
	if inv, ok := c.Arg(0).(*Invocation); ok {
		return sys.Int(int64(len(inv.args))), nil
	}
	return sys.Int(0), nil
}

// reduceRange builds Range[n], Range[a, b] and Range[a, b, step] over
// exact numbers.
func (sys *System) reduceRange(c *Call) (Expr, error) {
	if c.Len() < 1 || c.Len() > 3 {
		return nil, nil
	}
	nums := make([]*big.Rat, c.Len())
	for i, a := range c.Args() {
		n, ok := numberOf(a)
		if !ok || n.float {
			return nil, nil
		}
		nums[i] = n.exact
	}
	lo, hi, step := big.NewRat(1, 1), nums[0], big.NewRat(1, 1)
	if len(nums) > 1 {
		lo, hi = nums[0], nums[1]
	}
	if len(nums) > 2 {
		step = nums[2]
	}
	vals, err := sys.progression(c, lo, hi, step)
	if err != nil {
		return nil, err
	}
	items := make([]Expr, len(vals))
	for i, v := range vals {
		items[i] = sys.BigRat(v)
	}
	return sys.invoke(sys.List, items), nil
}

// progression lists lo, lo+step, ... up to hi, bounded by the iteration
// budget.
func (sys *System) progression(c *Call, lo, hi, step *big.Rat) ([]*big.Rat, error) {
	if step.Sign() == 0 {
		return nil, c.DomainError("step is zero")
	}
	var out []*big.Rat
	for v := new(big.Rat).Set(lo); ; v = new(big.Rat).Add(v, step) {
		if d := v.Cmp(hi); step.Sign() > 0 && d > 0 || step.Sign() < 0 && d < 0 {
			break
		}
		if len(out) >= sys.opts.MaxIterations {
			return nil, &ResourceError{Resource: "iterations", Limit: sys.opts.MaxIterations}
		}
		out = append(out, v)
	}
	return out, nil
}

// ---------- Table ----------

// iterator is one Table iteration spec: an optional variable and the
// values it takes.
type iterator struct {
	v    *Symbol
	vals []Expr
	reps int
}

// reduceTable evaluates body once per iterator value. Table[body, s1, s2]
// nests as Table[Table[body, s2], s1]. Each variable is replaced by a
// fresh symbol in a temporary scope that is popped when the table is done.
func (sys *System) reduceTable(c *Call) (Expr, error) {
	if c.Len() < 2 {
		return nil, nil
	}
	body := c.Arg(0)
	if c.Len() > 2 {
		inner := append([]Expr{body}, c.Args()[2:]...)
		body = sys.invoke(sys.Table, inner)
	}
	it, err := sys.iteratorOf(c, c.Arg(1))
	if err != nil || it == nil {
		return nil, err
	}

	scope := sys.PushScope(nil)
	defer sys.PopScope(scope)

	var local *Symbol
	if it.v != nil {
		local, err = scope.Bind(sys.freshName(it.v.name))
		if err != nil {
			return nil, err
		}
		sub := NewSubstitution()
		sub.Bind(it.v, local)
		body = sub.Apply(body)
	}

	n := it.reps
	if it.v != nil {
		n = len(it.vals)
	}
	items := make([]Expr, 0, n)
	for i := 0; i < n; i++ {
		if err := c.Probe(); err != nil {
			return nil, err
		}
		if err := c.sess.step(); err != nil {
			return nil, err
		}
		if local != nil {
			local.own = []*Rule{{Kind: Immediate, Pattern: local, Template: it.vals[i]}}
		}
		v, err := c.Evaluate(body)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return sys.invoke(sys.List, items), nil
}

// iteratorOf reads n, {n}, {i, n}, {i, a, b}, {i, a, b, step} or
// {i, {v1, v2, ...}}. It returns nil when the bounds are not numeric.
func (sys *System) iteratorOf(c *Call, spec Expr) (*iterator, error) {
	l, ok := spec.(*Invocation)
	if !ok || l.head != Expr(sys.List) {
		v, err := c.Evaluate(spec)
		if err != nil {
			return nil, err
		}
		return sys.repetitions(v), nil
	}
	switch len(l.args) {
	case 0:
		return nil, c.malformed("empty iterator")
	case 1:
		v, err := c.Evaluate(l.args[0])
		if err != nil {
			return nil, err
		}
		return sys.repetitions(v), nil
	}
	v, ok := l.args[0].(*Symbol)
	if !ok {
		return nil, c.malformed("iterator variable must be a symbol, got %s", l.args[0])
	}
	bounds := make([]Expr, len(l.args)-1)
	for i, a := range l.args[1:] {
		e, err := c.Evaluate(a)
		if err != nil {
			return nil, err
		}
		bounds[i] = e
	}
	if len(bounds) == 1 {
		if vals, ok := bounds[0].(*Invocation); ok && vals.head == Expr(sys.List) {
			return &iterator{v: v, vals: vals.args}, nil
		}
	}
	if len(bounds) > 3 {
		return nil, c.malformed("too many iterator bounds")
	}
	lo, step := exactNumber(1), exactNumber(1)
	nums := make([]number, len(bounds))
	for i, b := range bounds {
		n, ok := numberOf(b)
		if !ok {
			return nil, nil
		}
		nums[i] = n
	}
	hi := nums[0]
	if len(nums) > 1 {
		lo, hi = nums[0], nums[1]
	}
	if len(nums) > 2 {
		step = nums[2]
	}
	vals, err := sys.numericProgression(c, lo, hi, step)
	if err != nil {
		return nil, err
	}
	return &iterator{v: v, vals: vals}, nil
}

func (sys *System) repetitions(v Expr) *iterator {
	i, ok := v.(*Integer)
	if !ok || !i.v.IsInt64() {
		return nil
	}
	n := int(i.v.Int64())
	if n < 0 {
		n = 0
	}
	return &iterator{reps: n}
}

// numericProgression is progression for possibly inexact bounds.
func (sys *System) numericProgression(c *Call, lo, hi, step number) ([]Expr, error) {
	if !lo.float && !hi.float && !step.float {
		vals, err := sys.progression(c, lo.exact, hi.exact, step.exact)
		if err != nil {
			return nil, err
		}
		out := make([]Expr, len(vals))
		for i, v := range vals {
			out[i] = sys.BigRat(v)
		}
		return out, nil
	}
	if step.toFloat() == 0 {
		return nil, c.DomainError("step is zero")
	}
	var out []Expr
	for k := 0; ; k++ {
		v := lo.add(step.mul(exactNumber(int64(k))))
		if d := v.cmp(hi); step.toFloat() > 0 && d > 0 || step.toFloat() < 0 && d < 0 {
			break
		}
		if len(out) >= sys.opts.MaxIterations {
			return nil, &ResourceError{Resource: "iterations", Limit: sys.opts.MaxIterations}
		}
		out = append(out, sys.numberExpr(v))
	}
	return out, nil
}
