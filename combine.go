package rewrite

import "math"

// ============================================================
// Combiner — constant folding for associative heads
// ============================================================

// Combiner folds the constant arguments of an associative, commutative
// head. Extract recognizes a constant, Combine merges two, Make turns the
// result back into a term. IsSink, when set, short-circuits the fold
// (False for And, exact 0 for Times).
type Combiner[T any] struct {
	Identity   T
	IsIdentity func(T) bool
	IsSink     func(T) bool
	Combine    func(a, b T) T
	Extract    func(Expr) (T, bool)
	Make       func(T) Expr
}

// Fold combines the constants of head[args...] left to right. The folded
// constant leads the remaining arguments, and is dropped when it is the
// identity. No arguments left yields the identity; one yields that
// argument. changed is false when the fold would rebuild the same term.
func (c *Combiner[T]) Fold(head *Symbol, args []Expr) (Expr, bool) {
	if len(args) == 0 {
		return c.Make(c.Identity), true
	}
	acc := c.Identity
	consts, firstAt := 0, -1
	rest := make([]Expr, 0, len(args))
	for i, a := range args {
		v, ok := c.Extract(a)
		if !ok {
			rest = append(rest, a)
			continue
		}
		if firstAt < 0 {
			firstAt = i
		}
		consts++
		acc = c.Combine(acc, v)
		if c.IsSink != nil && c.IsSink(acc) {
			return c.Make(acc), true
		}
	}
	identity := c.IsIdentity(acc)
	switch {
	case consts == 0:
		return nil, false
	case consts == 1 && !identity && firstAt == 0:
		return nil, false
	}
	out := rest
	if !identity {
		out = append([]Expr{c.Make(acc)}, rest...)
	}
	switch len(out) {
	case 0:
		return c.Make(c.Identity), true
	case 1:
		return out[0], true
	}
	return head.sys.invoke(head, out), true
}

// ---------- Combiners of the built-in library ----------

func (sys *System) sumCombiner() *Combiner[number] {
	return &Combiner[number]{
		Identity:   exactNumber(0),
		IsIdentity: number.isZero,
		Combine:    number.add,
		Extract:    numberOf,
		Make:       sys.numberExpr,
	}
}

func (sys *System) productCombiner() *Combiner[number] {
	return &Combiner[number]{
		Identity:   exactNumber(1),
		IsIdentity: number.isOne,
		IsSink:     number.isZero,
		Combine:    number.mul,
		Extract:    numberOf,
		Make:       sys.numberExpr,
	}
}

// extremumCombiner folds Min (dir < 0) or Max (dir > 0). The identities
// are the infinities; values are kept as given, never promoted.
func (sys *System) extremumCombiner(dir int) *Combiner[number] {
	id := floatNumber(math.Inf(-dir))
	return &Combiner[number]{
		Identity:   id,
		IsIdentity: func(n number) bool { return n.float && n.f == id.f },
		Combine: func(a, b number) number {
			if b.cmp(a)*dir > 0 {
				return b
			}
			return a
		},
		Extract: numberOf,
		Make:    sys.numberExpr,
	}
}

func (sys *System) booleanOf(e Expr) (bool, bool) {
	b, ok := e.(*Boolean)
	if !ok {
		return false, false
	}
	return b.v, true
}

func (sys *System) boolExpr(v bool) Expr { return sys.Bool(v) }

func (sys *System) andCombiner() *Combiner[bool] {
	return &Combiner[bool]{
		Identity:   true,
		IsIdentity: func(v bool) bool { return v },
		IsSink:     func(v bool) bool { return !v },
		Combine:    func(a, b bool) bool { return a && b },
		Extract:    sys.booleanOf,
		Make:       sys.boolExpr,
	}
}

func (sys *System) orCombiner() *Combiner[bool] {
	return &Combiner[bool]{
		Identity:   false,
		IsIdentity: func(v bool) bool { return !v },
		IsSink:     func(v bool) bool { return v },
		Combine:    func(a, b bool) bool { return a || b },
		Extract:    sys.booleanOf,
		Make:       sys.boolExpr,
	}
}

func (sys *System) xorCombiner() *Combiner[bool] {
	return &Combiner[bool]{
		Identity:   false,
		IsIdentity: func(v bool) bool { return !v },
		Combine:    func(a, b bool) bool { return a != b },
		Extract:    sys.booleanOf,
		Make:       sys.boolExpr,
	}
}
