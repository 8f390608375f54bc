package rewrite

import (
	"math"
	"math/big"
)

// maxExactExponent bounds exact integer powers; larger ones stay symbolic.
const maxExactExponent = 1 << 16

// ============================================================
// Plus — constant folding, then like-term collection
// ============================================================

func (sys *System) reducePlus(c *Combiner[number]) ReducerFunc {
	return func(call *Call) (Expr, error) {
		args := call.Args()
		if out, changed := c.Fold(sys.Plus, args); changed {
			return out, nil
		}
		return sys.collectTerms(args), nil
	}
}

// collectTerms merges c1*t + c2*t into (c1+c2)*t. Terms keep the order of
// their first occurrence; zero-coefficient terms are dropped.
func (sys *System) collectTerms(args []Expr) Expr {
	coeffs := NewExprMap[number]()
	var out []Expr
	merged := false
	for _, a := range args {
		if _, ok := numberOf(a); ok {
			out = append(out, a)
			continue
		}
		coef, term := sys.splitCoefficient(a)
		if old, seen := coeffs.Get(term); seen {
			coef = old.add(coef)
			merged = true
		}
		coeffs.Put(term, coef)
	}
	if !merged {
		return nil
	}
	coeffs.Range(func(term Expr, coef number) bool {
		switch {
		case coef.isZero():
		case coef.isOne():
			out = append(out, term)
		default:
			out = append(out, sys.invoke(sys.Times, []Expr{sys.numberExpr(coef), term}))
		}
		return true
	})
	switch len(out) {
	case 0:
		return sys.Int(0)
	case 1:
		return out[0]
	}
	return sys.invoke(sys.Plus, out)
}

// splitCoefficient splits Times[c, rest...] into c and Times[rest...].
func (sys *System) splitCoefficient(e Expr) (number, Expr) {
	inv, ok := e.(*Invocation)
	if !ok || inv.head != Expr(sys.Times) || len(inv.args) < 2 {
		return exactNumber(1), e
	}
	n, ok := numberOf(inv.args[0])
	if !ok {
		return exactNumber(1), e
	}
	if len(inv.args) == 2 {
		return n, inv.args[1]
	}
	return n, sys.invoke(sys.Times, append([]Expr(nil), inv.args[1:]...))
}

// ============================================================
// Times — constant folding, then like-base collection
// ============================================================

func (sys *System) reduceTimes(c *Combiner[number]) ReducerFunc {
	return func(call *Call) (Expr, error) {
		args := call.Args()
		if out, changed := c.Fold(sys.Times, args); changed {
			return out, nil
		}
		return sys.collectFactors(args), nil
	}
}

// collectFactors merges b^e1 * b^e2 into b^(e1+e2).
func (sys *System) collectFactors(args []Expr) Expr {
	exps := NewExprMap[[]Expr]()
	var out []Expr
	merged := false
	for _, a := range args {
		if _, ok := numberOf(a); ok {
			out = append(out, a)
			continue
		}
		base, exp := a, Expr(sys.Int(1))
		if inv, ok := a.(*Invocation); ok && inv.head == Expr(sys.Power) && len(inv.args) == 2 {
			base, exp = inv.args[0], inv.args[1]
		}
		old, seen := exps.Get(base)
		merged = merged || seen
		exps.Put(base, append(old, exp))
	}
	if !merged {
		return nil
	}
	exps.Range(func(base Expr, es []Expr) bool {
		switch {
		case len(es) > 1:
			out = append(out, sys.invoke(sys.Power, []Expr{base, sys.invoke(sys.Plus, es)}))
		case isIntegerOne(es[0]):
			out = append(out, base)
		default:
			out = append(out, sys.invoke(sys.Power, []Expr{base, es[0]}))
		}
		return true
	})
	if len(out) == 1 {
		return out[0]
	}
	return sys.invoke(sys.Times, out)
}

func isIntegerOne(e Expr) bool {
	i, ok := e.(*Integer)
	return ok && i.v.IsInt64() && i.v.Int64() == 1
}

// ============================================================
// Power
// ============================================================

func (sys *System) reducePower(c *Call) (Expr, error) {
	if c.Len() != 2 {
		return nil, nil
	}
	b, e := c.Arg(0), c.Arg(1)
	bn, bNum := numberOf(b)
	en, eNum := numberOf(e)
	switch {
	case eNum && en.isOne():
		return b, nil
	case eNum && en.isZero():
		if bNum && bn.isZero() {
			return nil, c.DomainError("0^0 is indeterminate")
		}
		return sys.Int(1), nil
	case bNum && bn.isOne():
		return sys.Int(1), nil
	}
	if bNum && eNum {
		switch {
		case !bn.float && en.isInteger():
			return sys.exactPower(c, bn.exact, en.exact.Num())
		case bn.float || en.float:
			r := math.Pow(bn.toFloat(), en.toFloat())
			if math.IsNaN(r) {
				return nil, nil
			}
			return sys.Real(r), nil
		}
		return nil, nil
	}
	if inner, ok := b.(*Invocation); ok && inner.head == Expr(sys.Power) && len(inner.args) == 2 && eNum && en.isInteger() {
		return sys.invoke(sys.Power, []Expr{inner.args[0], sys.invoke(sys.Times, []Expr{inner.args[1], e})}), nil
	}
	return nil, nil
}

func (sys *System) exactPower(c *Call, base *big.Rat, k *big.Int) (Expr, error) {
	if !k.IsInt64() {
		return nil, nil
	}
	n := k.Int64()
	neg := n < 0
	if neg {
		n = -n
	}
	if n > maxExactExponent {
		return nil, nil
	}
	if neg && base.Sign() == 0 {
		return nil, c.DomainError("division by zero")
	}
	num := new(big.Int).Exp(base.Num(), big.NewInt(n), nil)
	den := new(big.Int).Exp(base.Denom(), big.NewInt(n), nil)
	if neg {
		num, den = den, num
	}
	return sys.BigRat(new(big.Rat).SetFrac(num, den)), nil
}

// ============================================================
// Comparison and logic
// ============================================================

func isNaN(n number) bool { return n.float && math.IsNaN(n.f) }

// ordering builds a chained numeric comparison such as Less[a, b, c].
func (sys *System) ordering(holds func(int) bool) ReducerFunc {
	return func(c *Call) (Expr, error) {
		nums := make([]number, c.Len())
		for i, a := range c.Args() {
			n, ok := numberOf(a)
			if !ok {
				return nil, nil
			}
			nums[i] = n
		}
		for i := 1; i < len(nums); i++ {
			if isNaN(nums[i-1]) || isNaN(nums[i]) || !holds(nums[i-1].cmp(nums[i])) {
				return sys.False, nil
			}
		}
		return sys.True, nil
	}
}

// sameValue decides a == b when it can: known is false for symbolic terms.
func sameValue(a, b Expr) (equal, known bool) {
	if an, ok := numberOf(a); ok {
		if bn, ok := numberOf(b); ok {
			if isNaN(an) || isNaN(bn) {
				return false, true
			}
			return an.cmp(bn) == 0, true
		}
	}
	if Equivalent(a, b) {
		return true, true
	}
	if isConstant(a) && isConstant(b) {
		return false, true
	}
	return false, false
}

func isConstant(e Expr) bool {
	switch e.(type) {
	case *Symbol, *Invocation:
		return false
	}
	return true
}

func (sys *System) reduceEqual(c *Call) (Expr, error) {
	args := c.Args()
	unknown := false
	for i := 1; i < len(args); i++ {
		eq, known := sameValue(args[i-1], args[i])
		switch {
		case !known:
			unknown = true
		case !eq:
			return sys.False, nil
		}
	}
	if unknown {
		return nil, nil
	}
	return sys.True, nil
}

func (sys *System) reduceUnequal(c *Call) (Expr, error) {
	args := c.Args()
	unknown := false
	for i := range args {
		for j := i + 1; j < len(args); j++ {
			eq, known := sameValue(args[i], args[j])
			switch {
			case !known:
				unknown = true
			case eq:
				return sys.False, nil
			}
		}
	}
	if unknown {
		return nil, nil
	}
	return sys.True, nil
}

func (sys *System) reduceSameQ(c *Call) (Expr, error) {
	args := c.Args()
	for i := 1; i < len(args); i++ {
		if !Equivalent(args[i-1], args[i]) {
			return sys.False, nil
		}
	}
	return sys.True, nil
}

func (sys *System) reduceNot(c *Call) (Expr, error) {
	if c.Len() != 1 {
		return nil, nil
	}
	switch a := c.Arg(0).(type) {
	case *Boolean:
		return sys.Bool(!a.v), nil
	case *Invocation:
		if a.head == Expr(sys.Not) && len(a.args) == 1 {
			return a.args[0], nil
		}
	}
	return nil, nil
}
