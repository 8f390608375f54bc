package rewrite

import (
	"math"
	"math/big"
)

// number is a numeric constant during folding: an exact rational, or a
// float once any float has been combined in. Exact values are never
// recovered from floats.
type number struct {
	exact *big.Rat
	f     float64
	float bool
}

func exactNumber(n int64) number   { return number{exact: big.NewRat(n, 1)} }
func floatNumber(f float64) number { return number{f: f, float: true} }

func numberOf(e Expr) (number, bool) {
	switch t := e.(type) {
	case *Integer:
		return number{exact: new(big.Rat).SetInt(t.v)}, true
	case *Rational:
		return number{exact: t.v}, true
	case *Real:
		return floatNumber(t.v), true
	}
	return number{}, false
}

func (n number) toFloat() float64 {
	if n.float {
		return n.f
	}
	f, _ := n.exact.Float64()
	return f
}

func (n number) add(m number) number {
	if n.float || m.float {
		return floatNumber(n.toFloat() + m.toFloat())
	}
	return number{exact: new(big.Rat).Add(n.exact, m.exact)}
}

func (n number) mul(m number) number {
	if n.float || m.float {
		return floatNumber(n.toFloat() * m.toFloat())
	}
	return number{exact: new(big.Rat).Mul(n.exact, m.exact)}
}

// isZero and isOne hold for exact values only.
func (n number) isZero() bool { return !n.float && n.exact.Sign() == 0 }
func (n number) isOne() bool  { return !n.float && n.exact.IsInt() && n.exact.Num().IsInt64() && n.exact.Num().Int64() == 1 }

func (n number) isInteger() bool { return !n.float && n.exact.IsInt() }

func (n number) cmp(m number) int {
	switch {
	case !n.float && !m.float:
		return n.exact.Cmp(m.exact)
	case n.float && m.float:
		return cmpFloat(n.f, m.f)
	case n.float:
		return -m.cmp(n)
	}
	switch {
	case math.IsNaN(m.f):
		return -1
	case math.IsInf(m.f, 1):
		return -1
	case math.IsInf(m.f, -1):
		return 1
	}
	return n.exact.Cmp(new(big.Rat).SetFloat64(m.f))
}

func (sys *System) numberExpr(n number) Expr {
	if n.float {
		return sys.Real(n.f)
	}
	return sys.BigRat(n.exact)
}
