package rewrite

import (
	"math"
	"math/big"
	"strings"
)

// Canonical order classes: numbers, strings, booleans, handles, symbols,
// invocations.
const (
	classNumber = iota
	classText
	classBoolean
	classHandle
	classSymbol
	classInvocation
)

func orderClass(e Expr) (class, kind int) {
	switch e.(type) {
	case *Integer:
		return classNumber, 0
	case *Rational:
		return classNumber, 1
	case *Real:
		return classNumber, 2
	case *Text:
		return classText, 0
	case *Boolean:
		return classBoolean, 0
	case *Handle:
		return classHandle, 0
	case *Symbol:
		return classSymbol, 0
	default:
		return classInvocation, 0
	}
}

// Compare is a total order on terms that returns 0 exactly when a and b are
// equivalent. Orderless canonicalization sorts by it.
func Compare(a, b Expr) int {
	if a == b {
		return 0
	}
	ca, ka := orderClass(a)
	cb, kb := orderClass(b)
	if ca != cb {
		return cmpInt(ca, cb)
	}
	switch ca {
	case classNumber:
		if c := compareNumbers(a, b); c != 0 {
			return c
		}
		if ka != kb {
			return cmpInt(ka, kb)
		}
		return 0
	case classText:
		return strings.Compare(a.(*Text).v, b.(*Text).v)
	case classBoolean:
		x, y := a.(*Boolean).v, b.(*Boolean).v
		switch {
		case x == y:
			return 0
		case !x:
			return -1
		}
		return 1
	case classHandle:
		if a.Equivalent(b) {
			return 0
		}
		if c := cmpUint(a.Hash(), b.Hash()); c != 0 {
			return c
		}
		return cmpUint(a.(*Handle).seq, b.(*Handle).seq)
	case classSymbol:
		x, y := a.(*Symbol), b.(*Symbol)
		if c := strings.Compare(x.name, y.name); c != 0 {
			return c
		}
		return cmpUint(x.id, y.id)
	}
	x, y := a.(*Invocation), b.(*Invocation)
	if c := Compare(x.head, y.head); c != 0 {
		return c
	}
	for i := 0; i < len(x.args) && i < len(y.args); i++ {
		if c := Compare(x.args[i], y.args[i]); c != 0 {
			return c
		}
	}
	return cmpInt(len(x.args), len(y.args))
}

// compareNumbers orders by numeric value; NaN sorts after every number.
func compareNumbers(a, b Expr) int {
	ra, fa, exactA := numericValue(a)
	rb, fb, exactB := numericValue(b)
	if exactA && exactB {
		return ra.Cmp(rb)
	}
	if !exactA && !exactB {
		return cmpFloat(fa, fb)
	}
	// Mixed: compare exactly when the float is finite.
	if exactA {
		if math.IsNaN(fb) {
			return -1
		}
		if math.IsInf(fb, 0) {
			return -int(math.Copysign(1, fb))
		}
		return ra.Cmp(new(big.Rat).SetFloat64(fb))
	}
	return -compareNumbers(b, a)
}

func numericValue(e Expr) (*big.Rat, float64, bool) {
	switch t := e.(type) {
	case *Integer:
		return new(big.Rat).SetInt(t.v), 0, true
	case *Rational:
		return t.v, 0, true
	case *Real:
		return nil, t.v, false
	}
	return nil, 0, false
}

func cmpFloat(x, y float64) int {
	switch {
	case math.IsNaN(x) && math.IsNaN(y):
		return 0
	case math.IsNaN(x):
		return 1
	case math.IsNaN(y):
		return -1
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func cmpInt(x, y int) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

func cmpUint(x, y uint64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}
