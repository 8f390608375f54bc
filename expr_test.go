package rewrite_test

import (
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rewrite "github.com/njchilds90/gorewrite"
)

// ============================================================
// Constant tests
// ============================================================

func TestInteger_String(t *testing.T) {
	sys := rewrite.NewSystem()
	assert.Equal(t, "42", sys.Int(42).String())
	n, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	assert.Equal(t, "123456789012345678901234567890", sys.BigInt(n).String())
}

func TestRational_Normalizes(t *testing.T) {
	sys := rewrite.NewSystem()
	half := sys.Rat(2, 4)
	assert.Equal(t, "1/2", half.String())
	_, isInt := sys.Rat(4, 2).(*rewrite.Integer)
	assert.True(t, isInt, "4/2 should normalize to an integer")
	assert.True(t, rewrite.Equivalent(sys.Rat(4, 2), sys.Int(2)))
	assert.Panics(t, func() { sys.Rat(1, 0) })
}

func TestReal_Format(t *testing.T) {
	sys := rewrite.NewSystem()
	assert.Equal(t, "2.5", sys.Real(2.5).String())
	assert.Equal(t, "2.", sys.Real(2).String())
	assert.Equal(t, "Infinity", sys.Real(math.Inf(1)).String())
	assert.Equal(t, "Indeterminate", sys.Real(math.NaN()).String())
}

func TestReal_NegativeZero(t *testing.T) {
	sys := rewrite.NewSystem()
	a, b := sys.Real(0), sys.Real(math.Copysign(0, -1))
	assert.True(t, rewrite.Equivalent(a, b))
	assert.Equal(t, a.Hash(), b.Hash())
}

func TestBoolean_Shared(t *testing.T) {
	sys := rewrite.NewSystem()
	assert.Same(t, sys.True, sys.Bool(true))
	assert.Same(t, sys.False, sys.Bool(false))
	assert.Equal(t, "True", sys.True.String())
}

func TestText_Quoted(t *testing.T) {
	sys := rewrite.NewSystem()
	assert.Equal(t, `"hi"`, sys.Text("hi").String())
	assert.Same(t, sys.String, sys.Text("hi").Head())
}

func TestHandle_Equivalence(t *testing.T) {
	sys := rewrite.NewSystem()
	assert.True(t, rewrite.Equivalent(sys.Handle(7), sys.Handle(7)))
	assert.False(t, rewrite.Equivalent(sys.Handle(7), sys.Handle(8)))

	s := []int{1}
	h := sys.Handle(s)
	assert.True(t, rewrite.Equivalent(h, h))
	assert.False(t, rewrite.Equivalent(h, sys.Handle(s)), "non-comparable values are equal only to the same handle")
	assert.Same(t, sys.Builtins.Handle, h.Head())
}

// box has a comparable type, but == panics when its field holds a slice.
type box struct{ v any }

func TestHandle_UncomparableDynamicValue(t *testing.T) {
	sys := rewrite.NewSystem()
	a, b := sys.Handle(box{[]int{1}}), sys.Handle(box{[]int{1}})
	require.NotPanics(t, func() {
		assert.False(t, rewrite.Equivalent(a, b))
		assert.True(t, rewrite.Equivalent(a, a))
		assert.NotEqual(t, 0, rewrite.Compare(a, b))
		sys.Canonicalize(sys.Plus.Of(b, a))
	})

	m := rewrite.NewExprMap[int]()
	m.Put(a, 1)
	m.Put(b, 2)
	assert.Equal(t, 2, m.Len())

	// Comparable dynamic values still compare by value.
	assert.True(t, rewrite.Equivalent(sys.Handle(box{3}), sys.Handle(box{3})))
}

// ============================================================
// Equivalence and hashing
// ============================================================

func TestEquivalent_Structural(t *testing.T) {
	sys := rewrite.NewSystem()
	x, f := sys.Sym("x"), sys.Sym("f")
	a := f.Of(x, sys.Int(1), sys.ListOf(sys.Text("s")))
	b := f.Of(x, sys.Int(1), sys.ListOf(sys.Text("s")))
	require.NotSame(t, a, b)
	assert.True(t, rewrite.Equivalent(a, b))
	assert.Equal(t, a.Hash(), b.Hash())

	assert.False(t, rewrite.Equivalent(a, f.Of(x, sys.Int(2), sys.ListOf(sys.Text("s")))))
	assert.False(t, rewrite.Equivalent(sys.Int(1), sys.Real(1)), "kinds differ")
	assert.False(t, rewrite.Equivalent(a, nil))
	assert.True(t, rewrite.Equivalent(nil, nil))
}

func TestEquivalent_SymbolsByIdentity(t *testing.T) {
	sys := rewrite.NewSystem()
	x := sys.Sym("x")
	assert.Same(t, x, sys.Sym("x"), "Sym interns in the global scope")

	scope := sys.PushScope(nil)
	inner, err := scope.Bind("x")
	require.NoError(t, err)
	assert.False(t, rewrite.Equivalent(x, inner), "same name in another scope is another symbol")
	assert.NotEqual(t, x.ID(), inner.ID())
}

func TestPlacement_IgnoredByEquivalence(t *testing.T) {
	sys := rewrite.NewSystem()
	e := sys.Sym("f").Of(sys.Int(1))
	placed := rewrite.Place(e, rewrite.Placement{Source: "model.txt", Line: 3, Col: 7})
	assert.True(t, rewrite.Equivalent(e, placed))
	require.NotNil(t, placed.Placement())
	assert.Equal(t, "model.txt:3:7", placed.Placement().String())
	assert.Nil(t, e.Placement(), "Place copies the term")
}

// ============================================================
// Construction
// ============================================================

func TestNewInvocation_CrossSystemMix(t *testing.T) {
	a, b := rewrite.NewSystem(), rewrite.NewSystem()
	require.NotEqual(t, a.ID(), b.ID())

	_, err := a.NewInvocation(a.Plus, a.Int(1), b.Int(2))
	require.Error(t, err)
	assert.True(t, errors.Is(err, rewrite.ErrCrossSystemMix))

	_, err = a.NewInvocation(b.Plus, a.Int(1))
	assert.True(t, errors.Is(err, rewrite.ErrCrossSystemMix))

	assert.Panics(t, func() { a.Call(a.Plus, b.Int(1)) })
}

func TestNewInvocation_NilParts(t *testing.T) {
	sys := rewrite.NewSystem()
	_, err := sys.NewInvocation(nil)
	assert.True(t, errors.Is(err, rewrite.ErrMalformedPattern))
	_, err = sys.NewInvocation(sys.Plus, sys.Int(1), nil)
	assert.True(t, errors.Is(err, rewrite.ErrMalformedPattern))
}

func TestNewInvocation_CopiesArgs(t *testing.T) {
	sys := rewrite.NewSystem()
	args := []rewrite.Expr{sys.Int(1), sys.Int(2)}
	inv, err := sys.NewInvocation(sys.List, args...)
	require.NoError(t, err)
	args[0] = sys.Int(9)
	assert.Equal(t, "List[1, 2]", inv.String())
}

// ============================================================
// Canonical order
// ============================================================

func TestCompare_Classes(t *testing.T) {
	sys := rewrite.NewSystem()
	ordered := []rewrite.Expr{
		sys.Int(1),
		sys.Rat(3, 2),
		sys.Real(2),
		sys.Text("a"),
		sys.False,
		sys.True,
		sys.Handle(1),
		sys.Sym("a"),
		sys.Sym("b"),
		sys.Sym("a").Of(),
		sys.Sym("a").Of(sys.Int(1)),
	}
	for i := range ordered {
		assert.Equal(t, 0, rewrite.Compare(ordered[i], ordered[i]))
		for j := i + 1; j < len(ordered); j++ {
			assert.Equal(t, -1, rewrite.Compare(ordered[i], ordered[j]), "%s < %s", ordered[i], ordered[j])
			assert.Equal(t, 1, rewrite.Compare(ordered[j], ordered[i]), "%s > %s", ordered[j], ordered[i])
		}
	}
}

func TestCompare_ZeroOnlyWhenEquivalent(t *testing.T) {
	sys := rewrite.NewSystem()
	assert.Equal(t, -1, rewrite.Compare(sys.Int(1), sys.Real(1)), "equal value, exact sorts first")
	assert.Equal(t, 0, rewrite.Compare(sys.Plus.Of(sys.Int(1)), sys.Plus.Of(sys.Int(1))))

	scope := sys.PushScope(nil)
	x2, _ := scope.Bind("x")
	assert.NotEqual(t, 0, rewrite.Compare(sys.Sym("x"), x2))
}
