package rewrite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rewrite "github.com/njchilds90/gorewrite"
)

// ============================================================
// Scope tests
// ============================================================

func TestScope_LookupWalksParents(t *testing.T) {
	sys := rewrite.NewSystem()
	x := sys.Sym("x")
	outer := sys.PushScope(nil)
	inner := sys.PushScope(outer)
	require.Same(t, outer, inner.Parent())

	got, ok := inner.Lookup("x")
	require.True(t, ok)
	assert.Same(t, x, got)

	plus, ok := inner.Lookup("Plus")
	require.True(t, ok)
	assert.Same(t, sys.Plus, plus, "built-ins are visible from every scope")

	_, ok = inner.LookupLocal("x")
	assert.False(t, ok)
}

func TestScope_Shadowing(t *testing.T) {
	sys := rewrite.NewSystem()
	x := sys.Sym("x")
	outer := sys.PushScope(nil)
	ox, err := outer.Bind("x")
	require.NoError(t, err)
	inner := sys.PushScope(outer)
	ix, err := inner.Bind("x")
	require.NoError(t, err)

	assert.NotSame(t, x, ox)
	assert.NotSame(t, ox, ix)
	got, _ := inner.Lookup("x")
	assert.Same(t, ix, got)
	got, _ = outer.Lookup("x")
	assert.Same(t, ox, got)

	again, err := inner.Bind("x")
	require.NoError(t, err)
	assert.Same(t, ix, again, "Bind returns the owned symbol")
	assert.True(t, inner.Owns(ix))
	assert.False(t, outer.Owns(ix))
	assert.Same(t, inner, ix.Scope())
}

func TestScope_PopReleasesSymbols(t *testing.T) {
	sys := rewrite.NewSystem()
	scope := sys.PushScope(nil)
	v, err := scope.Bind("v")
	require.NoError(t, err)
	require.NoError(t, v.AddRule(rewrite.Immediate, v, sys.Int(1), nil))
	require.Len(t, scope.Symbols(), 1)

	sys.PopScope(scope)
	assert.True(t, scope.Released())
	assert.True(t, v.Released())
	assert.Empty(t, v.OwnValues())
	assert.Empty(t, scope.Symbols())

	err = v.AddRule(rewrite.Immediate, v, sys.Int(2), nil)
	assert.True(t, errors.Is(err, rewrite.ErrReleased))
	_, err = scope.Bind("w")
	assert.True(t, errors.Is(err, rewrite.ErrReleased))

	// Popping twice, or popping the global scope, is harmless.
	sys.PopScope(scope)
	sys.PopScope(sys.Global())
	assert.False(t, sys.Global().Released())
}

func TestScope_ReleasedSymbolEvaluatesToItself(t *testing.T) {
	sys := rewrite.NewSystem()
	scope := sys.PushScope(nil)
	v, _ := scope.Bind("v")
	require.NoError(t, v.AddRule(rewrite.Immediate, v, sys.Int(1), nil))
	sys.PopScope(scope)

	out, err := sys.Evaluate(context.Background(), sys.Plus.Of(v, sys.Int(1)))
	require.NoError(t, err)
	assert.Equal(t, "Plus[1, v]", out.String())
}

func TestScope_SystemSymbols(t *testing.T) {
	sys := rewrite.NewSystem()
	_, ok := sys.Lookup("nope")
	assert.False(t, ok, "Lookup does not create")
	s := sys.Sym("nope")
	got, ok := sys.Lookup("nope")
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Same(t, sys.Global(), s.Scope())
	assert.Same(t, sys, s.System())
	assert.True(t, sys.Plus.Locked())
}
