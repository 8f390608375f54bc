package rewrite

import (
	"context"
	"fmt"
	"log/slog"
)

// ============================================================
// Reducer — built-in reduction contract
// ============================================================

// Reducer computes the replacement of an invocation whose arguments have
// been evaluated and canonicalized. A nil result means the reducer does
// not apply; evaluation falls through to user rules.
type Reducer interface {
	Reduce(c *Call) (Expr, error)
}

// ReducerFunc adapts a function to Reducer.
type ReducerFunc func(c *Call) (Expr, error)

func (f ReducerFunc) Reduce(c *Call) (Expr, error) { return f(c) }

// Call is the invocation handed to a Reducer, together with the running
// evaluation it belongs to.
type Call struct {
	Sys  *System
	Inv  *Invocation
	sess *session
}

func (c *Call) Args() []Expr         { return c.Inv.args }
func (c *Call) Arg(i int) Expr       { return c.Inv.args[i] }
func (c *Call) Len() int             { return len(c.Inv.args) }
func (c *Call) Head() Expr           { return c.Inv.head }
func (c *Call) Logger() *slog.Logger { return c.Sys.log }

func (c *Call) Context() context.Context { return c.sess.ctx }

// Evaluate runs a nested evaluation. It shares the depth and iteration
// budgets of the enclosing one.
func (c *Call) Evaluate(e Expr) (Expr, error) { return c.sess.eval(e) }

// Probe returns ErrAborted when the context or abort probe has fired.
func (c *Call) Probe() error { return c.sess.checkAbort() }

// DomainError reports arguments outside the reducer's domain. The
// evaluator treats it as not applicable unless Failed terms are enabled.
func (c *Call) DomainError(format string, args ...any) error {
	return &EvalError{Op: headName(c.Inv), Term: c.Inv, Err: fmt.Errorf("%w: "+format, append([]any{ErrDomain}, args...)...)}
}

func (c *Call) malformed(format string, args ...any) error {
	return &EvalError{Op: headName(c.Inv), Term: c.Inv, Err: fmt.Errorf("%w: "+format, append([]any{ErrMalformedPattern}, args...)...)}
}

func headName(inv *Invocation) string {
	if s, ok := inv.head.(*Symbol); ok {
		return s.name
	}
	return "apply"
}

// ============================================================
// Builtins — the well-known symbol table
// ============================================================

// Builtins holds the symbols NewSystem installs in the built-in scope.
// It is embedded in System, so sys.Plus is the Plus symbol of sys.
type Builtins struct {
	// Constant heads.
	Integer, Rational, Real, Boolean, String, Handle, Symbol *Symbol

	// Structure and sentinels.
	List, Sequence, Null, Failed, Hold *Symbol

	// Arithmetic.
	Plus, Times, Power, Min, Max *Symbol

	// Logic.
	And, Or, Xor, Not *Symbol

	// Comparison.
	Equal, Unequal, Less, LessEqual, Greater, GreaterEqual, SameQ *Symbol

	// Control.
	If, CompoundExpression *Symbol

	// Definitions.
	Set, SetDelayed, Clear, SetAttributes, ClearAttributes, Attributes *Symbol

	// Rules as data.
	Rule, RuleDelayed, ReplaceAll *Symbol

	// Patterns.
	Hole, HoleSplice, Pattern, Condition, Alternatives *Symbol

	// Lists.
	Length, Range, Table *Symbol

	// Scoping.
	Function, Module *Symbol

	// Attribute names, as used by SetAttributes.
	Flat, Orderless, Listable, UnaryIdentity, HoldAll, HoldFirst, HoldRest, HoldSplice, Locked *Symbol
}

type builtinDef struct {
	field **Symbol
	name  string
	attrs Attributes
	fn    ReducerFunc
}

func (sys *System) installBuiltins() {
	b := &sys.Builtins
	arith := Flat | Orderless | UnaryIdentity
	plus, times := sys.sumCombiner(), sys.productCombiner()
	and, or, xor := sys.andCombiner(), sys.orCombiner(), sys.xorCombiner()
	minC, maxC := sys.extremumCombiner(-1), sys.extremumCombiner(1)

	defs := []builtinDef{
		{&b.Integer, "Integer", 0, nil},
		{&b.Rational, "Rational", 0, nil},
		{&b.Real, "Real", 0, nil},
		{&b.Boolean, "Boolean", 0, nil},
		{&b.String, "String", 0, nil},
		{&b.Handle, "Handle", 0, nil},
		{&b.Symbol, "Symbol", 0, nil},

		{&b.List, "List", 0, nil},
		{&b.Sequence, "Sequence", 0, nil},
		{&b.Null, "Null", 0, nil},
		{&b.Failed, "Failed", 0, nil},
		{&b.Hold, "Hold", HoldAll, nil},

		{&b.Plus, "Plus", arith | Listable, sys.reducePlus(plus)},
		{&b.Times, "Times", arith | Listable, sys.reduceTimes(times)},
		{&b.Power, "Power", Listable, sys.reducePower},
		{&b.Min, "Min", arith, foldOnly(minC, &b.Min)},
		{&b.Max, "Max", arith, foldOnly(maxC, &b.Max)},

		{&b.And, "And", arith, foldOnly(and, &b.And)},
		{&b.Or, "Or", arith, foldOnly(or, &b.Or)},
		{&b.Xor, "Xor", arith, foldOnly(xor, &b.Xor)},
		{&b.Not, "Not", Listable, sys.reduceNot},

		{&b.Equal, "Equal", 0, sys.reduceEqual},
		{&b.Unequal, "Unequal", 0, sys.reduceUnequal},
		{&b.Less, "Less", 0, sys.ordering(func(c int) bool { return c < 0 })},
		{&b.LessEqual, "LessEqual", 0, sys.ordering(func(c int) bool { return c <= 0 })},
		{&b.Greater, "Greater", 0, sys.ordering(func(c int) bool { return c > 0 })},
		{&b.GreaterEqual, "GreaterEqual", 0, sys.ordering(func(c int) bool { return c >= 0 })},
		{&b.SameQ, "SameQ", 0, sys.reduceSameQ},

		{&b.If, "If", HoldRest, sys.reduceIf},
		{&b.CompoundExpression, "CompoundExpression", HoldAll, sys.reduceCompound},

		{&b.Set, "Set", HoldFirst, sys.reduceSet},
		{&b.SetDelayed, "SetDelayed", HoldAll, sys.reduceSetDelayed},
		{&b.Clear, "Clear", HoldAll, sys.reduceClear},
		{&b.SetAttributes, "SetAttributes", HoldFirst, sys.reduceSetAttributes(true)},
		{&b.ClearAttributes, "ClearAttributes", HoldFirst, sys.reduceSetAttributes(false)},
		{&b.Attributes, "Attributes", HoldAll, sys.reduceAttributes},

		{&b.Rule, "Rule", 0, nil},
		{&b.RuleDelayed, "RuleDelayed", HoldRest, nil},
		{&b.ReplaceAll, "ReplaceAll", 0, sys.reduceReplaceAll},

		{&b.Hole, "Hole", 0, nil},
		{&b.HoleSplice, "HoleSplice", 0, nil},
		{&b.Pattern, "Pattern", HoldFirst, nil},
		{&b.Condition, "Condition", HoldAll, nil},
		{&b.Alternatives, "Alternatives", 0, nil},

		{&b.Length, "Length", 0, sys.reduceLength},
		{&b.Range, "Range", Listable, sys.reduceRange},
		{&b.Table, "Table", HoldAll, sys.reduceTable},

		{&b.Function, "Function", HoldAll, nil},
		{&b.Module, "Module", HoldAll, sys.reduceModule},

		{&b.Flat, "Flat", 0, nil},
		{&b.Orderless, "Orderless", 0, nil},
		{&b.Listable, "Listable", 0, nil},
		{&b.UnaryIdentity, "UnaryIdentity", 0, nil},
		{&b.HoldAll, "HoldAll", 0, nil},
		{&b.HoldFirst, "HoldFirst", 0, nil},
		{&b.HoldRest, "HoldRest", 0, nil},
		{&b.HoldSplice, "HoldSplice", 0, nil},
		{&b.Locked, "Locked", 0, nil},
	}
	for _, d := range defs {
		var r Reducer
		if d.fn != nil {
			r = d.fn
		}
		*d.field = sys.builtin(d.name, d.attrs, r)
	}
	for _, s := range sys.root.order {
		s.Lock()
	}
}

// foldOnly reduces with a Combiner alone. head is read when the reducer
// runs, after installation has filled it in.
func foldOnly[T any](c *Combiner[T], head **Symbol) ReducerFunc {
	return func(call *Call) (Expr, error) {
		if out, changed := c.Fold(*head, call.Args()); changed {
			return out, nil
		}
		return nil, nil
	}
}

// attributeOf maps a built-in attribute-name symbol to its flag.
func (sys *System) attributeOf(s *Symbol) (Attributes, bool) {
	if s.scope != sys.root {
		return 0, false
	}
	return AttributeByName(s.name)
}

// attributeSymbols lists the name symbols of a, plus Locked when locked.
func (sys *System) attributeSymbols(a Attributes, locked bool) []Expr {
	var out []Expr
	for _, n := range a.Names() {
		out = append(out, sys.root.syms[n])
	}
	if locked {
		out = append(out, sys.Locked)
	}
	return out
}
