package rewrite

import (
	"fmt"
	"strconv"
	"strings"
)

// ============================================================
// Formatting
// ============================================================

// Formatter renders terms through hooks. The walker calls Atom for every
// non-invocation; for an invocation it calls Pre, then formats each
// argument with Infix between neighbours, then Post. Pre returns false
// when it has written the whole invocation itself.
type Formatter interface {
	Atom(b *strings.Builder, e Expr)
	Pre(b *strings.Builder, inv *Invocation) bool
	Infix(b *strings.Builder, inv *Invocation, i int)
	Post(b *strings.Builder, inv *Invocation)
}

// ToString renders e with f.
func ToString(e Expr, f Formatter) string {
	var b strings.Builder
	formatTo(&b, e, f)
	return b.String()
}

func formatTo(b *strings.Builder, e Expr, f Formatter) {
	inv, ok := e.(*Invocation)
	if !ok {
		f.Atom(b, e)
		return
	}
	if !f.Pre(b, inv) {
		return
	}
	for i, a := range inv.args {
		if i > 0 {
			f.Infix(b, inv, i)
		}
		formatTo(b, a, f)
	}
	f.Post(b, inv)
}

// writeAtom is the atom rendering shared by the built-in formatters.
func writeAtom(b *strings.Builder, e Expr) {
	switch t := e.(type) {
	case *Integer:
		b.WriteString(t.v.String())
	case *Rational:
		b.WriteString(t.v.RatString())
	case *Real:
		b.WriteString(formatReal(t.v))
	case *Boolean:
		if t.v {
			b.WriteString("True")
		} else {
			b.WriteString("False")
		}
	case *Text:
		b.WriteString(strconv.Quote(t.v))
	case *Handle:
		fmt.Fprintf(b, "Handle[<%T>]", t.v)
	case *Symbol:
		b.WriteString(t.name)
	default:
		fmt.Fprintf(b, "<%T>", e)
	}
}

// ------------------------------------------------------------
// FullForm: head[arg, arg, ...]
// ------------------------------------------------------------

type fullForm struct{}

// FullForm renders every invocation as head[args].
var FullForm Formatter = fullForm{}

func (fullForm) Atom(b *strings.Builder, e Expr) { writeAtom(b, e) }
func (f fullForm) Pre(b *strings.Builder, inv *Invocation) bool {
	formatTo(b, inv.head, f)
	b.WriteByte('[')
	return true
}
func (fullForm) Infix(b *strings.Builder, _ *Invocation, _ int) { b.WriteString(", ") }
func (fullForm) Post(b *strings.Builder, _ *Invocation)         { b.WriteByte(']') }

// ------------------------------------------------------------
// InfixForm: operators, lists and rules written in infix
// ------------------------------------------------------------

type infixForm struct{}

// InfixForm writes Plus, Times, Power, comparisons, logic and rules as
// operators and List as {a, b}; other invocations fall back to full form.
var InfixForm Formatter = infixForm{}

type infixOp struct {
	sep  string
	prec int
}

func (infixForm) op(inv *Invocation) (infixOp, bool) {
	sys := inv.sys
	switch inv.head {
	case sys.Rule:
		return infixOp{" -> ", 10}, true
	case sys.RuleDelayed:
		return infixOp{" :> ", 10}, true
	case sys.Condition:
		return infixOp{" /; ", 5}, true
	case sys.Or:
		return infixOp{" || ", 20}, true
	case sys.And:
		return infixOp{" && ", 25}, true
	case sys.Equal:
		return infixOp{" == ", 30}, true
	case sys.Unequal:
		return infixOp{" != ", 30}, true
	case sys.Less:
		return infixOp{" < ", 30}, true
	case sys.LessEqual:
		return infixOp{" <= ", 30}, true
	case sys.Greater:
		return infixOp{" > ", 30}, true
	case sys.GreaterEqual:
		return infixOp{" >= ", 30}, true
	case sys.SameQ:
		return infixOp{" === ", 30}, true
	case sys.Plus:
		return infixOp{" + ", 40}, true
	case sys.Times:
		return infixOp{"*", 50}, true
	case sys.Power:
		return infixOp{"^", 60}, true
	}
	return infixOp{}, false
}

func (f infixForm) Atom(b *strings.Builder, e Expr) { writeAtom(b, e) }

func (f infixForm) Pre(b *strings.Builder, inv *Invocation) bool {
	sys := inv.sys
	switch {
	case inv.head == Expr(sys.List):
		b.WriteByte('{')
		return true
	case isHoleForm(inv):
		if inv.head == Expr(sys.Hole) {
			b.WriteByte('_')
		} else {
			b.WriteString("___")
		}
		if len(inv.args) == 1 {
			formatTo(b, inv.args[0], f)
		}
		return false
	case inv.head == Expr(sys.Pattern) && len(inv.args) == 2:
		formatTo(b, inv.args[0], f)
		if sub, ok := inv.args[1].(*Invocation); !ok || !isHoleForm(sub) {
			b.WriteByte(':')
		}
		formatTo(b, inv.args[1], f)
		return false
	}
	op, ok := f.op(inv)
	if !ok || len(inv.args) < 2 {
		formatTo(b, inv.head, f)
		b.WriteByte('[')
		return true
	}
	for i, a := range inv.args {
		if i > 0 {
			b.WriteString(op.sep)
		}
		paren := false
		if child, ok := a.(*Invocation); ok {
			if cop, ok := f.op(child); ok && len(child.args) >= 2 && cop.prec <= op.prec {
				paren = true
			}
		}
		if paren {
			b.WriteByte('(')
		}
		formatTo(b, a, f)
		if paren {
			b.WriteByte(')')
		}
	}
	return false
}

func (infixForm) Infix(b *strings.Builder, _ *Invocation, _ int) { b.WriteString(", ") }

func (infixForm) Post(b *strings.Builder, inv *Invocation) {
	if inv.head == Expr(inv.sys.List) {
		b.WriteByte('}')
		return
	}
	b.WriteByte(']')
}

func isHoleForm(inv *Invocation) bool {
	if len(inv.args) > 1 {
		return false
	}
	return inv.head == Expr(inv.sys.Hole) || inv.head == Expr(inv.sys.HoleSplice)
}
