package rewrite

import (
	"fmt"
	"strings"
)

// ============================================================
// Invocation — head applied to arguments
// ============================================================

// Invocation is an immutable n-ary application. Args must not be modified
// by callers; use a Stage to derive a changed invocation.
type Invocation struct {
	base
	head Expr
	args []Expr
}

// NewInvocation builds head[args...]. Every part must belong to sys.
func (sys *System) NewInvocation(head Expr, args ...Expr) (*Invocation, error) {
	if head == nil {
		return nil, &EvalError{Op: "construct", Err: fmt.Errorf("%w: nil head", ErrMalformedPattern)}
	}
	if head.System() != sys {
		return nil, sys.mixError(head, -1)
	}
	for i, a := range args {
		if a == nil {
			return nil, &EvalError{Op: "construct", Term: head, Err: fmt.Errorf("%w: nil argument %d", ErrMalformedPattern, i)}
		}
		if a.System() != sys {
			return nil, sys.mixError(a, i)
		}
	}
	return sys.invoke(head, append([]Expr(nil), args...)), nil
}

func (sys *System) mixError(e Expr, pos int) error {
	where := "head"
	if pos >= 0 {
		where = fmt.Sprintf("argument %d", pos)
	}
	return &EvalError{Op: "construct", Err: fmt.Errorf("%w: %s is owned by system %s, not %s",
		ErrCrossSystemMix, where, e.System().ID(), sys.ID())}
}

// Call is NewInvocation that panics on error, for terms built from parts
// known to belong to sys.
func (sys *System) Call(head Expr, args ...Expr) *Invocation {
	inv, err := sys.NewInvocation(head, args...)
	if err != nil {
		panic(err)
	}
	return inv
}

// ListOf builds List[items...].
func (sys *System) ListOf(items ...Expr) *Invocation { return sys.Call(sys.List, items...) }

// invoke builds an invocation without checks and takes ownership of args.
func (sys *System) invoke(head Expr, args []Expr) *Invocation {
	h := mix(mix(hashOffset, seedInvocation), head.Hash())
	for _, a := range args {
		h = mix(h, a.Hash())
	}
	h = mix(h, uint64(len(args)))
	return &Invocation{base: base{sys: sys, hash: h}, head: head, args: args}
}

func (inv *Invocation) Head() Expr { return inv.head }

// Args returns the argument slice itself; it must not be modified.
func (inv *Invocation) Args() []Expr  { return inv.args }
func (inv *Invocation) Arg(i int) Expr { return inv.args[i] }
func (inv *Invocation) Len() int       { return len(inv.args) }

// HeadIs reports whether the head is the symbol s.
func (inv *Invocation) HeadIs(s *Symbol) bool { return inv.head == Expr(s) }

func (inv *Invocation) Equivalent(other Expr) bool {
	o, ok := other.(*Invocation)
	if !ok || o.hash != inv.hash || len(o.args) != len(inv.args) {
		return false
	}
	if o == inv {
		return true
	}
	if !Equivalent(inv.head, o.head) {
		return false
	}
	for i, a := range inv.args {
		if !Equivalent(a, o.args[i]) {
			return false
		}
	}
	return true
}

func (inv *Invocation) String() string { return ToString(inv, FullForm) }
func (inv *Invocation) Format(b *strings.Builder, f Formatter) {
	formatTo(b, inv, f)
}
func (inv *Invocation) withPlacement(p *Placement) Expr {
	c := *inv
	c.place = p
	return &c
}
