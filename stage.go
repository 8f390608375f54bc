package rewrite

import "sort"

// ============================================================
// Stage — copy-on-write invocation workspace
// ============================================================

// Stage holds the parts of an invocation being rewritten. Reads see the
// original arguments until the first write copies them, so a stage over
// an unchanged invocation builds back the same *Invocation.
type Stage struct {
	sys   *System
	orig  *Invocation
	head  Expr
	args  []Expr
	owned bool
	dirty bool
}

// NewStage opens a stage over inv.
func (sys *System) NewStage(inv *Invocation) *Stage {
	return &Stage{sys: sys, orig: inv, head: inv.head, args: inv.args}
}

func (st *Stage) Head() Expr     { return st.head }
func (st *Stage) Len() int       { return len(st.args) }
func (st *Stage) Arg(i int) Expr { return st.args[i] }

// Args returns the current arguments; they must not be modified.
func (st *Stage) Args() []Expr { return st.args }

// Dirty reports whether the stage differs from the invocation it was opened on.
func (st *Stage) Dirty() bool { return st.dirty }

func (st *Stage) SetHead(h Expr) {
	if h != st.head {
		st.head = h
		st.dirty = true
	}
}

// Set replaces argument i.
func (st *Stage) Set(i int, e Expr) {
	if st.args[i] == e {
		return
	}
	st.own()
	st.args[i] = e
	st.dirty = true
}

// Replace swaps in a whole argument list; the stage owns args afterwards.
func (st *Stage) Replace(args []Expr) {
	st.args = args
	st.owned = true
	st.dirty = true
}

func (st *Stage) own() {
	if !st.owned {
		st.args = append([]Expr(nil), st.args...)
		st.owned = true
	}
}

// Build returns the staged invocation, or the original one when nothing
// was changed.
func (st *Stage) Build() *Invocation {
	if !st.dirty {
		return st.orig
	}
	inv := st.sys.invoke(st.head, st.args)
	st.orig, st.owned, st.dirty = inv, false, false
	return inv
}

// ============================================================
// Canonicalization
// ============================================================

type canonOutcome uint8

const (
	canonSame canonOutcome = iota
	canonRearranged
	canonUnwrapped
	canonThreaded
)

// canonicalize applies, in order: Sequence splicing, Flat, UnaryIdentity,
// Orderless and Listable. It never fails; an unwrapped or threaded result
// is not an invocation of the staged head.
func (sys *System) canonicalize(st *Stage, attrs Attributes) (Expr, canonOutcome) {
	outcome := canonSame
	if !attrs.Has(HoldSplice) && st.splice(func(e Expr) bool { return isInvocationOf(e, sys.Sequence) }) {
		outcome = canonRearranged
	}
	if attrs.Has(Flat) {
		for st.splice(func(e Expr) bool { inv, ok := e.(*Invocation); return ok && Equivalent(inv.head, st.head) }) {
			outcome = canonRearranged
		}
	}
	if attrs.Has(UnaryIdentity) && st.Len() == 1 {
		return st.Arg(0), canonUnwrapped
	}
	if attrs.Has(Orderless) && st.sort() {
		outcome = canonRearranged
	}
	if attrs.Has(Listable) {
		if out, ok := sys.thread(st); ok {
			return out, canonThreaded
		}
	}
	return st.Build(), outcome
}

// splice replaces every argument matching pick by its arguments, one level.
func (st *Stage) splice(pick func(Expr) bool) bool {
	first := -1
	for i, a := range st.args {
		if pick(a) {
			first = i
			break
		}
	}
	if first < 0 {
		return false
	}
	out := append(make([]Expr, 0, len(st.args)+4), st.args[:first]...)
	for _, a := range st.args[first:] {
		if pick(a) {
			out = append(out, a.(*Invocation).args...)
			continue
		}
		out = append(out, a)
	}
	st.Replace(out)
	return true
}

func (st *Stage) sort() bool {
	if sort.SliceIsSorted(st.args, func(i, j int) bool { return Compare(st.args[i], st.args[j]) < 0 }) {
		return false
	}
	st.own()
	sort.SliceStable(st.args, func(i, j int) bool { return Compare(st.args[i], st.args[j]) < 0 })
	st.dirty = true
	return true
}

// thread maps the staged head over List arguments, broadcasting scalars.
// Lists of unequal length leave the term alone.
func (sys *System) thread(st *Stage) (Expr, bool) {
	n := -1
	for _, a := range st.args {
		if l, ok := a.(*Invocation); ok && l.head == Expr(sys.List) {
			if n >= 0 && len(l.args) != n {
				return nil, false
			}
			n = len(l.args)
		}
	}
	if n < 0 {
		return nil, false
	}
	items := make([]Expr, n)
	for j := range items {
		args := make([]Expr, len(st.args))
		for i, a := range st.args {
			if l, ok := a.(*Invocation); ok && l.head == Expr(sys.List) {
				args[i] = l.args[j]
			} else {
				args[i] = a
			}
		}
		items[j] = sys.invoke(st.head, args)
	}
	return sys.invoke(sys.List, items), true
}

// Canonicalize rewrites e bottom up into canonical form without
// evaluating anything. Canonicalize(Canonicalize(e)) is equivalent to
// Canonicalize(e).
func (sys *System) Canonicalize(e Expr) Expr {
	inv, ok := e.(*Invocation)
	if !ok {
		return e
	}
	st := sys.NewStage(inv)
	st.SetHead(sys.Canonicalize(inv.head))
	for i, a := range inv.args {
		st.Set(i, sys.Canonicalize(a))
	}
	var attrs Attributes
	if h, ok := st.head.(*Symbol); ok {
		attrs = h.attrs
	}
	out, outcome := sys.canonicalize(st, attrs)
	if outcome == canonThreaded {
		return sys.Canonicalize(out)
	}
	return out
}

func isInvocationOf(e Expr, head *Symbol) bool {
	inv, ok := e.(*Invocation)
	return ok && inv.head == Expr(head)
}
