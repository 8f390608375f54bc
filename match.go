package rewrite

import (
	"context"
	"fmt"
)

// ============================================================
// Matcher — backtracking pattern search
// ============================================================

// cont is a match continuation. It returns true to stop the search,
// either because the whole match succeeded or because m.err was set.
type cont func() bool

type matcher struct {
	sess *session
	vars *Scope
	sub  *Substitution
	err  error
}

// TryMatch matches pattern against term. Symbols owned by vars act as
// pattern variables besides those bound by Pattern[v, p]. Bindings are
// added to sub, which may be nil; on failure sub is rolled back to its
// state on entry.
func (sys *System) TryMatch(ctx context.Context, pattern, term Expr, vars *Scope, sub *Substitution) (bool, error) {
	if pattern == nil || term == nil {
		return false, &EvalError{Op: "match", Err: fmt.Errorf("%w: nil term", ErrMalformedPattern)}
	}
	if pattern.System() != sys {
		return false, sys.mixError(pattern, 0)
	}
	if term.System() != sys {
		return false, sys.mixError(term, 1)
	}
	if sub == nil {
		sub = NewSubstitution()
	}
	mark := sub.Mark()
	m := &matcher{sess: sys.newSession(ctx), vars: vars, sub: sub}
	ok := m.match(pattern, term, func() bool { return true })
	if m.err != nil || !ok {
		sub.Rollback(mark)
	}
	return ok && m.err == nil, m.err
}

func (m *matcher) fail(err error) bool {
	m.err = err
	return true
}

func (m *matcher) isVar(s *Symbol) bool { return m.vars != nil && s.scope == m.vars }

// bind binds v to t for the rest of the search along k.
func (m *matcher) bind(v *Symbol, t Expr, k cont) bool {
	mark := m.sub.Mark()
	if !m.sub.Bind(v, t) {
		return false
	}
	if k() {
		return true
	}
	m.sub.Rollback(mark)
	return false
}

func (m *matcher) bindSplice(v *Symbol, run []Expr, k cont) bool {
	mark := m.sub.Mark()
	if !m.sub.BindSplice(v, run) {
		return false
	}
	if k() {
		return true
	}
	m.sub.Rollback(mark)
	return false
}

// test evaluates a condition under the current bindings; only True passes.
func (m *matcher) test(cond Expr, k cont) bool {
	ok, err := m.sess.truth(m.sub.Apply(cond))
	if err != nil {
		return m.fail(err)
	}
	return ok && k()
}

// match matches one pattern against one term.
func (m *matcher) match(p, t Expr, k cont) bool {
	if err := m.sess.probe(); err != nil {
		return m.fail(err)
	}
	sys := m.sess.sys
	switch pt := p.(type) {
	case *Symbol:
		if m.isVar(pt) {
			return m.bind(pt, t, k)
		}
		return t == Expr(pt) && k()
	case *Invocation:
		switch pt.head {
		case Expr(sys.Hole), Expr(sys.HoleSplice):
			if len(pt.args) == 1 && !Equivalent(t.Head(), pt.args[0]) {
				return false
			}
			return k()
		case Expr(sys.Pattern):
			v, ok := patternVar(pt)
			if !ok {
				return m.fail(checkPattern(pt))
			}
			if isSplice(sys, pt.args[1]) {
				return m.match(pt.args[1], t, func() bool { return m.bindSplice(v, []Expr{t}, k) })
			}
			return m.match(pt.args[1], t, func() bool { return m.bind(v, t, k) })
		case Expr(sys.Condition):
			if len(pt.args) != 2 {
				return m.fail(checkPattern(pt))
			}
			return m.match(pt.args[0], t, func() bool { return m.test(pt.args[1], k) })
		case Expr(sys.Alternatives):
			for _, alt := range pt.args {
				if m.match(alt, t, k) {
					return true
				}
			}
			return false
		}
		ti, ok := t.(*Invocation)
		if !ok {
			return false
		}
		return m.match(pt.head, ti.head, func() bool { return m.matchArgs(pt, ti, k) })
	}
	return Equivalent(p, t) && k()
}

func patternVar(p *Invocation) (*Symbol, bool) {
	if len(p.args) != 2 {
		return nil, false
	}
	v, ok := p.args[0].(*Symbol)
	return v, ok
}

// isSplice reports whether p matches a run of zero or more arguments.
func isSplice(sys *System, p Expr) bool {
	inv, ok := p.(*Invocation)
	if !ok {
		return false
	}
	switch inv.head {
	case Expr(sys.HoleSplice):
		return true
	case Expr(sys.Pattern):
		return len(inv.args) == 2 && isSplice(sys, inv.args[1])
	case Expr(sys.Condition):
		return len(inv.args) == 2 && isSplice(sys, inv.args[0])
	}
	return false
}

// minLen counts the patterns that need exactly one argument each.
func minLen(sys *System, ps []Expr) int {
	n := 0
	for _, p := range ps {
		if !isSplice(sys, p) {
			n++
		}
	}
	return n
}

// matchRun matches a splice pattern against a run of arguments.
func (m *matcher) matchRun(p Expr, run []Expr, k cont) bool {
	sys := m.sess.sys
	inv := p.(*Invocation)
	switch inv.head {
	case Expr(sys.HoleSplice):
		if len(inv.args) == 1 {
			for _, t := range run {
				if !Equivalent(t.Head(), inv.args[0]) {
					return false
				}
			}
		}
		return k()
	case Expr(sys.Pattern):
		v, ok := patternVar(inv)
		if !ok {
			return m.fail(checkPattern(inv))
		}
		return m.matchRun(inv.args[1], run, func() bool { return m.bindSplice(v, run, k) })
	case Expr(sys.Condition):
		return m.matchRun(inv.args[0], run, func() bool { return m.test(inv.args[1], k) })
	}
	return false
}

// matchArgs matches argument lists under the attributes of the term's head.
func (m *matcher) matchArgs(p, t *Invocation, k cont) bool {
	var attrs Attributes
	if h, ok := t.head.(*Symbol); ok {
		attrs = h.attrs
	}
	flat := attrs.Has(Flat)
	if !attrs.Has(Orderless) {
		return m.seq(p.args, t.args, t.head, flat, k)
	}
	sys := m.sess.sys
	ps := make([]Expr, 0, len(p.args))
	var splices []Expr
	for _, a := range p.args {
		if isSplice(sys, a) {
			splices = append(splices, a)
		} else {
			ps = append(ps, a)
		}
	}
	ps = append(ps, splices...)
	return m.bag(ps, t.args, make([]bool, len(t.args)), t.head, flat, k)
}

// seq matches patterns against arguments in order. A splice tries the
// shortest run first. Under Flat a single pattern may also take a run of
// two or more arguments, bound as head[run...].
func (m *matcher) seq(ps, ts []Expr, head Expr, flat bool, k cont) bool {
	sys := m.sess.sys
	if len(ps) == 0 {
		return len(ts) == 0 && k()
	}
	rest := minLen(sys, ps[1:])
	if isSplice(sys, ps[0]) {
		for n := 0; n <= len(ts)-rest; n++ {
			if m.matchRun(ps[0], ts[:n], func() bool { return m.seq(ps[1:], ts[n:], head, flat, k) }) {
				return true
			}
		}
		return false
	}
	if len(ts) < rest+1 {
		return false
	}
	if m.match(ps[0], ts[0], func() bool { return m.seq(ps[1:], ts[1:], head, flat, k) }) {
		return true
	}
	if !flat {
		return false
	}
	for n := 2; n <= len(ts)-rest; n++ {
		run := sys.invoke(head, append([]Expr(nil), ts[:n]...))
		if m.match(ps[0], run, func() bool { return m.seq(ps[1:], ts[n:], head, flat, k) }) {
			return true
		}
	}
	return false
}

// bag matches patterns against an unordered argument multiset. Single
// patterns come before splices in ps; the last splice takes whatever is
// left, earlier ones try subsets by increasing size.
func (m *matcher) bag(ps, ts []Expr, used []bool, head Expr, flat bool, k cont) bool {
	sys := m.sess.sys
	var free []int
	for i, u := range used {
		if !u {
			free = append(free, i)
		}
	}
	if len(ps) == 0 {
		return len(free) == 0 && k()
	}
	rest := minLen(sys, ps[1:])
	pick := func(idx []int) []Expr {
		run := make([]Expr, len(idx))
		for j, i := range idx {
			run[j] = ts[i]
		}
		return run
	}
	mark := func(idx []int, v bool) {
		for _, i := range idx {
			used[i] = v
		}
	}
	if isSplice(sys, ps[0]) {
		if len(ps) == 1 {
			return m.matchRun(ps[0], pick(free), k)
		}
		for size := 0; size <= len(free)-rest; size++ {
			if m.subsets(free, size, func(idx []int) bool {
				mark(idx, true)
				ok := m.matchRun(ps[0], pick(idx), func() bool { return m.bag(ps[1:], ts, used, head, flat, k) })
				mark(idx, false)
				return ok
			}) {
				return true
			}
		}
		return false
	}
	if len(free) < rest+1 {
		return false
	}
	for _, i := range free {
		used[i] = true
		ok := m.match(ps[0], ts[i], func() bool { return m.bag(ps[1:], ts, used, head, flat, k) })
		used[i] = false
		if ok {
			return true
		}
	}
	if !flat {
		return false
	}
	for size := 2; size <= len(free)-rest; size++ {
		if m.subsets(free, size, func(idx []int) bool {
			mark(idx, true)
			run := sys.invoke(head, pick(idx))
			ok := m.match(ps[0], run, func() bool { return m.bag(ps[1:], ts, used, head, flat, k) })
			mark(idx, false)
			return ok
		}) {
			return true
		}
	}
	return false
}

// subsets calls f with each size-element subset of idx in lexicographic
// order until f returns true.
func (m *matcher) subsets(idx []int, size int, f func([]int) bool) bool {
	chosen := make([]int, 0, size)
	var walk func(start int) bool
	walk = func(start int) bool {
		if len(chosen) == size {
			return f(chosen)
		}
		for i := start; i <= len(idx)-(size-len(chosen)); i++ {
			if err := m.sess.probe(); err != nil {
				return m.fail(err)
			}
			chosen = append(chosen, idx[i])
			if walk(i + 1) {
				return true
			}
			chosen = chosen[:len(chosen)-1]
		}
		return false
	}
	return walk(0)
}
