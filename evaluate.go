package rewrite

import (
	"context"
	"errors"
	"fmt"
)

// ============================================================
// Session — budgets and cancellation of one top-level evaluation
// ============================================================

type session struct {
	sys   *System
	ctx   context.Context
	depth int
	steps int
	ticks int
}

func (sys *System) newSession(ctx context.Context) *session {
	if ctx == nil {
		ctx = context.Background()
	}
	return &session{sys: sys, ctx: ctx}
}

// enter counts one live frame against MaxDepth.
func (s *session) enter() error {
	s.depth++
	if s.depth > s.sys.opts.MaxDepth {
		return &ResourceError{Resource: "depth", Limit: s.sys.opts.MaxDepth}
	}
	return nil
}

// step counts one rewrite against MaxIterations.
func (s *session) step() error {
	s.steps++
	if s.steps > s.sys.opts.MaxIterations {
		return &ResourceError{Resource: "iterations", Limit: s.sys.opts.MaxIterations}
	}
	return nil
}

// probe is called at back edges; it checks for cancellation every
// probeInterval calls.
func (s *session) probe() error {
	s.ticks++
	if s.ticks%probeInterval != 0 {
		return nil
	}
	return s.checkAbort()
}

func (s *session) checkAbort() error {
	select {
	case <-s.ctx.Done():
		return abortError(s.ctx.Err())
	default:
	}
	if p := s.sys.opts.AbortProbe; p != nil && p() {
		return abortError(nil)
	}
	return nil
}

// truth evaluates e and reports whether it is True.
func (s *session) truth(e Expr) (bool, error) {
	v, err := s.eval(e)
	if err != nil {
		return false, err
	}
	return v == Expr(s.sys.True), nil
}

// ============================================================
// Evaluate — the fixpoint driver
// ============================================================

// Evaluate rewrites e to a fixpoint: heads and unheld arguments first,
// then canonicalization, the head's built-in reducer and its user rules,
// repeated until nothing applies. e itself is never modified.
//
// Nesting is tracked on an explicit frame stack, so deep terms cost heap
// rather than goroutine stack. Exceeding MaxDepth or MaxIterations
// returns a *ResourceError; a fired context or abort probe returns an
// error wrapping ErrAborted.
func (sys *System) Evaluate(ctx context.Context, e Expr) (Expr, error) {
	if e == nil {
		return nil, &EvalError{Op: "evaluate", Err: fmt.Errorf("%w: nil term", ErrMalformedPattern)}
	}
	if e.System() != sys {
		return nil, sys.mixError(e, 0)
	}
	s := sys.newSession(ctx)
	if err := s.checkAbort(); err != nil {
		return nil, err
	}
	out, err := s.eval(e)
	if err != nil {
		switch {
		case errors.Is(err, ErrResourceExhausted):
			sys.log.Warn("evaluation budget exhausted", "err", err, "steps", s.steps)
		case errors.Is(err, ErrAborted):
			sys.log.Warn("evaluation aborted", "err", err, "steps", s.steps)
		}
		return nil, err
	}
	return out, nil
}

// Evaluate evaluates e in the system that owns it.
func Evaluate(ctx context.Context, e Expr) (Expr, error) {
	if e == nil {
		return nil, &EvalError{Op: "evaluate", Err: fmt.Errorf("%w: nil term", ErrMalformedPattern)}
	}
	return e.System().Evaluate(ctx, e)
}

type evalState uint8

const (
	stStart evalState = iota
	stHead
	stArgs
	stCanon
	stBuiltin
	stRules
)

type frame struct {
	state evalState
	expr  Expr
	stage *Stage
	head  *Symbol
	attrs Attributes
	next  int
}

// quick reports whether e evaluates to itself without a frame.
func quick(e Expr) bool {
	switch t := e.(type) {
	case *Symbol:
		return len(t.own) == 0
	case *Invocation:
		return false
	}
	return true
}

func held(attrs Attributes, i int) bool {
	if i == 0 {
		return attrs.Has(HoldFirst)
	}
	return attrs.Has(HoldRest)
}

// eval runs one evaluation on its own frame stack. Nested evaluations
// started by reducers and conditions share the session's budgets.
func (s *session) eval(e Expr) (Expr, error) {
	base := s.depth
	defer func() { s.depth = base }()

	var frames []*frame
	push := func(e Expr) error {
		if err := s.enter(); err != nil {
			return err
		}
		frames = append(frames, &frame{expr: e})
		return nil
	}
	if err := push(e); err != nil {
		return nil, err
	}
	for {
		if err := s.probe(); err != nil {
			return nil, err
		}
		f := frames[len(frames)-1]
		done, child, err := s.advance(f)
		if err != nil {
			return nil, err
		}
		if child != nil {
			if err := push(child); err != nil {
				return nil, err
			}
			continue
		}
		if done == nil {
			continue
		}
		frames[len(frames)-1] = nil
		frames = frames[:len(frames)-1]
		s.depth--
		if len(frames) == 0 {
			return done, nil
		}
		s.deliver(frames[len(frames)-1], done)
	}
}

// deliver hands a finished child value to its parent frame.
func (s *session) deliver(p *frame, v Expr) {
	switch p.state {
	case stHead:
		p.stage.SetHead(v)
		s.headReady(p)
	case stArgs:
		p.stage.Set(p.next, v)
		p.next++
	}
}

func (s *session) headReady(f *frame) {
	f.head, _ = f.stage.Head().(*Symbol)
	f.attrs = 0
	if f.head != nil {
		f.attrs = f.head.attrs
	}
	f.next = 0
	f.state = stArgs
}

func (s *session) restart(f *frame, e Expr) error {
	if err := s.step(); err != nil {
		return err
	}
	f.expr, f.stage, f.head, f.state = e, nil, nil, stStart
	return nil
}

// advance runs one state of f. It returns the frame's final value, or a
// child term to evaluate first, or neither when f moved to another state.
func (s *session) advance(f *frame) (done, child Expr, err error) {
	sys := s.sys
	switch f.state {
	case stStart:
		switch t := f.expr.(type) {
		case *Symbol:
			out, ok, err := s.applyRules(t, t.own, t)
			if err != nil || !ok {
				return t, nil, err
			}
			return nil, nil, s.restart(f, out)
		case *Invocation:
			f.stage = sys.NewStage(t)
			f.state = stHead
			if !quick(t.head) {
				return nil, t.head, nil
			}
			s.headReady(f)
			return nil, nil, nil
		}
		return f.expr, nil, nil

	case stArgs:
		for f.next < f.stage.Len() {
			a := f.stage.Arg(f.next)
			if held(f.attrs, f.next) || quick(a) {
				f.next++
				continue
			}
			return nil, a, nil
		}
		f.state = stCanon
		return nil, nil, nil

	case stCanon:
		out, outcome := sys.canonicalize(f.stage, f.attrs)
		switch outcome {
		case canonUnwrapped:
			if !f.attrs.Has(HoldFirst) {
				return out, nil, nil
			}
			return nil, nil, s.restart(f, out)
		case canonThreaded:
			return nil, nil, s.restart(f, out)
		}
		f.expr = out
		f.state = stBuiltin
		return nil, nil, nil

	case stBuiltin:
		inv := f.expr.(*Invocation)
		r := s.reducerFor(f, inv)
		if r == nil {
			f.state = stRules
			return nil, nil, nil
		}
		out, err := r.Reduce(&Call{Sys: sys, Inv: inv, sess: s})
		if err != nil {
			switch {
			case propagates(err):
				return nil, nil, err
			case sys.opts.FailedTerms:
				return sys.failed(err, inv), nil, nil
			case errors.Is(err, ErrDomain):
				// Outside the reducer's domain: not applicable, the term
				// stays symbolic and user rules get their turn.
				if sys.debugEnabled() {
					sys.log.Debug("reduction not applicable", "term", inv.String(), "err", err)
				}
				f.state = stRules
				return nil, nil, nil
			}
			return nil, nil, err
		}
		if out == nil || Equivalent(out, inv) {
			f.state = stRules
			return nil, nil, nil
		}
		return nil, nil, s.restart(f, out)

	case stRules:
		inv := f.expr.(*Invocation)
		if f.head == nil || len(f.head.down) == 0 {
			return inv, nil, nil
		}
		out, ok, err := s.applyRules(f.head, f.head.down, inv)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return inv, nil, nil
		}
		return nil, nil, s.restart(f, out)
	}
	return nil, nil, fmt.Errorf("rewrite: bad evaluator state %d", f.state)
}

func (s *session) reducerFor(f *frame, inv *Invocation) Reducer {
	if f.head != nil {
		return f.head.builtin
	}
	if fn, ok := inv.head.(*Invocation); ok && fn.head == Expr(s.sys.Function) {
		return ReducerFunc(s.sys.applyFunction)
	}
	return nil
}

// applyRules tries rules in order and returns the first rewrite of t.
func (s *session) applyRules(owner *Symbol, rules []*Rule, t Expr) (Expr, bool, error) {
	for _, r := range rules {
		out, ok, err := s.applyRule(r, t)
		if err != nil {
			return nil, false, err
		}
		if ok {
			if s.sys.debugEnabled() {
				s.sys.log.Debug("rule applied", "symbol", owner.name, "rule", r.String())
			}
			return out, true, nil
		}
	}
	return nil, false, nil
}

// applyRule matches r against t. A failing condition backtracks into the
// pattern search rather than rejecting the rule outright.
func (s *session) applyRule(r *Rule, t Expr) (Expr, bool, error) {
	m := &matcher{sess: s, vars: r.Vars, sub: NewSubstitution()}
	var out Expr
	accept := func() bool {
		out = m.sub.Apply(r.Template)
		return true
	}
	m.match(r.Pattern, t, func() bool {
		if r.Condition != nil {
			return m.test(r.Condition, accept)
		}
		return accept()
	})
	if m.err != nil {
		return nil, false, m.err
	}
	return out, out != nil, nil
}

// failed builds the in-band Failed[message, Hold[term]] result.
func (sys *System) failed(err error, inv *Invocation) Expr {
	if sys.debugEnabled() {
		sys.log.Debug("reduction failed", "term", inv.String(), "err", err)
	}
	return sys.invoke(sys.Failed, []Expr{sys.Text(err.Error()), sys.invoke(sys.Hold, []Expr{inv})})
}
