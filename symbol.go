package rewrite

import (
	"strings"
)

// ============================================================
// Symbol — named atom with rules and attributes
// ============================================================

// Symbol is an atomic term whose identity is its pointer. Two symbols with
// the same name in different scopes are distinct terms.
//
// A symbol owns two ordered rule lists: own values (rules whose pattern is
// the symbol itself) and down values (rules for invocations headed by it).
// Mutation is not synchronized; embedders must serialize AddRule, ClearValues
// and attribute changes against concurrent evaluation.
type Symbol struct {
	base
	id       uint64
	name     string
	scope    *Scope
	attrs    Attributes
	locked   bool
	released bool
	own      []*Rule
	down     []*Rule
	builtin  Reducer
}

func (sys *System) newSymbol(name string, scope *Scope) *Symbol {
	id := sys.nextID.Add(1)
	s := &Symbol{id: id, name: name, scope: scope}
	s.sys = sys
	s.hash = mix(mix(hashOffset, seedSymbol), id)
	return s
}

func (s *Symbol) Name() string           { return s.name }
func (s *Symbol) ID() uint64             { return s.id }
func (s *Symbol) Scope() *Scope          { return s.scope }
func (s *Symbol) Attributes() Attributes { return s.attrs }
func (s *Symbol) Locked() bool           { return s.locked }
func (s *Symbol) Released() bool         { return s.released }
func (s *Symbol) Builtin() Reducer       { return s.builtin }
func (s *Symbol) Head() Expr             { return s.sys.Symbol }

func (s *Symbol) Equivalent(other Expr) bool {
	o, ok := other.(*Symbol)
	return ok && o == s
}

func (s *Symbol) String() string { return ToString(s, FullForm) }
func (s *Symbol) Format(b *strings.Builder, f Formatter) {
	formatTo(b, s, f)
}
func (s *Symbol) withPlacement(*Placement) Expr { return s }

// Of builds s[args...]. It panics when an argument belongs to another system.
func (s *Symbol) Of(args ...Expr) *Invocation { return s.sys.Call(s, args...) }

// DownValues returns a copy of the rules applied to invocations headed by s.
func (s *Symbol) DownValues() []*Rule { return append([]*Rule(nil), s.down...) }

// OwnValues returns a copy of the rules applied to s itself.
func (s *Symbol) OwnValues() []*Rule { return append([]*Rule(nil), s.own...) }

// ============================================================
// Mutation entry points
// ============================================================

func (s *Symbol) mutable() error {
	switch {
	case s.locked:
		return &EvalError{Op: "modify", Term: s, Err: ErrLocked}
	case s.released:
		return &EvalError{Op: "modify", Term: s, Err: ErrReleased}
	}
	return nil
}

// Lock makes every later mutation fail with ErrLocked.
func (s *Symbol) Lock() { s.locked = true }

// AddRule stores a rule for s. The pattern must be s itself (an own value)
// or an invocation headed by s (a down value). condition may be nil.
func (s *Symbol) AddRule(kind RuleKind, pattern, template, condition Expr) error {
	return s.Define(&Rule{Kind: kind, Pattern: pattern, Template: template, Condition: condition})
}

// Define stores r. A rule whose pattern and condition are equivalent to a
// stored rule replaces it in place; otherwise r is appended.
func (s *Symbol) Define(r *Rule) error {
	if err := s.mutable(); err != nil {
		return err
	}
	if err := r.validate(s); err != nil {
		return err
	}
	list := &s.down
	if p, ok := withoutCondition(r.Pattern).(*Symbol); ok && p == s {
		list = &s.own
	}
	rules := append([]*Rule(nil), (*list)...)
	replaced := false
	for i, old := range rules {
		if Equivalent(old.Pattern, r.Pattern) && Equivalent(old.Condition, r.Condition) {
			rules[i] = r
			replaced = true
			break
		}
	}
	if !replaced {
		rules = append(rules, r)
	}
	*list = rules
	if s.sys.debugEnabled() {
		s.sys.log.Debug("rule defined", "symbol", s.name, "kind", r.Kind.String(), "pattern", r.Pattern.String(), "replaced", replaced)
	}
	return nil
}

// ClearValues removes every own and down value.
func (s *Symbol) ClearValues() error {
	if err := s.mutable(); err != nil {
		return err
	}
	s.own, s.down = nil, nil
	return nil
}

// ClearAll removes values and attributes.
func (s *Symbol) ClearAll() error {
	if err := s.ClearValues(); err != nil {
		return err
	}
	s.attrs = 0
	return nil
}

func (s *Symbol) AddAttributes(a Attributes) error {
	if err := s.mutable(); err != nil {
		return err
	}
	s.attrs = s.attrs.With(a)
	return nil
}

func (s *Symbol) RemoveAttributes(a Attributes) error {
	if err := s.mutable(); err != nil {
		return err
	}
	s.attrs = s.attrs.Without(a)
	return nil
}

// release is called by PopScope.
func (s *Symbol) release() {
	s.own, s.down = nil, nil
	s.released = true
}
